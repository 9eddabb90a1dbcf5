package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type staticSecret string

func (s staticSecret) GetClaimTokenSecret() string { return string(s) }

func TestIssueVerifyRoundTrip(t *testing.T) {
	codec := NewCodec(staticSecret("test-secret"))
	leadID := uuid.New()
	tenantID := uuid.New()

	raw, err := codec.Issue(leadID, tenantID, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claim, err := codec.Verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claim.LeadID != leadID {
		t.Errorf("lead id = %s, want %s", claim.LeadID, leadID)
	}
	if claim.TenantID != tenantID {
		t.Errorf("tenant id = %s, want %s", claim.TenantID, tenantID)
	}
}

func TestIssueRejectsNonPositiveTTL(t *testing.T) {
	codec := NewCodec(staticSecret("test-secret"))
	if _, err := codec.Issue(uuid.New(), uuid.New(), 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
	if _, err := codec.Issue(uuid.New(), uuid.New(), -time.Second); err == nil {
		t.Fatal("expected error for negative ttl")
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	codec := NewCodec(staticSecret("test-secret"))
	raw, err := codec.Issue(uuid.New(), uuid.New(), time.Millisecond)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	_, err = codec.Verify(raw)
	if !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
	// Expiry is still an invalid token for trust decisions.
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expiry to wrap ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	issuer := NewCodec(staticSecret("attacker-secret"))
	verifier := NewCodec(staticSecret("real-secret"))

	raw, err := issuer.Issue(uuid.New(), uuid.New(), time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = verifier.Verify(raw)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if errors.Is(err, ErrExpiredToken) {
		t.Fatal("foreign signature must not report as expired")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	codec := NewCodec(staticSecret("test-secret"))
	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := codec.Verify(raw); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify(%q) = %v, want ErrInvalidToken", raw, err)
		}
	}
}

func TestVerifyRejectsUnsignedAlgorithm(t *testing.T) {
	codec := NewCodec(staticSecret("test-secret"))

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"lid": uuid.New().String(),
		"tid": uuid.New().String(),
		"exp": time.Now().Add(time.Minute).Unix(),
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := codec.Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for alg=none, got %v", err)
	}
}

func TestVerifyRejectsMalformedIDs(t *testing.T) {
	codec := NewCodec(staticSecret("test-secret"))

	claims := jwt.MapClaims{
		"lid": "not-a-uuid",
		"tid": uuid.New().String(),
		"exp": time.Now().Add(time.Minute).Unix(),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := codec.Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for malformed lead id, got %v", err)
	}
}
