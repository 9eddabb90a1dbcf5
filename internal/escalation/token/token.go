// Package token implements the signed claim credential. A claim token binds a
// lead and its tenant to a bounded claim window; any bit flip or expiry
// invalidates it.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers malformed, mis-signed, and expired tokens. Callers
// making trust decisions match on this error only.
var ErrInvalidToken = errors.New("invalid claim token")

// ErrExpiredToken wraps ErrInvalidToken so expiry can drive user-facing
// wording without weakening the fail-closed contract.
var ErrExpiredToken = fmt.Errorf("%w: expired", ErrInvalidToken)

// SecretSource supplies the process-wide signing secret. Kept as an interface
// so rotation strategies can be plugged in without touching the codec.
type SecretSource interface {
	GetClaimTokenSecret() string
}

// Claim is the decoded content of a verified token.
type Claim struct {
	LeadID   uuid.UUID
	TenantID uuid.UUID
}

type claimTokenClaims struct {
	LeadID   string `json:"lid"`
	TenantID string `json:"tid"`
	jwt.RegisteredClaims
}

// Codec issues and verifies claim tokens. It is a pure function of its inputs
// and the shared secret; no side effects.
type Codec struct {
	secrets SecretSource
}

// NewCodec creates a claim token codec.
func NewCodec(secrets SecretSource) *Codec {
	return &Codec{secrets: secrets}
}

// Issue encodes the lead and tenant identity with the given time-to-live,
// signed HS256.
func (c *Codec) Issue(leadID, tenantID uuid.UUID, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("claim token ttl must be positive")
	}

	now := time.Now()
	claims := claimTokenClaims{
		LeadID:   leadID.String(),
		TenantID: tenantID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(c.secrets.GetClaimTokenSecret()))
}

// Verify checks signature and expiry and returns the decoded claim. All
// failure modes collapse to ErrInvalidToken; expiry additionally matches
// ErrExpiredToken for messaging.
func (c *Codec) Verify(raw string) (Claim, error) {
	var claims claimTokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return []byte(c.secrets.GetClaimTokenSecret()), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claim{}, ErrExpiredToken
		}
		return Claim{}, ErrInvalidToken
	}

	leadID, err := uuid.Parse(claims.LeadID)
	if err != nil {
		return Claim{}, ErrInvalidToken
	}
	tenantID, err := uuid.Parse(claims.TenantID)
	if err != nil {
		return Claim{}, ErrInvalidToken
	}

	return Claim{LeadID: leadID, TenantID: tenantID}, nil
}
