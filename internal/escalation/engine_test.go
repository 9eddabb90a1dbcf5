package escalation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"leadline_backend/internal/escalation/cache"
	"leadline_backend/internal/escalation/token"
	"leadline_backend/internal/events"
	"leadline_backend/internal/leads/domain"
	leadrepo "leadline_backend/internal/leads/repository"
	tenantrepo "leadline_backend/internal/tenants/repository"
	"leadline_backend/platform/apperr"
	"leadline_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeLeadStore struct {
	mu     sync.Mutex
	leads  map[uuid.UUID]*leadrepo.Lead
	events []string

	failMarkEscalated map[uuid.UUID]error
}

func newFakeLeadStore() *fakeLeadStore {
	return &fakeLeadStore{
		leads:             make(map[uuid.UUID]*leadrepo.Lead),
		failMarkEscalated: make(map[uuid.UUID]error),
	}
}

func (f *fakeLeadStore) add(lead leadrepo.Lead) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := lead
	f.leads[lead.ID] = &copied
}

func (f *fakeLeadStore) GetByID(_ context.Context, id uuid.UUID) (leadrepo.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[id]
	if !ok {
		return leadrepo.Lead{}, leadrepo.ErrNotFound
	}
	return *lead, nil
}

func (f *fakeLeadStore) BeginClaimWindow(_ context.Context, id uuid.UUID, claimToken string, expiresAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[id]
	if !ok || lead.Status != domain.StatusNew {
		return false, nil
	}
	lead.Status = domain.StatusSMSSent
	lead.ClaimToken = &claimToken
	lead.ClaimExpiresAt = &expiresAt
	return true, nil
}

func (f *fakeLeadStore) MarkClaimed(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[id]
	if !ok || lead.Status != domain.StatusSMSSent {
		return false, nil
	}
	now := time.Now()
	by := domain.ClaimedByHuman
	lead.Status = domain.StatusClaimed
	lead.ClaimedBy = &by
	lead.ClaimedAt = &now
	return true, nil
}

func (f *fakeLeadStore) MarkEscalated(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failMarkEscalated[id]; err != nil {
		return false, err
	}
	lead, ok := f.leads[id]
	if !ok || lead.Status != domain.StatusSMSSent {
		return false, nil
	}
	if lead.ClaimExpiresAt == nil || lead.ClaimExpiresAt.After(time.Now()) {
		return false, nil
	}
	by := domain.ClaimedByAI
	lead.Status = domain.StatusAICalling
	lead.ClaimedBy = &by
	return true, nil
}

func (f *fakeLeadStore) SetExternalCallID(_ context.Context, id uuid.UUID, callID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if lead, ok := f.leads[id]; ok {
		lead.ExternalCallID = &callID
	}
	return nil
}

func (f *fakeLeadStore) AppendEvent(_ context.Context, _, _ uuid.UUID, eventType string, _ map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, eventType)
	return nil
}

func (f *fakeLeadStore) hasEvent(eventType string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e == eventType {
			return true
		}
	}
	return false
}

func (f *fakeLeadStore) status(id uuid.UUID) domain.LeadStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.leads[id].Status
}

type fakeTenantStore struct {
	tenant  tenantrepo.Tenant
	members []tenantrepo.TeamMember
}

func (f *fakeTenantStore) GetByID(_ context.Context, id uuid.UUID) (tenantrepo.Tenant, error) {
	if id != f.tenant.ID {
		return tenantrepo.Tenant{}, errors.New("tenant not found")
	}
	return f.tenant, nil
}

func (f *fakeTenantStore) ListNotifiableMembers(_ context.Context, _ uuid.UUID) ([]tenantrepo.TeamMember, error) {
	return f.members, nil
}

type fakeNotifier struct {
	mu         sync.Mutex
	recipients []string
	body       string
}

func (f *fakeNotifier) Broadcast(_ context.Context, recipients []string, _, body string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recipients = append([]string(nil), recipients...)
	f.body = body
	return len(recipients)
}

type fakeVoice struct {
	mu      sync.Mutex
	callID  string
	err     error
	callCtx CallContext
	calls   int
}

func (f *fakeVoice) Initiate(_ context.Context, callCtx CallContext) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.callCtx = callCtx
	if f.err != nil {
		return "", f.err
	}
	return f.callID, nil
}

type recordingBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) has(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.published {
		if e.EventName() == name {
			return true
		}
	}
	return false
}

type secretSource string

func (s secretSource) GetClaimTokenSecret() string { return string(s) }

type testEnv struct {
	engine   *Engine
	leads    *fakeLeadStore
	tenants  *fakeTenantStore
	notifier *fakeNotifier
	voice    *fakeVoice
	bus      *recordingBus
	codec    *token.Codec
	tenant   tenantrepo.Tenant
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tenant := tenantrepo.Tenant{
		ID:                  uuid.New(),
		Name:                "Ace Roofing",
		PrimaryPhone:        "+15551230000",
		SMSFromNumber:       "+15559990000",
		ClaimTimeoutSeconds: 120,
		AIGreeting:          "Hi, this is Ace Roofing",
		AITone:              "friendly",
		Services:            []string{"roofing", "gutters"},
		CalendarLink:        "https://cal.example/ace",
	}

	leads := newFakeLeadStore()
	tenants := &fakeTenantStore{
		tenant: tenant,
		members: []tenantrepo.TeamMember{
			{ID: uuid.New(), TenantID: tenant.ID, Name: "Sam", Phone: "+15551110001", NotifyOnLead: true},
			{ID: uuid.New(), TenantID: tenant.ID, Name: "Pat", Phone: "+15551110002", NotifyOnLead: true},
		},
	}
	notifier := &fakeNotifier{}
	voice := &fakeVoice{callID: "call_abc123"}
	bus := &recordingBus{}
	log := logger.New("test")
	codec := token.NewCodec(secretSource("engine-test-secret"))

	engine := NewEngine(
		leads, tenants, codec,
		cache.NewWithClient(nil, log),
		notifier, voice, bus,
		"https://app.example/claim", 2*time.Minute, log,
	)

	return &testEnv{
		engine: engine, leads: leads, tenants: tenants,
		notifier: notifier, voice: voice, bus: bus,
		codec: codec, tenant: tenant,
	}
}

func (env *testEnv) addLead(status domain.LeadStatus) leadrepo.Lead {
	lead := leadrepo.Lead{
		ID:       uuid.New(),
		TenantID: env.tenant.ID,
		Name:     "Jordan Fields",
		Phone:    "+15552224444",
		Source:   "landing_page",
		Status:   status,
	}
	env.leads.add(lead)
	return lead
}

func TestStartOpensClaimWindow(t *testing.T) {
	env := newTestEnv(t)
	lead := env.addLead(domain.StatusNew)

	if err := env.engine.Start(context.Background(), lead.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if got := env.leads.status(lead.ID); got != domain.StatusSMSSent {
		t.Errorf("status = %s, want SMS_SENT", got)
	}
	if len(env.notifier.recipients) != 2 {
		t.Errorf("recipients = %d, want 2", len(env.notifier.recipients))
	}
	if !strings.Contains(env.notifier.body, "https://app.example/claim/") {
		t.Errorf("claim message missing link: %q", env.notifier.body)
	}
	if !env.leads.hasEvent("escalation_started") {
		t.Error("missing escalation_started audit event")
	}
	if !env.bus.has(events.EscalationStarted{}.EventName()) {
		t.Error("missing EscalationStarted publication")
	}

	// The token in the SMS must verify and point at this lead.
	stored, _ := env.leads.GetByID(context.Background(), lead.ID)
	if stored.ClaimToken == nil {
		t.Fatal("claim token not persisted")
	}
	claim, err := env.codec.Verify(*stored.ClaimToken)
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	if claim.LeadID != lead.ID || claim.TenantID != lead.TenantID {
		t.Errorf("token claims = %s/%s, want %s/%s", claim.LeadID, claim.TenantID, lead.ID, lead.TenantID)
	}
}

func TestStartIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	lead := env.addLead(domain.StatusNew)

	if err := env.engine.Start(context.Background(), lead.ID); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	firstBody := env.notifier.body

	if err := env.engine.Start(context.Background(), lead.ID); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if env.notifier.body != firstBody {
		t.Error("second Start must not re-broadcast")
	}
}

func TestStartFallsBackToPrimaryPhone(t *testing.T) {
	env := newTestEnv(t)
	env.tenants.members = nil
	lead := env.addLead(domain.StatusNew)

	if err := env.engine.Start(context.Background(), lead.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if len(env.notifier.recipients) != 1 || env.notifier.recipients[0] != env.tenant.PrimaryPhone {
		t.Fatalf("recipients = %v, want [%s]", env.notifier.recipients, env.tenant.PrimaryPhone)
	}
}

func TestClaimWindowClamping(t *testing.T) {
	cases := []struct {
		configured int
		want       time.Duration
	}{
		{5, minClaimWindow},
		{0, 2 * time.Minute}, // falls back to the default
		{120, 2 * time.Minute},
		{900, maxClaimWindow},
	}

	for _, tc := range cases {
		env := newTestEnv(t)
		env.tenants.tenant.ClaimTimeoutSeconds = tc.configured
		env.tenant = env.tenants.tenant
		lead := env.addLead(domain.StatusNew)

		before := time.Now()
		if err := env.engine.Start(context.Background(), lead.ID); err != nil {
			t.Fatalf("Start(%d): %v", tc.configured, err)
		}

		stored, _ := env.leads.GetByID(context.Background(), lead.ID)
		if stored.ClaimExpiresAt == nil {
			t.Fatalf("Start(%d): expiry not persisted", tc.configured)
		}
		window := stored.ClaimExpiresAt.Sub(before)
		if window < tc.want-time.Second || window > tc.want+time.Second {
			t.Errorf("configured %ds: window = %s, want ~%s", tc.configured, window, tc.want)
		}
	}
}

func TestClaimHappyPath(t *testing.T) {
	env := newTestEnv(t)
	lead := env.addLead(domain.StatusNew)
	if err := env.engine.Start(context.Background(), lead.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}

	stored, _ := env.leads.GetByID(context.Background(), lead.ID)
	claimed, err := env.engine.Claim(context.Background(), *stored.ClaimToken)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}

	if claimed.Status != domain.StatusClaimed {
		t.Errorf("status = %s, want CLAIMED", claimed.Status)
	}
	if claimed.ClaimedBy == nil || *claimed.ClaimedBy != domain.ClaimedByHuman {
		t.Error("claimed_by not set to human")
	}
	if !env.leads.hasEvent("lead_claimed") {
		t.Error("missing lead_claimed audit event")
	}
	if !env.bus.has(events.LeadClaimed{}.EventName()) {
		t.Error("missing LeadClaimed publication")
	}
}

func TestClaimTwiceReportsConflict(t *testing.T) {
	env := newTestEnv(t)
	lead := env.addLead(domain.StatusNew)
	if err := env.engine.Start(context.Background(), lead.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	stored, _ := env.leads.GetByID(context.Background(), lead.ID)

	if _, err := env.engine.Claim(context.Background(), *stored.ClaimToken); err != nil {
		t.Fatalf("first Claim: %v", err)
	}
	_, err := env.engine.Claim(context.Background(), *stored.ClaimToken)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("second Claim kind = %v, want Conflict", apperr.GetKind(err))
	}
}

func TestClaimExpiredTokenReportsGone(t *testing.T) {
	env := newTestEnv(t)
	lead := env.addLead(domain.StatusSMSSent)

	raw, err := env.codec.Issue(lead.ID, lead.TenantID, time.Millisecond)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	_, err = env.engine.Claim(context.Background(), raw)
	if !apperr.Is(err, apperr.KindGone) {
		t.Fatalf("kind = %v, want Gone", apperr.GetKind(err))
	}
	if got := env.leads.status(lead.ID); got != domain.StatusSMSSent {
		t.Errorf("status changed to %s on expired claim", got)
	}
}

func TestClaimForgedTokenRejected(t *testing.T) {
	env := newTestEnv(t)
	lead := env.addLead(domain.StatusSMSSent)

	forger := token.NewCodec(secretSource("some-other-secret"))
	raw, err := forger.Issue(lead.ID, lead.TenantID, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = env.engine.Claim(context.Background(), raw)
	if !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("kind = %v, want Unauthorized", apperr.GetKind(err))
	}
	if got := env.leads.status(lead.ID); got != domain.StatusSMSSent {
		t.Errorf("status changed to %s on forged claim", got)
	}
}

func TestClaimTenantMismatchRejected(t *testing.T) {
	env := newTestEnv(t)
	lead := env.addLead(domain.StatusSMSSent)

	raw, err := env.codec.Issue(lead.ID, uuid.New(), time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = env.engine.Claim(context.Background(), raw)
	if !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("kind = %v, want Unauthorized", apperr.GetKind(err))
	}
}

func TestClaimUnknownLeadRejected(t *testing.T) {
	env := newTestEnv(t)

	raw, err := env.codec.Issue(uuid.New(), env.tenant.ID, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = env.engine.Claim(context.Background(), raw)
	if !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("kind = %v, want Unauthorized", apperr.GetKind(err))
	}
}

func expireLead(env *testEnv, id uuid.UUID) {
	env.leads.mu.Lock()
	defer env.leads.mu.Unlock()
	past := time.Now().Add(-time.Minute)
	env.leads.leads[id].ClaimExpiresAt = &past
}

func TestHandleTimeoutEscalatesAndPlacesCall(t *testing.T) {
	env := newTestEnv(t)
	lead := env.addLead(domain.StatusSMSSent)
	expireLead(env, lead.ID)

	escalated, err := env.engine.HandleTimeout(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("HandleTimeout: %v", err)
	}
	if !escalated {
		t.Fatal("expected escalation")
	}

	if got := env.leads.status(lead.ID); got != domain.StatusAICalling {
		t.Errorf("status = %s, want AI_CALLING", got)
	}
	stored, _ := env.leads.GetByID(context.Background(), lead.ID)
	if stored.ExternalCallID == nil || *stored.ExternalCallID != "call_abc123" {
		t.Error("external call id not stored")
	}
	if env.voice.callCtx.LeadPhone != lead.Phone {
		t.Errorf("call placed to %s, want %s", env.voice.callCtx.LeadPhone, lead.Phone)
	}
	if env.voice.callCtx.Greeting != env.tenant.AIGreeting {
		t.Error("tenant greeting not passed to the voice provider")
	}
	if !env.leads.hasEvent("claim_timeout") || !env.leads.hasEvent("ai_call_placed") {
		t.Error("missing timeout audit events")
	}
	if !env.bus.has(events.ClaimTimedOut{}.EventName()) {
		t.Error("missing ClaimTimedOut publication")
	}
}

func TestHandleTimeoutAfterClaimIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	lead := env.addLead(domain.StatusNew)
	if err := env.engine.Start(context.Background(), lead.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	stored, _ := env.leads.GetByID(context.Background(), lead.ID)
	if _, err := env.engine.Claim(context.Background(), *stored.ClaimToken); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	escalated, err := env.engine.HandleTimeout(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("HandleTimeout: %v", err)
	}
	if escalated {
		t.Fatal("claimed lead must not escalate")
	}
	if env.voice.calls != 0 {
		t.Fatal("no call should be placed for a claimed lead")
	}
	if got := env.leads.status(lead.ID); got != domain.StatusClaimed {
		t.Errorf("status = %s, want CLAIMED", got)
	}
}

func TestHandleTimeoutBeforeExpiryIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	lead := env.addLead(domain.StatusNew)
	if err := env.engine.Start(context.Background(), lead.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}

	escalated, err := env.engine.HandleTimeout(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("HandleTimeout: %v", err)
	}
	if escalated {
		t.Fatal("lead with an open window must not escalate")
	}
}

func TestHandleTimeoutIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	lead := env.addLead(domain.StatusSMSSent)
	expireLead(env, lead.ID)

	if _, err := env.engine.HandleTimeout(context.Background(), lead.ID); err != nil {
		t.Fatalf("first HandleTimeout: %v", err)
	}
	escalated, err := env.engine.HandleTimeout(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("second HandleTimeout: %v", err)
	}
	if escalated {
		t.Fatal("second timeout must be a no-op")
	}
	if env.voice.calls != 1 {
		t.Fatalf("voice calls = %d, want 1", env.voice.calls)
	}
}

func TestHandleTimeoutVoiceFailureKeepsLeadInAICalling(t *testing.T) {
	env := newTestEnv(t)
	env.voice.err = errors.New("provider unavailable")
	lead := env.addLead(domain.StatusSMSSent)
	expireLead(env, lead.ID)

	escalated, err := env.engine.HandleTimeout(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("HandleTimeout: %v", err)
	}
	if !escalated {
		t.Fatal("expected escalation despite call failure")
	}

	if got := env.leads.status(lead.ID); got != domain.StatusAICalling {
		t.Errorf("status = %s, want AI_CALLING", got)
	}
	if !env.leads.hasEvent("ai_call_failed") {
		t.Error("missing ai_call_failed audit event")
	}
	if !env.bus.has(events.AICallFailed{}.EventName()) {
		t.Error("missing AICallFailed publication")
	}
}

func TestClaimBeatsTimeoutRace(t *testing.T) {
	env := newTestEnv(t)
	lead := env.addLead(domain.StatusNew)
	if err := env.engine.Start(context.Background(), lead.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	expireLead(env, lead.ID)
	stored, _ := env.leads.GetByID(context.Background(), lead.ID)

	// Claim first, then the sweeper fires on the same lead.
	if _, err := env.engine.Claim(context.Background(), *stored.ClaimToken); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	escalated, err := env.engine.HandleTimeout(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("HandleTimeout: %v", err)
	}
	if escalated {
		t.Fatal("timeout must lose to an earlier claim")
	}
	if got := env.leads.status(lead.ID); got != domain.StatusClaimed {
		t.Errorf("status = %s, want CLAIMED", got)
	}
}

func TestTimeoutBeatsClaimRace(t *testing.T) {
	env := newTestEnv(t)
	lead := env.addLead(domain.StatusNew)
	if err := env.engine.Start(context.Background(), lead.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	expireLead(env, lead.ID)
	stored, _ := env.leads.GetByID(context.Background(), lead.ID)

	escalated, err := env.engine.HandleTimeout(context.Background(), lead.ID)
	if err != nil || !escalated {
		t.Fatalf("HandleTimeout = %v, %v", escalated, err)
	}

	_, err = env.engine.Claim(context.Background(), *stored.ClaimToken)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("late claim kind = %v, want Conflict", apperr.GetKind(err))
	}
	if got := env.leads.status(lead.ID); got != domain.StatusAICalling {
		t.Errorf("status = %s, want AI_CALLING", got)
	}
}
