package repository

import (
	"context"
	"errors"
	"time"

	"leadline_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

const leadColumns = `id, tenant_id, name, phone, email, address, source, status,
		claim_token, claim_expires_at, claimed_by, claimed_at,
		external_call_id, call_started_at, call_ended_at, call_duration_seconds,
		call_transcript, call_outcome, transcript_object_key,
		appointment_time, external_booking_id, created_at, updated_at`

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID                  uuid.UUID
	TenantID            uuid.UUID
	Name                string
	Phone               string
	Email               *string
	Address             *string
	Source              string
	Status              domain.LeadStatus
	ClaimToken          *string
	ClaimExpiresAt      *time.Time
	ClaimedBy           *domain.ClaimedBy
	ClaimedAt           *time.Time
	ExternalCallID      *string
	CallStartedAt       *time.Time
	CallEndedAt         *time.Time
	CallDurationSeconds *int
	CallTranscript      *string
	CallOutcome         *string
	TranscriptObjectKey *string
	AppointmentTime     *time.Time
	ExternalBookingID   *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type CreateLeadParams struct {
	TenantID uuid.UUID
	Name     string
	Phone    string
	Email    *string
	Address  *string
	Source   string
}

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (tenant_id, name, phone, email, address, source)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+leadColumns+`
	`, params.TenantID, params.Name, params.Phone, params.Email, params.Address, params.Source)
	return scanLead(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	return scanLead(row)
}

func (r *Repository) GetByIDForTenant(ctx context.Context, id, tenantID uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE id = $1 AND tenant_id = $2
	`, id, tenantID)
	return scanLead(row)
}

func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, status *domain.LeadStatus, limit, offset int) ([]Lead, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE tenant_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, tenantID, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// BeginClaimWindow transitions NEW -> SMS_SENT and stores the claim credential.
// Returns false when the lead already left NEW.
func (r *Repository) BeginClaimWindow(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET status = $3, claim_token = $4, claim_expires_at = $5, updated_at = now()
		WHERE id = $1 AND status = $2
	`, id, domain.StatusNew, domain.StatusSMSSent, token, expiresAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkClaimed transitions SMS_SENT -> CLAIMED. The status predicate is the
// at-most-once claim gate: concurrent claims and a racing sweep serialize on
// this single conditional write, and exactly one caller sees true.
func (r *Repository) MarkClaimed(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET status = $3, claimed_by = $4, claimed_at = now(), updated_at = now()
		WHERE id = $1 AND status = $2
	`, id, domain.StatusSMSSent, domain.StatusClaimed, domain.ClaimedByHuman)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkEscalated transitions SMS_SENT -> AI_CALLING, but only once the claim
// window has actually lapsed. The expiry predicate keeps an early sweep from
// stealing an open window.
func (r *Repository) MarkEscalated(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET status = $3, claimed_by = $4, claimed_at = now(), updated_at = now()
		WHERE id = $1 AND status = $2 AND claim_expires_at <= now()
	`, id, domain.StatusSMSSent, domain.StatusAICalling, domain.ClaimedByAI)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkDead terminates a lead by operator action. Allowed from any
// non-terminal status.
func (r *Repository) MarkDead(ctx context.Context, id, tenantID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET status = $3, updated_at = now()
		WHERE id = $1 AND tenant_id = $2
			AND status IN ($4, $5, $6)
	`, id, tenantID, domain.StatusDead, domain.StatusNew, domain.StatusSMSSent, domain.StatusAICalling)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repository) SetExternalCallID(ctx context.Context, id uuid.UUID, callID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE leads SET external_call_id = $2, call_started_at = now(), updated_at = now()
		WHERE id = $1
	`, id, callID)
	return err
}

// ExpiredClaimCandidates returns leads whose claim window has lapsed while
// still awaiting a claim. This is only a candidate list for the sweeper; the
// authoritative guard lives in MarkEscalated.
func (r *Repository) ExpiredClaimCandidates(ctx context.Context, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 500
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id FROM leads
		WHERE status = $1 AND claim_expires_at <= now()
		ORDER BY claim_expires_at ASC
		LIMIT $2
	`, domain.StatusSMSSent, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) GetByExternalCallID(ctx context.Context, callID string) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE external_call_id = $1
	`, callID)
	return scanLead(row)
}

// FindNewestByPhone locates the most recently created lead with the given
// phone number. Best-effort reverse lookup for SMS delivery receipts; phone
// numbers are not unique across leads.
func (r *Repository) FindNewestByPhone(ctx context.Context, phone string) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+` FROM leads
		WHERE phone = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, phone)
	return scanLead(row)
}

type RecordCallOutcomeParams struct {
	LeadID          uuid.UUID
	Status          domain.LeadStatus
	EndedAt         time.Time
	DurationSeconds int
	Transcript      string
	Outcome         string
	AppointmentTime *time.Time
	BookingID       *string
}

// RecordCallOutcome overwrites the AI-call result fields. A duplicate webhook
// delivery rewrites the same values, so replays are harmless.
func (r *Repository) RecordCallOutcome(ctx context.Context, params RecordCallOutcomeParams) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET status = $2, call_ended_at = $3, call_duration_seconds = $4,
			call_transcript = $5, call_outcome = $6,
			appointment_time = $7, external_booking_id = $8,
			updated_at = now()
		WHERE id = $1
	`, params.LeadID, params.Status, params.EndedAt, params.DurationSeconds,
		params.Transcript, params.Outcome, params.AppointmentTime, params.BookingID)
	return err
}

func (r *Repository) SetTranscriptObjectKey(ctx context.Context, id uuid.UUID, key string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE leads SET transcript_object_key = $2, updated_at = now() WHERE id = $1
	`, id, key)
	return err
}

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.TenantID, &lead.Name, &lead.Phone, &lead.Email, &lead.Address,
		&lead.Source, &lead.Status,
		&lead.ClaimToken, &lead.ClaimExpiresAt, &lead.ClaimedBy, &lead.ClaimedAt,
		&lead.ExternalCallID, &lead.CallStartedAt, &lead.CallEndedAt, &lead.CallDurationSeconds,
		&lead.CallTranscript, &lead.CallOutcome, &lead.TranscriptObjectKey,
		&lead.AppointmentTime, &lead.ExternalBookingID,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}
