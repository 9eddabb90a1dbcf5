package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound       = errors.New("tenant not found")
	ErrMemberNotFound = errors.New("team member not found")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Tenant is a contractor account. Its escalation settings are read-only input
// to the engine.
type Tenant struct {
	ID                  uuid.UUID
	Name                string
	OwnerEmail          string
	PrimaryPhone        string
	SMSFromNumber       string
	ClaimTimeoutSeconds int
	AIGreeting          string
	AITone              string
	Services            []string
	CalendarLink        string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type TeamMember struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Name         string
	Phone        string
	NotifyOnLead bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const tenantColumns = `id, name, owner_email, primary_phone, sms_from_number,
		claim_timeout_seconds, ai_greeting, ai_tone, services, calendar_link,
		created_at, updated_at`

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Tenant, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)
	return scanTenant(row)
}

type CreateTenantParams struct {
	Name                string
	OwnerEmail          string
	PrimaryPhone        string
	SMSFromNumber       string
	ClaimTimeoutSeconds int
}

func (r *Repository) Create(ctx context.Context, params CreateTenantParams) (Tenant, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO tenants (name, owner_email, primary_phone, sms_from_number, claim_timeout_seconds)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+tenantColumns+`
	`, params.Name, params.OwnerEmail, params.PrimaryPhone, params.SMSFromNumber, params.ClaimTimeoutSeconds)
	return scanTenant(row)
}

type UpdateSettingsParams struct {
	Name                string
	OwnerEmail          string
	PrimaryPhone        string
	SMSFromNumber       string
	ClaimTimeoutSeconds int
	AIGreeting          string
	AITone              string
	Services            []string
	CalendarLink        string
}

func (r *Repository) UpdateSettings(ctx context.Context, id uuid.UUID, params UpdateSettingsParams) (Tenant, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE tenants
		SET name = $2, owner_email = $3, primary_phone = $4, sms_from_number = $5,
			claim_timeout_seconds = $6, ai_greeting = $7, ai_tone = $8,
			services = $9, calendar_link = $10, updated_at = now()
		WHERE id = $1
		RETURNING `+tenantColumns+`
	`, id, params.Name, params.OwnerEmail, params.PrimaryPhone, params.SMSFromNumber,
		params.ClaimTimeoutSeconds, params.AIGreeting, params.AITone,
		params.Services, params.CalendarLink)
	return scanTenant(row)
}

// ListNotifiableMembers returns the members that should receive claim
// notifications for new leads.
func (r *Repository) ListNotifiableMembers(ctx context.Context, tenantID uuid.UUID) ([]TeamMember, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, name, phone, notify_on_lead, created_at, updated_at
		FROM team_members
		WHERE tenant_id = $1 AND notify_on_lead = true
		ORDER BY created_at ASC
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMembers(rows)
}

func (r *Repository) ListMembers(ctx context.Context, tenantID uuid.UUID) ([]TeamMember, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, name, phone, notify_on_lead, created_at, updated_at
		FROM team_members
		WHERE tenant_id = $1
		ORDER BY created_at ASC
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMembers(rows)
}

type MemberParams struct {
	Name         string
	Phone        string
	NotifyOnLead bool
}

func (r *Repository) CreateMember(ctx context.Context, tenantID uuid.UUID, params MemberParams) (TeamMember, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO team_members (tenant_id, name, phone, notify_on_lead)
		VALUES ($1, $2, $3, $4)
		RETURNING id, tenant_id, name, phone, notify_on_lead, created_at, updated_at
	`, tenantID, params.Name, params.Phone, params.NotifyOnLead)
	return scanMember(row)
}

func (r *Repository) UpdateMember(ctx context.Context, id, tenantID uuid.UUID, params MemberParams) (TeamMember, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE team_members
		SET name = $3, phone = $4, notify_on_lead = $5, updated_at = now()
		WHERE id = $1 AND tenant_id = $2
		RETURNING id, tenant_id, name, phone, notify_on_lead, created_at, updated_at
	`, id, tenantID, params.Name, params.Phone, params.NotifyOnLead)
	member, err := scanMember(row)
	if errors.Is(err, ErrNotFound) {
		return TeamMember{}, ErrMemberNotFound
	}
	return member, err
}

func (r *Repository) DeleteMember(ctx context.Context, id, tenantID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM team_members WHERE id = $1 AND tenant_id = $2
	`, id, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func scanTenant(row pgx.Row) (Tenant, error) {
	var tenant Tenant
	err := row.Scan(
		&tenant.ID, &tenant.Name, &tenant.OwnerEmail, &tenant.PrimaryPhone, &tenant.SMSFromNumber,
		&tenant.ClaimTimeoutSeconds, &tenant.AIGreeting, &tenant.AITone,
		&tenant.Services, &tenant.CalendarLink,
		&tenant.CreatedAt, &tenant.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Tenant{}, ErrNotFound
	}
	return tenant, err
}

func scanMember(row pgx.Row) (TeamMember, error) {
	var member TeamMember
	err := row.Scan(
		&member.ID, &member.TenantID, &member.Name, &member.Phone,
		&member.NotifyOnLead, &member.CreatedAt, &member.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return TeamMember{}, ErrNotFound
	}
	return member, err
}

func collectMembers(rows pgx.Rows) ([]TeamMember, error) {
	members := make([]TeamMember, 0)
	for rows.Next() {
		var member TeamMember
		if err := rows.Scan(
			&member.ID, &member.TenantID, &member.Name, &member.Phone,
			&member.NotifyOnLead, &member.CreatedAt, &member.UpdatedAt,
		); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}
