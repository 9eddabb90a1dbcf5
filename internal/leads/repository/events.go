package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// AppendEvent writes an immutable audit record for a lead. The escalation
// pipeline never reads these back; they exist for observability and support.
func (r *Repository) AppendEvent(ctx context.Context, tenantID, leadID uuid.UUID, eventType string, payload map[string]any) error {
	if payload == nil {
		payload = map[string]any{}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO lead_events (tenant_id, lead_id, event_type, payload)
		VALUES ($1, $2, $3, $4)
	`, tenantID, leadID, eventType, data)
	return err
}
