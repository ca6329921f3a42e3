package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/facility-reservations/internal/persistence"
)

// Audit actions.
const (
	ActionCreate       = "reservation_create"
	ActionCreateSeries = "reservation_create_series"
	ActionUpdate       = "reservation_update"
	ActionUpdateSeries = "reservation_update_series"
	ActionCancel       = "reservation_cancel"
	ActionCancelSeries = "reservation_cancel_series"
	ActionRoomCreate   = "room_create"
	ActionRoomUpdate   = "room_update"
	ActionBlockCreate  = "block_create"
	ActionBlockDelete  = "block_delete"
	ActionDeviceCreate = "device_register"
	ActionDeviceUpdate = "device_update"
)

type auditRecord struct {
	actor         Actor
	action        string
	reservationID *string
	detail        map[string]any
}

func appendAudit(ctx context.Context, tx persistence.Tx, id string, at time.Time, rec auditRecord) error {
	detail, err := json.Marshal(rec.detail)
	if err != nil {
		return fmt.Errorf("encode audit detail: %w", err)
	}
	actor := rec.actor
	if actor.Kind == "" {
		actor = AdminActor(actor.Label)
	}
	var origin *string
	if actor.Origin != "" {
		o := actor.Origin
		origin = &o
	}
	return tx.AppendAudit(ctx, persistence.AuditEntry{
		ID:            id,
		ActorKind:     actor.Kind,
		ActorLabel:    actor.Label,
		Action:        rec.action,
		ReservationID: rec.reservationID,
		Origin:        origin,
		Detail:        detail,
		CreatedAt:     at,
	})
}

func stringPtr(s string) *string {
	return &s
}
