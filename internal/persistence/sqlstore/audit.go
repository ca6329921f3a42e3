package sqlstore

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"github.com/example/facility-reservations/internal/persistence"
)

var auditColumns = []string{"id", "actor_kind", "actor_label", "action", "reservation_id", "origin", "detail", "created_at"}

type auditRow struct {
	ID            string         `db:"id"`
	ActorKind     string         `db:"actor_kind"`
	ActorLabel    string         `db:"actor_label"`
	Action        string         `db:"action"`
	ReservationID sql.NullString `db:"reservation_id"`
	Origin        sql.NullString `db:"origin"`
	Detail        []byte         `db:"detail"`
	CreatedAt     dbTime         `db:"created_at"`
}

func (r *txRepo) AppendAudit(ctx context.Context, entry persistence.AuditEntry) error {
	detail := string(entry.Detail)
	if detail == "" {
		detail = "{}"
	}
	q := r.sb().Insert("audit_logs").
		Columns(auditColumns...).
		Values(entry.ID, string(entry.ActorKind), entry.ActorLabel, entry.Action,
			nullString(entry.ReservationID), nullString(entry.Origin), detail,
			r.store.timeArg(entry.CreatedAt))
	return r.exec(ctx, "AppendAudit", q, false)
}

func (r *txRepo) ListAudit(ctx context.Context, reservationID string) ([]persistence.AuditEntry, error) {
	q := r.sb().Select(auditColumns...).From("audit_logs").
		Where(sq.Eq{"reservation_id": reservationID}).
		OrderBy("created_at ASC", "id ASC")
	var rows []auditRow
	if err := r.selectAll(ctx, "ListAudit", &rows, q); err != nil {
		return nil, err
	}
	entries := make([]persistence.AuditEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, persistence.AuditEntry{
			ID:            row.ID,
			ActorKind:     persistence.ActorKind(row.ActorKind),
			ActorLabel:    row.ActorLabel,
			Action:        row.Action,
			ReservationID: fromNullString(row.ReservationID),
			Origin:        fromNullString(row.Origin),
			Detail:        row.Detail,
			CreatedAt:     row.CreatedAt.Time,
		})
	}
	return entries, nil
}
