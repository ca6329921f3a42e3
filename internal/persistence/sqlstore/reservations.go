package sqlstore

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"github.com/example/facility-reservations/internal/persistence"
)

var reservationColumns = []string{
	"id", "room_id", "start_at", "end_at", "title", "note_internal", "cancel_pin_hash",
	"status", "series_id", "cancel_fail_count", "cancel_locked_until", "color",
	"created_by_device", "created_at", "updated_at",
}

type reservationRow struct {
	ID                string         `db:"id"`
	RoomID            string         `db:"room_id"`
	StartAt           dbTime         `db:"start_at"`
	EndAt             dbTime         `db:"end_at"`
	Title             string         `db:"title"`
	NoteInternal      string         `db:"note_internal"`
	CancelPINHash     string         `db:"cancel_pin_hash"`
	Status            string         `db:"status"`
	SeriesID          sql.NullString `db:"series_id"`
	CancelFailCount   int            `db:"cancel_fail_count"`
	CancelLockedUntil nullTime       `db:"cancel_locked_until"`
	Color             string         `db:"color"`
	CreatedByDevice   sql.NullString `db:"created_by_device"`
	CreatedAt         dbTime         `db:"created_at"`
	UpdatedAt         dbTime         `db:"updated_at"`
}

func (row reservationRow) model() persistence.Reservation {
	return persistence.Reservation{
		ID:                row.ID,
		RoomID:            row.RoomID,
		StartAt:           row.StartAt.Time,
		EndAt:             row.EndAt.Time,
		Title:             row.Title,
		NoteInternal:      row.NoteInternal,
		CancelPINHash:     row.CancelPINHash,
		Status:            persistence.ReservationStatus(row.Status),
		SeriesID:          fromNullString(row.SeriesID),
		CancelFailCount:   row.CancelFailCount,
		CancelLockedUntil: row.CancelLockedUntil.Ptr,
		Color:             row.Color,
		CreatedByDevice:   fromNullString(row.CreatedByDevice),
		CreatedAt:         row.CreatedAt.Time,
		UpdatedAt:         row.UpdatedAt.Time,
	}
}

func qualified(table string, columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = table + "." + c
	}
	return out
}

// InsertReservations writes every row in one multi-row INSERT.
func (r *txRepo) InsertReservations(ctx context.Context, reservations ...persistence.Reservation) error {
	if len(reservations) == 0 {
		return nil
	}
	q := r.sb().Insert("reservations").Columns(reservationColumns...)
	for _, res := range reservations {
		q = q.Values(
			res.ID, res.RoomID, r.store.timeArg(res.StartAt), r.store.timeArg(res.EndAt),
			res.Title, res.NoteInternal, res.CancelPINHash, string(res.Status),
			nullString(res.SeriesID), res.CancelFailCount, r.store.nullTimeArg(res.CancelLockedUntil),
			res.Color, nullString(res.CreatedByDevice),
			r.store.timeArg(res.CreatedAt), r.store.timeArg(res.UpdatedAt),
		)
	}
	return r.exec(ctx, "InsertReservations", q, false)
}

func (r *txRepo) UpdateReservation(ctx context.Context, res persistence.Reservation) error {
	q := r.sb().Update("reservations").
		SetMap(map[string]any{
			"room_id":             res.RoomID,
			"start_at":            r.store.timeArg(res.StartAt),
			"end_at":              r.store.timeArg(res.EndAt),
			"title":               res.Title,
			"note_internal":       res.NoteInternal,
			"cancel_pin_hash":     res.CancelPINHash,
			"status":              string(res.Status),
			"cancel_fail_count":   res.CancelFailCount,
			"cancel_locked_until": r.store.nullTimeArg(res.CancelLockedUntil),
			"color":               res.Color,
			"updated_at":          r.store.timeArg(res.UpdatedAt),
		}).
		Where(sq.Eq{"id": res.ID})
	return r.exec(ctx, "UpdateReservation", q, true)
}

func (r *txRepo) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	var row reservationRow
	q := r.sb().Select(reservationColumns...).From("reservations").Where(sq.Eq{"id": id})
	if err := r.selectOne(ctx, "GetReservation", &row, q); err != nil {
		return persistence.Reservation{}, err
	}
	return row.model(), nil
}

func (r *txRepo) LockReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	var row reservationRow
	q := r.forUpdate(r.sb().Select(reservationColumns...).From("reservations").Where(sq.Eq{"id": id}))
	if err := r.selectOne(ctx, "LockReservation", &row, q); err != nil {
		return persistence.Reservation{}, err
	}
	return row.model(), nil
}

func (r *txRepo) LockSeries(ctx context.Context, seriesID string) ([]persistence.Reservation, error) {
	q := r.forUpdate(r.sb().Select(reservationColumns...).From("reservations").
		Where(sq.Eq{"series_id": seriesID, "status": string(persistence.StatusConfirmed)}).
		OrderBy("start_at ASC", "id ASC"))
	return r.reservations(ctx, "LockSeries", q)
}

func (r *txRepo) ConfirmedOverlapping(ctx context.Context, roomID string, window persistence.Window, exclude []string) ([]persistence.Reservation, error) {
	q := r.sb().Select(reservationColumns...).From("reservations").
		Where(sq.Eq{"room_id": roomID, "status": string(persistence.StatusConfirmed)}).
		Where(sq.Lt{"start_at": r.store.timeArg(window.End)}).
		Where(sq.Gt{"end_at": r.store.timeArg(window.Start)}).
		OrderBy("start_at ASC")
	if len(exclude) > 0 {
		q = q.Where(sq.NotEq{"id": exclude})
	}
	return r.reservations(ctx, "ConfirmedOverlapping", q)
}

func (r *txRepo) ListConfirmed(ctx context.Context, window persistence.Window) ([]persistence.Reservation, error) {
	q := r.sb().Select(qualified("reservations", reservationColumns)...).
		From("reservations").
		Join("rooms ON rooms.id = reservations.room_id").
		Where(sq.Eq{"reservations.status": string(persistence.StatusConfirmed), "rooms.active": true}).
		Where(sq.Lt{"reservations.start_at": r.store.timeArg(window.End)}).
		Where(sq.Gt{"reservations.end_at": r.store.timeArg(window.Start)}).
		OrderBy("reservations.start_at ASC", "reservations.id ASC")
	return r.reservations(ctx, "ListConfirmed", q)
}

func (r *txRepo) reservations(ctx context.Context, op string, q sq.SelectBuilder) ([]persistence.Reservation, error) {
	var rows []reservationRow
	if err := r.selectAll(ctx, op, &rows, q); err != nil {
		return nil, err
	}
	out := make([]persistence.Reservation, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}
