package application

import (
	"context"

	"github.com/example/facility-reservations/internal/persistence"
	"github.com/example/facility-reservations/internal/scheduler"
)

// txOccupancy reads blocks and reservations through the active transaction so
// the conflict check sees the same snapshot as the write that follows.
type txOccupancy struct {
	tx persistence.Tx
}

func (o txOccupancy) BlocksOverlapping(ctx context.Context, roomID string, window scheduler.Interval) ([]scheduler.Occupied, error) {
	blocks, err := o.tx.BlocksOverlapping(ctx, roomID, persistence.Window{Start: window.Start, End: window.End})
	if err != nil {
		return nil, err
	}
	out := make([]scheduler.Occupied, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, scheduler.Occupied{ID: b.ID, Interval: scheduler.Interval{Start: b.StartAt, End: b.EndAt}})
	}
	return out, nil
}

func (o txOccupancy) ReservationsOverlapping(ctx context.Context, roomID string, window scheduler.Interval, exclude []string) ([]scheduler.Occupied, error) {
	rows, err := o.tx.ConfirmedOverlapping(ctx, roomID, persistence.Window{Start: window.Start, End: window.End}, exclude)
	if err != nil {
		return nil, err
	}
	out := make([]scheduler.Occupied, 0, len(rows))
	for _, r := range rows {
		out = append(out, scheduler.Occupied{ID: r.ID, Interval: scheduler.Interval{Start: r.StartAt, End: r.EndAt}})
	}
	return out, nil
}
