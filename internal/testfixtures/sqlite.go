package testfixtures

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/facility-reservations/internal/persistence"
	"github.com/example/facility-reservations/internal/persistence/sqlstore"
)

var roomCounter uint64

// SQLiteHarness provides a migrated store backed by a temporary SQLite file
// for integration-style tests.
type SQLiteHarness struct {
	Store *sqlstore.Store

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens and migrates a store in tb's temporary directory. The
// store is closed automatically when the test ends.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "reservations.db")
	store, err := sqlstore.Open(context.Background(), sqlstore.DialectSQLite, "file:"+path, sqlstore.Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Store: store,
		cleanup: func() {
			_ = store.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// RoomOption configures a seeded room.
type RoomOption func(*persistence.Room)

// WithRoomInactive marks the seeded room inactive.
func WithRoomInactive() RoomOption {
	return func(r *persistence.Room) { r.Active = false }
}

// WithRoomSortOrder overrides the seeded room's sort order.
func WithRoomSortOrder(order int) RoomOption {
	return func(r *persistence.Room) { r.SortOrder = order }
}

// SeedRoom inserts an active room named name.
func (h *SQLiteHarness) SeedRoom(tb testing.TB, name string, opts ...RoomOption) persistence.Room {
	tb.Helper()

	idx := atomic.AddUint64(&roomCounter, 1)
	room := persistence.Room{
		ID:        fmt.Sprintf("room-%03d", idx),
		Name:      name,
		Location:  "Floor 1",
		Active:    true,
		CreatedAt: ReferenceTime(),
		UpdatedAt: ReferenceTime(),
	}
	for _, opt := range opts {
		opt(&room)
	}
	h.mustTx(tb, func(ctx context.Context, tx persistence.Tx) error {
		return tx.CreateRoom(ctx, room)
	})
	return room
}

// SeedBlock inserts a block over [start, end). A nil roomID blocks every room.
func (h *SQLiteHarness) SeedBlock(tb testing.TB, id string, roomID *string, start, end time.Time) persistence.Block {
	tb.Helper()

	block := persistence.Block{ID: id, RoomID: roomID, StartAt: start, EndAt: end, Reason: "maintenance", CreatedAt: ReferenceTime()}
	h.mustTx(tb, func(ctx context.Context, tx persistence.Tx) error {
		return tx.CreateBlock(ctx, block)
	})
	return block
}

// Reservation reads a reservation row, including its PIN and lockout state.
func (h *SQLiteHarness) Reservation(tb testing.TB, id string) persistence.Reservation {
	tb.Helper()

	var out persistence.Reservation
	h.mustTx(tb, func(ctx context.Context, tx persistence.Tx) error {
		var err error
		out, err = tx.GetReservation(ctx, id)
		return err
	})
	return out
}

// Audit lists the audit entries recorded for a reservation.
func (h *SQLiteHarness) Audit(tb testing.TB, reservationID string) []persistence.AuditEntry {
	tb.Helper()

	var out []persistence.AuditEntry
	h.mustTx(tb, func(ctx context.Context, tx persistence.Tx) error {
		var err error
		out, err = tx.ListAudit(ctx, reservationID)
		return err
	})
	return out
}

func (h *SQLiteHarness) mustTx(tb testing.TB, fn func(ctx context.Context, tx persistence.Tx) error) {
	tb.Helper()
	if err := h.Store.WithinTx(context.Background(), fn); err != nil {
		tb.Fatalf("fixture transaction failed: %v", err)
	}
}
