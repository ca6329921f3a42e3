package persistence

import (
	"context"
	"time"
)

// Window is a half-open time range used by overlap queries.
type Window struct {
	Start time.Time
	End   time.Time
}

// RoomRepository exposes room catalog operations.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	GetRoomByName(ctx context.Context, name string) (Room, error)
	// ListRooms orders by sort order then name.
	ListRooms(ctx context.Context, activeOnly bool) ([]Room, error)
}

// BlockRepository exposes administrative blocks.
type BlockRepository interface {
	CreateBlock(ctx context.Context, block Block) error
	DeleteBlock(ctx context.Context, id string) error
	// BlocksOverlapping returns blocks for roomID or for every room that
	// intersect window.
	BlocksOverlapping(ctx context.Context, roomID string, window Window) ([]Block, error)
	// ListBlocks returns every block intersecting window, ordered by start.
	ListBlocks(ctx context.Context, window Window) ([]Block, error)
}

// ReservationRepository stores reservations.
type ReservationRepository interface {
	InsertReservations(ctx context.Context, reservations ...Reservation) error
	UpdateReservation(ctx context.Context, reservation Reservation) error
	GetReservation(ctx context.Context, id string) (Reservation, error)
	// LockReservation loads the row and holds an exclusive lock on it until the
	// transaction ends.
	LockReservation(ctx context.Context, id string) (Reservation, error)
	// LockSeries loads and locks every confirmed member of the series ordered by
	// start.
	LockSeries(ctx context.Context, seriesID string) ([]Reservation, error)
	// ConfirmedOverlapping returns confirmed reservations of roomID intersecting
	// window, minus exclude.
	ConfirmedOverlapping(ctx context.Context, roomID string, window Window, exclude []string) ([]Reservation, error)
	// ListConfirmed returns confirmed reservations in active rooms intersecting
	// window, ordered by start.
	ListConfirmed(ctx context.Context, window Window) ([]Reservation, error)
}

// AuditRepository appends audit records.
type AuditRepository interface {
	AppendAudit(ctx context.Context, entry AuditEntry) error
	ListAudit(ctx context.Context, reservationID string) ([]AuditEntry, error)
}

// DeviceRepository stores office terminal credentials.
type DeviceRepository interface {
	CreateDevice(ctx context.Context, device Device) error
	UpdateDevice(ctx context.Context, device Device) error
	GetDeviceByLabel(ctx context.Context, label string) (Device, error)
	ListDevices(ctx context.Context) ([]Device, error)
}

// Tx is the set of repositories bound to one transaction.
type Tx interface {
	RoomRepository
	BlockRepository
	ReservationRepository
	AuditRepository
	DeviceRepository

	// SerializeRoom serializes creates against roomID for the rest of the
	// transaction where the backend supports it. It is a no-op otherwise.
	SerializeRoom(ctx context.Context, roomID string) error
}

// Store runs work inside transactions. fn's error rolls the transaction back;
// a nil return commits.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
