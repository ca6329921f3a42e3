package persistence

import "time"

// Room represents a bookable room catalog entry.
type Room struct {
	ID        string
	Name      string
	Location  string
	SortOrder int
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Block represents an administrative closure. A nil RoomID applies to every room.
type Block struct {
	ID        string
	RoomID    *string
	StartAt   time.Time
	EndAt     time.Time
	Reason    string
	CreatedAt time.Time
}

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
)

// Reservation represents a booking row. Rows are never deleted; cancellation
// moves Status to StatusCancelled.
type Reservation struct {
	ID                string
	RoomID            string
	StartAt           time.Time
	EndAt             time.Time
	Title             string
	NoteInternal      string
	CancelPINHash     string
	Status            ReservationStatus
	SeriesID          *string
	CancelFailCount   int
	CancelLockedUntil *time.Time
	Color             string
	CreatedByDevice   *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ActorKind identifies who performed an audited action.
type ActorKind string

const (
	ActorDevice ActorKind = "device"
	ActorAdmin  ActorKind = "admin"
)

// AuditEntry is one append-only audit record. Detail holds a JSON document.
type AuditEntry struct {
	ID            string
	ActorKind     ActorKind
	ActorLabel    string
	Action        string
	ReservationID *string
	Origin        *string
	Detail        []byte
	CreatedAt     time.Time
}

// Device is an office terminal credential. KeyHash is an argon2id hash; the
// raw key is never stored.
type Device struct {
	ID        string
	Label     string
	KeyHash   string
	Enabled   bool
	CreatedAt time.Time
}
