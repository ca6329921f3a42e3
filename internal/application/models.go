package application

import (
	"time"

	"github.com/example/facility-reservations/internal/persistence"
	"github.com/example/facility-reservations/internal/policy"
	"github.com/example/facility-reservations/internal/scheduler"
)

// Interval is a half-open [Start, End) window.
type Interval = scheduler.Interval

// ReservationStatus mirrors the stored lifecycle state.
type ReservationStatus = persistence.ReservationStatus

const (
	StatusConfirmed = persistence.StatusConfirmed
	StatusCancelled = persistence.StatusCancelled
)

// DefaultColor is the display color used when none is supplied.
const DefaultColor = "#e3f2fd"

// Actor identifies who performs a mutation for the audit trail.
type Actor struct {
	Kind     persistence.ActorKind
	Label    string
	DeviceID *string
	Origin   string
}

// AdminActor returns an administrative actor. An empty label becomes "office".
func AdminActor(label string) Actor {
	if label == "" {
		label = "office"
	}
	return Actor{Kind: persistence.ActorAdmin, Label: label}
}

// DeviceActor returns an actor for an authenticated office terminal.
func DeviceActor(device Device, origin string) Actor {
	id := device.ID
	return Actor{Kind: persistence.ActorDevice, Label: device.Label, DeviceID: &id, Origin: origin}
}

// Reservation is the caller-facing view of a reservation. It never carries the
// PIN hash.
type Reservation struct {
	ID              string
	RoomID          string
	Start           time.Time
	End             time.Time
	Title           string
	Note            string
	Status          ReservationStatus
	SeriesID        *string
	Color           string
	LockedUntil     *time.Time
	CreatedByDevice *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func reservationFromRecord(r persistence.Reservation) Reservation {
	return Reservation{
		ID:              r.ID,
		RoomID:          r.RoomID,
		Start:           r.StartAt,
		End:             r.EndAt,
		Title:           r.Title,
		Note:            r.NoteInternal,
		Status:          r.Status,
		SeriesID:        r.SeriesID,
		Color:           r.Color,
		LockedUntil:     r.CancelLockedUntil,
		CreatedByDevice: r.CreatedByDevice,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func reservationsFromRecords(records []persistence.Reservation) []Reservation {
	out := make([]Reservation, 0, len(records))
	for _, r := range records {
		out = append(out, reservationFromRecord(r))
	}
	return out
}

// Room is a bookable room.
type Room struct {
	ID        string
	Name      string
	Location  string
	SortOrder int
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func roomFromRecord(r persistence.Room) Room {
	return Room{
		ID:        r.ID,
		Name:      r.Name,
		Location:  r.Location,
		SortOrder: r.SortOrder,
		Active:    r.Active,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// Block is an administrative closure; a nil RoomID covers every room.
type Block struct {
	ID        string
	RoomID    *string
	Start     time.Time
	End       time.Time
	Reason    string
	CreatedAt time.Time
}

func blockFromRecord(b persistence.Block) Block {
	return Block{
		ID:        b.ID,
		RoomID:    b.RoomID,
		Start:     b.StartAt,
		End:       b.EndAt,
		Reason:    b.Reason,
		CreatedAt: b.CreatedAt,
	}
}

// Device is an office terminal credential without its key hash.
type Device struct {
	ID        string
	Label     string
	Enabled   bool
	CreatedAt time.Time
}

func deviceFromRecord(d persistence.Device) Device {
	return Device{ID: d.ID, Label: d.Label, Enabled: d.Enabled, CreatedAt: d.CreatedAt}
}

// RepeatRule turns a create into a weekly series.
type RepeatRule struct {
	// Weekdays uses time.Weekday numbering, Sunday = 0.
	Weekdays []time.Weekday
	// Until is the last local date considered, inclusive.
	Until policy.Date
}

// CreateReservationParams describes a single or recurring booking.
type CreateReservationParams struct {
	RoomID string
	Start  time.Time
	End    time.Time
	Title  string
	Note   string
	PIN    string
	Color  string
	Repeat *RepeatRule
	Actor  Actor
}

// CreateResult holds the created reservations. SeriesID is set for series.
type CreateResult struct {
	SeriesID     *string
	Reservations []Reservation
}

// First returns the earliest created reservation.
func (r CreateResult) First() Reservation {
	if len(r.Reservations) == 0 {
		return Reservation{}
	}
	return r.Reservations[0]
}

// UpdateReservationParams changes one reservation. Nil fields are left as is.
// CurrentPIN is checked under the lockout rules before any change; it is
// required when NewPIN is set or the actor is an office device.
type UpdateReservationParams struct {
	ReservationID string
	RoomID        *string
	Start         *time.Time
	End           *time.Time
	Title         *string
	Note          *string
	Color         *string
	NewPIN        *string
	CurrentPIN    *string
	Actor         Actor
}

// UpdateSeriesParams changes every confirmed member of a series. When
// AnchorStart and AnchorEnd are set, the whole series shifts by the anchor's
// offset. SeriesID defaults to the anchor's series. CurrentPIN is checked
// against the anchor with the same rules as UpdateReservationParams.
type UpdateSeriesParams struct {
	AnchorID    string
	SeriesID    string
	RoomID      *string
	AnchorStart *time.Time
	AnchorEnd   *time.Time
	Title       *string
	Note        *string
	Color       *string
	NewPIN      *string
	CurrentPIN  *string
	Actor       Actor
}

// CancelScope selects single or whole-series cancellation.
type CancelScope string

const (
	ScopeSingle CancelScope = "single"
	ScopeSeries CancelScope = "series"
)

// CancelReservationParams cancels a reservation after PIN verification.
type CancelReservationParams struct {
	ReservationID string
	PIN           string
	Scope         CancelScope
	Actor         Actor
}

// Projection selects which reservation fields a grid exposes.
type Projection string

const (
	// ProjectionPublic omits internal notes and series ids.
	ProjectionPublic Projection = "public"
	// ProjectionOffice includes internal notes and series ids.
	ProjectionOffice Projection = "office"
)

// ListWindowParams selects the local dates of a grid. A zero To means From.
type ListWindowParams struct {
	From       policy.Date
	To         policy.Date
	Projection Projection
}

// GridReservation is a reservation as shown on a grid. Note and SeriesID are
// empty in the public projection.
type GridReservation struct {
	ID       string
	RoomID   string
	Start    time.Time
	End      time.Time
	Title    string
	Color    string
	Note     string
	SeriesID *string
}

// Grid is the read model behind the day view.
type Grid struct {
	From         policy.Date
	To           policy.Date
	Projection   Projection
	Open         string
	Close        string
	SlotMinutes  int
	Slots        []string
	Rooms        []Room
	Reservations []GridReservation
	Blocks       []Block
}
