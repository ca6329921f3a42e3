package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/example/facility-reservations/internal/persistence"
	"github.com/example/facility-reservations/internal/pinlock"
	"github.com/example/facility-reservations/internal/policy"
	"github.com/example/facility-reservations/internal/recurrence"
	"github.com/example/facility-reservations/internal/scheduler"
)

const (
	maxTitleLength = 200
	maxGridDays    = 62
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// SecretHasher hashes and verifies PINs and device keys.
type SecretHasher interface {
	Hash(raw string) (string, error)
	Verify(encoded, raw string) error
}

// Metrics receives the outcome of every service operation.
type Metrics interface {
	ObserveOperation(operation, outcome string, elapsed time.Duration)
	ObserveLockout()
}

type noopMetrics struct{}

func (noopMetrics) ObserveOperation(string, string, time.Duration) {}
func (noopMetrics) ObserveLockout() {}

// ReservationService coordinates validation, conflict checks, recurrence and
// PIN protected mutations over a transactional store.
type ReservationService struct {
	store       persistence.Store
	policy      policy.Policy
	hasher      SecretHasher
	guard       *pinlock.Guard
	engine      *recurrence.Engine
	metrics     Metrics
	logger      *slog.Logger
	idGenerator func() string
	now         func() time.Time
}

// ReservationOption customizes a ReservationService.
type ReservationOption func(*ReservationService)

// WithReservationLogger sets the base logger.
func WithReservationLogger(logger *slog.Logger) ReservationOption {
	return func(s *ReservationService) { s.logger = defaultLogger(logger) }
}

// WithReservationMetrics sets the metrics sink.
func WithReservationMetrics(m Metrics) ReservationOption {
	return func(s *ReservationService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithReservationClock overrides the time source.
func WithReservationClock(now func() time.Time) ReservationOption {
	return func(s *ReservationService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithReservationIDGenerator overrides identifier generation.
func WithReservationIDGenerator(gen func() string) ReservationOption {
	return func(s *ReservationService) {
		if gen != nil {
			s.idGenerator = gen
		}
	}
}

// NewReservationService constructs a ReservationService for pol.
func NewReservationService(store persistence.Store, pol policy.Policy, hasher SecretHasher, opts ...ReservationOption) *ReservationService {
	s := &ReservationService{
		store:       store,
		policy:      pol,
		hasher:      hasher,
		guard:       pinlock.NewGuard(hasher, pol.LockoutThreshold, pol.LockoutDuration),
		engine:      recurrence.NewEngine(pol),
		metrics:     noopMetrics{},
		logger:      slog.Default(),
		idGenerator: uuid.NewString,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the clock policy the service enforces.
func (s *ReservationService) Policy() policy.Policy {
	return s.policy
}

func (s *ReservationService) observe(operation string, started time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = ErrorKind(err)
	}
	s.metrics.ObserveOperation(operation, outcome, time.Since(started))
}

// CreateReservation books a single reservation, or a weekly series when
// params.Repeat is set. A series is written all or nothing.
func (s *ReservationService) CreateReservation(ctx context.Context, params CreateReservationParams) (result CreateResult, err error) {
	if s == nil {
		return CreateResult{}, fmt.Errorf("ReservationService is nil")
	}

	operation := "CreateReservation"
	if params.Repeat != nil {
		operation = "CreateSeries"
	}
	logger := serviceLogger(ctx, s.logger, "ReservationService", operation, "room_id", params.RoomID, "actor", params.Actor.Label)
	started := time.Now()
	defer func() {
		s.observe(operation, started, err)
		logOutcome(ctx, logger, "create reservation", err, "count", len(result.Reservations))
	}()

	title, color, err := validateCreate(params)
	if err != nil {
		return CreateResult{}, err
	}

	var intervals []Interval
	if params.Repeat == nil {
		iv := Interval{Start: params.Start, End: params.End}
		if err := scheduler.Validate(s.policy, iv); err != nil {
			return CreateResult{}, err
		}
		intervals = []Interval{iv}
	} else {
		if err := scheduler.ValidateLength(s.policy, Interval{Start: params.Start, End: params.End}); err != nil {
			return CreateResult{}, err
		}
		intervals, err = s.engine.Expand(recurrence.Rule{
			Start:    params.Start,
			Duration: params.End.Sub(params.Start),
			Weekdays: params.Repeat.Weekdays,
			Until:    params.Repeat.Until,
		})
		if err != nil {
			return CreateResult{}, err
		}
	}

	pinHash, err := s.hasher.Hash(params.PIN)
	if err != nil {
		return CreateResult{}, fmt.Errorf("hash pin: %w", err)
	}

	var seriesID *string
	if params.Repeat != nil {
		seriesID = stringPtr(s.idGenerator())
	}

	now := s.now()
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx persistence.Tx) error {
		room, err := activeRoom(ctx, tx, params.RoomID)
		if err != nil {
			return err
		}
		if err := tx.SerializeRoom(ctx, room.ID); err != nil {
			return err
		}

		checker := scheduler.NewChecker(txOccupancy{tx: tx})
		if err := checkConflicts(ctx, checker, room.ID, intervals, nil); err != nil {
			return err
		}
		if params.Repeat != nil {
			for _, iv := range intervals {
				if err := scheduler.Validate(s.policy, iv); err != nil {
					return err
				}
			}
		}

		records := make([]persistence.Reservation, 0, len(intervals))
		for _, iv := range intervals {
			records = append(records, persistence.Reservation{
				ID:              s.idGenerator(),
				RoomID:          room.ID,
				StartAt:         iv.Start,
				EndAt:           iv.End,
				Title:           title,
				NoteInternal:    strings.TrimSpace(params.Note),
				CancelPINHash:   pinHash,
				Status:          StatusConfirmed,
				SeriesID:        seriesID,
				Color:           color,
				CreatedByDevice: params.Actor.DeviceID,
				CreatedAt:       now,
				UpdatedAt:       now,
			})
		}
		if err := tx.InsertReservations(ctx, records...); err != nil {
			return mapRepoError(err)
		}

		rec := auditRecord{
			actor:         params.Actor,
			action:        ActionCreate,
			reservationID: stringPtr(records[0].ID),
			detail: map[string]any{
				"room":     room.Name,
				"start_at": s.stamp(records[0].StartAt),
				"end_at":   s.stamp(records[0].EndAt),
				"title":    title,
			},
		}
		if seriesID != nil {
			days := make([]int, 0, len(params.Repeat.Weekdays))
			for _, d := range recurrence.SortedWeekdays(params.Repeat.Weekdays) {
				days = append(days, int(d))
			}
			rec.action = ActionCreateSeries
			rec.detail = map[string]any{
				"room":             room.Name,
				"series_id":        *seriesID,
				"count":            len(records),
				"repeat_days":      days,
				"repeat_until":     params.Repeat.Until.String(),
				"start_time":       s.policy.In(params.Start).Format("15:04"),
				"duration_minutes": int(params.End.Sub(params.Start) / time.Minute),
				"title":            title,
			}
		}
		if err := appendAudit(ctx, tx, s.idGenerator(), now, rec); err != nil {
			return err
		}

		result = CreateResult{SeriesID: seriesID, Reservations: reservationsFromRecords(records)}
		return nil
	})
	if err != nil {
		return CreateResult{}, err
	}
	return result, nil
}

// UpdateReservation changes one confirmed reservation. The resulting interval
// is validated and checked for conflicts with everything but itself.
func (s *ReservationService) UpdateReservation(ctx context.Context, params UpdateReservationParams) (reservation Reservation, err error) {
	if s == nil {
		return Reservation{}, fmt.Errorf("ReservationService is nil")
	}

	logger := serviceLogger(ctx, s.logger, "ReservationService", "UpdateReservation", "reservation_id", params.ReservationID, "actor", params.Actor.Label)
	started := time.Now()
	defer func() {
		s.observe("UpdateReservation", started, err)
		logOutcome(ctx, logger, "update reservation", err)
	}()

	if err := requireCurrentPIN(params.Actor, params.NewPIN, params.CurrentPIN); err != nil {
		return Reservation{}, err
	}
	changes, err := s.prepareChanges(params.Title, params.Color, params.NewPIN)
	if err != nil {
		return Reservation{}, err
	}
	changes.note = params.Note

	var pinErr error
	now := s.now()
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx persistence.Tx) error {
		current, err := tx.LockReservation(ctx, params.ReservationID)
		if err != nil {
			return mapRepoError(err)
		}
		if current.Status != StatusConfirmed {
			return fmt.Errorf("%w: reservation %s is %s", ErrNotConfirmed, current.ID, current.Status)
		}
		if params.CurrentPIN != nil {
			verified, err := s.checkPIN(ctx, tx, logger, current, *params.CurrentPIN)
			if errors.Is(err, ErrInvalidPIN) {
				pinErr = err
				return nil
			}
			if err != nil {
				return err
			}
			current = verified
		}

		room, err := s.targetRoom(ctx, tx, params.RoomID, current.RoomID)
		if err != nil {
			return err
		}
		iv := Interval{Start: current.StartAt, End: current.EndAt}
		if params.Start != nil {
			iv.Start = *params.Start
		}
		if params.End != nil {
			iv.End = *params.End
		}
		if err := scheduler.Validate(s.policy, iv); err != nil {
			return err
		}
		checker := scheduler.NewChecker(txOccupancy{tx: tx})
		if err := checker.FindConflict(ctx, room.ID, iv, []string{current.ID}); err != nil {
			return err
		}

		current.RoomID = room.ID
		current.StartAt = iv.Start
		current.EndAt = iv.End
		changes.apply(&current)
		current.UpdatedAt = now
		if err := tx.UpdateReservation(ctx, current); err != nil {
			return mapRepoError(err)
		}

		if err := appendAudit(ctx, tx, s.idGenerator(), now, auditRecord{
			actor:         params.Actor,
			action:        ActionUpdate,
			reservationID: stringPtr(current.ID),
			detail: map[string]any{
				"room":     room.Name,
				"start_at": s.stamp(current.StartAt),
				"end_at":   s.stamp(current.EndAt),
				"title":    current.Title,
			},
		}); err != nil {
			return err
		}

		reservation = reservationFromRecord(current)
		return nil
	})
	if err != nil {
		return Reservation{}, err
	}
	if pinErr != nil {
		return Reservation{}, pinErr
	}
	return reservation, nil
}

// UpdateSeries applies the same change to every confirmed member of a series.
// A new anchor interval shifts every member by the anchor's start offset; the
// whole plan is checked for conflicts, excluding the members themselves, before
// anything is written.
func (s *ReservationService) UpdateSeries(ctx context.Context, params UpdateSeriesParams) (updated []Reservation, err error) {
	if s == nil {
		return nil, fmt.Errorf("ReservationService is nil")
	}

	logger := serviceLogger(ctx, s.logger, "ReservationService", "UpdateSeries", "anchor_id", params.AnchorID, "actor", params.Actor.Label)
	started := time.Now()
	defer func() {
		s.observe("UpdateSeries", started, err)
		logOutcome(ctx, logger, "update series", err, "count", len(updated))
	}()

	if (params.AnchorStart == nil) != (params.AnchorEnd == nil) {
		vErr := &ValidationError{}
		vErr.add("anchor", "start and end must be provided together")
		return nil, vErr
	}
	if err := requireCurrentPIN(params.Actor, params.NewPIN, params.CurrentPIN); err != nil {
		return nil, err
	}
	changes, err := s.prepareChanges(params.Title, params.Color, params.NewPIN)
	if err != nil {
		return nil, err
	}
	changes.note = params.Note

	var pinErr error
	now := s.now()
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx persistence.Tx) error {
		seriesID := params.SeriesID
		if seriesID == "" {
			anchor, err := tx.GetReservation(ctx, params.AnchorID)
			if err != nil {
				return mapRepoError(err)
			}
			if anchor.SeriesID == nil {
				return fmt.Errorf("%w: reservation %s is not part of a series", ErrInvalidSeriesState, anchor.ID)
			}
			seriesID = *anchor.SeriesID
		}

		members, err := tx.LockSeries(ctx, seriesID)
		if err != nil {
			return mapRepoError(err)
		}
		if len(members) == 0 {
			return fmt.Errorf("%w: series %s has no confirmed reservations", ErrInvalidSeriesState, seriesID)
		}
		anchorIdx := -1
		for i := range members {
			if members[i].ID == params.AnchorID {
				anchorIdx = i
				break
			}
		}
		if anchorIdx < 0 {
			logger.WarnContext(ctx, "anchor is not a confirmed series member", "series_id", seriesID)
			return fmt.Errorf("%w: reservation %s is not a confirmed member of series %s", ErrInvalidSeriesState, params.AnchorID, seriesID)
		}

		if params.CurrentPIN != nil {
			verified, err := s.checkPIN(ctx, tx, logger, members[anchorIdx], *params.CurrentPIN)
			if errors.Is(err, ErrInvalidPIN) {
				pinErr = err
				return nil
			}
			if err != nil {
				return err
			}
			members[anchorIdx] = verified
		}

		var newRoom *persistence.Room
		if params.RoomID != nil {
			room, err := activeRoom(ctx, tx, *params.RoomID)
			if err != nil {
				return err
			}
			newRoom = &room
		}

		plan := make([]scheduler.Member, len(members))
		memberIDs := make([]string, len(members))
		for i, m := range members {
			plan[i] = scheduler.Member{ID: m.ID, Interval: Interval{Start: m.StartAt, End: m.EndAt}}
			memberIDs[i] = m.ID
		}
		var shift time.Duration
		if params.AnchorStart != nil {
			newAnchor := Interval{Start: *params.AnchorStart, End: *params.AnchorEnd}
			shift = newAnchor.Start.Sub(members[anchorIdx].StartAt)
			plan, err = scheduler.PlanShift(plan, params.AnchorID, newAnchor)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidSeriesState, err)
			}
		}

		// Members may sit in different rooms after single edits; check each
		// destination room against its share of the plan.
		var roomOrder []string
		byRoom := make(map[string][]Interval)
		for i, m := range members {
			roomID := m.RoomID
			if newRoom != nil {
				roomID = newRoom.ID
			}
			if _, seen := byRoom[roomID]; !seen {
				roomOrder = append(roomOrder, roomID)
			}
			byRoom[roomID] = append(byRoom[roomID], plan[i].Interval)
		}
		checker := scheduler.NewChecker(txOccupancy{tx: tx})
		for _, roomID := range roomOrder {
			if err := checker.FindBatchConflict(ctx, roomID, byRoom[roomID], memberIDs); err != nil {
				return err
			}
		}
		for _, m := range plan {
			if err := scheduler.Validate(s.policy, m.Interval); err != nil {
				return err
			}
		}

		for i := range members {
			if newRoom != nil {
				members[i].RoomID = newRoom.ID
			}
			members[i].StartAt = plan[i].Interval.Start
			members[i].EndAt = plan[i].Interval.End
			changes.apply(&members[i])
			members[i].UpdatedAt = now
			if err := tx.UpdateReservation(ctx, members[i]); err != nil {
				return mapRepoError(err)
			}
		}

		anchor := members[anchorIdx]
		detail := map[string]any{
			"series_id":     seriesID,
			"count":         len(members),
			"title":         anchor.Title,
			"start_at":      s.stamp(anchor.StartAt),
			"end_at":        s.stamp(anchor.EndAt),
			"shift_minutes": int(shift / time.Minute),
		}
		if newRoom != nil {
			detail["room"] = newRoom.Name
		}
		if err := appendAudit(ctx, tx, s.idGenerator(), now, auditRecord{
			actor:         params.Actor,
			action:        ActionUpdateSeries,
			reservationID: stringPtr(anchor.ID),
			detail:        detail,
		}); err != nil {
			return err
		}

		updated = reservationsFromRecords(members)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if pinErr != nil {
		return nil, pinErr
	}
	return updated, nil
}

// CancelReservation cancels a reservation, or every confirmed member of its
// series for ScopeSeries, after verifying the PIN under the lockout rules. A
// wrong PIN is recorded even though the call fails. Cancelling an already
// cancelled reservation returns it unchanged.
func (s *ReservationService) CancelReservation(ctx context.Context, params CancelReservationParams) (reservation Reservation, err error) {
	if s == nil {
		return Reservation{}, fmt.Errorf("ReservationService is nil")
	}

	scope := params.Scope
	if scope == "" {
		scope = ScopeSingle
	}
	logger := serviceLogger(ctx, s.logger, "ReservationService", "CancelReservation", "reservation_id", params.ReservationID, "scope", string(scope), "actor", params.Actor.Label)
	started := time.Now()
	defer func() {
		s.observe("CancelReservation", started, err)
		logOutcome(ctx, logger, "cancel reservation", err)
	}()

	if scope != ScopeSingle && scope != ScopeSeries {
		vErr := &ValidationError{}
		vErr.add("scope", "scope must be single or series")
		return Reservation{}, vErr
	}

	var pinErr error
	now := s.now()
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx persistence.Tx) error {
		// Series rows are locked in start order before the target row so
		// concurrent series operations acquire locks in the same order.
		var members []persistence.Reservation
		if scope == ScopeSeries {
			peek, err := tx.GetReservation(ctx, params.ReservationID)
			if err != nil {
				return mapRepoError(err)
			}
			if peek.SeriesID != nil && peek.Status == StatusConfirmed {
				if members, err = tx.LockSeries(ctx, *peek.SeriesID); err != nil {
					return mapRepoError(err)
				}
			}
		}

		current, err := tx.LockReservation(ctx, params.ReservationID)
		if err != nil {
			return mapRepoError(err)
		}
		if current.Status == StatusCancelled {
			logger.InfoContext(ctx, "reservation already cancelled")
			reservation = reservationFromRecord(current)
			return nil
		}

		verified, err := s.checkPIN(ctx, tx, logger, current, params.PIN)
		if errors.Is(err, ErrInvalidPIN) {
			pinErr = err
			return nil
		}
		if err != nil {
			return err
		}
		current = verified

		targets := []persistence.Reservation{current}
		action := ActionCancel
		if scope == ScopeSeries && current.SeriesID != nil {
			action = ActionCancelSeries
			for _, m := range members {
				if m.ID != current.ID {
					targets = append(targets, m)
				}
			}
		}
		for i := range targets {
			targets[i].Status = StatusCancelled
			targets[i].CancelFailCount = 0
			targets[i].CancelLockedUntil = nil
			targets[i].UpdatedAt = now
			if err := tx.UpdateReservation(ctx, targets[i]); err != nil {
				return mapRepoError(err)
			}
		}

		room, err := tx.GetRoom(ctx, current.RoomID)
		if err != nil {
			return mapRepoError(err)
		}
		detail := map[string]any{
			"room":     room.Name,
			"start_at": s.stamp(current.StartAt),
			"end_at":   s.stamp(current.EndAt),
			"title":    current.Title,
		}
		if action == ActionCancelSeries {
			detail = map[string]any{
				"room":      room.Name,
				"series_id": *current.SeriesID,
				"count":     len(targets),
				"title":     current.Title,
			}
		}
		if err := appendAudit(ctx, tx, s.idGenerator(), now, auditRecord{
			actor:         params.Actor,
			action:        action,
			reservationID: stringPtr(current.ID),
			detail:        detail,
		}); err != nil {
			return err
		}

		reservation = reservationFromRecord(targets[0])
		return nil
	})
	if err != nil {
		return Reservation{}, err
	}
	if pinErr != nil {
		return Reservation{}, pinErr
	}
	return reservation, nil
}

// ListForWindow builds the grid for the local dates From through To.
// Cancelled reservations and inactive rooms are left out.
func (s *ReservationService) ListForWindow(ctx context.Context, params ListWindowParams) (grid Grid, err error) {
	if s == nil {
		return Grid{}, fmt.Errorf("ReservationService is nil")
	}

	from, to := params.From, params.To
	if to.IsZero() {
		to = from
	}
	projection := params.Projection
	if projection == "" {
		projection = ProjectionPublic
	}
	logger := serviceLogger(ctx, s.logger, "ReservationService", "ListForWindow", "from", from.String(), "to", to.String(), "projection", string(projection))
	started := time.Now()
	defer func() {
		s.observe("ListForWindow", started, err)
		if err != nil {
			logOutcome(ctx, logger, "list window", err)
			return
		}
		logger.DebugContext(ctx, "list window succeeded", "reservations", len(grid.Reservations), "blocks", len(grid.Blocks))
	}()

	vErr := &ValidationError{}
	if from.IsZero() {
		vErr.add("from", "date is required")
	} else if to.Before(from) {
		vErr.add("to", "end date must not precede start date")
	} else if from.DaysUntil(to) >= maxGridDays {
		vErr.add("to", fmt.Sprintf("window must be at most %d days", maxGridDays))
	}
	if projection != ProjectionPublic && projection != ProjectionOffice {
		vErr.add("projection", "projection must be public or office")
	}
	if err := vErr.errOrNil(); err != nil {
		return Grid{}, err
	}

	start, end := s.policy.DayWindow(from, to)
	window := persistence.Window{Start: start, End: end}

	var (
		rooms  []persistence.Room
		rows   []persistence.Reservation
		blocks []persistence.Block
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx persistence.Tx) error {
		var err error
		if rooms, err = tx.ListRooms(ctx, true); err != nil {
			return err
		}
		if rows, err = tx.ListConfirmed(ctx, window); err != nil {
			return err
		}
		if blocks, err = tx.ListBlocks(ctx, window); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return Grid{}, err
	}

	grid = Grid{
		From:         from,
		To:           to,
		Projection:   projection,
		Open:         policy.ClockLabel(s.policy.Open),
		Close:        policy.ClockLabel(s.policy.Close),
		SlotMinutes:  int(s.policy.Slot / time.Minute),
		Slots:        s.policy.SlotLabels(),
		Rooms:        make([]Room, 0, len(rooms)),
		Reservations: make([]GridReservation, 0, len(rows)),
		Blocks:       make([]Block, 0, len(blocks)),
	}
	for _, r := range rooms {
		grid.Rooms = append(grid.Rooms, roomFromRecord(r))
	}
	for _, r := range rows {
		item := GridReservation{
			ID:     r.ID,
			RoomID: r.RoomID,
			Start:  s.policy.In(r.StartAt),
			End:    s.policy.In(r.EndAt),
			Title:  r.Title,
			Color:  r.Color,
		}
		if projection == ProjectionOffice {
			item.Note = r.NoteInternal
			item.SeriesID = r.SeriesID
		}
		grid.Reservations = append(grid.Reservations, item)
	}
	for _, b := range blocks {
		block := blockFromRecord(b)
		block.Start = s.policy.In(block.Start)
		block.End = s.policy.In(block.End)
		grid.Blocks = append(grid.Blocks, block)
	}
	return grid, nil
}

// checkPIN runs the lockout guard against r. A wrong PIN persists the new
// counter state on r before returning ErrInvalidPIN; a locked row is returned
// untouched with ErrLocked.
func (s *ReservationService) checkPIN(ctx context.Context, tx persistence.Tx, logger *slog.Logger, r persistence.Reservation, raw string) (persistence.Reservation, error) {
	state := pinlock.State{FailCount: r.CancelFailCount, LockedUntil: r.CancelLockedUntil}
	next, err := s.guard.Check(state, r.CancelPINHash, raw, s.now())
	if errors.Is(err, ErrLocked) {
		return r, err
	}

	r.CancelFailCount = next.FailCount
	r.CancelLockedUntil = next.LockedUntil
	if err == nil {
		return r, nil
	}

	if updErr := tx.UpdateReservation(ctx, r); updErr != nil {
		return r, mapRepoError(updErr)
	}
	if next.LockedUntil != nil {
		s.metrics.ObserveLockout()
		logger.WarnContext(ctx, "cancel pin locked", "reservation_id", r.ID, "locked_until", next.LockedUntil.UTC())
	}
	return r, err
}

func (s *ReservationService) targetRoom(ctx context.Context, tx persistence.Tx, requested *string, current string) (persistence.Room, error) {
	if requested != nil && *requested != current {
		return activeRoom(ctx, tx, *requested)
	}
	room, err := tx.GetRoom(ctx, current)
	if err != nil {
		return persistence.Room{}, mapRepoError(err)
	}
	return room, nil
}

func (s *ReservationService) stamp(t time.Time) string {
	return s.policy.In(t).Format(time.RFC3339)
}

func activeRoom(ctx context.Context, tx persistence.Tx, roomID string) (persistence.Room, error) {
	room, err := tx.GetRoom(ctx, roomID)
	if err != nil {
		return persistence.Room{}, mapRepoError(err)
	}
	if !room.Active {
		return persistence.Room{}, fmt.Errorf("%w: room %s is inactive", ErrNotFound, room.ID)
	}
	return room, nil
}

func checkConflicts(ctx context.Context, checker *scheduler.Checker, roomID string, intervals []Interval, exclude []string) error {
	if len(intervals) == 1 {
		return checker.FindConflict(ctx, roomID, intervals[0], exclude)
	}
	return checker.FindBatchConflict(ctx, roomID, intervals, exclude)
}

// fieldChanges holds normalized optional edits shared by single and series
// updates.
type fieldChanges struct {
	title   *string
	note    *string
	color   *string
	pinHash *string
}

func (c fieldChanges) apply(r *persistence.Reservation) {
	if c.title != nil {
		r.Title = *c.title
	}
	if c.note != nil {
		r.NoteInternal = strings.TrimSpace(*c.note)
	}
	if c.color != nil {
		r.Color = *c.color
	}
	if c.pinHash != nil {
		r.CancelPINHash = *c.pinHash
	}
}

// requireCurrentPIN rejects PIN-sensitive updates that do not carry the
// current PIN. Replacing the PIN and every edit from an office device are
// PIN-sensitive, so they go through the lockout guard.
func requireCurrentPIN(actor Actor, newPIN, currentPIN *string) error {
	if currentPIN != nil && *currentPIN != "" {
		return nil
	}
	vErr := &ValidationError{}
	switch {
	case newPIN != nil:
		vErr.add("current_pin", "current pin is required to set a new pin")
	case actor.Kind == persistence.ActorDevice:
		vErr.add("current_pin", "current pin is required")
	}
	return vErr.errOrNil()
}

func (s *ReservationService) prepareChanges(title, color, newPIN *string) (fieldChanges, error) {
	var changes fieldChanges
	vErr := &ValidationError{}
	if title != nil {
		t := strings.TrimSpace(*title)
		if msg := titleProblem(t); msg != "" {
			vErr.add("title", msg)
		}
		changes.title = &t
	}
	if color != nil {
		c := strings.TrimSpace(*color)
		if c == "" {
			c = DefaultColor
		}
		if !colorPattern.MatchString(c) {
			vErr.add("color", "color must look like #RRGGBB")
		}
		changes.color = &c
	}
	if err := vErr.errOrNil(); err != nil {
		return fieldChanges{}, err
	}
	if newPIN != nil {
		if err := pinlock.ValidateFormat(*newPIN); err != nil {
			return fieldChanges{}, err
		}
		hash, err := s.hasher.Hash(*newPIN)
		if err != nil {
			return fieldChanges{}, fmt.Errorf("hash pin: %w", err)
		}
		changes.pinHash = &hash
	}
	return changes, nil
}

func validateCreate(params CreateReservationParams) (title, color string, err error) {
	vErr := &ValidationError{}
	if strings.TrimSpace(params.RoomID) == "" {
		vErr.add("room_id", "room is required")
	}
	title = strings.TrimSpace(params.Title)
	if msg := titleProblem(title); msg != "" {
		vErr.add("title", msg)
	}
	color = strings.TrimSpace(params.Color)
	if color == "" {
		color = DefaultColor
	} else if !colorPattern.MatchString(color) {
		vErr.add("color", "color must look like #RRGGBB")
	}
	if params.Repeat != nil && params.Repeat.Until.IsZero() {
		vErr.add("repeat_until", "repeat end date is required")
	}
	if err := vErr.errOrNil(); err != nil {
		return "", "", err
	}
	if err := pinlock.ValidateFormat(params.PIN); err != nil {
		return "", "", err
	}
	return title, color, nil
}

func titleProblem(title string) string {
	switch {
	case title == "":
		return "title is required"
	case utf8.RuneCountInString(title) > maxTitleLength:
		return fmt.Sprintf("title must be at most %d characters", maxTitleLength)
	}
	return ""
}
