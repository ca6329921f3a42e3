package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/facility-reservations/internal/persistence"
)

// RoomInput carries administrator supplied room attributes.
type RoomInput struct {
	Name      string
	Location  string
	SortOrder int
	// Active defaults to true on create and is left unchanged on update when nil.
	Active *bool
}

// BlockInput describes an administrative closure. A nil RoomID blocks every room.
type BlockInput struct {
	RoomID *string
	Start  time.Time
	End    time.Time
	Reason string
}

// CatalogService maintains rooms and blocks for administrators.
type CatalogService struct {
	store       persistence.Store
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewCatalogService constructs a catalog service with the provided dependencies.
func NewCatalogService(store persistence.Store, idGenerator func() string, now func() time.Time) *CatalogService {
	return NewCatalogServiceWithLogger(store, idGenerator, now, nil)
}

// NewCatalogServiceWithLogger constructs a catalog service with a specified logger.
func NewCatalogServiceWithLogger(store persistence.Store, idGenerator func() string, now func() time.Time, logger *slog.Logger) *CatalogService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &CatalogService{store: store, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *CatalogService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CatalogService", operation, attrs...)
}

// CreateRoom validates input and persists a new room.
func (s *CatalogService) CreateRoom(ctx context.Context, actor Actor, input RoomInput) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("CatalogService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateRoom", "actor", actor.Label)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("room_id", room.ID).InfoContext(ctx, "room created")
	}()

	vErr := validateRoomInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	record := persistence.Room{
		ID:        s.idGenerator(),
		Name:      strings.TrimSpace(input.Name),
		Location:  strings.TrimSpace(input.Location),
		SortOrder: input.SortOrder,
		Active:    input.Active == nil || *input.Active,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx persistence.Tx) error {
		if err := tx.CreateRoom(ctx, record); err != nil {
			return mapRepoError(err)
		}
		return appendAudit(ctx, tx, s.idGenerator(), now, auditRecord{
			actor:  actor,
			action: ActionRoomCreate,
			detail: map[string]any{"room_id": record.ID, "name": record.Name},
		})
	})
	if err != nil {
		return
	}

	room = roomFromRecord(record)
	return
}

// UpdateRoom replaces the attributes of an existing room.
func (s *CatalogService) UpdateRoom(ctx context.Context, actor Actor, roomID string, input RoomInput) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("CatalogService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateRoom", "actor", actor.Label, "room_id", roomID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "room updated")
	}()

	vErr := validateRoomInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx persistence.Tx) error {
		existing, err := tx.GetRoom(ctx, roomID)
		if err != nil {
			return mapRepoError(err)
		}
		existing.Name = strings.TrimSpace(input.Name)
		existing.Location = strings.TrimSpace(input.Location)
		existing.SortOrder = input.SortOrder
		if input.Active != nil {
			existing.Active = *input.Active
		}
		existing.UpdatedAt = now
		if err := tx.UpdateRoom(ctx, existing); err != nil {
			return mapRepoError(err)
		}
		room = roomFromRecord(existing)
		return appendAudit(ctx, tx, s.idGenerator(), now, auditRecord{
			actor:  actor,
			action: ActionRoomUpdate,
			detail: map[string]any{"room_id": existing.ID, "name": existing.Name, "active": existing.Active},
		})
	})
	if err != nil {
		room = Room{}
	}
	return
}

// EnsureRoom creates the room named input.Name or updates the existing one in
// place. It reports whether a new room was created.
func (s *CatalogService) EnsureRoom(ctx context.Context, actor Actor, input RoomInput) (Room, bool, error) {
	if s == nil {
		return Room{}, false, fmt.Errorf("CatalogService is nil")
	}

	var existing persistence.Room
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx persistence.Tx) error {
		var err error
		existing, err = tx.GetRoomByName(ctx, strings.TrimSpace(input.Name))
		return err
	})
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		room, err := s.CreateRoom(ctx, actor, input)
		return room, err == nil, err
	case err != nil:
		return Room{}, false, err
	}

	room, err := s.UpdateRoom(ctx, actor, existing.ID, input)
	return room, false, err
}

// ListRooms returns rooms ordered by sort order then name.
func (s *CatalogService) ListRooms(ctx context.Context, includeInactive bool) (rooms []Room, err error) {
	if s == nil {
		err = fmt.Errorf("CatalogService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListRooms")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list rooms", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(rooms)).DebugContext(ctx, "rooms listed")
	}()

	var records []persistence.Room
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx persistence.Tx) error {
		var err error
		records, err = tx.ListRooms(ctx, !includeInactive)
		return err
	})
	if err != nil {
		return
	}

	rooms = make([]Room, 0, len(records))
	for _, r := range records {
		rooms = append(rooms, roomFromRecord(r))
	}
	return
}

// CreateBlock closes a room, or every room, for the given interval. Existing
// reservations are left in place.
func (s *CatalogService) CreateBlock(ctx context.Context, actor Actor, input BlockInput) (block Block, err error) {
	if s == nil {
		err = fmt.Errorf("CatalogService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateBlock", "actor", actor.Label)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create block", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("block_id", block.ID).InfoContext(ctx, "block created")
	}()

	vErr := &ValidationError{}
	if input.Start.IsZero() || input.End.IsZero() {
		vErr.add("interval", "start and end are required")
	} else if !input.End.After(input.Start) {
		vErr.add("interval", "end must be after start")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	record := persistence.Block{
		ID:        s.idGenerator(),
		RoomID:    normalizeOptionalString(input.RoomID),
		StartAt:   input.Start,
		EndAt:     input.End,
		Reason:    strings.TrimSpace(input.Reason),
		CreatedAt: now,
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx persistence.Tx) error {
		if record.RoomID != nil {
			if _, err := tx.GetRoom(ctx, *record.RoomID); err != nil {
				return mapRepoError(err)
			}
		}
		if err := tx.CreateBlock(ctx, record); err != nil {
			return mapRepoError(err)
		}
		detail := map[string]any{
			"block_id": record.ID,
			"start_at": record.StartAt.UTC().Format(time.RFC3339),
			"end_at":   record.EndAt.UTC().Format(time.RFC3339),
			"reason":   record.Reason,
		}
		if record.RoomID != nil {
			detail["room_id"] = *record.RoomID
		}
		return appendAudit(ctx, tx, s.idGenerator(), now, auditRecord{actor: actor, action: ActionBlockCreate, detail: detail})
	})
	if err != nil {
		return
	}

	block = blockFromRecord(record)
	return
}

// DeleteBlock removes a block.
func (s *CatalogService) DeleteBlock(ctx context.Context, actor Actor, blockID string) error {
	if s == nil {
		return fmt.Errorf("CatalogService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteBlock", "actor", actor.Label, "block_id", blockID)

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx persistence.Tx) error {
		if err := tx.DeleteBlock(ctx, blockID); err != nil {
			return mapRepoError(err)
		}
		return appendAudit(ctx, tx, s.idGenerator(), s.now(), auditRecord{
			actor:  actor,
			action: ActionBlockDelete,
			detail: map[string]any{"block_id": blockID},
		})
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to delete block", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "block deleted")
	return nil
}

// ListBlocks returns blocks intersecting [start, end).
func (s *CatalogService) ListBlocks(ctx context.Context, start, end time.Time) ([]Block, error) {
	if s == nil {
		return nil, fmt.Errorf("CatalogService is nil")
	}

	var records []persistence.Block
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx persistence.Tx) error {
		var err error
		records, err = tx.ListBlocks(ctx, persistence.Window{Start: start, End: end})
		return err
	})
	if err != nil {
		return nil, err
	}

	blocks := make([]Block, 0, len(records))
	for _, b := range records {
		blocks = append(blocks, blockFromRecord(b))
	}
	return blocks, nil
}

func validateRoomInput(input RoomInput) *ValidationError {
	vErr := &ValidationError{}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		vErr.add("name", "name is required")
	} else if len([]rune(name)) > 100 {
		vErr.add("name", "name must be at most 100 characters")
	}
	if input.SortOrder < 0 {
		vErr.add("sort_order", "sort order must not be negative")
	}

	return vErr
}

func normalizeOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
