// Package seed loads a TOML catalog of rooms and blocks and applies it through
// the catalog service. Applying the same file twice changes nothing.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/example/facility-reservations/internal/application"
)

var ErrInvalidCatalog = errors.New("seed: invalid catalog")

// Catalog is the decoded seed file.
type Catalog struct {
	Rooms  []Room  `toml:"rooms"`
	Blocks []Block `toml:"blocks"`
}

type Room struct {
	Name      string `toml:"name"`
	Location  string `toml:"location"`
	SortOrder int    `toml:"sort_order"`
	Active    *bool  `toml:"active"`
}

// Block closes Room, or every room when Room is empty.
type Block struct {
	Room   string    `toml:"room"`
	Start  time.Time `toml:"start"`
	End    time.Time `toml:"end"`
	Reason string    `toml:"reason"`
}

// Result counts what Apply changed.
type Result struct {
	RoomsCreated  int
	RoomsUpdated  int
	BlocksCreated int
	BlocksSkipped int
}

type catalogService interface {
	EnsureRoom(ctx context.Context, actor application.Actor, input application.RoomInput) (application.Room, bool, error)
	ListRooms(ctx context.Context, includeInactive bool) ([]application.Room, error)
	CreateBlock(ctx context.Context, actor application.Actor, input application.BlockInput) (application.Block, error)
	ListBlocks(ctx context.Context, start, end time.Time) ([]application.Block, error)
}

// LoadFile decodes the catalog at path.
func LoadFile(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses a catalog and rejects unknown keys, which are almost always
// typos in hand-written files.
func Decode(r io.Reader) (Catalog, error) {
	var catalog Catalog
	meta, err := toml.NewDecoder(r).Decode(&catalog)
	if err != nil {
		return Catalog{}, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Catalog{}, fmt.Errorf("%w: unknown keys %s", ErrInvalidCatalog, strings.Join(keys, ", "))
	}
	if err := catalog.validate(); err != nil {
		return Catalog{}, err
	}
	return catalog, nil
}

func (c Catalog) validate() error {
	names := make(map[string]bool, len(c.Rooms))
	for i, room := range c.Rooms {
		name := strings.TrimSpace(room.Name)
		if name == "" {
			return fmt.Errorf("%w: rooms[%d] has no name", ErrInvalidCatalog, i)
		}
		if names[name] {
			return fmt.Errorf("%w: room %q listed twice", ErrInvalidCatalog, name)
		}
		names[name] = true
	}
	for i, block := range c.Blocks {
		if !block.End.After(block.Start) {
			return fmt.Errorf("%w: blocks[%d] must end after it starts", ErrInvalidCatalog, i)
		}
	}
	return nil
}

// Apply creates or updates every room by name, then creates every block that
// does not already exist with the same room and interval.
func Apply(ctx context.Context, catalog catalogService, c Catalog, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "seed")
	actor := application.AdminActor("seed")

	var result Result
	for _, r := range c.Rooms {
		room, created, err := catalog.EnsureRoom(ctx, actor, application.RoomInput{
			Name:      r.Name,
			Location:  r.Location,
			SortOrder: r.SortOrder,
			Active:    r.Active,
		})
		if err != nil {
			return result, fmt.Errorf("seed room %q: %w", r.Name, err)
		}
		if created {
			result.RoomsCreated++
		} else {
			result.RoomsUpdated++
		}
		logger.DebugContext(ctx, "room applied", "room_id", room.ID, "name", room.Name, "created", created)
	}

	if len(c.Blocks) == 0 {
		return result, nil
	}

	rooms, err := catalog.ListRooms(ctx, true)
	if err != nil {
		return result, fmt.Errorf("seed blocks: %w", err)
	}
	byName := make(map[string]string, len(rooms))
	for _, room := range rooms {
		byName[room.Name] = room.ID
	}

	for _, b := range c.Blocks {
		var roomID *string
		if name := strings.TrimSpace(b.Room); name != "" {
			id, ok := byName[name]
			if !ok {
				return result, fmt.Errorf("%w: block references unknown room %q", ErrInvalidCatalog, name)
			}
			roomID = &id
		}

		existing, err := catalog.ListBlocks(ctx, b.Start, b.End)
		if err != nil {
			return result, fmt.Errorf("seed blocks: %w", err)
		}
		if containsBlock(existing, roomID, b.Start, b.End) {
			result.BlocksSkipped++
			continue
		}

		if _, err := catalog.CreateBlock(ctx, actor, application.BlockInput{
			RoomID: roomID,
			Start:  b.Start,
			End:    b.End,
			Reason: b.Reason,
		}); err != nil {
			return result, fmt.Errorf("seed block %s-%s: %w", b.Start.Format(time.RFC3339), b.End.Format(time.RFC3339), err)
		}
		result.BlocksCreated++
	}

	logger.InfoContext(ctx, "catalog applied",
		"rooms_created", result.RoomsCreated,
		"rooms_updated", result.RoomsUpdated,
		"blocks_created", result.BlocksCreated,
		"blocks_skipped", result.BlocksSkipped,
	)
	return result, nil
}

func containsBlock(blocks []application.Block, roomID *string, start, end time.Time) bool {
	for _, b := range blocks {
		if !b.Start.Equal(start) || !b.End.Equal(end) {
			continue
		}
		switch {
		case roomID == nil && b.RoomID == nil:
			return true
		case roomID != nil && b.RoomID != nil && *roomID == *b.RoomID:
			return true
		}
	}
	return false
}
