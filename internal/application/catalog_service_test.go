package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/example/facility-reservations/internal/application"
	"github.com/example/facility-reservations/internal/testfixtures"
)

func newCatalogService(t *testing.T) (*application.CatalogService, *testfixtures.SQLiteHarness) {
	t.Helper()
	harness := testfixtures.NewSQLiteHarness(t)
	factory := testfixtures.NewServiceFactory(testfixtures.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	return factory.NewCatalogService(harness.Store), harness
}

func TestCatalogRoomLifecycle(t *testing.T) {
	t.Parallel()
	svc, _ := newCatalogService(t)
	ctx := context.Background()
	admin := application.AdminActor("admin")

	second, err := svc.CreateRoom(ctx, admin, application.RoomInput{Name: " Studio B ", Location: "2F", SortOrder: 2})
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if second.Name != "Studio B" || !second.Active {
		t.Fatalf("room = %+v", second)
	}
	first, err := svc.CreateRoom(ctx, admin, application.RoomInput{Name: "Studio A", SortOrder: 1})
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	if _, err := svc.CreateRoom(ctx, admin, application.RoomInput{Name: "Studio A"}); !errors.Is(err, application.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	var vErr *application.ValidationError
	if _, err := svc.CreateRoom(ctx, admin, application.RoomInput{Name: " "}); !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}

	rooms, err := svc.ListRooms(ctx, false)
	if err != nil {
		t.Fatalf("ListRooms: %v", err)
	}
	if len(rooms) != 2 || rooms[0].ID != first.ID || rooms[1].ID != second.ID {
		t.Fatalf("rooms out of order: %+v", rooms)
	}

	inactive := false
	if _, err := svc.UpdateRoom(ctx, admin, first.ID, application.RoomInput{Name: "Studio A", SortOrder: 1, Active: &inactive}); err != nil {
		t.Fatalf("UpdateRoom: %v", err)
	}
	active, _ := svc.ListRooms(ctx, false)
	all, _ := svc.ListRooms(ctx, true)
	if len(active) != 1 || len(all) != 2 {
		t.Fatalf("active=%d all=%d", len(active), len(all))
	}

	if _, err := svc.UpdateRoom(ctx, admin, "missing", application.RoomInput{Name: "X"}); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCatalogEnsureRoomIsIdempotent(t *testing.T) {
	t.Parallel()
	svc, _ := newCatalogService(t)
	ctx := context.Background()
	admin := application.AdminActor("seed")

	room, created, err := svc.EnsureRoom(ctx, admin, application.RoomInput{Name: "Gym", Location: "B1"})
	if err != nil || !created {
		t.Fatalf("first EnsureRoom = %v, %v", created, err)
	}
	again, created, err := svc.EnsureRoom(ctx, admin, application.RoomInput{Name: "Gym", Location: "B2", SortOrder: 5})
	if err != nil || created {
		t.Fatalf("second EnsureRoom = %v, %v", created, err)
	}
	if again.ID != room.ID || again.Location != "B2" || again.SortOrder != 5 {
		t.Fatalf("room not updated in place: %+v", again)
	}
}

func TestCatalogBlocks(t *testing.T) {
	t.Parallel()
	svc, harness := newCatalogService(t)
	ctx := context.Background()
	admin := application.AdminActor("admin")
	room := harness.SeedRoom(t, "Main Hall")
	day := testfixtures.ReferenceDate()

	roomID := room.ID
	block, err := svc.CreateBlock(ctx, admin, application.BlockInput{
		RoomID: &roomID,
		Start:  testfixtures.At(day, "12:00"),
		End:    testfixtures.At(day, "13:00"),
		Reason: "cleaning",
	})
	if err != nil {
		t.Fatalf("CreateBlock: %v", err)
	}

	var vErr *application.ValidationError
	if _, err := svc.CreateBlock(ctx, admin, application.BlockInput{Start: block.End, End: block.Start}); !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	missing := "nope"
	if _, err := svc.CreateBlock(ctx, admin, application.BlockInput{RoomID: &missing, Start: block.Start, End: block.End}); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	start, end := testfixtures.Policy().DayWindow(day, day)
	blocks, err := svc.ListBlocks(ctx, start, end)
	if err != nil || len(blocks) != 1 || blocks[0].Reason != "cleaning" {
		t.Fatalf("ListBlocks = %+v, %v", blocks, err)
	}

	if err := svc.DeleteBlock(ctx, admin, block.ID); err != nil {
		t.Fatalf("DeleteBlock: %v", err)
	}
	if err := svc.DeleteBlock(ctx, admin, block.ID); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if blocks, _ := svc.ListBlocks(ctx, start, end.Add(time.Hour)); len(blocks) != 0 {
		t.Fatalf("block survived delete: %+v", blocks)
	}
}
