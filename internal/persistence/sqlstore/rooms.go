package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/example/facility-reservations/internal/persistence"
)

var roomColumns = []string{"id", "name", "location", "sort_order", "active", "created_at", "updated_at"}

type roomRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	Location  string `db:"location"`
	SortOrder int    `db:"sort_order"`
	Active    bool   `db:"active"`
	CreatedAt dbTime `db:"created_at"`
	UpdatedAt dbTime `db:"updated_at"`
}

func (row roomRow) model() persistence.Room {
	return persistence.Room{
		ID:        row.ID,
		Name:      row.Name,
		Location:  row.Location,
		SortOrder: row.SortOrder,
		Active:    row.Active,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

func (r *txRepo) CreateRoom(ctx context.Context, room persistence.Room) error {
	q := r.sb().Insert("rooms").
		Columns(roomColumns...).
		Values(room.ID, room.Name, room.Location, room.SortOrder, room.Active,
			r.store.timeArg(room.CreatedAt), r.store.timeArg(room.UpdatedAt))
	return r.exec(ctx, "CreateRoom", q, false)
}

func (r *txRepo) UpdateRoom(ctx context.Context, room persistence.Room) error {
	q := r.sb().Update("rooms").
		SetMap(map[string]any{
			"name":       room.Name,
			"location":   room.Location,
			"sort_order": room.SortOrder,
			"active":     room.Active,
			"updated_at": r.store.timeArg(room.UpdatedAt),
		}).
		Where(sq.Eq{"id": room.ID})
	return r.exec(ctx, "UpdateRoom", q, true)
}

func (r *txRepo) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	var row roomRow
	q := r.sb().Select(roomColumns...).From("rooms").Where(sq.Eq{"id": id})
	if err := r.selectOne(ctx, "GetRoom", &row, q); err != nil {
		return persistence.Room{}, err
	}
	return row.model(), nil
}

func (r *txRepo) GetRoomByName(ctx context.Context, name string) (persistence.Room, error) {
	var row roomRow
	q := r.sb().Select(roomColumns...).From("rooms").Where(sq.Eq{"name": name})
	if err := r.selectOne(ctx, "GetRoomByName", &row, q); err != nil {
		return persistence.Room{}, err
	}
	return row.model(), nil
}

func (r *txRepo) ListRooms(ctx context.Context, activeOnly bool) ([]persistence.Room, error) {
	q := r.sb().Select(roomColumns...).From("rooms").OrderBy("sort_order ASC", "name ASC")
	if activeOnly {
		q = q.Where(sq.Eq{"active": true})
	}
	var rows []roomRow
	if err := r.selectAll(ctx, "ListRooms", &rows, q); err != nil {
		return nil, err
	}
	rooms := make([]persistence.Room, 0, len(rows))
	for _, row := range rows {
		rooms = append(rooms, row.model())
	}
	return rooms, nil
}
