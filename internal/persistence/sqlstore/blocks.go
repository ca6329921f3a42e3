package sqlstore

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"github.com/example/facility-reservations/internal/persistence"
)

var blockColumns = []string{"id", "room_id", "start_at", "end_at", "reason", "created_at"}

type blockRow struct {
	ID        string         `db:"id"`
	RoomID    sql.NullString `db:"room_id"`
	StartAt   dbTime         `db:"start_at"`
	EndAt     dbTime         `db:"end_at"`
	Reason    string         `db:"reason"`
	CreatedAt dbTime         `db:"created_at"`
}

func (row blockRow) model() persistence.Block {
	return persistence.Block{
		ID:        row.ID,
		RoomID:    fromNullString(row.RoomID),
		StartAt:   row.StartAt.Time,
		EndAt:     row.EndAt.Time,
		Reason:    row.Reason,
		CreatedAt: row.CreatedAt.Time,
	}
}

func (r *txRepo) CreateBlock(ctx context.Context, block persistence.Block) error {
	q := r.sb().Insert("blocks").
		Columns(blockColumns...).
		Values(block.ID, nullString(block.RoomID), r.store.timeArg(block.StartAt), r.store.timeArg(block.EndAt),
			block.Reason, r.store.timeArg(block.CreatedAt))
	return r.exec(ctx, "CreateBlock", q, false)
}

func (r *txRepo) DeleteBlock(ctx context.Context, id string) error {
	return r.exec(ctx, "DeleteBlock", r.sb().Delete("blocks").Where(sq.Eq{"id": id}), true)
}

func (r *txRepo) BlocksOverlapping(ctx context.Context, roomID string, window persistence.Window) ([]persistence.Block, error) {
	q := r.sb().Select(blockColumns...).From("blocks").
		Where(sq.Or{sq.Eq{"room_id": roomID}, sq.Eq{"room_id": nil}}).
		Where(sq.Lt{"start_at": r.store.timeArg(window.End)}).
		Where(sq.Gt{"end_at": r.store.timeArg(window.Start)}).
		OrderBy("start_at ASC")
	return r.blocks(ctx, "BlocksOverlapping", q)
}

func (r *txRepo) ListBlocks(ctx context.Context, window persistence.Window) ([]persistence.Block, error) {
	q := r.sb().Select(blockColumns...).From("blocks").
		Where(sq.Lt{"start_at": r.store.timeArg(window.End)}).
		Where(sq.Gt{"end_at": r.store.timeArg(window.Start)}).
		OrderBy("start_at ASC", "id ASC")
	return r.blocks(ctx, "ListBlocks", q)
}

func (r *txRepo) blocks(ctx context.Context, op string, q sq.SelectBuilder) ([]persistence.Block, error) {
	var rows []blockRow
	if err := r.selectAll(ctx, op, &rows, q); err != nil {
		return nil, err
	}
	blocks := make([]persistence.Block, 0, len(rows))
	for _, row := range rows {
		blocks = append(blocks, row.model())
	}
	return blocks, nil
}
