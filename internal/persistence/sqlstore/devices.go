package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/example/facility-reservations/internal/persistence"
)

var deviceColumns = []string{"id", "label", "key_hash", "enabled", "created_at"}

type deviceRow struct {
	ID        string `db:"id"`
	Label     string `db:"label"`
	KeyHash   string `db:"key_hash"`
	Enabled   bool   `db:"enabled"`
	CreatedAt dbTime `db:"created_at"`
}

func (row deviceRow) model() persistence.Device {
	return persistence.Device{
		ID:        row.ID,
		Label:     row.Label,
		KeyHash:   row.KeyHash,
		Enabled:   row.Enabled,
		CreatedAt: row.CreatedAt.Time,
	}
}

func (r *txRepo) CreateDevice(ctx context.Context, device persistence.Device) error {
	q := r.sb().Insert("devices").
		Columns(deviceColumns...).
		Values(device.ID, device.Label, device.KeyHash, device.Enabled, r.store.timeArg(device.CreatedAt))
	return r.exec(ctx, "CreateDevice", q, false)
}

func (r *txRepo) UpdateDevice(ctx context.Context, device persistence.Device) error {
	q := r.sb().Update("devices").
		SetMap(map[string]any{
			"key_hash": device.KeyHash,
			"enabled":  device.Enabled,
		}).
		Where(sq.Eq{"id": device.ID})
	return r.exec(ctx, "UpdateDevice", q, true)
}

func (r *txRepo) GetDeviceByLabel(ctx context.Context, label string) (persistence.Device, error) {
	var row deviceRow
	q := r.sb().Select(deviceColumns...).From("devices").Where(sq.Eq{"label": label})
	if err := r.selectOne(ctx, "GetDeviceByLabel", &row, q); err != nil {
		return persistence.Device{}, err
	}
	return row.model(), nil
}

func (r *txRepo) ListDevices(ctx context.Context) ([]persistence.Device, error) {
	var rows []deviceRow
	if err := r.selectAll(ctx, "ListDevices", &rows, r.sb().Select(deviceColumns...).From("devices").OrderBy("label ASC")); err != nil {
		return nil, err
	}
	devices := make([]persistence.Device, 0, len(rows))
	for _, row := range rows {
		devices = append(devices, row.model())
	}
	return devices, nil
}
