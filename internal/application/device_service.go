package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/facility-reservations/internal/persistence"
	"github.com/example/facility-reservations/internal/secret"
)

// DeviceRegistration is returned once when a device is registered; Key is
// never stored in clear text.
type DeviceRegistration struct {
	Device Device
	Key    string
}

// DeviceService registers office terminals and authenticates their requests.
type DeviceService struct {
	store        persistence.Store
	hasher       SecretHasher
	keyGenerator func() (string, error)
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewDeviceService constructs a DeviceService with the provided dependencies.
func NewDeviceService(store persistence.Store, hasher SecretHasher, idGenerator func() string, now func() time.Time) *DeviceService {
	return NewDeviceServiceWithLogger(store, hasher, idGenerator, now, nil)
}

// NewDeviceServiceWithLogger constructs a DeviceService with a specified logger.
func NewDeviceServiceWithLogger(store persistence.Store, hasher SecretHasher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *DeviceService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &DeviceService{
		store:        store,
		hasher:       hasher,
		keyGenerator: func() (string, error) { return secret.NewDeviceKey(24) },
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *DeviceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "DeviceService", operation, attrs...)
}

// Register creates an enabled device and returns its freshly generated key.
func (s *DeviceService) Register(ctx context.Context, actor Actor, label string) (result DeviceRegistration, err error) {
	if s == nil {
		err = fmt.Errorf("DeviceService is nil")
		return
	}

	label = strings.TrimSpace(label)
	logger := s.loggerWith(ctx, "Register", "actor", actor.Label, "device_label", label)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to register device", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "device registered", "device_id", result.Device.ID)
	}()

	if label == "" {
		vErr := &ValidationError{}
		vErr.add("label", "label is required")
		err = vErr
		return
	}

	key, err := s.keyGenerator()
	if err != nil {
		err = fmt.Errorf("generate device key: %w", err)
		return
	}
	hash, err := s.hasher.Hash(key)
	if err != nil {
		err = fmt.Errorf("hash device key: %w", err)
		return
	}

	now := s.now()
	record := persistence.Device{ID: s.idGenerator(), Label: label, KeyHash: hash, Enabled: true, CreatedAt: now}
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx persistence.Tx) error {
		if err := tx.CreateDevice(ctx, record); err != nil {
			return mapRepoError(err)
		}
		return appendAudit(ctx, tx, s.idGenerator(), now, auditRecord{
			actor:  actor,
			action: ActionDeviceCreate,
			detail: map[string]any{"device_id": record.ID, "label": label},
		})
	})
	if err != nil {
		return
	}

	result = DeviceRegistration{Device: deviceFromRecord(record), Key: key}
	return
}

// Authenticate resolves an enabled device from its label and key. Every
// failure is reported as ErrUnauthorized.
func (s *DeviceService) Authenticate(ctx context.Context, label, key string) (device Device, err error) {
	if s == nil {
		err = fmt.Errorf("DeviceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Authenticate", "device_label", label)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "device authentication failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if strings.TrimSpace(label) == "" || key == "" {
		err = ErrUnauthorized
		return
	}

	var record persistence.Device
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx persistence.Tx) error {
		var err error
		record, err = tx.GetDeviceByLabel(ctx, strings.TrimSpace(label))
		return err
	})
	if errors.Is(err, persistence.ErrNotFound) {
		err = ErrUnauthorized
		return
	}
	if err != nil {
		return
	}
	if !record.Enabled {
		err = fmt.Errorf("%w: device disabled", ErrUnauthorized)
		return
	}
	if verr := s.hasher.Verify(record.KeyHash, key); verr != nil {
		err = ErrUnauthorized
		return
	}

	device = deviceFromRecord(record)
	return
}

// SetEnabled toggles a device. Disabled devices fail authentication.
func (s *DeviceService) SetEnabled(ctx context.Context, actor Actor, label string, enabled bool) error {
	if s == nil {
		return fmt.Errorf("DeviceService is nil")
	}

	logger := s.loggerWith(ctx, "SetEnabled", "actor", actor.Label, "device_label", label, "enabled", enabled)

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx persistence.Tx) error {
		record, err := tx.GetDeviceByLabel(ctx, strings.TrimSpace(label))
		if err != nil {
			return mapRepoError(err)
		}
		record.Enabled = enabled
		if err := tx.UpdateDevice(ctx, record); err != nil {
			return mapRepoError(err)
		}
		return appendAudit(ctx, tx, s.idGenerator(), s.now(), auditRecord{
			actor:  actor,
			action: ActionDeviceUpdate,
			detail: map[string]any{"device_id": record.ID, "label": record.Label, "enabled": enabled},
		})
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to update device", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "device updated")
	return nil
}

// ListDevices returns every registered device ordered by label.
func (s *DeviceService) ListDevices(ctx context.Context) ([]Device, error) {
	if s == nil {
		return nil, fmt.Errorf("DeviceService is nil")
	}

	var records []persistence.Device
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx persistence.Tx) error {
		var err error
		records, err = tx.ListDevices(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	devices := make([]Device, 0, len(records))
	for _, d := range records {
		devices = append(devices, deviceFromRecord(d))
	}
	return devices, nil
}
