package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/example/facility-reservations/internal/application"
	"github.com/example/facility-reservations/internal/persistence"
	"github.com/example/facility-reservations/internal/testfixtures"
)

func TestDeviceRegistrationAndAuthentication(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	factory := testfixtures.NewServiceFactory(testfixtures.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	svc := factory.NewDeviceService(harness.Store)
	ctx := context.Background()
	admin := application.AdminActor("admin")

	reg, err := svc.Register(ctx, admin, " front-desk ")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if reg.Device.Label != "front-desk" || !reg.Device.Enabled || len(reg.Key) < 16 {
		t.Fatalf("registration = %+v", reg)
	}
	if _, err := svc.Register(ctx, admin, "front-desk"); !errors.Is(err, application.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	device, err := svc.Authenticate(ctx, "front-desk", reg.Key)
	if err != nil || device.ID != reg.Device.ID {
		t.Fatalf("Authenticate = %+v, %v", device, err)
	}

	actor := application.DeviceActor(device, "10.0.0.7")
	if actor.Kind != persistence.ActorDevice || actor.DeviceID == nil || *actor.DeviceID != device.ID {
		t.Fatalf("actor = %+v", actor)
	}

	for name, creds := range map[string][2]string{
		"wrong key":     {"front-desk", "not-the-key"},
		"unknown label": {"back-office", reg.Key},
		"blank":         {"", ""},
	} {
		if _, err := svc.Authenticate(ctx, creds[0], creds[1]); !errors.Is(err, application.ErrUnauthorized) {
			t.Fatalf("%s: expected ErrUnauthorized, got %v", name, err)
		}
	}

	if err := svc.SetEnabled(ctx, admin, "front-desk", false); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "front-desk", reg.Key); !errors.Is(err, application.ErrUnauthorized) {
		t.Fatalf("disabled device authenticated: %v", err)
	}

	devices, err := svc.ListDevices(ctx)
	if err != nil || len(devices) != 1 || devices[0].Enabled {
		t.Fatalf("ListDevices = %+v, %v", devices, err)
	}
}
