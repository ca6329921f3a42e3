package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/facility-reservations/internal/application"
	"github.com/example/facility-reservations/internal/persistence"
	"github.com/example/facility-reservations/internal/policy"
	"github.com/example/facility-reservations/internal/secret"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers, a controllable clock and cheap hashing.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Policy      policy.Policy
	Hasher      *secret.Hasher
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Policy:      Policy(),
		Hasher:      Hasher(),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	if factory.Hasher == nil {
		factory.Hasher = Hasher()
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithPolicy overrides the clock policy handed to services.
func WithPolicy(p policy.Policy) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Policy = p
	}
}

// WithLogger sets the base logger handed to services.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// NewReservationService builds a reservation service over store using the
// factory defaults. Extra options are applied last.
func (f *ServiceFactory) NewReservationService(store persistence.Store, extra ...application.ReservationOption) *application.ReservationService {
	opts := []application.ReservationOption{
		application.WithReservationClock(f.Clock.NowFunc()),
		application.WithReservationIDGenerator(f.IDGenerator.NextFunc()),
	}
	if f.Logger != nil {
		opts = append(opts, application.WithReservationLogger(f.Logger))
	}
	opts = append(opts, extra...)
	return application.NewReservationService(store, f.Policy, f.Hasher, opts...)
}

// NewCatalogService builds a catalog service over store.
func (f *ServiceFactory) NewCatalogService(store persistence.Store) *application.CatalogService {
	return application.NewCatalogServiceWithLogger(store, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// NewDeviceService builds a device service over store.
func (f *ServiceFactory) NewDeviceService(store persistence.Store) *application.DeviceService {
	return application.NewDeviceServiceWithLogger(store, f.Hasher, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}
