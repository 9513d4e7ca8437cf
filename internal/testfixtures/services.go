package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/classroom-scheduler/internal/application"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory whose clock starts at
// ReferenceTime and steps one second per reading.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewSteppingClock(time.Time{}, time.Second),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewSteppingClock(time.Time{}, time.Second)
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

func (f *ServiceFactory) defaults(idGen func() string, now func() time.Time) (func() string, func() time.Time) {
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return idGen, now
}

// RoutineServiceDeps captures dependencies for constructing a routine service.
type RoutineServiceDeps struct {
	Routines    application.RoutineRepository
	Catalog     application.Catalog
	Transactor  application.Transactor
	Locker      application.RoomLocker
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewRoutineService builds a routine service from deps and the factory defaults.
func (f *ServiceFactory) NewRoutineService(deps RoutineServiceDeps) *application.RoutineService {
	idGen, now := f.defaults(deps.IDGenerator, deps.Now)
	return application.NewRoutineServiceWithLogger(
		deps.Routines,
		deps.Catalog,
		deps.Transactor,
		deps.Locker,
		idGen,
		now,
		deps.Logger,
	)
}

// RoomStatusServiceDeps captures dependencies for constructing a room status service.
type RoomStatusServiceDeps struct {
	Statuses    application.RoomStatusRepository
	Routines    application.RoutineRepository
	Catalog     application.Catalog
	Users       application.UserDirectory
	Policy      application.StatusPolicy
	Transactor  application.Transactor
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewRoomStatusService builds a room status service from deps and the factory defaults.
func (f *ServiceFactory) NewRoomStatusService(deps RoomStatusServiceDeps) *application.RoomStatusService {
	idGen, now := f.defaults(deps.IDGenerator, deps.Now)
	return application.NewRoomStatusServiceWithLogger(
		deps.Statuses,
		deps.Routines,
		deps.Catalog,
		deps.Users,
		deps.Policy,
		deps.Transactor,
		idGen,
		now,
		deps.Logger,
	)
}
