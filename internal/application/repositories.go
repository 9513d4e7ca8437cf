package application

import (
	"context"

	"github.com/example/classroom-scheduler/internal/scheduler"
)

// Transactor runs fn in one storage transaction. Repositories called with the
// context handed to fn join that transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// RoutineOrder selects how routine listings are sorted.
type RoutineOrder int

const (
	// OrderNewestFirst sorts by creation time, newest first.
	OrderNewestFirst RoutineOrder = iota
	// OrderStartThenRoom sorts by start time, then room number.
	OrderStartThenRoom
	// OrderDayThenStart sorts by weekday (Monday first), then start time.
	OrderDayThenStart
)

// RoutineQuery narrows routine listings. Zero fields are ignored.
type RoutineQuery struct {
	RoomID  string
	Day     scheduler.Weekday
	Teacher string
	Order   RoutineOrder
}

// RoutineRepository captures the persistence operations needed for routines.
type RoutineRepository interface {
	CreateRoutine(ctx context.Context, routine Routine) error
	UpdateRoutine(ctx context.Context, routine Routine) error
	DeleteRoutine(ctx context.Context, id string) error
	GetRoutine(ctx context.Context, id string) (RoutineDetail, error)
	ListRoutines(ctx context.Context, query RoutineQuery) ([]RoutineDetail, error)
}

// RoomStatusRepository captures the persistence operations needed for room statuses.
type RoomStatusRepository interface {
	CreateRoomStatus(ctx context.Context, status RoomStatus) error
	UpdateRoomStatus(ctx context.Context, status RoomStatus) error
	DeleteRoomStatus(ctx context.Context, id string) error
	GetRoomStatus(ctx context.Context, id string) (RoomStatusDetail, error)
	// ListRoomStatuses returns records newest first. An empty roomID lists every room.
	ListRoomStatuses(ctx context.Context, roomID string) ([]RoomStatusDetail, error)
}

// Catalog exposes existence checks for catalog entities.
type Catalog interface {
	CourseExists(ctx context.Context, id string) (bool, error)
	SectionExists(ctx context.Context, id string) (bool, error)
	RoomExists(ctx context.Context, id string) (bool, error)
}

// UserDirectory exposes user lookup operations.
type UserDirectory interface {
	UserExists(ctx context.Context, id string) (bool, error)
}

// noopTransactor runs fn directly. It backs services built without storage
// transactions, such as unit tests with in-memory repositories.
type noopTransactor struct{}

func (noopTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
