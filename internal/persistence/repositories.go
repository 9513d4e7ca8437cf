package persistence

import "context"

// Transactor runs fn inside a single storage transaction. Repositories called
// with the context passed to fn take part in that transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// RoutineOrder selects the ordering of routine listings.
type RoutineOrder int

const (
	// RoutineOrderNewest orders by creation time, newest first.
	RoutineOrderNewest RoutineOrder = iota
	// RoutineOrderStartRoom orders by start time, then room number.
	RoutineOrderStartRoom
	// RoutineOrderDayStart orders by weekday (Monday first), then start time.
	RoutineOrderDayStart
)

// RoutineFilter narrows routine queries. Empty fields are ignored.
type RoutineFilter struct {
	RoomID  string
	Day     string
	Teacher string
	Order   RoutineOrder
}

// RoutineRepository stores routines.
type RoutineRepository interface {
	CreateRoutine(ctx context.Context, routine Routine) error
	UpdateRoutine(ctx context.Context, routine Routine) error
	DeleteRoutine(ctx context.Context, id string) error
	GetRoutine(ctx context.Context, id string) (RoutineRecord, error)
	ListRoutines(ctx context.Context, filter RoutineFilter) ([]RoutineRecord, error)
}

// RoomStatusFilter narrows room status queries.
type RoomStatusFilter struct {
	RoomID string
}

// RoomStatusRepository stores the room status history.
type RoomStatusRepository interface {
	CreateRoomStatus(ctx context.Context, status RoomStatus) error
	UpdateRoomStatus(ctx context.Context, status RoomStatus) error
	DeleteRoomStatus(ctx context.Context, id string) error
	GetRoomStatus(ctx context.Context, id string) (RoomStatusRecord, error)
	ListRoomStatuses(ctx context.Context, filter RoomStatusFilter) ([]RoomStatusRecord, error)
}

// CatalogRepository stores rooms, courses and sections.
type CatalogRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	CreateCourse(ctx context.Context, course Course) error
	CreateSection(ctx context.Context, section Section) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	RoomExists(ctx context.Context, id string) (bool, error)
	CourseExists(ctx context.Context, id string) (bool, error)
	SectionExists(ctx context.Context, id string) (bool, error)
}

// UserRepository stores accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	UserExists(ctx context.Context, id string) (bool, error)
}
