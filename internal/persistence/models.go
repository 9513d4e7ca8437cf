package persistence

import "time"

// User is an account that may act on the timetable.
type User struct {
	ID        string
	Name      string
	Email     string
	Role      string
	TokenHash string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Room is a physical room catalog entry.
type Room struct {
	ID         string
	RoomNumber string
	RoomType   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Course is a catalog course.
type Course struct {
	ID         string
	CourseCode string
	CourseName string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Section is a catalog section.
type Section struct {
	ID          string
	SectionName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Routine is a weekly class session. Times are minutes since midnight.
type Routine struct {
	ID          string
	Day         string
	StartMinute int
	EndMinute   int
	ClassType   string
	Teacher     string
	CourseID    string
	SectionID   string
	RoomID      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RoutineRecord is a routine joined with its catalog display fields.
type RoutineRecord struct {
	Routine
	CourseCode  string
	CourseName  string
	SectionName string
	RoomNumber  string
}

// RoomStatus is one entry of a room's status history.
type RoomStatus struct {
	ID          string
	RoomID      string
	Status      string
	StatusDate  time.Time
	RoutineID   *string
	DayOfWeek   *string
	StartMinute *int
	EndMinute   *int
	IsRecurring bool
	UpdatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RoutineSummary is the subset of a routine shown next to a room status.
type RoutineSummary struct {
	ID          string
	Day         string
	StartMinute int
	EndMinute   int
	ClassType   string
	Teacher     string
}

// RoomStatusRecord is a room status joined with its room, updater and routine.
// Routine is nil when the status has no routine or the routine was deleted.
type RoomStatusRecord struct {
	RoomStatus
	RoomNumber   string
	RoomType     string
	UpdaterName  string
	UpdaterEmail string
	Routine      *RoutineSummary
}
