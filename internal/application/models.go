package application

import (
	"time"

	"github.com/example/classroom-scheduler/internal/scheduler"
)

// Role is the account role that governs what a caller may change.
type Role string

const (
	RoleAdmin          Role = "ADMIN"
	RoleAssistantAdmin Role = "ASSISTANT_ADMIN"
	RoleTeacher        Role = "TEACHER"
	RoleStudent        Role = "STUDENT"
)

// Roles lists every known role.
var Roles = []Role{RoleAdmin, RoleAssistantAdmin, RoleTeacher, RoleStudent}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
	Role   Role
}

// CanManageRoutines reports whether the principal may create, update or delete routines.
func (p Principal) CanManageRoutines() bool {
	return p.Role == RoleAdmin || p.Role == RoleAssistantAdmin
}

// Routine is a weekly class session held in one room.
type Routine struct {
	ID        string
	Day       scheduler.Weekday
	Interval  scheduler.Interval
	ClassType string
	Teacher   string
	CourseID  string
	SectionID string
	RoomID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Slot returns the occupancy view used by the conflict detector.
func (r Routine) Slot() scheduler.Slot {
	return scheduler.Slot{ID: r.ID, RoomID: r.RoomID, Day: r.Day, Interval: r.Interval}
}

// RoutineDetail is a routine with its catalog display fields.
type RoutineDetail struct {
	Routine
	CourseCode  string
	CourseName  string
	SectionName string
	RoomNumber  string
}

// RoutineInput captures caller provided routine fields.
type RoutineInput struct {
	Day       string `json:"day" validate:"required,max=10,weekday"`
	StartTime string `json:"start_time" validate:"required,hhmm"`
	EndTime   string `json:"end_time" validate:"required,hhmm"`
	ClassType string `json:"class_type" validate:"required,notblank,max=20"`
	Teacher   string `json:"teacher" validate:"required,notblank,max=20"`
	CourseID  string `json:"course_id" validate:"required,notblank"`
	SectionID string `json:"section_id" validate:"required,notblank"`
	RoomID    string `json:"room_id" validate:"required,notblank"`
}

// RoutinePatch carries the fields of a partial update. Nil fields keep their
// stored values.
type RoutinePatch struct {
	Day       *string `json:"day" validate:"omitnil,max=10,weekday"`
	StartTime *string `json:"start_time" validate:"omitnil,hhmm"`
	EndTime   *string `json:"end_time" validate:"omitnil,hhmm"`
	ClassType *string `json:"class_type" validate:"omitnil,notblank,max=20"`
	Teacher   *string `json:"teacher" validate:"omitnil,notblank,max=20"`
	CourseID  *string `json:"course_id" validate:"omitnil,notblank"`
	SectionID *string `json:"section_id" validate:"omitnil,notblank"`
	RoomID    *string `json:"room_id" validate:"omitnil,notblank"`
}

// CreateRoutineParams wraps the data required to create a routine.
type CreateRoutineParams struct {
	Principal Principal
	Input     RoutineInput
}

// UpdateRoutineParams wraps the data required to update a routine.
type UpdateRoutineParams struct {
	Principal Principal
	RoutineID string
	Patch     RoutinePatch
}

// StatusValue is the state recorded for a room.
type StatusValue string

const (
	StatusFree        StatusValue = "FREE"
	StatusOccupied    StatusValue = "OCCUPIED"
	StatusMaintenance StatusValue = "MAINTENANCE"
	StatusRescheduled StatusValue = "RESCHEDULED"
)

// StatusValues lists every status a room can be set to.
var StatusValues = []StatusValue{StatusFree, StatusOccupied, StatusMaintenance, StatusRescheduled}

// Valid reports whether s is a known status.
func (s StatusValue) Valid() bool {
	for _, v := range StatusValues {
		if s == v {
			return true
		}
	}
	return false
}

// OverrideKind tells whether a status record applies once or every week.
type OverrideKind string

const (
	OverrideOneOff    OverrideKind = "ONE_OFF"
	OverrideRecurring OverrideKind = "RECURRING"
)

// RoomStatus is one entry of a room's status history.
type RoomStatus struct {
	ID         string
	RoomID     string
	Status     StatusValue
	StatusDate time.Time
	// RoutineID is a weak reference and may point at a deleted routine.
	RoutineID   *string
	DayOfWeek   *scheduler.Weekday
	Window      *scheduler.Interval
	IsRecurring bool
	UpdatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Kind returns the override variant of the record.
func (s RoomStatus) Kind() OverrideKind {
	if s.IsRecurring {
		return OverrideRecurring
	}
	return OverrideOneOff
}

// AppliesAt reports whether the record overrides the schedule at instant at.
// One-off records apply on their status date. Recurring records apply from
// their status date onward on their weekday, which defaults to the weekday of
// the status date. A window further narrows either kind.
func (s RoomStatus) AppliesAt(at time.Time) bool {
	date := dateOf(at)
	statusDate := dateOf(s.StatusDate)

	switch s.Kind() {
	case OverrideRecurring:
		if date.Before(statusDate) {
			return false
		}
		day := scheduler.WeekdayOf(statusDate)
		if s.DayOfWeek != nil {
			day = *s.DayOfWeek
		}
		if !day.Equal(scheduler.WeekdayOf(at)) {
			return false
		}
	default:
		if !date.Equal(statusDate) {
			return false
		}
	}

	if s.Window != nil {
		return s.Window.Contains(scheduler.TimeOfDayFromClock(at))
	}
	return true
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RoutineSummary is the routine shown next to a room status.
type RoutineSummary struct {
	ID        string
	Day       scheduler.Weekday
	Interval  scheduler.Interval
	ClassType string
	Teacher   string
}

// RoomStatusDetail is a status record joined with its room, updater and routine.
// Routine is nil when no routine is referenced or it no longer exists.
type RoomStatusDetail struct {
	RoomStatus
	RoomNumber   string
	RoomType     string
	UpdaterName  string
	UpdaterEmail string
	Routine      *RoutineSummary
}

// StatusInput captures caller provided room status fields.
type StatusInput struct {
	RoomID      string  `json:"room_id" validate:"required,notblank"`
	Status      string  `json:"status" validate:"required,room_status"`
	StatusDate  string  `json:"status_date" validate:"required,date"`
	RoutineID   *string `json:"routine_id" validate:"omitnil,notblank"`
	DayOfWeek   *string `json:"day_of_week" validate:"omitnil,max=10,weekday"`
	StartTime   *string `json:"start_time" validate:"omitnil,hhmm"`
	EndTime     *string `json:"end_time" validate:"omitnil,hhmm"`
	IsRecurring bool    `json:"is_recurring"`
	UpdatedBy   string  `json:"updated_by" validate:"omitempty,notblank"`
}

// StatusPatch carries the fields of a partial status update.
type StatusPatch struct {
	RoomID      *string `json:"room_id" validate:"omitnil,notblank"`
	Status      *string `json:"status" validate:"omitnil,room_status"`
	StatusDate  *string `json:"status_date" validate:"omitnil,date"`
	RoutineID   *string `json:"routine_id" validate:"omitnil,notblank"`
	DayOfWeek   *string `json:"day_of_week" validate:"omitnil,max=10,weekday"`
	StartTime   *string `json:"start_time" validate:"omitnil,hhmm"`
	EndTime     *string `json:"end_time" validate:"omitnil,hhmm"`
	IsRecurring *bool   `json:"is_recurring"`
	UpdatedBy   *string `json:"updated_by" validate:"omitnil,notblank"`
}

// SetStatusParams wraps the data required to record a room status.
type SetStatusParams struct {
	Principal Principal
	Input     StatusInput
}

// UpdateStatusParams wraps the data required to update a room status.
type UpdateStatusParams struct {
	Principal Principal
	StatusID  string
	Patch     StatusPatch
}

// OccupancySource tells where a derived room status came from.
type OccupancySource string

const (
	SourceOverride OccupancySource = "override"
	SourceSchedule OccupancySource = "schedule"
)

// RoomOccupancy is the effective status of a room at one instant.
type RoomOccupancy struct {
	RoomID   string
	At       time.Time
	Status   StatusValue
	Source   OccupancySource
	Override *RoomStatusDetail
	Routine  *RoutineDetail
}
