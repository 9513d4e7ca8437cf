package testfixtures

import (
	"context"
	"fmt"
	"time"

	"github.com/example/classroom-scheduler/internal/application"
	"github.com/example/classroom-scheduler/internal/persistence"
)

var referenceTime = time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures, a Monday morning.
func ReferenceTime() time.Time {
	return referenceTime
}

// Well known catalog identifiers seeded by DefaultCatalog.
const (
	CourseProgramming = "course-cse101"
	CourseMath        = "course-mat201"
	SectionA          = "section-a"
	SectionB          = "section-b"
	RoomLecture       = "room-a101"
	RoomLab           = "room-b202"
	UserAdmin         = "user-admin"
	UserAssistant     = "user-assistant"
	UserTeacher       = "user-teacher"
	UserStudent       = "user-student"
)

// CatalogFixture lists the catalog and account rows a test database starts with.
type CatalogFixture struct {
	Courses  []persistence.Course
	Sections []persistence.Section
	Rooms    []persistence.Room
	Users    []persistence.User
}

// DefaultCatalog returns two courses, two sections, a lecture room, a lab and
// one account per role.
func DefaultCatalog() CatalogFixture {
	at := referenceTime
	return CatalogFixture{
		Courses: []persistence.Course{
			{ID: CourseProgramming, CourseCode: "CSE101", CourseName: "Structured Programming", CreatedAt: at, UpdatedAt: at},
			{ID: CourseMath, CourseCode: "MAT201", CourseName: "Discrete Mathematics", CreatedAt: at, UpdatedAt: at},
		},
		Sections: []persistence.Section{
			{ID: SectionA, SectionName: "A", CreatedAt: at, UpdatedAt: at},
			{ID: SectionB, SectionName: "B", CreatedAt: at, UpdatedAt: at},
		},
		Rooms: []persistence.Room{
			{ID: RoomLecture, RoomNumber: "A101", RoomType: "lecture", CreatedAt: at, UpdatedAt: at},
			{ID: RoomLab, RoomNumber: "B202", RoomType: "lab", CreatedAt: at, UpdatedAt: at},
		},
		Users: []persistence.User{
			{ID: UserAdmin, Name: "Ada Admin", Email: "admin@example.edu", Role: string(application.RoleAdmin), CreatedAt: at, UpdatedAt: at},
			{ID: UserAssistant, Name: "Sam Assistant", Email: "assistant@example.edu", Role: string(application.RoleAssistantAdmin), CreatedAt: at, UpdatedAt: at},
			{ID: UserTeacher, Name: "Dr. Rahman", Email: "rahman@example.edu", Role: string(application.RoleTeacher), CreatedAt: at, UpdatedAt: at},
			{ID: UserStudent, Name: "Sara Student", Email: "student@example.edu", Role: string(application.RoleStudent), CreatedAt: at, UpdatedAt: at},
		},
	}
}

// CatalogWriter is the subset of storage needed to seed a catalog.
type CatalogWriter interface {
	CreateCourse(ctx context.Context, course persistence.Course) error
	CreateSection(ctx context.Context, section persistence.Section) error
	CreateRoom(ctx context.Context, room persistence.Room) error
}

// UserWriter stores seeded accounts.
type UserWriter interface {
	CreateUser(ctx context.Context, user persistence.User) error
}

// Seed writes every fixture row.
func (c CatalogFixture) Seed(ctx context.Context, catalog CatalogWriter, users UserWriter) error {
	for _, course := range c.Courses {
		if err := catalog.CreateCourse(ctx, course); err != nil {
			return fmt.Errorf("seed course %s: %w", course.ID, err)
		}
	}
	for _, section := range c.Sections {
		if err := catalog.CreateSection(ctx, section); err != nil {
			return fmt.Errorf("seed section %s: %w", section.ID, err)
		}
	}
	for _, room := range c.Rooms {
		if err := catalog.CreateRoom(ctx, room); err != nil {
			return fmt.Errorf("seed room %s: %w", room.ID, err)
		}
	}
	for _, user := range c.Users {
		if err := users.CreateUser(ctx, user); err != nil {
			return fmt.Errorf("seed user %s: %w", user.ID, err)
		}
	}
	return nil
}

// Principal returns the principal of a seeded account.
func Principal(userID string) application.Principal {
	for _, user := range DefaultCatalog().Users {
		if user.ID == userID {
			return application.Principal{UserID: user.ID, Role: application.Role(user.Role)}
		}
	}
	return application.Principal{UserID: userID}
}

// RoutineInputOption configures a generated routine input.
type RoutineInputOption func(*application.RoutineInput)

// NewRoutineInput returns a lecture of CSE101 section A taught by Dr. Rahman.
func NewRoutineInput(day, start, end, roomID string, opts ...RoutineInputOption) application.RoutineInput {
	input := application.RoutineInput{
		Day:       day,
		StartTime: start,
		EndTime:   end,
		ClassType: "Lecture",
		Teacher:   "Dr. Rahman",
		CourseID:  CourseProgramming,
		SectionID: SectionA,
		RoomID:    roomID,
	}
	for _, opt := range opts {
		opt(&input)
	}
	return input
}

// WithTeacher overrides the teacher name.
func WithTeacher(teacher string) RoutineInputOption {
	return func(in *application.RoutineInput) {
		in.Teacher = teacher
	}
}

// WithCourse overrides the course reference.
func WithCourse(courseID string) RoutineInputOption {
	return func(in *application.RoutineInput) {
		in.CourseID = courseID
	}
}

// WithSection overrides the section reference.
func WithSection(sectionID string) RoutineInputOption {
	return func(in *application.RoutineInput) {
		in.SectionID = sectionID
	}
}

// WithClassType overrides the class type.
func WithClassType(classType string) RoutineInputOption {
	return func(in *application.RoutineInput) {
		in.ClassType = classType
	}
}
