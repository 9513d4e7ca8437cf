package application

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/classroom-scheduler/internal/scheduler"
)

var baseTime = time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC) // a Monday

var adminPrincipal = Principal{UserID: "admin-1", Role: RoleAdmin}

type memCourse struct{ code, name string }
type memRoom struct{ number, kind string }
type memUser struct{ name, email string }

// memStore is an in-memory implementation of every repository the services use.
type memStore struct {
	mu       sync.Mutex
	courses  map[string]memCourse
	sections map[string]string
	rooms    map[string]memRoom
	users    map[string]memUser
	routines map[string]Routine
	statuses map[string]RoomStatus

	catalogErr error
	createErr  error
}

func newMemStore() *memStore {
	return &memStore{
		courses:  map[string]memCourse{"course-1": {"CSE101", "Intro to CS"}},
		sections: map[string]string{"section-1": "A"},
		rooms:    map[string]memRoom{"room-a": {"A101", "lecture"}, "room-b": {"B202", "lab"}},
		users:    map[string]memUser{"admin-1": {"Ada", "ada@example.com"}, "teacher-1": {"Tim", "tim@example.com"}},
		routines: map[string]Routine{},
		statuses: map[string]RoomStatus{},
	}
}

func (m *memStore) CourseExists(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.courses[id]
	return ok, m.catalogErr
}

func (m *memStore) SectionExists(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sections[id]
	return ok, m.catalogErr
}

func (m *memStore) RoomExists(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rooms[id]
	return ok, m.catalogErr
}

func (m *memStore) UserExists(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.users[id]
	return ok, m.catalogErr
}

func (m *memStore) CreateRoutine(ctx context.Context, routine Routine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.routines[routine.ID]; exists {
		return fmt.Errorf("duplicate routine %s", routine.ID)
	}
	m.routines[routine.ID] = routine
	return nil
}

func (m *memStore) UpdateRoutine(ctx context.Context, routine Routine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.routines[routine.ID]; !exists {
		return ErrNotFound
	}
	m.routines[routine.ID] = routine
	return nil
}

func (m *memStore) DeleteRoutine(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.routines[id]; !exists {
		return ErrNotFound
	}
	delete(m.routines, id)
	return nil
}

func (m *memStore) GetRoutine(ctx context.Context, id string) (RoutineDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	routine, ok := m.routines[id]
	if !ok {
		return RoutineDetail{}, ErrNotFound
	}
	return m.detailLocked(routine), nil
}

func (m *memStore) ListRoutines(ctx context.Context, query RoutineQuery) ([]RoutineDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []RoutineDetail
	for _, routine := range m.routines {
		if query.RoomID != "" && routine.RoomID != query.RoomID {
			continue
		}
		if query.Day != "" && !routine.Day.Equal(query.Day) {
			continue
		}
		if query.Teacher != "" && !strings.Contains(strings.ToLower(routine.Teacher), strings.ToLower(query.Teacher)) {
			continue
		}
		out = append(out, m.detailLocked(routine))
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch query.Order {
		case OrderStartThenRoom:
			if a.Interval.Start != b.Interval.Start {
				return a.Interval.Start < b.Interval.Start
			}
			return a.RoomNumber < b.RoomNumber
		case OrderDayThenStart:
			if a.Day.Index() != b.Day.Index() {
				return a.Day.Index() < b.Day.Index()
			}
			return a.Interval.Start < b.Interval.Start
		default:
			return a.CreatedAt.After(b.CreatedAt)
		}
	})
	return out, nil
}

func (m *memStore) detailLocked(routine Routine) RoutineDetail {
	course := m.courses[routine.CourseID]
	return RoutineDetail{
		Routine:     routine,
		CourseCode:  course.code,
		CourseName:  course.name,
		SectionName: m.sections[routine.SectionID],
		RoomNumber:  m.rooms[routine.RoomID].number,
	}
}

func (m *memStore) CreateRoomStatus(ctx context.Context, status RoomStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[status.ID] = status
	return nil
}

func (m *memStore) UpdateRoomStatus(ctx context.Context, status RoomStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.statuses[status.ID]; !exists {
		return ErrNotFound
	}
	m.statuses[status.ID] = status
	return nil
}

func (m *memStore) DeleteRoomStatus(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.statuses[id]; !exists {
		return ErrNotFound
	}
	delete(m.statuses, id)
	return nil
}

func (m *memStore) GetRoomStatus(ctx context.Context, id string) (RoomStatusDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	status, ok := m.statuses[id]
	if !ok {
		return RoomStatusDetail{}, ErrNotFound
	}
	return m.statusDetailLocked(status), nil
}

func (m *memStore) ListRoomStatuses(ctx context.Context, roomID string) ([]RoomStatusDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []RoomStatusDetail
	for _, status := range m.statuses {
		if roomID != "" && status.RoomID != roomID {
			continue
		}
		out = append(out, m.statusDetailLocked(status))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *memStore) statusDetailLocked(status RoomStatus) RoomStatusDetail {
	detail := RoomStatusDetail{
		RoomStatus:   status,
		RoomNumber:   m.rooms[status.RoomID].number,
		RoomType:     m.rooms[status.RoomID].kind,
		UpdaterName:  m.users[status.UpdatedBy].name,
		UpdaterEmail: m.users[status.UpdatedBy].email,
	}
	if status.RoutineID != nil {
		if routine, ok := m.routines[*status.RoutineID]; ok {
			detail.Routine = &RoutineSummary{
				ID:        routine.ID,
				Day:       routine.Day,
				Interval:  routine.Interval,
				ClassType: routine.ClassType,
				Teacher:   routine.Teacher,
			}
		}
	}
	return detail
}

func sequentialIDs(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// steppingClock advances one second per call so creation order is observable.
func steppingClock() func() time.Time {
	var (
		mu sync.Mutex
		t  = baseTime
	)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func routineInput(day, start, end, room string) RoutineInput {
	return RoutineInput{
		Day:       day,
		StartTime: start,
		EndTime:   end,
		ClassType: "Lecture",
		Teacher:   "Grace Hopper",
		CourseID:  "course-1",
		SectionID: "section-1",
		RoomID:    room,
	}
}

func ptr[T any](v T) *T {
	return &v
}

func interval(start, end string) scheduler.Interval {
	i, err := scheduler.ParseInterval(start, end)
	if err != nil {
		panic(err)
	}
	return i
}
