package main

import (
	"context"

	"github.com/example/classroom-scheduler/internal/application"
	"github.com/example/classroom-scheduler/internal/persistence"
	"github.com/example/classroom-scheduler/internal/scheduler"
)

type routineRepositoryAdapter struct {
	repo persistence.RoutineRepository
}

func newRoutineRepositoryAdapter(repo persistence.RoutineRepository) *routineRepositoryAdapter {
	return &routineRepositoryAdapter{repo: repo}
}

func (a *routineRepositoryAdapter) CreateRoutine(ctx context.Context, routine application.Routine) error {
	return a.repo.CreateRoutine(ctx, toPersistenceRoutine(routine))
}

func (a *routineRepositoryAdapter) UpdateRoutine(ctx context.Context, routine application.Routine) error {
	return a.repo.UpdateRoutine(ctx, toPersistenceRoutine(routine))
}

func (a *routineRepositoryAdapter) DeleteRoutine(ctx context.Context, id string) error {
	return a.repo.DeleteRoutine(ctx, id)
}

func (a *routineRepositoryAdapter) GetRoutine(ctx context.Context, id string) (application.RoutineDetail, error) {
	stored, err := a.repo.GetRoutine(ctx, id)
	if err != nil {
		return application.RoutineDetail{}, err
	}
	return toApplicationRoutine(stored), nil
}

func (a *routineRepositoryAdapter) ListRoutines(ctx context.Context, query application.RoutineQuery) ([]application.RoutineDetail, error) {
	records, err := a.repo.ListRoutines(ctx, persistence.RoutineFilter{
		RoomID:  query.RoomID,
		Day:     string(query.Day),
		Teacher: query.Teacher,
		Order:   toPersistenceOrder(query.Order),
	})
	if err != nil {
		return nil, err
	}
	routines := make([]application.RoutineDetail, 0, len(records))
	for _, record := range records {
		routines = append(routines, toApplicationRoutine(record))
	}
	return routines, nil
}

type roomStatusRepositoryAdapter struct {
	repo persistence.RoomStatusRepository
}

func newRoomStatusRepositoryAdapter(repo persistence.RoomStatusRepository) *roomStatusRepositoryAdapter {
	return &roomStatusRepositoryAdapter{repo: repo}
}

func (a *roomStatusRepositoryAdapter) CreateRoomStatus(ctx context.Context, status application.RoomStatus) error {
	return a.repo.CreateRoomStatus(ctx, toPersistenceRoomStatus(status))
}

func (a *roomStatusRepositoryAdapter) UpdateRoomStatus(ctx context.Context, status application.RoomStatus) error {
	return a.repo.UpdateRoomStatus(ctx, toPersistenceRoomStatus(status))
}

func (a *roomStatusRepositoryAdapter) DeleteRoomStatus(ctx context.Context, id string) error {
	return a.repo.DeleteRoomStatus(ctx, id)
}

func (a *roomStatusRepositoryAdapter) GetRoomStatus(ctx context.Context, id string) (application.RoomStatusDetail, error) {
	stored, err := a.repo.GetRoomStatus(ctx, id)
	if err != nil {
		return application.RoomStatusDetail{}, err
	}
	return toApplicationRoomStatus(stored), nil
}

func (a *roomStatusRepositoryAdapter) ListRoomStatuses(ctx context.Context, roomID string) ([]application.RoomStatusDetail, error) {
	records, err := a.repo.ListRoomStatuses(ctx, persistence.RoomStatusFilter{RoomID: roomID})
	if err != nil {
		return nil, err
	}
	statuses := make([]application.RoomStatusDetail, 0, len(records))
	for _, record := range records {
		statuses = append(statuses, toApplicationRoomStatus(record))
	}
	return statuses, nil
}

func toPersistenceOrder(order application.RoutineOrder) persistence.RoutineOrder {
	switch order {
	case application.OrderStartThenRoom:
		return persistence.RoutineOrderStartRoom
	case application.OrderDayThenStart:
		return persistence.RoutineOrderDayStart
	default:
		return persistence.RoutineOrderNewest
	}
}

func toPersistenceRoutine(routine application.Routine) persistence.Routine {
	return persistence.Routine{
		ID:          routine.ID,
		Day:         routine.Day.String(),
		StartMinute: int(routine.Interval.Start),
		EndMinute:   int(routine.Interval.End),
		ClassType:   routine.ClassType,
		Teacher:     routine.Teacher,
		CourseID:    routine.CourseID,
		SectionID:   routine.SectionID,
		RoomID:      routine.RoomID,
		CreatedAt:   routine.CreatedAt,
		UpdatedAt:   routine.UpdatedAt,
	}
}

func toApplicationRoutine(record persistence.RoutineRecord) application.RoutineDetail {
	return application.RoutineDetail{
		Routine: application.Routine{
			ID:        record.ID,
			Day:       canonicalDay(record.Day),
			Interval:  scheduler.Interval{Start: scheduler.TimeOfDay(record.StartMinute), End: scheduler.TimeOfDay(record.EndMinute)},
			ClassType: record.ClassType,
			Teacher:   record.Teacher,
			CourseID:  record.CourseID,
			SectionID: record.SectionID,
			RoomID:    record.RoomID,
			CreatedAt: record.CreatedAt,
			UpdatedAt: record.UpdatedAt,
		},
		CourseCode:  record.CourseCode,
		CourseName:  record.CourseName,
		SectionName: record.SectionName,
		RoomNumber:  record.RoomNumber,
	}
}

func toPersistenceRoomStatus(status application.RoomStatus) persistence.RoomStatus {
	model := persistence.RoomStatus{
		ID:          status.ID,
		RoomID:      status.RoomID,
		Status:      string(status.Status),
		StatusDate:  status.StatusDate,
		RoutineID:   cloneString(status.RoutineID),
		IsRecurring: status.IsRecurring,
		UpdatedBy:   status.UpdatedBy,
		CreatedAt:   status.CreatedAt,
		UpdatedAt:   status.UpdatedAt,
	}
	if status.DayOfWeek != nil {
		day := status.DayOfWeek.String()
		model.DayOfWeek = &day
	}
	if status.Window != nil {
		start, end := int(status.Window.Start), int(status.Window.End)
		model.StartMinute, model.EndMinute = &start, &end
	}
	return model
}

func toApplicationRoomStatus(record persistence.RoomStatusRecord) application.RoomStatusDetail {
	status := application.RoomStatus{
		ID:          record.ID,
		RoomID:      record.RoomID,
		Status:      application.StatusValue(record.Status),
		StatusDate:  record.StatusDate,
		RoutineID:   cloneString(record.RoutineID),
		IsRecurring: record.IsRecurring,
		UpdatedBy:   record.UpdatedBy,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
	if record.DayOfWeek != nil {
		day := canonicalDay(*record.DayOfWeek)
		status.DayOfWeek = &day
	}
	if record.StartMinute != nil && record.EndMinute != nil {
		status.Window = &scheduler.Interval{
			Start: scheduler.TimeOfDay(*record.StartMinute),
			End:   scheduler.TimeOfDay(*record.EndMinute),
		}
	}

	detail := application.RoomStatusDetail{
		RoomStatus:   status,
		RoomNumber:   record.RoomNumber,
		RoomType:     record.RoomType,
		UpdaterName:  record.UpdaterName,
		UpdaterEmail: record.UpdaterEmail,
	}
	if record.Routine != nil {
		detail.Routine = &application.RoutineSummary{
			ID:        record.Routine.ID,
			Day:       canonicalDay(record.Routine.Day),
			Interval:  scheduler.Interval{Start: scheduler.TimeOfDay(record.Routine.StartMinute), End: scheduler.TimeOfDay(record.Routine.EndMinute)},
			ClassType: record.Routine.ClassType,
			Teacher:   record.Routine.Teacher,
		}
	}
	return detail
}

// canonicalDay normalizes stored labels; unknown values are passed through untouched.
func canonicalDay(value string) scheduler.Weekday {
	if day, err := scheduler.ParseWeekday(value); err == nil {
		return day
	}
	return scheduler.Weekday(value)
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
