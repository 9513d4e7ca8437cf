package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/classroom-scheduler/internal/persistence"
	"github.com/example/classroom-scheduler/internal/scheduler"
)

// RoutineService manages the weekly routine lifecycle and keeps rooms free of
// double bookings.
type RoutineService struct {
	routines    RoutineRepository
	catalog     Catalog
	tx          Transactor
	locker      RoomLocker
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewRoutineService wires dependencies for routine operations.
func NewRoutineService(routines RoutineRepository, catalog Catalog, tx Transactor, locker RoomLocker, idGenerator func() string, now func() time.Time) *RoutineService {
	return NewRoutineServiceWithLogger(routines, catalog, tx, locker, idGenerator, now, nil)
}

// NewRoutineServiceWithLogger wires dependencies for routine operations with a specified logger.
func NewRoutineServiceWithLogger(routines RoutineRepository, catalog Catalog, tx Transactor, locker RoomLocker, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RoutineService {
	if tx == nil {
		tx = noopTransactor{}
	}
	if locker == nil {
		locker = NewKeyedMutex()
	}
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return &RoutineService{
		routines:    routines,
		catalog:     catalog,
		tx:          tx,
		locker:      locker,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *RoutineService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoutineService", operation, attrs...)
}

// CreateRoutine validates the input, checks the referenced catalog entries and
// inserts the routine unless it overlaps another routine of the same room.
func (s *RoutineService) CreateRoutine(ctx context.Context, params CreateRoutineParams) (detail RoutineDetail, err error) {
	if s == nil {
		err = fmt.Errorf("RoutineService is nil")
		return
	}
	if s.routines == nil {
		err = fmt.Errorf("routine repository not configured")
		return
	}

	input := params.Input
	logger := s.loggerWith(ctx, "CreateRoutine",
		"principal_id", params.Principal.UserID,
		"room_id", input.RoomID,
		"day", input.Day,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create routine", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("routine_id", detail.ID).InfoContext(ctx, "routine created")
	}()

	if !params.Principal.CanManageRoutines() {
		err = ErrUnauthorized
		return
	}

	day, interval, vErr := validateRoutineInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	courseID := strings.TrimSpace(input.CourseID)
	sectionID := strings.TrimSpace(input.SectionID)
	roomID := strings.TrimSpace(input.RoomID)

	if err = s.ensureReferences(ctx, courseID, sectionID, roomID); err != nil {
		return
	}

	var unlock func()
	unlock, err = s.locker.Lock(ctx, roomLockKey(roomID))
	if err != nil {
		err = fmt.Errorf("failed to lock room %s: %w", roomID, err)
		return
	}
	defer unlock()

	createdAt := s.now()
	routine := Routine{
		ID:        s.idGenerator(),
		Day:       day,
		Interval:  interval,
		ClassType: strings.TrimSpace(input.ClassType),
		Teacher:   strings.TrimSpace(input.Teacher),
		CourseID:  courseID,
		SectionID: sectionID,
		RoomID:    roomID,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.ensureNoConflict(ctx, routine.Slot()); err != nil {
			return err
		}
		if err := s.routines.CreateRoutine(ctx, routine); err != nil {
			return err
		}
		var err error
		detail, err = s.routines.GetRoutine(ctx, routine.ID)
		return err
	})
	if err != nil {
		err = s.mapWriteError(ctx, err, courseID, sectionID, roomID)
		return
	}
	return
}

// UpdateRoutine merges the supplied fields into the stored routine. When the
// day, times or room change the merged routine is checked for overlaps,
// ignoring itself.
func (s *RoutineService) UpdateRoutine(ctx context.Context, params UpdateRoutineParams) (detail RoutineDetail, err error) {
	if s == nil {
		err = fmt.Errorf("RoutineService is nil")
		return
	}
	if s.routines == nil {
		err = fmt.Errorf("routine repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateRoutine",
		"principal_id", params.Principal.UserID,
		"routine_id", params.RoutineID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update routine", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("room_id", detail.RoomID).InfoContext(ctx, "routine updated")
	}()

	if !params.Principal.CanManageRoutines() {
		err = ErrUnauthorized
		return
	}

	var existing RoutineDetail
	existing, err = s.routines.GetRoutine(ctx, params.RoutineID)
	if err != nil {
		err = mapRoutineRepoError(err)
		return
	}

	patch := params.Patch
	vErr := validateStruct(patch)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	courseID := trimmedOrEmpty(patch.CourseID)
	sectionID := trimmedOrEmpty(patch.SectionID)
	roomID := trimmedOrEmpty(patch.RoomID)

	if err = s.ensureReferences(ctx, courseID, sectionID, roomID); err != nil {
		return
	}

	var unlock func()
	unlock, err = s.locker.Lock(ctx, roomLockKey(existing.RoomID), roomLockKey(roomID))
	if err != nil {
		err = fmt.Errorf("failed to lock rooms: %w", err)
		return
	}
	defer unlock()

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.routines.GetRoutine(ctx, params.RoutineID)
		if err != nil {
			return err
		}

		updated, vErr := mergeRoutinePatch(current.Routine, patch)
		if vErr.HasErrors() {
			return vErr
		}
		updated.UpdatedAt = s.now()

		if schedulingChanged(current.Routine, updated) {
			if err := s.ensureNoConflict(ctx, updated.Slot()); err != nil {
				return err
			}
		}
		if err := s.routines.UpdateRoutine(ctx, updated); err != nil {
			return err
		}
		detail, err = s.routines.GetRoutine(ctx, updated.ID)
		return err
	})
	if err != nil {
		err = s.mapWriteError(ctx, err, courseID, sectionID, roomID)
		return
	}
	return
}

// DeleteRoutine removes a routine and returns it as it was. Room statuses that
// reference the routine are left in place.
func (s *RoutineService) DeleteRoutine(ctx context.Context, principal Principal, routineID string) (deleted RoutineDetail, err error) {
	if s == nil {
		err = fmt.Errorf("RoutineService is nil")
		return
	}
	if s.routines == nil {
		err = fmt.Errorf("routine repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "DeleteRoutine",
		"principal_id", principal.UserID,
		"routine_id", routineID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete routine", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "routine deleted")
	}()

	if !principal.CanManageRoutines() {
		err = ErrUnauthorized
		return
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = s.routines.GetRoutine(ctx, routineID)
		if err != nil {
			return err
		}
		return s.routines.DeleteRoutine(ctx, routineID)
	})
	if err != nil {
		err = mapRoutineRepoError(err)
		return
	}
	return
}

// GetRoutine returns a single routine with its catalog display fields.
func (s *RoutineService) GetRoutine(ctx context.Context, routineID string) (RoutineDetail, error) {
	if s == nil {
		return RoutineDetail{}, fmt.Errorf("RoutineService is nil")
	}
	if s.routines == nil {
		return RoutineDetail{}, fmt.Errorf("routine repository not configured")
	}
	detail, err := s.routines.GetRoutine(ctx, routineID)
	if err != nil {
		return RoutineDetail{}, mapRoutineRepoError(err)
	}
	return detail, nil
}

// ListRoutines returns every routine, newest first.
func (s *RoutineService) ListRoutines(ctx context.Context) ([]RoutineDetail, error) {
	return s.list(ctx, "ListRoutines", RoutineQuery{Order: OrderNewestFirst})
}

// ListRoutinesByDay returns the routines held on day, matched without regard
// to case, ordered by start time and then room number.
func (s *RoutineService) ListRoutinesByDay(ctx context.Context, day string) ([]RoutineDetail, error) {
	weekday, err := scheduler.ParseWeekday(day)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("day", "day must be a weekday name")
		return nil, vErr
	}
	return s.list(ctx, "ListRoutinesByDay", RoutineQuery{Day: weekday, Order: OrderStartThenRoom})
}

// ListRoutinesByTeacher returns routines whose teacher contains the given
// text, ignoring case, ordered by weekday and then start time.
func (s *RoutineService) ListRoutinesByTeacher(ctx context.Context, teacher string) ([]RoutineDetail, error) {
	teacher = strings.TrimSpace(teacher)
	if teacher == "" {
		vErr := &ValidationError{}
		vErr.add("teacher", "teacher is required")
		return nil, vErr
	}
	return s.list(ctx, "ListRoutinesByTeacher", RoutineQuery{Teacher: teacher, Order: OrderDayThenStart})
}

func (s *RoutineService) list(ctx context.Context, operation string, query RoutineQuery) (routines []RoutineDetail, err error) {
	if s == nil {
		err = fmt.Errorf("RoutineService is nil")
		return
	}
	if s.routines == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, operation)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list routines", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(routines)).DebugContext(ctx, "routines listed")
	}()

	routines, err = s.routines.ListRoutines(ctx, query)
	if err != nil {
		err = mapRoutineRepoError(err)
		return
	}
	if routines == nil {
		routines = []RoutineDetail{}
	}
	return
}

// ensureNoConflict scans the routines of the slot's room and day. It must run
// inside the transaction that performs the write.
func (s *RoutineService) ensureNoConflict(ctx context.Context, candidate scheduler.Slot) error {
	existing, err := s.routines.ListRoutines(ctx, RoutineQuery{RoomID: candidate.RoomID, Day: candidate.Day})
	if err != nil {
		return fmt.Errorf("failed to load routines for conflict check: %w", err)
	}

	slots := make([]scheduler.Slot, 0, len(existing))
	for _, routine := range existing {
		slots = append(slots, routine.Slot())
	}

	if clash, found := scheduler.FindConflict(slots, candidate); found {
		return &ConflictError{Message: routineConflictMessage, ConflictingID: clash.ID}
	}
	return nil
}

func (s *RoutineService) ensureReferences(ctx context.Context, courseID, sectionID, roomID string) error {
	if s.catalog == nil {
		return nil
	}
	return checkReferences(ctx,
		existenceCheck{entity: "course", id: courseID, exists: s.catalog.CourseExists},
		existenceCheck{entity: "section", id: sectionID, exists: s.catalog.SectionExists},
		existenceCheck{entity: "room", id: roomID, exists: s.catalog.RoomExists},
	)
}

// mapWriteError translates errors raised by a routine write. A foreign key
// failure means a referenced entity vanished after the pre-write checks, so
// the checks are repeated to name it.
func (s *RoutineService) mapWriteError(ctx context.Context, err error, courseID, sectionID, roomID string) error {
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		if refErr := s.ensureReferences(ctx, courseID, sectionID, roomID); refErr != nil {
			return refErr
		}
	}
	return mapRoutineRepoError(err)
}

func validateRoutineInput(input RoutineInput) (scheduler.Weekday, scheduler.Interval, *ValidationError) {
	vErr := validateStruct(input)

	day, _ := scheduler.ParseWeekday(input.Day)

	var interval scheduler.Interval
	start, startErr := scheduler.ParseTimeOfDay(input.StartTime)
	end, endErr := scheduler.ParseTimeOfDay(input.EndTime)
	if startErr == nil && endErr == nil {
		var err error
		if interval, err = scheduler.NewInterval(start, end); err != nil {
			vErr.add("end_time", "end_time must be after start_time")
		}
	}
	return day, interval, vErr
}

// mergeRoutinePatch applies the supplied fields to current. The patch must
// already have passed tag validation.
func mergeRoutinePatch(current Routine, patch RoutinePatch) (Routine, *ValidationError) {
	vErr := &ValidationError{}
	updated := current

	if patch.Day != nil {
		updated.Day, _ = scheduler.ParseWeekday(*patch.Day)
	}

	start, end := current.Interval.Start, current.Interval.End
	if patch.StartTime != nil {
		start, _ = scheduler.ParseTimeOfDay(*patch.StartTime)
	}
	if patch.EndTime != nil {
		end, _ = scheduler.ParseTimeOfDay(*patch.EndTime)
	}
	interval, err := scheduler.NewInterval(start, end)
	if err != nil {
		vErr.add("end_time", "end_time must be after start_time")
		return current, vErr
	}
	updated.Interval = interval

	if patch.ClassType != nil {
		updated.ClassType = strings.TrimSpace(*patch.ClassType)
	}
	if patch.Teacher != nil {
		updated.Teacher = strings.TrimSpace(*patch.Teacher)
	}
	if patch.CourseID != nil {
		updated.CourseID = strings.TrimSpace(*patch.CourseID)
	}
	if patch.SectionID != nil {
		updated.SectionID = strings.TrimSpace(*patch.SectionID)
	}
	if patch.RoomID != nil {
		updated.RoomID = strings.TrimSpace(*patch.RoomID)
	}
	return updated, vErr
}

func schedulingChanged(before, after Routine) bool {
	return !before.Day.Equal(after.Day) ||
		before.Interval != after.Interval ||
		before.RoomID != after.RoomID
}

func mapRoutineRepoError(err error) error {
	if err == nil {
		return nil
	}

	var (
		nf       *NotFoundError
		conflict *ConflictError
		vErr     *ValidationError
	)
	switch {
	case errors.As(err, &nf), errors.As(err, &conflict), errors.As(err, &vErr):
		return err
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return notFound("routine")
	case errors.Is(err, persistence.ErrConstraintViolation):
		constraintErr := &ValidationError{}
		constraintErr.add("routine", "routine violates a storage constraint")
		return constraintErr
	}
	return err
}

func trimmedOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
