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

// RoomStatusService records manual room status overrides and answers what
// state a room is in at a given instant.
type RoomStatusService struct {
	statuses    RoomStatusRepository
	routines    RoutineRepository
	catalog     Catalog
	users       UserDirectory
	policy      StatusPolicy
	tx          Transactor
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewRoomStatusService wires dependencies for room status operations. A nil
// policy allows every status.
func NewRoomStatusService(statuses RoomStatusRepository, routines RoutineRepository, catalog Catalog, users UserDirectory, policy StatusPolicy, tx Transactor, idGenerator func() string, now func() time.Time) *RoomStatusService {
	return NewRoomStatusServiceWithLogger(statuses, routines, catalog, users, policy, tx, idGenerator, now, nil)
}

// NewRoomStatusServiceWithLogger wires dependencies with a specified logger.
func NewRoomStatusServiceWithLogger(statuses RoomStatusRepository, routines RoutineRepository, catalog Catalog, users UserDirectory, policy StatusPolicy, tx Transactor, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RoomStatusService {
	if policy == nil {
		policy = AllowAllStatuses{}
	}
	if tx == nil {
		tx = noopTransactor{}
	}
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return &RoomStatusService{
		statuses:    statuses,
		routines:    routines,
		catalog:     catalog,
		users:       users,
		policy:      policy,
		tx:          tx,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *RoomStatusService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomStatusService", operation, attrs...)
}

// SetStatus appends a status record for a room.
func (s *RoomStatusService) SetStatus(ctx context.Context, params SetStatusParams) (detail RoomStatusDetail, err error) {
	if s == nil {
		err = fmt.Errorf("RoomStatusService is nil")
		return
	}
	if s.statuses == nil {
		err = fmt.Errorf("room status repository not configured")
		return
	}

	input := params.Input
	logger := s.loggerWith(ctx, "SetStatus",
		"principal_id", params.Principal.UserID,
		"room_id", input.RoomID,
		"status", input.Status,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to set room status", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("room_status_id", detail.ID).InfoContext(ctx, "room status set")
	}()

	vErr := validateStruct(input)
	window := validateWindow(input.StartTime, input.EndTime, vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	status := StatusValue(input.Status)
	if !s.policy.CanSetStatus(params.Principal, status) {
		err = ErrUnauthorized
		return
	}

	updatedBy := strings.TrimSpace(input.UpdatedBy)
	if updatedBy == "" {
		updatedBy = params.Principal.UserID
	}
	if updatedBy == "" {
		missing := &ValidationError{}
		missing.add("updated_by", "updated_by is required")
		err = missing
		return
	}

	record := RoomStatus{
		ID:          s.idGenerator(),
		RoomID:      strings.TrimSpace(input.RoomID),
		Status:      status,
		RoutineID:   trimmedOrNil(input.RoutineID),
		DayOfWeek:   weekdayOrNil(input.DayOfWeek),
		Window:      window,
		IsRecurring: input.IsRecurring,
		UpdatedBy:   updatedBy,
	}
	record.StatusDate, _ = time.Parse(dateLayout, input.StatusDate)
	record.CreatedAt = s.now()
	record.UpdatedAt = record.CreatedAt

	if err = s.ensureReferences(ctx, record.RoomID, record.UpdatedBy, valueOrEmpty(record.RoutineID)); err != nil {
		return
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.statuses.CreateRoomStatus(ctx, record); err != nil {
			return err
		}
		var err error
		detail, err = s.statuses.GetRoomStatus(ctx, record.ID)
		return err
	})
	if err != nil {
		err = s.mapWriteError(ctx, err, record.RoomID, record.UpdatedBy)
		return
	}
	return
}

// UpdateStatus merges the supplied fields into a stored record and refreshes
// its update time.
func (s *RoomStatusService) UpdateStatus(ctx context.Context, params UpdateStatusParams) (detail RoomStatusDetail, err error) {
	if s == nil {
		err = fmt.Errorf("RoomStatusService is nil")
		return
	}
	if s.statuses == nil {
		err = fmt.Errorf("room status repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateStatus",
		"principal_id", params.Principal.UserID,
		"room_status_id", params.StatusID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update room status", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("status", detail.Status).InfoContext(ctx, "room status updated")
	}()

	var existing RoomStatusDetail
	existing, err = s.statuses.GetRoomStatus(ctx, params.StatusID)
	if err != nil {
		err = mapStatusRepoError(err)
		return
	}

	patch := params.Patch
	vErr := validateStruct(patch)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	updated, vErr := mergeStatusPatch(existing.RoomStatus, patch)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	// Editing a record amounts to setting both its old and its new status.
	if !s.policy.CanSetStatus(params.Principal, existing.Status) || !s.policy.CanSetStatus(params.Principal, updated.Status) {
		err = ErrUnauthorized
		return
	}

	var roomID, updatedBy, routineID string
	if updated.RoomID != existing.RoomID {
		roomID = updated.RoomID
	}
	if updated.UpdatedBy != existing.UpdatedBy {
		updatedBy = updated.UpdatedBy
	}
	if patch.RoutineID != nil && valueOrEmpty(updated.RoutineID) != valueOrEmpty(existing.RoutineID) {
		routineID = valueOrEmpty(updated.RoutineID)
	}
	if err = s.ensureReferences(ctx, roomID, updatedBy, routineID); err != nil {
		return
	}

	updated.UpdatedAt = s.now()

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.statuses.UpdateRoomStatus(ctx, updated); err != nil {
			return err
		}
		var err error
		detail, err = s.statuses.GetRoomStatus(ctx, updated.ID)
		return err
	})
	if err != nil {
		err = s.mapWriteError(ctx, err, updated.RoomID, updated.UpdatedBy)
		return
	}
	return
}

// DeleteStatus removes one status record and returns it. The caller must be
// allowed to set the status the record carries.
func (s *RoomStatusService) DeleteStatus(ctx context.Context, principal Principal, statusID string) (deleted RoomStatusDetail, err error) {
	if s == nil {
		err = fmt.Errorf("RoomStatusService is nil")
		return
	}
	if s.statuses == nil {
		err = fmt.Errorf("room status repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "DeleteStatus",
		"principal_id", principal.UserID,
		"room_status_id", statusID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete room status", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("status", deleted.Status).InfoContext(ctx, "room status deleted")
	}()

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.statuses.GetRoomStatus(ctx, statusID)
		if err != nil {
			return mapStatusRepoError(err)
		}
		if !s.policy.CanSetStatus(principal, existing.Status) {
			return ErrUnauthorized
		}
		if err := s.statuses.DeleteRoomStatus(ctx, statusID); err != nil {
			return mapStatusRepoError(err)
		}
		deleted = existing
		return nil
	})
	if err != nil {
		deleted = RoomStatusDetail{}
	}
	return
}

// ListStatuses returns every status record, most recently updated first.
func (s *RoomStatusService) ListStatuses(ctx context.Context) (statuses []RoomStatusDetail, err error) {
	if s == nil {
		err = fmt.Errorf("RoomStatusService is nil")
		return
	}
	if s.statuses == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListStatuses")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list room statuses", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(statuses)).DebugContext(ctx, "room statuses listed")
	}()

	statuses, err = s.statuses.ListRoomStatuses(ctx, "")
	if err != nil {
		err = mapStatusRepoError(err)
		return
	}
	if statuses == nil {
		statuses = []RoomStatusDetail{}
	}
	return
}

// CurrentStatus reports the effective state of a room at instant at. The most
// recently updated override that applies wins; without one the state follows
// the weekly schedule.
func (s *RoomStatusService) CurrentStatus(ctx context.Context, roomID string, at time.Time) (occupancy RoomOccupancy, err error) {
	if s == nil {
		err = fmt.Errorf("RoomStatusService is nil")
		return
	}
	if s.statuses == nil || s.routines == nil {
		err = fmt.Errorf("room status repositories not configured")
		return
	}

	logger := s.loggerWith(ctx, "CurrentStatus", "room_id", roomID, "at", at)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to resolve room status", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("status", occupancy.Status, "source", occupancy.Source).DebugContext(ctx, "room status resolved")
	}()

	if s.catalog != nil {
		if err = checkReferences(ctx, existenceCheck{entity: "room", id: roomID, exists: s.catalog.RoomExists}); err != nil {
			return
		}
	}

	occupancy = RoomOccupancy{RoomID: roomID, At: at}

	var overrides []RoomStatusDetail
	overrides, err = s.statuses.ListRoomStatuses(ctx, roomID)
	if err != nil {
		err = mapStatusRepoError(err)
		return
	}
	for i := range overrides {
		if overrides[i].AppliesAt(at) {
			occupancy.Status = overrides[i].Status
			occupancy.Source = SourceOverride
			occupancy.Override = &overrides[i]
			return
		}
	}

	var routines []RoutineDetail
	routines, err = s.routines.ListRoutines(ctx, RoutineQuery{RoomID: roomID, Day: scheduler.WeekdayOf(at), Order: OrderStartThenRoom})
	if err != nil {
		err = mapRoutineRepoError(err)
		return
	}

	occupancy.Source = SourceSchedule
	occupancy.Status = StatusFree
	clock := scheduler.TimeOfDayFromClock(at)
	for i := range routines {
		if routines[i].Interval.Contains(clock) {
			occupancy.Status = StatusOccupied
			occupancy.Routine = &routines[i]
			break
		}
	}
	return
}

// ensureReferences checks room, updater and routine in that order. Empty ids
// are skipped.
func (s *RoomStatusService) ensureReferences(ctx context.Context, roomID, userID, routineID string) error {
	var checks []existenceCheck
	if s.catalog != nil {
		checks = append(checks, existenceCheck{entity: "room", id: roomID, exists: s.catalog.RoomExists})
	}
	if s.users != nil {
		checks = append(checks, existenceCheck{entity: "user", id: userID, exists: s.users.UserExists})
	}
	if s.routines != nil {
		checks = append(checks, existenceCheck{entity: "routine", id: routineID, exists: s.routineExists})
	}
	return checkReferences(ctx, checks...)
}

func (s *RoomStatusService) routineExists(ctx context.Context, id string) (bool, error) {
	_, err := s.routines.GetRoutine(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *RoomStatusService) mapWriteError(ctx context.Context, err error, roomID, userID string) error {
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		if refErr := s.ensureReferences(ctx, roomID, userID, ""); refErr != nil {
			return refErr
		}
	}
	return mapStatusRepoError(err)
}

// mergeStatusPatch applies the supplied fields to current. A window is
// replaced as a whole, so a patch naming only one bound is combined with the
// stored other bound.
func mergeStatusPatch(current RoomStatus, patch StatusPatch) (RoomStatus, *ValidationError) {
	vErr := &ValidationError{}
	updated := current

	if patch.RoomID != nil {
		updated.RoomID = strings.TrimSpace(*patch.RoomID)
	}
	if patch.Status != nil {
		updated.Status = StatusValue(*patch.Status)
	}
	if patch.StatusDate != nil {
		updated.StatusDate, _ = time.Parse(dateLayout, *patch.StatusDate)
	}
	if patch.RoutineID != nil {
		updated.RoutineID = trimmedOrNil(patch.RoutineID)
	}
	if patch.DayOfWeek != nil {
		updated.DayOfWeek = weekdayOrNil(patch.DayOfWeek)
	}
	if patch.IsRecurring != nil {
		updated.IsRecurring = *patch.IsRecurring
	}
	if patch.UpdatedBy != nil {
		updated.UpdatedBy = strings.TrimSpace(*patch.UpdatedBy)
	}

	if patch.StartTime != nil || patch.EndTime != nil {
		start, end := patch.StartTime, patch.EndTime
		if current.Window != nil {
			if start == nil {
				s := current.Window.Start.String()
				start = &s
			}
			if end == nil {
				e := current.Window.End.String()
				end = &e
			}
		}
		updated.Window = validateWindow(start, end, vErr)
	}
	return updated, vErr
}

func mapStatusRepoError(err error) error {
	if err == nil {
		return nil
	}

	var (
		nf   *NotFoundError
		vErr *ValidationError
	)
	switch {
	case errors.As(err, &nf), errors.As(err, &vErr):
		return err
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return notFound("room_status")
	case errors.Is(err, persistence.ErrConstraintViolation):
		constraintErr := &ValidationError{}
		constraintErr.add("room_status", "room status violates a storage constraint")
		return constraintErr
	}
	return err
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func weekdayOrNil(value *string) *scheduler.Weekday {
	if value == nil {
		return nil
	}
	day, err := scheduler.ParseWeekday(*value)
	if err != nil {
		return nil
	}
	return &day
}

func valueOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
