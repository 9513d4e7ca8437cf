package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/classroom-scheduler/internal/scheduler"
)

func newStatusService(store *memStore, policy StatusPolicy, now func() time.Time) *RoomStatusService {
	return NewRoomStatusService(store, store, store, store, policy, nil, sequentialIDs("status"), now)
}

func statusInput(room string, status StatusValue, date string) StatusInput {
	return StatusInput{RoomID: room, Status: string(status), StatusDate: date}
}

func TestRoomStatusService_SetStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("manual maintenance without a routine succeeds", func(t *testing.T) {
		store := newMemStore()
		svc := newStatusService(store, nil, steppingClock())

		detail, err := svc.SetStatus(ctx, SetStatusParams{
			Principal: adminPrincipal,
			Input:     statusInput("room-a", StatusMaintenance, "2025-03-03"),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if detail.Status != StatusMaintenance || detail.RoomNumber != "A101" || detail.RoomType != "lecture" {
			t.Fatalf("unexpected detail: %+v", detail)
		}
		if detail.UpdatedBy != "admin-1" || detail.UpdaterName != "Ada" {
			t.Fatalf("expected updater to default to the caller, got %+v", detail)
		}
		if detail.Kind() != OverrideOneOff {
			t.Fatalf("expected one-off override, got %s", detail.Kind())
		}
		if detail.Routine != nil {
			t.Fatalf("expected no routine summary")
		}
	})

	t.Run("unknown routine is not found", func(t *testing.T) {
		svc := newStatusService(newMemStore(), nil, steppingClock())
		input := statusInput("room-a", StatusOccupied, "2025-03-03")
		input.RoutineID = ptr("routine-404")

		_, err := svc.SetStatus(ctx, SetStatusParams{Principal: adminPrincipal, Input: input})

		var nf *NotFoundError
		if !errors.As(err, &nf) || nf.Entity != "routine" {
			t.Fatalf("expected routine not found, got %v", err)
		}
	})

	t.Run("unknown room and updater are not found", func(t *testing.T) {
		svc := newStatusService(newMemStore(), nil, steppingClock())

		input := statusInput("room-z", StatusFree, "2025-03-03")
		input.UpdatedBy = "ghost"
		_, err := svc.SetStatus(ctx, SetStatusParams{Principal: adminPrincipal, Input: input})
		var nf *NotFoundError
		if !errors.As(err, &nf) || nf.Entity != "room" {
			t.Fatalf("expected room not found, got %v", err)
		}

		input.RoomID = "room-a"
		_, err = svc.SetStatus(ctx, SetStatusParams{Principal: adminPrincipal, Input: input})
		if !errors.As(err, &nf) || nf.Entity != "user" {
			t.Fatalf("expected user not found, got %v", err)
		}
	})

	t.Run("validates status, date and window", func(t *testing.T) {
		svc := newStatusService(newMemStore(), nil, steppingClock())
		input := StatusInput{RoomID: "room-a", Status: "CLOSED", StatusDate: "03/03/2025", StartTime: ptr("09:00"), DayOfWeek: ptr("Blursday")}

		_, err := svc.SetStatus(ctx, SetStatusParams{Principal: adminPrincipal, Input: input})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"status", "status_date", "end_time", "day_of_week"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s error, got %v", field, vErr.FieldErrors)
			}
		}

		input = statusInput("room-a", StatusFree, "2025-03-03")
		input.StartTime, input.EndTime = ptr("11:00"), ptr("10:00")
		_, err = svc.SetStatus(ctx, SetStatusParams{Principal: adminPrincipal, Input: input})
		if ErrorKind(err) != "validation" {
			t.Fatalf("expected validation error for inverted window, got %v", err)
		}
	})

	t.Run("policy denies disallowed statuses", func(t *testing.T) {
		svc := newStatusService(newMemStore(), NewRolePolicy(), steppingClock())
		teacher := Principal{UserID: "teacher-1", Role: RoleTeacher}

		_, err := svc.SetStatus(ctx, SetStatusParams{Principal: teacher, Input: statusInput("room-a", StatusMaintenance, "2025-03-03")})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}

		if _, err := svc.SetStatus(ctx, SetStatusParams{Principal: teacher, Input: statusInput("room-a", StatusRescheduled, "2025-03-03")}); err != nil {
			t.Fatalf("expected teacher to reschedule, got %v", err)
		}
	})

	t.Run("history is additive", func(t *testing.T) {
		store := newMemStore()
		svc := newStatusService(store, nil, steppingClock())
		for _, status := range []StatusValue{StatusFree, StatusOccupied, StatusFree} {
			if _, err := svc.SetStatus(ctx, SetStatusParams{Principal: adminPrincipal, Input: statusInput("room-a", status, "2025-03-03")}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		listed, err := svc.ListStatuses(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(listed) != 3 {
			t.Fatalf("expected 3 records, got %d", len(listed))
		}
		if listed[0].ID != "status-3" {
			t.Fatalf("expected newest record first, got %s", listed[0].ID)
		}
	})
}

func TestRoomStatusService_RoutineDeletionKeepsStatus(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	routines := newRoutineService(store)
	statuses := newStatusService(store, nil, steppingClock())

	routine := mustCreate(t, routines, routineInput("Monday", "09:00", "10:00", "room-a"))

	input := statusInput("room-a", StatusOccupied, "2025-03-03")
	input.RoutineID = ptr(routine.ID)
	created, err := statuses.SetStatus(ctx, SetStatusParams{Principal: adminPrincipal, Input: input})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Routine == nil || created.Routine.ID != routine.ID {
		t.Fatalf("expected routine summary, got %+v", created.Routine)
	}

	if _, err := routines.DeleteRoutine(ctx, adminPrincipal, routine.ID); err != nil {
		t.Fatalf("expected delete to succeed, got %v", err)
	}

	listed, err := statuses.ListStatuses(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected the status to survive, got %d records", len(listed))
	}
	if listed[0].Routine != nil {
		t.Fatalf("expected a null routine summary, got %+v", listed[0].Routine)
	}
	if listed[0].RoutineID == nil || *listed[0].RoutineID != routine.ID {
		t.Fatalf("expected the dangling reference to be kept")
	}
}

func TestRoomStatusService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, policy StatusPolicy) (*RoomStatusService, RoomStatusDetail) {
		t.Helper()
		svc := newStatusService(newMemStore(), policy, steppingClock())
		input := statusInput("room-a", StatusOccupied, "2025-03-03")
		input.StartTime, input.EndTime = ptr("09:00"), ptr("10:00")
		created, err := svc.SetStatus(ctx, SetStatusParams{Principal: adminPrincipal, Input: input})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return svc, created
	}

	t.Run("merges supplied fields and refreshes updated_at", func(t *testing.T) {
		svc, created := setup(t, nil)

		updated, err := svc.UpdateStatus(ctx, UpdateStatusParams{
			Principal: adminPrincipal,
			StatusID:  created.ID,
			Patch:     StatusPatch{EndTime: ptr("11:00"), IsRecurring: ptr(true), DayOfWeek: ptr("wednesday")},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.Window == nil || *updated.Window != interval("09:00", "11:00") {
			t.Fatalf("expected window 09:00-11:00, got %v", updated.Window)
		}
		if updated.Kind() != OverrideRecurring || updated.DayOfWeek == nil || *updated.DayOfWeek != scheduler.Wednesday {
			t.Fatalf("expected recurring Wednesday override, got %+v", updated.RoomStatus)
		}
		if updated.Status != StatusOccupied || updated.RoomID != "room-a" {
			t.Fatalf("expected untouched fields to be kept, got %+v", updated.RoomStatus)
		}
		if !updated.UpdatedAt.After(created.UpdatedAt) {
			t.Fatalf("expected updated_at to be refreshed")
		}
	})

	t.Run("edits are checked against the policy", func(t *testing.T) {
		svc, created := setup(t, NewRolePolicy())
		teacher := Principal{UserID: "teacher-1", Role: RoleTeacher}

		_, err := svc.UpdateStatus(ctx, UpdateStatusParams{
			Principal: teacher,
			StatusID:  created.ID,
			Patch:     StatusPatch{Status: ptr(string(StatusMaintenance))},
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}

		if _, err := svc.UpdateStatus(ctx, UpdateStatusParams{
			Principal: teacher,
			StatusID:  created.ID,
			Patch:     StatusPatch{StatusDate: ptr("2025-03-04")},
		}); err != nil {
			t.Fatalf("expected a teacher to edit an occupied record, got %v", err)
		}
	})

	t.Run("a student cannot edit another caller's record", func(t *testing.T) {
		store := newMemStore()
		svc := newStatusService(store, NewRolePolicy(), steppingClock())
		created, err := svc.SetStatus(ctx, SetStatusParams{
			Principal: adminPrincipal,
			Input:     statusInput("room-a", StatusMaintenance, "2025-03-03"),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		student := Principal{UserID: "student-1", Role: RoleStudent}

		for name, patch := range map[string]StatusPatch{
			"room":   {RoomID: ptr("room-b")},
			"date":   {StatusDate: ptr("2025-03-04")},
			"window": {StartTime: ptr("09:00"), EndTime: ptr("10:00")},
		} {
			_, err := svc.UpdateStatus(ctx, UpdateStatusParams{Principal: student, StatusID: created.ID, Patch: patch})
			if !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("%s: expected ErrUnauthorized, got %v", name, err)
			}
		}

		stored, err := store.GetRoomStatus(ctx, created.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stored.RoomID != "room-a" || stored.Window != nil || !stored.StatusDate.Equal(created.StatusDate) {
			t.Fatalf("expected record to be unchanged, got %+v", stored.RoomStatus)
		}
	})

	t.Run("a teacher cannot clear a maintenance record", func(t *testing.T) {
		svc := newStatusService(newMemStore(), NewRolePolicy(), steppingClock())
		created, err := svc.SetStatus(ctx, SetStatusParams{
			Principal: adminPrincipal,
			Input:     statusInput("room-a", StatusMaintenance, "2025-03-03"),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err = svc.UpdateStatus(ctx, UpdateStatusParams{
			Principal: Principal{UserID: "teacher-1", Role: RoleTeacher},
			StatusID:  created.ID,
			Patch:     StatusPatch{Status: ptr(string(StatusFree))},
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("changed references are validated", func(t *testing.T) {
		svc, created := setup(t, nil)

		_, err := svc.UpdateStatus(ctx, UpdateStatusParams{
			Principal: adminPrincipal,
			StatusID:  created.ID,
			Patch:     StatusPatch{RoomID: ptr("room-z")},
		})
		var nf *NotFoundError
		if !errors.As(err, &nf) || nf.Entity != "room" {
			t.Fatalf("expected room not found, got %v", err)
		}

		_, err = svc.UpdateStatus(ctx, UpdateStatusParams{
			Principal: adminPrincipal,
			StatusID:  created.ID,
			Patch:     StatusPatch{RoutineID: ptr("routine-404")},
		})
		if !errors.As(err, &nf) || nf.Entity != "routine" {
			t.Fatalf("expected routine not found, got %v", err)
		}
	})

	t.Run("missing record", func(t *testing.T) {
		svc, _ := setup(t, nil)
		_, err := svc.UpdateStatus(ctx, UpdateStatusParams{Principal: adminPrincipal, StatusID: "nope"})
		var nf *NotFoundError
		if !errors.As(err, &nf) || nf.Entity != "room_status" {
			t.Fatalf("expected room_status not found, got %v", err)
		}
	})
}

func TestRoomStatusService_DeleteStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the deleted record", func(t *testing.T) {
		svc := newStatusService(newMemStore(), nil, steppingClock())
		created, err := svc.SetStatus(ctx, SetStatusParams{Principal: adminPrincipal, Input: statusInput("room-a", StatusFree, "2025-03-03")})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		deleted, err := svc.DeleteStatus(ctx, adminPrincipal, created.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if deleted.ID != created.ID || deleted.Status != StatusFree || deleted.RoomNumber != created.RoomNumber {
			t.Fatalf("expected the deleted record, got %+v", deleted)
		}
		if _, err := svc.DeleteStatus(ctx, adminPrincipal, created.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("callers need the policy for the record's status", func(t *testing.T) {
		store := newMemStore()
		svc := newStatusService(store, NewRolePolicy(), steppingClock())
		created, err := svc.SetStatus(ctx, SetStatusParams{Principal: adminPrincipal, Input: statusInput("room-a", StatusMaintenance, "2025-03-03")})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, caller := range []Principal{
			{UserID: "student-1", Role: RoleStudent},
			{UserID: "teacher-1", Role: RoleTeacher},
		} {
			if _, err := svc.DeleteStatus(ctx, caller, created.ID); !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("%s: expected ErrUnauthorized, got %v", caller.Role, err)
			}
		}
		if _, err := store.GetRoomStatus(ctx, created.ID); err != nil {
			t.Fatalf("expected record to survive, got %v", err)
		}

		if _, err := svc.DeleteStatus(ctx, adminPrincipal, created.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestRoomStatusService_CurrentStatus(t *testing.T) {
	ctx := context.Background()
	monday := func(clock string) time.Time {
		tod := scheduler.MustParseTimeOfDay(clock)
		return time.Date(2025, time.March, 3, int(tod)/60, int(tod)%60, 0, 0, time.UTC)
	}

	setup := func(t *testing.T) (*RoomStatusService, *RoutineService) {
		t.Helper()
		store := newMemStore()
		routines := newRoutineService(store)
		mustCreate(t, routines, routineInput("Monday", "09:00", "10:30", "room-a"))
		return newStatusService(store, nil, steppingClock()), routines
	}

	set := func(t *testing.T, svc *RoomStatusService, input StatusInput) {
		t.Helper()
		if _, err := svc.SetStatus(ctx, SetStatusParams{Principal: adminPrincipal, Input: input}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	t.Run("follows the schedule without overrides", func(t *testing.T) {
		svc, _ := setup(t)

		occupied, err := svc.CurrentStatus(ctx, "room-a", monday("09:30"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if occupied.Status != StatusOccupied || occupied.Source != SourceSchedule || occupied.Routine == nil {
			t.Fatalf("expected scheduled occupancy, got %+v", occupied)
		}

		free, err := svc.CurrentStatus(ctx, "room-a", monday("10:30"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if free.Status != StatusFree || free.Routine != nil {
			t.Fatalf("expected room to be free at the end boundary, got %+v", free)
		}
	})

	t.Run("one-off override applies on its date only", func(t *testing.T) {
		svc, _ := setup(t)
		set(t, svc, statusInput("room-a", StatusMaintenance, "2025-03-03"))

		got, err := svc.CurrentStatus(ctx, "room-a", monday("09:30"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != StatusMaintenance || got.Source != SourceOverride || got.Override == nil {
			t.Fatalf("expected maintenance override, got %+v", got)
		}

		nextWeek, err := svc.CurrentStatus(ctx, "room-a", monday("09:30").AddDate(0, 0, 7))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if nextWeek.Source != SourceSchedule || nextWeek.Status != StatusOccupied {
			t.Fatalf("expected schedule a week later, got %+v", nextWeek)
		}
	})

	t.Run("recurring override applies on its weekday within its window", func(t *testing.T) {
		svc, _ := setup(t)
		input := statusInput("room-a", StatusRescheduled, "2025-03-03")
		input.IsRecurring = true
		input.StartTime, input.EndTime = ptr("09:00"), ptr("09:45")
		set(t, svc, input)

		inWindow, err := svc.CurrentStatus(ctx, "room-a", monday("09:15").AddDate(0, 0, 14))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if inWindow.Status != StatusRescheduled {
			t.Fatalf("expected rescheduled two weeks later, got %+v", inWindow)
		}

		outside, err := svc.CurrentStatus(ctx, "room-a", monday("10:00").AddDate(0, 0, 14))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outside.Source != SourceSchedule {
			t.Fatalf("expected schedule outside the window, got %+v", outside)
		}

		before, err := svc.CurrentStatus(ctx, "room-a", monday("09:15").AddDate(0, 0, -7))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if before.Source != SourceSchedule {
			t.Fatalf("expected schedule before the status date, got %+v", before)
		}
	})

	t.Run("most recently updated override wins", func(t *testing.T) {
		svc, _ := setup(t)
		set(t, svc, statusInput("room-a", StatusMaintenance, "2025-03-03"))
		set(t, svc, statusInput("room-a", StatusFree, "2025-03-03"))

		got, err := svc.CurrentStatus(ctx, "room-a", monday("09:30"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != StatusFree {
			t.Fatalf("expected latest override, got %s", got.Status)
		}
	})

	t.Run("unknown room", func(t *testing.T) {
		svc, _ := setup(t)
		_, err := svc.CurrentStatus(ctx, "room-z", monday("09:30"))
		var nf *NotFoundError
		if !errors.As(err, &nf) || nf.Entity != "room" {
			t.Fatalf("expected room not found, got %v", err)
		}
	})
}

func TestRoomStatus_AppliesAt(t *testing.T) {
	date := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC) // Wednesday
	friday := scheduler.Friday

	recurring := RoomStatus{StatusDate: date, IsRecurring: true, DayOfWeek: &friday}
	if !recurring.AppliesAt(time.Date(2025, time.March, 7, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected recurring Friday override to apply on Friday")
	}
	if recurring.AppliesAt(time.Date(2025, time.March, 12, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected recurring Friday override not to apply on Wednesday")
	}

	defaulted := RoomStatus{StatusDate: date, IsRecurring: true}
	if !defaulted.AppliesAt(time.Date(2025, time.March, 12, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected weekday to default to the status date's weekday")
	}
}
