package scheduler

import (
	"errors"
	"testing"
	"time"
)

func slot(id, room string, day Weekday, start, end string) Slot {
	interval, err := ParseInterval(start, end)
	if err != nil {
		panic(err)
	}
	return Slot{ID: id, RoomID: room, Day: day, Interval: interval}
}

func TestParseWeekday(t *testing.T) {
	for _, input := range []string{"monday", "Monday", "MONDAY", "  mOnDaY "} {
		day, err := ParseWeekday(input)
		if err != nil {
			t.Fatalf("ParseWeekday(%q) returned error: %v", input, err)
		}
		if day != Monday {
			t.Fatalf("ParseWeekday(%q) = %q, want Monday", input, day)
		}
	}
	if _, err := ParseWeekday("Funday"); !errors.Is(err, ErrInvalidWeekday) {
		t.Fatalf("expected ErrInvalidWeekday, got %v", err)
	}
	if Sunday.Index() != 6 || Monday.Index() != 0 {
		t.Fatalf("expected Monday-first ordering")
	}
	if got := WeekdayOf(time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC)); got != Sunday {
		t.Fatalf("expected Sunday, got %s", got)
	}
}

func TestDetectConflicts(t *testing.T) {
	existing := []Slot{
		slot("r1", "room-a", Monday, "09:00", "10:30"),
		slot("r2", "room-b", Monday, "10:00", "11:00"),
		slot("r3", "room-a", Tuesday, "10:00", "11:00"),
	}

	t.Run("room overlap produces conflict", func(t *testing.T) {
		got, found := FindConflict(existing, slot("", "room-a", Monday, "10:00", "11:00"))
		if !found {
			t.Fatalf("expected conflict")
		}
		if got.ID != "r1" {
			t.Fatalf("expected conflict with r1, got %q", got.ID)
		}
	})

	t.Run("back-to-back sessions do not conflict", func(t *testing.T) {
		if HasConflict(existing, slot("", "room-a", Monday, "10:30", "12:00")) {
			t.Fatalf("expected no conflict for adjacent interval")
		}
	})

	t.Run("other rooms and days are ignored", func(t *testing.T) {
		if HasConflict(existing, slot("", "room-c", Monday, "09:00", "12:00")) {
			t.Fatalf("expected no conflict in another room")
		}
		if HasConflict(existing, slot("", "room-b", Tuesday, "10:00", "11:00")) {
			t.Fatalf("expected no conflict on another day")
		}
	})

	t.Run("day comparison ignores case", func(t *testing.T) {
		legacy := []Slot{{ID: "old", RoomID: "room-a", Day: Weekday("monday"), Interval: existing[0].Interval}}
		if !HasConflict(legacy, slot("", "room-a", Monday, "09:30", "09:45")) {
			t.Fatalf("expected conflict against lower-case stored day")
		}
	})

	t.Run("candidate id is excluded", func(t *testing.T) {
		if HasConflict(existing, slot("r1", "room-a", Monday, "09:00", "10:45")) {
			t.Fatalf("expected the routine being updated to be ignored")
		}
	})

	t.Run("empty schedule yields no conflicts", func(t *testing.T) {
		if HasConflict(nil, slot("", "room-a", Monday, "09:00", "10:00")) {
			t.Fatalf("expected no conflict against empty schedule")
		}
	})
}
