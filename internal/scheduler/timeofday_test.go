package scheduler

import (
	"errors"
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	valid := map[string]TimeOfDay{
		"00:00": 0,
		"09:05": 9*60 + 5,
		"10:30": 10*60 + 30,
		"23:59": 23*60 + 59,
	}
	for input, want := range valid {
		got, err := ParseTimeOfDay(input)
		if err != nil {
			t.Fatalf("ParseTimeOfDay(%q) returned error: %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseTimeOfDay(%q) = %d, want %d", input, got, want)
		}
		if got.String() != input {
			t.Fatalf("expected %q to render back unchanged, got %q", input, got.String())
		}
	}

	for _, input := range []string{"", "9:00", "09:0", "24:00", "12:60", "ab:cd", "09-00", "09:00:00", " 09:00"} {
		if _, err := ParseTimeOfDay(input); !errors.Is(err, ErrInvalidTimeOfDay) {
			t.Fatalf("expected ErrInvalidTimeOfDay for %q, got %v", input, err)
		}
	}
}

func TestTimeOfDayFromClock(t *testing.T) {
	clock := time.Date(2025, time.March, 3, 14, 45, 59, 0, time.UTC)
	if got := TimeOfDayFromClock(clock); got.String() != "14:45" {
		t.Fatalf("expected 14:45, got %s", got)
	}
}

func TestInterval(t *testing.T) {
	t.Run("rejects empty and inverted ranges", func(t *testing.T) {
		if _, err := ParseInterval("10:00", "10:00"); !errors.Is(err, ErrEmptyInterval) {
			t.Fatalf("expected ErrEmptyInterval, got %v", err)
		}
		if _, err := ParseInterval("11:00", "10:00"); !errors.Is(err, ErrEmptyInterval) {
			t.Fatalf("expected ErrEmptyInterval, got %v", err)
		}
		if _, err := ParseInterval("10:00", "1100"); !errors.Is(err, ErrInvalidTimeOfDay) {
			t.Fatalf("expected ErrInvalidTimeOfDay, got %v", err)
		}
	})

	t.Run("overlap is symmetric and excludes touching endpoints", func(t *testing.T) {
		cases := []struct {
			a, b [2]string
			want bool
		}{
			{[2]string{"09:00", "10:30"}, [2]string{"10:30", "12:00"}, false},
			{[2]string{"09:00", "10:30"}, [2]string{"10:00", "11:00"}, true},
			{[2]string{"09:00", "12:00"}, [2]string{"10:00", "11:00"}, true},
			{[2]string{"09:00", "10:00"}, [2]string{"09:00", "10:00"}, true},
			{[2]string{"08:00", "09:00"}, [2]string{"13:00", "14:00"}, false},
		}
		for _, tc := range cases {
			a, err := ParseInterval(tc.a[0], tc.a[1])
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			b, err := ParseInterval(tc.b[0], tc.b[1])
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := a.Overlaps(b); got != tc.want {
				t.Fatalf("%s overlaps %s = %v, want %v", a, b, got, tc.want)
			}
			if got := b.Overlaps(a); got != tc.want {
				t.Fatalf("%s overlaps %s = %v, want %v", b, a, got, tc.want)
			}
		}
	})

	t.Run("contains is half-open", func(t *testing.T) {
		interval, _ := ParseInterval("09:00", "10:00")
		if !interval.Contains(MustParseTimeOfDay("09:00")) {
			t.Fatalf("expected start to be contained")
		}
		if interval.Contains(MustParseTimeOfDay("10:00")) {
			t.Fatalf("expected end to be excluded")
		}
	})
}
