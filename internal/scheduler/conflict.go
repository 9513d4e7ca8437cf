package scheduler

// Slot is the part of a routine that matters for room occupancy.
type Slot struct {
	ID       string
	RoomID   string
	Day      Weekday
	Interval Interval
}

// Collides reports whether two distinct slots occupy the same room at the same time.
func (s Slot) Collides(other Slot) bool {
	if s.ID != "" && s.ID == other.ID {
		return false
	}
	if s.RoomID != other.RoomID || !s.Day.Equal(other.Day) {
		return false
	}
	return s.Interval.Overlaps(other.Interval)
}

// FindConflict returns the first existing slot the candidate collides with.
// The candidate's own ID is skipped, which lets updates re-check themselves
// against the committed schedule.
func FindConflict(existing []Slot, candidate Slot) (Slot, bool) {
	for _, slot := range existing {
		if candidate.Collides(slot) {
			return slot, true
		}
	}
	return Slot{}, false
}

// HasConflict reports whether the candidate collides with any existing slot.
func HasConflict(existing []Slot, candidate Slot) bool {
	_, found := FindConflict(existing, candidate)
	return found
}
