package reservation

import "time"

// VisitHours are the fixed hours of day (UTC) at which visits can be booked.
var VisitHours = []int{9, 10, 11, 14, 15, 16}

// ValidSlot reports whether the timestamp falls exactly on a visiting hour.
func ValidSlot(slot time.Time) bool {
	slot = slot.UTC()
	if slot.Minute() != 0 || slot.Second() != 0 || slot.Nanosecond() != 0 {
		return false
	}
	for _, h := range VisitHours {
		if slot.Hour() == h {
			return true
		}
	}
	return false
}

// DaySlots returns every bookable slot on the given day, in order.
func DaySlots(day time.Time) []time.Time {
	day = day.UTC()
	slots := make([]time.Time, 0, len(VisitHours))
	for _, h := range VisitHours {
		slots = append(slots, time.Date(day.Year(), day.Month(), day.Day(), h, 0, 0, 0, time.UTC))
	}
	return slots
}

// FreeSlots filters a day's slots down to the ones neither taken nor in the
// past.
func FreeSlots(day time.Time, taken []time.Time, now time.Time) []time.Time {
	occupied := make(map[time.Time]struct{}, len(taken))
	for _, t := range taken {
		occupied[t.UTC()] = struct{}{}
	}
	now = now.UTC()
	free := make([]time.Time, 0, len(VisitHours))
	for _, slot := range DaySlots(day) {
		if !slot.After(now) {
			continue
		}
		if _, ok := occupied[slot]; ok {
			continue
		}
		free = append(free, slot)
	}
	return free
}
