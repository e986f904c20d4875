package reservation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidSlot(t *testing.T) {
	day := time.Date(2030, 5, 21, 0, 0, 0, 0, time.UTC)

	for _, h := range VisitHours {
		assert.True(t, ValidSlot(day.Add(time.Duration(h)*time.Hour)), "hour %d", h)
	}
	assert.False(t, ValidSlot(day.Add(12*time.Hour)), "lunch break is not bookable")
	assert.False(t, ValidSlot(day.Add(9*time.Hour+30*time.Minute)), "half hours are off grid")
	assert.False(t, ValidSlot(day.Add(9*time.Hour+time.Second)))
}

func TestValidSlotNormalizesZone(t *testing.T) {
	cet := time.FixedZone("CET", 3600)
	// 10:00 CET is 09:00 UTC, which is a visiting hour.
	assert.True(t, ValidSlot(time.Date(2030, 5, 21, 10, 0, 0, 0, cet)))
}

func TestDaySlots(t *testing.T) {
	day := time.Date(2030, 5, 21, 13, 45, 0, 0, time.UTC)
	slots := DaySlots(day)
	assert.Len(t, slots, len(VisitHours))
	for i, h := range VisitHours {
		assert.Equal(t, h, slots[i].Hour())
		assert.Equal(t, day.Day(), slots[i].Day())
	}
}

func TestFreeSlots(t *testing.T) {
	day := time.Date(2030, 5, 21, 0, 0, 0, 0, time.UTC)
	taken := []time.Time{day.Add(10 * time.Hour)}

	// Mid-morning: 09:00 is past, 10:00 is taken.
	now := day.Add(9*time.Hour + 30*time.Minute)
	free := FreeSlots(day, taken, now)
	assert.Len(t, free, len(VisitHours)-2)
	for _, slot := range free {
		assert.True(t, slot.After(now))
		assert.NotEqual(t, 10, slot.Hour())
	}

	// After closing, nothing remains.
	assert.Empty(t, FreeSlots(day, nil, day.Add(17*time.Hour)))
}
