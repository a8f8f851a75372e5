package booking

import "time"

const (
	DefaultDays      = 7
	defaultFirstHour = 5
	defaultLastHour  = 23
	dailyFirstHour   = 6
	dailyLastHour    = 22
)

// GenerateDefaultSlots lays out one-hour slots from 05:00 to 23:00 for the seven days
// starting at today's date, in today's location. Nothing is persisted.
func GenerateDefaultSlots(venue Venue, today time.Time) []Slot {
	y, m, d := today.Date()
	slots := make([]Slot, 0, DefaultDays*(defaultLastHour-defaultFirstHour))
	for day := 0; day < DefaultDays; day++ {
		date := time.Date(y, m, d+day, 0, 0, 0, 0, today.Location())
		slots = append(slots, hourlySlots(venue, date, defaultFirstHour, defaultLastHour)...)
	}
	return slots
}

// DailyTemplate is the fixed 16-slot day (06:00 to 22:00) used when a date is reset.
func DailyTemplate(venue Venue, date time.Time) []Slot {
	return hourlySlots(venue, date, dailyFirstHour, dailyLastHour)
}

func hourlySlots(venue Venue, date time.Time, from, to int) []Slot {
	y, m, d := date.Date()
	slots := make([]Slot, 0, to-from)
	for h := from; h < to; h++ {
		start := time.Date(y, m, d, h, 0, 0, 0, date.Location())
		s := NewSlot(venue, start, start.Add(time.Hour))
		slots = append(slots, s)
	}
	return slots
}
