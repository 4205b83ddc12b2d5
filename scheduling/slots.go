// Package scheduling computes consultation availability for a calendar day
// by subtracting booked consultations from a fixed daily template.
package scheduling

import (
	"time"

	"webcraft-agency/models"
)

type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// DefaultTemplate is the daily set of candidate start times. The static
// flags stand in for a calendar-system integration; 11:00 and 16:00 are
// held back for internal meetings.
func DefaultTemplate() []Slot {
	return []Slot{
		{Time: "09:00", Available: true},
		{Time: "10:00", Available: true},
		{Time: "11:00", Available: false},
		{Time: "13:00", Available: true},
		{Time: "14:00", Available: true},
		{Time: "15:00", Available: true},
		{Time: "16:00", Available: false},
	}
}

// Availability merges the template with the day's booked consultations.
// A slot is bookable iff its template flag is set and no active booking
// starts at the same minute.
func Availability(template []Slot, booked []models.Consultation) []Slot {
	taken := make(map[string]bool, len(booked))
	for _, c := range booked {
		if c.ScheduledDate == nil {
			continue
		}
		taken[c.ScheduledDate.UTC().Format("15:04")] = true
	}

	out := make([]Slot, len(template))
	for i, s := range template {
		out[i] = Slot{Time: s.Time, Available: s.Available && !taken[s.Time]}
	}
	return out
}

// DayBounds returns the [start, end) range covering the given calendar date.
func DayBounds(date string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start = start.UTC()
	return start, start.Add(24 * time.Hour), nil
}
