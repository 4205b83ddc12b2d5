package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	ConsultationStatusPending   = "pending"
	ConsultationStatusScheduled = "scheduled"
	ConsultationStatusConfirmed = "confirmed"
	ConsultationStatusCompleted = "completed"
	ConsultationStatusCancelled = "cancelled"
	ConsultationStatusNoShow    = "no_show"
)

// ConsultationDuration is the fixed length of a bookable slot.
const ConsultationDuration = 30 * time.Minute

type Consultation struct {
	gorm.Model
	ClientID     *uint
	Client       *Client
	IntakeFormID *uint

	FirstName string
	LastName  string
	Email     string `gorm:"index"`
	Phone     string
	Company   string

	Status        string `gorm:"not null;default:'pending';index"`
	ScheduledDate *time.Time
	Timezone      string
	Duration      int `gorm:"default:30"`
	Topics        string
	Notes         string
	RequestedVia  string

	// SlotKey is the minute-resolution bucket of ScheduledDate. The unique
	// index on it is what makes double-booking impossible even under
	// concurrent requests; it is cleared when the booking is cancelled so
	// the slot frees up (multiple NULLs are allowed).
	SlotKey *string `gorm:"uniqueIndex"`
}

// ActiveStatuses are the consultation states that occupy a slot.
func ActiveStatuses() []string {
	return []string{ConsultationStatusPending, ConsultationStatusScheduled, ConsultationStatusConfirmed}
}

// SlotKeyFor formats the unique slot bucket for a scheduled time.
func SlotKeyFor(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04")
}

// IsTerminal reports whether the consultation can no longer change status.
func (c *Consultation) IsTerminal() bool {
	return c.Status == ConsultationStatusCompleted || c.Status == ConsultationStatusCancelled
}

// CombineDateTime merges a calendar date ("2006-01-02") and a time of day
// ("15:04") into one absolute timestamp in UTC.
func CombineDateTime(date, timeOfDay string) (time.Time, error) {
	t, err := time.Parse("2006-01-02 15:04", fmt.Sprintf("%s %s", date, timeOfDay))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date or time: %w", err)
	}
	return t.UTC(), nil
}
