package scheduling

import (
	"testing"
	"time"

	"webcraft-agency/models"
)

func TestAvailabilitySubtractsBookedSlots(t *testing.T) {
	booked14 := time.Date(2026, 2, 10, 14, 0, 0, 0, time.UTC)
	booked := []models.Consultation{
		{Status: models.ConsultationStatusScheduled, ScheduledDate: &booked14},
	}

	slots := Availability(DefaultTemplate(), booked)

	for _, slot := range slots {
		switch slot.Time {
		case "14:00":
			if slot.Available {
				t.Error("14:00 is booked and must be unavailable")
			}
		case "11:00", "16:00":
			if slot.Available {
				t.Errorf("%s is held back in the template and must stay unavailable", slot.Time)
			}
		default:
			if !slot.Available {
				t.Errorf("%s should be available", slot.Time)
			}
		}
	}
}

func TestAvailabilityIgnoresNilDates(t *testing.T) {
	booked := []models.Consultation{
		{Status: models.ConsultationStatusPending}, // consultation request without a slot yet
	}

	slots := Availability(DefaultTemplate(), booked)
	for _, slot := range slots {
		if slot.Time == "09:00" && !slot.Available {
			t.Error("a dateless consultation request must not block slots")
		}
	}
}

func TestAvailabilityPreservesTemplateOrder(t *testing.T) {
	template := DefaultTemplate()
	slots := Availability(template, nil)

	if len(slots) != len(template) {
		t.Fatalf("expected %d slots, got %d", len(template), len(slots))
	}
	for i := range template {
		if slots[i].Time != template[i].Time {
			t.Errorf("slot %d: got %s, want %s", i, slots[i].Time, template[i].Time)
		}
	}
}

func TestDayBounds(t *testing.T) {
	start, end, err := DayBounds("2026-03-01")
	if err != nil {
		t.Fatalf("DayBounds failed: %v", err)
	}

	if start != time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) {
		t.Errorf("unexpected start: %v", start)
	}
	if end.Sub(start) != 24*time.Hour {
		t.Errorf("expected a 24h window, got %v", end.Sub(start))
	}

	if _, _, err := DayBounds("03/01/2026"); err == nil {
		t.Error("expected error for wrong date format")
	}
}
