package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"webcraft-agency/models"
	"webcraft-agency/monitoring"
	"webcraft-agency/scheduling"
	"webcraft-agency/utils"
)

type ConsultationHandler struct {
	repo   models.Repository
	mailer utils.Mailer
	kafka  utils.KafkaProducer
}

func NewConsultationHandler(repo models.Repository, mailer utils.Mailer, kafka utils.KafkaProducer) *ConsultationHandler {
	return &ConsultationHandler{
		repo:   repo,
		mailer: mailer,
		kafka:  kafka,
	}
}

// ListSlots returns the day's availability: the fixed template minus
// already-booked slots. Without a date only the raw template is returned.
func (h *ConsultationHandler) ListSlots(c *gin.Context) {
	template := scheduling.DefaultTemplate()

	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusOK, gin.H{"date": nil, "slots": template})
		return
	}

	start, end, err := scheduling.DayBounds(date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format, expected YYYY-MM-DD"})
		return
	}

	booked, err := h.repo.ListConsultationsBetween(start, end)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get available slots"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":  date,
		"slots": scheduling.Availability(template, booked),
	})
}

type BookingRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone"`
	Company   string `json:"company"`
	Date      string `json:"date" binding:"required"`
	Time      string `json:"time" binding:"required"`
	Timezone  string `json:"timezone"`
	Topics    string `json:"topics"`
	Notes     string `json:"notes"`
}

type BookingResponse struct {
	ConsultationID uint   `json:"consultationId"`
	Date           string `json:"date"`
	Time           string `json:"time"`
}

// Book reserves a 30-minute consultation slot. The repository's
// transactional check plus the slot unique index guarantee that two
// concurrent requests for the same slot cannot both succeed.
func (h *ConsultationHandler) Book(c *gin.Context) {
	var req BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	scheduled, err := models.CombineDateTime(req.Date, req.Time)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date or time"})
		return
	}

	client, err := h.repo.UpsertClientByEmail(&models.Client{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Company:   req.Company,
	})
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to book consultation"})
		return
	}

	timezone := req.Timezone
	if timezone == "" {
		timezone = "America/New_York"
	}

	consultation := &models.Consultation{
		ClientID:      &client.ID,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Phone:         req.Phone,
		Company:       req.Company,
		Status:        models.ConsultationStatusScheduled,
		ScheduledDate: &scheduled,
		Timezone:      timezone,
		Duration:      30,
		Topics:        req.Topics,
		Notes:         req.Notes,
		RequestedVia:  "schedule_page",
	}

	if err := h.repo.BookConsultation(consultation); err != nil {
		if errors.Is(err, models.ErrConflict) {
			monitoring.BookingConflicts.Inc()
			c.JSON(http.StatusConflict, gin.H{"error": "this time slot is no longer available"})
			return
		}
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to book consultation"})
		return
	}

	monitoring.ConsultationsBooked.Inc()

	if h.kafka != nil {
		go h.sendConsultationEvent("consultation_booked", consultation)
	}
	go h.sendBookingEmails(consultation, req.Date, req.Time)

	c.JSON(http.StatusCreated, BookingResponse{
		ConsultationID: consultation.ID,
		Date:           req.Date,
		Time:           req.Time,
	})
}

type UpdateBookingRequest struct {
	ConsultationID uint   `json:"consultationId" binding:"required"`
	Action         string `json:"action" binding:"required,oneof=cancel reschedule"`
	NewDate        string `json:"newDate"`
	NewTime        string `json:"newTime"`
}

// Update cancels or reschedules a consultation. Cancel is idempotent;
// reschedule re-runs the conflict check against the new slot, excluding
// the record being moved.
func (h *ConsultationHandler) Update(c *gin.Context) {
	var req UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch req.Action {
	case "cancel":
		if err := h.repo.CancelConsultation(req.ConsultationID); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "consultation not found"})
				return
			}
			c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update consultation"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "consultation cancelled"})

	case "reschedule":
		if req.NewDate == "" || req.NewTime == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "new date and time are required"})
			return
		}
		newTime, err := models.CombineDateTime(req.NewDate, req.NewTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date or time"})
			return
		}

		consultation, err := h.repo.RescheduleConsultation(req.ConsultationID, newTime)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "consultation not found"})
			case errors.Is(err, models.ErrConflict):
				monitoring.BookingConflicts.Inc()
				c.JSON(http.StatusConflict, gin.H{"error": "new time slot is not available"})
			default:
				c.Error(err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update consultation"})
			}
			return
		}

		if h.kafka != nil {
			go h.sendConsultationEvent("consultation_rescheduled", consultation)
		}
		c.JSON(http.StatusOK, gin.H{"message": "consultation rescheduled"})
	}
}

func (h *ConsultationHandler) sendBookingEmails(consultation *models.Consultation, date, timeOfDay string) {
	if err := h.mailer.SendConsultationConfirmation(
		consultation.Email, consultation.FirstName, date, timeOfDay, consultation.Timezone, consultation.ID,
	); err != nil {
		monitoring.EmailFailures.Inc()
		log.Printf("Failed to send consultation confirmation: %v", err)
	}

	body := fmt.Sprintf(
		"<p>New consultation #%d: %s %s (%s) on %s at %s.</p>",
		consultation.ID, consultation.FirstName, consultation.LastName,
		consultation.Email, date, timeOfDay,
	)
	if err := h.mailer.SendAdminNotification("New Consultation Booked", body); err != nil {
		monitoring.EmailFailures.Inc()
		log.Printf("Failed to send admin notification: %v", err)
	}
}

func (h *ConsultationHandler) sendConsultationEvent(eventType string, consultation *models.Consultation) {
	event := map[string]interface{}{
		"event":  eventType,
		"id":     consultation.ID,
		"email":  consultation.Email,
		"status": consultation.Status,
	}
	if consultation.ScheduledDate != nil {
		event["scheduledDate"] = consultation.ScheduledDate
	}
	sendRawKafkaEvent(h.kafka, utils.TopicConsultationEvents, event)
}
