package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"webcraft-agency/models"
	"webcraft-agency/monitoring"
	"webcraft-agency/utils"
)

type IntakeHandler struct {
	repo   models.Repository
	mailer utils.Mailer
	kafka  utils.KafkaProducer
}

func NewIntakeHandler(repo models.Repository, mailer utils.Mailer, kafka utils.KafkaProducer) *IntakeHandler {
	return &IntakeHandler{
		repo:   repo,
		mailer: mailer,
		kafka:  kafka,
	}
}

// FormSections carries the per-step field groups. Each section is
// optional; only the ones present in the payload are written, so a save
// never clobbers a section the client didn't send.
type FormSections struct {
	Contact     *models.ContactSection     `json:"contact"`
	Goals       *models.GoalsSection       `json:"goals"`
	Features    *models.FeaturesSection    `json:"features"`
	Design      *models.DesignSection      `json:"design"`
	Content     *models.ContentSection     `json:"content"`
	Technical   *models.TechnicalSection   `json:"technical"`
	Timeline    *models.TimelineSection    `json:"timeline"`
	Competitors *models.CompetitorsSection `json:"competitors"`
	Services    *models.ServicesSection    `json:"services"`
	Agreement   *models.AgreementSection   `json:"agreement"`
}

func (s *FormSections) applyTo(form *models.IntakeForm) {
	if s.Contact != nil {
		form.Contact = *s.Contact
	}
	if s.Goals != nil {
		form.Goals = *s.Goals
	}
	if s.Features != nil {
		form.Features = *s.Features
	}
	if s.Design != nil {
		form.Design = *s.Design
	}
	if s.Content != nil {
		form.Content = *s.Content
	}
	if s.Technical != nil {
		form.Technical = *s.Technical
	}
	if s.Timeline != nil {
		form.Timeline = *s.Timeline
	}
	if s.Competitors != nil {
		form.Competitors = *s.Competitors
	}
	if s.Services != nil {
		form.Services = *s.Services
	}
	if s.Agreement != nil {
		form.Agreement = *s.Agreement
	}
}

type SaveDraftRequest struct {
	ResumeToken string `json:"resumeToken"`
	CurrentStep int    `json:"currentStep"`
	FormSections
}

type SaveDraftResponse struct {
	ResumeToken       string `json:"resumeToken"`
	CurrentStep       int    `json:"currentStep"`
	CompletionPercent int    `json:"completionPercent"`
}

// SaveDraft creates a draft on the first save and updates it on later
// ones, addressed solely by the resume token.
func (h *IntakeHandler) SaveDraft(c *gin.Context) {
	var req SaveDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()

	if req.ResumeToken == "" {
		token := utils.NewResumeToken()
		form := &models.IntakeForm{
			ResumeToken: &token,
			Status:      models.IntakeStatusDraft,
			LastSavedAt: &now,
		}
		req.applyTo(form)
		setProgress(form, req.CurrentStep)

		if err := h.repo.CreateIntakeForm(form); err != nil {
			c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save progress"})
			return
		}

		c.JSON(http.StatusCreated, SaveDraftResponse{
			ResumeToken:       token,
			CurrentStep:       form.CurrentStep,
			CompletionPercent: completionPercent(form),
		})
		return
	}

	form, err := h.repo.GetIntakeByToken(req.ResumeToken)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "form not found"})
			return
		}
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save progress"})
		return
	}

	// Submitted records are immutable to the token holder.
	if !form.IsDraft() {
		c.JSON(http.StatusConflict, gin.H{"error": "form already submitted"})
		return
	}

	req.applyTo(form)
	setProgress(form, req.CurrentStep)
	form.LastSavedAt = &now

	if err := h.repo.SaveIntakeForm(form); err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save progress"})
		return
	}

	c.JSON(http.StatusOK, SaveDraftResponse{
		ResumeToken:       req.ResumeToken,
		CurrentStep:       form.CurrentStep,
		CompletionPercent: completionPercent(form),
	})
}

// setProgress clamps the requested step so a client can never jump past
// the step after its furthest point, then records every step up to the
// new position as reached.
func setProgress(form *models.IntakeForm, requested int) {
	tracker := models.ResumeTracker(form.CurrentStep, form.CompletedSteps)

	step := models.ClampStep(requested)
	if max := models.ClampStep(tracker.Furthest() + 1); step > max {
		step = max
	}

	form.CurrentStep = step
	furthest := step
	if f := tracker.Furthest(); f > furthest {
		furthest = f
	}
	completed := make([]int, 0, furthest)
	for s := models.FirstStep; s <= furthest; s++ {
		completed = append(completed, s)
	}
	form.CompletedSteps = datatypes.JSONSlice[int](completed)
}

func completionPercent(form *models.IntakeForm) int {
	return models.ResumeTracker(form.CurrentStep, form.CompletedSteps).CompletionPercent()
}

type DraftResponse struct {
	ResumeToken    string                    `json:"resumeToken"`
	Status         string                    `json:"status"`
	CurrentStep    int                       `json:"currentStep"`
	CompletedSteps []int                     `json:"completedSteps"`
	Contact        models.ContactSection     `json:"contact"`
	Goals          models.GoalsSection       `json:"goals"`
	Features       models.FeaturesSection    `json:"features"`
	Design         models.DesignSection      `json:"design"`
	Content        models.ContentSection     `json:"content"`
	Technical      models.TechnicalSection   `json:"technical"`
	Timeline       models.TimelineSection    `json:"timeline"`
	Competitors    models.CompetitorsSection `json:"competitors"`
	Services       models.ServicesSection    `json:"services"`
	Agreement      models.AgreementSection   `json:"agreement"`
	LastSavedAt    *time.Time                `json:"lastSavedAt"`
}

// ResumeDraft returns the saved draft for a resume token.
func (h *IntakeHandler) ResumeDraft(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "resume token required"})
		return
	}

	form, err := h.repo.GetIntakeByToken(token)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "form not found"})
			return
		}
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resume form"})
		return
	}

	c.JSON(http.StatusOK, toDraftResponse(form))
}

func toDraftResponse(form *models.IntakeForm) DraftResponse {
	token := ""
	if form.ResumeToken != nil {
		token = *form.ResumeToken
	}
	return DraftResponse{
		ResumeToken:    token,
		Status:         form.Status,
		CurrentStep:    form.CurrentStep,
		CompletedSteps: form.CompletedSteps,
		Contact:        form.Contact,
		Goals:          form.Goals,
		Features:       form.Features,
		Design:         form.Design,
		Content:        form.Content,
		Technical:      form.Technical,
		Timeline:       form.Timeline,
		Competitors:    form.Competitors,
		Services:       form.Services,
		Agreement:      form.Agreement,
		LastSavedAt:    form.LastSavedAt,
	}
}

type ResumeLinkRequest struct {
	Email       string `json:"email" binding:"required,email"`
	ResumeToken string `json:"resumeToken" binding:"required"`
}

// SendResumeLink emails the draft's resume URL. If the draft was saved
// before the contact email was filled in, the address is backfilled.
func (h *IntakeHandler) SendResumeLink(c *gin.Context) {
	var req ResumeLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	form, err := h.repo.GetIntakeByToken(req.ResumeToken)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "form not found"})
			return
		}
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send resume email"})
		return
	}

	if form.Contact.Email == "" {
		form.Contact.Email = req.Email
		if err := h.repo.SaveIntakeForm(form); err != nil {
			c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send resume email"})
			return
		}
	}

	name := form.Contact.FirstName
	if name == "" {
		name = "there"
	}
	if err := h.mailer.SendResumeLink(req.Email, name, req.ResumeToken); err != nil {
		monitoring.EmailFailures.Inc()
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send resume email"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "resume link sent"})
}

type SubmitRequest struct {
	ResumeToken string `json:"resumeToken"`
	FormSections
}

type SubmitResponse struct {
	IntakeFormID   uint    `json:"intakeFormId"`
	EstimatedQuote float64 `json:"estimatedQuote"`
}

// Submit finalizes the questionnaire: validates consent and signature,
// upserts the client, commits the immutable submission, optionally files
// a consultation request, and fires the notification side effects.
func (h *IntakeHandler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	form := &models.IntakeForm{}
	req.applyTo(form)

	if field, ok := validateSubmission(form); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "field": field})
		return
	}

	client, err := h.repo.UpsertClientByEmail(&models.Client{
		FirstName: form.Contact.FirstName,
		LastName:  form.Contact.LastName,
		Email:     form.Contact.Email,
		Phone:     form.Contact.Phone,
		Company:   form.Contact.BusinessName,
	})
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit intake form"})
		return
	}

	now := time.Now()
	form.ClientID = &client.ID
	form.Status = models.IntakeStatusSubmitted
	form.CurrentStep = models.LastStep
	form.CompletedSteps = allSteps()
	form.SubmittedAt = &now
	form.SignedAt = &now
	form.EstimatedQuote = models.EstimateQuote(form)

	submitted, err := h.repo.SubmitIntake(form, req.ResumeToken)
	if err != nil {
		if errors.Is(err, models.ErrAlreadySubmitted) {
			c.JSON(http.StatusConflict, gin.H{"error": "form already submitted"})
			return
		}
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit intake form"})
		return
	}

	monitoring.IntakesSubmitted.Inc()

	// A consultation request rides along with the submission, but its
	// failure never unwinds the submission itself.
	if form.Agreement.WantsConsultation {
		consultation := &models.Consultation{
			ClientID:     &client.ID,
			IntakeFormID: &submitted.ID,
			FirstName:    form.Contact.FirstName,
			LastName:     form.Contact.LastName,
			Email:        form.Contact.Email,
			Phone:        form.Contact.Phone,
			Company:      form.Contact.BusinessName,
			Status:       models.ConsultationStatusPending,
			RequestedVia: "intake_form",
			Notes:        "Consultation requested during intake form submission",
		}
		if err := h.repo.BookConsultation(consultation); err != nil {
			log.Printf("Failed to create consultation request for intake %d: %v", submitted.ID, err)
			utils.CaptureError(err, map[string]interface{}{"intakeFormId": submitted.ID})
		}
	}

	if h.kafka != nil {
		go h.sendIntakeEvent("intake_submitted", submitted)
	}

	go h.sendSubmissionEmails(submitted)

	c.JSON(http.StatusCreated, SubmitResponse{
		IntakeFormID:   submitted.ID,
		EstimatedQuote: submitted.EstimatedQuote,
	})
}

// validateSubmission enforces the submit gate: populated contact info,
// both consent flags, and a usable signature.
func validateSubmission(form *models.IntakeForm) (string, bool) {
	if !models.StepComplete(form, models.FirstStep) {
		return "contact", false
	}
	if !form.Agreement.AgreedToTerms || !form.Agreement.AgreedToPrivacy {
		return "consent", false
	}
	if !models.HasSignature(form) {
		return "signature", false
	}
	return "", true
}

func allSteps() datatypes.JSONSlice[int] {
	steps := make([]int, 0, models.LastStep)
	for s := models.FirstStep; s <= models.LastStep; s++ {
		steps = append(steps, s)
	}
	return datatypes.JSONSlice[int](steps)
}

func (h *IntakeHandler) sendSubmissionEmails(form *models.IntakeForm) {
	name := form.Contact.FirstName
	if name == "" {
		name = "Client"
	}

	if err := h.mailer.SendIntakeConfirmation(form.Contact.Email, name, form.ID, form.Agreement.WantsConsultation); err != nil {
		monitoring.EmailFailures.Inc()
		log.Printf("Failed to send confirmation email: %v", err)
	}

	body := fmt.Sprintf(
		"<p>New intake form #%d from %s %s (%s), business: %s. Consultation requested: %t.</p>",
		form.ID, form.Contact.FirstName, form.Contact.LastName,
		form.Contact.Email, form.Contact.BusinessName, form.Agreement.WantsConsultation,
	)
	if err := h.mailer.SendAdminNotification("New Intake Form Submitted", body); err != nil {
		monitoring.EmailFailures.Inc()
		log.Printf("Failed to send admin notification: %v", err)
	}
}

func (h *IntakeHandler) sendIntakeEvent(eventType string, form *models.IntakeForm) {
	event := map[string]interface{}{
		"event":        eventType,
		"id":           form.ID,
		"email":        form.Contact.Email,
		"businessName": form.Contact.BusinessName,
		"status":       form.Status,
	}
	sendRawKafkaEvent(h.kafka, utils.TopicIntakeEvents, event)
}

func sendRawKafkaEvent(producer utils.KafkaProducer, topic string, event interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	jsonData, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal Kafka event: %v", err)
		return
	}

	if err := producer.SendMessage(ctx, topic, nil, jsonData); err != nil {
		log.Printf("Failed to send Kafka message: %v", err)
	}
}
