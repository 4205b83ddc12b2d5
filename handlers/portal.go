package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"webcraft-agency/models"
	"webcraft-agency/monitoring"
	"webcraft-agency/portal"
	"webcraft-agency/utils"
)

type PortalHandler struct {
	repo   models.Repository
	codes  *portal.CodeStore
	mailer utils.Mailer
}

func NewPortalHandler(repo models.Repository, codes *portal.CodeStore, mailer utils.Mailer) *PortalHandler {
	return &PortalHandler{
		repo:   repo,
		codes:  codes,
		mailer: mailer,
	}
}

type RequestCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// RequestCode issues a one-time portal code, but only for an email the
// system already knows from a client, intake form or consultation.
func (h *PortalHandler) RequestCode(c *gin.Context) {
	var req RequestCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email := portal.NormalizeEmail(req.Email)

	known, err := h.repo.EmailKnown(email)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process request"})
		return
	}
	if !known {
		c.JSON(http.StatusNotFound, gin.H{"error": "no records found for this email address"})
		return
	}

	code, err := h.codes.Issue(c.Request.Context(), email)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process request"})
		return
	}

	name := "Client"
	if client, err := h.repo.GetClientByEmail(email); err == nil {
		name = client.FirstName
	}

	// The code email is best-effort; a relay failure should not leak
	// whether issuance succeeded.
	if err := h.mailer.SendVerificationCode(email, name, code); err != nil {
		monitoring.EmailFailures.Inc()
		log.Printf("Failed to send verification email: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "verification code sent to your email"})
}

type VerifyCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6"`
}

// VerifyCode checks a submitted code and hands back the session token for
// the follow-up records fetch.
func (h *PortalHandler) VerifyCode(c *gin.Context) {
	var req VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email := portal.NormalizeEmail(req.Email)

	token, err := h.codes.Verify(c.Request.Context(), email, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, portal.ErrCodeNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "no verification code found, please request a new one"})
		case errors.Is(err, portal.ErrCodeExpired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "verification code expired, please request a new one"})
		case errors.Is(err, portal.ErrCodeInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid verification code"})
		default:
			c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process request"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "verification successful", "sessionToken": token})
}

type PortalIntakeSummary struct {
	ID           uint       `json:"id"`
	Status       string     `json:"status"`
	CurrentStep  int        `json:"currentStep"`
	BusinessName string     `json:"businessName"`
	ResumeToken  string     `json:"resumeToken,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	SubmittedAt  *time.Time `json:"submittedAt"`
	Quote        float64    `json:"estimatedQuote"`
}

type PortalConsultationSummary struct {
	ID            uint       `json:"id"`
	ScheduledDate *time.Time `json:"scheduledDate"`
	Status        string     `json:"status"`
	Duration      int        `json:"duration"`
}

type PortalRecordsResponse struct {
	ClientID      *uint                       `json:"clientId"`
	FirstName     string                      `json:"firstName"`
	LastName      string                      `json:"lastName"`
	Email         string                      `json:"email"`
	Company       string                      `json:"company"`
	IntakeForms   []PortalIntakeSummary       `json:"intakeForms"`
	Consultations []PortalConsultationSummary `json:"consultations"`
}

// FetchRecords returns everything associated with a verified email. The
// verification state is only consumed once the reads succeed, so each
// code grants exactly one fetch and a transient store failure does not
// cost the client its verification. The gate is the server-side verified
// flag, never the caller-supplied token.
func (h *PortalHandler) FetchRecords(c *gin.Context) {
	email := portal.NormalizeEmail(c.Query("email"))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	if err := h.codes.CheckVerified(c.Request.Context(), email); err != nil {
		if errors.Is(err, portal.ErrNotVerified) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "please verify your email first"})
			return
		}
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch records"})
		return
	}

	intakes, err := h.repo.ListIntakesByEmail(email)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch records"})
		return
	}
	consultations, err := h.repo.ListConsultationsByEmail(email)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch records"})
		return
	}

	resp := PortalRecordsResponse{
		Email:         email,
		IntakeForms:   make([]PortalIntakeSummary, 0, len(intakes)),
		Consultations: make([]PortalConsultationSummary, 0, len(consultations)),
	}

	if client, err := h.repo.GetClientByEmail(email); err == nil {
		resp.ClientID = &client.ID
		resp.FirstName = client.FirstName
		resp.LastName = client.LastName
		resp.Company = client.Company
	} else if !errors.Is(err, models.ErrNotFound) {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch records"})
		return
	}

	for _, form := range intakes {
		summary := PortalIntakeSummary{
			ID:           form.ID,
			Status:       form.Status,
			CurrentStep:  form.CurrentStep,
			BusinessName: form.Contact.BusinessName,
			CreatedAt:    form.CreatedAt,
			SubmittedAt:  form.SubmittedAt,
			Quote:        form.EstimatedQuote,
		}
		// Resume tokens are only useful (and only safe to expose) for
		// drafts the owner can still continue.
		if form.IsDraft() && form.ResumeToken != nil {
			summary.ResumeToken = *form.ResumeToken
		}
		resp.IntakeForms = append(resp.IntakeForms, summary)

		// Synthesize an identity when no client record exists.
		if resp.ClientID == nil && resp.FirstName == "" {
			resp.FirstName = form.Contact.FirstName
			resp.LastName = form.Contact.LastName
			resp.Company = form.Contact.BusinessName
		}
	}

	for _, consultation := range consultations {
		resp.Consultations = append(resp.Consultations, PortalConsultationSummary{
			ID:            consultation.ID,
			ScheduledDate: consultation.ScheduledDate,
			Status:        consultation.Status,
			Duration:      consultation.Duration,
		})
		if resp.ClientID == nil && resp.FirstName == "" {
			resp.FirstName = consultation.FirstName
			resp.LastName = consultation.LastName
		}
	}

	// The reads answered, so the one-time grant is spent now.
	if err := h.codes.Consume(c.Request.Context(), email); err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch records"})
		return
	}

	if resp.ClientID == nil && len(intakes) == 0 && len(consultations) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no records found for this email address"})
		return
	}

	c.JSON(http.StatusOK, resp)
}
