package handlers

import (
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"webcraft-agency/middleware"
	"webcraft-agency/models"
	"webcraft-agency/utils"
)

var intakeStatuses = map[string]bool{
	models.IntakeStatusDraft:      true,
	models.IntakeStatusSubmitted:  true,
	models.IntakeStatusInProgress: true,
	models.IntakeStatusCompleted:  true,
	models.IntakeStatusCancelled:  true,
}

type AdminHandler struct {
	repo models.Repository
	es   utils.ElasticsearchClient
}

func NewAdminHandler(repo models.Repository, es utils.ElasticsearchClient) *AdminHandler {
	return &AdminHandler{
		repo: repo,
		es:   es,
	}
}

type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AdminHandler) Login(c *gin.Context) {
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@webcraft.com"
	}
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminPassword == "" || req.Email != adminEmail || req.Password != adminPassword {
		log.Printf("Failed admin login attempt: %s", req.Email)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	session := middleware.SignAdminSession(time.Now())
	c.SetCookie(middleware.AdminCookieName, session, int(middleware.AdminSessionAge.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "login successful"})
}

func (h *AdminHandler) Logout(c *gin.Context) {
	c.SetCookie(middleware.AdminCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// ListIntakes returns a paginated intake list, filterable by status. A
// free-text search goes through Elasticsearch when it is configured.
func (h *AdminHandler) ListIntakes(c *gin.Context) {
	status := c.Query("status")
	if status != "" && !intakeStatuses[status] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	if search := c.Query("search"); search != "" && h.es != nil {
		results, err := h.es.Search(c.Request.Context(), utils.IntakeIndex, map[string]interface{}{
			"query": map[string]interface{}{
				"multi_match": map[string]interface{}{
					"query":  search,
					"fields": []string{"businessName", "email", "firstName", "lastName", "industry"},
				},
			},
		})
		if err != nil {
			c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": results})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	forms, total, err := h.repo.ListIntakeForms(status, (page-1)*limit, limit)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list intake forms"})
		return
	}

	summaries := make([]gin.H, 0, len(forms))
	for _, form := range forms {
		summaries = append(summaries, gin.H{
			"id":           form.ID,
			"status":       form.Status,
			"currentStep":  form.CurrentStep,
			"businessName": form.Contact.BusinessName,
			"contactName":  form.Contact.FirstName + " " + form.Contact.LastName,
			"email":        form.Contact.Email,
			"quote":        form.EstimatedQuote,
			"createdAt":    form.CreatedAt,
			"submittedAt":  form.SubmittedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"intakes": summaries,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

func (h *AdminHandler) GetIntake(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid intake form ID"})
		return
	}

	form, err := h.repo.GetIntakeByID(uint(id))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "intake form not found"})
			return
		}
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get intake form"})
		return
	}

	c.JSON(http.StatusOK, form)
}

type UpdateIntakeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateIntakeStatus is the operator-only status transition; clients can
// never move a record out of draft except by submitting it.
func (h *AdminHandler) UpdateIntakeStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid intake form ID"})
		return
	}

	var req UpdateIntakeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !intakeStatuses[req.Status] || req.Status == models.IntakeStatusDraft {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	if err := h.repo.UpdateIntakeStatus(uint(id), req.Status); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "intake form not found"})
			return
		}
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "status updated"})
}

func (h *AdminHandler) ListConsultations(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	consultations, total, err := h.repo.ListConsultations(c.Query("status"), (page-1)*limit, limit)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list consultations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"consultations": consultations,
		"total":         total,
		"page":          page,
		"limit":         limit,
	})
}
