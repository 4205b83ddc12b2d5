package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"

	"webcraft-agency/models"
	"webcraft-agency/utils"
)

type PaymentHandler struct {
	repo     models.Repository
	provider utils.PaymentProvider
}

func NewPaymentHandler(repo models.Repository, provider utils.PaymentProvider) *PaymentHandler {
	return &PaymentHandler{
		repo:     repo,
		provider: provider,
	}
}

type CreatePaymentRequest struct {
	IntakeFormID uint    `json:"intakeFormId" binding:"required"`
	Amount       float64 `json:"amount" binding:"required,gt=0"`
	PaymentType  string  `json:"paymentType"`
}

type CreatePaymentResponse struct {
	ClientSecret string  `json:"clientSecret"`
	PaymentID    uint    `json:"paymentId"`
	Amount       float64 `json:"amount"`
}

// CreateIntent sets up the Stripe payment for a submitted intake. The
// deposit type charges 50% of the quoted amount up front.
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.PaymentType == "" {
		req.PaymentType = models.PaymentTypeDeposit
	}

	form, err := h.repo.GetIntakeByID(req.IntakeFormID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "intake form not found"})
			return
		}
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create payment"})
		return
	}
	if form.Client == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "intake form has no associated client"})
		return
	}

	// Round, don't truncate: 19.99 is not exactly representable and
	// would otherwise charge a cent short.
	amountCents := int64(math.Round(req.Amount * 100))
	if req.PaymentType == models.PaymentTypeDeposit {
		amountCents = models.DepositAmount(amountCents)
	}

	customerID := form.Client.StripeCustomerID
	if customerID == "" {
		customerID, err = h.provider.CreateCustomer(
			form.Client.Email, form.Client.FullName(), form.Client.Phone, form.Client.ID,
		)
		if err != nil {
			c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create payment"})
			return
		}
		if err := h.repo.SetClientStripeID(form.Client.ID, customerID); err != nil {
			// The customer exists on the provider side; losing the local
			// link only costs a duplicate customer next time.
			log.Printf("Failed to store Stripe customer id: %v", err)
		}
	}

	business := form.Contact.BusinessName
	if business == "" {
		business = "Client"
	}
	description := "Website Project Payment - " + business
	if req.PaymentType == models.PaymentTypeDeposit {
		description = "Website Project Deposit - " + business
	}

	intent, err := h.provider.CreatePaymentIntent(amountCents, customerID, description, map[string]string{
		"intakeFormId": strconv.FormatUint(uint64(form.ID), 10),
		"paymentType":  req.PaymentType,
		"clientId":     strconv.FormatUint(uint64(form.Client.ID), 10),
	})
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create payment"})
		return
	}

	payment := &models.Payment{
		IntakeFormID:          form.ID,
		ClientID:              form.Client.ID,
		Amount:                amountCents,
		Type:                  req.PaymentType,
		Status:                models.PaymentStatusPending,
		StripePaymentIntentID: intent.ID,
	}
	if err := h.repo.CreatePayment(payment); err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create payment"})
		return
	}

	c.JSON(http.StatusCreated, CreatePaymentResponse{
		ClientSecret: intent.ClientSecret,
		PaymentID:    payment.ID,
		Amount:       float64(amountCents) / 100,
	})
}

// VerifyPayment re-reads the intent from the provider and syncs the local
// payment record.
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	intentID := c.Query("payment_intent")
	if intentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payment intent id required"})
		return
	}

	intent, err := h.provider.GetPaymentIntent(intentID)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify payment"})
		return
	}

	// Only terminal provider states map onto the local enum; anything
	// in flight stays pending rather than leaking Stripe's vocabulary.
	status := models.PaymentStatusPending
	var paidAt *time.Time
	switch intent.Status {
	case string(stripe.PaymentIntentStatusSucceeded):
		status = models.PaymentStatusCompleted
		now := time.Now()
		paidAt = &now
	case string(stripe.PaymentIntentStatusCanceled):
		status = models.PaymentStatusCancelled
	}
	if err := h.repo.MarkPaymentByIntentID(intentID, status, paidAt); err != nil && !errors.Is(err, models.ErrNotFound) {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify payment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": intent.Status,
		"amount": float64(intent.AmountCents) / 100,
	})
}

// Webhook processes signed Stripe events. A completed deposit moves the
// intake into in_progress.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read payload"})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing signature"})
		return
	}

	event, err := h.provider.ConstructWebhookEvent(payload, signature)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		intent, err := parseIntent(event)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed event payload"})
			return
		}

		now := time.Now()
		if err := h.repo.MarkPaymentByIntentID(intent.ID, models.PaymentStatusCompleted, &now); err != nil && !errors.Is(err, models.ErrNotFound) {
			c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook handler failed"})
			return
		}

		if intent.Metadata["paymentType"] == models.PaymentTypeDeposit {
			if id, err := strconv.ParseUint(intent.Metadata["intakeFormId"], 10, 64); err == nil {
				if err := h.repo.UpdateIntakeStatus(uint(id), models.IntakeStatusInProgress); err != nil {
					log.Printf("Failed to update intake %d after deposit: %v", id, err)
				}
			}
		}

	case "payment_intent.payment_failed":
		intent, err := parseIntent(event)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed event payload"})
			return
		}
		if err := h.repo.MarkPaymentByIntentID(intent.ID, models.PaymentStatusFailed, nil); err != nil && !errors.Is(err, models.ErrNotFound) {
			log.Printf("Failed to mark payment failed: %v", err)
		}

	case "payment_intent.canceled":
		intent, err := parseIntent(event)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed event payload"})
			return
		}
		if err := h.repo.MarkPaymentByIntentID(intent.ID, models.PaymentStatusCancelled, nil); err != nil && !errors.Is(err, models.ErrNotFound) {
			log.Printf("Failed to mark payment cancelled: %v", err)
		}

	default:
		log.Printf("Unhandled Stripe event type: %s", event.Type)
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func parseIntent(event stripe.Event) (*stripe.PaymentIntent, error) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}
