package utils

import (
	"fmt"
	"os"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/customer"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/webhook"
)

// PaymentIntentResult is the subset of the provider's intent the handlers need.
type PaymentIntentResult struct {
	ID           string
	ClientSecret string
	Status       string
	AmountCents  int64
	Metadata     map[string]string
}

// PaymentProvider wraps the payment collaborator. Handlers only depend on
// this interface so tests can swap in a fake.
type PaymentProvider interface {
	CreateCustomer(email, name, phone string, clientID uint) (string, error)
	CreatePaymentIntent(amountCents int64, customerID, description string, metadata map[string]string) (*PaymentIntentResult, error)
	GetPaymentIntent(id string) (*PaymentIntentResult, error)
	ConstructWebhookEvent(payload []byte, signature string) (stripe.Event, error)
}

type stripeProvider struct {
	webhookSecret string
}

func NewStripeProvider() PaymentProvider {
	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	return &stripeProvider{webhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET")}
}

func (s *stripeProvider) CreateCustomer(email, name, phone string, clientID uint) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	if phone != "" {
		params.Phone = stripe.String(phone)
	}
	params.AddMetadata("clientId", fmt.Sprintf("%d", clientID))

	c, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create Stripe customer: %w", err)
	}
	return c.ID, nil
}

func (s *stripeProvider) CreatePaymentIntent(amountCents int64, customerID, description string, metadata map[string]string) (*PaymentIntentResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(amountCents),
		Currency:    stripe.String(string(stripe.CurrencyUSD)),
		Description: stripe.String(description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if customerID != "" {
		params.Customer = stripe.String(customerID)
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	return &PaymentIntentResult{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		AmountCents:  pi.Amount,
		Metadata:     pi.Metadata,
	}, nil
}

func (s *stripeProvider) GetPaymentIntent(id string) (*PaymentIntentResult, error) {
	pi, err := paymentintent.Get(id, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve payment intent: %w", err)
	}
	return &PaymentIntentResult{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		AmountCents:  pi.Amount,
		Metadata:     pi.Metadata,
	}, nil
}

func (s *stripeProvider) ConstructWebhookEvent(payload []byte, signature string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, signature, s.webhookSecret)
}
