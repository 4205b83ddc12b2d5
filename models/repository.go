package models

import (
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrConflict         = errors.New("time slot is no longer available")
	ErrAlreadySubmitted = errors.New("intake form already submitted")
)

type Repository interface {
	// Clients
	UpsertClientByEmail(client *Client) (*Client, error)
	GetClientByEmail(email string) (*Client, error)
	SetClientStripeID(clientID uint, stripeCustomerID string) error

	// Intake forms
	CreateIntakeForm(form *IntakeForm) error
	GetIntakeByToken(token string) (*IntakeForm, error)
	GetIntakeByID(id uint) (*IntakeForm, error)
	SaveIntakeForm(form *IntakeForm) error
	SubmitIntake(form *IntakeForm, resumeToken string) (*IntakeForm, error)
	UpdateIntakeStatus(id uint, status string) error
	ListIntakeForms(status string, offset, limit int) ([]IntakeForm, int64, error)
	ListIntakesByEmail(email string) ([]IntakeForm, error)

	// Consultations
	BookConsultation(c *Consultation) error
	GetConsultationByID(id uint) (*Consultation, error)
	ListConsultationsBetween(start, end time.Time) ([]Consultation, error)
	CancelConsultation(id uint) error
	RescheduleConsultation(id uint, newTime time.Time) (*Consultation, error)
	ListConsultationsByEmail(email string) ([]Consultation, error)
	ListConsultations(status string, offset, limit int) ([]Consultation, int64, error)

	// Portal
	EmailKnown(email string) (bool, error)

	// Payments
	CreatePayment(p *Payment) error
	GetPaymentByIntentID(intentID string) (*Payment, error)
	MarkPaymentByIntentID(intentID, status string, paidAt *time.Time) error

	// Uploads
	CreateUploadedFile(f *UploadedFile) error
	GetUploadedFile(id uint) (*UploadedFile, error)
	DeleteUploadedFile(id uint) error

	Close() error
}
