package models

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgresRepository() (*PostgresRepository, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	// TranslateError maps driver duplicate-key failures onto
	// gorm.ErrDuplicatedKey, which the booking path relies on.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&Client{}, &IntakeForm{}, &Consultation{}, &Payment{}, &UploadedFile{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Clients

func (r *PostgresRepository) UpsertClientByEmail(client *Client) (*Client, error) {
	var existing Client
	err := r.db.Where("email = ?", client.Email).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := r.db.Create(client).Error; err != nil {
			return nil, err
		}
		return client, nil
	}
	if err != nil {
		return nil, err
	}

	// Refresh contact details with whatever the caller supplied.
	if client.FirstName != "" {
		existing.FirstName = client.FirstName
	}
	if client.LastName != "" {
		existing.LastName = client.LastName
	}
	if client.Phone != "" {
		existing.Phone = client.Phone
	}
	if client.Company != "" {
		existing.Company = client.Company
	}
	if err := r.db.Save(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

func (r *PostgresRepository) GetClientByEmail(email string) (*Client, error) {
	var client Client
	if err := r.db.Where("email = ?", email).First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &client, nil
}

func (r *PostgresRepository) SetClientStripeID(clientID uint, stripeCustomerID string) error {
	return r.db.Model(&Client{}).Where("id = ?", clientID).
		Update("stripe_customer_id", stripeCustomerID).Error
}

// Intake forms

func (r *PostgresRepository) CreateIntakeForm(form *IntakeForm) error {
	return r.db.Create(form).Error
}

func (r *PostgresRepository) GetIntakeByToken(token string) (*IntakeForm, error) {
	var form IntakeForm
	if err := r.db.Where("resume_token = ?", token).First(&form).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &form, nil
}

func (r *PostgresRepository) GetIntakeByID(id uint) (*IntakeForm, error) {
	var form IntakeForm
	if err := r.db.Preload("Client").First(&form, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &form, nil
}

func (r *PostgresRepository) SaveIntakeForm(form *IntakeForm) error {
	return r.db.Save(form).Error
}

// SubmitIntake commits the finalized form. When the caller supplies a
// resume token the matching draft is upgraded in place, so resubmitting
// the same draft never duplicates the record; a token pointing at an
// already-submitted form is rejected.
func (r *PostgresRepository) SubmitIntake(form *IntakeForm, resumeToken string) (*IntakeForm, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if resumeToken == "" {
			return tx.Create(form).Error
		}

		var existing IntakeForm
		if err := tx.Where("resume_token = ?", resumeToken).First(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return tx.Create(form).Error
			}
			return err
		}
		if existing.Status != IntakeStatusDraft {
			return ErrAlreadySubmitted
		}

		form.ID = existing.ID
		form.CreatedAt = existing.CreatedAt
		token := resumeToken
		form.ResumeToken = &token
		return tx.Save(form).Error
	})
	if err != nil {
		return nil, err
	}
	return form, nil
}

func (r *PostgresRepository) UpdateIntakeStatus(id uint, status string) error {
	res := r.db.Model(&IntakeForm{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ListIntakeForms(status string, offset, limit int) ([]IntakeForm, int64, error) {
	q := r.db.Model(&IntakeForm{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var forms []IntakeForm
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&forms).Error; err != nil {
		return nil, 0, err
	}
	return forms, total, nil
}

func (r *PostgresRepository) ListIntakesByEmail(email string) ([]IntakeForm, error) {
	var forms []IntakeForm
	err := r.db.Where("contact_email = ?", email).Order("created_at DESC").Find(&forms).Error
	return forms, err
}

// Consultations

// BookConsultation creates the booking inside a transaction that re-checks
// the slot window, and the unique index on slot_key backstops the check
// against two requests racing past it.
func (r *PostgresRepository) BookConsultation(c *Consultation) error {
	if c.ScheduledDate != nil {
		key := SlotKeyFor(*c.ScheduledDate)
		c.SlotKey = &key
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if c.ScheduledDate != nil {
			start := *c.ScheduledDate
			end := start.Add(ConsultationDuration)

			var count int64
			if err := tx.Model(&Consultation{}).
				Where("scheduled_date >= ? AND scheduled_date < ?", start, end).
				Where("status IN ?", ActiveStatuses()).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return ErrConflict
			}
		}
		return tx.Create(c).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	return err
}

func (r *PostgresRepository) GetConsultationByID(id uint) (*Consultation, error) {
	var c Consultation
	if err := r.db.Preload("Client").First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *PostgresRepository) ListConsultationsBetween(start, end time.Time) ([]Consultation, error) {
	var consultations []Consultation
	err := r.db.Where("scheduled_date >= ? AND scheduled_date < ?", start, end).
		Where("status IN ?", ActiveStatuses()).
		Find(&consultations).Error
	return consultations, err
}

func (r *PostgresRepository) CancelConsultation(id uint) error {
	var c Consultation
	if err := r.db.First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	// Cancelling frees the slot, so the unique key is cleared too.
	return r.db.Model(&c).Updates(map[string]interface{}{
		"status":   ConsultationStatusCancelled,
		"slot_key": nil,
	}).Error
}

func (r *PostgresRepository) RescheduleConsultation(id uint, newTime time.Time) (*Consultation, error) {
	var c Consultation
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&c, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if c.IsTerminal() {
			return ErrConflict
		}

		start := newTime
		end := start.Add(ConsultationDuration)

		var count int64
		if err := tx.Model(&Consultation{}).
			Where("scheduled_date >= ? AND scheduled_date < ?", start, end).
			Where("status IN ?", ActiveStatuses()).
			Where("id <> ?", id).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrConflict
		}

		key := SlotKeyFor(newTime)
		return tx.Model(&c).Updates(map[string]interface{}{
			"scheduled_date": newTime,
			"slot_key":       key,
			"status":         ConsultationStatusScheduled,
		}).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresRepository) ListConsultationsByEmail(email string) ([]Consultation, error) {
	var consultations []Consultation
	err := r.db.Where("email = ?", email).Order("scheduled_date DESC").Find(&consultations).Error
	return consultations, err
}

func (r *PostgresRepository) ListConsultations(status string, offset, limit int) ([]Consultation, int64, error) {
	q := r.db.Model(&Consultation{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var consultations []Consultation
	if err := q.Order("scheduled_date DESC").Offset(offset).Limit(limit).Find(&consultations).Error; err != nil {
		return nil, 0, err
	}
	return consultations, total, nil
}

// Portal

// EmailKnown reports whether any client, intake form or consultation
// references the email. Portal codes are only issued for known addresses.
func (r *PostgresRepository) EmailKnown(email string) (bool, error) {
	var count int64
	if err := r.db.Model(&Client{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	if err := r.db.Model(&IntakeForm{}).Where("contact_email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	if err := r.db.Model(&Consultation{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Payments

func (r *PostgresRepository) CreatePayment(p *Payment) error {
	return r.db.Create(p).Error
}

func (r *PostgresRepository) GetPaymentByIntentID(intentID string) (*Payment, error) {
	var p Payment
	if err := r.db.Where("stripe_payment_intent_id = ?", intentID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PostgresRepository) MarkPaymentByIntentID(intentID, status string, paidAt *time.Time) error {
	res := r.db.Model(&Payment{}).
		Where("stripe_payment_intent_id = ?", intentID).
		Updates(map[string]interface{}{"status": status, "paid_at": paidAt})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Uploads

func (r *PostgresRepository) CreateUploadedFile(f *UploadedFile) error {
	return r.db.Create(f).Error
}

func (r *PostgresRepository) GetUploadedFile(id uint) (*UploadedFile, error) {
	var f UploadedFile
	if err := r.db.First(&f, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

// DeleteUploadedFile removes the metadata record. The bytes on disk are
// kept; a separate cleanup job owns physical deletion.
func (r *PostgresRepository) DeleteUploadedFile(id uint) error {
	res := r.db.Delete(&UploadedFile{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
