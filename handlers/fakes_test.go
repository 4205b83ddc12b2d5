package handlers

import (
	"sync"
	"time"

	"webcraft-agency/models"
)

// fakeRepo is an in-memory models.Repository for handler tests. The
// consultation methods reproduce the store's conflict semantics under a
// single mutex so concurrent booking tests behave like the real thing.
type fakeRepo struct {
	mu sync.Mutex

	clients       map[uint]*models.Client
	intakes       map[uint]*models.IntakeForm
	consultations map[uint]*models.Consultation
	payments      map[string]*models.Payment
	uploads       map[uint]*models.UploadedFile

	nextClientID       uint
	nextIntakeID       uint
	nextConsultationID uint
	nextPaymentID      uint
	nextUploadID       uint

	// When set, list reads fail with this error, for outage tests.
	failReads error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		clients:       make(map[uint]*models.Client),
		intakes:       make(map[uint]*models.IntakeForm),
		consultations: make(map[uint]*models.Consultation),
		payments:      make(map[string]*models.Payment),
		uploads:       make(map[uint]*models.UploadedFile),
	}
}

func copyIntake(f *models.IntakeForm) *models.IntakeForm {
	c := *f
	return &c
}

func copyConsultation(c *models.Consultation) *models.Consultation {
	d := *c
	return &d
}

func (r *fakeRepo) UpsertClientByEmail(client *models.Client) (*models.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.clients {
		if existing.Email == client.Email {
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
			c := *existing
			return &c, nil
		}
	}
	r.nextClientID++
	client.ID = r.nextClientID
	c := *client
	r.clients[client.ID] = &c
	return client, nil
}

func (r *fakeRepo) GetClientByEmail(email string) (*models.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, client := range r.clients {
		if client.Email == email {
			c := *client
			return &c, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *fakeRepo) SetClientStripeID(clientID uint, stripeCustomerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	client, ok := r.clients[clientID]
	if !ok {
		return models.ErrNotFound
	}
	client.StripeCustomerID = stripeCustomerID
	return nil
}

func (r *fakeRepo) CreateIntakeForm(form *models.IntakeForm) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextIntakeID++
	form.ID = r.nextIntakeID
	form.CreatedAt = time.Now()
	r.intakes[form.ID] = copyIntake(form)
	return nil
}

func (r *fakeRepo) GetIntakeByToken(token string) (*models.IntakeForm, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, form := range r.intakes {
		if form.ResumeToken != nil && *form.ResumeToken == token {
			return copyIntake(form), nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *fakeRepo) GetIntakeByID(id uint) (*models.IntakeForm, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	form, ok := r.intakes[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := copyIntake(form)
	if form.ClientID != nil {
		if client, ok := r.clients[*form.ClientID]; ok {
			c := *client
			out.Client = &c
		}
	}
	return out, nil
}

func (r *fakeRepo) SaveIntakeForm(form *models.IntakeForm) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.intakes[form.ID]; !ok {
		return models.ErrNotFound
	}
	r.intakes[form.ID] = copyIntake(form)
	return nil
}

func (r *fakeRepo) SubmitIntake(form *models.IntakeForm, resumeToken string) (*models.IntakeForm, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if resumeToken != "" {
		for _, existing := range r.intakes {
			if existing.ResumeToken == nil || *existing.ResumeToken != resumeToken {
				continue
			}
			if !existing.IsDraft() {
				return nil, models.ErrAlreadySubmitted
			}
			form.ID = existing.ID
			form.CreatedAt = existing.CreatedAt
			form.ResumeToken = existing.ResumeToken
			r.intakes[form.ID] = copyIntake(form)
			return copyIntake(form), nil
		}
	}

	r.nextIntakeID++
	form.ID = r.nextIntakeID
	form.CreatedAt = time.Now()
	r.intakes[form.ID] = copyIntake(form)
	return copyIntake(form), nil
}

func (r *fakeRepo) UpdateIntakeStatus(id uint, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	form, ok := r.intakes[id]
	if !ok {
		return models.ErrNotFound
	}
	form.Status = status
	return nil
}

func (r *fakeRepo) ListIntakeForms(status string, offset, limit int) ([]models.IntakeForm, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.IntakeForm
	for _, form := range r.intakes {
		if status == "" || form.Status == status {
			out = append(out, *form)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeRepo) ListIntakesByEmail(email string) ([]models.IntakeForm, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failReads != nil {
		return nil, r.failReads
	}
	var out []models.IntakeForm
	for _, form := range r.intakes {
		if form.Contact.Email == email {
			out = append(out, *form)
		}
	}
	return out, nil
}

func (r *fakeRepo) slotTaken(start time.Time, excludeID uint) bool {
	end := start.Add(models.ConsultationDuration)
	for _, c := range r.consultations {
		if c.ID == excludeID || c.ScheduledDate == nil {
			continue
		}
		active := false
		for _, s := range models.ActiveStatuses() {
			if c.Status == s {
				active = true
				break
			}
		}
		if !active {
			continue
		}
		if !c.ScheduledDate.Before(start) && c.ScheduledDate.Before(end) {
			return true
		}
	}
	return false
}

func (r *fakeRepo) BookConsultation(c *models.Consultation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ScheduledDate != nil {
		if r.slotTaken(*c.ScheduledDate, 0) {
			return models.ErrConflict
		}
		key := models.SlotKeyFor(*c.ScheduledDate)
		c.SlotKey = &key
	}
	r.nextConsultationID++
	c.ID = r.nextConsultationID
	c.CreatedAt = time.Now()
	r.consultations[c.ID] = copyConsultation(c)
	return nil
}

func (r *fakeRepo) GetConsultationByID(id uint) (*models.Consultation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.consultations[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return copyConsultation(c), nil
}

func (r *fakeRepo) ListConsultationsBetween(start, end time.Time) ([]models.Consultation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Consultation
	for _, c := range r.consultations {
		if c.ScheduledDate == nil {
			continue
		}
		active := false
		for _, s := range models.ActiveStatuses() {
			if c.Status == s {
				active = true
				break
			}
		}
		if !active {
			continue
		}
		if !c.ScheduledDate.Before(start) && c.ScheduledDate.Before(end) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeRepo) CancelConsultation(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.consultations[id]
	if !ok {
		return models.ErrNotFound
	}
	c.Status = models.ConsultationStatusCancelled
	c.SlotKey = nil
	return nil
}

func (r *fakeRepo) RescheduleConsultation(id uint, newTime time.Time) (*models.Consultation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.consultations[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if c.IsTerminal() {
		return nil, models.ErrConflict
	}
	if r.slotTaken(newTime, id) {
		return nil, models.ErrConflict
	}
	key := models.SlotKeyFor(newTime)
	c.ScheduledDate = &newTime
	c.SlotKey = &key
	c.Status = models.ConsultationStatusScheduled
	return copyConsultation(c), nil
}

func (r *fakeRepo) ListConsultationsByEmail(email string) ([]models.Consultation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failReads != nil {
		return nil, r.failReads
	}
	var out []models.Consultation
	for _, c := range r.consultations {
		if c.Email == email {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListConsultations(status string, offset, limit int) ([]models.Consultation, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Consultation
	for _, c := range r.consultations {
		if status == "" || c.Status == status {
			out = append(out, *c)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeRepo) EmailKnown(email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, client := range r.clients {
		if client.Email == email {
			return true, nil
		}
	}
	for _, form := range r.intakes {
		if form.Contact.Email == email {
			return true, nil
		}
	}
	for _, c := range r.consultations {
		if c.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) CreatePayment(p *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextPaymentID++
	p.ID = r.nextPaymentID
	r.payments[p.StripePaymentIntentID] = p
	return nil
}

func (r *fakeRepo) GetPaymentByIntentID(intentID string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[intentID]
	if !ok {
		return nil, models.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (r *fakeRepo) MarkPaymentByIntentID(intentID, status string, paidAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[intentID]
	if !ok {
		return models.ErrNotFound
	}
	p.Status = status
	p.PaidAt = paidAt
	return nil
}

func (r *fakeRepo) CreateUploadedFile(f *models.UploadedFile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextUploadID++
	f.ID = r.nextUploadID
	r.uploads[f.ID] = f
	return nil
}

func (r *fakeRepo) GetUploadedFile(id uint) (*models.UploadedFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.uploads[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	c := *f
	return &c, nil
}

func (r *fakeRepo) DeleteUploadedFile(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.uploads[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.uploads, id)
	return nil
}

func (r *fakeRepo) Close() error { return nil }

// fakeMailer records every send so tests can assert on side effects.
type fakeMailer struct {
	mu                sync.Mutex
	confirmations     []string
	resumeLinks       []string
	verificationCodes map[string]string
	consultations     []string
	adminSubjects     []string
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{verificationCodes: make(map[string]string)}
}

func (m *fakeMailer) SendIntakeConfirmation(to, name string, intakeFormID uint, wantsConsultation bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmations = append(m.confirmations, to)
	return nil
}

func (m *fakeMailer) SendResumeLink(to, name, resumeToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resumeLinks = append(m.resumeLinks, to)
	return nil
}

func (m *fakeMailer) SendVerificationCode(to, name, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verificationCodes[to] = code
	return nil
}

func (m *fakeMailer) SendConsultationConfirmation(to, name, date, timeOfDay, timezone string, consultationID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consultations = append(m.consultations, to)
	return nil
}

func (m *fakeMailer) SendAdminNotification(subject, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adminSubjects = append(m.adminSubjects, subject)
	return nil
}
