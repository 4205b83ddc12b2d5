package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"webcraft-agency/models"
	"webcraft-agency/portal"
)

// memCache backs the code store in tests; logical expiry lives in the
// payload so TTLs can be ignored.
type memCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string]string)}
}

func (m *memCache) GetFromCache(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memCache) SetToCache(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memCache) DeleteFromCache(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memCache) Close() error { return nil }

func portalRouter(repo models.Repository, mailer *fakeMailer) *gin.Engine {
	h := NewPortalHandler(repo, portal.NewCodeStore(newMemCache()), mailer)
	r := gin.New()
	r.POST("/portal/request-code", h.RequestCode)
	r.POST("/portal/verify-code", h.VerifyCode)
	r.GET("/portal/records", h.FetchRecords)
	return r
}

func TestRequestCodeUnknownEmail(t *testing.T) {
	r := portalRouter(newFakeRepo(), newFakeMailer())
	w := doJSON(t, r, http.MethodPost, "/portal/request-code", map[string]interface{}{
		"email": "stranger@nowhere.com",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("request-code for unknown email = %d, want 404", w.Code)
	}
}

func TestPortalFlow(t *testing.T) {
	repo := newFakeRepo()
	mailer := newFakeMailer()
	r := portalRouter(repo, mailer)

	// Seed one submitted intake and one consultation for the address.
	token := "draft-token"
	repo.CreateIntakeForm(&models.IntakeForm{
		Status:      models.IntakeStatusSubmitted,
		ResumeToken: nil,
		CurrentStep: 10,
		Contact:     models.ContactSection{FirstName: "Jane", Email: "jane@acme.com", BusinessName: "Acme Co"},
	})
	repo.CreateIntakeForm(&models.IntakeForm{
		Status:      models.IntakeStatusDraft,
		ResumeToken: &token,
		CurrentStep: 4,
		Contact:     models.ContactSection{FirstName: "Jane", Email: "jane@acme.com"},
	})
	when := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	repo.BookConsultation(&models.Consultation{
		Email:         "jane@acme.com",
		FirstName:     "Jane",
		Status:        models.ConsultationStatusScheduled,
		ScheduledDate: &when,
		Duration:      30,
	})

	w := doJSON(t, r, http.MethodPost, "/portal/request-code", map[string]interface{}{
		"email": "Jane@Acme.com",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("request-code status = %d, body %s", w.Code, w.Body.String())
	}
	code := mailer.verificationCodes["jane@acme.com"]
	if len(code) != 6 {
		t.Fatalf("emailed code = %q, want 6 digits", code)
	}

	// Records are gated until the code is verified.
	if w := doJSON(t, r, http.MethodGet, "/portal/records?email=jane@acme.com", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("records before verify = %d, want 401", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/portal/verify-code", map[string]interface{}{
		"email": "jane@acme.com",
		"code":  code,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("verify-code status = %d, body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/portal/records?email=jane@acme.com", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("records status = %d, body %s", w.Code, w.Body.String())
	}
	var resp PortalRecordsResponse
	decodeBody(t, w, &resp)
	if len(resp.IntakeForms) != 2 {
		t.Errorf("intake count = %d, want 2", len(resp.IntakeForms))
	}
	if len(resp.Consultations) != 1 {
		t.Errorf("consultation count = %d, want 1", len(resp.Consultations))
	}
	// The resume token is only exposed for the draft.
	for _, form := range resp.IntakeForms {
		if form.Status == models.IntakeStatusDraft && form.ResumeToken != token {
			t.Errorf("draft resume token = %q, want %q", form.ResumeToken, token)
		}
		if form.Status == models.IntakeStatusSubmitted && form.ResumeToken != "" {
			t.Errorf("submitted form leaks resume token %q", form.ResumeToken)
		}
	}

	// Each verification grants exactly one fetch.
	if w := doJSON(t, r, http.MethodGet, "/portal/records?email=jane@acme.com", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("second records fetch = %d, want 401", w.Code)
	}
}

func TestFetchRecordsFailureKeepsVerification(t *testing.T) {
	repo := newFakeRepo()
	mailer := newFakeMailer()
	r := portalRouter(repo, mailer)

	repo.CreateIntakeForm(&models.IntakeForm{
		Status:  models.IntakeStatusSubmitted,
		Contact: models.ContactSection{FirstName: "Jane", Email: "jane@acme.com"},
	})

	if w := doJSON(t, r, http.MethodPost, "/portal/request-code", map[string]interface{}{"email": "jane@acme.com"}); w.Code != http.StatusOK {
		t.Fatalf("request-code = %d", w.Code)
	}
	code := mailer.verificationCodes["jane@acme.com"]
	if w := doJSON(t, r, http.MethodPost, "/portal/verify-code", map[string]interface{}{
		"email": "jane@acme.com",
		"code":  code,
	}); w.Code != http.StatusOK {
		t.Fatalf("verify-code = %d", w.Code)
	}

	// A store outage mid-fetch must not spend the one-time grant.
	repo.failReads = errors.New("connection reset")
	if w := doJSON(t, r, http.MethodGet, "/portal/records?email=jane@acme.com", nil); w.Code != http.StatusInternalServerError {
		t.Fatalf("records during outage = %d, want 500", w.Code)
	}

	repo.failReads = nil
	if w := doJSON(t, r, http.MethodGet, "/portal/records?email=jane@acme.com", nil); w.Code != http.StatusOK {
		t.Errorf("records after outage = %d, want 200 without a new code", w.Code)
	}

	// The successful fetch spent the grant.
	if w := doJSON(t, r, http.MethodGet, "/portal/records?email=jane@acme.com", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("records after success = %d, want 401", w.Code)
	}
}

func TestVerifyWrongCodeRejected(t *testing.T) {
	repo := newFakeRepo()
	mailer := newFakeMailer()
	r := portalRouter(repo, mailer)

	repo.CreateIntakeForm(&models.IntakeForm{
		Status:  models.IntakeStatusDraft,
		Contact: models.ContactSection{Email: "jane@acme.com"},
	})
	if w := doJSON(t, r, http.MethodPost, "/portal/request-code", map[string]interface{}{"email": "jane@acme.com"}); w.Code != http.StatusOK {
		t.Fatalf("request-code = %d", w.Code)
	}

	wrong := "000000"
	if mailer.verificationCodes["jane@acme.com"] == wrong {
		wrong = "000001"
	}
	w := doJSON(t, r, http.MethodPost, "/portal/verify-code", map[string]interface{}{
		"email": "jane@acme.com",
		"code":  wrong,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("verify with wrong code = %d, want 400", w.Code)
	}
}

func TestVerifyWithoutRequest(t *testing.T) {
	r := portalRouter(newFakeRepo(), newFakeMailer())
	w := doJSON(t, r, http.MethodPost, "/portal/verify-code", map[string]interface{}{
		"email": "jane@acme.com",
		"code":  "123456",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("verify without request = %d, want 404", w.Code)
	}
}
