package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/labtrack/labtrack/internal/domain/dashboard"
	"github.com/labtrack/labtrack/internal/domain/identity"
	"github.com/labtrack/labtrack/internal/domain/labtest"
	"github.com/labtrack/labtrack/internal/domain/patient"
	"github.com/labtrack/labtrack/internal/domain/refrange"
	"github.com/labtrack/labtrack/internal/platform/apperror"
	"github.com/labtrack/labtrack/internal/platform/auth"
)

// -- In-memory stores backing the full route scenario --

type memUsers struct{ users []*identity.User }

func (m *memUsers) Create(_ context.Context, u *identity.User) error {
	u.ID = len(m.users) + 1
	m.users = append(m.users, u)
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*identity.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memUsers) List(_ context.Context) ([]*identity.User, error) {
	return m.users, nil
}

type memPatients struct {
	patients map[int]*patient.Patient
	nextID   int
}

func newMemPatients() *memPatients {
	return &memPatients{patients: make(map[int]*patient.Patient), nextID: 1}
}

func (m *memPatients) Create(_ context.Context, p *patient.Patient) error {
	p.ID = m.nextID
	m.nextID++
	m.patients[p.ID] = p
	return nil
}

func (m *memPatients) List(_ context.Context, ownerID *int) ([]*patient.WithCounts, error) {
	var result []*patient.WithCounts
	for _, p := range m.patients {
		if ownerID == nil || p.CreatedBy == *ownerID {
			result = append(result, &patient.WithCounts{Patient: *p})
		}
	}
	return result, nil
}

func (m *memPatients) Get(_ context.Context, id, ownerID int) (*patient.Patient, error) {
	p, ok := m.patients[id]
	if !ok || p.CreatedBy != ownerID {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

func (m *memPatients) Update(_ context.Context, p *patient.Patient) error {
	m.patients[p.ID] = p
	return nil
}

func (m *memPatients) Delete(_ context.Context, id, ownerID int) error {
	p, ok := m.patients[id]
	if !ok || p.CreatedBy != ownerID {
		return pgx.ErrNoRows
	}
	delete(m.patients, id)
	return nil
}

func (m *memPatients) Exists(_ context.Context, id int) (bool, error) {
	_, ok := m.patients[id]
	return ok, nil
}

type memTests struct {
	tests    []*labtest.LabTest
	patients *memPatients
}

func (m *memTests) Create(_ context.Context, t *labtest.LabTest) error {
	t.ID = len(m.tests) + 1
	t.DateConducted = time.Now()
	m.tests = append(m.tests, t)
	return nil
}

func (m *memTests) ListByPatient(_ context.Context, patientID int) ([]*labtest.LabTest, error) {
	var result []*labtest.LabTest
	for _, t := range m.tests {
		if t.PatientID == patientID {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *memTests) ListAll(_ context.Context, ownerID *int) ([]*labtest.WithPatient, error) {
	var result []*labtest.WithPatient
	for _, t := range m.tests {
		p, ok := m.patients.patients[t.PatientID]
		if !ok || (ownerID != nil && p.CreatedBy != *ownerID) {
			continue
		}
		result = append(result, &labtest.WithPatient{LabTest: *t, PatientName: p.Name})
	}
	return result, nil
}

type memRanges struct {
	ranges []*refrange.Range
}

func (m *memRanges) Create(_ context.Context, r *refrange.Range) error {
	r.ID = len(m.ranges) + 1
	m.ranges = append(m.ranges, r)
	return nil
}

func (m *memRanges) GetByID(_ context.Context, id int) (*refrange.Range, error) {
	for _, r := range m.ranges {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memRanges) Update(_ context.Context, r *refrange.Range) error {
	for i, existing := range m.ranges {
		if existing.ID == r.ID {
			m.ranges[i] = r
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *memRanges) Delete(_ context.Context, id int) error {
	for i, r := range m.ranges {
		if r.ID == id {
			m.ranges = append(m.ranges[:i], m.ranges[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *memRanges) List(_ context.Context, filter string, limit, offset int) ([]*refrange.Range, int, error) {
	return m.ranges, len(m.ranges), nil
}

func (m *memRanges) Find(_ context.Context, testType, parameter string) (*refrange.Range, error) {
	for _, r := range m.ranges {
		if !strings.EqualFold(r.Parameter, parameter) {
			continue
		}
		if testType == "" || strings.EqualFold(r.TestType, testType) {
			return r, nil
		}
	}
	return nil, nil
}

type memCounts struct {
	patients *memPatients
	tests    *memTests
}

func (m *memCounts) Counts(_ context.Context, ownerID *int) (dashboard.Summary, error) {
	var s dashboard.Summary
	for _, p := range m.patients.patients {
		if ownerID == nil || p.CreatedBy == *ownerID {
			s.PatientCount++
		}
	}
	for _, t := range m.tests.tests {
		p, ok := m.patients.patients[t.PatientID]
		if !ok || (ownerID != nil && p.CreatedBy != *ownerID) {
			continue
		}
		s.TestCount++
		if t.Flagged {
			s.AbnormalCount++
		}
	}
	return s, nil
}

// newTestServer wires the full route surface over in-memory stores,
// mirroring runServer, with a baseline hemoglobin range loaded.
func newTestServer() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = apperror.HTTPErrorHandler(zerolog.Nop())

	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	requireAuth := auth.RequireAuth(issuer)
	optionalAuth := auth.OptionalAuth(issuer)

	users := &memUsers{}
	identity.NewHandler(identity.NewService(users, issuer)).RegisterRoutes(e, requireAuth)

	patients := newMemPatients()
	patient.NewHandler(patient.NewService(patients)).RegisterRoutes(e, requireAuth, optionalAuth)

	ranges := &memRanges{}
	ranges.Create(context.Background(), &refrange.Range{
		TestType: "CBC", Parameter: "hemoglobin",
		NormalMin: f(13.5), NormalMax: f(17.5), Units: "g/dL",
	})
	rangeSvc := refrange.NewService(ranges)
	refrange.NewHandler(rangeSvc).RegisterRoutes(e, optionalAuth,
		auth.RequireRoleIfAuthenticated("admin", "lab_tech"))

	tests := &memTests{patients: patients}
	testSvc := labtest.NewService(tests, patients, labtest.NewEvaluator(rangeSvc))
	labtest.NewHandler(testSvc).RegisterRoutes(e, requireAuth)

	counts := &memCounts{patients: patients, tests: tests}
	dashboard.NewHandler(dashboard.NewService(counts)).RegisterRoutes(e, optionalAuth)

	return e
}

func do(e *echo.Echo, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestLabWorkflow(t *testing.T) {
	e := newTestServer()

	// register
	rec := do(e, http.MethodPost, "/auth/register", "",
		`{"name":"Ada","email":"ada@lab.test","password":"s3cret"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}

	// login
	rec = do(e, http.MethodPost, "/auth/login", "",
		`{"email":"ada@lab.test","password":"s3cret"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var login struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &login); err != nil || login.AccessToken == "" {
		t.Fatalf("login: no access token in %s", rec.Body.String())
	}
	token := login.AccessToken

	// create a patient
	rec = do(e, http.MethodPost, "/patients", token,
		`{"name":"Jane Doe","dob":"1985-03-12","gender":"female"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create patient: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var created struct {
		Patient struct {
			ID int `json:"id"`
		} `json:"patient"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil || created.Patient.ID == 0 {
		t.Fatalf("create patient: no id in %s", rec.Body.String())
	}

	// record a low hemoglobin result
	rec = do(e, http.MethodPost, "/tests", token,
		`{"parameter":"hemoglobin","result_values":{"value":12.0,"unit":"g/dL"},"patient_id":1}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create test: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var test struct {
		Flagged  bool              `json:"flagged"`
		Statuses map[string]string `json:"statuses"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &test); err != nil {
		t.Fatalf("create test: invalid body %s", rec.Body.String())
	}
	if !test.Flagged || test.Statuses["value"] != "low" {
		t.Errorf("expected flagged low result, got %s", rec.Body.String())
	}

	// a test without auth must be rejected
	rec = do(e, http.MethodPost, "/tests", "",
		`{"parameter":"hemoglobin","result_values":{"value":12.0,"unit":"g/dL"},"patient_id":1}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated test create: expected 401, got %d", rec.Code)
	}

	// the summary reflects the flagged test
	rec = do(e, http.MethodGet, "/dashboard/summary", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var summary map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("summary: invalid body %s", rec.Body.String())
	}
	if summary["patientCount"] != float64(1) || summary["testCount"] != float64(1) ||
		summary["abnormalCount"] != float64(1) {
		t.Errorf("unexpected summary: %s", rec.Body.String())
	}
	if summary["authenticated"] != true {
		t.Error("expected authenticated summary")
	}

	// summary is idempotent
	again := do(e, http.MethodGet, "/dashboard/summary", token, "")
	if again.Body.String() != rec.Body.String() {
		t.Errorf("summary changed between reads: %s vs %s", rec.Body.String(), again.Body.String())
	}
}
