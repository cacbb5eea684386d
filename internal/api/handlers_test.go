package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/AbrarShakhi/wall-e/internal/alarm"
	"github.com/AbrarShakhi/wall-e/internal/notify"
	"github.com/AbrarShakhi/wall-e/internal/portal"
	"github.com/AbrarShakhi/wall-e/internal/profile"
	"github.com/AbrarShakhi/wall-e/internal/proxy"
	"github.com/AbrarShakhi/wall-e/internal/ratelimit"
	"github.com/AbrarShakhi/wall-e/internal/search"
	"github.com/AbrarShakhi/wall-e/internal/template"
	"github.com/AbrarShakhi/wall-e/internal/updater"
	"github.com/AbrarShakhi/wall-e/pkg/models"
)

// blockingSearcher holds the search slot until released, so tests can
// observe the busy state.
type blockingSearcher struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingSearcher) Run(ctx context.Context, searchID string, creds portal.Credentials, department, semester string) ([]models.SeatRow, error) {
	if b.started != nil {
		close(b.started)
	}
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return nil, ctx.Err()
}

type idlePorts struct{}

func (idlePorts) ActivePort() (string, bool) { return "", false }

func testRouter(t *testing.T, searcher search.Searcher) *mux.Router {
	t.Helper()
	dir := t.TempDir()

	profiles, err := profile.NewStore(filepath.Join(dir, "profiles.json"), "@std.ewubd.edu")
	if err != nil {
		t.Fatalf("profile store: %v", err)
	}
	alarms, err := alarm.NewStore(filepath.Join(dir, "alarms.json"))
	if err != nil {
		t.Fatalf("alarm store: %v", err)
	}
	templates, err := template.NewStore(filepath.Join(dir, "templates.json"))
	if err != nil {
		t.Fatalf("template store: %v", err)
	}

	center := notify.NewCenter()
	scheduler := alarm.NewScheduler(alarms, func(models.Alarm) {})
	coordinator := search.NewCoordinator(searcher, profiles, alarms, scheduler, nil, center, search.Options{})

	h := NewHandler(coordinator, profiles, templates, alarms, scheduler, center, updater.NewChecker("2.0"))
	return h.SetupRoutes(proxy.NewServer(idlePorts{}), ratelimit.NewLimiter(600, 100))
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func validProfileBody() map[string]string {
	return map[string]string{
		"student_name":    "Test Student",
		"student_id":      "2021-1-60-001",
		"portal_password": "secret",
		"student_email":   "test@std.ewubd.edu",
		"advisor_email":   "advisor@ewubd.edu",
	}
}

func TestProfileCRUD(t *testing.T) {
	router := testRouter(t, &blockingSearcher{})

	rec := doJSON(t, router, "POST", "/v1/profiles", validProfileBody())
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	var created profileResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding create response: %v", err)
	}
	if created.ID != "1" {
		t.Errorf("first profile id = %q, want 1", created.ID)
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Error("portal password leaked in API response")
	}

	rec = doJSON(t, router, "GET", "/v1/profiles/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	body := validProfileBody()
	body["student_name"] = "Renamed"
	rec = doJSON(t, router, "PUT", "/v1/profiles/1", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, router, "DELETE", "/v1/profiles/1", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = doJSON(t, router, "GET", "/v1/profiles/1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", rec.Code)
	}
}

func TestCreateProfileRejectsWrongDomain(t *testing.T) {
	router := testRouter(t, &blockingSearcher{})

	body := validProfileBody()
	body["student_email"] = "test@gmail.com"
	rec := doJSON(t, router, "POST", "/v1/profiles", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestTriggerSearchStatusCodes(t *testing.T) {
	searcher := &blockingSearcher{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	router := testRouter(t, searcher)

	doJSON(t, router, "POST", "/v1/profiles", validProfileBody())

	// Incomplete config is rejected before anything runs.
	rec := doJSON(t, router, "POST", "/v1/search", models.SearchRequest{
		Config: models.SearchConfig{ProfileID: "1", CourseCode: "CSE103"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid config status = %d, want 400", rec.Code)
	}

	req := models.SearchRequest{Config: models.SearchConfig{
		ProfileID:  "1",
		Department: "Department of CSE",
		Semester:   "Fall-2024",
		CourseCode: "CSE103",
		Section:    "2",
	}}

	rec = doJSON(t, router, "POST", "/v1/search", req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("trigger status = %d, body %s", rec.Code, rec.Body)
	}
	<-searcher.started

	rec = doJSON(t, router, "GET", "/v1/search", nil)
	if !strings.Contains(rec.Body.String(), "SEARCHING") {
		t.Errorf("status body = %s, want SEARCHING", rec.Body)
	}

	// Second trigger while the first is in flight.
	rec = doJSON(t, router, "POST", "/v1/search", req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("concurrent trigger status = %d, want 409", rec.Code)
	}

	close(searcher.release)
}

func TestAlarmEndpoints(t *testing.T) {
	router := testRouter(t, &blockingSearcher{})

	a := models.Alarm{
		Time:       "09:30",
		RepeatDays: []string{"Mon", "Wed"},
		CourseCode: "CSE103",
		Section:    "2",
		Department: "Department of CSE",
		Semester:   "Fall-2024",
		Profile: models.Profile{
			StudentName:    "Test Student",
			StudentID:      "2021-1-60-001",
			PortalPassword: "secret",
			StudentEmail:   "test@std.ewubd.edu",
			AdvisorEmail:   "advisor@ewubd.edu",
		},
	}

	rec := doJSON(t, router, "POST", "/v1/alarms", a)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create alarm status = %d, body %s", rec.Code, rec.Body)
	}
	var created models.Alarm
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding alarm: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created alarm has no id")
	}

	rec = doJSON(t, router, "GET", "/v1/alarms", nil)
	if !strings.Contains(rec.Body.String(), created.ID) {
		t.Errorf("alarm list missing %s: %s", created.ID, rec.Body)
	}

	rec = doJSON(t, router, "DELETE", "/v1/alarms/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete alarm status = %d", rec.Code)
	}
}

func TestCreateAlarmRejectsUnknownDepartment(t *testing.T) {
	router := testRouter(t, &blockingSearcher{})

	a := models.Alarm{
		Time:       "09:30",
		CourseCode: "CSE103",
		Section:    "2",
		Department: "Department of Magic",
		Semester:   "Fall-2024",
	}
	rec := doJSON(t, router, "POST", "/v1/alarms", a)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestTemplateEndpoints(t *testing.T) {
	router := testRouter(t, &blockingSearcher{})

	rec := doJSON(t, router, "GET", "/v1/template", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get template status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "{course_code}") {
		t.Errorf("default template missing placeholder: %s", rec.Body)
	}

	custom := models.EmailTemplate{Subject: "Seat open: {course_code}", Body: "Section {section} has room."}
	rec = doJSON(t, router, "PUT", "/v1/template", custom)
	if rec.Code != http.StatusOK {
		t.Fatalf("set template status = %d, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, router, "GET", "/v1/template", nil)
	if !strings.Contains(rec.Body.String(), "Seat open") {
		t.Errorf("active template not updated: %s", rec.Body)
	}

	rec = doJSON(t, router, "DELETE", "/v1/template", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset template status = %d", rec.Code)
	}
	rec = doJSON(t, router, "GET", "/v1/template", nil)
	if strings.Contains(rec.Body.String(), "Seat open") {
		t.Errorf("template not reset: %s", rec.Body)
	}
}

func TestCatalogEndpoint(t *testing.T) {
	router := testRouter(t, &blockingSearcher{})

	rec := doJSON(t, router, "GET", "/v1/catalog", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	for _, want := range []string{"Department of CSE", "Fall-2024", "Mon"} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("catalog missing %q", want)
		}
	}
}

func TestNotificationsDrainOnce(t *testing.T) {
	searcher := &blockingSearcher{}
	router := testRouter(t, searcher)

	// An invalid trigger through the coordinator's alarm path queues
	// an error event.
	rec := doJSON(t, router, "GET", "/v1/notifications", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var first []notify.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &first); err != nil {
		t.Fatalf("decoding notifications: %v", err)
	}
	if len(first) != 0 {
		t.Errorf("expected empty queue, got %v", first)
	}
}

func TestRateLimitExceeded(t *testing.T) {
	searcher := &blockingSearcher{}
	dir := t.TempDir()
	profiles, _ := profile.NewStore(filepath.Join(dir, "profiles.json"), "@std.ewubd.edu")
	alarms, _ := alarm.NewStore(filepath.Join(dir, "alarms.json"))
	templates, _ := template.NewStore(filepath.Join(dir, "templates.json"))
	center := notify.NewCenter()
	scheduler := alarm.NewScheduler(alarms, func(models.Alarm) {})
	coordinator := search.NewCoordinator(searcher, profiles, alarms, scheduler, nil, center, search.Options{})
	h := NewHandler(coordinator, profiles, templates, alarms, scheduler, center, updater.NewChecker("2.0"))
	router := h.SetupRoutes(proxy.NewServer(idlePorts{}), ratelimit.NewLimiter(1, 1))

	rec := doJSON(t, router, "POST", "/v1/profiles", validProfileBody())
	if rec.Code != http.StatusCreated {
		t.Fatalf("first request status = %d", rec.Code)
	}
	rec = doJSON(t, router, "POST", "/v1/profiles", validProfileBody())
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
}
