package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/AbrarShakhi/wall-e/internal/alarm"
	"github.com/AbrarShakhi/wall-e/internal/catalog"
	"github.com/AbrarShakhi/wall-e/internal/notify"
	"github.com/AbrarShakhi/wall-e/internal/profile"
	"github.com/AbrarShakhi/wall-e/internal/search"
	"github.com/AbrarShakhi/wall-e/internal/template"
	"github.com/AbrarShakhi/wall-e/internal/updater"
	"github.com/AbrarShakhi/wall-e/pkg/models"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	coordinator *search.Coordinator
	profiles    *profile.Store
	templates   *template.Store
	alarms      *alarm.Store
	scheduler   *alarm.Scheduler
	notifier    *notify.Center
	updates     *updater.Checker
}

// NewHandler creates a new HTTP handler
func NewHandler(coordinator *search.Coordinator, profiles *profile.Store, templates *template.Store, alarms *alarm.Store, scheduler *alarm.Scheduler, notifier *notify.Center, updates *updater.Checker) *Handler {
	return &Handler{
		coordinator: coordinator,
		profiles:    profiles,
		templates:   templates,
		alarms:      alarms,
		scheduler:   scheduler,
		notifier:    notifier,
		updates:     updates,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// TriggerSearch handles POST /v1/search
func (h *Handler) TriggerSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	// Department and semester must match the portal's dropdown text
	// exactly; catch typos here instead of in a failed filter step.
	if req.Config.Department != "" && !catalog.ValidDepartment(req.Config.Department) {
		writeError(w, http.StatusBadRequest, "Unknown department: "+req.Config.Department)
		return
	}
	if req.Config.Semester != "" && !catalog.ValidSemester(req.Config.Semester) {
		writeError(w, http.StatusBadRequest, "Unknown semester: "+req.Config.Semester)
		return
	}

	if err := h.coordinator.Trigger(req); err != nil {
		switch {
		case errors.Is(err, search.ErrBusy):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, search.ErrInvalidConfig):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "SEARCHING"})
}

// GetSearchStatus handles GET /v1/search
func (h *Handler) GetSearchStatus(w http.ResponseWriter, r *http.Request) {
	status := "IDLE"
	if h.coordinator.Searching() {
		status = "SEARCHING"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

// ListProfiles handles GET /v1/profiles
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, profileViews(h.profiles.List()))
}

// GetProfile handles GET /v1/profiles/{id}
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	p, err := h.profiles.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, profileView(p))
}

// CreateProfile handles POST /v1/profiles
func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var p models.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	created, err := h.profiles.Create(p)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, profileView(created))
}

// UpdateProfile handles PUT /v1/profiles/{id}
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var p models.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	updated, err := h.profiles.Update(id, p)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, profileView(updated))
}

// DeleteProfile handles DELETE /v1/profiles/{id}
func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.profiles.Delete(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// profileResponse is a Profile plus its store key, minus the portal
// password. The password never leaves the machine through the API.
type profileResponse struct {
	ID           string `json:"id"`
	StudentName  string `json:"student_name"`
	StudentID    string `json:"student_id"`
	StudentEmail string `json:"student_email"`
	AdvisorEmail string `json:"advisor_email"`
}

func profileView(p models.Profile) profileResponse {
	return profileResponse{
		ID:           p.ID,
		StudentName:  p.StudentName,
		StudentID:    p.StudentID,
		StudentEmail: p.StudentEmail,
		AdvisorEmail: p.AdvisorEmail,
	}
}

func profileViews(profiles []models.Profile) []profileResponse {
	views := make([]profileResponse, 0, len(profiles))
	for _, p := range profiles {
		views = append(views, profileView(p))
	}
	return views
}

// ListAlarms handles GET /v1/alarms
func (h *Handler) ListAlarms(w http.ResponseWriter, r *http.Request) {
	type alarmView struct {
		models.Alarm
		NextRun string `json:"next_run,omitempty"`
	}

	alarms := h.alarms.List()
	views := make([]alarmView, 0, len(alarms))
	for _, a := range alarms {
		v := alarmView{Alarm: a}
		if next := h.scheduler.NextRun(a.ID); !next.IsZero() {
			v.NextRun = next.Format(time.RFC3339)
		}
		views = append(views, v)
	}
	writeJSON(w, http.StatusOK, views)
}

// CreateAlarm handles POST /v1/alarms
func (h *Handler) CreateAlarm(w http.ResponseWriter, r *http.Request) {
	var a models.Alarm
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if !catalog.ValidDepartment(a.Department) {
		writeError(w, http.StatusBadRequest, "Unknown department: "+a.Department)
		return
	}
	if !catalog.ValidSemester(a.Semester) {
		writeError(w, http.StatusBadRequest, "Unknown semester: "+a.Semester)
		return
	}

	created, err := h.alarms.Add(a)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.scheduler.Schedule(created); err != nil {
		// The record exists but cannot be armed; undo rather than
		// leave a dead alarm in the store.
		h.alarms.Remove(created.ID)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// DeleteAlarm handles DELETE /v1/alarms/{id}
func (h *Handler) DeleteAlarm(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	h.scheduler.Cancel(id)
	if err := h.alarms.Remove(id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAllAlarms handles DELETE /v1/alarms
func (h *Handler) DeleteAllAlarms(w http.ResponseWriter, r *http.Request) {
	h.scheduler.CancelAll()
	if err := h.alarms.RemoveAll(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetTemplate handles GET /v1/template
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.templates.Active())
}

// SetTemplate handles PUT /v1/template
func (h *Handler) SetTemplate(w http.ResponseWriter, r *http.Request) {
	var t models.EmailTemplate
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.templates.SetActive(t); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// ResetTemplate handles DELETE /v1/template
func (h *Handler) ResetTemplate(w http.ResponseWriter, r *http.Request) {
	if err := h.templates.ResetActive(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.templates.Active())
}

// ListNotifications handles GET /v1/notifications. Draining is
// destructive: each event is delivered once.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.notifier.Drain())
}

// GetCatalog handles GET /v1/catalog
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{
		"departments": catalog.Departments(),
		"semesters":   catalog.Semesters(),
		"weekdays":    models.WeekdayAbbrevs,
	})
}

// CheckUpdate handles GET /v1/update
func (h *Handler) CheckUpdate(w http.ResponseWriter, r *http.Request) {
	st, err := h.updates.Check(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}
