package api

import (
	"github.com/gorilla/mux"

	"github.com/AbrarShakhi/wall-e/internal/proxy"
	"github.com/AbrarShakhi/wall-e/internal/ratelimit"
)

// SetupRoutes configures all HTTP routes
func (h *Handler) SetupRoutes(proxyServer *proxy.Server, rateLimiter *ratelimit.Limiter) *mux.Router {
	r := mux.NewRouter()

	// API v1 routes
	api := r.PathPrefix("/v1").Subrouter()

	// Apply rate limiting middleware to the mutating endpoints
	rateLimitedAPI := api.PathPrefix("").Subrouter()
	rateLimitedAPI.Use(RateLimitMiddleware(rateLimiter, 60))

	// Search endpoints (rate limited)
	rateLimitedAPI.HandleFunc("/search", h.TriggerSearch).Methods("POST")

	// Profile endpoints (rate limited)
	rateLimitedAPI.HandleFunc("/profiles", h.CreateProfile).Methods("POST")
	rateLimitedAPI.HandleFunc("/profiles/{id}", h.UpdateProfile).Methods("PUT")
	rateLimitedAPI.HandleFunc("/profiles/{id}", h.DeleteProfile).Methods("DELETE")

	// Alarm endpoints (rate limited)
	rateLimitedAPI.HandleFunc("/alarms", h.CreateAlarm).Methods("POST")
	rateLimitedAPI.HandleFunc("/alarms", h.DeleteAllAlarms).Methods("DELETE")
	rateLimitedAPI.HandleFunc("/alarms/{id}", h.DeleteAlarm).Methods("DELETE")

	// Read endpoints (not rate limited - frequent polling)
	api.HandleFunc("/search", h.GetSearchStatus).Methods("GET")
	api.HandleFunc("/profiles", h.ListProfiles).Methods("GET")
	api.HandleFunc("/profiles/{id}", h.GetProfile).Methods("GET")
	api.HandleFunc("/alarms", h.ListAlarms).Methods("GET")
	api.HandleFunc("/notifications", h.ListNotifications).Methods("GET")
	api.HandleFunc("/catalog", h.GetCatalog).Methods("GET")
	api.HandleFunc("/update", h.CheckUpdate).Methods("GET")

	// Template endpoints
	api.HandleFunc("/template", h.GetTemplate).Methods("GET")
	api.HandleFunc("/template", h.SetTemplate).Methods("PUT")
	api.HandleFunc("/template", h.ResetTemplate).Methods("DELETE")

	// Debug endpoint: attach DevTools to the browser behind the
	// in-flight search
	api.HandleFunc("/search/ws", proxyServer.HandleDebugConnection).Methods("GET")

	// CORS middleware
	r.Use(corsMiddleware)

	return r
}
