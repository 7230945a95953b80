package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// New constructs a Handler.
func New(db *sqlx.DB, logger zerolog.Logger) *Handler {
	return &Handler{db: db, log: logger}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", h.home)
	r.Get("/health", h.health)

	r.Route("/medications", func(r chi.Router) {
		r.Get("/", h.listMedications)
		r.Post("/", h.createMedication)
		r.Get("/{id}", h.getMedication)
		r.Put("/{id}", h.updateMedication)
		r.Delete("/{id}", h.deleteMedication)
	})

	r.Route("/patients", func(r chi.Router) {
		r.Get("/", h.listPatients)
		r.Post("/", h.createPatient)
		r.Put("/{id}", h.updatePatient)
		r.Delete("/{id}", h.deletePatient)
	})

	r.Route("/dosages", func(r chi.Router) {
		r.Get("/", h.listDosages)
		r.Post("/", h.createDosage)
		r.Put("/{id}", h.updateDosage)
		r.Delete("/{id}", h.deleteDosage)
	})

	r.Get("/alerts", h.listAlerts)

	return r
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "Medication Tracker API"})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger emits one structured log event per request and tags the
// response with a request id.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rid := uuid.NewString()
		w.Header().Set("X-Request-Id", rid)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		h.log.Info().
			Str("request_id", rid).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("latency", time.Since(start)).
			Str("remote_ip", r.RemoteAddr).
			Msg("request")
	})
}

// Helpers

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondMessage(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusOK, map[string]string{"message": message})
}
