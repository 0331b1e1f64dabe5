package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"nps_survey/internal/app"
	"nps_survey/internal/domain"
)

// TestingHandlers give automated scenarios a clean, known data set.
type TestingHandlers struct {
	S      *app.SubmissionService
	Header string
	Secret string
}

func (s *Server) MountTesting(h *TestingHandlers) {
	s.mux.Group(func(r chi.Router) {
		r.Use(RequireSecret(h.Header, h.Secret))
		r.Post("/testing/reset", h.reset)
		r.Post("/testing/seed", h.seed)
	})
	log.Warn().Str("header", h.Header).Msg("testing endpoints mounted")
}

func (h *TestingHandlers) reset(w http.ResponseWriter, r *http.Request) {
	if err := h.S.Reset(r.Context()); err != nil {
		writeServiceError(w, err, "Reset failed", "survey data could not be reset")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *TestingHandlers) seed(w http.ResponseWriter, r *http.Request) {
	var subs []domain.Submission
	if !decodeBody(w, r, &subs) {
		return
	}
	n, err := h.S.Seed(r.Context(), subs)
	if err != nil {
		writeServiceError(w, err, "Seed failed", "survey data could not be seeded")
		return
	}
	writeJSON(w, http.StatusOK, domain.SeedResponse{Count: n})
}
