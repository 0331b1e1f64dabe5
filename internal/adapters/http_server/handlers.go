package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"nps_survey/internal/app"
	"nps_survey/internal/domain"
)

const maxBodyBytes = 1 << 20

const (
	titleValidation = "One or more validation errors occurred."
	titleBadBody    = "Invalid request body"
	titleFailure    = "Submission failed"
	detailFailure   = "The survey could not be saved. Please try again."
	titleUnavail    = "Analytics unavailable"
	detailUnavail   = "Analytics could not be computed. Please try again."
)

type Handlers struct {
	S *app.SubmissionService
	Q *app.AnalyticsService
}

type problem struct {
	Type   string              `json:"type"`
	Title  string              `json:"title"`
	Status int                 `json:"status"`
	Detail string              `json:"detail,omitempty"`
	Errors map[string][]string `json:"errors,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Post("/api/survey", h.submit)
	s.mux.Get("/api/survey/nps", h.getNPS)
	s.mux.Get("/api/survey/average", h.getAverage)
	s.mux.Get("/api/survey/distribution", h.getDistribution)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	writeProblemBody(w, problem{Type: "about:blank", Title: title, Status: status, Detail: detail})
}

func writeValidationProblem(w http.ResponseWriter, fields map[string][]string) {
	writeProblemBody(w, problem{Type: "about:blank", Title: titleValidation, Status: http.StatusBadRequest, Errors: fields})
}

func writeProblemBody(w http.ResponseWriter, p problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// writeServiceError maps the error taxonomy to a response. Storage details are
// logged, never returned.
func writeServiceError(w http.ResponseWriter, err error, title, detail string) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeValidationProblem(w, ve.Fields)
		return
	}
	log.Error().Err(err).Msg(title)
	writeProblem(w, http.StatusInternalServerError, title, detail)
}

// decodeBody decodes JSON into dst. A type error on the rating field becomes
// a field error so clients see the same message as a range violation.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var te *json.UnmarshalTypeError
		if errors.As(err, &te) && (te.Field == domain.FieldRating || strings.HasSuffix(te.Field, "."+domain.FieldRating)) {
			writeValidationProblem(w, map[string][]string{domain.FieldRating: {domain.MsgRatingRange}})
			return false
		}
		writeProblem(w, http.StatusBadRequest, titleBadBody, "body must be valid JSON matching the survey schema")
		return false
	}
	// exactly one JSON value per body
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		writeProblem(w, http.StatusBadRequest, titleBadBody, "body must contain a single JSON value")
		return false
	}
	return true
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCacheable writes v with a weak ETag, answering 304 when the client has it.
func writeCacheable(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if etag == "" {
		writeProblem(w, http.StatusInternalServerError, titleUnavail, detailUnavail)
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write analytics body")
	}
}

func (h *Handlers) submit(w http.ResponseWriter, r *http.Request) {
	var sub domain.Submission
	if !decodeBody(w, r, &sub) {
		return
	}
	rec, err := h.S.Submit(r.Context(), sub)
	if err != nil {
		writeServiceError(w, err, titleFailure, detailFailure)
		return
	}
	w.Header().Set("Location", "/api/survey/"+rec.ID)
	writeJSON(w, http.StatusCreated, domain.CreatedResponse{ID: rec.ID})
}

func (h *Handlers) getNPS(w http.ResponseWriter, r *http.Request) {
	nps, err := h.Q.GetNPS(r.Context())
	if err != nil {
		writeServiceError(w, err, titleUnavail, detailUnavail)
		return
	}
	writeCacheable(w, r, domain.NPSResponse{NPS: nps})
}

func (h *Handlers) getAverage(w http.ResponseWriter, r *http.Request) {
	avg, err := h.Q.GetAverage(r.Context())
	if err != nil {
		writeServiceError(w, err, titleUnavail, detailUnavail)
		return
	}
	writeCacheable(w, r, domain.AverageResponse{Average: avg})
}

func (h *Handlers) getDistribution(w http.ResponseWriter, r *http.Request) {
	dist, err := h.Q.GetDistribution(r.Context())
	if err != nil {
		writeServiceError(w, err, titleUnavail, detailUnavail)
		return
	}
	writeCacheable(w, r, dist)
}
