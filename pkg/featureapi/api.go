// Package featureapi exposes a feature.Manager and its feature.Lookup over HTTP.
//
//	GET    /features/{id}?discriminator=u1  decision for one caller
//	GET    /features/{id}/percentage        stored rollout percentage
//	PUT    /features/{id}/percentage        {"percentage": 0.5}
//	DELETE /features/{id}/percentage        remove the record
//	POST   /features/{id}/invalidate        drop the cached evaluator
//
// Writes invalidate the cached evaluator of the feature they change, so the
// next decision on this instance reflects them immediately. Other instances
// catch up within their refresh window.
package featureapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/featureflag/pkg/feature"
	"github.com/dmitrymomot/featureflag/pkg/logger"
)

// maxBodyBytes bounds PUT bodies; a percentage document is tiny.
const maxBodyBytes = 1 << 10

type DecisionResponse struct {
	Feature       string `json:"feature"`
	Discriminator string `json:"discriminator"`
	Enabled       bool   `json:"enabled"`
}

type PercentageRequest struct {
	Percentage *float64 `json:"percentage"`
}

type PercentageResponse struct {
	Feature    string  `json:"feature"`
	Percentage float64 `json:"percentage"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type handler struct {
	manager feature.Manager
	lookup  feature.Lookup
	logger  *slog.Logger
}

// Router returns the API routes. lookup should be the decorated lookup of
// the client behind manager so writes are observed by the same decorators.
func Router(manager feature.Manager, lookup feature.Lookup, log *slog.Logger) chi.Router {
	if log == nil {
		log = logger.Discard()
	}
	h := &handler{manager: manager, lookup: lookup, logger: log.With(logger.Component("featureapi"))}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Route("/features/{id}", func(r chi.Router) {
		r.Get("/", h.decide)
		r.Get("/percentage", h.getPercentage)
		r.Put("/percentage", h.setPercentage)
		r.Delete("/percentage", h.deletePercentage)
		r.Post("/invalidate", h.invalidate)
	})
	return r
}

func (h *handler) decide(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d := r.URL.Query().Get("discriminator")
	writeJSON(w, http.StatusOK, DecisionResponse{
		Feature:       id,
		Discriminator: d,
		Enabled:       h.manager.IsEnabled(r.Context(), id, d),
	})
}

func (h *handler) getPercentage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, found, err := h.lookup.LookupPercentage(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !found {
		h.fail(w, r, feature.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, PercentageResponse{Feature: id, Percentage: p})
}

func (h *handler) setPercentage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req PercentageRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.fail(w, r, errors.Join(feature.ErrInvalidArgument, err))
		return
	}
	if req.Percentage == nil {
		h.fail(w, r, errors.Join(feature.ErrInvalidArgument, errors.New("percentage is required")))
		return
	}

	accepted, err := h.lookup.SetPercentage(r.Context(), id, *req.Percentage)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !accepted {
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "write was not accepted by the backend"})
		return
	}
	h.manager.Invalidate(r.Context(), id)
	writeJSON(w, http.StatusOK, PercentageResponse{Feature: id, Percentage: *req.Percentage})
}

func (h *handler) deletePercentage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.lookup.DeletePercentage(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.manager.Invalidate(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) invalidate(w http.ResponseWriter, r *http.Request) {
	h.manager.Invalidate(r.Context(), chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "feature request failed",
			logger.Feature(chi.URLParam(r, "id")),
			slog.String("method", r.Method),
			logger.Error(err),
		)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, feature.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, feature.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, feature.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, feature.ErrInvalidRecord):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
