// Package api serves health, metrics, run status, stored results and plugin
// function calls over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"tick-feature-lab/internal/domain"
	"tick-feature-lab/internal/observability"
	"tick-feature-lab/internal/plugin"
	"tick-feature-lab/internal/storage"
)

// Options configures the router.
type Options struct {
	Registry     *plugin.Registry
	BarStore     storage.BarStore     // optional, enables /v1/bars
	SummaryStore storage.SummaryStore // optional, enables /v1/summaries
	Status       func() any           // optional, served at /status
	Logger       *log.Logger
}

type handler struct {
	registry     *plugin.Registry
	barStore     storage.BarStore
	summaryStore storage.SummaryStore
	status       func() any
	logger       *log.Logger
}

// NewRouter builds the HTTP routes.
func NewRouter(opts Options) http.Handler {
	h := &handler{
		registry:     opts.Registry,
		barStore:     opts.BarStore,
		summaryStore: opts.SummaryStore,
		status:       opts.Status,
		logger:       opts.Logger,
	}
	if h.registry == nil {
		h.registry = plugin.NewDefaultRegistry()
	}
	if h.logger == nil {
		h.logger = log.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", observability.Handler())
	r.Get("/status", h.handleStatus)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/functions", h.handleListFunctions)
		r.Post("/functions/{name}", h.handleCallFunction)
		if h.barStore != nil {
			r.Get("/bars/{symbol}", h.handleBars)
		}
		if h.summaryStore != nil {
			r.Get("/summaries/{symbol}", h.handleLatestSummary)
		}
	})
	return r
}

// ErrorResponse is the JSON body of a failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: err.Error(), RequestID: middleware.GetReqID(r.Context())})
}

func (h *handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if h.status == nil {
		render.JSON(w, r, map[string]string{"status": "running"})
		return
	}
	render.JSON(w, r, h.status())
}

func (h *handler) handleListFunctions(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.registry.List())
}

// CallRequest is the body of a function call.
type CallRequest struct {
	Inputs []*plugin.Series `json:"inputs"`
	Kwargs json.RawMessage  `json:"kwargs,omitempty"`
}

func (h *handler) handleCallFunction(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req CallRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.fail(w, r, http.StatusBadRequest, err)
		return
	}
	kw, err := plugin.ParseKwargs(req.Kwargs)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, err)
		return
	}

	start := time.Now()
	out, err := h.registry.Call(r.Context(), name, req.Inputs, kw)
	observability.RecordFunctionCall(name, time.Since(start).Seconds(), err)
	if err != nil {
		h.fail(w, r, callStatus(err), err)
		return
	}
	render.JSON(w, r, out)
}

// callStatus maps plugin errors to HTTP status codes.
func callStatus(err error) int {
	switch {
	case errors.Is(err, plugin.ErrUnknownFunction):
		return http.StatusNotFound
	case errors.Is(err, plugin.ErrInvalidOperation),
		errors.Is(err, plugin.ErrUnsupportedType),
		errors.Is(err, plugin.ErrLookup):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// seriesKind reads the kind query parameter, defaulting to dollar bars.
func seriesKind(r *http.Request) (domain.BarKind, error) {
	raw := r.URL.Query().Get("kind")
	if raw == "" {
		return domain.BarKindDollar, nil
	}
	return domain.ParseBarKind(raw)
}

func (h *handler) handleBars(w http.ResponseWriter, r *http.Request) {
	kind, err := seriesKind(r)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, err)
		return
	}

	bars, err := h.barStore.GetBySymbol(r.Context(), chi.URLParam(r, "symbol"), kind)
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	if bars == nil {
		bars = []domain.Bar{}
	}
	render.JSON(w, r, bars)
}

func (h *handler) handleLatestSummary(w http.ResponseWriter, r *http.Request) {
	kind, err := seriesKind(r)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, err)
		return
	}

	summary, err := h.summaryStore.GetLatest(r.Context(), chi.URLParam(r, "symbol"), kind)
	if errors.Is(err, storage.ErrNotFound) {
		h.fail(w, r, http.StatusNotFound, err)
		return
	}
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	render.JSON(w, r, summary)
}
