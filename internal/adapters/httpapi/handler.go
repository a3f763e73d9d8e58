// Package httpapi exposes the people, relationship, network and export
// operations over HTTP/JSON.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"peoplenet/docs/schema/openapi"
	"peoplenet/internal/adapters/exports"
	"peoplenet/internal/core"
	"peoplenet/pkg/domain"
)

// Service is the subset of *core.Service the handler calls.
type Service interface {
	ListPeople(ctx context.Context) ([]domain.Person, error)
	GetPerson(ctx context.Context, id int64) (domain.Person, error)
	CreatePerson(ctx context.Context, in domain.PersonInput) (domain.Person, error)
	UpdatePerson(ctx context.Context, id int64, in domain.PersonInput) (domain.Person, error)
	DeletePerson(ctx context.Context, id int64) error
	ListRelationships(ctx context.Context) ([]domain.Relationship, error)
	CreateRelationship(ctx context.Context, in domain.RelationshipInput) (domain.Relationship, error)
	DeleteRelationship(ctx context.Context, id int64) error
	Network(ctx context.Context, id int64) (domain.Network, error)
	Seed(ctx context.Context, reset bool) (core.SeedResult, error)
	Health(ctx context.Context) error
}

// ExportScheduler queues and serves network exports.
type ExportScheduler interface {
	Enqueue(ctx context.Context, in exports.Input) (exports.Record, error)
	Get(id string) (exports.Record, bool)
	OpenArtifact(ctx context.Context, exportID, artifactID string) (exports.Artifact, []byte, error)
}

var _ Service = (*core.Service)(nil)
var _ ExportScheduler = (*exports.Worker)(nil)

// Handler routes API requests to the service.
type Handler struct {
	svc     Service
	exports ExportScheduler
	metrics http.Handler
	logger  *slog.Logger
	mux     *http.ServeMux
}

// Option configures a Handler.
type Option func(*Handler)

// WithExports enables the export endpoints.
func WithExports(s ExportScheduler) Option {
	return func(h *Handler) { h.exports = s }
}

// WithMetricsHandler serves h at GET /metrics.
func WithMetricsHandler(m http.Handler) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHandler builds the router.
func NewHandler(svc Service, opts ...Option) *Handler {
	h := &Handler{svc: svc, logger: slog.Default(), mux: http.NewServeMux()}
	for _, opt := range opts {
		opt(h)
	}
	h.routes()
	return h
}

func (h *Handler) routes() {
	h.mux.HandleFunc("GET /people", h.listPeople)
	h.mux.HandleFunc("POST /people", h.createPerson)
	h.mux.HandleFunc("GET /people/{id}", h.getPerson)
	h.mux.HandleFunc("PUT /people/{id}", h.updatePerson)
	h.mux.HandleFunc("DELETE /people/{id}", h.deletePerson)

	h.mux.HandleFunc("GET /relationships", h.listRelationships)
	h.mux.HandleFunc("POST /relationships", h.createRelationship)
	h.mux.HandleFunc("DELETE /relationships/{id}", h.deleteRelationship)

	h.mux.HandleFunc("GET /network/{id}", h.network)
	h.mux.HandleFunc("POST /seed", h.seed)

	if h.exports != nil {
		h.mux.HandleFunc("POST /network/{id}/exports", h.createExport)
		h.mux.HandleFunc("GET /exports/{id}", h.getExport)
		h.mux.HandleFunc("GET /exports/{id}/artifacts/{artifactID}", h.getArtifact)
	}

	h.mux.HandleFunc("GET /healthz", h.health)
	h.mux.HandleFunc("GET /openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(openapi.Spec())
	})
	if h.metrics != nil {
		h.mux.Handle("GET /metrics", h.metrics)
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	withRequestLogging(h.logger, h.mux).ServeHTTP(w, r)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// decodeBody treats an empty body as an empty object. Inputs that decode
// field by field report wrong-typed fields as validation failures, so only
// syntax errors and non-object payloads end here.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return false
	}
	return true
}

func (h *Handler) listPeople(w http.ResponseWriter, r *http.Request) {
	people, err := h.svc.ListPeople(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, people)
}

func (h *Handler) getPerson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.GetPerson(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) createPerson(w http.ResponseWriter, r *http.Request) {
	var in domain.PersonInput
	if !decodeBody(w, r, &in) {
		return
	}
	p, err := h.svc.CreatePerson(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) updatePerson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in domain.PersonInput
	if !decodeBody(w, r, &in) {
		return
	}
	p, err := h.svc.UpdatePerson(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) deletePerson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeletePerson(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listRelationships(w http.ResponseWriter, r *http.Request) {
	rels, err := h.svc.ListRelationships(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rels)
}

func (h *Handler) createRelationship(w http.ResponseWriter, r *http.Request) {
	var in domain.RelationshipInput
	if !decodeBody(w, r, &in) {
		return
	}
	rel, err := h.svc.CreateRelationship(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rel)
}

func (h *Handler) deleteRelationship(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteRelationship(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) network(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	n, err := h.svc.Network(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *Handler) seed(w http.ResponseWriter, r *http.Request) {
	// only the literal "true" clears; any other value seeds on top
	reset := r.URL.Query().Get("clear") == "true"
	res, err := h.svc.Seed(r.Context(), reset)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Health(r.Context()); err != nil {
		h.logger.Warn("health check failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type exportRequest struct {
	Formats     []string `json:"formats"`
	RequestedBy string   `json:"requested_by"`
}

func (h *Handler) createExport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req exportRequest
	if !decodeBody(w, r, &req) {
		return
	}
	formats := make([]exports.Format, 0, len(req.Formats))
	for _, raw := range req.Formats {
		f, err := exports.ParseFormat(strings.ToLower(strings.TrimSpace(raw)))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		formats = append(formats, f)
	}
	rec, err := h.exports.Enqueue(r.Context(), exports.Input{
		PersonID:    id,
		Formats:     formats,
		RequestedBy: req.RequestedBy,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, rec)
}

func (h *Handler) getExport(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.exports.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "export not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) getArtifact(w http.ResponseWriter, r *http.Request) {
	art, payload, err := h.exports.OpenArtifact(r.Context(), r.PathValue("id"), r.PathValue("artifactID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", art.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
	w.Header().Set("Content-Disposition", `attachment; filename="network-`+art.ID+"."+string(art.Format)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}
