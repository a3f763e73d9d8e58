// Package exports renders network projections into downloadable artifacts
// (JSON, CSV, Graphviz DOT, PNG and PDF) on a background worker and stores
// them in a blob store.
package exports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"time"

	"peoplenet/internal/blob"
	"peoplenet/internal/core"
	"peoplenet/pkg/domain"

	"github.com/google/uuid"
)

// Format names an artifact encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatDOT  Format = "dot"
	FormatPNG  Format = "png"
	FormatPDF  Format = "pdf"
)

// DefaultFormats is used when a request names none.
var DefaultFormats = []Format{FormatJSON, FormatPNG}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatJSON, FormatCSV, FormatDOT, FormatPNG, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Status describes the lifecycle stage of an export request.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

var (
	// ErrQueueFull is returned when the worker cannot accept more jobs.
	ErrQueueFull = errors.New("export queue full")
	// ErrUnsupportedFormat rejects unknown format names.
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// Artifact is one stored rendering of a projection.
type Artifact struct {
	ID          string    `json:"id"`
	Format      Format    `json:"format"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Key         string    `json:"key"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Record tracks an export request and its artifacts.
type Record struct {
	ID          string     `json:"id"`
	PersonID    int64      `json:"person_id"`
	Formats     []Format   `json:"formats"`
	Status      Status     `json:"status"`
	Error       string     `json:"error,omitempty"`
	Artifacts   []Artifact `json:"artifacts,omitempty"`
	RequestedBy string     `json:"requested_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (r Record) copy() Record {
	dup := r
	dup.Formats = append([]Format(nil), r.Formats...)
	if len(r.Artifacts) > 0 {
		dup.Artifacts = append([]Artifact(nil), r.Artifacts...)
	}
	return dup
}

// Artifact looks up an artifact by id.
func (r Record) Artifact(id string) (Artifact, bool) {
	for _, a := range r.Artifacts {
		if a.ID == id {
			return a, true
		}
	}
	return Artifact{}, false
}

// Input is an enqueue request.
type Input struct {
	PersonID    int64
	Formats     []Format
	RequestedBy string
}

// NetworkSource supplies the projections to render.
type NetworkSource interface {
	GetPerson(ctx context.Context, id int64) (domain.Person, error)
	Network(ctx context.Context, id int64) (domain.Network, error)
}

// Worker executes exports asynchronously on a single goroutine.
type Worker struct {
	source NetworkSource
	store  blob.Store
	logger core.Logger
	now    func() time.Time

	queue chan string
	mu    sync.RWMutex
	jobs  map[string]*Record

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Worker.
type Option func(*Worker)

// WithLogger sets the worker logger.
func WithLogger(l core.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithQueueSize bounds the number of pending jobs.
func WithQueueSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.queue = make(chan string, n)
		}
	}
}

// NewWorker constructs an export worker. Call Start to begin processing.
func NewWorker(source NetworkSource, store blob.Store, opts ...Option) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		source: source,
		store:  store,
		logger: core.NewSlogLogger(nil),
		now:    func() time.Time { return time.Now().UTC() },
		queue:  make(chan string, 32),
		jobs:   make(map[string]*Record),
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins processing export requests.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for the in-flight job.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case id := <-w.queue:
			w.process(id)
		}
	}
}

// Enqueue validates the request and schedules an export. The person must
// exist; formats are deduplicated in request order.
func (w *Worker) Enqueue(ctx context.Context, in Input) (Record, error) {
	formats := in.Formats
	if len(formats) == 0 {
		formats = DefaultFormats
	}
	uniq := make([]Format, 0, len(formats))
	seen := make(map[Format]struct{}, len(formats))
	for _, f := range formats {
		if _, err := ParseFormat(string(f)); err != nil {
			return Record{}, err
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		uniq = append(uniq, f)
	}
	if _, err := w.source.GetPerson(ctx, in.PersonID); err != nil {
		return Record{}, err
	}

	now := w.now()
	record := &Record{
		ID:          uuid.NewString(),
		PersonID:    in.PersonID,
		Formats:     uniq,
		Status:      StatusQueued,
		RequestedBy: in.RequestedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.mu.Lock()
	w.jobs[record.ID] = record
	snapshot := record.copy()
	w.mu.Unlock()

	select {
	case w.queue <- record.ID:
	default:
		w.mu.Lock()
		delete(w.jobs, record.ID)
		w.mu.Unlock()
		return Record{}, ErrQueueFull
	}
	w.logger.Info("export queued", "export_id", record.ID, "person_id", in.PersonID, "formats", uniq)
	return snapshot, nil
}

// Get returns a snapshot of the export record.
func (w *Worker) Get(id string) (Record, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	record, ok := w.jobs[id]
	if !ok {
		return Record{}, false
	}
	return record.copy(), true
}

// OpenArtifact streams a stored artifact of a completed export.
func (w *Worker) OpenArtifact(ctx context.Context, exportID, artifactID string) (Artifact, []byte, error) {
	record, ok := w.Get(exportID)
	if !ok {
		return Artifact{}, nil, fmt.Errorf("export %s: %w", exportID, blob.ErrNotFound)
	}
	art, ok := record.Artifact(artifactID)
	if !ok {
		return Artifact{}, nil, fmt.Errorf("artifact %s: %w", artifactID, blob.ErrNotFound)
	}
	_, rc, err := w.store.Get(ctx, art.Key)
	if err != nil {
		return Artifact{}, nil, err
	}
	defer func() { _ = rc.Close() }()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		return Artifact{}, nil, fmt.Errorf("read artifact %s: %w", art.Key, err)
	}
	return art, buf.Bytes(), nil
}

func (w *Worker) process(id string) {
	record, ok := w.Get(id)
	if !ok {
		return
	}
	w.update(id, func(r *Record) { r.Status = StatusRunning })

	network, err := w.source.Network(w.ctx, record.PersonID)
	if err != nil {
		w.fail(id, fmt.Errorf("project network: %w", err))
		return
	}

	artifacts := make([]Artifact, 0, len(record.Formats))
	for _, format := range record.Formats {
		payload, err := Render(format, network)
		if err != nil {
			w.fail(id, err)
			return
		}
		art, err := w.put(id, format, payload)
		if err != nil {
			w.fail(id, fmt.Errorf("store %s artifact: %w", format, err))
			return
		}
		artifacts = append(artifacts, art)
	}

	now := w.now()
	w.update(id, func(r *Record) {
		r.Status = StatusSucceeded
		r.Error = ""
		r.Artifacts = artifacts
		r.CompletedAt = &now
	})
	w.logger.Info("export succeeded", "export_id", id, "artifacts", len(artifacts))
}

func (w *Worker) put(exportID string, format Format, payload []byte) (Artifact, error) {
	artID := uuid.NewString()
	key := path.Join("exports", exportID, artID+"."+string(format))
	contentType := ContentType(format)
	info, err := w.store.Put(w.ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"export_id": exportID, "format": string(format)},
	})
	if err != nil {
		return Artifact{}, err
	}
	art := Artifact{
		ID:          artID,
		Format:      format,
		ContentType: contentType,
		SizeBytes:   info.Size,
		Key:         key,
		CreatedAt:   w.now(),
	}
	if url, err := w.store.PresignURL(w.ctx, key, blob.SignedURLOptions{}); err == nil {
		art.URL = url
	} else if !errors.Is(err, blob.ErrUnsupported) {
		w.logger.Warn("presign artifact failed", "key", key, "error", err)
	}
	return art, nil
}

func (w *Worker) update(id string, fn func(*Record)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if record, ok := w.jobs[id]; ok {
		fn(record)
		record.UpdatedAt = w.now()
	}
}

func (w *Worker) fail(id string, err error) {
	now := w.now()
	w.update(id, func(r *Record) {
		r.Status = StatusFailed
		r.Error = err.Error()
		r.CompletedAt = &now
	})
	w.logger.Error("export failed", "export_id", id, "error", err)
}
