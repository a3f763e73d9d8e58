package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"peoplenet/internal/adapters/exports"
	"peoplenet/internal/adapters/httpapi"
	"peoplenet/internal/blob"
	"peoplenet/internal/core"
	"peoplenet/pkg/domain"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestIntegrationSmoke drives the HTTP API end to end for each in-process
// store and blob driver: people and relationships in, network projection and
// a rendered export out.
func TestIntegrationSmoke(t *testing.T) {
	storeVariants := []struct {
		name string
		cfg  func(t *testing.T) core.StorageConfig
	}{
		{
			name: "memory-store",
			cfg:  func(*testing.T) core.StorageConfig { return core.StorageConfig{Driver: core.StorageMemory} },
		},
		{
			name: "sqlite-store",
			cfg: func(t *testing.T) core.StorageConfig {
				return core.StorageConfig{Driver: core.StorageSQLite, SQLitePath: filepath.Join(t.TempDir(), "people.db")}
			},
		},
	}
	blobVariants := []struct {
		name string
		cfg  func(t *testing.T) blob.Config
	}{
		{name: "memory-blob", cfg: func(*testing.T) blob.Config { return blob.Config{Driver: blob.DriverMemory} }},
		{name: "filesystem-blob", cfg: func(t *testing.T) blob.Config {
			return blob.Config{Driver: blob.DriverFilesystem, FSRoot: t.TempDir()}
		}},
	}

	for _, sv := range storeVariants {
		for _, bv := range blobVariants {
			t.Run(sv.name+"/"+bv.name, func(t *testing.T) {
				runSmoke(t, sv.cfg(t), bv.cfg(t))
			})
		}
	}
}

func runSmoke(t *testing.T, storeCfg core.StorageConfig, blobCfg blob.Config) {
	ctx := context.Background()

	store, err := core.OpenPersistentStore(ctx, storeCfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = store.Close() }()
	blobs, err := blob.Open(ctx, blobCfg)
	if err != nil {
		t.Fatalf("open blob store: %v", err)
	}

	reg := prometheus.NewRegistry()
	metrics, err := core.NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	spans := tracetest.NewSpanRecorder()
	provider := trace.NewTracerProvider(trace.WithSpanProcessor(spans))
	audit := core.NewJSONAuditRecorder(nil)
	svc := core.NewService(store,
		core.WithMetricsRecorder(metrics),
		core.WithTracer(core.NewOTelTracer(provider)),
		core.WithAuditRecorder(audit),
	)

	worker := exports.NewWorker(svc, blobs)
	worker.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = worker.Stop(stopCtx)
	}()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(httpapi.NewHandler(svc, httpapi.WithLogger(logger), httpapi.WithExports(worker)))
	defer srv.Close()

	pramod := postJSON[domain.Person](t, srv.URL+"/people", `{"name":"Pramod","group_tag":"family"}`, http.StatusCreated)
	amit := postJSON[domain.Person](t, srv.URL+"/people", `{"name":"Amit"}`, http.StatusCreated)
	postJSON[domain.Relationship](t, srv.URL+"/relationships",
		`{"person_id":`+id(pramod.ID)+`,"related_person_id":`+id(amit.ID)+`,"relationship_type":"Brother"}`, http.StatusCreated)
	postJSON[domain.Relationship](t, srv.URL+"/relationships",
		`{"person_id":`+id(amit.ID)+`,"related_person_id":`+id(pramod.ID)+`,"relationship_type":"Brother"}`, http.StatusCreated)

	network := getJSON[domain.Network](t, srv.URL+"/network/"+id(amit.ID))
	if len(network.Nodes) != 2 || len(network.Edges) != 2 {
		t.Fatalf("unexpected projection: %+v", network)
	}
	if network.Nodes[0].ID != amit.ID || network.Nodes[0].Shape != domain.CenterShape {
		t.Fatalf("center must come first: %+v", network.Nodes)
	}
	if network.Nodes[1].Group != domain.GroupFamily {
		t.Fatalf("neighbour group lost: %+v", network.Nodes[1])
	}

	rec := postJSON[exports.Record](t, srv.URL+"/network/"+id(pramod.ID)+"/exports", `{"formats":["png","pdf"]}`, http.StatusAccepted)
	deadline := time.Now().Add(10 * time.Second)
	for rec.Status != exports.StatusSucceeded {
		if rec.Status == exports.StatusFailed || time.Now().After(deadline) {
			t.Fatalf("export did not succeed: %+v", rec)
		}
		time.Sleep(10 * time.Millisecond)
		rec = getJSON[exports.Record](t, srv.URL+"/exports/"+rec.ID)
	}
	listed, err := blobs.List(ctx, "exports/"+rec.ID+"/")
	if err != nil || len(listed) != 2 {
		t.Fatalf("expected two stored artifacts, got %d (err=%v)", len(listed), err)
	}
	var pdfID string
	for _, a := range rec.Artifacts {
		if a.Format == exports.FormatPDF {
			pdfID = a.ID
		}
	}
	resp, err := http.Get(srv.URL + "/exports/" + rec.ID + "/artifacts/" + pdfID)
	if err != nil {
		t.Fatalf("download artifact: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if !bytes.HasPrefix(body, []byte("%PDF-")) {
		t.Fatalf("expected a PDF, got %q", body[:min(len(body), 16)])
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/people/"+id(pramod.ID), nil)
	if resp, err := http.DefaultClient.Do(req); err != nil || resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete person: %v", err)
	} else {
		_ = resp.Body.Close()
	}
	network = getJSON[domain.Network](t, srv.URL+"/network/"+id(amit.ID))
	if len(network.Nodes) != 1 || len(network.Edges) != 0 {
		t.Fatalf("cascade left traces in projection: %+v", network)
	}

	if len(spans.Ended()) == 0 {
		t.Fatalf("expected service spans")
	}
	var sawDelete bool
	for _, e := range audit.Entries() {
		if e.Operation == core.OpDeletePerson && e.Status == core.AuditStatusSuccess {
			sawDelete = true
		}
	}
	if !sawDelete {
		t.Fatalf("expected audit entry for delete_person, entries=%+v", audit.Entries())
	}
}

func id(v int64) string { return strconv.FormatInt(v, 10) }

func postJSON[T any](t *testing.T, url, body string, want int) T {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return decodeResponse[T](t, resp, want)
}

func getJSON[T any](t *testing.T, url string) T {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	return decodeResponse[T](t, resp, http.StatusOK)
}

func decodeResponse[T any](t *testing.T, resp *http.Response, want int) T {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != want {
		t.Fatalf("%s %s: status %d want %d: %s", resp.Request.Method, resp.Request.URL, resp.StatusCode, want, raw)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return out
}
