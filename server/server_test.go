package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/ai/dispatch"
	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/ai/metrics"
	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/ai/routing"
	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/ai/session"
	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/internal/profile"
	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/store"
)

type stubGenerator struct{ reply string }

func (g stubGenerator) Generate(context.Context, string, float32, int) (string, error) {
	return g.reply, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	exporter := metrics.NewPrometheusExporter(metrics.DefaultConfig())
	scorer := routing.NewKeywordScorer(routing.DefaultKeywordConfigs(), routing.SystemDefaultDomain)
	classifier := routing.NewIntentClassifier(stubGenerator{reply: "credit"}, routing.ClassifierConfig{DefaultDomain: routing.SystemDefaultDomain})
	hybrid := routing.NewHybridRouter(scorer, classifier, routing.DefaultDomainDescriptions(), routing.HybridConfig{
		Thresholds: routing.DefaultThresholds(),
		Metrics:    exporter,
	})
	bypass := routing.NewBypassEvaluator(store.NewMemoryTenantStore(nil), routing.SystemDefaultDomain)
	sessions := session.NewSessionIsolationResolver(session.NewMemoryContextStore())
	registry := dispatch.NewRegistry(dispatch.NewStaticHandler("general_assistant", "ok"))

	orchestrator := dispatch.NewOrchestrator(bypass, hybrid, sessions, registry, exporter)

	s, err := NewServer(context.Background(), &profile.Profile{Addr: ":0"}, orchestrator, hybrid, exporter)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return s
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func TestServer_Route(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/v1/route",
		`{"sender_id": "5491155001234", "text": "¿cuánto cuesta el producto X?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result dispatch.DispatchResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("unparseable response: %v", err)
	}
	if result.Domain != "ecommerce" {
		t.Errorf("expected ecommerce, got %s", result.Domain)
	}
	if result.SessionID != "whatsapp_5491155001234" {
		t.Errorf("expected base session id, got %s", result.SessionID)
	}
}

func TestServer_RouteRejectsInvalid(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/v1/route", `{"sender_id": "111"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing text, got %d", rec.Code)
	}
}

func TestServer_StatsLifecycle(t *testing.T) {
	s := newTestServer(t)

	doRequest(s, http.MethodPost, "/api/v1/route",
		`{"sender_id": "111", "text": "¿cuánto cuesta el producto X?"}`)

	rec := doRequest(s, http.MethodGet, "/api/v1/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snap routing.StatisticsSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("unparseable stats: %v", err)
	}
	if snap.TotalRequests != 1 {
		t.Errorf("expected one recorded request, got %+v", snap)
	}

	if rec := doRequest(s, http.MethodDelete, "/api/v1/stats", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = doRequest(s, http.MethodGet, "/api/v1/stats", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("unparseable stats: %v", err)
	}
	if snap.TotalRequests != 0 {
		t.Errorf("expected zeroed stats after reset, got %+v", snap)
	}
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Healthy bool `json:"healthy"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unparseable health response: %v", err)
	}
	if !body.Healthy {
		t.Error("expected healthy")
	}
}

func TestServer_Metrics(t *testing.T) {
	s := newTestServer(t)

	doRequest(s, http.MethodPost, "/api/v1/route",
		`{"sender_id": "111", "text": "¿cuánto cuesta el producto X?"}`)

	rec := doRequest(s, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "aynux_router_decisions_total") {
		t.Error("expected routing decision counter in metrics output")
	}
}
