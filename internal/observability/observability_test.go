package observability

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/subsets-backend/internal/platform/logger"
)

func TestMetrics_ExposesObservations(t *testing.T) {
	m := NewMetrics()
	m.ObserveHTTP("GET", "/subsets/:id", 200, 15*time.Millisecond)
	m.ObserveUpstream("klass", "GET", 0, time.Second)
	m.SetReady("store", true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	out := string(body)
	for _, want := range []string{
		`subsets_http_requests_total{method="GET",route="/subsets/:id",status="200"} 1`,
		`subsets_upstream_requests_total{method="GET",status="error",target="klass"} 1`,
		`subsets_dependency_ready{dependency="store"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a, b := NewMetrics(), NewMetrics()
	a.ObserveHTTP("GET", "/x", 200, time.Millisecond)
	if a.Registry() == b.Registry() {
		t.Fatalf("registries must not be shared")
	}
}

func TestParseHeadersAndRatio(t *testing.T) {
	h := parseHeaders("a=1, b = 2,broken,=x")
	if len(h) != 2 || h["a"] != "1" || h["b"] != "2" {
		t.Fatalf("headers: got=%v", h)
	}
	if parseHeaders("") != nil {
		t.Fatalf("empty headers should be nil")
	}
	if r, _ := parseRatio("2"); r != 1 {
		t.Fatalf("ratio clamp: want=1 got=%v", r)
	}
	if _, err := parseRatio("x"); err == nil {
		t.Fatalf("ratio: want error")
	}
}

func TestInitOTel_DisabledIsNoop(t *testing.T) {
	log, _ := logger.New("test")
	shutdown := InitOTel(context.Background(), log, OtelConfig{Enabled: false})
	if shutdown == nil {
		t.Fatalf("shutdown must not be nil")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
