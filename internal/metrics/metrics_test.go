package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInitIsIdempotent(t *testing.T) {
	Init()
	first := Registry()
	Init()
	if Registry() != first {
		t.Fatal("Init() replaced the registry")
	}
	if fetchTotal == nil || rowsTotal == nil || artifactsTotal == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}
}

func TestObserveFetch(t *testing.T) {
	before := testutil.ToFloat64(fetchCounter("metrics-test", OutcomeDownloaded))
	ObserveFetch("metrics-test", OutcomeDownloaded, 128, 200*time.Millisecond)
	ObserveFetch("metrics-test", OutcomeCached, 0, 0)

	if got := testutil.ToFloat64(fetchCounter("metrics-test", OutcomeDownloaded)); got != before+1 {
		t.Fatalf("expected downloaded counter to increase by 1, got %f", got-before)
	}
	if got := testutil.ToFloat64(fetchBytesTotal.WithLabelValues("metrics-test")); got < 128 {
		t.Fatalf("expected at least 128 bytes, got %f", got)
	}
}

func TestObserveRowsIgnoresZero(t *testing.T) {
	ObserveRows("rows-test", "kept", 0)
	ObserveRows("rows-test", "invalid_date", 3)

	if got := testutil.ToFloat64(rowsTotal.WithLabelValues("rows-test", "invalid_date")); got != 3 {
		t.Fatalf("expected 3 dropped rows, got %f", got)
	}
}

func TestPushNoopWithoutURL(t *testing.T) {
	if err := Push(context.Background(), "", "job"); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
}

func TestPushSendsMetrics(t *testing.T) {
	ObserveArtifact()

	var (
		gotPath string
		gotBody string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := Push(context.Background(), srv.URL, "fuel_test"); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if gotPath != "/metrics/job/fuel_test" {
		t.Fatalf("unexpected push path %q", gotPath)
	}
	if !strings.Contains(gotBody, "fuelreport_artifacts_total") {
		t.Fatal("expected artifact counter in pushed payload")
	}
}

func fetchCounter(product, outcome string) prometheus.Counter {
	Init()
	return fetchTotal.WithLabelValues(product, outcome)
}
