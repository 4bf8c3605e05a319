package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"quizdeck/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveUploadCountsByOutcome(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveUpload("created")
	m.ObserveUpload("created")
	m.ObserveUpload("invalid")

	if got := testutil.ToFloat64(m.uploads.WithLabelValues("created")); got != 2 {
		t.Fatalf("expected 2 created uploads, got %v", got)
	}
	if got := testutil.ToFloat64(m.uploads.WithLabelValues("invalid")); got != 1 {
		t.Fatalf("expected 1 invalid upload, got %v", got)
	}
}

func TestObserveGradeSkipsRatioForEmptyQuiz(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveGrade(domain.ScoreReport{Score: 1, Total: 2})
	m.ObserveGrade(domain.ScoreReport{})

	if got := testutil.ToFloat64(m.gradings); got != 2 {
		t.Fatalf("expected 2 gradings, got %v", got)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() != "quizdeck_score_ratio" {
			continue
		}
		h := family.GetMetric()[0].GetHistogram()
		if h.GetSampleCount() != 1 || h.GetSampleSum() != 0.5 {
			t.Fatalf("unexpected histogram: count=%d sum=%v", h.GetSampleCount(), h.GetSampleSum())
		}
		return
	}
	t.Fatalf("score ratio histogram not registered")
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveUpload("created")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `quizdeck_uploads_total{outcome="created"} 1`) {
		t.Fatalf("metrics output missing upload counter:\n%s", body)
	}
}
