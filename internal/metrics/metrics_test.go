package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	m := New()
	if m == nil || m.Registry == nil {
		t.Fatal("expected registry")
	}
}

func TestIsolation(t *testing.T) {
	m1 := New()
	m2 := New()
	m1.BuildsTotal.WithLabelValues("completed").Inc()

	families, err := m2.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, f := range families {
		if f.GetName() == "sitetree_builds_total" && len(f.GetMetric()) > 0 {
			t.Error("m2 saw m1's counter; registries are not isolated")
		}
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.CategoryRecords.WithLabelValues("KnowledgeBase").Set(12)
	m.BuildDurationSeconds.Observe(0.2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		`sitetree_category_records{category="KnowledgeBase"} 12`,
		"sitetree_build_duration_seconds_count 1",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected %q in metrics output", want)
		}
	}
}
