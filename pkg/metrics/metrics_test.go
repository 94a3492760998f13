package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"spectralviz/internal/models"
)

func testLayer() *models.Layer {
	l := models.NewLayer("ndvi", 4, 3, 3)
	l.RuleHits["negative"] = 5
	l.RuleHits["positive"] = 7
	return l
}

// TestObserveLayer checks every collector after one layer
func TestObserveLayer(t *testing.T) {
	r := NewRecorder()
	r.ObserveLayer(testLayer(), 20*time.Millisecond)
	r.ObserveLayer(testLayer(), 30*time.Millisecond)

	if got := testutil.ToFloat64(r.PixelsEvaluated.WithLabelValues("ndvi")); got != 24 {
		t.Errorf("Expected 24 pixels, got %v", got)
	}
	if got := testutil.ToFloat64(r.RuleHits.WithLabelValues("ndvi", "positive")); got != 14 {
		t.Errorf("Expected 14 positive hits, got %v", got)
	}
	if got := testutil.ToFloat64(r.LayersRendered.WithLabelValues("ndvi")); got != 2 {
		t.Errorf("Expected 2 layers, got %v", got)
	}
	if got := testutil.CollectAndCount(r.LayerDuration); got != 1 {
		t.Errorf("Expected one duration series, got %d", got)
	}
}

// TestRecordersAreIndependent verifies recorders do not share state
func TestRecordersAreIndependent(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	a.ObserveLayer(testLayer(), time.Millisecond)
	a.SetActiveWorkers(4)

	if got := testutil.ToFloat64(b.PixelsEvaluated.WithLabelValues("ndvi")); got != 0 {
		t.Errorf("Expected untouched recorder, got %v", got)
	}
	if got := testutil.ToFloat64(a.ActiveWorkers); got != 4 {
		t.Errorf("Expected 4 workers, got %v", got)
	}
}

// TestWriteTextfile checks the exported file contents
func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveLayer(testLayer(), time.Millisecond)

	path := filepath.Join(t.TempDir(), "spectralviz.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read textfile: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		`spectralviz_pixels_evaluated_total{algorithm="ndvi"} 12`,
		`spectralviz_rule_hits_total{algorithm="ndvi",rule="negative"} 5`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in textfile:\n%s", want, text)
		}
	}
}
