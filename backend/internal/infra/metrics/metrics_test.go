package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestMetricsRecordAfterRegister(t *testing.T) {
	MustRegister()
	MustRegister()

	before := counterValue(t, upstreamRequests.WithLabelValues("access-events", "rows"))
	ObserveUpstream("access-events", "rows", 15*time.Millisecond)
	if got := counterValue(t, upstreamRequests.WithLabelValues("access-events", "rows")); got != before+1 {
		t.Fatalf("expected upstream counter +1, got %v -> %v", before, got)
	}

	AddSyncedRows("qr_events", 3)
	AddSyncedRows("qr_events", 0)
	if got := counterValue(t, mirrorSyncedRows.WithLabelValues("qr_events")); got < 3 {
		t.Fatalf("expected synced rows >= 3, got %v", got)
	}

	RecordFallback("", "ok")
	if got := counterValue(t, fallbackServed.WithLabelValues("unknown", "ok")); got < 1 {
		t.Fatalf("expected blank table label to map to unknown")
	}

	RecordResidentDelete(false)
	if got := counterValue(t, residentDeletes.WithLabelValues("failed")); got < 1 {
		t.Fatalf("expected resident delete counter")
	}
}
