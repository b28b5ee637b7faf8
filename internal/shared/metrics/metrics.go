package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	runsCreatedTotal      atomic.Uint64
	runsFetchedTotal      atomic.Uint64
	runsListedTotal       atomic.Uint64
	validationFailedTotal atomic.Uint64

	createDuration = newHistogram([]float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500})
)

// IncRunCreated increments the created counter.
func IncRunCreated() {
	runsCreatedTotal.Add(1)
}

// IncRunFetched increments the fetched counter.
func IncRunFetched() {
	runsFetchedTotal.Add(1)
}

// IncRunListed increments the listed counter.
func IncRunListed() {
	runsListedTotal.Add(1)
}

// IncValidationFailed increments the validation-failure counter.
func IncValidationFailed() {
	validationFailedTotal.Add(1)
}

// ObserveCreateDurationMs records a run-creation duration in milliseconds.
func ObserveCreateDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	createDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "analysis_runs_created_total", "Total analysis runs created", runsCreatedTotal.Load())
	writeCounter(&buf, "analysis_runs_fetched_total", "Total analysis run fetches", runsFetchedTotal.Load())
	writeCounter(&buf, "analysis_runs_listed_total", "Total analysis run list requests", runsListedTotal.Load())
	writeCounter(&buf, "analysis_run_validation_failed_total", "Total input payloads rejected by schema validation", validationFailedTotal.Load())
	writeHistogram(&buf, "analysis_run_create_duration_ms", "Run creation duration in milliseconds", createDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
