// Package monitor keeps a small rolling window of request, query and memory
// samples and derives a health verdict from them.
package monitor

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	historyLimit       = 50
	memoryLimit        = 30
	slowQueryThreshold = 100 * time.Millisecond
	slowQueryLimit     = 10

	degradedResponse = 1000.0
	degradedHeapMB   = 450.0
	criticalErrorPct = 10.0
)

const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
	StatusCritical = "critical"
)

type Query struct {
	Collection string    `json:"collection"`
	Operation  string    `json:"operation"`
	DurationMS float64   `json:"durationMs"`
	At         time.Time `json:"at"`
}

type MemorySample struct {
	HeapUsedMB  float64   `json:"heapUsedMb"`
	HeapTotalMB float64   `json:"heapTotalMb"`
	At          time.Time `json:"at"`
}

type Monitor struct {
	mu        sync.Mutex
	requests  int64
	errors    int64
	responses []float64
	queries   []Query
	memory    []MemorySample

	now    func() time.Time
	sample func() MemorySample
}

func New() *Monitor {
	return &Monitor{now: time.Now, sample: readMemory}
}

func readMemory() MemorySample {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return MemorySample{
		HeapUsedMB:  float64(ms.HeapAlloc) / 1024 / 1024,
		HeapTotalMB: float64(ms.HeapSys) / 1024 / 1024,
		At:          time.Now(),
	}
}

func (m *Monitor) RecordRequest(d time.Duration, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests++
	if status >= 400 {
		m.errors++
	}
	m.responses = pushLimit(m.responses, ms(d), historyLimit)
}

// RecordQuery matches store.Observer.
func (m *Monitor) RecordQuery(collection, operation string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = pushLimit(m.queries, Query{
		Collection: collection,
		Operation:  operation,
		DurationMS: ms(d),
		At:         m.now(),
	}, historyLimit)
}

func (m *Monitor) SampleMemory() {
	s := m.sample()
	m.mu.Lock()
	m.memory = pushLimit(m.memory, s, memoryLimit)
	m.mu.Unlock()
}

func pushLimit[T any](s []T, v T, limit int) []T {
	s = append(s, v)
	if len(s) > limit {
		s = slices.Delete(s, 0, len(s)-limit)
	}
	return s
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

type Metrics struct {
	Timestamp time.Time `json:"timestamp"`
	Requests  struct {
		Total     int64   `json:"total"`
		Errors    int64   `json:"errors"`
		ErrorRate float64 `json:"errorRate"`
	} `json:"requests"`
	ResponseTime struct {
		Avg    float64 `json:"avgMs"`
		Median float64 `json:"medianMs"`
		P95    float64 `json:"p95Ms"`
		P99    float64 `json:"p99Ms"`
	} `json:"responseTime"`
	Database struct {
		AvgQuery     float64 `json:"avgQueryMs"`
		TotalQueries int     `json:"totalQueries"`
		SlowQueries  []Query `json:"slowQueries"`
	} `json:"database"`
	Memory *MemorySample `json:"memory,omitempty"`
}

func (m *Monitor) Metrics() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out Metrics
	out.Timestamp = m.now()
	out.Requests.Total = m.requests
	out.Requests.Errors = m.errors
	if m.requests > 0 {
		out.Requests.ErrorRate = round2(float64(m.errors) / float64(m.requests) * 100)
	}

	sorted := slices.Clone(m.responses)
	slices.Sort(sorted)
	out.ResponseTime.Avg = round2(mean(sorted))
	out.ResponseTime.Median = round2(median(sorted))
	out.ResponseTime.P95 = round2(percentile(sorted, 0.95))
	out.ResponseTime.P99 = round2(percentile(sorted, 0.99))

	durations := make([]float64, len(m.queries))
	for i, q := range m.queries {
		durations[i] = q.DurationMS
	}
	out.Database.AvgQuery = round2(mean(durations))
	out.Database.TotalQueries = len(m.queries)
	out.Database.SlowQueries = slowQueries(m.queries)

	if n := len(m.memory); n > 0 {
		last := m.memory[n-1]
		out.Memory = &last
	}
	return out
}

func slowQueries(qs []Query) []Query {
	threshold := ms(slowQueryThreshold)
	var slow []Query
	for _, q := range qs {
		if q.DurationMS > threshold {
			slow = append(slow, q)
		}
	}
	slices.SortStableFunc(slow, func(a, b Query) int {
		switch {
		case a.DurationMS > b.DurationMS:
			return -1
		case a.DurationMS < b.DurationMS:
			return 1
		}
		return 0
	})
	if len(slow) > slowQueryLimit {
		slow = slow[:slowQueryLimit]
	}
	return slow
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

// median and percentile expect sorted input.
func median(v []float64) float64 {
	n := len(v)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return v[n/2]
	}
	return (v[n/2-1] + v[n/2]) / 2
}

func percentile(v []float64, p float64) float64 {
	if len(v) == 0 {
		return 0
	}
	i := int(math.Ceil(float64(len(v))*p)) - 1
	return v[max(i, 0)]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

type Health struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Issues    []string  `json:"issues"`
	Metrics   Metrics   `json:"metrics"`
}

// Health is critical on a high error rate, and degraded on slow responses
// or high heap use.
func (m *Monitor) Health() Health {
	metrics := m.Metrics()
	h := Health{Status: StatusHealthy, Timestamp: metrics.Timestamp, Issues: []string{}, Metrics: metrics}

	degraded := false
	if metrics.ResponseTime.Avg > degradedResponse {
		degraded = true
		h.Issues = append(h.Issues, fmt.Sprintf("Response time is high: %.2fms", metrics.ResponseTime.Avg))
	}
	if metrics.Memory != nil && metrics.Memory.HeapUsedMB > degradedHeapMB {
		degraded = true
		h.Issues = append(h.Issues, fmt.Sprintf("High memory usage: %.2fMB", metrics.Memory.HeapUsedMB))
	}
	critical := metrics.Requests.ErrorRate > criticalErrorPct
	if critical {
		h.Issues = append(h.Issues, fmt.Sprintf("High error rate detected: %.2f%%", metrics.Requests.ErrorRate))
	}

	switch {
	case critical:
		h.Status = StatusCritical
	case degraded:
		h.Status = StatusDegraded
	}
	return h
}

func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests, m.errors = 0, 0
	m.responses, m.queries = nil, nil
}

// Run samples memory every interval and logs a metrics summary until ctx is
// done.
func (m *Monitor) Run(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.SampleMemory()
			h := m.Health()
			fields := []zap.Field{
				zap.String("status", h.Status),
				zap.Float64("avgResponseMs", h.Metrics.ResponseTime.Avg),
				zap.Float64("errorRate", h.Metrics.Requests.ErrorRate),
			}
			if h.Metrics.Memory != nil {
				fields = append(fields, zap.Float64("heapUsedMb", h.Metrics.Memory.HeapUsedMB))
			}
			if h.Status == StatusHealthy {
				logger.Debug("performance", fields...)
			} else {
				logger.Warn("performance", append(fields, zap.Strings("issues", h.Issues))...)
			}
		}
	}
}
