package app

import (
	"sync/atomic"
	"time"
)

// Metrics counts the requests an application handled.
type Metrics struct {
	requests atomic.Uint64
	rejected atomic.Uint64
	totalNs  atomic.Int64
	minNs    atomic.Int64
	maxNs    atomic.Int64
	lastNs   atomic.Int64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	m := &Metrics{startTime: time.Now()}
	// Initialize min to max int64 so the first request will be smaller
	m.minNs.Store(1<<63 - 1)
	return m
}

// RecordRequest records one handled request and whether it was rejected.
func (m *Metrics) RecordRequest(duration time.Duration, rejected bool) {
	ns := duration.Nanoseconds()

	m.requests.Add(1)
	if rejected {
		m.rejected.Add(1)
	}
	m.totalNs.Add(ns)
	m.lastNs.Store(ns)

	for {
		old := m.minNs.Load()
		if ns >= old || m.minNs.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.maxNs.Load()
		if ns <= old || m.maxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	Requests uint64
	Rejected uint64
	Total    time.Duration
	Min      time.Duration
	Max      time.Duration
	Last     time.Duration
	Uptime   time.Duration
}

// Snapshot returns the current values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Requests: m.requests.Load(),
		Rejected: m.rejected.Load(),
		Total:    time.Duration(m.totalNs.Load()),
		Max:      time.Duration(m.maxNs.Load()),
		Last:     time.Duration(m.lastNs.Load()),
		Uptime:   time.Since(m.startTime),
	}
	if s.Requests > 0 {
		s.Min = time.Duration(m.minNs.Load())
	}
	return s
}

// Avg returns the mean request time.
func (s MetricsSnapshot) Avg() time.Duration {
	if s.Requests == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Requests)
}

// RejectRate returns the fraction of requests that were rejected.
func (s MetricsSnapshot) RejectRate() float64 {
	if s.Requests == 0 {
		return 0
	}
	return float64(s.Rejected) / float64(s.Requests)
}

// Timer measures one operation.
type Timer struct {
	start time.Time
}

// StartTimer starts a timer.
func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the time since the timer started.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}
