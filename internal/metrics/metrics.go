// Package metrics accounts for the ingestion pipeline's work, exposed through
// the monitoring endpoints.
package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	Ticks           int64
	CandidatesSeen  int64
	SkippedExisting int64
	Persisted       int64
	Conflicts       int64
	Notified        int64
	ItemFailures    int64

	// Timings
	LastTickDuration    time.Duration
	TotalTickDuration   time.Duration
	AverageTickDuration time.Duration
	TickCount           int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

func New() *Metrics {
	return &Metrics{IsHealthy: true}
}

func (m *Metrics) IncrementTicks() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Ticks++
}

func (m *Metrics) IncrementCandidates() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CandidatesSeen++
}

func (m *Metrics) IncrementSkippedExisting() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SkippedExisting++
}

func (m *Metrics) IncrementPersisted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Persisted++
}

func (m *Metrics) IncrementConflicts() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Conflicts++
}

func (m *Metrics) IncrementNotified() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notified++
}

func (m *Metrics) IncrementItemFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemFailures++
}

func (m *Metrics) RecordTickDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastTickDuration = d
	m.TotalTickDuration += d
	m.TickCount++
	m.AverageTickDuration = m.TotalTickDuration / time.Duration(m.TickCount)
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"ticks":                    m.Ticks,
		"candidates_seen":          m.CandidatesSeen,
		"skipped_existing":         m.SkippedExisting,
		"persisted":                m.Persisted,
		"conflicts":                m.Conflicts,
		"notified":                 m.Notified,
		"item_failures":            m.ItemFailures,
		"last_tick_duration_ms":    m.LastTickDuration.Milliseconds(),
		"average_tick_duration_ms": m.AverageTickDuration.Milliseconds(),
		"last_run_time":            m.LastRunTime.Format(time.RFC3339),
		"last_error_time":          m.LastErrorTime.Format(time.RFC3339),
		"last_error":               m.LastError,
		"is_healthy":               m.IsHealthy,
	}
}
