package core

import (
	"sync"
	"time"
)

const AVG_COUNT uint8 = 30

// MetricsSnapshot is a point-in-time copy of the loader counters.
type MetricsSnapshot struct {
	Loads     uint64
	Failures  uint64
	CacheHits uint64
	CacheMiss uint64
	// Average duration of the last AVG_COUNT successful loads, in milliseconds.
	LoadMSAvg float64
}

// Metrics tracks load activity for a loader. The zero value is ready to use.
type Metrics struct {
	mu sync.Mutex

	loadAVGCounter uint8
	loadSamples    uint8
	msTimes        [AVG_COUNT]float64

	loads     uint64
	failures  uint64
	cacheHits uint64
	cacheMiss uint64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) RecordLoad(elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.msTimes[m.loadAVGCounter] = float64(elapsed) / float64(time.Millisecond)
	m.loadAVGCounter++
	m.loadAVGCounter %= AVG_COUNT
	if m.loadSamples < AVG_COUNT {
		m.loadSamples++
	}
	m.loads++
}

func (m *Metrics) RecordFailure() {
	m.mu.Lock()
	m.failures++
	m.mu.Unlock()
}

func (m *Metrics) RecordHit() {
	m.mu.Lock()
	m.cacheHits++
	m.mu.Unlock()
}

func (m *Metrics) RecordMiss() {
	m.mu.Lock()
	m.cacheMiss++
	m.mu.Unlock()
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := MetricsSnapshot{
		Loads:     m.loads,
		Failures:  m.failures,
		CacheHits: m.cacheHits,
		CacheMiss: m.cacheMiss,
	}
	if m.loadSamples > 0 {
		var total float64
		for i := uint8(0); i < m.loadSamples; i++ {
			total += m.msTimes[i]
		}
		s.LoadMSAvg = total / float64(m.loadSamples)
	}
	return s
}
