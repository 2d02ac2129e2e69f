package services

import (
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// MetricsService provides request metrics and monitoring
type MetricsService interface {
	IncrementCounter(name string, tags map[string]string)
	RecordDuration(name string, duration time.Duration, tags map[string]string)
	GetMetrics() map[string]interface{}
	WritePrometheus(w io.Writer) error
}

// Counter represents a monotonically increasing counter
type Counter struct {
	Name  string            `json:"name"`
	Value int64             `json:"value"`
	Tags  map[string]string `json:"tags,omitempty"`
}

// Histogram represents duration measurements. Buckets are cumulative: each
// holds the number of observations at or below its bound.
type Histogram struct {
	Name    string            `json:"name"`
	Count   int64             `json:"count"`
	Sum     time.Duration     `json:"sum"`
	Min     time.Duration     `json:"min"`
	Max     time.Duration     `json:"max"`
	Average time.Duration     `json:"average"`
	Tags    map[string]string `json:"tags,omitempty"`
	Buckets map[string]int64  `json:"buckets"`
}

// durationBucket is one histogram upper bound
type durationBucket struct {
	name  string
	limit time.Duration
}

var durationBuckets = []durationBucket{
	{"1ms", time.Millisecond},
	{"5ms", 5 * time.Millisecond},
	{"10ms", 10 * time.Millisecond},
	{"25ms", 25 * time.Millisecond},
	{"50ms", 50 * time.Millisecond},
	{"100ms", 100 * time.Millisecond},
	{"250ms", 250 * time.Millisecond},
	{"500ms", 500 * time.Millisecond},
	{"1s", time.Second},
	{"2.5s", 2500 * time.Millisecond},
	{"5s", 5 * time.Second},
	{"10s", 10 * time.Second},
}

// InMemoryMetrics implements MetricsService using in-memory storage
type InMemoryMetrics struct {
	mu         sync.RWMutex
	counters   map[string]*Counter
	histograms map[string]*Histogram
	startTime  time.Time
}

// NewInMemoryMetrics creates a new in-memory metrics service
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters:   make(map[string]*Counter),
		histograms: make(map[string]*Histogram),
		startTime:  time.Now(),
	}
}

// IncrementCounter increments a counter metric
func (m *InMemoryMetrics) IncrementCounter(name string, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := seriesKey(name, tags)
	if counter, exists := m.counters[key]; exists {
		counter.Value++
		return
	}
	m.counters[key] = &Counter{
		Name:  name,
		Value: 1,
		Tags:  copyTags(tags),
	}
}

// RecordDuration records a duration measurement
func (m *InMemoryMetrics) RecordDuration(name string, duration time.Duration, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := seriesKey(name, tags)
	histogram, exists := m.histograms[key]
	if !exists {
		histogram = &Histogram{
			Name:    name,
			Min:     duration,
			Tags:    copyTags(tags),
			Buckets: make(map[string]int64),
		}
		m.histograms[key] = histogram
	}

	histogram.Count++
	histogram.Sum += duration
	if duration < histogram.Min {
		histogram.Min = duration
	}
	if duration > histogram.Max {
		histogram.Max = duration
	}
	histogram.Average = histogram.Sum / time.Duration(histogram.Count)

	for _, bucket := range durationBuckets {
		if duration <= bucket.limit {
			histogram.Buckets[bucket.name]++
		}
	}
	histogram.Buckets["+Inf"]++
}

// GetMetrics returns a copy of all collected metrics
func (m *InMemoryMetrics) GetMetrics() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	metrics := make(map[string]interface{})

	metrics["system"] = map[string]interface{}{
		"uptime":     time.Since(m.startTime).String(),
		"start_time": m.startTime.Format(time.RFC3339),
	}

	if len(m.counters) > 0 {
		counters := make(map[string]Counter, len(m.counters))
		for k, v := range m.counters {
			counters[k] = *v
		}
		metrics["counters"] = counters
	}

	if len(m.histograms) > 0 {
		histograms := make(map[string]Histogram, len(m.histograms))
		for k, v := range m.histograms {
			h := *v
			h.Buckets = make(map[string]int64, len(v.Buckets))
			for b, n := range v.Buckets {
				h.Buckets[b] = n
			}
			histograms[k] = h
		}
		metrics["histograms"] = histograms
	}

	return metrics
}

// seriesKey builds a stable key from the name and tags sorted by tag name
func seriesKey(name string, tags map[string]string) string {
	if len(tags) == 0 {
		return name
	}

	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	for _, k := range keys {
		b.WriteString("|")
		b.WriteString(k)
		b.WriteString(":")
		b.WriteString(tags[k])
	}
	return b.String()
}

func copyTags(tags map[string]string) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	c := make(map[string]string, len(tags))
	for k, v := range tags {
		c[k] = v
	}
	return c
}
