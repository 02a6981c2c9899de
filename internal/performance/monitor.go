package performance

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// ToolStats holds per-tool execution counters.
type ToolStats struct {
	Requests      int           `json:"requests"`
	Failures      int           `json:"failures"`
	TotalDuration time.Duration `json:"total_duration"`
}

// MemorySnapshot captures the process memory state at snapshot time.
type MemorySnapshot struct {
	AllocBytes uint64 `json:"alloc_bytes"`
	SysBytes   uint64 `json:"sys_bytes"`
	NumGC      uint32 `json:"num_gc"`
	Goroutines int    `json:"goroutines"`
}

// Stats is a copyable snapshot of all monitor counters. Upstream counters
// track outgoing API calls and are kept separate from the tool request
// totals, so one tool execution never counts twice.
type Stats struct {
	Uptime           time.Duration            `json:"uptime"`
	TotalRequests    int                      `json:"total_requests"`
	TotalFailures    int                      `json:"total_failures"`
	SuccessRate      float64                  `json:"success_rate"`
	UpstreamRequests int                      `json:"upstream_requests"`
	UpstreamFailures int                      `json:"upstream_failures"`
	CacheHits        int                      `json:"cache_hits"`
	CacheMisses      int                      `json:"cache_misses"`
	CacheHitRate     float64                  `json:"cache_hit_rate"`
	Tools            map[string]ToolStats     `json:"tools"`
	LoadTimes        map[string]time.Duration `json:"load_times"`
	Memory           MemorySnapshot           `json:"memory"`
}

// Monitor collects passive counters: request totals, per-tool stats, cache
// hit rate, and per-tool first-load durations. It never performs I/O.
type Monitor struct {
	mu               sync.Mutex
	startedAt        time.Time
	tools            map[string]*ToolStats
	loadTimes        map[string]time.Duration
	cacheHits        int
	cacheMisses      int
	upstreamRequests int
	upstreamFailures int
}

// NewMonitor creates a performance monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		startedAt: time.Now(),
		tools:     make(map[string]*ToolStats),
		loadTimes: make(map[string]time.Duration),
	}
}

// RecordRequest counts one completed tool execution.
func (m *Monitor) RecordRequest(tool string, success bool, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats, ok := m.tools[tool]
	if !ok {
		stats = &ToolStats{}
		m.tools[tool] = stats
	}
	stats.Requests++
	stats.TotalDuration += duration
	if !success {
		stats.Failures++
	}
}

// RecordToolLoad records how long a tool's first construction took.
func (m *Monitor) RecordToolLoad(tool string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadTimes[tool] = duration
}

// RecordUpstream counts one outgoing API call, separate from tool requests.
func (m *Monitor) RecordUpstream(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upstreamRequests++
	if !success {
		m.upstreamFailures++
	}
}

// RecordCacheHit counts one response cache hit.
func (m *Monitor) RecordCacheHit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheHits++
}

// RecordCacheMiss counts one response cache miss.
func (m *Monitor) RecordCacheMiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheMisses++
}

// Snapshot returns a copy of all counters plus a fresh memory snapshot.
func (m *Monitor) Snapshot() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := Stats{
		Uptime:           time.Since(m.startedAt),
		UpstreamRequests: m.upstreamRequests,
		UpstreamFailures: m.upstreamFailures,
		CacheHits:        m.cacheHits,
		CacheMisses:      m.cacheMisses,
		Tools:            make(map[string]ToolStats, len(m.tools)),
		LoadTimes:        make(map[string]time.Duration, len(m.loadTimes)),
	}

	for name, ts := range m.tools {
		stats.Tools[name] = *ts
		stats.TotalRequests += ts.Requests
		stats.TotalFailures += ts.Failures
	}
	for name, d := range m.loadTimes {
		stats.LoadTimes[name] = d
	}

	if stats.TotalRequests > 0 {
		stats.SuccessRate = float64(stats.TotalRequests-stats.TotalFailures) / float64(stats.TotalRequests) * 100
	}
	if total := m.cacheHits + m.cacheMisses; total > 0 {
		stats.CacheHitRate = float64(m.cacheHits) / float64(total) * 100
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	stats.Memory = MemorySnapshot{
		AllocBytes: mem.Alloc,
		SysBytes:   mem.Sys,
		NumGC:      mem.NumGC,
		Goroutines: runtime.NumGoroutine(),
	}

	return stats
}

// FormatText renders the snapshot for the stats CLI command.
func (s Stats) FormatText() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Uptime:          %s\n", s.Uptime.Round(time.Second))
	fmt.Fprintf(&b, "Total requests:  %d\n", s.TotalRequests)
	fmt.Fprintf(&b, "Failures:        %d\n", s.TotalFailures)
	fmt.Fprintf(&b, "Success rate:    %.1f%%\n", s.SuccessRate)
	fmt.Fprintf(&b, "API calls:       %d (%d failed)\n", s.UpstreamRequests, s.UpstreamFailures)
	fmt.Fprintf(&b, "Cache hit rate:  %.1f%% (%d hits, %d misses)\n", s.CacheHitRate, s.CacheHits, s.CacheMisses)
	fmt.Fprintf(&b, "Memory:          %.1f MB alloc, %.1f MB sys, %d GCs, %d goroutines\n",
		float64(s.Memory.AllocBytes)/(1024*1024),
		float64(s.Memory.SysBytes)/(1024*1024),
		s.Memory.NumGC,
		s.Memory.Goroutines)

	if len(s.Tools) > 0 {
		b.WriteString("\nPer-tool:\n")
		names := make([]string, 0, len(s.Tools))
		for name := range s.Tools {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ts := s.Tools[name]
			avg := time.Duration(0)
			if ts.Requests > 0 {
				avg = ts.TotalDuration / time.Duration(ts.Requests)
			}
			line := fmt.Sprintf("  %-20s %d requests, %d failures, avg %s", name, ts.Requests, ts.Failures, avg.Round(time.Millisecond))
			if load, ok := s.LoadTimes[name]; ok {
				line += fmt.Sprintf(", loaded in %s", load.Round(time.Millisecond))
			}
			b.WriteString(line + "\n")
		}
	}

	return b.String()
}
