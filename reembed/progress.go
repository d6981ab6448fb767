package reembed

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker reports how many files (and their chunks) a reembedding
// run has processed. It is safe for concurrent use.
type ProgressTracker struct {
	mu sync.Mutex

	writer   io.Writer
	unit     string
	total    int
	interval int

	current      int
	chunks       int
	lastReported int
	startTime    time.Time
	started      bool
}

// NewProgressTracker creates a tracker over total items that writes a
// progress line every reportInterval items. unit names the items in the
// rate ("files"); it defaults to "items".
func NewProgressTracker(writer io.Writer, total, reportInterval int, unit string) *ProgressTracker {
	if reportInterval < 1 {
		reportInterval = 1
	}
	if unit == "" {
		unit = "items"
	}
	return &ProgressTracker{
		writer:   writer,
		unit:     unit,
		total:    total,
		interval: reportInterval,
	}
}

// Start resets the counters and starts the clock.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.current, p.chunks, p.lastReported = 0, 0, 0
}

// Advance records items processed items carrying chunks chunks. Calls
// before Start are ignored.
func (p *ProgressTracker) Advance(items, chunks int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	p.current = min(p.current+items, p.total)
	p.chunks += chunks

	if p.current-p.lastReported >= p.interval {
		p.report()
		p.lastReported = p.current
	}
}

// Finish prints the final line and terminates it.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	p.current = p.total
	p.report()
	fmt.Fprintln(p.writer)
}

// Current returns the items processed so far.
func (p *ProgressTracker) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Chunks returns the chunks processed so far.
func (p *ProgressTracker) Chunks() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.chunks
}

// Elapsed returns the time since Start, or zero before it.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}
	return time.Since(p.startTime)
}

// report must be called with mu held.
func (p *ProgressTracker) report() {
	var rate, pct float64
	if elapsed := time.Since(p.startTime); elapsed > 0 {
		rate = float64(p.current) / elapsed.Seconds()
	}
	if p.total > 0 {
		pct = float64(p.current) / float64(p.total) * 100
	}
	fmt.Fprintf(p.writer, "\rProgress: %d/%d %s (%.1f%%), %d chunks - %.1f %s/s",
		p.current, p.total, p.unit, pct, p.chunks, rate, p.unit)
}
