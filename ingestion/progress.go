package ingestion

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// ProgressTracker reports how many source files have been loaded.
type ProgressTracker struct {
	writer         io.Writer
	total          int
	files          int
	books          int
	reportInterval int
	lastReported   int
	startTime      time.Time
	started        bool
	mu             sync.Mutex
}

// NewProgressTracker creates a new progress tracker.
// writer: where to write progress output (typically os.Stderr)
// total: number of files to load
// reportInterval: report progress every N files
func NewProgressTracker(writer io.Writer, total, reportInterval int) *ProgressTracker {
	if reportInterval < 1 {
		reportInterval = 1
	}
	return &ProgressTracker{
		writer:         writer,
		total:          total,
		reportInterval: reportInterval,
	}
}

// Start begins tracking progress.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.files = 0
	p.books = 0
	p.lastReported = 0
}

// FileDone records one loaded file carrying the given number of books.
func (p *ProgressTracker) FileDone(books int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	if p.files < p.total {
		p.files++
	}
	p.books += books

	if p.files-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.files
	}
}

// Finish prints the final progress line.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.report()
	fmt.Fprintln(p.writer)
}

// Elapsed returns the time elapsed since Start was called.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}

	return time.Since(p.startTime)
}

// report prints the current progress. Must be called with lock held.
func (p *ProgressTracker) report() {
	rate := float64(p.files) / time.Since(p.startTime).Seconds()

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.files) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rLoaded %d/%d files (%.1f%%), %s books - %.1f files/s",
		p.files, p.total, percentage, humanize.Comma(int64(p.books)), rate)
}
