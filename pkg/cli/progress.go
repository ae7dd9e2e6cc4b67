package cli

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ProgressReporter reports batch completion for multi-input runs. Batches
// may finish in any order and from any goroutine.
type ProgressReporter interface {
	Start(total int)
	Done(name, summary string, err error)
	Finish()
}

// SimpleProgress writes one line per finished batch.
type SimpleProgress struct {
	mu      sync.Mutex
	total   int
	done    int
	failed  int
	started time.Time
	writer  io.Writer
}

// NewProgressReporter creates a progress reporter that writes to w.
// If w is nil, it defaults to os.Stderr.
func NewProgressReporter(w io.Writer) ProgressReporter {
	if w == nil {
		w = os.Stderr
	}
	return &SimpleProgress{writer: w}
}

// Start resets the reporter for total batches.
func (p *SimpleProgress) Start(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.done = 0
	p.failed = 0
	p.started = time.Now()
}

// Done records one finished batch.
func (p *SimpleProgress) Done(name, summary string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	if err != nil {
		p.failed++
		fmt.Fprintf(p.writer, "[%d/%d] ✗ %s: %v\n", p.done, p.total, name, err)
		return
	}
	fmt.Fprintf(p.writer, "[%d/%d] ✓ %s: %s\n", p.done, p.total, name, summary)
}

// Finish writes the run summary.
func (p *SimpleProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.total == 0 {
		return
	}
	fmt.Fprintf(p.writer, "%d batches, %d failed in %s\n",
		p.done, p.failed, time.Since(p.started).Round(time.Millisecond))
}

// NopProgress discards all progress.
type NopProgress struct{}

func (NopProgress) Start(int)                  {}
func (NopProgress) Done(string, string, error) {}
func (NopProgress) Finish()                    {}
