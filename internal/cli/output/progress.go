package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// ProgressBar displays completion of a fixed number of operations. Add is
// safe for concurrent use; rendering happens on a ticker so hot loops do
// not write to the terminal.
type ProgressBar struct {
	w       io.Writer
	title   string
	total   int64
	current atomic.Int64
	width   int

	mu       sync.Mutex
	stop     chan struct{}
	done     chan struct{}
	finished bool
}

// NewProgressBar creates a progress bar for total operations.
func NewProgressBar(w io.Writer, title string, total int64) *ProgressBar {
	return &ProgressBar{
		w:     w,
		title: title,
		total: total,
		width: 40,
	}
}

// Add records n completed operations.
func (p *ProgressBar) Add(n int64) {
	p.current.Add(n)
}

// Current returns the number of completed operations.
func (p *ProgressBar) Current() int64 {
	return p.current.Load()
}

// Start renders the bar every interval until Finish.
func (p *ProgressBar) Start(interval time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil || p.finished {
		return
	}
	p.stop = make(chan struct{})
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.render()
			case <-p.stop:
				return
			}
		}
	}()
}

// Finish stops rendering and prints the final state.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return
	}
	p.finished = true
	if p.stop != nil {
		close(p.stop)
		<-p.done
	}
	p.render()
	fmt.Fprintln(p.w)
}

func (p *ProgressBar) render() {
	current := p.current.Load()
	if p.total <= 0 {
		fmt.Fprintf(p.w, "\r%s %d", p.title, current)
		return
	}

	percent := float64(current) / float64(p.total)
	if percent > 1 {
		percent = 1
	}
	filled := int(float64(p.width) * percent)

	fmt.Fprintf(p.w, "\r%s [%s%s] %3.0f%% (%d/%d)",
		p.title,
		strings.Repeat("█", filled),
		strings.Repeat("░", p.width-filled),
		percent*100,
		current,
		p.total,
	)
}

// FormatBytes formats bytes to a human readable string.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
