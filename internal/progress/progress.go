package progress

import (
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// Bar renders comparison progress on a single terminal line. It is safe for
// concurrent use by comparator workers.
type Bar struct {
	total      int64
	current    int64
	width      int
	writer     io.Writer
	mu         sync.Mutex
	lastName   string
	enabled    bool
	lastUpdate time.Time
}

func New(total int64) *Bar {
	return NewWithWriter(total, os.Stderr, isTerminal())
}

// NewWithWriter builds a bar writing to w; a disabled bar renders nothing.
func NewWithWriter(total int64, w io.Writer, enabled bool) *Bar {
	return &Bar{
		total:      total,
		width:      40,
		writer:     w,
		enabled:    enabled,
		lastUpdate: time.Now(),
	}
}

func isTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// SetTotal resets the expected number of steps.
func (b *Bar) SetTotal(total int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.total = total
}

// Current returns the number of completed steps.
func (b *Bar) Current() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Increment records one completed comparison for the named file.
func (b *Bar) Increment(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current++
	b.lastName = name

	if !b.enabled {
		return
	}

	// Update at most every 100ms to reduce flickering
	now := time.Now()
	if now.Sub(b.lastUpdate) > 100*time.Millisecond || b.current == b.total {
		b.lastUpdate = now
		b.render()
	}
}

// render must be called with mu already locked
func (b *Bar) render() {
	if b.total == 0 {
		return
	}

	percent := float64(b.current) / float64(b.total) * 100
	filledWidth := int(float64(b.width) * float64(b.current) / float64(b.total))

	if filledWidth > b.width {
		filledWidth = b.width
	}

	bar := strings.Repeat("█", filledWidth) + strings.Repeat("░", b.width-filledWidth)

	var nameDisplay string
	if b.lastName != "" {
		nameDisplay = " | " + path.Base(b.lastName)
	}

	// Clear the line and write progress
	fmt.Fprintf(b.writer, "\r\033[K[%s] %3d%% (%d/%d)%s",
		bar, int(percent), b.current, b.total, nameDisplay)
}

func (b *Bar) Finish() {
	if !b.enabled {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = b.total
	b.render()
	fmt.Fprintf(b.writer, "\n")
}
