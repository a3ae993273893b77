package scheduler

import (
	"fmt"
	"log"
	"strings"
	"sync"
)

// TickLog buffers the lines of one tick and writes them as a single entry,
// so output from concurrent symbols does not interleave line by line.
type TickLog struct {
	mu     sync.Mutex
	header string
	lines  []string
	out    *log.Logger
}

func NewTickLog(header string) *TickLog {
	return &TickLog{header: header, out: log.Default()}
}

func (t *TickLog) Printf(format string, v ...any) {
	t.mu.Lock()
	t.lines = append(t.lines, fmt.Sprintf(format, v...))
	t.mu.Unlock()
}

// Lines returns a copy of the buffered lines.
func (t *TickLog) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.lines...)
}

// Flush writes and clears the buffer. An empty buffer writes nothing.
func (t *TickLog) Flush() {
	t.mu.Lock()
	lines := t.lines
	t.lines = nil
	t.mu.Unlock()
	if len(lines) == 0 {
		return
	}
	var b strings.Builder
	b.WriteString(t.header)
	for _, l := range lines {
		b.WriteString("\n  ")
		b.WriteString(l)
	}
	t.out.Print(b.String())
}
