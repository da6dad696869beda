package log

import (
	"strings"
	"sync"
)

// Entry is one event recorded by a Capture logger.
type Entry struct {
	Level   string
	Message string
	Fields  map[string]any
}

// Capture is a Logger that records events in memory. It is intended for
// tests that assert on warnings or informational output emitted by a model
// instance. Handles derived via With record into the root Capture.
type Capture struct {
	mu      sync.Mutex
	entries []Entry
	with    map[string]any
	parent  *Capture
}

// NewCapture returns an empty Capture logger.
func NewCapture() *Capture {
	return &Capture{}
}

func (c *Capture) Debug(msg string, fields ...any) { c.record("debug", msg, fields) }
func (c *Capture) Info(msg string, fields ...any)  { c.record("info", msg, fields) }
func (c *Capture) Warn(msg string, fields ...any)  { c.record("warn", msg, fields) }
func (c *Capture) Error(msg string, fields ...any) { c.record("error", msg, fields) }

// With returns a child handle whose events carry the extra fields and are
// recorded by the same root Capture.
func (c *Capture) With(fields ...any) Logger {
	merged := make(map[string]any, len(c.with)+len(fields)/2)
	for k, v := range c.with {
		merged[k] = v
	}
	for k, v := range pairs(fields) {
		merged[k] = v
	}
	return &Capture{with: merged, parent: c.root()}
}

func (c *Capture) root() *Capture {
	r := c
	for r.parent != nil {
		r = r.parent
	}
	return r
}

func (c *Capture) record(level, msg string, fields []any) {
	all := make(map[string]any, len(c.with)+len(fields)/2)
	for k, v := range c.with {
		all[k] = v
	}
	for k, v := range pairs(fields) {
		all[k] = v
	}
	r := c.root()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Message: msg, Fields: all})
}

// Entries returns a snapshot of everything recorded so far.
func (c *Capture) Entries() []Entry {
	r := c.root()
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Warnings returns the recorded warn-level messages.
func (c *Capture) Warnings() []string {
	var msgs []string
	for _, e := range c.Entries() {
		if e.Level == "warn" {
			msgs = append(msgs, e.Message)
		}
	}
	return msgs
}

// ContainsWarning reports whether any warn-level message contains substr.
func (c *Capture) ContainsWarning(substr string) bool {
	for _, msg := range c.Warnings() {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}
