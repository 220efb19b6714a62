// Package telemetry collects in-process statement and command metrics.
package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/satishbabariya/wporm/database"
)

// OpStats aggregates the statements of one operation kind.
type OpStats struct {
	Op      string        `json:"op"`
	Count   int           `json:"count"`
	Errors  int           `json:"errors"`
	Total   time.Duration `json:"total"`
	Max     time.Duration `json:"max"`
	Slowest string        `json:"slowest,omitempty"`
}

// Mean returns the average duration.
func (s OpStats) Mean() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// CommandEvent records one CLI command execution.
type CommandEvent struct {
	Command   string        `json:"command"`
	Provider  string        `json:"provider,omitempty"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// Collector aggregates statement metrics. It is safe for concurrent use.
type Collector struct {
	mu       sync.Mutex
	ops      map[string]*OpStats
	commands []CommandEvent
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{ops: make(map[string]*OpStats)}
}

// Middleware returns a statement middleware feeding the collector.
func (c *Collector) Middleware() database.Middleware {
	return func(ctx context.Context, event *database.QueryEvent, next func() error) error {
		err := next()
		c.record(event.Op, event.Query, event.Duration, err)
		return err
	}
}

func (c *Collector) record(op, query string, d time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.ops[op]
	if !ok {
		s = &OpStats{Op: op}
		c.ops[op] = s
	}
	s.Count++
	s.Total += d
	if err != nil {
		s.Errors++
	}
	if d >= s.Max {
		s.Max = d
		s.Slowest = query
	}
}

// RecordCommand records a command execution event
func (c *Collector) RecordCommand(command, provider string, duration time.Duration, err error) {
	event := CommandEvent{
		Command:   command,
		Provider:  provider,
		Duration:  duration,
		Timestamp: time.Now(),
	}
	if err != nil {
		event.Error = err.Error()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands = append(c.commands, event)
}

// Snapshot returns per-operation stats sorted by operation name.
func (c *Collector) Snapshot() []OpStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]OpStats, 0, len(c.ops))
	for _, s := range c.ops {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Op < out[j].Op })
	return out
}

// Commands returns the recorded command events.
func (c *Collector) Commands() []CommandEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]CommandEvent(nil), c.commands...)
}

// Reset discards everything collected so far.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = make(map[string]*OpStats)
	c.commands = nil
}

// WriteJSON writes the snapshot and command events as one JSON document.
func (c *Collector) WriteJSON(w io.Writer) error {
	payload := map[string]any{
		"statements": c.Snapshot(),
		"commands":   c.Commands(),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
