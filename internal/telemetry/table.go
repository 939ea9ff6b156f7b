package telemetry

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/me/cmdbot/pkg/model"
)

// Table keeps the latest value per key. It is written by the control loop
// and read concurrently by the dashboard.
type Table struct {
	mu      sync.RWMutex
	entries map[string]model.TelemetryEntry
	now     func() time.Time
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		entries: make(map[string]model.TelemetryEntry),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Publish stores value under key, replacing the previous value.
func (t *Table) Publish(key string, value any) {
	t.mu.Lock()
	t.entries[key] = model.TelemetryEntry{Key: key, Value: value, UpdatedAt: t.now()}
	t.mu.Unlock()
}

// Get returns the entry for key.
func (t *Table) Get(key string) (model.TelemetryEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[key]
	return e, ok
}

// GetString returns the value for key if it is a string.
func (t *Table) GetString(key string) (string, bool) {
	e, ok := t.Get(key)
	if !ok {
		return "", false
	}
	s, ok := e.Value.(string)
	return s, ok
}

// Snapshot returns every entry whose key starts with prefix, sorted by key.
// An empty prefix returns everything.
func (t *Table) Snapshot(prefix string) []model.TelemetryEntry {
	t.mu.RLock()
	out := make([]model.TelemetryEntry, 0, len(t.entries))
	for k, e := range t.entries {
		if strings.HasPrefix(k, prefix) {
			out = append(out, e)
		}
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Len returns the number of keys.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
