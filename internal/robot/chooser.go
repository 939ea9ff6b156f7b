package robot

import (
	"fmt"
	"sync"

	"github.com/me/cmdbot/internal/command"
	"github.com/me/cmdbot/pkg/model"
)

type autoEntry struct {
	model.AutoOption
	cmd command.Command
}

// Chooser holds the autonomous routines and the dashboard selection. It is
// safe for concurrent use.
type Chooser struct {
	mu       sync.RWMutex
	entries  []autoEntry
	selected string
	def      string
}

// NewChooser creates an empty chooser.
func NewChooser() *Chooser { return &Chooser{} }

// Add registers a routine under key.
func (c *Chooser) Add(key, description string, cmd command.Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.Key == key {
			return fmt.Errorf("auto %q already registered", key)
		}
	}
	c.entries = append(c.entries, autoEntry{AutoOption: model.AutoOption{Key: key, Description: description}, cmd: cmd})
	return nil
}

// SetDefault picks the routine used until the dashboard selects another.
func (c *Chooser) SetDefault(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.find(key) < 0 {
		return fmt.Errorf("unknown auto %q", key)
	}
	c.def = key
	return nil
}

// Select changes the selection.
func (c *Chooser) Select(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.find(key) < 0 {
		return fmt.Errorf("unknown auto %q", key)
	}
	c.selected = key
	return nil
}

// Selected returns the selected key, falling back to the default.
func (c *Chooser) Selected() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.selected != "" {
		return c.selected
	}
	return c.def
}

// Command returns the selected routine, or nil if nothing is selected.
func (c *Chooser) Command() command.Command {
	key := c.Selected()
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.find(key); i >= 0 {
		return c.entries[i].cmd
	}
	return nil
}

// Options lists the routines in registration order.
func (c *Chooser) Options() []model.AutoOption {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.AutoOption, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.AutoOption
		out[i].Default = e.Key == c.def
	}
	return out
}

func (c *Chooser) find(key string) int {
	for i, e := range c.entries {
		if e.Key == key {
			return i
		}
	}
	return -1
}
