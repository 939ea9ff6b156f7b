// Package telemetry carries named values out of the control loop. Publishing
// is fire-and-forget: no publisher may block the tick.
package telemetry

import (
	"reflect"
	"sync"
)

// Publisher accepts named values.
type Publisher interface {
	Publish(key string, value any)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(key string, value any)

// Publish calls f.
func (f PublisherFunc) Publish(key string, value any) { f(key, value) }

// Discard drops everything.
var Discard Publisher = PublisherFunc(func(string, any) {})

// Multi fans a value out to every publisher in order.
type Multi []Publisher

// Publish forwards to all publishers.
func (m Multi) Publish(key string, value any) {
	for _, p := range m {
		if p != nil {
			p.Publish(key, value)
		}
	}
}

// Prefixed publishes under a table prefix, e.g. "Hardware" + "/" + key.
func Prefixed(p Publisher, table string) Publisher {
	return PublisherFunc(func(key string, value any) {
		p.Publish(table+"/"+key, value)
	})
}

// OnChange forwards a value only when it differs from the last value
// forwarded under the same key. It keeps the datalog from repeating
// unchanged values every tick.
func OnChange(p Publisher) Publisher {
	var mu sync.Mutex
	last := make(map[string]any)
	return PublisherFunc(func(key string, value any) {
		mu.Lock()
		prev, seen := last[key]
		if seen && reflect.DeepEqual(prev, value) {
			mu.Unlock()
			return
		}
		last[key] = value
		mu.Unlock()
		p.Publish(key, value)
	})
}
