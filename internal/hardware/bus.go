// Package hardware simulates the robot's devices. Every read and write is a
// non-blocking point call, and a disconnected device reports its state as a
// status string rather than an error.
package hardware

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// StatusOK is the connectivity string of a fully connected subsystem.
const StatusOK = "OK"

// Bus tracks which simulated devices are attached.
type Bus struct {
	mu      sync.RWMutex
	devices map[string]bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{devices: make(map[string]bool)}
}

// Attach adds a connected device. Names are dotted paths such as
// "drive.frontLeft".
func (b *Bus) Attach(name string) *Device {
	b.mu.Lock()
	b.devices[name] = true
	b.mu.Unlock()
	return &Device{bus: b, name: name}
}

// SetConnected changes a device's connection state.
func (b *Bus) SetConnected(name string, connected bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.devices[name]; !ok {
		return fmt.Errorf("unknown device %q", name)
	}
	b.devices[name] = connected
	return nil
}

// Connected reports whether name is attached and connected.
func (b *Bus) Connected(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.devices[name]
}

// Devices returns all device names, sorted.
func (b *Bus) Devices() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.devices))
	for n := range b.devices {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Device is a handle to one device on the bus.
type Device struct {
	bus  *Bus
	name string
}

func (d *Device) Name() string { return d.name }

func (d *Device) Connected() bool { return d.bus.Connected(d.name) }

// connectivity builds the status string for a group of devices.
func connectivity(devs ...*Device) string {
	var missing []string
	for _, d := range devs {
		if !d.Connected() {
			missing = append(missing, d.name)
		}
	}
	if len(missing) == 0 {
		return StatusOK
	}
	return "DISCONNECTED: " + strings.Join(missing, ", ")
}

// Motor is a speed-controlled motor. Output is clamped to [-1, 1] and
// reads back as zero while disconnected.
type Motor struct {
	*Device
	output float64
}

func (m *Motor) Set(v float64) {
	m.output = clamp(v)
}

func (m *Motor) Get() float64 {
	if !m.Connected() {
		return 0
	}
	return m.output
}

func clamp(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}
