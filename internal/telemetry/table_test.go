package telemetry

import (
	"sync"
	"testing"
)

func TestTable_PublishAndGet(t *testing.T) {
	tbl := NewTable()
	tbl.Publish("Hardware/Drive", "OK")
	tbl.Publish("Hardware/Drive", "DISCONNECTED: frontLeft")

	got, ok := tbl.GetString("Hardware/Drive")
	if !ok || got != "DISCONNECTED: frontLeft" {
		t.Errorf("GetString = %q, %v; want latest value", got, ok)
	}
	if _, ok := tbl.Get("missing"); ok {
		t.Error("missing key should not be found")
	}
	if tbl.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tbl.Len())
	}
}

func TestTable_SnapshotPrefixSorted(t *testing.T) {
	tbl := NewTable()
	tbl.Publish("Hardware/Limelight", "OK")
	tbl.Publish("Robot/Mode", "teleop")
	tbl.Publish("Hardware/Drive", "OK")

	hw := tbl.Snapshot("Hardware/")
	if len(hw) != 2 || hw[0].Key != "Hardware/Drive" || hw[1].Key != "Hardware/Limelight" {
		t.Errorf("Snapshot(Hardware/) = %+v", hw)
	}
	if all := tbl.Snapshot(""); len(all) != 3 {
		t.Errorf("Snapshot(\"\") len = %d, want 3", len(all))
	}
}

func TestTable_ConcurrentReaders(t *testing.T) {
	tbl := NewTable()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				tbl.Snapshot("")
			}
		}()
	}
	for j := 0; j < 200; j++ {
		tbl.Publish("Scheduler/Tick", j)
	}
	wg.Wait()
	if e, _ := tbl.Get("Scheduler/Tick"); e.Value != 199 {
		t.Errorf("final value = %v, want 199", e.Value)
	}
}

func TestMultiAndPrefixed(t *testing.T) {
	a, b := NewTable(), NewTable()
	pub := Prefixed(Multi{a, nil, b}, "Hardware")
	pub.Publish("Drive", "OK")

	for _, tbl := range []*Table{a, b} {
		if v, ok := tbl.GetString("Hardware/Drive"); !ok || v != "OK" {
			t.Errorf("fan-out missing value: %q %v", v, ok)
		}
	}
	Discard.Publish("x", 1)
}

func TestOnChange(t *testing.T) {
	var got []any
	pub := OnChange(PublisherFunc(func(_ string, v any) { got = append(got, v) }))
	pub.Publish("Scheduler/Active", []string{"Intake"})
	pub.Publish("Scheduler/Active", []string{"Intake"})
	pub.Publish("Robot/Mode", "teleop")
	pub.Publish("Scheduler/Active", []string{})
	pub.Publish("Robot/Mode", "teleop")
	if len(got) != 3 {
		t.Errorf("forwarded %d values, want 3: %v", len(got), got)
	}
}
