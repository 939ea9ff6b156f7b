package telemetry

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/me/cmdbot/internal/logging"
)

func testRecorder(t *testing.T, path string) *Recorder {
	t.Helper()
	logger := logging.Discard()
	r, err := OpenRecorder(context.Background(), path, logger)
	if err != nil {
		t.Fatalf("OpenRecorder: %v", err)
	}
	return r
}

func TestRecorder_PublishFlushQuery(t *testing.T) {
	r := testRecorder(t, ":memory:")
	t.Cleanup(func() { r.Close() })
	ctx := context.Background()

	r.Publish("Hardware/Drive", "OK")
	r.Publish("Robot/Mode", "disabled")
	r.Publish("Hardware/Drive", "DISCONNECTED: gyro")
	if err := r.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if r.Written() != 3 {
		t.Errorf("Written() = %d, want 3", r.Written())
	}

	recs, err := r.Query(ctx, "Hardware/Drive", 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}
	if recs[0].Value != `"DISCONNECTED: gyro"` {
		t.Errorf("newest value = %s", recs[0].Value)
	}
	if recs[0].Session != r.Session() || !strings.HasPrefix(r.Session(), "run_") {
		t.Errorf("session = %q", recs[0].Session)
	}
	if recs[0].RecordedAt.IsZero() {
		t.Error("recorded_at not parsed")
	}

	all, err := r.Query(ctx, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("all records = %d, want 3", len(all))
	}
}

func TestRecorder_EncodesStructuredValues(t *testing.T) {
	r := testRecorder(t, ":memory:")
	t.Cleanup(func() { r.Close() })
	ctx := context.Background()

	r.Publish("Scheduler/Active", []string{"intake", "drive"})
	r.Publish("Drive/Speed", 0.5)
	if err := r.Flush(ctx); err != nil {
		t.Fatal(err)
	}

	recs, _ := r.Query(ctx, "Scheduler/Active", 1)
	if len(recs) != 1 || recs[0].Value != `["intake","drive"]` {
		t.Errorf("active = %+v", recs)
	}
	recs, _ = r.Query(ctx, "Drive/Speed", 1)
	if len(recs) != 1 || recs[0].Value != "0.5" {
		t.Errorf("speed = %+v", recs)
	}
}

func TestRecorder_CloseThenReadLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.db")
	r := testRecorder(t, path)
	for i := 0; i < 10; i++ {
		r.Publish("Scheduler/Tick", i)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	recs, err := ReadLog(context.Background(), path, "Scheduler/Tick", 3)
	if err != nil {
		t.Fatalf("ReadLog: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("records = %d, want 3", len(recs))
	}
	if recs[0].Value != "9" {
		t.Errorf("newest = %s, want 9", recs[0].Value)
	}
}
