package telemetry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/me/cmdbot/internal/logging"

	_ "modernc.org/sqlite"
)

const (
	recorderQueue = 1024
	recorderBatch = 128
)

// Record is one logged value.
type Record struct {
	ID         int64     `json:"id"`
	Session    string    `json:"session"`
	Key        string    `json:"key"`
	Value      string    `json:"value"`
	RecordedAt time.Time `json:"recorded_at"`
}

type pending struct {
	key   string
	value any
	at    time.Time
	ack   chan struct{} // flush marker when non-nil
}

// Recorder appends every published value to a SQLite telemetry log. Publish
// only enqueues; a background writer batches inserts. When the queue is full
// values are dropped and counted rather than stalling the control loop.
//
// The log is write-only from the robot's point of view: nothing is ever read
// back into the scheduler.
type Recorder struct {
	db      *sql.DB
	logger  *slog.Logger
	session string

	queue     chan pending
	done      chan struct{}
	closeOnce sync.Once
	dropped   atomic.Uint64
	written   atomic.Uint64
}

// OpenRecorder opens (or creates) the telemetry log at dbPath and starts the
// writer. Use ":memory:" in tests.
func OpenRecorder(ctx context.Context, dbPath string, logger *slog.Logger) (*Recorder, error) {
	db, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate telemetry log: %w", err)
	}

	r := &Recorder{
		db:      db,
		logger:  logging.Component(logger, "telemetry-recorder"),
		session: "run_" + uuid.New().String()[:8],
		queue:   make(chan pending, recorderQueue),
		done:    make(chan struct{}),
	}
	go r.writer()
	r.logger.Info("telemetry log open", "path", dbPath, "session", r.session)
	return r, nil
}

func openDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// A single connection keeps ":memory:" databases coherent and
	// serializes the writer against readers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	return db, nil
}

// Session returns the identifier stamped on every row of this run.
func (r *Recorder) Session() string { return r.session }

// Publish enqueues value for logging. It never blocks.
func (r *Recorder) Publish(key string, value any) {
	select {
	case r.queue <- pending{key: key, value: value, at: time.Now().UTC()}:
	default:
		if r.dropped.Add(1) == 1 {
			r.logger.Warn("telemetry log queue full, dropping values")
		}
	}
}

// Dropped returns the number of values lost to a full queue.
func (r *Recorder) Dropped() uint64 { return r.dropped.Load() }

// Written returns the number of rows committed.
func (r *Recorder) Written() uint64 { return r.written.Load() }

// Flush waits until every value enqueued so far has been written. It must
// not be called after Close.
func (r *Recorder) Flush(ctx context.Context) error {
	ack := make(chan struct{})
	select {
	case r.queue <- pending{ack: ack}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the queue, stops the writer and closes the database. Stop
// publishing before calling it.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() { close(r.queue) })
	<-r.done
	return r.db.Close()
}

func (r *Recorder) writer() {
	defer close(r.done)
	batch := make([]pending, 0, recorderBatch)
	var acks []chan struct{}

	add := func(p pending) {
		if p.ack != nil {
			acks = append(acks, p.ack)
			return
		}
		batch = append(batch, p)
	}

	for p := range r.queue {
		batch, acks = batch[:0], acks[:0]
		add(p)
	drain:
		for len(batch) < recorderBatch {
			select {
			case q, ok := <-r.queue:
				if !ok {
					break drain
				}
				add(q)
			default:
				break drain
			}
		}
		if len(batch) > 0 {
			if err := r.insert(batch); err != nil {
				r.logger.Error("write telemetry batch", "rows", len(batch), "error", err)
			}
		}
		for _, a := range acks {
			close(a)
		}
	}
}

func (r *Recorder) insert(batch []pending) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO telemetry (session, key, value, recorded_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, p := range batch {
		data, err := json.Marshal(p.value)
		if err != nil {
			data, _ = json.Marshal(fmt.Sprint(p.value))
		}
		if _, err := stmt.Exec(r.session, p.key, string(data), p.at.Format(time.RFC3339Nano)); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	r.written.Add(uint64(len(batch)))
	return nil
}

// Query returns up to limit records for key, newest first. An empty key
// matches every key.
func (r *Recorder) Query(ctx context.Context, key string, limit int) ([]Record, error) {
	return queryRecords(ctx, r.db, key, limit)
}

// ReadLog opens a telemetry log written by an earlier run and returns up to
// limit records for key, newest first.
func ReadLog(ctx context.Context, dbPath, key string, limit int) ([]Record, error) {
	db, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	if err := migrate(ctx, db); err != nil {
		return nil, fmt.Errorf("migrate telemetry log: %w", err)
	}
	return queryRecords(ctx, db, key, limit)
}

func queryRecords(ctx context.Context, db *sql.DB, key string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT id, session, key, value, recorded_at FROM telemetry`
	args := []any{}
	if key != "" {
		q += ` WHERE key = ?`
		args = append(args, key)
	}
	q += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query telemetry: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var at string
		if err := rows.Scan(&rec.ID, &rec.Session, &rec.Key, &rec.Value, &at); err != nil {
			return nil, fmt.Errorf("scan telemetry: %w", err)
		}
		rec.RecordedAt, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, rec)
	}
	return out, rows.Err()
}
