// Package record captures accepted raw sensor messages to SQLite for later replay and analysis
package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lixenwraith/sensorloop/core"
	"github.com/lixenwraith/sensorloop/ingest"
	"github.com/lixenwraith/sensorloop/parameter"
	"github.com/lixenwraith/sensorloop/status"
)

// ErrClosed is returned by queries after Close
var ErrClosed = errors.New("record store closed")

const schema = `CREATE TABLE IF NOT EXISTS readings (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	source      TEXT    NOT NULL,
	seq         INTEGER NOT NULL,
	received_at INTEGER NOT NULL,
	payload     BLOB    NOT NULL
)`

// Options tune the capture pipeline
type Options struct {
	Buffer        int
	BatchSize     int
	FlushInterval time.Duration
	Logger        *slog.Logger
	Registry      *status.Registry
}

// DefaultOptions returns the capture defaults
func DefaultOptions() Options {
	return Options{
		Buffer:        parameter.RecordBuffer,
		BatchSize:     parameter.RecordBatchSize,
		FlushInterval: parameter.RecordFlushInterval,
	}
}

// Store is an ingest.Tap writing records in batches from a background goroutine
// Offer never blocks: when the queue is full the record is dropped and counted
type Store struct {
	db   *sql.DB
	opts Options
	log  *slog.Logger

	// mu guards closed against Offer so the queue is never sent on after close
	mu     sync.RWMutex
	closed bool
	queue  chan ingest.Record
	done   chan struct{}

	statWritten *status.Counter
	statDropped *status.Counter
	statFailed  *status.Counter
}

// Open creates or opens the database at path and starts the writer
func Open(path string, opts Options) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("record path is required")
	}
	def := DefaultOptions()
	if opts.Buffer <= 0 {
		opts.Buffer = def.Buffer
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = def.BatchSize
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = def.FlushInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Registry == nil {
		opts.Registry = status.NewRegistry()
	}

	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer connection; also keeps a :memory: database alive across queries
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create readings table: %w", err)
	}

	s := &Store{
		db:          db,
		opts:        opts,
		log:         opts.Logger,
		queue:       make(chan ingest.Record, opts.Buffer),
		done:        make(chan struct{}),
		statWritten: opts.Registry.Counter("record.written"),
		statDropped: opts.Registry.Counter("record.dropped"),
		statFailed:  opts.Registry.Counter("record.failed"),
	}
	core.Go(s.writeLoop)
	s.log.Info("recording sensor readings", "path", path)
	return s, nil
}

// Offer queues rec; false when the queue is full or the store is closed
func (s *Store) Offer(rec ingest.Record) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.queue <- rec:
		return true
	default:
		s.statDropped.Inc()
		return false
	}
}

// Close flushes queued records and closes the database
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	<-s.done
	return s.db.Close()
}

func (s *Store) writeLoop() {
	defer close(s.done)

	ticker := time.NewTicker(s.opts.FlushInterval)
	defer ticker.Stop()

	batch := make([]ingest.Record, 0, s.opts.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := s.insert(batch); err != nil {
			s.statFailed.Add(int64(len(batch)))
			s.log.Error("record batch failed", "records", len(batch), "error", err)
		} else {
			s.statWritten.Add(int64(len(batch)))
		}
		clear(batch)
		batch = batch[:0]
	}

	for {
		select {
		case rec, ok := <-s.queue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, rec)
			if len(batch) >= s.opts.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (s *Store) insert(batch []ingest.Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO readings (source, seq, received_at, payload) VALUES (?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, rec := range batch {
		if _, err := stmt.Exec(rec.Source, int64(rec.Seq), rec.At.UTC().UnixMilli(), rec.Payload); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert seq %d: %w", rec.Seq, err)
		}
	}
	return tx.Commit()
}

// Count returns the number of stored records
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := s.usable(); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM readings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count readings: %w", err)
	}
	return n, nil
}

// Recent returns up to limit records, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]ingest.Record, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, seq, received_at, payload FROM readings ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	var out []ingest.Record
	for rows.Next() {
		var (
			rec  ingest.Record
			seq  int64
			msec int64
		)
		if err := rows.Scan(&rec.Source, &seq, &msec, &rec.Payload); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		rec.Seq = uint64(seq)
		rec.At = time.UnixMilli(msec).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) usable() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}
