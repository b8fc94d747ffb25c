// Package rawlog spools raw inbound telemetry payloads to disk as
// gzip-compressed JSONL batches. The spool exists for operator forensics
// (replaying a device's traffic, debugging a misbehaving firmware); it is
// intentionally decoupled from the ingest path, which hands records over
// through a non-blocking channel send and never waits on disk.
package rawlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"
)

// Record is one raw inbound message.
type Record struct {
	ReceivedAt time.Time `json:"receivedAt"`
	Protocol   string    `json:"protocol"`
	RemoteIP   string    `json:"remoteIp"`
	Payload    string    `json:"payload"`
}

// Spool batches records and flushes them to <dir>/<unixnano>-<seq>.jsonl.gz
// when the batch fills or the flush interval elapses. A nil *Spool is valid
// and drops everything, so callers need no enabled-checks.
type Spool struct {
	dir       string
	batchSize int
	interval  time.Duration

	ch   chan Record
	done chan struct{}
	seq  uint64
}

// NewSpool creates and starts a spool. Returns nil (disabled) when dir is
// blank or cannot be created.
func NewSpool(dir string, batchSize int, interval time.Duration) *Spool {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("raw spool disabled")
		return nil
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	s := &Spool{
		dir:       dir,
		batchSize: batchSize,
		interval:  interval,
		ch:        make(chan Record, batchSize*4),
		done:      make(chan struct{}),
	}
	go s.run()
	log.Info().Str("dir", dir).Msg("raw spool started")
	return s
}

// Append queues a record without blocking; records are dropped when the
// queue is full rather than stalling ingestion.
func (s *Spool) Append(rec Record) {
	if s == nil {
		return
	}
	select {
	case s.ch <- rec:
	default:
		log.Warn().Msg("raw spool queue full, dropping record")
	}
}

// Close drains the queue, flushes the final batch and stops the worker.
func (s *Spool) Close() {
	if s == nil {
		return
	}
	close(s.ch)
	<-s.done
}

func (s *Spool) run() {
	defer close(s.done)

	batch := make([]Record, 0, s.batchSize)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case rec, ok := <-s.ch:
			if !ok {
				s.flush(batch)
				return
			}
			batch = append(batch, rec)
			if len(batch) >= s.batchSize {
				s.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *Spool) flush(batch []Record) {
	if len(batch) == 0 {
		return
	}

	seq := atomic.AddUint64(&s.seq, 1)
	name := fmt.Sprintf("%d-%06d.jsonl.gz", time.Now().UnixNano(), seq)
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("raw spool flush failed")
		return
	}
	defer f.Close()

	gz, err := gzip.NewWriterLevel(f, gzip.BestSpeed)
	if err != nil {
		log.Error().Err(err).Msg("raw spool gzip init failed")
		return
	}
	enc := json.NewEncoder(gz)
	for i := range batch {
		if err := enc.Encode(&batch[i]); err != nil {
			log.Error().Err(err).Msg("raw spool encode failed")
			break
		}
	}
	if err := gz.Close(); err != nil {
		log.Error().Err(err).Msg("raw spool gzip close failed")
		return
	}
	log.Debug().Int("records", len(batch)).Str("path", path).Msg("raw spool batch written")
}
