// Package eventlog implements the simulation's bounded, rate-limited
// diagnostic event stream (desyncs, dropped hazard triggers, pack-plan
// transitions, reconciliation votes). It generalizes the teacher engine's
// internal/game/event_log.go EventLog — an atomic SPSC circular buffer with
// a global + per-source token-bucket limiter and an async batched file
// writer — from wall-clock-keyed player events to frame-keyed simulation
// events, since every timestamp in this kernel must be derived from the
// simulation's own frame counter rather than time.Now() to stay replayable.
package eventlog

import (
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BufferSize bounds the circular event buffer.
	BufferSize = 1024

	// MaxEventsPerSec is the global token-bucket rate limit, protecting the
	// writer goroutine against a runaway source flooding the log.
	MaxEventsPerSec = 2000

	// MaxEventsPerSource bounds how many events a single source (a player id
	// or pack id) may emit per second, so one noisy source can't starve the
	// rest of the log.
	MaxEventsPerSource = 200

	BatchFlushSize     = 64
	BatchFlushInterval = 100 * time.Millisecond
	sourceLimiterCleanup = 5 * time.Minute
)

// Type classifies a logged simulation event.
type Type uint8

const (
	Desync Type = iota
	HazardDropped
	PackPlanTransition
	ReconcileVote
	SnapshotLoaded
)

// Event is a single diagnostic record, keyed by simulation frame rather
// than wall-clock time.
type Event struct {
	Sequence uint64    `json:"sequence"`
	Frame    uint32    `json:"frame"`
	Type     Type      `json:"type"`
	SourceID uint32    `json:"source_id"`
	Payload  any       `json:"payload,omitempty"`
}

// Log provides bounded, rate-limited diagnostic event logging with
// backpressure, mirroring the teacher's drop-oldest-under-load posture.
type Log struct {
	buffer    [BufferSize]Event
	writeHead uint64
	readHead  uint64

	globalLimiter  *rate.Limiter
	sourceLimiters sync.Map // map[uint32]*sourceLimiterEntry

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	filePath string
	file     *os.File
	fileMu   sync.Mutex

	droppedCount uint64
	totalCount   uint64
}

type sourceLimiterEntry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// New creates a new bounded event log.
func New() *Log {
	return &Log{
		globalLimiter: rate.NewLimiter(MaxEventsPerSec, MaxEventsPerSec/10),
		stopChan:      make(chan struct{}),
	}
}

// Start begins the async writer goroutine, optionally appending
// newline-delimited JSON to filePath (empty path disables file output but
// still drains the buffer so GetStats stays accurate).
func (l *Log) Start(filePath string) error {
	if l.running.Load() {
		return nil
	}
	l.filePath = filePath

	if filePath != "" {
		f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		l.file = f
	}

	l.running.Store(true)
	l.writerWg.Add(2)
	go l.writerLoop()
	go l.cleanupLoop()
	return nil
}

// Stop gracefully shuts down the event log, flushing any pending batch.
func (l *Log) Stop() {
	l.stopOnce.Do(func() {
		l.running.Store(false)
		close(l.stopChan)
		l.writerWg.Wait()

		l.fileMu.Lock()
		if l.file != nil {
			l.file.Close()
		}
		l.fileMu.Unlock()
	})
}

// Emit adds an event, applying the global and per-source rate limits.
// Returns false if the log isn't running or the event was rate-limited
// (dropped, not queued).
func (l *Log) Emit(e Event) bool {
	if !l.running.Load() {
		return false
	}
	if !l.globalLimiter.Allow() {
		atomic.AddUint64(&l.droppedCount, 1)
		return false
	}
	if e.SourceID != 0 {
		if !l.sourceLimiter(e.SourceID).Allow() {
			atomic.AddUint64(&l.droppedCount, 1)
			return false
		}
	}

	head := atomic.AddUint64(&l.writeHead, 1)
	tail := atomic.LoadUint64(&l.readHead)
	if head-tail >= BufferSize {
		atomic.AddUint64(&l.readHead, 1)
		atomic.AddUint64(&l.droppedCount, 1)
	}

	e.Sequence = head
	l.buffer[head%BufferSize] = e
	atomic.AddUint64(&l.totalCount, 1)
	return true
}

func (l *Log) sourceLimiter(sourceID uint32) *rate.Limiter {
	if entry, ok := l.sourceLimiters.Load(sourceID); ok {
		e := entry.(*sourceLimiterEntry)
		e.lastUsed = time.Now()
		return e.limiter
	}
	entry := &sourceLimiterEntry{
		limiter:  rate.NewLimiter(MaxEventsPerSource, MaxEventsPerSource/10),
		lastUsed: time.Now(),
	}
	actual, _ := l.sourceLimiters.LoadOrStore(sourceID, entry)
	return actual.(*sourceLimiterEntry).limiter
}

func (l *Log) writerLoop() {
	defer l.writerWg.Done()
	ticker := time.NewTicker(BatchFlushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, BatchFlushSize)
	for {
		select {
		case <-l.stopChan:
			batch = l.collectBatch(batch[:0])
			if len(batch) > 0 {
				l.flushBatch(batch)
			}
			return
		case <-ticker.C:
			batch = l.collectBatch(batch[:0])
			if len(batch) > 0 {
				l.flushBatch(batch)
			}
		}
	}
}

func (l *Log) cleanupLoop() {
	defer l.writerWg.Done()
	ticker := time.NewTicker(sourceLimiterCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-sourceLimiterCleanup)
			l.sourceLimiters.Range(func(key, value any) bool {
				if value.(*sourceLimiterEntry).lastUsed.Before(cutoff) {
					l.sourceLimiters.Delete(key)
				}
				return true
			})
		}
	}
}

func (l *Log) collectBatch(batch []Event) []Event {
	head := atomic.LoadUint64(&l.writeHead)
	tail := atomic.LoadUint64(&l.readHead)

	for i := tail; i < head && len(batch) < BatchFlushSize; i++ {
		batch = append(batch, l.buffer[i%BufferSize])
	}
	if len(batch) > 0 {
		atomic.AddUint64(&l.readHead, uint64(len(batch)))
	}
	return batch
}

func (l *Log) flushBatch(batch []Event) {
	l.fileMu.Lock()
	defer l.fileMu.Unlock()
	if l.file == nil {
		return
	}
	for _, e := range batch {
		data, err := json.Marshal(e)
		if err != nil {
			continue
		}
		l.file.Write(data)
		l.file.Write([]byte("\n"))
	}
}

// Stats summarizes the log's health for the debug surface.
type Stats struct {
	Total   uint64 `json:"total"`
	Dropped uint64 `json:"dropped"`
	Pending uint64 `json:"pending"`
	Running bool   `json:"running"`
}

// GetStats returns current counters.
func (l *Log) GetStats() Stats {
	head := atomic.LoadUint64(&l.writeHead)
	tail := atomic.LoadUint64(&l.readHead)
	return Stats{
		Total:   atomic.LoadUint64(&l.totalCount),
		Dropped: atomic.LoadUint64(&l.droppedCount),
		Pending: head - tail,
		Running: l.running.Load(),
	}
}

// GetDroppedCount returns the number of rate-limited/overwritten events.
func (l *Log) GetDroppedCount() uint64 { return atomic.LoadUint64(&l.droppedCount) }
