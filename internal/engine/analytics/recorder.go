package analytics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mileusna/useragent"
	"github.com/rs/zerolog/log"
	"knowyourclient/internal/engine/clientinfo"
	"knowyourclient/internal/platform/config"
)

type snapshotStore interface {
	Insert(rec *Record) error
}

// Recorder writes records on a fixed pool of workers so ingestion requests
// never wait on the database.
type Recorder struct {
	store snapshotStore
	queue chan *Record
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	recorded atomic.Int64
	dropped  atomic.Int64
	failed   atomic.Int64
}

type RecorderStats struct {
	Recorded int64 `json:"recorded"`
	Dropped  int64 `json:"dropped"`
	Failed   int64 `json:"failed"`
	Queued   int   `json:"queued"`
}

func NewRecorder(store snapshotStore, cfg config.RecorderConfig) *Recorder {
	workers := cfg.WorkerCount
	if workers < 1 {
		workers = 1
	}
	size := cfg.QueueSize
	if size < 1 {
		size = 1
	}

	r := &Recorder{
		store: store,
		queue: make(chan *Record, size),
	}
	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go r.run()
	}
	return r
}

// NewRecord wraps a snapshot for storage. Bot traffic is flagged, not dropped.
func NewRecord(sourceID, ip string, snap clientinfo.Snapshot) *Record {
	return &Record{
		ID:         "snap_" + uuid.New().String(),
		SourceID:   sourceID,
		ReceivedAt: time.Now().UnixMilli(),
		IPAddress:  ip,
		IsBot:      IsBot(snap.UserAgent),
		Snapshot:   snap,
	}
}

func IsBot(ua string) bool {
	if ua == "" {
		return false
	}
	return useragent.Parse(ua).Bot
}

// Enqueue reports false when the queue is full or the recorder is closed.
func (r *Recorder) Enqueue(rec *Record) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.dropped.Add(1)
		return false
	}

	select {
	case r.queue <- rec:
		return true
	default:
		r.dropped.Add(1)
		return false
	}
}

// Close stops accepting records and waits for queued ones to be written.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *Recorder) Stats() RecorderStats {
	return RecorderStats{
		Recorded: r.recorded.Load(),
		Dropped:  r.dropped.Load(),
		Failed:   r.failed.Load(),
		Queued:   len(r.queue),
	}
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for rec := range r.queue {
		r.write(rec)
	}
}

func (r *Recorder) write(rec *Record) {
	defer func() {
		if p := recover(); p != nil {
			r.failed.Add(1)
			log.Error().Interface("panic", p).Str("snapshot_id", rec.ID).Msg("recovered from panic while recording snapshot")
		}
	}()

	if err := r.store.Insert(rec); err != nil {
		r.failed.Add(1)
		log.Error().Err(err).Str("snapshot_id", rec.ID).Str("source_id", rec.SourceID).Msg("failed to record snapshot")
		return
	}
	r.recorded.Add(1)
}
