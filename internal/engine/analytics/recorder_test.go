package analytics

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"knowyourclient/internal/engine/clientinfo"
	"knowyourclient/internal/platform/config"
)

type fakeStore struct {
	mu      sync.Mutex
	records []*Record
	block   chan struct{}
	fail    bool
}

func (f *fakeStore) Insert(rec *Record) error {
	if f.block != nil {
		<-f.block
	}
	if f.fail {
		return errors.New("disk full")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

func TestRecorder_WritesAndDrains(t *testing.T) {
	store := &fakeStore{}
	rec := NewRecorder(store, config.RecorderConfig{WorkerCount: 2, QueueSize: 16})

	for i := 0; i < 10; i++ {
		if !rec.Enqueue(NewRecord("shop", "10.0.0.1", clientinfo.Classify(clientinfo.Input{}))) {
			t.Fatalf("Enqueue %d rejected", i)
		}
	}
	rec.Close()

	if len(store.records) != 10 {
		t.Errorf("Expected 10 records, got %d", len(store.records))
	}
	if s := rec.Stats(); s.Recorded != 10 || s.Dropped != 0 {
		t.Errorf("Unexpected stats %+v", s)
	}

	if rec.Enqueue(NewRecord("shop", "", clientinfo.Snapshot{})) {
		t.Error("Expected enqueue after close to be rejected")
	}
	rec.Close()
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	store := &fakeStore{block: make(chan struct{})}
	rec := NewRecorder(store, config.RecorderConfig{WorkerCount: 1, QueueSize: 1})

	accepted := 0
	for i := 0; i < 5; i++ {
		if rec.Enqueue(NewRecord("shop", "", clientinfo.Snapshot{})) {
			accepted++
		}
	}
	close(store.block)
	rec.Close()

	// One record may be held by the worker and one by the queue.
	if accepted < 1 || accepted > 2 {
		t.Errorf("Expected 1 or 2 accepted records, got %d", accepted)
	}
	if s := rec.Stats(); s.Dropped != int64(5-accepted) {
		t.Errorf("Expected %d dropped, got %+v", 5-accepted, s)
	}
}

func TestRecorder_CountsFailures(t *testing.T) {
	store := &fakeStore{fail: true}
	rec := NewRecorder(store, config.RecorderConfig{WorkerCount: 1, QueueSize: 4})
	rec.Enqueue(NewRecord("shop", "", clientinfo.Snapshot{}))
	rec.Close()

	if s := rec.Stats(); s.Failed != 1 || s.Recorded != 0 {
		t.Errorf("Unexpected stats %+v", s)
	}
}

func TestNewRecord(t *testing.T) {
	snap := clientinfo.Classify(clientinfo.Input{UserAgent: "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"})
	rec := NewRecord("shop", "203.0.113.7", snap)

	if !strings.HasPrefix(rec.ID, "snap_") {
		t.Errorf("Unexpected id %s", rec.ID)
	}
	if rec.ReceivedAt == 0 || rec.SourceID != "shop" || rec.IPAddress != "203.0.113.7" {
		t.Errorf("Unexpected record %+v", rec)
	}
	if !rec.IsBot {
		t.Error("Expected Googlebot to be flagged as bot")
	}
}

func TestIsBot(t *testing.T) {
	if IsBot("") {
		t.Error("Empty user agent should not be a bot")
	}
	if IsBot("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36") {
		t.Error("Chrome should not be a bot")
	}
}
