package activity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Leganyst/easycars/internal/model"
)

type memStore struct {
	mu      sync.Mutex
	entries []model.ActivityLog
	err     error

	started chan struct{}
	release chan struct{}
}

func (m *memStore) Create(_ context.Context, e *model.ActivityLog) error {
	if m.started != nil {
		m.started <- struct{}{}
		<-m.release
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memStore) all() []model.ActivityLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.ActivityLog(nil), m.entries...)
}

type memPublisher struct {
	mu  sync.Mutex
	got []string
}

func (p *memPublisher) Publish(_ context.Context, e model.ActivityLog) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, e.Action)
	return nil
}

func closeSink(t *testing.T, s *Sink) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestSink_PersistsPublishesBroadcasts(t *testing.T) {
	store := &memStore{}
	pub := &memPublisher{}
	hub := NewHub(4)
	feed, cancel := hub.Subscribe()
	defer cancel()

	s := NewSink(store, zap.NewNop(), Options{Buffer: 8, Publisher: pub, Hub: hub})

	ctx := WithMeta(context.Background(), Meta{IP: "10.0.0.1", UserAgent: "curl/8"})
	s.Record(ctx, model.ActivityLog{Action: "Rental created", ResourceType: model.ResourceRental})

	select {
	case got := <-feed:
		if got.Action != "Rental created" {
			t.Fatalf("broadcast action = %q", got.Action)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no broadcast")
	}

	closeSink(t, s)

	entries := store.all()
	if len(entries) != 1 {
		t.Fatalf("stored %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.IPAddress != "10.0.0.1" || e.UserAgent != "curl/8" {
		t.Fatalf("meta not stamped: %q %q", e.IPAddress, e.UserAgent)
	}
	if e.CreatedAt.IsZero() {
		t.Fatalf("CreatedAt not stamped")
	}
	if len(pub.got) != 1 {
		t.Fatalf("published %d entries, want 1", len(pub.got))
	}
}

func TestSink_StoreFailureIsLoggedNotReturned(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	store := &memStore{err: errors.New("db down")}
	s := NewSink(store, zap.New(core), Options{Buffer: 2})

	s.Record(context.Background(), model.ActivityLog{Action: "Sale created"})
	closeSink(t, s)

	if logs.FilterMessage("persist activity entry").Len() != 1 {
		t.Fatalf("expected one persist error log, got %v", logs.All())
	}
}

func TestSink_FullBufferDrops(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	store := &memStore{
		started: make(chan struct{}, 3),
		release: make(chan struct{}),
	}
	s := NewSink(store, zap.New(core), Options{Buffer: 1})

	s.Record(context.Background(), model.ActivityLog{Action: "first"})
	<-store.started // worker holds "first"

	s.Record(context.Background(), model.ActivityLog{Action: "second"}) // queued
	s.Record(context.Background(), model.ActivityLog{Action: "third"})  // dropped

	close(store.release)
	closeSink(t, s)

	if n := len(store.all()); n != 2 {
		t.Fatalf("stored %d entries, want 2", n)
	}
	if logs.FilterMessage("activity buffer full, entry dropped").Len() != 1 {
		t.Fatalf("expected one drop warning, got %v", logs.All())
	}
}

func TestSink_RecordAfterClose(t *testing.T) {
	store := &memStore{}
	s := NewSink(store, zap.NewNop(), Options{})
	closeSink(t, s)

	s.Record(context.Background(), model.ActivityLog{Action: "late"})
	if n := len(store.all()); n != 0 {
		t.Fatalf("stored %d entries after close", n)
	}
	closeSink(t, s)
}

func TestHub_SlowSubscriberDropped(t *testing.T) {
	hub := NewHub(1)
	feed, cancel := hub.Subscribe()
	defer cancel()

	hub.Broadcast(model.ActivityLog{Action: "a"})
	hub.Broadcast(model.ActivityLog{Action: "b"})

	if hub.Len() != 0 {
		t.Fatalf("slow subscriber still registered")
	}
	if e, ok := <-feed; !ok || e.Action != "a" {
		t.Fatalf("first entry = %v, %v", e, ok)
	}
	if _, ok := <-feed; ok {
		t.Fatalf("feed should be closed")
	}
}
