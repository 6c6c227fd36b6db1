// Package activity is the audit trail sink. Recording never blocks the
// caller: entries are queued and written by a background worker.
package activity

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Leganyst/easycars/internal/model"
)

// Store persists entries (repository.ActivityLogRepository).
type Store interface {
	Create(ctx context.Context, entry *model.ActivityLog) error
}

// Publisher forwards entries to other services (broker.Publisher).
type Publisher interface {
	Publish(ctx context.Context, entry model.ActivityLog) error
}

type Options struct {
	Buffer       int
	WriteTimeout time.Duration
	Publisher    Publisher // optional
	Hub          *Hub      // optional
}

type Sink struct {
	store Store
	pub   Publisher
	hub   *Hub
	log   *zap.Logger

	writeTimeout time.Duration
	now          func() time.Time

	mu     sync.RWMutex
	closed bool
	queue  chan model.ActivityLog
	done   chan struct{}
}

func NewSink(store Store, log *zap.Logger, opts Options) *Sink {
	if opts.Buffer <= 0 {
		opts.Buffer = 256
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	s := &Sink{
		store:        store,
		pub:          opts.Publisher,
		hub:          opts.Hub,
		log:          log,
		writeTimeout: opts.WriteTimeout,
		now:          func() time.Time { return time.Now().UTC() },
		queue:        make(chan model.ActivityLog, opts.Buffer),
		done:         make(chan struct{}),
	}
	go s.run()
	return s
}

// Record stamps entry with the request metadata found on ctx and queues
// it. A full queue drops the entry.
func (s *Sink) Record(ctx context.Context, entry model.ActivityLog) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	if m, ok := MetaFrom(ctx); ok {
		if entry.IPAddress == "" {
			entry.IPAddress = m.IP
		}
		if entry.UserAgent == "" {
			entry.UserAgent = m.UserAgent
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.log.Warn("activity sink closed, entry dropped", zap.String("action", entry.Action))
		return
	}
	select {
	case s.queue <- entry:
	default:
		s.log.Warn("activity buffer full, entry dropped",
			zap.String("action", entry.Action),
			zap.String("resource_type", string(entry.ResourceType)),
		)
	}
}

// Close stops accepting entries and waits until the queue is drained or
// ctx is done.
func (s *Sink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sink) run() {
	defer close(s.done)
	for entry := range s.queue {
		s.write(entry)
	}
}

func (s *Sink) write(entry model.ActivityLog) {
	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()

	if err := s.store.Create(ctx, &entry); err != nil {
		s.log.Error("persist activity entry",
			zap.String("action", entry.Action),
			zap.Error(err),
		)
	}

	if s.pub != nil {
		if err := s.pub.Publish(ctx, entry); err != nil {
			s.log.Warn("publish activity entry",
				zap.String("action", entry.Action),
				zap.Error(err),
			)
		}
	}

	if s.hub != nil {
		s.hub.Broadcast(entry)
	}
}
