package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carechart/carechart/internal/platform/auth"
)

// Recorder writes audit entries off the request path. Record never blocks and
// never returns an error: a full queue or a failing repository must not turn
// a successful clinical operation into a failed one. Drops are counted and
// logged instead.
type Recorder struct {
	repo   Repository
	logger zerolog.Logger

	queue   chan *Entry
	dropped atomic.Uint64

	// mu orders Record sends against Close so a late Record drops the
	// entry instead of sending on a closed channel.
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	done      chan struct{}
}

const insertTimeout = 5 * time.Second

func NewRecorder(repo Repository, logger zerolog.Logger, queueSize int) *Recorder {
	if queueSize < 1 {
		queueSize = 1
	}
	r := &Recorder{
		repo:   repo,
		logger: logger,
		queue:  make(chan *Entry, queueSize),
		done:   make(chan struct{}),
	}
	go r.drain()
	return r
}

// Record enqueues one audit entry. actorID may be uuid.Nil for system actions;
// resourceID may be nil when the action is not about a single resource.
func (r *Recorder) Record(actorID uuid.UUID, action auth.Action, resource auth.Resource, resourceID *uuid.UUID, details map[string]string) {
	e := &Entry{
		ID:           uuid.New(),
		Action:       string(action),
		ResourceType: string(resource),
		ResourceID:   resourceID,
		Details:      details,
		CreatedAt:    time.Now().UTC(),
	}
	if actorID != uuid.Nil {
		id := actorID
		e.ActorID = &id
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		n := r.dropped.Add(1)
		r.logger.Warn().
			Str("action", e.Action).
			Str("resource_type", e.ResourceType).
			Uint64("dropped_total", n).
			Msg("audit recorder closed, entry dropped")
		return
	}

	select {
	case r.queue <- e:
	default:
		n := r.dropped.Add(1)
		r.logger.Warn().
			Str("action", e.Action).
			Str("resource_type", e.ResourceType).
			Uint64("dropped_total", n).
			Msg("audit queue full, entry dropped")
	}
}

// Dropped reports how many entries have been discarded since startup.
func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

func (r *Recorder) drain() {
	defer close(r.done)
	for e := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
		if err := r.repo.Insert(ctx, e); err != nil {
			r.logger.Error().
				Err(err).
				Str("action", e.Action).
				Str("resource_type", e.ResourceType).
				Msg("audit entry write failed")
		}
		cancel()
	}
}

// Close stops accepting entries and waits for the queue to flush. Record
// remains safe to call afterwards; entries are dropped and counted.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()
		close(r.queue)
	})
	<-r.done
}
