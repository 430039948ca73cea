// Package analytics processes click events off the request path.
//
// A Tracker owns a bounded queue and a fixed set of workers. For every event
// a worker bumps the stored click count and hands the event to a Sink. Both
// steps are best-effort: failures are logged and counted, never returned.
package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/metrics"
	"github.com/vadimbarashkov/shortlink/internal/models"
)

const (
	defaultWorkers   = 4
	defaultQueueSize = 1024
	defaultTimeout   = 2 * time.Second
)

// ClickCounter atomically increments the click count of an existing record.
type ClickCounter interface {
	IncrementClickCount(ctx context.Context, shortCode string) error
}

// Sink receives click events.
type Sink interface {
	Emit(ctx context.Context, event models.ClickEvent) error
}

type Option func(*Tracker)

func WithWorkers(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.queueSize = n
		}
	}
}

// WithTimeout bounds the time a worker spends on a single event.
func WithTimeout(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Tracker) {
		t.metrics = m
	}
}

type Tracker struct {
	counter   ClickCounter
	sink      Sink
	workers   int
	queueSize int
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics

	mu     sync.RWMutex
	closed bool
	queue  chan models.ClickEvent
	wg     sync.WaitGroup
}

// NewTracker creates a Tracker and starts its workers.
func NewTracker(counter ClickCounter, sink Sink, opts ...Option) *Tracker {
	t := &Tracker{
		counter:   counter,
		sink:      sink,
		workers:   defaultWorkers,
		queueSize: defaultQueueSize,
		timeout:   defaultTimeout,
		logger:    slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(t)
	}

	t.queue = make(chan models.ClickEvent, t.queueSize)

	t.wg.Add(t.workers)
	for i := 0; i < t.workers; i++ {
		go t.work()
	}

	return t
}

// Record enqueues event without blocking. The event is dropped if the
// queue is full or the tracker is closed.
func (t *Tracker) Record(event models.ClickEvent) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		t.drop(event, "tracker closed")
		return
	}

	select {
	case t.queue <- event:
	default:
		t.drop(event, "queue full")
	}
}

// Close stops accepting events and waits until queued events are processed
// or ctx is done.
func (t *Tracker) Close(ctx context.Context) error {
	t.mu.Lock()
	if !t.closed {
		t.closed = true
		close(t.queue)
	}
	t.mu.Unlock()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Tracker) work() {
	defer t.wg.Done()

	for event := range t.queue {
		t.process(event)
	}
}

func (t *Tracker) process(event models.ClickEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	if err := t.counter.IncrementClickCount(ctx, event.ShortCode); err != nil {
		t.logger.Warn("failed to increment click count",
			slog.String("short_code", event.ShortCode),
			slog.Any("err", err),
		)
		t.metrics.ClickIncrementFailed()
	}

	if err := t.sink.Emit(ctx, event); err != nil {
		t.logger.Warn("failed to emit click event",
			slog.String("short_code", event.ShortCode),
			slog.Any("err", err),
		)
		t.metrics.ClickEventFailed()
	}
}

func (t *Tracker) drop(event models.ClickEvent, reason string) {
	t.logger.Warn("click event dropped",
		slog.String("short_code", event.ShortCode),
		slog.String("reason", reason),
	)
	t.metrics.ClickEventDropped()
}
