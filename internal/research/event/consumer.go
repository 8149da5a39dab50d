package event

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shandysiswandi/researchflow/internal/pkg/pkglog"
	"github.com/shandysiswandi/researchflow/internal/research/entity"
)

type Handler interface {
	Handle(ctx context.Context, job entity.ResearchJob) error
}

type ConsumerConfig struct {
	Workers      int
	MaxRetries   int
	BaseBackoff  time.Duration
	// DedupeWindow is how long a processed EventID is remembered.
	DedupeWindow time.Duration
}

// JobConsumer runs queued research jobs on a fixed pool of workers. Jobs are
// deduplicated by EventID and a failing handler is retried with exponential
// backoff.
type JobConsumer struct {
	bus         *Bus
	handler     Handler
	workers     int
	maxRetries  int
	baseBackoff time.Duration
	wg          sync.WaitGroup

	mu     sync.Mutex
	seen   map[string]time.Time
	window time.Duration
	now    func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

func NewJobConsumer(bus *Bus, handler Handler, cfg ConsumerConfig) *JobConsumer {
	workers := cfg.Workers
	if workers < 1 {
		workers = 4
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	baseBackoff := cfg.BaseBackoff
	if baseBackoff <= 0 {
		baseBackoff = 100 * time.Millisecond
	}

	window := cfg.DedupeWindow
	if window <= 0 {
		window = time.Hour
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &JobConsumer{
		bus:         bus,
		handler:     handler,
		workers:     workers,
		maxRetries:  maxRetries,
		baseBackoff: baseBackoff,
		seen:        make(map[string]time.Time),
		window:      window,
		now:         time.Now,
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (c *JobConsumer) Start() {
	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker()
	}
}

// Stop closes the bus and waits for in-flight jobs. When ctx expires first,
// running handlers are cancelled and ctx.Err is returned.
func (c *JobConsumer) Stop(ctx context.Context) error {
	if c.bus != nil {
		c.bus.Close()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.cancel()
		return nil
	case <-ctx.Done():
		c.cancel()
		return ctx.Err()
	}
}

func (c *JobConsumer) worker() {
	defer c.wg.Done()

	jobs := c.bus.Jobs()
	for {
		select {
		case job := <-jobs:
			c.process(job)
		case <-c.bus.Done():
			for {
				select {
				case job := <-jobs:
					c.process(job)
				default:
					return
				}
			}
		}
	}
}

// firstDelivery records eventID and reports whether it was not seen within
// the dedupe window. Expired entries are pruned on the way.
func (c *JobConsumer) firstDelivery(eventID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if at, ok := c.seen[eventID]; ok && now.Sub(at) < c.window {
		return false
	}
	for id, at := range c.seen {
		if now.Sub(at) >= c.window {
			delete(c.seen, id)
		}
	}
	c.seen[eventID] = now
	return true
}

func (c *JobConsumer) process(job entity.ResearchJob) {
	if c.handler == nil {
		return
	}

	if job.EventID != "" {
		if !c.firstDelivery(job.EventID) {
			slog.Info("skip duplicate research job", "event_id", job.EventID, "session_id", job.SessionID)
			return
		}
	}

	ctx := pkglog.SetCorrelationID(c.ctx, job.EventID)
	slog.InfoContext(ctx, "research job picked up", "session_id", job.SessionID, "request_cid", job.RequestCID)

	backoff := c.baseBackoff
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		err := c.handler.Handle(ctx, job)
		if err == nil {
			return
		}

		if attempt == c.maxRetries {
			slog.ErrorContext(ctx, "research job failed after retries", "event_id", job.EventID, "session_id", job.SessionID, "error", err)
			return
		}

		slog.WarnContext(ctx, "research job failed, retrying", "session_id", job.SessionID, "attempt", attempt+1, "backoff", backoff, "error", err)
		if !sleepBackoff(ctx, backoff) {
			return
		}
		backoff *= 2
	}
}

func sleepBackoff(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return false
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
