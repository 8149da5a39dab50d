package event

import (
	"context"
	"errors"
	"sync"

	"github.com/shandysiswandi/researchflow/internal/research/entity"
)

var ErrBusClosed = errors.New("job bus is closed")

// Bus is the in-process queue of research jobs. The jobs channel is never
// closed; Close signals Done instead so a late Publish cannot panic.
type Bus struct {
	jobs      chan entity.ResearchJob
	done      chan struct{}
	closeOnce sync.Once
}

// NewBus returns a bus holding up to capacity queued jobs.
func NewBus(capacity int) *Bus {
	return &Bus{
		jobs: make(chan entity.ResearchJob, max(capacity, 1)),
		done: make(chan struct{}),
	}
}

// Publish queues job, blocking while the queue is full.
func (b *Bus) Publish(ctx context.Context, job entity.ResearchJob) error {
	select {
	case <-b.done:
		return ErrBusClosed
	default:
	}

	select {
	case b.jobs <- job:
		return nil
	case <-b.done:
		return ErrBusClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Jobs is the receive side read by the consumer workers.
func (b *Bus) Jobs() <-chan entity.ResearchJob {
	return b.jobs
}

// Done is closed once Close has been called.
func (b *Bus) Done() <-chan struct{} {
	return b.done
}

// Pending is the number of queued jobs not yet picked up by a worker.
func (b *Bus) Pending() int {
	return len(b.jobs)
}

func (b *Bus) Close() {
	b.closeOnce.Do(func() { close(b.done) })
}
