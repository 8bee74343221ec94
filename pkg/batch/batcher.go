package batch

import (
	"context"
	"sync"
	"time"
)

// FlushFunc persists a batch of items.
type FlushFunc[T any] func(ctx context.Context, items []T) error

// Batcher accumulates items and hands them to a flush function either when
// the batch fills up or on a timer, whichever comes first.
type Batcher[T any] struct {
	batchSize     int
	batchInterval time.Duration
	flush         FlushFunc[T]

	mu        sync.Mutex
	pending   []T
	flushChan chan struct{}
	stopChan  chan struct{}
	stopOnce  sync.Once
	done      chan struct{}
}

// New creates a batcher and starts its background loop.
func New[T any](batchSize int, batchInterval time.Duration, flush FlushFunc[T]) *Batcher[T] {
	b := &Batcher[T]{
		batchSize:     batchSize,
		batchInterval: batchInterval,
		flush:         flush,
		pending:       make([]T, 0, batchSize),
		flushChan:     make(chan struct{}, 1),
		stopChan:      make(chan struct{}),
		done:          make(chan struct{}),
	}

	go b.run()

	return b
}

// Add queues an item for the next flush.
func (b *Batcher[T]) Add(item T) {
	b.mu.Lock()
	b.pending = append(b.pending, item)
	shouldFlush := len(b.pending) >= b.batchSize
	b.mu.Unlock()

	if shouldFlush {
		select {
		case b.flushChan <- struct{}{}:
		default:
		}
	}
}

// Flush immediately hands all pending items to the flush function.
func (b *Batcher[T]) Flush(ctx context.Context) error {
	b.mu.Lock()
	if len(b.pending) == 0 {
		b.mu.Unlock()
		return nil
	}

	items := make([]T, len(b.pending))
	copy(items, b.pending)
	b.pending = b.pending[:0]
	b.mu.Unlock()

	return b.flush(ctx, items)
}

func (b *Batcher[T]) run() {
	defer close(b.done)

	ticker := time.NewTicker(b.batchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = b.Flush(context.Background())
		case <-b.flushChan:
			_ = b.Flush(context.Background())
		case <-b.stopChan:
			_ = b.Flush(context.Background())
			return
		}
	}
}

// Stop flushes remaining items and stops the loop. Safe to call twice.
func (b *Batcher[T]) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopChan)
	})
	<-b.done
}

// PendingCount returns the number of queued items.
func (b *Batcher[T]) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
