package batch

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu      sync.Mutex
	batches [][]string
}

func (r *recorder) flush(ctx context.Context, items []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch := make([]string, len(items))
	copy(batch, items)
	r.batches = append(r.batches, batch)
	return nil
}

func (r *recorder) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, b := range r.batches {
		n += len(b)
	}
	return n
}

func TestFlushOnSize(t *testing.T) {
	rec := &recorder{}
	b := New(3, time.Hour, rec.flush)
	defer b.Stop()

	b.Add("a")
	b.Add("b")
	b.Add("c")

	deadline := time.After(time.Second)
	for rec.total() < 3 {
		select {
		case <-deadline:
			t.Fatalf("batch never flushed, total=%d", rec.total())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestFlushOnInterval(t *testing.T) {
	rec := &recorder{}
	b := New(100, 20*time.Millisecond, rec.flush)
	defer b.Stop()

	b.Add("only")

	deadline := time.After(time.Second)
	for rec.total() < 1 {
		select {
		case <-deadline:
			t.Fatal("timer flush never happened")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestStopFlushesRemaining(t *testing.T) {
	rec := &recorder{}
	b := New(100, time.Hour, rec.flush)

	b.Add("x")
	b.Add("y")
	b.Stop()

	if rec.total() != 2 {
		t.Errorf("expected final flush of 2 items, got %d", rec.total())
	}
}

func TestManualFlush(t *testing.T) {
	rec := &recorder{}
	b := New(100, time.Hour, rec.flush)
	defer b.Stop()

	b.Add("x")
	if err := b.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	if b.PendingCount() != 0 {
		t.Errorf("expected empty pending, got %d", b.PendingCount())
	}
	if rec.total() != 1 {
		t.Errorf("expected 1 flushed item, got %d", rec.total())
	}
}
