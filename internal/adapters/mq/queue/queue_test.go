package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/trustscore/internal/domain/model"
)

func job(seq int) Job {
	return Job{Seq: seq, Descriptor: model.RepositoryDescriptor{Name: fmt.Sprintf("repo-%d", seq)}}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if err := q.Put(ctx, job(1)); err != nil {
		t.Errorf("expected put to succeed, got %v", err)
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.Seq != 1 || got.Descriptor.Name != "repo-1" {
		t.Errorf("unexpected job %+v", got)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if err := q.Put(ctx, job(1)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := q.Put(ctx, job(2)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2 at capacity, got %d", l)
	}
}

func TestInMemoryQueue_PutBlocksUntilRoom(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1))
	ctx := context.Background()

	if err := q.Put(ctx, job(1)); err != nil {
		t.Fatalf("put: %v", err)
	}

	tctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := q.Put(tctx, job(2)); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- q.Put(ctx, job(3)) }()

	out := q.Dequeue(ctx)
	if j := <-out; j.Seq != 1 {
		t.Errorf("expected seq 1, got %d", j.Seq)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("put after room freed: %v", err)
		}
	case <-time.After(time.Second):
		t.Error("put did not unblock")
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	const producers, perProducer = 8, 50
	q := NewInMemoryQueue(WithCapacity(producers * perProducer))
	ctx := context.Background()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				if err := q.Put(ctx, job(p*perProducer+i)); err != nil {
					t.Errorf("put: %v", err)
				}
			}
		}(p)
	}
	wg.Wait()
	_ = q.Close()

	seen := map[int]bool{}
	for j := range q.Dequeue(ctx) {
		if seen[j.Seq] {
			t.Errorf("duplicate seq %d", j.Seq)
		}
		seen[j.Seq] = true
	}
	if len(seen) != producers*perProducer {
		t.Errorf("expected %d jobs, got %d", producers*perProducer, len(seen))
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx := context.Background()

	_ = q.Put(ctx, job(1))
	_ = q.Put(ctx, job(2))

	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to report closed")
	}
	if err := q.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
	if err := q.Put(ctx, job(3)); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	count := 0
	for range q.Dequeue(ctx) {
		count++
	}
	if count != 2 {
		t.Errorf("expected queued jobs to drain after close, got %d", count)
	}
}
