package service

import (
	"context"
	"sort"
	"sync"

	"github.com/okian/trustscore/internal/adapters/mq/worker"
)

// orderedSink re-sequences results by input position before emitting them.
type orderedSink struct {
	mu      sync.Mutex
	next    int
	pending map[int]worker.Result
	emit    func(context.Context, worker.Result) error
}

func newOrderedSink(emit func(context.Context, worker.Result) error) *orderedSink {
	return &orderedSink{pending: map[int]worker.Result{}, emit: emit}
}

func (o *orderedSink) Deliver(ctx context.Context, r worker.Result) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending[r.Seq] = r
	for {
		p, ok := o.pending[o.next]
		if !ok {
			return nil
		}
		delete(o.pending, o.next)
		o.next++
		if err := o.emit(ctx, p); err != nil {
			return err
		}
	}
}

// flush emits whatever is left, in order, when the input had gaps.
func (o *orderedSink) flush(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	seqs := make([]int, 0, len(o.pending))
	for s := range o.pending {
		seqs = append(seqs, s)
	}
	sort.Ints(seqs)
	for _, s := range seqs {
		r := o.pending[s]
		delete(o.pending, s)
		if err := o.emit(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
