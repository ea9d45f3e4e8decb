package store

import (
	"context"
	"errors"
	"sync"
)

type commitHooksKey struct{}

type hookQueue struct {
	mu  sync.Mutex
	fns []func(ctx context.Context) error
}

// CommitHooks collects work that must only happen once the outermost
// transaction on a context has committed.
type CommitHooks struct {
	queue *hookQueue
	owner bool
}

// BeginCommitHooks attaches a hook queue to ctx. When ctx already carries one
// the returned hooks join it and Run does nothing, so only the outermost scope flushes.
func BeginCommitHooks(ctx context.Context) (context.Context, *CommitHooks) {
	if queue, ok := ctx.Value(commitHooksKey{}).(*hookQueue); ok {
		return ctx, &CommitHooks{queue: queue}
	}
	queue := &hookQueue{}
	return context.WithValue(ctx, commitHooksKey{}, queue), &CommitHooks{queue: queue, owner: true}
}

// Run calls the queued hooks in order and empties the queue. Every hook runs
// even when an earlier one fails; the failures are joined.
func (h *CommitHooks) Run(ctx context.Context) error {
	if !h.owner {
		return nil
	}

	h.queue.mu.Lock()
	fns := h.queue.fns
	h.queue.fns = nil
	h.queue.mu.Unlock()

	var errs []error
	for _, fn := range fns {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AfterCommit queues fn until the transaction on ctx commits. Rolled back
// transactions drop their hooks. Outside a transaction fn runs immediately.
func AfterCommit(ctx context.Context, fn func(ctx context.Context) error) error {
	queue, ok := ctx.Value(commitHooksKey{}).(*hookQueue)
	if !ok {
		return fn(ctx)
	}

	queue.mu.Lock()
	defer queue.mu.Unlock()
	queue.fns = append(queue.fns, fn)
	return nil
}
