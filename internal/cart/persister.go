package cart

import (
	"context"
	"sync"

	"go.uber.org/multierr"
)

const (
	mirrorLocal  = "local"
	mirrorRemote = "remote"

	opAdd           = "add"
	opRemove        = "remove"
	opClear         = "clear"
	opCheckoutClear = "checkout_clear"
	opMirrorLocal   = "mirror_local"
	opPushRemote    = "push_remote"
)

// persistTask is one queued mirror write. lines is a private snapshot taken
// when the task was enqueued.
type persistTask struct {
	op       string
	userID   string
	lines    []Line
	clear    bool
	local    bool
	remote   bool
	attempts int

	barrier chan struct{}
}

// persister runs tasks one at a time in enqueue order on a single goroutine.
// The queue is unbounded so enqueueing never blocks a caller holding the
// store lock.
type persister struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []persistTask
	errs   error
	closed bool
	done   chan struct{}

	exec func(context.Context, persistTask) error
	ctx  context.Context
}

func newPersister(ctx context.Context, exec func(context.Context, persistTask) error) *persister {
	p := &persister{
		done: make(chan struct{}),
		exec: exec,
		ctx:  ctx,
	}
	p.cond = sync.NewCond(&p.mu)
	go p.run()
	return p
}

func (p *persister) enqueue(task persistTask) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.queue = append(p.queue, task)
	p.cond.Signal()
	return true
}

func (p *persister) run() {
	defer close(p.done)
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		task := p.queue[0]
		p.queue[0] = persistTask{}
		p.queue = p.queue[1:]
		p.mu.Unlock()

		if task.barrier != nil {
			close(task.barrier)
			continue
		}
		if err := p.exec(p.ctx, task); err != nil {
			p.mu.Lock()
			p.errs = multierr.Append(p.errs, err)
			p.mu.Unlock()
		}
	}
}

// flush waits for every task enqueued before the call and returns the
// failures collected since the previous flush.
func (p *persister) flush(ctx context.Context) error {
	barrier := make(chan struct{})
	if !p.enqueue(persistTask{barrier: barrier}) {
		select {
		case <-p.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	} else {
		select {
		case <-barrier:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.errs
	p.errs = nil
	return err
}

// close stops accepting tasks and waits for the queue to drain.
func (p *persister) close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
