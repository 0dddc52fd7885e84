package cart

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/cropmarket-backend/pkg/logger"
	"github.com/angelmondragon/cropmarket-backend/pkg/metrics"
	"github.com/sony/gobreaker/v2"
)

const (
	defaultClearAttempts = 3
	defaultClearBackoff  = 500 * time.Millisecond
)

// StoreParams wires a Store. Users and Orders are optional; without them the
// store runs local-only and checkout reports ErrSessionRequired.
type StoreParams struct {
	Local   LocalCache
	Users   UserStore
	Orders  OrderStore
	Session SessionSource

	Logger  *logger.Logger
	Metrics *metrics.CartMetrics
	Clock   Clock
	// Breaker guards every remote call when set. It may be shared between
	// stores so one unhealthy backend trips them all.
	Breaker *gobreaker.CircuitBreaker[any]

	RemoteTimeout time.Duration
	ClearAttempts int
	ClearBackoff  time.Duration
}

// Store is the single source of truth for one device's cart. Memory is
// authoritative; the local cache and the remote user document are mirrors
// written in the background in operation order.
type Store struct {
	mu         sync.Mutex
	lines      []Line
	loaded     bool
	userID     string
	generation uint64
	ready      chan struct{}
	readyDone  bool
	source     LoadSource
	closed     bool

	checkoutMu sync.Mutex

	local         LocalCache
	users         UserStore
	orders        OrderStore
	session       SessionSource
	unsubscribe   func()
	logg          *logger.Logger
	metrics       *metrics.CartMetrics
	now           Clock
	clearAttempts int
	clearBackoff  time.Duration

	persister *persister
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewStore validates the dependencies and subscribes to session changes.
// The store starts unloaded; call Load (or wait on Ready after a session
// change) before relying on its contents.
func NewStore(p StoreParams) (*Store, error) {
	if p.Local == nil {
		return nil, fmt.Errorf("local cache required")
	}
	if p.Session == nil {
		return nil, fmt.Errorf("session source required")
	}
	if p.Logger == nil {
		p.Logger = logger.New(logger.Options{ServiceName: "cart", Output: io.Discard})
	}
	if p.Clock == nil {
		p.Clock = time.Now
	}
	if p.ClearAttempts < 1 {
		p.ClearAttempts = defaultClearAttempts
	}
	if p.ClearBackoff < 0 {
		p.ClearBackoff = defaultClearBackoff
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		ready:         make(chan struct{}),
		local:         p.Local,
		session:       p.Session,
		logg:          p.Logger,
		metrics:       p.Metrics,
		now:           p.Clock,
		clearAttempts: p.ClearAttempts,
		clearBackoff:  p.ClearBackoff,
		ctx:           ctx,
		cancel:        cancel,
	}
	if p.Users != nil || p.Orders != nil {
		guard := newRemoteGuard(p.Users, p.Orders, p.RemoteTimeout, p.Breaker)
		if p.Users != nil {
			s.users = guard
		}
		if p.Orders != nil {
			s.orders = guard
		}
	}
	s.persister = newPersister(ctx, s.persist)
	s.unsubscribe = p.Session.Subscribe(s.onSessionChange)
	return s, nil
}

// AddLine merges into an existing line with the same id (quantity only) or
// appends a new one.
func (s *Store) AddLine(ctx context.Context, in LineInput) error {
	if err := validateLineInput(in); err != nil {
		return err
	}
	id := strings.TrimSpace(in.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	merged := false
	for i := range s.lines {
		if s.lines[i].ID == id {
			s.lines[i].Quantity += in.Quantity
			merged = true
			break
		}
	}
	if !merged {
		s.lines = append(s.lines, Line{
			ID:        id,
			Name:      strings.TrimSpace(in.Name),
			UnitPrice: in.UnitPrice,
			Quantity:  in.Quantity,
		})
	}
	s.persistLocked(ctx, opAdd)
	return nil
}

// RemoveLine drops the whole line. Removing an absent id is a no-op.
func (s *Store) RemoveLine(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	idx := -1
	for i := range s.lines {
		if s.lines[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	next := make([]Line, 0, len(s.lines)-1)
	next = append(next, s.lines[:idx]...)
	next = append(next, s.lines[idx+1:]...)
	s.lines = next
	s.persistLocked(ctx, opRemove)
	return nil
}

// Clear empties the cart and removes it from both mirrors.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.lines = nil
	s.persistLocked(ctx, opClear)
	return nil
}

// Snapshot returns a copy of the lines in insertion order.
func (s *Store) Snapshot() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := CloneLines(s.lines)
	if out == nil {
		out = []Line{}
	}
	return out
}

// Totals recomputes item count and price from the current lines.
func (s *Store) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ComputeTotals(s.lines)
}

// Loaded reports whether the current load has completed.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// UserID is the session the cart currently belongs to ("" when anonymous).
func (s *Store) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Source is the reconciliation rule applied by the last completed load.
func (s *Store) Source() LoadSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// Ready blocks until the most recent load has completed.
func (s *Store) Ready(ctx context.Context) error {
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return ErrClosed
		}
		if s.loaded {
			s.mu.Unlock()
			return nil
		}
		ch := s.ready
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Flush waits for every mirror write enqueued so far and returns the
// failures recorded since the previous Flush.
func (s *Store) Flush(ctx context.Context) error {
	return s.persister.flush(ctx)
}

// Close stops listening for session changes and drains pending writes.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if !s.readyDone {
		s.readyDone = true
		close(s.ready)
	}
	s.mu.Unlock()

	s.unsubscribe()
	err := s.persister.close(ctx)
	s.cancel()
	return err
}

// persistLocked enqueues a mirror write of the current state. Mutations made
// before the load completes are not persisted; the load result replaces them.
func (s *Store) persistLocked(ctx context.Context, op string) {
	if !s.loaded {
		s.logg.Debug(s.logCtx(ctx, op), "cart not loaded; skipping persistence")
		return
	}
	task := persistTask{
		op:       op,
		userID:   s.userID,
		lines:    CloneLines(s.lines),
		clear:    len(s.lines) == 0 && op == opClear,
		local:    true,
		remote:   s.userID != "" && s.users != nil,
		attempts: 1,
	}
	s.enqueueLocked(ctx, task)
}

func (s *Store) enqueueLocked(ctx context.Context, task persistTask) {
	if !s.persister.enqueue(task) {
		s.logg.Warn(s.logCtx(ctx, task.op), "cart store closed; dropping persistence task")
	}
}

func (s *Store) logCtx(ctx context.Context, op string) context.Context {
	if ctx == nil {
		ctx = s.ctx
	}
	return s.logg.WithFields(ctx, map[string]any{
		"component": "cart_store",
		"op":        op,
	})
}
