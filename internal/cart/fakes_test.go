package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/angelmondragon/cropmarket-backend/internal/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type memLocal struct {
	mu        sync.Mutex
	data      map[string][]byte
	readErr   error
	writeErr  error
	deleteErr error
	writes    int
	deletes   int
}

func newMemLocal() *memLocal {
	return &memLocal{data: map[string][]byte{}}
}

func (m *memLocal) Read(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, false, m.readErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memLocal) Write(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.writeErr != nil {
		return m.writeErr
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memLocal) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.data, key)
	return nil
}

func (m *memLocal) raw(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

type fakeUsers struct {
	mu          sync.Mutex
	records     map[string]*UserRecord
	readErr     error
	writeErr    error
	deleteErr   error
	deleteFails int
	appendErr   error
	writes      int
	deletes     int
	reads       int
	gates       map[string]chan struct{}
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{records: map[string]*UserRecord{}, gates: map[string]chan struct{}{}}
}

// gate makes reads for userID block until the returned func is called.
func (f *fakeUsers) gate(userID string) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[userID] = ch
	f.mu.Unlock()
	return func() { close(ch) }
}

func (f *fakeUsers) ReadUserRecord(_ context.Context, userID string) (*UserRecord, error) {
	f.mu.Lock()
	ch := f.gates[userID]
	f.reads++
	f.mu.Unlock()
	if ch != nil {
		<-ch
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	rec, ok := f.records[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *rec
	cp.Cart = CloneLines(rec.Cart)
	cp.Orders = append([]OrderRecord(nil), rec.Orders...)
	return &cp, nil
}

func (f *fakeUsers) WriteUserCart(_ context.Context, userID string, lines []Line) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if f.writeErr != nil {
		return f.writeErr
	}
	rec := f.recordLocked(userID)
	rec.Cart = CloneLines(lines)
	rec.HasCart = true
	return nil
}

func (f *fakeUsers) DeleteUserCart(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.deleteFails > 0 {
		f.deleteFails--
		return errors.New("remote unavailable")
	}
	if f.deleteErr != nil {
		return f.deleteErr
	}
	rec := f.recordLocked(userID)
	rec.Cart = nil
	rec.HasCart = false
	return nil
}

func (f *fakeUsers) AppendUserOrder(_ context.Context, userID string, order OrderRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	rec := f.recordLocked(userID)
	rec.Orders = append(rec.Orders, order)
	return nil
}

func (f *fakeUsers) recordLocked(userID string) *UserRecord {
	rec, ok := f.records[userID]
	if !ok {
		rec = &UserRecord{ID: userID}
		f.records[userID] = rec
	}
	return rec
}

func (f *fakeUsers) seed(userID string, lines ...Line) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := f.recordLocked(userID)
	rec.Cart = CloneLines(lines)
	rec.HasCart = true
}

func (f *fakeUsers) counts() (writes, deletes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes, f.deletes
}

func (f *fakeUsers) record(userID string) UserRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[userID]
	if !ok {
		return UserRecord{}
	}
	return *rec
}

type fakeOrders struct {
	mu     sync.Mutex
	orders []OrderRecord
	err    error
}

func (f *fakeOrders) CreateOrder(_ context.Context, order OrderRecord) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.orders = append(f.orders, order)
	return order.ID, nil
}

func (f *fakeOrders) created() []OrderRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]OrderRecord(nil), f.orders...)
}

type harness struct {
	store   *Store
	local   *memLocal
	users   *fakeUsers
	orders  *fakeOrders
	session *session.Provider
}

type harnessOption func(*StoreParams)

func withoutRemote() harnessOption {
	return func(p *StoreParams) {
		p.Users = nil
		p.Orders = nil
	}
}

func newHarness(t *testing.T, userID string, opts ...harnessOption) *harness {
	t.Helper()
	h := &harness{
		local:   newMemLocal(),
		users:   newFakeUsers(),
		orders:  &fakeOrders{},
		session: session.NewProvider(userID),
	}
	params := StoreParams{
		Local:         h.local,
		Users:         h.users,
		Orders:        h.orders,
		Session:       h.session,
		ClearAttempts: 3,
	}
	for _, opt := range opts {
		opt(&params)
	}
	store, err := NewStore(params)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	h.store = store
	return h
}

func (h *harness) load(t *testing.T) LoadSource {
	t.Helper()
	source, err := h.store.Load(context.Background())
	require.NoError(t, err)
	return source
}

func (h *harness) flush(t *testing.T) error {
	t.Helper()
	return h.store.Flush(context.Background())
}

func price(t *testing.T, v string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(v)
	require.NoError(t, err)
	return d
}

func line(t *testing.T, id, name, unit string, qty int) LineInput {
	t.Helper()
	return LineInput{ID: id, Name: name, UnitPrice: price(t, unit), Quantity: qty}
}
