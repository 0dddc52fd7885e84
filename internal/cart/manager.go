package cart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/cropmarket-backend/internal/session"
	"github.com/angelmondragon/cropmarket-backend/pkg/logger"
	"github.com/angelmondragon/cropmarket-backend/pkg/metrics"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"
)

// ManagerParams wires the per-device stores hosted by the API server.
type ManagerParams struct {
	// LocalFor returns the device-scoped local cache for a device id.
	LocalFor func(deviceID string) LocalCache
	Users    UserStore
	Orders   OrderStore

	Logger  *logger.Logger
	Metrics *metrics.CartMetrics
	Clock   Clock
	Breaker *gobreaker.CircuitBreaker[any]

	RemoteTimeout time.Duration
	ClearAttempts int
	ClearBackoff  time.Duration
}

type deviceEntry struct {
	store   *Store
	session *session.Provider
	// owner is the first signed-in user seen on the device. Once set, the
	// device's local mirror is that user's and no other identity may use it.
	owner string
}

// Manager keeps one Store per device, each with its own session provider.
type Manager struct {
	params  ManagerParams
	logg    *logger.Logger
	mu      sync.Mutex
	devices map[string]*deviceEntry
	group   singleflight.Group
	closed  bool
}

func NewManager(p ManagerParams) (*Manager, error) {
	if p.LocalFor == nil {
		return nil, fmt.Errorf("local cache factory required")
	}
	if p.Logger == nil {
		p.Logger = logger.New(logger.Options{ServiceName: "cart", Output: io.Discard})
	}
	return &Manager{
		params:  p,
		logg:    p.Logger,
		devices: make(map[string]*deviceEntry),
	}, nil
}

// Acquire returns the device's store bound to userID ("" for anonymous),
// creating and loading it on first use. An anonymous device is claimed by the
// first user who signs in on it, which switches the session and reloads the
// cart; Acquire waits for that load to finish. A claimed device rejects every
// other identity, anonymous included, with ErrDeviceOwned.
func (m *Manager) Acquire(ctx context.Context, deviceID, userID string) (*Store, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, fmt.Errorf("device id required")
	}

	entry, err := m.entry(ctx, deviceID, userID)
	if err != nil {
		return nil, err
	}
	if err := m.claim(entry, userID); err != nil {
		logCtx := m.logg.WithFields(ctx, map[string]any{"device_id": deviceID, "user_id": userID})
		m.logg.Warn(logCtx, "device cart requested by a different user")
		return nil, err
	}
	entry.session.Set(userID)
	if err := entry.store.Ready(ctx); err != nil {
		return nil, err
	}
	return entry.store, nil
}

func (m *Manager) claim(entry *deviceEntry, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case entry.owner == userID:
		return nil
	case entry.owner == "":
		entry.owner = userID
		return nil
	default:
		return ErrDeviceOwned
	}
}

func (m *Manager) entry(ctx context.Context, deviceID, userID string) (*deviceEntry, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	if entry, ok := m.devices[deviceID]; ok {
		m.mu.Unlock()
		return entry, nil
	}
	m.mu.Unlock()

	v, err, _ := m.group.Do(deviceID, func() (any, error) {
		m.mu.Lock()
		if entry, ok := m.devices[deviceID]; ok {
			m.mu.Unlock()
			return entry, nil
		}
		m.mu.Unlock()

		provider := session.NewProvider(userID)
		store, err := NewStore(StoreParams{
			Local:         m.params.LocalFor(deviceID),
			Users:         m.params.Users,
			Orders:        m.params.Orders,
			Session:       provider,
			Logger:        m.params.Logger,
			Metrics:       m.params.Metrics,
			Clock:         m.params.Clock,
			Breaker:       m.params.Breaker,
			RemoteTimeout: m.params.RemoteTimeout,
			ClearAttempts: m.params.ClearAttempts,
			ClearBackoff:  m.params.ClearBackoff,
		})
		if err != nil {
			return nil, err
		}

		loadCtx := m.logg.WithDeviceID(context.WithoutCancel(ctx), deviceID)
		if _, err := store.Load(loadCtx); err != nil && !errors.Is(err, ErrStaleLoad) {
			_ = store.Close(loadCtx)
			return nil, err
		}

		entry := &deviceEntry{store: store, session: provider, owner: userID}
		m.mu.Lock()
		m.devices[deviceID] = entry
		m.mu.Unlock()
		return entry, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*deviceEntry), nil
}

// Devices reports how many device stores are live.
func (m *Manager) Devices() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.devices)
}

// Close flushes and closes every store. Mirror failures surfaced by the final
// flush are returned combined.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	entries := make([]*deviceEntry, 0, len(m.devices))
	for _, entry := range m.devices {
		entries = append(entries, entry)
	}
	m.devices = make(map[string]*deviceEntry)
	m.mu.Unlock()

	var errs error
	for _, entry := range entries {
		errs = multierr.Append(errs, entry.store.Flush(ctx))
		errs = multierr.Append(errs, entry.store.Close(ctx))
	}
	return errs
}
