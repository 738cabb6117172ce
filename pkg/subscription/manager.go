package subscription

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	"go.uber.org/zap"

	"clmmtx/pkg/clmm"
)

// Manager ties an ObjectWatcher to a SnapshotCache: tracked objects are
// invalidated in the cache whenever the watcher sees an event for them,
// so reads through the manager stay close to chain state between TTL
// refreshes. Manager itself satisfies Lookup.
type Manager struct {
	watcher *ObjectWatcher
	cache   *SnapshotCache
	log     *zap.Logger

	mu     sync.RWMutex
	subs   map[string]uint64 // object ID -> watcher subscription ID
	cancel context.CancelFunc
}

// NewManager connects a watcher to wsURL and layers a TTL cache over
// inner. Close releases the websocket.
func NewManager(ctx context.Context, wsURL string, inner Lookup, ttl time.Duration, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	managerCtx, cancel := context.WithCancel(ctx)

	watcher, err := NewObjectWatcher(managerCtx, wsURL, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start object watcher: %w", err)
	}

	return &Manager{
		watcher: watcher,
		cache:   NewSnapshotCache(inner, ttl, logger),
		log:     logger,
		subs:    make(map[string]uint64),
		cancel:  cancel,
	}, nil
}

// Track subscribes to events on the object and invalidates its cached
// snapshot on every event. Tracking an already-tracked object is a no-op.
func (m *Manager) Track(objectID string) error {
	// Held across subscribe so concurrent Track calls for the same object
	// cannot both register a watcher subscription.
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.subs[objectID]; exists {
		return nil
	}

	subID, err := m.watcher.Subscribe(objectID, func(id string, event json.RawMessage) {
		m.cache.Invalidate(id)
		m.log.Debug("invalidated snapshot on event", zap.String("object_id", id))
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", objectID, err)
	}
	m.subs[objectID] = subID

	m.log.Info("tracking object", zap.String("object_id", objectID))
	return nil
}

// Untrack stops watching the object and drops its cached snapshot.
func (m *Manager) Untrack(objectID string) error {
	m.mu.Lock()
	subID, exists := m.subs[objectID]
	if exists {
		delete(m.subs, objectID)
	}
	m.mu.Unlock()

	if !exists {
		return nil
	}

	m.cache.Invalidate(objectID)
	if err := m.watcher.Unsubscribe(subID); err != nil {
		return fmt.Errorf("failed to unsubscribe from %s: %w", objectID, err)
	}
	return nil
}

func (m *Manager) GetPool(ctx context.Context, id string) (*clmm.Pool, error) {
	return m.cache.GetPool(ctx, id)
}

func (m *Manager) GetPositionLiquidity(ctx context.Context, id string) (sdkmath.Int, error) {
	return m.cache.GetPositionLiquidity(ctx, id)
}

// IsConnected reports whether the underlying websocket is up.
func (m *Manager) IsConnected() bool {
	return m.watcher.IsConnected()
}

// Stats returns a snapshot of subscription and cache counters.
func (m *Manager) Stats() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]any{
		"tracked":   len(m.subs),
		"cached":    m.cache.Size(),
		"connected": m.watcher.IsConnected(),
		"timestamp": time.Now().Format(time.RFC3339),
	}
}

// Close stops tracking everything and closes the websocket.
func (m *Manager) Close() error {
	m.cancel()

	m.mu.Lock()
	m.subs = make(map[string]uint64)
	m.mu.Unlock()

	m.cache.Clear()
	return m.watcher.Close()
}
