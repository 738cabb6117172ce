// Package subscription keeps pool and position snapshots fresh. A
// websocket watcher listens for on-chain object events and invalidates a
// snapshot cache layered over the lookup adapter. The cache is injected
// and owned by its caller, never a process-wide singleton.
package subscription

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ObjectWatcher manages a websocket subscription stream for object events.
type ObjectWatcher struct {
	url            string
	conn           *websocket.Conn
	mu             sync.RWMutex
	subscriptions  map[uint64]*objectSubscription
	handlers       map[uint64]ObjectEventHandler
	nextID         uint64
	reconnectDelay time.Duration
	ctx            context.Context
	cancel         context.CancelFunc
	connected      bool
	log            *zap.Logger
}

type objectSubscription struct {
	id       uint64
	objectID string
	// remoteID is the node-assigned subscription ID, zero until confirmed.
	remoteID uint64
}

// ObjectEventHandler is called for each event touching a watched object.
type ObjectEventHandler func(objectID string, event json.RawMessage)

type wsRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type wsResponse struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *wsError        `json:"error,omitempty"`
}

type wsError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type wsNotification struct {
	Method string `json:"method"`
	Params struct {
		Subscription uint64          `json:"subscription"`
		Result       json.RawMessage `json:"result"`
	} `json:"params"`
}

// NewObjectWatcher connects to the node and starts the read and reconnect
// loops. The watcher lives until ctx is cancelled or Close is called.
func NewObjectWatcher(ctx context.Context, wsURL string, logger *zap.Logger) (*ObjectWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	watcherCtx, cancel := context.WithCancel(ctx)

	w := &ObjectWatcher{
		url:            wsURL,
		subscriptions:  make(map[uint64]*objectSubscription),
		handlers:       make(map[uint64]ObjectEventHandler),
		nextID:         1,
		reconnectDelay: 5 * time.Second,
		ctx:            watcherCtx,
		cancel:         cancel,
		log:            logger,
	}

	if err := w.connect(); err != nil {
		cancel()
		return nil, err
	}

	go w.readLoop()
	go w.reconnectLoop()

	return w, nil
}

func (w *ObjectWatcher) connect() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	conn, _, err := websocket.DefaultDialer.Dial(w.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect websocket: %w", err)
	}

	w.conn = conn
	w.connected = true
	w.log.Info("websocket connected", zap.String("url", w.url))
	return nil
}

// Subscribe registers a handler for events on one object and returns a
// local subscription ID usable with Unsubscribe.
func (w *ObjectWatcher) Subscribe(objectID string, handler ObjectEventHandler) (uint64, error) {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.mu.Unlock()

	if err := w.send(subscribeRequest(id, objectID)); err != nil {
		return 0, err
	}

	w.mu.Lock()
	w.handlers[id] = handler
	w.subscriptions[id] = &objectSubscription{id: id, objectID: objectID}
	w.mu.Unlock()

	return id, nil
}

// Unsubscribe removes a subscription by local ID.
func (w *ObjectWatcher) Unsubscribe(id uint64) error {
	w.mu.Lock()
	sub, exists := w.subscriptions[id]
	if !exists {
		w.mu.Unlock()
		return fmt.Errorf("subscription not found: %d", id)
	}
	remoteID := sub.remoteID
	delete(w.subscriptions, id)
	delete(w.handlers, id)
	w.mu.Unlock()

	if remoteID == 0 {
		// Never confirmed by the node, nothing to tear down remotely.
		return nil
	}
	return w.send(wsRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  "suix_unsubscribeEvent",
		Params:  []any{remoteID},
	})
}

func subscribeRequest(id uint64, objectID string) wsRequest {
	return wsRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  "suix_subscribeEvent",
		Params:  []any{map[string]any{"Object": objectID}},
	}
}

func (w *ObjectWatcher) send(req wsRequest) error {
	w.mu.RLock()
	conn := w.conn
	w.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("not connected")
	}
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (w *ObjectWatcher) readLoop() {
	for {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()

		if conn == nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			w.log.Warn("websocket read error", zap.Error(err))
			w.mu.Lock()
			w.connected = false
			w.mu.Unlock()
			time.Sleep(100 * time.Millisecond)
			continue
		}

		w.handleMessage(message)
	}
}

func (w *ObjectWatcher) handleMessage(data []byte) {
	var notification wsNotification
	if err := json.Unmarshal(data, &notification); err == nil && notification.Method != "" {
		w.handleNotification(notification)
		return
	}

	var response wsResponse
	if err := json.Unmarshal(data, &response); err != nil {
		w.log.Warn("unparseable websocket message", zap.Error(err))
		return
	}
	w.handleResponse(response)
}

func (w *ObjectWatcher) handleResponse(response wsResponse) {
	if response.Error != nil {
		w.log.Warn("subscription rpc error",
			zap.Int("code", response.Error.Code),
			zap.String("message", response.Error.Message))
		return
	}

	var remoteID uint64
	if err := json.Unmarshal(response.Result, &remoteID); err != nil {
		return
	}

	w.mu.Lock()
	if sub, exists := w.subscriptions[response.ID]; exists {
		sub.remoteID = remoteID
	}
	w.mu.Unlock()
}

func (w *ObjectWatcher) handleNotification(notification wsNotification) {
	w.mu.RLock()
	var handler ObjectEventHandler
	var objectID string
	for _, sub := range w.subscriptions {
		if sub.remoteID == notification.Params.Subscription {
			handler = w.handlers[sub.id]
			objectID = sub.objectID
			break
		}
	}
	w.mu.RUnlock()

	if handler != nil {
		handler(objectID, notification.Params.Result)
	}
}

func (w *ObjectWatcher) reconnectLoop() {
	ticker := time.NewTicker(w.reconnectDelay)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.mu.RLock()
			connected := w.connected
			w.mu.RUnlock()
			if connected {
				continue
			}

			if err := w.reconnect(); err != nil {
				w.log.Warn("websocket reconnect failed", zap.Error(err))
			} else {
				w.log.Info("websocket reconnected")
			}
		}
	}
}

// reconnect re-dials and replays every live subscription. Remote IDs are
// reset first so stale notifications from the old session are dropped.
func (w *ObjectWatcher) reconnect() error {
	if err := w.connect(); err != nil {
		return err
	}

	w.mu.Lock()
	subs := make([]*objectSubscription, 0, len(w.subscriptions))
	for _, sub := range w.subscriptions {
		sub.remoteID = 0
		subs = append(subs, sub)
	}
	w.mu.Unlock()

	for _, sub := range subs {
		if err := w.send(subscribeRequest(sub.id, sub.objectID)); err != nil {
			w.log.Warn("resubscribe failed",
				zap.String("object_id", sub.objectID), zap.Error(err))
		}
	}
	return nil
}

// IsConnected reports whether the websocket is currently up.
func (w *ObjectWatcher) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connected
}

// Close stops the loops and closes the connection.
func (w *ObjectWatcher) Close() error {
	w.cancel()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		return w.conn.Close()
	}
	return nil
}
