package subscription

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// eventServer upgrades connections and confirms every subscribe request,
// counting how many it saw.
func eventServer(t *testing.T, subscribes *atomic.Int64) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		for {
			var req wsRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			if req.Method == "suix_subscribeEvent" {
				subscribes.Add(1)
				if err := conn.WriteJSON(map[string]any{
					"jsonrpc": "2.0", "id": req.ID, "result": 1000 + req.ID,
				}); err != nil {
					return
				}
			}
		}
	}))
}

func TestManagerTrackOnce(t *testing.T) {
	var subscribes atomic.Int64
	srv := eventServer(t, &subscribes)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager, err := NewManager(ctx, wsURL, &countingLookup{liquidity: 1}, time.Minute, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer manager.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := manager.Track("0xp00l"); err != nil {
				t.Errorf("track failed: %v", err)
			}
		}()
	}
	wg.Wait()

	deadline := time.Now().Add(2 * time.Second)
	for subscribes.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)
	if got := subscribes.Load(); got != 1 {
		t.Errorf("subscribe requests = %d, want 1 for concurrent tracking of one object", got)
	}

	if tracked := manager.Stats()["tracked"].(int); tracked != 1 {
		t.Errorf("tracked = %d, want 1", tracked)
	}
	if err := manager.Track("0xp00l"); err != nil {
		t.Errorf("repeat track failed: %v", err)
	}
}
