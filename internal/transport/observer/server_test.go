package observer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"
	"go.uber.org/goleak"

	"pioneer.ai/internal/agent"
	"pioneer.ai/internal/observerproto"
	"pioneer.ai/internal/sim/model"
	"pioneer.ai/internal/sim/runner"
	"pioneer.ai/internal/sim/world"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testServer() (*Server, *httptest.Server) {
	s := NewServer(world.Config{Size: 16, Seed: 9, MinutesPerTick: 30, MaxEnergy: 1000, BackpackCapacity: 20}, "run-1", nil)
	mux := http.NewServeMux()
	mux.HandleFunc("/observer/bootstrap", s.BootstrapHandler())
	mux.HandleFunc("/observer/ws", s.WSHandler())
	return s, httptest.NewServer(mux)
}

func TestBootstrap(t *testing.T) {
	s, srv := testServer()
	defer srv.Close()
	s.Publish(runner.Frame{Tick: 41})

	resp, err := http.Get(srv.URL + "/observer/bootstrap")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var got observerproto.BootstrapResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := observerproto.BootstrapResponse{
		ProtocolVersion: observerproto.Version,
		RunID:           "run-1",
		Tick:            41,
		WorldParams:     observerproto.WorldParams{Size: 16, Seed: 9, MinutesPerTick: 30, MaxEnergy: 1000, BackpackCapacity: 20},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("bootstrap (-want +got):\n%s", diff)
	}
}

func subscribe(t *testing.T, s *Server, srv *httptest.Server, tiles bool) *websocket.Conn {
	t.Helper()
	c, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/observer/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	sub := observerproto.SubscribeMsg{Type: "SUBSCRIBE", ProtocolVersion: observerproto.Version, Tiles: tiles}
	if err := c.WriteJSON(sub); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for s.Sessions() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("session not registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return c
}

func TestStream(t *testing.T) {
	s, srv := testServer()
	defer srv.Close()
	c := subscribe(t, s, srv, true)
	defer c.Close()

	dest := model.Coord{Row: 3, Col: 4}
	s.Publish(runner.Frame{
		Tick:    7,
		Pos:     model.Coord{Row: 1, Col: 2},
		Energy:  900,
		DayTime: model.Afternoon,
		Weather: model.Rainy,
		Agent:   agent.Status{Current: "MovingTo(true)", Next: "None", Destination: &dest, Pilot: "none", Running: true},
		Events: []model.Event{
			{Type: model.EventMoved, Pos: model.Coord{Row: 1, Col: 2}},
			{Type: model.EventTileContentUpdated, Pos: model.Coord{Row: 1, Col: 3}, Tile: model.Tile{Type: model.Grass}},
		},
	})

	_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got observerproto.TickMsg
	if err := c.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	want := observerproto.TickMsg{
		Type:            "TICK",
		ProtocolVersion: observerproto.Version,
		Tick:            7,
		DayTime:         "AFTERNOON",
		Weather:         "RAINY",
		Pos:             [2]int{1, 2},
		Energy:          900,
		Agent:           observerproto.AgentState{Current: "MovingTo(true)", Next: "None", Destination: &[2]int{3, 4}, Pilot: "none", Running: true},
		Tiles:           []observerproto.TilePatch{{Row: 1, Col: 3, Type: "GRASS", Content: "NONE"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("tick (-want +got):\n%s", diff)
	}
}

func TestRejectsBadSubscribe(t *testing.T) {
	_, srv := testServer()
	defer srv.Close()
	c, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/observer/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()
	_ = c.WriteJSON(map[string]string{"type": "HELLO"})
	_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := c.ReadMessage(); !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("err=%v", err)
	}
}

func TestIsLoopbackRemote(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1:5000": true,
		"[::1]:80":       true,
		"10.0.0.4:80":    false,
		"garbage":        false,
	}
	for in, want := range cases {
		if got := isLoopbackRemote(in); got != want {
			t.Fatalf("%s: got %v", in, got)
		}
	}
}
