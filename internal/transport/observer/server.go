// Package observer streams tick summaries to local dashboards.
package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"pioneer.ai/internal/observerproto"
	"pioneer.ai/internal/sim/model"
	"pioneer.ai/internal/sim/runner"
	"pioneer.ai/internal/sim/world"
)

type session struct {
	tiles atomic.Bool
	out   chan []byte
}

type Server struct {
	params observerproto.WorldParams
	runID  string
	log    *zap.Logger

	tick atomic.Uint64

	mu       sync.Mutex
	sessions map[string]*session
	nextID   atomic.Uint64

	upgrader websocket.Upgrader
}

func NewServer(cfg world.Config, runID string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		params: observerproto.WorldParams{
			Size:             cfg.Size,
			Seed:             cfg.Seed,
			MinutesPerTick:   cfg.MinutesPerTick,
			MaxTicks:         cfg.MaxTicks,
			MaxEnergy:        cfg.MaxEnergy,
			BackpackCapacity: cfg.BackpackCapacity,
		},
		runID:    runID,
		log:      log,
		sessions: map[string]*session{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// Publish fans a frame out to every session; it never blocks the tick loop.
// Slow sessions miss frames.
func (s *Server) Publish(f runner.Frame) {
	s.tick.Store(f.Tick)
	msg := tickMsg(f)

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions) == 0 {
		return
	}
	var full, bare []byte
	for id, sess := range s.sessions {
		var b []byte
		if sess.tiles.Load() {
			if full == nil {
				full, _ = json.Marshal(msg)
			}
			b = full
		} else {
			if bare == nil {
				m := msg
				m.Tiles = nil
				bare, _ = json.Marshal(m)
			}
			b = bare
		}
		select {
		case sess.out <- b:
		default:
			s.log.Debug("observer lagging", zap.String("session", id))
		}
	}
}

func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		resp := observerproto.BootstrapResponse{
			ProtocolVersion: observerproto.Version,
			RunID:           s.runID,
			Tick:            s.tick.Load(),
			WorldParams:     s.params,
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		sub, ok := parseSubscribe(msg)
		if !ok {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"), time.Now().Add(time.Second))
			return
		}

		sid := fmt.Sprintf("O%d", s.nextID.Add(1))
		sess := &session{out: make(chan []byte, 8)}
		sess.tiles.Store(sub.Tiles)
		s.mu.Lock()
		s.sessions[sid] = sess
		s.mu.Unlock()
		defer func() {
			s.mu.Lock()
			delete(s.sessions, sid)
			s.mu.Unlock()
		}()
		s.log.Debug("observer joined", zap.String("session", sid))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b := <-sess.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reader loop: allow SUBSCRIBE updates.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			if sub, ok := parseSubscribe(msg); ok {
				sess.tiles.Store(sub.Tiles)
			}
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		// Best-effort wait for the writer to stop so it doesn't outlive conn.
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func parseSubscribe(msg []byte) (observerproto.SubscribeMsg, bool) {
	var sub observerproto.SubscribeMsg
	if err := json.Unmarshal(msg, &sub); err != nil {
		return sub, false
	}
	return sub, sub.Type == "SUBSCRIBE" && sub.ProtocolVersion == observerproto.Version
}

func tickMsg(f runner.Frame) observerproto.TickMsg {
	m := observerproto.TickMsg{
		Type:            "TICK",
		ProtocolVersion: observerproto.Version,
		Tick:            f.Tick,
		DayTime:         f.DayTime.String(),
		Weather:         f.Weather.String(),
		Pos:             [2]int{f.Pos.Row, f.Pos.Col},
		Energy:          f.Energy,
		Score:           f.Score,
		Agent: observerproto.AgentState{
			Current:  f.Agent.Current,
			Next:     f.Agent.Next,
			Pilot:    f.Agent.Pilot,
			Pins:     f.Agent.Pins,
			Depleted: f.Agent.Depleted,
			Running:  f.Agent.Running,
		},
		Completed: f.Completed,
	}
	if d := f.Agent.Destination; d != nil {
		m.Agent.Destination = &[2]int{d.Row, d.Col}
	}
	for _, ev := range f.Events {
		if ev.Type != model.EventTileContentUpdated {
			continue
		}
		m.Tiles = append(m.Tiles, observerproto.TilePatch{
			Row:     ev.Pos.Row,
			Col:     ev.Pos.Col,
			Type:    ev.Tile.Type.String(),
			Content: ev.Tile.Content.Kind.String(),
			Amount:  ev.Tile.Content.Amount,
		})
	}
	return m
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
