// Package ws is the operator console end of the pilot protocol: it accepts a
// pioneer's websocket link and answers it with queued objectives or actions.
package ws

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"pioneer.ai/internal/protocol"
)

type Server struct {
	mode byte
	log  *zap.Logger

	objectives chan protocol.ObjectiveCode
	actions    chan int8
	scores     chan float32
	acks       atomic.Int64
	busy       atomic.Bool

	upgrader websocket.Upgrader
}

// NewServer serves one pioneer at a time in the given mode
// (protocol.ModeManual or protocol.ModeAssisted).
func NewServer(mode byte, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		mode:       mode,
		log:        log,
		objectives: make(chan protocol.ObjectiveCode, 16),
		actions:    make(chan int8, 16),
		scores:     make(chan float32, 16),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// QueueObjective answers the next objective request. It reports false when
// the queue is full.
func (s *Server) QueueObjective(c protocol.ObjectiveCode) bool {
	select {
	case s.objectives <- c:
		return true
	default:
		return false
	}
}

// Press sends a manual action to the connected pioneer.
func (s *Server) Press(a int8) bool {
	select {
	case s.actions <- a:
		return true
	default:
		return false
	}
}

// Scores delivers the daily scores reported by the pioneer. Scores that
// arrive while nobody is reading are dropped.
func (s *Server) Scores() <-chan float32 { return s.scores }

// Acks counts acknowledged manual actions.
func (s *Server) Acks() int64 { return s.acks.Load() }

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if !s.busy.CompareAndSwap(false, true) {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "console busy"), time.Now().Add(time.Second))
			return
		}
		defer s.busy.Store(false)

		if !s.handshake(conn) {
			return
		}
		s.log.Info("pioneer connected", zap.String("remote", r.RemoteAddr), zap.Bool("manual", s.mode == protocol.ModeManual))

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		out := make(chan []byte, 8)
		wrote := make(chan struct{})

		// Writer goroutine.
		go func() {
			defer close(wrote)
			var actions <-chan int8
			if s.mode == protocol.ModeManual {
				actions = s.actions
			}
			for {
				var b []byte
				select {
				case <-ctx.Done():
					return
				case b = <-out:
				case a := <-actions:
					b = []byte{byte(a)}
				}
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.BinaryMessage, b); err != nil {
					cancel()
					return
				}
			}
		}()

		// Reader loop.
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			v, err := protocol.DecodeFloat(msg)
			if err != nil {
				continue
			}
			switch {
			case v == protocol.SignalReadyForObjective:
				code := protocol.ObjNone
				select {
				case code = <-s.objectives:
				default:
				}
				select {
				case out <- []byte{byte(code)}:
				case <-ctx.Done():
				}
			case v == protocol.SignalAck:
				s.acks.Add(1)
			case v >= 0:
				select {
				case s.scores <- v:
				default:
				}
			}
		}
		cancel()
		<-wrote
		s.log.Info("pioneer disconnected", zap.String("remote", r.RemoteAddr))
	}
}

func (s *Server) handshake(conn *websocket.Conn) bool {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return false
	}
	if len(msg) != 1 || msg[0] != protocol.ReadyByte {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected ready byte"), time.Now().Add(time.Second))
		return false
	}
	_ = conn.SetReadDeadline(time.Time{})
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.BinaryMessage, []byte{s.mode}) == nil
}
