package pilot

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/goleak"

	"pioneer.ai/internal/agent"
	"pioneer.ai/internal/protocol"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// consoleStub answers the handshake and one objective request, then hangs up.
func consoleStub(t *testing.T, code protocol.ObjectiveCode) *httptest.Server {
	up := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer c.Close()
		if _, b, err := c.ReadMessage(); err != nil || len(b) != 1 || b[0] != protocol.ReadyByte {
			t.Errorf("ready=%x err=%v", b, err)
			return
		}
		_ = c.WriteMessage(websocket.BinaryMessage, []byte{protocol.ModeAssisted})
		_, b, err := c.ReadMessage()
		if err != nil {
			return
		}
		if v, err := protocol.DecodeFloat(b); err != nil || v != protocol.SignalReadyForObjective {
			t.Errorf("signal=%v err=%v", v, err)
		}
		_ = c.WriteMessage(websocket.BinaryMessage, []byte{byte(code)})
		_, _, _ = c.ReadMessage()
	}))
}

func TestWSDialer(t *testing.T) {
	srv := consoleStub(t, protocol.ObjExplore)
	defer srv.Close()

	dial, err := NewDialer(Options{
		Transport:   "ws",
		URL:         "ws" + strings.TrimPrefix(srv.URL, "http"),
		ReadTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("dialer: %v", err)
	}
	p, err := dial()
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer p.Close()
	if p.Manual() {
		t.Fatalf("expected assisted mode")
	}
	o, err := p.Objective()
	if err != nil || o != agent.Explore() {
		t.Fatalf("objective=%v err=%v", o, err)
	}
}

func TestWSPort_TimeoutKeepsConnection(t *testing.T) {
	srv := consoleStub(t, protocol.ObjDeposit)
	defer srv.Close()

	port, err := DialWS("ws"+strings.TrimPrefix(srv.URL, "http"), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer port.Close()
	l, err := Handshake(port, time.Second, 20*time.Millisecond, 750, nil)
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	// Nothing pending: the read times out but the connection survives.
	var b [1]byte
	if n, err := port.Read(b[:]); n != 0 || !errors.Is(err, ErrTimeout) {
		t.Fatalf("read n=%d err=%v", n, err)
	}
	if err := port.SetReadTimeout(time.Second); err != nil {
		t.Fatal(err)
	}
	o, err := l.Objective()
	if err != nil || o != agent.Deposit() {
		t.Fatalf("objective=%v err=%v", o, err)
	}
}

func TestWSPort_ServerGone(t *testing.T) {
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := up.Upgrade(w, r, nil); err == nil {
			c.Close()
		}
	}))
	defer srv.Close()
	port, err := DialWS("ws"+strings.TrimPrefix(srv.URL, "http"), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer port.Close()

	var b [1]byte
	_, err = port.Read(b[:])
	if !errors.Is(err, ErrDisconnected) {
		t.Fatalf("err=%v", err)
	}
}

func TestNewDialer_None(t *testing.T) {
	d, err := NewDialer(Options{Transport: "none"})
	if err != nil || d != nil {
		t.Fatalf("dialer=%v err=%v", d != nil, err)
	}
	if _, err := NewDialer(Options{Transport: "carrier-pigeon"}); err == nil {
		t.Fatalf("unknown transport accepted")
	}
}
