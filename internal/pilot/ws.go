package pilot

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// wsPort carries the byte protocol over binary websocket frames. A single
// read pump owns the connection's read side so that timeouts do not poison it.
type wsPort struct {
	conn *websocket.Conn

	in      chan []byte
	done    chan struct{}
	readErr error

	mu      sync.Mutex
	buf     bytes.Buffer
	timeout time.Duration

	closeOnce sync.Once
	wmu       sync.Mutex
}

// DialWS connects to an operator console at url.
func DialWS(url string, timeout time.Duration) (Port, error) {
	d := websocket.Dialer{HandshakeTimeout: timeout}
	conn, _, err := d.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return newWSPort(conn), nil
}

func newWSPort(conn *websocket.Conn) *wsPort {
	p := &wsPort{
		conn:    conn,
		in:      make(chan []byte, 64),
		done:    make(chan struct{}),
		timeout: 5 * time.Second,
	}
	go p.readPump()
	return p
}

func (p *wsPort) readPump() {
	defer close(p.done)
	for {
		mt, data, err := p.conn.ReadMessage()
		if err != nil {
			p.readErr = err
			return
		}
		if mt != websocket.BinaryMessage || len(data) == 0 {
			continue
		}
		select {
		case p.in <- data:
		default:
			// Operator is flooding us; keep only what fits.
		}
	}
}

func (p *wsPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	if p.buf.Len() > 0 {
		n, _ := p.buf.Read(b)
		p.mu.Unlock()
		return n, nil
	}
	timeout := p.timeout
	p.mu.Unlock()

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case data := <-p.in:
		p.mu.Lock()
		p.buf.Write(data)
		n, _ := p.buf.Read(b)
		p.mu.Unlock()
		return n, nil
	case <-p.done:
		return 0, fmt.Errorf("%w: %v", ErrDisconnected, p.readErr)
	case <-t.C:
		return 0, ErrTimeout
	}
}

func (p *wsPort) Write(b []byte) (int, error) {
	p.wmu.Lock()
	defer p.wmu.Unlock()
	if err := p.conn.WriteMessage(websocket.BinaryMessage, b); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDisconnected, err)
	}
	return len(b), nil
}

func (p *wsPort) SetReadTimeout(d time.Duration) error {
	p.mu.Lock()
	p.timeout = d
	p.mu.Unlock()
	return nil
}

func (p *wsPort) ResetInput() error {
	p.mu.Lock()
	p.buf.Reset()
	p.mu.Unlock()
	for {
		select {
		case <-p.in:
		default:
			return nil
		}
	}
}

func (p *wsPort) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.wmu.Lock()
		_ = p.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		p.wmu.Unlock()
		err = p.conn.Close()
		<-p.done
	})
	return err
}
