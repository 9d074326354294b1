// Package pilot connects the agent to a remote operator over a byte stream.
package pilot

import (
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"pioneer.ai/internal/agent"
	"pioneer.ai/internal/protocol"
	"pioneer.ai/internal/sim/model"
)

var (
	ErrTimeout      = errors.New("pilot: read timed out")
	ErrDisconnected = errors.New("pilot: disconnected")
)

// Port is a byte stream whose reads give up after the configured timeout,
// returning ErrTimeout.
type Port interface {
	io.ReadWriter
	SetReadTimeout(d time.Duration) error
	// ResetInput discards anything received but not yet read.
	ResetInput() error
	Close() error
}

// Link is an established session; it implements agent.Pilot.
type Link struct {
	port        Port
	manual      bool
	chargeLevel int
	log         *zap.Logger
}

var _ agent.Pilot = (*Link)(nil)

// Handshake writes the ready byte and waits up to timeout for the mode byte.
// readTimeout bounds every later read.
func Handshake(p Port, timeout, readTimeout time.Duration, chargeLevel int, log *zap.Logger) (*Link, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := p.SetReadTimeout(timeout); err != nil {
		return nil, err
	}
	if _, err := p.Write([]byte{protocol.ReadyByte}); err != nil {
		return nil, fmt.Errorf("pilot handshake: %w", err)
	}
	mode, err := readByte(p)
	if err != nil {
		return nil, fmt.Errorf("pilot handshake: %w", err)
	}
	if err := p.SetReadTimeout(readTimeout); err != nil {
		return nil, err
	}
	l := &Link{port: p, manual: mode == protocol.ModeManual, chargeLevel: chargeLevel, log: log}
	log.Info("pilot handshake", zap.Bool("manual", l.manual))
	return l, nil
}

func (l *Link) Manual() bool { return l.manual }

// Objective signals readiness and reads the operator's choice.
func (l *Link) Objective() (agent.Objective, error) {
	if err := l.writeFloat(protocol.SignalReadyForObjective); err != nil {
		return agent.None(), err
	}
	b, err := readByte(l.port)
	if err != nil {
		return agent.None(), err
	}
	o := ObjectiveFor(protocol.ObjectiveCode(b), l.chargeLevel)
	l.log.Debug("pilot objective", zap.Uint8("code", b), zap.Stringer("objective", o))
	return o, nil
}

// Action reads one manual action, acknowledges it and drops any backlog.
// A read timeout is returned as ErrTimeout so the caller drops the link.
func (l *Link) Action() (int8, error) {
	b, err := readByte(l.port)
	if err != nil {
		return protocol.ActNone, err
	}
	if err := l.writeFloat(protocol.SignalAck); err != nil {
		return protocol.ActNone, err
	}
	if err := l.port.ResetInput(); err != nil {
		return protocol.ActNone, err
	}
	return int8(b), nil
}

func (l *Link) PutScore(score float32) error {
	b := protocol.EncodeScore(score)
	_, err := l.port.Write(b[:])
	return wrapIO(err)
}

func (l *Link) Close() error { return l.port.Close() }

func (l *Link) writeFloat(v float32) error {
	b := protocol.EncodeFloat(v)
	_, err := l.port.Write(b[:])
	return wrapIO(err)
}

// ObjectiveFor maps an assisted-mode code to an objective; unknown codes
// mean no override.
func ObjectiveFor(c protocol.ObjectiveCode, chargeLevel int) agent.Objective {
	switch c {
	case protocol.ObjCharge:
		return agent.ChargeTo(chargeLevel)
	case protocol.ObjSellFish:
		return agent.Sell(model.Fish)
	case protocol.ObjSellTree:
		return agent.Sell(model.Tree)
	case protocol.ObjSellRock:
		return agent.Sell(model.Rock)
	case protocol.ObjGatherFish:
		return agent.Gather(model.Fish)
	case protocol.ObjGatherTree:
		return agent.Gather(model.Tree)
	case protocol.ObjGatherRock:
		return agent.Gather(model.Rock)
	case protocol.ObjDeposit:
		return agent.Deposit()
	case protocol.ObjExplore:
		return agent.Explore()
	}
	return agent.None()
}

func readByte(p Port) (byte, error) {
	var b [1]byte
	n, err := p.Read(b[:])
	if err != nil {
		return 0, wrapIO(err)
	}
	if n == 0 {
		return 0, ErrTimeout
	}
	return b[0], nil
}

func wrapIO(err error) error {
	switch {
	case err == nil, errors.Is(err, ErrTimeout), errors.Is(err, ErrDisconnected):
		return err
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrClosedPipe):
		return fmt.Errorf("%w: %v", ErrDisconnected, err)
	}
	return err
}
