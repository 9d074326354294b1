package pilot

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"pioneer.ai/internal/agent"
	"pioneer.ai/internal/sim/tuning"
)

type Options struct {
	Transport        string // none|serial|ws
	Port             string
	Baud             int
	URL              string
	ReadTimeout      time.Duration
	HandshakeTimeout time.Duration
	ChargeLevel      int
	Log              *zap.Logger
}

func OptionsFromTuning(p tuning.Pilot, chargeLevel int, log *zap.Logger) Options {
	return Options{
		Transport:        p.Transport,
		Port:             p.Port,
		Baud:             p.Baud,
		URL:              p.URL,
		ReadTimeout:      time.Duration(p.ReadTimeoutMs) * time.Millisecond,
		HandshakeTimeout: time.Duration(p.HandshakeTimeoutMs) * time.Millisecond,
		ChargeLevel:      chargeLevel,
		Log:              log,
	}
}

// NewDialer returns nil when no pilot transport is configured.
func NewDialer(o Options) (agent.Dialer, error) {
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 5 * time.Second
	}
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = 10 * time.Second
	}
	var open func() (Port, error)
	switch o.Transport {
	case "", "none":
		return nil, nil
	case "serial":
		open = func() (Port, error) { return OpenSerial(o.Port, o.Baud) }
	case "ws":
		if o.URL == "" {
			return nil, fmt.Errorf("pilot: ws transport needs a url")
		}
		open = func() (Port, error) { return DialWS(o.URL, o.HandshakeTimeout) }
	default:
		return nil, fmt.Errorf("pilot: unknown transport %q", o.Transport)
	}
	return func() (agent.Pilot, error) {
		p, err := open()
		if err != nil {
			return nil, err
		}
		l, err := Handshake(p, o.HandshakeTimeout, o.ReadTimeout, o.ChargeLevel, o.Log)
		if err != nil {
			_ = p.Close()
			return nil, err
		}
		return l, nil
	}, nil
}
