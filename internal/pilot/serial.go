package pilot

import (
	"errors"
	"fmt"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// serialPort adapts a go.bug.st serial port; a zero-byte read is a timeout.
type serialPort struct {
	p serial.Port
}

// OpenSerial opens name at baud. "auto" or "" picks the first USB port.
func OpenSerial(name string, baud int) (Port, error) {
	if name == "" || name == "auto" {
		found, err := DetectSerial()
		if err != nil {
			return nil, err
		}
		name = found
	}
	p, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return &serialPort{p: p}, nil
}

// DetectSerial returns the first USB serial port.
func DetectSerial() (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", err
	}
	for _, p := range ports {
		if p.IsUSB {
			return p.Name, nil
		}
	}
	return "", errors.New("pilot: no usb serial port found")
}

func (s *serialPort) Read(b []byte) (int, error) {
	n, err := s.p.Read(b)
	if err != nil {
		return n, wrapSerial(err)
	}
	if n == 0 && len(b) > 0 {
		return 0, ErrTimeout
	}
	return n, nil
}

func (s *serialPort) Write(b []byte) (int, error) {
	n, err := s.p.Write(b)
	return n, wrapSerial(err)
}

func (s *serialPort) SetReadTimeout(d time.Duration) error { return s.p.SetReadTimeout(d) }
func (s *serialPort) ResetInput() error                    { return s.p.ResetInputBuffer() }
func (s *serialPort) Close() error                         { return s.p.Close() }

func wrapSerial(err error) error {
	if err == nil {
		return nil
	}
	var pe *serial.PortError
	if errors.As(err, &pe) && (pe.Code() == serial.PortClosed || pe.Code() == serial.PortNotFound) {
		return fmt.Errorf("%w: %v", ErrDisconnected, err)
	}
	return err
}
