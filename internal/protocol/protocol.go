// Package protocol is the byte-level contract between the agent and a remote
// pilot. The agent speaks first with a ready byte, the pilot answers with a
// mode byte, and from then on the agent sends little-endian float32 frames
// while the pilot answers with single code bytes.
package protocol

import (
	"encoding/binary"
	"errors"
	"math"
)

const Version = "1"

// ReadyByte opens a session.
const ReadyByte byte = 0

// Mode bytes; anything but ModeManual selects assisted mode.
const (
	ModeManual   byte = 0
	ModeAssisted byte = 1
)

// Control signals travel as negative floats; non-negative floats are scores.
const (
	SignalReadyForObjective float32 = -1
	SignalAck               float32 = -2
)

const FrameSize = 4

var ErrShortFrame = errors.New("protocol: short float frame")

func EncodeFloat(v float32) [FrameSize]byte {
	var b [FrameSize]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	return b
}

func DecodeFloat(b []byte) (float32, error) {
	if len(b) < FrameSize {
		return 0, ErrShortFrame
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

// EncodeScore clamps negative scores to zero so they never read as signals.
func EncodeScore(score float32) [FrameSize]byte {
	if score < 0 || math.IsNaN(float64(score)) {
		score = 0
	}
	return EncodeFloat(score)
}

// IsSignal reports whether a float frame carries a control signal.
func IsSignal(v float32) bool { return v < 0 }
