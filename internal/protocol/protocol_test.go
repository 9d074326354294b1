package protocol

import (
	"math"
	"testing"
)

func TestFloatFrames(t *testing.T) {
	b := EncodeFloat(SignalReadyForObjective)
	if b != [4]byte{0x00, 0x00, 0x80, 0xbf} {
		t.Fatalf("ready signal bytes % x", b)
	}
	v, err := DecodeFloat(b[:])
	if err != nil || v != -1 || !IsSignal(v) {
		t.Fatalf("decode=%v,%v", v, err)
	}
	if _, err := DecodeFloat(b[:3]); err != ErrShortFrame {
		t.Fatalf("short frame err=%v", err)
	}
	if s, _ := DecodeFloat(ptr(EncodeScore(-5))); s != 0 {
		t.Fatalf("negative score encoded as %v", s)
	}
	if s, _ := DecodeFloat(ptr(EncodeScore(float32(math.NaN())))); s != 0 {
		t.Fatalf("NaN score encoded as %v", s)
	}
	if s, _ := DecodeFloat(ptr(EncodeScore(12.5))); s != 12.5 || IsSignal(s) {
		t.Fatalf("score=%v", s)
	}
}

func ptr(b [4]byte) []byte { return b[:] }

func TestCodes(t *testing.T) {
	for c := ObjectiveCode(1); c <= 9; c++ {
		if !c.Known() || ParseObjective(c.String()) != c {
			t.Fatalf("objective code %d does not round trip", c)
		}
	}
	for _, c := range []ObjectiveCode{0, 10, 255} {
		if c.Known() {
			t.Fatalf("code %d should mean no override", c)
		}
	}
	for a := int8(-1); a <= 9; a++ {
		if a == ActNone {
			continue
		}
		if ParseAction(ActionName(a)) != a {
			t.Fatalf("action %d does not round trip", a)
		}
	}
	if ActionName(42) != "NONE" || ParseAction("JUMP") != ActNone {
		t.Fatalf("unknown actions")
	}
}
