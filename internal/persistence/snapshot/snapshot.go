package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id"`
	Tick    uint64 `json:"tick"`
}

// SnapshotV1 is a complete tile world: terrain, what the agent has revealed,
// the agent itself and the clock/weather schedule.
type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed             int64 `json:"seed"`
	Size             int   `json:"size"`
	MinutesPerTick   int   `json:"minutes_per_tick"`
	MaxTicks         int   `json:"max_ticks,omitempty"`
	MaxEnergy        int   `json:"max_energy"`
	RechargePerTick  int   `json:"recharge_per_tick"`
	BackpackCapacity int   `json:"backpack_capacity"`
	ForecastDays     int   `json:"forecast_days"`

	// Tiles is row-major, Size*Size entries.
	Tiles []TileV1 `json:"tiles"`
	// Known is the row-major revealed mask, run-length encoded
	// (encoding.EncodeFlags).
	Known string `json:"known"`

	Agent AgentV1 `json:"agent"`
	Clock ClockV1 `json:"clock"`

	// Weather[i] is the weather of day i.
	Weather []string `json:"weather"`
}

type TileV1 struct {
	Type    uint8 `json:"type"`
	Content uint8 `json:"content"`
	Amount  int   `json:"amount,omitempty"`
}

type AgentV1 struct {
	Row    int            `json:"row"`
	Col    int            `json:"col"`
	Energy int            `json:"energy"`
	Score  float64        `json:"score"`
	Items  map[string]int `json:"items"`
}

type ClockV1 struct {
	Tick   uint64 `json:"tick"`
	Day    int    `json:"day"`
	Minute int    `json:"minute"`
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 64*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

// ReadHeader decodes only the leading JSON header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)

	// The gob body repeats the header.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	return snap, nil
}
