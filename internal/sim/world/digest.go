package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math"

	"pioneer.ai/internal/sim/model"
)

// Digest hashes the complete world state; equal digests mean equal worlds.
func (w *World) Digest() string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, w.tick)
	digestWriteI64(h, &tmp, w.cfg.Seed)
	digestWriteI64(h, &tmp, int64(w.day))
	digestWriteI64(h, &tmp, int64(w.minute))
	digestWriteI64(h, &tmp, int64(w.pos.Row))
	digestWriteI64(h, &tmp, int64(w.pos.Col))
	digestWriteI64(h, &tmp, int64(w.energy))
	digestWriteU64(h, &tmp, math.Float64bits(w.score))

	for r := range w.tiles {
		for c := range w.tiles[r] {
			t := w.tiles[r][c]
			h.Write([]byte{byte(t.Type), byte(t.Content.Kind), boolByte(w.known[r][c])})
			digestWriteI64(h, &tmp, int64(t.Content.Amount))
		}
	}
	for k := model.None; k <= model.Tent; k++ {
		if n := w.backpack.Count(k); n > 0 {
			h.Write([]byte{byte(k)})
			digestWriteI64(h, &tmp, int64(n))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func digestWriteU64(h hash.Hash, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hash.Hash, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
