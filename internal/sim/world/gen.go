package world

import "pioneer.ai/internal/sim/model"

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func hash2(seed int64, x, z int) uint64 {
	ux := uint64(uint32(int32(x)))
	uz := uint64(uint32(int32(z)))
	v := uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uz * 0xbf58476d1ce4e5b9)
	return mix64(v)
}

func clampPermille(v int) int {
	if v < 0 {
		return 0
	}
	if v > 1000 {
		return 1000
	}
	return v
}

// Salts keep the independent noise layers uncorrelated.
const (
	saltRegion  = 0x5eed
	saltContent = 0xc0de
	saltAmount  = 0xa770
	saltPlace   = 0x91ace
	saltWeather = 0x7ea7
)

// generate builds the terrain deterministically from the seed.
func generate(cfg Config) [][]model.Tile {
	n := cfg.Size
	tc := cfg.Terrain
	tiles := make([][]model.Tile, n)
	for r := 0; r < n; r++ {
		tiles[r] = make([]model.Tile, n)
		for c := 0; c < n; c++ {
			tiles[r][c] = genTile(cfg.Seed, r, c, cfg.RegionSize, tc)
		}
	}

	placeStructures(tiles, cfg.Seed, model.Market, tc.Markets, tc.MarketStock)
	placeStructures(tiles, cfg.Seed, model.Bank, tc.Banks, tc.BankStock)
	placeStructures(tiles, cfg.Seed, model.Building, tc.Buildings, 0)
	return tiles
}

func genTile(seed int64, r, c, region int, tc TerrainConfig) model.Tile {
	reg := int(hash2(seed^saltRegion, r/region, c/region) % 1000)
	v := int(hash2(seed, r, c) % 1000)

	var t model.Tile
	switch {
	case reg < tc.WaterPermille:
		t.Type = model.ShallowWater
		if v < 400 {
			t.Type = model.DeepWater
		}
	case reg < tc.WaterPermille+tc.MountainPermille:
		switch {
		case v < 15:
			t.Type = model.Lava
		case v < 500:
			t.Type = model.Mountain
		case v < 560:
			t.Type = model.SnowField
		default:
			t.Type = model.Hill
		}
	default:
		switch {
		case v < 90:
			t.Type = model.Sand
		case v < 110:
			t.Type = model.Hill
		default:
			t.Type = model.Grass
		}
	}

	roll := int(hash2(seed^saltContent, r, c) % 1000)
	amount := 1 + int(hash2(seed^saltAmount, r, c)%3)
	switch {
	case t.Type.Water():
		if roll < tc.FishPermille {
			t.Content = model.Content{Kind: model.Fish, Amount: amount}
		}
	case roll < tc.TreePermille:
		if t.Type.CanHold(model.Tree) {
			t.Content = model.Content{Kind: model.Tree, Amount: amount}
		}
	case roll < tc.TreePermille+tc.RockPermille:
		if t.Type.CanHold(model.Rock) && t.Type.Walkable() {
			t.Content = model.Content{Kind: model.Rock, Amount: amount}
		}
	case roll < tc.TreePermille+tc.RockPermille+tc.CoinPermille:
		if t.Type.CanHold(model.Coin) {
			t.Content = model.Content{Kind: model.Coin, Amount: amount}
		}
	}
	return t
}

// placeStructures drops count structures on free land, probing forward
// row-major from a hashed start cell.
func placeStructures(tiles [][]model.Tile, seed int64, kind model.ContentKind, count, stock int) {
	n := len(tiles)
	total := n * n
	for i := 0; i < count; i++ {
		start := int(hash2(seed^saltPlace, i, int(kind)) % uint64(total))
		for probe := 0; probe < total; probe++ {
			idx := (start + probe) % total
			t := &tiles[idx/n][idx%n]
			if !t.Type.Walkable() || t.Content.Kind != model.None {
				continue
			}
			t.Type = model.Street
			t.Content = model.Content{Kind: kind, Amount: stock}
			break
		}
	}
}

// weatherFor is the scheduled weather of a day.
func weatherFor(seed int64, day int) model.Weather {
	v := hash2(seed^saltWeather, day, 0) % 100
	switch {
	case v < 45:
		return model.Sunny
	case v < 65:
		return model.Rainy
	case v < 80:
		return model.Foggy
	case v < 90:
		return model.Snow
	default:
		return model.Monsoon
	}
}
