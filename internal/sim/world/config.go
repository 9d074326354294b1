package world

import "pioneer.ai/internal/sim/tuning"

type Config struct {
	Size             int
	Seed             int64
	MinutesPerTick   int
	StartHour        int
	MaxTicks         int
	MaxEnergy        int
	RechargePerTick  int
	BackpackCapacity int
	ForecastDays     int
	RegionSize       int

	Terrain TerrainConfig
}

// TerrainConfig densities are permille of eligible tiles.
type TerrainConfig struct {
	WaterPermille    int
	MountainPermille int
	TreePermille     int
	RockPermille     int
	FishPermille     int
	CoinPermille     int
	Markets          int
	Banks            int
	Buildings        int
	MarketStock      int
	BankStock        int
}

func ConfigFromTuning(t tuning.World) Config {
	return Config{
		Size:             t.Size,
		Seed:             t.Seed,
		MinutesPerTick:   t.MinutesPerTick,
		StartHour:        t.StartHour,
		MaxTicks:         t.MaxTicks,
		MaxEnergy:        t.MaxEnergy,
		RechargePerTick:  t.RechargePerTick,
		BackpackCapacity: t.BackpackCapacity,
		ForecastDays:     t.ForecastDays,
		RegionSize:       t.RegionSize,
		Terrain: TerrainConfig{
			WaterPermille:    t.Terrain.WaterPermille,
			MountainPermille: t.Terrain.MountainPermille,
			TreePermille:     t.Terrain.TreePermille,
			RockPermille:     t.Terrain.RockPermille,
			FishPermille:     t.Terrain.FishPermille,
			CoinPermille:     t.Terrain.CoinPermille,
			Markets:          t.Terrain.Markets,
			Banks:            t.Terrain.Banks,
			Buildings:        t.Terrain.Buildings,
			MarketStock:      t.Terrain.MarketStock,
			BankStock:        t.Terrain.BankStock,
		},
	}
}

func (c *Config) applyDefaults() {
	if c.Size < 2 {
		c.Size = 64
	}
	if c.MinutesPerTick <= 0 {
		c.MinutesPerTick = 30
	}
	if c.StartHour < 0 || c.StartHour > 23 {
		c.StartHour = 6
	}
	if c.MaxEnergy <= 0 {
		c.MaxEnergy = 1000
	}
	if c.RechargePerTick < 0 {
		c.RechargePerTick = 0
	}
	if c.BackpackCapacity <= 0 {
		c.BackpackCapacity = 20
	}
	if c.ForecastDays < 0 {
		c.ForecastDays = 0
	}
	if c.RegionSize <= 0 {
		c.RegionSize = 8
	}
	t := &c.Terrain
	for _, v := range []*int{&t.WaterPermille, &t.MountainPermille, &t.TreePermille, &t.RockPermille, &t.FishPermille, &t.CoinPermille} {
		*v = clampPermille(*v)
	}
	if t.MarketStock <= 0 {
		t.MarketStock = 40
	}
	if t.BankStock <= 0 {
		t.BankStock = 60
	}
}
