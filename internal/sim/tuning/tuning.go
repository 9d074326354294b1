package tuning

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	World   World   `yaml:"world" json:"world"`
	Policy  Policy  `yaml:"policy" json:"policy"`
	Pilot   Pilot   `yaml:"pilot" json:"pilot"`
	Storage Storage `yaml:"storage" json:"storage"`
}

type World struct {
	Size             int   `yaml:"size" json:"size"`
	Seed             int64 `yaml:"seed" json:"seed"`
	MinutesPerTick   int   `yaml:"minutes_per_tick" json:"minutes_per_tick"`
	StartHour        int   `yaml:"start_hour" json:"start_hour"`
	MaxTicks         int   `yaml:"max_ticks" json:"max_ticks"`
	MaxEnergy        int   `yaml:"max_energy" json:"max_energy"`
	RechargePerTick  int   `yaml:"recharge_per_tick" json:"recharge_per_tick"`
	BackpackCapacity int   `yaml:"backpack_capacity" json:"backpack_capacity"`
	ForecastDays     int   `yaml:"forecast_days" json:"forecast_days"`
	RegionSize       int   `yaml:"region_size" json:"region_size"`

	Terrain Terrain `yaml:"terrain" json:"terrain"`
}

// Terrain densities are expressed in permille of eligible tiles.
type Terrain struct {
	WaterPermille    int `yaml:"water_permille" json:"water_permille"`
	MountainPermille int `yaml:"mountain_permille" json:"mountain_permille"`
	TreePermille     int `yaml:"tree_permille" json:"tree_permille"`
	RockPermille     int `yaml:"rock_permille" json:"rock_permille"`
	FishPermille     int `yaml:"fish_permille" json:"fish_permille"`
	CoinPermille     int `yaml:"coin_permille" json:"coin_permille"`
	Markets          int `yaml:"markets" json:"markets"`
	Banks            int `yaml:"banks" json:"banks"`
	Buildings        int `yaml:"buildings" json:"buildings"`
	MarketStock      int `yaml:"market_stock" json:"market_stock"`
	BankStock        int `yaml:"bank_stock" json:"bank_stock"`
}

// Policy holds the replaceable decision thresholds of the agent.
type Policy struct {
	LowEnergy          int    `yaml:"low_energy" json:"low_energy"`
	RecoveryEnergy     int    `yaml:"recovery_energy" json:"recovery_energy"`
	BridgeChargeEnergy int    `yaml:"bridge_charge_energy" json:"bridge_charge_energy"`
	PilotChargeEnergy  int    `yaml:"pilot_charge_energy" json:"pilot_charge_energy"`
	BackpackFullPct    int    `yaml:"backpack_full_pct" json:"backpack_full_pct"`
	BackpackLowPct     int    `yaml:"backpack_low_pct" json:"backpack_low_pct"`
	GatherStrategy     string `yaml:"gather_strategy" json:"gather_strategy"`
	ForecastHours      int    `yaml:"forecast_hours" json:"forecast_hours"`

	// One in N chances.
	PickupChance    int `yaml:"pickup_chance" json:"pickup_chance"`
	ScanChance      int `yaml:"scan_chance" json:"scan_chance"`
	BacktrackChance int `yaml:"backtrack_chance" json:"backtrack_chance"`

	RecentCapacity    int `yaml:"recent_capacity" json:"recent_capacity"`
	SweepRadius       int `yaml:"sweep_radius" json:"sweep_radius"`
	MoveScanRadius    int `yaml:"move_scan_radius" json:"move_scan_radius"`
	ShelterScanRadius int `yaml:"shelter_scan_radius" json:"shelter_scan_radius"`
	ManualScanRadius  int `yaml:"manual_scan_radius" json:"manual_scan_radius"`
	WalkerMinRun      int `yaml:"walker_min_run" json:"walker_min_run"`
	WalkerMaxRun      int `yaml:"walker_max_run" json:"walker_max_run"`
	BridgeMaxAttempts int `yaml:"bridge_max_attempts" json:"bridge_max_attempts"`

	// 0 disables the exploration stop predicate.
	ExploreStopCoverage float64 `yaml:"explore_stop_coverage" json:"explore_stop_coverage"`
}

type Pilot struct {
	Transport          string `yaml:"transport" json:"transport"` // none|serial|ws
	Port               string `yaml:"port" json:"port"`           // serial device or "auto"
	Baud               int    `yaml:"baud" json:"baud"`
	URL                string `yaml:"url" json:"url"`
	ReadTimeoutMs      int    `yaml:"read_timeout_ms" json:"read_timeout_ms"`
	HandshakeTimeoutMs int    `yaml:"handshake_timeout_ms" json:"handshake_timeout_ms"`
	RetryTicks         int    `yaml:"retry_ticks" json:"retry_ticks"`
}

type Storage struct {
	DataDir string `yaml:"data_dir" json:"data_dir"`
	Index   bool   `yaml:"index" json:"index"`
	TickLog bool   `yaml:"tick_log" json:"tick_log"`
	Mirror  Mirror `yaml:"mirror" json:"mirror"`
}

// Mirror uploads snapshots and run archives to an S3-compatible bucket.
// Credentials come from PIONEER_S3_ACCESS_KEY_ID and
// PIONEER_S3_SECRET_ACCESS_KEY; an empty endpoint disables it.
type Mirror struct {
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	Bucket   string `yaml:"bucket" json:"bucket"`
	Region   string `yaml:"region" json:"region"`
	Prefix   string `yaml:"prefix" json:"prefix"`
	Workers  int    `yaml:"workers" json:"workers"`
}

const (
	GatherLeast = "least"
	GatherMost  = "most"
)

func Defaults() Tuning {
	return Tuning{
		World: World{
			Size:             64,
			Seed:             1337,
			MinutesPerTick:   30,
			StartHour:        6,
			MaxEnergy:        1000,
			RechargePerTick:  10,
			BackpackCapacity: 20,
			ForecastDays:     3,
			RegionSize:       8,
			Terrain: Terrain{
				WaterPermille:    180,
				MountainPermille: 60,
				TreePermille:     90,
				RockPermille:     50,
				FishPermille:     120,
				CoinPermille:     8,
				Markets:          3,
				Banks:            2,
				Buildings:        4,
				MarketStock:      40,
				BankStock:        60,
			},
		},
		Policy: DefaultPolicy(),
		Pilot: Pilot{
			Transport:          "none",
			Port:               "auto",
			Baud:               115200,
			ReadTimeoutMs:      5000,
			HandshakeTimeoutMs: 10000,
			RetryTicks:         20,
		},
		Storage: Storage{
			DataDir: "./data",
			Index:   true,
			TickLog: true,
		},
	}
}

func DefaultPolicy() Policy {
	return Policy{
		LowEnergy:          150,
		RecoveryEnergy:     250,
		BridgeChargeEnergy: 300,
		PilotChargeEnergy:  750,
		BackpackFullPct:    80,
		BackpackLowPct:     50,
		GatherStrategy:     GatherLeast,
		ForecastHours:      24,
		PickupChance:       4,
		ScanChance:         10,
		BacktrackChance:    3,
		RecentCapacity:     8,
		SweepRadius:        5,
		MoveScanRadius:     5,
		ShelterScanRadius:  20,
		ManualScanRadius:   10,
		WalkerMinRun:       1,
		WalkerMaxRun:       4,
		BridgeMaxAttempts:  16,
	}
}

// Load reads a tuning file, validates it against the embedded schema and
// fills unset values from Defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := validate(raw); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.Policy = t.Policy.Normalize()
	return t, nil
}

// Normalize replaces non-positive values with defaults.
func (p Policy) Normalize() Policy {
	d := DefaultPolicy()
	fix := func(v *int, def int) {
		if *v <= 0 {
			*v = def
		}
	}
	fix(&p.LowEnergy, d.LowEnergy)
	fix(&p.RecoveryEnergy, d.RecoveryEnergy)
	fix(&p.BridgeChargeEnergy, d.BridgeChargeEnergy)
	fix(&p.PilotChargeEnergy, d.PilotChargeEnergy)
	fix(&p.BackpackFullPct, d.BackpackFullPct)
	fix(&p.BackpackLowPct, d.BackpackLowPct)
	fix(&p.ForecastHours, d.ForecastHours)
	fix(&p.PickupChance, d.PickupChance)
	fix(&p.ScanChance, d.ScanChance)
	fix(&p.BacktrackChance, d.BacktrackChance)
	fix(&p.RecentCapacity, d.RecentCapacity)
	fix(&p.SweepRadius, d.SweepRadius)
	fix(&p.MoveScanRadius, d.MoveScanRadius)
	fix(&p.ShelterScanRadius, d.ShelterScanRadius)
	fix(&p.ManualScanRadius, d.ManualScanRadius)
	fix(&p.WalkerMinRun, d.WalkerMinRun)
	fix(&p.WalkerMaxRun, d.WalkerMaxRun)
	fix(&p.BridgeMaxAttempts, d.BridgeMaxAttempts)
	if p.WalkerMaxRun < p.WalkerMinRun {
		p.WalkerMaxRun = p.WalkerMinRun
	}
	if p.GatherStrategy != GatherMost {
		p.GatherStrategy = GatherLeast
	}
	return p
}

// validate converts the YAML document to its JSON form and checks it against the schema.
func validate(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if doc == nil {
		return nil
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	s, err := compiledSchema()
	if err != nil {
		return err
	}
	return s.Validate(v)
}
