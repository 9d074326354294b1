package model

import "fmt"

type ContentKind uint8

const (
	None ContentKind = iota
	Rock
	Tree
	Fish
	Coin
	Market
	Bank
	Building
	Tent
)

var contentNames = [...]string{
	None:     "NONE",
	Rock:     "ROCK",
	Tree:     "TREE",
	Fish:     "FISH",
	Coin:     "COIN",
	Market:   "MARKET",
	Bank:     "BANK",
	Building: "BUILDING",
	Tent:     "TENT",
}

func (k ContentKind) String() string {
	if int(k) < len(contentNames) {
		return contentNames[k]
	}
	return "UNKNOWN"
}

// ParseContentKind is the inverse of String; unknown names map to None.
func ParseContentKind(s string) ContentKind {
	for i, n := range contentNames {
		if n == s {
			return ContentKind(i)
		}
	}
	return None
}

func (k ContentKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *ContentKind) UnmarshalText(b []byte) error {
	*k = ParseContentKind(string(b))
	return nil
}

// Gatherable kinds are collected from the world and sold at markets.
var Gatherable = []ContentKind{Rock, Tree, Fish}

func (k ContentKind) Gatherable() bool {
	return k == Rock || k == Tree || k == Fish
}

// Loose contents can be picked up by destroying them.
func (k ContentKind) Loose() bool {
	return k.Gatherable() || k == Coin
}

// Economic structures accept sales or deposits.
func (k ContentKind) Economic() bool {
	return k == Market || k == Bank
}

func (k ContentKind) Destroyable() bool {
	return k.Loose() || k == Tent
}

// Blocking contents cannot be walked over.
func (k ContentKind) Blocking() bool {
	switch k {
	case Rock, Tree, Market, Bank, Building:
		return true
	}
	return false
}

type Content struct {
	Kind   ContentKind `json:"kind"`
	Amount int         `json:"amount,omitempty"`
}

type TileType uint8

const (
	Grass TileType = iota
	Sand
	Hill
	Street
	ShallowWater
	DeepWater
	Mountain
	Lava
	SnowField
)

var tileNames = [...]string{
	Grass:        "GRASS",
	Sand:         "SAND",
	Hill:         "HILL",
	Street:       "STREET",
	ShallowWater: "SHALLOW_WATER",
	DeepWater:    "DEEP_WATER",
	Mountain:     "MOUNTAIN",
	Lava:         "LAVA",
	SnowField:    "SNOW",
}

func (t TileType) String() string {
	if int(t) < len(tileNames) {
		return tileNames[t]
	}
	return "UNKNOWN"
}

func (t TileType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *TileType) UnmarshalText(b []byte) error {
	for i, n := range tileNames {
		if n == string(b) {
			*t = TileType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown tile type %q", b)
}

func (t TileType) Walkable() bool {
	switch t {
	case ShallowWater, DeepWater, Mountain, Lava:
		return false
	}
	return true
}

func (t TileType) Water() bool { return t == ShallowWater || t == DeepWater }

// BridgeCost is the number of rocks needed to fill the tile; 0 means it cannot be filled.
func (t TileType) BridgeCost() int {
	switch t {
	case ShallowWater:
		return 1
	case DeepWater:
		return 3
	}
	return 0
}

func (t TileType) CanHold(k ContentKind) bool {
	switch k {
	case None:
		return true
	case Fish:
		return t.Water()
	case Tree:
		return t == Grass || t == Hill
	case Rock:
		return t == Hill || t == Mountain || t == Grass || t == Sand
	case Coin:
		return t.Walkable()
	case Tent:
		return t == Grass || t == Sand || t == Hill || t == Street || t == SnowField
	case Market, Bank, Building:
		return t == Street || t == Grass || t == Sand
	}
	return false
}

type Tile struct {
	Type    TileType `json:"type"`
	Content Content  `json:"content"`
}

// Passable reports whether an agent can stand on the tile.
func (t Tile) Passable() bool {
	return t.Type.Walkable() && !t.Content.Kind.Blocking()
}

// Grid is a row-major tile grid; nil cells are unrevealed.
type Grid [][]*Tile

func (g Grid) Rows() int { return len(g) }

func (g Grid) Cols() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

func (g Grid) InBounds(c Coord) bool {
	return c.Row >= 0 && c.Col >= 0 && c.Row < g.Rows() && c.Col < g.Cols()
}

// At returns the tile at c, nil when out of bounds or unrevealed.
func (g Grid) At(c Coord) *Tile {
	if !g.InBounds(c) {
		return nil
	}
	return g[c.Row][c.Col]
}

// Revealed counts the non-nil cells.
func (g Grid) Revealed() int {
	n := 0
	for _, row := range g {
		for _, t := range row {
			if t != nil {
				n++
			}
		}
	}
	return n
}
