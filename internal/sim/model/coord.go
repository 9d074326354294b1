package model

import "fmt"

type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Coord) String() string { return fmt.Sprintf("(%d,%d)", c.Row, c.Col) }

// Step returns the neighbouring coordinate in direction d.
func (c Coord) Step(d Direction) Coord {
	dr, dc := d.Delta()
	return Coord{Row: c.Row + dr, Col: c.Col + dc}
}

func (c Coord) Manhattan(o Coord) int {
	return absInt(c.Row-o.Row) + absInt(c.Col-o.Col)
}

type Direction uint8

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Directions lists the four cardinal directions in a fixed order.
var Directions = [4]Direction{Up, Down, Left, Right}

func (d Direction) Delta() (int, int) {
	switch d {
	case Up:
		return -1, 0
	case Down:
		return 1, 0
	case Left:
		return 0, -1
	case Right:
		return 0, 1
	}
	return 0, 0
}

func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	default:
		return Left
	}
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "UP"
	case Down:
		return "DOWN"
	case Left:
		return "LEFT"
	case Right:
		return "RIGHT"
	}
	return "UNKNOWN"
}

// DirectionTo returns the cardinal direction from a to an adjacent b.
func DirectionTo(a, b Coord) (Direction, bool) {
	for _, d := range Directions {
		if a.Step(d) == b {
			return d, true
		}
	}
	return Up, false
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
