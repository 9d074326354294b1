package agent

import "pioneer.ai/internal/sim/model"

// RecentPositions is a bounded FIFO of the last occupied coordinates.
type RecentPositions struct {
	capacity int
	items    []model.Coord
}

func NewRecentPositions(capacity int) *RecentPositions {
	if capacity < 1 {
		capacity = 1
	}
	return &RecentPositions{capacity: capacity, items: make([]model.Coord, 0, capacity)}
}

// Push appends c, evicting the oldest entry when full.
func (r *RecentPositions) Push(c model.Coord) {
	if len(r.items) == r.capacity {
		copy(r.items, r.items[1:])
		r.items = r.items[:len(r.items)-1]
	}
	r.items = append(r.items, c)
}

func (r *RecentPositions) Contains(c model.Coord) bool {
	for _, p := range r.items {
		if p == c {
			return true
		}
	}
	return false
}

func (r *RecentPositions) Len() int   { return len(r.items) }
func (r *RecentPositions) Cap() int   { return r.capacity }
func (r *RecentPositions) Full() bool { return len(r.items) == r.capacity }
func (r *RecentPositions) Clear()     { r.items = r.items[:0] }

func (r *RecentPositions) Oldest() (model.Coord, bool) {
	if len(r.items) == 0 {
		return model.Coord{}, false
	}
	return r.items[0], true
}

// DropNewest removes up to n of the most recent entries.
func (r *RecentPositions) DropNewest(n int) {
	if n > len(r.items) {
		n = len(r.items)
	}
	r.items = r.items[:len(r.items)-n]
}

func (r *RecentPositions) Distinct() int {
	seen := make(map[model.Coord]struct{}, len(r.items))
	for _, p := range r.items {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// Items returns the entries oldest first.
func (r *RecentPositions) Items() []model.Coord {
	return append([]model.Coord(nil), r.items...)
}

// Oscillating reports a full history bouncing between at most two cells.
func (r *RecentPositions) Oscillating() bool {
	return r.Full() && r.Distinct() <= 2
}
