package value

import (
	"sort"

	"pioneer.ai/internal/sim/model"
)

// Rand is the subset of *rand.Rand used for tie-breaks.
type Rand interface {
	IntN(n int) int
}

// UnitPrice is what a market pays (or a bank credits) per unit.
func UnitPrice(k model.ContentKind) int {
	switch k {
	case model.Rock:
		return 1
	case model.Tree:
		return 2
	case model.Fish, model.Coin:
		return 3
	default:
		return 0
	}
}

// Scorer rates a backpack slot.
type Scorer func(k model.ContentKind, qty int) int

func ByValue(k model.ContentKind, qty int) int { return qty * UnitPrice(k) }

func ByQuantity(_ model.ContentKind, qty int) int { return qty }

// Worth is the total market value of items, independent of map order.
func Worth(items map[model.ContentKind]int) int {
	if len(items) == 0 {
		return 0
	}
	keys := make([]model.ContentKind, 0, len(items))
	for k, n := range items {
		if n > 0 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	total := 0
	for _, k := range keys {
		total += ByValue(k, items[k])
	}
	return total
}

// Highest returns the candidate with the largest score; equal scores are
// broken uniformly at random. Returns None for an empty candidate list.
func Highest(items map[model.ContentKind]int, candidates []model.ContentKind, score Scorer, r Rand) (model.ContentKind, int) {
	return pick(items, candidates, score, r, func(a, b int) bool { return a > b })
}

// Lowest is Highest with the order reversed.
func Lowest(items map[model.ContentKind]int, candidates []model.ContentKind, score Scorer, r Rand) (model.ContentKind, int) {
	return pick(items, candidates, score, r, func(a, b int) bool { return a < b })
}

func pick(items map[model.ContentKind]int, candidates []model.ContentKind, score Scorer, r Rand, better func(a, b int) bool) (model.ContentKind, int) {
	var tied []model.ContentKind
	best := 0
	for _, k := range candidates {
		s := score(k, items[k])
		switch {
		case len(tied) == 0 || better(s, best):
			best = s
			tied = append(tied[:0], k)
		case s == best:
			tied = append(tied, k)
		}
	}
	switch len(tied) {
	case 0:
		return model.None, 0
	case 1:
		return tied[0], best
	}
	if r == nil {
		return tied[0], best
	}
	return tied[r.IntN(len(tied))], best
}

// BestSellable picks the gatherable kind that would earn the most at a market.
// Returns None when nothing sellable is held.
func BestSellable(items map[model.ContentKind]int, r Rand) model.ContentKind {
	k, v := Highest(items, model.Gatherable, ByValue, r)
	if v <= 0 {
		return model.None
	}
	return k
}
