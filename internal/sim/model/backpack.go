package model

type Backpack struct {
	Capacity int                 `json:"capacity"`
	Items    map[ContentKind]int `json:"items"`
}

func NewBackpack(capacity int) Backpack {
	return Backpack{Capacity: capacity, Items: map[ContentKind]int{}}
}

func (b Backpack) Count(k ContentKind) int { return b.Items[k] }

func (b Backpack) Total() int {
	n := 0
	for _, c := range b.Items {
		n += c
	}
	return n
}

func (b Backpack) Free() int {
	if f := b.Capacity - b.Total(); f > 0 {
		return f
	}
	return 0
}

// AtLeast reports whether the backpack holds at least pct percent of its capacity.
func (b Backpack) AtLeast(pct int) bool {
	return b.Total()*100 >= b.Capacity*pct
}

func (b Backpack) AtMost(pct int) bool {
	return b.Total()*100 <= b.Capacity*pct
}

func (b Backpack) Clone() Backpack {
	out := Backpack{Capacity: b.Capacity, Items: make(map[ContentKind]int, len(b.Items))}
	for k, v := range b.Items {
		if v > 0 {
			out.Items[k] = v
		}
	}
	return out
}

func (b *Backpack) Add(k ContentKind, n int) {
	if b.Items == nil {
		b.Items = map[ContentKind]int{}
	}
	b.Items[k] += n
}

func (b *Backpack) Remove(k ContentKind, n int) {
	b.Items[k] -= n
	if b.Items[k] <= 0 {
		delete(b.Items, k)
	}
}
