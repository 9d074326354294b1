package world

import (
	"pioneer.ai/internal/economy/value"
	"pioneer.ai/internal/sim/model"
)

func (w *World) spend(cost int) error {
	if w.energy < cost {
		return model.ErrNotEnoughEnergy
	}
	w.energy -= cost
	w.emit(model.Event{Type: model.EventEnergyConsumed, Amount: cost})
	return nil
}

func (w *World) target(d model.Direction) (model.Coord, error) {
	p := w.pos.Step(d)
	if !w.inBounds(p) {
		return p, model.ErrOutOfBounds
	}
	return p, nil
}

func (w *World) setContent(p model.Coord, c model.Content) {
	t := w.tileAt(p)
	t.Content = c
	w.emit(model.Event{Type: model.EventTileContentUpdated, Pos: p, Tile: *t})
}

func (w *World) addItems(k model.ContentKind, n int) {
	w.backpack.Add(k, n)
	w.emit(model.Event{Type: model.EventAddedToBackpack, Kind: k, Amount: n})
}

func (w *World) removeItems(k model.ContentKind, n int) {
	w.backpack.Remove(k, n)
	w.emit(model.Event{Type: model.EventRemovedFromBackpack, Kind: k, Amount: n})
}

func (w *World) Move(d model.Direction) error {
	p, err := w.target(d)
	if err != nil {
		return err
	}
	if !w.tileAt(p).Passable() {
		return model.ErrCannotWalk
	}
	if err := w.spend(model.MoveCost); err != nil {
		return err
	}
	w.pos = p
	w.reveal(p)
	w.emit(model.Event{Type: model.EventMoved, Pos: p, Tile: *w.tileAt(p)})
	return nil
}

// Destroy collects the content in direction d into the backpack and returns
// the quantity collected. A partial pickup leaves the rest on the tile.
func (w *World) Destroy(d model.Direction) (int, error) {
	p, err := w.target(d)
	if err != nil {
		return 0, err
	}
	ct := w.tileAt(p).Content
	if ct.Kind == model.None {
		return 0, model.ErrNoContent
	}
	if !ct.Kind.Destroyable() {
		return 0, model.ErrCannotDestroy
	}
	free := w.backpack.Free()
	if free == 0 {
		return 0, model.ErrNotEnoughSpace
	}
	if err := w.spend(model.DestroyCost); err != nil {
		return 0, err
	}
	n := min(max(ct.Amount, 1), free)
	rest := max(ct.Amount-n, 0)
	if rest == 0 {
		w.setContent(p, model.Content{})
	} else {
		w.setContent(p, model.Content{Kind: ct.Kind, Amount: rest})
	}
	w.addItems(ct.Kind, n)
	return n, nil
}

// Place puts qty of kind in direction d and returns how much was consumed.
// Markets buy gatherables for coins, banks take coins for score, rocks
// fill water, anything else is dropped on free ground.
func (w *World) Place(kind model.ContentKind, qty int, d model.Direction) (int, error) {
	p, err := w.target(d)
	if err != nil {
		return 0, err
	}
	if qty <= 0 || w.backpack.Count(kind) < qty {
		return 0, model.ErrNotEnoughContent
	}
	t := w.tileAt(p)

	switch t.Content.Kind {
	case model.Market:
		if !kind.Gatherable() {
			return 0, model.ErrCannotPlace
		}
		return w.sell(p, kind, qty)
	case model.Bank:
		if kind != model.Coin {
			return 0, model.ErrCannotPlace
		}
		return w.deposit(p, qty)
	case model.Building:
		return 0, model.ErrCannotPlace
	}

	if t.Type.Water() && kind == model.Rock {
		if t.Content.Kind != model.None {
			return 0, model.ErrMustDestroyContentFirst
		}
		need := t.Type.BridgeCost()
		if qty < need {
			return 0, model.ErrNotEnoughContent
		}
		if err := w.spend(model.PlaceCost); err != nil {
			return 0, err
		}
		t.Type = model.Street
		w.removeItems(model.Rock, need)
		w.emit(model.Event{Type: model.EventTileContentUpdated, Pos: p, Tile: *t})
		return need, nil
	}

	if t.Content.Kind != model.None {
		return 0, model.ErrMustDestroyContentFirst
	}
	if !t.Type.CanHold(kind) {
		return 0, model.ErrCannotPlace
	}
	if err := w.spend(model.PlaceCost); err != nil {
		return 0, err
	}
	w.removeItems(kind, qty)
	w.setContent(p, model.Content{Kind: kind, Amount: qty})
	return qty, nil
}

func (w *World) sell(p model.Coord, kind model.ContentKind, qty int) (int, error) {
	stock := w.tileAt(p).Content.Amount
	n := min(qty, stock)
	if n == 0 {
		return 0, nil
	}
	coins := n * value.UnitPrice(kind)
	if w.backpack.Total()-n+coins > w.backpack.Capacity {
		return 0, model.ErrNotEnoughSpace
	}
	if err := w.spend(model.PlaceCost); err != nil {
		return 0, err
	}
	w.removeItems(kind, n)
	w.addItems(model.Coin, coins)
	w.setContent(p, model.Content{Kind: model.Market, Amount: stock - n})
	return n, nil
}

func (w *World) deposit(p model.Coord, qty int) (int, error) {
	room := w.tileAt(p).Content.Amount
	n := min(qty, room)
	if n == 0 {
		return 0, nil
	}
	if err := w.spend(model.PlaceCost); err != nil {
		return 0, err
	}
	w.removeItems(model.Coin, n)
	w.score += float64(n * value.UnitPrice(model.Coin))
	w.setContent(p, model.Content{Kind: model.Bank, Amount: room - n})
	return n, nil
}

func (w *World) Craft(kind model.ContentKind) error {
	if kind != model.Tent {
		return model.ErrCannotCraft
	}
	for k, n := range model.TentRecipe {
		if w.backpack.Count(k) < n {
			return model.ErrNotEnoughContent
		}
	}
	if err := w.spend(model.CraftCost); err != nil {
		return err
	}
	for _, k := range model.Gatherable {
		if n := model.TentRecipe[k]; n > 0 {
			w.removeItems(k, n)
		}
	}
	w.addItems(model.Tent, 1)
	return nil
}

// Discover reveals the given cells at DiscoverCost energy each. It stops at
// the first unaffordable tile and reports how many were revealed.
func (w *World) Discover(cells []model.Coord) (int, error) {
	n := 0
	for _, c := range cells {
		if !w.inBounds(c) || w.known[c.Row][c.Col] {
			continue
		}
		if err := w.spend(model.DiscoverCost); err != nil {
			return n, err
		}
		w.known[c.Row][c.Col] = true
		n++
	}
	return n, nil
}
