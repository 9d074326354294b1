package agent

import (
	"testing"

	"pioneer.ai/internal/nav/compass"
	"pioneer.ai/internal/sim/model"
)

func TestSelling(t *testing.T) {
	t.Run("full sale resumes next", func(t *testing.T) {
		w := scene(t, 9)
		w.put(4, 5, model.Street, model.Market, 30)
		w.GiveItems(model.Tree, 4)
		a := newAgent(w, Config{})
		a.current, a.next = Sell(model.Tree), Explore()
		a.OnTick(w)
		if a.current != Explore() || a.next != None() {
			t.Fatalf("objectives=%v/%v", a.current, a.next)
		}
		bp := w.Backpack()
		if bp.Count(model.Tree) != 0 || bp.Count(model.Coin) != 8 {
			t.Fatalf("backpack=%v", bp.Items)
		}
	})
	t.Run("partial sale marks the market depleted", func(t *testing.T) {
		w := scene(t, 16)
		w.put(8, 9, model.Street, model.Market, 2)
		w.put(2, 2, model.Street, model.Market, 20)
		w.GiveItems(model.Tree, 4)
		w.RevealAll()
		c := compass.New()
		a := newAgent(w, Config{Compass: c})
		a.current = Sell(model.Tree)
		a.OnTick(w)
		if !a.Depleted(at(8, 9)) {
			t.Fatalf("market not marked depleted")
		}
		if a.current != MoveTo(true) || a.next != Sell(model.Tree) {
			t.Fatalf("objectives=%v/%v", a.current, a.next)
		}
		if d, _ := c.Destination(); d != at(2, 2) {
			t.Fatalf("destination=%v", d)
		}
	})
	t.Run("no market known explores", func(t *testing.T) {
		w := scene(t, 9)
		w.GiveItems(model.Fish, 2)
		a := newAgent(w, Config{})
		a.current = Sell(model.Fish)
		a.sell(w, model.Fish)
		if a.current != Explore() || a.next != Sell(model.Fish) {
			t.Fatalf("objectives=%v/%v", a.current, a.next)
		}
	})
	t.Run("coin overflow deposits first", func(t *testing.T) {
		w := scene(t, 9)
		w.put(4, 5, model.Street, model.Market, 30)
		w.GiveItems(model.Fish, 10)
		w.GiveItems(model.Rock, 9)
		a := newAgent(w, Config{})
		a.current = Sell(model.Fish)
		a.OnTick(w)
		if a.current != Deposit() || a.next != Sell(model.Fish) {
			t.Fatalf("objectives=%v/%v", a.current, a.next)
		}
	})
	t.Run("nothing to sell", func(t *testing.T) {
		w := scene(t, 9)
		w.GiveItems(model.Coin, 2)
		a := newAgent(w, Config{})
		a.sell(w, model.None)
		if a.current != Deposit() {
			t.Fatalf("current=%v", a.current)
		}
	})
}

func TestDepositing(t *testing.T) {
	w := scene(t, 9)
	w.put(3, 4, model.Street, model.Bank, 50)
	w.GiveItems(model.Coin, 5)
	a := newAgent(w, Config{})
	a.current, a.next = Deposit(), Sell(model.Rock)
	a.OnTick(w)
	if a.current != Sell(model.Rock) || w.Score() != 15 || w.Backpack().Count(model.Coin) != 0 {
		t.Fatalf("current=%v score=%v", a.current, w.Score())
	}

	w2 := scene(t, 9)
	w2.put(3, 4, model.Street, model.Bank, 2)
	w2.GiveItems(model.Coin, 5)
	a2 := newAgent(w2, Config{})
	a2.current = Deposit()
	a2.OnTick(w2)
	if !a2.Depleted(at(3, 4)) || a2.current != Explore() || a2.next != Deposit() {
		t.Fatalf("objectives=%v/%v depleted=%v", a2.current, a2.next, a2.Depleted(at(3, 4)))
	}
}

func TestGathering(t *testing.T) {
	w := scene(t, 16)
	w.put(8, 9, model.Grass, model.Tree, 1)
	w.put(8, 11, model.Grass, model.Tree, 1)
	w.put(2, 2, model.Grass, model.Tree, 1)
	w.RevealAll()
	c := compass.New()
	a := newAgent(w, Config{Compass: c})
	a.current = Gather(model.Tree)

	a.OnTick(w)
	// The adjacent tree and the one in sweep range are collected.
	if n := w.Backpack().Count(model.Tree); n != 2 {
		t.Fatalf("trees=%d", n)
	}
	if a.current != MoveTo(false) || a.next != Gather(model.Tree) {
		t.Fatalf("objectives=%v/%v", a.current, a.next)
	}
	if d, _ := c.Destination(); d != at(2, 2) {
		t.Fatalf("destination=%v", d)
	}
}

func TestGathering_FullBackpackSells(t *testing.T) {
	w := scene(t, 9)
	w.GiveItems(model.Fish, 16)
	a := newAgent(w, Config{})
	a.current = Gather(model.Fish)
	a.OnTick(w)
	if a.current != Sell(model.Fish) || a.next != None() {
		t.Fatalf("objectives=%v/%v", a.current, a.next)
	}
}

func TestGathering_NothingKnownExplores(t *testing.T) {
	w := scene(t, 9)
	a := newAgent(w, Config{})
	a.current = Gather(model.Fish)
	a.OnTick(w)
	if a.current != Explore() || a.next != Gather(model.Fish) {
		t.Fatalf("objectives=%v/%v", a.current, a.next)
	}
}

func TestExploring(t *testing.T) {
	t.Run("looks for the queued resource", func(t *testing.T) {
		w := scene(t, 16)
		w.put(8, 11, model.DeepWater, model.Fish, 2)
		w.put(9, 9, model.Street, model.Market, 10)
		c := compass.New()
		a := newAgent(w, Config{Compass: c})
		a.current, a.next = Explore(), Gather(model.Fish)
		a.OnTick(w)
		if a.current != MoveTo(false) {
			t.Fatalf("current=%v", a.current)
		}
		if d, _ := c.Destination(); d != at(8, 11) {
			t.Fatalf("destination=%v", d)
		}
	})
	t.Run("looks for unvisited structures", func(t *testing.T) {
		w := scene(t, 16)
		w.put(9, 9, model.Street, model.Market, 10)
		w.put(10, 10, model.Street, model.Bank, 10)
		c := compass.New()
		a := newAgent(w, Config{Compass: c})
		a.pin(at(9, 9))
		a.current = Explore()
		a.OnTick(w)
		if a.current != MoveTo(true) {
			t.Fatalf("current=%v", a.current)
		}
		if d, _ := c.Destination(); d != at(10, 10) {
			t.Fatalf("destination=%v", d)
		}
	})
	t.Run("miss falls back to the locator", func(t *testing.T) {
		w := scene(t, 16)
		c := compass.New()
		a := newAgent(w, Config{Compass: c})
		a.current = Explore()
		a.OnTick(w)
		if a.current != MoveTo(false) {
			t.Fatalf("current=%v", a.current)
		}
		if _, ok := c.Destination(); !ok {
			t.Fatalf("no destination")
		}
	})
}
