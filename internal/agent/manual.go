package agent

import (
	"go.uber.org/zap"

	"pioneer.ai/internal/economy/value"
	"pioneer.ai/internal/nav/spyglass"
	"pioneer.ai/internal/protocol"
	"pioneer.ai/internal/sim/model"
)

var manualMoves = map[int8]model.Direction{
	protocol.ActUp:    model.Up,
	protocol.ActDown:  model.Down,
	protocol.ActLeft:  model.Left,
	protocol.ActRight: model.Right,
}

// manualPilot executes one operator action. Objectives are left untouched.
func (a *Agent) manualPilot(w World) {
	code, err := a.pilot.Action()
	if err != nil {
		a.dropPilot(err)
		return
	}
	if d, ok := manualMoves[code]; ok {
		if err := w.Move(d); err != nil {
			a.log.Debug("manual move", zap.Stringer("dir", d), zap.Error(err))
		}
		return
	}
	switch code {
	case protocol.ActDestroy:
		if d, ok := a.faceTarget(w, false, destroyable); ok {
			_, err = w.Destroy(d)
		}
	case protocol.ActTent:
		if d, ok := a.faceTarget(w, false, tentSpot); ok {
			if w.Backpack().Count(model.Tent) == 0 {
				err = w.Craft(model.Tent)
			}
			if err == nil {
				_, err = w.Place(model.Tent, 1, d)
			}
		}
	case protocol.ActScan:
		res := a.scanner.Scan(w, spyglass.Request{Origin: w.Position(), Radius: a.policy.ManualScanRadius})
		err = res.Err
	case protocol.ActSell:
		bp := w.Backpack()
		if kind := value.BestSellable(bp.Items, a.rng); kind != model.None {
			if d, ok := a.faceStructureStill(w, model.Market); ok {
				_, err = w.Place(kind, bp.Count(kind), d)
			}
		}
	case protocol.ActDeposit:
		if n := w.Backpack().Count(model.Coin); n > 0 {
			if d, ok := a.faceStructureStill(w, model.Bank); ok {
				_, err = w.Place(model.Coin, n, d)
			}
		}
	case protocol.ActDisconnect:
		a.dropPilot(nil)
		return
	}
	if err != nil {
		a.log.Debug("manual action", zap.Int8("code", code), zap.Error(err))
	}
}

// faceStructureStill faces an adjacent structure with stock without moving.
func (a *Agent) faceStructureStill(w World, kind model.ContentKind) (model.Direction, bool) {
	return a.faceTarget(w, false, func(t model.Tile, _ model.Coord) bool {
		return t.Content.Kind == kind && t.Content.Amount > 0
	})
}
