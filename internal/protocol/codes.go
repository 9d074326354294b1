package protocol

// ObjectiveCode is an assisted-mode answer to SignalReadyForObjective.
type ObjectiveCode byte

const (
	ObjNone       ObjectiveCode = 0
	ObjCharge     ObjectiveCode = 1
	ObjSellFish   ObjectiveCode = 2
	ObjSellTree   ObjectiveCode = 3
	ObjSellRock   ObjectiveCode = 4
	ObjGatherFish ObjectiveCode = 5
	ObjGatherTree ObjectiveCode = 6
	ObjGatherRock ObjectiveCode = 7
	ObjDeposit    ObjectiveCode = 8
	ObjExplore    ObjectiveCode = 9
)

var objectiveNames = map[ObjectiveCode]string{
	ObjCharge:     "CHARGE",
	ObjSellFish:   "SELL_FISH",
	ObjSellTree:   "SELL_TREE",
	ObjSellRock:   "SELL_ROCK",
	ObjGatherFish: "GATHER_FISH",
	ObjGatherTree: "GATHER_TREE",
	ObjGatherRock: "GATHER_ROCK",
	ObjDeposit:    "DEPOSIT",
	ObjExplore:    "EXPLORE",
}

// Known reports whether c overrides the planner; unknown codes mean no override.
func (c ObjectiveCode) Known() bool {
	_, ok := objectiveNames[c]
	return ok
}

func (c ObjectiveCode) String() string {
	if n, ok := objectiveNames[c]; ok {
		return n
	}
	return "NONE"
}

// ParseObjective maps a name back to its code; unknown names give ObjNone.
func ParseObjective(s string) ObjectiveCode {
	for c, n := range objectiveNames {
		if n == s {
			return c
		}
	}
	return ObjNone
}

// Manual-mode action codes streamed by a pilot, one byte per tick.
const (
	ActDisconnect int8 = -1
	ActNone       int8 = 0
	ActDeposit    int8 = 1
	ActSell       int8 = 2
	ActScan       int8 = 3
	ActTent       int8 = 4
	ActDestroy    int8 = 5
	ActRight      int8 = 6
	ActLeft       int8 = 7
	ActDown       int8 = 8
	ActUp         int8 = 9
)

var actionNames = map[int8]string{
	ActDisconnect: "DISCONNECT",
	ActDeposit:    "DEPOSIT",
	ActSell:       "SELL",
	ActScan:       "SCAN",
	ActTent:       "TENT",
	ActDestroy:    "DESTROY",
	ActRight:      "RIGHT",
	ActLeft:       "LEFT",
	ActDown:       "DOWN",
	ActUp:         "UP",
}

func ActionName(a int8) string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return "NONE"
}

// ParseAction maps a name back to its code; unknown names give ActNone.
func ParseAction(s string) int8 {
	for c, n := range actionNames {
		if n == s {
			return c
		}
	}
	return ActNone
}
