package model

type EventType uint8

const (
	EventReady EventType = iota + 1
	EventTerminated
	EventTimeChanged
	EventDayChanged
	EventEnergyRecharged
	EventEnergyConsumed
	EventMoved
	EventTileContentUpdated
	EventAddedToBackpack
	EventRemovedFromBackpack
)

func (t EventType) String() string {
	switch t {
	case EventReady:
		return "READY"
	case EventTerminated:
		return "TERMINATED"
	case EventTimeChanged:
		return "TIME_CHANGED"
	case EventDayChanged:
		return "DAY_CHANGED"
	case EventEnergyRecharged:
		return "ENERGY_RECHARGED"
	case EventEnergyConsumed:
		return "ENERGY_CONSUMED"
	case EventMoved:
		return "MOVED"
	case EventTileContentUpdated:
		return "TILE_CONTENT_UPDATED"
	case EventAddedToBackpack:
		return "ADDED_TO_BACKPACK"
	case EventRemovedFromBackpack:
		return "REMOVED_FROM_BACKPACK"
	}
	return "UNKNOWN"
}

// Event is emitted by the world to the agent. Only the fields relevant to Type are set.
type Event struct {
	Type       EventType
	Pos        Coord
	Tile       Tile
	Kind       ContentKind
	Amount     int
	Conditions Conditions
}
