package observerproto

// Version is the observer protocol version (separate from the pilot byte protocol).
const Version = "0.1"

// Client -> Server. First message on the observer WS connection, and can be re-sent to update settings.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	// Tiles asks for tile patches alongside the tick summary.
	Tiles bool `json:"tiles,omitempty"`
}

// HTTP response for GET /observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	RunID           string      `json:"run_id"`
	Tick            uint64      `json:"tick"`
	WorldParams     WorldParams `json:"world_params"`
}

type WorldParams struct {
	Size             int   `json:"size"`
	Seed             int64 `json:"seed"`
	MinutesPerTick   int   `json:"minutes_per_tick"`
	MaxTicks         int   `json:"max_ticks,omitempty"`
	MaxEnergy        int   `json:"max_energy"`
	BackpackCapacity int   `json:"backpack_capacity"`
}

// Server -> Client. Sent every tick.
type TickMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`

	DayTime string  `json:"day_time"`
	Weather string  `json:"weather"`
	Pos     [2]int  `json:"pos"`
	Energy  int     `json:"energy"`
	Score   float64 `json:"score"`

	Agent     AgentState  `json:"agent"`
	Tiles     []TilePatch `json:"tiles,omitempty"`
	Completed bool        `json:"completed,omitempty"`
}

type AgentState struct {
	Current     string  `json:"current"`
	Next        string  `json:"next"`
	Destination *[2]int `json:"destination,omitempty"`
	Pilot       string  `json:"pilot"`
	Pins        int     `json:"pins"`
	Depleted    int     `json:"depleted"`
	Running     bool    `json:"running"`
}

// TilePatch is a tile whose content changed during the tick.
type TilePatch struct {
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	Type    string `json:"type"`
	Content string `json:"content"`
	Amount  int    `json:"amount,omitempty"`
}
