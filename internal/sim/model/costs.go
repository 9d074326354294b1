package model

// Energy cost of each world action.
const (
	MoveCost     = 1
	DestroyCost  = 3
	PlaceCost    = 2
	CraftCost    = 5
	DiscoverCost = 3
)

// TentRecipe is what crafting one tent consumes.
var TentRecipe = map[ContentKind]int{Tree: 2}
