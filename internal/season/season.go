// Package season maps a cycle index to the two-valued seasonal clock and
// exposes the per-type accessibility and regeneration tables.
package season

import "agentgrid/internal/gridtypes"

// At returns the season for a given cycle index and season length L.
// At(0) is always Dry; the season flips every L cycles.
func At(cycle, length int) gridtypes.Season {
	if length <= 0 {
		length = 1
	}
	if (cycle/length)%2 == 0 {
		return gridtypes.Dry
	}
	return gridtypes.Wet
}

// Accessible reports whether a cell of the given type can be visited during
// the given season.
func Accessible(t gridtypes.CellType, s gridtypes.Season) bool {
	switch t {
	case gridtypes.Village, gridtypes.Gathering:
		return true
	case gridtypes.Fishing:
		return s == gridtypes.Dry
	case gridtypes.Farming:
		return s == gridtypes.Wet
	case gridtypes.Forbidden:
		return false
	default:
		return false
	}
}

// regenTable[type][season]
var regenTable = [gridtypes.NumCellTypes][2]float64{
	gridtypes.Village:   {0.0, 0.0},
	gridtypes.Fishing:   {0.15, 0.05},
	gridtypes.Gathering: {0.08, 0.08},
	gridtypes.Farming:   {0.03, 0.12},
	gridtypes.Forbidden: {0.0, 0.0},
}

// RegenRate returns the per-cycle regeneration rate for a cell type under a
// season.
func RegenRate(t gridtypes.CellType, s gridtypes.Season) float64 {
	if int(t) < 0 || int(t) >= gridtypes.NumCellTypes {
		return 0
	}
	return regenTable[t][s]
}
