// Package gridtypes holds the plain data types shared by every phase of the
// simulation: cells, agents, the season enum, and the run configuration.
// None of these types own goroutines or channels; they are passed by value
// or by plain pointer between the packages that do.
package gridtypes

// CellType is the immutable terrain tag of a cell.
type CellType int

const (
	Village CellType = iota
	Fishing
	Gathering
	Farming
	Forbidden
	numCellTypes = int(Forbidden) + 1
)

func (t CellType) String() string {
	switch t {
	case Village:
		return "VILLAGE"
	case Fishing:
		return "FISHING"
	case Gathering:
		return "GATHERING"
	case Farming:
		return "FARMING"
	case Forbidden:
		return "FORBIDDEN"
	default:
		return "UNKNOWN"
	}
}

// NumCellTypes is the cardinality of CellType, used as the RNG modulus in
// deterministic cell seeding.
const NumCellTypes = numCellTypes

// MaxResource is the per-type resource ceiling, indexed by CellType.
var MaxResource = [numCellTypes]float64{
	Village:   0.5,
	Fishing:   1.0,
	Gathering: 0.8,
	Farming:   0.9,
	Forbidden: 0.0,
}

// Season is the two-valued seasonal clock state.
type Season int

const (
	Dry Season = iota
	Wet
)

func (s Season) String() string {
	if s == Wet {
		return "WET"
	}
	return "DRY"
}

// Cell is one slot of a SubGrid's halo-padded buffer.
type Cell struct {
	Type        CellType
	Resource    float64
	MaxResource float64
	Accessible  bool
}

// Agent is a single simulated individual. Id is stable across migration.
type Agent struct {
	ID     int
	GX, GY int
	Energy float64
	Alive  bool
}

// Config is the configuration record consumed by the simulation core. CLI
// parsing and defaulting live outside the core, in internal/config and
// cmd/agentgrid; this struct is the contract between them and the engine.
type Config struct {
	GlobalW, GlobalH int
	TotalCycles      int
	SeasonLength     int
	NumAgents        int
	MaxWorkload      int
	EnergyGain       float64
	EnergyLoss       float64
	InitialEnergy    float64
	Seed             uint64
	Threads          int

	// Reproduction is enabled iff both are non-nil.
	ReproduceThreshold *float64
	ReproduceCost      *float64
}

// ReproductionEnabled reports whether the optional reproduction phase runs.
func (c Config) ReproductionEnabled() bool {
	return c.ReproduceThreshold != nil && c.ReproduceCost != nil
}
