// Package metrics computes the local per-rank aggregate (resource totals,
// agent energy sum/min/max/count) and reduces it globally.
package metrics

import (
	"math"

	"agentgrid/internal/comm"
	"agentgrid/internal/gridtypes"
	"agentgrid/internal/subgrid"
)

const tagMetrics = 0

// Local is one rank's contribution to the global reduction.
type Local struct {
	TotalResource float64
	AliveCount    int
	EnergySum     float64
	MaxEnergy     float64
	MinEnergy     float64 // +Inf sentinel when AliveCount == 0
}

// Global is the all-reduced result, published identically on every rank.
type Global struct {
	TotalResource float64
	AliveCount    int
	EnergySum     float64
	MaxEnergy     float64
	MinEnergy     float64
	AvgEnergy     float64
}

// ComputeLocal sums resource over owned cells and aggregates the alive
// agents' energy.
func ComputeLocal(g *subgrid.SubGrid, arr []gridtypes.Agent) Local {
	l := Local{MinEnergy: math.Inf(1), MaxEnergy: math.Inf(-1)}
	l.TotalResource = g.TotalResource()
	for _, a := range arr {
		if !a.Alive {
			continue
		}
		l.AliveCount++
		l.EnergySum += a.Energy
		if a.Energy > l.MaxEnergy {
			l.MaxEnergy = a.Energy
		}
		if a.Energy < l.MinEnergy {
			l.MinEnergy = a.Energy
		}
	}
	return l
}

func combine(a, b Local) Local {
	return Local{
		TotalResource: a.TotalResource + b.TotalResource,
		AliveCount:    a.AliveCount + b.AliveCount,
		EnergySum:     a.EnergySum + b.EnergySum,
		MaxEnergy:     math.Max(a.MaxEnergy, b.MaxEnergy),
		MinEnergy:     math.Min(a.MinEnergy, b.MinEnergy),
	}
}

// Reduce all-reduces every rank's Local contribution into the Global
// result, published on every rank.
func Reduce(r *comm.Rank, root int, local Local) Global {
	c := comm.Allreduce(r, tagMetrics, root, local, combine)

	g := Global{
		TotalResource: c.TotalResource,
		AliveCount:    c.AliveCount,
		EnergySum:     c.EnergySum,
		MaxEnergy:     c.MaxEnergy,
		MinEnergy:     c.MinEnergy,
	}
	if g.AliveCount > 0 {
		g.AvgEnergy = g.EnergySum / float64(g.AliveCount)
	} else {
		g.MaxEnergy = 0
		g.MinEnergy = 0
	}
	return g
}
