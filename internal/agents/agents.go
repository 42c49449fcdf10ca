// Package agents implements deterministic agent placement, the per-agent
// decision rule, the parallel worker-team sweep over the agent array, and
// the optional reproduction phase.
package agents

import (
	"sync"
	"sync/atomic"

	"agentgrid/internal/gridtypes"
	"agentgrid/internal/partition"
	"agentgrid/internal/rng"
	"agentgrid/internal/subgrid"
	"agentgrid/internal/workload"
)

// canonicalDirections lists (dx, dy) offsets in the fixed scan order Decide
// depends on for determinism: the 8 Moore neighbors, then stay.
var canonicalDirections = [9][2]int{
	{0, -1}, {0, 1}, {1, 0}, {-1, 0},
	{1, -1}, {-1, -1}, {1, 1}, {-1, 1},
	{0, 0},
}

// PlaceDeterministic draws numTotal global positions from a single stream
// seeded by baseSeed^0xA6E47 and keeps only those this rank owns. Because
// every rank replays the same stream and the ownership predicate partitions
// the grid disjointly, the union across any rank count reproduces the
// serial placement exactly.
func PlaceDeterministic(p *partition.Partition, numTotal int, baseSeed uint64, initialEnergy float64) []gridtypes.Agent {
	r := rng.New(baseSeed ^ 0xA6E47)
	var out []gridtypes.Agent
	for i := 0; i < numTotal; i++ {
		gx := r.Intn(p.GlobalW)
		gy := r.Intn(p.GlobalH)
		if p.Owns(gx, gy) {
			out = append(out, gridtypes.Agent{ID: i, GX: gx, GY: gy, Energy: initialEnergy, Alive: true})
		}
	}
	return out
}

// Decide runs one agent's movement/energy rule against the local SubGrid,
// using r as its worker-local RNG source.
//
// Cell.Resource is read and written here without synchronization: multiple
// agents may target the same cell concurrently during the parallel phase.
// The resulting over-consumption is bounded by the number of worker
// goroutines per cell per cycle, and the regen phase that follows clamps
// Resource back into [0, MaxResource].
func Decide(g *subgrid.SubGrid, a *gridtypes.Agent, cfg gridtypes.Config, r *rng.State) {
	if !a.Alive {
		return
	}
	lr, lc := g.GlobalToLocal(a.GX, a.GY)

	bestLR, bestLC := lr, lc // default: stay
	haveCandidate := false
	var bestResource float64
	ties := 0

	for _, d := range canonicalDirections {
		clr, clc := lr+d[1], lc+d[0]
		if !g.InBounds(clr, clc) {
			continue
		}
		c := g.At(clr, clc)
		if !c.Accessible {
			continue
		}
		switch {
		case !haveCandidate || c.Resource > bestResource:
			bestResource = c.Resource
			bestLR, bestLC = clr, clc
			haveCandidate = true
			ties = 1
		case c.Resource == bestResource:
			ties++
			if r.Intn(ties) == 0 {
				bestLR, bestLC = clr, clc
			}
		}
	}

	gx, gy := g.LocalToGlobal(bestLR, bestLC)
	a.GX, a.GY = gx, gy

	dest := g.At(bestLR, bestLC)
	if dest.Accessible && dest.Resource > 0 {
		consumed := cfg.EnergyGain
		if dest.Resource < consumed {
			consumed = dest.Resource
		}
		dest.Resource -= consumed
		g.Set(bestLR, bestLC, dest)
		a.Energy += consumed
	} else {
		a.Energy -= cfg.EnergyLoss
	}

	if a.Energy <= 0 {
		a.Alive = false
	}
}

func ownedClamp(g *subgrid.SubGrid, lr, lc int) (int, int) {
	if lr < 1 {
		lr = 1
	}
	if lr > g.LocalH {
		lr = g.LocalH
	}
	if lc < 1 {
		lc = 1
	}
	if lc > g.LocalW {
		lc = g.LocalW
	}
	return lr, lc
}

const chunkSize = 32

// Process sweeps the agent array with a dynamic-chunked worker pool
// (chunk ~= 32), each worker owning an independent RNG derived from
// baseSeed and its thread index, running the workload phase then the
// decide phase for every alive agent.
func Process(g *subgrid.SubGrid, arr []gridtypes.Agent, cfg gridtypes.Config, baseSeed uint64, workers int) {
	n := len(arr)
	if n == 0 {
		return
	}
	if workers < 1 {
		workers = 1
	}

	var next int64
	var wg sync.WaitGroup
	for tid := 0; tid < workers; tid++ {
		wg.Add(1)
		go func(tid int) {
			defer wg.Done()
			r := rng.New(rng.ThreadSeed(baseSeed, tid))
			for {
				start := int(atomic.AddInt64(&next, chunkSize)) - chunkSize
				if start >= n {
					return
				}
				end := start + chunkSize
				if end > n {
					end = n
				}
				for i := start; i < end; i++ {
					a := &arr[i]
					if !a.Alive {
						continue
					}
					lr, lc := g.GlobalToLocal(a.GX, a.GY)
					clr, clc := ownedClamp(g, lr, lc)
					workload.Compute(g.At(clr, clc).Resource, cfg.MaxWorkload)
					Decide(g, a, cfg, r)
				}
			}
		}(tid)
	}
	wg.Wait()
}

// IDAllocator hands out monotonically increasing ids for agents created by
// reproduction. A counter shared across ranks would collide once migration
// moves reproduced agents between them, so each rank starts its allocator
// at its own offset; the engine uses NumAgents + rank*K, giving each rank a
// block of K ids above the initial population's ids.
type IDAllocator struct {
	next int
}

// NewIDAllocator starts an allocator at the given first id.
func NewIDAllocator(start int) *IDAllocator {
	return &IDAllocator{next: start}
}

// Next returns the next id and advances the counter.
func (a *IDAllocator) Next() int {
	v := a.next
	a.next++
	return v
}

// Reproduce runs the optional reproduction phase serially: each alive agent
// at or above the energy threshold spawns one child at its own location.
// A no-op when reproduction is not configured. Serial on purpose: it
// mutates the array length and the id counter.
func Reproduce(arr []gridtypes.Agent, cfg gridtypes.Config, ids *IDAllocator) []gridtypes.Agent {
	if !cfg.ReproductionEnabled() {
		return arr
	}
	threshold := *cfg.ReproduceThreshold
	cost := *cfg.ReproduceCost

	n := len(arr)
	for i := 0; i < n; i++ {
		a := &arr[i]
		if !a.Alive || a.Energy < threshold {
			continue
		}
		a.Energy -= cost
		arr = append(arr, gridtypes.Agent{
			ID: ids.Next(), GX: a.GX, GY: a.GY, Energy: cost, Alive: true,
		})
	}
	return arr
}

// Compact removes dead agents, preserving the relative order of the
// survivors.
func Compact(arr []gridtypes.Agent) []gridtypes.Agent {
	out := arr[:0]
	for _, a := range arr {
		if a.Alive {
			out = append(out, a)
		}
	}
	return out
}
