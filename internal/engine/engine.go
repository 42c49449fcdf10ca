// Package engine sequences the per-cycle driver loop over a set of ranks,
// each running as one goroutine inside an errgroup.Group. Every phase that
// touches another rank's state goes through a comm collective, so the ranks
// advance in lockstep from one phase boundary to the next.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"agentgrid/internal/agents"
	"agentgrid/internal/comm"
	"agentgrid/internal/gridtypes"
	"agentgrid/internal/halo"
	"agentgrid/internal/metrics"
	"agentgrid/internal/migrate"
	"agentgrid/internal/partition"
	"agentgrid/internal/render"
	"agentgrid/internal/season"
	"agentgrid/internal/subgrid"
)

const (
	tagBarrier      = 899
	tagSeason       = 901
	tagQuit         = 902
	tagGatherGrid   = 903
	tagGatherAgents = 905
)

// reproIDBlock is how many reproduction-assigned ids each rank is granted.
// Disjoint per-rank ranges keep ids globally unique even after reproduced
// agents migrate.
const reproIDBlock = 1_000_000

// Rank owns one process's slice of the simulation: its partition, its
// halo-padded subgrid, and its local agent array. Ownership is a strict
// tree: a Partition owns its topology, a SubGrid owns its cells, and Rank
// owns both plus the agents array. Neighbor links are plain peer ids,
// never references into another rank's state.
type Rank struct {
	id     int
	link   *comm.Rank
	part   *partition.Partition
	grid   *subgrid.SubGrid
	agents []gridtypes.Agent
	ids    *agents.IDAllocator
	cfg    gridtypes.Config
	logger *zap.Logger
}

// NewRank builds one rank's state: its Cartesian partition, its seeded
// subgrid, and its share of the deterministically placed agents.
func NewRank(world *comm.World, id int, cfg gridtypes.Config, logger *zap.Logger) *Rank {
	part := partition.New(id, world.Size(), cfg.GlobalW, cfg.GlobalH)
	grid := subgrid.New(part)
	grid.Init(cfg.Seed)
	placed := agents.PlaceDeterministic(part, cfg.NumAgents, cfg.Seed, cfg.InitialEnergy)

	return &Rank{
		id:     id,
		link:   world.Rank(id),
		part:   part,
		grid:   grid,
		agents: placed,
		ids:    agents.NewIDAllocator(cfg.NumAgents + id*reproIDBlock),
		cfg:    cfg,
		logger: logger,
	}
}

// AliveCount returns how many locally held agents are currently alive.
func (rk *Rank) AliveCount() int {
	n := 0
	for _, a := range rk.agents {
		if a.Alive {
			n++
		}
	}
	return n
}

// RunCycle executes one full cycle: season broadcast, accessibility
// refresh, halo exchange, workload plus agent decide, optional
// reproduction, grid regen, migration, metrics reduction, and the optional
// gather-to-root. When collect is true every rank performs the gather
// collective; only rank 0 hands the assembled frame to collector, which
// may be nil on every other rank.
func (rk *Rank) RunCycle(cycle int, collect bool, collector render.FrameCollector) CyclePerf {
	var perf CyclePerf
	t0 := time.Now()

	// 1. Season broadcast: authoritative at rank 0.
	ts := time.Now()
	var seasonInt int
	if rk.id == 0 {
		seasonInt = int(season.At(cycle, rk.cfg.SeasonLength))
	}
	seasonInt = comm.Bcast(rk.link, tagSeason, 0, seasonInt)
	s := gridtypes.Season(seasonInt)
	perf.Season = time.Since(ts).Seconds()

	// 2. Accessibility recompute, ahead of the halo exchange so neighbors
	// replicate up-to-date flags.
	rk.grid.RefreshAccessible(s)

	// 3. Halo exchange.
	th := time.Now()
	halo.Exchange(rk.link, rk.part, rk.grid)
	perf.Halo = time.Since(th).Seconds()

	// 4 & 5. Workload + agent decide: agents.Process runs the workload at
	// each agent's current cell immediately before Decide, in one sweep.
	ta := time.Now()
	cycleSeed := rk.cfg.Seed ^ (uint64(cycle+1) * 0x9E3779B97F4A7C15)
	agents.Process(rk.grid, rk.agents, rk.cfg, cycleSeed, rk.cfg.Threads)
	perf.Agent = time.Since(ta).Seconds()
	perf.Workload = perf.Agent // the two phases share one parallel sweep; see agents.Process.

	// 6. Reproduction (optional, serial).
	if rk.cfg.ReproductionEnabled() {
		rk.agents = agents.Reproduce(rk.agents, rk.cfg, rk.ids)
	}

	// 7. Grid regeneration.
	tg := time.Now()
	rk.grid.Update(s, rk.cfg.Threads)
	perf.Grid = time.Since(tg).Seconds()

	// 8. Migration.
	tm := time.Now()
	kept, _ := migrate.Run(rk.link, rk.part, rk.agents)
	rk.agents = kept
	perf.Migrate = time.Since(tm).Seconds()

	// 9. Metrics all-reduce.
	tme := time.Now()
	local := metrics.ComputeLocal(rk.grid, rk.agents)
	global := metrics.Reduce(rk.link, 0, local)
	perf.Metrics = time.Since(tme).Seconds()

	// 10. Optional gather-to-root.
	tr := time.Now()
	if collect {
		rk.gatherAndRender(cycle, global, collector)
	}
	perf.Render = time.Since(tr).Seconds()

	perf.Cycle = time.Since(t0).Seconds()
	return perf
}

// gridPart is one rank's contribution to the gather-to-root collective: its
// owned (interior) cells plus enough placement information for rank 0 to
// reassemble the contiguous global grid, last-band remainders included.
type gridPart struct {
	OffsetX, OffsetY int
	LocalW, LocalH   int
	Cells            []gridtypes.Cell
}

func (rk *Rank) interiorCells() []gridtypes.Cell {
	out := make([]gridtypes.Cell, 0, rk.grid.LocalW*rk.grid.LocalH)
	for lr := 1; lr <= rk.grid.LocalH; lr++ {
		for lc := 1; lc <= rk.grid.LocalW; lc++ {
			out = append(out, rk.grid.At(lr, lc))
		}
	}
	return out
}

func (rk *Rank) gatherAndRender(cycle int, global metrics.Global, collector render.FrameCollector) {
	mine := gridPart{
		OffsetX: rk.part.OffsetX, OffsetY: rk.part.OffsetY,
		LocalW: rk.grid.LocalW, LocalH: rk.grid.LocalH,
		Cells: rk.interiorCells(),
	}
	gridParts := comm.Gather(rk.link, tagGatherGrid, 0, mine)

	aliveLocal := make([]gridtypes.Agent, 0, len(rk.agents))
	for _, a := range rk.agents {
		if a.Alive {
			aliveLocal = append(aliveLocal, a)
		}
	}
	agentParts := comm.Gather(rk.link, tagGatherAgents, 0, aliveLocal)

	if rk.id != 0 || collector == nil {
		return
	}

	globalGrid := make([]gridtypes.Cell, rk.cfg.GlobalW*rk.cfg.GlobalH)
	for _, part := range gridParts {
		for ly := 0; ly < part.LocalH; ly++ {
			for lx := 0; lx < part.LocalW; lx++ {
				gx, gy := part.OffsetX+lx, part.OffsetY+ly
				globalGrid[gy*rk.cfg.GlobalW+gx] = part.Cells[ly*part.LocalW+lx]
			}
		}
	}

	var allAgents []gridtypes.Agent
	for _, a := range agentParts {
		allAgents = append(allAgents, a...)
	}

	frame := render.Frame{
		Cycle:   cycle,
		GlobalW: rk.cfg.GlobalW,
		GlobalH: rk.cfg.GlobalH,
		Grid:    globalGrid,
		Agents:  allAgents,
		Metrics: global,
	}
	if err := collector.Collect(frame); err != nil {
		rk.logger.Warn("frame collector failed", zap.Error(err))
	}
}

// Run drives size ranks through cfg.TotalCycles cycles over world, handing
// rank 0's frames to collector (nil for a headless run). ctx cancellation
// is observed only at a cycle boundary: the quit flag is broadcast at the
// top of every cycle so every rank learns about it and stops together.
func Run(ctx context.Context, world *comm.World, cfg gridtypes.Config, logger *zap.Logger, collector render.FrameCollector) ([]CyclePerf, error) {
	size := world.Size()
	ranks := make([]*Rank, size)
	for id := 0; id < size; id++ {
		ranks[id] = NewRank(world, id, cfg, logger)
	}

	// Only rank 0's goroutine ever appends to perfs; every other goroutine
	// only reads its own Rank, so this needs no lock.
	var perfs []CyclePerf
	var eg errgroup.Group
	for id := 0; id < size; id++ {
		id := id
		eg.Go(func() error {
			rk := ranks[id]
			var localCollector render.FrameCollector
			if id == 0 {
				localCollector = collector
			}
			// Every rank is fully initialized before cycle 0 starts.
			comm.Barrier(rk.link, tagBarrier)
			for cycle := 0; cycle < cfg.TotalCycles; cycle++ {
				quit := 0
				if id == 0 && ctx.Err() != nil {
					quit = 1
				}
				quit = comm.Bcast(rk.link, tagQuit, 0, quit)
				if quit == 1 {
					return nil
				}

				local := rk.RunCycle(cycle, true, localCollector)
				reduced := ReducePerf(rk.link, 0, local)
				if id == 0 {
					perfs = append(perfs, reduced)
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return perfs, nil
}
