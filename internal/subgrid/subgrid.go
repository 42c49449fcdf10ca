// Package subgrid implements the halo-padded per-rank cell buffer: creation,
// deterministic seeding, and the per-cycle regeneration and accessibility
// update.
package subgrid

import (
	"sync"

	"agentgrid/internal/gridtypes"
	"agentgrid/internal/partition"
	"agentgrid/internal/rng"
	"agentgrid/internal/season"
)

// SubGrid is one rank's halo-padded slice of the global grid. Interior
// cells occupy rows 1..LocalH and cols 1..LocalW; row 0/HaloH-1 and col
// 0/HaloW-1 are the halo.
type SubGrid struct {
	LocalW, LocalH   int
	HaloW, HaloH     int
	OffsetX, OffsetY int

	Cells []gridtypes.Cell // row-major, HaloH*HaloW
}

// New allocates a zeroed halo-padded buffer sized from the partition.
func New(p *partition.Partition) *SubGrid {
	haloW, haloH := p.LocalW+2, p.LocalH+2
	return &SubGrid{
		LocalW: p.LocalW, LocalH: p.LocalH,
		HaloW: haloW, HaloH: haloH,
		OffsetX: p.OffsetX, OffsetY: p.OffsetY,
		Cells: make([]gridtypes.Cell, haloW*haloH),
	}
}

// idx returns the row-major index for local halo coordinates.
func (g *SubGrid) idx(lr, lc int) int { return lr*g.HaloW + lc }

// At returns the cell at local halo coordinates (lr, lc).
func (g *SubGrid) At(lr, lc int) gridtypes.Cell { return g.Cells[g.idx(lr, lc)] }

// Set overwrites the cell at local halo coordinates (lr, lc).
func (g *SubGrid) Set(lr, lc int, c gridtypes.Cell) { g.Cells[g.idx(lr, lc)] = c }

// InBounds reports whether local halo coordinates fall within the
// halo-padded buffer.
func (g *SubGrid) InBounds(lr, lc int) bool {
	return lr >= 0 && lr < g.HaloH && lc >= 0 && lc < g.HaloW
}

// GlobalToLocal converts a global coordinate to local halo coordinates.
func (g *SubGrid) GlobalToLocal(gx, gy int) (lr, lc int) {
	return gy - g.OffsetY + 1, gx - g.OffsetX + 1
}

// LocalToGlobal converts local halo coordinates to a global coordinate.
func (g *SubGrid) LocalToGlobal(lr, lc int) (gx, gy int) {
	return lc + g.OffsetX - 1, lr + g.OffsetY - 1
}

// Init seeds every owned (interior) cell deterministically from baseSeed
// and the cell's global coordinates, independent of decomposition.
func (g *SubGrid) Init(baseSeed uint64) {
	for lr := 1; lr <= g.LocalH; lr++ {
		for lc := 1; lc <= g.LocalW; lc++ {
			gx, gy := g.LocalToGlobal(lr, lc)
			seed := rng.CellSeed(baseSeed, gx, gy)
			r := rng.New(seed)
			t := gridtypes.CellType(r.Intn(gridtypes.NumCellTypes))
			g.Set(lr, lc, gridtypes.Cell{
				Type:        t,
				MaxResource: gridtypes.MaxResource[t],
				Resource:    0,
				Accessible:  true, // corrected by the first Update call
			})
		}
	}
}

// RefreshAccessible recomputes accessible on every owned cell for the given
// season, without touching resource. The driver loop calls this right after
// the season broadcast and before the halo exchange, so that neighbors
// replicate up-to-date accessibility flags; Update repeats the same
// assignment later alongside regen.
func (g *SubGrid) RefreshAccessible(s gridtypes.Season) {
	for lr := 1; lr <= g.LocalH; lr++ {
		for lc := 1; lc <= g.LocalW; lc++ {
			c := g.At(lr, lc)
			c.Accessible = season.Accessible(c.Type, s)
			g.Set(lr, lc, c)
		}
	}
}

// Update regenerates owned-cell resources toward their max and refreshes
// accessibility for the given season, in parallel over `workers` goroutines
// with a static row-chunked schedule. Halo cells are left untouched. The
// clamp also repairs any over-consumption left behind by the racy decide
// phase, so resource is back in [0, MaxResource] when Update returns.
func (g *SubGrid) Update(s gridtypes.Season, workers int) {
	if workers < 1 {
		workers = 1
	}
	if workers > g.LocalH {
		workers = g.LocalH
	}
	if g.LocalH == 0 {
		return
	}

	rowsPer := (g.LocalH + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := 1 + w*rowsPer
		end := start + rowsPer
		if end > g.LocalH+1 {
			end = g.LocalH + 1
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for lr := start; lr < end; lr++ {
				for lc := 1; lc <= g.LocalW; lc++ {
					c := g.At(lr, lc)
					rate := season.RegenRate(c.Type, s)
					c.Resource += rate * (c.MaxResource - c.Resource)
					if c.Resource < 0 {
						c.Resource = 0
					}
					if c.Resource > c.MaxResource {
						c.Resource = c.MaxResource
					}
					c.Accessible = season.Accessible(c.Type, s)
					g.Set(lr, lc, c)
				}
			}
		}(start, end)
	}
	wg.Wait()
}

// TotalResource sums resource over owned (interior) cells only.
func (g *SubGrid) TotalResource() float64 {
	var sum float64
	for lr := 1; lr <= g.LocalH; lr++ {
		for lc := 1; lc <= g.LocalW; lc++ {
			sum += g.At(lr, lc).Resource
		}
	}
	return sum
}
