package subgrid

import (
	"testing"

	"github.com/stretchr/testify/require"

	"agentgrid/internal/gridtypes"
	"agentgrid/internal/partition"
	seasonpkg "agentgrid/internal/season"
)

func TestInitIsDeterministicAcrossDecomposition(t *testing.T) {
	const gw, gh = 8, 8
	const seed = 42

	// serial: 1 rank
	pSerial := partition.New(0, 1, gw, gh)
	gSerial := New(pSerial)
	gSerial.Init(seed)

	// decomposed: 4 ranks, 2x2
	want := map[[2]int]gridtypes.Cell{}
	for lr := 1; lr <= gSerial.LocalH; lr++ {
		for lc := 1; lc <= gSerial.LocalW; lc++ {
			gx, gy := gSerial.LocalToGlobal(lr, lc)
			want[[2]int{gx, gy}] = gSerial.At(lr, lc)
		}
	}

	for rank := 0; rank < 4; rank++ {
		p := partition.New(rank, 4, gw, gh)
		g := New(p)
		g.Init(seed)
		for lr := 1; lr <= g.LocalH; lr++ {
			for lc := 1; lc <= g.LocalW; lc++ {
				gx, gy := g.LocalToGlobal(lr, lc)
				got := g.At(lr, lc)
				w := want[[2]int{gx, gy}]
				require.Equal(t, w.Type, got.Type, "gx=%d gy=%d", gx, gy)
				require.Equal(t, w.MaxResource, got.MaxResource, "gx=%d gy=%d", gx, gy)
			}
		}
	}
}

func TestForbiddenCellsHaveZeroMaxResourceAndInaccessible(t *testing.T) {
	p := partition.New(0, 1, 6, 6)
	g := New(p)
	g.Init(7)
	g.Update(gridtypes.Dry, 2)
	for lr := 1; lr <= g.LocalH; lr++ {
		for lc := 1; lc <= g.LocalW; lc++ {
			c := g.At(lr, lc)
			if c.Type == gridtypes.Forbidden {
				require.Zero(t, c.MaxResource)
				require.False(t, c.Accessible)
			}
		}
	}
}

func TestUpdateClampsResourceWithinBounds(t *testing.T) {
	p := partition.New(0, 1, 5, 5)
	g := New(p)
	g.Init(99)
	for cycle := 0; cycle < 50; cycle++ {
		g.Update(seasonForCycle(cycle), 3)
	}
	for lr := 1; lr <= g.LocalH; lr++ {
		for lc := 1; lc <= g.LocalW; lc++ {
			c := g.At(lr, lc)
			require.GreaterOrEqual(t, c.Resource, 0.0)
			require.LessOrEqual(t, c.Resource, c.MaxResource)
		}
	}
}

func seasonForCycle(cycle int) gridtypes.Season {
	if (cycle/5)%2 == 0 {
		return gridtypes.Dry
	}
	return gridtypes.Wet
}

func TestRegenMonotonicWithNoAgents(t *testing.T) {
	p := partition.New(0, 1, 4, 4)
	g := New(p)
	g.Init(5)
	prev := g.TotalResource()
	var bound float64
	for lr := 1; lr <= g.LocalH; lr++ {
		for lc := 1; lc <= g.LocalW; lc++ {
			bound += g.At(lr, lc).MaxResource
		}
	}
	for cycle := 0; cycle < 30; cycle++ {
		g.Update(gridtypes.Dry, 2)
		cur := g.TotalResource()
		require.GreaterOrEqual(t, cur, prev-1e-9)
		require.LessOrEqual(t, cur, bound+1e-9)
		prev = cur
	}
}

func TestRefreshAccessibleFlipsWithSeasonWithoutTouchingResource(t *testing.T) {
	p := partition.New(0, 1, 4, 4)
	g := New(p)
	g.Init(3)
	g.Update(gridtypes.Dry, 1)

	before := make([]float64, len(g.Cells))
	for i, c := range g.Cells {
		before[i] = c.Resource
	}

	g.RefreshAccessible(gridtypes.Wet)
	for i, c := range g.Cells {
		require.Equal(t, before[i], c.Resource)
	}
	for lr := 1; lr <= g.LocalH; lr++ {
		for lc := 1; lc <= g.LocalW; lc++ {
			c := g.At(lr, lc)
			require.Equal(t, seasonpkg.Accessible(c.Type, gridtypes.Wet), c.Accessible)
		}
	}
}

func TestIdleConservationWhenNoRegenPossible(t *testing.T) {
	p := partition.New(0, 1, 3, 3)
	g := New(p)
	// Force every cell to FORBIDDEN or VILLAGE (both regen-rate 0).
	for lr := 1; lr <= g.LocalH; lr++ {
		for lc := 1; lc <= g.LocalW; lc++ {
			c := g.At(lr, lc)
			if lr == 1 {
				c.Type = gridtypes.Village
			} else {
				c.Type = gridtypes.Forbidden
			}
			c.MaxResource = gridtypes.MaxResource[c.Type]
			c.Resource = 0
			g.Set(lr, lc, c)
		}
	}
	before := g.TotalResource()
	for cycle := 0; cycle < 10; cycle++ {
		g.Update(gridtypes.Dry, 1)
	}
	require.Equal(t, before, g.TotalResource())
}
