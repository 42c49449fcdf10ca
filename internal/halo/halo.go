// Package halo implements the eight-direction boundary exchange that
// replicates each neighbor's interior edge into the local halo before the
// agent decide phase reads it.
package halo

import (
	"sync"

	"agentgrid/internal/comm"
	"agentgrid/internal/gridtypes"
	"agentgrid/internal/partition"
	"agentgrid/internal/subgrid"
)

// Tags distinguish the eight concurrently in-flight directions so a send
// labeled "to the south" is matched by the southern peer's receive tagged
// "from the north".
const (
	tagToNorth = iota
	tagToSouth
	tagToEast
	tagToWest
	tagToNorthEast
	tagToNorthWest
	tagToSouthEast
	tagToSouthWest
)

type rowMsg struct{ cells []gridtypes.Cell }
type colMsg struct{ cells []gridtypes.Cell }
type cornerMsg struct{ cell gridtypes.Cell }

func rowAt(g *subgrid.SubGrid, lr int) rowMsg {
	out := make([]gridtypes.Cell, g.LocalW)
	for lc := 1; lc <= g.LocalW; lc++ {
		out[lc-1] = g.At(lr, lc)
	}
	return rowMsg{out}
}

func colAt(g *subgrid.SubGrid, lc int) colMsg {
	out := make([]gridtypes.Cell, g.LocalH)
	for lr := 1; lr <= g.LocalH; lr++ {
		out[lr-1] = g.At(lr, lc)
	}
	return colMsg{out}
}

type outbound struct {
	dst, tag int
	payload  any
}

// Exchange posts all eight send/receive pairs and waits on a single
// completion: every pair is in flight before any one of them is consumed.
func Exchange(r *comm.Rank, p *partition.Partition, g *subgrid.SubGrid) {
	nb := p.Neighbors

	sends := [8]outbound{
		{nb[partition.North], tagToNorth, rowAt(g, 1)},
		{nb[partition.South], tagToSouth, rowAt(g, g.LocalH)},
		{nb[partition.East], tagToEast, colAt(g, g.LocalW)},
		{nb[partition.West], tagToWest, colAt(g, 1)},
		{nb[partition.NorthEast], tagToNorthEast, cornerMsg{g.At(1, g.LocalW)}},
		{nb[partition.NorthWest], tagToNorthWest, cornerMsg{g.At(1, 1)}},
		{nb[partition.SouthEast], tagToSouthEast, cornerMsg{g.At(g.LocalH, g.LocalW)}},
		{nb[partition.SouthWest], tagToSouthWest, cornerMsg{g.At(g.LocalH, 1)}},
	}

	var wg sync.WaitGroup
	for _, s := range sends {
		if s.dst == partition.NullPeer {
			continue
		}
		wg.Add(1)
		go func(s outbound) {
			defer wg.Done()
			r.Send(s.dst, s.tag, s.payload)
		}(s)
	}

	if v := r.Recv(nb[partition.North], tagToSouth); v != nil {
		m := v.(rowMsg)
		for lc := 1; lc <= g.LocalW; lc++ {
			g.Set(0, lc, m.cells[lc-1])
		}
	}
	if v := r.Recv(nb[partition.South], tagToNorth); v != nil {
		m := v.(rowMsg)
		for lc := 1; lc <= g.LocalW; lc++ {
			g.Set(g.LocalH+1, lc, m.cells[lc-1])
		}
	}
	if v := r.Recv(nb[partition.East], tagToWest); v != nil {
		m := v.(colMsg)
		for lr := 1; lr <= g.LocalH; lr++ {
			g.Set(lr, g.LocalW+1, m.cells[lr-1])
		}
	}
	if v := r.Recv(nb[partition.West], tagToEast); v != nil {
		m := v.(colMsg)
		for lr := 1; lr <= g.LocalH; lr++ {
			g.Set(lr, 0, m.cells[lr-1])
		}
	}
	if v := r.Recv(nb[partition.NorthEast], tagToSouthWest); v != nil {
		g.Set(0, g.LocalW+1, v.(cornerMsg).cell)
	}
	if v := r.Recv(nb[partition.NorthWest], tagToSouthEast); v != nil {
		g.Set(0, 0, v.(cornerMsg).cell)
	}
	if v := r.Recv(nb[partition.SouthEast], tagToNorthWest); v != nil {
		g.Set(g.LocalH+1, g.LocalW+1, v.(cornerMsg).cell)
	}
	if v := r.Recv(nb[partition.SouthWest], tagToNorthEast); v != nil {
		g.Set(g.LocalH+1, 0, v.(cornerMsg).cell)
	}

	wg.Wait()
}
