// Package migrate relocates agents that have wandered outside their
// owning rank's rectangle to the rank that owns their new position, using
// a two-phase all-to-all protocol: counts first, payloads second.
package migrate

import (
	"sort"

	"agentgrid/internal/comm"
	"agentgrid/internal/gridtypes"
	"agentgrid/internal/partition"
)

const (
	tagCounts = iota
	tagPayload
)

// Result summarizes one migration round.
type Result struct {
	Sent, Received int
}

// Run scans the local agent array, buckets out-of-rectangle agents by
// destination rank, exchanges counts then payloads with every other rank,
// and returns the compacted local array (kept agents first, then received
// agents in sender-rank order) along with how many agents moved.
//
// Agents that are not alive are dropped here rather than carried through:
// they are transient within a cycle and never observed past this point.
func Run(r *comm.Rank, p *partition.Partition, arr []gridtypes.Agent) ([]gridtypes.Agent, Result) {
	kept := make([]gridtypes.Agent, 0, len(arr))
	outgoing := map[int][]gridtypes.Agent{}

	for _, a := range arr {
		if !a.Alive {
			continue
		}
		if p.Owns(a.GX, a.GY) {
			kept = append(kept, a)
			continue
		}
		dest := p.RankForGlobal(a.GX, a.GY)
		if dest == p.Rank {
			// The last-band clamp in RankForGlobal can name this rank as
			// owner even though (gx, gy) sits just outside the owned
			// rectangle. Such agents stay local.
			kept = append(kept, a)
			continue
		}
		outgoing[dest] = append(outgoing[dest], a)
	}

	counts := make(map[int]int, len(outgoing))
	for dest, bucket := range outgoing {
		counts[dest] = len(bucket)
	}
	// Phase 1: every rank learns how many agents each peer is about to
	// send. The in-memory transport doesn't strictly need pre-sized
	// receive buffers, but the count round keeps every rank in lockstep
	// and lets the payload round be verified against it.
	recvCounts := comm.AllToAll(r, tagCounts, counts)

	// Phase 2: the payload round.
	recvBuckets := comm.AllToAll(r, tagPayload, outgoing)

	sent := 0
	for _, bucket := range outgoing {
		sent += len(bucket)
	}

	received := 0
	for src, n := range recvCounts {
		if n != len(recvBuckets[src]) {
			panic("migrate: payload length disagrees with announced count")
		}
	}
	srcRanks := make([]int, 0, len(recvBuckets))
	for src := range recvBuckets {
		srcRanks = append(srcRanks, src)
	}
	sort.Ints(srcRanks)
	for _, src := range srcRanks {
		kept = append(kept, recvBuckets[src]...)
		received += len(recvBuckets[src])
	}

	return kept, Result{Sent: sent, Received: received}
}
