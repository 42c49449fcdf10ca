// Package comm is the in-process substrate for the simulation's
// point-to-point and collective operations. Each rank of the simulation
// runs as one goroutine, spawned by the driver inside a
// golang.org/x/sync/errgroup.Group; comm.World gives those goroutines a
// mailbox to exchange tagged messages through, and the higher-level
// collectives (halo exchange, migration, metrics reduction, gather) in
// sibling packages are built entirely out of Send/Recv.
//
// The protocol is collective-synchronous: every rank must enter every phase.
// Recv blocks until the matching Send arrives, so a goroutine that skips a
// phase hangs its peers rather than silently desynchronizing the world.
package comm

import "sync"

type key struct {
	src, dst, tag int
}

// World is the shared mailbox for a `size`-rank run.
type World struct {
	size int

	mu sync.Mutex
	ch map[key]chan any
}

// NewWorld creates the mailbox for a run of `size` ranks.
func NewWorld(size int) *World {
	return &World{size: size, ch: make(map[key]chan any)}
}

// Size returns the rank count.
func (w *World) Size() int { return w.size }

// Rank returns the handle a single rank's goroutine uses to communicate.
func (w *World) Rank(id int) *Rank { return &Rank{w: w, id: id} }

func (w *World) channel(k key) chan any {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.ch[k]
	if !ok {
		// Buffered by one: a Send can post and return before its peer
		// calls Recv, which the halo exchange's post-all-then-wait
		// discipline depends on.
		c = make(chan any, 1)
		w.ch[k] = c
	}
	return c
}

// Rank is one process's communication endpoint into a World.
type Rank struct {
	w  *World
	id int
}

// ID returns this rank's id within the world.
func (r *Rank) ID() int { return r.id }

// Size returns the world's rank count.
func (r *Rank) Size() int { return r.w.size }

const NullPeer = -1

// Send posts payload to dst under tag. A no-op if dst is NullPeer;
// self-sends never occur in this protocol and are not special-cased.
// Non-blocking: it returns once the payload is queued, not once it is
// received.
func (r *Rank) Send(dst, tag int, payload any) {
	if dst == NullPeer {
		return
	}
	c := r.w.channel(key{src: r.id, dst: dst, tag: tag})
	c <- payload
}

// Recv blocks until a payload tagged tag arrives from src. Returns nil
// immediately if src is NullPeer.
func (r *Rank) Recv(src, tag int) any {
	if src == NullPeer {
		return nil
	}
	c := r.w.channel(key{src: src, dst: r.id, tag: tag})
	return <-c
}

// Exchange sends outgoing[peer] to each peer in outgoing (skipping
// NullPeer) and concurrently receives one payload under the same tag from
// each rank listed in recvFrom, returning the results keyed by sender rank.
// AllToAll, which migration's count and payload rounds use, is built on
// it; the halo swap and Gather call Send/Recv directly.
func (r *Rank) Exchange(tag int, outgoing map[int]any, recvFrom []int) map[int]any {
	var wg sync.WaitGroup
	for dst, payload := range outgoing {
		if dst == NullPeer {
			continue
		}
		wg.Add(1)
		go func(dst int, payload any) {
			defer wg.Done()
			r.Send(dst, tag, payload)
		}(dst, payload)
	}

	result := make(map[int]any, len(recvFrom))
	for _, src := range recvFrom {
		if src == NullPeer {
			continue
		}
		result[src] = r.Recv(src, tag)
	}
	wg.Wait()
	return result
}
