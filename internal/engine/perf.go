package engine

import (
	"unsafe"

	"agentgrid/internal/comm"
)

// CyclePerf is the per-cycle timing vector. Every field is a float64 of
// elapsed seconds, declared contiguously so floats() can reinterpret the
// struct as a slice and the whole vector max-reduces in a single call.
// Do not interleave fields of any other type.
type CyclePerf struct {
	Cycle    float64
	Season   float64
	Halo     float64
	Workload float64
	Agent    float64
	Grid     float64
	Migrate  float64
	Metrics  float64
	Render   float64
}

const perfFieldCount = int(unsafe.Sizeof(CyclePerf{}) / unsafe.Sizeof(float64(0)))

func (c *CyclePerf) floats() []float64 {
	return unsafe.Slice((*float64)(unsafe.Pointer(c)), perfFieldCount)
}

const tagPerf = 904

// ReducePerf max-reduces every rank's CyclePerf field-by-field and publishes
// the result to every rank, in a single Allreduce call over the struct's
// contiguous float64 view.
func ReducePerf(r *comm.Rank, root int, local CyclePerf) CyclePerf {
	src := local.floats()
	localCopy := make([]float64, len(src))
	copy(localCopy, src)

	combined := comm.Allreduce(r, tagPerf, root, localCopy, func(a, b []float64) []float64 {
		out := make([]float64, len(a))
		for i := range a {
			out[i] = max(a[i], b[i])
		}
		return out
	})

	var out CyclePerf
	copy(out.floats(), combined)
	return out
}
