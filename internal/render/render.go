// Package render defines the collector interface the driver calls after the
// optional gather-to-root step, and ships two implementations: a trivial
// text collector and an ebiten-backed one used only behind --gui.
//
// The simulation core never renders anything itself; this package is the
// seam external renderers and loggers plug into.
package render

import (
	"agentgrid/internal/gridtypes"
	"agentgrid/internal/metrics"
)

// Frame is the gather-to-root payload: a contiguous row-major global grid,
// the currently alive agents, the cycle index, and the latest global
// metrics. Only rank 0 ever constructs and delivers a Frame.
type Frame struct {
	Cycle   int
	GlobalW int
	GlobalH int
	Grid    []gridtypes.Cell // row-major, length GlobalW*GlobalH
	Agents  []gridtypes.Agent
	Metrics metrics.Global
}

// At returns the cell at global coordinate (gx, gy).
func (f Frame) At(gx, gy int) gridtypes.Cell {
	return f.Grid[gy*f.GlobalW+gx]
}

// FrameCollector is the interface any renderer or logger implements to
// consume frames published by the driver loop. Collect is called once per
// cycle on rank 0 only; a collector that blocks stalls the whole world,
// since rank 0 is also the root of every collective.
type FrameCollector interface {
	Collect(f Frame) error
	Close() error
}
