package render

import (
	"fmt"
	"io"
)

// TextCollector prints one summary line per cycle.
type TextCollector struct {
	w io.Writer
}

// NewTextCollector returns a FrameCollector that writes summary lines to w.
func NewTextCollector(w io.Writer) *TextCollector {
	return &TextCollector{w: w}
}

func (c *TextCollector) Collect(f Frame) error {
	_, err := fmt.Fprintf(c.w, "cycle=%04d alive=%6d total_resource=%10.2f avg_energy=%6.3f\n",
		f.Cycle, f.Metrics.AliveCount, f.Metrics.TotalResource, f.Metrics.AvgEnergy)
	return err
}

func (c *TextCollector) Close() error { return nil }
