package render

import (
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"

	"agentgrid/internal/gridtypes"
)

const pixelScale = 6

var cellColors = [gridtypes.NumCellTypes]color.RGBA{
	gridtypes.Village:   {90, 90, 90, 255},
	gridtypes.Fishing:   {30, 90, 200, 255},
	gridtypes.Gathering: {40, 160, 70, 255},
	gridtypes.Farming:   {200, 170, 40, 255},
	gridtypes.Forbidden: {10, 10, 10, 255},
}

var colAgent = color.RGBA{235, 235, 235, 255}

// EbitenCollector renders the latest gathered frame in a window. It never
// advances the simulation itself: Collect only stores the latest frame, and
// Draw repaints from whatever was stored last. The driver loop remains the
// sole owner of simulation time.
type EbitenCollector struct {
	mu      sync.Mutex
	latest  Frame
	haveOne bool

	globalW, globalH int
	title            string
}

// NewEbitenCollector builds a collector sized for a globalW x globalH world.
func NewEbitenCollector(title string, globalW, globalH int) *EbitenCollector {
	return &EbitenCollector{title: title, globalW: globalW, globalH: globalH}
}

func (c *EbitenCollector) Collect(f Frame) error {
	c.mu.Lock()
	c.latest = f
	c.haveOne = true
	c.mu.Unlock()
	return nil
}

func (c *EbitenCollector) Close() error { return nil }

// Run starts the ebiten game loop and blocks until the window closes. Call
// it from the goroutine ebiten requires (typically the process's main
// goroutine), with the driver loop running on another goroutine feeding
// Collect.
func (c *EbitenCollector) Run() error {
	ebiten.SetWindowSize(c.globalW*pixelScale, c.globalH*pixelScale)
	ebiten.SetWindowTitle(c.title)
	return ebiten.RunGame(&ebitenGame{c: c})
}

type ebitenGame struct {
	c *EbitenCollector
}

func (g *ebitenGame) Update() error { return nil }

func (g *ebitenGame) Draw(screen *ebiten.Image) {
	g.c.mu.Lock()
	f := g.c.latest
	ok := g.c.haveOne
	g.c.mu.Unlock()

	screen.Fill(color.RGBA{10, 20, 40, 255})
	if !ok {
		return
	}
	for gy := 0; gy < f.GlobalH; gy++ {
		for gx := 0; gx < f.GlobalW; gx++ {
			cell := f.At(gx, gy)
			col := cellColors[cell.Type]
			for dy := 0; dy < pixelScale; dy++ {
				for dx := 0; dx < pixelScale; dx++ {
					screen.Set(gx*pixelScale+dx, gy*pixelScale+dy, col)
				}
			}
		}
	}
	for _, a := range f.Agents {
		if !a.Alive {
			continue
		}
		for dy := 1; dy < pixelScale-1; dy++ {
			for dx := 1; dx < pixelScale-1; dx++ {
				screen.Set(a.GX*pixelScale+dx, a.GY*pixelScale+dy, colAgent)
			}
		}
	}
}

func (g *ebitenGame) Layout(outW, outH int) (int, int) {
	return g.c.globalW * pixelScale, g.c.globalH * pixelScale
}
