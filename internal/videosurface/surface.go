// Package videosurface implements player.VideoSurface over an ebitengine
// texture.
package videosurface

import (
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"

	player "github.com/vireo-player/core"
)

// Surface buffers presented frames into an owned offscreen texture.
// Present runs on the VideoRenderer's own goroutine; DrawInto must only
// be called from ebiten's Draw callback on the main goroutine, which is
// the only place ebiten permits drawing into the screen image. The
// mutex serializes the two: WritePixels from Present against DrawImage
// from DrawInto.
type Surface struct {
	mu      sync.Mutex
	texture *ebiten.Image
	black   bool
}

// New returns an empty Surface, black until the first frame arrives.
func New() *Surface {
	return &Surface{black: true}
}

func (s *Surface) Present(frame *player.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if frame == nil || frame.PixFmt != player.PixFmtRGBA || len(frame.Planes) == 0 {
		return nil
	}

	if s.texture == nil || s.texture.Bounds().Dx() != frame.Width || s.texture.Bounds().Dy() != frame.Height {
		s.texture = ebiten.NewImage(frame.Width, frame.Height)
	}
	s.texture.WritePixels(frame.Planes[0])
	s.black = false
	return nil
}

// Reset marks the surface black. Called when the renderer stops; the
// actual screen clear happens on the next DrawInto.
func (s *Surface) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.black = true
	return nil
}

// DrawInto blits the current texture into screen, letterboxed to
// preserve aspect ratio, or clears screen to black if no frame has
// arrived yet or Reset was called. Must be called from the main
// goroutine (ebiten's Draw callback) only.
func (s *Surface) DrawInto(screen *ebiten.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.black || s.texture == nil {
		screen.Fill(color.Black)
		return
	}

	screen.Clear()
	geom, filter := CalcProjection(screen, s.texture)
	var opts ebiten.DrawImageOptions
	opts.GeoM = geom
	opts.Filter = filter
	screen.DrawImage(s.texture, &opts)
}

// CalcProjection returns the GeoM and recommended ebiten.Filter to
// project frame into viewport, preserving aspect ratio and centering any
// leftover space rather than explicitly drawing black bars.
func CalcProjection(viewport, frame *ebiten.Image) (ebiten.GeoM, ebiten.Filter) {
	frameBounds := frame.Bounds()
	viewBounds := viewport.Bounds()
	vwWidth, vwHeight := viewBounds.Dx(), viewBounds.Dy()
	frWidth, frHeight := frameBounds.Dx(), frameBounds.Dy()

	tx, ty := float64(viewBounds.Min.X), float64(viewBounds.Min.Y)

	var geom ebiten.GeoM
	var filter ebiten.Filter = ebiten.FilterLinear
	wf, hf := float64(vwWidth)/float64(frWidth), float64(vwHeight)/float64(frHeight)
	sf := wf
	if hf < wf {
		sf = hf
	}
	if sf == 1.0 {
		offx := (float64(vwWidth) - float64(frWidth)) / 2
		offy := (float64(vwHeight) - float64(frHeight)) / 2
		geom.Translate(tx+offx, ty+offy)
	} else {
		sfrWidth := float64(frWidth) * sf
		sfrHeight := float64(frHeight) * sf
		geom.Scale(sf, sf)
		geom.Translate(tx+(float64(vwWidth)-sfrWidth)/2, ty+(float64(vwHeight)-sfrHeight)/2)
	}
	return geom, filter
}
