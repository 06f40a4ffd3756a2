// Package debugviz draws the tile layout of a shadow atlas for inspection.
package debugviz

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/gekko3d/csm/rt/shadows"
	"github.com/gekko3d/csm/rt/soft"
)

type Tile struct {
	Viewport shadows.Viewport
	Light    int // visible light index
	Cascade  int
	Casters  int
}

// Layout is one frame's use of the atlas.
type Layout struct {
	AtlasSize int
	Tiles     []Tile
}

// FromRecorder collects the tiles drawn in the recorder's current frame.
func FromRecorder(r *soft.Recorder) Layout {
	l := Layout{AtlasSize: r.AtlasSize()}
	for _, t := range r.Tiles {
		l.Tiles = append(l.Tiles, Tile{
			Viewport: t.Viewport,
			Light:    t.VisibleLightIndex,
			Cascade:  t.Cascade,
			Casters:  t.Casters,
		})
	}
	return l
}

var (
	background = color.RGBA{24, 24, 28, 255}
	border     = color.RGBA{230, 230, 230, 255}
	palette    = []color.RGBA{
		{178, 64, 64, 255},
		{64, 140, 178, 255},
		{88, 160, 72, 255},
		{190, 150, 60, 255},
	}
)

// Label is the text drawn in a tile.
func (t Tile) Label() string {
	return fmt.Sprintf("L%d C%d", t.Light, t.Cascade)
}

// Render draws the layout at most maxEdge pixels wide. Each light gets its own
// color and cascades darken with distance from the camera.
func Render(l Layout, maxEdge int) *image.RGBA {
	size := l.AtlasSize
	if size <= 0 {
		size = maxEdge
	}
	scale := 1.0
	if maxEdge > 0 && size > maxEdge {
		scale = float64(maxEdge) / float64(size)
	}
	edge := int(float64(size) * scale)
	img := image.NewRGBA(image.Rect(0, 0, edge, edge))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: background}, image.Point{}, draw.Src)

	for _, t := range l.Tiles {
		r := image.Rect(
			int(float64(t.Viewport.X)*scale),
			int(float64(t.Viewport.Y)*scale),
			int(float64(t.Viewport.X+t.Viewport.Width)*scale),
			int(float64(t.Viewport.Y+t.Viewport.Height)*scale),
		)
		draw.Draw(img, r, &image.Uniform{C: tileColor(t)}, image.Point{}, draw.Src)
		outline(img, r, border)

		d := &font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(border),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(r.Min.X+4, r.Min.Y+14),
		}
		d.DrawString(t.Label())
		d.Dot = fixed.P(r.Min.X+4, r.Min.Y+28)
		d.DrawString(fmt.Sprintf("n=%d", t.Casters))
	}
	return img
}

func tileColor(t Tile) color.RGBA {
	c := palette[t.Light%len(palette)]
	shade := 1 - 0.15*float64(t.Cascade)
	return color.RGBA{
		R: uint8(float64(c.R) * shade),
		G: uint8(float64(c.G) * shade),
		B: uint8(float64(c.B) * shade),
		A: 255,
	}
}

func outline(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		img.SetRGBA(x, r.Min.Y, c)
		img.SetRGBA(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.SetRGBA(r.Min.X, y, c)
		img.SetRGBA(r.Max.X-1, y, c)
	}
}

func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode atlas image: %w", err)
	}
	return nil
}
