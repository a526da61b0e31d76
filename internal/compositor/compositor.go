// Package compositor renders preview and recording frames: the scene's
// visual cover-fitted onto the output surface, the caption in the selected
// style, and the recording indicator.
package compositor

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"

	"github.com/megastudio/studio-agent/internal/studio"
)

var recordingRed = color.RGBA{0xE5, 0x09, 0x14, 0xFF}

// Frame is everything the renderer needs to draw one frame. Visual may be
// nil when the scene's asset is absent or not yet decoded.
type Frame struct {
	Visual     image.Image
	SceneIndex int
	Narration  string
	Caption    studio.CaptionConfig
	Recording  bool
}

// Renderer draws frames for one output format. Not safe for concurrent use;
// the frame loop owns it.
type Renderer struct {
	width  int
	height int
	faces  *faceCache
	scaler xdraw.Scaler
}

func NewRenderer(format studio.OutputFormat) (*Renderer, error) {
	faces, err := newFaceCache()
	if err != nil {
		return nil, err
	}
	w, h := format.Dimensions()
	return &Renderer{
		width:  w,
		height: h,
		faces:  faces,
		scaler: xdraw.ApproxBiLinear,
	}, nil
}

func (r *Renderer) Size() (int, int) {
	return r.width, r.height
}

// Render draws the frame onto a fresh RGBA surface. The background is
// always cleared to black first, so an absent visual yields a black frame
// with the caption on top.
func (r *Renderer) Render(f Frame) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	fillRect(dst, dst.Bounds(), color.Black)

	if f.Visual != nil {
		r.drawCover(dst, f.Visual)
	}

	r.drawCaption(dst, f.Narration, f.Caption)

	if f.Recording {
		drawDisc(dst, r.width-50, 50, 20, recordingRed)
	}
	return dst
}

// drawCover scales the visual so it fills the surface completely, cropping
// the overflow evenly on both sides: scale = max(W/w, H/h), centered.
func (r *Renderer) drawCover(dst *image.RGBA, src image.Image) {
	sb := src.Bounds()
	sw, sh := sb.Dx(), sb.Dy()
	if sw == 0 || sh == 0 {
		return
	}

	scaleX := float64(r.width) / float64(sw)
	scaleY := float64(r.height) / float64(sh)
	scale := scaleX
	if scaleY > scale {
		scale = scaleY
	}

	dw := int(float64(sw) * scale)
	dh := int(float64(sh) * scale)
	x0 := (r.width - dw) / 2
	y0 := (r.height - dh) / 2

	target := image.Rect(x0, y0, x0+dw, y0+dh)
	r.scaler.Scale(dst, target, src, sb, xdraw.Over, nil)
}

func drawDisc(dst *image.RGBA, cx, cy, radius int, col color.RGBA) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				dst.SetRGBA(cx+dx, cy+dy, col)
			}
		}
	}
}
