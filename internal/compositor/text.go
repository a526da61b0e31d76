package compositor

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// wrapText splits text into lines no wider than maxWidth pixels, breaking
// on spaces. A single word wider than the limit gets its own line.
func wrapText(face font.Face, text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	limit := fixed.I(maxWidth)
	var lines []string
	current := words[0]

	for _, word := range words[1:] {
		candidate := current + " " + word
		if font.MeasureString(face, candidate) > limit {
			lines = append(lines, current)
			current = word
			continue
		}
		current = candidate
	}
	return append(lines, current)
}

func textWidth(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

// drawString paints s with its horizontal center at x and baseline at y.
func drawString(dst draw.Image, face font.Face, col color.Color, s string, x, y int) {
	w := textWidth(face, s)
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x-w/2, y),
	}
	d.DrawString(s)
}

// strokeString approximates a canvas stroke: the text is drawn repeatedly
// around a ring of the stroke radius, then the caller fills on top.
func strokeString(dst draw.Image, face font.Face, col color.Color, s string, x, y, radius int) {
	if radius < 1 {
		radius = 1
	}
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			drawString(dst, face, col, s, x+dx, y+dy)
		}
	}
}

// glowString fakes a blur glow with translucent copies at increasing
// offsets.
func glowString(dst draw.Image, face font.Face, col color.RGBA, s string, x, y, radius int) {
	steps := []int{radius, radius * 2 / 3, radius / 3}
	for _, r := range steps {
		if r < 1 {
			continue
		}
		faint := color.RGBA{col.R, col.G, col.B, col.A / 5}
		for _, off := range [][2]int{{-r, 0}, {r, 0}, {0, -r}, {0, r}, {-r, -r}, {r, -r}, {-r, r}, {r, r}} {
			drawString(dst, face, faint, s, x+off[0], y+off[1])
		}
	}
}

// gradientString fills the glyphs of s with a vertical top-to-bottom
// gradient. The text is rendered to an offscreen mask and the gradient is
// composited through it.
func gradientString(dst draw.Image, face font.Face, top, bottom color.RGBA, s string, x, y int) {
	w := textWidth(face, s)
	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	descent := metrics.Descent.Ceil()
	h := ascent + descent
	if w <= 0 || h <= 0 {
		return
	}

	mask := image.NewRGBA(image.Rect(0, 0, w, h))
	d := font.Drawer{
		Dst:  mask,
		Src:  image.White,
		Face: face,
		Dot:  fixed.P(0, ascent),
	}
	d.DrawString(s)

	grad := image.NewRGBA(mask.Bounds())
	for gy := 0; gy < h; gy++ {
		t := float64(gy) / float64(h-1)
		c := color.RGBA{
			R: lerp(top.R, bottom.R, t),
			G: lerp(top.G, bottom.G, t),
			B: lerp(top.B, bottom.B, t),
			A: 255,
		}
		for gx := 0; gx < w; gx++ {
			grad.SetRGBA(gx, gy, c)
		}
	}

	target := image.Rect(x-w/2, y-ascent, x-w/2+w, y-ascent+h)
	draw.DrawMask(dst, target, grad, image.Point{}, mask, image.Point{}, draw.Over)
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}

// fillRect paints a translucent plate behind caption text.
func fillRect(dst draw.Image, r image.Rectangle, col color.Color) {
	draw.Draw(dst, r, image.NewUniform(col), image.Point{}, draw.Over)
}
