package compositor

import (
	"image"
	"image/color"
	"testing"

	"github.com/megastudio/studio-agent/internal/studio"
)

func newTestRenderer(t *testing.T, format studio.OutputFormat) *Renderer {
	t.Helper()
	r, err := NewRenderer(format)
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	return r
}

func TestRenderer_Size(t *testing.T) {
	tests := []struct {
		format studio.OutputFormat
		width  int
		height int
	}{
		{studio.FormatLandscape, 1280, 720},
		{studio.FormatPortrait, 720, 1280},
	}

	for _, tt := range tests {
		r := newTestRenderer(t, tt.format)
		w, h := r.Size()
		if w != tt.width || h != tt.height {
			t.Errorf("Size(%s) = %dx%d, want %dx%d", tt.format, w, h, tt.width, tt.height)
		}
	}
}

func TestRenderer_AbsentVisualRendersBlack(t *testing.T) {
	r := newTestRenderer(t, studio.FormatLandscape)

	frame := r.Render(Frame{Caption: studio.DefaultCaptionConfig()})

	// No caption text, no visual: every pixel is black.
	for _, p := range []image.Point{{0, 0}, {640, 360}, {1279, 719}} {
		got := frame.RGBAAt(p.X, p.Y)
		if got.R != 0 || got.G != 0 || got.B != 0 {
			t.Errorf("pixel %v = %v, want black", p, got)
		}
	}
}

func TestRenderer_CoverFitFillsSurface(t *testing.T) {
	r := newTestRenderer(t, studio.FormatLandscape)

	// A solid white source much smaller than the surface must still cover
	// every corner after scaling.
	src := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			src.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
		}
	}

	frame := r.Render(Frame{Visual: src})

	for _, p := range []image.Point{{0, 0}, {1279, 0}, {0, 719}, {1279, 719}, {640, 360}} {
		got := frame.RGBAAt(p.X, p.Y)
		if got.R == 0 && got.G == 0 && got.B == 0 {
			t.Errorf("pixel %v still black, visual did not cover the surface", p)
		}
	}
}

func TestRenderer_RecordingIndicator(t *testing.T) {
	r := newTestRenderer(t, studio.FormatLandscape)

	frame := r.Render(Frame{Recording: true})

	got := frame.RGBAAt(1280-50, 50)
	if got != recordingRed {
		t.Errorf("indicator center = %v, want %v", got, recordingRed)
	}

	// Outside the disc stays black.
	if got := frame.RGBAAt(1280-50, 50-25); got == recordingRed {
		t.Error("indicator bleeds outside its radius")
	}
}

func TestRenderer_CaptionStylesDrawSomething(t *testing.T) {
	r := newTestRenderer(t, studio.FormatLandscape)

	for _, style := range studio.CaptionStyles {
		t.Run(string(style), func(t *testing.T) {
			frame := r.Render(Frame{
				Narration: "Hello world",
				Caption:   studio.CaptionConfig{Style: style, Position: studio.PositionBottom},
			})

			nonBlack := 0
			for y := 0; y < 720; y++ {
				for x := 0; x < 1280; x++ {
					p := frame.RGBAAt(x, y)
					if p.R != 0 || p.G != 0 || p.B != 0 {
						nonBlack++
					}
				}
			}
			if nonBlack == 0 {
				t.Errorf("style %s drew nothing", style)
			}
		})
	}
}

func TestBaseFontSize(t *testing.T) {
	if got := baseFontSize(1280, 720); got != 44 {
		t.Errorf("landscape font size = %d, want 44", got)
	}
	if got := baseFontSize(720, 1280); got != 38 {
		t.Errorf("portrait font size = %d, want 38", got)
	}
}

func TestCaptionBaseline(t *testing.T) {
	tests := []struct {
		pos  studio.CaptionPosition
		want int
	}{
		{studio.PositionTop, 108},
		{studio.PositionCenter, 360},
		{studio.PositionBottom, 612},
	}

	for _, tt := range tests {
		if got := captionBaseline(tt.pos, 720); got != tt.want {
			t.Errorf("captionBaseline(%s, 720) = %d, want %d", tt.pos, got, tt.want)
		}
	}
}

func TestWrapText(t *testing.T) {
	faces, err := newFaceCache()
	if err != nil {
		t.Fatalf("newFaceCache() error = %v", err)
	}
	face := faces.face(fontRegular, 40)

	lines := wrapText(face, "the quick brown fox jumps over the lazy dog again and again", 300)
	if len(lines) < 2 {
		t.Fatalf("expected wrapping, got %d line(s)", len(lines))
	}
	for _, line := range lines {
		if w := textWidth(face, line); w > 300 {
			t.Errorf("line %q is %dpx wide, over the 300px limit", line, w)
		}
	}

	if got := wrapText(face, "", 300); got != nil {
		t.Errorf("wrapText(empty) = %v, want nil", got)
	}
}
