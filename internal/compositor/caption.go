package compositor

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/megastudio/studio-agent/internal/studio"
)

var (
	captionGold      = color.RGBA{0xFF, 0xD7, 0x00, 0xFF}
	captionWhite     = color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
	captionBlack     = color.RGBA{0x00, 0x00, 0x00, 0xFF}
	captionShadow    = color.RGBA{0x00, 0x00, 0x00, 0xCC}
	captionPlate     = color.RGBA{0x00, 0x00, 0x00, 0xB3}
	captionCyan      = color.RGBA{0x00, 0xFF, 0xFF, 0xFF}
	captionRedGhost  = color.RGBA{0xFF, 0x00, 0x00, 0xB3}
	captionCyanGhost = color.RGBA{0x00, 0xFF, 0xFF, 0xB3}
	comicTop         = color.RGBA{0xFF, 0xEB, 0x3B, 0xFF}
	comicBottom      = color.RGBA{0xFF, 0x98, 0x00, 0xFF}
)

// baseFontSize returns the caption size for the output surface: 44px on
// landscape, 38px on portrait.
func baseFontSize(width, height int) int {
	if height > width {
		return 38
	}
	return 44
}

// captionBaseline returns the baseline Y of the first caption line.
func captionBaseline(pos studio.CaptionPosition, height int) int {
	switch pos {
	case studio.PositionTop:
		return height * 15 / 100
	case studio.PositionCenter:
		return height / 2
	default:
		return height - height*15/100
	}
}

// drawCaption renders the narration text in the configured style. Text
// wraps at 90% of the surface width and lines stack downward from the
// anchor baseline.
func (r *Renderer) drawCaption(dst draw.Image, text string, cfg studio.CaptionConfig) {
	if text == "" {
		return
	}

	bounds := dst.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	size := baseFontSize(width, height)
	kind := fontHeavy
	switch cfg.Style {
	case studio.StyleComic:
		size += 4
	case studio.StyleMinimal:
		size -= 4
		kind = fontRegular
	case studio.StyleBox:
		kind = fontMonoBold
	case studio.StyleGlitch:
		kind = fontMono
	}

	face := r.faces.face(kind, size)
	lines := wrapText(face, text, width*90/100)
	lineHeight := size * 12 / 10
	x := width / 2
	y := captionBaseline(cfg.Position, height)

	for i, line := range lines {
		ly := y + i*lineHeight

		switch cfg.Style {
		case studio.StyleClassic:
			strokeString(dst, face, captionBlack, line, x, ly, 8)
			drawString(dst, face, captionGold, line, x, ly)

		case studio.StyleModern:
			glowString(dst, face, captionShadow, line, x+2, ly+2, 4)
			drawString(dst, face, captionShadow, line, x+2, ly+2)
			drawString(dst, face, captionWhite, line, x, ly)

		case studio.StyleBox:
			w := textWidth(face, line)
			plateH := size * 14 / 10
			ascent := face.Metrics().Ascent.Ceil()
			plate := image.Rect(x-w/2-20, ly-ascent-(plateH-size)/2, x+w/2+20, ly-ascent-(plateH-size)/2+plateH)
			fillRect(dst, plate, captionPlate)
			drawString(dst, face, captionWhite, line, x, ly)

		case studio.StyleNeon:
			glowString(dst, face, captionCyan, line, x, ly, 15)
			strokeString(dst, face, captionWhite, line, x, ly, 3)
			drawString(dst, face, captionCyan, line, x, ly)

		case studio.StyleComic:
			strokeString(dst, face, captionBlack, line, x, ly, 6)
			gradientString(dst, face, comicTop, comicBottom, line, x, ly)

		case studio.StyleMinimal:
			w := textWidth(face, line)
			plateH := size * 12 / 10
			ascent := face.Metrics().Ascent.Ceil()
			plate := image.Rect(x-w/2-10, ly-ascent-(plateH-size)/2, x+w/2+10, ly-ascent-(plateH-size)/2+plateH)
			fillRect(dst, plate, captionBlack)
			drawString(dst, face, captionWhite, line, x, ly)

		case studio.StyleGlitch:
			drawString(dst, face, captionRedGhost, line, x-4, ly)
			drawString(dst, face, captionCyanGhost, line, x+4, ly)
			drawString(dst, face, captionWhite, line, x, ly)

		default:
			drawString(dst, face, captionWhite, line, x, ly)
		}
	}
}
