package ui

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
)

var iconOnce struct {
	sync.Once
	bytes []byte
}

// iconBytes renders the tray icon at runtime: a record-red dot on a
// transparent square. Keeps the binary free of asset files.
func iconBytes() []byte {
	iconOnce.Do(func() {
		const size = 16
		img := image.NewRGBA(image.Rect(0, 0, size, size))
		dot := color.RGBA{0xE5, 0x09, 0x14, 0xFF}

		c := size / 2
		r := size/2 - 2
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				dx, dy := x-c, y-c
				if dx*dx+dy*dy <= r*r {
					img.SetRGBA(x, y, dot)
				}
			}
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err == nil {
			iconOnce.bytes = buf.Bytes()
		}
	})
	return iconOnce.bytes
}
