// Package share produces QR codes pointing at an export's download URL, so
// a phone on the same network can pull the finished video.
package share

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const qrSize = 256

// QRPNG encodes the URL as a PNG QR code.
func QRPNG(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("share url is empty")
	}
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// DownloadURL builds the address a phone should hit for an export.
func DownloadURL(host string, port int, exportID string) string {
	return fmt.Sprintf("http://%s:%d/v1/exports/%s/file?download=1", host, port, exportID)
}
