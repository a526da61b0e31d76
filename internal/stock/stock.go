// Package stock finds visual assets for scenes: stock video search and
// generated-image fallbacks.
package stock

import "context"

// VideoSearcher looks up one stock video for a query. An empty result with
// a nil error means no match; the caller decides how to degrade.
type VideoSearcher interface {
	SearchVideo(ctx context.Context, query, orientation string) (string, error)
}

// ImageGenerator produces an image URL for a prompt. Used as the fallback
// when no stock video matches a scene.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string, width, height int) (string, error)
}
