// Package tts turns narration text into audio files on disk.
package tts

import "context"

// Synthesizer converts one narration string into an audio file and returns
// its path. Implementations write into the cache directory they were
// configured with.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) (string, error)
}
