package capture

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/megastudio/studio-agent/internal/media"
	"github.com/megastudio/studio-agent/internal/studio"
)

// settleDelay is how long the recorder rolls before playback starts, so the
// first scene never loses its opening frames.
const settleDelay = 500 * time.Millisecond

// Mixer routes each scene's narration into the recorder's audio stream.
// Scenes without usable audio contribute silence for their fallback
// duration, keeping the audio timeline aligned with the video.
type Mixer struct {
	decoder media.PCMDecoder
	fetcher *media.Fetcher
	out     io.Writer
	logger  *slog.Logger

	leadIn sync.Once
	mu     sync.Mutex
}

func NewMixer(decoder media.PCMDecoder, fetcher *media.Fetcher, out io.Writer, logger *slog.Logger) *Mixer {
	return &Mixer{decoder: decoder, fetcher: fetcher, out: out, logger: logger}
}

// RouteScene writes the scene's narration PCM to the output, preceded (once
// per session) by the settle lead-in. Decode failures degrade to silence;
// the recording keeps going.
func (m *Mixer) RouteScene(ctx context.Context, scene studio.Scene) error {
	var leadErr error
	m.leadIn.Do(func() {
		leadErr = m.writeSilence(settleDelay)
	})
	if leadErr != nil {
		return leadErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if scene.NarrationAudioURL == "" {
		return m.writeSilence(scene.FallbackDuration())
	}

	local, err := m.fetcher.Fetch(ctx, scene.NarrationAudioURL)
	if err != nil {
		if m.logger != nil {
			m.logger.Warn("narration fetch failed, muxing silence", "scene", scene.Index, "error", err)
		}
		return m.writeSilence(scene.FallbackDuration())
	}

	pcm, err := m.decoder.DecodePCM(ctx, local)
	if err != nil {
		if m.logger != nil {
			m.logger.Warn("narration decode failed, muxing silence", "scene", scene.Index, "error", err)
		}
		return m.writeSilence(scene.FallbackDuration())
	}
	defer pcm.Close()

	if _, err := io.Copy(m.out, pcm); err != nil {
		return fmt.Errorf("mux narration for scene %d: %w", scene.Index, err)
	}
	return nil
}

func (m *Mixer) writeSilence(d time.Duration) error {
	samples := int(d.Seconds() * media.PCMSampleRate)
	total := samples * media.PCMChannels * media.PCMBytesPerSample

	buf := make([]byte, 4096)
	for total > 0 {
		n := len(buf)
		if total < n {
			n = total
		}
		written, err := m.out.Write(buf[:n])
		if err != nil {
			return fmt.Errorf("mux silence: %w", err)
		}
		total -= written
	}
	return nil
}
