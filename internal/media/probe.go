// Package media wraps the ffmpeg tool family: probing asset durations,
// fetching remote assets into the cache, playing narration audio and
// decoding it to raw PCM for the recorder.
package media

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Prober reports the duration of a media asset.
type Prober interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// FFprobe shells out to ffprobe for duration probing.
type FFprobe struct {
	bin string
}

func NewFFprobe(bin string) *FFprobe {
	if bin == "" {
		bin = "ffprobe"
	}
	return &FFprobe{bin: bin}
}

func (f *FFprobe) Duration(ctx context.Context, path string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, f.bin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: unparseable duration %q", path, strings.TrimSpace(string(out)))
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
