package media

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/megastudio/studio-agent/internal/studio"
)

// VisualLoader turns a scene visual into a decoded image for the
// compositor. Video assets contribute their poster frame; image assets are
// decoded directly. Decoded images are memoized per URL.
type VisualLoader struct {
	ffmpegBin string
	fetcher   *Fetcher
	cacheDir  string
	logger    *slog.Logger

	mu     sync.Mutex
	images map[string]image.Image
}

func NewVisualLoader(ffmpegBin string, fetcher *Fetcher, cacheDir string, logger *slog.Logger) *VisualLoader {
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	return &VisualLoader{
		ffmpegBin: ffmpegBin,
		fetcher:   fetcher,
		cacheDir:  cacheDir,
		logger:    logger,
		images:    make(map[string]image.Image),
	}
}

// Load resolves the visual to a decoded image. Absent visuals return
// (nil, nil): the compositor paints black for those.
func (l *VisualLoader) Load(ctx context.Context, visual studio.Visual) (image.Image, error) {
	if visual.Absent() {
		return nil, nil
	}

	l.mu.Lock()
	if img, ok := l.images[visual.URL]; ok {
		l.mu.Unlock()
		return img, nil
	}
	l.mu.Unlock()

	local, err := l.fetcher.Fetch(ctx, visual.URL)
	if err != nil {
		return nil, err
	}

	if visual.Kind == studio.VisualVideo {
		local, err = l.posterFrame(ctx, local)
		if err != nil {
			return nil, err
		}
	}

	f, err := os.Open(local)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode visual %s: %w", visual.URL, err)
	}

	l.mu.Lock()
	l.images[visual.URL] = img
	l.mu.Unlock()
	return img, nil
}

// posterFrame extracts the first video frame to a cached PNG.
func (l *VisualLoader) posterFrame(ctx context.Context, videoPath string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	out := filepath.Join(l.cacheDir, "posters", base+".png")
	if _, err := os.Stat(out); err == nil {
		return out, nil
	}

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, l.ffmpegBin,
		"-v", "error",
		"-i", videoPath,
		"-frames:v", "1",
		"-y", out,
	)
	if outBytes, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("extract poster frame: %w: %s", err, strings.TrimSpace(string(outBytes)))
	}
	return out, nil
}
