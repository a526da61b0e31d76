package media

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/megastudio/studio-agent/internal/player"
)

// FFplayPlayer plays narration through the machine's audio output using
// ffplay. Remote URLs are fetched into the cache first so a flaky network
// cannot stall mid-scene.
type FFplayPlayer struct {
	bin     string
	fetcher *Fetcher
	logger  *slog.Logger
}

func NewFFplayPlayer(bin string, fetcher *Fetcher, logger *slog.Logger) *FFplayPlayer {
	if bin == "" {
		bin = "ffplay"
	}
	return &FFplayPlayer{bin: bin, fetcher: fetcher, logger: logger}
}

func (p *FFplayPlayer) Play(ctx context.Context, url string) (player.AudioHandle, error) {
	local, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	playCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(playCtx, p.bin, "-nodisp", "-autoexit", "-loglevel", "error", local)
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start ffplay: %w", err)
	}

	h := &processHandle{done: make(chan error, 1), cancel: cancel}
	go func() {
		err := cmd.Wait()
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.stopped {
			close(h.done)
			return
		}
		if playCtx.Err() != nil {
			close(h.done)
			return
		}
		h.done <- err
		close(h.done)
	}()
	return h, nil
}

type processHandle struct {
	done   chan error
	cancel context.CancelFunc

	mu      sync.Mutex
	stopped bool
}

func (h *processHandle) Done() <-chan error { return h.done }

func (h *processHandle) Stop() {
	h.mu.Lock()
	h.stopped = true
	h.mu.Unlock()
	h.cancel()
}

// SilentPlayer is the headless narration player: no audio device, just a
// timer for the asset's probed duration. Preview timing stays faithful even
// when there is nothing to hear.
type SilentPlayer struct {
	fetcher *Fetcher
	prober  Prober
	clock   player.Clock
	logger  *slog.Logger
}

func NewSilentPlayer(fetcher *Fetcher, prober Prober, clock player.Clock, logger *slog.Logger) *SilentPlayer {
	if clock == nil {
		clock = player.NewClock()
	}
	return &SilentPlayer{fetcher: fetcher, prober: prober, clock: clock, logger: logger}
}

func (p *SilentPlayer) Play(ctx context.Context, url string) (player.AudioHandle, error) {
	local, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	d, err := p.prober.Duration(ctx, local)
	if err != nil {
		return nil, err
	}
	if d <= 0 {
		d = time.Second
	}

	h := &timerHandle{done: make(chan error, 1)}
	h.timer = p.clock.AfterFunc(d, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.stopped {
			return
		}
		h.done <- nil
		close(h.done)
	})
	return h, nil
}

type timerHandle struct {
	done  chan error
	timer player.Timer

	mu      sync.Mutex
	stopped bool
}

func (h *timerHandle) Done() <-chan error { return h.done }

func (h *timerHandle) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	h.stopped = true
	h.timer.Stop()
	close(h.done)
}
