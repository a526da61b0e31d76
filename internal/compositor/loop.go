package compositor

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/megastudio/studio-agent/internal/player"
	"github.com/megastudio/studio-agent/internal/studio"
)

// VisualSource resolves a scene's visual asset to a decoded image.
type VisualSource interface {
	Load(ctx context.Context, visual studio.Visual) (image.Image, error)
}

// FrameSink consumes rendered frames, e.g. the recorder.
type FrameSink interface {
	WriteFrame(img *image.RGBA) error
}

// Loop renders frames at the configured rate from the sequencer's current
// state. Visual assets load asynchronously: until a scene's asset is
// decoded the frame shows black, never a stale visual.
type Loop struct {
	renderer *Renderer
	seq      *player.Sequencer
	visuals  VisualSource
	fps      int
	logger   *slog.Logger

	mu        sync.Mutex
	caption   studio.CaptionConfig
	recording bool
	sinks     map[int]FrameSink
	nextSink  int
	latest    *image.RGBA
	loaded    map[string]image.Image
	pending   map[string]bool
}

func NewLoop(renderer *Renderer, seq *player.Sequencer, visuals VisualSource, fps int, logger *slog.Logger) *Loop {
	if fps <= 0 {
		fps = 30
	}
	return &Loop{
		renderer: renderer,
		seq:      seq,
		visuals:  visuals,
		fps:      fps,
		logger:   logger,
		caption:  studio.DefaultCaptionConfig(),
		sinks:    make(map[int]FrameSink),
		loaded:   make(map[string]image.Image),
		pending:  make(map[string]bool),
	}
}

// SetCaption applies a new caption configuration. Takes effect on the next
// frame.
func (l *Loop) SetCaption(cfg studio.CaptionConfig) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.caption = cfg
}

func (l *Loop) Caption() studio.CaptionConfig {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.caption
}

// SetRecording toggles the recording indicator.
func (l *Loop) SetRecording(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recording = on
}

// AttachSink registers a frame consumer and returns a detach function.
func (l *Loop) AttachSink(sink FrameSink) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextSink
	l.nextSink++
	l.sinks[id] = sink

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.sinks, id)
	}
}

// Snapshot returns the most recently rendered frame, or nil before the
// first tick.
func (l *Loop) Snapshot() *image.RGBA {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.latest
}

// RenderOnce renders the current state immediately, outside the ticker.
func (l *Loop) RenderOnce(ctx context.Context) *image.RGBA {
	return l.tick(ctx)
}

// Run ticks until the context ends.
func (l *Loop) Run(ctx context.Context) {
	interval := time.Second / time.Duration(l.fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if l.logger != nil {
		l.logger.Info("frame loop started", "fps", l.fps)
	}

	for {
		select {
		case <-ctx.Done():
			if l.logger != nil {
				l.logger.Info("frame loop stopping")
			}
			return
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

func (l *Loop) tick(ctx context.Context) *image.RGBA {
	state := l.seq.State()
	if state.Project != nil {
		l.ensureFormat(state.Project.OutputFormat)
	}

	var visual image.Image
	var narration string
	if state.Project != nil && state.Index < len(state.Project.Scenes) {
		scene := state.Project.Scenes[state.Index]
		narration = scene.Narration
		visual = l.visualFor(ctx, scene.Visual)
	}

	l.mu.Lock()
	caption := l.caption
	recording := l.recording
	l.mu.Unlock()

	frame := l.renderer.Render(Frame{
		Visual:     visual,
		SceneIndex: state.Index,
		Narration:  narration,
		Caption:    caption,
		Recording:  recording,
	})

	l.mu.Lock()
	l.latest = frame
	sinks := make([]FrameSink, 0, len(l.sinks))
	for _, s := range l.sinks {
		sinks = append(sinks, s)
	}
	l.mu.Unlock()

	for _, sink := range sinks {
		if err := sink.WriteFrame(frame); err != nil && l.logger != nil {
			l.logger.Warn("frame sink write failed", "error", err)
		}
	}
	return frame
}

// ensureFormat swaps the renderer when the loaded project's aspect ratio
// differs from the current surface.
func (l *Loop) ensureFormat(format studio.OutputFormat) {
	w, h := format.Dimensions()
	cw, ch := l.renderer.Size()
	if w == cw && h == ch {
		return
	}

	renderer, err := NewRenderer(format)
	if err != nil {
		if l.logger != nil {
			l.logger.Error("failed to rebuild renderer", "format", format, "error", err)
		}
		return
	}
	l.renderer = renderer
	if l.logger != nil {
		l.logger.Info("render surface resized", "format", format, "width", w, "height", h)
	}
}

// visualFor returns the decoded image for a visual if it is ready, kicking
// off a background load on first sight.
func (l *Loop) visualFor(ctx context.Context, visual studio.Visual) image.Image {
	if visual.Absent() {
		return nil
	}

	l.mu.Lock()
	if img, ok := l.loaded[visual.URL]; ok {
		l.mu.Unlock()
		return img
	}
	if l.pending[visual.URL] {
		l.mu.Unlock()
		return nil
	}
	l.pending[visual.URL] = true
	l.mu.Unlock()

	go func() {
		img, err := l.visuals.Load(ctx, visual)

		l.mu.Lock()
		delete(l.pending, visual.URL)
		if err == nil && img != nil {
			l.loaded[visual.URL] = img
		}
		l.mu.Unlock()

		if err != nil && l.logger != nil {
			l.logger.Warn("visual load failed", "url", visual.URL, "error", err)
		}
	}()
	return nil
}
