package capture

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/megastudio/studio-agent/internal/compositor"
	"github.com/megastudio/studio-agent/internal/export"
	"github.com/megastudio/studio-agent/internal/media"
	"github.com/megastudio/studio-agent/internal/player"
	"github.com/megastudio/studio-agent/internal/studio"
)

// ErrRecordingActive is returned when a recording is requested while one is
// already running. One recording session at a time.
var ErrRecordingActive = fmt.Errorf("a recording is already in progress")

// Controller runs a full render-and-export session: play the project from
// the top while the recorder consumes frames and narration, then store the
// finished file.
type Controller struct {
	ffmpegBin  string
	exportsDir string
	fps        int
	bitrate    int

	loop    *compositor.Loop
	seq     *player.Sequencer
	decoder media.PCMDecoder
	fetcher *media.Fetcher
	repo    studio.Repository
	logger  *slog.Logger

	mu     sync.Mutex
	active bool
}

func NewController(ffmpegBin, exportsDir string, fps, bitrate int, loop *compositor.Loop, seq *player.Sequencer, decoder media.PCMDecoder, fetcher *media.Fetcher, repo studio.Repository, logger *slog.Logger) *Controller {
	return &Controller{
		ffmpegBin:  ffmpegBin,
		exportsDir: exportsDir,
		fps:        fps,
		bitrate:    bitrate,
		loop:       loop,
		seq:        seq,
		decoder:    decoder,
		fetcher:    fetcher,
		repo:       repo,
		logger:     logger,
	}
}

// Active reports whether a recording session is running.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// RenderAndExport records the project start to finish and returns the
// stored export. Playback is restarted from scene zero; the recorder rolls
// for a short settle period before the first scene so no opening frames are
// lost.
func (c *Controller) RenderAndExport(ctx context.Context, project *studio.Project) (*studio.Export, error) {
	if err := project.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		return nil, ErrRecordingActive
	}
	c.active = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.active = false
		c.mu.Unlock()
	}()

	container, err := ProbeContainer(ctx, c.ffmpegBin)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(c.exportsDir, 0755); err != nil {
		return nil, err
	}

	exportID := studio.NewID()
	tempPath := filepath.Join(c.exportsDir, ".rec-"+exportID+"."+container.Extension)

	width, height := project.OutputFormat.Dimensions()
	recorder, err := StartRecorder(ctx, c.ffmpegBin, container, width, height, c.fps, c.bitrate, tempPath, c.logger)
	if err != nil {
		return nil, err
	}

	mixer := NewMixer(c.decoder, c.fetcher, recorder, c.logger)

	c.seq.Load(project)
	events, unsubscribe := c.seq.Subscribe()
	defer unsubscribe()

	detach := c.loop.AttachSink(recorder)
	defer detach()
	c.loop.SetRecording(true)
	defer c.loop.SetRecording(false)

	if c.logger != nil {
		c.logger.Info("recording started", "project_id", project.ID, "container", container.MimeType)
	}

	// Let the recorder roll briefly before the first scene.
	select {
	case <-time.After(settleDelay):
	case <-ctx.Done():
		c.abort(recorder, tempPath)
		return nil, ctx.Err()
	}

	c.seq.Restart(ctx)

	if err := c.followPlayback(ctx, project, mixer, events); err != nil {
		c.abort(recorder, tempPath)
		return nil, err
	}

	c.loop.SetRecording(false)
	detach()

	if err := recorder.Stop(); err != nil {
		os.Remove(tempPath)
		return nil, err
	}

	return c.store(ctx, exportID, project, container, tempPath)
}

// followPlayback routes narration per scene until the show finishes.
// Replacing the project mid-session aborts the recording.
func (c *Controller) followPlayback(ctx context.Context, project *studio.Project, mixer *Mixer, events <-chan player.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return fmt.Errorf("playback event stream closed")
			}
			switch ev.Type {
			case player.EventScene:
				if ev.Index < len(project.Scenes) {
					if err := mixer.RouteScene(ctx, project.Scenes[ev.Index]); err != nil {
						return err
					}
				}
			case player.EventLoad:
				return fmt.Errorf("project replaced during recording")
			case player.EventFinished:
				return nil
			}
		}
	}
}

func (c *Controller) abort(recorder *Recorder, tempPath string) {
	if err := recorder.Stop(); err != nil && c.logger != nil {
		c.logger.Warn("recorder stop after abort", "error", err)
	}
	os.Remove(tempPath)
}

// store renames the finished file to its final name and records the export
// in the database and the library.
func (c *Controller) store(ctx context.Context, exportID string, project *studio.Project, container Container, tempPath string) (*studio.Export, error) {
	finalPath := filepath.Join(c.exportsDir, export.Filename(project.Title, container.Extension))
	if err := os.Rename(tempPath, finalPath); err != nil {
		return nil, err
	}

	info, err := os.Stat(finalPath)
	if err != nil {
		return nil, err
	}

	mimeType := container.MimeType
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}

	exp := &studio.Export{
		ID:        exportID,
		ProjectID: project.ID,
		Path:      finalPath,
		MimeType:  mimeType,
		SizeBytes: info.Size(),
		CreatedAt: time.Now(),
	}
	if err := c.repo.CreateExport(ctx, exp); err != nil {
		return nil, err
	}

	item := &studio.LibraryItem{
		ID:        studio.NewID(),
		Type:      "video",
		URL:       finalPath,
		Title:     project.Title,
		Meta:      mimeType,
		CreatedAt: time.Now(),
	}
	if err := c.repo.CreateLibraryItem(ctx, item); err != nil && c.logger != nil {
		c.logger.Warn("failed to save export to library", "error", err)
	}

	if c.logger != nil {
		c.logger.Info("recording exported", "export_id", exp.ID, "path", finalPath, "bytes", exp.SizeBytes)
	}
	return exp, nil
}
