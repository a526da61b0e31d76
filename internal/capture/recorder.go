package capture

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/megastudio/studio-agent/internal/media"
)

// Recorder muxes rendered frames and narration PCM into a video file. Raw
// RGBA frames go to ffmpeg's stdin; audio samples go to an extra pipe on
// fd 3. Frames arriving faster than ffmpeg drains them are dropped rather
// than stalling the frame loop.
type Recorder struct {
	cmd     *exec.Cmd
	videoIn io.WriteCloser
	audioIn *os.File
	frames  chan *image.RGBA
	group   *errgroup.Group
	logger  *slog.Logger
	outPath string

	mu      sync.Mutex
	stopped bool

	framesWritten int64
	framesDropped int64
}

// StartRecorder launches the ffmpeg muxer for the given container.
func StartRecorder(ctx context.Context, ffmpegBin string, c Container, width, height, fps, bitrate int, outPath string, logger *slog.Logger) (*Recorder, error) {
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}

	audioRead, audioWrite, err := os.Pipe()
	if err != nil {
		return nil, err
	}

	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", fmt.Sprint(fps),
		"-i", "pipe:0",
		"-f", "s16le",
		"-ar", fmt.Sprint(media.PCMSampleRate),
		"-ac", fmt.Sprint(media.PCMChannels),
		"-i", "pipe:3",
		"-c:v", c.VideoCodec,
		"-b:v", fmt.Sprint(bitrate),
		"-pix_fmt", "yuv420p",
		"-c:a", c.AudioCodec,
		"-shortest",
	}
	if c.Format == "mp4" {
		args = append(args, "-movflags", "+faststart")
	}
	args = append(args, "-f", c.Format, outPath)

	cmd := exec.CommandContext(ctx, ffmpegBin, args...)
	cmd.ExtraFiles = []*os.File{audioRead}

	videoIn, err := cmd.StdinPipe()
	if err != nil {
		audioRead.Close()
		audioWrite.Close()
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		audioRead.Close()
		audioWrite.Close()
		return nil, fmt.Errorf("start ffmpeg muxer: %w", err)
	}
	// Parent keeps only the write end.
	audioRead.Close()

	r := &Recorder{
		cmd:     cmd,
		videoIn: videoIn,
		audioIn: audioWrite,
		frames:  make(chan *image.RGBA, 8),
		group:   &errgroup.Group{},
		logger:  logger,
		outPath: outPath,
	}
	r.group.Go(r.pumpFrames)

	if logger != nil {
		logger.Info("recorder started", "container", c.MimeType, "path", outPath)
	}
	return r, nil
}

func (r *Recorder) pumpFrames() error {
	for frame := range r.frames {
		if _, err := r.videoIn.Write(frame.Pix); err != nil {
			return fmt.Errorf("write frame: %w", err)
		}
		r.mu.Lock()
		r.framesWritten++
		r.mu.Unlock()
	}
	return nil
}

// WriteFrame enqueues a frame for muxing. Implements compositor.FrameSink.
// The lock is held across the send so Stop cannot close the channel between
// the stopped check and the enqueue.
func (r *Recorder) WriteFrame(img *image.RGBA) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return nil
	}
	select {
	case r.frames <- img:
	default:
		r.framesDropped++
	}
	return nil
}

// Write sends PCM audio samples to the muxer. Implements io.Writer so the
// mixer can route narration straight in.
func (r *Recorder) Write(p []byte) (int, error) {
	return r.audioIn.Write(p)
}

// Stop closes both inputs and waits for ffmpeg to finalize the file. The
// frames channel is closed under the same lock WriteFrame sends under.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	close(r.frames)
	r.mu.Unlock()

	pumpErr := r.group.Wait()

	r.videoIn.Close()
	r.audioIn.Close()

	waitErr := r.cmd.Wait()

	r.mu.Lock()
	written, dropped := r.framesWritten, r.framesDropped
	r.mu.Unlock()
	if r.logger != nil {
		r.logger.Info("recorder stopped", "frames_written", written, "frames_dropped", dropped)
	}

	if pumpErr != nil {
		return pumpErr
	}
	if waitErr != nil {
		return fmt.Errorf("ffmpeg muxer: %w", waitErr)
	}
	return nil
}

// Path returns the output file location.
func (r *Recorder) Path() string {
	return r.outPath
}
