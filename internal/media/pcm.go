package media

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

// PCM stream parameters shared by the decoder and the recorder's audio
// input. 44.1kHz stereo signed 16-bit little-endian.
const (
	PCMSampleRate     = 44100
	PCMChannels       = 2
	PCMBytesPerSample = 2
)

// PCMDecoder decodes an audio asset into a raw PCM stream.
type PCMDecoder interface {
	DecodePCM(ctx context.Context, path string) (io.ReadCloser, error)
}

// FFmpegDecoder shells out to ffmpeg to decode narration audio to PCM.
type FFmpegDecoder struct {
	bin string
}

func NewFFmpegDecoder(bin string) *FFmpegDecoder {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &FFmpegDecoder{bin: bin}
}

func (d *FFmpegDecoder) DecodePCM(ctx context.Context, path string) (io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, d.bin,
		"-v", "error",
		"-i", path,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprint(PCMSampleRate),
		"-ac", fmt.Sprint(PCMChannels),
		"pipe:1",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg decode: %w", err)
	}

	return &pcmStream{ReadCloser: stdout, cmd: cmd}, nil
}

type pcmStream struct {
	io.ReadCloser
	cmd *exec.Cmd
}

func (s *pcmStream) Close() error {
	s.ReadCloser.Close()
	return s.cmd.Wait()
}
