// Package capture records the composited show to a video file: it probes
// which container the local ffmpeg can produce, muxes rendered frames with
// the narration audio, and hands the finished file to the export store.
package capture

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Container describes one recordable output target.
type Container struct {
	MimeType   string
	Extension  string
	Format     string
	VideoCodec string
	AudioCodec string
}

// preferredContainers is the probe order: MP4 with H.264/AAC first, then
// plainer MP4, then VP9/Opus WebM, then baseline WebM.
var preferredContainers = []Container{
	{MimeType: "video/mp4;codecs=h264,aac", Extension: "mp4", Format: "mp4", VideoCodec: "libx264", AudioCodec: "aac"},
	{MimeType: "video/mp4", Extension: "mp4", Format: "mp4", VideoCodec: "mpeg4", AudioCodec: "aac"},
	{MimeType: "video/webm;codecs=vp9,opus", Extension: "webm", Format: "webm", VideoCodec: "libvpx-vp9", AudioCodec: "libopus"},
	{MimeType: "video/webm", Extension: "webm", Format: "webm", VideoCodec: "libvpx", AudioCodec: "libvorbis"},
}

// ProbeContainer asks ffmpeg which encoders it was built with and returns
// the first preferred container it can produce.
func ProbeContainer(ctx context.Context, ffmpegBin string) (Container, error) {
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}

	cmd := exec.CommandContext(ctx, ffmpegBin, "-hide_banner", "-encoders")
	out, err := cmd.Output()
	if err != nil {
		return Container{}, fmt.Errorf("probe ffmpeg encoders: %w", err)
	}
	return SelectContainer(string(out))
}

// SelectContainer picks the first preferred container whose video and audio
// encoders both appear in the `ffmpeg -encoders` listing.
func SelectContainer(encoderList string) (Container, error) {
	for _, c := range preferredContainers {
		if hasEncoder(encoderList, c.VideoCodec) && hasEncoder(encoderList, c.AudioCodec) {
			return c, nil
		}
	}
	return Container{}, fmt.Errorf("no supported recording container: ffmpeg lacks the required encoders")
}

func hasEncoder(encoderList, name string) bool {
	for _, line := range strings.Split(encoderList, "\n") {
		fields := strings.Fields(line)
		// Listing lines look like " V....D libx264  H.264 / ...".
		if len(fields) >= 2 && fields[1] == name {
			return true
		}
	}
	return false
}
