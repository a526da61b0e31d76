package capture

import (
	"strings"
	"testing"
)

func encoderListing(names ...string) string {
	var b strings.Builder
	b.WriteString("Encoders:\n V..... = Video\n ------\n")
	for _, n := range names {
		b.WriteString(" V....D " + n + "  some encoder description\n")
	}
	return b.String()
}

func TestSelectContainer(t *testing.T) {
	tests := []struct {
		name     string
		encoders []string
		wantMime string
		wantErr  bool
	}{
		{
			name:     "full h264 build",
			encoders: []string{"libx264", "aac", "libvpx-vp9", "libopus"},
			wantMime: "video/mp4;codecs=h264,aac",
		},
		{
			name:     "no x264 falls back to mpeg4",
			encoders: []string{"mpeg4", "aac", "libvpx", "libvorbis"},
			wantMime: "video/mp4",
		},
		{
			name:     "webm only build",
			encoders: []string{"libvpx-vp9", "libopus"},
			wantMime: "video/webm;codecs=vp9,opus",
		},
		{
			name:     "baseline webm",
			encoders: []string{"libvpx", "libvorbis"},
			wantMime: "video/webm",
		},
		{
			name:     "video encoder without audio",
			encoders: []string{"libx264", "mpeg4"},
			wantErr:  true,
		},
		{
			name:     "nothing usable",
			encoders: []string{"gif", "png"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectContainer(encoderListing(tt.encoders...))

			if tt.wantErr {
				if err == nil {
					t.Fatalf("SelectContainer() = %+v, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("SelectContainer() error = %v", err)
			}
			if got.MimeType != tt.wantMime {
				t.Errorf("MimeType = %q, want %q", got.MimeType, tt.wantMime)
			}
			if got.Extension != "mp4" && got.Extension != "webm" {
				t.Errorf("Extension = %q", got.Extension)
			}
		})
	}
}

func TestHasEncoder_ExactNameMatch(t *testing.T) {
	listing := encoderListing("libvpx-vp9")

	if hasEncoder(listing, "libvpx") {
		t.Error("libvpx-vp9 must not satisfy a libvpx lookup")
	}
	if !hasEncoder(listing, "libvpx-vp9") {
		t.Error("exact name lookup failed")
	}
}
