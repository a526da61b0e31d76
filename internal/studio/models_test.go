package studio

import (
	"testing"
	"time"
)

func TestOutputFormat(t *testing.T) {
	w, h := FormatLandscape.Dimensions()
	if w != 1280 || h != 720 {
		t.Errorf("landscape dimensions = %dx%d, want 1280x720", w, h)
	}

	w, h = FormatPortrait.Dimensions()
	if w != 720 || h != 1280 {
		t.Errorf("portrait dimensions = %dx%d, want 720x1280", w, h)
	}

	if FormatLandscape.Orientation() != "horizontal" {
		t.Error("landscape orientation should be horizontal")
	}
	if FormatPortrait.Orientation() != "vertical" {
		t.Error("portrait orientation should be vertical")
	}

	if OutputFormat("4:3").Valid() {
		t.Error("4:3 should not be a valid format")
	}
}

func TestScene_FallbackDuration(t *testing.T) {
	tests := []struct {
		name      string
		estimated float64
		want      time.Duration
	}{
		{"zero estimate uses default", 0, 5 * time.Second},
		{"negative estimate uses default", -1, 5 * time.Second},
		{"short estimate wins", 2, 2 * time.Second},
		{"four second estimate wins", 4, 4 * time.Second},
		{"long estimate wins", 8.5, 8500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Scene{EstimatedDuration: tt.estimated}
			if got := s.FallbackDuration(); got != tt.want {
				t.Errorf("FallbackDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProject_Validate(t *testing.T) {
	valid := &Project{
		OutputFormat: FormatLandscape,
		Scenes: []Scene{
			{Index: 0, Narration: "a"},
			{Index: 1, Narration: "b"},
		},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() error = %v for valid project", err)
	}

	noScenes := &Project{OutputFormat: FormatPortrait}
	if err := noScenes.Validate(); err == nil {
		t.Error("Validate() should reject a project with no scenes")
	}

	badFormat := &Project{OutputFormat: "21:9", Scenes: []Scene{{Index: 0}}}
	if err := badFormat.Validate(); err == nil {
		t.Error("Validate() should reject an unsupported format")
	}

	gappy := &Project{
		OutputFormat: FormatLandscape,
		Scenes:       []Scene{{Index: 0}, {Index: 2}},
	}
	if err := gappy.Validate(); err == nil {
		t.Error("Validate() should reject non-contiguous scene indices")
	}
}

func TestQualityScore(t *testing.T) {
	tests := []struct {
		name   string
		weight float64
		scenes int
		want   int
	}{
		{"all videos", 5, 5, 99},
		{"no assets clamps low", 0, 5, 70},
		{"all image fallbacks", 2.5, 5, 70},
		{"mixed", 4, 5, 80},
		{"three of four", 3, 4, 75},
		{"images lift above floor", 3.5, 4, 88},
		{"zero scenes", 0, 0, 70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QualityScore(tt.weight, tt.scenes); got != tt.want {
				t.Errorf("QualityScore(%v, %d) = %d, want %d", tt.weight, tt.scenes, got, tt.want)
			}
		})
	}
}

func TestCaptionValidation(t *testing.T) {
	for _, style := range CaptionStyles {
		if !style.Valid() {
			t.Errorf("style %s should be valid", style)
		}
	}
	if CaptionStyle("vaporwave").Valid() {
		t.Error("unknown style should be invalid")
	}

	if !PositionTop.Valid() || !PositionCenter.Valid() || !PositionBottom.Valid() {
		t.Error("known positions should be valid")
	}
	if CaptionPosition("left").Valid() {
		t.Error("left is not a supported position")
	}

	def := DefaultCaptionConfig()
	if def.Style != StyleModern || def.Position != PositionBottom {
		t.Errorf("DefaultCaptionConfig() = %+v", def)
	}
}

func TestVisualVariants(t *testing.T) {
	if !NoVisual().Absent() {
		t.Error("NoVisual() should be absent")
	}
	if VideoVisual("http://x/clip.mp4").Absent() {
		t.Error("video visual with url should not be absent")
	}
	if !(Visual{Kind: VisualImage}).Absent() {
		t.Error("image visual without url should count as absent")
	}
}
