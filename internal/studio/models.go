// Package studio holds the core domain model of the agent: projects, their
// ordered scenes, caption configuration and the bookkeeping types (jobs,
// library items, provider credentials) persisted alongside them.
package studio

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OutputFormat is the project aspect ratio.
type OutputFormat string

const (
	FormatLandscape OutputFormat = "16:9"
	FormatPortrait  OutputFormat = "9:16"
)

// Dimensions returns the output surface size for the format.
func (f OutputFormat) Dimensions() (width, height int) {
	if f == FormatPortrait {
		return 720, 1280
	}
	return 1280, 720
}

// Valid reports whether the format is one of the two supported ratios.
func (f OutputFormat) Valid() bool {
	return f == FormatLandscape || f == FormatPortrait
}

// Orientation returns the stock-search orientation for the format.
func (f OutputFormat) Orientation() string {
	if f == FormatPortrait {
		return "vertical"
	}
	return "horizontal"
}

// VisualKind discriminates a scene's visual asset.
type VisualKind string

const (
	VisualVideo  VisualKind = "video"
	VisualImage  VisualKind = "image"
	VisualAbsent VisualKind = "absent"
)

// Visual is the tagged variant for a scene's visual asset:
// Video(url) | Image(url) | Absent.
type Visual struct {
	Kind VisualKind `json:"kind"`
	URL  string     `json:"url,omitempty"`
}

func VideoVisual(url string) Visual { return Visual{Kind: VisualVideo, URL: url} }
func ImageVisual(url string) Visual { return Visual{Kind: VisualImage, URL: url} }
func NoVisual() Visual              { return Visual{Kind: VisualAbsent} }

// Absent reports whether the scene has no visual asset. A scene without a
// visual is a valid degraded state, not an error.
func (v Visual) Absent() bool {
	return v.Kind == VisualAbsent || v.URL == ""
}

// Scene is one narrated beat of a project. Immutable once the project is
// built; missing audio or visual assets are expected degraded states.
type Scene struct {
	Index             int     `json:"index"`
	Description       string  `json:"description"`
	Narration         string  `json:"narration"`
	SearchTerm        string  `json:"search_term"`
	EstimatedDuration float64 `json:"estimated_duration_s"`
	Visual            Visual  `json:"visual"`
	NarrationAudioURL string  `json:"narration_audio_url,omitempty"`
}

// DefaultSceneDuration is the fallback advance interval for scenes whose
// narration audio is missing or failed to load.
const DefaultSceneDuration = 5 * time.Second

// FallbackDuration returns the timer interval used when a scene cannot be
// advanced by its narration audio: the estimated duration, or 5s when no
// estimate was recorded.
func (s Scene) FallbackDuration() time.Duration {
	d := time.Duration(s.EstimatedDuration * float64(time.Second))
	if d <= 0 {
		return DefaultSceneDuration
	}
	return d
}

// Project is an assembled video: an ordered, non-empty scene list plus
// metadata. Owned by the session that created it and replaced wholesale on
// reset or new assembly.
type Project struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	OutputFormat OutputFormat `json:"output_format"`
	Scenes       []Scene      `json:"scenes"`
	QualityScore int          `json:"quality_score"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Validate checks the project invariants: a supported format and a non-empty
// scene list with contiguous indices.
func (p *Project) Validate() error {
	if !p.OutputFormat.Valid() {
		return fmt.Errorf("unsupported output format %q", p.OutputFormat)
	}
	if len(p.Scenes) == 0 {
		return fmt.Errorf("project has no scenes")
	}
	for i, s := range p.Scenes {
		if s.Index != i {
			return fmt.Errorf("scene %d has index %d", i, s.Index)
		}
	}
	return nil
}

// QualityScore rates how many scenes got a real video (1.0), a generated
// image fallback (0.5) or nothing (0), clamped into [70, 99].
func QualityScore(successWeight float64, sceneCount int) int {
	if sceneCount <= 0 {
		return 70
	}
	score := int(roundHalfAway(successWeight / float64(sceneCount) * 100))
	if score > 99 {
		score = 99
	}
	if score < 70 {
		score = 70
	}
	return score
}

func roundHalfAway(v float64) float64 {
	if v < 0 {
		return float64(int(v - 0.5))
	}
	return float64(int(v + 0.5))
}

// CaptionStyle selects one of the seven deterministic caption recipes.
type CaptionStyle string

const (
	StyleClassic CaptionStyle = "classic"
	StyleModern  CaptionStyle = "modern"
	StyleBox     CaptionStyle = "box"
	StyleNeon    CaptionStyle = "neon"
	StyleComic   CaptionStyle = "comic"
	StyleMinimal CaptionStyle = "minimal"
	StyleGlitch  CaptionStyle = "glitch"
)

// CaptionStyles lists every supported style.
var CaptionStyles = []CaptionStyle{
	StyleClassic, StyleModern, StyleBox, StyleNeon, StyleComic, StyleMinimal, StyleGlitch,
}

func (s CaptionStyle) Valid() bool {
	for _, known := range CaptionStyles {
		if s == known {
			return true
		}
	}
	return false
}

// CaptionPosition anchors the caption vertically.
type CaptionPosition string

const (
	PositionTop    CaptionPosition = "top"
	PositionCenter CaptionPosition = "center"
	PositionBottom CaptionPosition = "bottom"
)

func (p CaptionPosition) Valid() bool {
	return p == PositionTop || p == PositionCenter || p == PositionBottom
}

// CaptionConfig is process-wide and read fresh by the compositor on every
// frame, so style switches apply without a restart.
type CaptionConfig struct {
	Style    CaptionStyle    `json:"style"`
	Position CaptionPosition `json:"position"`
}

// DefaultCaptionConfig matches the dashboard defaults.
func DefaultCaptionConfig() CaptionConfig {
	return CaptionConfig{Style: StyleModern, Position: PositionBottom}
}

// Provider identifiers for the credential store.
const (
	ProviderScript = "script"
	ProviderSpeech = "speech"
	ProviderStock  = "stock"
	ProviderStock2 = "stock2"
	ProviderImage  = "image"
)

// KnownProviders lists every provider the credential store accepts.
var KnownProviders = []string{
	ProviderScript, ProviderSpeech, ProviderStock, ProviderStock2, ProviderImage,
}

// Credential is a stored provider API key and its verification state.
type Credential struct {
	Provider  string    `json:"provider"`
	APIKey    string    `json:"-"`
	Connected bool      `json:"connected"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LibraryItem is a saved output in the user's library.
type LibraryItem struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Meta      string    `json:"meta,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AssemblyRequest is the payload of an assemble job.
type AssemblyRequest struct {
	Topic        string       `json:"topic"`
	OutputFormat OutputFormat `json:"output_format"`
	SceneCount   int          `json:"scene_count"`
}

const (
	JobTypeAssemble = "assemble"

	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Job tracks an assembly run. Progress is per-scene; Message carries the
// human status line the dashboard polls for; Payload holds the JSON-encoded
// request the worker needs to run the job.
type Job struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	ProjectID string    `json:"project_id,omitempty"`
	Progress  int       `json:"progress"`
	Payload   string    `json:"-"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Export is a recorded file saved under the exports directory.
type Export struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Path      string    `json:"path"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// NewID returns a fresh unique identifier.
func NewID() string {
	return uuid.NewString()
}
