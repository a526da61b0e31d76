package api

import (
	"time"

	"github.com/megastudio/studio-agent/internal/studio"
	"github.com/megastudio/studio-agent/internal/system"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State         string        `json:"state"`
	LastError     string        `json:"last_error,omitempty"`
	ProjectsCount int           `json:"projects_count"`
	JobsRunning   int           `json:"jobs_running"`
	Recording     bool          `json:"recording"`
	ActiveJob     *JobResponse  `json:"active_job,omitempty"`
	System        *system.Stats `json:"system,omitempty"`
}

type AssembleRequest struct {
	Topic        string `json:"topic"`
	OutputFormat string `json:"output_format"`
	SceneCount   int    `json:"scene_count,omitempty"`
}

type AssembleResponse struct {
	JobID string `json:"job_id"`
}

type JobResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	ProjectID string `json:"project_id,omitempty"`
	Progress  int    `json:"progress"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type ProjectResponse struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	OutputFormat string          `json:"output_format"`
	QualityScore int             `json:"quality_score"`
	Scenes       []SceneResponse `json:"scenes"`
	CreatedAt    string          `json:"created_at"`
}

type SceneResponse struct {
	Index             int     `json:"index"`
	Description       string  `json:"description"`
	Narration         string  `json:"narration"`
	SearchTerm        string  `json:"search_term"`
	EstimatedDuration float64 `json:"estimated_duration_s"`
	VisualKind        string  `json:"visual_kind"`
	VisualURL         string  `json:"visual_url,omitempty"`
	HasNarrationAudio bool    `json:"has_narration_audio"`
}

type ProjectsResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

type PlayerStateResponse struct {
	ProjectID  string `json:"project_id,omitempty"`
	SceneIndex int    `json:"scene_index"`
	SceneCount int    `json:"scene_count"`
	Playing    bool   `json:"playing"`
}

type SeekRequest struct {
	Index int `json:"index"`
}

type CaptionResponse struct {
	Style    string `json:"style"`
	Position string `json:"position"`
}

type CaptionRequest struct {
	Style    string `json:"style"`
	Position string `json:"position"`
}

type ExportRequest struct {
	Confirm bool `json:"confirm"`
}

type ExportResponse struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
	Filename  string `json:"filename"`
	CreatedAt string `json:"created_at"`
}

type ExportsResponse struct {
	Exports []ExportResponse `json:"exports"`
}

type RecordingStatusResponse struct {
	Active bool `json:"active"`
}

type LibraryItemResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Meta      string `json:"meta,omitempty"`
	CreatedAt string `json:"created_at"`
}

type LibraryResponse struct {
	Items []LibraryItemResponse `json:"items"`
}

type SaveLibraryRequest struct {
	Type  string `json:"type"`
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
	Meta  string `json:"meta,omitempty"`
}

type ConnectProviderRequest struct {
	APIKey string `json:"api_key"`
}

type ProviderResponse struct {
	Provider  string `json:"provider"`
	Connected bool   `json:"connected"`
	UpdatedAt string `json:"updated_at"`
}

type ProvidersResponse struct {
	Providers []ProviderResponse `json:"providers"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func JobToResponse(j *studio.Job) JobResponse {
	return JobResponse{
		ID:        j.ID,
		Type:      j.Type,
		Status:    j.Status,
		ProjectID: j.ProjectID,
		Progress:  j.Progress,
		Message:   j.Message,
		Error:     j.Error,
		CreatedAt: j.CreatedAt.Format(time.RFC3339),
		UpdatedAt: j.UpdatedAt.Format(time.RFC3339),
	}
}

func ProjectToResponse(p *studio.Project) ProjectResponse {
	scenes := make([]SceneResponse, len(p.Scenes))
	for i, s := range p.Scenes {
		scenes[i] = SceneResponse{
			Index:             s.Index,
			Description:       s.Description,
			Narration:         s.Narration,
			SearchTerm:        s.SearchTerm,
			EstimatedDuration: s.EstimatedDuration,
			VisualKind:        string(s.Visual.Kind),
			VisualURL:         s.Visual.URL,
			HasNarrationAudio: s.NarrationAudioURL != "",
		}
	}
	return ProjectResponse{
		ID:           p.ID,
		Title:        p.Title,
		OutputFormat: string(p.OutputFormat),
		QualityScore: p.QualityScore,
		Scenes:       scenes,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
	}
}

func ExportToResponse(e *studio.Export, filename string) ExportResponse {
	return ExportResponse{
		ID:        e.ID,
		ProjectID: e.ProjectID,
		MimeType:  e.MimeType,
		SizeBytes: e.SizeBytes,
		Filename:  filename,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
}

func LibraryItemToResponse(item *studio.LibraryItem) LibraryItemResponse {
	return LibraryItemResponse{
		ID:        item.ID,
		Type:      item.Type,
		URL:       item.URL,
		Title:     item.Title,
		Meta:      item.Meta,
		CreatedAt: item.CreatedAt.Format(time.RFC3339),
	}
}

func CredentialToResponse(c *studio.Credential) ProviderResponse {
	return ProviderResponse{
		Provider:  c.Provider,
		Connected: c.Connected,
		UpdatedAt: c.UpdatedAt.Format(time.RFC3339),
	}
}
