package studio

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Verifier checks that an API key actually works against its provider.
// Implementations live with the provider clients; a nil verifier means the
// key is stored unverified.
type Verifier interface {
	Verify(ctx context.Context, provider, apiKey string) error
}

type StudioService interface {
	SaveProject(ctx context.Context, project *Project) error
	GetProject(ctx context.Context, id string) (*Project, error)
	ListProjects(ctx context.Context, limit int) ([]*Project, error)
	DeleteProject(ctx context.Context, id string) error

	SaveToLibrary(ctx context.Context, itemType, url, title, meta string) (*LibraryItem, error)
	GetLibraryItem(ctx context.Context, id string) (*LibraryItem, error)
	SearchLibrary(ctx context.Context, typeFilter, query string) ([]*LibraryItem, error)
	RemoveFromLibrary(ctx context.Context, id string) error

	ConnectProvider(ctx context.Context, provider, apiKey string) (*Credential, error)
	DisconnectProvider(ctx context.Context, provider string) error
	GetCredentials(ctx context.Context) ([]*Credential, error)
	ProviderKey(ctx context.Context, provider string) (string, bool)

	EnqueueAssembly(ctx context.Context, topic string, format OutputFormat, sceneCount int) (*Job, error)
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]*Job, error)
}

type Service struct {
	repo     Repository
	verifier Verifier
	logger   *slog.Logger
}

func NewService(repo Repository, verifier Verifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, verifier: verifier, logger: logger}
}

func (s *Service) SaveProject(ctx context.Context, p *Project) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid project: %w", err)
	}
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	if err := s.repo.CreateProject(ctx, p); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("project saved", "project_id", p.ID, "title", p.Title, "scenes", len(p.Scenes))
	}
	return nil
}

func (s *Service) GetProject(ctx context.Context, id string) (*Project, error) {
	return s.repo.GetProject(ctx, id)
}

func (s *Service) ListProjects(ctx context.Context, limit int) ([]*Project, error) {
	return s.repo.ListProjects(ctx, limit)
}

func (s *Service) DeleteProject(ctx context.Context, id string) error {
	return s.repo.DeleteProject(ctx, id)
}

func (s *Service) SaveToLibrary(ctx context.Context, itemType, url, title, meta string) (*LibraryItem, error) {
	if url == "" {
		return nil, fmt.Errorf("library item requires a url")
	}
	if title == "" {
		title = itemType
	}

	item := &LibraryItem{
		ID:        NewID(),
		Type:      itemType,
		URL:       url,
		Title:     title,
		Meta:      meta,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateLibraryItem(ctx, item); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("library item saved", "item_id", item.ID, "type", itemType)
	}
	return item, nil
}

func (s *Service) GetLibraryItem(ctx context.Context, id string) (*LibraryItem, error) {
	return s.repo.GetLibraryItem(ctx, id)
}

func (s *Service) SearchLibrary(ctx context.Context, typeFilter, query string) ([]*LibraryItem, error) {
	return s.repo.ListLibraryItems(ctx, typeFilter, query)
}

func (s *Service) RemoveFromLibrary(ctx context.Context, id string) error {
	return s.repo.DeleteLibraryItem(ctx, id)
}

func (s *Service) ConnectProvider(ctx context.Context, provider, apiKey string) (*Credential, error) {
	if !knownProvider(provider) {
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("api key is empty")
	}

	connected := true
	if s.verifier != nil {
		if err := s.verifier.Verify(ctx, provider, apiKey); err != nil {
			connected = false
			if s.logger != nil {
				s.logger.Warn("provider key verification failed", "provider", provider, "error", err)
			}
		}
	}

	cred := &Credential{
		Provider:  provider,
		APIKey:    apiKey,
		Connected: connected,
		UpdatedAt: time.Now(),
	}
	if err := s.repo.SetCredential(ctx, cred); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("provider connected", "provider", provider, "verified", connected)
	}
	return cred, nil
}

func (s *Service) DisconnectProvider(ctx context.Context, provider string) error {
	if !knownProvider(provider) {
		return fmt.Errorf("unknown provider %q", provider)
	}
	if err := s.repo.DeleteCredential(ctx, provider); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("provider disconnected", "provider", provider)
	}
	return nil
}

func (s *Service) GetCredentials(ctx context.Context) ([]*Credential, error) {
	return s.repo.ListCredentials(ctx)
}

// ProviderKey returns the key for a connected provider. A stored but
// unverified key stays hidden until the provider reconnects.
func (s *Service) ProviderKey(ctx context.Context, provider string) (string, bool) {
	cred, err := s.repo.GetCredential(ctx, provider)
	if err != nil || cred == nil || !cred.Connected {
		return "", false
	}
	return cred.APIKey, true
}

func (s *Service) EnqueueAssembly(ctx context.Context, topic string, format OutputFormat, sceneCount int) (*Job, error) {
	if topic == "" {
		return nil, fmt.Errorf("topic is empty")
	}
	if !format.Valid() {
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
	if sceneCount < 1 {
		sceneCount = 5
	}

	payload, err := json.Marshal(AssemblyRequest{
		Topic:        topic,
		OutputFormat: format,
		SceneCount:   sceneCount,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	job := &Job{
		ID:        NewID(),
		Type:      JobTypeAssemble,
		Status:    JobStatusPending,
		Progress:  0,
		Payload:   string(payload),
		Message:   "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("assembly job created", "job_id", job.ID, "topic", topic, "format", format)
	}
	return job, nil
}

func (s *Service) GetJob(ctx context.Context, id string) (*Job, error) {
	return s.repo.GetJob(ctx, id)
}

func (s *Service) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	return s.repo.ListJobs(ctx, limit)
}

func knownProvider(p string) bool {
	for _, known := range KnownProviders {
		if p == known {
			return true
		}
	}
	return false
}
