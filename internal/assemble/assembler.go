// Package assemble builds projects end to end: script generation, per-scene
// narration, stock footage search with degraded fallbacks, and the final
// quality score.
package assemble

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/megastudio/studio-agent/internal/script"
	"github.com/megastudio/studio-agent/internal/stock"
	"github.com/megastudio/studio-agent/internal/studio"
	"github.com/megastudio/studio-agent/internal/tts"
)

// DefaultRetryWords is how many leading words of the search term survive
// into the simplified retry query.
const DefaultRetryWords = 1

// Providers are the per-run collaborator clients, built from whatever
// credentials are currently connected. Script is mandatory; everything else
// degrades gracefully when nil.
type Providers struct {
	Script script.Generator
	Speech tts.Synthesizer
	Stock  []stock.VideoSearcher
	Images stock.ImageGenerator
}

// ProviderFactory builds the provider set for one assembly run.
type ProviderFactory interface {
	Build(ctx context.Context) (*Providers, error)
}

// Progress reports per-scene assembly status back to the job record.
type Progress func(done, total int, message string)

type Assembler struct {
	factory    ProviderFactory
	voiceID    string
	retryWords int
	logger     *slog.Logger
}

func NewAssembler(factory ProviderFactory, voiceID string, logger *slog.Logger) *Assembler {
	return &Assembler{
		factory:    factory,
		voiceID:    voiceID,
		retryWords: DefaultRetryWords,
		logger:     logger,
	}
}

// WithRetryWords overrides how many words the simplified stock retry keeps.
func (a *Assembler) WithRetryWords(n int) *Assembler {
	if n > 0 {
		a.retryWords = n
	}
	return a
}

// Assemble runs the full pipeline for one request. Scene asset failures are
// soft: the scene stays in the project without the failed asset and the
// quality score reflects the loss. Only script generation failure aborts.
func (a *Assembler) Assemble(ctx context.Context, req studio.AssemblyRequest, progress Progress) (*studio.Project, error) {
	if progress == nil {
		progress = func(int, int, string) {}
	}

	providers, err := a.factory.Build(ctx)
	if err != nil {
		return nil, err
	}
	if providers.Script == nil {
		return nil, fmt.Errorf("script provider is not connected")
	}

	progress(0, 1, "writing script")
	title, scenes, err := providers.Script.GenerateScript(ctx, req.Topic, req.SceneCount)
	if err != nil {
		return nil, fmt.Errorf("script generation: %w", err)
	}

	total := len(scenes)
	orientation := req.OutputFormat.Orientation()
	width, height := req.OutputFormat.Dimensions()

	var successWeight float64
	for i := range scenes {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		progress(i, total, fmt.Sprintf("scene %d/%d: narrating", i+1, total))
		a.narrate(ctx, providers, &scenes[i])

		progress(i, total, fmt.Sprintf("scene %d/%d: finding footage", i+1, total))
		successWeight += a.findVisual(ctx, providers, &scenes[i], orientation, width, height)

		progress(i+1, total, fmt.Sprintf("scene %d/%d: done", i+1, total))
	}

	project := &studio.Project{
		ID:           studio.NewID(),
		Title:        title,
		OutputFormat: req.OutputFormat,
		Scenes:       scenes,
		QualityScore: studio.QualityScore(successWeight, total),
		CreatedAt:    time.Now(),
	}

	if a.logger != nil {
		a.logger.Info("assembly finished", "project_id", project.ID,
			"title", title, "scenes", total, "quality_score", project.QualityScore)
	}
	return project, nil
}

// narrate synthesizes the scene's narration. Failure leaves the scene
// silent; playback falls back to the estimated duration timer.
func (a *Assembler) narrate(ctx context.Context, p *Providers, scene *studio.Scene) {
	if p.Speech == nil {
		return
	}

	path, err := p.Speech.Synthesize(ctx, scene.Narration, a.voiceID)
	if err != nil {
		if a.logger != nil {
			a.logger.Warn("narration synthesis failed", "scene", scene.Index, "error", err)
		}
		return
	}
	scene.NarrationAudioURL = path
}

// findVisual fills in the scene's visual and returns its quality weight:
// 1.0 for stock video, 0.5 for a generated image, 0 for nothing.
func (a *Assembler) findVisual(ctx context.Context, p *Providers, scene *studio.Scene, orientation string, width, height int) float64 {
	queries := []string{scene.SearchTerm, a.simplifyQuery(scene.SearchTerm)}

	for _, searcher := range p.Stock {
		for _, q := range queries {
			url, err := searcher.SearchVideo(ctx, q, orientation)
			if err != nil {
				if a.logger != nil {
					a.logger.Warn("stock search failed", "scene", scene.Index, "query", q, "error", err)
				}
				continue
			}
			if url != "" {
				scene.Visual = studio.VideoVisual(url)
				return 1.0
			}
		}
	}

	if p.Images != nil {
		prompt := scene.Description
		if prompt == "" {
			prompt = scene.SearchTerm
		}
		url, err := p.Images.GenerateImage(ctx, prompt, width, height)
		if err == nil && url != "" {
			scene.Visual = studio.ImageVisual(url)
			return 0.5
		}
		if err != nil && a.logger != nil {
			a.logger.Warn("image fallback failed", "scene", scene.Index, "error", err)
		}
	}

	scene.Visual = studio.NoVisual()
	return 0
}

// simplifyQuery keeps the leading words of the term and appends
// "cinematic", a broader retry that still matches the scene's mood.
func (a *Assembler) simplifyQuery(term string) string {
	words := strings.Fields(term)
	if len(words) > a.retryWords {
		words = words[:a.retryWords]
	}
	return strings.Join(append(words, "cinematic"), " ")
}
