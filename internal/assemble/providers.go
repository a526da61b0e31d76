package assemble

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/megastudio/studio-agent/internal/script"
	"github.com/megastudio/studio-agent/internal/stock"
	"github.com/megastudio/studio-agent/internal/studio"
	"github.com/megastudio/studio-agent/internal/tts"
)

// Factory assembles the provider set from the credential store. Only
// connected providers participate; a run with no stock source still works,
// it just scores lower.
type Factory struct {
	repo     studio.Repository
	cacheDir string
	logger   *slog.Logger
}

func NewFactory(repo studio.Repository, cacheDir string, logger *slog.Logger) *Factory {
	return &Factory{repo: repo, cacheDir: cacheDir, logger: logger}
}

func (f *Factory) Build(ctx context.Context) (*Providers, error) {
	p := &Providers{}

	if key, ok := f.connectedKey(ctx, studio.ProviderScript); ok {
		p.Script = script.NewClient(key, f.logger)
	}
	if key, ok := f.connectedKey(ctx, studio.ProviderSpeech); ok {
		p.Speech = tts.NewElevenLabs(key, f.cacheDir, f.logger)
	}
	if key, ok := f.connectedKey(ctx, studio.ProviderStock); ok {
		p.Stock = append(p.Stock, stock.NewPexels(key, f.logger))
	}
	if key, ok := f.connectedKey(ctx, studio.ProviderStock2); ok {
		p.Stock = append(p.Stock, stock.NewPixabay(key, f.logger))
	}
	if _, ok := f.connectedKey(ctx, studio.ProviderImage); ok {
		p.Images = stock.NewPollinations(f.logger)
	}

	return p, nil
}

func (f *Factory) connectedKey(ctx context.Context, provider string) (string, bool) {
	cred, err := f.repo.GetCredential(ctx, provider)
	if err != nil || cred == nil || !cred.Connected {
		return "", false
	}
	return cred.APIKey, true
}

// KeyVerifier checks provider keys with the cheapest call each API offers.
type KeyVerifier struct {
	httpClient *http.Client
}

func NewKeyVerifier() *KeyVerifier {
	return &KeyVerifier{httpClient: &http.Client{Timeout: 15 * time.Second}}
}

func (v *KeyVerifier) Verify(ctx context.Context, provider, apiKey string) error {
	switch provider {
	case studio.ProviderScript:
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.x.ai/v1/models", nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+apiKey)
		resp, err := v.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("script provider rejected key: %d", resp.StatusCode)
		}
		return nil

	case studio.ProviderSpeech:
		return tts.VerifyKey(ctx, "", apiKey, v.httpClient)

	case studio.ProviderStock:
		return stock.VerifyPexelsKey(ctx, "", apiKey, v.httpClient)

	case studio.ProviderStock2, studio.ProviderImage:
		// Pixabay validates on first search; Pollinations is keyless.
		return nil

	default:
		return fmt.Errorf("unknown provider %q", provider)
	}
}
