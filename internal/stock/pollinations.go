package stock

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const pollinationsBaseURL = "https://image.pollinations.ai"

// Pollinations generates fallback images from a prompt. The service encodes
// the prompt directly into the image URL, so generation is a URL build plus
// a reachability check.
type Pollinations struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewPollinations(logger *slog.Logger) *Pollinations {
	return &Pollinations{
		baseURL:    pollinationsBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}
}

func (p *Pollinations) WithBaseURL(u string) *Pollinations {
	p.baseURL = strings.TrimRight(u, "/")
	return p
}

func (p *Pollinations) WithHTTPClient(hc *http.Client) *Pollinations {
	p.httpClient = hc
	return p
}

func (p *Pollinations) GenerateImage(ctx context.Context, prompt string, width, height int) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("image prompt is empty")
	}

	// A stable seed per prompt keeps regenerated projects visually consistent.
	h := fnv.New32a()
	h.Write([]byte(prompt))

	imageURL := fmt.Sprintf("%s/prompt/%s?width=%d&height=%d&nologo=true&model=flux&seed=%d",
		p.baseURL, url.PathEscape(prompt), width, height, h.Sum32())

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, imageURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("image generation failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("image provider returned %d", resp.StatusCode)
	}

	if p.logger != nil {
		p.logger.Debug("image generated", "prompt", prompt)
	}
	return imageURL, nil
}
