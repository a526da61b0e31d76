package stock

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const pixabayBaseURL = "https://pixabay.com/api/videos/"

// Pixabay is the secondary stock video source, used when the primary one is
// not connected or returns nothing.
type Pixabay struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewPixabay(apiKey string, logger *slog.Logger) *Pixabay {
	return &Pixabay{
		baseURL:    pixabayBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

func (p *Pixabay) WithBaseURL(u string) *Pixabay {
	p.baseURL = u
	return p
}

func (p *Pixabay) WithHTTPClient(hc *http.Client) *Pixabay {
	p.httpClient = hc
	return p
}

type pixabayResponse struct {
	Hits []struct {
		Videos struct {
			Medium struct {
				URL string `json:"url"`
			} `json:"medium"`
			Large struct {
				URL string `json:"url"`
			} `json:"large"`
		} `json:"videos"`
	} `json:"hits"`
}

func (p *Pixabay) SearchVideo(ctx context.Context, query, orientation string) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("stock provider is not connected")
	}

	params := url.Values{}
	params.Set("key", p.apiKey)
	params.Set("q", query)
	params.Set("per_page", "3")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("stock search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		tail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("stock provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(tail)))
	}

	var result pixabayResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode stock response: %w", err)
	}

	if len(result.Hits) == 0 {
		return "", nil
	}
	if u := result.Hits[0].Videos.Large.URL; u != "" {
		return u, nil
	}
	return result.Hits[0].Videos.Medium.URL, nil
}
