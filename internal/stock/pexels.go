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

const pexelsBaseURL = "https://api.pexels.com/videos"

// Pexels searches the Pexels video API. Portrait projects search with
// orientation=vertical so the clip fills the frame without heavy cropping.
type Pexels struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewPexels(apiKey string, logger *slog.Logger) *Pexels {
	return &Pexels{
		baseURL:    pexelsBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

func (p *Pexels) WithBaseURL(u string) *Pexels {
	p.baseURL = strings.TrimRight(u, "/")
	return p
}

func (p *Pexels) WithHTTPClient(hc *http.Client) *Pexels {
	p.httpClient = hc
	return p
}

type pexelsResponse struct {
	Videos []struct {
		VideoFiles []struct {
			Link    string `json:"link"`
			Quality string `json:"quality"`
			Width   int    `json:"width"`
		} `json:"video_files"`
	} `json:"videos"`
}

func (p *Pexels) SearchVideo(ctx context.Context, query, orientation string) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("stock provider is not connected")
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", "1")
	if orientation != "" {
		params.Set("orientation", orientation)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("stock search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		tail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("stock provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(tail)))
	}

	var result pexelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode stock response: %w", err)
	}

	if len(result.Videos) == 0 {
		return "", nil
	}

	// Prefer the HD rendition, fall back to whatever is first.
	files := result.Videos[0].VideoFiles
	if len(files) == 0 {
		return "", nil
	}
	for _, f := range files {
		if f.Quality == "hd" {
			return f.Link, nil
		}
	}
	return files[0].Link, nil
}

// VerifyPexelsKey issues a one-result search to confirm the key works.
func VerifyPexelsKey(ctx context.Context, baseURL, apiKey string, hc *http.Client) error {
	if baseURL == "" {
		baseURL = pexelsBaseURL
	}
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimRight(baseURL, "/")+"/search?query=nature&per_page=1", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", apiKey)

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stock provider rejected key: %d", resp.StatusCode)
	}
	return nil
}
