package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Fetcher downloads remote assets into the cache directory. Local paths
// pass through untouched, and a previously fetched URL is served from disk.
type Fetcher struct {
	cacheDir   string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewFetcher(cacheDir string, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		cacheDir:   cacheDir,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		logger:     logger,
	}
}

func (f *Fetcher) WithHTTPClient(hc *http.Client) *Fetcher {
	f.httpClient = hc
	return f
}

// Fetch returns a local filesystem path for the asset at rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		if _, err := os.Stat(rawURL); err != nil {
			return "", fmt.Errorf("local asset %s: %w", rawURL, err)
		}
		return rawURL, nil
	}

	local := f.localPath(rawURL)
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(local), 0755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(filepath.Dir(local), ".fetch-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), local); err != nil {
		return "", err
	}

	if f.logger != nil {
		f.logger.Debug("asset fetched", "url", rawURL, "path", local)
	}
	return local, nil
}

func (f *Fetcher) localPath(rawURL string) string {
	h := sha256.Sum256([]byte(rawURL))
	name := hex.EncodeToString(h[:16])

	if u, err := url.Parse(rawURL); err == nil {
		if ext := filepath.Ext(u.Path); ext != "" && len(ext) <= 5 {
			name += ext
		}
	}
	return filepath.Join(f.cacheDir, "assets", name)
}
