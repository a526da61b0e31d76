package tts

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io/v1"
	defaultModelID = "eleven_multilingual_v2"
)

// ElevenLabs synthesizes narration through the ElevenLabs text-to-speech
// API. Results are cached on disk keyed by voice and text, so re-assembling
// the same script does not re-bill every scene.
type ElevenLabs struct {
	baseURL    string
	apiKey     string
	cacheDir   string
	httpClient *http.Client
	logger     *slog.Logger
}

type Option func(*ElevenLabs)

func WithBaseURL(url string) Option {
	return func(e *ElevenLabs) { e.baseURL = strings.TrimRight(url, "/") }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(e *ElevenLabs) { e.httpClient = hc }
}

func NewElevenLabs(apiKey, cacheDir string, logger *slog.Logger, opts ...Option) *ElevenLabs {
	e := &ElevenLabs{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		cacheDir:   cacheDir,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type speechRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

func (e *ElevenLabs) Synthesize(ctx context.Context, text, voiceID string) (string, error) {
	if e.apiKey == "" {
		return "", fmt.Errorf("speech provider is not connected")
	}
	if text == "" {
		return "", fmt.Errorf("narration text is empty")
	}

	outPath := e.cachePath(text, voiceID)
	if _, err := os.Stat(outPath); err == nil {
		return outPath, nil
	}

	body, err := json.Marshal(speechRequest{Text: text, ModelID: defaultModelID})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", e.baseURL, voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", e.apiKey)
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("speech request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		tail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("speech provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(tail)))
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(filepath.Dir(outPath), ".tts-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write narration audio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), outPath); err != nil {
		return "", err
	}

	if e.logger != nil {
		e.logger.Debug("narration synthesized", "voice_id", voiceID, "path", outPath)
	}
	return outPath, nil
}

func (e *ElevenLabs) cachePath(text, voiceID string) string {
	h := sha256.Sum256([]byte(voiceID + "\x00" + text))
	return filepath.Join(e.cacheDir, "tts", hex.EncodeToString(h[:16])+".mp3")
}

// VerifyKey checks an API key against the user endpoint without spending
// synthesis credits.
func VerifyKey(ctx context.Context, baseURL, apiKey string, hc *http.Client) error {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/user", nil)
	if err != nil {
		return err
	}
	req.Header.Set("xi-api-key", apiKey)

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("speech provider rejected key: %d", resp.StatusCode)
	}
	return nil
}
