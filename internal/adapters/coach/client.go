package coach

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fpellegrini/ritmo-engine/internal/core/domain"
)

var (
	ErrInvalidResponse = errors.New("invalid coach response")
)

const maxAttempts = 3

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client calls an external text-generation service to turn a habit
// analysis into a short motivational tip. Failures here are expected:
// callers fall back to templated tips.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errors.New("coach base url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		timeout:    cfg.Timeout,
		httpClient: &http.Client{},
	}, nil
}

// GenerateTip posts the analysis and returns the generated tip. The
// deadline covers all attempts: a slow service fails the whole call
// rather than stretching it.
func (c *Client) GenerateTip(ctx context.Context, analysis domain.CoachAnalysis) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		raw, err := c.doJSON(ctx, "/v1/tips", analysis)
		if err != nil {
			lastErr = err
			continue
		}

		tip, err := parseTip(raw)
		if err != nil {
			lastErr = err
			continue
		}
		return tip, nil
	}

	if lastErr == nil {
		lastErr = ErrInvalidResponse
	}
	return "", fmt.Errorf("%w: %v", domain.ErrCoachUnavailable, lastErr)
}

func (c *Client) doJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("coach request failed, status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return respBody, nil
}

func parseTip(raw []byte) (string, error) {
	var parsed struct {
		Tip string `json:"tip"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", err
	}

	tip := strings.TrimSpace(parsed.Tip)
	if tip == "" {
		return "", ErrInvalidResponse
	}
	return tip, nil
}
