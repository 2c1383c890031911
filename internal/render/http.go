package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"reorderflow/internal/config"
)

// TableRenderer turns a header row plus data rows into a PNG image.
type TableRenderer interface {
	RenderTable(ctx context.Context, title string, header []string, rows [][]string) ([]byte, error)
}

// Client renders tables through an HTTP image service.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.RenderTimeoutMs) * time.Millisecond},
	}
}

func (c *Client) RenderTable(ctx context.Context, title string, header []string, rows [][]string) ([]byte, error) {
	if strings.TrimSpace(c.cfg.RenderBaseURL) == "" {
		return nil, errors.New("missing RENDER_BASE_URL")
	}

	payload, err := json.Marshal(map[string]any{
		"title":  title,
		"header": header,
		"rows":   rows,
	})
	if err != nil {
		return nil, err
	}

	u := strings.TrimRight(c.cfg.RenderBaseURL, "/") + "/render/table"

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "image/png")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if resp.StatusCode >= 500 && attempt < 3 {
				backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
				time.Sleep(backoff)
				lastErr = fmt.Errorf("render status %d", resp.StatusCode)
				continue
			}
			return nil, fmt.Errorf("render api error: status=%d body=%s", resp.StatusCode, string(body))
		}

		if len(body) == 0 {
			return nil, errors.New("render api returned empty image")
		}
		return body, nil
	}

	if lastErr == nil {
		lastErr = errors.New("render request failed")
	}
	return nil, lastErr
}
