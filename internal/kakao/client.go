package kakao

import (
	"bytes"
	"context"
	"encoding/base64"
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

// Sender delivers order messages to a vendor chat room.
type Sender interface {
	IsLoggedIn(ctx context.Context) (bool, error)
	SendText(ctx context.Context, channelID, text string) error
	SendImage(ctx context.Context, channelID string, png []byte) error
}

// Client talks to the chat relay over its JSON HTTP API.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
	pacer      *Pacer
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.KakaoTimeoutMs) * time.Millisecond},
		pacer:      NewPacer(cfg.KakaoRateRPS),
	}
}

func (c *Client) IsLoggedIn(ctx context.Context) (bool, error) {
	data, err := c.postJSON(ctx, "session/status", map[string]any{})
	if err != nil {
		return false, err
	}
	var status struct {
		LoggedIn bool `json:"loggedIn"`
	}
	if err := json.Unmarshal(data, &status); err != nil {
		return false, err
	}
	return status.LoggedIn, nil
}

func (c *Client) SendText(ctx context.Context, channelID, text string) error {
	if strings.TrimSpace(channelID) == "" {
		return errors.New("empty channel id")
	}
	_, err := c.postJSON(ctx, "message/text", map[string]any{
		"channelId": channelID,
		"text":      text,
	})
	return err
}

func (c *Client) SendImage(ctx context.Context, channelID string, png []byte) error {
	if strings.TrimSpace(channelID) == "" {
		return errors.New("empty channel id")
	}
	if len(png) == 0 {
		return errors.New("empty image")
	}
	_, err := c.postJSON(ctx, "message/image", map[string]any{
		"channelId": channelID,
		"imageB64":  base64.StdEncoding.EncodeToString(png),
	})
	return err
}

func (c *Client) postJSON(ctx context.Context, endpoint string, payload map[string]any) ([]byte, error) {
	if strings.TrimSpace(c.cfg.KakaoBaseURL) == "" {
		return nil, errors.New("missing KAKAO_BASE_URL")
	}

	u := strings.TrimRight(c.cfg.KakaoBaseURL, "/") + "/" + endpoint
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= 5; attempt++ {
		c.pacer.WaitTurn()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if c.cfg.KakaoToken != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.KakaoToken)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < 5 {
				backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
				time.Sleep(backoff)
				lastErr = fmt.Errorf("kakao status %d", resp.StatusCode)
				continue
			}
			return nil, fmt.Errorf("kakao api error: status=%d body=%s", resp.StatusCode, string(respBody))
		}

		var apiResp apiResponse
		if err := json.Unmarshal(respBody, &apiResp); err != nil {
			return nil, err
		}
		if !apiResp.Success {
			return nil, fmt.Errorf("kakao api unsuccessful: %s", apiResp.Message)
		}
		return apiResp.Data, nil
	}

	if lastErr == nil {
		lastErr = errors.New("kakao request failed")
	}
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
