package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"yubot/app/config"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
)

var _ Engine = (*Client)(nil)

// Client talks to the reply engine service over HTTP.
type Client struct {
	baseURL        string
	showCandidates bool
	timeout        time.Duration
	httpClient     *http.Client
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return New(cfg.Engine), nil
}

func New(cfg config.Engine) *Client {
	return &Client{
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		showCandidates: cfg.ShowCandidates,
		timeout:        cfg.Timeout,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type registerRequest struct {
	ChatID string `json:"chat_id"`
}

type replyRequest struct {
	Context        string `json:"context"`
	ChatID         string `json:"chat_id"`
	ShowCandidates bool   `json:"show_candidates"`
}

type candidate struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

type replyResponse struct {
	Reply      string      `json:"reply"`
	Candidates []candidate `json:"candidates"`
}

func (c *Client) Register(ctx context.Context, id string) error {
	if err := c.post(ctx, "/register", registerRequest{ChatID: id}, nil); err != nil {
		return fmt.Errorf("failed to register chat id: %w", err)
	}

	return nil
}

func (c *Client) Reply(ctx context.Context, contextWindow, id string) (string, error) {
	var result replyResponse

	req := replyRequest{
		Context:        contextWindow,
		ChatID:         id,
		ShowCandidates: c.showCandidates,
	}

	if err := c.post(ctx, "/reply", req, &result); err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if len(result.Candidates) > 0 {
		slog.Debug("Engine candidates",
			"chat_id", id,
			"candidates", pie.Map(result.Candidates, func(c candidate) string {
				return fmt.Sprintf("%.3f %s", c.Score, c.Text)
			}))
	}

	return result.Reply, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
