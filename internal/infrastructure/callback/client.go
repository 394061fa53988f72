package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"app-deployer/internal/application/port/output"
	"app-deployer/internal/domain/entity"
)

var _ output.CallbackPort = (*Client)(nil)

const (
	userAgent      = "LLM-Code-Deployment/1.0"
	maxLoggedBytes = 2048
)

// Client posts notification payloads as JSON. Deadlines come from the
// caller's context.
type Client struct {
	http   *http.Client
	logger output.LoggerPort
}

func NewClient(httpClient *http.Client, logger output.LoggerPort) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{http: httpClient, logger: logger}
}

func (c *Client) Post(ctx context.Context, url string, payload entity.NotificationPayload) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBytes))
	c.logger.Debug("Callback response", "url", url, "status", resp.StatusCode, "body", string(snippet))
	return resp.StatusCode, nil
}
