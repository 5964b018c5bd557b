package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mkorneev/scholarmatch/internal/core/domain"
)

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WrapError(domain.ErrTransport, "ollama "+operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return classifyHTTPStatus(operation, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.WrapError(domain.ErrMalformedResponse, "decode "+operation+" response", err)
	}
	return nil
}

func classifyHTTPStatus(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	detail := strings.TrimSpace(string(body))
	statusErr := fmt.Errorf("ollama %s status %s: %s", operation, resp.Status, detail)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.WrapError(domain.ErrRateLimit, "ollama "+operation, statusErr)
	case resp.StatusCode >= http.StatusInternalServerError:
		return domain.WrapError(domain.ErrTransport, "ollama "+operation, statusErr)
	default:
		return statusErr
	}
}
