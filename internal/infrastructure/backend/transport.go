package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/inovadocs/trade-doc-review/internal/core/domain"
	"github.com/inovadocs/trade-doc-review/internal/infrastructure/resilience"
)

func (c *Client) getJSON(ctx context.Context, path, operation string, out any) error {
	body, err := resilience.Call(ctx, c.executor, "backend."+operation, func(callCtx context.Context) ([]byte, error) {
		return c.get(callCtx, path, operation)
	}, classifyBackendError)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return domain.WrapError(domain.ErrDocumentNotFound, "backend "+operation, err)
		}
		return resilience.WrapTemporary("backend "+operation, err, classifyBackendError)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path, operation string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, newHTTPStatusError(operation, resp)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", operation, err)
	}
	return body, nil
}

func newHTTPStatusError(operation string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	statusErr := &HTTPStatusError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       string(raw),
	}

	// FastAPI reports errors as {"detail": "..."}.
	var payload struct {
		Detail any `json:"detail"`
	}
	if json.Unmarshal(raw, &payload) == nil && payload.Detail != nil {
		statusErr.Body = fmt.Sprint(payload.Detail)
	}
	return statusErr
}
