// Package backend reads analysed documents from the OCR backend over HTTP.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/inovadocs/trade-doc-review/internal/core/domain"
	"github.com/inovadocs/trade-doc-review/internal/infrastructure/resilience"
)

const defaultTimeout = 30 * time.Second

type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	Timeout            time.Duration
	HTTPClient         *http.Client
	ResilienceExecutor *resilience.Executor
}

func New(baseURL string, options Options) *Client {
	httpClient := options.HTTPClient
	if httpClient == nil {
		timeout := options.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		executor:   options.ResilienceExecutor,
	}
}

// FetchBundle reads detail, entities, keywords, text and insights of one
// document concurrently. Missing insights are not an error.
func (c *Client) FetchBundle(ctx context.Context, docID string) (*domain.Bundle, error) {
	docID = strings.TrimSpace(docID)
	if docID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "fetch bundle", errors.New("document id is required"))
	}
	base := "/documents/" + url.PathEscape(docID)

	var (
		detail     domain.DocumentDetail
		entities   []domain.Entity
		keywords   []domain.Keyword
		textBlocks []domain.TextBlock
		insights   json.RawMessage
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.getJSON(gctx, base, "detail", &detail) })
	g.Go(func() error { return c.getJSON(gctx, base+"/entities", "entities", &entities) })
	g.Go(func() error { return c.getJSON(gctx, base+"/keywords", "keywords", &keywords) })
	g.Go(func() error { return c.getJSON(gctx, base+"/text", "text", &textBlocks) })
	g.Go(func() error {
		err := c.getJSON(gctx, base+"/insights", "insights", &insights)
		if isStatus(err, http.StatusNotFound) {
			insights = nil
			return nil
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	bundle := &domain.Bundle{
		Detail:     &detail,
		TextBlocks: textBlocks,
		Entities:   entities,
		Keywords:   keywords,
	}
	if len(insights) > 0 {
		bundle.Insights = insights
	}
	if bundle.Detail.ID == "" {
		bundle.Detail.ID = docID
	}
	return bundle, nil
}
