// Package scholar implements the publication-source collaborator against an
// OpenAlex-style works API.
package scholar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mkorneev/scholarmatch/internal/core/domain"
)

const defaultPerPage = 100

type Client struct {
	baseURL    string
	mailto     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New builds a client. requestsPerSecond throttles outgoing calls
// client-side; the upstream API rate-limits aggressively and a polite
// mailto contact is part of its usage policy.
func New(baseURL, mailto string, requestsPerSecond float64) *Client {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 5
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		mailto:     strings.TrimSpace(mailto),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// Fetch returns the publication list for one author id, most cited first.
// The client never retries; transient failures are classified into error
// kinds and the orchestrator decides whether to re-run.
func (c *Client) Fetch(ctx context.Context, sourceID string) ([]domain.Article, error) {
	if c.baseURL == "" {
		return nil, domain.WrapError(domain.ErrConfiguration, "fetch publications", errors.New("publication source base url is not set"))
	}
	sourceID = strings.TrimSpace(sourceID)
	if sourceID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "fetch publications", errors.New("empty source id"))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("publication source rate wait: %w", err)
	}

	query := url.Values{}
	query.Set("filter", "authorships.author.id:"+sourceID)
	query.Set("per-page", fmt.Sprintf("%d", defaultPerPage))
	query.Set("sort", "cited_by_count:desc")
	if c.mailto != "" {
		query.Set("mailto", c.mailto)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/works?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create works request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTransport, "fetch publications", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(sourceID, resp)
	}

	var payload worksResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, domain.WrapError(domain.ErrMalformedResponse, "fetch publications", err)
	}

	articles := make([]domain.Article, 0, len(payload.Results))
	for _, work := range payload.Results {
		title := strings.TrimSpace(work.Title)
		if title == "" {
			title = strings.TrimSpace(work.DisplayName)
		}
		if title == "" {
			continue
		}
		articles = append(articles, domain.Article{
			Title:         title,
			Year:          work.PublicationYear,
			CitationCount: work.CitedByCount,
		})
	}
	return articles, nil
}

type worksResponse struct {
	Results []workRecord `json:"results"`
}

type workRecord struct {
	Title           string `json:"title"`
	DisplayName     string `json:"display_name"`
	PublicationYear int    `json:"publication_year"`
	CitedByCount    int    `json:"cited_by_count"`
}

func classifyStatus(sourceID string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	detail := strings.TrimSpace(string(body))
	statusErr := fmt.Errorf("works status %s: %s", resp.Status, detail)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.WrapError(domain.ErrRateLimit, "fetch publications", statusErr)
	case resp.StatusCode >= http.StatusInternalServerError:
		return domain.WrapError(domain.ErrTransport, "fetch publications", statusErr)
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest:
		return domain.WrapError(domain.ErrInvalidInput, "fetch publications",
			fmt.Errorf("source id %q rejected: %w", sourceID, statusErr))
	default:
		return fmt.Errorf("fetch publications: %w", statusErr)
	}
}
