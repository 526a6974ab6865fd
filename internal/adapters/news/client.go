package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/newsnest/nest-agent/internal/domain"
)

const (
	defaultBaseURL = "https://newsapi.org/v2"
	maxAttempts    = 3
)

// Client is a thin NewsAPI client covering the "everything" and
// "top-headlines" endpoints.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	sleep   func(time.Duration)
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 20 * time.Second},
		sleep:   time.Sleep,
	}
}

// NewClientWithBaseURL is used by tests to point the client at a stub server.
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	c := NewClient(apiKey)
	c.baseURL = baseURL
	return c
}

type apiResponse struct {
	Status       string       `json:"status"`
	Code         string       `json:"code"`
	Message      string       `json:"message"`
	TotalResults int          `json:"totalResults"`
	Articles     []apiArticle `json:"articles"`
}

type apiArticle struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

// Search calls the "everything" endpoint with flexible parameters.
func (c *Client) Search(ctx context.Context, q domain.NewsQuery) ([]domain.Article, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("newsapi: missing api key: %w", domain.ErrUpstreamAuth)
	}

	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("sortBy", defaultStr(q.SortBy, "publishedAt"))
	params.Set("language", defaultStr(q.Language, "en"))
	params.Set("pageSize", strconv.Itoa(defaultInt(q.PageSize, 50)))
	params.Set("page", strconv.Itoa(defaultInt(q.Page, 1)))
	if q.Query != "" {
		params.Set("q", q.Query)
	}
	if q.FromDays > 0 {
		params.Set("from", isoDateDaysAgo(q.FromDays))
	}
	if q.SearchIn != "" {
		params.Set("searchIn", q.SearchIn)
	}
	if q.Sources != "" {
		params.Set("sources", q.Sources)
	}
	if q.Domains != "" {
		params.Set("domains", q.Domains)
	}
	if q.ExcludeDomains != "" {
		params.Set("excludeDomains", q.ExcludeDomains)
	}

	return c.get(ctx, c.baseURL+"/everything?"+params.Encode())
}

// TopHeadlines calls the "top-headlines" endpoint.
func (c *Client) TopHeadlines(ctx context.Context, country, category string, pageSize int) ([]domain.Article, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("newsapi: missing api key: %w", domain.ErrUpstreamAuth)
	}

	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("pageSize", strconv.Itoa(defaultInt(pageSize, 10)))
	params.Set("country", defaultStr(country, "us"))
	if category != "" {
		params.Set("category", category)
	}

	return c.get(ctx, c.baseURL+"/top-headlines?"+params.Encode())
}

func (c *Client) get(ctx context.Context, fullURL string) ([]domain.Article, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		articles, err := c.getOnce(ctx, fullURL)
		if err == nil {
			return articles, nil
		}
		lastErr = err
		// Auth failures are configuration problems; retrying cannot help.
		if isPermanent(err) {
			return nil, err
		}
		if attempt < maxAttempts {
			c.sleep(500 * time.Millisecond * (1 << (attempt - 1)))
		}
	}
	return nil, lastErr
}

func (c *Client) getOnce(ctx context.Context, fullURL string) ([]domain.Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("newsapi: create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi: %w: %v", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("newsapi: %w", domain.ErrRateLimited)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("newsapi: status %d: %w", resp.StatusCode, domain.ErrUpstreamAuth)
	case resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("newsapi: status %d: %w", resp.StatusCode, domain.ErrUnavailable)
	case resp.StatusCode != http.StatusOK:
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("newsapi: unexpected status %d", resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("newsapi: decode response: %w", err)
	}
	if body.Status != "ok" {
		return nil, fmt.Errorf("newsapi: returned error %s: %s", body.Code, body.Message)
	}

	out := make([]domain.Article, 0, len(body.Articles))
	for _, a := range body.Articles {
		published, _ := time.Parse(time.RFC3339, a.PublishedAt)
		out = append(out, domain.Article{
			Title:       a.Title,
			Description: a.Description,
			Content:     a.Content,
			URL:         a.URL,
			SourceID:    a.Source.ID,
			SourceName:  a.Source.Name,
			PublishedAt: published,
		})
	}
	return out, nil
}

func isPermanent(err error) bool {
	return errors.Is(err, domain.ErrUpstreamAuth)
}

func isoDateDaysAgo(days int) string {
	return time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02")
}

func defaultStr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func defaultInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
