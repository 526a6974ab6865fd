package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsnest/nest-agent/internal/domain"
)

const okBody = `{
	"status": "ok",
	"totalResults": 1,
	"articles": [{
		"source": {"id": "cnn", "name": "CNN"},
		"title": "Markets rally after rate cut",
		"description": "Stocks climbed on the announcement.",
		"url": "https://cnn.com/markets",
		"publishedAt": "2026-08-28T09:00:00Z"
	}]
}`

func newTestClient(serverURL string) *Client {
	c := NewClientWithBaseURL("test-key", serverURL)
	c.sleep = func(time.Duration) {}
	return c
}

func TestSearchParsesArticles(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/everything", r.URL.Path)
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(okBody))
	}))
	defer srv.Close()

	articles, err := newTestClient(srv.URL).Search(context.Background(), domain.NewsQuery{
		Query:    "markets",
		FromDays: 3,
		PageSize: 5,
	})
	require.NoError(t, err)
	require.Len(t, articles, 1)

	assert.Equal(t, "markets", gotQuery)
	assert.Equal(t, "Markets rally after rate cut", articles[0].Title)
	assert.Equal(t, "CNN", articles[0].SourceName)
	assert.Equal(t, 2026, articles[0].PublishedAt.Year())
}

func TestSearchRetriesRateLimit(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(okBody))
	}))
	defer srv.Close()

	articles, err := newTestClient(srv.URL).Search(context.Background(), domain.NewsQuery{Query: "x"})
	require.NoError(t, err)
	assert.Len(t, articles, 1)
	assert.Equal(t, 3, attempts)
}

func TestSearchGivesUpAfterMaxAttempts(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Search(context.Background(), domain.NewsQuery{Query: "x"})
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, maxAttempts, attempts)
}

func TestSearchNeverRetriesAuthFailure(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Search(context.Background(), domain.NewsQuery{Query: "x"})
	assert.ErrorIs(t, err, domain.ErrUpstreamAuth)
	assert.Equal(t, 1, attempts)
}

func TestSearchUpstreamErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "error", "code": "parameterInvalid", "message": "bad from date"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Search(context.Background(), domain.NewsQuery{Query: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parameterInvalid")
}

func TestSearchMissingKey(t *testing.T) {
	c := NewClientWithBaseURL("", "http://unused")
	_, err := c.Search(context.Background(), domain.NewsQuery{Query: "x"})
	assert.ErrorIs(t, err, domain.ErrUpstreamAuth)
}

func TestTopHeadlinesDefaultsCountry(t *testing.T) {
	var gotCountry string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/top-headlines", r.URL.Path)
		gotCountry = r.URL.Query().Get("country")
		w.Write([]byte(okBody))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).TopHeadlines(context.Background(), "", "technology", 5)
	require.NoError(t, err)
	assert.Equal(t, "us", gotCountry)
}
