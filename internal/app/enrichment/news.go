// Package enrichment injects time-sensitive facts (news, scores, chart or
// timeline data) into the prompt context before a persona replies. Every
// probe is optional and cheap to skip; none of them may block the turn.
package enrichment

import (
	"context"
	"fmt"
	"strings"

	"github.com/newsnest/nest-agent/internal/domain"
	"github.com/newsnest/nest-agent/internal/observability"
)

// ProbeStatus tells callers apart "nothing to do" from "upstream was down",
// even though both leave the turn unenriched.
type ProbeStatus string

const (
	ProbeHit         ProbeStatus = "hit"
	ProbeSkipped     ProbeStatus = "skipped"
	ProbeUnavailable ProbeStatus = "unavailable"
)

// newsKeywords suggest the user wants current news.
var newsKeywords = []string{
	"today", "recent", "latest", "news", "happened", "happening",
	"current", "update", "now", "this week", "headlines", "what's",
	"what is", "tell me about", "what happened", "any news",
}

// stop words stripped from the message before it becomes a search query.
var queryStopWords = map[string]bool{
	"what": true, "tell": true, "give": true, "show": true, "about": true,
	"the": true, "a": true, "an": true,
}

// NewsResult is the outcome of one news probe run.
type NewsResult struct {
	Status ProbeStatus
	// Context is the block appended to the outgoing prompt. Empty unless
	// Status is ProbeHit.
	Context string
	// Articles are the raw articles behind the summary, for headline cards.
	Articles []domain.Article
}

// NewsProbe fetches and summarizes topical news when the message warrants it.
type NewsProbe struct {
	news       domain.NewsSource
	completion domain.CompletionClient

	daysBack    int
	maxArticles int
}

func NewNewsProbe(news domain.NewsSource, completion domain.CompletionClient) *NewsProbe {
	return &NewsProbe{
		news:        news,
		completion:  completion,
		daysBack:    3,
		maxArticles: 5,
	}
}

// Run decides whether the message needs news context and, if so, fetches and
// summarizes it. Failures degrade stepwise: no summary falls back to the
// first article's description, no articles omits the context entirely.
func (p *NewsProbe) Run(ctx context.Context, message string, persona domain.Persona) NewsResult {
	if p.news == nil {
		return NewsResult{Status: ProbeSkipped}
	}

	if !p.shouldFetch(message, persona) {
		return NewsResult{Status: ProbeSkipped}
	}

	log := observability.LoggerFromContext(ctx)
	query := SearchQuery(message)

	articles, err := p.news.Search(ctx, domain.NewsQuery{
		Query:    query,
		FromDays: p.daysBack,
		PageSize: p.maxArticles,
		SortBy:   "publishedAt",
		Language: "en",
	})
	if err != nil {
		log.Warn("news probe fetch failed", "query", query, "error", err)
		return NewsResult{Status: ProbeUnavailable}
	}
	if len(articles) == 0 {
		log.Info("news probe found no articles", "query", query)
		return NewsResult{Status: ProbeSkipped}
	}
	if len(articles) > p.maxArticles {
		articles = articles[:p.maxArticles]
	}

	summary := p.summarize(ctx, articles, message)
	if summary == "" {
		return NewsResult{Status: ProbeSkipped, Articles: articles}
	}

	return NewsResult{
		Status:   ProbeHit,
		Context:  "\n\n[CURRENT NEWS CONTEXT]\n" + summary,
		Articles: articles,
	}
}

// shouldFetch triggers on temporal/news vocabulary, unconditionally for the
// host on any substantive message, and on a persona's own domain vocabulary.
func (p *NewsProbe) shouldFetch(message string, persona domain.Persona) bool {
	lower := strings.ToLower(strings.TrimSpace(message))
	if persona.AlwaysFetchNews {
		return len(lower) > 3
	}
	for _, kw := range newsKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	for _, kw := range persona.Keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func (p *NewsProbe) summarize(ctx context.Context, articles []domain.Article, query string) string {
	if p.completion == nil {
		return firstDescription(articles)
	}

	var formatted []string
	for i, a := range articles {
		entry := fmt.Sprintf("\n%d. %s", i+1, a.Title)
		if a.Description != "" {
			entry += "\n   " + a.Description
		}
		published := ""
		if !a.PublishedAt.IsZero() {
			published = a.PublishedAt.Format("2006-01-02")
		}
		entry += fmt.Sprintf("\n   Source: %s (%s)", a.SourceName, published)
		formatted = append(formatted, entry)
	}

	prompt := fmt.Sprintf(`The user asked about: "%s"

Here are recent news articles on this topic:
%s

Please provide a brief, age-appropriate summary (2-3 sentences) of the most important recent news on this topic.
Keep it factual, calm, and suitable for kids/teens. Focus on what happened and why it matters.
Don't include article numbers or sources in the summary - just the key information.`,
		query, strings.Join(formatted, "\n"))

	summary, err := p.completion.Generate(ctx, domain.CompletionRequest{Prompt: prompt})
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("news summarization failed, using first description", "error", err)
		return firstDescription(articles)
	}
	return strings.TrimSpace(summary)
}

func firstDescription(articles []domain.Article) string {
	if len(articles) > 0 {
		return articles[0].Description
	}
	return ""
}

// SearchQuery derives a search query from the message by stripping question
// words and short tokens.
func SearchQuery(message string) string {
	var kept []string
	for _, w := range strings.Fields(message) {
		trimmed := strings.Trim(w, "?!.,;:'\"")
		if len(trimmed) <= 2 || queryStopWords[strings.ToLower(trimmed)] {
			continue
		}
		kept = append(kept, trimmed)
	}
	if len(kept) == 0 {
		return strings.TrimSpace(message)
	}
	return strings.Join(kept, " ")
}
