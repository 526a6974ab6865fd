package postprocess

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/newsnest/nest-agent/internal/app/extract"
	"github.com/newsnest/nest-agent/internal/domain"
	"github.com/newsnest/nest-agent/internal/observability"
)

// headlineRequestPhrases mark messages whose reply should be rendered as
// headline cards under a short persona header.
var headlineRequestPhrases = []string{
	"headline", "headlines", "top news", "latest news", "today's news", "news today",
}

// IsHeadlineRequest reports whether the reply should become headline cards
// instead of free text.
func IsHeadlineRequest(message string) bool {
	lower := strings.ToLower(message)
	for _, phrase := range headlineRequestPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// HeadlineClassifier resolves each headline independently through a
// single-purpose classifier persona. Classification is advisory: any failure
// degrades to a heuristically cleaned headline with no tags.
type HeadlineClassifier struct {
	completion domain.CompletionClient
}

func NewHeadlineClassifier(completion domain.CompletionClient) *HeadlineClassifier {
	return &HeadlineClassifier{completion: completion}
}

const classifyHeadlineFmt = `You are a headline classifier. Analyze this news headline.

Headline: "%s"
Source: "%s"

Respond ONLY as JSON in this exact format:
{"clean_headline": "the headline with any outlet name stripped from the start or end, otherwise EXACTLY the original words - never paraphrase", "outlet_type": "newspaper|broadcaster|magazine|wire|blog|other", "topic_domain": "sports|technology|politics|science|business|entertainment|world|other", "is_opinion": true|false, "lean": "left|center|right|unknown"}`

type headlineVerdict struct {
	CleanHeadline string `json:"clean_headline"`
	OutletType    string `json:"outlet_type"`
	TopicDomain   string `json:"topic_domain"`
	IsOpinion     bool   `json:"is_opinion"`
	Lean          string `json:"lean"`
}

// ClassifyArticles builds one card per article.
func (h *HeadlineClassifier) ClassifyArticles(ctx context.Context, articles []domain.Article) []domain.ClassifiedArticle {
	out := make([]domain.ClassifiedArticle, 0, len(articles))
	for _, a := range articles {
		out = append(out, h.classifyOne(ctx, a))
	}
	return out
}

func (h *HeadlineClassifier) classifyOne(ctx context.Context, a domain.Article) domain.ClassifiedArticle {
	displayName := DisplaySourceName(a.SourceName, a.URL)
	card := domain.ClassifiedArticle{
		Headline:   CleanHeadline(a.Title, a.SourceName),
		URL:        a.URL,
		SourceName: displayName,
	}

	if h.completion == nil {
		return card
	}

	reply, err := h.completion.Generate(ctx, domain.CompletionRequest{
		Prompt: fmt.Sprintf(classifyHeadlineFmt, a.Title, a.SourceName),
	})
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("headline classification failed", "error", err)
		return card
	}

	raw, ok := extract.FirstJSONObject(reply)
	if !ok {
		return card
	}
	var verdict headlineVerdict
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		return card
	}

	// The classifier must strip, never rewrite: accept its headline only
	// when the remaining words are verbatim from the original.
	if verdict.CleanHeadline != "" && strings.Contains(a.Title, verdict.CleanHeadline) {
		card.Headline = verdict.CleanHeadline
	}

	card.Tags = buildTags(verdict)
	return card
}

// buildTags derives deduplicated, order-preserved tags from a verdict.
func buildTags(v headlineVerdict) []string {
	var tags []string
	seen := map[string]bool{}
	add := func(t string) {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || t == "other" || t == "unknown" || seen[t] {
			return
		}
		seen[t] = true
		tags = append(tags, t)
	}

	add(v.TopicDomain)
	add(v.OutletType)
	add(v.Lean)
	if v.IsOpinion {
		add("opinion-piece")
	}
	return tags
}

// separators that outlets use to glue their name onto a headline.
var outletSeparators = []string{" - ", " — ", " – ", " | ", ": "}

// CleanHeadline strips the outlet name from either end of a headline without
// ever paraphrasing the remaining text. Stripping is idempotent: once the
// outlet segment is gone a second pass finds nothing to remove.
func CleanHeadline(headline, sourceName string) string {
	title := strings.TrimSpace(headline)
	if title == "" {
		return title
	}

	variants := outletVariants(sourceName)
	if len(variants) == 0 {
		return title
	}

	// Prefix: "CNN: headline" or "CNN - headline".
	for _, sep := range outletSeparators {
		if i := strings.Index(title, sep); i > 0 {
			if matchesOutlet(title[:i], variants) {
				return strings.TrimSpace(title[i+len(sep):])
			}
		}
	}

	// Suffix: "headline - CNN" or "headline | CNN". Separator search runs
	// from the right so inner dashes survive.
	for _, sep := range outletSeparators {
		if sep == ": " {
			continue
		}
		if i := strings.LastIndex(title, sep); i > 0 {
			if matchesOutlet(title[i+len(sep):], variants) {
				return strings.TrimSpace(title[:i])
			}
		}
	}

	return title
}

func outletVariants(sourceName string) []string {
	name := strings.TrimSpace(sourceName)
	if name == "" {
		return nil
	}
	variants := []string{strings.ToLower(name)}
	display := strings.ToLower(DisplaySourceName(sourceName, ""))
	if display != variants[0] {
		variants = append(variants, display)
	}
	if trimmed := strings.TrimPrefix(variants[len(variants)-1], "the "); trimmed != variants[len(variants)-1] {
		variants = append(variants, trimmed)
	}
	return variants
}

func matchesOutlet(segment string, variants []string) bool {
	seg := strings.ToLower(strings.TrimSpace(segment))
	for _, v := range variants {
		if seg == v {
			return true
		}
	}
	return false
}
