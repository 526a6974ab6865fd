package enrichment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/newsnest/nest-agent/internal/app/extract"
	"github.com/newsnest/nest-agent/internal/domain"
	"github.com/newsnest/nest-agent/internal/observability"
)

const (
	minChartPoints    = 4
	maxChartPoints    = 10
	minTimelineEvents = 5
	maxTimelineEvents = 10
)

// dataLiteracyNote is shown instead of fabricated numbers when generation
// yields nothing usable.
const dataLiteracyNote = "I looked for solid numbers to chart this, but I couldn't find data I trust enough to draw. A good chart needs real data behind it, so instead of making numbers up, let's talk it through in words!"

// VisualizationIntent is the classified request: what to draw and about what.
type VisualizationIntent struct {
	NeedsVisualization bool
	Kind               string // "chart" | "timeline"
	ChartType          domain.ChartType
	Topic              string
}

// VisualizationResult carries at most one of Chart or Timeline; Note is the
// data-literacy fallback when intent was detected but generation failed.
type VisualizationResult struct {
	Status   ProbeStatus
	Chart    *domain.ChartData
	Timeline *domain.TimelineData
	Note     string
}

// VisualizationProbe decides whether a chart or timeline is wanted and
// generates bounded structured data for it, caching results so repeated
// questions don't repeat model calls.
type VisualizationProbe struct {
	completion domain.CompletionClient
	cache      domain.Cache
	cacheTTL   time.Duration
}

func NewVisualizationProbe(completion domain.CompletionClient, cache domain.Cache, ttl time.Duration) *VisualizationProbe {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &VisualizationProbe{completion: completion, cache: cache, cacheTTL: ttl}
}

// Heuristic patterns for common phrasings; these short-circuit the model
// call entirely.
var (
	lineChartPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bover the (past|last) \d+ (years?|months?|decades?)\b`),
		regexp.MustCompile(`(?i)\btrends? (of|in|for)\b`),
		regexp.MustCompile(`(?i)\bover time\b`),
		regexp.MustCompile(`(?i)\bgrowth of\b`),
	}
	timelinePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\btimeline (of|for)\b`),
		regexp.MustCompile(`(?i)\bhistory of\b`),
		regexp.MustCompile(`(?i)\bkey events\b`),
	}
	barChartPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bcompare\b`),
		regexp.MustCompile(`(?i)\bvs\.?\b`),
		regexp.MustCompile(`(?i)\bversus\b`),
		regexp.MustCompile(`(?i)\bby (country|state|region|team|company)\b`),
	}
	pieChartPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bshare of\b`),
		regexp.MustCompile(`(?i)\bbreakdown of\b`),
		regexp.MustCompile(`(?i)\bproportion of\b`),
	}
	visualizationHints = regexp.MustCompile(`(?i)\b(chart|graph|plot|visuali[sz]e|timeline|diagram)\b`)
)

// Run classifies intent and generates the requested structure. Only personas
// flagged for visualization ever reach this.
func (p *VisualizationProbe) Run(ctx context.Context, message string, persona domain.Persona, convContext string) VisualizationResult {
	if !persona.SupportsVisualization {
		return VisualizationResult{Status: ProbeSkipped}
	}

	intent := p.DetectIntent(ctx, message)
	if !intent.NeedsVisualization {
		return VisualizationResult{Status: ProbeSkipped}
	}

	log := observability.LoggerFromContext(ctx)

	key := cacheKey(intent.Kind, intent.Topic, convContext)
	if cached, ok := p.cacheGet(ctx, key, intent.Kind); ok {
		log.Info("visualization cache hit", "kind", intent.Kind, "topic", intent.Topic)
		return cached
	}

	var result VisualizationResult
	switch intent.Kind {
	case "timeline":
		timeline := p.generateTimeline(ctx, intent.Topic, convContext)
		if timeline == nil {
			return VisualizationResult{Status: ProbeHit, Note: dataLiteracyNote}
		}
		result = VisualizationResult{Status: ProbeHit, Timeline: timeline}
	default:
		chart := p.generateChart(ctx, intent.Topic, intent.ChartType, convContext)
		if chart == nil {
			return VisualizationResult{Status: ProbeHit, Note: dataLiteracyNote}
		}
		result = VisualizationResult{Status: ProbeHit, Chart: chart}
	}

	p.cacheSet(ctx, key, result)
	return result
}

// DetectIntent classifies the message. Cheap keyword heuristics handle the
// common phrasings without a model call; only ambiguous phrasing falls
// through to the classifier.
func (p *VisualizationProbe) DetectIntent(ctx context.Context, message string) VisualizationIntent {
	for _, re := range timelinePatterns {
		if re.MatchString(message) {
			return VisualizationIntent{NeedsVisualization: true, Kind: "timeline", Topic: topicFrom(message)}
		}
	}
	for _, re := range lineChartPatterns {
		if re.MatchString(message) {
			return VisualizationIntent{NeedsVisualization: true, Kind: "chart", ChartType: domain.ChartLine, Topic: topicFrom(message)}
		}
	}
	for _, re := range barChartPatterns {
		if re.MatchString(message) {
			return VisualizationIntent{NeedsVisualization: true, Kind: "chart", ChartType: domain.ChartBar, Topic: topicFrom(message)}
		}
	}
	for _, re := range pieChartPatterns {
		if re.MatchString(message) {
			return VisualizationIntent{NeedsVisualization: true, Kind: "chart", ChartType: domain.ChartPie, Topic: topicFrom(message)}
		}
	}

	// No explicit visualization vocabulary at all: don't burn a model call.
	if !visualizationHints.MatchString(message) {
		return VisualizationIntent{}
	}

	return p.classifyIntent(ctx, message)
}

const intentPromptFmt = `Analyze this user message to determine if they want a chart, timeline, or other visualization.

User message: "%s"

Respond ONLY as JSON with keys:
{"needs_visualization": true|false, "visualization_type": "chart"|"timeline"|null, "chart_type": "line"|"bar"|"pie"|"area"|null, "topic": "brief description of what to visualize"}`

func (p *VisualizationProbe) classifyIntent(ctx context.Context, message string) VisualizationIntent {
	if p.completion == nil {
		return VisualizationIntent{}
	}

	reply, err := p.completion.Generate(ctx, domain.CompletionRequest{
		Prompt: fmt.Sprintf(intentPromptFmt, message),
	})
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("visualization intent classification failed", "error", err)
		return VisualizationIntent{}
	}

	raw, ok := extract.FirstJSONObject(reply)
	if !ok {
		return VisualizationIntent{}
	}

	var parsed struct {
		NeedsVisualization bool   `json:"needs_visualization"`
		VisualizationType  string `json:"visualization_type"`
		ChartType          string `json:"chart_type"`
		Topic              string `json:"topic"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil || !parsed.NeedsVisualization {
		return VisualizationIntent{}
	}

	intent := VisualizationIntent{
		NeedsVisualization: true,
		Kind:               parsed.VisualizationType,
		ChartType:          domain.ChartType(parsed.ChartType),
		Topic:              parsed.Topic,
	}
	if intent.Kind != "timeline" {
		intent.Kind = "chart"
		if intent.ChartType == "" {
			intent.ChartType = domain.ChartLine
		}
	}
	if intent.Topic == "" {
		intent.Topic = topicFrom("")
	}
	return intent
}

const chartPromptFmt = `Generate structured data for a %s chart about: %s
%s
Create realistic, educational data points that would help a teen understand this topic.
Include between %d and %d data points.
For line/area charts, include timestamps (years or dates) in ISO format (YYYY-MM-DD).
For bar/pie charts, omit "timestamp" or set it to null.

Respond ONLY as JSON in this exact format:
{"title": "Chart title", "x_axis_label": "X-axis label", "y_axis_label": "Y-axis label", "description": "Brief description", "data_points": [{"label": "Label", "value": 0.0, "timestamp": "2020-01-01"}]}`

func (p *VisualizationProbe) generateChart(ctx context.Context, topic string, chartType domain.ChartType, convContext string) *domain.ChartData {
	if p.completion == nil {
		return nil
	}
	if chartType == "" {
		chartType = domain.ChartLine
	}

	contextText := ""
	if convContext != "" {
		contextText = "\nContext: " + convContext + "\n"
	}

	reply, err := p.completion.Generate(ctx, domain.CompletionRequest{
		Prompt: fmt.Sprintf(chartPromptFmt, chartType, topic, contextText, minChartPoints, maxChartPoints),
	})
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("chart generation failed", "topic", topic, "error", err)
		return nil
	}

	raw, ok := extract.FirstJSONObject(reply)
	if !ok {
		return nil
	}

	var parsed struct {
		Title       string `json:"title"`
		XAxisLabel  string `json:"x_axis_label"`
		YAxisLabel  string `json:"y_axis_label"`
		Description string `json:"description"`
		DataPoints  []struct {
			Label     string  `json:"label"`
			Value     float64 `json:"value"`
			Timestamp string  `json:"timestamp"`
		} `json:"data_points"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil
	}
	if len(parsed.DataPoints) < minChartPoints {
		return nil
	}
	if len(parsed.DataPoints) > maxChartPoints {
		parsed.DataPoints = parsed.DataPoints[:maxChartPoints]
	}

	title := parsed.Title
	if title == "" {
		title = topic
	}

	chart := &domain.ChartData{
		Type:        chartType,
		Title:       title,
		XAxisLabel:  parsed.XAxisLabel,
		YAxisLabel:  parsed.YAxisLabel,
		Description: parsed.Description,
	}
	for _, pt := range parsed.DataPoints {
		chart.Points = append(chart.Points, domain.ChartPoint{
			Label:     pt.Label,
			Value:     pt.Value,
			Timestamp: pt.Timestamp,
		})
	}
	return chart
}

const timelinePromptFmt = `Generate structured data for a timeline about: %s
%s
Create %d-%d key events in chronological order that would help a teen understand this topic.
Use real historical events when possible, or realistic examples if it's a conceptual timeline.

Respond ONLY as JSON in this exact format:
{"title": "Timeline title", "description": "Brief description", "events": [{"date": "2020-01-01", "title": "Event title", "description": "Brief description", "category": "Optional category"}]}

Use ISO format dates (YYYY-MM-DD). Include events in chronological order.`

func (p *VisualizationProbe) generateTimeline(ctx context.Context, topic, convContext string) *domain.TimelineData {
	if p.completion == nil {
		return nil
	}

	contextText := ""
	if convContext != "" {
		contextText = "\nContext: " + convContext + "\n"
	}

	reply, err := p.completion.Generate(ctx, domain.CompletionRequest{
		Prompt: fmt.Sprintf(timelinePromptFmt, topic, contextText, minTimelineEvents, maxTimelineEvents),
	})
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("timeline generation failed", "topic", topic, "error", err)
		return nil
	}

	raw, ok := extract.FirstJSONObject(reply)
	if !ok {
		return nil
	}

	var parsed struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Events      []struct {
			Date        string `json:"date"`
			Title       string `json:"title"`
			Description string `json:"description"`
			Category    string `json:"category"`
		} `json:"events"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil
	}
	if len(parsed.Events) < minTimelineEvents {
		return nil
	}
	if len(parsed.Events) > maxTimelineEvents {
		parsed.Events = parsed.Events[:maxTimelineEvents]
	}

	title := parsed.Title
	if title == "" {
		title = topic
	}

	timeline := &domain.TimelineData{Title: title, Description: parsed.Description}
	for _, ev := range parsed.Events {
		timeline.Events = append(timeline.Events, domain.TimelineEvent{
			Date:        ev.Date,
			Title:       ev.Title,
			Description: ev.Description,
			Category:    ev.Category,
		})
	}
	return timeline
}

// topicFrom normalizes the message into a topic string for prompts and cache
// keys.
func topicFrom(message string) string {
	topic := strings.TrimSpace(strings.Trim(message, "?!."))
	if topic == "" {
		return "the requested topic"
	}
	return topic
}

func cacheKey(kind, topic, convContext string) string {
	digest := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(convContext))))
	normTopic := strings.ToLower(strings.Join(strings.Fields(topic), " "))
	return fmt.Sprintf("%s|%s|%s", kind, normTopic, hex.EncodeToString(digest[:8]))
}

type cachedViz struct {
	Chart    *domain.ChartData    `json:"chart,omitempty"`
	Timeline *domain.TimelineData `json:"timeline,omitempty"`
}

func (p *VisualizationProbe) cacheGet(ctx context.Context, key, kind string) (VisualizationResult, bool) {
	if p.cache == nil {
		return VisualizationResult{}, false
	}
	raw, ok := p.cache.Get(ctx, key)
	if !ok {
		return VisualizationResult{}, false
	}
	var cached cachedViz
	if err := json.Unmarshal(raw, &cached); err != nil {
		return VisualizationResult{}, false
	}
	if cached.Chart == nil && cached.Timeline == nil {
		return VisualizationResult{}, false
	}
	return VisualizationResult{Status: ProbeHit, Chart: cached.Chart, Timeline: cached.Timeline}, true
}

func (p *VisualizationProbe) cacheSet(ctx context.Context, key string, result VisualizationResult) {
	if p.cache == nil || (result.Chart == nil && result.Timeline == nil) {
		return
	}
	raw, err := json.Marshal(cachedViz{Chart: result.Chart, Timeline: result.Timeline})
	if err != nil {
		return
	}
	p.cache.Set(ctx, key, raw, p.cacheTTL)
}
