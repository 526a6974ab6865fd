package enrichment_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsnest/nest-agent/internal/adapters/cache"
	"github.com/newsnest/nest-agent/internal/adapters/llm"
	"github.com/newsnest/nest-agent/internal/app/enrichment"
	"github.com/newsnest/nest-agent/internal/domain"
)

func chartReply(points int) string {
	var sb strings.Builder
	sb.WriteString(`{"title": "Renewable Energy", "x_axis_label": "Year", "y_axis_label": "Share", "description": "test", "data_points": [`)
	for i := 0; i < points; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `{"label": "%d", "value": %d.0, "timestamp": "%d-01-01"}`, 2015+i, 10+i, 2015+i)
	}
	sb.WriteString("]}")
	return sb.String()
}

func timelineReply(events int) string {
	var sb strings.Builder
	sb.WriteString(`{"title": "Space Race", "description": "test", "events": [`)
	for i := 0; i < events; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `{"date": "%d-01-01", "title": "event %d", "description": "d", "category": "c"}`, 1957+i, i)
	}
	sb.WriteString("]}")
	return sb.String()
}

func pixel(t *testing.T) domain.Persona {
	t.Helper()
	p, ok := domain.PersonaByID(domain.PersonaPixel)
	require.True(t, ok)
	return p
}

func TestVisualizationSkippedForUnsupportedPersona(t *testing.T) {
	mock := llm.NewMockClient()
	probe := enrichment.NewVisualizationProbe(mock, nil, time.Hour)

	host, _ := domain.PersonaByID(domain.HostPersona)
	res := probe.Run(context.Background(), "show me a chart of anything", host, "")

	assert.Equal(t, enrichment.ProbeSkipped, res.Status)
	assert.Equal(t, 0, mock.CallCount())
}

func TestVisualizationHeuristicLineChartWithoutClassifierCall(t *testing.T) {
	mock := llm.NewMockClient()
	mock.GenerateFunc = func(ctx context.Context, req domain.CompletionRequest) (string, error) {
		return chartReply(6), nil
	}
	probe := enrichment.NewVisualizationProbe(mock, nil, time.Hour)

	res := probe.Run(context.Background(), "renewable energy over the past 5 years", pixel(t), "")

	require.Equal(t, enrichment.ProbeHit, res.Status)
	require.NotNil(t, res.Chart)
	assert.Equal(t, domain.ChartLine, res.Chart.Type)
	assert.Len(t, res.Chart.Points, 6)
	// One generation call, zero classification calls.
	assert.Equal(t, 1, mock.CallCount())
}

func TestVisualizationNoHintsNoModelCall(t *testing.T) {
	mock := llm.NewMockClient()
	probe := enrichment.NewVisualizationProbe(mock, nil, time.Hour)

	res := probe.Run(context.Background(), "what's new with smartphones?", pixel(t), "")

	assert.Equal(t, enrichment.ProbeSkipped, res.Status)
	assert.Equal(t, 0, mock.CallCount())
}

func TestVisualizationRejectsTooFewPoints(t *testing.T) {
	mock := llm.NewMockClient()
	mock.GenerateFunc = func(ctx context.Context, req domain.CompletionRequest) (string, error) {
		return chartReply(3), nil
	}
	probe := enrichment.NewVisualizationProbe(mock, nil, time.Hour)

	res := probe.Run(context.Background(), "growth of electric cars over time", pixel(t), "")

	require.Equal(t, enrichment.ProbeHit, res.Status)
	assert.Nil(t, res.Chart)
	assert.NotEmpty(t, res.Note)
}

func TestVisualizationTruncatesExcessPoints(t *testing.T) {
	mock := llm.NewMockClient()
	mock.GenerateFunc = func(ctx context.Context, req domain.CompletionRequest) (string, error) {
		return chartReply(14), nil
	}
	probe := enrichment.NewVisualizationProbe(mock, nil, time.Hour)

	res := probe.Run(context.Background(), "trends in solar power", pixel(t), "")

	require.NotNil(t, res.Chart)
	assert.Len(t, res.Chart.Points, 10)
}

func TestVisualizationTimelineBounds(t *testing.T) {
	mock := llm.NewMockClient()
	mock.GenerateFunc = func(ctx context.Context, req domain.CompletionRequest) (string, error) {
		return timelineReply(4), nil
	}
	probe := enrichment.NewVisualizationProbe(mock, nil, time.Hour)

	res := probe.Run(context.Background(), "timeline of the space race", pixel(t), "")
	require.Equal(t, enrichment.ProbeHit, res.Status)
	assert.Nil(t, res.Timeline)
	assert.NotEmpty(t, res.Note)

	mock.GenerateFunc = func(ctx context.Context, req domain.CompletionRequest) (string, error) {
		return timelineReply(12), nil
	}
	res = probe.Run(context.Background(), "timeline of the moon landings", pixel(t), "")
	require.NotNil(t, res.Timeline)
	assert.Len(t, res.Timeline.Events, 10)
}

func TestVisualizationGenerationFailureYieldsNote(t *testing.T) {
	mock := llm.NewMockClient()
	mock.GenerateFunc = func(ctx context.Context, req domain.CompletionRequest) (string, error) {
		return "", errors.New("quota")
	}
	probe := enrichment.NewVisualizationProbe(mock, nil, time.Hour)

	res := probe.Run(context.Background(), "history of the internet", pixel(t), "")

	require.Equal(t, enrichment.ProbeHit, res.Status)
	assert.Nil(t, res.Chart)
	assert.Nil(t, res.Timeline)
	assert.NotEmpty(t, res.Note)
}

func TestVisualizationCacheHitSkipsGeneration(t *testing.T) {
	mock := llm.NewMockClient()
	mock.GenerateFunc = func(ctx context.Context, req domain.CompletionRequest) (string, error) {
		return chartReply(5), nil
	}
	probe := enrichment.NewVisualizationProbe(mock, cache.NewMemoryCache(16), time.Hour)

	first := probe.Run(context.Background(), "co2 emissions over the last 10 years", pixel(t), "climate chat")
	require.NotNil(t, first.Chart)
	callsAfterFirst := mock.CallCount()

	second := probe.Run(context.Background(), "co2 emissions over the last 10 years", pixel(t), "climate chat")
	require.NotNil(t, second.Chart)
	assert.Equal(t, callsAfterFirst, mock.CallCount())

	var a, b []byte
	var err error
	a, err = json.Marshal(first.Chart)
	require.NoError(t, err)
	b, err = json.Marshal(second.Chart)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}
