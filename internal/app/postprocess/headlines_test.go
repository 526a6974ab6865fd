package postprocess_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsnest/nest-agent/internal/adapters/llm"
	"github.com/newsnest/nest-agent/internal/app/postprocess"
	"github.com/newsnest/nest-agent/internal/domain"
)

func TestIsHeadlineRequest(t *testing.T) {
	assert.True(t, postprocess.IsHeadlineRequest("What's today's top headlines?"))
	assert.True(t, postprocess.IsHeadlineRequest("give me the latest news"))
	assert.False(t, postprocess.IsHeadlineRequest("how do volcanoes work?"))
}

func TestCleanHeadlineStripsSuffix(t *testing.T) {
	got := postprocess.CleanHeadline("Lakers win thriller in overtime - ESPN", "ESPN")
	assert.Equal(t, "Lakers win thriller in overtime", got)
}

func TestCleanHeadlineStripsPrefix(t *testing.T) {
	got := postprocess.CleanHeadline("CNN: Markets rally after rate cut", "CNN")
	assert.Equal(t, "Markets rally after rate cut", got)
}

func TestCleanHeadlineKeepsInnerDashes(t *testing.T) {
	got := postprocess.CleanHeadline("Apple - Google deal under scrutiny - Reuters", "Reuters")
	assert.Equal(t, "Apple - Google deal under scrutiny", got)
}

func TestCleanHeadlineIsIdempotent(t *testing.T) {
	once := postprocess.CleanHeadline("Senate passes budget bill | The Washington Post", "The Washington Post")
	twice := postprocess.CleanHeadline(once, "The Washington Post")
	assert.Equal(t, once, twice)
	assert.Equal(t, "Senate passes budget bill", once)
}

func TestCleanHeadlineLeavesForeignOutletAlone(t *testing.T) {
	got := postprocess.CleanHeadline("Quakes strike region - BBC News", "CNN")
	assert.Equal(t, "Quakes strike region - BBC News", got)
}

func TestClassifyArticlesUsesVerdictTags(t *testing.T) {
	mock := llm.NewMockClient()
	mock.GenerateFunc = func(ctx context.Context, req domain.CompletionRequest) (string, error) {
		return `{"clean_headline": "Lakers win thriller in overtime", "outlet_type": "broadcaster", "topic_domain": "sports", "is_opinion": false, "lean": "center"}`, nil
	}
	h := postprocess.NewHeadlineClassifier(mock)

	cards := h.ClassifyArticles(context.Background(), []domain.Article{
		{Title: "Lakers win thriller in overtime - ESPN", SourceName: "ESPN", URL: "https://espn.com/x"},
	})

	require.Len(t, cards, 1)
	assert.Equal(t, "Lakers win thriller in overtime", cards[0].Headline)
	assert.Equal(t, "ESPN", cards[0].SourceName)
	assert.Equal(t, []string{"sports", "broadcaster", "center"}, cards[0].Tags)
}

func TestClassifyArticlesRejectsParaphrasedHeadline(t *testing.T) {
	mock := llm.NewMockClient()
	mock.GenerateFunc = func(ctx context.Context, req domain.CompletionRequest) (string, error) {
		return `{"clean_headline": "Lakers triumph in a close one", "outlet_type": "broadcaster", "topic_domain": "sports", "is_opinion": true, "lean": "unknown"}`, nil
	}
	h := postprocess.NewHeadlineClassifier(mock)

	cards := h.ClassifyArticles(context.Background(), []domain.Article{
		{Title: "Lakers win thriller in overtime - ESPN", SourceName: "ESPN"},
	})

	require.Len(t, cards, 1)
	// The verdict's rewritten headline is not verbatim, so the heuristic
	// cleanup stands.
	assert.Equal(t, "Lakers win thriller in overtime", cards[0].Headline)
	assert.Contains(t, cards[0].Tags, "opinion-piece")
	assert.NotContains(t, cards[0].Tags, "unknown")
}

func TestClassifyArticlesDegradesOnFailure(t *testing.T) {
	mock := llm.NewMockClient()
	mock.GenerateFunc = func(ctx context.Context, req domain.CompletionRequest) (string, error) {
		return "", errors.New("quota")
	}
	h := postprocess.NewHeadlineClassifier(mock)

	cards := h.ClassifyArticles(context.Background(), []domain.Article{
		{Title: "Markets rally after rate cut - CNN", SourceName: "CNN", URL: "https://cnn.com/x"},
	})

	require.Len(t, cards, 1)
	assert.Equal(t, "Markets rally after rate cut", cards[0].Headline)
	assert.Empty(t, cards[0].Tags)
}
