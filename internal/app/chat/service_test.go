package chat_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsnest/nest-agent/internal/adapters/llm"
	"github.com/newsnest/nest-agent/internal/app/chat"
	"github.com/newsnest/nest-agent/internal/app/enrichment"
	"github.com/newsnest/nest-agent/internal/app/moderation"
	"github.com/newsnest/nest-agent/internal/app/postprocess"
	"github.com/newsnest/nest-agent/internal/app/routing"
	"github.com/newsnest/nest-agent/internal/domain"
)

type fakeNewsSource struct {
	articles []domain.Article
	err      error
}

func (f *fakeNewsSource) Search(ctx context.Context, q domain.NewsQuery) ([]domain.Article, error) {
	return f.articles, f.err
}

func (f *fakeNewsSource) TopHeadlines(ctx context.Context, country, category string, pageSize int) ([]domain.Article, error) {
	return f.articles, f.err
}

// scriptedCompletion answers each pipeline stage by recognizing its prompt.
type script struct {
	routeReply   string
	personaReply string
	personaErr   error
}

func (s script) client() *llm.MockClient {
	mock := llm.NewMockClient()
	mock.GenerateFunc = func(ctx context.Context, req domain.CompletionRequest) (string, error) {
		if req.System != "" {
			return s.personaReply, s.personaErr
		}
		switch {
		case strings.Contains(req.Prompt, "content moderation assistant"):
			return `{"is_appropriate": true, "reason": null, "severity": "low"}`, nil
		case strings.Contains(req.Prompt, "You are the router"):
			return s.routeReply, nil
		case strings.Contains(req.Prompt, "recent news articles"):
			return "A short news summary.", nil
		case strings.Contains(req.Prompt, "headline classifier"):
			return `{"clean_headline": "", "outlet_type": "broadcaster", "topic_domain": "sports", "is_opinion": false, "lean": "center"}`, nil
		default:
			return "ok", nil
		}
	}
	return mock
}

func newTestService(t *testing.T, s script, news domain.NewsSource) *chat.Service {
	t.Helper()

	completion := s.client()
	return chat.NewService(
		completion,
		moderation.New(completion),
		routing.NewRouter(completion),
		enrichment.NewNewsProbe(news, completion),
		enrichment.NewVisualizationProbe(completion, nil, time.Hour),
		enrichment.NewSportsProbe(nil),
		postprocess.NewHeadlineClassifier(completion),
	)
}

func TestChatUnknownAgent(t *testing.T) {
	svc := newTestService(t, script{personaReply: "hi"}, nil)

	_, err := svc.Chat(context.Background(), chat.ChatInput{Agent: "owl", Message: "hello"})
	assert.ErrorIs(t, err, chat.ErrUnknownAgent)
}

func TestChatModerationBlocks(t *testing.T) {
	svc := newTestService(t, script{personaReply: "hi"}, nil)

	_, err := svc.Chat(context.Background(), chat.ChatInput{
		Agent:   "polly",
		Message: "what the f**k",
	})

	var modErr *chat.ModerationError
	require.ErrorAs(t, err, &modErr)
	assert.NotEmpty(t, modErr.Reason)
}

func TestChatDirectReply(t *testing.T) {
	svc := newTestService(t, script{personaReply: "Squawk! Here's the scoop."}, nil)

	out, err := svc.Chat(context.Background(), chat.ChatInput{
		Agent:   "pixel",
		Message: "how do computers think?",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PersonaPixel, out.Agent)
	assert.Equal(t, "Pixel the Pigeon", out.AgentName)
	assert.Equal(t, "Squawk! Here's the scoop.", out.Response)
	assert.False(t, out.HasArticleReference)
	assert.Empty(t, out.RoutingMessage)
}

func TestChatAndRouteHandsOffWithAnnouncement(t *testing.T) {
	svc := newTestService(t, script{
		routeReply:   `{"target_agent": "flynn", "confidence": "high", "reasoning": "sports", "needs_routing": true, "topic_change": true}`,
		personaReply: "The Celtics took the title!",
	}, nil)

	history := []domain.ConversationTurn{
		{Role: domain.RoleUser, Text: "tell me about chips"},
		{Role: domain.RoleAssistant, Text: "chips are neat", AgentTag: "pixel"},
	}

	out, err := svc.ChatAndRoute(context.Background(), chat.ChatInput{
		Message: "who won the NBA finals?",
		History: history,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PersonaFlynn, out.Agent)
	assert.Equal(t, domain.PersonaPixel, out.RoutedFrom)
	assert.Contains(t, out.RoutingMessage, "Flynn the Falcon")
	assert.Equal(t, "The Celtics took the title!", out.Response)
}

func TestChatAndRouteStayingPutIsSilent(t *testing.T) {
	svc := newTestService(t, script{
		routeReply:   `{"target_agent": "flynn", "confidence": "high", "reasoning": "still sports", "needs_routing": true, "topic_change": true}`,
		personaReply: "Another great game!",
	}, nil)

	history := []domain.ConversationTurn{
		{Role: domain.RoleUser, Text: "nba recap please"},
		{Role: domain.RoleAssistant, Text: "here it is", AgentTag: "flynn"},
	}

	out, err := svc.ChatAndRoute(context.Background(), chat.ChatInput{
		Message: "and the night before?",
		History: history,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PersonaFlynn, out.Agent)
	assert.Empty(t, out.RoutingMessage)
	assert.Empty(t, string(out.RoutedFrom))
}

func TestChatHeadlineRequestBecomesCards(t *testing.T) {
	news := &fakeNewsSource{articles: []domain.Article{
		{Title: "Markets rally after rate cut - CNN", SourceName: "CNN", URL: "https://cnn.com/x"},
		{Title: "Storm heads up the coast - BBC News", SourceName: "BBC News", URL: "https://bbc.co.uk/y"},
	}}
	svc := newTestService(t, script{personaReply: "prose that will be replaced"}, news)

	out, err := svc.Chat(context.Background(), chat.ChatInput{
		Agent:   "polly",
		Message: "what's today's top headlines?",
	})
	require.NoError(t, err)

	host, _ := domain.PersonaByID(domain.HostPersona)
	assert.Equal(t, host.HeadlineHeader, out.Response)
	require.Len(t, out.Articles, 2)
	assert.Equal(t, "Markets rally after rate cut", out.Articles[0].Headline)
	assert.Equal(t, "CNN", out.Articles[0].SourceName)
	assert.True(t, out.HasArticleReference)
}

func TestChatCompletionFailurePropagates(t *testing.T) {
	svc := newTestService(t, script{personaErr: errors.New("model down")}, nil)

	_, err := svc.Chat(context.Background(), chat.ChatInput{
		Agent:   "cato",
		Message: "how does a bill become law?",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model down")
}

func TestRouteOnlySkipsGeneration(t *testing.T) {
	svc := newTestService(t, script{
		routeReply:   `{"target_agent": "cato", "confidence": "medium", "reasoning": "civics", "needs_routing": true, "topic_change": false}`,
		personaReply: "should never be used",
	}, nil)

	decision, err := svc.RouteOnly(context.Background(), chat.ChatInput{
		Message: "explain the electoral college",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PersonaCato, decision.Target)
	assert.True(t, decision.NeedsRouting)
	assert.Empty(t, decision.RoutingMessage)
}
