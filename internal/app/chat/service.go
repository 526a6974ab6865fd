// Package chat runs the per-request decision pipeline: moderation →
// current-agent detection → routing → context enrichment → persona completion
// → response post-processing.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/newsnest/nest-agent/internal/adapters/llm"
	"github.com/newsnest/nest-agent/internal/app/enrichment"
	"github.com/newsnest/nest-agent/internal/app/moderation"
	"github.com/newsnest/nest-agent/internal/app/postprocess"
	"github.com/newsnest/nest-agent/internal/app/routing"
	"github.com/newsnest/nest-agent/internal/domain"
	"github.com/newsnest/nest-agent/internal/observability"
)

// ErrUnknownAgent is returned when the caller names a persona outside the
// closed set on an endpoint that requires an exact one.
var ErrUnknownAgent = errors.New("unknown agent")

// ModerationError carries the user-facing rephrase prompt for a blocked
// message.
type ModerationError struct {
	Reason string
}

func (e *ModerationError) Error() string { return e.Reason }

type Service struct {
	completion domain.CompletionClient
	moderator  *moderation.Moderator
	router     *routing.Router
	newsProbe  *enrichment.NewsProbe
	vizProbe   *enrichment.VisualizationProbe
	sports     *enrichment.SportsProbe
	headlines  *postprocess.HeadlineClassifier
}

func NewService(
	completion domain.CompletionClient,
	moderator *moderation.Moderator,
	router *routing.Router,
	newsProbe *enrichment.NewsProbe,
	vizProbe *enrichment.VisualizationProbe,
	sportsProbe *enrichment.SportsProbe,
	headlines *postprocess.HeadlineClassifier,
) *Service {
	return &Service{
		completion: completion,
		moderator:  moderator,
		router:     router,
		newsProbe:  newsProbe,
		vizProbe:   vizProbe,
		sports:     sportsProbe,
		headlines:  headlines,
	}
}

type ChatInput struct {
	Agent       string
	Message     string
	History     []domain.ConversationTurn
	UserName    string
	DisplayName string
}

type ChatOutput struct {
	Agent               domain.PersonaID
	AgentName           string
	Response            string
	HasArticleReference bool
	Chart               *domain.ChartData
	Timeline            *domain.TimelineData

	// Populated by ChatAndRoute only.
	RoutingMessage string
	RoutedFrom     domain.PersonaID
	Articles       []domain.ClassifiedArticle
	Scoreboard     []domain.SportsGame
}

// Chat moderates the message and answers with the named persona directly, no
// routing.
func (s *Service) Chat(ctx context.Context, in ChatInput) (*ChatOutput, error) {
	persona, ok := domain.PersonaByID(domain.PersonaID(strings.ToLower(strings.TrimSpace(in.Agent))))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAgent, in.Agent)
	}

	if decision := s.moderator.Moderate(ctx, in.Message); !decision.Allowed {
		return nil, &ModerationError{Reason: decision.Reason}
	}

	out, err := s.respond(ctx, persona, in)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RouteOnly produces the routing decision without generating a reply.
func (s *Service) RouteOnly(ctx context.Context, in ChatInput) (routing.Decision, error) {
	if decision := s.moderator.Moderate(ctx, in.Message); !decision.Allowed {
		return routing.Decision{}, &ModerationError{Reason: decision.Reason}
	}

	current := s.currentAgent(in)
	return s.router.Route(ctx, in.Message, in.History, current), nil
}

// ChatAndRoute is the primary endpoint: routing decision, enrichment, the
// routed persona's reply, and post-processing, in one turn.
func (s *Service) ChatAndRoute(ctx context.Context, in ChatInput) (*ChatOutput, error) {
	if decision := s.moderator.Moderate(ctx, in.Message); !decision.Allowed {
		return nil, &ModerationError{Reason: decision.Reason}
	}

	current := s.currentAgent(in)
	routed := s.router.Route(ctx, in.Message, in.History, current)

	persona, _ := domain.PersonaByID(routed.Target)

	out, err := s.respond(ctx, persona, in)
	if err != nil {
		return nil, err
	}

	out.RoutingMessage = routed.RoutingMessage
	if routed.NeedsRouting && current != "" && current != routed.Target {
		out.RoutedFrom = current
	}
	return out, nil
}

func (s *Service) currentAgent(in ChatInput) domain.PersonaID {
	if current, ok := routing.DetectCurrentAgent(in.History); ok {
		return current
	}
	if p, ok := domain.PersonaByID(domain.PersonaID(strings.ToLower(strings.TrimSpace(in.Agent)))); ok {
		return p.ID
	}
	return ""
}

// respond runs enrichment, the persona's own completion call, and
// post-processing. The completion call is load-bearing: its failure
// propagates. Every probe is advisory.
func (s *Service) respond(ctx context.Context, persona domain.Persona, in ChatInput) (*ChatOutput, error) {
	log := observability.LoggerFromContext(ctx).With("agent", persona.ID)

	news := s.newsProbe.Run(ctx, in.Message, persona)
	viz := s.vizProbe.Run(ctx, in.Message, persona, lastUserText(in.History))
	sports := s.sports.Run(ctx, in.Message, persona)

	prompt := in.Message
	if news.Status == enrichment.ProbeHit {
		prompt += news.Context
	}
	if sports.Status == enrichment.ProbeHit {
		prompt += sports.Context
	}
	hasViz := viz.Chart != nil || viz.Timeline != nil
	if hasViz {
		prompt += "\n\nA chart or timeline with the exact data is shown to the user alongside your reply. Talk about what it means in plain prose. Do not repeat the raw numbers, do not use lists or code blocks."
	}

	reply, err := s.completion.Generate(ctx, domain.CompletionRequest{
		System: llm.BuildSystemPrompt(persona, in.DisplayName),
		Turns:  in.History,
		Prompt: prompt,
	})
	if err != nil {
		log.Error("persona completion failed", "error", err)
		return nil, err
	}

	out := &ChatOutput{
		Agent:               persona.ID,
		AgentName:           persona.Name,
		Response:            reply,
		HasArticleReference: news.Status == enrichment.ProbeHit,
		Chart:               viz.Chart,
		Timeline:            viz.Timeline,
		Scoreboard:          sports.Games,
	}

	if hasViz {
		out.Response = postprocess.CleanWithVisualization(out.Response)
	} else if viz.Note != "" {
		out.Response = strings.TrimSpace(out.Response + "\n\n" + viz.Note)
	}

	// Headline requests swap prose for a short header plus classified
	// cards, one per fetched article.
	if postprocess.IsHeadlineRequest(in.Message) && len(news.Articles) > 0 {
		out.Response = persona.HeadlineHeader
		out.Articles = s.headlines.ClassifyArticles(ctx, news.Articles)
	}

	return out, nil
}

func lastUserText(history []domain.ConversationTurn) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == domain.RoleUser {
			return history[i].Text
		}
	}
	return ""
}
