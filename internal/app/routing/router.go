package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/newsnest/nest-agent/internal/app/extract"
	"github.com/newsnest/nest-agent/internal/domain"
	"github.com/newsnest/nest-agent/internal/observability"
)

// Source records how a decision was reached, for observability.
type Source string

const (
	SourceModel     Source = "model"
	SourceHeuristic Source = "heuristic"
	SourceSticky    Source = "sticky"
)

// Decision is the router's output for one request.
type Decision struct {
	domain.RoutingDecision
	Source Source
}

// Router combines the current-agent heuristic, conversation context, and a
// model-assisted classification call (with a deterministic keyword fallback)
// into a routing decision. It never returns an error: classification failure
// degrades to the keyword table.
type Router struct {
	completion domain.CompletionClient
}

func NewRouter(completion domain.CompletionClient) *Router {
	return &Router{completion: completion}
}

// genericHeadlinePhrases mark "give me headlines" requests that carry no
// domain vocabulary of their own.
var genericHeadlinePhrases = []string{
	"headline", "headlines", "top news", "latest news", "today's news",
	"news today", "what's new", "whats new", "any news", "the news",
}

const classifyPromptFmt = `You are the router for a news chat with four personas:
- polly: Polly the Parrot, the main host, general news and anything that fits nowhere else
- flynn: Flynn the Falcon, sports
- pixel: Pixel the Pigeon, technology
- cato: Cato the Crane, politics and civics

Recent conversation:
%s
Current persona: %s
New user message: "%s"

Decide which persona should answer the new message.

Respond ONLY with a JSON object in this exact format:
{"target_agent": "polly|flynn|pixel|cato", "confidence": "low|medium|high", "reasoning": "one short sentence", "needs_routing": true|false, "topic_change": true|false}`

type classifierReply struct {
	TargetAgent  string `json:"target_agent"`
	Confidence   string `json:"confidence"`
	Reasoning    string `json:"reasoning"`
	NeedsRouting *bool  `json:"needs_routing"`
	TopicChange  bool   `json:"topic_change"`
}

// Route produces a routing decision for one message. currentAgent is empty
// when the detector found nothing.
func (r *Router) Route(ctx context.Context, message string, history []domain.ConversationTurn, currentAgent domain.PersonaID) Decision {
	log := observability.LoggerFromContext(ctx)

	// Deterministic override: a specialist stays on generic headline
	// requests so repeated "what's the headlines" doesn't bounce the user
	// between host and specialist.
	if currentAgent != "" && currentAgent != domain.HostPersona && isGenericHeadlineRequest(message) {
		log.Info("routing sticky on generic headline request", "agent", currentAgent)
		return finalize(Decision{
			RoutingDecision: domain.RoutingDecision{
				Target:     currentAgent,
				Confidence: domain.ConfidenceHigh,
				Reasoning:  "generic headline request stays with the active specialist",
			},
			Source: SourceSticky,
		}, currentAgent)
	}

	decision, ok := r.classify(ctx, message, history, currentAgent)
	if !ok {
		decision = keywordFallback(message)
		log.Info("routing fell back to keyword table", "target", decision.Target)
	}

	return finalize(decision, currentAgent)
}

func (r *Router) classify(ctx context.Context, message string, history []domain.ConversationTurn, currentAgent domain.PersonaID) (Decision, bool) {
	if r.completion == nil {
		return Decision{}, false
	}

	current := "none"
	if currentAgent != "" {
		current = string(currentAgent)
	}

	prompt := fmt.Sprintf(classifyPromptFmt, contextWindow(history, 3), current, message)
	reply, err := r.completion.Generate(ctx, domain.CompletionRequest{Prompt: prompt})
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("routing classifier unavailable", "error", err)
		return Decision{}, false
	}

	raw, ok := extract.FirstJSONObject(reply)
	if !ok {
		return Decision{}, false
	}

	var parsed classifierReply
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil || parsed.TargetAgent == "" {
		return Decision{}, false
	}

	target := domain.ResolvePersona(parsed.TargetAgent).ID
	needsRouting := true
	if parsed.NeedsRouting != nil {
		needsRouting = *parsed.NeedsRouting
	}

	return Decision{
		RoutingDecision: domain.RoutingDecision{
			Target:       target,
			Confidence:   parseConfidence(parsed.Confidence),
			Reasoning:    parsed.Reasoning,
			NeedsRouting: needsRouting,
			TopicChange:  parsed.TopicChange,
		},
		Source: SourceModel,
	}, true
}

// finalize applies the invariants that hold regardless of how the target was
// chosen: staying put and routing to the host are both no-ops, and hand-offs
// are silent unless the topic visibly changed.
func finalize(d Decision, currentAgent domain.PersonaID) Decision {
	if d.Target == currentAgent || d.Target == domain.HostPersona {
		d.NeedsRouting = false
	}
	if !d.NeedsRouting {
		d.TopicChange = false
		d.RoutingMessage = ""
		return d
	}
	if d.TopicChange {
		target, _ := domain.PersonaByID(d.Target)
		d.RoutingMessage = fmt.Sprintf("Let me bring in %s for this one! %s", target.Name, target.Emoji)
	}
	return d
}

func keywordFallback(message string) Decision {
	target := domain.HostPersona
	confidence := domain.ConfidenceLow
	reasoning := "no domain vocabulary matched; host absorbs ambiguity"

	if p, ok := domain.MatchPersonaKeywords(message); ok {
		target = p.ID
		confidence = domain.ConfidenceMedium
		reasoning = "matched " + string(p.ID) + " domain vocabulary"
	}

	return Decision{
		RoutingDecision: domain.RoutingDecision{
			Target:       target,
			Confidence:   confidence,
			Reasoning:    reasoning,
			NeedsRouting: target != domain.HostPersona,
		},
		Source: SourceHeuristic,
	}
}

// contextWindow renders the last n exchanges as a short textual transcript.
func contextWindow(history []domain.ConversationTurn, exchanges int) string {
	maxTurns := exchanges * 2
	start := len(history) - maxTurns
	if start < 0 {
		start = 0
	}

	var b strings.Builder
	for _, turn := range history[start:] {
		role := "user"
		if turn.Role == domain.RoleAssistant {
			role = "assistant"
			if turn.AgentTag != "" {
				role = turn.AgentTag
			}
		}
		text := turn.Text
		if runes := []rune(text); len(runes) > 300 {
			text = string(runes[:300]) + "…"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, text)
	}
	if b.Len() == 0 {
		return "(no prior conversation)\n"
	}
	return b.String()
}

func isGenericHeadlineRequest(message string) bool {
	lower := strings.ToLower(message)
	phrased := false
	for _, phrase := range genericHeadlinePhrases {
		if strings.Contains(lower, phrase) {
			phrased = true
			break
		}
	}
	if !phrased {
		return false
	}
	// Any specialist vocabulary makes the request specific again.
	if p, ok := domain.MatchPersonaKeywords(lower); ok && p.ID != domain.HostPersona {
		return false
	}
	return true
}

func parseConfidence(s string) domain.Confidence {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return domain.ConfidenceHigh
	case "medium":
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}
