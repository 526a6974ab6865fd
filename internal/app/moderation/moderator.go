// Package moderation gates every inbound message before it reaches a persona.
package moderation

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/newsnest/nest-agent/internal/app/extract"
	"github.com/newsnest/nest-agent/internal/domain"
	"github.com/newsnest/nest-agent/internal/observability"
)

// Only the most obvious, intentionally obfuscated profanity is blocked by
// pattern. Everything else goes to the classifier, which knows the news
// context ("crime", "violence" etc. are legitimate here).
var profanityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bf\*+ck\w*\b`),
	regexp.MustCompile(`(?i)\bf\*+k\w*\b`),
	regexp.MustCompile(`(?i)\bs\*+it\w*\b`),
	regexp.MustCompile(`(?i)\bs\*+t\w*\b`),
}

const blockedMessage = "Your message contains inappropriate language. Please rephrase your question in a respectful way."

// Outcome distinguishes why a decision came out the way it did, so logs can
// tell a clean pass from a fail-open pass.
type Outcome string

const (
	OutcomeClean              Outcome = "clean"
	OutcomeBlockedPattern     Outcome = "blocked_pattern"
	OutcomeBlockedClassifier  Outcome = "blocked_classifier"
	OutcomeAllowedLowSeverity Outcome = "allowed_low_severity"
	OutcomeFailOpen           Outcome = "fail_open"
)

type Decision struct {
	Allowed bool
	// Reason is user-facing and never exposes classifier internals beyond
	// its short explanation.
	Reason  string
	Outcome Outcome
}

// Moderator is a two-stage filter: cheap regex patterns, then an optional
// model-assisted classifier. It never returns an error; any classifier
// failure fails open because moderation must not make the service unusable.
type Moderator struct {
	completion domain.CompletionClient
}

// New builds a Moderator. completion may be nil, in which case only the
// pattern stage runs.
func New(completion domain.CompletionClient) *Moderator {
	return &Moderator{completion: completion}
}

const classifierPrompt = `You are a content moderation assistant for a news app designed for teens and young adults.

Analyze this user message and determine if it contains INAPPROPRIATE INTENT:
1. Intentional profanity or vulgar language used to be offensive (not just words that might appear in news)
2. Sexually explicit content or requests for explicit material
3. Hate speech, discrimination, or harassment directed at individuals or groups
4. Requests for harmful or illegal content

User message: "%s"

CRITICAL CONTEXT - BE VERY PERMISSIVE:
- This is a NEWS APP - questions about ANY news topics are LEGITIMATE, even if they mention sensitive subjects
- Words like "crime", "violence", "drug" in news context are PERFECTLY FINE
- Only block if the USER'S INTENT is clearly to be offensive, rude, or inappropriate
- When in doubt, ALLOW the content

Respond ONLY with a JSON object in this exact format:
{"is_appropriate": true|false, "reason": "brief explanation if inappropriate, null if appropriate", "severity": "low|medium|high"}`

type classifierVerdict struct {
	IsAppropriate *bool  `json:"is_appropriate"`
	Reason        string `json:"reason"`
	Severity      string `json:"severity"`
}

// Moderate screens one message. Worst case it is a no-op pass-through.
func (m *Moderator) Moderate(ctx context.Context, message string) Decision {
	if strings.TrimSpace(message) == "" {
		return Decision{Allowed: true, Outcome: OutcomeClean}
	}

	log := observability.LoggerFromContext(ctx)

	for _, pattern := range profanityPatterns {
		if pattern.MatchString(message) {
			log.Info("moderation blocked message on pattern match")
			return Decision{Allowed: false, Reason: blockedMessage, Outcome: OutcomeBlockedPattern}
		}
	}

	if m.completion == nil {
		return Decision{Allowed: true, Outcome: OutcomeClean}
	}

	reply, err := m.completion.Generate(ctx, domain.CompletionRequest{
		Prompt: strings.Replace(classifierPrompt, "%s", message, 1),
	})
	if err != nil {
		log.Warn("moderation classifier unavailable, failing open", "error", err)
		return Decision{Allowed: true, Outcome: OutcomeFailOpen}
	}

	raw, ok := extract.FirstJSONObject(reply)
	if !ok {
		log.Warn("moderation classifier returned no JSON, failing open")
		return Decision{Allowed: true, Outcome: OutcomeFailOpen}
	}

	var verdict classifierVerdict
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil || verdict.IsAppropriate == nil {
		log.Warn("moderation classifier returned malformed JSON, failing open")
		return Decision{Allowed: true, Outcome: OutcomeFailOpen}
	}

	if *verdict.IsAppropriate {
		return Decision{Allowed: true, Outcome: OutcomeClean}
	}

	severity := strings.ToLower(verdict.Severity)
	if severity == "low" {
		log.Info("moderation low severity issue, allowing", "reason", verdict.Reason)
		return Decision{Allowed: true, Outcome: OutcomeAllowedLowSeverity}
	}

	// The classifier's reasoning stays in the logs; the user sees the same
	// non-judgmental rephrase prompt either way.
	log.Info("moderation blocked message", "severity", severity, "reason", verdict.Reason)
	return Decision{Allowed: false, Reason: blockedMessage, Outcome: OutcomeBlockedClassifier}
}
