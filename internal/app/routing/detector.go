// Package routing decides which persona answers a given message.
package routing

import (
	"github.com/newsnest/nest-agent/internal/domain"
)

// DetectCurrentAgent infers which persona was "active" purely from the
// client-supplied transcript. The most recent assistant turn with a persona
// tag wins; if none is tagged, the most recent user turn is scanned for
// domain vocabulary. This is a best-effort heuristic, not ground truth: the
// transcript is the only state carrier and tags depend on the client echoing
// them back intact.
func DetectCurrentAgent(history []domain.ConversationTurn) (domain.PersonaID, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		turn := history[i]
		if turn.Role != domain.RoleAssistant || turn.AgentTag == "" {
			continue
		}
		return domain.ResolvePersona(turn.AgentTag).ID, true
	}

	for i := len(history) - 1; i >= 0; i-- {
		turn := history[i]
		if turn.Role != domain.RoleUser {
			continue
		}
		if p, ok := domain.MatchPersonaKeywords(turn.Text); ok && p.ID != domain.HostPersona {
			return p.ID, true
		}
		break
	}

	return "", false
}
