// Package sessions persists chat transcripts and derives their metadata:
// a short generated title and the set of personas involved.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/newsnest/nest-agent/internal/domain"
	"github.com/newsnest/nest-agent/internal/observability"
)

const (
	titleTurnWindow = 12
	maxTitleRunes   = 60
	fallbackTitle   = "Chat with the News Nest"
)

type Service struct {
	store      domain.SessionStore
	completion domain.CompletionClient
	now        func() time.Time
}

func NewService(store domain.SessionStore, completion domain.CompletionClient) *Service {
	return &Service{store: store, completion: completion, now: time.Now}
}

type SaveInput struct {
	OwnerID   string
	SessionID string
	History   []domain.ConversationTurn
}

type SaveOutput struct {
	SessionID        string
	Title            string
	PersonasInvolved []domain.PersonaID
}

// Save upserts the transcript. An empty, unknown, or foreign SessionID starts
// a fresh session instead of failing; the caller always gets an id back.
func (s *Service) Save(ctx context.Context, in SaveInput) (*SaveOutput, error) {
	log := observability.LoggerFromContext(ctx)

	title := s.title(ctx, in.History)
	personas := personasInvolved(in.History)
	now := s.now().UTC()

	if in.SessionID != "" {
		existing, err := s.store.GetSession(ctx, in.SessionID, in.OwnerID)
		switch {
		case err == nil:
			existing.Messages = in.History
			existing.Title = title
			existing.PersonasInvolved = personas
			existing.UpdatedAt = now
			if err := s.store.UpdateSession(ctx, existing); err != nil {
				return nil, fmt.Errorf("update session %s: %w", existing.ID, err)
			}
			return &SaveOutput{SessionID: existing.ID, Title: title, PersonasInvolved: personas}, nil
		case errors.Is(err, domain.ErrSessionNotFound):
			log.Info("session id not found, starting a new session", "session_id", in.SessionID)
		default:
			return nil, fmt.Errorf("load session %s: %w", in.SessionID, err)
		}
	}

	session := &domain.ChatSession{
		ID:               uuid.NewString(),
		OwnerID:          in.OwnerID,
		Title:            title,
		Messages:         in.History,
		PersonasInvolved: personas,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &SaveOutput{SessionID: session.ID, Title: title, PersonasInvolved: personas}, nil
}

const historyLimit = 50

// History lists the owner's sessions, newest first.
func (s *Service) History(ctx context.Context, ownerID string) ([]*domain.ChatSession, error) {
	sessions, err := s.store.ListSessionsByOwner(ctx, ownerID, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("list sessions for %s: %w", ownerID, err)
	}
	return sessions, nil
}

// Get loads one session, scoped to its owner.
func (s *Service) Get(ctx context.Context, sessionID, ownerID string) (*domain.ChatSession, error) {
	session, err := s.store.GetSession(ctx, sessionID, ownerID)
	if err != nil {
		return nil, err
	}
	return session, nil
}

const titlePromptFmt = `Write a short title (5-9 words) for this chat between a user and news personas. Return only the title, no quotes, no punctuation at the end.

Transcript:
%s`

// title asks the model for a 5-9 word title over the tail of the transcript;
// any failure falls back to the first user utterance.
func (s *Service) title(ctx context.Context, history []domain.ConversationTurn) string {
	if s.completion == nil || len(history) == 0 {
		return heuristicTitle(history)
	}

	window := history
	if len(window) > titleTurnWindow {
		window = window[len(window)-titleTurnWindow:]
	}

	var b strings.Builder
	for _, turn := range window {
		role := "User"
		if turn.Role == domain.RoleAssistant {
			role = "Agent"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, turn.Text)
	}

	reply, err := s.completion.Generate(ctx, domain.CompletionRequest{
		Prompt: fmt.Sprintf(titlePromptFmt, b.String()),
	})
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("title generation failed, using heuristic", "error", err)
		return heuristicTitle(history)
	}

	title := strings.Trim(strings.TrimSpace(reply), `"'`)
	words := strings.Fields(title)
	if len(words) == 0 || len(words) > 12 {
		return heuristicTitle(history)
	}
	return title
}

// heuristicTitle truncates the first user utterance.
func heuristicTitle(history []domain.ConversationTurn) string {
	for _, turn := range history {
		if turn.Role != domain.RoleUser {
			continue
		}
		text := strings.TrimSpace(turn.Text)
		if text == "" {
			continue
		}
		runes := []rune(text)
		if len(runes) > maxTitleRunes {
			return strings.TrimSpace(string(runes[:maxTitleRunes])) + "..."
		}
		return text
	}
	return fallbackTitle
}

// personasInvolved collects the distinct personas behind the assistant turns,
// in order of first appearance. Untagged assistant turns count as the host.
func personasInvolved(history []domain.ConversationTurn) []domain.PersonaID {
	var out []domain.PersonaID
	seen := map[domain.PersonaID]bool{}
	for _, turn := range history {
		if turn.Role != domain.RoleAssistant {
			continue
		}
		id := domain.ResolvePersona(turn.AgentTag).ID
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		out = append(out, domain.HostPersona)
	}
	return out
}
