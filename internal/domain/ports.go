package domain

import (
	"context"
	"time"
)

// CompletionRequest carries everything one model call needs. Turns are
// optional: classification-style calls send a bare prompt, persona replies
// send the transcript as well.
type CompletionRequest struct {
	System string
	Turns  []ConversationTurn
	Prompt string
}

// CompletionClient defines how the core interacts with the text-completion
// service. Errors wrap ErrRateLimited / ErrUpstreamAuth / ErrUnavailable so
// callers can tell a quota problem from a config problem.
type CompletionClient interface {
	Generate(ctx context.Context, req CompletionRequest) (string, error)
}

// NewsQuery mirrors the upstream "everything" search surface.
type NewsQuery struct {
	Query          string
	FromDays       int
	Language       string
	SearchIn       string
	SortBy         string
	PageSize       int
	Page           int
	Sources        string
	Domains        string
	ExcludeDomains string
}

// NewsSource fetches recent articles over HTTP.
type NewsSource interface {
	Search(ctx context.Context, q NewsQuery) ([]Article, error)
	TopHeadlines(ctx context.Context, country, category string, pageSize int) ([]Article, error)
}

// SportsSource fetches scheduled and completed events for a league or day.
type SportsSource interface {
	EventsForDay(ctx context.Context, date, sport, league string) ([]SportsGame, error)
	RecentLeagueEvents(ctx context.Context, league string, limit int) ([]SportsGame, error)
}

// SessionStore persists chat session transcripts.
type SessionStore interface {
	CreateSession(ctx context.Context, session *ChatSession) error
	UpdateSession(ctx context.Context, session *ChatSession) error
	GetSession(ctx context.Context, id, ownerID string) (*ChatSession, error)
	ListSessionsByOwner(ctx context.Context, ownerID string, limit int) ([]*ChatSession, error)
}

// UserStore persists user profiles and preferences, keyed by normalized
// email.
type UserStore interface {
	GetProfile(ctx context.Context, email string) (*UserProfile, error)
	UpsertProfile(ctx context.Context, profile *UserProfile) error
	GetPreferences(ctx context.Context, email string) (*UserPreferences, error)
	UpsertPreferences(ctx context.Context, prefs *UserPreferences) error
}

// Cache is the injected, thread-safe cache used by the visualization probe.
// Implementations must be safe for concurrent use; redundant population for
// the same key is acceptable (idempotent, last write wins).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}
