package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/newsnest/nest-agent/internal/domain"
)

// Store keeps sessions, profiles, and preferences in mutex-guarded maps. It
// backs dev mode and tests; one value implements all the storage ports.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*domain.ChatSession
	profiles map[string]*domain.UserProfile
	prefs    map[string]*domain.UserPreferences
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*domain.ChatSession),
		profiles: make(map[string]*domain.UserProfile),
		prefs:    make(map[string]*domain.UserPreferences),
	}
}

func (s *Store) CreateSession(ctx context.Context, session *domain.ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *session
	s.sessions[session.ID] = &cp
	return nil
}

func (s *Store) UpdateSession(ctx context.Context, session *domain.ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; !exists {
		return domain.ErrSessionNotFound
	}
	cp := *session
	s.sessions[session.ID] = &cp
	return nil
}

func (s *Store) GetSession(ctx context.Context, id, ownerID string) (*domain.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok || sess.OwnerID != ownerID {
		return nil, domain.ErrSessionNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *Store) ListSessionsByOwner(ctx context.Context, ownerID string, limit int) ([]*domain.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ChatSession
	for _, sess := range s.sessions {
		if sess.OwnerID == ownerID {
			cp := *sess
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) GetProfile(ctx context.Context, email string) (*domain.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[normalize(email)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) UpsertProfile(ctx context.Context, profile *domain.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *profile
	cp.Email = normalize(profile.Email)
	// First write wins for CreatedAt, matching the document store's
	// set-on-insert semantics.
	if existing, ok := s.profiles[cp.Email]; ok {
		cp.CreatedAt = existing.CreatedAt
	}
	s.profiles[cp.Email] = &cp
	return nil
}

func (s *Store) GetPreferences(ctx context.Context, email string) (*domain.UserPreferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.prefs[normalize(email)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) UpsertPreferences(ctx context.Context, prefs *domain.UserPreferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *prefs
	cp.Email = normalize(prefs.Email)
	s.prefs[cp.Email] = &cp
	return nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
