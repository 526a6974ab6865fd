// Package profiles manages user profiles and notification preferences, keyed
// by normalized email.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/newsnest/nest-agent/internal/domain"
)

// ErrInvalidEmail is returned for requests whose email is empty or has no
// "@" in it. Anything fancier belongs to the mail server.
var ErrInvalidEmail = errors.New("invalid email address")

type Service struct {
	store domain.UserStore
	now   func() time.Time
}

func NewService(store domain.UserStore) *Service {
	return &Service{store: store, now: time.Now}
}

// NormalizeEmail lowercases and trims; every store lookup goes through this
// so "Kid@Example.com " and "kid@example.com" are the same user.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func (s *Service) GetProfile(ctx context.Context, email string) (*domain.UserProfile, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	return s.store.GetProfile(ctx, email)
}

// UpsertProfile creates or updates the profile. CreatedAt is set once, on
// first insert.
func (s *Service) UpsertProfile(ctx context.Context, email, name string) (*domain.UserProfile, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	profile := &domain.UserProfile{
		Email:     email,
		Name:      strings.TrimSpace(name),
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.UpsertProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("upsert profile %s: %w", email, err)
	}
	return s.store.GetProfile(ctx, email)
}

// EmailExists backs the registration-time availability check.
func (s *Service) EmailExists(ctx context.Context, email string) (bool, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return false, err
	}
	_, err = s.store.GetProfile(ctx, email)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrUserNotFound):
		return false, nil
	default:
		return false, err
	}
}

// GetPreferences returns stored preferences, or sensible defaults when the
// user has never saved any.
func (s *Service) GetPreferences(ctx context.Context, email string) (*domain.UserPreferences, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	prefs, err := s.store.GetPreferences(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return defaultPreferences(email), nil
	}
	if err != nil {
		return nil, err
	}
	return prefs, nil
}

func (s *Service) UpsertPreferences(ctx context.Context, prefs *domain.UserPreferences) (*domain.UserPreferences, error) {
	email, err := NormalizeEmail(prefs.Email)
	if err != nil {
		return nil, err
	}
	prefs.Email = email
	prefs.UpdatedAt = s.now().UTC()
	if err := s.store.UpsertPreferences(ctx, prefs); err != nil {
		return nil, fmt.Errorf("upsert preferences %s: %w", email, err)
	}
	return prefs, nil
}

func defaultPreferences(email string) *domain.UserPreferences {
	return &domain.UserPreferences{
		Email:             email,
		ParrotName:        "Polly",
		Times:             []string{"morning"},
		Frequency:         "daily",
		PushNotifications: true,
		EmailSummaries:    false,
		Topics:            []string{},
	}
}
