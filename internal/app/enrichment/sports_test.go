package enrichment_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsnest/nest-agent/internal/app/enrichment"
	"github.com/newsnest/nest-agent/internal/domain"
)

type fakeSportsSource struct {
	games []domain.SportsGame
	err   error

	dayCalls    []string
	recentCalls []string
}

func (f *fakeSportsSource) EventsForDay(ctx context.Context, date, sport, league string) ([]domain.SportsGame, error) {
	f.dayCalls = append(f.dayCalls, league+"@"+date)
	return f.games, f.err
}

func (f *fakeSportsSource) RecentLeagueEvents(ctx context.Context, league string, limit int) ([]domain.SportsGame, error) {
	f.recentCalls = append(f.recentCalls, league)
	return f.games, f.err
}

func intPtr(n int) *int { return &n }

func sampleGames() []domain.SportsGame {
	return []domain.SportsGame{
		{
			ID:         "g1",
			LeagueName: "NBA",
			Date:       "2026-08-28",
			Status:     domain.GamePast,
			HomeTeam:   domain.SportsTeam{Name: "Boston Celtics"},
			AwayTeam:   domain.SportsTeam{Name: "Denver Nuggets"},
			HomeScore:  intPtr(101),
			AwayScore:  intPtr(99),
		},
	}
}

func TestSportsProbeOnlyForScoreboardPersona(t *testing.T) {
	src := &fakeSportsSource{games: sampleGames()}
	probe := enrichment.NewSportsProbe(src)

	pixel, _ := domain.PersonaByID(domain.PersonaPixel)
	res := probe.Run(context.Background(), "nba scores today", pixel)

	assert.Equal(t, enrichment.ProbeSkipped, res.Status)
	assert.Empty(t, src.dayCalls)
	assert.Empty(t, src.recentCalls)
}

func TestSportsProbeRequiresScoreVocabulary(t *testing.T) {
	src := &fakeSportsSource{games: sampleGames()}
	probe := enrichment.NewSportsProbe(src)

	flynn, _ := domain.PersonaByID(domain.PersonaFlynn)
	res := probe.Run(context.Background(), "tell me about the NBA", flynn)

	assert.Equal(t, enrichment.ProbeSkipped, res.Status)
}

func TestSportsProbeTodayUsesDayEndpoint(t *testing.T) {
	src := &fakeSportsSource{games: sampleGames()}
	probe := enrichment.NewSportsProbe(src)

	flynn, _ := domain.PersonaByID(domain.PersonaFlynn)
	res := probe.Run(context.Background(), "what are the NBA scores today?", flynn)

	require.Equal(t, enrichment.ProbeHit, res.Status)
	require.Len(t, src.dayCalls, 1)
	assert.Contains(t, src.dayCalls[0], "NBA@")
	assert.Empty(t, src.recentCalls)

	assert.Contains(t, res.Context, "[SCOREBOARD]")
	assert.Contains(t, res.Context, "Denver Nuggets 99 - 101 Boston Celtics")
}

func TestSportsProbeRecentRoundByDefault(t *testing.T) {
	src := &fakeSportsSource{games: sampleGames()}
	probe := enrichment.NewSportsProbe(src)

	flynn, _ := domain.PersonaByID(domain.PersonaFlynn)
	res := probe.Run(context.Background(), "latest nfl scores?", flynn)

	require.Equal(t, enrichment.ProbeHit, res.Status)
	assert.Equal(t, []string{"NFL"}, src.recentCalls)
	assert.Empty(t, src.dayCalls)
}

func TestSportsProbeUnavailableOnError(t *testing.T) {
	src := &fakeSportsSource{err: errors.New("timeout")}
	probe := enrichment.NewSportsProbe(src)

	flynn, _ := domain.PersonaByID(domain.PersonaFlynn)
	res := probe.Run(context.Background(), "nba score tonight", flynn)

	assert.Equal(t, enrichment.ProbeUnavailable, res.Status)
	assert.Empty(t, res.Games)
	assert.Empty(t, res.Context)
}
