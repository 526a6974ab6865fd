package enrichment

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/newsnest/nest-agent/internal/domain"
	"github.com/newsnest/nest-agent/internal/observability"
)

// leagueVocabulary maps league/sport words in a message to the upstream
// league identifier and sport name.
var leagueVocabulary = []struct {
	words  []string
	league string
	sport  string
}{
	{[]string{"nfl", "american football"}, "NFL", "American Football"},
	{[]string{"nba", "basketball"}, "NBA", "Basketball"},
}

// SportsResult is the outcome of one sports probe run.
type SportsResult struct {
	Status ProbeStatus
	Games  []domain.SportsGame
	// Context summarizes the scoreboard for the outgoing prompt.
	Context string
}

// SportsProbe attaches scoreboard data for the sports persona. A keyword
// match on "score(s)" plus a league name selects between today's scoreboard
// and the most recent completed round.
type SportsProbe struct {
	sports domain.SportsSource
	now    func() time.Time
}

func NewSportsProbe(sports domain.SportsSource) *SportsProbe {
	return &SportsProbe{sports: sports, now: time.Now}
}

// Run inspects the message and fetches games when warranted. Any upstream
// failure silently omits the scoreboard; the reply still goes out.
func (p *SportsProbe) Run(ctx context.Context, message string, persona domain.Persona) SportsResult {
	if p.sports == nil || !persona.SupportsScoreboard {
		return SportsResult{Status: ProbeSkipped}
	}

	lower := strings.ToLower(message)
	if !strings.Contains(lower, "score") {
		return SportsResult{Status: ProbeSkipped}
	}

	league, sport := matchLeague(lower)
	if league == "" {
		return SportsResult{Status: ProbeSkipped}
	}

	log := observability.LoggerFromContext(ctx)

	var (
		games []domain.SportsGame
		err   error
	)
	if wantsToday(lower) {
		date := p.now().UTC().Format("2006-01-02")
		games, err = p.sports.EventsForDay(ctx, date, sport, league)
	} else {
		games, err = p.sports.RecentLeagueEvents(ctx, league, 10)
	}
	if err != nil {
		log.Warn("sports probe fetch failed", "league", league, "error", err)
		return SportsResult{Status: ProbeUnavailable}
	}
	if len(games) == 0 {
		return SportsResult{Status: ProbeSkipped}
	}

	return SportsResult{
		Status:  ProbeHit,
		Games:   games,
		Context: scoreboardContext(games),
	}
}

func matchLeague(lower string) (league, sport string) {
	for _, entry := range leagueVocabulary {
		for _, w := range entry.words {
			if strings.Contains(lower, w) {
				return entry.league, entry.sport
			}
		}
	}
	return "", ""
}

func wantsToday(lower string) bool {
	return strings.Contains(lower, "today") || strings.Contains(lower, "tonight")
}

// scoreboardContext renders the games as a compact block for the prompt so
// the persona talks about real results instead of inventing them.
func scoreboardContext(games []domain.SportsGame) string {
	var b strings.Builder
	b.WriteString("\n\n[SCOREBOARD]\n")
	for _, g := range games {
		b.WriteString(g.AwayTeam.Name)
		if g.AwayScore != nil && g.HomeScore != nil {
			b.WriteString(" " + strconv.Itoa(*g.AwayScore) + " - " + strconv.Itoa(*g.HomeScore) + " ")
		} else {
			b.WriteString(" at ")
		}
		b.WriteString(g.HomeTeam.Name)
		b.WriteString(" (")
		b.WriteString(string(g.Status))
		if g.Date != "" {
			b.WriteString(", ")
			b.WriteString(g.Date)
		}
		b.WriteString(")\n")
	}
	return b.String()
}
