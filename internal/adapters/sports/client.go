package sports

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/newsnest/nest-agent/internal/domain"
)

const defaultBaseURL = "https://www.thesportsdb.com/api/v1/json"

// DemoKey is TheSportsDB's public demo key, used when no key is configured.
const DemoKey = "123"

// leagueIDs maps common league names to TheSportsDB numeric ids.
var leagueIDs = map[string]string{
	"nfl": "4391",
	"nba": "4387",
}

// Client is a thin TheSportsDB client that normalizes events into the common
// scoreboard schema (past / live / upcoming games).
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	now     func() time.Time
}

func NewClient(apiKey string) *Client {
	if strings.TrimSpace(apiKey) == "" {
		apiKey = DemoKey
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		now:     time.Now,
	}
}

// NewClientWithBaseURL is used by tests to point the client at a stub server.
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	c := NewClient(apiKey)
	c.baseURL = baseURL
	return c
}

type apiEvent struct {
	IDEvent      string  `json:"idEvent"`
	StrSport     string  `json:"strSport"`
	IDLeague     string  `json:"idLeague"`
	StrLeague    string  `json:"strLeague"`
	DateEvent    string  `json:"dateEvent"`
	StrTime      string  `json:"strTime"`
	StrTimestamp string  `json:"strTimestamp"`
	StrStatus    string  `json:"strStatus"`
	StrVenue     string  `json:"strVenue"`
	IDHomeTeam   string  `json:"idHomeTeam"`
	StrHomeTeam  string  `json:"strHomeTeam"`
	StrHomeBadge string  `json:"strHomeBadge"`
	IDAwayTeam   string  `json:"idAwayTeam"`
	StrAwayTeam  string  `json:"strAwayTeam"`
	StrAwayBadge string  `json:"strAwayBadge"`
	IntHomeScore *string `json:"intHomeScore"`
	IntAwayScore *string `json:"intAwayScore"`
}

type apiEvents struct {
	Events []apiEvent `json:"events"`
}

// EventsForDay fetches events for a specific day (YYYY-MM-DD), optionally
// filtered by sport and league.
func (c *Client) EventsForDay(ctx context.Context, date, sport, league string) ([]domain.SportsGame, error) {
	params := url.Values{}
	params.Set("d", date)
	if sport != "" {
		params.Set("s", sport)
	}
	if league != "" {
		params.Set("l", league)
	}

	events, err := c.get(ctx, "eventsday.php", params)
	if err != nil {
		return nil, err
	}

	out := make([]domain.SportsGame, 0, len(events))
	for _, ev := range events {
		out = append(out, c.normalize(ev))
	}
	return out, nil
}

// RecentLeagueEvents fetches the most recent completed round for a league.
// league can be a name ("NFL") or a numeric id; only events from the latest
// date present in the upstream response are returned.
func (c *Client) RecentLeagueEvents(ctx context.Context, league string, limit int) ([]domain.SportsGame, error) {
	leagueID := league
	if _, err := strconv.Atoi(league); err != nil {
		if id, ok := leagueIDs[strings.ToLower(league)]; ok {
			leagueID = id
		}
	}

	params := url.Values{}
	params.Set("id", leagueID)

	events, err := c.get(ctx, "eventspastleague.php", params)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}

	latest := ""
	for _, ev := range events {
		if ev.DateEvent > latest {
			latest = ev.DateEvent
		}
	}

	var out []domain.SportsGame
	for _, ev := range events {
		if ev.DateEvent != latest {
			continue
		}
		out = append(out, c.normalize(ev))
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]apiEvent, error) {
	fullURL := fmt.Sprintf("%s/%s/%s?%s", c.baseURL, c.apiKey, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("sportsdb: create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sportsdb: %w: %v", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("sportsdb: %w", domain.ErrRateLimited)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("sportsdb: status %d: %w", resp.StatusCode, domain.ErrUpstreamAuth)
	case resp.StatusCode != http.StatusOK:
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("sportsdb: status %d: %w", resp.StatusCode, domain.ErrUnavailable)
	}

	var body apiEvents
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("sportsdb: decode response: %w", err)
	}
	return body.Events, nil
}

func (c *Client) normalize(ev apiEvent) domain.SportsGame {
	return domain.SportsGame{
		ID:         ev.IDEvent,
		Sport:      ev.StrSport,
		LeagueID:   ev.IDLeague,
		LeagueName: ev.StrLeague,
		Date:       ev.DateEvent,
		TimeLocal:  ev.StrTime,
		Status:     c.classifyStatus(ev),
		VenueName:  ev.StrVenue,
		HomeTeam: domain.SportsTeam{
			ID:        ev.IDHomeTeam,
			Name:      ev.StrHomeTeam,
			ShortName: shortName(ev.StrHomeTeam),
			BadgeURL:  ev.StrHomeBadge,
		},
		AwayTeam: domain.SportsTeam{
			ID:        ev.IDAwayTeam,
			Name:      ev.StrAwayTeam,
			ShortName: shortName(ev.StrAwayTeam),
			BadgeURL:  ev.StrAwayBadge,
		},
		HomeScore: toInt(ev.IntHomeScore),
		AwayScore: toInt(ev.IntAwayScore),
	}
}

// classifyStatus maps an upstream event into past | live | upcoming.
func (c *Client) classifyStatus(ev apiEvent) domain.GameStatus {
	switch strings.ToLower(ev.StrStatus) {
	case "live", "in play", "in-play":
		return domain.GameLive
	}

	// Scores present and not explicitly live means the game finished.
	if ev.IntHomeScore != nil || ev.IntAwayScore != nil {
		return domain.GamePast
	}

	ts := strings.TrimSpace(ev.StrTimestamp)
	if ts == "" {
		ts = strings.TrimSpace(ev.DateEvent + " " + ev.StrTime)
	}
	if !strings.ContainsAny(ts, "Tt") && strings.Contains(ts, " ") {
		ts = strings.Replace(ts, " ", "T", 1)
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if dt, err := time.Parse(layout, ts); err == nil {
			if dt.After(c.now().UTC()) {
				return domain.GameUpcoming
			}
			return domain.GamePast
		}
	}
	// Unparseable date: assume upcoming, the safer answer for a scoreboard.
	return domain.GameUpcoming
}

func shortName(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return name
	}
	return parts[len(parts)-1]
}

func toInt(s *string) *int {
	if s == nil || *s == "" {
		return nil
	}
	n, err := strconv.Atoi(*s)
	if err != nil {
		return nil
	}
	return &n
}
