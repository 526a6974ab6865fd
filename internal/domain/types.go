package domain

import "time"

type PersonaID string

const (
	PersonaPolly PersonaID = "polly"
	PersonaFlynn PersonaID = "flynn"
	PersonaPixel PersonaID = "pixel"
	PersonaCato  PersonaID = "cato"
)

// HostPersona absorbs everything that cannot be attributed to a specialist.
const HostPersona = PersonaPolly

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one entry of the caller-supplied transcript. The
// transcript is the only conversational memory the service has during chat:
// assistant turns carry the persona that produced them in AgentTag, and that
// tag is the sole channel for reconstructing "who is currently speaking".
type ConversationTurn struct {
	Role     Role   `json:"role" bson:"role"`
	Text     string `json:"text" bson:"text"`
	AgentTag string `json:"agentTag,omitempty" bson:"agent_tag,omitempty"`
}

type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// RoutingDecision is produced fresh per request and never persisted.
type RoutingDecision struct {
	Target         PersonaID
	Confidence     Confidence
	Reasoning      string
	NeedsRouting   bool
	TopicChange    bool
	RoutingMessage string
}

type ChartType string

const (
	ChartLine ChartType = "line"
	ChartBar  ChartType = "bar"
	ChartPie  ChartType = "pie"
	ChartArea ChartType = "area"
)

type ChartPoint struct {
	Label     string  `json:"label"`
	Value     float64 `json:"value"`
	Timestamp string  `json:"timestamp,omitempty"`
}

// ChartData is generated on demand and bounded to 4-10 points.
type ChartData struct {
	Type        ChartType    `json:"type"`
	Title       string       `json:"title"`
	XAxisLabel  string       `json:"xAxisLabel,omitempty"`
	YAxisLabel  string       `json:"yAxisLabel,omitempty"`
	Description string       `json:"description,omitempty"`
	Points      []ChartPoint `json:"dataPoints"`
}

type TimelineEvent struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
}

// TimelineData is generated on demand and bounded to 5-10 events.
type TimelineData struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Events      []TimelineEvent `json:"events"`
}

// Article is a news item as returned by the news source.
type Article struct {
	Title       string
	Description string
	Content     string
	URL         string
	SourceID    string
	SourceName  string
	PublishedAt time.Time
}

// ClassifiedArticle is a headline card: the headline has the outlet
// prefix/suffix stripped but is never paraphrased.
type ClassifiedArticle struct {
	Headline   string   `json:"headline"`
	URL        string   `json:"url"`
	SourceName string   `json:"sourceName"`
	Tags       []string `json:"tags"`
}

type GameStatus string

const (
	GamePast     GameStatus = "past"
	GameLive     GameStatus = "live"
	GameUpcoming GameStatus = "upcoming"
)

type SportsTeam struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
	BadgeURL  string `json:"badgeUrl,omitempty"`
}

// SportsGame is the common scoreboard schema regardless of the upstream
// service's native shape.
type SportsGame struct {
	ID         string     `json:"id"`
	Sport      string     `json:"sport"`
	LeagueID   string     `json:"leagueId"`
	LeagueName string     `json:"leagueName"`
	Date       string     `json:"date"`
	TimeLocal  string     `json:"timeLocal,omitempty"`
	Status     GameStatus `json:"status"`
	VenueName  string     `json:"venueName,omitempty"`
	HomeTeam   SportsTeam `json:"homeTeam"`
	AwayTeam   SportsTeam `json:"awayTeam"`
	HomeScore  *int       `json:"homeScore"`
	AwayScore  *int       `json:"awayScore"`
}

// ChatSession is the persisted transcript document. Saves with a known id
// update in place; anything else creates a new session.
type ChatSession struct {
	ID               string
	OwnerID          string
	Title            string
	PersonasInvolved []PersonaID
	Messages         []ConversationTurn
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// UserProfile lives in the users collection, keyed by normalized email.
type UserProfile struct {
	Email     string
	Name      string
	CreatedAt time.Time
}

// UserPreferences is one document per email in the user_preferences collection.
type UserPreferences struct {
	Email             string    `json:"email"`
	ParrotName        string    `json:"parrotName"`
	Times             []string  `json:"times"`
	Frequency         string    `json:"frequency"`
	PushNotifications bool      `json:"pushNotifications"`
	EmailSummaries    bool      `json:"emailSummaries"`
	Topics            []string  `json:"topics"`
	UpdatedAt         time.Time `json:"-"`
}
