package domain

import "strings"

// Persona is a config record describing one member of the nest: identity,
// domain vocabulary, and capability flags. One record type drives the whole
// response pipeline; there is no per-persona behavior beyond these fields.
type Persona struct {
	ID          PersonaID
	Name        string
	Emoji       string
	Description string

	// Keywords is the domain vocabulary used by routing fallbacks and by
	// the current-agent heuristic.
	Keywords []string

	SupportsVisualization bool
	SupportsScoreboard    bool
	// AlwaysFetchNews marks the host, which pulls news context for any
	// substantive message rather than only on explicit news vocabulary.
	AlwaysFetchNews bool

	// HeadlineHeader replaces free text when the reply is rendered as
	// headline cards.
	HeadlineHeader string
}

var personas = []Persona{
	{
		ID:              PersonaPolly,
		Name:            "Polly the Parrot",
		Emoji:           "🦜",
		Description:     "Main host and router of the News Nest. Warm, neutral daily headlines for kids and teens.",
		Keywords:        []string{"news", "headline", "headlines", "world", "today"},
		AlwaysFetchNews: true,
		HeadlineHeader:  "Here's what's making news today! 🦜",
	},
	{
		ID:                    PersonaFlynn,
		Name:                  "Flynn the Falcon",
		Emoji:                 "🦅",
		Description:           "Sports commentator and post-game recap specialist.",
		Keywords:              []string{"sport", "sports", "game", "match", "team", "player", "score", "scores", "league", "nba", "nfl", "playoff", "playoffs", "championship", "tournament", "soccer", "football", "basketball", "baseball", "tennis", "olympics"},
		SupportsVisualization: true,
		SupportsScoreboard:    true,
		HeadlineHeader:        "Fresh from the sports desk! 🦅",
	},
	{
		ID:                    PersonaPixel,
		Name:                  "Pixel the Pigeon",
		Emoji:                 "🐦",
		Description:           "Technology explainer and innovation digest.",
		Keywords:              []string{"tech", "technology", "ai", "artificial intelligence", "software", "hardware", "gadget", "robot", "app", "computer", "internet", "cyber", "crypto", "startup", "smartphone"},
		SupportsVisualization: true,
		HeadlineHeader:        "Hot off the circuit board! 🐦",
	},
	{
		ID:                    PersonaCato,
		Name:                  "Cato the Crane",
		Emoji:                 "🦩",
		Description:           "Politics and civics explainer, neutral public-affairs guide.",
		Keywords:              []string{"politics", "political", "election", "government", "policy", "law", "congress", "senate", "vote", "voting", "president", "parliament", "legislation", "diplomacy", "campaign"},
		SupportsVisualization: true,
		HeadlineHeader:        "From the civic affairs desk. 🦩",
	},
}

var personasByID = func() map[PersonaID]Persona {
	m := make(map[PersonaID]Persona, len(personas))
	for _, p := range personas {
		m[p.ID] = p
	}
	return m
}()

// Personas returns the closed persona set in roster order.
func Personas() []Persona {
	out := make([]Persona, len(personas))
	copy(out, personas)
	return out
}

// PersonaByID resolves an identifier against the known set. ok is false for
// anything outside the closed enumeration.
func PersonaByID(id PersonaID) (Persona, bool) {
	p, ok := personasByID[id]
	return p, ok
}

// ResolvePersona maps a loosely formatted identifier or display name to a
// known persona. Unknown values fall back to the host: the routing layer must
// never see a persona outside the closed set.
func ResolvePersona(raw string) Persona {
	s := strings.ToLower(strings.TrimSpace(raw))
	for _, p := range personas {
		if s == string(p.ID) {
			return p
		}
	}
	for _, p := range personas {
		name := strings.ToLower(p.Name)
		if s == name || strings.Contains(s, string(p.ID)) || strings.Contains(s, strings.Fields(name)[0]) {
			return p
		}
	}
	return personasByID[HostPersona]
}

// MatchPersonaKeywords returns the first persona whose domain vocabulary
// appears in the message, checking specialists in priority order (sports,
// tech, politics) before the host.
func MatchPersonaKeywords(message string) (Persona, bool) {
	lower := strings.ToLower(message)
	for _, id := range []PersonaID{PersonaFlynn, PersonaPixel, PersonaCato, PersonaPolly} {
		p := personasByID[id]
		for _, kw := range p.Keywords {
			if containsWord(lower, kw) {
				return p, true
			}
		}
	}
	return Persona{}, false
}

// containsWord matches kw on word boundaries so that "ai" does not fire
// inside "email" or "again".
func containsWord(text, kw string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], kw)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(kw)
		beforeOK := start == 0 || !isWordByte(text[start-1])
		afterOK := end == len(text) || !isWordByte(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
