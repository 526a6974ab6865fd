package postprocess

import (
	"net/url"
	"strings"
	"unicode"
)

// knownOutlets maps raw source ids, names, and domains to display names.
var knownOutlets = map[string]string{
	"cnn":                 "CNN",
	"bbc-news":            "BBC News",
	"bbc":                 "BBC News",
	"bbc.co.uk":           "BBC News",
	"nytimes":             "The New York Times",
	"the-new-york-times":  "The New York Times",
	"fox-news":            "Fox News",
	"foxnews":             "Fox News",
	"the-verge":           "The Verge",
	"theverge":            "The Verge",
	"techcrunch":          "TechCrunch",
	"ars-technica":        "Ars Technica",
	"arstechnica":         "Ars Technica",
	"espn":                "ESPN",
	"reuters":             "Reuters",
	"associated-press":    "Associated Press",
	"apnews":              "Associated Press",
	"the-guardian":        "The Guardian",
	"theguardian":         "The Guardian",
	"the-washington-post": "The Washington Post",
	"washingtonpost":      "The Washington Post",
	"the-wall-street-journal": "The Wall Street Journal",
	"wsj":                 "The Wall Street Journal",
	"wired":               "Wired",
	"engadget":            "Engadget",
	"politico":            "Politico",
	"npr":                 "NPR",
	"cbs-news":            "CBS News",
	"cbsnews":             "CBS News",
	"nbc-news":            "NBC News",
	"nbcnews":             "NBC News",
	"abc-news":            "ABC News",
	"abcnews":             "ABC News",
	"al-jazeera-english":  "Al Jazeera",
	"aljazeera":           "Al Jazeera",
	"bleacher-report":     "Bleacher Report",
	"bleacherreport":      "Bleacher Report",
	"the-athletic":        "The Athletic",
	"yahoo":               "Yahoo News",
}

// DisplaySourceName turns a raw source string or article URL into a
// human-readable outlet name: known-brand lookup first, otherwise a
// CamelCase-split heuristic over the domain.
func DisplaySourceName(rawSource, articleURL string) string {
	raw := strings.TrimSpace(rawSource)

	if raw != "" {
		key := strings.ToLower(raw)
		if name, ok := knownOutlets[key]; ok {
			return name
		}
		key = strings.ReplaceAll(key, " ", "-")
		if name, ok := knownOutlets[key]; ok {
			return name
		}
		// Raw names that already look human (contain a space or mixed
		// case beyond the first rune) pass through untouched.
		if strings.Contains(raw, " ") || !strings.Contains(raw, ".") {
			return splitCamelCase(raw)
		}
		raw = strings.ToLower(raw)
	}

	host := raw
	if articleURL != "" {
		if u, err := url.Parse(articleURL); err == nil && u.Host != "" {
			host = u.Host
		}
	}
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	if host == "" {
		return "Unknown Source"
	}

	if name, ok := knownOutlets[host]; ok {
		return name
	}
	base := host
	if i := strings.Index(base, "."); i > 0 {
		base = base[:i]
	}
	if name, ok := knownOutlets[base]; ok {
		return name
	}
	return titleCase(base)
}

// splitCamelCase inserts spaces at lower-to-upper transitions so that
// "BleacherReport" renders as "Bleacher Report".
func splitCamelCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && unicode.IsLower(runes[i-1]) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' })
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
