// Package postprocess cleans model output and builds classified headline
// cards.
package postprocess

import (
	"regexp"
	"strings"
)

var (
	fencedBlockRe   = regexp.MustCompile("(?s)```.*?```")
	bulletMarkerRe  = regexp.MustCompile(`^\s*([-*•]|\d+[.)])\s+`)
	boldItalicRe    = regexp.MustCompile(`(\*\*|__|\*|_)`)
	jsonLooksLikeRe = regexp.MustCompile(`^\s*["{\[}]`)
)

// disclaimer fragments the model tends to produce when asked to keep data out
// of its prose.
var disclaimerFragments = []string{
	"can't display a chart",
	"cannot display a chart",
	"can't display charts",
	"cannot display charts",
	"unable to display a chart",
	"unable to show a chart",
	"unable to create a chart",
	"can't create a visual",
	"cannot create a visual",
}

const maxProseParagraphs = 3

// CleanWithVisualization strips artifacts from a reply that has a chart or
// timeline attached: fenced code blocks, raw JSON-looking lines, list and
// emphasis markers, and "I can't display a chart" disclaimers. At most the
// first few genuine prose paragraphs survive, which guards against the model
// dumping the data it was asked to keep separate.
func CleanWithVisualization(raw string) string {
	text := fencedBlockRe.ReplaceAllString(raw, "")

	var paragraphs []string
	for _, para := range strings.Split(text, "\n\n") {
		cleaned := cleanParagraph(para)
		if cleaned == "" {
			continue
		}
		paragraphs = append(paragraphs, cleaned)
		if len(paragraphs) == maxProseParagraphs {
			break
		}
	}
	return strings.Join(paragraphs, "\n\n")
}

func cleanParagraph(para string) string {
	var lines []string
	for _, line := range strings.Split(para, "\n") {
		if jsonLooksLikeRe.MatchString(line) {
			continue
		}
		line = bulletMarkerRe.ReplaceAllString(line, "")
		line = boldItalicRe.ReplaceAllString(line, "")
		line = dropDisclaimerSentences(line)
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, strings.TrimSpace(line))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func dropDisclaimerSentences(line string) string {
	lower := strings.ToLower(line)
	hasDisclaimer := false
	for _, frag := range disclaimerFragments {
		if strings.Contains(lower, frag) {
			hasDisclaimer = true
			break
		}
	}
	if !hasDisclaimer {
		return line
	}

	var kept []string
	for _, sentence := range splitSentences(line) {
		sLower := strings.ToLower(sentence)
		drop := false
		for _, frag := range disclaimerFragments {
			if strings.Contains(sLower, frag) {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, sentence)
		}
	}
	return strings.Join(kept, " ")
}

func splitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '.' || text[i] == '!' || text[i] == '?' {
			if s := strings.TrimSpace(text[start : i+1]); s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}
