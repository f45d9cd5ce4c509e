package report

import (
	"regexp"
	"strings"
)

// Zone is one of the top-level regions of a structured report
type Zone int

const (
	ZoneExpiringItems Zone = iota
	ZoneRecipeSuggestions
	ZoneTips
)

func (z Zone) String() string {
	switch z {
	case ZoneExpiringItems:
		return "expiring_items"
	case ZoneRecipeSuggestions:
		return "recipe_suggestions"
	case ZoneTips:
		return "tips"
	}
	return "unknown"
}

const (
	recipeHeadingToken = "recipe suggestions"
	tipsHeadingToken   = "additional tips"
)

// expiringPhrases mark a report that talks about an expiry window even when it
// has no recipe heading.
var expiringPhrases = []string{
	"expiring in",
	"expiring within",
	"expire within",
	"expires within",
}

var (
	// **Protein:** or **Protein**: with optional text after it
	categoryLabelRe = regexp.MustCompile(`^\s*\*\*([^*]+?)\s*(?::\s*\*\*|\*\*\s*:)\s*(.*)$`)

	// **1. Garlic Pasta:** or 1. **Garlic Pasta**: with optional text after it
	recipeTitleRe = regexp.MustCompile(`^\s*(?:\*\*\s*\d+\.|\d+\.\s*\*\*)\s*(.+?)\s*(?::\s*\*\*|\*\*\s*:)\s*(.*)$`)
)

// lineSpan is one line of a text with its byte offsets; end excludes the newline.
type lineSpan struct {
	start int
	end   int
	text  string
}

func splitLines(text string) []lineSpan {
	var spans []lineSpan
	start := 0
	for {
		i := strings.IndexByte(text[start:], '\n')
		if i < 0 {
			spans = append(spans, lineSpan{start: start, end: len(text), text: text[start:]})
			return spans
		}
		spans = append(spans, lineSpan{start: start, end: start + i, text: text[start : start+i]})
		start += i + 1
	}
}

// isHeading reports whether line, ignoring markdown heading and emphasis
// markers, begins with token.
func isHeading(line, token string) bool {
	t := strings.TrimLeft(strings.TrimSpace(line), "#* \t")
	return len(t) >= len(token) && strings.EqualFold(t[:len(token)], token)
}

func findHeading(lines []lineSpan, from int, token string) int {
	for i := from; i < len(lines); i++ {
		if isHeading(lines[i].text, token) {
			return i
		}
	}
	return -1
}

func hasExpiringPhrase(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range expiringPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// zoneText is the body of one zone sliced out of the report
type zoneText struct {
	zone Zone
	body string
}

// locateZones slices text into its zones by the offsets of the heading lines.
// It returns false when the text carries neither a recipe heading nor an
// expiry window phrase.
func locateZones(text string) ([]zoneText, bool) {
	lines := splitLines(text)
	recipe := findHeading(lines, 0, recipeHeadingToken)
	if recipe < 0 && !hasExpiringPhrase(text) {
		return nil, false
	}

	tipsFrom := 0
	if recipe >= 0 {
		tipsFrom = recipe + 1
	}
	tips := findHeading(lines, tipsFrom, tipsHeadingToken)

	aEnd := len(text)
	switch {
	case recipe >= 0:
		aEnd = lines[recipe].start
	case tips >= 0:
		aEnd = lines[tips].start
	}
	zones := []zoneText{{zone: ZoneExpiringItems, body: text[:aEnd]}}

	if recipe >= 0 {
		bEnd := len(text)
		if tips >= 0 {
			bEnd = lines[tips].start
		}
		zones = append(zones, zoneText{zone: ZoneRecipeSuggestions, body: text[lines[recipe].end:bEnd]})
	}
	if tips >= 0 {
		zones = append(zones, zoneText{zone: ZoneTips, body: text[lines[tips].end:]})
	}
	return zones, true
}

// ExtractStructured splits a report that follows the expiring items / recipe
// suggestions / additional tips layout. It returns nil when the layout is not
// recognized or every zone is empty.
func ExtractStructured(text string) []Section {
	zones, ok := locateZones(text)
	if !ok {
		return nil
	}

	var sections []Section
	for _, z := range zones {
		switch z.zone {
		case ZoneExpiringItems:
			sections = append(sections, splitLabelled(z.body, categoryLabelRe, NameExpiringItems, true)...)
		case ZoneRecipeSuggestions:
			sections = append(sections, splitLabelled(z.body, recipeTitleRe, NameRecipeSuggestions, false)...)
		case ZoneTips:
			if details := Sanitize(z.body); details != "" {
				sections = append(sections, Section{Name: NameAdditionalTips, Details: details})
			}
		}
	}
	return sections
}

// splitLabelled cuts body into one section per line matching labelRe. The
// first submatch is the name, the second any text following it on the same
// line. Without labels the whole body becomes a single section named
// fallback. With keepIntro set, text ahead of the first label is kept as a
// fallback-named section and markdown heading lines are dropped from every
// body; otherwise the intro is dropped.
func splitLabelled(body string, labelRe *regexp.Regexp, fallback string, keepIntro bool) []Section {
	var (
		sections []Section
		intro    []string
		current  *Section
		details  []string
	)
	flush := func() {
		if current == nil {
			return
		}
		text := strings.Join(details, "\n")
		if keepIntro {
			text = dropHeadingLines(text)
		}
		current.Details = Sanitize(text)
		sections = append(sections, *current)
		current, details = nil, nil
	}

	for _, line := range splitLines(body) {
		if m := labelRe.FindStringSubmatch(line.text); m != nil {
			flush()
			current = &Section{Name: strings.TrimSpace(m[1])}
			if rest := strings.TrimSpace(m[2]); rest != "" {
				details = append(details, rest)
			}
			continue
		}
		if current != nil {
			details = append(details, line.text)
			continue
		}
		intro = append(intro, line.text)
	}
	flush()

	if len(sections) > 0 && !keepIntro {
		return sections
	}

	introText := strings.Join(intro, "\n")
	if keepIntro {
		introText = dropHeadingLines(introText)
	}
	if details := Sanitize(introText); details != "" {
		sections = append([]Section{{Name: fallback, Details: details}}, sections...)
	}
	return sections
}

// dropHeadingLines removes markdown heading lines, which only name the zone.
func dropHeadingLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "#") {
			continue
		}
		kept = append(kept, l)
	}
	return strings.Join(kept, "\n")
}
