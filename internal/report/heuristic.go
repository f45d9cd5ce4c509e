package report

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// headerRule classifies a trimmed line as a section header
type headerRule struct {
	name  string
	match func(line string) bool
}

const (
	shortLineLimit = 30
	keywordLimit   = 50
)

var (
	numberedRe     = regexp.MustCompile(`^\d+[.)]\s`)
	leadingBoldRe  = regexp.MustCompile(`^\*\*[^*]+\*\*`)
	upperLabelRe   = regexp.MustCompile(`^[A-Z][A-Z0-9 &/'-]*:`)
	headerNumberRe = regexp.MustCompile(`^\d+[.)]\s*`)
)

// headerKeywords mark short lines that name food or recipe content.
var headerKeywords = []string{"dish", "recipe", "item", "ingredient", "food", "meal", "menu", "expir", "suggestion", "leftover"}

// headerRules are evaluated top-down; the first match wins.
var headerRules = []headerRule{
	{name: "numbered", match: func(l string) bool { return numberedRe.MatchString(l) }},
	{name: "emphasis", match: func(l string) bool { return leadingBoldRe.MatchString(l) }},
	{name: "upper_label", match: func(l string) bool { return upperLabelRe.MatchString(l) }},
	{name: "title_label", match: isTitleLabel},
	{name: "title_phrase", match: isTitlePhrase},
	{name: "keyword", match: hasHeaderKeyword},
}

// classifyHeader returns the name of the first rule matching line, or "".
func classifyHeader(line string) string {
	for _, r := range headerRules {
		if r.match(line) {
			return r.name
		}
	}
	return ""
}

// isTitleLabel matches a short line such as "Storage Tips:" where a
// capitalized phrase is followed by a colon.
func isTitleLabel(line string) bool {
	if utf8.RuneCountInString(line) >= shortLineLimit {
		return false
	}
	phrase, _, ok := strings.Cut(line, ":")
	if !ok || phrase == "" || strings.TrimRightFunc(phrase, unicode.IsSpace) != phrase {
		return false
	}
	return isCapitalized(phrase)
}

// isTitlePhrase matches a short capitalized line without a colon.
func isTitlePhrase(line string) bool {
	if utf8.RuneCountInString(line) >= shortLineLimit || strings.Contains(line, ":") {
		return false
	}
	return isCapitalized(line)
}

func hasHeaderKeyword(line string) bool {
	if utf8.RuneCountInString(line) >= keywordLimit {
		return false
	}
	lower := strings.ToLower(line)
	for _, k := range headerKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// isCapitalized reports whether every word of phrase that contains a letter
// starts that letter in upper case, and at least one such word exists.
func isCapitalized(phrase string) bool {
	words := 0
	for _, w := range strings.Fields(phrase) {
		i := strings.IndexFunc(w, unicode.IsLetter)
		if i < 0 {
			continue
		}
		r, _ := utf8.DecodeRuneInString(w[i:])
		if !unicode.IsUpper(r) {
			return false
		}
		words++
	}
	return words > 0
}

// headerName strips markdown heading marks, list numbering, emphasis and a
// trailing colon from a header line.
func headerName(line string) string {
	name := strings.TrimLeft(line, "# ")
	name = headerNumberRe.ReplaceAllString(name, "")
	name = strings.ReplaceAll(name, "**", "")
	name = strings.TrimSpace(name)
	name = strings.TrimSpace(strings.TrimSuffix(name, ":"))
	if name == "" {
		return line
	}
	return name
}

// ExtractHeuristic scans text line by line and opens a new section at every
// line that looks like a header. Body lines seen before any header go to an
// "Introduction" section. It returns nil when text has no non-blank lines.
func ExtractHeuristic(text string) []Section {
	var (
		sections []Section
		current  *Section
		details  []string
	)
	flush := func() {
		if current == nil {
			return
		}
		current.Details = Sanitize(strings.Join(details, "\n"))
		sections = append(sections, *current)
		current, details = nil, nil
	}

	for _, raw := range strings.Split(lineBreakRepl.Replace(text), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if classifyHeader(line) != "" {
			flush()
			current = &Section{Name: headerName(line)}
			continue
		}
		if current == nil {
			current = &Section{Name: NameIntroduction}
		}
		details = append(details, raw)
	}
	flush()

	return sections
}
