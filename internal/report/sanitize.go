package report

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	boldRe        = regexp.MustCompile(`\*\*(.+?)\*\*`)
	lineBreakRepl = strings.NewReplacer("\r\n", "\n", "\r", "\n")
)

// Sanitize normalizes a section body: bold markers are removed, stray asterisks
// dropped, bullet lines rewritten to BulletPrefix, blank-line runs collapsed and
// the result trimmed. Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(text string) string {
	text = lineBreakRepl.Replace(text)
	text = boldRe.ReplaceAllString(text, "$1")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = stripStrayAsterisks(line)
		if body, ok := bulletBody(line); ok {
			line = BulletPrefix + body
		}

		if strings.TrimSpace(line) == "" {
			if blank {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, line)
	}

	return strings.TrimSpace(norm.NFC.String(strings.Join(out, "\n")))
}

// stripStrayAsterisks removes every asterisk from line except a leading "* "
// bullet marker.
func stripStrayAsterisks(line string) string {
	if !strings.Contains(line, "*") {
		return line
	}
	trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
	if rest, ok := strings.CutPrefix(trimmed, "*"); ok {
		if r, _ := utf8.DecodeRuneInString(rest); unicode.IsSpace(r) {
			indent := line[:len(line)-len(trimmed)]
			return indent + "*" + strings.ReplaceAll(rest, "*", "")
		}
	}
	return strings.ReplaceAll(line, "*", "")
}

// bulletBody reports whether line starts with a dash or bullet symbol and
// returns the text after the marker.
func bulletBody(line string) (string, bool) {
	trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
	r, size := utf8.DecodeRuneInString(trimmed)
	switch r {
	case '-', '*', '•':
		return strings.TrimLeftFunc(trimmed[size:], unicode.IsSpace), true
	}
	return "", false
}
