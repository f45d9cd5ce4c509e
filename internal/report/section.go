// Package report turns free-form inventory report text into an ordered list of
// named sections that can be shown one card per section.
package report

import "strings"

// Section names used when the text gives no better label
const (
	NameInventoryReport   = "Inventory Report"
	NameIntroduction      = "Introduction"
	NameExpiringItems     = "Expiring Items"
	NameRecipeSuggestions = "Recipe Suggestions"
	NameAdditionalTips    = "Additional Tips"
)

// BulletPrefix is the canonical bullet written by Sanitize
const BulletPrefix = "• "

// Section is one named, displayable unit of a parsed report
type Section struct {
	Name    string `json:"name"`
	Details string `json:"details"`
}

// Line is a single display line of a section body
type Line struct {
	Text   string `json:"text"`
	Bullet bool   `json:"bullet"`
}

// Lines splits the details into display lines. Bullet lines have the canonical
// prefix removed from Text. Blank lines are kept as empty paragraphs.
func (s Section) Lines() []Line {
	if s.Details == "" {
		return nil
	}
	raw := strings.Split(s.Details, "\n")
	lines := make([]Line, 0, len(raw))
	for _, l := range raw {
		if strings.HasPrefix(l, BulletPrefix) {
			lines = append(lines, Line{Text: strings.TrimPrefix(l, BulletPrefix), Bullet: true})
			continue
		}
		lines = append(lines, Line{Text: l})
	}
	return lines
}
