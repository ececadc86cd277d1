package catalog

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/studyshelf/internal/common"
	"github.com/dmitrijs2005/studyshelf/internal/server/models"
)

// Label lengths used by the year page.
const (
	NavLabelLength     = 20
	SectionLabelLength = 40
)

const ellipsis = "..."

// Grouping is the per-year listing: documents grouped by exact subject, plus
// the distinct subjects in lexicographic order.
type Grouping struct {
	Year     int                          `json:"year"`
	Subjects []string                     `json:"subjects"`
	Groups   map[string][]models.Document `json:"groups"`
}

// Empty reports whether the year has no documents at all.
func (g Grouping) Empty() bool { return len(g.Subjects) == 0 }

// ValidYear reports whether year is an academic year the portal knows.
func ValidYear(year int) bool { return year >= 1 && year <= 4 }

// GroupBySubject keeps the records of year and groups them by subject.
// Within a group, records keep their snapshot order.
func GroupBySubject(snapshot []models.Document, year int) (Grouping, error) {
	if !ValidYear(year) {
		return Grouping{}, common.ErrorInvalidYear
	}
	if err := Validate(snapshot); err != nil {
		return Grouping{}, err
	}

	g := Grouping{
		Year:     year,
		Subjects: []string{},
		Groups:   map[string][]models.Document{},
	}
	for _, d := range snapshot {
		if d.Year != year {
			continue
		}
		if _, ok := g.Groups[d.Subject]; !ok {
			g.Subjects = append(g.Subjects, d.Subject)
		}
		g.Groups[d.Subject] = append(g.Groups[d.Subject], d)
	}
	slices.Sort(g.Subjects)
	return g, nil
}

// TruncateLabel shortens text to maxLength characters followed by "...".
// Text that already fits is returned unchanged.
func TruncateLabel(text string, maxLength int) string {
	if maxLength < 0 {
		maxLength = 0
	}
	if utf8.RuneCountInString(text) <= maxLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxLength]) + ellipsis
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Anchor turns a subject into the fragment id of its section.
func Anchor(subject string) string {
	return strings.ToLower(whitespaceRun.ReplaceAllString(subject, "-"))
}

// NavEntry is one link of the year page navigation. Title keeps the full
// subject for tooltips since Label may be truncated.
type NavEntry struct {
	Label  string `json:"label"`
	Title  string `json:"title"`
	Anchor string `json:"anchor"`
}

// NavigationIndex builds the navigation entries of g in subject order.
func NavigationIndex(g Grouping, maxLength int) []NavEntry {
	out := make([]NavEntry, 0, len(g.Subjects))
	for _, s := range g.Subjects {
		out = append(out, NavEntry{
			Label:  TruncateLabel(s, maxLength),
			Title:  s,
			Anchor: Anchor(s),
		})
	}
	return out
}
