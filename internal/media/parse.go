package media

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Hints holds the structured fields extracted from a filename. Zero values
// mean the field was absent.
type Hints struct {
	Title      string
	Year       int
	Season     int
	Episode    int
	Resolution string
}

// Episodic reports whether the filename carries season/episode markers.
func (h Hints) Episodic() bool {
	return h.Season > 0 || h.Episode > 0
}

var (
	seasonEpisodeRe = regexp.MustCompile(`(?i)\bS(\d{1,2})[\s._-]?E(\d{1,3})\b`)
	crossEpisodeRe  = regexp.MustCompile(`(?i)\b(\d{1,2})x(\d{2,3})\b`)
	episodeWordRe   = regexp.MustCompile(`(?i)\b(?:ep|episode)[\s._-]?(\d{1,3})\b`)
	yearRe          = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
	resolutionRe    = regexp.MustCompile(`(?i)\b(\d{3,4}p)\b`)
	separatorRe     = regexp.MustCompile(`[._]+`)
	spaceRe         = regexp.MustCompile(`\s+`)
	bracketRe       = regexp.MustCompile(`[\[(][^\])]*[\])]`)
)

var titleCaser = cases.Title(language.English, cases.NoLower)

// ParseFilename extracts title/year/season/episode/resolution hints from a
// release-style filename. The title is everything before the first structural
// marker (season tag, year, or resolution), cleaned of separators and
// title-cased. An unparseable name yields an empty Title.
func ParseFilename(name string) Hints {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	normalized := separatorRe.ReplaceAllString(base, " ")

	var h Hints
	cut := len(normalized)

	if m := seasonEpisodeRe.FindStringSubmatchIndex(normalized); m != nil {
		h.Season = atoi(normalized[m[2]:m[3]])
		h.Episode = atoi(normalized[m[4]:m[5]])
		if m[0] < cut {
			cut = m[0]
		}
	} else if m := crossEpisodeRe.FindStringSubmatchIndex(normalized); m != nil {
		h.Season = atoi(normalized[m[2]:m[3]])
		h.Episode = atoi(normalized[m[4]:m[5]])
		if m[0] < cut {
			cut = m[0]
		}
	} else if m := episodeWordRe.FindStringSubmatchIndex(normalized); m != nil {
		h.Season = 1
		h.Episode = atoi(normalized[m[2]:m[3]])
		if m[0] < cut {
			cut = m[0]
		}
	}

	if m := resolutionRe.FindStringSubmatchIndex(normalized); m != nil {
		h.Resolution = strings.ToLower(normalized[m[2]:m[3]])
		if m[0] < cut {
			cut = m[0]
		}
	}

	// A leading year is part of the title ("2012", "1917"), not a marker;
	// use the first year that appears past position zero.
	for _, m := range yearRe.FindAllStringSubmatchIndex(normalized, -1) {
		if m[0] == 0 {
			continue
		}
		h.Year = atoi(normalized[m[2]:m[3]])
		if m[0] < cut {
			cut = m[0]
		}
		break
	}

	h.Title = cleanTitle(normalized[:cut])
	return h
}

// DetectResolution scans a filename for a resolution tag like "1080p".
// Returns "Unknown" when no tag is present.
func DetectResolution(name string) string {
	if m := resolutionRe.FindStringSubmatch(name); m != nil {
		return strings.ToLower(m[1])
	}
	return "Unknown"
}

func cleanTitle(segment string) string {
	segment = bracketRe.ReplaceAllString(segment, " ")
	segment = strings.Map(func(r rune) rune {
		switch r {
		case '-', '(', ')', '[', ']':
			return ' '
		}
		return r
	}, segment)
	segment = spaceRe.ReplaceAllString(strings.TrimSpace(segment), " ")
	if segment == "" {
		return ""
	}
	return titleCaser.String(segment)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
