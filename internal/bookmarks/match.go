package bookmarks

import (
	"net/url"
	"strings"

	"github.com/MrSnakeDoc/bookmarker/internal/domain"
)

// Match weights. Only their order matters.
const (
	scoreExact     = 300.0
	scorePrefix    = 75.0
	scoreSubstring = 50.0
	scoreWords     = 25.0

	scorePositionBonus = 10.0

	// minSimilarity is the share of query characters that must appear in
	// a field for a fuzzy hit.
	minSimilarity = 0.8
	minFuzzyLen   = 3
)

// Score rates how well query matches b's note or URL host. Zero means no
// match.
func Score(query string, b domain.Bookmark) float64 {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return 0
	}

	best := scoreField(query, strings.ToLower(b.Note))
	if u, err := url.Parse(b.URL); err == nil {
		best = max(best, scoreField(query, strings.ToLower(u.Hostname())))
	}
	return best
}

func scoreField(query, field string) float64 {
	if field == "" {
		return 0
	}

	if query == field {
		return scoreExact
	}
	if strings.HasPrefix(field, query) {
		return scorePrefix
	}
	if i := strings.Index(field, query); i >= 0 {
		// Earlier substring matches get higher score
		return scoreSubstring + scorePositionBonus*(1.0-float64(i)/float64(len(field)))
	}

	// All query words present, in any order
	if words := strings.Fields(query); len(words) > 1 {
		all := true
		for _, w := range words {
			if !strings.Contains(field, w) {
				all = false
				break
			}
		}
		if all {
			return scoreWords
		}
	}

	if len(query) >= minFuzzyLen {
		if sim := similarity(query, field); sim >= minSimilarity {
			return scoreWords * sim
		}
	}
	return 0
}

// similarity is the ratio of query characters found in field.
func similarity(query, field string) float64 {
	matches, total := 0, 0
	for _, c := range query {
		if c == ' ' {
			continue
		}
		total++
		if strings.ContainsRune(field, c) {
			matches++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(matches) / float64(total)
}

// Filter keeps the bookmarks matching query, in their original order. An
// empty query keeps everything.
func Filter(list []domain.Bookmark, query string) []domain.Bookmark {
	if strings.TrimSpace(query) == "" {
		return list
	}

	out := make([]domain.Bookmark, 0, len(list))
	for _, b := range list {
		if Score(query, b) > 0 {
			out = append(out, b)
		}
	}
	return out
}
