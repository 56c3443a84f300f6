package homepage

import (
	"sort"

	"github.com/MrSnakeDoc/bookmarker/internal/domain"
)

// MapBookmarks converts BookmarksConfig to entries. The note is the abbr,
// or the bookmark name when there is none.
func MapBookmarks(config BookmarksConfig) []domain.Entry {
	var entries []domain.Entry

	for _, category := range config {
		for _, categoryName := range sortedKeys(category) {
			for _, bookmarkMap := range category[categoryName] {
				for _, bookmarkName := range sortedKeys(bookmarkMap) {
					// Each bookmark has a list with a single entry
					list := bookmarkMap[bookmarkName]
					if len(list) == 0 {
						continue
					}
					entry := list[0]

					note := entry.Abbr
					if note == "" {
						note = bookmarkName
					}
					entries = append(entries, domain.Entry{URL: entry.Href, Note: note})
				}
			}
		}
	}
	return entries
}

// MapServices converts ServicesConfig to entries noted by service name.
func MapServices(config ServicesConfig) []domain.Entry {
	var entries []domain.Entry

	for _, group := range config {
		for _, groupName := range sortedKeys(group) {
			for _, serviceMap := range group[groupName] {
				for _, serviceName := range sortedKeys(serviceMap) {
					props := serviceMap[serviceName]
					entries = append(entries, domain.Entry{URL: props.Href, Note: serviceName})
				}
			}
		}
	}
	return entries
}

// sortedKeys gives map iteration a stable order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
