// Package homepage reads the bookmarks.yaml and services.yaml files of a
// Homepage dashboard into importable entries.
package homepage

import (
	"errors"
	"fmt"
	"io"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/bookmarker/internal/domain"
)

// MaxFileSize bounds an uploaded file.
const MaxFileSize = 1 << 20

var (
	templateVar = regexp.MustCompile(`\{\{[^}]+\}\}`)

	ErrEmpty    = errors.New("no entries found in homepage file")
	ErrTooLarge = fmt.Errorf("homepage file exceeds %d bytes", MaxFileSize)
)

// Parse reads a bookmarks.yaml or, failing that, a services.yaml document
// and returns one entry per link in file order. Entries are not validated.
func Parse(r io.Reader) ([]domain.Entry, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read homepage file: %w", err)
	}
	if len(data) > MaxFileSize {
		return nil, ErrTooLarge
	}

	// Strip Homepage template variables ({{HOMEPAGE_VAR_...}})
	data = stripTemplateVariables(data)

	var bookmarks BookmarksConfig
	bookmarksErr := yaml.Unmarshal(data, &bookmarks)
	if bookmarksErr == nil {
		if entries := MapBookmarks(bookmarks); len(entries) > 0 {
			return entries, nil
		}
	}

	var services ServicesConfig
	if err := yaml.Unmarshal(data, &services); err != nil {
		if bookmarksErr != nil {
			return nil, fmt.Errorf("failed to parse homepage yaml: %w", bookmarksErr)
		}
		return nil, fmt.Errorf("failed to parse homepage yaml: %w", err)
	}
	if entries := MapServices(services); len(entries) > 0 {
		return entries, nil
	}
	return nil, ErrEmpty
}

// stripTemplateVariables removes Homepage template variables from YAML
// Example: {{HOMEPAGE_VAR_ADGUARD_USER}} -> ""
func stripTemplateVariables(data []byte) []byte {
	return templateVar.ReplaceAll(data, []byte(`""`))
}
