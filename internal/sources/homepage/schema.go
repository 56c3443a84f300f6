package homepage

// BookmarkEntry represents a single bookmark entry in bookmarks.yaml
type BookmarkEntry struct {
	Icon string `yaml:"icon"`
	Abbr string `yaml:"abbr"`
	Href string `yaml:"href"`
}

// BookmarksConfig is the root structure for bookmarks.yaml.
// The YAML structure is: - CategoryName: [ - BookmarkName: [{ icon, abbr, href }] ]
type BookmarksConfig []map[string][]map[string][]BookmarkEntry

// ServicesConfig is the root structure for services.yaml.
// Homepage uses dynamic keys, so we parse as []map[string][]map[string]ServiceProps
type ServicesConfig []map[string][]map[string]ServiceProps

// ServiceProps contains the service properties used for import
type ServiceProps struct {
	Href        string `yaml:"href"`
	Icon        string `yaml:"icon,omitempty"`
	Description string `yaml:"description,omitempty"`
}
