package htmldom

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// URLFunc maps a category and 1-based page index to the listing URL.
type URLFunc func(category string, index int) string

// LoadDir builds a Site from saved listing pages. Files must be named
// "<category>_<page>.html" (e.g. men_1.html); each one is served at
// urlFor(category, page). The categories found are returned sorted.
func LoadDir(dir string, urlFor URLFunc) (*Site, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("htmldom: read dir: %w", err)
	}

	site := NewSite()
	seen := make(map[string]struct{})
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".html" {
			continue
		}
		category, index, err := parseSnapshotName(entry.Name())
		if err != nil {
			return nil, nil, err
		}
		body, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, nil, fmt.Errorf("htmldom: read %s: %w", entry.Name(), err)
		}
		site.Add(urlFor(category, index), string(body))
		seen[category] = struct{}{}
	}

	categories := make([]string, 0, len(seen))
	for c := range seen {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return site, categories, nil
}

func parseSnapshotName(name string) (string, int, error) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	i := strings.LastIndexByte(stem, '_')
	if i <= 0 {
		return "", 0, fmt.Errorf("htmldom: %s: expected <category>_<page>.html", name)
	}
	index, err := strconv.Atoi(stem[i+1:])
	if err != nil || index < 1 {
		return "", 0, fmt.Errorf("htmldom: %s: invalid page index", name)
	}
	return stem[:i], index, nil
}
