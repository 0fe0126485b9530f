package analyze

import (
	"encoding/json"
	"sort"

	"github.com/PuerkitoBio/goquery"
)

// extractSchemaTypes collects the unique JSON-LD @type values declared on a
// page, sorted for stable output. Malformed JSON-LD blocks are skipped; a
// broken script tag is the page author's problem, not the audit's.
func extractSchemaTypes(doc *goquery.Document) []string {
	found := make(map[string]struct{})

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return
		}
		collectTypes(data, found)
	})

	if len(found) == 0 {
		return nil
	}

	types := make([]string, 0, len(found))
	for t := range found {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// collectTypes walks a decoded JSON-LD value and gathers every @type,
// including nested and graph entries. @type may be a string or a list.
func collectTypes(data any, found map[string]struct{}) {
	switch v := data.(type) {
	case map[string]any:
		if t, ok := v["@type"]; ok {
			switch tv := t.(type) {
			case string:
				found[tv] = struct{}{}
			case []any:
				for _, item := range tv {
					if s, ok := item.(string); ok {
						found[s] = struct{}{}
					}
				}
			}
		}
		for _, value := range v {
			collectTypes(value, found)
		}
	case []any:
		for _, item := range v {
			collectTypes(item, found)
		}
	}
}
