package discover

import (
	"strings"
	"testing"
)

// TestParseSitemap tests decoding of urlset and index documents.
func TestParseSitemap(t *testing.T) {
	t.Parallel()

	t.Run("urlset document", func(t *testing.T) {
		t.Parallel()

		xml := `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.com/</loc><lastmod>2026-01-01</lastmod></url>
  <url><loc>https://example.com/about</loc></url>
  <url><loc>https://example.com/pricing</loc><priority>0.8</priority></url>
</urlset>`

		doc, err := parseSitemap(strings.NewReader(xml))
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}

		want := []string{
			"https://example.com/",
			"https://example.com/about",
			"https://example.com/pricing",
		}
		if len(doc.Pages) != len(want) {
			t.Fatalf("expected %d pages, got %d", len(want), len(doc.Pages))
		}
		for i, w := range want {
			if doc.Pages[i] != w {
				t.Errorf("page %d: expected %q, got %q", i, w, doc.Pages[i])
			}
		}
		if doc.isIndex() {
			t.Error("urlset document must not be an index")
		}
	})

	t.Run("sitemap index document", func(t *testing.T) {
		t.Parallel()

		xml := `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>https://example.com/sitemap-posts.xml</loc></sitemap>
  <sitemap><loc>https://example.com/sitemap-pages.xml</loc></sitemap>
</sitemapindex>`

		doc, err := parseSitemap(strings.NewReader(xml))
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}

		if !doc.isIndex() {
			t.Fatal("expected index document")
		}
		if len(doc.Children) != 2 {
			t.Errorf("expected 2 children, got %d", len(doc.Children))
		}
		if len(doc.Pages) != 0 {
			t.Errorf("index has no pages, got %d", len(doc.Pages))
		}
	})

	t.Run("missing namespace still parses", func(t *testing.T) {
		t.Parallel()

		xml := `<urlset><url><loc>https://example.com/a</loc></url></urlset>`

		doc, err := parseSitemap(strings.NewReader(xml))
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if len(doc.Pages) != 1 {
			t.Errorf("expected 1 page, got %d", len(doc.Pages))
		}
	})

	t.Run("empty loc entries are dropped", func(t *testing.T) {
		t.Parallel()

		xml := `<urlset>
  <url><loc></loc></url>
  <url><loc>https://example.com/kept</loc></url>
  <url></url>
</urlset>`

		doc, err := parseSitemap(strings.NewReader(xml))
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if len(doc.Pages) != 1 || doc.Pages[0] != "https://example.com/kept" {
			t.Errorf("expected only the non-empty loc, got %v", doc.Pages)
		}
	})

	t.Run("malformed XML returns error", func(t *testing.T) {
		t.Parallel()

		if _, err := parseSitemap(strings.NewReader("<urlset><url>")); err == nil {
			t.Error("expected error for truncated XML")
		}
	})
}
