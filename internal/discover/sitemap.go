package discover

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

// maxSitemapSize limits how much of a sitemap document is read.
// The protocol caps sitemaps at 50MB uncompressed, but an audit never
// needs more than the page-cap's worth of locations.
const maxSitemapSize = 16 * 1024 * 1024

// sitemapDoc is the parsed content of one sitemap resource.
// A document is either a URL set (Pages) or an index (Children); in the
// wild some generators emit both, so both are collected.
type sitemapDoc struct {
	// Pages are the <url><loc> entries, in document order.
	Pages []string

	// Children are the <sitemap><loc> entries of a sitemap index.
	Children []string
}

// locEntry matches the <loc> child shared by <url> and <sitemap> elements.
type locEntry struct {
	Loc string `xml:"loc"`
}

// parseSitemap decodes a sitemap or sitemap-index document.
//
// Design decision: We walk the token stream rather than unmarshalling into
// a root struct because the root element differs between the two document
// kinds (<urlset> vs <sitemapindex>) and many real-world sitemaps omit or
// mangle the namespace. Token-level dispatch on local element names is
// robust to both.
func parseSitemap(r io.Reader) (*sitemapDoc, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSitemapSize))
	if err != nil {
		return nil, fmt.Errorf("read sitemap: %w", err)
	}

	doc := &sitemapDoc{}
	dec := xml.NewDecoder(bytes.NewReader(data))

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse sitemap: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "url":
			var e locEntry
			if err := dec.DecodeElement(&e, &start); err != nil {
				continue
			}
			if e.Loc != "" {
				doc.Pages = append(doc.Pages, e.Loc)
			}
		case "sitemap":
			var e locEntry
			if err := dec.DecodeElement(&e, &start); err != nil {
				continue
			}
			if e.Loc != "" {
				doc.Children = append(doc.Children, e.Loc)
			}
		}
	}

	return doc, nil
}

// isIndex reports whether the document refers to sub-sitemaps.
func (d *sitemapDoc) isIndex() bool {
	return len(d.Children) > 0
}
