// Package main provides the entry point for the seolens CLI.
//
// seolens is an SEO auditing tool for public websites. It discovers a
// site's pages via its sitemap, fetches them concurrently, and reports
// on-page SEO issues and broken links.
//
// Usage:
//
//	seolens audit <site>
//	seolens audit <url> <url> ...
//
// See --help for all available options.
package main

// main is the entry point for seolens.
func main() {
	Execute()
}
