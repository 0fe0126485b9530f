// Package discover resolves an audit's seed input into the ordered,
// deduplicated set of URLs to audit.
//
// Two input shapes are supported: a literal URL list, which is deduplicated
// and scope-filtered in input order, and a single seed domain, which is
// expanded through its sitemap. Sitemap indexes are followed one level deep
// with a visited set guarding against self-referencing indexes.
//
// Discovery degrades gracefully: an unreachable or malformed sitemap reduces
// the result to the seed URL alone. Only a completely unresolvable seed is
// a fatal error.
package discover
