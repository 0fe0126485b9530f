package discover

import (
	"net/url"
	"strings"
)

// URLSet is an ordered, deduplicated collection of normalized URLs.
// Insertion order is the discovery order the final report preserves.
// It grows only during discovery and is treated as immutable once handed
// to the orchestrator; it is not safe for concurrent mutation.
type URLSet struct {
	order []string
	seen  map[string]struct{}
	cap   int
}

// NewURLSet creates an empty URLSet. A positive cap bounds the set size;
// Add silently refuses entries beyond the cap.
func NewURLSet(cap int) *URLSet {
	return &URLSet{
		seen: make(map[string]struct{}),
		cap:  cap,
	}
}

// Add normalizes raw and inserts it if it is new and the cap allows.
// Returns true if the URL was inserted.
func (s *URLSet) Add(raw string) bool {
	norm, err := Normalize(raw)
	if err != nil {
		return false
	}
	if _, dup := s.seen[norm]; dup {
		return false
	}
	if s.cap > 0 && len(s.order) >= s.cap {
		return false
	}
	s.seen[norm] = struct{}{}
	s.order = append(s.order, norm)
	return true
}

// Contains reports whether the set already holds the normalized form of raw.
func (s *URLSet) Contains(raw string) bool {
	norm, err := Normalize(raw)
	if err != nil {
		return false
	}
	_, ok := s.seen[norm]
	return ok
}

// Full reports whether the set has reached its cap.
func (s *URLSet) Full() bool {
	return s.cap > 0 && len(s.order) >= s.cap
}

// Len returns the number of URLs in the set.
func (s *URLSet) Len() int {
	return len(s.order)
}

// URLs returns the set's contents in insertion order.
// The returned slice is a copy; callers cannot mutate the set through it.
func (s *URLSet) URLs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Normalize canonicalizes a URL for deduplication.
//
// Design decision: We normalize because the same page appears under many
// representations:
//  1. Fragments (#anchor) do not change content
//  2. Scheme and host are case-insensitive
//  3. An empty path and "/" are the same resource
func Normalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}

	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String(), nil
}
