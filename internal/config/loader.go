package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".seolens"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// DomainConfig holds per-domain overrides applied when auditing that domain.
type DomainConfig struct {
	// Headers are custom HTTP headers to include in requests to this domain.
	Headers map[string]string `yaml:"headers,omitempty"`

	// UserAgent overrides the global User-Agent for this domain.
	UserAgent string `yaml:"userAgent,omitempty"`

	// MaxPages overrides the global page cap for this domain.
	// Zero means use the global value.
	MaxPages int `yaml:"maxPages,omitempty"`

	// SitemapURL overrides the default <domain>/sitemap.xml location.
	SitemapURL string `yaml:"sitemapURL,omitempty"`
}

// File represents the structure of the .seolens configuration file.
type File struct {
	// Domains maps a host (e.g. "example.com") to its overrides.
	Domains map[string]DomainConfig `yaml:"domains,omitempty"`

	// Defaults contains overrides applied to every domain unless the
	// domain-specific entry sets its own value.
	Defaults DomainConfig `yaml:"defaults,omitempty"`
}

// GetDomainConfig returns the configuration for a host, merging the
// domain-specific entry over the defaults.
func (f *File) GetDomainConfig(host string) DomainConfig {
	result := f.Defaults

	dc, ok := f.Domains[host]
	if !ok {
		return result
	}
	if dc.UserAgent != "" {
		result.UserAgent = dc.UserAgent
	}
	if dc.MaxPages > 0 {
		result.MaxPages = dc.MaxPages
	}
	if dc.SitemapURL != "" {
		result.SitemapURL = dc.SitemapURL
	}
	if len(dc.Headers) > 0 {
		// Copy before merging so repeated lookups never mutate Defaults.
		merged := make(map[string]string, len(result.Headers)+len(dc.Headers))
		for k, v := range result.Headers {
			merged[k] = v
		}
		for k, v := range dc.Headers {
			merged[k] = v
		}
		result.Headers = merged
	}

	return result
}

// LoadConfigFile loads per-domain configuration from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound. Callers should
// handle this based on whether the path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	if f.Domains == nil {
		f.Domains = make(map[string]DomainConfig)
	}

	return &f, nil
}

// FindConfigFile searches for the configuration file in the following order:
//  1. If configPath is specified, use it directly
//  2. Look for .seolens in the current directory
//  3. Look for .seolens in the user's home directory
//
// Returns the path if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		p := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		p := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
