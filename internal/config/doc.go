// Package config provides configuration structures and utilities for seolens.
// It defines the audit job options (seeds, caps, timeouts), report generation
// preferences, and the optional YAML file with per-domain overrides.
package config
