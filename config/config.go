// Package config provides playbook loading and management for semdocs.
package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/semdocs/asciidoc"
)

// Config is the playbook: what to aggregate and how to address it.
type Config struct {
	Site     SiteConfig       `yaml:"site"`
	URLs     URLConfig        `yaml:"urls"`
	Content  ContentConfig    `yaml:"content"`
	AsciiDoc *asciidoc.Config `yaml:"asciidoc,omitempty"`
}

// SiteConfig configures the site as a whole
type SiteConfig struct {
	// Title is the site title
	Title string `yaml:"title,omitempty"`
	// URL is the absolute base URL of the published site
	URL string `yaml:"url,omitempty"`
	// StartPage is a page reference naming the page served at the site root
	// (e.g., "the-component::index.adoc")
	StartPage string `yaml:"start_page,omitempty"`
}

// URLConfig configures how output paths and URLs are computed
type URLConfig struct {
	// HTMLExtensionStyle is one of default, indexify or drop
	HTMLExtensionStyle string `yaml:"html_extension_style,omitempty"`
	// RedirectFacility names the redirect producer (default: static)
	RedirectFacility string `yaml:"redirect_facility,omitempty"`
	// LatestVersionSegment replaces the version segment of the latest release.
	// An explicit empty value removes the segment.
	LatestVersionSegment *string `yaml:"latest_version_segment,omitempty"`
	// LatestPrereleaseVersionSegment replaces the version segment of the
	// latest prerelease
	LatestPrereleaseVersionSegment *string `yaml:"latest_prerelease_version_segment,omitempty"`
	// LatestVersionSegmentStrategy is one of replace, redirect:from or redirect:to
	LatestVersionSegmentStrategy string `yaml:"latest_version_segment_strategy,omitempty"`
}

// ContentConfig lists the content sources
type ContentConfig struct {
	Sources []SourceConfig `yaml:"sources"`
}

// SourceConfig is one content source. Sources are local worktrees.
type SourceConfig struct {
	// URL is the repository location; relative paths resolve against the
	// playbook directory
	URL string `yaml:"url"`
	// Branch labels the files read from the worktree in origin metadata
	Branch string `yaml:"branch,omitempty"`
	// StartPath is the directory holding the component descriptor
	StartPath string `yaml:"start_path,omitempty"`
	// StartPaths lists several component roots in one repository; glob
	// patterns are allowed
	StartPaths []string `yaml:"start_paths,omitempty"`
	// Exclude lists glob patterns of files to skip, relative to the start path
	Exclude []string `yaml:"exclude,omitempty"`
}

var (
	htmlExtensionStyles = []string{"default", "indexify", "drop"}
	redirectFacilities  = []string{"static", "disabled", "gitlab", "httpd", "netlify", "nginx"}
	segmentStrategies   = []string{"replace", "redirect:from", "redirect:to"}
)

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		URLs: URLConfig{
			HTMLExtensionStyle: "default",
			RedirectFacility:   "static",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.URLs.HTMLExtensionStyle != "" && !slices.Contains(htmlExtensionStyles, c.URLs.HTMLExtensionStyle) {
		return fmt.Errorf("urls.html_extension_style must be one of %v, got %q", htmlExtensionStyles, c.URLs.HTMLExtensionStyle)
	}
	if c.URLs.RedirectFacility != "" && !slices.Contains(redirectFacilities, c.URLs.RedirectFacility) {
		return fmt.Errorf("urls.redirect_facility must be one of %v, got %q", redirectFacilities, c.URLs.RedirectFacility)
	}
	if s := c.URLs.LatestVersionSegmentStrategy; s != "" && !slices.Contains(segmentStrategies, s) {
		return fmt.Errorf("urls.latest_version_segment_strategy must be one of %v, got %q", segmentStrategies, s)
	}
	for i, src := range c.Content.Sources {
		if src.URL == "" {
			return fmt.Errorf("content.sources[%d].url is required", i)
		}
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Relative source locations are relative to the playbook
	dir := filepath.Dir(path)
	for i := range config.Content.Sources {
		if u := config.Content.Sources[i].URL; u != "" && !filepath.IsAbs(u) && !IsRemote(u) {
			config.Content.Sources[i].URL = filepath.Join(dir, u)
		}
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Site
	if other.Site.Title != "" {
		c.Site.Title = other.Site.Title
	}
	if other.Site.URL != "" {
		c.Site.URL = other.Site.URL
	}
	if other.Site.StartPage != "" {
		c.Site.StartPage = other.Site.StartPage
	}

	// URLs
	if other.URLs.HTMLExtensionStyle != "" {
		c.URLs.HTMLExtensionStyle = other.URLs.HTMLExtensionStyle
	}
	if other.URLs.RedirectFacility != "" {
		c.URLs.RedirectFacility = other.URLs.RedirectFacility
	}
	if other.URLs.LatestVersionSegment != nil {
		c.URLs.LatestVersionSegment = other.URLs.LatestVersionSegment
	}
	if other.URLs.LatestPrereleaseVersionSegment != nil {
		c.URLs.LatestPrereleaseVersionSegment = other.URLs.LatestPrereleaseVersionSegment
	}
	if other.URLs.LatestVersionSegmentStrategy != "" {
		c.URLs.LatestVersionSegmentStrategy = other.URLs.LatestVersionSegmentStrategy
	}

	// Content sources are replaced, not appended
	if len(other.Content.Sources) > 0 {
		c.Content.Sources = other.Content.Sources
	}

	// AsciiDoc attributes merge by name
	if other.AsciiDoc != nil {
		if c.AsciiDoc == nil {
			c.AsciiDoc = &asciidoc.Config{}
		}
		if len(other.AsciiDoc.Attributes) > 0 {
			if c.AsciiDoc.Attributes == nil {
				c.AsciiDoc.Attributes = make(asciidoc.Attributes, len(other.AsciiDoc.Attributes))
			}
			maps.Copy(c.AsciiDoc.Attributes, other.AsciiDoc.Attributes)
		}
		if len(other.AsciiDoc.Extensions) > 0 {
			c.AsciiDoc.Extensions = other.AsciiDoc.Extensions
		}
	}
}

// IsRemote reports whether a source URL points at a remote repository rather
// than a local directory.
func IsRemote(u string) bool {
	for _, prefix := range []string{"http://", "https://", "git@", "git://", "ssh://", "file://"} {
		if strings.HasPrefix(u, prefix) {
			return true
		}
	}
	return false
}
