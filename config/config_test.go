package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/c360studio/semdocs/asciidoc"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.URLs.HTMLExtensionStyle != "default" {
		t.Errorf("expected default html extension style, got %s", cfg.URLs.HTMLExtensionStyle)
	}
	if cfg.URLs.RedirectFacility != "static" {
		t.Errorf("expected static redirect facility, got %s", cfg.URLs.RedirectFacility)
	}
	if cfg.URLs.LatestVersionSegment != nil {
		t.Error("expected no latest version segment by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "unset style is allowed",
			modify:  func(c *Config) { c.URLs.HTMLExtensionStyle = "" },
			wantErr: false,
		},
		{
			name:    "unknown html extension style",
			modify:  func(c *Config) { c.URLs.HTMLExtensionStyle = "strip" },
			wantErr: true,
		},
		{
			name:    "unknown redirect facility",
			modify:  func(c *Config) { c.URLs.RedirectFacility = "apache" },
			wantErr: true,
		},
		{
			name:    "unknown segment strategy",
			modify:  func(c *Config) { c.URLs.LatestVersionSegmentStrategy = "redirect" },
			wantErr: true,
		},
		{
			name:    "source without url",
			modify:  func(c *Config) { c.Content.Sources = []SourceConfig{{Branch: "main"}} },
			wantErr: true,
		},
		{
			name: "indexify with redirect:from",
			modify: func(c *Config) {
				c.URLs.HTMLExtensionStyle = "indexify"
				c.URLs.LatestVersionSegmentStrategy = "redirect:from"
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temp file with config
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "semdocs.yml")

	content := `
site:
  title: Docs Site
  url: https://docs.example.org
  start_page: the-component::index.adoc
urls:
  html_extension_style: indexify
  latest_version_segment: ''
  latest_prerelease_version_segment: next
  latest_version_segment_strategy: redirect:to
content:
  sources:
    - url: ./docs
      branch: main
      start_paths: [components/*]
      exclude: ['**/drafts/**']
    - url: https://githost/repo.git
asciidoc:
  attributes:
    product: Widget@
    experimental: ~
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Site.Title != "Docs Site" {
		t.Errorf("expected site title Docs Site, got %s", cfg.Site.Title)
	}
	if cfg.Site.StartPage != "the-component::index.adoc" {
		t.Errorf("expected start page the-component::index.adoc, got %s", cfg.Site.StartPage)
	}
	if cfg.URLs.HTMLExtensionStyle != "indexify" {
		t.Errorf("expected style indexify, got %s", cfg.URLs.HTMLExtensionStyle)
	}
	// An explicit empty segment is kept apart from an absent one
	if cfg.URLs.LatestVersionSegment == nil || *cfg.URLs.LatestVersionSegment != "" {
		t.Errorf("expected explicit empty latest version segment, got %v", cfg.URLs.LatestVersionSegment)
	}
	if cfg.URLs.LatestPrereleaseVersionSegment == nil || *cfg.URLs.LatestPrereleaseVersionSegment != "next" {
		t.Errorf("expected prerelease segment next, got %v", cfg.URLs.LatestPrereleaseVersionSegment)
	}
	if cfg.URLs.LatestVersionSegmentStrategy != "redirect:to" {
		t.Errorf("expected strategy redirect:to, got %s", cfg.URLs.LatestVersionSegmentStrategy)
	}
	if len(cfg.Content.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(cfg.Content.Sources))
	}
	if want := filepath.Join(tmpDir, "docs"); cfg.Content.Sources[0].URL != want {
		t.Errorf("expected relative source resolved to %s, got %s", want, cfg.Content.Sources[0].URL)
	}
	if cfg.Content.Sources[1].URL != "https://githost/repo.git" {
		t.Errorf("expected remote source url untouched, got %s", cfg.Content.Sources[1].URL)
	}
	if got := cfg.Content.Sources[0].StartPaths; len(got) != 1 || got[0] != "components/*" {
		t.Errorf("expected start paths [components/*], got %v", got)
	}
	if cfg.AsciiDoc == nil {
		t.Fatal("expected asciidoc config")
	}
	if got := cfg.AsciiDoc.Attributes["product"]; got != asciidoc.Soft("Widget") {
		t.Errorf("expected soft-set product, got %+v", got)
	}
	if got, ok := cfg.AsciiDoc.Attributes["experimental"]; !ok || got.State != asciidoc.Unset {
		t.Errorf("expected unset experimental, got %+v", got)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.yml")
	if err := os.WriteFile(bad, []byte("urls: [not, a, map]\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	if _, err := LoadFromFile(bad); err == nil {
		t.Error("expected error for malformed file")
	}
}

func TestConfigMerge(t *testing.T) {
	latest := "latest"
	base := DefaultConfig()
	base.AsciiDoc = &asciidoc.Config{Attributes: asciidoc.Attributes{"a": asciidoc.Hard("base"), "b": asciidoc.Hard("base")}}
	override := &Config{
		Site: SiteConfig{Title: "Override"},
		URLs: URLConfig{LatestVersionSegment: &latest},
		AsciiDoc: &asciidoc.Config{
			Attributes: asciidoc.Attributes{"b": asciidoc.Soft("override")},
			Extensions: []string{"ext"},
		},
	}

	base.Merge(override)

	if base.Site.Title != "Override" {
		t.Errorf("expected title Override, got %s", base.Site.Title)
	}
	// Style should remain from base since override didn't set it
	if base.URLs.HTMLExtensionStyle != "default" {
		t.Errorf("expected style to remain default, got %s", base.URLs.HTMLExtensionStyle)
	}
	if base.URLs.LatestVersionSegment == nil || *base.URLs.LatestVersionSegment != "latest" {
		t.Errorf("expected latest version segment latest, got %v", base.URLs.LatestVersionSegment)
	}
	if got := base.AsciiDoc.Attributes["a"]; got != asciidoc.Hard("base") {
		t.Errorf("expected attribute a kept, got %+v", got)
	}
	if got := base.AsciiDoc.Attributes["b"]; got != asciidoc.Soft("override") {
		t.Errorf("expected attribute b overridden, got %+v", got)
	}
	if len(base.AsciiDoc.Extensions) != 1 {
		t.Errorf("expected extensions from override, got %v", base.AsciiDoc.Extensions)
	}

	// Attributes are copied into a config that has none
	empty := DefaultConfig()
	empty.Merge(override)
	if empty.AsciiDoc == nil || len(empty.AsciiDoc.Attributes) != 1 {
		t.Fatalf("expected override attributes, got %+v", empty.AsciiDoc)
	}
	empty.AsciiDoc.Attributes["c"] = asciidoc.Hard("local")
	if _, ok := override.AsciiDoc.Attributes["c"]; ok {
		t.Error("merged attributes should not alias the override map")
	}

	base.Merge(nil)
	if base.Site.Title != "Override" {
		t.Error("merging nil should not change the config")
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "semdocs.yml")

	empty := ""
	cfg := DefaultConfig()
	cfg.Site.Title = "Saved"
	cfg.URLs.LatestVersionSegment = &empty

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	// Verify file was created
	if _, err := os.Stat(configPath); err != nil {
		t.Errorf("config file was not created: %v", err)
	}

	// Load and verify
	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Site.Title != "Saved" {
		t.Errorf("expected title Saved, got %s", loaded.Site.Title)
	}
	if loaded.URLs.LatestVersionSegment == nil || *loaded.URLs.LatestVersionSegment != "" {
		t.Errorf("expected empty latest version segment to survive, got %v", loaded.URLs.LatestVersionSegment)
	}
}
