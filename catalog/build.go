package catalog

import (
	"fmt"
	"time"

	"github.com/c360studio/semdocs/asciidoc"
	"github.com/c360studio/semdocs/config"
)

// URLOptionsFromConfig reads the URL options from a playbook.
func URLOptionsFromConfig(cfg *config.Config) URLOptions {
	if cfg == nil {
		return URLOptions{}.normalize()
	}
	return URLOptions{
		HTMLExtensionStyle:             HTMLExtensionStyle(cfg.URLs.HTMLExtensionStyle),
		RedirectFacility:               cfg.URLs.RedirectFacility,
		LatestVersionSegmentStrategy:   SegmentStrategy(cfg.URLs.LatestVersionSegmentStrategy),
		LatestVersionSegment:           cfg.URLs.LatestVersionSegment,
		LatestPrereleaseVersionSegment: cfg.URLs.LatestPrereleaseVersionSegment,
	}.normalize()
}

// Classify builds a catalog from the component version groups handed over by
// the aggregator. Versions are registered first so every file is addressed
// against the final version order; then files are classified, page aliases
// and start pages registered. Duplicate versions or resources abort the build
// and no catalog is returned. Start page problems are only warnings.
func Classify(cfg *config.Config, groups []*Group, site *asciidoc.Config, opts ...Option) (*Catalog, error) {
	start := time.Now()
	urls := URLOptionsFromConfig(cfg)
	if err := urls.validate(); err != nil {
		return nil, err
	}
	c := New(append([]Option{WithURLOptions(urls)}, opts...)...)

	versions := make([]*ComponentVersion, len(groups))
	for i, group := range groups {
		cv, err := c.RegisterComponentVersion(group.Name, group.Version, VersionDescriptor{
			Title:          group.Title,
			DisplayVersion: group.DisplayVersion,
			Prerelease:     group.Prerelease,
			StartPage:      group.StartPage,
			AsciiDoc:       asciidoc.Resolve(site, group.AsciiDoc),
			Nav:            group.Nav,
		})
		if err != nil {
			return nil, err
		}
		versions[i] = cv
	}

	for i, group := range groups {
		for _, file := range group.Files {
			if _, err := c.AddFile(versions[i], file); err != nil {
				return nil, fmt.Errorf("classify %s: %w", versions[i], err)
			}
		}
	}

	for _, page := range c.GetPages(nil) {
		if _, err := c.RegisterPageAliases(page); err != nil {
			return nil, err
		}
	}

	for _, cv := range versions {
		if _, err := c.RegisterComponentVersionStartPage(cv.Name, cv.Version, cv.StartPage); err != nil {
			return nil, err
		}
	}

	if cfg != nil && cfg.Site.StartPage != "" {
		if _, err := c.RegisterSiteStartPage(cfg.Site.StartPage); err != nil {
			return nil, err
		}
	}

	stats := c.Stats()
	c.logger.Info("Classified content",
		"build_id", c.buildID,
		"components", stats.Components,
		"versions", stats.Versions,
		"resources", stats.Resources,
		"rejected", stats.Rejected,
		"duration", time.Since(start))
	return c, nil
}
