package catalog

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// HTMLExtensionStyle controls how the .html extension appears in page URLs.
type HTMLExtensionStyle string

// HTML extension styles.
const (
	StyleDefault  HTMLExtensionStyle = "default"
	StyleDrop     HTMLExtensionStyle = "drop"
	StyleIndexify HTMLExtensionStyle = "indexify"
)

// IsValid reports whether s is a known style.
func (s HTMLExtensionStyle) IsValid() bool {
	switch s {
	case StyleDefault, StyleDrop, StyleIndexify:
		return true
	default:
		return false
	}
}

// SegmentStrategy controls how the latest version segment is applied.
type SegmentStrategy string

// Latest version segment strategies.
const (
	StrategyReplace      SegmentStrategy = "replace"
	StrategyRedirectFrom SegmentStrategy = "redirect:from"
	StrategyRedirectTo   SegmentStrategy = "redirect:to"
)

// IsValid reports whether s is a known strategy.
func (s SegmentStrategy) IsValid() bool {
	switch s {
	case StrategyReplace, StrategyRedirectFrom, StrategyRedirectTo:
		return true
	default:
		return false
	}
}

// DefaultRedirectFacility is used when no redirect facility is configured.
const DefaultRedirectFacility = "static"

// URLOptions is the URL configuration the catalog computes addresses with.
// A nil segment is unset; a non-nil empty segment drops the version segment
// for the matching version.
type URLOptions struct {
	HTMLExtensionStyle             HTMLExtensionStyle
	RedirectFacility               string
	LatestVersionSegmentStrategy   SegmentStrategy
	LatestVersionSegment           *string
	LatestPrereleaseVersionSegment *string
}

// normalize applies the defaults: style default, redirect facility static,
// strategy replace when a segment is given. When neither segment carries a
// value the strategy and both segments are cleared.
func (o URLOptions) normalize() URLOptions {
	if o.HTMLExtensionStyle == "" {
		o.HTMLExtensionStyle = StyleDefault
	}
	if o.RedirectFacility == "" {
		o.RedirectFacility = DefaultRedirectFacility
	}
	hasValue := func(s *string) bool { return s != nil && *s != "" }
	if !hasValue(o.LatestVersionSegment) && !hasValue(o.LatestPrereleaseVersionSegment) {
		o.LatestVersionSegmentStrategy = ""
		o.LatestVersionSegment = nil
		o.LatestPrereleaseVersionSegment = nil
		return o
	}
	if o.LatestVersionSegmentStrategy == "" {
		o.LatestVersionSegmentStrategy = StrategyReplace
	}
	return o
}

func (o URLOptions) validate() error {
	if !o.HTMLExtensionStyle.IsValid() {
		return fmt.Errorf("invalid html extension style: %s", o.HTMLExtensionStyle)
	}
	if o.LatestVersionSegmentStrategy != "" && !o.LatestVersionSegmentStrategy.IsValid() {
		return fmt.Errorf("invalid latest version segment strategy: %s", o.LatestVersionSegmentStrategy)
	}
	return nil
}

func (o URLOptions) hasLatestSegments() bool {
	return o.LatestVersionSegment != nil || o.LatestPrereleaseVersionSegment != nil
}

// SegmentMode selects which version segment VersionSegment computes.
type SegmentMode int

// Segment modes.
const (
	// SegmentPublish is the segment a version is published under.
	SegmentPublish SegmentMode = iota
	// SegmentAlias is the segment a redirect to the published location is created at.
	SegmentAlias
	// SegmentOriginal is the version itself, with the elision rules applied.
	SegmentOriginal
)

// isElidedVersion reports whether a version is left out of output paths.
func isElidedVersion(version string) bool {
	return version == "" || version == legacyVersion
}

// VersionSegment returns the path segment used for a component version. The
// empty version and the legacy default-branch version always yield "". For the
// latest release and latest prerelease the configured replacement segment is
// applied according to the strategy and mode.
func (c *Catalog) VersionSegment(name, version string, mode SegmentMode) string {
	if isElidedVersion(version) {
		return ""
	}
	if mode == SegmentOriginal || !c.urls.hasLatestSegments() {
		return version
	}
	strategy := c.urls.LatestVersionSegmentStrategy
	var replaces bool
	switch mode {
	case SegmentPublish:
		replaces = strategy == StrategyReplace || strategy == StrategyRedirectTo
	case SegmentAlias:
		replaces = strategy == StrategyRedirectFrom
	}
	if !replaces {
		return version
	}
	component := c.components[name]
	if component == nil {
		return version
	}
	cv := component.Version(version)
	if cv == nil {
		return version
	}
	var segment *string
	switch cv {
	case component.LatestRelease():
		segment = c.urls.LatestVersionSegment
	case component.LatestPrerelease():
		segment = c.urls.LatestPrereleaseVersionSegment
	}
	if segment == nil {
		return version
	}
	return *segment
}

// computeOut derives the on-disk output coordinates of a resource.
func (c *Catalog) computeOut(src *Src) *Out {
	component := src.Component
	if component == RootName {
		component = ""
	}
	module := src.Module
	if module == RootName {
		module = ""
	}
	basename := src.Basename
	indexifySegment := ""
	if src.Family == FamilyPage || src.Family == FamilyAlias {
		switch {
		case src.Stem != "index" && c.urls.HTMLExtensionStyle == StyleIndexify:
			basename = "index.html"
			indexifySegment = src.Stem
		case src.Extname == ".adoc":
			basename = src.Stem + ".html"
		}
	}
	familySegment := ""
	switch src.Family {
	case FamilyImage:
		familySegment = "_images"
	case FamilyAttachment:
		familySegment = "_attachments"
	}

	modulePath := cleanJoin(component, c.VersionSegment(src.Component, src.Version, SegmentPublish), module)
	dirname := cleanJoin(modulePath, familySegment, path.Dir(src.Relative), indexifySegment)
	return &Out{
		Path:           cleanJoin(dirname, basename),
		Dirname:        dirname,
		Basename:       basename,
		ModuleRootPath: relativeUp(dirname, modulePath),
		RootPath:       relativeUp(dirname, "."),
	}
}

// computePub derives the published address of a resource from its out
// coordinates. Nav files have no out but get the URL of their module root.
func (c *Catalog) computePub(src *Src, out *Out) *Pub {
	if src.Family == FamilyNav {
		component := src.Component
		if component == RootName {
			component = ""
		}
		segments := []string{component, c.VersionSegment(src.Component, src.Version, SegmentPublish)}
		if src.Module != "" && src.Module != RootName {
			segments = append(segments, src.Module)
		}
		dir := cleanJoin(segments...)
		if dir == "." {
			return &Pub{URL: "/", ModuleRootPath: "."}
		}
		return &Pub{URL: "/" + encodeSegments(strings.Split(dir, "/")) + "/", ModuleRootPath: "."}
	}
	if out == nil {
		return nil
	}

	segments := strings.Split(out.Path, "/")
	last := len(segments) - 1
	if src.Family == FamilyPage || src.Family == FamilyAlias {
		switch c.urls.HTMLExtensionStyle {
		case StyleDrop:
			if segments[last] == "index.html" {
				segments[last] = ""
			} else {
				segments[last] = strings.TrimSuffix(segments[last], ".html")
			}
		case StyleIndexify:
			segments[last] = ""
		}
	}
	return &Pub{
		URL:            "/" + encodeSegments(segments),
		ModuleRootPath: out.ModuleRootPath,
		RootPath:       out.RootPath,
	}
}

// publish sets out and pub on a resource according to its family and
// visibility, clearing them when the resource must not be published. Nav files
// are never written out but always get a pub, even below an underscore
// segment, so links inside them can be resolved.
func (c *Catalog) publish(r *Resource) {
	src := &r.Src
	switch {
	case src.Family == FamilyNav:
		r.Out = nil
		r.Pub = c.computePub(src, nil)
	case src.Family.publishable() && !r.IsPrivate():
		r.Out = c.computeOut(src)
		r.Pub = c.computePub(src, r.Out)
	default:
		r.Out = nil
		r.Pub = nil
	}
}

// SetHTMLExtensionStyle switches the HTML extension style and recomputes the
// out and pub coordinates of every resource, so styles can be switched back
// and forth without drift.
func (c *Catalog) SetHTMLExtensionStyle(style HTMLExtensionStyle) error {
	if !style.IsValid() {
		return fmt.Errorf("invalid html extension style: %s", style)
	}
	c.urls.HTMLExtensionStyle = style
	c.republishAll()
	return nil
}

// URLOptions returns the URL options in effect.
func (c *Catalog) URLOptions() URLOptions {
	return c.urls
}

// republishAll recomputes out and pub for every resource and refreshes every
// component version URL.
func (c *Catalog) republishAll() {
	for _, r := range c.resources {
		if !hasFixedAddress(r) {
			c.publish(r)
		}
	}
	for _, component := range c.components {
		for _, cv := range component.Versions {
			cv.URL = c.defaultVersionURL(cv)
		}
	}
}

// republishComponent recomputes the addresses of one component's resources.
// Registering or removing a version can move the latest release, which
// changes the version segment of its neighbours.
func (c *Catalog) republishComponent(component *Component) {
	for _, r := range c.resources {
		if r.Src.Component == component.Name && !hasFixedAddress(r) {
			c.publish(r)
		}
	}
	for _, cv := range component.Versions {
		cv.URL = c.defaultVersionURL(cv)
	}
}

// hasFixedAddress reports whether a resource carries hand-assigned out and
// pub coordinates, such as the synthetic 404 page.
func hasFixedAddress(r *Resource) bool {
	return r.Synthetic && r.Src.Family != FamilyAlias
}

// cleanJoin joins path segments, skipping empty ones, and returns "." when
// nothing remains.
func cleanJoin(elem ...string) string {
	joined := path.Join(elem...)
	if joined == "" {
		return "."
	}
	return joined
}

// relativeUp returns the relative path from dir up to its ancestor root, as
// "../" steps or "." when they are the same directory.
func relativeUp(dir, root string) string {
	depth := func(p string) int {
		if p == "." || p == "" {
			return 0
		}
		return strings.Count(p, "/") + 1
	}
	return upPath(depth(dir) - depth(root))
}

func encodeSegments(segments []string) string {
	encoded := make([]string, len(segments))
	for i, s := range segments {
		encoded[i] = url.PathEscape(s)
	}
	return strings.Join(encoded, "/")
}
