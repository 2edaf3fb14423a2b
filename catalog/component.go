package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/c360studio/semdocs/asciidoc"
)

// Component is a named documentation unit with one or more versions.
// Title, URL and AsciiDoc are computed from the latest version so they never
// go stale when versions are added or removed.
type Component struct {
	Name     string
	Versions []*ComponentVersion
}

// Latest returns the most recent version, or nil if the component has none.
func (c *Component) Latest() *ComponentVersion {
	if len(c.Versions) == 0 {
		return nil
	}
	return c.Versions[0]
}

// LatestRelease returns the most recent version not marked as a prerelease.
// If every version is a prerelease, the most recent version is returned.
func (c *Component) LatestRelease() *ComponentVersion {
	for _, cv := range c.Versions {
		if !cv.Prerelease.IsSet() {
			return cv
		}
	}
	return c.Latest()
}

// LatestPrerelease returns the most recent version when it is a prerelease
// newer than the latest release, nil otherwise.
func (c *Component) LatestPrerelease() *ComponentVersion {
	latest := c.Latest()
	if latest == nil || !latest.Prerelease.IsSet() || latest == c.LatestRelease() {
		return nil
	}
	return latest
}

// Title returns the title of the latest version, or the name when unset.
func (c *Component) Title() string {
	if latest := c.Latest(); latest != nil && latest.Title != "" {
		return latest.Title
	}
	return c.Name
}

// URL returns the URL of the latest version.
func (c *Component) URL() string {
	if latest := c.Latest(); latest != nil {
		return latest.URL
	}
	return ""
}

// AsciiDoc returns the AsciiDoc config of the latest version.
func (c *Component) AsciiDoc() *asciidoc.Config {
	if latest := c.Latest(); latest != nil {
		return latest.AsciiDoc
	}
	return nil
}

// Version returns the component version with the given version string.
func (c *Component) Version(version string) *ComponentVersion {
	for _, cv := range c.Versions {
		if cv.Version == version {
			return cv
		}
	}
	return nil
}

// MarshalJSON includes the computed fields.
func (c *Component) MarshalJSON() ([]byte, error) {
	latest := ""
	if cv := c.Latest(); cv != nil {
		latest = cv.Version
	}
	return json.Marshal(struct {
		Name     string              `json:"name"`
		Title    string              `json:"title"`
		URL      string              `json:"url"`
		Latest   string              `json:"latest"`
		Versions []*ComponentVersion `json:"versions"`
	}{c.Name, c.Title(), c.URL(), latest, c.Versions})
}

// ComponentVersion is one versioned snapshot of a component.
type ComponentVersion struct {
	Name           string           `json:"name"`
	Version        string           `json:"version"`
	DisplayVersion string           `json:"displayVersion"`
	Prerelease     Prerelease       `json:"prerelease"`
	Title          string           `json:"title"`
	URL            string           `json:"url"`
	AsciiDoc       *asciidoc.Config `json:"-"`
	// StartPage is the start page ref declared by the component descriptor.
	StartPage string `json:"startPage,omitempty"`
	// Nav lists the nav files declared by the component descriptor, in order.
	Nav []string `json:"nav,omitempty"`

	component *Component
	// startPage is the resolved start page, used to recompute URL.
	startPage *Resource
}

// Component returns the component that owns this version.
func (cv *ComponentVersion) Component() *Component {
	return cv.component
}

// String returns the version spec, e.g. "v1.2.3@the-component".
func (cv *ComponentVersion) String() string {
	return versionSpec(cv.Name, cv.Version)
}

// VersionDescriptor holds the optional attributes of a component version.
type VersionDescriptor struct {
	Title          string
	DisplayVersion string
	Prerelease     Prerelease
	StartPage      string
	AsciiDoc       *asciidoc.Config
	Nav            []string
}

// computeDisplayVersion applies the display version fallbacks.
func computeDisplayVersion(version string, desc VersionDescriptor) string {
	if desc.DisplayVersion != "" {
		return desc.DisplayVersion
	}
	label := desc.Prerelease.Label
	switch {
	case version == "" && label != "":
		return label
	case version == "":
		return "default"
	case label != "":
		return version + " " + label
	default:
		return version
	}
}

// RegisterComponentVersion adds a version to the named component, creating the
// component on first sighting. Versions are kept sorted, most recent first.
// Registering the same name and version twice returns ErrDuplicateVersion and
// leaves the catalog unchanged.
func (c *Catalog) RegisterComponentVersion(name, version string, desc VersionDescriptor) (*ComponentVersion, error) {
	component, exists := c.components[name]
	if exists && component.Version(version) != nil {
		return nil, fmt.Errorf("%w for component %s: %s", ErrDuplicateVersion, name, version)
	}

	title := desc.Title
	if title == "" {
		title = name
	}
	cv := &ComponentVersion{
		Name:           name,
		Version:        version,
		DisplayVersion: computeDisplayVersion(version, desc),
		Prerelease:     desc.Prerelease,
		Title:          title,
		AsciiDoc:       desc.AsciiDoc,
		StartPage:      desc.StartPage,
		Nav:            desc.Nav,
	}

	if !exists {
		component = &Component{Name: name}
		c.components[name] = component
		c.componentOrder = append(c.componentOrder, name)
	}
	cv.component = component
	previousLatest := component.Latest()
	component.Versions = append(component.Versions, cv)
	SortVersions(component.Versions)
	cv.URL = c.defaultVersionURL(cv)

	c.logger.Debug("Registered component version",
		"component", name,
		"version", version,
		"latest", component.Latest().Version)

	if previousLatest != nil && c.urls.hasLatestSegments() {
		c.republishComponent(component)
	}
	return cv, nil
}

// RemoveComponentVersion removes a version from a component. The component is
// dropped when its last version goes. Resources registered for the version are
// removed with it. It reports whether the version existed.
func (c *Catalog) RemoveComponentVersion(name, version string) bool {
	component := c.components[name]
	if component == nil {
		return false
	}
	idx := -1
	for i, cv := range component.Versions {
		if cv.Version == version {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	component.Versions = append(component.Versions[:idx:idx], component.Versions[idx+1:]...)
	c.removeFiles(func(r *Resource) bool {
		return r.Src.Component == name && r.Src.Version == version
	})

	if len(component.Versions) == 0 {
		delete(c.components, name)
		for i, n := range c.componentOrder {
			if n == name {
				c.componentOrder = append(c.componentOrder[:i:i], c.componentOrder[i+1:]...)
				break
			}
		}
		return true
	}
	if c.urls.hasLatestSegments() {
		c.republishComponent(component)
	}
	return true
}

// GetComponents returns all components in insertion order.
func (c *Catalog) GetComponents() []*Component {
	components := make([]*Component, 0, len(c.componentOrder))
	for _, name := range c.componentOrder {
		components = append(components, c.components[name])
	}
	return components
}

// GetComponent returns the named component, or nil.
func (c *Catalog) GetComponent(name string) *Component {
	return c.components[name]
}

// GetComponentVersion returns the component version, or nil.
func (c *Catalog) GetComponentVersion(name, version string) *ComponentVersion {
	component := c.components[name]
	if component == nil {
		return nil
	}
	return component.Version(version)
}

// defaultVersionURL is the URL of the start page when one was resolved, or
// else of the ROOT module index page (whether or not that page exists).
func (c *Catalog) defaultVersionURL(cv *ComponentVersion) string {
	if cv.startPage != nil && cv.startPage.Pub != nil {
		return cv.startPage.Pub.URL
	}
	if page := c.GetByID(indexPageID(cv.Name, cv.Version)); page != nil && page.Pub != nil {
		return page.Pub.URL
	}
	src := &Src{ResourceID: indexPageID(cv.Name, cv.Version), MediaType: mediaTypeAsciiDoc}
	fillNames(src, "index.adoc")
	out := c.computeOut(src)
	return c.computePub(src, out).URL
}

func indexPageID(component, version string) ResourceID {
	return ResourceID{Component: component, Version: version, Module: RootName, Family: FamilyPage, Relative: "index.adoc"}
}
