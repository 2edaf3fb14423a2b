package catalog

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Catalog is the index of every component, component version and resource of
// a site build. It is written by a single goroutine while it is being built;
// once construction finishes, lookups may run concurrently.
type Catalog struct {
	logger  *slog.Logger
	buildID string
	urls    URLOptions

	components     map[string]*Component
	componentOrder []string

	resources []*Resource
	byID      map[ResourceID]*Resource
	byPath    map[PathKey]*Resource

	rejected int
	warnings []Warning
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the logger warnings and progress are reported through.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithURLOptions sets the URL options. Defaults are applied to unset fields.
func WithURLOptions(opts URLOptions) Option {
	return func(c *Catalog) {
		c.urls = opts.normalize()
	}
}

// New creates an empty catalog.
func New(opts ...Option) *Catalog {
	c := &Catalog{
		logger:     slog.Default(),
		buildID:    uuid.New().String(),
		urls:       URLOptions{}.normalize(),
		components: make(map[string]*Component),
		byID:       make(map[ResourceID]*Resource),
		byPath:     make(map[PathKey]*Resource),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BuildID returns the unique identifier of this catalog build.
func (c *Catalog) BuildID() string {
	return c.buildID
}

// PathKey locates a resource by its source path within a component version.
type PathKey struct {
	Component string
	Version   string
	Path      string
}

// Filter selects resources in FindBy. Zero-valued fields match anything.
// Version is a pointer because the empty version is a real version.
type Filter struct {
	Component string
	Version   *string
	Module    string
	Family    Family
	Relative  string
	Basename  string
}

// Version returns a pointer to v for use in Filter.
func Version(v string) *string {
	return &v
}

func (f Filter) matches(r *Resource) bool {
	src := &r.Src
	return (f.Component == "" || src.Component == f.Component) &&
		(f.Version == nil || src.Version == *f.Version) &&
		(f.Module == "" || src.Module == f.Module) &&
		(f.Family == "" || src.Family == f.Family) &&
		(f.Relative == "" || src.Relative == f.Relative) &&
		(f.Basename == "" || src.Basename == f.Basename)
}

// AddFile classifies a raw file for a component version and registers the
// resulting resource. Files outside the standard project structure are dropped
// and (nil, nil) is returned.
func (c *Catalog) AddFile(cv *ComponentVersion, file *File) (*Resource, error) {
	r := classify(file, cv)
	if r == nil {
		c.rejected++
		c.logger.Debug("Skipped file outside project structure",
			"path", file.Path,
			"component_version", cv.String())
		return nil, nil
	}
	return c.AddResource(r)
}

// AddResource registers an already classified resource. Out and pub are
// computed unless the resource is synthetic and already carries them. A
// resource whose ID is taken returns a *DuplicateResourceError and leaves the
// catalog unchanged.
func (c *Catalog) AddResource(r *Resource) (*Resource, error) {
	id := r.ID()
	if existing, ok := c.byID[id]; ok {
		return nil, &DuplicateResourceError{ID: id, Existing: existing, Incoming: r}
	}
	if r.Src.Basename == "" || r.Src.Stem == "" {
		fillNames(&r.Src, r.Src.Relative)
	}
	if r.Src.MediaType == "" {
		r.Src.MediaType = MediaTypeFromExtension(r.Src.Extname)
	}
	if r.MediaType == "" {
		r.MediaType = r.Src.MediaType
	}
	if !(hasFixedAddress(r) && r.Out != nil) {
		c.publish(r)
	}

	c.resources = append(c.resources, r)
	c.byID[id] = r
	if r.Path != "" {
		key := PathKey{Component: id.Component, Version: id.Version, Path: r.Path}
		if _, taken := c.byPath[key]; !taken {
			c.byPath[key] = r
		}
	}
	return r, nil
}

// removeFiles drops every resource matching pred, along with the aliases
// anywhere in the catalog that redirect to a dropped resource.
func (c *Catalog) removeFiles(pred func(*Resource) bool) {
	removed := c.dropResources(pred)
	if len(removed) == 0 {
		return
	}
	c.dropResources(func(r *Resource) bool {
		return r.Src.Family == FamilyAlias && r.Rel != nil && removed[r.Rel]
	})
}

func (c *Catalog) dropResources(pred func(*Resource) bool) map[*Resource]bool {
	removed := make(map[*Resource]bool)
	kept := c.resources[:0]
	for _, r := range c.resources {
		if !pred(r) {
			kept = append(kept, r)
			continue
		}
		removed[r] = true
		delete(c.byID, r.ID())
		key := PathKey{Component: r.Src.Component, Version: r.Src.Version, Path: r.Path}
		if c.byPath[key] == r {
			delete(c.byPath, key)
		}
	}
	clear(c.resources[len(kept):])
	c.resources = kept
	return removed
}

// GetByID returns the resource with the given ID, or nil.
func (c *Catalog) GetByID(id ResourceID) *Resource {
	return c.byID[id]
}

// GetByPath returns the resource read from the given source path in a
// component version, or nil.
func (c *Catalog) GetByPath(key PathKey) *Resource {
	if p, ok := normalizePath(key.Path); ok {
		key.Path = p
	}
	return c.byPath[key]
}

// FindBy returns every resource matching the filter in insertion order.
func (c *Catalog) FindBy(filter Filter) []*Resource {
	var found []*Resource
	for _, r := range c.resources {
		if filter.matches(r) {
			found = append(found, r)
		}
	}
	return found
}

// GetFiles returns every resource in insertion order.
func (c *Catalog) GetFiles() []*Resource {
	return slices.Clone(c.resources)
}

// GetAll is an alias of GetFiles.
func (c *Catalog) GetAll() []*Resource {
	return c.GetFiles()
}

// GetPages returns the pages that satisfy pred, or all pages when pred is nil.
func (c *Catalog) GetPages(pred func(*Resource) bool) []*Resource {
	var pages []*Resource
	for _, r := range c.resources {
		if r.Src.Family == FamilyPage && (pred == nil || pred(r)) {
			pages = append(pages, r)
		}
	}
	return pages
}

// IsPublishable reports whether a resource has an output location.
func IsPublishable(r *Resource) bool {
	return r.Out != nil
}

// GetComponentsSortedBy returns the components sorted by "name" or "title".
// Any other field keeps insertion order.
func (c *Catalog) GetComponentsSortedBy(field string) []*Component {
	components := c.GetComponents()
	var key func(*Component) string
	switch field {
	case "name":
		key = func(cmp *Component) string { return cmp.Name }
	case "title":
		key = (*Component).Title
	default:
		return components
	}
	slices.SortStableFunc(components, func(a, b *Component) int {
		ka, kb := key(a), key(b)
		if cmp := strings.Compare(strings.ToLower(ka), strings.ToLower(kb)); cmp != 0 {
			return cmp
		}
		return strings.Compare(ka, kb)
	})
	return components
}

// Stats summarizes the contents of a catalog.
type Stats struct {
	Components int
	Versions   int
	Resources  int

	// Unpublished counts resources without an output location.
	Unpublished int
	Rejected    int
	Warnings    int
	Families    map[Family]int
}

// Stats counts the catalog contents.
func (c *Catalog) Stats() Stats {
	stats := Stats{
		Components: len(c.components),
		Resources:  len(c.resources),
		Rejected:   c.rejected,
		Warnings:   len(c.warnings),
		Families:   make(map[Family]int, len(Families)),
	}
	for _, component := range c.components {
		stats.Versions += len(component.Versions)
	}
	for _, r := range c.resources {
		stats.Families[r.Src.Family]++
		if r.Out == nil {
			stats.Unpublished++
		}
	}
	return stats
}

// Warning is a non-fatal problem found while building the catalog.
type Warning struct {
	Kind    string
	Message string
}

// Warning kinds.
const (
	WarnStartPageNotFound      = "start_page_not_found"
	WarnStartPageInvalidSyntax = "start_page_invalid_syntax"
	WarnStartPageNoComponent   = "start_page_missing_component"
	WarnStartPageAliasTaken    = "start_page_alias_taken"
)

// Warnings returns the warnings recorded so far.
func (c *Catalog) Warnings() []Warning {
	return slices.Clone(c.warnings)
}

func (c *Catalog) warn(kind, message string, args ...any) {
	c.warnings = append(c.warnings, Warning{Kind: kind, Message: message})
	c.logger.Warn(message, args...)
}

// Model is the read-only view of a catalog handed to downstream consumers.
type Model interface {
	GetComponents() []*Component
	GetComponent(name string) *Component
	GetComponentVersion(name, version string) *ComponentVersion
	GetByID(id ResourceID) *Resource
	GetByPath(key PathKey) *Resource
	FindBy(filter Filter) []*Resource
	GetFiles() []*Resource
	GetAll() []*Resource
	GetPages(pred func(*Resource) bool) []*Resource
	GetSiteStartPage() *Resource
	ResolveResource(ref string, ctx ResourceID, defaultFamily Family, permitted []Family) (*Resource, error)
	ResolvePage(ref string, ctx ResourceID) (*Resource, error)
}

// ExportToModel returns a view of the catalog without its mutating methods.
func (c *Catalog) ExportToModel() Model {
	return modelView{c: c}
}

type modelView struct {
	c *Catalog
}

func (m modelView) GetComponents() []*Component { return m.c.GetComponents() }
func (m modelView) GetComponent(name string) *Component { return m.c.GetComponent(name) }
func (m modelView) GetComponentVersion(name, version string) *ComponentVersion {
	return m.c.GetComponentVersion(name, version)
}
func (m modelView) GetByID(id ResourceID) *Resource { return m.c.GetByID(id) }
func (m modelView) GetByPath(key PathKey) *Resource { return m.c.GetByPath(key) }
func (m modelView) FindBy(filter Filter) []*Resource { return m.c.FindBy(filter) }
func (m modelView) GetFiles() []*Resource { return m.c.GetFiles() }
func (m modelView) GetAll() []*Resource { return m.c.GetAll() }
func (m modelView) GetSiteStartPage() *Resource { return m.c.GetSiteStartPage() }
func (m modelView) GetPages(pred func(*Resource) bool) []*Resource {
	return m.c.GetPages(pred)
}
func (m modelView) ResolveResource(ref string, ctx ResourceID, defaultFamily Family, permitted []Family) (*Resource, error) {
	return m.c.ResolveResource(ref, ctx, defaultFamily, permitted)
}
func (m modelView) ResolvePage(ref string, ctx ResourceID) (*Resource, error) {
	return m.c.ResolvePage(ref, ctx)
}
