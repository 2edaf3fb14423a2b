package catalog

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"slices"
)

// resourceRefPattern matches [version@][[component:]module:][family$]relative.
var resourceRefPattern = regexp.MustCompile(`^(?:([^@:$]+)@)?(?:(?:([^@:$]+):)?(?:([^@:$]+))?:)?(?:([^@:$]+)\$)?([^:$][^@:$]*)$`)

// ResourceRef is a parsed resource reference. Empty fields were omitted from
// the reference; HasVersion distinguishes an omitted version from "_".
type ResourceRef struct {
	Version    string
	HasVersion bool
	Component  string
	Module     string
	Family     Family
	Relative   string
}

// ParseResourceRef parses a reference of the form
// [version@][[component:]module:][family$]relative.
func ParseResourceRef(ref string) (ResourceRef, error) {
	m := resourceRefPattern.FindStringSubmatch(ref)
	if m == nil {
		return ResourceRef{}, fmt.Errorf("%w: %q", ErrInvalidResourceRef, ref)
	}
	parsed := ResourceRef{
		Version:    m[1],
		HasVersion: m[1] != "",
		Component:  m[2],
		Module:     m[3],
		Family:     Family(m[4]),
		Relative:   m[5],
	}
	if parsed.Version == versionlessToken {
		parsed.Version = ""
	}
	return parsed, nil
}

// toID fills the omitted parts of a reference from a context resource ID.
// A reference that names a component without a version targets the latest
// version of that component, so the version is left unresolved here.
func (ref ResourceRef) toID(ctx ResourceID, defaultFamily Family, permitted []Family) (ResourceID, bool, error) {
	id := ResourceID{
		Component: ref.Component,
		Version:   ref.Version,
		Module:    ref.Module,
		Family:    ref.Family,
		Relative:  ref.Relative,
	}
	versionKnown := ref.HasVersion
	if id.Component != "" {
		if id.Module == "" {
			id.Module = RootName
		}
	} else {
		id.Component = ctx.Component
		if !versionKnown {
			id.Version = ctx.Version
			versionKnown = true
		}
		if id.Module == "" {
			id.Module = ctx.Module
		}
		if id.Module == "" {
			id.Module = RootName
		}
	}
	if id.Family == "" {
		id.Family = defaultFamily
	} else if !id.Family.IsValid() || (permitted != nil && !slices.Contains(permitted, id.Family)) {
		return ResourceID{}, false, fmt.Errorf("%w: family %q not permitted", ErrInvalidResourceRef, id.Family)
	}
	if id.Family == "" {
		return ResourceID{}, false, fmt.Errorf("%w: no family", ErrInvalidResourceRef)
	}
	if (id.Family == FamilyPage || id.Family == FamilyAlias) && path.Ext(id.Relative) == "" {
		id.Relative += ".adoc"
	}
	return id, versionKnown, nil
}

// ResolveResource resolves a reference against a context resource ID. It
// returns an error wrapping ErrInvalidResourceRef when the reference is
// malformed and one wrapping ErrNotFound when nothing matches.
func (c *Catalog) ResolveResource(ref string, ctx ResourceID, defaultFamily Family, permitted []Family) (*Resource, error) {
	parsed, err := ParseResourceRef(ref)
	if err != nil {
		return nil, err
	}
	id, versionKnown, err := parsed.toID(ctx, defaultFamily, permitted)
	if err != nil {
		return nil, err
	}
	if !versionKnown {
		component := c.GetComponent(id.Component)
		if component == nil || component.Latest() == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		id.Version = component.Latest().Version
	}
	if r := c.GetByID(id); r != nil {
		return r, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
}

// ResolvePage resolves a page reference against a context resource ID.
func (c *Catalog) ResolvePage(ref string, ctx ResourceID) (*Resource, error) {
	return c.ResolveResource(ref, ctx, FamilyPage, []Family{FamilyPage})
}

// RegisterComponentVersionStartPage resolves the start page of a component
// version and points its URL at it. When ref is empty the ROOT module index
// page is used if present. A resolved start page other than that index page
// also gets an alias at the index page location, unless a page alias declared
// in content already holds it. Unresolvable references and taken alias
// locations are reported as warnings.
func (c *Catalog) RegisterComponentVersionStartPage(name, version, ref string) (*Resource, error) {
	cv := c.GetComponentVersion(name, version)
	if cv == nil {
		return nil, fmt.Errorf("%w: component version %s", ErrNotFound, versionSpec(name, version))
	}
	indexID := indexPageID(name, version)

	var startPage *Resource
	if ref == "" {
		startPage = c.GetByID(indexID)
	} else {
		target, err := c.ResolvePage(ref, indexID)
		switch {
		case errors.Is(err, ErrInvalidResourceRef):
			c.warn(WarnStartPageInvalidSyntax,
				fmt.Sprintf("Start page specified for %s has invalid syntax: %s", cv, ref),
				"component", name, "version", version)
		case err != nil, target.Src.Component != name, target.Src.Version != version:
			c.warn(WarnStartPageNotFound,
				fmt.Sprintf("Start page specified for %s not found: %s", cv, ref),
				"component", name, "version", version)
		default:
			startPage = target
		}
	}
	cv.startPage = startPage
	cv.URL = c.defaultVersionURL(cv)

	if startPage == nil || ref == "" || startPage.ID() == indexID || c.GetByID(indexID) != nil {
		return nil, nil
	}
	aliasID := indexID
	aliasID.Family = FamilyAlias
	if existing := c.GetByID(aliasID); existing != nil {
		if !existing.Synthetic {
			c.warnAliasTaken(cv.String(), existing)
			return nil, nil
		}
		existing.Rel = startPage
		return existing, nil
	}
	alias, err := c.AddResource(newAlias(aliasID, startPage, true))
	if err != nil {
		return nil, fmt.Errorf("register start page for %s: %w", cv, err)
	}
	return alias, nil
}

// siteStartPageID is the location of the site start page.
var siteStartPageID = ResourceID{Component: RootName, Version: "", Module: RootName, Family: FamilyPage, Relative: "index.adoc"}

// RegisterSiteStartPage registers an alias at the site root that points at the
// referenced page. The reference must name a component. Nothing is registered
// when the page already publishes at the site root.
func (c *Catalog) RegisterSiteStartPage(ref string) (*Resource, error) {
	parsed, err := ParseResourceRef(ref)
	if err != nil {
		c.warn(WarnStartPageInvalidSyntax, "Start page specified for site has invalid syntax: "+ref)
		return nil, nil
	}
	if parsed.Component == "" {
		c.warn(WarnStartPageNoComponent, "Missing component name in start page for site: "+ref)
		return nil, nil
	}
	target, err := c.ResolvePage(ref, ResourceID{})
	if err != nil {
		if errors.Is(err, ErrInvalidResourceRef) {
			c.warn(WarnStartPageInvalidSyntax, "Start page specified for site has invalid syntax: "+ref)
		} else {
			c.warn(WarnStartPageNotFound, "Start page specified for site not found: "+ref)
		}
		return nil, nil
	}
	if target.Src.Family == FamilyAlias && target.Rel != nil {
		target = target.Rel
	}
	if target.Out != nil && target.Out.Path == "index.html" {
		return nil, nil
	}

	aliasID := siteStartPageID
	aliasID.Family = FamilyAlias
	if existing := c.GetByID(aliasID); existing != nil {
		if !existing.Synthetic {
			c.warnAliasTaken("site", existing)
			return nil, nil
		}
		existing.Rel = target
		return existing, nil
	}
	alias, err := c.AddResource(newAlias(aliasID, target, true))
	if err != nil {
		return nil, fmt.Errorf("register site start page: %w", err)
	}
	c.logger.Debug("Registered site start page", "target", target.ID().String())
	return alias, nil
}

// GetSiteStartPage returns the page served at the site root, following the
// site start page alias when one was registered.
func (c *Catalog) GetSiteStartPage() *Resource {
	if page := c.GetByID(siteStartPageID); page != nil {
		return page
	}
	aliasID := siteStartPageID
	aliasID.Family = FamilyAlias
	if alias := c.GetByID(aliasID); alias != nil {
		return alias.Rel
	}
	return nil
}

// warnAliasTaken reports a start page whose index alias location is held by
// a page alias declared in content. The declared alias is kept.
func (c *Catalog) warnAliasTaken(scope string, existing *Resource) {
	declaredBy := "unknown page"
	if existing.Rel != nil {
		declaredBy = existing.Rel.ID().String()
	}
	c.warn(WarnStartPageAliasTaken,
		fmt.Sprintf("Start page alias for %s conflicts with page alias %s declared by %s", scope, existing.ID(), declaredBy),
		"alias", existing.ID().String())
}

// newAlias builds an alias resource that redirects to target. Synthetic
// aliases are the ones created for start pages.
func newAlias(id ResourceID, target *Resource, synthetic bool) *Resource {
	src := Src{ResourceID: id, MediaType: mediaTypeAsciiDoc}
	fillNames(&src, id.Relative)
	return &Resource{
		MediaType: mediaTypeHTML,
		Src:       src,
		Rel:       target,
		Synthetic: synthetic,
	}
}
