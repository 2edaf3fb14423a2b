package catalog

import (
	"fmt"
	"strings"

	"github.com/c360studio/semdocs/asciidoc"
)

// pageAliasesAttribute is the document attribute listing a page's aliases.
const pageAliasesAttribute = "page-aliases"

// RegisterPageAlias registers an alias resource that redirects to target. The
// alias reference is resolved in the context of the target page. An alias may
// not land on an existing page, including the target itself.
func (c *Catalog) RegisterPageAlias(aliasRef string, target *Resource) (*Resource, error) {
	parsed, err := ParseResourceRef(aliasRef)
	if err != nil {
		return nil, err
	}
	id, versionKnown, err := parsed.toID(target.ID(), FamilyPage, []Family{FamilyPage})
	if err != nil {
		return nil, err
	}
	if !versionKnown {
		if component := c.GetComponent(id.Component); component != nil && component.Latest() != nil {
			id.Version = component.Latest().Version
		}
	}
	if existing := c.GetByID(id); existing != nil {
		what := "an existing page"
		if existing == target {
			what = "itself"
		}
		return nil, fmt.Errorf("%w: alias %s cannot reference %s", ErrAliasConflict, id, what)
	}

	id.Family = FamilyAlias
	alias, err := c.AddResource(newAlias(id, target, false))
	if err != nil {
		return nil, err
	}
	return alias, nil
}

// RegisterPageAliases reads the page-aliases attribute from the header of a
// page and registers an alias for each entry.
func (c *Catalog) RegisterPageAliases(page *Resource) ([]*Resource, error) {
	if page.Src.Family != FamilyPage || len(page.Contents) == 0 {
		return nil, nil
	}
	header := asciidoc.ReadHeader(page.Contents)
	if page.Title == "" {
		page.Title = header.Title
	}
	value, ok := header.Attributes[pageAliasesAttribute]
	if !ok {
		return nil, nil
	}

	var aliases []*Resource
	for _, ref := range strings.Split(value, ",") {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		alias, err := c.RegisterPageAlias(ref, page)
		if err != nil {
			return aliases, fmt.Errorf("page %s: %w", page.ID(), err)
		}
		aliases = append(aliases, alias)
	}
	return aliases, nil
}

// New404Page returns the synthetic page served when a URL does not resolve.
// It lives at the site root and is not registered in the catalog.
func (c *Catalog) New404Page() *Resource {
	src := Src{
		ResourceID: ResourceID{Component: RootName, Module: RootName, Family: FamilyPage, Relative: "404.adoc"},
		MediaType:  mediaTypeAsciiDoc,
	}
	fillNames(&src, src.Relative)
	return &Resource{
		MediaType: mediaTypeHTML,
		Title:     "Page Not Found",
		Src:       src,
		Out:       &Out{Path: "404.html", Dirname: ".", Basename: "404.html", ModuleRootPath: ".", RootPath: "."},
		Pub:       &Pub{URL: "/404.html", ModuleRootPath: ".", RootPath: "."},
		Synthetic: true,
	}
}
