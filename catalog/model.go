package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/semdocs/asciidoc"
)

// Family is the structural category of a resource, derived from its path.
type Family string

// Resource families.
const (
	FamilyPage       Family = "page"
	FamilyPartial    Family = "partial"
	FamilyImage      Family = "image"
	FamilyAttachment Family = "attachment"
	FamilyExample    Family = "example"
	FamilyNav        Family = "nav"
	FamilyAlias      Family = "alias"
)

// Families lists every family in a stable order.
var Families = []Family{
	FamilyPage, FamilyPartial, FamilyImage, FamilyAttachment, FamilyExample, FamilyNav, FamilyAlias,
}

// IsValid reports whether f is a known family.
func (f Family) IsValid() bool {
	for _, known := range Families {
		if f == known {
			return true
		}
	}
	return false
}

// publishable reports whether resources of this family get out and pub coordinates.
func (f Family) publishable() bool {
	switch f {
	case FamilyPage, FamilyImage, FamilyAttachment, FamilyAlias:
		return true
	default:
		return false
	}
}

const (
	// RootName is the reserved name elided from output paths, for both
	// components and modules.
	RootName = "ROOT"

	// legacyVersion is the historical default-branch version that is elided
	// from output paths like the empty version.
	legacyVersion = "master"

	// versionlessToken stands for the empty version in resource refs.
	versionlessToken = "_"
)

// ResourceID is the composite key that uniquely identifies a resource.
type ResourceID struct {
	Component string `json:"component"`
	Version   string `json:"version"`
	Module    string `json:"module,omitempty"`
	Family    Family `json:"family"`
	Relative  string `json:"relative"`
}

// String renders the ID as a resource spec: version@component:module:family$relative.
// The ROOT module and the page family are written empty.
func (id ResourceID) String() string {
	module := id.Module
	if module == RootName {
		module = ""
	}
	family := ""
	if id.Family != FamilyPage {
		family = string(id.Family) + "$"
	}
	return fmt.Sprintf("%s:%s:%s%s", versionSpec(id.Component, id.Version), module, family, id.Relative)
}

func versionSpec(component, version string) string {
	if version == "" {
		version = versionlessToken
	}
	return version + "@" + component
}

// Origin records where a file was retrieved from.
type Origin struct {
	URL       string `json:"url,omitempty"`
	Branch    string `json:"branch,omitempty"`
	Tag       string `json:"tag,omitempty"`
	Refname   string `json:"refname,omitempty"`
	StartPath string `json:"startPath,omitempty"`
	// Worktree is the local worktree path when the files were read from disk
	// rather than from a ref.
	Worktree string `json:"worktree,omitempty"`
}

// Ref returns the branch, tag or refname the origin points at.
func (o *Origin) Ref() string {
	switch {
	case o.Branch != "":
		return o.Branch
	case o.Tag != "":
		return o.Tag
	default:
		return o.Refname
	}
}

// FileSrc holds the source descriptors the aggregator attaches to a file.
type FileSrc struct {
	Basename string
	Stem     string
	Extname  string
	Abspath  string
	Origin   *Origin
}

// File is a raw file handed to the catalog by the aggregator.
// Path is relative to the component root (the origin start path).
type File struct {
	Path     string
	Contents []byte
	Src      FileSrc
}

// Group is one component version's worth of files from the aggregator.
type Group struct {
	Name           string
	Title          string
	Version        string
	DisplayVersion string
	Prerelease     Prerelease
	StartPage      string
	AsciiDoc       *asciidoc.Config
	Nav            []string
	Files          []*File
}

// Prerelease is the prerelease flag of a component version. It is either a
// boolean or a label such as "Beta.1".
type Prerelease struct {
	Flag  bool
	Label string
}

// PrereleaseLabel returns a prerelease flag carrying a label.
func PrereleaseLabel(label string) Prerelease {
	return Prerelease{Flag: label != "", Label: label}
}

// IsSet reports whether the version is marked as a prerelease.
func (p Prerelease) IsSet() bool {
	return p.Flag || p.Label != ""
}

// UnmarshalYAML accepts both `prerelease: true` and `prerelease: Beta.1`.
func (p *Prerelease) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("prerelease must be a boolean or string, got %s", node.ShortTag())
	}
	switch node.ShortTag() {
	case "!!null":
		*p = Prerelease{}
	case "!!bool":
		var flag bool
		if err := node.Decode(&flag); err != nil {
			return err
		}
		*p = Prerelease{Flag: flag}
	default:
		*p = PrereleaseLabel(node.Value)
	}
	return nil
}

// MarshalJSON writes the label when present, otherwise the boolean flag.
func (p Prerelease) MarshalJSON() ([]byte, error) {
	if p.Label != "" {
		return json.Marshal(p.Label)
	}
	return json.Marshal(p.Flag)
}

// Src describes a classified resource: its ID plus source path facts.
type Src struct {
	ResourceID
	Basename       string  `json:"basename"`
	Stem           string  `json:"stem"`
	Extname        string  `json:"extname"`
	MediaType      string  `json:"mediaType,omitempty"`
	ModuleRootPath string  `json:"moduleRootPath,omitempty"`
	Abspath        string  `json:"abspath,omitempty"`
	Origin         *Origin `json:"origin,omitempty"`
}

// Out is the on-disk destination of a published resource.
type Out struct {
	Path           string `json:"path"`
	Dirname        string `json:"dirname"`
	Basename       string `json:"basename"`
	ModuleRootPath string `json:"moduleRootPath"`
	RootPath       string `json:"rootPath"`
}

// Pub is the published address of a resource.
type Pub struct {
	URL            string `json:"url"`
	ModuleRootPath string `json:"moduleRootPath,omitempty"`
	RootPath       string `json:"rootPath,omitempty"`
}

// NavInfo carries the position of a nav file in its component version's nav list.
type NavInfo struct {
	Index int `json:"index"`
}

// Resource is one classified, addressable unit of content.
type Resource struct {
	// Path is the path of the source file relative to the component root.
	Path      string   `json:"path"`
	Contents  []byte   `json:"-"`
	MediaType string   `json:"mediaType,omitempty"`
	Title     string   `json:"title,omitempty"`
	Src       Src      `json:"src"`
	Out       *Out     `json:"out,omitempty"`
	Pub       *Pub     `json:"pub,omitempty"`
	Nav       *NavInfo `json:"nav,omitempty"`
	// Rel is the target of an alias.
	Rel       *Resource `json:"-"`
	Synthetic bool      `json:"synthetic,omitempty"`
}

// ID returns the resource ID of r.
func (r *Resource) ID() ResourceID {
	return r.Src.ResourceID
}

// IsPrivate reports whether any path segment of the resource's relative path
// starts with an underscore, which hides it from the published site.
func (r *Resource) IsPrivate() bool {
	return isPrivatePath(r.Src.Relative)
}

func isPrivatePath(relative string) bool {
	for _, segment := range strings.Split(relative, "/") {
		if strings.HasPrefix(segment, "_") {
			return true
		}
	}
	return false
}
