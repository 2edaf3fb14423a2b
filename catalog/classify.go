package catalog

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const modulesDir = "modules"

// familyRule maps a module-relative glob to a family. The first matching rule
// decides the family; a match that fails the extension check rejects the file
// outright rather than falling through to later rules.
type familyRule struct {
	pattern string
	root    string
	family  Family
	// ext is "" when any file matches, "*" when any extension is required, or
	// an exact extension.
	ext string
}

var familyRules = []familyRule{
	{pattern: "pages/_partials/**", root: "pages/_partials", family: FamilyPartial},
	{pattern: "pages/**", root: "pages", family: FamilyPage, ext: ".adoc"},
	{pattern: "partials/**", root: "partials", family: FamilyPartial},
	{pattern: "assets/images/**", root: "assets/images", family: FamilyImage, ext: "*"},
	{pattern: "images/**", root: "images", family: FamilyImage, ext: "*"},
	{pattern: "assets/attachments/**", root: "assets/attachments", family: FamilyAttachment, ext: "*"},
	{pattern: "attachments/**", root: "attachments", family: FamilyAttachment, ext: "*"},
	{pattern: "examples/**", root: "examples", family: FamilyExample},
}

// navPatterns are the module-relative shapes a nav file may take.
var navPatterns = []string{"nav.adoc", "nav/**/*.adoc"}

func (r familyRule) acceptsExt(ext string) bool {
	switch r.ext {
	case "":
		return true
	case "*":
		return ext != ""
	default:
		return ext == r.ext
	}
}

// classification is the outcome of classifying one file path.
type classification struct {
	module         string
	family         Family
	relative       string
	moduleRootPath string
	navIndex       int
}

// normalizePath cleans a repository-relative path and reports false when it
// is empty or escapes the repository root.
func normalizePath(p string) (string, bool) {
	p = strings.ReplaceAll(p, "\\", "/")
	if p == "" || strings.HasPrefix(p, "/") {
		return "", false
	}
	p = path.Clean(p)
	if p == "." || p == ".." || strings.HasPrefix(p, "../") {
		return "", false
	}
	return p, true
}

// classifyPath maps a repository-relative path to a family, module and
// family-relative path. It reports false for paths outside the standard
// project structure, which callers drop silently.
func classifyPath(filePath, ext string, nav []string) (classification, bool) {
	filePath, ok := normalizePath(filePath)
	if !ok {
		return classification{}, false
	}

	if navIndex := indexOf(nav, filePath); navIndex >= 0 {
		if cls, ok := classifyNav(filePath, ext, navIndex); ok {
			return cls, true
		}
	}

	segments := strings.Split(filePath, "/")
	if len(segments) < 3 || segments[0] != modulesDir || segments[1] == "" {
		return classification{}, false
	}
	module := segments[1]
	moduleRelative := strings.Join(segments[2:], "/")

	for _, rule := range familyRules {
		matched, err := doublestar.Match(rule.pattern, moduleRelative)
		if err != nil || !matched {
			continue
		}
		relative := strings.TrimPrefix(strings.TrimPrefix(moduleRelative, rule.root), "/")
		if relative == "" || !rule.acceptsExt(ext) {
			return classification{}, false
		}
		return classification{
			module:         module,
			family:         rule.family,
			relative:       relative,
			moduleRootPath: upPath(strings.Count(moduleRelative, "/")),
		}, true
	}
	return classification{}, false
}

// classifyNav classifies a path that appears in the nav list. Inside a module
// only nav.adoc and nav/**/*.adoc qualify; anywhere else the listed path is the
// relative path and there is no module.
func classifyNav(filePath, ext string, navIndex int) (classification, bool) {
	if ext != ".adoc" {
		return classification{}, false
	}
	segments := strings.Split(filePath, "/")
	if len(segments) < 3 || segments[0] != modulesDir {
		return classification{family: FamilyNav, relative: filePath, navIndex: navIndex}, true
	}
	moduleRelative := strings.Join(segments[2:], "/")
	for _, pattern := range navPatterns {
		if matched, _ := doublestar.Match(pattern, moduleRelative); matched {
			return classification{
				module:         segments[1],
				family:         FamilyNav,
				relative:       moduleRelative,
				moduleRootPath: upPath(len(segments) - 3),
				navIndex:       navIndex,
			}, true
		}
	}
	return classification{}, false
}

// upPath returns n parent directory steps ("..", "../..") or "." for zero.
func upPath(n int) string {
	if n <= 0 {
		return "."
	}
	return strings.TrimSuffix(strings.Repeat("../", n), "/")
}

func indexOf(list []string, value string) int {
	for i, v := range list {
		if p, ok := normalizePath(v); ok && p == value {
			return i
		}
	}
	return -1
}

// fileExt returns the extension of a file, preferring the aggregator's value.
func fileExt(file *File) string {
	if file.Src.Extname != "" {
		return file.Src.Extname
	}
	base := file.Src.Basename
	if base == "" {
		base = path.Base(file.Path)
	}
	return path.Ext(base)
}

// fillNames sets basename, stem and extname from a relative path when unset.
func fillNames(src *Src, relative string) {
	if src.Basename == "" {
		src.Basename = path.Base(relative)
	}
	if src.Extname == "" {
		src.Extname = path.Ext(src.Basename)
	}
	if src.Stem == "" {
		src.Stem = strings.TrimSuffix(src.Basename, src.Extname)
	}
}

// classify turns a raw file into a resource for the given component version,
// or returns nil when the file is not part of the standard project structure.
func classify(file *File, cv *ComponentVersion) *Resource {
	ext := fileExt(file)
	cls, ok := classifyPath(file.Path, ext, cv.Nav)
	if !ok {
		return nil
	}
	src := Src{
		ResourceID: ResourceID{
			Component: cv.Name,
			Version:   cv.Version,
			Module:    cls.module,
			Family:    cls.family,
			Relative:  cls.relative,
		},
		Basename:       file.Src.Basename,
		Stem:           file.Src.Stem,
		Extname:        file.Src.Extname,
		ModuleRootPath: cls.moduleRootPath,
		Abspath:        file.Src.Abspath,
		Origin:         file.Src.Origin,
	}
	if cls.module == "" {
		src.ModuleRootPath = ""
	}
	fillNames(&src, cls.relative)
	src.MediaType = MediaTypeFromExtension(src.Extname)

	normalized, _ := normalizePath(file.Path)
	r := &Resource{
		Path:      normalized,
		Contents:  file.Contents,
		MediaType: src.MediaType,
		Src:       src,
	}
	if cls.family == FamilyNav {
		r.Nav = &NavInfo{Index: cls.navIndex}
	}
	return r
}
