package catalog

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// Common catalog errors.
var (
	// ErrDuplicateVersion is returned when a component version is registered twice.
	ErrDuplicateVersion = errors.New("duplicate version detected")

	// ErrDuplicateResource is returned when two files share the same resource ID.
	ErrDuplicateResource = errors.New("duplicate resource")

	// ErrInvalidResourceRef is returned when a resource reference cannot be parsed.
	ErrInvalidResourceRef = errors.New("invalid resource reference")

	// ErrNotFound is returned when a resource reference does not resolve.
	ErrNotFound = errors.New("resource not found")

	// ErrAliasConflict is returned when a page alias would shadow an existing page.
	ErrAliasConflict = errors.New("page alias conflicts with existing page")
)

// DuplicateResourceError reports two files that resolve to the same resource ID.
// Both contributing files are kept so the message can point at each origin.
type DuplicateResourceError struct {
	ID       ResourceID
	Existing *Resource
	Incoming *Resource
}

// Error renders the conflict with one line per contributing file.
func (e *DuplicateResourceError) Error() string {
	var b strings.Builder
	if e.ID.Family == FamilyNav {
		fmt.Fprintf(&b, "Duplicate nav in %s: %s", versionSpec(e.ID.Component, e.ID.Version), e.Incoming.Path)
	} else {
		fmt.Fprintf(&b, "Duplicate %s: %s", e.ID.Family, e.ID)
	}
	for i, file := range []*Resource{e.Existing, e.Incoming} {
		fmt.Fprintf(&b, "\n  %d: %s", i+1, describeOrigin(file))
	}
	return b.String()
}

// Is reports whether target is ErrDuplicateResource.
func (e *DuplicateResourceError) Is(target error) bool {
	return target == ErrDuplicateResource
}

// describeOrigin formats where a file came from, e.g.
// "docs/modules/nav.adoc in https://githost/repo.git (ref: v1.2.3)".
func describeOrigin(file *Resource) string {
	if file == nil {
		return "<unknown>"
	}
	origin := file.Src.Origin
	if origin == nil {
		if file.Src.Abspath != "" {
			return file.Src.Abspath
		}
		return file.Path
	}
	filePath := file.Path
	if origin.StartPath != "" {
		filePath = path.Join(origin.StartPath, filePath)
	}
	location := origin.URL
	if location == "" {
		location = origin.Worktree
	}
	ref := origin.Ref()
	if origin.Worktree != "" {
		ref += " <worktree>"
	}
	return fmt.Sprintf("%s in %s (ref: %s)", filePath, location, ref)
}
