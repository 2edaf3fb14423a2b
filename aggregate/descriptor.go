package aggregate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/semdocs/asciidoc"
	"github.com/c360studio/semdocs/catalog"
)

// DescriptorFile is the component descriptor at the root of a component.
const DescriptorFile = "antora.yml"

// Descriptor errors.
var (
	ErrMissingName    = errors.New("component descriptor is missing a name")
	ErrMissingVersion = errors.New("component descriptor is missing a version")
)

// DescriptorVersion is the version key of a component descriptor. It may be a
// string, a number, ~ for a versionless component, or true to take the
// version from the branch the files were read from.
type DescriptorVersion struct {
	Value   string
	FromRef bool
}

// UnmarshalYAML accepts scalars only; the literal text of numbers is kept so
// 2.0 stays "2.0".
func (v *DescriptorVersion) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("version must be a scalar, got %s", node.ShortTag())
	}
	switch node.ShortTag() {
	case "!!null":
		v.Value = ""
	case "!!bool":
		var flag bool
		if err := node.Decode(&flag); err != nil {
			return err
		}
		if !flag {
			return errors.New("version may not be false")
		}
		v.FromRef = true
	default:
		v.Value = node.Value
	}
	return nil
}

// Descriptor is the parsed contents of antora.yml.
type Descriptor struct {
	Name           string             `yaml:"name"`
	Title          string             `yaml:"title"`
	Version        DescriptorVersion  `yaml:"version"`
	DisplayVersion string             `yaml:"display_version"`
	Prerelease     catalog.Prerelease `yaml:"prerelease"`
	StartPage      string             `yaml:"start_page"`
	Nav            []string           `yaml:"nav"`
	AsciiDoc       *asciidoc.Config   `yaml:"asciidoc"`
}

// ParseDescriptor parses a component descriptor. A YAML null version is a
// valid versionless component; a missing version key is an error.
func ParseDescriptor(data []byte) (*Descriptor, error) {
	// A null version never reaches UnmarshalYAML, so presence is checked on
	// the raw mapping.
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse component descriptor: %w", err)
	}
	desc := &Descriptor{}
	if err := yaml.Unmarshal(data, desc); err != nil {
		return nil, fmt.Errorf("parse component descriptor: %w", err)
	}
	if desc.Name == "" {
		return nil, ErrMissingName
	}
	if _, ok := raw["version"]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingVersion, desc.Name)
	}
	return desc, nil
}

// LoadDescriptor reads the component descriptor in dir.
func LoadDescriptor(dir string) (*Descriptor, error) {
	data, err := os.ReadFile(filepath.Join(dir, DescriptorFile))
	if err != nil {
		return nil, fmt.Errorf("read component descriptor: %w", err)
	}
	return ParseDescriptor(data)
}

// ResolveVersion returns the component version, taking it from the ref when
// the descriptor says version: true.
func (d *Descriptor) ResolveVersion(ref string) string {
	if d.Version.FromRef {
		return ref
	}
	return d.Version.Value
}

// Group builds the catalog group for the descriptor and its files.
func (d *Descriptor) Group(ref string, files []*catalog.File) *catalog.Group {
	return &catalog.Group{
		Name:           d.Name,
		Title:          d.Title,
		Version:        d.ResolveVersion(ref),
		DisplayVersion: d.DisplayVersion,
		Prerelease:     d.Prerelease,
		StartPage:      d.StartPage,
		AsciiDoc:       d.AsciiDoc,
		Nav:            d.Nav,
		Files:          files,
	}
}
