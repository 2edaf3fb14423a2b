// Package asciidoc holds the AsciiDoc configuration attached to component
// versions and a reader for AsciiDoc document headers.
package asciidoc

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"

	"gopkg.in/yaml.v3"
)

// State is how an attribute is defined in a config.
type State int

// Attribute states. A soft state may be overridden by a component descriptor;
// a hard state may not.
const (
	// Unset removes the attribute and locks it. It is the zero value.
	Unset State = iota
	// Set assigns the attribute and locks it.
	Set
	// SoftSet assigns the attribute but lets a component descriptor override it.
	SoftSet
	// SoftUnset removes the attribute but lets a component descriptor set it.
	SoftUnset
)

func (s State) String() string {
	switch s {
	case Set:
		return "set"
	case SoftSet:
		return "soft-set"
	case SoftUnset:
		return "soft-unset"
	default:
		return "unset"
	}
}

// softMarker is the suffix that marks a value as soft set in YAML input.
const softMarker = "@"

// Attribute is one AsciiDoc attribute value with its state.
type Attribute struct {
	State State
	Value string
}

// Hard returns a hard-set attribute.
func Hard(value string) Attribute { return Attribute{State: Set, Value: value} }

// Soft returns a soft-set attribute.
func Soft(value string) Attribute { return Attribute{State: SoftSet, Value: value} }

// IsSoft reports whether a component descriptor may override the attribute.
func (a Attribute) IsSoft() bool {
	return a.State == SoftSet || a.State == SoftUnset
}

// IsSet reports whether the attribute has a value.
func (a Attribute) IsSet() bool {
	return a.State == Set || a.State == SoftSet
}

// ParseAttribute converts a raw config value into an attribute:
// nil unsets, false soft-unsets, a string ending in "@" soft-sets, and anything
// else sets.
func ParseAttribute(raw any) Attribute {
	switch v := raw.(type) {
	case nil:
		return Attribute{State: Unset}
	case bool:
		if !v {
			return Attribute{State: SoftUnset}
		}
		return Hard("")
	case string:
		if value, ok := strings.CutSuffix(v, softMarker); ok {
			return Soft(value)
		}
		return Hard(v)
	default:
		return Hard(fmt.Sprint(v))
	}
}

// Raw returns the config form of the attribute, the inverse of ParseAttribute.
func (a Attribute) Raw() any {
	switch a.State {
	case Set:
		return a.Value
	case SoftSet:
		return a.Value + softMarker
	case SoftUnset:
		return false
	default:
		return nil
	}
}

// UnmarshalYAML decodes a scalar attribute value. YAML null never reaches this
// method and decodes to the zero value, which is Unset.
func (a *Attribute) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("attribute value must be a scalar, got %s", node.ShortTag())
	}
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*a = ParseAttribute(raw)
	return nil
}

// MarshalYAML encodes the attribute in its config form.
func (a Attribute) MarshalYAML() (any, error) {
	return a.Raw(), nil
}

// MarshalJSON encodes the attribute in its config form.
func (a Attribute) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Raw())
}

// Attributes maps attribute names to values.
type Attributes map[string]Attribute

// ParseAttributes converts a raw attribute map.
func ParseAttributes(raw map[string]any) Attributes {
	if raw == nil {
		return nil
	}
	attrs := make(Attributes, len(raw))
	for name, value := range raw {
		attrs[name] = ParseAttribute(value)
	}
	return attrs
}

// Raw returns the config form of every attribute.
func (attrs Attributes) Raw() map[string]any {
	raw := make(map[string]any, len(attrs))
	for name, a := range attrs {
		raw[name] = a.Raw()
	}
	return raw
}

// Config is the AsciiDoc configuration of a site or component version.
type Config struct {
	Attributes Attributes `yaml:"attributes,omitempty" json:"attributes,omitempty"`
	// Extensions names the extensions to load. They are always taken from the
	// site config.
	Extensions []string `yaml:"extensions,omitempty" json:"extensions,omitempty"`
}

// MergeAttributes overlays descriptor attributes on site attributes. A
// descriptor value wins only when the site does not define the attribute or
// defines it softly.
func MergeAttributes(site, descriptor Attributes) Attributes {
	merged := make(Attributes, len(site)+len(descriptor))
	maps.Copy(merged, site)
	for name, a := range descriptor {
		if siteAttr, ok := site[name]; ok && !siteAttr.IsSoft() {
			continue
		}
		merged[name] = a
	}
	return merged
}

// Resolve returns the config for a component version. With no descriptor
// config the site config is returned as is; with no site config the descriptor
// config is. Otherwise the attributes are merged and the site extensions kept.
func Resolve(site, descriptor *Config) *Config {
	switch {
	case descriptor == nil:
		return site
	case site == nil:
		return descriptor
	}
	return &Config{
		Attributes: MergeAttributes(site.Attributes, descriptor.Attributes),
		Extensions: site.Extensions,
	}
}
