// Package capability holds the closed set of Alexa interfaces this bridge
// can expose: which item types back each property, the default display
// category and how each interface renders into a discovery capability.
//
// The registry is built once at package init and never mutated.
package capability

import (
	"strings"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa"
)

// PropertyDef describes one property of an interface.
type PropertyDef struct {
	// Name is the metadata property name, e.g. "brightness".
	Name string

	// ItemTypes lists the base openHAB item types that may back the property.
	ItemTypes []string

	// Reportable marks properties rendered in context and discovery.
	Reportable bool
}

// RenderFunc builds the discovery capability for one interface instance from
// the parameters of each of its properties.
type RenderFunc func(instance string, props map[string]Parameters) alexa.Capability

// Descriptor defines one Alexa interface.
type Descriptor struct {
	// Interface is the short interface name used in metadata, e.g.
	// "PowerController".
	Interface string

	// Properties lists every property the interface accepts in metadata.
	Properties []PropertyDef

	// DefaultCategory is used when no property declares a category.
	DefaultCategory string

	// MultiInstance interfaces key their property map entries by instance.
	MultiInstance bool

	// Render produces the discovery capability.
	Render RenderFunc
}

// Namespace returns the Alexa namespace, e.g. "Alexa.PowerController".
func (d *Descriptor) Namespace() string {
	return alexa.NamespaceAlexa + "." + d.Interface
}

// Property returns the definition of name.
func (d *Descriptor) Property(name string) (PropertyDef, bool) {
	for _, p := range d.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return PropertyDef{}, false
}

// Supports reports whether an item of itemType may back the property.
// Dimensioned types ("Number:Temperature") match on their base type.
func (p PropertyDef) Supports(itemType string) bool {
	base, _, _ := strings.Cut(itemType, ":")
	for _, t := range p.ItemTypes {
		if t == base {
			return true
		}
	}
	return false
}

// Registry indexes descriptors by interface name, preserving priority order.
type Registry struct {
	order       []*Descriptor
	byInterface map[string]*Descriptor
}

// NewRegistry builds a registry. Earlier descriptors take priority when an
// endpoint's default display category is chosen.
func NewRegistry(descriptors ...*Descriptor) *Registry {
	r := &Registry{byInterface: make(map[string]*Descriptor, len(descriptors))}
	for _, d := range descriptors {
		r.order = append(r.order, d)
		r.byInterface[d.Interface] = d
	}
	return r
}

// Lookup returns the descriptor for an interface. Both "PowerController" and
// "Alexa.PowerController" are accepted.
func (r *Registry) Lookup(iface string) (*Descriptor, bool) {
	d, ok := r.byInterface[strings.TrimPrefix(iface, alexa.NamespaceAlexa+".")]
	return d, ok
}

// Supports reports whether itemType may back iface.prop.
func (r *Registry) Supports(iface, prop, itemType string) bool {
	d, ok := r.Lookup(iface)
	if !ok {
		return false
	}
	p, ok := d.Property(prop)
	return ok && p.Supports(itemType)
}

// Descriptors returns the descriptors in priority order.
func (r *Registry) Descriptors() []*Descriptor {
	out := make([]*Descriptor, len(r.order))
	copy(out, r.order)
	return out
}

// Default is the registry of every supported interface.
var Default = NewRegistry(builtins()...)

// Lookup queries the default registry.
func Lookup(iface string) (*Descriptor, bool) {
	return Default.Lookup(iface)
}

// Supports queries the default registry.
func Supports(iface, prop, itemType string) bool {
	return Default.Supports(iface, prop, itemType)
}

// BaseCapabilities returns the capabilities every endpoint carries: the
// Alexa interface itself and EndpointHealth.
func BaseCapabilities() []alexa.Capability {
	return []alexa.Capability{
		alexa.NewCapability(alexa.NamespaceAlexa),
		alexa.NewCapability(alexa.NamespaceHealth, "connectivity"),
	}
}
