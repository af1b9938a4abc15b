// Package propertymap associates Alexa capability properties with the
// openHAB items that back them.
//
// A PropertyMap is built per endpoint during discovery, serialised into the
// endpoint cookie, and loaded again for every control directive. Its keys
// are exactly the discovered interface names, suffixed with ":<instance>"
// for multi-instance interfaces.
package propertymap

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa/capability"
	"github.com/nerrad567/gray-logic-alexa/internal/alexa/normalize"
	"github.com/nerrad567/gray-logic-alexa/internal/openhab"
)

// Errors reported for skipped metadata tokens. None of them is fatal to
// discovery.
var (
	ErrUnknownCapability = errors.New("propertymap: unknown capability")
	ErrIncompatibleType  = errors.New("propertymap: item type not supported by capability")
	ErrMissingInstance   = errors.New("propertymap: multi-instance capability without instance")
	ErrDuplicateProperty = errors.New("propertymap: property already bound to another item")
)

// EndpointPrefix marks group endpoint tokens ("Endpoint.THERMOSTAT").
const EndpointPrefix = "Endpoint."

// itemSettingPrefix marks config keys promoted to item-level settings.
const itemSettingPrefix = "item"

// ItemRef identifies the item backing a property.
type ItemRef struct {
	Name string `json:"name"`
	Type string `json:"type"`

	// Sensor is a separate item to read state from, when set.
	Sensor string `json:"sensor,omitempty"`

	// Settings holds the other promoted "item*" config keys.
	Settings map[string]any `json:"settings,omitempty"`
}

// StateItem returns the item whose state reports the property.
func (r ItemRef) StateItem() string {
	if r.Sensor != "" {
		return r.Sensor
	}
	return r.Name
}

// Entry binds one property to an item.
type Entry struct {
	Item       ItemRef               `json:"item"`
	Parameters capability.Parameters `json:"parameters,omitempty"`
	Instance   string                `json:"instance,omitempty"`
}

// Properties maps property names to entries for one interface instance.
type Properties map[string]Entry

// PropertyMap maps interface keys to their properties.
type PropertyMap map[string]Properties

// CapabilityKey names one property of one interface instance.
type CapabilityKey struct {
	Interface string
	Instance  string
	Property  string
}

// ItemUsage is an item together with every property it reports.
type ItemUsage struct {
	Item         ItemRef
	Capabilities []CapabilityKey
}

// New returns an empty map.
func New() PropertyMap {
	return make(PropertyMap)
}

// Key builds the map key for an interface instance.
func Key(iface, instance string) string {
	if instance == "" {
		return iface
	}
	return iface + ":" + instance
}

// SplitKey reverses Key.
func SplitKey(key string) (iface, instance string) {
	iface, instance, _ = strings.Cut(key, ":")
	return iface, instance
}

// AddItem parses the item's Alexa metadata and binds every compatible
// token. Tokens that cannot be bound are skipped; the returned error joins
// one error per skipped token and the map stays usable either way.
func (m PropertyMap) AddItem(item openhab.Item) error {
	md, ok := item.AlexaMetadata()
	if !ok {
		return nil
	}

	params, settings := splitConfig(md.Config)
	ref := ItemRef{Name: item.Name, Type: item.EffectiveType(), Settings: settings}
	if s, ok := settings["itemSensor"].(string); ok && s != "" {
		ref.Sensor = s
		delete(ref.Settings, "itemSensor")
		if len(ref.Settings) == 0 {
			ref.Settings = nil
		}
	}

	var errs []error
	for _, raw := range strings.Split(md.Value, ",") {
		token := strings.TrimSpace(raw)
		if token == "" || strings.HasPrefix(token, EndpointPrefix) {
			continue
		}
		if err := m.addToken(item, ref, token, params); err != nil {
			errs = append(errs, fmt.Errorf("%s %q: %w", item.Name, token, err))
		}
	}
	return errors.Join(errs...)
}

func (m PropertyMap) addToken(item openhab.Item, ref ItemRef, token string, params capability.Parameters) error {
	spec, instance, _ := strings.Cut(token, "#")
	spec = strings.TrimPrefix(spec, "Alexa.")
	iface, prop, ok := strings.Cut(spec, ".")
	if !ok {
		return ErrUnknownCapability
	}

	d, ok := capability.Lookup(iface)
	if !ok {
		return ErrUnknownCapability
	}
	def, ok := d.Property(prop)
	if !ok {
		return ErrUnknownCapability
	}
	if !def.Supports(ref.Type) {
		return fmt.Errorf("%w: %s", ErrIncompatibleType, ref.Type)
	}
	if !d.MultiInstance {
		instance = ""
	} else if instance == "" {
		return ErrMissingInstance
	}

	p := params.Clone()
	if item.Dimension() == "Temperature" {
		if _, ok := p.Scale(); !ok {
			if s, ok := inferScale(item); ok {
				p[capability.ParamScale] = string(s)
			}
		}
	}

	if len(p) == 0 {
		p = nil
	}

	key := Key(d.Interface, instance)
	props, ok := m[key]
	if !ok {
		props = make(Properties)
		m[key] = props
	}

	if existing, ok := props[def.Name]; ok {
		if existing.Item.Name != ref.Name {
			return fmt.Errorf("%w: %s", ErrDuplicateProperty, existing.Item.Name)
		}
		for k, v := range p {
			if _, set := existing.Parameters[k]; !set {
				if existing.Parameters == nil {
					existing.Parameters = make(capability.Parameters)
				}
				existing.Parameters[k] = v
			}
		}
		props[def.Name] = existing
		return nil
	}

	props[def.Name] = Entry{Item: ref, Parameters: p, Instance: instance}
	return nil
}

// splitConfig separates promoted item settings from capability parameters.
func splitConfig(cfg map[string]any) (capability.Parameters, map[string]any) {
	params := make(capability.Parameters, len(cfg))
	var settings map[string]any
	for k, v := range cfg {
		if len(k) > len(itemSettingPrefix) && strings.HasPrefix(k, itemSettingPrefix) &&
			k[len(itemSettingPrefix)] >= 'A' && k[len(itemSettingPrefix)] <= 'Z' {
			if settings == nil {
				settings = make(map[string]any)
			}
			settings[k] = v
			continue
		}
		params[k] = v
	}
	return params, settings
}

func inferScale(item openhab.Item) (normalize.Scale, bool) {
	if s, ok := normalize.ScaleFromUnit(item.Pattern()); ok {
		return s, true
	}
	return normalize.ScaleFromUnit(item.State)
}

// Interfaces returns the map keys in sorted order.
func (m PropertyMap) Interfaces() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the properties of an interface instance.
func (m PropertyMap) Get(iface, instance string) (Properties, bool) {
	p, ok := m[Key(iface, instance)]
	return p, ok
}

// Entry returns one property entry.
func (m PropertyMap) Entry(iface, instance, prop string) (Entry, bool) {
	p, ok := m.Get(iface, instance)
	if !ok {
		return Entry{}, false
	}
	e, ok := p[prop]
	return e, ok
}

// Has reports whether the map binds any property of iface.
func (m PropertyMap) Has(iface string) bool {
	for k := range m {
		if i, _ := SplitKey(k); i == iface {
			return true
		}
	}
	return false
}

// GetCategories returns the valid display categories configured on any
// property under key, without duplicates.
func (m PropertyMap) GetCategories(key string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, name := range sortedProps(m[key]) {
		for _, c := range m[key][name].Parameters.List(capability.ParamCategory) {
			c = strings.ToUpper(c)
			if seen[c] || !capability.IsDisplayCategory(c) {
				continue
			}
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// GetItemsByInterfaces returns the items backing the given interface keys,
// one entry per state item, each annotated with the properties it reports.
// An empty keys list selects every interface.
func (m PropertyMap) GetItemsByInterfaces(keys ...string) []ItemUsage {
	if len(keys) == 0 {
		keys = m.Interfaces()
	}

	var out []ItemUsage
	index := make(map[string]int)
	for _, key := range keys {
		props, ok := m[key]
		if !ok {
			continue
		}
		iface, instance := SplitKey(key)
		for _, name := range sortedProps(props) {
			e := props[name]
			ck := CapabilityKey{Interface: iface, Instance: instance, Property: name}
			stateItem := e.Item.StateItem()
			if i, ok := index[stateItem]; ok {
				out[i].Capabilities = append(out[i].Capabilities, ck)
				continue
			}
			index[stateItem] = len(out)
			out = append(out, ItemUsage{Item: e.Item, Capabilities: []CapabilityKey{ck}})
		}
	}
	return out
}

func sortedProps(p Properties) []string {
	names := make([]string, 0, len(p))
	for n := range p {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
