// Package openhab is a minimal client for the openHAB REST item API: read
// one item, read the whole item tree with Alexa metadata, and post
// commands.
package openhab

import (
	"strings"
)

// MetadataNamespace is the item metadata namespace carrying Alexa
// capability declarations.
const MetadataNamespace = "alexa"

// Sentinel states meaning the item has no usable value.
const (
	StateNull        = "NULL"
	StateUndef       = "UNDEF"
	StateUnavailable = "unavailable"
)

// Item is an openHAB item as returned by the REST API.
type Item struct {
	Name             string              `json:"name"`
	Label            string              `json:"label,omitempty"`
	Type             string              `json:"type"`
	GroupType        string              `json:"groupType,omitempty"`
	State            string              `json:"state"`
	Tags             []string            `json:"tags,omitempty"`
	GroupNames       []string            `json:"groupNames,omitempty"`
	Members          []Item              `json:"members,omitempty"`
	Metadata         map[string]Metadata `json:"metadata,omitempty"`
	StateDescription *StateDescription   `json:"stateDescription,omitempty"`
}

// Metadata is one item metadata namespace entry.
type Metadata struct {
	Value  string         `json:"value"`
	Config map[string]any `json:"config,omitempty"`
}

// StateDescription carries display hints for the item state.
type StateDescription struct {
	Pattern  string        `json:"pattern,omitempty"`
	ReadOnly bool          `json:"readOnly,omitempty"`
	Options  []StateOption `json:"options,omitempty"`
}

// StateOption is a selectable state value.
type StateOption struct {
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
}

// IsGroup reports whether the item is a group.
func (i Item) IsGroup() bool {
	return i.Type == "Group"
}

// EffectiveType is the type that determines the state encoding: the group
// base type for typed groups, the item type otherwise. Dimensions are kept
// ("Number:Temperature").
func (i Item) EffectiveType() string {
	if i.IsGroup() && i.GroupType != "" {
		return i.GroupType
	}
	return i.Type
}

// BaseType is EffectiveType without the dimension suffix.
func (i Item) BaseType() string {
	base, _, _ := strings.Cut(i.EffectiveType(), ":")
	return base
}

// Dimension returns the quantity dimension ("Temperature") or "".
func (i Item) Dimension() string {
	_, dim, _ := strings.Cut(i.EffectiveType(), ":")
	return dim
}

// IsUnavailable reports whether the state is a sentinel without a value.
func (i Item) IsUnavailable() bool {
	switch i.State {
	case "", StateNull, StateUndef, StateUnavailable:
		return true
	}
	return false
}

// AlexaMetadata returns the item's Alexa metadata entry.
func (i Item) AlexaMetadata() (Metadata, bool) {
	m, ok := i.Metadata[MetadataNamespace]
	return m, ok && strings.TrimSpace(m.Value) != ""
}

// HasTag reports whether the item carries tag (case-insensitive).
func (i Item) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Pattern returns the state description pattern, if any.
func (i Item) Pattern() string {
	if i.StateDescription == nil {
		return ""
	}
	return i.StateDescription.Pattern
}

// DisplayName returns the label, falling back to the name.
func (i Item) DisplayName() string {
	if i.Label != "" {
		return i.Label
	}
	return i.Name
}
