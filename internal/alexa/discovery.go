package alexa

// Manufacturer is reported for every discovered endpoint.
const Manufacturer = "openHAB"

// DiscoveryPayload is the Discover.Response payload.
type DiscoveryPayload struct {
	Endpoints []DiscoveryEndpoint `json:"endpoints"`
}

// DiscoveryEndpoint describes one discoverable device.
type DiscoveryEndpoint struct {
	EndpointID        string            `json:"endpointId"`
	ManufacturerName  string            `json:"manufacturerName"`
	FriendlyName      string            `json:"friendlyName"`
	Description       string            `json:"description"`
	DisplayCategories []string          `json:"displayCategories"`
	Cookie            map[string]string `json:"cookie,omitempty"`
	Capabilities      []Capability      `json:"capabilities"`
}

// Capability is one interface entry of a discovered endpoint.
type Capability struct {
	Type                 string                `json:"type"`
	Interface            string                `json:"interface"`
	Instance             string                `json:"instance,omitempty"`
	Version              string                `json:"version"`
	Properties           *CapabilityProperties `json:"properties,omitempty"`
	CapabilityResources  *CapabilityResources  `json:"capabilityResources,omitempty"`
	Configuration        any                   `json:"configuration,omitempty"`
	SupportedOperations  []string              `json:"supportedOperations,omitempty"`
	Inputs               []Input               `json:"inputs,omitempty"`
	SupportsDeactivation *bool                 `json:"supportsDeactivation,omitempty"`
	ProactivelyReported  *bool                 `json:"proactivelyReported,omitempty"`
}

// CapabilityProperties lists the properties an interface reports.
type CapabilityProperties struct {
	Supported           []SupportedProperty `json:"supported"`
	ProactivelyReported bool                `json:"proactivelyReported"`
	Retrievable         bool                `json:"retrievable"`
}

// SupportedProperty names one reportable property.
type SupportedProperty struct {
	Name string `json:"name"`
}

// CapabilityResources carries friendly names for instance capabilities.
type CapabilityResources struct {
	FriendlyNames []FriendlyName `json:"friendlyNames"`
}

// FriendlyName is a text or asset label.
type FriendlyName struct {
	Type  string            `json:"@type"`
	Value FriendlyNameValue `json:"value"`
}

// FriendlyNameValue holds the label text or catalogue asset id.
type FriendlyNameValue struct {
	Text    string `json:"text,omitempty"`
	Locale  string `json:"locale,omitempty"`
	AssetID string `json:"assetId,omitempty"`
}

// Input names one InputController input.
type Input struct {
	Name string `json:"name"`
}

// ThermostatConfiguration is the ThermostatController configuration object.
type ThermostatConfiguration struct {
	SupportedModes     []string `json:"supportedModes,omitempty"`
	SupportsScheduling bool     `json:"supportsScheduling"`
}

// NewCapability returns an AlexaInterface capability for iface with the
// given retrievable properties. An empty props slice omits the properties
// block.
func NewCapability(iface string, props ...string) Capability {
	c := Capability{
		Type:      "AlexaInterface",
		Interface: iface,
		Version:   PayloadVersion,
	}
	if len(props) > 0 {
		supported := make([]SupportedProperty, 0, len(props))
		for _, p := range props {
			supported = append(supported, SupportedProperty{Name: p})
		}
		c.Properties = &CapabilityProperties{
			Supported:   supported,
			Retrievable: true,
		}
	}
	return c
}

// TextNames builds capability resources from plain text labels. Labels that
// start with "@" are treated as Alexa catalogue asset ids.
func TextNames(locale string, names ...string) *CapabilityResources {
	if len(names) == 0 {
		return nil
	}
	res := &CapabilityResources{FriendlyNames: make([]FriendlyName, 0, len(names))}
	for _, n := range names {
		if len(n) > 1 && n[0] == '@' {
			res.FriendlyNames = append(res.FriendlyNames, FriendlyName{
				Type:  "asset",
				Value: FriendlyNameValue{AssetID: "Alexa." + n[1:]},
			})
			continue
		}
		res.FriendlyNames = append(res.FriendlyNames, FriendlyName{
			Type:  "text",
			Value: FriendlyNameValue{Text: n, Locale: locale},
		})
	}
	return res
}
