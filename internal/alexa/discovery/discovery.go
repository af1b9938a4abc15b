// Package discovery turns the openHAB item tree into Alexa endpoints.
//
// Each run fetches every item with its Alexa metadata in one call, converts
// legacy tag-based configuration into metadata, folds group endpoints, and
// renders one Discover.Response endpoint per item or group that exposes at
// least one capability. The property map of each endpoint travels in its
// cookie.
package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa"
	"github.com/nerrad567/gray-logic-alexa/internal/alexa/capability"
	"github.com/nerrad567/gray-logic-alexa/internal/alexa/propertymap"
	"github.com/nerrad567/gray-logic-alexa/internal/openhab"
)

// fallbackCategory is used when nothing else yields a display category.
const fallbackCategory = "OTHER"

// ItemSource reads the full item tree.
type ItemSource interface {
	GetItemsRecursively(ctx context.Context, token string) ([]openhab.Item, error)
}

// Logger defines the logging interface used by the Engine.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Engine discovers endpoints. It holds no per-request state and is safe for
// concurrent use.
type Engine struct {
	items    ItemSource
	registry *capability.Registry
	logger   Logger
}

// New creates a discovery engine reading from items.
func New(items ItemSource) *Engine {
	return &Engine{
		items:    items,
		registry: capability.Default,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the engine.
func (e *Engine) SetLogger(logger Logger) {
	e.logger = logger
}

// endpoint is one candidate before rendering.
type endpoint struct {
	item     openhab.Item
	category string
	pm       propertymap.PropertyMap
}

// Discover returns every endpoint visible to the account owning token.
//
// Parameters:
//   - ctx: Context for the openHAB request
//   - token: Bearer token of the linked account
//
// Returns:
//   - []alexa.DiscoveryEndpoint: Endpoints with at least one capability
//   - error: If the item tree could not be read
func (e *Engine) Discover(ctx context.Context, token string) ([]alexa.DiscoveryEndpoint, error) {
	items, err := e.items.GetItemsRecursively(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("discovery: fetching items: %w", err)
	}

	index, order := flatten(items)
	applyLegacy(index, order)

	var candidates []endpoint
	consumed := make(map[string]bool)

	for _, name := range order {
		item := index[name]
		category, ok := groupEndpointCategory(item)
		if !ok {
			continue
		}

		pm := propertymap.New()
		e.add(pm, item)
		for _, m := range item.Members {
			member, ok := index[m.Name]
			if !ok {
				continue
			}
			e.add(pm, member)
			consumed[m.Name] = true
		}
		consumed[name] = true
		candidates = append(candidates, endpoint{item: item, category: category, pm: pm})
	}

	for _, name := range order {
		if consumed[name] {
			continue
		}
		item := index[name]
		if _, ok := item.AlexaMetadata(); !ok {
			continue
		}
		pm := propertymap.New()
		e.add(pm, item)
		candidates = append(candidates, endpoint{item: item, pm: pm})
	}

	var out []alexa.DiscoveryEndpoint
	for _, c := range candidates {
		ep, ok, err := e.render(c)
		if err != nil {
			return nil, err
		}
		if !ok {
			e.logger.Debug("endpoint has no capabilities", "endpoint_id", c.item.Name)
			continue
		}
		out = append(out, ep)
	}

	e.logger.Info("discovery complete", "items", len(order), "endpoints", len(out))
	return out, nil
}

func (e *Engine) add(pm propertymap.PropertyMap, item openhab.Item) {
	if err := pm.AddItem(item); err != nil {
		e.logger.Debug("skipped capability tokens", "item", item.Name, "error", err)
	}
}

// render builds the discovery endpoint. ok is false when the endpoint has
// no capabilities and must be omitted.
func (e *Engine) render(c endpoint) (alexa.DiscoveryEndpoint, bool, error) {
	var caps []alexa.Capability
	var categories []string
	seen := make(map[string]bool)
	addCategory := func(cat string) {
		if cat != "" && !seen[cat] {
			seen[cat] = true
			categories = append(categories, cat)
		}
	}

	addCategory(c.category)
	for _, key := range c.pm.Interfaces() {
		iface, instance := propertymap.SplitKey(key)
		d, ok := e.registry.Lookup(iface)
		if !ok {
			continue
		}
		props := make(map[string]capability.Parameters, len(c.pm[key]))
		for name, entry := range c.pm[key] {
			props[name] = entry.Parameters
		}
		caps = append(caps, d.Render(instance, props))
		for _, cat := range c.pm.GetCategories(key) {
			addCategory(cat)
		}
	}
	if len(caps) == 0 {
		return alexa.DiscoveryEndpoint{}, false, nil
	}
	if len(categories) == 0 {
		addCategory(e.defaultCategory(c.pm))
	}

	dump, err := c.pm.Dump()
	if err != nil {
		return alexa.DiscoveryEndpoint{}, false, fmt.Errorf("discovery: %s: %w", c.item.Name, err)
	}

	return alexa.DiscoveryEndpoint{
		EndpointID:        c.item.Name,
		ManufacturerName:  alexa.Manufacturer,
		FriendlyName:      c.item.DisplayName(),
		Description:       c.item.DisplayName() + " via " + alexa.Manufacturer,
		DisplayCategories: categories,
		Cookie:            map[string]string{alexa.CookiePropertyMap: dump},
		Capabilities:      append(caps, capability.BaseCapabilities()...),
	}, true, nil
}

// defaultCategory picks the default category of the highest-priority
// interface present.
func (e *Engine) defaultCategory(pm propertymap.PropertyMap) string {
	for _, d := range e.registry.Descriptors() {
		if pm.Has(d.Interface) {
			return d.DefaultCategory
		}
	}
	return fallbackCategory
}

// groupEndpointCategory reports whether item is a group declaring an
// Endpoint.<CATEGORY> token and returns the category.
func groupEndpointCategory(item openhab.Item) (string, bool) {
	if !item.IsGroup() {
		return "", false
	}
	md, ok := item.AlexaMetadata()
	if !ok {
		return "", false
	}
	for _, raw := range strings.Split(md.Value, ",") {
		token := strings.TrimSpace(raw)
		if !strings.HasPrefix(token, propertymap.EndpointPrefix) {
			continue
		}
		cat := strings.ToUpper(strings.TrimPrefix(token, propertymap.EndpointPrefix))
		if !capability.IsDisplayCategory(cat) {
			cat = fallbackCategory
		}
		return cat, true
	}
	return "", false
}

// flatten indexes every item in the tree by name, preserving first-seen
// order. A nested copy carrying metadata replaces a top-level copy without.
func flatten(items []openhab.Item) (map[string]openhab.Item, []string) {
	index := make(map[string]openhab.Item)
	var order []string

	var walk func([]openhab.Item)
	walk = func(list []openhab.Item) {
		for _, item := range list {
			existing, seen := index[item.Name]
			switch {
			case !seen:
				index[item.Name] = item
				order = append(order, item.Name)
			case existing.Metadata == nil && item.Metadata != nil:
				index[item.Name] = item
			}
			walk(item.Members)
		}
	}
	walk(items)
	return index, order
}
