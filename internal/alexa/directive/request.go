package directive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa"
	"github.com/nerrad567/gray-logic-alexa/internal/alexa/capability"
	"github.com/nerrad567/gray-logic-alexa/internal/alexa/normalize"
	"github.com/nerrad567/gray-logic-alexa/internal/alexa/propertymap"
	"github.com/nerrad567/gray-logic-alexa/internal/openhab"
)

// Request is the per-directive context threaded through every handler.
type Request struct {
	Directive   alexa.Directive
	Token       string
	PropertyMap propertymap.PropertyMap
	Started     time.Time
}

// Interface returns the directive interface without the "Alexa." prefix.
func (r *Request) Interface() string {
	return strings.TrimPrefix(r.Directive.Header.Namespace, alexa.NamespaceAlexa+".")
}

// Key returns the property map key addressed by the directive, including
// the header instance for multi-instance interfaces.
func (r *Request) Key() string {
	iface := r.Interface()
	if d, ok := capability.Lookup(iface); ok && d.MultiInstance {
		return propertymap.Key(iface, r.Directive.Header.Instance)
	}
	return iface
}

// Entry resolves the item backing prop of the directive interface.
func (r *Request) Entry(prop string) (propertymap.Entry, error) {
	return r.entryOf(r.Key(), prop)
}

func (r *Request) entryOf(key, prop string) (propertymap.Entry, error) {
	e, ok := r.PropertyMap[key][prop]
	if !ok {
		return propertymap.Entry{}, alexa.ErrInvalidValue(fmt.Sprintf("No %s.%s capability defined", key, prop))
	}
	return e, nil
}

// Decode unmarshals the payload, mapping failures to INVALID_DIRECTIVE.
func (r *Request) Decode(v any) error {
	if err := r.Directive.DecodePayload(v); err != nil {
		return alexa.ErrInvalidDirective("malformed payload")
	}
	return nil
}

// command is one item command.
type command struct {
	item  string
	value string
}

// send posts every command concurrently and waits for all of them. The
// first failure is returned.
func (d *Dispatcher) send(ctx context.Context, r *Request, cmds ...command) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range cmds {
		g.Go(func() error {
			if err := d.items.PostItemCommand(gctx, r.Token, c.item, c.value); err != nil {
				return fmt.Errorf("command %s=%s: %w", c.item, c.value, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// readItems reads the named items concurrently. Any unavailable state
// aborts the read with ENDPOINT_UNREACHABLE.
func (d *Dispatcher) readItems(ctx context.Context, r *Request, names ...string) (map[string]openhab.Item, error) {
	results := make([]openhab.Item, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			item, err := d.items.GetItem(gctx, r.Token, name)
			if err != nil {
				return fmt.Errorf("read %s: %w", name, err)
			}
			if item.IsUnavailable() {
				return alexa.ErrEndpointUnreachable(fmt.Sprintf("%s state is unavailable", name))
			}
			results[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]openhab.Item, len(names))
	for i, name := range names {
		out[name] = results[i]
	}
	return out, nil
}

// readState reads the state item of one entry.
func (d *Dispatcher) readState(ctx context.Context, r *Request, e propertymap.Entry) (openhab.Item, error) {
	name := e.Item.StateItem()
	items, err := d.readItems(ctx, r, name)
	if err != nil {
		return openhab.Item{}, err
	}
	return items[name], nil
}

// readNumber reads the state item of one entry as a number.
func (d *Dispatcher) readNumber(ctx context.Context, r *Request, e propertymap.Entry) (float64, error) {
	item, err := d.readState(ctx, r, e)
	if err != nil {
		return 0, err
	}
	n, err := normalize.ParseNumber(item.State)
	if err != nil {
		return 0, alexa.ErrEndpointUnreachable(fmt.Sprintf("%s state is not numeric", item.Name))
	}
	return n, nil
}

// respond renders an Alexa.Response with the current state of the given
// interface keys.
func (d *Dispatcher) respond(ctx context.Context, r *Request, keys ...string) (*alexa.Response, error) {
	props, err := d.properties(ctx, r, keys...)
	if err != nil {
		return nil, err
	}
	return alexa.NewResponse(r.Directive, props), nil
}
