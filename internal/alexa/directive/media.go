package directive

import (
	"context"
	"strconv"
	"strings"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa"
	"github.com/nerrad567/gray-logic-alexa/internal/alexa/capability"
	"github.com/nerrad567/gray-logic-alexa/internal/alexa/normalize"
)

// defaultVolumeStep is the change per StepSpeaker step.
const defaultVolumeStep = 1

// ─── Channel ───────────────────────────────────────────────────────

func (d *Dispatcher) changeChannel(ctx context.Context, r *Request) (*alexa.Response, error) {
	e, err := r.Entry(capability.PropChannel)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Channel         alexa.ChannelValue `json:"channel"`
		ChannelMetadata struct {
			Name string `json:"name"`
		} `json:"channelMetadata"`
	}
	if err := r.Decode(&payload); err != nil {
		return nil, err
	}

	value := payload.Channel.Number
	if value == "" {
		mappings := e.Parameters.Mapping(capability.ParamChannelMappings)
		for _, name := range []string{payload.Channel.CallSign, payload.Channel.AffiliateCallSign, payload.ChannelMetadata.Name} {
			if v, ok := lookupFold(mappings, name); ok {
				value = v
				break
			}
		}
	}
	if _, err := strconv.ParseFloat(value, 64); err != nil {
		return nil, alexa.ErrInvalidValue("Channel not found")
	}

	if err := d.send(ctx, r, command{e.Item.Name, value}); err != nil {
		return nil, err
	}
	return d.respond(ctx, r, capability.ChannelController)
}

func (d *Dispatcher) skipChannels(ctx context.Context, r *Request) (*alexa.Response, error) {
	e, err := r.Entry(capability.PropChannel)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Count *float64 `json:"channelCount"`
	}
	if err := r.Decode(&payload); err != nil {
		return nil, err
	}
	if payload.Count == nil {
		return nil, alexa.ErrInvalidValue("missing channelCount")
	}

	current, err := d.readNumber(ctx, r, e)
	if err != nil {
		return nil, err
	}
	if err := d.send(ctx, r, command{e.Item.Name, formatInt(current + *payload.Count)}); err != nil {
		return nil, err
	}
	return d.respond(ctx, r, capability.ChannelController)
}

func lookupFold(m map[string]string, name string) (string, bool) {
	if name == "" {
		return "", false
	}
	for k, v := range m {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// ─── Input ─────────────────────────────────────────────────────────

func (d *Dispatcher) selectInput(ctx context.Context, r *Request) (*alexa.Response, error) {
	e, err := r.Entry(capability.PropInput)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Input string `json:"input"`
	}
	if err := r.Decode(&payload); err != nil {
		return nil, err
	}
	input := strings.TrimSpace(payload.Input)
	if input == "" {
		return nil, alexa.ErrInvalidValue("missing input")
	}
	if supported := e.Parameters.List(capability.ParamSupportedInputs); len(supported) > 0 {
		match := ""
		for _, s := range supported {
			if strings.EqualFold(s, input) {
				match = s
			}
		}
		if match == "" {
			return nil, alexa.ErrInvalidValue("Input " + input + " is not supported")
		}
		input = match
	}

	if err := d.send(ctx, r, command{e.Item.Name, input}); err != nil {
		return nil, err
	}
	return d.respond(ctx, r, capability.InputController)
}

// ─── Speaker / StepSpeaker ─────────────────────────────────────────

func (d *Dispatcher) setVolume(ctx context.Context, r *Request) (*alexa.Response, error) {
	e, err := r.Entry(capability.PropVolume)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Volume *float64 `json:"volume"`
	}
	if err := r.Decode(&payload); err != nil {
		return nil, err
	}
	if payload.Volume == nil {
		return nil, alexa.ErrInvalidValue("missing volume")
	}

	if err := d.send(ctx, r, command{e.Item.Name, formatInt(clampPercent(*payload.Volume))}); err != nil {
		return nil, err
	}
	return d.respond(ctx, r, capability.Speaker)
}

func (d *Dispatcher) adjustVolume(ctx context.Context, r *Request) (*alexa.Response, error) {
	e, err := r.Entry(capability.PropVolume)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Volume *float64 `json:"volume"`
	}
	if err := r.Decode(&payload); err != nil {
		return nil, err
	}
	if payload.Volume == nil {
		return nil, alexa.ErrInvalidValue("missing volume")
	}

	item, err := d.readState(ctx, r, e)
	if err != nil {
		return nil, err
	}
	current, err := normalize.Percent(item.State, item.EffectiveType())
	if err != nil {
		return nil, alexa.ErrEndpointUnreachable(item.Name + " state is not numeric")
	}

	target := clampPercent(current + stepDelta(*payload.Volume, e.Parameters))
	if err := d.send(ctx, r, command{e.Item.Name, formatInt(target)}); err != nil {
		return nil, err
	}
	return d.respond(ctx, r, capability.Speaker)
}

func (d *Dispatcher) stepVolume(ctx context.Context, r *Request) (*alexa.Response, error) {
	e, err := r.Entry(capability.PropVolume)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Steps *float64 `json:"volumeSteps"`
	}
	if err := r.Decode(&payload); err != nil {
		return nil, err
	}
	if payload.Steps == nil {
		return nil, alexa.ErrInvalidValue("missing volumeSteps")
	}

	current, err := d.readNumber(ctx, r, e)
	if err != nil {
		return nil, err
	}
	step, ok := e.Parameters.Float(capability.ParamIncrement)
	if !ok || step <= 0 {
		step = defaultVolumeStep
	}

	target := clampPercent(current + *payload.Steps*step)
	if err := d.send(ctx, r, command{e.Item.Name, formatInt(target)}); err != nil {
		return nil, err
	}
	return alexa.NewResponse(r.Directive, nil), nil
}

func (d *Dispatcher) setMute(ctx context.Context, r *Request) (*alexa.Response, error) {
	e, err := r.Entry(capability.PropMuted)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Mute *bool `json:"mute"`
	}
	if err := r.Decode(&payload); err != nil {
		return nil, err
	}
	if payload.Mute == nil {
		return nil, alexa.ErrInvalidValue("missing mute")
	}

	value := "OFF"
	if *payload.Mute {
		value = "ON"
	}
	if err := d.send(ctx, r, command{e.Item.Name, value}); err != nil {
		return nil, err
	}
	if r.Interface() == capability.StepSpeaker {
		return alexa.NewResponse(r.Directive, nil), nil
	}
	return d.respond(ctx, r, capability.Speaker)
}
