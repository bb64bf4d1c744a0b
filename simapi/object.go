package simapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/google/uuid"
)

// Kind distinguishes the flavours of remote instances reachable through an
// Object handle. Behaviours are massless software modules; models are
// server-side attachments resolved per component.
type Kind string

const (
	KindObject    Kind = "object"
	KindBehaviour Kind = "behaviour"
	KindModel     Kind = "model"
	KindMessage   Kind = "message"
)

// Object is a handle to a remote simulation instance (component, behaviour,
// or model). The zero value is not usable; handles come from a Simulation.
type Object struct {
	id   uuid.UUID
	kind Kind
	sim  *Simulation
}

// Message is a handle to a remote message instance.
type Message struct {
	id  uuid.UUID
	sim *Simulation
}

// Value is an opaque result returned by property reads and invokes.
type Value struct {
	raw json.RawMessage
}

// ID returns the remote GUID of the object.
func (o *Object) ID() uuid.UUID { return o.id }

// Kind returns the flavour of the remote instance.
func (o *Object) Kind() Kind { return o.kind }

// ID returns the remote GUID of the message.
func (m *Message) ID() uuid.UUID { return m.id }

// AddChild creates a child component of the given type attached to this
// object, applying the initial properties.
func (o *Object) AddChild(ctx context.Context, typeName string, props Props) (*Object, error) {
	return o.sim.addInstance(ctx, "object.add_child", typeName, KindObject, o.id, props)
}

// AddBehaviour creates a software behaviour attached to this object.
// Behaviours have no mass or physical presence on the craft.
func (o *Object) AddBehaviour(ctx context.Context, typeName string, props Props) (*Object, error) {
	return o.sim.addInstance(ctx, "object.add_behaviour", typeName, KindBehaviour, o.id, props)
}

// GetModel resolves (creating if needed) the named model attached to this
// object and applies the given properties.
func (o *Object) GetModel(ctx context.Context, typeName string, props Props) (*Object, error) {
	return o.sim.addInstance(ctx, "object.get_model", typeName, KindModel, o.id, props)
}

// GetMessage resolves a named message owned by this object.
func (o *Object) GetMessage(ctx context.Context, name string) (*Message, error) {
	var resp idResponse
	path := fmt.Sprintf("/v1/sessions/%s/objects/%s/messages/%s", o.sim.id, o.id, url.PathEscape(name))
	if err := o.sim.c.do(ctx, "object.get_message", "GET", path, nil, &resp); err != nil {
		return nil, err
	}
	return &Message{id: resp.ID, sim: o.sim}, nil
}

// Get reads a single property into out.
func (o *Object) Get(ctx context.Context, name string, out any) error {
	return o.sim.getProperty(ctx, o.id, name, out)
}

// GetValue reads a single property as an opaque Value.
func (o *Object) GetValue(ctx context.Context, name string) (Value, error) {
	var v Value
	if err := o.Get(ctx, name, &v.raw); err != nil {
		return Value{}, err
	}
	return v, nil
}

// Set applies properties to the remote instance.
func (o *Object) Set(ctx context.Context, props Props) error {
	return o.sim.setProperties(ctx, o.id, props)
}

// Invoke calls a named method on the remote instance. Arguments are
// marshalled in order; handles may be passed directly.
func (o *Object) Invoke(ctx context.Context, method string, args ...any) (Value, error) {
	body := invokeRequest{Method: method, Args: encodeArgs(args)}
	var resp valueResponse
	path := fmt.Sprintf("/v1/sessions/%s/objects/%s/invoke", o.sim.id, o.id)
	if err := o.sim.c.do(ctx, "object.invoke", "POST", path, body, &resp); err != nil {
		return Value{}, err
	}
	return Value{raw: resp.Value}, nil
}

// Get reads a single field of the message into out.
func (m *Message) Get(ctx context.Context, name string, out any) error {
	return m.sim.getProperty(ctx, m.id, name, out)
}

// Set overwrites fields of the message.
func (m *Message) Set(ctx context.Context, props Props) error {
	return m.sim.setProperties(ctx, m.id, props)
}

// Decode unmarshals the value into out.
func (v Value) Decode(out any) error {
	if len(v.raw) == 0 {
		return fmt.Errorf("simapi: empty value")
	}
	return json.Unmarshal(v.raw, out)
}

// AsID decodes the value as a remote GUID.
func (v Value) AsID() (uuid.UUID, error) {
	var s string
	if err := v.Decode(&s); err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("simapi: value is not a GUID: %w", err)
	}
	return id, nil
}

// AsFloat64 decodes the value as a number.
func (v Value) AsFloat64() (float64, error) {
	var f float64
	err := v.Decode(&f)
	return f, err
}

// AsBool decodes the value as a boolean.
func (v Value) AsBool() (bool, error) {
	var b bool
	err := v.Decode(&b)
	return b, err
}

// IsZero reports whether the value carries no payload.
func (v Value) IsZero() bool { return len(v.raw) == 0 || string(v.raw) == "null" }

// encodeArgs replaces handle arguments with their GUIDs so callers can pass
// objects and messages straight into Invoke.
func encodeArgs(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		switch h := a.(type) {
		case *Object:
			out[i] = h.id.String()
		case *Message:
			out[i] = h.id.String()
		case uuid.UUID:
			out[i] = h.String()
		default:
			out[i] = a
		}
	}
	return out
}

// Wire shapes shared by object and simulation calls.

type idResponse struct {
	ID uuid.UUID `json:"id"`
}

type valueResponse struct {
	Value json.RawMessage `json:"value"`
}

type invokeRequest struct {
	Method string `json:"method"`
	Args   []any  `json:"args"`
}
