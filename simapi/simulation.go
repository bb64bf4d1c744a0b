package simapi

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/signalsfoundry/mission-scenarios/telemetry"
)

// Simulation is a handle to one remote simulation session. All objects,
// behaviours, and messages created through it are scoped to that session.
type Simulation struct {
	id uuid.UUID
	c  *Client
}

// Trackable is anything whose telemetry can be recorded and queried: object
// handles (the service picks a default message) and message handles.
type Trackable interface {
	trackID() uuid.UUID
}

func (o *Object) trackID() uuid.UUID  { return o.id }
func (m *Message) trackID() uuid.UUID { return m.id }

// New opens a simulation session on the remote service.
func New(ctx context.Context, creds Credentials, opts ...Option) (*Simulation, error) {
	c, err := NewClient(creds, opts...)
	if err != nil {
		return nil, err
	}
	var resp idResponse
	if err := c.do(ctx, "session.create", "POST", "/v1/sessions", struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &Simulation{id: resp.ID, c: c}, nil
}

// ID returns the remote session GUID.
func (s *Simulation) ID() uuid.UUID { return s.id }

// GetSystem fetches the singleton system of the given type (SolarSystem,
// Universe, TelemetrySystem), creating it if needed, and applies properties.
func (s *Simulation) GetSystem(ctx context.Context, typeName string, props Props) (*Object, error) {
	body := createRequest{Type: typeName, Properties: encodeProps(props)}
	var resp idResponse
	path := fmt.Sprintf("/v1/sessions/%s/systems", s.id)
	if err := s.c.do(ctx, "system.get", "POST", path, body, &resp); err != nil {
		return nil, err
	}
	return &Object{id: resp.ID, kind: KindObject, sim: s}, nil
}

// GetPlanet resolves a handle to a celestial body by name.
func (s *Simulation) GetPlanet(ctx context.Context, name string) (*Object, error) {
	var resp idResponse
	path := fmt.Sprintf("/v1/sessions/%s/planets/%s", s.id, url.PathEscape(name))
	if err := s.c.do(ctx, "planet.get", "GET", path, nil, &resp); err != nil {
		return nil, err
	}
	return &Object{id: resp.ID, kind: KindObject, sim: s}, nil
}

// AddObject creates a root-level object (spacecraft, ground station).
func (s *Simulation) AddObject(ctx context.Context, typeName string, props Props) (*Object, error) {
	return s.addInstance(ctx, "object.add", typeName, KindObject, uuid.Nil, props)
}

// CreateMessage creates a standalone message instance of the given type.
func (s *Simulation) CreateMessage(ctx context.Context, typeName string, props Props) (*Message, error) {
	obj, err := s.addInstance(ctx, "message.create", typeName, KindMessage, uuid.Nil, props)
	if err != nil {
		return nil, err
	}
	return &Message{id: obj.id, sim: s}, nil
}

// MessageByID rebinds a message GUID (typically returned by an Invoke) to
// this session so it can be set, tracked, and queried.
func (s *Simulation) MessageByID(id uuid.UUID) *Message {
	return &Message{id: id, sim: s}
}

// SetTrackingInterval sets the simulation-time interval, in seconds, at
// which tracked messages are recorded.
func (s *Simulation) SetTrackingInterval(ctx context.Context, seconds float64) error {
	body := struct {
		Interval float64 `json:"interval"`
	}{Interval: seconds}
	path := fmt.Sprintf("/v1/sessions/%s/tracking/interval", s.id)
	return s.c.do(ctx, "tracking.set_interval", "PUT", path, body, nil)
}

// TrackObject registers a message or object for telemetry recording.
func (s *Simulation) TrackObject(ctx context.Context, ref Trackable) error {
	if err := s.sameSession(ref); err != nil {
		return err
	}
	body := struct {
		ID uuid.UUID `json:"id"`
	}{ID: ref.trackID()}
	path := fmt.Sprintf("/v1/sessions/%s/tracking", s.id)
	if err := s.c.do(ctx, "tracking.track", "POST", path, body, nil); err != nil {
		return err
	}
	s.c.metrics.IncTrackedMessages()
	return nil
}

// Time returns the current simulation time in seconds since the epoch of
// the session.
func (s *Simulation) Time(ctx context.Context) (float64, error) {
	var resp struct {
		Time float64 `json:"time"`
	}
	path := fmt.Sprintf("/v1/sessions/%s/time", s.id)
	if err := s.c.do(ctx, "time.get", "GET", path, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Time, nil
}

// QueryDataFrame fetches the recorded telemetry of a tracked message or
// object as a dataframe.
func (s *Simulation) QueryDataFrame(ctx context.Context, ref Trackable) (*telemetry.DataFrame, error) {
	if err := s.sameSession(ref); err != nil {
		return nil, err
	}
	var resp telemetry.WireFrame
	path := fmt.Sprintf("/v1/sessions/%s/query/%s", s.id, ref.trackID())
	if err := s.c.do(ctx, "query", "GET", path, nil, &resp); err != nil {
		return nil, err
	}
	return telemetry.FromWire(resp)
}

// CaptureOptions shape a visualiser image capture.
type CaptureOptions struct {
	FOV      float64 // degrees
	Exposure float64
	Width    int
	Height   int
	Cesium   bool
}

// CaptureImage renders an image from the visualiser at the spacecraft's
// current viewpoint and writes it to path. Returns
// ErrVisualiserUnavailable when the remote visualiser is not running.
func (s *Simulation) CaptureImage(ctx context.Context, path string, spacecraft *Object, opts CaptureOptions) error {
	if err := s.sameSession(spacecraft); err != nil {
		return err
	}
	q := url.Values{}
	q.Set("spacecraft", spacecraft.id.String())
	q.Set("fov", fmt.Sprintf("%g", opts.FOV))
	q.Set("exposure", fmt.Sprintf("%g", opts.Exposure))
	if opts.Width > 0 {
		q.Set("width", fmt.Sprintf("%d", opts.Width))
	}
	if opts.Height > 0 {
		q.Set("height", fmt.Sprintf("%d", opts.Height))
	}
	if opts.Cesium {
		q.Set("cesium", "true")
	}
	reqPath := fmt.Sprintf("/v1/sessions/%s/capture?%s", s.id, q.Encode())
	body, err := s.c.doRaw(ctx, "capture", "GET", reqPath, nil, "image/png")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("simapi: capture: %w", err)
	}
	return os.WriteFile(path, body, 0o644)
}

// ConfigureVisualiser provides the terrain-streaming access token to the
// remote visualiser.
func (s *Simulation) ConfigureVisualiser(ctx context.Context, token string) error {
	body := struct {
		Token string `json:"token"`
	}{Token: token}
	path := fmt.Sprintf("/v1/sessions/%s/visualiser", s.id)
	return s.c.do(ctx, "visualiser.configure", "PUT", path, body, nil)
}

// ---- shared plumbing ----

type createRequest struct {
	Type       string    `json:"type"`
	Kind       Kind      `json:"kind,omitempty"`
	Parent     uuid.UUID `json:"parent,omitempty"`
	Properties Props     `json:"properties,omitempty"`
}

func (s *Simulation) addInstance(ctx context.Context, op, typeName string, kind Kind, parent uuid.UUID, props Props) (*Object, error) {
	body := createRequest{Type: typeName, Kind: kind, Parent: parent, Properties: encodeProps(props)}
	var resp idResponse
	path := fmt.Sprintf("/v1/sessions/%s/objects", s.id)
	if err := s.c.do(ctx, op, "POST", path, body, &resp); err != nil {
		return nil, err
	}
	return &Object{id: resp.ID, kind: kind, sim: s}, nil
}

func (s *Simulation) getProperty(ctx context.Context, id uuid.UUID, name string, out any) error {
	var resp valueResponse
	path := fmt.Sprintf("/v1/sessions/%s/objects/%s/properties/%s", s.id, id, url.PathEscape(name))
	if err := s.c.do(ctx, "object.get", "GET", path, nil, &resp); err != nil {
		return err
	}
	return Value{raw: resp.Value}.Decode(out)
}

func (s *Simulation) setProperties(ctx context.Context, id uuid.UUID, props Props) error {
	body := struct {
		Properties Props `json:"properties"`
	}{Properties: encodeProps(props)}
	path := fmt.Sprintf("/v1/sessions/%s/objects/%s", s.id, id)
	return s.c.do(ctx, "object.set", "PATCH", path, body, nil)
}

// encodeProps replaces handle values with their GUIDs so message wiring can
// pass handles directly (In_CommandTorqueMsg: someMessage).
func encodeProps(props Props) Props {
	out := make(Props, len(props))
	for k, v := range props {
		switch h := v.(type) {
		case *Object:
			out[k] = h.id.String()
		case *Message:
			out[k] = h.id.String()
		default:
			out[k] = v
		}
	}
	return out
}

func (s *Simulation) sameSession(ref any) error {
	switch h := ref.(type) {
	case *Object:
		if h.sim != s {
			return ErrSessionMismatch
		}
	case *Message:
		if h.sim != s {
			return ErrSessionMismatch
		}
	}
	return nil
}
