package simapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
)

var testSessionID = uuid.MustParse("11111111-2222-3333-4444-555555555555")

// newTestService wraps a mux in an httptest server that always answers the
// session-create call, so tests only declare the routes they exercise.
func newTestService(t *testing.T, mux *http.ServeMux) (*httptest.Server, Credentials) {
	t.Helper()
	mux.HandleFunc("POST /v1/sessions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"id": testSessionID.String()})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, Credentials{URL: srv.URL}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": msg},
	})
}

func TestSessionCreateSendsKey(t *testing.T) {
	var gotKey, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		gotRequestID = r.Header.Get("X-Request-Id")
		writeJSON(w, map[string]string{"id": testSessionID.String()})
	}))
	defer srv.Close()

	sim, err := New(context.Background(), Credentials{URL: srv.URL, Key: "secret"})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if sim.ID() != testSessionID {
		t.Fatalf("session ID = %s, want %s", sim.ID(), testSessionID)
	}
	if gotKey != "secret" {
		t.Fatalf("X-Api-Key = %q, want %q", gotKey, "secret")
	}
	if gotRequestID == "" {
		t.Fatalf("expected a generated X-Request-Id header")
	}
}

func TestAddObjectEncodesHandleProps(t *testing.T) {
	objectID := uuid.New()
	messageID := uuid.New()

	var created []createRequest
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/sessions/{session}/objects", func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode create request: %v", err)
		}
		created = append(created, req)
		writeJSON(w, map[string]string{"id": objectID.String()})
	})
	_, creds := newTestService(t, mux)

	ctx := context.Background()
	sim, err := New(ctx, creds)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	msg := sim.MessageByID(messageID)
	obj, err := sim.AddObject(ctx, Spacecraft, Props{
		"TotalMass":    750.0,
		"In_SomeMsg":   msg,
		"Attitude":     []float64{0.1, 0.2, 0.3},
		"OverrideMass": true,
	})
	if err != nil {
		t.Fatalf("AddObject error: %v", err)
	}
	if obj.ID() != objectID {
		t.Fatalf("object ID = %s, want %s", obj.ID(), objectID)
	}

	if len(created) != 1 {
		t.Fatalf("server saw %d create calls, want 1", len(created))
	}
	req := created[0]
	if req.Type != Spacecraft {
		t.Fatalf("create type = %q, want %q", req.Type, Spacecraft)
	}
	if got := req.Properties["In_SomeMsg"]; got != messageID.String() {
		t.Fatalf("handle property encoded as %v, want GUID %s", got, messageID)
	}
	if got := req.Properties["TotalMass"]; got != 750.0 {
		t.Fatalf("TotalMass = %v, want 750", got)
	}
}

func TestAddChildAndBehaviourCarryParentAndKind(t *testing.T) {
	parentID := uuid.New()

	var kinds []Kind
	var parents []uuid.UUID
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/sessions/{session}/objects", func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		kinds = append(kinds, req.Kind)
		parents = append(parents, req.Parent)
		id := parentID
		if len(kinds) > 1 {
			id = uuid.New()
		}
		writeJSON(w, map[string]string{"id": id.String()})
	})
	_, creds := newTestService(t, mux)

	ctx := context.Background()
	sim, err := New(ctx, creds)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	spacecraft, err := sim.AddObject(ctx, Spacecraft, nil)
	if err != nil {
		t.Fatalf("AddObject error: %v", err)
	}
	if _, err := spacecraft.AddChild(ctx, "ReactionWheelArray", nil); err != nil {
		t.Fatalf("AddChild error: %v", err)
	}
	if _, err := spacecraft.AddBehaviour(ctx, "SimpleNavigationSoftware", nil); err != nil {
		t.Fatalf("AddBehaviour error: %v", err)
	}
	if _, err := spacecraft.GetModel(ctx, "TransmitterPowerModel", nil); err != nil {
		t.Fatalf("GetModel error: %v", err)
	}

	wantKinds := []Kind{KindObject, KindObject, KindBehaviour, KindModel}
	for i, want := range wantKinds {
		if kinds[i] != want {
			t.Fatalf("call %d kind = %q, want %q", i, kinds[i], want)
		}
	}
	for i, parent := range parents[1:] {
		if parent != parentID {
			t.Fatalf("call %d parent = %s, want %s", i+1, parent, parentID)
		}
	}
}

func TestInvokeDecodesValue(t *testing.T) {
	objectID := uuid.New()
	linkID := uuid.New()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/sessions/{session}/objects", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"id": objectID.String()})
	})
	mux.HandleFunc("POST /v1/sessions/{session}/objects/{object}/invoke", func(w http.ResponseWriter, r *http.Request) {
		var req invokeRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		switch req.Method {
		case "GetLinkMessage":
			writeJSON(w, map[string]any{"value": linkID.String()})
		case "ReceiveMessage":
			writeJSON(w, map[string]any{"value": true})
		default:
			writeJSON(w, map[string]any{"value": nil})
		}
	})
	_, creds := newTestService(t, mux)

	ctx := context.Background()
	sim, err := New(ctx, creds)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	obj, err := sim.AddObject(ctx, TelemetrySystem, nil)
	if err != nil {
		t.Fatalf("AddObject error: %v", err)
	}

	v, err := obj.Invoke(ctx, "GetLinkMessage", obj, obj)
	if err != nil {
		t.Fatalf("Invoke error: %v", err)
	}
	id, err := v.AsID()
	if err != nil {
		t.Fatalf("AsID error: %v", err)
	}
	if id != linkID {
		t.Fatalf("AsID = %s, want %s", id, linkID)
	}

	v, err = obj.Invoke(ctx, "ReceiveMessage")
	if err != nil {
		t.Fatalf("Invoke error: %v", err)
	}
	ok, err := v.AsBool()
	if err != nil {
		t.Fatalf("AsBool error: %v", err)
	}
	if !ok {
		t.Fatalf("AsBool = false, want true")
	}

	v, err = obj.Invoke(ctx, "PitchDegrees", 90.0)
	if err != nil {
		t.Fatalf("Invoke error: %v", err)
	}
	if !v.IsZero() {
		t.Fatalf("expected a zero value from a void invoke")
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		status int
		code   string
		want   error
	}{
		{http.StatusUnauthorized, "unauthorized", ErrUnauthorized},
		{http.StatusForbidden, "forbidden", ErrUnauthorized},
		{http.StatusNotFound, "not_found", ErrNotFound},
		{http.StatusBadRequest, "invalid_property", ErrInvalidRequest},
		{http.StatusInternalServerError, "internal", ErrServerFault},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("GET /v1/sessions/{session}/planets/{planet}", func(w http.ResponseWriter, r *http.Request) {
				writeAPIError(w, tc.status, tc.code, "remote detail")
			})
			_, creds := newTestService(t, mux)

			ctx := context.Background()
			sim, err := New(ctx, creds)
			if err != nil {
				t.Fatalf("New error: %v", err)
			}
			_, err = sim.GetPlanet(ctx, "Earth")
			if !errors.Is(err, tc.want) {
				t.Fatalf("GetPlanet error = %v, want %v", err, tc.want)
			}
			if !strings.Contains(err.Error(), "remote detail") {
				t.Fatalf("error %q does not carry the remote detail", err)
			}
		})
	}
}

func TestRetryOnServiceUnavailable(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/sessions/{session}/time", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			writeAPIError(w, http.StatusServiceUnavailable, "overloaded", "try again")
			return
		}
		writeJSON(w, map[string]float64{"time": 42.5})
	})
	_, creds := newTestService(t, mux)

	ctx := context.Background()
	sim, err := New(ctx, creds, WithMaxRetries(4))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	got, err := sim.Time(ctx)
	if err != nil {
		t.Fatalf("Time error: %v", err)
	}
	if got != 42.5 {
		t.Fatalf("Time = %g, want 42.5", got)
	}
	if calls.Load() != 3 {
		t.Fatalf("server saw %d calls, want 3", calls.Load())
	}
}

func TestCreateIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/sessions/{session}/objects", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeAPIError(w, http.StatusServiceUnavailable, "overloaded", "try again")
	})
	_, creds := newTestService(t, mux)

	ctx := context.Background()
	sim, err := New(ctx, creds, WithMaxRetries(4))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if _, err := sim.AddObject(ctx, Spacecraft, nil); !errors.Is(err, ErrServerFault) {
		t.Fatalf("AddObject error = %v, want %v", err, ErrServerFault)
	}
	if calls.Load() != 1 {
		t.Fatalf("server saw %d calls, want 1 (creates are attempted once)", calls.Load())
	}
}

func TestGetSystemRetriesOnUpstreamFault(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/sessions/{session}/systems", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			writeAPIError(w, http.StatusBadGateway, "upstream", "bad gateway")
			return
		}
		writeJSON(w, map[string]string{"id": uuid.NewString()})
	})
	_, creds := newTestService(t, mux)

	ctx := context.Background()
	sim, err := New(ctx, creds, WithMaxRetries(4))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if _, err := sim.GetSystem(ctx, SolarSystem, nil); err != nil {
		t.Fatalf("GetSystem error: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("server saw %d calls, want 2 (singleton fetch is safe to repeat)", calls.Load())
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/sessions/{session}/time", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeAPIError(w, http.StatusBadRequest, "invalid", "bad request")
	})
	_, creds := newTestService(t, mux)

	ctx := context.Background()
	sim, err := New(ctx, creds, WithMaxRetries(4))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if _, err := sim.Time(ctx); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("Time error = %v, want %v", err, ErrInvalidRequest)
	}
	if calls.Load() != 1 {
		t.Fatalf("server saw %d calls, want 1 (client errors are final)", calls.Load())
	}
}

func TestTickPollsJobUntilComplete(t *testing.T) {
	jobID := uuid.New()
	var polls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/sessions/{session}/tick", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Duration float64 `json:"duration"`
			Step     float64 `json:"step"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Duration != 100 || req.Step != 0.1 {
			t.Errorf("tick request = %+v, want duration 100 step 0.1", req)
		}
		writeJSON(w, map[string]string{"job": jobID.String()})
	})
	mux.HandleFunc("GET /v1/sessions/{session}/jobs/{job}", func(w http.ResponseWriter, r *http.Request) {
		state := "running"
		if polls.Add(1) >= 3 {
			state = "complete"
		}
		writeJSON(w, map[string]string{"state": state})
	})
	_, creds := newTestService(t, mux)

	ctx := context.Background()
	sim, err := New(ctx, creds)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := sim.TickDuration(ctx, 100, 0.1); err != nil {
		t.Fatalf("TickDuration error: %v", err)
	}
	if polls.Load() < 3 {
		t.Fatalf("job polled %d times, want at least 3", polls.Load())
	}
}

func TestTickJobFailureSurfacesError(t *testing.T) {
	jobID := uuid.New()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/sessions/{session}/tick", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"job": jobID.String()})
	})
	mux.HandleFunc("GET /v1/sessions/{session}/jobs/{job}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"state": "failed", "error": "propagator diverged"})
	})
	_, creds := newTestService(t, mux)

	ctx := context.Background()
	sim, err := New(ctx, creds)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	err = sim.TickDuration(ctx, 10, 1)
	if err == nil || !strings.Contains(err.Error(), "propagator diverged") {
		t.Fatalf("TickDuration error = %v, want job failure detail", err)
	}
}

func TestTickDurationValidation(t *testing.T) {
	sim := &Simulation{id: testSessionID}
	if err := sim.TickDuration(context.Background(), 10, 0); err == nil {
		t.Fatalf("expected error for zero step")
	}
	if err := sim.TickDuration(context.Background(), 0.5, 1); err == nil {
		t.Fatalf("expected error for duration shorter than step")
	}
}

func TestQueryDataFrame(t *testing.T) {
	messageID := uuid.New()
	objectID := uuid.New()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/sessions/{session}/objects", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"id": objectID.String()})
	})
	mux.HandleFunc("GET /v1/sessions/{session}/objects/{object}/messages/{name}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"id": messageID.String()})
	})
	mux.HandleFunc("GET /v1/sessions/{session}/query/{target}", func(w http.ResponseWriter, r *http.Request) {
		if got := r.PathValue("target"); got != messageID.String() {
			t.Errorf("query target = %s, want %s", got, messageID)
		}
		writeJSON(w, map[string]any{
			"columns": []string{"Time", "Sigma_BR_0", "Sigma_BR_1"},
			"records": []map[string]float64{
				{"Time": 0, "Sigma_BR_0": 0.1, "Sigma_BR_1": -0.2},
				{"Time": 5, "Sigma_BR_0": 0.05, "Sigma_BR_1": -0.1},
			},
		})
	})
	_, creds := newTestService(t, mux)

	ctx := context.Background()
	sim, err := New(ctx, creds)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	obj, err := sim.AddObject(ctx, Spacecraft, nil)
	if err != nil {
		t.Fatalf("AddObject error: %v", err)
	}
	msg, err := obj.GetMessage(ctx, "Out_AttitudeErrorMsg")
	if err != nil {
		t.Fatalf("GetMessage error: %v", err)
	}

	df, err := sim.QueryDataFrame(ctx, msg)
	if err != nil {
		t.Fatalf("QueryDataFrame error: %v", err)
	}
	if df.Len() != 2 {
		t.Fatalf("frame length = %d, want 2", df.Len())
	}
	if got := df.Column("Sigma_BR_0")[1]; got != 0.05 {
		t.Fatalf("Sigma_BR_0[1] = %g, want 0.05", got)
	}
	if got := df.Times()[1]; got != 5 {
		t.Fatalf("Times[1] = %g, want 5", got)
	}
}

func TestCaptureImageWritesFile(t *testing.T) {
	objectID := uuid.New()
	png := []byte("\x89PNG\r\n\x1a\nfake")

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/sessions/{session}/objects", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"id": objectID.String()})
	})
	mux.HandleFunc("GET /v1/sessions/{session}/capture", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("spacecraft") != objectID.String() {
			t.Errorf("capture spacecraft = %s, want %s", q.Get("spacecraft"), objectID)
		}
		if q.Get("fov") != "70" {
			t.Errorf("capture fov = %s, want 70", q.Get("fov"))
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	})
	_, creds := newTestService(t, mux)

	ctx := context.Background()
	sim, err := New(ctx, creds)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	obj, err := sim.AddObject(ctx, Spacecraft, nil)
	if err != nil {
		t.Fatalf("AddObject error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "captures", "view.png")
	if err := sim.CaptureImage(ctx, path, obj, CaptureOptions{FOV: 70, Exposure: 1}); err != nil {
		t.Fatalf("CaptureImage error: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read capture: %v", err)
	}
	if string(got) != string(png) {
		t.Fatalf("capture bytes mismatch")
	}
}

func TestCaptureVisualiserUnavailableIsNotRetried(t *testing.T) {
	objectID := uuid.New()
	var calls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/sessions/{session}/objects", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"id": objectID.String()})
	})
	mux.HandleFunc("GET /v1/sessions/{session}/capture", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeAPIError(w, http.StatusServiceUnavailable, "visualiser_unavailable", "no visualiser attached")
	})
	_, creds := newTestService(t, mux)

	ctx := context.Background()
	sim, err := New(ctx, creds, WithMaxRetries(4))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	obj, err := sim.AddObject(ctx, Spacecraft, nil)
	if err != nil {
		t.Fatalf("AddObject error: %v", err)
	}

	err = sim.CaptureImage(ctx, filepath.Join(t.TempDir(), "view.png"), obj, CaptureOptions{FOV: 70})
	if !errors.Is(err, ErrVisualiserUnavailable) {
		t.Fatalf("CaptureImage error = %v, want %v", err, ErrVisualiserUnavailable)
	}
	if calls.Load() != 1 {
		t.Fatalf("server saw %d capture calls, want 1", calls.Load())
	}
}

func TestTrackObjectRejectsForeignHandles(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /v1/sessions/{session}/tracking/interval", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	_, creds := newTestService(t, mux)

	ctx := context.Background()
	sim, err := New(ctx, creds)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	other, err := New(ctx, creds)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	foreign := other.MessageByID(uuid.New())
	if err := sim.TrackObject(ctx, foreign); !errors.Is(err, ErrSessionMismatch) {
		t.Fatalf("TrackObject error = %v, want %v", err, ErrSessionMismatch)
	}
	if _, err := sim.QueryDataFrame(ctx, foreign); !errors.Is(err, ErrSessionMismatch) {
		t.Fatalf("QueryDataFrame error = %v, want %v", err, ErrSessionMismatch)
	}
}

func TestSetAndGetProperty(t *testing.T) {
	objectID := uuid.New()
	stored := map[string]any{}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/sessions/{session}/objects", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"id": objectID.String()})
	})
	mux.HandleFunc("PATCH /v1/sessions/{session}/objects/{object}", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Properties map[string]any `json:"properties"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		for k, v := range req.Properties {
			stored[k] = v
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /v1/sessions/{session}/objects/{object}/properties/{name}", func(w http.ResponseWriter, r *http.Request) {
		v, ok := stored[r.PathValue("name")]
		if !ok {
			writeAPIError(w, http.StatusNotFound, "not_found", "no such property")
			return
		}
		writeJSON(w, map[string]any{"value": v})
	})
	_, creds := newTestService(t, mux)

	ctx := context.Background()
	sim, err := New(ctx, creds)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	obj, err := sim.AddObject(ctx, Spacecraft, nil)
	if err != nil {
		t.Fatalf("AddObject error: %v", err)
	}

	if err := obj.Set(ctx, Props{"ChargeFraction": 0.2}); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	var got float64
	if err := obj.Get(ctx, "ChargeFraction", &got); err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got != 0.2 {
		t.Fatalf("ChargeFraction = %g, want 0.2", got)
	}
	if err := obj.Get(ctx, "Missing", &got); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing property error = %v, want %v", err, ErrNotFound)
	}
}

func TestCredentialsValidate(t *testing.T) {
	cases := []struct {
		name  string
		creds Credentials
		ok    bool
	}{
		{"local without key", Credentials{URL: "http://localhost", Port: 5001}, true},
		{"remote with key", Credentials{URL: "https://api.example.com", Key: "k"}, true},
		{"remote without key", Credentials{URL: "https://api.example.com"}, false},
		{"missing url", Credentials{}, false},
		{"missing scheme", Credentials{URL: "api.example.com", Key: "k"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.creds.Validate()
			if tc.ok && err != nil {
				t.Fatalf("Validate error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected validation failure")
			}
		})
	}
}

func TestCredentialsBaseURL(t *testing.T) {
	c := Credentials{URL: "http://localhost/", Port: 5001}
	if got := c.BaseURL(); got != "http://localhost:5001" {
		t.Fatalf("BaseURL = %q, want http://localhost:5001", got)
	}
	c = Credentials{URL: "https://api.example.com"}
	if got := c.BaseURL(); got != "https://api.example.com" {
		t.Fatalf("BaseURL = %q, want no port suffix", got)
	}
}

func TestLoadCredentialsFromEnv(t *testing.T) {
	t.Setenv("MISSION_API_URL", "https://api.example.com")
	t.Setenv("MISSION_API_PORT", "0")
	t.Setenv("MISSION_API_KEY", "env-key")

	creds, err := LoadCredentials()
	if err != nil {
		t.Fatalf("LoadCredentials error: %v", err)
	}
	if creds.URL != "https://api.example.com" {
		t.Fatalf("URL = %q, want env override", creds.URL)
	}
	if creds.Key != "env-key" {
		t.Fatalf("Key = %q, want env-key", creds.Key)
	}
	if got := creds.BaseURL(); got != "https://api.example.com" {
		t.Fatalf("BaseURL = %q", got)
	}
}

func TestConcurrentSessionsAreIsolated(t *testing.T) {
	var sessions atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := sessions.Add(1)
		writeJSON(w, map[string]string{"id": fmt.Sprintf("00000000-0000-0000-0000-%012d", n)})
	}))
	defer srv.Close()

	ctx := context.Background()
	a, err := New(ctx, Credentials{URL: srv.URL})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	b, err := New(ctx, Credentials{URL: srv.URL})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if a.ID() == b.ID() {
		t.Fatalf("both sessions share ID %s", a.ID())
	}
}
