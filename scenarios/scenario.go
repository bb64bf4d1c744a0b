// Package scenarios contains the mission simulation scenarios. Each scenario
// builds a spacecraft configuration against a running simulation session,
// advances the session and renders the returned telemetry as PNG plots.
package scenarios

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/signalsfoundry/mission-scenarios/internal/logging"
	"github.com/signalsfoundry/mission-scenarios/simapi"
)

// Env carries the shared dependencies a scenario runs with.
type Env struct {
	Creds  simapi.Credentials
	Log    logging.Logger
	OutDir string
	Params Params

	// Options are passed through to every simulation session the
	// scenario opens, carrying metrics and logging into the client.
	Options []simapi.Option
}

// NewSession opens a fresh simulation session for the scenario.
func (e *Env) NewSession(ctx context.Context) (*simapi.Simulation, error) {
	opts := append([]simapi.Option{simapi.WithLogger(e.Log)}, e.Options...)
	return simapi.New(ctx, e.Creds, opts...)
}

// PlotPath returns the output path for a named plot file.
func (e *Env) PlotPath(name string) string {
	return filepath.Join(e.OutDir, name)
}

// Scenario is a runnable mission simulation.
type Scenario interface {
	Name() string
	Description() string
	Run(ctx context.Context, env *Env) error
}

var (
	registryMu sync.Mutex
	registry   = map[string]Scenario{}
)

// Register adds a scenario to the global registry. It panics on duplicate
// names, which indicates a programming error in scenario setup.
func Register(s Scenario) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[s.Name()]; ok {
		panic(fmt.Sprintf("scenarios: duplicate scenario %q", s.Name()))
	}
	registry[s.Name()] = s
}

// Lookup returns a registered scenario by name.
func Lookup(name string) (Scenario, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	s, ok := registry[name]
	return s, ok
}

// Names lists the registered scenario names in sorted order.
func Names() []string {
	registryMu.Lock()
	defer registryMu.Unlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
