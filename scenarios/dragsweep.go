package scenarios

import (
	"context"
	"fmt"

	"github.com/signalsfoundry/mission-scenarios/astro"
	"github.com/signalsfoundry/mission-scenarios/internal/logging"
	"github.com/signalsfoundry/mission-scenarios/simapi"
	"github.com/signalsfoundry/mission-scenarios/telemetry"
)

func init() { Register(dragSweep{}) }

// dragSweep is a sensitivity analysis over the projected drag area of a
// spacecraft in low orbit. Each case runs in its own simulation session so
// the cases stay independent, and the resulting decay trajectories are
// plotted side by side.
type dragSweep struct{}

func (dragSweep) Name() string { return "drag-sweep" }

func (dragSweep) Description() string {
	return "Sensitivity sweep of atmospheric drag area against orbit decay"
}

func (dragSweep) Run(ctx context.Context, env *Env) error {
	areas := []float64{0, 100, 200, 300, 400}
	duration := env.Params.Float("duration", 4500)

	frames := make([]*telemetry.DataFrame, 0, len(areas))
	for _, area := range areas {
		frame, err := runDragCase(ctx, env, area, duration)
		if err != nil {
			return fmt.Errorf("drag case %g m^2: %w", area, err)
		}
		frames = append(frames, frame)
	}

	position := telemetry.Panel{
		Title:  "Position over Time",
		XLabel: "X Position [m]",
		YLabel: "Y Position [m]",
	}
	altitude := telemetry.Panel{
		Title:  "Altitude over Time",
		XLabel: "Time [s]",
		YLabel: "Altitude [m]",
	}
	for i, frame := range frames {
		label := fmt.Sprintf("%g m^2", areas[i])
		position.Series = append(position.Series, telemetry.Series{
			Name:    label,
			X:       frame.Column("Position_BN_N_0"),
			Y:       frame.Column("Position_BN_N_1"),
			Scatter: true,
		})

		radius := frame.Norm("Position_BN_N_0", "Position_BN_N_1", "Position_BN_N_2")
		height := make([]float64, len(radius))
		for j, r := range radius {
			height[j] = r - astro.EarthREq
		}
		altitude.Series = append(altitude.Series, telemetry.Series{
			Name: label + " Drag Area",
			X:    frame.Times(),
			Y:    height,
		})
	}

	return telemetry.SaveGrid(env.PlotPath("drag_sweep.png"), 1, 2, []telemetry.Panel{position, altitude})
}

func runDragCase(ctx context.Context, env *Env, area, duration float64) (*telemetry.DataFrame, error) {
	sim, err := env.NewSession(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := sim.GetSystem(ctx, simapi.Universe, simapi.Props{
		"Epoch": epochUTC(2022, 1, 1, 0, 0, 0),
	}); err != nil {
		return nil, err
	}

	spacecraft, err := sim.AddObject(ctx, simapi.Spacecraft, simapi.Props{
		"TotalMass": 10.0,
		"Position":  []float64{0.0, -6578140.0, 0.0},
		"Velocity":  []float64{7784.2605, 0.0, 0.0},
	})
	if err != nil {
		return nil, err
	}
	if _, err := spacecraft.AddChild(ctx, "DragEffector", simapi.Props{
		"ProjectedArea":   area,
		"DragCoefficient": 2.2,
	}); err != nil {
		return nil, err
	}

	stateMsg, err := spacecraft.GetMessage(ctx, "Out_SpacecraftStateMsg")
	if err != nil {
		return nil, err
	}
	if err := sim.SetTrackingInterval(ctx, 30.0); err != nil {
		return nil, err
	}
	if err := sim.TrackObject(ctx, stateMsg); err != nil {
		return nil, err
	}

	env.Log.Info(ctx, "running drag case", logging.Float64("projected_area", area))
	if err := sim.TickDuration(ctx, duration, 3.0); err != nil {
		return nil, err
	}
	return sim.QueryDataFrame(ctx, stateMsg)
}
