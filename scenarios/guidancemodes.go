package scenarios

import (
	"context"
	"image/color"

	"github.com/signalsfoundry/mission-scenarios/astro"
	"github.com/signalsfoundry/mission-scenarios/internal/logging"
	"github.com/signalsfoundry/mission-scenarios/simapi"
	"github.com/signalsfoundry/mission-scenarios/telemetry"
)

func init() { Register(guidanceModes{}) }

// guidanceModes drives the guidance computer through its pointing modes by
// rewriting a shared command message mid-run. The spacecraft slews between
// inertial hold, sun pointing, velocity pointing and nadir pointing, each
// aligning a different component.
type guidanceModes struct{}

func (guidanceModes) Name() string { return "guidance-modes" }

func (guidanceModes) Description() string {
	return "Switching guidance computer pointing modes through a command message"
}

func (guidanceModes) Run(ctx context.Context, env *Env) error {
	sim, err := env.NewSession(ctx)
	if err != nil {
		return err
	}
	if _, err := sim.GetSystem(ctx, simapi.Universe, simapi.Props{
		"Epoch": epochUTC(2024, 1, 1, 0, 0, 0),
	}); err != nil {
		return err
	}

	r, v, err := astro.ClassicalToStateVectorDeg(6661000, 0.0001, 33.3, 48.2, 347.8, 155.3)
	if err != nil {
		return err
	}
	spacecraft, err := sim.AddObject(ctx, simapi.Spacecraft, simapi.Props{
		"TotalMass":               750.0,
		"TotalCenterOfMassB_B":    astro.Vec3{}.Slice(),
		"TotalMomentOfInertiaB_B": astro.Diag(900, 800, 600).Rows(),
		"Position":                r.Slice(),
		"Velocity":                v.Slice(),
		"AttitudeRate":            astro.Vec3{}.Slice(),
	})
	if err != nil {
		return err
	}
	wheels, err := addWheelTriad(ctx, spacecraft)
	if err != nil {
		return err
	}

	panel, err := spacecraft.AddChild(ctx, "SolarPanel", simapi.Props{
		"Efficiency": 0.2,
		"Area":       0.06,
	})
	if err != nil {
		return err
	}
	if _, err := panel.Invoke(ctx, "RollDegrees", 90.0); err != nil {
		return err
	}
	thruster, err := spacecraft.AddChild(ctx, "Thruster", nil)
	if err != nil {
		return err
	}
	if _, err := thruster.Invoke(ctx, "PitchDegrees", 180.0); err != nil {
		return err
	}
	camera, err := spacecraft.AddChild(ctx, "Camera", nil)
	if err != nil {
		return err
	}
	if _, err := camera.Invoke(ctx, "PitchDegrees", 90.0); err != nil {
		return err
	}

	computer, err := spacecraft.AddChild(ctx, "GuidanceComputer", nil)
	if err != nil {
		return err
	}
	commandMsg, err := sim.CreateMessage(ctx, "SoftwareChainMessage", simapi.Props{
		"PointingMode":   "INERTIAL_POINTING",
		"ControllerMode": "MRP",
		"MappingMode":    "REACTION_WHEELS",
	})
	if err != nil {
		return err
	}
	if err := computer.Set(ctx, simapi.Props{"In_SoftwareChainMsg": commandMsg}); err != nil {
		return err
	}
	if _, err := computer.Invoke(ctx, "ConfigureMRPController",
		3.5, 30.0, -1.0, -20.0, astro.Vec3{}.Slice()); err != nil {
		return err
	}

	stateMsg, err := spacecraft.GetMessage(ctx, "Out_SpacecraftStateMsg")
	if err != nil {
		return err
	}
	powerMsg, err := panel.GetMessage(ctx, "Out_PowerMsg")
	if err != nil {
		return err
	}
	speedMsg, err := wheels.GetMessage(ctx, "Out_RWArraySpeedMsg")
	if err != nil {
		return err
	}
	if err := sim.SetTrackingInterval(ctx, 5.0); err != nil {
		return err
	}
	for _, tracked := range []simapi.Trackable{stateMsg, powerMsg, speedMsg} {
		if err := sim.TrackObject(ctx, tracked); err != nil {
			return err
		}
	}

	modes := []struct {
		name     string
		duration float64
	}{
		{"INERTIAL_POINTING", 100},
		{"SUN_POINTING", 300},
		{"VELOCITY_POINTING", 300},
		{"NADIR_POINTING", 300},
	}
	for i, mode := range modes {
		if i > 0 {
			if err := commandMsg.Set(ctx, simapi.Props{"PointingMode": mode.name}); err != nil {
				return err
			}
		}
		env.Log.Info(ctx, "pointing mode set", logging.String("mode", mode.name))
		if err := sim.TickDuration(ctx, mode.duration, 0.1); err != nil {
			return err
		}
	}

	stateFrame, err := sim.QueryDataFrame(ctx, stateMsg)
	if err != nil {
		return err
	}
	powerFrame, err := sim.QueryDataFrame(ctx, powerMsg)
	if err != nil {
		return err
	}
	rwFrame, err := sim.QueryDataFrame(ctx, speedMsg)
	if err != nil {
		return err
	}

	attitudePanel := telemetry.Panel{
		Title:  "Current Attitude",
		XLabel: "Time [s]",
		YLabel: "Sigma [MRP]",
		Series: telemetry.VectorSeries(stateFrame, "Sigma_BN"),
		Spans: []telemetry.Span{
			{From: 0, To: 100, Color: color.NRGBA{R: 128, G: 128, B: 128, A: 40}},
			{From: 100, To: 400, Color: color.NRGBA{R: 255, G: 230, A: 40}},
			{From: 400, To: 700, Color: color.NRGBA{G: 160, A: 40}},
			{From: 700, To: 1000, Color: color.NRGBA{G: 200, B: 220, A: 40}},
		},
	}

	return telemetry.SaveGrid(env.PlotPath("guidance_modes.png"), 2, 2, []telemetry.Panel{
		attitudePanel,
		{
			Title:  "Solar Panel Power",
			XLabel: "Time [s]",
			YLabel: "Power [W]",
			Series: []telemetry.Series{telemetry.SeriesFromFrame(powerFrame, "Power", "")},
		},
		wheelSpeedPanel(rwFrame, 3),
	})
}
