package scenarios

import (
	"context"
	"image/color"

	"github.com/signalsfoundry/mission-scenarios/astro"
	"github.com/signalsfoundry/mission-scenarios/simapi"
	"github.com/signalsfoundry/mission-scenarios/telemetry"
)

func init() { Register(linkBudget{}) }

// linkBudget flies a spacecraft transmitter past a ground station receiver
// and charts the resulting signal-to-noise ratio, access geometry and
// delta-velocity of the pass.
type linkBudget struct{}

func (linkBudget) Name() string { return "link-budget" }

func (linkBudget) Description() string {
	return "Ground station pass with SNR, access windows and link telemetry"
}

func (linkBudget) Run(ctx context.Context, env *Env) error {
	sim, err := env.NewSession(ctx)
	if err != nil {
		return err
	}
	if _, err := sim.GetSystem(ctx, simapi.SolarSystem, simapi.Props{
		"Epoch": epochUTC(2022, 1, 1, 0, 0, 0),
	}); err != nil {
		return err
	}

	r, v, err := astro.ClassicalToStateVectorDeg(8000e3, 0.1, 25, -90, 0.0, -35)
	if err != nil {
		return err
	}
	spacecraft, err := sim.AddObject(ctx, simapi.Spacecraft, simapi.Props{
		"TotalMass":               750.0,
		"TotalCenterOfMassB_B":    astro.Vec3{}.Slice(),
		"TotalMomentOfInertiaB_B": astro.Diag(900, 800, 600).Rows(),
		"Position":                r.Slice(),
		"Velocity":                v.Slice(),
		"Attitude":                []float64{0.1, 0.2, -0.3},
		"AttitudeRate":            []float64{0.001, -0.001, 0.001},
	})
	if err != nil {
		return err
	}

	groundStation, err := sim.AddObject(ctx, simapi.GroundStation, simapi.Props{
		"Latitude":         -10.0,
		"Longitude":        170.0,
		"Altitude":         0.0,
		"MinimumElevation": 5.0,
		"MaximumRange":     2500000,
	})
	if err != nil {
		return err
	}
	receiver, err := groundStation.AddChild(ctx, "Receiver", simapi.Props{
		"Frequency": 1000e6,
		"Bandwidth": 10e6,
	})
	if err != nil {
		return err
	}

	wheels, err := addWheelTriad(ctx, spacecraft)
	if err != nil {
		return err
	}
	transmitter, err := spacecraft.AddChild(ctx, "Transmitter", simapi.Props{
		"Frequency":  1000e6,
		"BitRate":    16000,
		"Power":      45,
		"PacketSize": astro.KilobytesToBits(1),
	})
	if err != nil {
		return err
	}

	powerBus, err := spacecraft.AddChild(ctx, "PowerBus", nil)
	if err != nil {
		return err
	}
	battery, err := spacecraft.AddChild(ctx, "Battery", simapi.Props{
		"NominalCapacity": 1.0,
		"NominalVoltage":  12,
		"ChargeFraction":  0.1,
	})
	if err != nil {
		return err
	}
	if _, err := powerBus.Invoke(ctx, "Connect", battery, transmitter); err != nil {
		return err
	}
	if _, err := transmitter.GetModel(ctx, "TransmitterPowerModel", nil); err != nil {
		return err
	}

	if _, err := spacecraft.AddChild(ctx, "GuidanceComputer", simapi.Props{
		"PointingMode":   "Nadir",
		"ControllerMode": "MRP",
	}); err != nil {
		return err
	}
	if _, err := spacecraft.AddBehaviour(ctx, "SimpleNavigationSoftware", nil); err != nil {
		return err
	}

	accessVal, err := groundStation.Invoke(ctx, "TrackObject", spacecraft)
	if err != nil {
		return err
	}
	accessID, err := accessVal.AsID()
	if err != nil {
		return err
	}
	accessMsg := sim.MessageByID(accessID)

	telemetrySystem, err := sim.GetSystem(ctx, simapi.TelemetrySystem, nil)
	if err != nil {
		return err
	}
	linkVal, err := telemetrySystem.Invoke(ctx, "GetLinkMessage", receiver, transmitter)
	if err != nil {
		return err
	}
	linkID, err := linkVal.AsID()
	if err != nil {
		return err
	}
	linkMsg := sim.MessageByID(linkID)

	speedMsg, err := wheels.GetMessage(ctx, "Out_RWArraySpeedMsg")
	if err != nil {
		return err
	}
	for _, tracked := range []simapi.Trackable{accessMsg, speedMsg, linkMsg} {
		if err := sim.TrackObject(ctx, tracked); err != nil {
			return err
		}
	}

	if err := sim.TickDuration(ctx, 1250, 0.1); err != nil {
		return err
	}

	linkFrame, err := sim.QueryDataFrame(ctx, linkMsg)
	if err != nil {
		return err
	}
	accessFrame, err := sim.QueryDataFrame(ctx, accessMsg)
	if err != nil {
		return err
	}
	rwFrame, err := sim.QueryDataFrame(ctx, speedMsg)
	if err != nil {
		return err
	}

	accessible := spansWhere(accessFrame, "IsAccessible",
		func(v float64) bool { return v > 0 },
		color.NRGBA{G: 160, A: 70})

	return telemetry.SaveGrid(env.PlotPath("link_budget.png"), 2, 2, []telemetry.Panel{
		{
			Title:  "Signal-to-Noise Ratio",
			XLabel: "Time [s]",
			YLabel: "SNR [dB]",
			Series: []telemetry.Series{telemetry.SeriesFromFrame(linkFrame, "SignalToNoise", "SNR")},
		},
		{
			Title:  "Ground Station Access",
			XLabel: "Time [s]",
			YLabel: "Angle [deg]",
			Series: []telemetry.Series{
				telemetry.SeriesFromFrame(accessFrame, "Azimuth", "Azimuth [deg]"),
				telemetry.SeriesFromFrame(accessFrame, "Elevation", "Elevation [deg]"),
			},
			Spans: accessible,
		},
		wheelSpeedPanel(rwFrame, 3),
		{
			Title:  "Delta Velocity",
			XLabel: "Time [s]",
			YLabel: "Velocity [m/s]",
			Series: []telemetry.Series{telemetry.SeriesFromFrame(linkFrame, "DeltaVelocity", "")},
		},
	})
}
