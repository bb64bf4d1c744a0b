package scenarios

import (
	"context"

	"github.com/signalsfoundry/mission-scenarios/astro"
	"github.com/signalsfoundry/mission-scenarios/simapi"
	"github.com/signalsfoundry/mission-scenarios/telemetry"
)

func init() { Register(gimballedAntenna{}) }

// gimballedAntenna mounts a receiver on a gimbal that starts pointed away
// from the ground station transmitter. Partway through the run the gimbal is
// commanded through 90 degrees, closing the link.
type gimballedAntenna struct{}

func (gimballedAntenna) Name() string { return "gimballed-antenna" }

func (gimballedAntenna) Description() string {
	return "Slewing a gimballed receiver onto a ground station transmitter"
}

func (gimballedAntenna) Run(ctx context.Context, env *Env) error {
	const (
		latitude  = 10.0
		longitude = 150.0
	)

	sim, err := env.NewSession(ctx)
	if err != nil {
		return err
	}
	if _, err := sim.GetSystem(ctx, simapi.SolarSystem, simapi.Props{
		"Epoch": epochUTC(2022, 1, 1, 0, 0, 0),
	}); err != nil {
		return err
	}

	groundStation, err := sim.AddObject(ctx, simapi.GroundStation, simapi.Props{
		"MinimumElevation": 0.0,
		"MaximumRange":     100000000,
	})
	if err != nil {
		return err
	}
	if _, err := groundStation.Invoke(ctx, "SetLocation", latitude, longitude, 0.0, "earth"); err != nil {
		return err
	}
	transmitter, err := groundStation.AddChild(ctx, "Transmitter", simapi.Props{
		"Frequency":   100e6,
		"Power":       1,
		"Bandwidth":   1e4,
		"BitRate":     1e9,
		"AntennaGain": 98,
	})
	if err != nil {
		return err
	}

	r, v, err := astro.ClassicalToStateVectorDeg(astro.EarthREq+10000000, 0.0, 0.0, 210, 0.0, 0.0)
	if err != nil {
		return err
	}
	spacecraft, err := sim.AddObject(ctx, simapi.Spacecraft, simapi.Props{
		"TotalMass":               100.0,
		"TotalCenterOfMassB_B":    astro.Vec3{}.Slice(),
		"TotalMomentOfInertiaB_B": astro.Diag(900, 700, 600).Rows(),
		"Position":                r.Slice(),
		"Velocity":                v.Slice(),
		"Attitude":                []float64{0.1, 0.2, -0.3},
		"AttitudeRate":            astro.Vec3{}.Slice(),
		"OverrideMass":            true,
	})
	if err != nil {
		return err
	}
	if _, err := addWheelTriad(ctx, spacecraft); err != nil {
		return err
	}

	computer, err := spacecraft.AddChild(ctx, "GuidanceComputer", simapi.Props{
		"NavigationMode": "Simple",
		"PointingMode":   "Ground",
		"ControllerMode": "MRP",
		"MappingMode":    "ReactionWheels",
	})
	if err != nil {
		return err
	}
	groundMsgVal, err := computer.Invoke(ctx, "GetGroundPointingMessage")
	if err != nil {
		return err
	}
	groundMsgID, err := groundMsgVal.AsID()
	if err != nil {
		return err
	}
	groundMsg := sim.MessageByID(groundMsgID)
	if err := groundMsg.Set(ctx, simapi.Props{
		"Alignment_B": []float64{0, 0, 1},
		"Latitude":    latitude,
		"Longitude":   longitude,
	}); err != nil {
		return err
	}

	gimbalCmdMsg, err := sim.CreateMessage(ctx, "CommandGimbalMessage", nil)
	if err != nil {
		return err
	}
	gimbal, err := spacecraft.AddChild(ctx, "Gimbal", simapi.Props{
		"MinAngle":           0.0,
		"MaxAngle":           180.0,
		"StepAngle":          0.01,
		"DesiredVelocity":    0.5 * astro.D2R,
		"Inertia":            1000,
		"MaxTorque":          10.0,
		"Mass":               10.0,
		"In_CommandGimbalMsg": gimbalCmdMsg,
	})
	if err != nil {
		return err
	}
	if _, err := gimbal.Invoke(ctx, "PitchDegrees", -90.0); err != nil {
		return err
	}

	receiver, err := gimbal.AddChild(ctx, "Receiver", simapi.Props{
		"Frequency":              100e6,
		"Power":                  1e-3,
		"AntennaGain":            10,
		"Bandwidth":              1e3,
		"ThresholdSignalToNoise": 20,
	})
	if err != nil {
		return err
	}
	if _, err := receiver.Invoke(ctx, "RollDegrees", -90.0); err != nil {
		return err
	}
	if _, err := receiver.Invoke(ctx, "ConfigureEMLookupTable", "RFPattern.csv"); err != nil {
		return err
	}

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

	errMsg, err := computer.GetMessage(ctx, "Out_AttitudeErrorMsg")
	if err != nil {
		return err
	}
	statusMsg, err := gimbal.GetMessage(ctx, "Out_GimbalStatusMsg")
	if err != nil {
		return err
	}
	if err := sim.SetTrackingInterval(ctx, 5); err != nil {
		return err
	}
	for _, tracked := range []simapi.Trackable{errMsg, statusMsg, gimbalCmdMsg, linkMsg} {
		if err := sim.TrackObject(ctx, tracked); err != nil {
			return err
		}
	}

	const slewStart = 200.0
	if err := sim.TickDuration(ctx, slewStart, 0.1); err != nil {
		return err
	}
	if err := gimbalCmdMsg.Set(ctx, simapi.Props{"AngleRequest": 90.0}); err != nil {
		return err
	}
	if err := sim.TickDuration(ctx, 720-slewStart, 0.1); err != nil {
		return err
	}

	statusFrame, err := sim.QueryDataFrame(ctx, statusMsg)
	if err != nil {
		return err
	}
	cmdFrame, err := sim.QueryDataFrame(ctx, gimbalCmdMsg)
	if err != nil {
		return err
	}
	errFrame, err := sim.QueryDataFrame(ctx, errMsg)
	if err != nil {
		return err
	}
	linkFrame, err := sim.QueryDataFrame(ctx, linkMsg)
	if err != nil {
		return err
	}

	anglePanel := telemetry.Panel{
		Title:  "Gimbal Angle",
		XLabel: "Time [s]",
		YLabel: "Angle [deg]",
		Series: []telemetry.Series{
			telemetry.SeriesFromFrame(statusFrame, "Angle", "Angle"),
			{
				Name:   "Angle Request",
				X:      cmdFrame.Times(),
				Y:      cmdFrame.Column("AngleRequest"),
				Dashed: true,
			},
		},
	}

	return telemetry.SaveGrid(env.PlotPath("gimballed_antenna.png"), 2, 2, []telemetry.Panel{
		anglePanel,
		{
			Title:  "Gimbal Velocity",
			XLabel: "Time [s]",
			YLabel: "Velocity [rad/s]",
			Series: []telemetry.Series{telemetry.SeriesFromFrame(statusFrame, "Velocity", "")},
		},
		attitudeErrorPanel(errFrame, "Attitude Error"),
		{
			Title:  "Signal-to-Noise Ratio",
			XLabel: "Time [s]",
			YLabel: "SNR [dB]",
			Series: []telemetry.Series{telemetry.SeriesFromFrame(linkFrame, "SignalToNoise", "")},
		},
	})
}
