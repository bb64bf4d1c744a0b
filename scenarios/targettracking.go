package scenarios

import (
	"context"
	"image/color"
	"math"

	"github.com/signalsfoundry/mission-scenarios/astro"
	"github.com/signalsfoundry/mission-scenarios/simapi"
	"github.com/signalsfoundry/mission-scenarios/telemetry"
)

func init() { Register(targetTracking{}) }

// noSignal is the sentinel the RADAR reports when the target is outside
// its beam.
const noSignal = -1000.0

// targetTracking points a chaser spacecraft at a tumbling target using a
// relative pointing chain and observes it with a RADAR and an
// electromagnetic sensor.
type targetTracking struct{}

func (targetTracking) Name() string { return "target-tracking" }

func (targetTracking) Description() string {
	return "RADAR and electromagnetic tracking of a tumbling target spacecraft"
}

func (targetTracking) Run(ctx context.Context, env *Env) error {
	sim, err := env.NewSession(ctx)
	if err != nil {
		return err
	}
	if _, err := sim.GetSystem(ctx, simapi.SolarSystem, simapi.Props{
		"Epoch": epochUTC(2024, 1, 1, 4, 55, 0),
	}); err != nil {
		return err
	}

	chaser, err := sim.AddObject(ctx, simapi.Spacecraft, simapi.Props{
		"TotalMass":               750,
		"TotalMomentOfInertiaB_B": astro.Diag(900, 800, 600).Rows(),
	})
	if err != nil {
		return err
	}
	if _, err := chaser.Invoke(ctx, "SetClassicElements",
		7000000.0, 0.0, 15.0*astro.D2R, 0.0, 0.0, 180.0*astro.D2R, "earth"); err != nil {
		return err
	}

	target, err := sim.AddObject(ctx, simapi.Spacecraft, simapi.Props{
		"AttitudeRate": []float64{0.01, 0.02, -0.03},
	})
	if err != nil {
		return err
	}
	if _, err := target.Invoke(ctx, "SetClassicElements",
		7200000.0, 0.0, -60.0*astro.D2R, 180.0*astro.D2R, 0.0, 330.0*astro.D2R, "earth"); err != nil {
		return err
	}

	computer, err := chaser.AddChild(ctx, "Computer", nil)
	if err != nil {
		return err
	}
	chaserStateMsg, err := chaser.GetMessage(ctx, "Out_SpacecraftStateMsg")
	if err != nil {
		return err
	}
	targetStateMsg, err := target.GetMessage(ctx, "Out_SpacecraftStateMsg")
	if err != nil {
		return err
	}
	navChaser, err := computer.AddBehaviour(ctx, "SimpleNavigationSoftware", simapi.Props{
		"In_SpacecraftStateMsg": chaserStateMsg,
	})
	if err != nil {
		return err
	}
	navTarget, err := computer.AddBehaviour(ctx, "SimpleNavigationSoftware", simapi.Props{
		"In_SpacecraftStateMsg": targetStateMsg,
	})
	if err != nil {
		return err
	}

	chaserTransMsg, err := navChaser.GetMessage(ctx, "Out_NavigationTranslationMsg")
	if err != nil {
		return err
	}
	targetTransMsg, err := navTarget.GetMessage(ctx, "Out_NavigationTranslationMsg")
	if err != nil {
		return err
	}
	relativePointing, err := computer.AddBehaviour(ctx, "RelativePointingSoftware", simapi.Props{
		"In_NavigationTranslationMsg": chaserTransMsg,
		"In_TargetTranslationMsg":     targetTransMsg,
	})
	if err != nil {
		return err
	}

	navAttMsg, err := navChaser.GetMessage(ctx, "Out_NavigationAttitudeMsg")
	if err != nil {
		return err
	}
	refMsg, err := relativePointing.GetMessage(ctx, "Out_AttitudeReferenceMsg")
	if err != nil {
		return err
	}
	trackingError, err := computer.AddBehaviour(ctx, "AttitudeReferenceErrorSoftware", simapi.Props{
		"In_NavigationAttitudeMsg": navAttMsg,
		"In_AttitudeReferenceMsg":  refMsg,
	})
	if err != nil {
		return err
	}
	errMsg, err := trackingError.GetMessage(ctx, "Out_AttitudeErrorMsg")
	if err != nil {
		return err
	}
	controller, err := computer.AddBehaviour(ctx, "MRPFeedbackControlSoftware", simapi.Props{
		"K":                   3.5,
		"P":                   30.0,
		"Ki":                  -1.0,
		"IntegralLimit":       2.0 / -1.0 * 0.1,
		"In_AttitudeErrorMsg": errMsg,
	})
	if err != nil {
		return err
	}
	torqueMsg, err := controller.GetMessage(ctx, "Out_CommandTorqueMsg")
	if err != nil {
		return err
	}
	if _, err := computer.AddChild(ctx, "ExternalForceTorque", simapi.Props{
		"In_CommandTorqueMsg": torqueMsg,
	}); err != nil {
		return err
	}

	radar, err := chaser.AddChild(ctx, "RADAR", simapi.Props{
		"FOV":                10.0,
		"Power":              1000.0,
		"Gain":               70.0,
		"Wavelength":         0.03,
		"Bandwidth":          1.0e6,
		"Temperature":        290.0,
		"DetectionThreshold": 13.0,
		"DistanceNoise":      0.02,
		"CaptureOnTick":      true,
	})
	if err != nil {
		return err
	}
	if _, err := radar.Invoke(ctx, "AddTarget", target, 1.0); err != nil {
		return err
	}

	emSensor, err := chaser.AddChild(ctx, "ElectromagneticSensor", nil)
	if err != nil {
		return err
	}
	if _, err := target.GetModel(ctx, "ElectromagneticModel", simapi.Props{
		"OmnidirectionalGain": 150.0,
		"Frequency":           1.0e7,
	}); err != nil {
		return err
	}

	radarMsg, err := radar.GetMessage(ctx, "Out_RADARDataMsg")
	if err != nil {
		return err
	}
	emMsg, err := emSensor.GetMessage(ctx, "Out_ElectromagneticDataMsg")
	if err != nil {
		return err
	}
	if err := sim.SetTrackingInterval(ctx, 5.0); err != nil {
		return err
	}
	for _, tracked := range []simapi.Trackable{errMsg, radarMsg, emMsg} {
		if err := sim.TrackObject(ctx, tracked); err != nil {
			return err
		}
	}

	if err := sim.TickDuration(ctx, 1200, 1.0); err != nil {
		return err
	}

	errFrame, err := sim.QueryDataFrame(ctx, errMsg)
	if err != nil {
		return err
	}
	radarFrame, err := sim.QueryDataFrame(ctx, radarMsg)
	if err != nil {
		return err
	}
	emFrame, err := sim.QueryDataFrame(ctx, emMsg)
	if err != nil {
		return err
	}

	valid := radarFrame.Filter(func(row map[string]float64) bool {
		return row["SignalToNoise"] != noSignal
	})
	blind := spansWhere(radarFrame, "SignalToNoise",
		func(v float64) bool { return math.Abs(v-noSignal) < 1e-9 },
		color.NRGBA{R: 255, A: 70})

	return telemetry.SaveGrid(env.PlotPath("target_tracking.png"), 2, 2, []telemetry.Panel{
		{
			Title:  "RADAR Signal to Noise",
			XLabel: "Time [s]",
			YLabel: "S/N [dB]",
			Series: []telemetry.Series{telemetry.SeriesFromFrame(valid, "SignalToNoise", "S/N")},
			Spans:  blind,
		},
		{
			Title:  "RADAR Distance",
			XLabel: "Time [s]",
			YLabel: "Distance [m]",
			Series: []telemetry.Series{telemetry.SeriesFromFrame(valid, "SignalDistance", "Distance [m]")},
			Spans:  blind,
		},
		attitudeErrorPanel(errFrame, "Attitude Error"),
		{
			Title:  "Electromagnetic Gain",
			XLabel: "Time [s]",
			YLabel: "Gain [dB]",
			Series: []telemetry.Series{telemetry.SeriesFromFrame(emFrame, "Gain", "Gain [dB]")},
		},
	})
}
