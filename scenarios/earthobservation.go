package scenarios

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/signalsfoundry/mission-scenarios/astro"
	"github.com/signalsfoundry/mission-scenarios/internal/logging"
	"github.com/signalsfoundry/mission-scenarios/simapi"
	"github.com/signalsfoundry/mission-scenarios/telemetry"
)

func init() { Register(earthObservation{}) }

// earthObservation holds a camera on the Earth through a nadir pointing
// chain and captures imagery through the visualiser at the start and end of
// the run. Image capture degrades to a warning when no visualiser is
// attached to the session.
type earthObservation struct{}

func (earthObservation) Name() string { return "earth-observation" }

func (earthObservation) Description() string {
	return "Nadir pointing with visualiser image capture at varying fields of view"
}

func (earthObservation) Run(ctx context.Context, env *Env) error {
	sim, err := env.NewSession(ctx)
	if err != nil {
		return err
	}

	if token := env.Params.String("cesium_token", ""); token != "" {
		if err := sim.ConfigureVisualiser(ctx, token); err != nil {
			return err
		}
	}

	if _, err := sim.GetSystem(ctx, simapi.Universe, simapi.Props{
		"Epoch": epochUTC(2022, 9, 1, 0, 0, 0),
	}); err != nil {
		return err
	}

	position := []float64{58836722.076589, 269166981.654502, 117536524.015802}
	velocity := []float64{1428.502224, -264.114737, -1574.090242}
	// An observation target ephemeris can be supplied as a TLE instead.
	if line1 := env.Params.String("tle_line1", ""); line1 != "" {
		r, v, err := astro.StateFromTLE(line1, env.Params.String("tle_line2", ""),
			time.Date(2022, 9, 1, 0, 0, 0, 0, time.UTC))
		if err != nil {
			return err
		}
		position, velocity = r.Slice(), v.Slice()
	}

	spacecraft, err := sim.AddObject(ctx, simapi.Spacecraft, simapi.Props{
		"TotalMass":               750.0,
		"TotalCenterOfMassB_B":    astro.Vec3{}.Slice(),
		"TotalMomentOfInertiaB_B": astro.Diag(900, 800, 600).Rows(),
		"Position":                position,
		"Velocity":                velocity,
		"AttitudeRate":            []float64{0.2, 0.1, 0.05},
	})
	if err != nil {
		return err
	}
	wheels, err := addWheelTriad(ctx, spacecraft)
	if err != nil {
		return err
	}

	navigator, err := spacecraft.AddBehaviour(ctx, "SimpleNavigationSoftware", nil)
	if err != nil {
		return err
	}
	ephem, err := spacecraft.AddBehaviour(ctx, "EphemerisNavigationConverterSoftware", nil)
	if err != nil {
		return err
	}
	ephemMsg, err := ephem.GetMessage(ctx, "Out_EphemerisMsg")
	if err != nil {
		return err
	}
	navTransMsg, err := navigator.GetMessage(ctx, "Out_NavigationTranslationMsg")
	if err != nil {
		return err
	}
	nadir, err := spacecraft.AddBehaviour(ctx, "NadirPointingSoftware", simapi.Props{
		"In_EphemerisMsg":             ephemMsg,
		"In_NavigationTranslationMsg": navTransMsg,
	})
	if err != nil {
		return err
	}

	// Offset the reference so the camera boresight, not the body z axis,
	// looks at the ground.
	nadirRefMsg, err := nadir.GetMessage(ctx, "Out_AttitudeReferenceMsg")
	if err != nil {
		return err
	}
	correction, err := spacecraft.AddBehaviour(ctx, "AttitudeReferenceCorrectionSoftware", simapi.Props{
		"In_AttitudeReferenceMsg": nadirRefMsg,
		"Sigma_RcR":               []float64{0, math.Tan(math.Pi / 8), 0},
	})
	if err != nil {
		return err
	}

	navAttMsg, err := navigator.GetMessage(ctx, "Out_NavigationAttitudeMsg")
	if err != nil {
		return err
	}
	refMsg, err := correction.GetMessage(ctx, "Out_AttitudeReferenceMsg")
	if err != nil {
		return err
	}
	trackingError, err := spacecraft.AddBehaviour(ctx, "AttitudeReferenceErrorSoftware", simapi.Props{
		"In_NavigationAttitudeMsg": navAttMsg,
		"In_AttitudeReferenceMsg":  refMsg,
	})
	if err != nil {
		return err
	}

	speedMsg, err := wheels.GetMessage(ctx, "Out_RWArraySpeedMsg")
	if err != nil {
		return err
	}
	configMsg, err := wheels.GetMessage(ctx, "Out_RWArrayConfigMsg")
	if err != nil {
		return err
	}
	errMsg, err := trackingError.GetMessage(ctx, "Out_AttitudeErrorMsg")
	if err != nil {
		return err
	}
	massMsg, err := spacecraft.GetMessage(ctx, "Out_BodyMassMsg")
	if err != nil {
		return err
	}
	feedback, err := spacecraft.AddBehaviour(ctx, "MRPFeedbackControlSoftware", simapi.Props{
		"K":                   3.5,
		"P":                   30.0,
		"Ki":                  -1.0,
		"IntegralLimit":       -20,
		"In_RWArraySpeedMsg":  speedMsg,
		"In_RWArrayConfigMsg": configMsg,
		"In_AttitudeErrorMsg": errMsg,
		"In_BodyMassMsg":      massMsg,
	})
	if err != nil {
		return err
	}
	torqueMsg, err := feedback.GetMessage(ctx, "Out_CommandTorqueMsg")
	if err != nil {
		return err
	}
	mapping, err := spacecraft.AddBehaviour(ctx, "RWTorqueMappingSoftware", simapi.Props{
		"In_CommandTorqueMsg": torqueMsg,
		"In_RWArrayConfigMsg": configMsg,
	})
	if err != nil {
		return err
	}
	motorMsg, err := mapping.GetMessage(ctx, "Out_MotorTorqueArrayMsg")
	if err != nil {
		return err
	}
	if err := wheels.Set(ctx, simapi.Props{"In_MotorTorqueArrayMsg": motorMsg}); err != nil {
		return err
	}

	if err := sim.SetTrackingInterval(ctx, 5.0); err != nil {
		return err
	}
	for _, tracked := range []simapi.Trackable{errMsg, speedMsg} {
		if err := sim.TrackObject(ctx, tracked); err != nil {
			return err
		}
	}

	capture := func(name string, fov, exposure float64, cesium bool) error {
		err := sim.CaptureImage(ctx, env.PlotPath(name), spacecraft, simapi.CaptureOptions{
			FOV:      fov,
			Exposure: exposure,
			Width:    256,
			Height:   256,
			Cesium:   cesium,
		})
		if errors.Is(err, simapi.ErrVisualiserUnavailable) {
			env.Log.Warn(ctx, "visualiser unavailable, skipping image capture",
				logging.String("image", name))
			return nil
		}
		return err
	}

	if err := capture("earth_start_fov50.png", 50.0, 0.0, true); err != nil {
		return err
	}
	if err := capture("earth_start_fov120.png", 120.0, 0.0, true); err != nil {
		return err
	}

	if err := sim.TickDuration(ctx, 250, 0.05); err != nil {
		return err
	}

	if err := capture("earth_end_fov5.png", 5.0, -0.5, false); err != nil {
		return err
	}
	if err := capture("earth_end_fov1.png", 1.0, -0.5, false); err != nil {
		return err
	}

	errFrame, err := sim.QueryDataFrame(ctx, errMsg)
	if err != nil {
		return err
	}
	rwFrame, err := sim.QueryDataFrame(ctx, speedMsg)
	if err != nil {
		return err
	}
	return telemetry.SaveGrid(env.PlotPath("earth_observation.png"), 1, 2, []telemetry.Panel{
		attitudeErrorPanel(errFrame, "Nadir Pointing Error"),
		wheelSpeedPanel(rwFrame, 3),
	})
}
