package scenarios

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/signalsfoundry/mission-scenarios/astro"
	"github.com/signalsfoundry/mission-scenarios/simapi"
	"github.com/signalsfoundry/mission-scenarios/telemetry"
)

func init() { Register(sunHeading{}) }

// sunHeading estimates the sun direction from a constellation of coarse sun
// sensors and slews the spacecraft so its solar panel faces the sun. Partway
// through the run one sensor is faulted and later repaired, which shows up
// in the estimator and panel power telemetry.
type sunHeading struct{}

func (sunHeading) Name() string { return "sun-heading" }

func (sunHeading) Description() string {
	return "Sunline EKF estimation and sun-safe pointing with a transient sensor fault"
}

func (sunHeading) Run(ctx context.Context, env *Env) error {
	rng := rand.New(rand.NewSource(int64(env.Params.Int("seed", 11))))

	sim, err := env.NewSession(ctx)
	if err != nil {
		return err
	}
	if _, err := sim.GetSystem(ctx, simapi.SolarSystem, simapi.Props{
		"Epoch": epochUTC(2024, 1, 1, 0, 0, 0),
	}); err != nil {
		return err
	}

	// Sun-synchronous style orbit.
	r, v, err := astro.ClassicalToStateVectorDeg(6631000, 0.0, -96.0, 0.0, 0.0, 100.0)
	if err != nil {
		return err
	}
	spacecraft, err := sim.AddObject(ctx, simapi.Spacecraft, simapi.Props{
		"TotalMass":               10.0,
		"TotalMomentOfInertiaB_B": astro.Diag(900, 800, 600).Rows(),
		"Position":                r.Slice(),
		"Velocity":                v.Slice(),
		"Attitude":                []float64{0.1, 0.2, -0.3},
	})
	if err != nil {
		return err
	}

	wheels, err := addWheelTriad(ctx, spacecraft)
	if err != nil {
		return err
	}
	panel, err := spacecraft.AddChild(ctx, "SolarPanel", nil)
	if err != nil {
		return err
	}

	// Eight sensors arranged on the corners of the craft.
	a := 1 / math.Sqrt(2)
	orientations := []astro.Vec3{
		{a, -0.5, 0.5}, {a, -0.5, -0.5}, {a, 0.5, -0.5}, {a, 0.5, 0.5},
		{-a, -0.5, 0.5}, {-a, -0.5, -0.5}, {-a, 0.5, -0.5}, {-a, 0.5, 0.5},
	}
	cssArray, err := spacecraft.AddChild(ctx, "CoarseSunSensorArray", nil)
	if err != nil {
		return err
	}
	sensors := make([]*simapi.Object, 0, len(orientations))
	for _, orientation := range orientations {
		css, err := cssArray.AddChild(ctx, "CoarseSunSensor", simapi.Props{
			"DCM_LP":        astro.UpVectorToDCM(orientation).Rows(),
			"Bias":          rng.Float64() * 0.002,
			"NoiseStd":      rng.Float64() * 0.003,
			"FOV":           90.0,
			"KellyCurveFit": 0.0,
			"ScaleFactor":   1.0,
			"MinSignal":     0.0,
			"MaxSignal":     2.0,
		})
		if err != nil {
			return err
		}
		sensors = append(sensors, css)
	}

	stateMsg, err := spacecraft.GetMessage(ctx, "Out_SpacecraftStateMsg")
	if err != nil {
		return err
	}
	sun, err := sim.GetPlanet(ctx, "sun")
	if err != nil {
		return err
	}
	sunStateMsg, err := sun.GetMessage(ctx, "Out_PlanetStateMsg")
	if err != nil {
		return err
	}
	navigator, err := spacecraft.AddBehaviour(ctx, "SimpleNavigationSoftware", simapi.Props{
		"In_SpacecraftStateMsg": stateMsg,
		"In_SunPlanetStateMsg":  sunStateMsg,
	})
	if err != nil {
		return err
	}

	cssDataMsg, err := cssArray.GetMessage(ctx, "Out_CSSArrayDataMsg")
	if err != nil {
		return err
	}
	cssConfigMsg, err := cssArray.GetMessage(ctx, "Out_CSSArrayConfigMsg")
	if err != nil {
		return err
	}
	const obsNoise = 0.017 * 0.017
	ekf, err := spacecraft.AddBehaviour(ctx, "SunlineEKFNavigationSoftware", simapi.Props{
		"StateVector":          []float64{1.0, 0.1, 0.0, 0.0, 0.01, 0.0},
		"StateError":           make([]float64, 6),
		"Covariance":           [][]float64{{1, 0, 0, 0, 0, 0}, {0, 1, 0, 0, 0, 0}, {0, 0, 1, 0, 0, 0}, {0, 0, 0, 0.02, 0, 0}, {0, 0, 0, 0, 0.02, 0}, {0, 0, 0, 0, 0, 0.02}},
		"ObservationNoise":     obsNoise,
		"ProcessNoise":         0.001 * 0.001,
		"SensorThreshold":      math.Sqrt(obsNoise) * 5,
		"EKFSwitch":            5,
		"In_CSSArrayDataMsg":   cssDataMsg,
		"In_CSSArrayConfigMsg": cssConfigMsg,
	})
	if err != nil {
		return err
	}

	var localUp []float64
	if err := panel.Get(ctx, "LocalUp", &localUp); err != nil {
		return err
	}
	sunDirMsg, err := ekf.GetMessage(ctx, "Out_NavigationAttitudeMsg")
	if err != nil {
		return err
	}
	navAttMsg, err := navigator.GetMessage(ctx, "Out_NavigationAttitudeMsg")
	if err != nil {
		return err
	}
	sunPointing, err := spacecraft.AddBehaviour(ctx, "SunSafePointingSoftware", simapi.Props{
		"MinUnitMag":               0.001,
		"SmallAngle":               0.001,
		"SunBodyVector":            localUp,
		"Omega_RN_B":               astro.Vec3{}.Slice(),
		"SunAxisSpinRate":          0.0,
		"In_SunDirectionMsg":       sunDirMsg,
		"In_NavigationAttitudeMsg": navAttMsg,
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
	attErrMsg, err := sunPointing.GetMessage(ctx, "Out_AttitudeErrorMsg")
	if err != nil {
		return err
	}
	feedback, err := spacecraft.AddBehaviour(ctx, "MRPFeedbackControlSoftware", simapi.Props{
		"K":                   3.5,
		"P":                   30.0,
		"Ki":                  -1.0,
		"IntegralLimit":       2.0 / -1.0 * 0.1,
		"In_RWArraySpeedMsg":  speedMsg,
		"In_RWArrayConfigMsg": configMsg,
		"In_AttitudeErrorMsg": attErrMsg,
	})
	if err != nil {
		return err
	}
	torqueMsg, err := feedback.GetMessage(ctx, "Out_CommandTorqueMsg")
	if err != nil {
		return err
	}
	mapping, err := spacecraft.AddBehaviour(ctx, "RWTorqueMappingSoftware", simapi.Props{
		"ControlAxes_B":       astro.Identity3().Rows(),
		"In_RWArrayConfigMsg": configMsg,
		"In_CommandTorqueMsg": torqueMsg,
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

	powerMsg, err := panel.GetMessage(ctx, "Out_PowerMsg")
	if err != nil {
		return err
	}
	if err := sim.SetTrackingInterval(ctx, 10); err != nil {
		return err
	}
	for _, tracked := range []simapi.Trackable{attErrMsg, cssDataMsg, powerMsg} {
		if err := sim.TrackObject(ctx, tracked); err != nil {
			return err
		}
	}

	// Nominal pointing, then a faulted sensor between 500s and 700s.
	if err := sim.TickDuration(ctx, 500, 0.1); err != nil {
		return err
	}
	if err := sensors[1].Set(ctx, simapi.Props{"FaultState": "FaultRandom"}); err != nil {
		return err
	}
	if err := sim.TickDuration(ctx, 200, 0.1); err != nil {
		return err
	}
	if err := sensors[1].Set(ctx, simapi.Props{"FaultState": "Nominal"}); err != nil {
		return err
	}
	if err := sim.TickDuration(ctx, 300, 0.1); err != nil {
		return err
	}

	cssFrame, err := sim.QueryDataFrame(ctx, cssDataMsg)
	if err != nil {
		return err
	}
	cssPanel := telemetry.Panel{
		Title:  "Coarse Sun Sensor Signals",
		XLabel: "Time [s]",
		YLabel: "Signal [V]",
		Spans:  []telemetry.Span{{From: 500, To: 700}},
	}
	for i := range sensors {
		col := fmt.Sprintf("SensedValues_%d", i)
		cssPanel.Series = append(cssPanel.Series, telemetry.SeriesFromFrame(cssFrame, col, fmt.Sprintf("CSS %d", i+1)))
	}

	errFrame, err := sim.QueryDataFrame(ctx, attErrMsg)
	if err != nil {
		return err
	}
	powerFrame, err := sim.QueryDataFrame(ctx, powerMsg)
	if err != nil {
		return err
	}
	powerPanel := telemetry.Panel{
		Title:  "Solar Panel Power",
		XLabel: "Time [s]",
		YLabel: "Power [W]",
		Series: []telemetry.Series{telemetry.SeriesFromFrame(powerFrame, "Power", "")},
	}

	return telemetry.SaveGrid(env.PlotPath("sun_heading.png"), 2, 2, []telemetry.Panel{
		cssPanel,
		attitudeErrorPanel(errFrame, "Attitude Error"),
		powerPanel,
	})
}
