package scenarios

import (
	"context"
	"image/color"
	"math"

	"github.com/signalsfoundry/mission-scenarios/astro"
	"github.com/signalsfoundry/mission-scenarios/internal/logging"
	"github.com/signalsfoundry/mission-scenarios/simapi"
	"github.com/signalsfoundry/mission-scenarios/telemetry"
)

func init() { Register(dvPropulsion{}) }

// dvPropulsion raises the orbit of a tumbling spacecraft. Reaction wheels
// first settle the vehicle onto an anti-velocity pointing reference, then a
// single thruster fed from a propellant tank fires near apogee passage to
// lift the semi-major axis.
type dvPropulsion struct{}

func (dvPropulsion) Name() string { return "dv-propulsion" }

func (dvPropulsion) Description() string {
	return "Orbit raising burn with a fuel-fed thruster and wheel-based pointing"
}

func (dvPropulsion) Run(ctx context.Context, env *Env) error {
	fuelStart := env.Params.Float("fuel_amount", 200.0)
	thrustDuration := env.Params.Float("thrust_duration", 100.0)

	sim, err := env.NewSession(ctx)
	if err != nil {
		return err
	}
	if _, err := sim.GetSystem(ctx, simapi.SolarSystem, simapi.Props{
		"Epoch": epochUTC(2022, 1, 1, 0, 0, 0),
	}); err != nil {
		return err
	}

	// The vehicle mass must stay dynamic so propellant consumption shows up
	// in the trajectory, so no mass override here.
	spacecraft, err := sim.AddObject(ctx, simapi.Spacecraft, simapi.Props{
		"Attitude":     []float64{0.1, 0.2, -0.3},
		"AttitudeRate": []float64{0.001, -0.01, 0.03},
		"OverrideMass": false,
	})
	if err != nil {
		return err
	}
	if _, err := spacecraft.Invoke(ctx, "SetClassicElements",
		6931000.0, 0.0001,
		33.3*astro.D2R, 48.2*astro.D2R, 10.0*astro.D2R, 100.0*astro.D2R,
		"earth"); err != nil {
		return err
	}

	// A bare hub carries the structural mass not accounted for by the
	// individual components.
	hub, err := spacecraft.AddChild(ctx, simapi.PhysicalObject, nil)
	if err != nil {
		return err
	}
	if err := hub.Set(ctx, simapi.Props{
		"Mass":               500.0,
		"CenterOfMassL_L":    astro.Vec3{}.Slice(),
		"MomentOfInertia_LB": astro.Diag(900.0, 800.0, 600.0).Rows(),
	}); err != nil {
		return err
	}

	wheels, err := spacecraft.AddChild(ctx, "ReactionWheelArray", nil)
	if err != nil {
		return err
	}
	for _, axis := range []astro.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}} {
		if _, err := wheels.AddChild(ctx, "ReactionWheel", simapi.Props{
			"Mass":             9.0,
			"WheelSpinAxis_B":  axis.Slice(),
			"WheelModelType":   "Balanced",
			"Omega":            100.0 * astro.RPM,
			"FrictionCoulomb":  0.0005,
			"StaticImbalance":  2.8,
			"DynamicImbalance": 0.77,
		}); err != nil {
			return err
		}
	}

	thruster, err := spacecraft.AddChild(ctx, "Thruster", nil)
	if err != nil {
		return err
	}
	fuelNode, err := thruster.GetModel(ctx, "ThrusterFuelModel", simapi.Props{
		"SpecificHeatRatio": 1.41,
		"TotalTemperature":  250.0,
		"TotalPressure":     2.758e3,
	})
	if err != nil {
		return err
	}

	fuelSource, err := spacecraft.AddChild(ctx, "FuelSource", simapi.Props{
		"ModelType":       "UniformBurn",
		"TankLength":      2.0,
		"TankRadius":      2.0,
		"Capacity":        fuelStart + 10.0,
		"MaximumFlowRate": 2.0,
		"Amount":          fuelStart,
		"DryMass":         5.0,
	})
	if err != nil {
		return err
	}
	if _, err := fuelSource.Invoke(ctx, "PitchDegrees", 90.0); err != nil {
		return err
	}
	if _, err := fuelNode.Invoke(ctx, "Attach", fuelSource); err != nil {
		return err
	}

	const exitArea = 0.00113411495
	if err := thruster.Set(ctx, simapi.Props{
		"Position_LP_P":   astro.Vec3{}.Slice(),
		"ExitArea":        exitArea,
		"ThroatArea":      exitArea / 60.0,
		"MaxThrust":       220.0,
		"MaxImpulse":      229.5,
		"MinFireDuration": 0.02,
		"DispersedFactor": 0.0,
		"TimeToMaxThrust": 0.1,
		"SpecificImpulse": 10.0,
	}); err != nil {
		return err
	}
	if _, err := thruster.Invoke(ctx, "PitchDegrees", 90.0); err != nil {
		return err
	}

	navigator, err := spacecraft.AddBehaviour(ctx, "SimpleNavigationSoftware", nil)
	if err != nil {
		return err
	}
	earth, err := sim.GetPlanet(ctx, "Earth")
	if err != nil {
		return err
	}
	planetStateMsg, err := earth.GetMessage(ctx, "Out_PlanetStateMsg")
	if err != nil {
		return err
	}
	ephemConverter, err := spacecraft.AddBehaviour(ctx, "PlanetEphemerisTranslationSoftware", simapi.Props{
		"In_PlanetStateMsg": planetStateMsg,
	})
	if err != nil {
		return err
	}

	navTransMsg, err := navigator.GetMessage(ctx, "Out_NavigationTranslationMsg")
	if err != nil {
		return err
	}
	ephemMsg, err := ephemConverter.GetMessage(ctx, "Out_EphemerisMsg")
	if err != nil {
		return err
	}
	velocityPointing, err := spacecraft.AddBehaviour(ctx, "VelocityPointingSoftware", simapi.Props{
		"In_NavigationTranslationMsg": navTransMsg,
		"In_EphemerisMsg":             ephemMsg,
		"In_PlanetStateMsg":           planetStateMsg,
	})
	if err != nil {
		return err
	}

	navAttMsg, err := navigator.GetMessage(ctx, "Out_NavigationAttitudeMsg")
	if err != nil {
		return err
	}
	refMsg, err := velocityPointing.GetMessage(ctx, "Out_AttitudeReferenceMsg")
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

	errMsg, err := trackingError.GetMessage(ctx, "Out_AttitudeErrorMsg")
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
	const ki = -1.0
	feedback, err := spacecraft.AddBehaviour(ctx, "MRPFeedbackControlSoftware", simapi.Props{
		"K":                   3.5,
		"P":                   30.0,
		"Ki":                  ki,
		"IntegralLimit":       2.0 / ki * 0.1,
		"In_AttitudeErrorMsg": errMsg,
		"In_RWArraySpeedMsg":  speedMsg,
		"In_RWArrayConfigMsg": configMsg,
	})
	if err != nil {
		return err
	}

	motorMapping, err := spacecraft.AddBehaviour(ctx, "RWTorqueMappingSoftware", simapi.Props{
		"ControlAxes_B":       astro.Identity3().Rows(),
		"In_RWArrayConfigMsg": configMsg,
	})
	if err != nil {
		return err
	}
	torqueMsg, err := feedback.GetMessage(ctx, "Out_CommandTorqueMsg")
	if err != nil {
		return err
	}
	if err := motorMapping.Set(ctx, simapi.Props{"In_CommandTorqueMsg": torqueMsg}); err != nil {
		return err
	}
	motorMsg, err := motorMapping.GetMessage(ctx, "Out_MotorTorqueArrayMsg")
	if err != nil {
		return err
	}
	if err := wheels.Set(ctx, simapi.Props{"In_MotorTorqueArrayMsg": motorMsg}); err != nil {
		return err
	}

	stateMsg, err := spacecraft.GetMessage(ctx, "Out_SpacecraftStateMsg")
	if err != nil {
		return err
	}
	thrustMsg, err := thruster.GetMessage(ctx, "Out_ThrusterOperationMsg")
	if err != nil {
		return err
	}
	fuelMsg, err := fuelSource.GetMessage(ctx, "Out_FuelAmountMsg")
	if err != nil {
		return err
	}
	if err := sim.SetTrackingInterval(ctx, 10); err != nil {
		return err
	}
	for _, tracked := range []simapi.Trackable{stateMsg, errMsg, speedMsg, thrustMsg, fuelMsg} {
		if err := sim.TrackObject(ctx, tracked); err != nil {
			return err
		}
	}

	// Tick in short chunks until the argument of latitude lines up with the
	// burn point, then fire once and finish the run in coarser chunks.
	fired := false
	for {
		now, err := sim.Time(ctx)
		if err != nil {
			return err
		}
		if now >= 1200 {
			break
		}
		chunk := 10.0
		if fired {
			chunk = 1000.0
		}
		if err := sim.TickDuration(ctx, chunk, 0.1); err != nil {
			return err
		}
		if fired {
			continue
		}

		var position, velocity []float64
		if err := stateMsg.Get(ctx, "Position_BN_N", &position); err != nil {
			return err
		}
		if err := stateMsg.Get(ctx, "Velocity_BN_N", &velocity); err != nil {
			return err
		}
		el, err := astro.StateVectorToClassical(
			astro.Vec3{position[0], position[1], position[2]},
			astro.Vec3{velocity[0], velocity[1], velocity[2]},
		)
		if err != nil {
			return err
		}
		aol := astro.NormalizeAngle(el.ArgPerigee + el.TrueAnomaly)
		if math.Abs(aol-math.Pi) >= math.Pi/100.0 {
			continue
		}

		now, err = sim.Time(ctx)
		if err != nil {
			return err
		}
		fireMsg, err := sim.CreateMessage(ctx, "ThrusterFireRequestMessage", simapi.Props{
			"Start":    now + 0.1,
			"Duration": thrustDuration + 0.1,
		})
		if err != nil {
			return err
		}
		if err := thruster.Set(ctx, simapi.Props{"In_ThrusterFireRequestMsg": fireMsg}); err != nil {
			return err
		}
		fired = true
		env.Log.Info(ctx, "thruster fired",
			logging.Float64("time", now),
			logging.Float64("aol", aol),
		)
	}

	stateFrame, err := sim.QueryDataFrame(ctx, stateMsg)
	if err != nil {
		return err
	}
	errFrame, err := sim.QueryDataFrame(ctx, errMsg)
	if err != nil {
		return err
	}
	thrustFrame, err := sim.QueryDataFrame(ctx, thrustMsg)
	if err != nil {
		return err
	}
	fuelFrame, err := sim.QueryDataFrame(ctx, fuelMsg)
	if err != nil {
		return err
	}

	smaPanel, err := semiMajorAxisPanel(stateFrame)
	if err != nil {
		return err
	}
	smaPanel.Spans = spansWhere(thrustFrame, "ThrustFactor",
		func(v float64) bool { return v > 0 },
		color.NRGBA{R: 255, A: 75})

	return telemetry.SaveGrid(env.PlotPath("dv_propulsion.png"), 2, 2, []telemetry.Panel{
		attitudeErrorPanel(errFrame, "Attitude Tracking Error"),
		smaPanel,
		{
			Title:  "Propellant Mass",
			XLabel: "Time [s]",
			YLabel: "Mass [kg]",
			Series: []telemetry.Series{telemetry.SeriesFromFrame(fuelFrame, "Amount", "Propellant Mass")},
		},
		{
			Title:  "Spacecraft Attitude",
			XLabel: "Time [s]",
			YLabel: "Sigma [MRP]",
			Series: telemetry.VectorSeries(stateFrame, "Sigma_BN"),
		},
	})
}

// semiMajorAxisPanel derives the osculating semi-major axis from each row of
// a spacecraft state frame.
func semiMajorAxisPanel(df *telemetry.DataFrame) (telemetry.Panel, error) {
	times := df.Times()
	sma := make([]float64, len(times))
	for i := range times {
		r := astro.Vec3{
			df.Column("Position_BN_N_0")[i],
			df.Column("Position_BN_N_1")[i],
			df.Column("Position_BN_N_2")[i],
		}
		v := astro.Vec3{
			df.Column("Velocity_BN_N_0")[i],
			df.Column("Velocity_BN_N_1")[i],
			df.Column("Velocity_BN_N_2")[i],
		}
		el, err := astro.StateVectorToClassical(r, v)
		if err != nil {
			return telemetry.Panel{}, err
		}
		sma[i] = el.SemiMajorAxis
	}
	return telemetry.Panel{
		Title:  "Orbit Raising Maneuver",
		XLabel: "Time [s]",
		YLabel: "Semi-Major Axis [m]",
		Series: []telemetry.Series{{Name: "Semi-Major Axis", X: times, Y: sma}},
	}, nil
}
