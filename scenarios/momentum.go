package scenarios

import (
	"context"
	"math"

	"github.com/signalsfoundry/mission-scenarios/astro"
	"github.com/signalsfoundry/mission-scenarios/simapi"
	"github.com/signalsfoundry/mission-scenarios/telemetry"
)

func init() { Register(momentumManagement{}) }

// momentumManagement holds an inertial attitude with a pyramid of reaction
// wheels while magnetic torque bars continuously bleed the accumulated wheel
// momentum into the Earth's dipole field.
type momentumManagement struct{}

func (momentumManagement) Name() string { return "momentum-management" }

func (momentumManagement) Description() string {
	return "Reaction wheel momentum dumping through magnetic torque bars"
}

func (momentumManagement) Run(ctx context.Context, env *Env) error {
	sim, err := env.NewSession(ctx)
	if err != nil {
		return err
	}
	solarSystem, err := sim.GetSystem(ctx, simapi.SolarSystem, simapi.Props{
		"Epoch": epochUTC(2022, 1, 1, 0, 0, 0),
	})
	if err != nil {
		return err
	}

	// Centered dipole model of the Earth field from the first Gauss
	// coefficients.
	if _, err := solarSystem.Invoke(ctx, "CreateMagneticFieldCenteredDipole",
		"earth", -15463.0, -1159.0, 2908.5, -1.0, -1.0); err != nil {
		return err
	}

	r, v, err := astro.ClassicalToStateVectorDeg(6778.14e3, 0.0, 45.0, 60.0, 0.0, 0.0)
	if err != nil {
		return err
	}
	spacecraft, err := sim.AddObject(ctx, simapi.Spacecraft, simapi.Props{
		"TotalMass":               10.0,
		"TotalCenterOfMassB_B":    astro.Vec3{}.Slice(),
		"TotalMomentOfInertiaB_B": astro.Diag(0.02/3.0, 0.1256/3.0, 0.1256/3.0).Rows(),
		"Position":                r.Slice(),
		"Velocity":                v.Slice(),
		"Attitude":                []float64{0.1, 0.2, -0.3},
		"AttitudeRate":            []float64{0.001, -0.01, 0.03},
		"OverrideMass":            true,
	})
	if err != nil {
		return err
	}

	mtbArray, err := spacecraft.AddChild(ctx, "MagneticTorqueBarArray", nil)
	if err != nil {
		return err
	}
	barAxes := []astro.Vec3{
		{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {0.70710678, 0.70710678, 0},
	}
	for _, axis := range barAxes {
		if _, err := mtbArray.AddChild(ctx, "MagneticTorqueBar", simapi.Props{
			"MaxDipoles": 0.1,
			"BarAxis_B":  axis.Slice(),
		}); err != nil {
			return err
		}
	}

	wheels, err := spacecraft.AddChild(ctx, "ReactionWheelArray", nil)
	if err != nil {
		return err
	}
	beta := 52.0 * astro.D2R
	wheelAxes := []astro.Vec3{
		{0, math.Cos(beta), math.Sin(beta)},
		{0, math.Sin(beta), -math.Cos(beta)},
		{math.Cos(beta), -math.Sin(beta), 0},
		{-math.Cos(beta), -math.Sin(beta), 0},
	}
	for _, axis := range wheelAxes {
		if _, err := wheels.AddChild(ctx, "ReactionWheel", simapi.Props{
			"Mass":             0.130,
			"WheelPosition_B":  astro.Vec3{}.Slice(),
			"WheelSpinAxis_B":  axis.Slice(),
			"WheelModelType":   "Balanced",
			"Omega":            0.0,
			"OmegaMax":         5000.0 * astro.RPM,
			"MaxTorque":        0.004,
			"MinTorque":        0.0,
			"MaxMomentum":      0.015,
			"FrictionCoulomb":  0.0,
			"FrictionStatic":   0.0,
			"BetaStatic":       -1.0,
			"FrictionViscous":  0.0,
			"StaticImbalance":  1.0e-7,
			"DynamicImbalance": 1.0e-8,
		}); err != nil {
			return err
		}
	}

	navigator, err := spacecraft.AddBehaviour(ctx, "SimpleNavigationSoftware", nil)
	if err != nil {
		return err
	}
	tam, err := spacecraft.AddChild(ctx, "Magnetometer", simapi.Props{
		"NoiseStd": astro.Vec3{}.Slice(),
	})
	if err != nil {
		return err
	}
	hold, err := spacecraft.AddBehaviour(ctx, "InertialPointingSoftware", simapi.Props{
		"Sigma_RN": astro.Vec3{}.Slice(),
	})
	if err != nil {
		return err
	}

	navAttMsg, err := navigator.GetMessage(ctx, "Out_NavigationAttitudeMsg")
	if err != nil {
		return err
	}
	refMsg, err := hold.GetMessage(ctx, "Out_AttitudeReferenceMsg")
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
	feedback, err := spacecraft.AddBehaviour(ctx, "MRPFeedbackControlSoftware", simapi.Props{
		"K":                   0.0001,
		"P":                   0.002,
		"Ki":                  -1.0,
		"IntegralLimit":       2.0 / -1.0 * 0.1,
		"In_AttitudeErrorMsg": errMsg,
		"In_RWArraySpeedMsg":  speedMsg,
		"In_RWArrayConfigMsg": configMsg,
	})
	if err != nil {
		return err
	}

	momentumFSW, err := spacecraft.AddBehaviour(ctx, "RWMomentumControlSoftware", simapi.Props{
		"Kp":                  0.003,
		"In_RWArrayConfigMsg": configMsg,
		"In_RWArraySpeedMsg":  speedMsg,
	})
	if err != nil {
		return err
	}

	dipoleMapping, err := spacecraft.AddBehaviour(ctx, "MTBDipoleMappingSoftware", simapi.Props{
		"DipoleMapping": [][]float64{
			{0.75, -0.25, 0.0},
			{-0.25, 0.75, 0.0},
			{0.0, 0.0, 1.0},
			{0.35355339, 0.35355339, 0.0},
		},
	})
	if err != nil {
		return err
	}

	mtbConfigMsg, err := mtbArray.GetMessage(ctx, "Out_MTBArrayConfigMsg")
	if err != nil {
		return err
	}
	dipoleArrayMsg, err := dipoleMapping.GetMessage(ctx, "Out_DipoleArrayMsg")
	if err != nil {
		return err
	}
	torqueMsg, err := feedback.GetMessage(ctx, "Out_CommandTorqueMsg")
	if err != nil {
		return err
	}
	feedforward, err := spacecraft.AddBehaviour(ctx, "MTBFeedforwardMappingSoftware", simapi.Props{
		"In_DipoleArrayMsg":    dipoleArrayMsg,
		"In_CommandTorqueMsg":  torqueMsg,
		"In_MTBArrayConfigMsg": mtbConfigMsg,
	})
	if err != nil {
		return err
	}

	feedforwardTorqueMsg, err := feedforward.GetMessage(ctx, "Out_CommandTorqueMsg")
	if err != nil {
		return err
	}
	motorMapping, err := spacecraft.AddBehaviour(ctx, "RWTorqueMappingSoftware", simapi.Props{
		"ControlAxes_B":       astro.Identity3().Rows(),
		"In_RWArrayConfigMsg": configMsg,
		"In_CommandTorqueMsg": feedforwardTorqueMsg,
	})
	if err != nil {
		return err
	}
	motorMsg, err := motorMapping.GetMessage(ctx, "Out_MotorTorqueArrayMsg")
	if err != nil {
		return err
	}
	nullspace, err := spacecraft.AddBehaviour(ctx, "RWNullSpaceMappingSoftware", simapi.Props{
		"OmegaGain":              0.000003,
		"In_RWArrayConfigMsg":    configMsg,
		"In_RWArraySpeedMsg":     speedMsg,
		"In_MotorTorqueArrayMsg": motorMsg,
	})
	if err != nil {
		return err
	}

	tamDataMsg, err := tam.GetMessage(ctx, "Out_TAMDataMsg")
	if err != nil {
		return err
	}
	tamEncoder, err := spacecraft.AddBehaviour(ctx, "TAMEncoderSoftware", simapi.Props{
		"In_TAMDataMsg": tamDataMsg,
	})
	if err != nil {
		return err
	}
	tamBodyMsg, err := tamEncoder.GetMessage(ctx, "Out_TAMBodyMsg")
	if err != nil {
		return err
	}
	momentumTorqueMsg, err := momentumFSW.GetMessage(ctx, "Out_CommandTorqueMsg")
	if err != nil {
		return err
	}
	torqueToDipole, err := spacecraft.AddBehaviour(ctx, "TorqueDipoleConversionSoftware", simapi.Props{
		"In_TAMBodyMsg":       tamBodyMsg,
		"In_CommandTorqueMsg": momentumTorqueMsg,
	})
	if err != nil {
		return err
	}

	dipoleCmdMsg, err := torqueToDipole.GetMessage(ctx, "Out_CommandDipoleMsg")
	if err != nil {
		return err
	}
	if err := dipoleMapping.Set(ctx, simapi.Props{
		"In_CommandDipoleMsg":  dipoleCmdMsg,
		"In_MTBArrayConfigMsg": mtbConfigMsg,
	}); err != nil {
		return err
	}
	if err := feedforward.Set(ctx, simapi.Props{"In_TAMBodyMsg": tamBodyMsg}); err != nil {
		return err
	}
	if err := mtbArray.Set(ctx, simapi.Props{"In_DipoleArrayMsg": dipoleArrayMsg}); err != nil {
		return err
	}
	nullspaceMotorMsg, err := nullspace.GetMessage(ctx, "Out_MotorTorqueArrayMsg")
	if err != nil {
		return err
	}
	if err := wheels.Set(ctx, simapi.Props{"In_MotorTorqueArrayMsg": nullspaceMotorMsg}); err != nil {
		return err
	}

	netTorqueMsg, err := mtbArray.GetMessage(ctx, "Out_MTBArrayNetTorqueMsg")
	if err != nil {
		return err
	}
	if err := sim.SetTrackingInterval(ctx, 60); err != nil {
		return err
	}
	for _, tracked := range []simapi.Trackable{speedMsg, tamBodyMsg, netTorqueMsg, dipoleCmdMsg} {
		if err := sim.TrackObject(ctx, tracked); err != nil {
			return err
		}
	}

	if err := sim.TickDuration(ctx, 10000, 1.0); err != nil {
		return err
	}

	rwFrame, err := sim.QueryDataFrame(ctx, speedMsg)
	if err != nil {
		return err
	}
	tamFrame, err := sim.QueryDataFrame(ctx, tamBodyMsg)
	if err != nil {
		return err
	}
	netTorqueFrame, err := sim.QueryDataFrame(ctx, netTorqueMsg)
	if err != nil {
		return err
	}
	dipoleFrame, err := sim.QueryDataFrame(ctx, dipoleCmdMsg)
	if err != nil {
		return err
	}

	return telemetry.SaveGrid(env.PlotPath("momentum_management.png"), 2, 2, []telemetry.Panel{
		wheelSpeedPanel(rwFrame, 4),
		{
			Title:  "TAM Magnetic Field",
			XLabel: "Time [s]",
			YLabel: "Magnetic Field [T]",
			Series: telemetry.VectorSeries(tamFrame, "Field_B"),
		},
		{
			Title:  "MTB Net Torque",
			XLabel: "Time [s]",
			YLabel: "Torque [Nm]",
			Series: telemetry.VectorSeries(netTorqueFrame, "NetTorque_B"),
		},
		{
			Title:  "Dipole Command",
			XLabel: "Time [s]",
			YLabel: "Dipole [Am^2]",
			Series: telemetry.VectorSeries(dipoleFrame, "DipoleRequest_B"),
		},
	})
}
