package scenarios

import (
	"context"

	"github.com/signalsfoundry/mission-scenarios/astro"
	"github.com/signalsfoundry/mission-scenarios/simapi"
	"github.com/signalsfoundry/mission-scenarios/telemetry"
)

func init() { Register(torqueBars{}) }

// torqueBars detumbles a small spacecraft using only magnetic torque bars
// reacting against the Earth's dipole field. A magnetometer feeds the
// torque-to-dipole chain that steers four bars with distinct axes.
type torqueBars struct{}

func (torqueBars) Name() string { return "magnetic-torque-bars" }

func (torqueBars) Description() string {
	return "Inertial hold using magnetic torque bars against the Earth dipole field"
}

func (torqueBars) Run(ctx context.Context, env *Env) error {
	sim, err := env.NewSession(ctx)
	if err != nil {
		return err
	}
	if _, err := sim.GetSystem(ctx, simapi.Universe, simapi.Props{
		"Epoch": epochUTC(2022, 1, 1, 0, 0, 0),
	}); err != nil {
		return err
	}

	r, v, err := astro.ClassicalToStateVectorDeg(6778e3, 0, 0, 0, 0, 0)
	if err != nil {
		return err
	}
	spacecraft, err := sim.AddObject(ctx, simapi.Spacecraft, simapi.Props{
		"TotalMass":               10.0,
		"TotalCenterOfMassB_B":    astro.Vec3{}.Slice(),
		"TotalMomentOfInertiaB_B": astro.Diag(0.067, 0.419, 0.419).Rows(),
		"Position":                r.Slice(),
		"Velocity":                v.Slice(),
		"AttitudeRate":            []float64{0.01, -0.01, 0.0},
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

	navigator, err := spacecraft.AddBehaviour(ctx, "SimpleNavigationSoftware", nil)
	if err != nil {
		return err
	}
	magnetometer, err := spacecraft.AddChild(ctx, "Magnetometer", nil)
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
	feedback, err := spacecraft.AddBehaviour(ctx, "MRPFeedbackControlSoftware", simapi.Props{
		"K":                   0.0001,
		"P":                   0.002,
		"Ki":                  -1.0,
		"IntegralLimit":       -20,
		"In_AttitudeErrorMsg": errMsg,
	})
	if err != nil {
		return err
	}

	mtbConfigMsg, err := mtbArray.GetMessage(ctx, "Out_MTBArrayConfigMsg")
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
		"In_MTBArrayConfigMsg": mtbConfigMsg,
	})
	if err != nil {
		return err
	}

	tamDataMsg, err := magnetometer.GetMessage(ctx, "Out_TAMDataMsg")
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
	torqueMsg, err := feedback.GetMessage(ctx, "Out_CommandTorqueMsg")
	if err != nil {
		return err
	}
	torqueToDipole, err := spacecraft.AddBehaviour(ctx, "TorqueDipoleConversionSoftware", simapi.Props{
		"In_TAMBodyMsg":       tamBodyMsg,
		"In_CommandTorqueMsg": torqueMsg,
	})
	if err != nil {
		return err
	}

	dipoleCmdMsg, err := torqueToDipole.GetMessage(ctx, "Out_CommandDipoleMsg")
	if err != nil {
		return err
	}
	if err := dipoleMapping.Set(ctx, simapi.Props{"In_CommandDipoleMsg": dipoleCmdMsg}); err != nil {
		return err
	}
	dipoleArrayMsg, err := dipoleMapping.GetMessage(ctx, "Out_DipoleArrayMsg")
	if err != nil {
		return err
	}
	if err := mtbArray.Set(ctx, simapi.Props{"In_DipoleArrayMsg": dipoleArrayMsg}); err != nil {
		return err
	}

	fieldMsg, err := spacecraft.GetMessage(ctx, "Out_MagneticFieldMsg")
	if err != nil {
		return err
	}
	stateMsg, err := spacecraft.GetMessage(ctx, "Out_SpacecraftStateMsg")
	if err != nil {
		return err
	}
	if err := sim.SetTrackingInterval(ctx, 50.0); err != nil {
		return err
	}
	for _, tracked := range []simapi.Trackable{fieldMsg, stateMsg, tamBodyMsg, errMsg, torqueMsg, dipoleCmdMsg} {
		if err := sim.TrackObject(ctx, tracked); err != nil {
			return err
		}
	}

	if err := sim.TickDuration(ctx, 1000, 1.0); err != nil {
		return err
	}

	fieldFrame, err := sim.QueryDataFrame(ctx, fieldMsg)
	if err != nil {
		return err
	}
	tamFrame, err := sim.QueryDataFrame(ctx, tamBodyMsg)
	if err != nil {
		return err
	}
	stateFrame, err := sim.QueryDataFrame(ctx, stateMsg)
	if err != nil {
		return err
	}
	errFrame, err := sim.QueryDataFrame(ctx, errMsg)
	if err != nil {
		return err
	}
	torqueFrame, err := sim.QueryDataFrame(ctx, torqueMsg)
	if err != nil {
		return err
	}
	dipoleFrame, err := sim.QueryDataFrame(ctx, dipoleCmdMsg)
	if err != nil {
		return err
	}

	return telemetry.SaveGrid(env.PlotPath("magnetic_torque_bars.png"), 2, 3, []telemetry.Panel{
		{
			Title:  "Magnetic Field [N]",
			XLabel: "Time [s]",
			YLabel: "Magnetic Field [nT]",
			Series: telemetry.VectorSeries(fieldFrame, "MagField_N"),
		},
		{
			Title:  "Magnetic Field Sensed [B]",
			XLabel: "Time [s]",
			YLabel: "Magnetic Field [nT]",
			Series: telemetry.VectorSeries(tamFrame, "Field_B"),
		},
		{
			Title:  "Spacecraft Attitude [B]",
			XLabel: "Time [s]",
			YLabel: "Sigma [MRP]",
			Series: telemetry.VectorSeries(stateFrame, "Sigma_BN"),
		},
		attitudeErrorPanel(errFrame, "Attitude Tracking Error"),
		{
			Title:  "Controller Torque Request [B]",
			XLabel: "Time [s]",
			YLabel: "Torque [Nm]",
			Series: telemetry.VectorSeries(torqueFrame, "TorqueRequestBody"),
		},
		{
			Title:  "Dipole Command [B]",
			XLabel: "Time [s]",
			YLabel: "Dipole [Am^2]",
			Series: telemetry.VectorSeries(dipoleFrame, "DipoleRequest_B"),
		},
	})
}
