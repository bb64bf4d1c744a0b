package scenarios

import (
	"context"

	"github.com/signalsfoundry/mission-scenarios/astro"
	"github.com/signalsfoundry/mission-scenarios/simapi"
	"github.com/signalsfoundry/mission-scenarios/telemetry"
)

func init() { Register(powerSystem{}) }

// powerSystem points a solar panel at the sun through the full reaction
// wheel control chain while the spacecraft passes through eclipse. Battery
// charge, panel power and the eclipse visibility factor are plotted
// together.
type powerSystem struct{}

func (powerSystem) Name() string { return "power-system" }

func (powerSystem) Description() string {
	return "Sun-safe pointing with solar panel, battery and eclipse telemetry"
}

func (powerSystem) Run(ctx context.Context, env *Env) error {
	sim, err := env.NewSession(ctx)
	if err != nil {
		return err
	}
	if _, err := sim.GetSystem(ctx, simapi.SolarSystem, simapi.Props{
		"Epoch": epochUTC(2022, 1, 1, 0, 0, 0),
	}); err != nil {
		return err
	}

	r, v, err := astro.ClassicalToStateVector(astro.ClassicalElements{
		SemiMajorAxis: 6671000,
		Inclination:   35 * astro.D2R,
		TrueAnomaly:   -15 * astro.D2R,
	})
	if err != nil {
		return err
	}
	spacecraft, err := sim.AddObject(ctx, simapi.Spacecraft, simapi.Props{
		"TotalMass":               750.0,
		"TotalCenterOfMassB_B":    astro.Vec3{}.Slice(),
		"TotalMomentOfInertiaB_B": astro.Diag(900, 800, 600).Rows(),
		"Position":                r.Slice(),
		"Velocity":                v.Slice(),
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
	panel, err := spacecraft.AddChild(ctx, "SolarPanel", simapi.Props{
		"Area":       0.01,
		"Efficiency": 0.23,
	})
	if err != nil {
		return err
	}
	battery, err := spacecraft.AddChild(ctx, "Battery", simapi.Props{
		"ChargeFraction": 0.2,
	})
	if err != nil {
		return err
	}
	bus, err := spacecraft.AddChild(ctx, "PowerBus", nil)
	if err != nil {
		return err
	}
	if _, err := bus.Invoke(ctx, "Connect", panel, battery); err != nil {
		return err
	}

	var localUp []float64
	if err := panel.Get(ctx, "LocalUp", &localUp); err != nil {
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
		"In_NavigationAttitudeMsg": navAttMsg,
		"In_SunDirectionMsg":       navAttMsg,
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
	errMsg, err := sunPointing.GetMessage(ctx, "Out_AttitudeErrorMsg")
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

	solarModel, err := spacecraft.GetModel(ctx, "Universe.SolarModel", nil)
	if err != nil {
		return err
	}
	eclipseMsg, err := solarModel.GetMessage(ctx, "Out_EclipseMsg")
	if err != nil {
		return err
	}
	powerMsg, err := panel.GetMessage(ctx, "Out_PowerMsg")
	if err != nil {
		return err
	}
	batteryMsg, err := battery.GetMessage(ctx, "Out_BatteryMsg")
	if err != nil {
		return err
	}
	if err := sim.SetTrackingInterval(ctx, 10); err != nil {
		return err
	}
	for _, tracked := range []simapi.Trackable{eclipseMsg, navAttMsg, errMsg, powerMsg, batteryMsg, speedMsg} {
		if err := sim.TrackObject(ctx, tracked); err != nil {
			return err
		}
	}

	if err := sim.TickDuration(ctx, 1000, 0.1); err != nil {
		return err
	}

	errFrame, err := sim.QueryDataFrame(ctx, errMsg)
	if err != nil {
		return err
	}
	batteryFrame, err := sim.QueryDataFrame(ctx, batteryMsg)
	if err != nil {
		return err
	}
	powerFrame, err := sim.QueryDataFrame(ctx, powerMsg)
	if err != nil {
		return err
	}
	eclipseFrame, err := sim.QueryDataFrame(ctx, eclipseMsg)
	if err != nil {
		return err
	}
	rwFrame, err := sim.QueryDataFrame(ctx, speedMsg)
	if err != nil {
		return err
	}

	charge := batteryFrame.Column("ChargeFraction")
	chargePct := make([]float64, len(charge))
	for i, c := range charge {
		chargePct[i] = c * 100
	}

	return telemetry.SaveGrid(env.PlotPath("power_system.png"), 2, 2, []telemetry.Panel{
		attitudeErrorPanel(errFrame, "Sun Pointing Error"),
		{
			Title:  "Battery Charge",
			XLabel: "Time [s]",
			YLabel: "Charge [%]",
			Series: []telemetry.Series{{X: batteryFrame.Times(), Y: chargePct}},
		},
		{
			Title:  "Solar Panel Power",
			XLabel: "Time [s]",
			YLabel: "Incident Power [W]",
			Series: []telemetry.Series{
				telemetry.SeriesFromFrame(powerFrame, "Power", "Power [W]"),
				telemetry.SeriesFromFrame(eclipseFrame, "Visibility", "Sun Visibility"),
			},
		},
		wheelSpeedPanel(rwFrame, 3),
	})
}
