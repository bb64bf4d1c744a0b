package scenarios

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/signalsfoundry/mission-scenarios/astro"
	"github.com/signalsfoundry/mission-scenarios/internal/logging"
	"github.com/signalsfoundry/mission-scenarios/simapi"
	"github.com/signalsfoundry/mission-scenarios/telemetry"
)

func init() { Register(constellation{}) }

// constellation places a co-planar ring of spacecraft in orbit, each with a
// random initial attitude, and commands them all to hold a nadir pointing
// frame. The attitude error of every craft converges regardless of its
// starting attitude.
type constellation struct{}

func (constellation) Name() string { return "constellation" }

func (constellation) Description() string {
	return "Co-planar constellation converging onto nadir pointing from random attitudes"
}

func (constellation) Run(ctx context.Context, env *Env) error {
	count := env.Params.Int("spacecraft", 5)
	sma := env.Params.Float("semi_major_axis", 7000e3)
	rng := rand.New(rand.NewSource(int64(env.Params.Int("seed", 7))))

	sim, err := env.NewSession(ctx)
	if err != nil {
		return err
	}

	if _, err := sim.GetSystem(ctx, simapi.SolarSystem, simapi.Props{
		"Epoch": epochUTC(2021, 1, 15, 0, 28, 30),
	}); err != nil {
		return err
	}

	ring := astro.CoplanarCircular{
		Count:         count,
		SemiMajorAxis: sma,
		Inclination:   45 * astro.D2R,
		RAAN:          35 * astro.D2R,
	}
	positions, velocities, err := ring.InitStateVectors()
	if err != nil {
		return err
	}

	earth, err := sim.GetPlanet(ctx, "earth")
	if err != nil {
		return err
	}
	earthStateMsg, err := earth.GetMessage(ctx, "Out_SpicePlanetStateMsg")
	if err != nil {
		return err
	}

	inertia := astro.Diag(0.02/3.0, 0.1256/3.0, 0.1256/3.0)
	errorFSWs := make([]*simapi.Object, 0, count)
	for i := 0; i < count; i++ {
		craft, err := sim.AddObject(ctx, simapi.Spacecraft, simapi.Props{
			"TotalMass":              4.0,
			"TotalCenterOfMassB_B":   astro.Vec3{}.Slice(),
			"TotalMomentOfInertiaB_B": inertia.Rows(),
			"OverrideMass":           true,
			"Position":               positions[i].Slice(),
			"Velocity":               velocities[i].Slice(),
			"Attitude":               astro.RandomMRP(rng).Slice(),
			"AttitudeRate":           astro.Vec3{}.Slice(),
		})
		if err != nil {
			return fmt.Errorf("spacecraft %d: %w", i, err)
		}

		navigator, err := craft.AddBehaviour(ctx, "SimpleNavigationSoftware", nil)
		if err != nil {
			return err
		}
		ephem, err := craft.AddBehaviour(ctx, "PlanetEphemerisTranslationSoftware", simapi.Props{
			"In_SpicePlanetStateMsg": earthStateMsg,
		})
		if err != nil {
			return err
		}
		navTransMsg, err := navigator.GetMessage(ctx, "Out_NavigationTranslationMsg")
		if err != nil {
			return err
		}
		ephemMsg, err := ephem.GetMessage(ctx, "Out_EphemerisMsg")
		if err != nil {
			return err
		}
		nadir, err := craft.AddBehaviour(ctx, "NadirPointingSoftware", simapi.Props{
			"In_NavigationTranslationMsg": navTransMsg,
			"In_EphemerisMsg":             ephemMsg,
		})
		if err != nil {
			return err
		}
		navAttMsg, err := navigator.GetMessage(ctx, "Out_NavigationAttitudeMsg")
		if err != nil {
			return err
		}
		refMsg, err := nadir.GetMessage(ctx, "Out_AttitudeReferenceMsg")
		if err != nil {
			return err
		}
		errorFSW, err := craft.AddBehaviour(ctx, "AttitudeReferenceErrorSoftware", simapi.Props{
			"In_NavigationAttitudeMsg": navAttMsg,
			"In_AttitudeReferenceMsg":  refMsg,
		})
		if err != nil {
			return err
		}
		errorFSWs = append(errorFSWs, errorFSW)

		errMsg, err := errorFSW.GetMessage(ctx, "Out_AttitudeErrorMsg")
		if err != nil {
			return err
		}
		massMsg, err := craft.GetMessage(ctx, "Out_BodyMassMsg")
		if err != nil {
			return err
		}

		// PID tuning from the craft inertia and a ten second decay time.
		const ki = -1.0
		p := (0.1256 / 3) / 10.0
		feedback, err := craft.AddBehaviour(ctx, "MRPFeedbackControlSoftware", simapi.Props{
			"K":              p * p / (0.1256 / 3),
			"P":              p,
			"Ki":             ki,
			"IntegralLimit":  2.0 / ki * 0.1,
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
		if _, err := craft.AddChild(ctx, "ExternalForceTorque", simapi.Props{
			"In_CommandTorqueMsg": torqueMsg,
		}); err != nil {
			return err
		}

		if err := sim.TrackObject(ctx, errMsg); err != nil {
			return err
		}
	}

	if err := sim.SetTrackingInterval(ctx, 5.0); err != nil {
		return err
	}
	env.Log.Info(ctx, "constellation built", logging.Int("spacecraft", count))

	if err := sim.TickDuration(ctx, 400, 0.1); err != nil {
		return err
	}

	panel := telemetry.Panel{
		Title:  "Attitude Tracking Error",
		XLabel: "Time [s]",
		YLabel: "Attitude Error [MRP]",
	}
	for i, fsw := range errorFSWs {
		msg, err := fsw.GetMessage(ctx, "Out_AttitudeErrorMsg")
		if err != nil {
			return err
		}
		df, err := sim.QueryDataFrame(ctx, msg)
		if err != nil {
			return err
		}
		panel.Series = append(panel.Series, telemetry.Series{
			Name: fmt.Sprintf("Spacecraft %d", i+1),
			X:    df.Times(),
			Y:    df.Norm("Sigma_BR_0", "Sigma_BR_1", "Sigma_BR_2"),
		})
	}
	return telemetry.SavePanel(env.PlotPath("constellation.png"), panel)
}
