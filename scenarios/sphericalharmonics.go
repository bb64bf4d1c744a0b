package scenarios

import (
	"context"

	"github.com/signalsfoundry/mission-scenarios/astro"
	"github.com/signalsfoundry/mission-scenarios/simapi"
	"github.com/signalsfoundry/mission-scenarios/telemetry"
)

func init() { Register(sphericalHarmonics{}) }

// sphericalHarmonics enables a spherical harmonics gravity model on the Earth
// and propagates a low orbit long enough for the oblateness perturbation to
// show up as altitude ripple and a secular drift of the ascending node.
type sphericalHarmonics struct{}

func (sphericalHarmonics) Name() string { return "spherical-harmonics" }

func (sphericalHarmonics) Description() string {
	return "Orbit propagation under a spherical harmonics gravity field"
}

func (sphericalHarmonics) Run(ctx context.Context, env *Env) error {
	degree := env.Params.Int("degree", 2)

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
	if _, err := solarSystem.Invoke(ctx, "SetSphericalHarmonics", "earth", degree); err != nil {
		return err
	}

	r, v, err := astro.ClassicalToStateVectorDeg(6778140.0, 0.001, 51.6, 30.0, 0.0, 0.0)
	if err != nil {
		return err
	}
	spacecraft, err := sim.AddObject(ctx, simapi.Spacecraft, simapi.Props{
		"TotalMass":               250.0,
		"TotalCenterOfMassB_B":    astro.Vec3{}.Slice(),
		"TotalMomentOfInertiaB_B": astro.Diag(50.0, 50.0, 40.0).Rows(),
		"Position":                r.Slice(),
		"Velocity":                v.Slice(),
	})
	if err != nil {
		return err
	}

	stateMsg, err := spacecraft.GetMessage(ctx, "Out_SpacecraftStateMsg")
	if err != nil {
		return err
	}
	if err := sim.SetTrackingInterval(ctx, 60); err != nil {
		return err
	}
	if err := sim.TrackObject(ctx, stateMsg); err != nil {
		return err
	}

	// Three orbits is enough for the nodal regression to beat the plot
	// resolution.
	if err := sim.TickDuration(ctx, 3*astro.OrbitalPeriod(6778140.0), 1.0); err != nil {
		return err
	}

	stateFrame, err := sim.QueryDataFrame(ctx, stateMsg)
	if err != nil {
		return err
	}

	times := stateFrame.Times()
	altitude := make([]float64, len(times))
	raan := make([]float64, len(times))
	for i := range times {
		r := astro.Vec3{
			stateFrame.Column("Position_BN_N_0")[i],
			stateFrame.Column("Position_BN_N_1")[i],
			stateFrame.Column("Position_BN_N_2")[i],
		}
		v := astro.Vec3{
			stateFrame.Column("Velocity_BN_N_0")[i],
			stateFrame.Column("Velocity_BN_N_1")[i],
			stateFrame.Column("Velocity_BN_N_2")[i],
		}
		altitude[i] = (r.Norm() - astro.EarthREq) / 1000.0
		el, err := astro.StateVectorToClassical(r, v)
		if err != nil {
			return err
		}
		raan[i] = el.RAAN * astro.R2D
	}

	return telemetry.SaveGrid(env.PlotPath("spherical_harmonics.png"), 1, 2, []telemetry.Panel{
		{
			Title:  "Orbit Altitude",
			XLabel: "Time [s]",
			YLabel: "Altitude [km]",
			Series: []telemetry.Series{{Name: "Altitude", X: times, Y: altitude}},
		},
		{
			Title:  "Ascending Node Drift",
			XLabel: "Time [s]",
			YLabel: "RAAN [deg]",
			Series: []telemetry.Series{{Name: "RAAN", X: times, Y: raan}},
		},
	})
}
