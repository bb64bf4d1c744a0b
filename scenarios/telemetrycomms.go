package scenarios

import (
	"context"
	"image/color"

	"github.com/signalsfoundry/mission-scenarios/astro"
	"github.com/signalsfoundry/mission-scenarios/internal/logging"
	"github.com/signalsfoundry/mission-scenarios/simapi"
	"github.com/signalsfoundry/mission-scenarios/telemetry"
)

func init() { Register(telemetryComms{}) }

// telemetryComms exercises a TT&C round trip: the spacecraft points its
// transmitter at a ground station, periodically transmits its guidance error
// message over the link, and the ground receiver polls the messages back
// after the run. Transmissions outside the access window never arrive.
type telemetryComms struct{}

func (telemetryComms) Name() string { return "telemetry-comms" }

func (telemetryComms) Description() string {
	return "Ground station pointing with periodic message downlink over the RF link"
}

func (telemetryComms) Run(ctx context.Context, env *Env) error {
	sim, err := env.NewSession(ctx)
	if err != nil {
		return err
	}
	if _, err := sim.GetSystem(ctx, simapi.Universe, simapi.Props{
		"Epoch": epochUTC(2022, 1, 1, 0, 0, 0),
	}); err != nil {
		return err
	}

	r, v, err := astro.ClassicalToStateVector(astro.ClassicalElements{
		SemiMajorAxis: astro.EarthREq + 1000000,
		Inclination:   17 * astro.D2R,
		RAAN:          90 * astro.D2R,
		TrueAnomaly:   -50 * astro.D2R,
	})
	if err != nil {
		return err
	}
	spacecraft, err := sim.AddObject(ctx, simapi.Spacecraft, simapi.Props{
		"TotalMass":               5.0,
		"TotalCenterOfMassB_B":    astro.Vec3{}.Slice(),
		"TotalMomentOfInertiaB_B": astro.Diag(2, 2, 2).Rows(),
		"Position":                r.Slice(),
		"Velocity":                v.Slice(),
		"Attitude":                []float64{0.1, 0.2, -0.3},
		"AttitudeRate":            []float64{0.001, -0.01, 0.03},
	})
	if err != nil {
		return err
	}

	groundStation, err := sim.AddObject(ctx, simapi.GroundStation, simapi.Props{
		"MinimumElevation": 0.0,
		"MaximumRange":     2200000.0,
	})
	if err != nil {
		return err
	}
	if _, err := groundStation.Invoke(ctx, "SetLocation", -10.0, 0.0, 0.0, "Earth"); err != nil {
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

	navTransMsg, err := navigator.GetMessage(ctx, "Out_NavigationTranslationMsg")
	if err != nil {
		return err
	}
	navAttMsg, err := navigator.GetMessage(ctx, "Out_NavigationAttitudeMsg")
	if err != nil {
		return err
	}
	ephemMsg, err := ephem.GetMessage(ctx, "Out_EphemerisMsg")
	if err != nil {
		return err
	}
	groundStatesMsg, err := groundStation.GetMessage(ctx, "Out_GroundStatesMsg")
	if err != nil {
		return err
	}
	groundPointing, err := spacecraft.AddBehaviour(ctx, "GroundLocationPointingSoftware", simapi.Props{
		"AlignmentVector_B":           []float64{0, 0, 1},
		"UseBoresightRateDamping":     true,
		"In_NavigationTranslationMsg": navTransMsg,
		"In_NavigationAttitudeMsg":    navAttMsg,
		"In_EphemerisMsg":             ephemMsg,
		"In_GroundStatesMsg":          groundStatesMsg,
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
	errMsg, err := groundPointing.GetMessage(ctx, "Out_AttitudeErrorMsg")
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

	transmitter, err := spacecraft.AddChild(ctx, "Transmitter", simapi.Props{
		"Frequency": 900e6,
		"Bandwidth": 1e6,
		// Hold undelivered messages in the buffer until the next pass.
		"ClearIfInaccessible": false,
	})
	if err != nil {
		return err
	}
	receiver, err := groundStation.AddChild(ctx, "Receiver", simapi.Props{
		"Frequency": 900e6,
		"Bandwidth": 1e6,
	})
	if err != nil {
		return err
	}

	accessVal, err := groundStation.Invoke(ctx, "TrackObject", spacecraft)
	if err != nil {
		return err
	}
	accessID, err := accessVal.AsID()
	if err != nil {
		return err
	}
	accessMsg := sim.MessageByID(accessID)

	// The link budget only exists once the simulation has started.
	if err := sim.Tick(ctx, 1.0); err != nil {
		return err
	}
	linkVal, err := receiver.Invoke(ctx, "GetDataLinkMessage", transmitter)
	if err != nil {
		return err
	}
	linkID, err := linkVal.AsID()
	if err != nil {
		return err
	}
	linkMsg := sim.MessageByID(linkID)

	if err := sim.SetTrackingInterval(ctx, 5.0); err != nil {
		return err
	}
	for _, tracked := range []simapi.Trackable{accessMsg, linkMsg} {
		if err := sim.TrackObject(ctx, tracked); err != nil {
			return err
		}
	}

	// Transmit the guidance error every 200 seconds of simulated time.
	const passes = 10
	for i := 0; i < passes; i++ {
		if err := sim.TickDuration(ctx, 200, 1.0); err != nil {
			return err
		}
		now, err := sim.Time(ctx)
		if err != nil {
			return err
		}
		if _, err := transmitter.Invoke(ctx, "TransmitMessage", errMsg, "", now); err != nil {
			return err
		}
	}

	// Poll the receiver buffer for whatever made it to the ground.
	var received [][]float64
	for {
		downlinked, err := sim.CreateMessage(ctx, "AttitudeErrorMessage", nil)
		if err != nil {
			return err
		}
		resultVal, err := receiver.Invoke(ctx, "ReceiveMessage", downlinked, "", false)
		if err != nil {
			return err
		}
		ok, err := resultVal.AsBool()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		var sigma []float64
		if err := downlinked.Get(ctx, "Sigma_BR", &sigma); err != nil {
			return err
		}
		received = append(received, sigma)
	}
	env.Log.Info(ctx, "downlink complete", logging.Int("messages_received", len(received)))

	accessFrame, err := sim.QueryDataFrame(ctx, accessMsg)
	if err != nil {
		return err
	}
	linkFrame, err := sim.QueryDataFrame(ctx, linkMsg)
	if err != nil {
		return err
	}

	noAccess := spansWhere(accessFrame, "HasAccess",
		func(v float64) bool { return v == 0 },
		color.NRGBA{R: 255, A: 30})

	receivedPanel := telemetry.Panel{
		Title:  "Received Attitude Errors",
		XLabel: "Time [s]",
		YLabel: "Sigma [MRP]",
	}
	labels := []string{"X", "Y", "Z"}
	for axis := 0; axis < 3; axis++ {
		series := telemetry.Series{Name: labels[axis], Scatter: true}
		for i, sigma := range received {
			if axis < len(sigma) {
				series.X = append(series.X, float64(i+1)*200)
				series.Y = append(series.Y, sigma[axis])
			}
		}
		receivedPanel.Series = append(receivedPanel.Series, series)
	}

	dataTotals := linkFrame.Column("DataTotal")
	kilobytes := make([]float64, len(dataTotals))
	for i, total := range dataTotals {
		kilobytes[i] = total * 1000
	}

	return telemetry.SaveGrid(env.PlotPath("telemetry_comms.png"), 2, 2, []telemetry.Panel{
		{
			Title:  "Ground Station Access",
			XLabel: "Time [s]",
			YLabel: "Angles [deg]",
			Series: []telemetry.Series{
				telemetry.SeriesFromFrame(accessFrame, "Azimuth", "Azimuth"),
				telemetry.SeriesFromFrame(accessFrame, "Elevation", "Elevation"),
			},
			Spans: noAccess,
		},
		{
			Title:  "Slant Range",
			XLabel: "Time [s]",
			YLabel: "Distance [m]",
			Series: []telemetry.Series{telemetry.SeriesFromFrame(accessFrame, "SlantRange", "")},
			Spans:  noAccess,
		},
		receivedPanel,
		{
			Title:  "Link Budget Information",
			XLabel: "Time [s]",
			Series: []telemetry.Series{
				{Name: "Data [KB]", X: linkFrame.Times(), Y: kilobytes},
				telemetry.SeriesFromFrame(linkFrame, "PassTime", "Pass Time [s]"),
				telemetry.SeriesFromFrame(linkFrame, "SignalToNoise", "Signal-To-Noise [dB]"),
			},
		},
	})
}
