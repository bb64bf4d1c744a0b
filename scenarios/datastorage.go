package scenarios

import (
	"context"

	"github.com/signalsfoundry/mission-scenarios/astro"
	"github.com/signalsfoundry/mission-scenarios/simapi"
	"github.com/signalsfoundry/mission-scenarios/telemetry"
)

func init() { Register(dataStorage{}) }

// dataStorage downlinks recorded messages from a spacecraft transmitter into
// a ground station receiver, with partitioned storage units on both ends of
// the link.
type dataStorage struct{}

func (dataStorage) Name() string { return "data-storage" }

func (dataStorage) Description() string {
	return "Message recording into partitioned storage and transmission to a ground station"
}

func (dataStorage) Run(ctx context.Context, env *Env) error {
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

	groundStation, err := sim.AddObject(ctx, simapi.GroundStation, simapi.Props{
		"MinimumElevation": 30.0,
		"MaximumRange":     2000000.0,
		"Latitude":         2.0,
		"Longitude":        170.0,
		"Altitude":         0.0,
	})
	if err != nil {
		return err
	}

	r, v, err := astro.ClassicalToStateVectorDeg(8000e3, 0.0, 25.0, 90.0, 0.0, 160.0)
	if err != nil {
		return err
	}
	spacecraft, err := sim.AddObject(ctx, simapi.Spacecraft, simapi.Props{
		"TotalMass":               750.0,
		"TotalCenterOfMassB_B":    astro.Vec3{}.Slice(),
		"TotalMomentOfInertiaB_B": astro.Diag(900, 800, 600).Rows(),
		"Position":                r.Slice(),
		"Velocity":                v.Slice(),
		"Attitude":                []float64{0.1, 0.2, -0.3},
		"AttitudeRate":            []float64{0.001, -0.001, 0.001},
	})
	if err != nil {
		return err
	}

	receiver, err := groundStation.AddChild(ctx, "Receiver", simapi.Props{
		"Frequency": 1000e6,
	})
	if err != nil {
		return err
	}
	groundStorage, err := groundStation.AddChild(ctx, "PartitionedDataStorage", simapi.Props{
		"Capacity": astro.MegabytesToBytes(1.0),
	})
	if err != nil {
		return err
	}
	if _, err := groundStorage.AddBehaviour(ctx, "DataStorageMessageWriter", nil); err != nil {
		return err
	}
	if _, err := receiver.GetModel(ctx, "ReceiverMessageWriterModel", simapi.Props{
		"Storage": groundStorage,
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
			"WheelPosition_B":  astro.Vec3{}.Slice(),
			"WheelSpinAxis_B":  axis.Slice(),
			"WheelModelType":   "Balanced",
			"Omega":            100.0 * astro.RPM,
			"OmegaMax":         6000.0 * astro.RPM,
			"MaxTorque":        0.2,
			"MinTorque":        0.00001,
			"MaxMomentum":      50.0,
			"FrictionCoulomb":  0.0,
			"FrictionStatic":   0.0,
			"BetaStatic":       -1.0,
			"StaticImbalance":  0.0,
			"DynamicImbalance": 0.0,
		}); err != nil {
			return err
		}
	}

	transmitter, err := spacecraft.AddChild(ctx, "Transmitter", simapi.Props{
		"Frequency":  1000e6,
		"BaudRate":   16000,
		"PacketSize": astro.KilobytesToBits(1.0),
	})
	if err != nil {
		return err
	}
	storage, err := spacecraft.AddChild(ctx, "PartitionedDataStorage", simapi.Props{
		"Capacity": astro.KilobytesToBytes(100),
	})
	if err != nil {
		return err
	}
	writer, err := storage.AddBehaviour(ctx, "DataStorageMessageWriter", simapi.Props{
		"WriteInterval": 10.0,
	})
	if err != nil {
		return err
	}
	if _, err := transmitter.GetModel(ctx, "TransmitterStorageModel", simapi.Props{
		"MessageWriter": writer,
	}); err != nil {
		return err
	}

	computer, err := spacecraft.AddChild(ctx, "SpacecraftOperationComputer", simapi.Props{
		"PointingMode":   "Nadir",
		"ControllerMode": "MRP",
	})
	if err != nil {
		return err
	}

	// Align the on-board clock with the session epoch.
	var epoch string
	if err := solarSystem.Get(ctx, "Epoch", &epoch); err != nil {
		return err
	}
	if _, err := computer.Invoke(ctx, "SyncClock", epoch); err != nil {
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

	transmitterStorage, err := transmitter.GetModel(ctx, "TransmitterStorageModel", nil)
	if err != nil {
		return err
	}
	if err := transmitterStorage.Set(ctx, simapi.Props{"In_AccessMsg": accessMsg}); err != nil {
		return err
	}

	attMsg, err := computer.GetMessage(ctx, "Out_NavigationAttitudeMsg")
	if err != nil {
		return err
	}
	transMsg, err := computer.GetMessage(ctx, "Out_NavigationTranslationMsg")
	if err != nil {
		return err
	}
	for _, recorded := range []any{accessMsg, attMsg, transMsg} {
		if _, err := writer.Invoke(ctx, "RegisterMessage", recorded); err != nil {
			return err
		}
	}

	speedMsg, err := wheels.GetMessage(ctx, "Out_RWArraySpeedMsg")
	if err != nil {
		return err
	}
	storageMsg, err := storage.GetMessage(ctx, "Out_DataStorageMsg")
	if err != nil {
		return err
	}
	for _, tracked := range []simapi.Trackable{speedMsg, storageMsg, transmitter, receiver} {
		if err := sim.TrackObject(ctx, tracked); err != nil {
			return err
		}
	}

	if err := sim.TickDuration(ctx, 720, 0.1); err != nil {
		return err
	}

	storageFrame, err := sim.QueryDataFrame(ctx, storageMsg)
	if err != nil {
		return err
	}
	txFrame, err := sim.QueryDataFrame(ctx, transmitter)
	if err != nil {
		return err
	}
	rwFrame, err := sim.QueryDataFrame(ctx, speedMsg)
	if err != nil {
		return err
	}
	rxFrame, err := sim.QueryDataFrame(ctx, receiver)
	if err != nil {
		return err
	}

	return telemetry.SaveGrid(env.PlotPath("data_storage.png"), 2, 2, []telemetry.Panel{
		{
			Title:  "Data Storage",
			XLabel: "Time [s]",
			YLabel: "Data [B]",
			Series: []telemetry.Series{
				telemetry.SeriesFromFrame(storageFrame, "Allocated", "Allocated Data"),
				telemetry.SeriesFromFrame(storageFrame, "Capacity", "Capacity"),
			},
		},
		{
			Title:  "Bytes Transmitted",
			XLabel: "Time [s]",
			YLabel: "Data [B]",
			Series: []telemetry.Series{telemetry.SeriesFromFrame(txFrame, "BytesTransmitted", "")},
		},
		wheelSpeedPanel(rwFrame, 3),
		{
			Title:  "Signal to Noise",
			XLabel: "Time [s]",
			YLabel: "SNR [dB]",
			Series: []telemetry.Series{telemetry.SeriesFromFrame(rxFrame, "SignalToNoise", "")},
		},
	})
}
