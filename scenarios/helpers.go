package scenarios

import (
	"context"
	"image/color"
	"time"

	"github.com/signalsfoundry/mission-scenarios/astro"
	"github.com/signalsfoundry/mission-scenarios/simapi"
	"github.com/signalsfoundry/mission-scenarios/telemetry"
)

// epochUTC formats a calendar instant as the Epoch property of the solar
// system.
func epochUTC(year int, month time.Month, day, hour, min, sec int) string {
	return time.Date(year, month, day, hour, min, sec, 0, time.UTC).Format(time.RFC3339)
}

// addWheelTriad attaches a reaction wheel array with one wheel per body axis.
func addWheelTriad(ctx context.Context, spacecraft *simapi.Object) (*simapi.Object, error) {
	wheels, err := spacecraft.AddChild(ctx, "ReactionWheelArray", nil)
	if err != nil {
		return nil, err
	}
	axes := []astro.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	for _, axis := range axes {
		if _, err := wheels.AddChild(ctx, "ReactionWheel", simapi.Props{
			"WheelSpinAxis_B": axis.Slice(),
		}); err != nil {
			return nil, err
		}
	}
	return wheels, nil
}

// spansWhere collapses consecutive rows matching pred on the named column
// into shaded time spans.
func spansWhere(df *telemetry.DataFrame, col string, pred func(float64) bool, fill color.Color) []telemetry.Span {
	times := df.Times()
	values := df.Column(col)
	var spans []telemetry.Span
	open := false
	var start float64
	for i := range values {
		match := pred(values[i])
		switch {
		case match && !open:
			open = true
			start = times[i]
		case !match && open:
			open = false
			spans = append(spans, telemetry.Span{From: start, To: times[i], Color: fill})
		}
	}
	if open && len(times) > 0 {
		spans = append(spans, telemetry.Span{From: start, To: times[len(times)-1], Color: fill})
	}
	return spans
}

// attitudeErrorPanel plots the three Sigma_BR components of a guidance
// error frame.
func attitudeErrorPanel(df *telemetry.DataFrame, title string) telemetry.Panel {
	return telemetry.Panel{
		Title:  title,
		XLabel: "Time [s]",
		YLabel: "Error [MRP]",
		Series: telemetry.VectorSeries(df, "Sigma_BR"),
	}
}

// wheelSpeedPanel plots the wheel speeds of a reaction wheel array frame.
func wheelSpeedPanel(df *telemetry.DataFrame, count int) telemetry.Panel {
	panel := telemetry.Panel{
		Title:  "Reaction Wheel Speeds",
		XLabel: "Time [s]",
		YLabel: "Speed [rad/s]",
	}
	names := []string{"Wheel 1", "Wheel 2", "Wheel 3", "Wheel 4"}
	for i := 0; i < count && i < len(names); i++ {
		col := "WheelSpeeds_" + string(rune('0'+i))
		if df.HasColumn(col) {
			panel.Series = append(panel.Series, telemetry.SeriesFromFrame(df, col, names[i]))
		}
	}
	return panel
}
