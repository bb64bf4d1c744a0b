package simapi

// Well-known remote object and system type names.
const (
	Spacecraft     = "Spacecraft"
	GroundStation  = "GroundStation"
	PhysicalObject = "PhysicalObject"

	SolarSystem     = "SolarSystem"
	Universe        = "Universe"
	TelemetrySystem = "TelemetrySystem"
)

// Props holds named parameter values sent to the remote service. Values are
// marshalled as-is; vectors and matrices use astro.Vec3 / astro.Mat3 or any
// JSON-compatible shape the remote component expects.
type Props map[string]any
