// Package astro provides the orbital mechanics and attitude kinematics
// helpers used to seed simulation scenarios: classical element conversions,
// modified Rodrigues parameter utilities and constellation geometry.
package astro

import "math"

// Physical and unit constants used throughout scenario setup.
const (
	// EarthMu is Earth's gravitational parameter [m^3/s^2].
	EarthMu = 3.986004418e14

	// EarthREq is Earth's equatorial radius [m].
	EarthREq = 6378136.6

	// EarthPolarRate is Earth's rotation rate about its polar axis [rad/s].
	EarthPolarRate = 7.2921158553e-5

	// AstronomicalUnit in metres.
	AstronomicalUnit = 1.495978707e11

	// D2R converts degrees to radians.
	D2R = math.Pi / 180.0

	// R2D converts radians to degrees.
	R2D = 180.0 / math.Pi

	// RPM converts revolutions per minute to radians per second.
	RPM = 2.0 * math.Pi / 60.0
)
