package astro

import (
	"fmt"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// StateFromTLE propagates a two-line element set to the given epoch with
// SGP4 and returns the inertial position and velocity in metres and
// metres per second.
func StateFromTLE(line1, line2 string, at time.Time) (Vec3, Vec3, error) {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)
	if len(line1) < 69 || len(line2) < 69 {
		return Vec3{}, Vec3{}, fmt.Errorf("astro: malformed TLE lines")
	}

	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS84)
	at = at.UTC()
	pos, vel := satellite.Propagate(sat, at.Year(), int(at.Month()), at.Day(),
		at.Hour(), at.Minute(), at.Second())

	const kmToM = 1000.0
	r := Vec3{pos.X * kmToM, pos.Y * kmToM, pos.Z * kmToM}
	v := Vec3{vel.X * kmToM, vel.Y * kmToM, vel.Z * kmToM}
	if r.Norm() < EarthREq {
		return Vec3{}, Vec3{}, fmt.Errorf("astro: TLE propagation produced a subterranean state")
	}
	return r, v, nil
}
