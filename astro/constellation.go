package astro

import (
	"fmt"
	"math"
)

// CoplanarCircular describes a set of satellites evenly phased around one
// circular orbit plane.
type CoplanarCircular struct {
	Count          int
	SemiMajorAxis  float64
	Inclination    float64
	RAAN           float64
	InitialAnomaly float64
}

// InitStateVectors returns the inertial position and velocity of each
// satellite in the plane, phased 2*pi/Count apart starting from
// InitialAnomaly.
func (c CoplanarCircular) InitStateVectors() ([]Vec3, []Vec3, error) {
	if c.Count <= 0 {
		return nil, nil, fmt.Errorf("astro: constellation needs at least one satellite, got %d", c.Count)
	}

	positions := make([]Vec3, 0, c.Count)
	velocities := make([]Vec3, 0, c.Count)
	phase := 2 * math.Pi / float64(c.Count)
	for i := 0; i < c.Count; i++ {
		r, v, err := ClassicalToStateVector(ClassicalElements{
			SemiMajorAxis: c.SemiMajorAxis,
			Inclination:   c.Inclination,
			RAAN:          c.RAAN,
			TrueAnomaly:   c.InitialAnomaly + float64(i)*phase,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("astro: satellite %d: %w", i, err)
		}
		positions = append(positions, r)
		velocities = append(velocities, v)
	}
	return positions, velocities, nil
}
