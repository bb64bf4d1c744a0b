package astro

import (
	"fmt"
	"math"
	"math/rand"
)

// MRPFromAxisAngle builds the modified Rodrigues parameter set for a
// rotation of angle radians about the given axis. The axis need not be
// normalised. The MRP norm equals tan(angle/4).
func MRPFromAxisAngle(axis Vec3, angle float64) Vec3 {
	u := axis.Unit()
	q0 := math.Cos(angle / 2)
	qv := u.Scale(math.Sin(angle / 2))
	return qv.Scale(1 / (1 + q0))
}

// RandomMRP returns a uniformly random attitude axis with a rotation angle
// drawn from [0, pi). Useful for seeding tumbling spacecraft.
func RandomMRP(rng *rand.Rand) Vec3 {
	axis := Vec3{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}
	if axis.Norm() == 0 {
		axis = Vec3{0, 0, 1}
	}
	return MRPFromAxisAngle(axis, rng.Float64()*math.Pi)
}

// NormalizeAngle wraps an angle in radians into [0, 2*pi).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// UpVectorToDCM returns a direction cosine matrix whose third row aligns
// with the given up direction. The remaining rows complete an orthonormal
// triad.
func UpVectorToDCM(up Vec3) Mat3 {
	w := up.Unit()
	if w.Norm() == 0 {
		return Identity3()
	}
	helper := Vec3{1, 0, 0}
	if math.Abs(w[0]) > 0.9 {
		helper = Vec3{0, 1, 0}
	}
	u := helper.Cross(w).Unit()
	v := w.Cross(u)
	return Mat3{
		{u[0], u[1], u[2]},
		{v[0], v[1], v[2]},
		{w[0], w[1], w[2]},
	}
}

// UpAxisToDCM returns the direction cosine matrix that points the named
// body axis along the local up direction. Accepted axes are "x", "y", "z"
// and their negations.
func UpAxisToDCM(axis string) (Mat3, error) {
	switch axis {
	case "z", "+z":
		return Identity3(), nil
	case "-z":
		return Mat3{{1, 0, 0}, {0, -1, 0}, {0, 0, -1}}, nil
	case "x", "+x":
		return Mat3{{0, 0, 1}, {0, 1, 0}, {-1, 0, 0}}, nil
	case "-x":
		return Mat3{{0, 0, -1}, {0, 1, 0}, {1, 0, 0}}, nil
	case "y", "+y":
		return Mat3{{1, 0, 0}, {0, 0, 1}, {0, -1, 0}}, nil
	case "-y":
		return Mat3{{1, 0, 0}, {0, 0, -1}, {0, 1, 0}}, nil
	default:
		return Mat3{}, fmt.Errorf("astro: unknown up axis %q", axis)
	}
}
