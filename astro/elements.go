package astro

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ClassicalElements are the six classical orbital elements. Angles are in
// radians and the semi-major axis is in metres.
type ClassicalElements struct {
	SemiMajorAxis float64
	Eccentricity  float64
	Inclination   float64
	RAAN          float64
	ArgPerigee    float64
	TrueAnomaly   float64
}

// ClassicalToStateVector converts classical elements to an inertial position
// and velocity about Earth. Only elliptical orbits are supported.
func ClassicalToStateVector(el ClassicalElements) (Vec3, Vec3, error) {
	if el.SemiMajorAxis <= 0 {
		return Vec3{}, Vec3{}, fmt.Errorf("astro: semi-major axis must be positive, got %g", el.SemiMajorAxis)
	}
	if e := math.Abs(el.Eccentricity); e >= 1 {
		return Vec3{}, Vec3{}, fmt.Errorf("astro: eccentricity must satisfy |e| < 1, got %g", el.Eccentricity)
	}

	p := el.SemiMajorAxis * (1 - el.Eccentricity*el.Eccentricity)
	cosNu, sinNu := math.Cos(el.TrueAnomaly), math.Sin(el.TrueAnomaly)
	rMag := p / (1 + el.Eccentricity*cosNu)

	rPF := Vec3{rMag * cosNu, rMag * sinNu, 0}
	vScale := math.Sqrt(EarthMu / p)
	vPF := Vec3{-vScale * sinNu, vScale * (el.Eccentricity + cosNu), 0}

	dcm := perifocalToInertial(el.RAAN, el.Inclination, el.ArgPerigee)
	return dcm.MulVec(rPF), dcm.MulVec(vPF), nil
}

// ClassicalToStateVectorDeg is ClassicalToStateVector with all angular
// elements given in degrees.
func ClassicalToStateVectorDeg(sma, ecc, incDeg, raanDeg, argPeriDeg, trueAnomDeg float64) (Vec3, Vec3, error) {
	return ClassicalToStateVector(ClassicalElements{
		SemiMajorAxis: sma,
		Eccentricity:  ecc,
		Inclination:   incDeg * D2R,
		RAAN:          raanDeg * D2R,
		ArgPerigee:    argPeriDeg * D2R,
		TrueAnomaly:   trueAnomDeg * D2R,
	})
}

// StateVectorToClassical recovers classical elements from an inertial
// position and velocity about Earth.
func StateVectorToClassical(r, v Vec3) (ClassicalElements, error) {
	rMag := r.Norm()
	if rMag == 0 {
		return ClassicalElements{}, fmt.Errorf("astro: position vector is zero")
	}

	h := r.Cross(v)
	hMag := h.Norm()
	if hMag == 0 {
		return ClassicalElements{}, fmt.Errorf("astro: degenerate rectilinear orbit")
	}
	n := Vec3{0, 0, 1}.Cross(h)
	nMag := n.Norm()

	eVec := r.Scale(v.Dot(v)/EarthMu - 1/rMag).Sub(v.Scale(r.Dot(v) / EarthMu))
	ecc := eVec.Norm()
	if ecc >= 1 {
		return ClassicalElements{}, fmt.Errorf("astro: orbit is not elliptical, e = %g", ecc)
	}

	energy := v.Dot(v)/2 - EarthMu/rMag
	sma := -EarthMu / (2 * energy)

	inc := math.Acos(clamp(h[2]/hMag, -1, 1))

	var raan float64
	if nMag > 0 {
		raan = math.Acos(clamp(n[0]/nMag, -1, 1))
		if n[1] < 0 {
			raan = 2*math.Pi - raan
		}
	}

	var argPeri float64
	if nMag > 0 && ecc > 0 {
		argPeri = math.Acos(clamp(n.Dot(eVec)/(nMag*ecc), -1, 1))
		if eVec[2] < 0 {
			argPeri = 2*math.Pi - argPeri
		}
	}

	var trueAnom float64
	if ecc > 0 {
		trueAnom = math.Acos(clamp(eVec.Dot(r)/(ecc*rMag), -1, 1))
		if r.Dot(v) < 0 {
			trueAnom = 2*math.Pi - trueAnom
		}
	} else {
		// Circular orbit: measure from the ascending node instead.
		if nMag > 0 {
			trueAnom = math.Acos(clamp(n.Dot(r)/(nMag*rMag), -1, 1))
			if r[2] < 0 {
				trueAnom = 2*math.Pi - trueAnom
			}
		}
	}

	return ClassicalElements{
		SemiMajorAxis: sma,
		Eccentricity:  ecc,
		Inclination:   inc,
		RAAN:          raan,
		ArgPerigee:    argPeri,
		TrueAnomaly:   trueAnom,
	}, nil
}

// OrbitalPeriod returns the period of an elliptical orbit about Earth.
func OrbitalPeriod(sma float64) float64 {
	return 2 * math.Pi * math.Sqrt(sma*sma*sma/EarthMu)
}

// perifocalToInertial builds the 3-1-3 rotation taking perifocal
// coordinates into the inertial frame.
func perifocalToInertial(raan, inc, argPeri float64) Mat3 {
	rz := func(a float64) *mat.Dense {
		c, s := math.Cos(a), math.Sin(a)
		return mat.NewDense(3, 3, []float64{c, -s, 0, s, c, 0, 0, 0, 1})
	}
	c, s := math.Cos(inc), math.Sin(inc)
	rx := mat.NewDense(3, 3, []float64{1, 0, 0, 0, c, -s, 0, s, c})

	var tmp, dcm mat.Dense
	tmp.Mul(rx, rz(argPeri))
	dcm.Mul(rz(raan), &tmp)

	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = dcm.At(i, j)
		}
	}
	return out
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
