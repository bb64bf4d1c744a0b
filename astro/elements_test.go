package astro

import (
	"math"
	"testing"
)

const tol = 1e-8

func near(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestClassicalToStateVectorCircularEquatorial(t *testing.T) {
	sma := 7000e3
	r, v, err := ClassicalToStateVector(ClassicalElements{SemiMajorAxis: sma})
	if err != nil {
		t.Fatalf("ClassicalToStateVector error: %v", err)
	}
	if !near(r.Norm(), sma, 1e-3) {
		t.Fatalf("|r| = %g, want %g", r.Norm(), sma)
	}
	wantSpeed := math.Sqrt(EarthMu / sma)
	if !near(v.Norm(), wantSpeed, 1e-6) {
		t.Fatalf("|v| = %g, want %g", v.Norm(), wantSpeed)
	}
	if !near(r.Dot(v), 0, 1e-3) {
		t.Fatalf("r.v = %g, want 0 for a circular orbit", r.Dot(v))
	}
}

func TestStateVectorRoundTrip(t *testing.T) {
	want := ClassicalElements{
		SemiMajorAxis: 8000e3,
		Eccentricity:  0.1,
		Inclination:   25 * D2R,
		RAAN:          270 * D2R,
		ArgPerigee:    10 * D2R,
		TrueAnomaly:   100 * D2R,
	}
	r, v, err := ClassicalToStateVector(want)
	if err != nil {
		t.Fatalf("ClassicalToStateVector error: %v", err)
	}
	got, err := StateVectorToClassical(r, v)
	if err != nil {
		t.Fatalf("StateVectorToClassical error: %v", err)
	}

	if !near(got.SemiMajorAxis, want.SemiMajorAxis, 1e-2) {
		t.Fatalf("sma = %g, want %g", got.SemiMajorAxis, want.SemiMajorAxis)
	}
	if !near(got.Eccentricity, want.Eccentricity, 1e-8) {
		t.Fatalf("ecc = %g, want %g", got.Eccentricity, want.Eccentricity)
	}
	angles := [][2]float64{
		{got.Inclination, want.Inclination},
		{got.RAAN, want.RAAN},
		{got.ArgPerigee, want.ArgPerigee},
		{got.TrueAnomaly, want.TrueAnomaly},
	}
	for i, pair := range angles {
		if !near(NormalizeAngle(pair[0]), NormalizeAngle(pair[1]), 1e-8) {
			t.Fatalf("angle %d = %g, want %g", i, pair[0], pair[1])
		}
	}
}

func TestClassicalToStateVectorDegMatchesRadians(t *testing.T) {
	rDeg, vDeg, err := ClassicalToStateVectorDeg(6631000, 0, -96, 0, 0, 100)
	if err != nil {
		t.Fatalf("ClassicalToStateVectorDeg error: %v", err)
	}
	rRad, vRad, err := ClassicalToStateVector(ClassicalElements{
		SemiMajorAxis: 6631000,
		Inclination:   -96 * D2R,
		TrueAnomaly:   100 * D2R,
	})
	if err != nil {
		t.Fatalf("ClassicalToStateVector error: %v", err)
	}
	if rDeg.Sub(rRad).Norm() > tol || vDeg.Sub(vRad).Norm() > tol {
		t.Fatalf("degree wrapper diverges: r %v vs %v", rDeg, rRad)
	}
}

func TestClassicalToStateVectorRejectsBadElements(t *testing.T) {
	if _, _, err := ClassicalToStateVector(ClassicalElements{SemiMajorAxis: -1}); err == nil {
		t.Fatalf("expected error for negative semi-major axis")
	}
	if _, _, err := ClassicalToStateVector(ClassicalElements{SemiMajorAxis: 7000e3, Eccentricity: 1.2}); err == nil {
		t.Fatalf("expected error for hyperbolic eccentricity")
	}
}

func TestStateVectorToClassicalRejectsDegenerate(t *testing.T) {
	if _, err := StateVectorToClassical(Vec3{}, Vec3{1, 0, 0}); err == nil {
		t.Fatalf("expected error for zero position")
	}
	// Radial trajectory has no angular momentum.
	if _, err := StateVectorToClassical(Vec3{7000e3, 0, 0}, Vec3{1000, 0, 0}); err == nil {
		t.Fatalf("expected error for rectilinear motion")
	}
}

func TestOrbitalPeriod(t *testing.T) {
	// Geostationary altitude should come out at one sidereal day.
	got := OrbitalPeriod(42164e3)
	if !near(got, 86164, 10) {
		t.Fatalf("OrbitalPeriod(42164 km) = %g s, want ~86164", got)
	}
}
