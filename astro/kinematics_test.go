package astro

import (
	"math"
	"math/rand"
	"testing"
)

func TestMRPFromAxisAngleNorm(t *testing.T) {
	for _, angle := range []float64{0, 0.1, math.Pi / 4, math.Pi / 2, 3} {
		sigma := MRPFromAxisAngle(Vec3{1, 2, -0.5}, angle)
		want := math.Tan(angle / 4)
		if !near(sigma.Norm(), want, 1e-12) {
			t.Fatalf("MRP norm for angle %g = %g, want tan(angle/4) = %g", angle, sigma.Norm(), want)
		}
	}
}

func TestMRPFromAxisAngleDirection(t *testing.T) {
	sigma := MRPFromAxisAngle(Vec3{0, 0, 2}, math.Pi/2)
	if sigma[0] != 0 || sigma[1] != 0 {
		t.Fatalf("rotation about z has off-axis components: %v", sigma)
	}
	if sigma[2] <= 0 {
		t.Fatalf("positive rotation should give positive sigma_z, got %g", sigma[2])
	}
}

func TestRandomMRPBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		sigma := RandomMRP(rng)
		// Angle in [0, pi) keeps the norm under tan(pi/4) = 1.
		if sigma.Norm() >= 1 {
			t.Fatalf("sample %d has norm %g, want < 1", i, sigma.Norm())
		}
	}
}

func TestRandomMRPDeterministicPerSeed(t *testing.T) {
	a := RandomMRP(rand.New(rand.NewSource(42)))
	b := RandomMRP(rand.New(rand.NewSource(42)))
	if a != b {
		t.Fatalf("same seed produced %v and %v", a, b)
	}
}

func TestNormalizeAngle(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, 0},
		{math.Pi, math.Pi},
		{2 * math.Pi, 0},
		{-math.Pi / 2, 3 * math.Pi / 2},
		{5 * math.Pi, math.Pi},
	}
	for _, tc := range cases {
		if got := NormalizeAngle(tc.in); !near(got, tc.want, 1e-12) {
			t.Fatalf("NormalizeAngle(%g) = %g, want %g", tc.in, got, tc.want)
		}
	}
}

func checkOrthonormal(t *testing.T, m Mat3) {
	t.Helper()
	prod := m.Mul(m.Transpose())
	eye := Identity3()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if !near(prod[i][j], eye[i][j], 1e-12) {
				t.Fatalf("M*M^T != I at (%d,%d): %g", i, j, prod[i][j])
			}
		}
	}
}

func TestUpVectorToDCM(t *testing.T) {
	for _, up := range []Vec3{
		{0, 0, 1}, {1, 0, 0}, {0.29, 0.29, 0.91}, {-0.71, 0.71, 0},
	} {
		m := UpVectorToDCM(up)
		checkOrthonormal(t, m)
		w := up.Unit()
		for k := 0; k < 3; k++ {
			if !near(m[2][k], w[k], 1e-12) {
				t.Fatalf("third row of DCM for up %v is %v, want %v", up, m[2], w)
			}
		}
	}
	if UpVectorToDCM(Vec3{}) != Identity3() {
		t.Fatalf("zero up vector should fall back to identity")
	}
}

func TestUpAxisToDCM(t *testing.T) {
	for _, axis := range []string{"x", "-x", "y", "-y", "z", "-z", "+x", "+y", "+z"} {
		m, err := UpAxisToDCM(axis)
		if err != nil {
			t.Fatalf("UpAxisToDCM(%q) error: %v", axis, err)
		}
		checkOrthonormal(t, m)
	}
	if _, err := UpAxisToDCM("w"); err == nil {
		t.Fatalf("expected error for unknown axis")
	}
	if m, _ := UpAxisToDCM("z"); m != Identity3() {
		t.Fatalf("z axis should be the identity, got %v", m)
	}
}

func TestCoplanarCircularPhasing(t *testing.T) {
	c := CoplanarCircular{
		Count:         5,
		SemiMajorAxis: 7000e3,
		Inclination:   45 * D2R,
		RAAN:          35 * D2R,
	}
	rs, vs, err := c.InitStateVectors()
	if err != nil {
		t.Fatalf("InitStateVectors error: %v", err)
	}
	if len(rs) != 5 || len(vs) != 5 {
		t.Fatalf("got %d positions and %d velocities, want 5 each", len(rs), len(vs))
	}

	// All satellites share the circular radius and speed.
	speed := math.Sqrt(EarthMu / c.SemiMajorAxis)
	for i := range rs {
		if !near(rs[i].Norm(), c.SemiMajorAxis, 1e-3) {
			t.Fatalf("satellite %d radius = %g", i, rs[i].Norm())
		}
		if !near(vs[i].Norm(), speed, 1e-6) {
			t.Fatalf("satellite %d speed = %g, want %g", i, vs[i].Norm(), speed)
		}
	}

	// Neighbouring satellites sit 2*pi/5 apart in the plane.
	wantSep := 2 * math.Pi / 5
	for i := 0; i < 4; i++ {
		cosSep := rs[i].Dot(rs[i+1]) / (rs[i].Norm() * rs[i+1].Norm())
		if !near(math.Acos(clamp(cosSep, -1, 1)), wantSep, 1e-9) {
			t.Fatalf("separation %d = %g, want %g", i, math.Acos(cosSep), wantSep)
		}
	}
}

func TestCoplanarCircularRejectsEmpty(t *testing.T) {
	if _, _, err := (CoplanarCircular{Count: 0, SemiMajorAxis: 7000e3}).InitStateVectors(); err == nil {
		t.Fatalf("expected error for empty constellation")
	}
}
