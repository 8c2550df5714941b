package geom

import (
	"math"
	"testing"
)

const tol = 1e-9

func TestBoxAccumulate(t *testing.T) {
	b := EmptyBox()
	if b.IsValid() {
		t.Fatal("empty box should be invalid")
	}
	b = b.Extend(V(1, 2, 3)).Extend(V(-1, 0, 5))
	if !b.IsValid() {
		t.Fatal("expected valid box after extend")
	}
	if b.Min != V(-1, 0, 3) || b.Max != V(1, 2, 5) {
		t.Errorf("unexpected bounds %v %v", b.Min, b.Max)
	}
	if got := b.Volume(); math.Abs(got-8) > tol {
		t.Errorf("Volume = %v, want 8", got)
	}
}

func TestBoxUnionIgnoresInvalid(t *testing.T) {
	a := NewBox(V(0, 0, 0), V(1, 1, 1))
	if got := a.Union(EmptyBox()); got != a {
		t.Errorf("union with empty changed box: %v", got)
	}
	if got := EmptyBox().Union(a); got != a {
		t.Errorf("empty union box = %v, want %v", got, a)
	}
}

func TestBoxIntersects(t *testing.T) {
	tests := []struct {
		name string
		a, b Box
		want bool
	}{
		{"overlap", NewBox(V(0, 0, 0), V(2, 2, 2)), NewBox(V(1, 1, 1), V(3, 3, 3)), true},
		{"touching", NewBox(V(0, 0, 0), V(1, 1, 1)), NewBox(V(1, 0, 0), V(2, 1, 1)), true},
		{"apart", NewBox(V(0, 0, 0), V(1, 1, 1)), NewBox(V(2, 0, 0), V(3, 1, 1)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Intersects(tt.b); got != tt.want {
				t.Errorf("Intersects = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlaneSignedDistance(t *testing.T) {
	p := PlaneFromPointNormal(V(0, 0, 1), V(0, 0, 2))
	if d := p.SignedDistance(V(5, 5, 3)); math.Abs(d-2) > tol {
		t.Errorf("SignedDistance = %v, want 2", d)
	}
	if d := p.Flip().SignedDistance(V(5, 5, 3)); math.Abs(d+2) > tol {
		t.Errorf("flipped SignedDistance = %v, want -2", d)
	}
}

func TestTransformIdentityZeroValue(t *testing.T) {
	var x Transform
	p := V(1, 2, 3)
	if got := x.TransformPosition(p); !NearlyEqual(got, p, tol) {
		t.Errorf("zero transform moved point to %v", got)
	}
	if !x.IsIdentity() {
		t.Error("zero transform should report identity")
	}
}

func TestTransformComposition(t *testing.T) {
	x := NewTransform(Rotator{Yaw: 90}, V(10, 0, 0), Splat(2))
	got := x.TransformPosition(V(1, 0, 0))
	// scale to (2,0,0), yaw 90 to (0,2,0), then translate.
	if !NearlyEqual(got, V(10, 2, 0), 1e-9) {
		t.Errorf("TransformPosition = %v, want (10,2,0)", got)
	}
	inv := Inverse(x.Matrix())
	back := TransformPosition(inv, got)
	if !NearlyEqual(back, V(1, 0, 0), 1e-9) {
		t.Errorf("inverse round trip = %v", back)
	}
}

func TestTransformPlane(t *testing.T) {
	p := PlaneFromPointNormal(V(0, 0, 0), AxisZ)
	m := Translation(V(0, 0, 5)).Matrix()
	q := TransformPlane(m, p)
	if !NearlyEqual(q.Normal, AxisZ, 1e-9) || math.Abs(q.D-5) > 1e-9 {
		t.Errorf("TransformPlane = %+v", q)
	}
}

func TestUnitAxisQuarterTurn(t *testing.T) {
	x := Identity().ConcatenateRotation(AxisAngle(AxisY, math.Pi/2))
	if got := x.UnitAxis(AxisZ); !NearlyEqual(got, V(1, 0, 0), 1e-9) {
		t.Errorf("UnitAxis(Z) = %v, want +X", got)
	}
}

func TestClamp(t *testing.T) {
	if Clamp(5, 0, 3) != 3 || Clamp(-1, 0, 3) != 0 || Clamp(2, 0, 3) != 2 {
		t.Error("Clamp returned wrong value")
	}
	if Clamp(0.5, 0.0, 0.25) != 0.25 {
		t.Error("Clamp float returned wrong value")
	}
}
