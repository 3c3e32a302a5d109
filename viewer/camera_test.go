package viewer

import (
	"math"
	"testing"
)

func TestNewOrbitCentersOnBox(t *testing.T) {
	cam := NewOrbit(64, 64, 32)
	if cam.TargetX != 32 || cam.TargetY != 32 || cam.TargetZ != 16 {
		t.Errorf("target = (%f,%f,%f), want box center", cam.TargetX, cam.TargetY, cam.TargetZ)
	}
	if cam.Distance <= 64 {
		t.Errorf("initial distance %f should exceed the largest edge", cam.Distance)
	}
}

func TestRotateClampsPitch(t *testing.T) {
	cam := NewOrbit(8, 8, 8)
	cam.Rotate(0, 10)
	if cam.Pitch > maxPitch {
		t.Errorf("pitch %f above clamp", cam.Pitch)
	}
	cam.Rotate(0, -20)
	if cam.Pitch < -maxPitch {
		t.Errorf("pitch %f below clamp", cam.Pitch)
	}
}

func TestZoomClampsDistance(t *testing.T) {
	cam := NewOrbit(8, 8, 8)
	cam.Zoom(1e6)
	if cam.Distance < cam.MinDistance {
		t.Errorf("distance %f below minimum %f", cam.Distance, cam.MinDistance)
	}
	cam.Zoom(-1e6)
	if cam.Distance > cam.MaxDistance {
		t.Errorf("distance %f above maximum %f", cam.Distance, cam.MaxDistance)
	}
}

func TestPositionStaysOnSphere(t *testing.T) {
	cam := NewOrbit(16, 16, 16)
	for _, step := range []struct{ dy, dp float32 }{{0.3, 0.1}, {1.2, -0.4}, {-2.0, 0.9}} {
		cam.Rotate(step.dy, step.dp)
		x, y, z := cam.Position()
		dx := float64(x - cam.TargetX)
		dy := float64(y - cam.TargetY)
		dz := float64(z - cam.TargetZ)
		r := math.Sqrt(dx*dx + dy*dy + dz*dz)
		if math.Abs(r-float64(cam.Distance)) > 1e-3 {
			t.Errorf("camera radius %f, want %f", r, cam.Distance)
		}
	}
}
