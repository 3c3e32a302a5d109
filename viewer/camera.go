// Package viewer provides an interactive 3D view of a running simulation:
// monomers drawn as cubes colored by species, an orbiting camera, and a
// small control panel.
package viewer

import "math"

// OrbitCamera orbits a target point at a fixed distance, controlled by yaw,
// pitch and zoom.
type OrbitCamera struct {
	// Target is the orbit center in world coordinates
	TargetX, TargetY, TargetZ float32

	// Yaw and Pitch in radians
	Yaw, Pitch float32

	// Distance from the target
	Distance float32

	// Zoom constraints
	MinDistance, MaxDistance float32
}

// maxPitch keeps the camera off the poles where the up vector degenerates.
const maxPitch = 1.45

// NewOrbit creates a camera centered on a box of the given dimensions.
func NewOrbit(bx, by, bz float32) *OrbitCamera {
	maxEdge := bx
	if by > maxEdge {
		maxEdge = by
	}
	if bz > maxEdge {
		maxEdge = bz
	}
	return &OrbitCamera{
		TargetX:     bx / 2,
		TargetY:     by / 2,
		TargetZ:     bz / 2,
		Yaw:         0.8,
		Pitch:       0.5,
		Distance:    2.2 * maxEdge,
		MinDistance: maxEdge * 0.3,
		MaxDistance: maxEdge * 8,
	}
}

// Rotate adjusts yaw and pitch, clamping pitch away from the poles.
func (c *OrbitCamera) Rotate(dyaw, dpitch float32) {
	c.Yaw += dyaw
	c.Pitch += dpitch
	if c.Pitch > maxPitch {
		c.Pitch = maxPitch
	}
	if c.Pitch < -maxPitch {
		c.Pitch = -maxPitch
	}
}

// Zoom moves the camera along the view ray; positive delta zooms in.
func (c *OrbitCamera) Zoom(delta float32) {
	c.Distance -= delta
	if c.Distance < c.MinDistance {
		c.Distance = c.MinDistance
	}
	if c.Distance > c.MaxDistance {
		c.Distance = c.MaxDistance
	}
}

// Position returns the camera location in world coordinates.
func (c *OrbitCamera) Position() (x, y, z float32) {
	cp := float32(math.Cos(float64(c.Pitch)))
	sp := float32(math.Sin(float64(c.Pitch)))
	sy := float32(math.Sin(float64(c.Yaw)))
	cy := float32(math.Cos(float64(c.Yaw)))
	x = c.TargetX + c.Distance*cp*sy
	y = c.TargetY + c.Distance*sp
	z = c.TargetZ + c.Distance*cp*cy
	return x, y, z
}
