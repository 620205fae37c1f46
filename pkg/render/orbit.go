package render

import (
	"github.com/charmbracelet/harmonica"
	"github.com/taigrr/tinyrender/pkg/math3d"
)

// OrbitY rotates the camera position about its target by angle radians
// around the world Y axis. The distance to the target is preserved.
func OrbitY(cam *Camera, angle float64) {
	OrbitAxis(cam, math3d.Up(), angle)
}

// OrbitAxis rotates the camera position about its target by angle radians
// around axis. The distance to the target is preserved.
func OrbitAxis(cam *Camera, axis math3d.Vec3, angle float64) {
	offset := cam.Position.Sub(cam.Target)
	cam.Position = cam.Target.Add(math3d.Rotate(axis, angle).MulVec3Dir(offset))
}

// Orbit spins a camera around its target with a velocity that decays
// smoothly to rest.
type Orbit struct {
	// Angle is the total rotation applied so far.
	Angle    float64
	Velocity float64

	spring harmonica.Spring
	accel  float64 // spring velocity used to animate Velocity toward 0
}

// NewOrbit creates an orbit stepped fps times per second.
func NewOrbit(fps int) *Orbit {
	return &Orbit{
		// Frequency 4.0 = moderate speed, damping 1.0 = critically damped (no overshoot)
		spring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
}

// Nudge adds v radians per step to the spin.
func (o *Orbit) Nudge(v float64) {
	o.Velocity += v
}

// Step advances one frame and returns the angle to rotate by.
func (o *Orbit) Step() float64 {
	delta := o.Velocity
	o.Angle += delta
	o.Velocity, o.accel = o.spring.Update(o.Velocity, o.accel, 0)
	return delta
}

// Apply steps the orbit and moves cam accordingly.
func (o *Orbit) Apply(cam *Camera) {
	if d := o.Step(); d != 0 {
		OrbitY(cam, d)
	}
}

// Stop brings the spin to rest immediately.
func (o *Orbit) Stop() {
	o.Velocity, o.accel = 0, 0
}
