// Package camera implements a turntable orbit camera that keeps spinning
// after the pointer is released, slowing down exponentially.
package camera

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r2"

	"seismicview/pkg/eventloop"
)

// State is the public orientation of the camera.
type State struct {
	Azimuth     float64 `yaml:"azimuth"`
	Elevation   float64 `yaml:"elevation"`
	FOV         float64 `yaml:"fov"`
	ScaleFactor float64 `yaml:"scaleFactor"`
	Distance    float64 `yaml:"distance"`
}

// Config holds the integrator parameters.
type Config struct {
	// DecayFactor multiplies the velocity on every tick.
	DecayFactor float64 `yaml:"decayFactor"`

	// VelocityScale converts pointer pixels per event into velocity.
	VelocityScale float64 `yaml:"velocityScale"`

	// Sensitivity converts velocity into degrees per tick.
	Sensitivity float64 `yaml:"sensitivity"`

	// Threshold is the speed below which motion stops.
	Threshold float64 `yaml:"threshold"`

	// TickInterval is the decay timer period.
	TickInterval time.Duration `yaml:"tickInterval"`

	// OrbitSpeed converts pointer pixels into degrees during a live drag.
	OrbitSpeed float64 `yaml:"orbitSpeed"`
}

// DefaultConfig returns the standard inertia settings.
func DefaultConfig() Config {
	return Config{
		DecayFactor:   0.95,
		VelocityScale: 0.1,
		Sensitivity:   0.2,
		Threshold:     1e-5,
		TickInterval:  8 * time.Millisecond,
		OrbitSpeed:    0.5,
	}
}

// Scheduler runs fn every period on the caller's event loop.
type Scheduler interface {
	Schedule(period time.Duration, fn func()) eventloop.Canceler
}

// Mode is the integrator mode.
type Mode int

const (
	// Tracking follows the pointer; the camera is at rest once released.
	Tracking Mode = iota
	// Decaying coasts on the velocity left by the last drag.
	Decaying
)

func (m Mode) String() string {
	if m == Decaying {
		return "decaying"
	}
	return "tracking"
}

// Inertial is an orbit camera with post-release inertia.
type Inertial struct {
	cfg      Config
	state    State
	defaults State

	velocity r2.Vec
	lastPos  *r2.Vec
	pressed  bool
	inertia  bool

	sched    Scheduler
	task     eventloop.Canceler
	onChange []func(State)
	log      *logrus.Entry
}

// New creates a camera at defaults. sched may be nil, in which case Tick
// must be driven by the caller.
func New(defaults State, cfg Config, sched Scheduler) *Inertial {
	return &Inertial{
		cfg:      cfg,
		state:    defaults,
		defaults: defaults,
		sched:    sched,
		log:      logrus.WithField("component", "camera"),
	}
}

// State returns the current orientation.
func (c *Inertial) State() State {
	return c.state
}

// Defaults returns the state Reset restores.
func (c *Inertial) Defaults() State {
	return c.defaults
}

// SetDefaults replaces the state Reset restores.
func (c *Inertial) SetDefaults(s State) {
	c.defaults = s
}

// SetState applies s and notifies listeners.
func (c *Inertial) SetState(s State) {
	s.Elevation = clampElevation(s.Elevation)
	s.Azimuth = wrapAzimuth(s.Azimuth)
	c.state = s
	for _, fn := range c.onChange {
		fn(s)
	}
}

// OnChange registers fn to receive every applied state.
func (c *Inertial) OnChange(fn func(State)) {
	c.onChange = append(c.onChange, fn)
}

// Velocity returns the integrator velocity.
func (c *Inertial) Velocity() r2.Vec {
	return c.velocity
}

// InertiaActive reports whether the camera is coasting.
func (c *Inertial) InertiaActive() bool {
	return c.inertia
}

// Mode returns the integrator mode.
func (c *Inertial) Mode() Mode {
	if c.inertia {
		return Decaying
	}
	return Tracking
}

// Press starts tracking at pos. Any ongoing decay stops immediately.
func (c *Inertial) Press(pos r2.Vec) {
	c.stopDecay()
	c.velocity = r2.Vec{}
	c.pressed = true
	c.lastPos = &pos
}

// Stop halts any decay and zeroes the velocity. Tracking state is left
// alone, so a drag in progress continues.
func (c *Inertial) Stop() {
	c.stopDecay()
	c.velocity = r2.Vec{}
}

// Move records the pointer velocity while tracking. Orientation is not
// changed here; live rotation goes through Orbit.
func (c *Inertial) Move(pos r2.Vec) {
	if !c.pressed {
		return
	}
	if c.lastPos != nil {
		c.velocity = r2.Scale(c.cfg.VelocityScale, r2.Sub(pos, *c.lastPos))
	}
	c.lastPos = &pos
}

// Release ends tracking and starts decaying if the camera was moving.
func (c *Inertial) Release() {
	c.pressed = false
	c.lastPos = nil
	if r2.Norm(c.velocity) == 0 {
		return
	}
	c.inertia = true
	if c.sched != nil && c.task == nil {
		c.task = c.sched.Schedule(c.cfg.TickInterval, c.Tick)
	}
	c.log.WithField("velocity", c.velocity).Debug("Inertia started")
}

// Tick advances the decay by one timer period.
func (c *Inertial) Tick() {
	if !c.inertia {
		return
	}
	c.velocity = r2.Scale(c.cfg.DecayFactor, c.velocity)
	if r2.Norm(c.velocity) < c.cfg.Threshold {
		c.velocity = r2.Vec{}
		c.stopDecay()
		return
	}
	s := c.state
	s.Azimuth += c.velocity.X * c.cfg.Sensitivity
	s.Elevation += c.velocity.Y * c.cfg.Sensitivity
	c.SetState(s)
}

// Orbit rotates the camera by a raw pointer displacement.
func (c *Inertial) Orbit(delta r2.Vec) {
	s := c.state
	s.Azimuth += delta.X * c.cfg.OrbitSpeed
	s.Elevation += delta.Y * c.cfg.OrbitSpeed
	c.SetState(s)
}

// Zoom multiplies the scale factor.
func (c *Inertial) Zoom(factor float64) {
	if factor <= 0 {
		return
	}
	s := c.state
	s.ScaleFactor *= factor
	c.SetState(s)
}

// Reset stops any motion and restores the default orientation.
func (c *Inertial) Reset() {
	c.stopDecay()
	c.velocity = r2.Vec{}
	c.pressed = false
	c.lastPos = nil
	c.SetState(c.defaults)
}

// Close cancels the decay timer.
func (c *Inertial) Close() {
	c.stopDecay()
}

func (c *Inertial) stopDecay() {
	c.inertia = false
	if c.task != nil {
		c.task.Cancel()
		c.task = nil
	}
}

func clampElevation(e float64) float64 {
	return math.Max(-90, math.Min(90, e))
}

func wrapAzimuth(a float64) float64 {
	a = math.Mod(a+180, 360)
	if a <= 0 {
		a += 360
	}
	return a - 180
}
