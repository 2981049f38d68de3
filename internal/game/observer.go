package game

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// Observer is the headless stand-in for a player: a position the world
// streams around, moved by a constant velocity once enabled.
type Observer struct {
	mu       sync.Mutex
	position mgl32.Vec3
	velocity mgl32.Vec3
	enabled  bool
}

// NewObserver returns a disabled observer at pos with zero velocity.
func NewObserver(pos mgl32.Vec3) *Observer {
	return &Observer{position: pos}
}

// Position is the current world-space position.
func (o *Observer) Position() mgl32.Vec3 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.position
}

// SetPosition moves the observer to p.
func (o *Observer) SetPosition(p mgl32.Vec3) {
	o.mu.Lock()
	o.position = p
	o.mu.Unlock()
}

// SetVelocity sets the velocity in blocks per second.
func (o *Observer) SetVelocity(v mgl32.Vec3) {
	o.mu.Lock()
	o.velocity = v
	o.mu.Unlock()
}

// Velocity is the current velocity in blocks per second.
func (o *Observer) Velocity() mgl32.Vec3 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.velocity
}

// Enable lets Update move the observer.
func (o *Observer) Enable() {
	o.mu.Lock()
	o.enabled = true
	o.mu.Unlock()
}

// Enabled reports whether Enable was called.
func (o *Observer) Enabled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.enabled
}

// Update integrates the velocity over dt seconds. Disabled observers stay put.
func (o *Observer) Update(dt float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.enabled {
		return
	}
	o.position = o.position.Add(o.velocity.Mul(float32(dt)))
}
