package physics

import "wolfpit/internal/sim/fixedpoint"

// Explosion models an expanding-radius area impulse (spec §4.4 "force
// propagation"). CurrentRadius grows by ExpansionSpeed*dt each step;
// bodies inside CurrentRadius receive a falloff-scaled impulse along the
// origin->body direction until CurrentRadius reaches MaxRadius, at which
// point the explosion deactivates.
type Explosion struct {
	Origin         fixedpoint.Vec2
	MaxRadius      fixedpoint.Fixed
	ExpansionSpeed fixedpoint.Fixed
	MaxForce       fixedpoint.Fixed
	CurrentRadius  fixedpoint.Fixed
	Active         bool
	// Line of sight is not stored on the explosion: ApplyToBody's
	// losBlocked argument halves the effective force for one body. The
	// world has no notion of occluders, and World.stepExplosions always
	// passes false.
}

// NewExplosion constructs an active explosion starting at zero radius.
func NewExplosion(origin fixedpoint.Vec2, maxRadius, expansionSpeed, maxForce fixedpoint.Fixed) *Explosion {
	return &Explosion{
		Origin:         origin,
		MaxRadius:      maxRadius,
		ExpansionSpeed: expansionSpeed,
		MaxForce:       maxForce,
		Active:         true,
	}
}

// Step grows the explosion's radius and deactivates it once MaxRadius is
// reached.
func (e *Explosion) Step(dt fixedpoint.Fixed) {
	if !e.Active {
		return
	}
	e.CurrentRadius = e.CurrentRadius.Add(e.ExpansionSpeed.Mul(dt))
	if e.CurrentRadius >= e.MaxRadius {
		e.CurrentRadius = e.MaxRadius
		e.Active = false
	}
}

// falloff returns (1 - d/currentRadius)^2, clamped to [0,1].
func (e *Explosion) falloff(d fixedpoint.Fixed) fixedpoint.Fixed {
	if e.CurrentRadius <= 0 {
		return 0
	}
	ratio := d.Div(e.CurrentRadius).Clamp(0, fixedpoint.One)
	rem := fixedpoint.One.Sub(ratio)
	return rem.Mul(rem)
}

// ApplyToBody applies this explosion's impulse to b if b is within
// CurrentRadius, scaled by distance falloff, a material density response
// factor, and halved if losBlocked is true (spec §4.4's line-of-sight
// rule). Returns the impulse magnitude applied (0 if out of range).
func (e *Explosion) ApplyToBody(b *Body, materialDensityResponse fixedpoint.Fixed, losBlocked bool) fixedpoint.Fixed {
	if !e.Active && e.CurrentRadius == 0 {
		return 0
	}
	delta := b.Pos.Sub(e.Origin)
	dist := delta.Length()
	if dist > e.CurrentRadius {
		return 0
	}
	dir := delta.Normalized()
	if dist == 0 {
		dir = fixedpoint.Vec2{X: fallbackNormalX, Y: 0}
	}

	magnitude := e.MaxForce.Mul(e.falloff(dist)).Mul(materialDensityResponse)
	if losBlocked {
		magnitude = magnitude.Mul(fixedpoint.Half)
	}
	b.ApplyImpulse(dir.Scale(magnitude))
	return magnitude
}

// ForceNode is a scripted impulse-chain node: up to 8 connections, each
// with a transmission efficiency in [0,1]. Propagate applies a single hop;
// callers iterate across a chain of nodes themselves (spec §4.4).
type ForceNode struct {
	BodyID      uint32
	Connections [8]ForceConnection
	NumConns    int
}

// ForceConnection names a target node/body and how much of an incoming
// impulse passes through to it.
type ForceConnection struct {
	TargetBodyID          uint32
	TransmissionEfficiency fixedpoint.Fixed
}

// AddConnection appends a connection if capacity remains (silently ignored
// past 8, matching this kernel's bounded, never-panic posture).
func (n *ForceNode) AddConnection(targetBodyID uint32, efficiency fixedpoint.Fixed) {
	if n.NumConns >= len(n.Connections) {
		return
	}
	n.Connections[n.NumConns] = ForceConnection{
		TargetBodyID:           targetBodyID,
		TransmissionEfficiency: efficiency.Clamp(0, fixedpoint.One),
	}
	n.NumConns++
}

// Propagate applies impulse*efficiency to each connected body for a single
// hop. The world is needed to look up target bodies.
func (n *ForceNode) Propagate(w *World, impulse fixedpoint.Vec2) {
	for i := 0; i < n.NumConns; i++ {
		conn := n.Connections[i]
		target := w.Body(conn.TargetBodyID)
		if target == nil {
			continue
		}
		target.ApplyImpulse(impulse.Scale(conn.TransmissionEfficiency))
	}
}
