package systems

import (
	"github.com/pthm-cable/corgis/config"
	"github.com/pthm-cable/corgis/neural"
	"github.com/pthm-cable/corgis/territory"
)

// ActionParams holds action interpretation parameters.
type ActionParams struct {
	MaxSpeed       float32
	ClaimThreshold float32
	WorldW         float32
	WorldH         float32
}

// ActionParamsFrom extracts action parameters from cfg.
func ActionParamsFrom(cfg *config.Config) ActionParams {
	return ActionParams{
		MaxSpeed:       cfg.Derived.MaxSpeed32,
		ClaimThreshold: cfg.Derived.ClaimThresh32,
		WorldW:         cfg.Derived.WorldW32,
		WorldH:         cfg.Derived.WorldH32,
	}
}

// Action is the effect of one tick of network output.
type Action struct {
	VelX, VelY    float32 // Applied displacement this tick
	NewX, NewY    float32 // Position after movement, clamped to the world
	Movement      float32 // Requested speed / max speed, in [0,1]
	Claim         bool
	ClaimStrength float32
}

// Interpret converts network outputs into an Action.
// Slots 0-1 are a movement vector scaled by max speed and clamped to it.
// Slot 2 requests a claim on the destination tile when above the threshold,
// with the corgi's mass as claim strength. Other slots are ignored.
func Interpret(x, y, mass float32, outputs []float32, p ActionParams) Action {
	var a Action

	var ox, oy, oc float32
	if len(outputs) > neural.OutClaim {
		ox = finite(outputs[neural.OutMoveX])
		oy = finite(outputs[neural.OutMoveY])
		oc = outputs[neural.OutClaim]
	}

	vx := ox * p.MaxSpeed
	vy := oy * p.MaxSpeed
	speed := velocityMagnitude(vx, vy)
	if speed > p.MaxSpeed {
		scale := p.MaxSpeed / speed
		vx *= scale
		vy *= scale
		speed = p.MaxSpeed
	}
	if p.MaxSpeed > 0 {
		a.Movement = clamp01(speed / p.MaxSpeed)
	}

	x, y = finite(x), finite(y)
	a.NewX = clampFloat(x+vx, 0, p.WorldW)
	a.NewY = clampFloat(y+vy, 0, p.WorldH)
	a.VelX = a.NewX - x
	a.VelY = a.NewY - y

	if oc > p.ClaimThreshold {
		a.Claim = true
		a.ClaimStrength = finite(mass)
	}
	return a
}

// SubmitClaim stages a's claim, if any, on the tile at the action's destination.
// Safe for concurrent use.
func SubmitClaim(grid *territory.Grid, a Action, team territory.Team) {
	if !a.Claim {
		return
	}
	tx, ty := grid.TileAt(a.NewX, a.NewY)
	grid.Claim(tx, ty, team, a.ClaimStrength)
}
