package game

import (
	"fmt"
	"time"

	"github.com/lixenwraith/sensorloop/parameter"
	"github.com/lixenwraith/sensorloop/physics"
)

// Variant selects the physics and scoring rules
type Variant uint8

const (
	// VariantDino is a grounded runner: jumps only from the floor, scores per tick
	VariantDino Variant = iota
	// VariantFlappy is a free flyer between pipe pairs: boundaries are lethal, scores per pipe passed
	VariantFlappy
)

func (v Variant) String() string {
	switch v {
	case VariantDino:
		return "dino"
	case VariantFlappy:
		return "flappy"
	default:
		return fmt.Sprintf("Variant(%d)", uint8(v))
	}
}

// ParseVariant converts a config name into a Variant
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "dino":
		return VariantDino, nil
	case "flappy":
		return VariantFlappy, nil
	default:
		return 0, fmt.Errorf("unknown game variant %q", s)
	}
}

// Params is the complete tuning of one simulation; all rates are per tick
type Params struct {
	Variant Variant

	Width, Height float64
	// Ground is the floor line for the dino variant; the flappy variant uses Height
	Ground float64

	// Entity is the controlled actor's spawn box
	Entity physics.Rect

	Gravity      float64
	JumpStrength float64 // negative is upward

	ObstacleSpeed  float64
	ObstacleWidth  float64
	ObstacleHeight float64 // dino obstacles, measured from the bottom edge
	Gap            float64 // flappy pipe opening
	GapMargin      float64 // minimum distance between the opening and either edge

	SpawnInterval time.Duration
	SpawnDelay    time.Duration

	// ClearHistoryOnReset drops controller history on reset so a stale delta cannot start the next session
	ClearHistoryOnReset bool

	// Seed drives obstacle randomization
	Seed int64
}

// DinoParams returns the light-sensor runner tuning
func DinoParams() Params {
	h := parameter.DinoHeight
	return Params{
		Variant: VariantDino,
		Width:   parameter.DinoWidth,
		Height:  h,
		Ground:  h - parameter.DinoGroundOffset,
		Entity: physics.Rect{
			X: parameter.DinoEntityX,
			Y: h - parameter.DinoGroundOffset - parameter.DinoEntityHeight,
			W: parameter.DinoEntityWidth,
			H: parameter.DinoEntityHeight,
		},
		Gravity:             parameter.DinoGravity,
		JumpStrength:        parameter.DinoJumpStrength,
		ObstacleSpeed:       parameter.DinoObstacleSpeed,
		ObstacleWidth:       parameter.DinoObstacleWidth,
		ObstacleHeight:      parameter.DinoObstacleHeight,
		SpawnInterval:       parameter.DinoSpawnInterval,
		SpawnDelay:          parameter.DinoSpawnDelay,
		ClearHistoryOnReset: true,
	}
}

// FlappyParams returns the accelerometer flyer tuning
func FlappyParams() Params {
	w, h := parameter.FlappyWidth, parameter.FlappyHeight
	size := parameter.FlappyEntitySize
	return Params{
		Variant: VariantFlappy,
		Width:   w,
		Height:  h,
		Ground:  h,
		Entity: physics.Rect{
			X: parameter.FlappyEntityX,
			Y: h / 2,
			W: size,
			H: size,
		},
		Gravity:       parameter.FlappyGravity,
		JumpStrength:  parameter.FlappyJumpStrength,
		ObstacleSpeed: parameter.FlappyObstacleSpeed,
		ObstacleWidth: parameter.FlappyObstacleWidth,
		Gap:           parameter.FlappyGap,
		GapMargin:     parameter.FlappyGapMargin,
		SpawnInterval: parameter.FlappySpawnInterval,
		SpawnDelay:    parameter.FlappySpawnDelay,
	}
}

// ParamsFor returns the default tuning of a variant
func ParamsFor(v Variant) Params {
	if v == VariantFlappy {
		return FlappyParams()
	}
	return DinoParams()
}

// Validate rejects tunings the simulation cannot run
func (p Params) Validate() error {
	if !physics.Finite(p.Width, p.Height, p.Ground,
		p.Entity.X, p.Entity.Y, p.Entity.W, p.Entity.H,
		p.Gravity, p.JumpStrength,
		p.ObstacleSpeed, p.ObstacleWidth, p.ObstacleHeight,
		p.Gap, p.GapMargin) {
		return fmt.Errorf("tuning %+v has a non-finite value", p)
	}

	switch {
	case p.Width <= 0 || p.Height <= 0:
		return fmt.Errorf("world size %vx%v must be positive", p.Width, p.Height)
	case p.Entity.Empty():
		return fmt.Errorf("entity box %+v has no area", p.Entity)
	case p.ObstacleSpeed <= 0:
		return fmt.Errorf("obstacle speed %v must be positive", p.ObstacleSpeed)
	case p.ObstacleWidth <= 0:
		return fmt.Errorf("obstacle width %v must be positive", p.ObstacleWidth)
	case p.SpawnInterval <= 0:
		return fmt.Errorf("spawn interval %v must be positive", p.SpawnInterval)
	case p.SpawnDelay < 0:
		return fmt.Errorf("spawn delay %v must not be negative", p.SpawnDelay)
	case p.JumpStrength >= 0:
		return fmt.Errorf("jump strength %v must be negative (upward)", p.JumpStrength)
	case p.Gravity < 0:
		return fmt.Errorf("gravity %v must not be negative", p.Gravity)
	}

	switch p.Variant {
	case VariantDino:
		if p.Ground <= 0 || p.Ground > p.Height {
			return fmt.Errorf("ground %v outside world height %v", p.Ground, p.Height)
		}
		if p.ObstacleHeight <= 0 {
			return fmt.Errorf("obstacle height %v must be positive", p.ObstacleHeight)
		}
	case VariantFlappy:
		if p.Gap <= 0 || p.GapMargin < 0 || p.Gap+2*p.GapMargin > p.Height {
			return fmt.Errorf("gap %v with margin %v does not fit height %v", p.Gap, p.GapMargin, p.Height)
		}
	default:
		return fmt.Errorf("unknown variant %v", p.Variant)
	}
	return nil
}
