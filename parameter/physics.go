package parameter

import "time"

// Dino variant, light sensor driven. World units are pixels of an 800x400 field
const (
	DinoWidth         = 800.0
	DinoHeight        = 400.0
	DinoGroundOffset  = 40.0 // ground line sits this far above the bottom edge
	DinoEntityX       = 50.0
	DinoEntityWidth   = 40.0
	DinoEntityHeight  = 60.0
	DinoGravity       = 0.8
	DinoJumpStrength  = -15.0
	DinoObstacleSpeed = 5.0
	DinoObstacleWidth = 30.0
	// DinoObstacleHeight is measured up from the bottom edge, so obstacles reach below the ground line
	DinoObstacleHeight = 60.0
	DinoSpawnInterval  = 1500 * time.Millisecond
	DinoSpawnDelay     = 0
)

// Flappy variant, accelerometer driven, 400x600 field
const (
	FlappyWidth         = 400.0
	FlappyHeight        = 600.0
	FlappyEntityX       = 50.0
	FlappyEntitySize    = 40.0
	FlappyGravity       = 0.4
	FlappyJumpStrength  = -7.0
	FlappyObstacleSpeed = 2.0
	FlappyObstacleWidth = 50.0
	FlappyGap           = 200.0
	// FlappyGapMargin keeps the randomized gap at least this far from both edges
	FlappyGapMargin     = 100.0
	FlappySpawnInterval = 1500 * time.Millisecond
	// FlappySpawnDelay postpones the first pipe after a session starts
	FlappySpawnDelay = 2000 * time.Millisecond
)
