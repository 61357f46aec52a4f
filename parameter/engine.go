package parameter

import "time"

// Simulation loop timing
const (
	// TickRate is the default simulation rate in ticks per second
	TickRate = 60

	// MaxTickRate bounds configurable rates to what a terminal frame can follow
	MaxTickRate = 1000

	// MaxTicksBehind bounds how far the scheduler may lag before it drops the backlog and re-anchors
	MaxTicksBehind = 2

	// HeadlessReportInterval is how often headless mode logs a frame summary
	HeadlessReportInterval = 2 * time.Second
)
