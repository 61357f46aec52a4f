package parameter

// Control signal defaults
const (
	// HistoryWindow is the default number of readings retained by the controller
	HistoryWindow = 10

	// LightThreshold is the illuminance change (lux) that counts as a trigger
	LightThreshold = 5.0

	// TiltThreshold is the positive z acceleration (m/s²) that counts as a jump
	TiltThreshold = 2.0

	// TiltStartThreshold is the tilt in either direction that starts a session
	TiltStartThreshold = 1.0
)
