package game

import "fmt"

// Lifecycle is the session state; transitions are NotStarted → Running → Over → (reset) NotStarted
type Lifecycle uint8

const (
	NotStarted Lifecycle = iota
	Running
	Over
)

func (l Lifecycle) String() string {
	switch l {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case Over:
		return "over"
	default:
		return fmt.Sprintf("Lifecycle(%d)", uint8(l))
	}
}
