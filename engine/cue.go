package engine

import (
	"fmt"

	"github.com/lixenwraith/sensorloop/game"
)

// Cue is a discrete session event derived by comparing consecutive frames
type Cue uint8

const (
	CueStart Cue = iota
	CueJump
	CueCrash
)

func (c Cue) String() string {
	switch c {
	case CueStart:
		return "start"
	case CueJump:
		return "jump"
	case CueCrash:
		return "crash"
	default:
		return fmt.Sprintf("Cue(%d)", uint8(c))
	}
}

// detectCues appends the cues implied by the transition prev → next
// The jump applied on the starting tick is reported as CueStart only
func detectCues(dst []Cue, prev, next *game.Frame) []Cue {
	if prev == nil {
		return dst
	}
	switch {
	case prev.Lifecycle == game.NotStarted && next.Lifecycle == game.Running:
		dst = append(dst, CueStart)
	case prev.Lifecycle == game.Running && next.Lifecycle == game.Over:
		dst = append(dst, CueCrash)
	case next.Lifecycle == game.Running && next.Jumps > prev.Jumps:
		dst = append(dst, CueJump)
	}
	return dst
}
