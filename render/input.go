package render

import (
	"context"

	"github.com/gdamore/tcell/v2"
)

// Action is what the binary does in response to a terminal event
type Action uint8

const (
	ActionNone Action = iota
	ActionRestart
	ActionQuit
	ActionMute
	ActionPause
	ActionRedraw
)

// Translate maps a terminal event onto an Action
func Translate(ev tcell.Event) Action {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return ActionQuit
		case tcell.KeyRune:
			switch ev.Rune() {
			case ' ':
				return ActionRestart
			case 'q', 'Q':
				return ActionQuit
			case 'm', 'M':
				return ActionMute
			case 'p', 'P':
				return ActionPause
			}
		}
	case *tcell.EventResize:
		return ActionRedraw
	}
	return ActionNone
}

// PollEvents pumps screen events into a channel until ctx ends or the screen is finalized
func PollEvents(ctx context.Context, screen tcell.Screen) <-chan tcell.Event {
	ch := make(chan tcell.Event, 16)
	go func() {
		defer close(ch)
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
