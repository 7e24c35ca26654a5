// Package control applies commands from a remote or local surface to the
// engine. Toggle semantics live here, not in the engine.
package control

import (
	"fmt"
)

type Action string

const (
	Play      Action = "play"
	Toggle    Action = "toggle"
	Stop      Action = "stop"
	SetVolume Action = "set_volume"
)

type Command struct {
	Action Action
	Sound  string
	Value  float64
}

// Player is the engine surface a command needs.
type Player interface {
	Play(id string) error
	Stop()
	Active() (string, bool)
	SetVolume(v float64)
}

// Apply runs cmd against p. Toggling the active soundscape stops it;
// toggling any other one switches to it.
func Apply(p Player, cmd Command) error {
	switch cmd.Action {
	case Play:
		return p.Play(cmd.Sound)
	case Toggle:
		if id, ok := p.Active(); ok && id == cmd.Sound {
			p.Stop()
			return nil
		}
		return p.Play(cmd.Sound)
	case Stop:
		p.Stop()
		return nil
	case SetVolume:
		p.SetVolume(cmd.Value)
		return nil
	}
	return fmt.Errorf("unknown action %q", cmd.Action)
}

// PercentToVolume converts a 0-100 slider value to the engine's [0, 1] range.
func PercentToVolume(percent float64) float64 {
	return percent / 100
}
