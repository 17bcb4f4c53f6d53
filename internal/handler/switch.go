package handler

import (
	"errors"
	"fmt"

	"github.com/physbox/sandbox/internal/input"
	"go.uber.org/zap"
)

var ErrNotSwitch = errors.New("entity is not a switch")

// HandleToggle flips a switch. The broadcast to its group happens in the
// activation system later in the same tick.
func HandleToggle(cmd input.Command, deps *Deps) error {
	sw, ok := deps.World.Switches.Get(cmd.Target)
	if !ok {
		return fmt.Errorf("toggle %s: %w", deps.World.NameOf(cmd.Target), ErrNotSwitch)
	}
	sw.On = !sw.On
	sw.Dirty = true
	deps.Log.Info("toggle",
		zap.String("switch", deps.World.NameOf(cmd.Target)),
		zap.Bool("on", sw.On),
	)
	return nil
}
