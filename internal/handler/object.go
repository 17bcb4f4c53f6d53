package handler

import (
	"fmt"

	"github.com/physbox/sandbox/internal/input"
	"github.com/physbox/sandbox/internal/weld"
	"go.uber.org/zap"
)

// HandleMove translates the target and everything it owns.
func HandleMove(cmd input.Command, deps *Deps) error {
	if err := deps.World.Move(cmd.Target, cmd.Delta); err != nil {
		return err
	}
	pos, _ := deps.World.Position(cmd.Target)
	deps.Log.Debug("move",
		zap.String("entity", deps.World.NameOf(cmd.Target)),
		zap.Float64s("position", pos[:]),
	)
	return nil
}

// HandleDestroy queues the target for removal at tick end.
func HandleDestroy(cmd input.Command, deps *Deps) error {
	if !deps.World.World.Alive(cmd.Target) {
		return fmt.Errorf("destroy %s: %w", cmd.Target, weld.ErrMissingEntity)
	}
	deps.World.World.MarkForDestruction(cmd.Target)
	deps.Log.Info("destroy queued", zap.String("entity", deps.World.NameOf(cmd.Target)))
	return nil
}
