package handler

import (
	"github.com/physbox/sandbox/internal/input"
	"go.uber.org/zap"
)

// HandleWeld joins the target to whatever it touches.
func HandleWeld(cmd input.Command, deps *Deps) error {
	rep := deps.Weld.Weld(cmd.Target, cmd.Mechanism)
	targets := make([]string, 0, len(rep.Edges))
	for _, e := range rep.Edges {
		targets = append(targets, deps.World.NameOf(e.Target))
	}
	deps.Log.Info("weld",
		zap.String("mover", deps.World.NameOf(cmd.Target)),
		zap.Strings("joined", targets),
		zap.Int("group", len(deps.Weld.ConnectedComponent(cmd.Target))+1),
	)
	return rep.Err
}

// HandleUnweld detaches the target from its direct neighbors.
func HandleUnweld(cmd input.Command, deps *Deps) error {
	rep := deps.Weld.Unweld(cmd.Target)
	severed := make([]string, 0, len(rep.Severed))
	for _, id := range rep.Severed {
		severed = append(severed, deps.World.NameOf(id))
	}
	deps.Log.Info("unweld",
		zap.String("entity", deps.World.NameOf(cmd.Target)),
		zap.Strings("severed", severed),
	)
	return rep.Err
}
