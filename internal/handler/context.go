package handler

import (
	"github.com/physbox/sandbox/internal/config"
	"github.com/physbox/sandbox/internal/data"
	"github.com/physbox/sandbox/internal/input"
	"github.com/physbox/sandbox/internal/weld"
	"github.com/physbox/sandbox/internal/world"
	"go.uber.org/zap"
)

// Deps holds shared dependencies injected into all command handlers.
type Deps struct {
	Config *config.Config
	Log    *zap.Logger
	World  *world.State
	Weld   *weld.Engine
}

// RegisterAll registers all command handlers into the registry.
func RegisterAll(reg *input.Registry, deps *Deps) {
	reg.Register(data.OpWeld, func(cmd input.Command) error {
		return HandleWeld(cmd, deps)
	})
	reg.Register(data.OpUnweld, func(cmd input.Command) error {
		return HandleUnweld(cmd, deps)
	})
	reg.Register(data.OpToggle, func(cmd input.Command) error {
		return HandleToggle(cmd, deps)
	})
	reg.Register(data.OpSit, func(cmd input.Command) error {
		return HandleSit(cmd, deps)
	})
	reg.Register(data.OpMove, func(cmd input.Command) error {
		return HandleMove(cmd, deps)
	})
	reg.Register(data.OpDestroy, func(cmd input.Command) error {
		return HandleDestroy(cmd, deps)
	})
}
