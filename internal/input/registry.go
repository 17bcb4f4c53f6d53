package input

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

var ErrUnknownOp = errors.New("unknown op")

// HandlerFunc applies one command.
type HandlerFunc func(cmd Command) error

// Registry maps op names to handlers.
type Registry struct {
	handlers map[string]HandlerFunc
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		handlers: make(map[string]HandlerFunc),
		log:      log,
	}
}

// Register maps an op to a handler, replacing any previous one.
func (reg *Registry) Register(op string, fn HandlerFunc) {
	reg.handlers[op] = fn
}

// Ops lists the registered op names, sorted.
func (reg *Registry) Ops() []string {
	out := make([]string, 0, len(reg.handlers))
	for op := range reg.handlers {
		out = append(out, op)
	}
	sort.Strings(out)
	return out
}

// Dispatch finds the handler for cmd.Op and calls it.
func (reg *Registry) Dispatch(cmd Command) error {
	reg.log.Debug("command",
		zap.String("op", cmd.Op),
		zap.Stringer("target", cmd.Target),
	)
	fn, ok := reg.handlers[cmd.Op]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownOp, cmd.Op)
	}
	return reg.safeCall(fn, cmd)
}

// safeCall executes a handler with panic recovery so one bad command cannot
// take down the tick loop.
func (reg *Registry) safeCall(fn HandlerFunc, cmd Command) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("command handler panic recovered",
				zap.String("op", cmd.Op),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("handler panic for op %s: %v", cmd.Op, rec)
		}
	}()
	return fn(cmd)
}
