package handler

import (
	"errors"
	"fmt"

	"github.com/physbox/sandbox/internal/core/ecs"
	"github.com/physbox/sandbox/internal/input"
	"github.com/physbox/sandbox/internal/weld"
	"go.uber.org/zap"
)

var (
	ErrNotSeat      = errors.New("entity is not a seat")
	ErrSeatDisabled = errors.New("seat is not welded to anything")
	ErrSeatTaken    = errors.New("seat is occupied")
)

// SeatEnabled reports whether a seat can be used: it must be welded to at
// least one other object.
func SeatEnabled(eng *weld.Engine, seat ecs.EntityID) bool {
	return len(eng.Neighbors(seat)) > 0
}

// HandleSit occupies a weld-enabled seat.
func HandleSit(cmd input.Command, deps *Deps) error {
	name := deps.World.NameOf(cmd.Target)
	seat, ok := deps.World.Seats.Get(cmd.Target)
	if !ok {
		return fmt.Errorf("sit %s: %w", name, ErrNotSeat)
	}
	if seat.Occupied {
		return fmt.Errorf("sit %s: %w", name, ErrSeatTaken)
	}
	if !SeatEnabled(deps.Weld, cmd.Target) {
		return fmt.Errorf("sit %s: %w", name, ErrSeatDisabled)
	}
	seat.Occupied = true
	deps.Log.Info("seat occupied", zap.String("seat", name))
	return nil
}
