package input

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/physbox/sandbox/internal/core/ecs"
	"github.com/physbox/sandbox/internal/data"
	"github.com/physbox/sandbox/internal/weld"
)

// Command is one user intent applied during the input phase.
type Command struct {
	Op        string
	Target    ecs.EntityID
	Mechanism weld.Mechanism
	Delta     mgl64.Vec3
}

// Snapshot is everything gathered for one tick. It is passed to handlers
// explicitly; nothing reads input from globals.
type Snapshot struct {
	Tick     int
	Commands []Command
}

// Queue buffers commands until the next Drain.
type Queue struct {
	tick    int
	pending []Command
}

func (q *Queue) Push(cmds ...Command) {
	q.pending = append(q.pending, cmds...)
}

func (q *Queue) Len() int { return len(q.pending) }

// Drain hands out the pending commands as the next tick's snapshot.
func (q *Queue) Drain() Snapshot {
	q.tick++
	s := Snapshot{Tick: q.tick, Commands: q.pending}
	q.pending = nil
	return s
}

// FromFrameOps resolves scene frame ops into commands. Ops whose target no
// longer exists are skipped and reported in the joined error.
func FromFrameOps(ops []data.FrameOp, lookup func(string) (ecs.EntityID, bool)) ([]Command, error) {
	var (
		out  []Command
		errs []error
	)
	for _, op := range ops {
		id, ok := lookup(op.Target)
		if !ok {
			errs = append(errs, fmt.Errorf("frame %d %s: target %q not found", op.Frame, op.Op, op.Target))
			continue
		}
		mech, err := weld.ParseMechanism(op.Mechanism)
		if err != nil {
			errs = append(errs, fmt.Errorf("frame %d %s: %w", op.Frame, op.Op, err))
			continue
		}
		out = append(out, Command{
			Op:        op.Op,
			Target:    id,
			Mechanism: mech,
			Delta:     mgl64.Vec3(op.By),
		})
	}
	return out, errors.Join(errs...)
}
