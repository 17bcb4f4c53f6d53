package world

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/physbox/sandbox/internal/component"
	"github.com/physbox/sandbox/internal/data"
	"github.com/physbox/sandbox/internal/weld"
	"go.uber.org/zap"
)

// Populate spawns every object of scene, registers the weldable ones with
// eng and builds the initial ownership tree.
func (s *State) Populate(scene *data.Scene, eng *weld.Engine) error {
	for i := range scene.Objects {
		o := &scene.Objects[i]
		id, err := s.Spawn(o.Name, BoxFromCenter(mgl64.Vec3(o.Center), mgl64.Vec3(o.Size)))
		if err != nil {
			return err
		}
		if o.Mass > 0 {
			s.EnsureBody(id, o.Mass)
		}
		if o.Switch {
			s.Switches.Set(id, &component.Switch{})
		}
		if o.Powered {
			s.Powered.Set(id, &component.Powered{})
		}
		if o.Seat {
			seat := &component.Seat{}
			s.Seats.Set(id, seat)
			// leaving the group disables the seat
			eng.AddListener(id, weld.ListenerFuncs{Left: func(weld.Notice) { seat.Occupied = false }})
		}
		if !o.Weldable() {
			continue
		}
		mode, err := weld.ParseMode(o.Mode)
		if err != nil {
			return fmt.Errorf("object %q: %w", o.Name, err)
		}
		if err := eng.Register(id, mode); err != nil {
			return fmt.Errorf("object %q: %w", o.Name, err)
		}
	}
	for _, o := range scene.Objects {
		if o.Parent == "" {
			continue
		}
		id, _ := s.Lookup(o.Name)
		parent, _ := s.Lookup(o.Parent)
		if err := s.Reparent(id, parent, true); err != nil {
			return fmt.Errorf("object %q: %w", o.Name, err)
		}
	}
	s.log.Info("scene populated",
		zap.String("scene", scene.Name),
		zap.Int("objects", scene.Count()),
		zap.Int("weldable", eng.Stats().Entities),
	)
	return nil
}
