package data

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/physbox/sandbox/internal/weld"
	"gopkg.in/yaml.v3"
)

// Ops understood in a scene's frame list.
const (
	OpWeld    = "weld"
	OpUnweld  = "unweld"
	OpToggle  = "toggle"
	OpDestroy = "destroy"
	OpMove    = "move"
	OpSit     = "sit"
)

var validOps = map[string]bool{
	OpWeld: true, OpUnweld: true, OpToggle: true, OpDestroy: true, OpMove: true, OpSit: true,
}

// ObjectEntry is one rigid object placed by the scene.
type ObjectEntry struct {
	Name    string     `yaml:"name"`
	Center  [3]float64 `yaml:"center"`
	Size    [3]float64 `yaml:"size"`
	Parent  string     `yaml:"parent"`
	Mode    string     `yaml:"mode"` // none, attach, receive, both; empty means both
	Weld    *bool      `yaml:"weld"` // false keeps the object out of the weld registry
	Mass    float64    `yaml:"mass"`
	Switch  bool       `yaml:"switch"`
	Powered bool       `yaml:"powered"`
	Seat    bool       `yaml:"seat"`
	Scripts []string   `yaml:"scripts"`
}

// Weldable reports whether the object should be registered with the engine.
func (o *ObjectEntry) Weldable() bool { return o.Weld == nil || *o.Weld }

// FrameOp is one scripted input applied on a given tick. Frames count
// ticks from 1, the first tick the runner executes.
type FrameOp struct {
	Frame     int        `yaml:"frame"`
	Op        string     `yaml:"op"`
	Target    string     `yaml:"target"`
	Mechanism string     `yaml:"mechanism"`
	By        [3]float64 `yaml:"by"`
}

// Scene is a sandbox fixture: objects to spawn and the inputs to replay.
type Scene struct {
	Name    string        `yaml:"name"`
	Objects []ObjectEntry `yaml:"objects"`
	Frames  []FrameOp     `yaml:"frames"`

	byFrame map[int][]FrameOp
	maxTick int
}

// LoadScene loads a scene YAML file.
func LoadScene(path string) (*Scene, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	s, err := ParseScene(raw)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return s, nil
}

// ParseScene decodes and validates scene YAML.
func ParseScene(raw []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	sort.SliceStable(s.Frames, func(i, j int) bool { return s.Frames[i].Frame < s.Frames[j].Frame })
	s.byFrame = make(map[int][]FrameOp)
	for _, f := range s.Frames {
		s.byFrame[f.Frame] = append(s.byFrame[f.Frame], f)
		if f.Frame > s.maxTick {
			s.maxTick = f.Frame
		}
	}
	return &s, nil
}

func (s *Scene) validate() error {
	var errs []error
	names := make(map[string]bool, len(s.Objects))
	for i := range s.Objects {
		o := &s.Objects[i]
		if o.Name == "" {
			errs = append(errs, fmt.Errorf("object #%d: missing name", i))
			continue
		}
		if names[o.Name] {
			errs = append(errs, fmt.Errorf("object %q: duplicate name", o.Name))
		}
		names[o.Name] = true
		if _, err := weld.ParseMode(o.Mode); err != nil {
			errs = append(errs, fmt.Errorf("object %q: %w", o.Name, err))
		}
		for axis, v := range o.Size {
			if v < 0 {
				errs = append(errs, fmt.Errorf("object %q: negative size on axis %d", o.Name, axis))
			}
		}
		if o.Mass < 0 {
			errs = append(errs, fmt.Errorf("object %q: negative mass", o.Name))
		}
	}
	// parents may be declared after their children
	for _, o := range s.Objects {
		if o.Parent != "" && !names[o.Parent] {
			errs = append(errs, fmt.Errorf("object %q: unknown parent %q", o.Name, o.Parent))
		}
		if o.Parent == o.Name && o.Name != "" {
			errs = append(errs, fmt.Errorf("object %q: parent of itself", o.Name))
		}
	}
	for i, f := range s.Frames {
		if f.Frame < 1 {
			errs = append(errs, fmt.Errorf("frame op #%d: frame %d before the first tick", i, f.Frame))
		}
		if !validOps[f.Op] {
			errs = append(errs, fmt.Errorf("frame op #%d: unknown op %q", i, f.Op))
		}
		if !names[f.Target] {
			errs = append(errs, fmt.Errorf("frame op #%d: unknown target %q", i, f.Target))
		}
		if _, err := weld.ParseMechanism(f.Mechanism); err != nil {
			errs = append(errs, fmt.Errorf("frame op #%d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// FrameOps returns the ops scheduled for tick n, in file order.
func (s *Scene) FrameOps(n int) []FrameOp {
	return s.byFrame[n]
}

// LastFrame is the highest tick that has scheduled ops.
func (s *Scene) LastFrame() int { return s.maxTick }

// Count returns the number of objects in the scene.
func (s *Scene) Count() int { return len(s.Objects) }
