package wisp

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// testStep represents a single action in a test script.
type testStep struct {
	Action    string   `yaml:"action"`
	Label     string   `yaml:"label,omitempty"`
	ID        SampleID `yaml:"id,omitempty"`
	From      Vec3     `yaml:"from,omitempty"`
	To        Vec3     `yaml:"to,omitempty"`
	Direction Vec3     `yaml:"direction,omitempty"`
	Key       string   `yaml:"key,omitempty"`
	Frames    int      `yaml:"frames,omitempty"`
}

// testScript is the top-level YAML structure for a test script.
type testScript struct {
	Steps []testStep `yaml:"steps"`
}

// Mark is a labelled point in a running script.
type Mark struct {
	Label string
	Frame int
}

// TestRunner sequences injected input across frames for headless scenario
// runs. Attach to a Scene via SetTestRunner.
//
// Supported actions: ray_drag, hand_drag, tip_path, clear, wait and mark.
type TestRunner struct {
	steps     []testStep
	cursor    int
	waitCount int
	frame     int
	done      bool

	marks  []Mark
	onMark func(Mark)
}

// LoadTestScript parses a YAML test script and returns a TestRunner ready
// to be attached to a Scene via SetTestRunner.
func LoadTestScript(data []byte) (*TestRunner, error) {
	var script testScript
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("parse test script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse test script: no steps")
	}
	for i, st := range script.Steps {
		switch st.Action {
		case "ray_drag", "hand_drag", "tip_path", "clear", "wait", "mark":
		default:
			return nil, fmt.Errorf("parse test script: step %d: unknown action %q", i, st.Action)
		}
		if st.Action == "ray_drag" && st.Direction == (Vec3{}) {
			return nil, fmt.Errorf("parse test script: step %d: ray_drag needs a direction", i)
		}
	}
	return &TestRunner{steps: script.Steps}, nil
}

// SetTestRunner attaches a TestRunner to the scene. The runner's step method
// is called from Scene.Update before input is distributed each frame.
func (s *Scene) SetTestRunner(runner *TestRunner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.testRunner = runner
}

func (s *Scene) runner() *TestRunner {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.testRunner
}

// OnMark registers a callback run when a mark step executes.
func (r *TestRunner) OnMark(fn func(Mark)) {
	r.onMark = fn
}

// Marks returns every mark reached so far.
func (r *TestRunner) Marks() []Mark {
	return r.marks
}

// Done reports whether all steps in the test script have been executed.
func (r *TestRunner) Done() bool {
	return r.done
}

// step advances the test runner by one frame. Called from Scene.Update
// without the scene lock held.
func (r *TestRunner) step(s *Scene) {
	r.frame++
	if r.done {
		return
	}
	// Wait for pending injections to drain before advancing.
	if s.pendingInjections() > 0 {
		return
	}
	// Count down wait frames.
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "mark":
		m := Mark{Label: st.Label, Frame: r.frame}
		r.marks = append(r.marks, m)
		if r.onMark != nil {
			r.onMark(m)
		}
	case "ray_drag":
		key := st.Key
		if key == "" {
			key = KeyGrab
		}
		s.InjectRayDrag(st.ID, st.From, st.To, st.Direction, key, st.Frames)
	case "hand_drag":
		s.InjectHandDrag(st.ID, st.From, st.To, st.Frames)
	case "tip_path":
		s.InjectTipPath(st.ID, st.From, st.To, st.Frames)
	case "clear":
		s.InjectClear()
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	}

	// Check if we've reached the end after executing.
	if r.cursor >= len(r.steps) && r.waitCount == 0 && s.pendingInjections() == 0 {
		r.done = true
	}
}
