package desktop

import (
	"testing"

	"github.com/phanxgames/wisp"
)

func TestSamples_MouseRay(t *testing.T) {
	cam := newTestCamera()
	st := InputState{CursorX: 400, CursorY: 300, Cursor: true, Select: true, Grab: true, WheelY: -2}
	samples := cam.Samples(st, 1)
	if len(samples) != 1 {
		t.Fatalf("samples = %d, want 1", len(samples))
	}
	s := samples[0]
	if s.ID != MouseSampleID || s.Kind != wisp.KindRay {
		t.Fatalf("sample = %+v, want mouse ray", s)
	}
	if !vecNear(s.Ray.Dir(), wisp.Vec3{0, 0, -1}, epsilon) {
		t.Errorf("direction = %v, want -Z", s.Ray.Dir())
	}
	if s.Data.Select() != 1 || s.Data.Grab() != 1 || s.Data.Middle() != 0 || s.Data.Context() != 0 {
		t.Errorf("buttons = select %v grab %v middle %v context %v", s.Data.Select(), s.Data.Grab(), s.Data.Middle(), s.Data.Context())
	}
	if got := s.Data.ScrollDiscrete(); got != (wisp.Vec2{0, -2}) {
		t.Errorf("scroll = %v, want (0,-2)", got)
	}
}

func TestSamples_NoWheelNoScroll(t *testing.T) {
	cam := newTestCamera()
	s := cam.Samples(InputState{Cursor: true}, 1)[0]
	if s.Data.HasVec2(wisp.KeyScrollDiscrete) {
		t.Error("scroll present without wheel movement")
	}
}

func TestSamples_Touches(t *testing.T) {
	cam := newTestCamera()
	st := InputState{Touches: []Touch{{ID: 3, X: 400, Y: 300}, {ID: 4, X: 0, Y: 0}}}
	samples := cam.Samples(st, 0.5)
	if len(samples) != 2 {
		t.Fatalf("samples = %d, want 2 tips and no mouse", len(samples))
	}
	if samples[0].ID != touchSampleIDs+3 || samples[0].Kind != wisp.KindTip {
		t.Errorf("sample 0 = %+v", samples[0])
	}
	if !vecNear(samples[0].Tip.Origin, wisp.Vec3{0, 1.6, -0.5}, epsilon) {
		t.Errorf("tip = %v, want half a meter ahead", samples[0].Tip.Origin)
	}
	if samples[1].ID == samples[0].ID {
		t.Error("touch IDs collide")
	}
}

func TestHudText(t *testing.T) {
	got := hudText(59.94, 60, []string{"grabbed"})
	want := "FPS: 59.9\nTPS: 60.0\ngrabbed"
	if got != want {
		t.Errorf("hudText = %q, want %q", got, want)
	}
}

func TestHUDRefreshInterval(t *testing.T) {
	calls := 0
	h := NewHUD(func() []string { calls++; return nil })
	h.Update(0.01)
	if calls != 1 || h.Text() == "" {
		t.Fatalf("first update: calls = %d text = %q", calls, h.Text())
	}
	h.Update(0.2)
	if calls != 1 {
		t.Errorf("refreshed before the interval: calls = %d", calls)
	}
	h.Update(0.4)
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}
