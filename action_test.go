package wisp

import (
	"math/rand"
	"testing"
)

func tipAt(id SampleID, distance float64, data Datamap) *InputSample {
	return &InputSample{ID: id, Kind: KindTip, Distance: distance, Tip: &TipPose{}, Data: data}
}

func ids(samples []*InputSample) []SampleID {
	out := make([]SampleID, len(samples))
	for i, s := range samples {
		out[i] = s.ID
	}
	return out
}

func near(s *InputSample) bool { return s.Distance < 0.1 }

var grabbing = NewDatamap(map[string]float64{KeyGrab: 1}, nil)

func holdsGrab(s *InputSample) bool { return s.Data.Grab() > 0.5 }

// ---- Hover ------------------------------------------------------------------

func TestHoverAction_AddedThenCurrent(t *testing.T) {
	var a HoverAction
	batch := []*InputSample{tipAt(1, 0, Datamap{}), tipAt(2, 1, Datamap{})}

	d := a.Update(batch, near)
	if len(d.Added) != 1 || d.Added[0].ID != 1 {
		t.Fatalf("frame 1 added = %v, want [1]", ids(d.Added))
	}
	if len(d.Current) != 0 || len(d.Removed) != 0 {
		t.Errorf("frame 1 current/removed = %v/%v, want empty", ids(d.Current), ids(d.Removed))
	}

	d = a.Update(batch, near)
	if len(d.Added) != 0 {
		t.Errorf("frame 2 added = %v, want empty", ids(d.Added))
	}
	if len(d.Current) != 1 || d.Current[0].ID != 1 {
		t.Errorf("frame 2 current = %v, want [1]", ids(d.Current))
	}
}

func TestHoverAction_IdenticalBatchIsIdempotent(t *testing.T) {
	var a HoverAction
	batch := []*InputSample{tipAt(1, 0, Datamap{}), tipAt(2, 0.05, Datamap{})}
	a.Update(batch, near)
	d := a.Update(batch, near)
	if d.Changed() {
		t.Errorf("second update changed: added=%v removed=%v", ids(d.Added), ids(d.Removed))
	}
	if d.Len() != 2 {
		t.Errorf("Len = %d, want 2", d.Len())
	}
}

func TestHoverAction_RemovedKeepsLastSample(t *testing.T) {
	var a HoverAction
	first := tipAt(1, 0, Datamap{})
	a.Update([]*InputSample{first}, near)
	d := a.Update(nil, near)
	if len(d.Removed) != 1 || d.Removed[0] != first {
		t.Fatalf("removed = %v, want last-seen sample 1", ids(d.Removed))
	}
	if a.Contains(1) {
		t.Error("sample 1 still active after removal")
	}
}

func TestHoverAction_RandomBatchesNeverAddAndRemove(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var a HoverAction
	everyFrame := tipAt(100, 0, Datamap{})
	addedOnce := 0

	for frame := 0; frame < 500; frame++ {
		batch := []*InputSample{everyFrame}
		for id := SampleID(1); id <= 6; id++ {
			if rng.Intn(2) == 0 {
				batch = append(batch, tipAt(id, rng.Float64()*0.2, Datamap{}))
			}
		}
		rng.Shuffle(len(batch), func(i, j int) { batch[i], batch[j] = batch[j], batch[i] })

		d := a.Update(batch, near)
		for _, s := range d.Added {
			if findSample(d.Removed, s.ID) != nil {
				t.Fatalf("frame %d: sample %d both added and removed", frame, s.ID)
			}
			if s.ID == everyFrame.ID {
				addedOnce++
			}
		}
		if findSample(d.Removed, everyFrame.ID) != nil {
			t.Fatalf("frame %d: persistent sample removed", frame)
		}
	}
	if addedOnce != 1 {
		t.Errorf("persistent sample added %d times, want 1", addedOnce)
	}
}

// ---- Single actor -----------------------------------------------------------

type recordingSource struct {
	batch     []*InputSample
	requested []SampleID
	released  []SampleID
}

func (r *recordingSource) Batch() []*InputSample       { return r.batch }
func (r *recordingSource) RequestCapture(id SampleID) { r.requested = append(r.requested, id) }
func (r *recordingSource) ReleaseCapture(id SampleID) { r.released = append(r.released, id) }

type transitions struct{ started, changed, acting, stopped bool }

func flags(a *SingleActorAction) transitions {
	return transitions{a.Started(), a.Changed(), a.Acting(), a.Stopped()}
}

func TestSingleActorAction_Lifecycle(t *testing.T) {
	a := NewSingleActorAction(true, false)
	src := &recordingSource{}

	steps := []struct {
		name  string
		batch []*InputSample
		want  transitions
		actor SampleID
	}{
		{"idle hover", []*InputSample{tipAt(1, 0, Datamap{})}, transitions{}, 0},
		{"grab", []*InputSample{tipAt(1, 0, grabbing)}, transitions{started: true, acting: true}, 1},
		{"hold", []*InputSample{tipAt(1, 0, grabbing)}, transitions{acting: true}, 1},
		{"release", []*InputSample{tipAt(1, 0, Datamap{})}, transitions{stopped: true}, 0},
		{"idle", []*InputSample{tipAt(1, 0, Datamap{})}, transitions{}, 0},
	}
	for _, st := range steps {
		src.batch = st.batch
		a.Update(src, near, holdsGrab)
		if got := flags(a); got != st.want {
			t.Errorf("%s: flags = %+v, want %+v", st.name, got, st.want)
		}
		var actor SampleID
		if a.Actor() != nil {
			actor = a.Actor().ID
		}
		if actor != st.actor {
			t.Errorf("%s: actor = %d, want %d", st.name, actor, st.actor)
		}
	}
	if len(src.requested) != 1 || src.requested[0] != 1 {
		t.Errorf("capture requests = %v, want [1]", src.requested)
	}
	if len(src.released) != 1 || src.released[0] != 1 {
		t.Errorf("capture releases = %v, want [1]", src.released)
	}
}

func TestSingleActorAction_RequiresCommitEdge(t *testing.T) {
	a := NewSingleActorAction(false, false)
	// Already squeezing when it arrives out of range: no edge once in range.
	far := &recordingSource{batch: []*InputSample{tipAt(1, 1, grabbing)}}
	a.Update(far, near, holdsGrab)
	close := &recordingSource{batch: []*InputSample{tipAt(1, 0, grabbing)}}
	a.Update(close, near, holdsGrab)
	if a.Acting() {
		t.Error("held grab moved into range should not start the action")
	}
}

func TestSingleActorAction_StopsWhenActorVanishes(t *testing.T) {
	a := NewSingleActorAction(false, false)
	src := &recordingSource{batch: []*InputSample{tipAt(1, 0, grabbing)}}
	a.Update(src, near, holdsGrab)
	src.batch = nil
	a.Update(src, near, holdsGrab)
	if !a.Stopped() || a.Actor() != nil {
		t.Errorf("flags = %+v actor = %v, want stopped with no actor", flags(a), a.Actor())
	}
}

func TestSingleActorAction_CapturedActorStaysEligible(t *testing.T) {
	a := NewSingleActorAction(true, false)
	src := &recordingSource{batch: []*InputSample{tipAt(1, 0, grabbing)}}
	a.Update(src, near, holdsGrab)

	moved := tipAt(1, 5, grabbing)
	moved.Captured = true
	src.batch = []*InputSample{moved}
	a.Update(src, near, holdsGrab)
	if !a.Acting() || a.Stopped() {
		t.Errorf("captured actor out of range: flags = %+v, want acting", flags(a))
	}
}

func TestSingleActorAction_ChangeActor(t *testing.T) {
	for _, change := range []bool{false, true} {
		a := NewSingleActorAction(false, change)
		src := &recordingSource{batch: []*InputSample{tipAt(1, 0, grabbing), tipAt(2, 0, Datamap{})}}
		a.Update(src, near, holdsGrab)
		src.batch = []*InputSample{tipAt(1, 0, grabbing), tipAt(2, 0, grabbing)}
		a.Update(src, near, holdsGrab)

		want := SampleID(1)
		if change {
			want = 2
		}
		if a.Actor() == nil || a.Actor().ID != want {
			t.Errorf("change=%v: actor = %v, want %d", change, a.Actor(), want)
		}
		if a.Changed() != change {
			t.Errorf("change=%v: Changed() = %v", change, a.Changed())
		}
		if a.Started() {
			t.Errorf("change=%v: Started() on takeover", change)
		}
	}
}

func TestSingleActorAction_AtMostOneActor(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	a := NewSingleActorAction(false, true)
	src := &recordingSource{}
	hadActor := false

	for frame := 0; frame < 400; frame++ {
		src.batch = nil
		for id := SampleID(1); id <= 4; id++ {
			if rng.Intn(3) == 0 {
				continue
			}
			data := Datamap{}
			if rng.Intn(2) == 0 {
				data = grabbing
			}
			src.batch = append(src.batch, tipAt(id, rng.Float64()*0.2, data))
		}
		a.Update(src, near, holdsGrab)

		hasActor := a.Actor() != nil
		if a.Started() && hadActor {
			t.Fatalf("frame %d: started while an actor already existed", frame)
		}
		if a.Stopped() && (!hadActor || hasActor) {
			t.Fatalf("frame %d: stopped without a some-to-none transition", frame)
		}
		if hasActor {
			if !near(a.Actor()) {
				t.Fatalf("frame %d: actor %d is not eligible", frame, a.Actor().ID)
			}
			if findSample(src.batch, a.Actor().ID) == nil {
				t.Fatalf("frame %d: actor %d not in batch", frame, a.Actor().ID)
			}
		}
		hadActor = hasActor
	}
}

// ---- Multi actor ------------------------------------------------------------

func TestMultiActorAction_TouchLifecycle(t *testing.T) {
	var a MultiActorAction
	always := func(*InputSample) bool { return true }
	never := func(*InputSample) bool { return false }

	var added, current, removed int
	batches := [][]*InputSample{
		{tipAt(9, 0, Datamap{})},
		{tipAt(9, 0, Datamap{})},
		{tipAt(9, 0, Datamap{})},
		{},
		{},
	}
	for _, b := range batches {
		d := a.Update(b, always, never)
		added += len(d.Added)
		current += len(d.Current)
		removed += len(d.Removed)
	}
	if added != 1 || current != 2 || removed != 1 {
		t.Errorf("added/current/removed = %d/%d/%d, want 1/2/1", added, current, removed)
	}
}

func TestMultiActorAction_ExitOnlyTestedWhileTracked(t *testing.T) {
	var a MultiActorAction
	enter := func(s *InputSample) bool { return s.Distance < 0 }
	exit := func(s *InputSample) bool { return s.Distance > 0.1 }

	d := a.Update([]*InputSample{tipAt(1, 0.05, Datamap{})}, enter, exit)
	if d.Len() != 0 {
		t.Fatalf("entered without meeting enter: %v", ids(d.Added))
	}
	d = a.Update([]*InputSample{tipAt(1, -0.01, Datamap{})}, enter, exit)
	if len(d.Added) != 1 {
		t.Fatalf("added = %v, want [1]", ids(d.Added))
	}
	// Between enter and exit thresholds: stays tracked.
	d = a.Update([]*InputSample{tipAt(1, 0.05, Datamap{})}, enter, exit)
	if len(d.Current) != 1 {
		t.Errorf("current = %v, want [1]", ids(d.Current))
	}
	d = a.Update([]*InputSample{tipAt(1, 0.2, Datamap{})}, enter, exit)
	if len(d.Removed) != 1 || a.Contains(1) {
		t.Errorf("removed = %v, want [1] and untracked", ids(d.Removed))
	}
}
