package wisp

// Predicate decides whether a sample satisfies a condition this frame.
type Predicate func(*InputSample) bool

// InputSource is one input handler's view of the current frame: its batch of
// samples and the ability to claim or release exclusive use of a sample.
type InputSource interface {
	Batch() []*InputSample
	RequestCapture(id SampleID)
	ReleaseCapture(id SampleID)
}

// Diff partitions an action's samples relative to the previous frame.
// Added and Current are disjoint; together they form the active set.
// Removed holds the last-seen sample of every ID that left the set.
type Diff struct {
	Added   []*InputSample
	Current []*InputSample
	Removed []*InputSample
}

// Changed reports whether any sample entered or left the set.
func (d Diff) Changed() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0
}

// Active returns Added followed by Current.
func (d Diff) Active() []*InputSample {
	out := make([]*InputSample, 0, len(d.Added)+len(d.Current))
	out = append(out, d.Added...)
	return append(out, d.Current...)
}

// Len returns the number of active samples.
func (d Diff) Len() int {
	return len(d.Added) + len(d.Current)
}

// Contains reports whether id is active.
func (d Diff) Contains(id SampleID) bool {
	return findSample(d.Added, id) != nil || findSample(d.Current, id) != nil
}

// --- Hover ---

// HoverAction tracks every sample that satisfies a predicate. Membership is
// compared by sample ID, so a sample present every frame appears in Added
// exactly once.
type HoverAction struct {
	active []*InputSample
	diff   Diff
}

// Update evaluates pred over batch and returns the change since the last call.
func (a *HoverAction) Update(batch []*InputSample, pred Predicate) Diff {
	var d Diff
	next := make([]*InputSample, 0, len(batch))
	for _, s := range batch {
		if !pred(s) {
			continue
		}
		next = append(next, s)
		if findSample(a.active, s.ID) != nil {
			d.Current = append(d.Current, s)
		} else {
			d.Added = append(d.Added, s)
		}
	}
	for _, old := range a.active {
		if findSample(next, old.ID) == nil {
			d.Removed = append(d.Removed, old)
		}
	}
	a.active = next
	a.diff = d
	return d
}

// Diff returns the result of the last Update.
func (a *HoverAction) Diff() Diff { return a.diff }

// Active returns the samples satisfying the predicate as of the last Update.
func (a *HoverAction) Active() []*InputSample { return a.active }

// Contains reports whether id was active as of the last Update.
func (a *HoverAction) Contains(id SampleID) bool {
	return findSample(a.active, id) != nil
}

// Reset forgets all tracked samples without reporting them as removed.
func (a *HoverAction) Reset() {
	a.active = nil
	a.diff = Diff{}
}

// --- Single actor ---

// SingleActorAction owns at most one sample at a time. A sample must satisfy
// the hover predicate (or already be captured by this handler) to be
// eligible, and becomes the actor on the frame its commit predicate turns
// true. The actor is dropped when it stops committing, stops being eligible
// or disappears from the batch.
type SingleActorAction struct {
	// CaptureOnTrigger requests exclusive capture of the actor from the
	// source for as long as it owns the action.
	CaptureOnTrigger bool
	// ChangeActor lets another eligible sample take over on its own commit
	// edge while an actor already exists.
	ChangeActor bool

	hovering   HoverAction
	committing map[SampleID]bool
	actor      *InputSample
	previous   *InputSample

	started bool
	changed bool
	acting  bool
	stopped bool
}

// NewSingleActorAction creates a single actor action with the given policies.
func NewSingleActorAction(captureOnTrigger, changeActor bool) *SingleActorAction {
	return &SingleActorAction{CaptureOnTrigger: captureOnTrigger, ChangeActor: changeActor}
}

// Update advances the action by one frame of src's batch.
func (a *SingleActorAction) Update(src InputSource, hover, commit Predicate) {
	batch := src.Batch()
	old := a.actor
	a.previous = old

	eligible := func(s *InputSample) bool {
		return hover(s) || (s.Captured && old != nil && s.ID == old.ID)
	}
	a.hovering.Update(batch, eligible)

	prev := a.committing
	a.committing = make(map[SampleID]bool, len(batch))
	rising := make(map[SampleID]bool, len(batch))
	for _, s := range batch {
		if commit(s) {
			a.committing[s.ID] = true
			rising[s.ID] = !prev[s.ID]
		}
	}

	if a.actor != nil {
		cur := findSample(batch, a.actor.ID)
		if cur == nil || !a.committing[cur.ID] || !a.hovering.Contains(cur.ID) {
			a.actor = nil
		} else {
			a.actor = cur
		}
	}
	if a.ChangeActor || a.actor == nil {
		for _, s := range a.hovering.Active() {
			if !rising[s.ID] {
				continue
			}
			if a.actor != nil && s.ID == a.actor.ID {
				continue
			}
			a.actor = s
			break
		}
	}

	a.started = old == nil && a.actor != nil
	a.changed = old != nil && a.actor != nil && old.ID != a.actor.ID
	a.acting = a.actor != nil
	a.stopped = old != nil && a.actor == nil

	if a.CaptureOnTrigger {
		if old != nil && (a.actor == nil || a.actor.ID != old.ID) {
			src.ReleaseCapture(old.ID)
		}
		if a.actor != nil && (old == nil || a.actor.ID != old.ID) {
			src.RequestCapture(a.actor.ID)
		}
	}
}

// Actor returns the owning sample, or nil when idle. On the stop frame it is
// already nil; use LastActor for the sample that just let go.
func (a *SingleActorAction) Actor() *InputSample { return a.actor }

// LastActor returns the actor as of the previous frame, or nil.
func (a *SingleActorAction) LastActor() *InputSample { return a.previous }

// Started reports whether ownership went from none to some this frame.
func (a *SingleActorAction) Started() bool { return a.started }

// Changed reports whether a different sample took ownership this frame.
func (a *SingleActorAction) Changed() bool { return a.changed }

// Acting reports whether an actor exists after this frame's update.
func (a *SingleActorAction) Acting() bool { return a.acting }

// Stopped reports whether ownership went from some to none this frame.
func (a *SingleActorAction) Stopped() bool { return a.stopped }

// Hovering returns the eligibility diff computed during the last Update.
func (a *SingleActorAction) Hovering() Diff { return a.hovering.Diff() }

// Reset drops the actor and all tracking state without emitting transitions.
// Capture held by the actor is released on src when src is non-nil.
func (a *SingleActorAction) Reset(src InputSource) {
	if a.actor != nil && a.CaptureOnTrigger && src != nil {
		src.ReleaseCapture(a.actor.ID)
	}
	a.actor = nil
	a.previous = nil
	a.committing = nil
	a.hovering.Reset()
	a.started, a.changed, a.acting, a.stopped = false, false, false, false
}

// --- Multi actor ---

// MultiActorAction tracks a set of concurrently active samples, each entering
// through the enter predicate and leaving through the exit predicate or by
// disappearing from the batch.
type MultiActorAction struct {
	tracked []*InputSample
	diff    Diff
}

// Update advances the action by one frame. A tracked sample is tested only
// against exit; an untracked one only against enter.
func (a *MultiActorAction) Update(batch []*InputSample, enter, exit Predicate) Diff {
	var d Diff
	next := make([]*InputSample, 0, len(a.tracked)+len(batch))
	for _, s := range batch {
		if findSample(a.tracked, s.ID) != nil {
			if exit(s) {
				d.Removed = append(d.Removed, s)
				continue
			}
			d.Current = append(d.Current, s)
			next = append(next, s)
			continue
		}
		if enter(s) {
			d.Added = append(d.Added, s)
			next = append(next, s)
		}
	}
	for _, old := range a.tracked {
		if findSample(batch, old.ID) == nil {
			d.Removed = append(d.Removed, old)
		}
	}
	a.tracked = next
	a.diff = d
	return d
}

// Diff returns the result of the last Update.
func (a *MultiActorAction) Diff() Diff { return a.diff }

// Active returns the tracked samples as of the last Update.
func (a *MultiActorAction) Active() []*InputSample { return a.tracked }

// Contains reports whether id is tracked.
func (a *MultiActorAction) Contains(id SampleID) bool {
	return findSample(a.tracked, id) != nil
}

// Reset forgets every tracked sample.
func (a *MultiActorAction) Reset() {
	a.tracked = nil
	a.diff = Diff{}
}
