package wisp

// Injected batches replace the fed samples one frame at a time, in the order
// they were queued. Positions are world space.

// InjectBatch queues one frame's worth of samples. The batch is consumed on
// the next Update.
func (s *Scene) InjectBatch(samples ...*InputSample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.injectQueue = append(s.injectQueue, samples)
}

// InjectFrames queues several frames of samples.
func (s *Scene) InjectFrames(frames [][]*InputSample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.injectQueue = append(s.injectQueue, frames...)
}

// InjectClear queues an empty batch, so every sample vanishes for a frame.
func (s *Scene) InjectClear() {
	s.InjectBatch()
}

// pendingInjections returns the number of queued batches.
func (s *Scene) pendingInjections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.injectQueue)
}

// lerpPath returns frames points from from to to inclusive. Minimum frames
// is 2.
func lerpPath(from, to Vec3, frames int) []Vec3 {
	if frames < 2 {
		frames = 2
	}
	out := make([]Vec3, frames)
	for i := range out {
		t := float64(i) / float64(frames-1)
		out[i] = from.Add(to.Sub(from).Mul(t))
	}
	return out
}

// InjectRayDrag queues a ray held on key (such as KeyGrab or KeySelect)
// whose origin travels from from to to along a fixed direction, followed by
// one release frame at to. The sequence consumes frames+1 frames.
func (s *Scene) InjectRayDrag(id SampleID, from, to, direction Vec3, key string, frames int) {
	held := NewDatamap(map[string]float64{key: 1}, nil)
	var batches [][]*InputSample
	for _, p := range lerpPath(from, to, frames) {
		batches = append(batches, []*InputSample{NewRaySample(id, p, direction, held)})
	}
	batches = append(batches, []*InputSample{NewRaySample(id, to, direction, Datamap{})})
	s.InjectFrames(batches)
}

// pinchOpen is how far the thumb sits from the index tip on an open hand.
const pinchOpen = 0.06

// pinchedHand returns a hand whose thumb and index tips meet at p, or sit
// apart when open.
func pinchedHand(p Vec3, open bool) HandPose {
	thumb := p
	if open {
		thumb = p.Add(Vec3{-pinchOpen, 0, 0})
	}
	return HandPose{
		Right:  true,
		Thumb:  thumb,
		Index:  p,
		Middle: p.Add(Vec3{0, -0.02, 0.01}),
		Ring:   p.Add(Vec3{0, -0.035, 0.015}),
		Little: p.Add(Vec3{0, -0.05, 0.02}),
	}
}

// InjectHandDrag queues a hand pinching at from, moving its pinch to to and
// opening there. The sequence consumes frames+1 frames.
func (s *Scene) InjectHandDrag(id SampleID, from, to Vec3, frames int) {
	var batches [][]*InputSample
	for _, p := range lerpPath(from, to, frames) {
		batches = append(batches, []*InputSample{NewHandSample(id, pinchedHand(p, false), Datamap{})})
	}
	batches = append(batches, []*InputSample{NewHandSample(id, pinchedHand(to, true), Datamap{})})
	s.InjectFrames(batches)
}

// InjectTipPath queues a controller tip travelling from from to to. The
// sequence consumes frames frames.
func (s *Scene) InjectTipPath(id SampleID, from, to Vec3, frames int) {
	var batches [][]*InputSample
	for _, p := range lerpPath(from, to, frames) {
		batches = append(batches, []*InputSample{NewTipSample(id, p, Datamap{})})
	}
	s.InjectFrames(batches)
}
