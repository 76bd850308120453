package wisp

// --- Surface events ---

// SurfaceEvent is one event emitted by a SurfaceRouter. Positions are in
// surface pixels with (0, 0) at the top-left corner.
type SurfaceEvent struct {
	Type     EventType
	EntityID uint32   // the router's ECS entity, zero when unset
	Sample   SampleID // the sample that produced the event
	Position Vec2
	Depth    float64 // signed distance from the surface plane, in meters

	// EventButton only.
	Button  uint32 // Linux input-event-code
	Pressed bool

	// EventScroll only.
	ScrollContinuous Vec2
	ScrollDiscrete   Vec2
}

// EntityStore receives surface events for an ECS world.
type EntityStore interface {
	EmitEvent(event SurfaceEvent)
}

// --- Handler registry ---

const eventTypeCount = int(EventPointerLeave) + 1

type surfaceHandler struct {
	id uint32
	fn func(SurfaceEvent)
}

type handlerRegistry struct {
	byType [eventTypeCount][]surfaceHandler
	nextID uint32
}

// CallbackHandle allows removing a registered surface callback.
type CallbackHandle struct {
	id    uint32
	reg   *handlerRegistry
	event EventType
}

// Remove unregisters this callback so it no longer fires.
// The entry is removed from the slice to avoid nil iteration waste.
func (h CallbackHandle) Remove() {
	if h.reg == nil || int(h.event) >= eventTypeCount {
		return
	}
	s := h.reg.byType[h.event]
	for i := range s {
		if s[i].id == h.id {
			copy(s[i:], s[i+1:])
			s[len(s)-1] = surfaceHandler{}
			h.reg.byType[h.event] = s[:len(s)-1]
			return
		}
	}
}

func (r *handlerRegistry) add(event EventType, fn func(SurfaceEvent)) CallbackHandle {
	r.nextID++
	id := r.nextID
	r.byType[event] = append(r.byType[event], surfaceHandler{id: id, fn: fn})
	return CallbackHandle{id: id, reg: r, event: event}
}

func (r *handlerRegistry) fire(e SurfaceEvent) {
	for _, h := range r.byType[e.Type] {
		h.fn(e)
	}
}

// --- Surface event registration ---

// OnPointerMotion registers a callback for absolute pointer positions.
func (r *SurfaceRouter) OnPointerMotion(fn func(SurfaceEvent)) CallbackHandle {
	return r.handlers.add(EventPointerMotion, fn)
}

// OnButton registers a callback for button presses and releases.
func (r *SurfaceRouter) OnButton(fn func(SurfaceEvent)) CallbackHandle {
	return r.handlers.add(EventButton, fn)
}

// OnScroll registers a callback for scroll events.
func (r *SurfaceRouter) OnScroll(fn func(SurfaceEvent)) CallbackHandle {
	return r.handlers.add(EventScroll, fn)
}

// OnTouchDown registers a callback for new touch contacts.
func (r *SurfaceRouter) OnTouchDown(fn func(SurfaceEvent)) CallbackHandle {
	return r.handlers.add(EventTouchDown, fn)
}

// OnTouchMove registers a callback for moving touch contacts.
func (r *SurfaceRouter) OnTouchMove(fn func(SurfaceEvent)) CallbackHandle {
	return r.handlers.add(EventTouchMove, fn)
}

// OnTouchUp registers a callback for lifted touch contacts.
func (r *SurfaceRouter) OnTouchUp(fn func(SurfaceEvent)) CallbackHandle {
	return r.handlers.add(EventTouchUp, fn)
}

// OnPointerLeave registers a callback fired when nothing hovers the surface
// anymore.
func (r *SurfaceRouter) OnPointerLeave(fn func(SurfaceEvent)) CallbackHandle {
	return r.handlers.add(EventPointerLeave, fn)
}

// SetEntityStore sets the ECS store that receives every event. Nil disables
// the bridge.
func (r *SurfaceRouter) SetEntityStore(store EntityStore) {
	r.store = store
}

// SetEntityID sets the entity ID stamped on every emitted event.
func (r *SurfaceRouter) SetEntityID(id uint32) {
	r.entityID = id
}

// emit stamps e and delivers it to callbacks, the frame log and the store.
func (r *SurfaceRouter) emit(e SurfaceEvent) {
	e.EntityID = r.entityID
	r.events = append(r.events, e)
	r.handlers.fire(e)
	if r.store != nil {
		r.store.EmitEvent(e)
	}
}
