// Package ecs provides ECS adapters for wisp.
package ecs

import (
	"github.com/phanxgames/wisp"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// SurfaceEventType is the Donburi event type for wisp surface events.
// Subscribe to this in your ECS systems to receive pointer, button, scroll
// and touch events.
var SurfaceEventType = events.NewEventType[wisp.SurfaceEvent]()

type donburiStore struct {
	world donburi.World
}

// NewDonburiStore creates an EntityStore backed by a Donburi world.
// Surface events are published to SurfaceEventType and can be consumed with
// events.Subscribe and ProcessEvents.
func NewDonburiStore(world donburi.World) wisp.EntityStore {
	return &donburiStore{world: world}
}

func (s *donburiStore) EmitEvent(event wisp.SurfaceEvent) {
	SurfaceEventType.Publish(s.world, event)
}
