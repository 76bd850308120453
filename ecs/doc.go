// Package ecs provides ECS adapters for wisp's surface event stream.
//
// The primary adapter is [NewDonburiStore], which bridges surface events
// (pointer motion, buttons, scroll and touches) into a [Donburi] world as
// typed events. Subscribe to [SurfaceEventType] in your ECS systems to
// receive them.
//
// Usage:
//
//	store := ecs.NewDonburiStore(world)
//	router.SetEntityStore(store)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
