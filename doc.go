// Package wisp provides manipulators and input routing for floating 3D panels
// in a spatial-computing environment.
//
// Every frame a spatial node service delivers a batch of input samples (rays,
// tracked hands and controller tips) to each input handler. Wisp turns those
// batches into hover, press and drag semantics and uses them to move handles,
// reshape panels, hand panels over to drop targets and feed 2D pointer and
// touch events to the panel's contents.
//
// # Quick start
//
// Wisp talks to the world through the [Service] interface. [Scene] is an
// in-process implementation backed by signed distance functions; use it for
// tools, tests and the desktop simulator:
//
//	scene := wisp.NewScene()
//	res, err := wisp.NewResources(scene, logger, wisp.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	grab, err := wisp.NewGrabManipulator(res, wisp.GrabOptions{})
//	if err != nil {
//		return err
//	}
//	defer grab.Close()
//
//	for frame := range frames {
//		scene.Feed(samples)
//		scene.Update(frame)
//		grab.Update(frame)
//	}
//
// # Actions
//
// [HoverAction], [SingleActorAction] and [MultiActorAction] reduce batches to
// added/current/removed partitions keyed by sample ID. Single-actor actions
// give one sample ownership on its commit edge and report started, changed,
// acting and stopped transitions.
//
// # Manipulators
//
// [GrabManipulator] is a spherical handle that follows whatever grabs it.
// [ResizePair] composes two of them into corner handles and solves the
// panel's pose and size from their positions with [SolveResize].
// [AcceptorResolver] finds the nearest drop target while something is dragged
// and transfers the item on release; [ShellGrab] wires it to a grab handle.
// [ExposureButton] is a push-through confirm button.
//
// # Surfaces
//
// [SurfaceRouter] projects contacts onto a flat panel and emits pointer
// motion, button, scroll and touch events in pixel space, through callbacks
// and optionally an [EntityStore] (see the ecs module for a Donburi adapter).
//
// # Configuration and logging
//
// Tunables live in [Config], loadable from YAML with [LoadConfig]. Loggers are
// zap loggers; [NewLogger] builds one from [LogConfig] with optional file
// rotation.
package wisp
