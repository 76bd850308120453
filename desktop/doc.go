// Package desktop runs a wisp scene in an Ebitengine window so manipulators
// can be tried without a headset.
//
// The mouse becomes a ray cast from a perspective [Camera] standing at the
// scene's viewer: the left, middle and right buttons map to select, middle
// and context, the wheel to discrete scroll and a configurable key to grab.
// Screen touches become controller tips placed a fixed depth along their
// ray. Fields are drawn as wireframes tinted with their material colors.
//
//	app := desktop.NewApp(scene, desktop.Options{Title: "wisp"})
//	app.Add(grab)
//	if err := app.Run(); err != nil {
//		log.Fatal(err)
//	}
package desktop
