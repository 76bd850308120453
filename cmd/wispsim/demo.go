package main

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/phanxgames/wisp"
	"go.uber.org/zap"
)

// Demo layout.
var (
	panelPosition   = wisp.Vec3{0, 1.6, -1}
	panelSize       = wisp.Vec2{0.4, 0.3}
	pixelsPerMeter  = 2000.0
	shellRest       = wisp.Vec3{0, -0.2, 0}
	trayPosition    = wisp.Vec3{0.45, 1.2, -0.8}
	trayRadius      = 0.05
	buttonThickness = 0.01
)

// demo is the scene wispsim drives: a resizable panel carrying a surface, a
// transfer ball and a close button, plus a tray the ball can be dropped on.
type demo struct {
	scene  *wisp.Scene
	logger *zap.Logger

	panel   *wisp.ResizePair
	surface *wisp.SurfaceRouter
	shell   *wisp.ShellGrab
	button  *wisp.ExposureButton
	tray    *wisp.SceneAcceptor
	trayFld wisp.FieldID

	events    atomic.Int64
	presses   int
	committed atomic.Bool
}

// newDemo builds the demo on scene. Everything created so far is torn down
// again when a step fails.
func newDemo(ctx context.Context, scene *wisp.Scene, res *wisp.Resources) (_ *demo, err error) {
	d := &demo{scene: scene, logger: res.Named("demo")}
	defer func() {
		if err != nil {
			_ = d.Close()
		}
	}()

	d.panel, err = wisp.NewResizePair(res, wisp.ResizeOptions{
		Transform: wisp.FromTranslation(panelPosition),
		Size:      panelSize,
		Zoneable:  true,
		OnSizeChanged: func(size wisp.Vec2) {
			if d.surface == nil {
				return
			}
			d.surface.Resize(size, size.Mul(pixelsPerMeter))
			d.logger.Debug("panel resized", zap.Float64("width", size.X()), zap.Float64("height", size.Y()))
		},
	})
	if err != nil {
		return nil, err
	}
	if _, err := wisp.PlaceInitially(ctx, scene, d.panel.Content()); err != nil {
		return nil, err
	}

	d.surface, err = wisp.NewSurfaceRouter(res, wisp.SurfaceOptions{
		Parent:       d.panel.Content(),
		Transform:    wisp.Identity(),
		PhysicalSize: panelSize,
		Resolution:   panelSize.Mul(pixelsPerMeter),
		Thickness:    0.01,
	})
	if err != nil {
		return nil, err
	}
	d.surface.OnButton(func(e wisp.SurfaceEvent) {
		d.events.Add(1)
		d.logger.Info("surface button",
			zap.Uint32("code", e.Button), zap.Bool("pressed", e.Pressed),
			zap.Float64("x", e.Position.X()), zap.Float64("y", e.Position.Y()))
	})
	for _, on := range []func(func(wisp.SurfaceEvent)) wisp.CallbackHandle{
		d.surface.OnPointerMotion, d.surface.OnScroll, d.surface.OnPointerLeave,
		d.surface.OnTouchDown, d.surface.OnTouchMove, d.surface.OnTouchUp,
	} {
		on(func(e wisp.SurfaceEvent) {
			d.events.Add(1)
			d.logger.Debug("surface event", zap.Stringer("type", e.Type), zap.Uint32("sample", uint32(e.Sample)))
		})
	}

	d.trayFld, err = scene.CreateField(scene.Root(), wisp.FromTranslation(trayPosition), wisp.Sphere(trayRadius))
	if err != nil {
		return nil, err
	}
	if d.tray, err = scene.CreateAcceptor("tray", d.trayFld); err != nil {
		return nil, err
	}

	d.shell, err = wisp.NewShellGrab(res, wisp.ShellOptions{
		Item:      wisp.ItemID(uuid.NewString()),
		Anchor:    d.panel.Content(),
		Rest:      shellRest,
		Acceptors: scene.Acceptors,
		OnResolve: func(r wisp.Resolution) {
			if r.Committed {
				d.committed.Store(true)
			}
		},
	})
	if err != nil {
		return nil, err
	}

	top := wisp.FromTranslation(wisp.Vec3{panelSize.X() / 2, panelSize.Y()/2 + 0.03, 0})
	if d.button, err = wisp.NewExposureButton(res, d.panel.Content(), top, buttonThickness); err != nil {
		return nil, err
	}
	return d, nil
}

// Update advances every component by one frame.
func (d *demo) Update(frame wisp.FrameInfo) {
	d.panel.Update(frame)
	d.surface.Update(frame)
	d.shell.Update(frame)
	if d.button.Update(frame) {
		d.presses++
		d.logger.Info("close button fired", zap.Int("presses", d.presses))
		if err := d.button.SetEnabled(true); err != nil {
			d.logger.Warn("reset close button failed", zap.Error(err))
		}
	}
}

// Status returns HUD lines describing the demo.
func (d *demo) Status() []string {
	size := d.panel.Size().Get()
	return []string{
		fmt.Sprintf("panel %.2f x %.2f m", size.X(), size.Y()),
		fmt.Sprintf("surface events %d", d.events.Load()),
		fmt.Sprintf("close presses %d", d.presses),
		fmt.Sprintf("dropped on tray %v", d.committed.Load()),
	}
}

// Close tears the demo down.
func (d *demo) Close() error {
	var errs []error
	if d.button != nil {
		errs = append(errs, d.button.Close())
	}
	if d.shell != nil {
		errs = append(errs, d.shell.Close())
	}
	if d.tray != nil {
		d.scene.DestroyAcceptor(d.tray.ID())
		errs = append(errs, d.scene.DestroyField(d.trayFld))
	}
	if d.surface != nil {
		errs = append(errs, d.surface.Close())
	}
	if d.panel != nil {
		errs = append(errs, d.panel.Close())
	}
	return errors.Join(errs...)
}
