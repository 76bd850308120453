package wisp

import (
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/sync/errgroup"
)

// unplacedRadiusSqr is the squared distance from the root under which a new
// panel counts as launched without a position.
const unplacedRadiusSqr = 0.001

// DefaultPlacementOffset is where an unplaced panel appears, relative to the
// viewer.
var DefaultPlacementOffset = Vec3{0, 0, -0.25}

// PlaceInitially positions a freshly created panel. A panel still sitting at
// the root origin is moved in front of the viewer; any other panel keeps its
// position and is turned so it looks along the viewer-to-panel direction.
// It reports whether the panel was moved.
func PlaceInitially(ctx context.Context, svc Service, panel NodeID) (bool, error) {
	root := svc.Root()
	var panelPos, viewerPos Vec3

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		t, err := svc.Transform(ctx, panel, root)
		panelPos = t.Position()
		return err
	})
	eg.Go(func() error {
		t, err := svc.Transform(ctx, svc.Viewer(), root)
		viewerPos = t.Position()
		return err
	})
	if err := eg.Wait(); err != nil {
		return false, fmt.Errorf("initial placement: %w", err)
	}

	if panelPos.LenSqr() < unplacedRadiusSqr {
		if err := svc.SetTransform(panel, svc.Viewer(), FromTranslationRotation(DefaultPlacementOffset, mgl64.QuatIdent())); err != nil {
			return false, fmt.Errorf("initial placement: %w", err)
		}
		return true, nil
	}

	look := LookRotation(panelPos.Sub(viewerPos))
	if err := svc.SetTransform(panel, root, FromRotation(look)); err != nil {
		return false, fmt.Errorf("initial placement: %w", err)
	}
	return false, nil
}
