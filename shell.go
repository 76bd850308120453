package wisp

import (
	"errors"
	"fmt"
)

// ShellOptions configures a ShellGrab.
type ShellOptions struct {
	// Item is the panel handed to an acceptor on drop.
	Item ItemID
	// Anchor is the panel's node; the ball rests at Rest relative to it.
	Anchor NodeID
	Rest   Vec3
	// Acceptors supplies the current drop targets each frame.
	Acceptors func() []Acceptor
	// OnResolve is forwarded to the acceptor resolver.
	OnResolve func(Resolution)
}

// ShellGrab is the transfer ball hanging off a panel: a grab manipulator
// that can be dragged onto an acceptor to hand the panel over. Distances to
// acceptors are only queried while the ball is held and on the frame it is
// released.
type ShellGrab struct {
	grab      *GrabManipulator
	resolver  *AcceptorResolver
	acceptors func() []Acceptor
}

// NewShellGrab creates the ball under opts.Anchor at its rest position.
func NewShellGrab(res *Resources, opts ShellOptions) (*ShellGrab, error) {
	rest := opts.Rest
	grab, err := NewGrabManipulator(res, GrabOptions{
		Anchor:   opts.Anchor,
		Position: rest,
		Rest:     &rest,
	})
	if err != nil {
		return nil, fmt.Errorf("create shell grab: %w", err)
	}
	acceptors := opts.Acceptors
	if acceptors == nil {
		acceptors = func() []Acceptor { return nil }
	}
	return &ShellGrab{
		grab: grab,
		resolver: NewAcceptorResolver(res, AcceptorOptions{
			Item:      opts.Item,
			Reference: grab.Head(),
			OnResolve: opts.OnResolve,
		}),
		acceptors: acceptors,
	}, nil
}

// Update moves the ball and, while it is held or just released, starts an
// acceptor round. Distances are measured from the last grab point, since the
// ball is already back at rest on the release frame.
func (s *ShellGrab) Update(frame FrameInfo) {
	s.grab.Update(frame)
	a := s.grab.Action()
	if !a.Acting() && !a.Stopped() {
		return
	}
	point, ok := s.grab.GrabPoint()
	if !ok {
		s.resolver.Update(a, s.acceptors())
		return
	}
	s.resolver.UpdateAt(a, s.acceptors(), s.grab.Anchor(), point)
}

// Grab returns the underlying grab manipulator.
func (s *ShellGrab) Grab() *GrabManipulator { return s.grab }

// Resolver returns the acceptor resolver.
func (s *ShellGrab) Resolver() *AcceptorResolver { return s.resolver }

// SetEnabled shows or hides the ball.
func (s *ShellGrab) SetEnabled(enabled bool) error { return s.grab.SetEnabled(enabled) }

// Close stops pending rounds and destroys the ball.
func (s *ShellGrab) Close() error {
	return errors.Join(s.resolver.Close(), s.grab.Close())
}
