package wisp

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CaptureRecord is one item handed to a scene acceptor.
type CaptureRecord struct {
	Acceptor string
	Name     string
	Item     ItemID
}

// SceneAcceptor is an acceptor registered with a Scene. Captured items are
// recorded on the scene.
type SceneAcceptor struct {
	scene   *Scene
	id      string
	name    string
	field   FieldID
	created uint64
}

// CreateAcceptor registers a drop target whose region is field. The
// acceptor gets a random UUID identity.
func (s *Scene) CreateAcceptor(name string, field FieldID) (*SceneAcceptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.lookupField(field); err != nil {
		return nil, fmt.Errorf("create acceptor %q: %w", name, err)
	}
	s.nextID++
	a := &SceneAcceptor{
		scene:   s,
		id:      uuid.NewString(),
		name:    name,
		field:   field,
		created: uint64(s.nextID),
	}
	s.acceptors[a.id] = a
	return a, nil
}

// DestroyAcceptor unregisters an acceptor. Unknown IDs are ignored.
func (s *Scene) DestroyAcceptor(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.acceptors, id)
}

// Acceptors returns every registered acceptor in creation order.
func (s *Scene) Acceptors() []Acceptor {
	s.mu.Lock()
	list := make([]*SceneAcceptor, 0, len(s.acceptors))
	for _, a := range s.acceptors {
		list = append(list, a)
	}
	s.mu.Unlock()
	sort.Slice(list, func(i, j int) bool { return list[i].created < list[j].created })
	out := make([]Acceptor, len(list))
	for i, a := range list {
		out[i] = a
	}
	return out
}

// Captures returns every capture recorded so far.
func (s *Scene) Captures() []CaptureRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CaptureRecord, len(s.captures))
	copy(out, s.captures)
	return out
}

// ID returns the acceptor's UUID.
func (a *SceneAcceptor) ID() string { return a.id }

// Name returns the acceptor's display name.
func (a *SceneAcceptor) Name() string { return a.name }

// Field returns the acceptor's region.
func (a *SceneAcceptor) Field() FieldID { return a.field }

// Capture records item as handed to this acceptor.
func (a *SceneAcceptor) Capture(ctx context.Context, item ItemID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := a.scene
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.acceptors[a.id]; !ok {
		return fmt.Errorf("capture %s: acceptor %s no longer registered", item, a.name)
	}
	if _, err := s.lookupField(a.field); err != nil {
		return fmt.Errorf("capture %s: %w", item, err)
	}
	s.captures = append(s.captures, CaptureRecord{Acceptor: a.id, Name: a.name, Item: item})
	s.logger.Debug("item captured", zap.String("acceptor", a.name), zap.String("item", string(item)))
	return nil
}
