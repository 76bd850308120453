package wisp

import (
	"fmt"

	"go.uber.org/zap"
)

// Resources is the shared state handed to every manipulator: the spatial
// service, the logger, the active configuration and the shared visual
// anchors. Build one at startup with NewResources and pass it by pointer.
type Resources struct {
	Service Service
	Logger  *zap.Logger
	Config  Config

	// HandleAnchor is the node every resize handle's input is measured from.
	// It defaults to the service root.
	HandleAnchor NodeID
}

// NewResources validates cfg and assembles a registry. A nil logger is
// replaced with a no-op logger.
func NewResources(svc Service, logger *zap.Logger, cfg Config) (*Resources, error) {
	if svc == nil {
		return nil, fmt.Errorf("new resources: nil service")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new resources: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resources{
		Service:      svc,
		Logger:       logger,
		Config:       cfg,
		HandleAnchor: svc.Root(),
	}, nil
}

// Named returns the registry logger scoped to a component.
func (r *Resources) Named(component string) *zap.Logger {
	return r.Logger.Named(component)
}
