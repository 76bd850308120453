package wisp

import (
	"context"
	"math"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Acceptor is a drop target that can take ownership of a dragged item.
type Acceptor interface {
	ID() string
	// Field is the acceptor's region; distances are measured to it.
	Field() FieldID
	// Capture hands item to the acceptor.
	Capture(ctx context.Context, item ItemID) error
}

// Resolution is the outcome of one resolver round.
type Resolution struct {
	Generation uint64
	Acceptor   Acceptor // nearest acceptor, nil when none answered
	Distance   float64  // distance to Acceptor, +Inf when none
	Color      Color    // feedback color applied
	Released   bool     // the grab stopped in the round's update
	Committed  bool     // Capture was called and succeeded
}

// AcceptorOptions configures an AcceptorResolver.
type AcceptorOptions struct {
	// Item is handed to the winning acceptor on commit.
	Item ItemID
	// Reference is the dragged object's node; distances are measured from
	// its origin.
	Reference NodeID
	// Feedback is the node whose emission shows proximity. Zero means
	// Reference.
	Feedback NodeID
	// Config overrides Resources.Config.Acceptor when non-nil.
	Config *AcceptorConfig
	// OnResolve runs after every applied round. Rounds with acceptors apply
	// on a background goroutine; a round with no acceptors applies inside
	// Update on the caller's goroutine.
	OnResolve func(Resolution)
}

// AcceptorResolver finds the nearest acceptor to a dragged object. Every
// Update fans out one distance query per acceptor in the background,
// reduces the answers to the nearest acceptor, tints the dragged object by
// proximity and, when the grab was released within the commit distance,
// hands the item over. Queries that fail drop their acceptor from the round.
//
// Rounds are numbered; a round that finishes after a newer round already
// applied is discarded.
type AcceptorResolver struct {
	svc    Service
	cfg    AcceptorConfig
	logger *zap.Logger

	item      ItemID
	reference NodeID
	feedback  NodeID
	onResolve func(Resolution)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	gen     uint64
	applied uint64
	last    Resolution

	closed bool
}

// NewAcceptorResolver creates a resolver for the item carried by reference.
func NewAcceptorResolver(res *Resources, opts AcceptorOptions) *AcceptorResolver {
	cfg := res.Config.Acceptor
	if opts.Config != nil {
		cfg = *opts.Config
	}
	if opts.Feedback == 0 {
		opts.Feedback = opts.Reference
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &AcceptorResolver{
		svc:       res.Service,
		cfg:       cfg,
		logger:    res.Named("acceptor"),
		item:      opts.Item,
		reference: opts.Reference,
		feedback:  opts.Feedback,
		onResolve: opts.OnResolve,
		ctx:       ctx,
		cancel:    cancel,
		last:      Resolution{Distance: math.Inf(1)},
	}
	debugTrackClose(r, "AcceptorResolver", func(r *AcceptorResolver) bool { return r.closed })
	return r
}

// Update starts a resolution round for the current grab state, measuring
// from the reference node's origin. It never blocks; results apply when the
// queries complete.
func (r *AcceptorResolver) Update(grab *SingleActorAction, acceptors []Acceptor) {
	r.UpdateAt(grab, acceptors, r.reference, Vec3{})
}

// UpdateAt is Update with distances measured from point in from's space.
// Callers that move the reference on release pass the drop point here.
func (r *AcceptorResolver) UpdateAt(grab *SingleActorAction, acceptors []Acceptor, from NodeID, point Vec3) {
	if r.closed {
		return
	}
	released := grab != nil && grab.Stopped()

	r.mu.Lock()
	r.gen++
	gen := r.gen
	r.mu.Unlock()

	if len(acceptors) == 0 {
		r.apply(gen, nil, math.Inf(1), released)
		return
	}

	candidates := make([]Acceptor, len(acceptors))
	copy(candidates, acceptors)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		best, dist := r.query(candidates, from, point)
		r.apply(gen, best, dist, released)
	}()
}

// query measures the distance to every candidate concurrently and returns
// the nearest one that answered.
func (r *AcceptorResolver) query(candidates []Acceptor, from NodeID, point Vec3) (Acceptor, float64) {
	distances := make([]float64, len(candidates))
	answered := make([]bool, len(candidates))

	var eg errgroup.Group
	for i, a := range candidates {
		eg.Go(func() error {
			d, err := r.svc.FieldDistance(r.ctx, a.Field(), from, point)
			if err != nil {
				if r.ctx.Err() == nil {
					r.logger.Warn("acceptor distance query failed",
						zap.String("acceptor", a.ID()),
						zap.Error(err))
				}
				return nil
			}
			distances[i] = d
			answered[i] = true
			return nil
		})
	}
	_ = eg.Wait()

	var best Acceptor
	dist := math.Inf(1)
	for i, a := range candidates {
		if answered[i] && distances[i] < dist {
			best, dist = a, distances[i]
		}
	}
	return best, dist
}

// apply publishes a round's outcome unless a newer round already did.
func (r *AcceptorResolver) apply(gen uint64, best Acceptor, dist float64, released bool) {
	r.mu.Lock()
	if gen <= r.applied || r.ctx.Err() != nil {
		r.mu.Unlock()
		r.logger.Debug("discarding stale acceptor round", zap.Uint64("generation", gen))
		return
	}
	r.applied = gen
	r.mu.Unlock()

	out := Resolution{Generation: gen, Acceptor: best, Distance: dist, Released: released}
	if best == nil {
		out.Color = ColorWhite
		r.setColor(ParamColor, ColorWhite)
		r.setColor(ParamEmission, ColorBlack)
	} else {
		out.Color = DistanceFeedback(dist, r.cfg.FarDistance, r.cfg.CommitDistance)
		r.setColor(ParamEmission, out.Color)
		if released && dist < r.cfg.CommitDistance {
			if err := best.Capture(r.ctx, r.item); err != nil {
				r.logger.Warn("acceptor capture failed",
					zap.String("acceptor", best.ID()),
					zap.String("item", string(r.item)),
					zap.Error(err))
			} else {
				out.Committed = true
				r.logger.Info("item transferred",
					zap.String("acceptor", best.ID()),
					zap.String("item", string(r.item)),
					zap.Float64("distance", dist))
			}
		}
	}

	r.mu.Lock()
	if gen >= r.last.Generation {
		r.last = out
	}
	r.mu.Unlock()
	if r.onResolve != nil {
		r.onResolve(out)
	}
}

func (r *AcceptorResolver) setColor(param string, c Color) {
	if err := r.svc.SetMaterialColor(r.feedback, param, c); err != nil {
		r.logger.Warn("set acceptor feedback failed", zap.String("param", param), zap.Error(err))
	}
}

// Last returns the most recently applied round.
func (r *AcceptorResolver) Last() Resolution {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Wait blocks until every in-flight round has finished.
func (r *AcceptorResolver) Wait() { r.wg.Wait() }

// Close cancels in-flight queries and waits for them to return. Rounds that
// finish after Close are discarded.
func (r *AcceptorResolver) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.cancel()
	r.wg.Wait()
	return nil
}
