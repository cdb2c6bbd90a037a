package engine

import (
	"context"

	"github.com/openziti/fabstatus/kernel/model"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// StateProvider answers point-in-time state queries for resources not yet seen on the event stream.
type StateProvider interface {
	TryGetCurrentState(id model.Identity) (model.Snapshot, bool)
}

// Publisher applies a merge-update to a resource's snapshot.
type Publisher interface {
	PublishUpdate(ctx context.Context, id model.Identity, mutate model.Mutator) error
}

// Aggregator rolls child states up into their monitored parents as state-change events arrive.
type Aggregator struct {
	index     *Index
	cache     *StateCache
	provider  StateProvider
	publisher Publisher
	log       *logrus.Entry

	concurrency       int
	suppressUnchanged bool
	published         map[string]model.Snapshot
}

// NewAggregator indexes the graph once. Resources added to the host after this call are not tracked.
func NewAggregator(graph *model.Graph, provider StateProvider, publisher Publisher, opts ...Option) *Aggregator {
	o := newOptions(opts)
	return &Aggregator{
		index:             BuildIndex(graph, o.registry()),
		cache:             NewStateCache(),
		provider:          provider,
		publisher:         publisher,
		log:               o.log,
		concurrency:       o.concurrency,
		suppressUnchanged: o.suppressUnchanged,
		published:         make(map[string]model.Snapshot),
	}
}

// Parents returns every monitored parent that has indexed children.
func (a *Aggregator) Parents() []model.Identity {
	return append([]model.Identity(nil), a.index.Parents()...)
}

// Children returns the indexed children of a monitored parent.
func (a *Aggregator) Children(parent model.Identity) []model.Identity {
	return append([]model.Identity(nil), a.index.ChildrenOf(parent)...)
}

// Run consumes events until the channel is closed or ctx is cancelled. Both are normal shutdowns and
// return nil. Events are handled one at a time in delivery order.
func (a *Aggregator) Run(ctx context.Context, events <-chan model.Event) error {
	a.log.Infof("watching %d monitored parent(s)", len(a.index.Parents()))
	for {
		select {
		case <-ctx.Done():
			a.log.Debugf("context cancelled, stopping with %d cached state(s)", a.cache.Len())
			return nil
		case ev, ok := <-events:
			if !ok {
				a.log.Debugf("event stream closed, stopping with %d cached state(s)", a.cache.Len())
				return nil
			}
			a.Handle(ctx, ev)
		}
	}
}

type update struct {
	parent   model.Identity
	snapshot model.Snapshot
}

// Handle processes a single event: records it, then recomputes and publishes every affected parent.
func (a *Aggregator) Handle(ctx context.Context, ev model.Event) {
	a.cache.Record(ev.Resource, ev.Snapshot)

	parents := a.index.ParentsOf(ev.Resource)
	if len(parents) == 0 {
		return
	}

	seen := make(map[string]struct{}, len(parents))
	updates := make([]update, 0, len(parents))
	for _, parent := range parents {
		if _, dup := seen[parent.Key()]; dup {
			continue
		}
		seen[parent.Key()] = struct{}{}

		derived, ok := a.Derive(parent)
		if !ok {
			a.log.WithField("parent", parent).Debug("no child state observed yet, skipping")
			continue
		}
		if a.suppressUnchanged {
			if last, found := a.published[parent.Key()]; found && last.SameStatus(derived) {
				continue
			}
		}
		updates = append(updates, update{parent: parent, snapshot: derived})
	}

	for i, ok := range a.publish(ctx, updates) {
		if ok {
			a.published[updates[i].parent.Key()] = updates[i].snapshot
		}
	}
}

// Derive computes the aggregate snapshot of a parent from the cached states of its children, asking the
// StateProvider for children the stream has not delivered yet and caching what it returns.
func (a *Aggregator) Derive(parent model.Identity) (model.Snapshot, bool) {
	children := a.index.ChildrenOf(parent)
	snapshots := make([]model.Snapshot, 0, len(children))
	for _, child := range children {
		if s, ok := a.lookup(child); ok {
			snapshots = append(snapshots, s)
		}
	}
	return Aggregate(snapshots)
}

func (a *Aggregator) lookup(id model.Identity) (model.Snapshot, bool) {
	if s, ok := a.cache.Lookup(id); ok {
		return s, true
	}
	if a.provider == nil {
		return model.Snapshot{}, false
	}
	s, ok := a.provider.TryGetCurrentState(id)
	if ok {
		a.cache.Record(id, s)
	}
	return s, ok
}

// publish sends each update at most once and reports which succeeded. Failures are logged only.
func (a *Aggregator) publish(ctx context.Context, updates []update) []bool {
	done := make([]bool, len(updates))
	g := new(errgroup.Group)
	g.SetLimit(a.concurrency)

	for i, u := range updates {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			log := a.log.WithField("parent", u.parent).WithField("state", u.snapshot.State)
			if err := a.publisher.PublishUpdate(ctx, u.parent, mergeStatus(u.snapshot)); err != nil {
				log.WithError(err).Error("failed to publish aggregate state")
				return nil
			}
			log.Debug("published aggregate state")
			done[i] = true
			return nil
		})
	}
	_ = g.Wait()
	return done
}

// mergeStatus replaces state, style and exit code, leaving every other field of the parent untouched.
func mergeStatus(derived model.Snapshot) model.Mutator {
	return func(current model.Snapshot) model.Snapshot {
		return current.WithState(derived.State, derived.Style).WithExitCode(derived.ExitCode)
	}
}
