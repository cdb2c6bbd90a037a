package store

import (
	"context"
	"sort"
	"sync"

	"github.com/openziti/fabstatus/kernel/model"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/pkg/errors"
)

// MemoryStore keeps snapshots in memory. Reads are lock-free; writes are serialized so subscribers see
// changes to a resource in the order they were applied.
type MemoryStore struct {
	snapshots cmap.ConcurrentMap[string, ResourceState]

	writeMu     sync.Mutex
	subMu       sync.Mutex
	subscribers map[*Subscription]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots:   cmap.New[ResourceState](),
		subscribers: make(map[*Subscription]struct{}),
	}
}

func (s *MemoryStore) TryGetCurrentState(id model.Identity) (model.Snapshot, bool) {
	rs, ok := s.snapshots.Get(id.Key())
	if !ok {
		return model.Snapshot{}, false
	}
	return rs.Snapshot, true
}

// Set replaces a resource's snapshot wholesale.
func (s *MemoryStore) Set(id model.Identity, snapshot model.Snapshot) {
	s.update(id, func(model.Snapshot) model.Snapshot { return snapshot })
}

// PublishUpdate applies mutate to the resource's current snapshot, starting from an empty snapshot for
// resources the store has not seen.
func (s *MemoryStore) PublishUpdate(ctx context.Context, id model.Identity, mutate model.Mutator) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrapf(err, "publish to [%s] abandoned", id)
	}
	if mutate == nil {
		return errors.Errorf("publish to [%s] has no mutator", id)
	}
	s.update(id, mutate)
	return nil
}

func (s *MemoryStore) update(id model.Identity, mutate model.Mutator) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := s.snapshots.Upsert(id.Key(), ResourceState{}, func(exist bool, current ResourceState, _ ResourceState) ResourceState {
		name := id
		if exist {
			name = current.Resource
		}
		return ResourceState{Resource: name, Snapshot: mutate(current.Snapshot)}
	})
	s.broadcast(model.Event{Resource: next.Resource, Snapshot: next.Snapshot})
}

// Snapshots returns every resource's snapshot sorted by resource key.
func (s *MemoryStore) Snapshots() []ResourceState {
	items := s.snapshots.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]ResourceState, 0, len(keys))
	for _, k := range keys {
		result = append(result, items[k])
	}
	return result
}

// Subscribe returns a subscription receiving every change applied after this call. It is released when
// ctx is done.
func (s *MemoryStore) Subscribe(ctx context.Context) *Subscription {
	sub := newSubscription()

	s.subMu.Lock()
	s.subscribers[sub] = struct{}{}
	s.subMu.Unlock()

	go func() {
		<-ctx.Done()
		s.subMu.Lock()
		delete(s.subscribers, sub)
		s.subMu.Unlock()
		sub.close()
	}()
	return sub
}

func (s *MemoryStore) broadcast(ev model.Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for sub := range s.subscribers {
		sub.push(ev)
	}
}
