package store

import (
	"context"

	"github.com/openziti/fabstatus/kernel/model"
)

// SnapshotStore is the host's view of every resource's current snapshot. It satisfies the engine's
// StateProvider and Publisher collaborators and emits an event for every change.
type SnapshotStore interface {
	TryGetCurrentState(id model.Identity) (model.Snapshot, bool)
	PublishUpdate(ctx context.Context, id model.Identity, mutate model.Mutator) error
	Set(id model.Identity, snapshot model.Snapshot)
	Snapshots() []ResourceState
	Subscribe(ctx context.Context) *Subscription
}

// ResourceState pairs a resource with its current snapshot.
type ResourceState struct {
	Resource model.Identity `json:"resource"`
	Snapshot model.Snapshot `json:"snapshot"`
}

var _ SnapshotStore = (*MemoryStore)(nil)
var _ SnapshotStore = (*FileStore)(nil)

// Seed writes each event's snapshot in order.
func Seed(s SnapshotStore, events []model.Event) {
	for _, ev := range events {
		s.Set(ev.Resource, ev.Snapshot)
	}
}
