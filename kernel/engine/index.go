package engine

import (
	"github.com/openziti/fabstatus/kernel/model"
)

// Index maps monitored parents to their children and back. It is built once and read-only afterwards.
type Index struct {
	children   map[string][]model.Identity
	parents    map[string][]model.Identity
	parentList []model.Identity
}

// BuildIndex scans the graph once. A resource is indexed only when its effective parent resolves and
// that parent's type is monitored.
func BuildIndex(graph *model.Graph, monitored *model.TypeRegistry) *Index {
	idx := &Index{
		children: make(map[string][]model.Identity),
		parents:  make(map[string][]model.Identity),
	}
	if graph == nil {
		return idx
	}

	for _, r := range graph.Resources {
		parent := model.EffectiveParent(r)
		if parent == nil || !monitored.IsMonitored(parent.Type) {
			continue
		}

		pk := parent.Name.Key()
		if _, seen := idx.children[pk]; !seen {
			idx.parentList = append(idx.parentList, parent.Name)
		}
		idx.children[pk] = append(idx.children[pk], r.Name)

		ck := r.Name.Key()
		idx.parents[ck] = append(idx.parents[ck], parent.Name)
	}
	return idx
}

// ChildrenOf returns the children of a monitored parent in graph scan order.
func (idx *Index) ChildrenOf(parent model.Identity) []model.Identity {
	return idx.children[parent.Key()]
}

// ParentsOf returns every monitored parent of a resource.
func (idx *Index) ParentsOf(child model.Identity) []model.Identity {
	return idx.parents[child.Key()]
}

// Parents returns all monitored parents with at least one child, in discovery order.
func (idx *Index) Parents() []model.Identity {
	return idx.parentList
}
