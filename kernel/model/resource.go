package model

import "strings"

// ParentRelationship is the relationship type tag that marks an annotation-style parent link.
const ParentRelationship = "Parent"

// Identity names a resource. Two identities are equal when their names match ignoring case.
type Identity string

// Key returns the canonical form used for map lookups.
func (id Identity) Key() string {
	return strings.ToLower(string(id))
}

func (id Identity) Equal(other Identity) bool {
	return strings.EqualFold(string(id), string(other))
}

func (id Identity) String() string {
	return string(id)
}

// Relationship is a typed annotation pointing at another resource in the graph.
type Relationship struct {
	Type   string
	Target *Resource
}

// Resource is a node of the resource graph. Parent is the structural parent, if any.
type Resource struct {
	Name          Identity
	Type          string
	Parent        *Resource
	Relationships []Relationship
}

// Relate appends a typed relationship to the resource and returns it for chaining.
func (r *Resource) Relate(relType string, target *Resource) *Resource {
	r.Relationships = append(r.Relationships, Relationship{Type: relType, Target: target})
	return r
}

// EffectiveParent resolves the parent a resource rolls up into: the structural parent when one is
// declared, otherwise the target of the last relationship tagged ParentRelationship. Returns nil when
// neither resolves.
func EffectiveParent(r *Resource) *Resource {
	if r == nil {
		return nil
	}
	if r.Parent != nil {
		return r.Parent
	}
	var parent *Resource
	for _, rel := range r.Relationships {
		if rel.Type == ParentRelationship && rel.Target != nil {
			parent = rel.Target
		}
	}
	return parent
}

// Graph is a point-in-time view of every resource known to the host.
type Graph struct {
	Resources []*Resource
}

func NewGraph(resources ...*Resource) *Graph {
	return &Graph{Resources: resources}
}

// Add appends a resource and returns it.
func (g *Graph) Add(r *Resource) *Resource {
	g.Resources = append(g.Resources, r)
	return r
}

// Find returns the first resource whose name matches id, or nil.
func (g *Graph) Find(id Identity) *Resource {
	for _, r := range g.Resources {
		if r.Name.Equal(id) {
			return r
		}
	}
	return nil
}
