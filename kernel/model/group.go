package model

// GroupType is the built-in grouping resource type monitored when no other type is configured.
const GroupType = "group"

// NewGroup creates a grouping resource.
func NewGroup(name Identity) *Resource {
	return &Resource{Name: name, Type: GroupType}
}

// NewChild creates a resource of the given type structurally parented to parent.
func NewChild(name Identity, resourceType string, parent *Resource) *Resource {
	return &Resource{Name: name, Type: resourceType, Parent: parent}
}
