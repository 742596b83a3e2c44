package policy

// CanList reports whether a single resource is visible to the actor in a
// listing. Visibility is distinct from single-item read permission: a denial
// here silently drops the item instead of erroring.
func CanList(a Actor, res Resource) bool {
	byAction, ok := rules[res.Kind]
	if !ok {
		return false
	}
	pol, ok := byAction[ActionList]
	if !ok {
		return false
	}
	return pol.guardFor(a.Role).allows(a, res)
}

// Filter returns the subset of resources the actor may see. It is a pure
// function of (actor, resources) and preserves input order; repositories own
// any natural-key sorting.
func Filter(a Actor, resources []Resource) []Resource {
	visible := make([]Resource, 0, len(resources))
	for _, res := range resources {
		if CanList(a, res) {
			visible = append(visible, res)
		}
	}
	return visible
}
