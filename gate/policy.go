package gate

// Policy tells which role a resource type requires for an action.
type Policy[R comparable] interface {
	// Required returns the single role allowed to perform action.
	// ok is false when the action is not covered by the policy.
	Required(action Action) (role R, ok bool)
}

// RolePolicy is the map-backed Policy used by Gate.Require.
type RolePolicy[R comparable] map[Action]R

func (p RolePolicy[R]) Required(action Action) (R, bool) {
	r, ok := p[action]
	return r, ok
}
