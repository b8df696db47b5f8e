// Package gate provides a small role gate. Every permission ("resource:action")
// names exactly one required role and a subject is allowed iff it holds that
// role. There is no hierarchy and no inheritance.
//
// The package uses generics so it does not depend on domain models:
//   - Gate[string] for plain role names
//   - Gate[models.RoleName] for a typed role enumeration
package gate

import (
	"context"
	"fmt"
)

// Gate is the central authorization checkpoint.
// R is the role type; its zero value means "no role" (anonymous).
type Gate[R comparable] struct {
	policies map[string]Policy[R]
}

// NewGate creates an empty Gate ready to register policies.
func NewGate[R comparable]() *Gate[R] {
	return &Gate[R]{policies: make(map[string]Policy[R])}
}

// Register adds a policy for a given resource type (e.g., "user").
// Overwrites any existing policy for that type.
func (g *Gate[R]) Register(resourceType string, p Policy[R]) {
	g.policies[resourceType] = p
}

// Require binds resource:action to role, creating a RolePolicy for the
// resource when none is registered yet.
func (g *Gate[R]) Require(resourceType string, action Action, role R) *Gate[R] {
	rp, ok := g.policies[resourceType].(RolePolicy[R])
	if !ok {
		rp = RolePolicy[R]{}
		g.policies[resourceType] = rp
	}
	rp[action] = role
	return g
}

// Required returns the role needed for resource:action.
func (g *Gate[R]) Required(resourceType string, action Action) (R, bool) {
	var zero R
	p, ok := g.policies[resourceType]
	if !ok {
		return zero, false
	}
	return p.Required(action)
}

// Authorize returns nil iff role equals the role required for resource:action.
// Returns ErrUnauthorized for the zero role, ErrNoPolicyDefined if nothing was
// registered for the permission and a *DeniedError naming the required role otherwise.
func (g *Gate[R]) Authorize(_ context.Context, role R, resourceType string, action Action) error {
	var zero R
	if role == zero {
		return ErrUnauthorized
	}
	required, ok := g.Required(resourceType, action)
	if !ok {
		return ErrNoPolicyDefined
	}
	if role != required {
		return &DeniedError{
			Permission: NewPermission(resourceType, action),
			Required:   fmt.Sprint(required),
		}
	}
	return nil
}

// Can is a convenience wrapper returning bool instead of error.
func (g *Gate[R]) Can(ctx context.Context, role R, resourceType string, action Action) bool {
	return g.Authorize(ctx, role, resourceType, action) == nil
}

// Permissions lists every registered permission with the role it requires.
func (g *Gate[R]) Permissions() map[Permission]R {
	out := make(map[Permission]R)
	for res, p := range g.policies {
		rp, ok := p.(RolePolicy[R])
		if !ok {
			continue
		}
		for action, role := range rp {
			out[NewPermission(res, action)] = role
		}
	}
	return out
}
