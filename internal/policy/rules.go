package policy

import (
	"github.com/synageion/synageion/gate"
	"github.com/synageion/synageion/internal/models"
)

// Resource types known to the role gate.
const (
	ResourceUser    = "user"
	ResourceStats   = "stats"
	ResourceAudit   = "audit"
	ResourceArticle = "article"
)

// NewRoleGate returns the application's permission table. Each permission
// names exactly one role; administrators do not inherit buyer permissions.
func NewRoleGate() *gate.Gate[models.RoleName] {
	g := gate.NewGate[models.RoleName]()

	g.Require(ResourceUser, gate.ActionList, models.RoleAdministrator).
		Require(ResourceUser, gate.ActionChangeRole, models.RoleAdministrator).
		Require(ResourceUser, gate.ActionDeactivate, models.RoleAdministrator).
		Require(ResourceUser, gate.ActionResetPassword, models.RoleAdministrator).
		Require(ResourceStats, gate.ActionView, models.RoleAdministrator).
		Require(ResourceAudit, gate.ActionList, models.RoleAdministrator)

	g.Require(ResourceArticle, gate.ActionList, models.RoleBuyer).
		Require(ResourceArticle, gate.ActionView, models.RoleBuyer).
		Require(ResourceArticle, gate.ActionCreate, models.RoleBuyer).
		Require(ResourceArticle, gate.ActionUpdate, models.RoleBuyer).
		Require(ResourceArticle, gate.ActionDeactivate, models.RoleBuyer)

	return g
}
