package models

// RoleName identifies one entry of the fixed role registry.
type RoleName string

const (
	RoleAdministrator RoleName = "Administrator"
	RoleBuyer         RoleName = "Buyer"
	RoleLogistics     RoleName = "Logistics"
	RoleSales         RoleName = "Sales"
	// RolePending is held by freshly registered and deactivated accounts.
	RolePending RoleName = "Pending"
)

// ActiveRoles are the roles an administrator may assign.
var ActiveRoles = []RoleName{RoleAdministrator, RoleBuyer, RoleLogistics, RoleSales}

// AllRoles is the seed set for the roles table, in display order.
var AllRoles = []RoleName{RoleAdministrator, RoleBuyer, RoleLogistics, RoleSales, RolePending}

// IsActive reports whether r is one of the assignable roles.
func (r RoleName) IsActive() bool {
	for _, a := range ActiveRoles {
		if a == r {
			return true
		}
	}
	return false
}

// Valid reports whether r is part of the registry, pending included.
func (r RoleName) Valid() bool {
	return r == RolePending || r.IsActive()
}

func (r RoleName) String() string { return string(r) }

// Role is a row of the roles table.
type Role struct {
	ID   uint     `gorm:"primaryKey" json:"id"`
	Name RoleName `gorm:"uniqueIndex;size:50;not null" json:"name"`
}
