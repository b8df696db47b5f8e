package models

import "time"

// Audit actions written by privileged operations.
const (
	ActionRoleChange     = "role_change"
	ActionDeactivateUser = "deactivate_user"
	ActionPasswordReset  = "password_reset"
)

// AdminLog is an append-only record of a privileged mutation.
type AdminLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AdminUserID uint      `gorm:"index;not null" json:"admin_user_id"` // who did it
	Admin       User      `gorm:"foreignKey:AdminUserID" json:"admin"`
	Action      string    `gorm:"size:50;not null" json:"action"`
	Target      string    `gorm:"size:500;not null" json:"target"`
	Timestamp   time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
}
