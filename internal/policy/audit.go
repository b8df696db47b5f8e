package policy

import (
	"fmt"

	"github.com/synageion/synageion/internal/models"
	"gorm.io/gorm"
)

// Record appends an audit entry. Pass the transaction of the mutation being
// audited so both commit or roll back together.
func Record(tx *gorm.DB, actorID uint, action, target string) error {
	entry := models.AdminLog{AdminUserID: actorID, Action: action, Target: target}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("audit %s: %w", action, err)
	}
	return nil
}
