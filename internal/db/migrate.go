package db

import (
	"errors"
	"fmt"

	"github.com/synageion/synageion/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates the schema and checks the core tables exist.
func Migrate(db *gorm.DB) error {
	for _, m := range []any{&models.Role{}, &models.User{}, &models.AdminLog{}, &models.Article{}} {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	for _, table := range []string{"roles", "users", "admin_logs", "articles"} {
		if !db.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// SeedRoles inserts every role, including Pending, if missing. Safe to run on every start.
func SeedRoles(db *gorm.DB) error {
	for _, name := range models.AllRoles {
		role := models.Role{Name: name}
		if err := db.Where(models.Role{Name: name}).FirstOrCreate(&role).Error; err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
	}
	return nil
}

// Setup runs Migrate then SeedRoles.
func Setup(db *gorm.DB) error {
	if err := Migrate(db); err != nil {
		return err
	}
	return SeedRoles(db)
}
