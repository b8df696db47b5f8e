package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/synageion/synageion/auth"
	"github.com/synageion/synageion/gate"
	"github.com/synageion/synageion/internal/models"
	"github.com/synageion/synageion/internal/policy"
	"github.com/synageion/synageion/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Statistics warning thresholds.
const (
	pendingCriticalAbove = 5
	singleAdminAtMost    = 1
)

// AdminService implements role management for administrators.
type AdminService struct {
	Deps
	rules Rules
}

func NewAdminService(d Deps, rules Rules) *AdminService {
	return &AdminService{Deps: d, rules: rules}
}

// UserFilter narrows ListUsers. Zero values match everything.
type UserFilter struct {
	Role  models.RoleName
	Query string
}

// ListUsers returns users with their roles, ordered by username.
func (s *AdminService) ListUsers(ctx context.Context, actor Actor, f UserFilter) ([]models.User, error) {
	if err := s.authorize(ctx, actor, policy.ResourceUser, gate.ActionList); err != nil {
		return nil, err
	}
	return s.listUsers(ctx, f)
}

// ListPendingUsers returns the accounts waiting for an active role.
func (s *AdminService) ListPendingUsers(ctx context.Context, actor Actor) ([]models.User, error) {
	if err := s.authorize(ctx, actor, policy.ResourceUser, gate.ActionList); err != nil {
		return nil, err
	}
	return s.listUsers(ctx, UserFilter{Role: models.RolePending})
}

func (s *AdminService) listUsers(ctx context.Context, f UserFilter) ([]models.User, error) {
	q := s.DB.WithContext(ctx).Preload("Role").Order("username")
	if f.Role != "" {
		q = q.Where("role_id IN (?)", s.DB.Model(&models.Role{}).Select("id").Where("name = ?", f.Role))
	}
	if term := strings.TrimSpace(f.Query); term != "" {
		q = q.Where("LOWER(username) LIKE ?", "%"+strings.ToLower(term)+"%")
	}
	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		s.logger().Errorw("list users failed", "error", err)
		return nil, storageError("list users", err)
	}
	return users, nil
}

// ChangeRole assigns an active role and writes a role_change audit entry in the same transaction.
func (s *AdminService) ChangeRole(ctx context.Context, actor Actor, userID uint, newRole models.RoleName) (*models.User, error) {
	if err := s.authorize(ctx, actor, policy.ResourceUser, gate.ActionChangeRole); err != nil {
		return nil, err
	}
	if !newRole.IsActive() {
		return nil, ErrInvalidRole
	}
	if userID == actor.ID {
		return nil, ErrSelfModification
	}
	return s.setRole(ctx, actor, userID, newRole, models.ActionRoleChange)
}

// DeactivateUser moves the user back to Pending (soft delete).
func (s *AdminService) DeactivateUser(ctx context.Context, actor Actor, userID uint) (*models.User, error) {
	if err := s.authorize(ctx, actor, policy.ResourceUser, gate.ActionDeactivate); err != nil {
		return nil, err
	}
	if userID == actor.ID {
		return nil, ErrSelfModification
	}
	return s.setRole(ctx, actor, userID, models.RolePending, models.ActionDeactivateUser)
}

func (s *AdminService) setRole(ctx context.Context, actor Actor, userID uint, newRole models.RoleName, action string) (*models.User, error) {
	var u models.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Role").First(&u, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return storageError("load user", err)
		}
		role, err := roleByName(tx, newRole)
		if err != nil {
			return err
		}
		old := u.Role.Name
		if err := tx.Model(&u).Update("role_id", role.ID).Error; err != nil {
			return storageError("update role", err)
		}
		u.RoleID, u.Role = role.ID, role
		target := fmt.Sprintf("%s: %s -> %s", u.Username, old, newRole)
		if err := policy.Record(tx, actor.ID, action, target); err != nil {
			return storageError("audit", err)
		}
		return nil
	})
	if err != nil {
		s.logFailure(action, actor, userID, err)
		return nil, err
	}
	s.Metrics.AdminAction(action)
	s.logger().Infow("user role changed", "actor", actor.Username, "user", u.Username, "role", newRole, "action", action)
	return &u, nil
}

// ResetPassword sets a new password for another user and audits it.
func (s *AdminService) ResetPassword(ctx context.Context, actor Actor, userID uint, newPassword string) error {
	if err := s.authorize(ctx, actor, policy.ResourceUser, gate.ActionResetPassword); err != nil {
		return err
	}
	if userID == actor.ID {
		return ErrSelfModification
	}
	var v validation.Violations
	validation.MinLength("password", newPassword, s.rules.MinPasswordLength, &v)
	validation.MaxBytes("password", newPassword, auth.MaxPasswordBytes, &v)
	if !v.Empty() {
		return invalid(v)
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return storageError("hash password", err)
	}
	var u models.User
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&u, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return storageError("load user", err)
		}
		if err := tx.Model(&u).Update("password_hash", hash).Error; err != nil {
			return storageError("update password", err)
		}
		if err := policy.Record(tx, actor.ID, models.ActionPasswordReset, u.Username); err != nil {
			return storageError("audit", err)
		}
		return nil
	})
	if err != nil {
		s.logFailure(models.ActionPasswordReset, actor, userID, err)
		return err
	}
	s.Metrics.AdminAction(models.ActionPasswordReset)
	s.logger().Infow("password reset", "actor", actor.Username, "user", u.Username)
	return nil
}

func (s *AdminService) logFailure(action string, actor Actor, userID uint, err error) {
	if KindOf(err) == KindStorage {
		s.logger().Errorw("admin action failed", "action", action, "actor", actor.Username, "user_id", userID, "error", err)
		return
	}
	s.logger().Infow("admin action rejected", "action", action, "actor", actor.Username, "user_id", userID, "reason", Code(err))
}

// RoleCount is one row of the statistics table.
type RoleCount struct {
	Role    models.RoleName `json:"role"`
	Count   int64           `json:"count"`
	Percent float64         `json:"percent"`
}

// Warning levels used by Statistics.
const (
	LevelCritical = "critical"
	LevelInfo     = "info"
	LevelWarning  = "warning"
)

// Warning flags an operational risk. Code is a translation key.
type Warning struct {
	Level string `json:"level"`
	Code  string `json:"code"`
	Count int64  `json:"count"`
}

// Statistics counts users per role. Every role is present, zero-filled.
type Statistics struct {
	Counts   map[models.RoleName]int64 `json:"counts"`
	Roles    []RoleCount               `json:"roles"`
	Total    int64                     `json:"total"`
	Warnings []Warning                 `json:"warnings"`
}

// Statistics is read-only.
func (s *AdminService) Statistics(ctx context.Context, actor Actor) (*Statistics, error) {
	if err := s.authorize(ctx, actor, policy.ResourceStats, gate.ActionView); err != nil {
		return nil, err
	}
	var rows []roleCountRow
	err := s.DB.WithContext(ctx).Model(&models.Role{}).
		Select("roles.name AS name, COUNT(users.id) AS count").
		Joins("LEFT JOIN users ON users.role_id = roles.id").
		Group("roles.name").
		Scan(&rows).Error
	if err != nil {
		s.logger().Errorw("statistics query failed", "error", err)
		return nil, storageError("statistics", err)
	}
	return buildStatistics(rows), nil
}

type roleCountRow struct {
	Name  models.RoleName
	Count int64
}

func buildStatistics(rows []roleCountRow) *Statistics {
	st := &Statistics{Counts: make(map[models.RoleName]int64, len(models.AllRoles))}
	for _, r := range models.AllRoles {
		st.Counts[r] = 0
	}
	for _, row := range rows {
		st.Counts[row.Name] += row.Count
		st.Total += row.Count
	}
	for _, r := range models.AllRoles {
		rc := RoleCount{Role: r, Count: st.Counts[r]}
		if st.Total > 0 {
			rc.Percent = float64(rc.Count) * 100 / float64(st.Total)
		}
		st.Roles = append(st.Roles, rc)
	}
	pending := st.Counts[models.RolePending]
	switch {
	case pending > pendingCriticalAbove:
		st.Warnings = append(st.Warnings, Warning{Level: LevelCritical, Code: "warn_pending_many", Count: pending})
	case pending > 0:
		st.Warnings = append(st.Warnings, Warning{Level: LevelInfo, Code: "warn_pending_some", Count: pending})
	}
	if admins := st.Counts[models.RoleAdministrator]; admins <= singleAdminAtMost {
		st.Warnings = append(st.Warnings, Warning{Level: LevelWarning, Code: "warn_single_admin", Count: admins})
	}
	return st
}

// AuditEntry is an admin log row with the acting username resolved.
type AuditEntry struct {
	ID            uint      `json:"id"`
	AdminUsername string    `json:"admin"`
	Action        string    `json:"action"`
	Target        string    `json:"target"`
	Timestamp     time.Time `json:"timestamp"`
}

// AuditLog returns the newest entries first. limit <= 0 means 100.
func (s *AdminService) AuditLog(ctx context.Context, actor Actor, limit int) ([]AuditEntry, error) {
	if err := s.authorize(ctx, actor, policy.ResourceAudit, gate.ActionList); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	var logs []models.AdminLog
	err := s.DB.WithContext(ctx).Preload("Admin").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true}).
		Order("id DESC").
		Limit(limit).Find(&logs).Error
	if err != nil {
		s.logger().Errorw("audit log query failed", "error", err)
		return nil, storageError("audit log", err)
	}
	out := make([]AuditEntry, 0, len(logs))
	for _, l := range logs {
		out = append(out, AuditEntry{
			ID:            l.ID,
			AdminUsername: l.Admin.Username,
			Action:        l.Action,
			Target:        l.Target,
			Timestamp:     l.Timestamp,
		})
	}
	return out, nil
}
