package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/synageion/synageion/auth"
	"github.com/synageion/synageion/internal/models"
	"github.com/synageion/synageion/validation"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// AuthService handles login, registration and password changes.
type AuthService struct {
	Deps
	rules Rules
	now   func() time.Time
}

func NewAuthService(d Deps, rules Rules) *AuthService {
	return &AuthService{Deps: d, rules: rules, now: time.Now}
}

// LoginResult is the identity and the role held at the moment of login.
type LoginResult struct {
	User models.User
	Role models.RoleName
}

// Login verifies the credentials and stamps last_login.
// Unknown users fail with ErrUserNotFound, bad passwords with ErrWrongPassword.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	log := s.logger()
	username = strings.TrimSpace(username)
	var v validation.Violations
	validation.Required("username", username, &v)
	validation.Required("password", password, &v)
	if !v.Empty() {
		s.Metrics.Login("invalid")
		return nil, invalid(v)
	}

	var u models.User
	err := s.DB.WithContext(ctx).Preload("Role").Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.Metrics.Login("user_not_found")
		log.Infow("login failed", "username", username, "reason", "user_not_found")
		return nil, ErrUserNotFound
	}
	if err != nil {
		s.Metrics.Login("error")
		log.Errorw("login lookup failed", "username", username, "error", err)
		return nil, storageError("login", err)
	}
	if !auth.CheckPassword(password, u.PasswordHash) {
		s.Metrics.Login("wrong_password")
		log.Infow("login failed", "username", username, "reason", "wrong_password")
		return nil, ErrWrongPassword
	}

	now := s.now()
	if err := s.DB.WithContext(ctx).Model(&u).Update("last_login", now).Error; err != nil {
		s.Metrics.Login("error")
		log.Errorw("update last login failed", "username", username, "error", err)
		return nil, storageError("login", err)
	}
	u.LastLogin = &now
	s.Metrics.Login("success")
	log.Infow("login succeeded", "username", username, "role", u.Role.Name)
	return &LoginResult{User: u, Role: u.Role.Name}, nil
}

// RegisterInput is the registration form. RequestedRole is recorded in the
// log only; accounts always start as Pending.
type RegisterInput struct {
	Username      string
	Password      string
	Confirm       string
	RequestedRole models.RoleName
}

// Register validates the input, reporting every violated rule, and creates a pending account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	log := s.logger()
	username := strings.TrimSpace(in.Username)
	var v validation.Violations
	validation.MinLength("username", username, s.rules.MinUsernameLength, &v)
	validation.MinLength("password", in.Password, s.rules.MinPasswordLength, &v)
	validation.MaxBytes("password", in.Password, auth.MaxPasswordBytes, &v)
	validation.Match("confirm", in.Confirm, in.Password, &v)
	if !v.Empty() {
		s.Metrics.Registration("invalid")
		return nil, invalid(v)
	}
	if in.RequestedRole != "" && in.RequestedRole != models.RolePending {
		log.Warnw("requested role ignored at registration", "username", username, "requested_role", in.RequestedRole)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		s.Metrics.Registration("error")
		return nil, storageError("hash password", err)
	}
	u, err := s.createUser(ctx, username, hash, models.RolePending)
	if err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			s.Metrics.Registration("duplicate")
			log.Infow("registration rejected", "username", username, "reason", "duplicate")
		} else {
			s.Metrics.Registration("error")
			log.Errorw("registration failed", "username", username, "error", err)
		}
		return nil, err
	}
	s.Metrics.Registration("success")
	log.Infow("user registered", "username", username, "user_id", u.ID)
	return u, nil
}

func (s *AuthService) createUser(ctx context.Context, username, hash string, roleName models.RoleName) (*models.User, error) {
	db := s.DB.WithContext(ctx)
	role, err := roleByName(db, roleName)
	if err != nil {
		return nil, err
	}
	u := models.User{Username: username, PasswordHash: hash, RoleID: role.ID}
	if err := db.Create(&u).Error; err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicateUsername
		}
		return nil, storageError("create user", err)
	}
	u.Role = role
	return &u, nil
}

// ChangePassword replaces the password after verifying the old one.
// Nothing is written unless every check passes.
func (s *AuthService) ChangePassword(ctx context.Context, username, oldPassword, newPassword, confirm string) error {
	var v validation.Violations
	validation.Required("current", oldPassword, &v)
	validation.Required("new", newPassword, &v)
	validation.Required("confirm", confirm, &v)
	if !v.Empty() {
		return invalid(v)
	}
	validation.Match("confirm", confirm, newPassword, &v)
	validation.MinLength("new", newPassword, s.rules.MinPasswordLength, &v)
	validation.MaxBytes("new", newPassword, auth.MaxPasswordBytes, &v)
	if !v.Empty() {
		return invalid(v)
	}

	db := s.DB.WithContext(ctx)
	var u models.User
	if err := db.Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return storageError("change password", err)
	}
	if !auth.CheckPassword(oldPassword, u.PasswordHash) {
		s.logger().Infow("password change rejected", "username", username, "reason", "wrong_password")
		return ErrWrongPassword
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return storageError("hash password", err)
	}
	if err := db.Model(&u).Update("password_hash", hash).Error; err != nil {
		s.logger().Errorw("password change failed", "username", username, "error", err)
		return storageError("change password", err)
	}
	s.logger().Infow("password changed", "username", username)
	return nil
}

// Account loads the user behind a session, role included.
func (s *AuthService) Account(ctx context.Context, userID uint) (*models.User, error) {
	var u models.User
	if err := s.DB.WithContext(ctx).Preload("Role").First(&u, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storageError("load account", err)
	}
	return &u, nil
}

// BootstrapAdmin creates the administrator account from configuration.
// It does nothing when password is empty or the username already exists.
func (s *AuthService) BootstrapAdmin(ctx context.Context, username, password string) (bool, error) {
	log := s.logger()
	username = strings.TrimSpace(username)
	if password == "" || username == "" {
		log.Infow("admin bootstrap skipped, no credentials configured")
		return false, nil
	}
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, storageError("bootstrap admin", err)
	}
	if count > 0 {
		log.Debugw("admin bootstrap skipped, user exists", "username", username)
		return false, nil
	}
	if len([]rune(password)) < s.rules.MinPasswordLength {
		log.Warnw("bootstrap admin password is shorter than the minimum length", "username", username)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, storageError("hash password", err)
	}
	if _, err := s.createUser(ctx, username, hash, models.RoleAdministrator); err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			return false, nil
		}
		return false, err
	}
	log.Infow("admin account created", "username", username)
	return true, nil
}

type seedFile struct {
	Users []struct {
		Username string          `yaml:"username"`
		Password string          `yaml:"password"`
		Role     models.RoleName `yaml:"role"`
	} `yaml:"users"`
}

// SeedFromFile provisions accounts listed in a YAML file:
//
//	users:
//	  - username: lager1
//	    password: changeme
//	    role: Logistics
//
// Existing usernames are skipped. Returns the number of accounts created.
func (s *AuthService) SeedFromFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("seed users: %w", err)
	}
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return 0, fmt.Errorf("seed users: parse %s: %w", path, err)
	}
	created := 0
	for _, entry := range sf.Users {
		username := strings.TrimSpace(entry.Username)
		if username == "" || entry.Password == "" {
			continue
		}
		role := entry.Role
		if role == "" {
			role = models.RolePending
		}
		if !role.Valid() {
			return created, fmt.Errorf("seed users: %s: unknown role %q", username, role)
		}
		hash, err := auth.HashPassword(entry.Password)
		if err != nil {
			return created, fmt.Errorf("seed users: %w", err)
		}
		if _, err := s.createUser(ctx, username, hash, role); err != nil {
			if errors.Is(err, ErrDuplicateUsername) {
				continue
			}
			return created, err
		}
		created++
	}
	s.logger().Infow("users seeded", "file", path, "created", created)
	return created, nil
}
