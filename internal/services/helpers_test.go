package services

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/synageion/synageion/auth"
	"github.com/synageion/synageion/internal/config"
	"github.com/synageion/synageion/internal/db"
	"github.com/synageion/synageion/internal/metrics"
	"github.com/synageion/synageion/internal/models"
	"github.com/synageion/synageion/internal/policy"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// newTestDeps opens a private in-memory SQLite database with roles seeded.
func newTestDeps(t *testing.T) Deps {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	d, err := db.Open(config.DatabaseConfig{Driver: "sqlite", Path: "file:" + name + "?mode=memory&cache=shared"}, zap.NewNop().Sugar())
	require.NoError(t, err)
	require.NoError(t, db.Setup(d))
	sqlDB, err := d.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return Deps{
		DB:      d,
		Gate:    policy.NewRoleGate(),
		Log:     zaptest.NewLogger(t).Sugar(),
		Metrics: metrics.New(prometheus.NewRegistry(), nil),
	}
}

// seedUser inserts an account directly, bypassing registration rules.
func seedUser(t *testing.T, d Deps, username, password string, role models.RoleName) models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	r, err := roleByName(d.DB, role)
	require.NoError(t, err)
	u := models.User{Username: username, PasswordHash: hash, RoleID: r.ID, Role: r}
	require.NoError(t, d.DB.Omit("Role").Create(&u).Error)
	return u
}

func actorOf(u models.User) Actor {
	return Actor{ID: u.ID, Username: u.Username, Role: u.Role.Name}
}

func countUsers(t *testing.T, d Deps) int64 {
	t.Helper()
	var n int64
	require.NoError(t, d.DB.Model(&models.User{}).Count(&n).Error)
	return n
}

func countLogs(t *testing.T, d Deps) int64 {
	t.Helper()
	var n int64
	require.NoError(t, d.DB.Model(&models.AdminLog{}).Count(&n).Error)
	return n
}

func storedHash(t *testing.T, d Deps, username string) string {
	t.Helper()
	var u models.User
	require.NoError(t, d.DB.Where("username = ?", username).First(&u).Error)
	return u.PasswordHash
}
