// Package services holds the application's use cases. Every operation
// returns an explicit error value (see Error); none of them panic on bad
// input or storage failures.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/synageion/synageion/auth"
	"github.com/synageion/synageion/gate"
	"github.com/synageion/synageion/internal/metrics"
	"github.com/synageion/synageion/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Actor is the authenticated caller of a privileged operation, taken from the session.
type Actor struct {
	ID       uint
	Username string
	Role     models.RoleName
}

// ActorFromSession converts a session into an Actor.
func ActorFromSession(s auth.Session) Actor {
	return Actor{ID: s.UserID, Username: s.Username, Role: s.Role}
}

// Rules are the credential requirements.
type Rules struct {
	MinUsernameLength int
	MinPasswordLength int
}

// DefaultRules mirror the configuration defaults.
var DefaultRules = Rules{MinUsernameLength: 4, MinPasswordLength: 6}

// Deps bundles what every service needs.
type Deps struct {
	DB      *gorm.DB
	Gate    *gate.Gate[models.RoleName]
	Log     *zap.SugaredLogger
	Metrics *metrics.Metrics
}

func (d Deps) logger() *zap.SugaredLogger {
	if d.Log == nil {
		return zap.NewNop().Sugar()
	}
	return d.Log
}

// authorize is the explicit role check at the top of each privileged operation.
func (d Deps) authorize(ctx context.Context, actor Actor, resource string, action gate.Action) error {
	if d.Gate == nil {
		return forbidden(gate.ErrNoPolicyDefined)
	}
	if err := d.Gate.Authorize(ctx, actor.Role, resource, action); err != nil {
		d.Metrics.Denied(string(gate.NewPermission(resource, action)))
		d.logger().Warnw("operation denied",
			"actor", actor.Username, "role", actor.Role,
			"permission", gate.NewPermission(resource, action), "error", err)
		return forbidden(err)
	}
	return nil
}

func roleByName(tx *gorm.DB, name models.RoleName) (models.Role, error) {
	var role models.Role
	if err := tx.Where("name = ?", name).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return role, storageError("lookup role", fmt.Errorf("role %s is not seeded", name))
		}
		return role, storageError("lookup role", err)
	}
	return role, nil
}
