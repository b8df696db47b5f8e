package gate

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Gate.Authorize.
var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNoPolicyDefined = errors.New("no policy defined for resource")
)

// DeniedError is returned when the subject holds a role other than the one required.
type DeniedError struct {
	Permission Permission
	Required   string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%s requires role %s", e.Permission, e.Required)
}

// Is lets errors.Is(err, ErrUnauthorized) match denials too.
func (e *DeniedError) Is(target error) bool { return target == ErrUnauthorized }
