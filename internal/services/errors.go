package services

import (
	"errors"
	"fmt"

	"github.com/synageion/synageion/gate"
	"github.com/synageion/synageion/validation"
	"gorm.io/gorm"
)

// Kind classifies a service failure.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindDuplicate  Kind = "duplicate"
	KindAuth       Kind = "auth"
	KindStorage    Kind = "storage"
	KindForbidden  Kind = "forbidden"
)

// Error is the failure value returned by every service operation.
// Code doubles as the translation key shown to users.
type Error struct {
	Kind       Kind
	Code       string
	Violations validation.Violations
	// Required is the role a forbidden operation needs.
	Required string
	Err      error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	case len(e.Violations) > 0:
		return fmt.Sprintf("%s: %s", e.Code, e.Violations.Error())
	default:
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same kind and code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Code == e.Code
}

var (
	ErrUserNotFound           = &Error{Kind: KindNotFound, Code: "user_not_found"}
	ErrWrongPassword          = &Error{Kind: KindAuth, Code: "wrong_password"}
	ErrDuplicateUsername      = &Error{Kind: KindDuplicate, Code: "duplicate_username"}
	ErrInvalidRole            = &Error{Kind: KindValidation, Code: "invalid_role"}
	ErrArticleNotFound        = &Error{Kind: KindNotFound, Code: "article_not_found"}
	ErrDuplicateArticleNumber = &Error{Kind: KindDuplicate, Code: "duplicate_article_number"}
	ErrSelfModification       = &Error{Kind: KindForbidden, Code: "self_modification"}
)

// KindOf returns the kind of err, KindStorage for foreign errors and "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindStorage
}

// Code returns the user-facing code of err.
func Code(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return "storage_error"
}

// ViolationsOf returns the rule violations carried by err, if any.
func ViolationsOf(err error) validation.Violations {
	var se *Error
	if errors.As(err, &se) {
		return se.Violations
	}
	return nil
}

func invalid(v validation.Violations) *Error {
	return &Error{Kind: KindValidation, Code: "validation_error", Violations: v}
}

func storageError(op string, err error) *Error {
	return &Error{Kind: KindStorage, Code: "storage_error", Err: fmt.Errorf("%s: %w", op, err)}
}

func forbidden(err error) *Error {
	e := &Error{Kind: KindForbidden, Code: "forbidden", Err: err}
	var denied *gate.DeniedError
	if errors.As(err, &denied) {
		e.Required = denied.Required
	}
	return e
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
