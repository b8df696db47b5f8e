// Package validation collects rule violations for user input. Rules are
// evaluated with go-playground/validator; every violated rule is reported,
// not only the first one.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Rule codes that are not validator tags.
const (
	RuleMismatch = "mismatch"
	RuleMaxBytes = "max_bytes"
)

// Violation is one failed rule on one field. Rule doubles as the translation code.
type Violation struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

func (v Violation) String() string {
	if v.Param != "" {
		return fmt.Sprintf("%s: %s=%s", v.Field, v.Rule, v.Param)
	}
	return v.Field + ": " + v.Rule
}

// Violations keeps violations in the order they were found.
type Violations []Violation

func (v Violations) Empty() bool { return len(v) == 0 }

// Has reports whether field has at least one violation.
func (v Violations) Has(field string) bool {
	for _, x := range v {
		if x.Field == field {
			return true
		}
	}
	return false
}

// Rules returns the violated rule codes for field.
func (v Violations) Rules(field string) []string {
	var out []string
	for _, x := range v {
		if x.Field == field {
			out = append(out, x.Rule)
		}
	}
	return out
}

func (v Violations) Error() string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = x.String()
	}
	return strings.Join(parts, "; ")
}

func (v *Violations) Add(field, rule, param string) {
	*v = append(*v, Violation{Field: field, Rule: rule, Param: param})
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report form field names rather than Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Var checks a single value against a validator tag such as "min=6".
func Var(field string, value any, tag string, v *Violations) {
	collect(field, validate.Var(value, tag), v)
}

// Struct validates `validate` tags on s and returns every violation.
func Struct(s any) Violations {
	var v Violations
	collect("", validate.Struct(s), &v)
	return v
}

func collect(field string, err error, v *Violations) {
	if err == nil {
		return
	}
	var fes validator.ValidationErrors
	if !errors.As(err, &fes) {
		v.Add(field, "invalid", "")
		return
	}
	for _, fe := range fes {
		name := field
		if name == "" {
			name = fe.Field()
		}
		v.Add(name, fe.Tag(), fe.Param())
	}
}

// Required flags blank (whitespace-only) strings.
func Required(field, value string, v *Violations) {
	Var(field, strings.TrimSpace(value), "required", v)
}

// MinLength flags strings shorter than n characters.
func MinLength(field, value string, n int, v *Violations) {
	Var(field, value, fmt.Sprintf("min=%d", n), v)
}

// Match flags value when it differs from want.
func Match(field, value, want string, v *Violations) {
	if value != want {
		v.Add(field, RuleMismatch, "")
	}
}

// MaxBytes flags strings whose encoded length exceeds n bytes.
func MaxBytes(field, value string, n int, v *Violations) {
	if len(value) > n {
		v.Add(field, RuleMaxBytes, strconv.Itoa(n))
	}
}
