package screens

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"meal-shell/internal/api"
	"meal-shell/internal/logger"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Notifier receives transient outcome notifications for the user.
type Notifier interface {
	Error(msg string)
	Success(msg string)
}

// FieldError is a local validation failure tied to one form field or row.
// It never reaches the network.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FieldErrors collects every local validation failure of a form.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Error())
	}
	return strings.Join(parts, "; ")
}

// Err returns e as an error, or nil when it is empty.
func (e FieldErrors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// For returns the errors reported for field.
func (e FieldErrors) For(field string) []FieldError {
	var out []FieldError
	for _, fe := range e {
		if fe.Field == field {
			out = append(out, fe)
		}
	}
	return out
}

// Feedback reports controller outcomes. Failures are mapped to screen
// messages. With an onUnauthorized hook, UNAUTHORIZED runs the hook and is
// reported as an expired session; without one it is reported like any code.
type Feedback struct {
	notifier       Notifier
	onUnauthorized func(ctx context.Context)
	log            *zap.Logger
}

// NewFeedback creates a Feedback. notifier and onUnauthorized may be nil.
func NewFeedback(notifier Notifier, onUnauthorized func(ctx context.Context), log *zap.Logger) *Feedback {
	return &Feedback{notifier: notifier, onUnauthorized: onUnauthorized, log: logger.OrNop(log)}
}

// Fail notifies the user about err and returns it unchanged.
func (f *Feedback) Fail(ctx context.Context, screen Screen, err error) error {
	if err == nil {
		return nil
	}
	if f == nil {
		return err
	}

	msg := Message(screen, err)
	if api.IsUnauthorized(err) && f.onUnauthorized != nil {
		f.onUnauthorized(ctx)
		msg = SessionExpiredMessage
	}
	f.log.Debug("action failed",
		zap.String("screen", string(screen)),
		zap.String("code", api.CodeOf(err)),
		zap.Error(err))
	if f.notifier != nil {
		f.notifier.Error(msg)
	}
	return err
}

// Succeed notifies the user about a completed action.
func (f *Feedback) Succeed(msg string) {
	if f != nil && f.notifier != nil {
		f.notifier.Success(msg)
	}
}

// Warn surfaces a non-fatal condition, such as dropped plan slots.
func (f *Feedback) Warn(msg string) {
	if f == nil {
		return
	}
	f.log.Info(msg)
	if f.notifier != nil {
		f.notifier.Error(msg)
	}
}

// newValidator returns a validator that reports json field names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldErrors converts validator failures into FieldErrors, prefixing each
// field with prefix.
func fieldErrors(err error, prefix string) FieldErrors {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return FieldErrors{{Field: strings.TrimSuffix(prefix, "."), Message: err.Error()}}
	}

	out := make(FieldErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: prefix + fieldPath(fe), Message: describe(fe)})
	}
	return out
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "min":
		if fe.Kind() == reflect.Slice {
			return "needs at least " + fe.Param() + " entry"
		}
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "is invalid"
	}
}
