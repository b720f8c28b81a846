// Package errors tags errors with the component that raised them, a category
// and key/value context, so callers can match on what went wrong instead of
// on message text.
//
// Packages declare their sentinels with a nil underlying error:
//
//	var ErrInvalidCapacity = errors.New(nil).
//		Component("pipeline").
//		Category(errors.CategoryValidation).
//		Context("resource", "relay_capacity").
//		Build()
//
// and return concrete errors carrying the same component, category and
// context keys. errors.Is then matches the concrete error to the sentinel.
package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"time"
)

// ErrorCategory groups errors by the kind of failure
type ErrorCategory string

const (
	CategoryGeneric       ErrorCategory = "generic"
	CategoryValidation    ErrorCategory = "validation"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryFileIO        ErrorCategory = "file-io"
	CategoryConflict      ErrorCategory = "conflict"
	CategoryState         ErrorCategory = "state"

	CategoryFrame    ErrorCategory = "frame"          // frame construction and pooling
	CategoryPattern  ErrorCategory = "pattern"        // pattern definitions
	CategoryStage    ErrorCategory = "pipeline-stage" // stage lifecycle
	CategoryTopology ErrorCategory = "topology"       // graph assembly
)

// ComponentUnknown is reported for errors built without a component
const ComponentUnknown = "unknown"

// EnhancedError is an error with component, category and context attached.
// It is immutable once built.
type EnhancedError struct {
	Err       error
	Category  ErrorCategory
	Timestamp time.Time

	component string
	context   map[string]any
}

// Error returns the underlying message. Sentinels, which have none, describe
// themselves by category and context.
func (ee *EnhancedError) Error() string {
	if ee.Err != nil {
		return ee.Err.Error()
	}

	var b strings.Builder
	b.WriteString(string(ee.Category))
	b.WriteString(" error")
	if len(ee.context) > 0 {
		b.WriteString(":")
		for _, k := range slices.Sorted(maps.Keys(ee.context)) {
			fmt.Fprintf(&b, " %s=%v", k, ee.context[k])
		}
	}
	return b.String()
}

func (ee *EnhancedError) Unwrap() error {
	return ee.Err
}

// Is matches another EnhancedError when category and component agree. A
// target without an underlying error is a sentinel and additionally needs
// each of its context entries present here with an equal value; otherwise
// the messages must be equal.
func (ee *EnhancedError) Is(target error) bool {
	other, ok := target.(*EnhancedError)
	if !ok {
		return false
	}
	if ee == other {
		return true
	}
	if ee.Category != other.Category || ee.component != other.component {
		return false
	}
	if other.Err == nil {
		for k, want := range other.context {
			got, ok := ee.context[k]
			if !ok || !reflect.DeepEqual(got, want) {
				return false
			}
		}
		return true
	}
	return ee.Err != nil && ee.Err.Error() == other.Err.Error()
}

// GetComponent returns the component that raised the error
func (ee *EnhancedError) GetComponent() string {
	return ee.component
}

// GetContext returns a copy of the error context
func (ee *EnhancedError) GetContext() map[string]any {
	if ee.context == nil {
		return nil
	}
	return maps.Clone(ee.context)
}

// ErrorBuilder assembles an EnhancedError
type ErrorBuilder struct {
	err       error
	component string
	category  ErrorCategory
	context   map[string]any
}

// New starts an error around err, which may be nil for sentinels
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// Newf starts an error from a formatted message
func Newf(format string, args ...any) *ErrorBuilder {
	return New(fmt.Errorf(format, args...))
}

func (eb *ErrorBuilder) Component(component string) *ErrorBuilder {
	eb.component = component
	return eb
}

func (eb *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	eb.category = category
	return eb
}

// Context adds a key/value pair. Setting a key twice keeps the last value.
func (eb *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context[key] = value
	return eb
}

// Build creates the error. Without an explicit category, one is inherited
// from a wrapped EnhancedError, or CategoryGeneric is used.
func (eb *ErrorBuilder) Build() *EnhancedError {
	ee := &EnhancedError{
		Err:       eb.err,
		Category:  eb.category,
		Timestamp: time.Now(),
		component: eb.component,
		context:   maps.Clone(eb.context),
	}
	if ee.component == "" {
		ee.component = ComponentUnknown
	}
	if ee.Category == "" {
		ee.Category = CategoryGeneric
		var inner *EnhancedError
		if stderrors.As(eb.err, &inner) {
			ee.Category = inner.Category
		}
	}
	return ee
}

// IsCategory reports whether err wraps an EnhancedError of category
func IsCategory(err error, category ErrorCategory) bool {
	var ee *EnhancedError
	return stderrors.As(err, &ee) && ee.Category == category
}

// Standard library passthroughs, so callers need only one errors import.

func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

func Unwrap(err error) error { return stderrors.Unwrap(err) }

func Join(errs ...error) error { return stderrors.Join(errs...) }

// NewStd returns a plain error
func NewStd(text string) error { return stderrors.New(text) }
