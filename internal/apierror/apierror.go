// Package apierror provides the error taxonomy of the catalog core and the
// standardized response envelopes for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Every *Error unwraps to exactly one of these, so callers can
// branch with errors.Is(err, apierror.ErrParentInactive).
var (
	ErrNotFound              = errors.New("not_found")
	ErrValidation            = errors.New("validation_failed")
	ErrParentInactive        = errors.New("parent_inactive")
	ErrInconsistentHierarchy = errors.New("inconsistent_hierarchy")
	ErrInsufficientStock     = errors.New("insufficient_stock")
	ErrDuplicate             = errors.New("duplicate_entry")
	ErrCascadeWrite          = errors.New("cascade_write_failure")
	ErrProductInactive       = errors.New("product_inactive")
	ErrUnauthorized          = errors.New("unauthorized")
)

// Error is a classified core error. Msg is safe to show to users; Cause never is.
type Error struct {
	Kind  error
	Code  string
	Msg   string
	Field string
	Rule  string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

func newError(kind error, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg}
}

func NotFound(msg string) *Error { return newError(ErrNotFound, "not_found", msg) }

// ParentNotFound is the NotFound variant raised by the creation guard.
func ParentNotFound(msg string) *Error { return newError(ErrNotFound, "parent_not_found", msg) }

func ProductNotFound() *Error {
	return newError(ErrNotFound, "product_not_found", "El producto no existe")
}

func Validation(field, rule, msg string) *Error {
	e := newError(ErrValidation, "validation_failed", msg)
	e.Field, e.Rule = field, rule
	return e
}

func InvalidQuantity() *Error {
	e := Validation("cantidad", "min=1", "La cantidad debe ser al menos 1")
	e.Code = "invalid_quantity"
	return e
}

func ParentInactive(msg string) *Error {
	return newError(ErrParentInactive, "parent_inactive", msg)
}

func InconsistentHierarchy() *Error {
	return newError(ErrInconsistentHierarchy, "inconsistent_hierarchy",
		"La subcategoria no pertenece a la categoria indicada")
}

func InsufficientStock(nombre string) *Error {
	return newError(ErrInsufficientStock, "insufficient_stock",
		fmt.Sprintf("Stock insuficiente para %s", nombre))
}

func Duplicate(msg string) *Error { return newError(ErrDuplicate, "duplicate_entry", msg) }

func ProductInactive() *Error {
	return newError(ErrProductInactive, "product_inactive", "El producto no esta disponible")
}

func Unauthorized(msg string) *Error { return newError(ErrUnauthorized, "unauthorized", msg) }

// CascadeWriteFailure wraps the first descendant write that failed during a
// deactivation cascade.
func CascadeWriteFailure(entidad, id string, cause error) *Error {
	e := newError(ErrCascadeWrite, "cascade_write_failure",
		fmt.Sprintf("Error al desactivar %s %s", entidad, id))
	e.Cause = cause
	return e
}

// StatusCode maps an error to the HTTP status the boundary must answer with.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInconsistentHierarchy):
		return http.StatusBadRequest
	case errors.Is(err, ErrParentInactive), errors.Is(err, ErrProductInactive),
		errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// ── Response envelopes ────────────────────────────────────────────────────────

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Code: "validation_failed", Fields: fields}
}

// Response builds the envelope for a classified error. Unclassified errors get
// a generic message; the caller is expected to log the original.
func Response(err error) any {
	var e *Error
	if !errors.As(err, &e) || StatusCode(err) == http.StatusInternalServerError {
		return New("Error interno del servidor")
	}
	if errors.Is(e, ErrValidation) && e.Field != "" {
		v := NewValidation(map[string]string{e.Field: e.Rule})
		v.Detail = e.Msg
		v.Code = e.Code
		return v
	}
	return &APIError{Detail: e.Msg, Code: e.Code}
}
