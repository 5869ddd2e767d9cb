package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error codes the backend can emit.
const (
	CodeHTTPError             = "HTTP_ERROR"
	CodeValidation            = "VALIDATION_ERROR"
	CodeInvalidType           = "INVALID_TYPE"
	CodeBusinessRule          = "BUSINESS_RULE_VIOLATION"
	CodeNotFound              = "RESOURCE_NOT_FOUND"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeForbidden             = "FORBIDDEN"
	CodeInternal              = "INTERNAL_ERROR"
	CodeUnsupportedAPIVersion = "UNSUPPORTED_API_VERSION"

	CodePlanRecipeNotFound = "PLAN_RECIPE_NOT_FOUND"
	CodePlanSlotOutOfRange = "PLAN_SLOT_OUT_OF_RANGE"
	CodePlanDuplicateSlot  = "PLAN_DUPLICATE_SLOT"

	CodeItemIngredientRequired      = "SHOPPING_ITEM_INGREDIENT_REQUIRED"
	CodeItemPackageFieldsIncomplete = "SHOPPING_ITEM_PACKAGE_FIELDS_INCOMPLETE"
	CodeItemInvalidSuggested        = "SHOPPING_ITEM_INVALID_SUGGESTED_PACKAGES"
	CodeItemInvalidPackageAmount    = "SHOPPING_ITEM_INVALID_PACKAGE_AMOUNT"
	CodeItemNoteTooLong             = "SHOPPING_ITEM_NOTE_TOO_LONG"
	CodeItemInvalidSortOrder        = "SHOPPING_ITEM_INVALID_SORT_ORDER"
)

// ErrNoContent is returned when an operation that expects a body gets 204 or an empty 2xx body.
var ErrNoContent = errors.New("no content")

// APIError is a non-2xx response from the backend.
type APIError struct {
	Code    string
	Message string
	Status  int
	// Payload is the raw response body, kept for callers that need field-level detail.
	Payload []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d): %s", e.Code, e.Status, e.Message)
}

// DecodePayload unmarshals the raw response body into v.
func (e *APIError) DecodePayload(v any) error {
	if len(e.Payload) == 0 {
		return ErrNoContent
	}
	return json.Unmarshal(e.Payload, v)
}

// errorBody is the backend's error envelope.
type errorBody struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{
		Code:    CodeHTTPError,
		Message: fmt.Sprintf("HTTP %d", status),
		Status:  status,
		Payload: body,
	}

	var envelope errorBody
	if len(body) > 0 && json.Unmarshal(body, &envelope) == nil {
		if envelope.Code != "" {
			apiErr.Code = envelope.Code
		}
		if envelope.Error != "" {
			apiErr.Message = envelope.Error
		}
	}
	return apiErr
}

// TransportError is a failure to reach the backend or to parse its reply.
// It carries no backend code.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// CodeOf returns the backend code carried by err, or "" when err is not an APIError.
func CodeOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

// IsUnauthorized reports whether err is an UNAUTHORIZED rejection.
func IsUnauthorized(err error) bool {
	return CodeOf(err) == CodeUnauthorized
}
