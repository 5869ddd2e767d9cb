// Package screens holds the per-screen view-model controllers: recipe catalog,
// recipe form, planner and shopping list. Controllers load through the
// gateway, reconcile, expose editable state and normalize it back into
// request bodies on save. They never render anything themselves.
package screens

import (
	"errors"
	"strings"

	"meal-shell/internal/api"
)

// Screen names a controller for message lookup.
type Screen string

const (
	ScreenSession    Screen = "session"
	ScreenRecipes    Screen = "recipes"
	ScreenRecipeForm Screen = "recipe-form"
	ScreenPlanner    Screen = "planner"
	ScreenShopping   Screen = "shopping"
)

const (
	GenericMessage        = "Something went wrong. Please try again."
	SessionExpiredMessage = "Your session expired or the token is invalid. Sign in again."
	UnreachableMessage    = "Could not talk to the server. Check your connection and try again."
)

var globalMessages = map[string]string{
	api.CodeValidation:            "Some fields are invalid. Review them and try again.",
	api.CodeInvalidType:           "A field has the wrong format.",
	api.CodeBusinessRule:          "The change breaks a rule and was not applied.",
	api.CodeNotFound:              "The item no longer exists. Reload and try again.",
	api.CodeForbidden:             "You do not have access to this item.",
	api.CodeInternal:              "The server failed. Try again in a moment.",
	api.CodeUnsupportedAPIVersion: "This client is out of date. Update it to continue.",
}

var screenMessages = map[Screen]map[string]string{
	ScreenRecipes: {
		api.CodeNotFound:     "That recipe was already deleted.",
		api.CodeBusinessRule: "The recipe cannot be deleted right now.",
	},
	ScreenRecipeForm: {
		api.CodeValidation:   "Check the recipe: name, type and at least one ingredient are required.",
		api.CodeInvalidType:  "An ingredient quantity or unit has the wrong format.",
		api.CodeBusinessRule: "One of the units is not allowed for its ingredient.",
		api.CodeNotFound:     "The recipe or one of its ingredients no longer exists.",
	},
	ScreenPlanner: {
		api.CodePlanRecipeNotFound: "A planned recipe no longer exists. Pick another one.",
		api.CodePlanSlotOutOfRange: "A planned meal falls outside the plan's dates.",
		api.CodePlanDuplicateSlot:  "A day and meal can only hold one recipe.",
		api.CodeValidation:         "The plan is incomplete. Check its dates and period.",
		api.CodeNotFound:           "The plan no longer exists. Reload to start a new one.",
	},
	ScreenShopping: {
		api.CodePlanRecipeNotFound:          "The plan references deleted recipes. Repair it before generating a list.",
		api.CodeNotFound:                    "The plan or list no longer exists. Reload and try again.",
		api.CodeItemIngredientRequired:      "Items not added by hand need an ingredient.",
		api.CodeItemPackageFieldsIncomplete: "Package suggestions need packages, amount and unit together.",
		api.CodeItemInvalidSuggested:        "Suggested packages must be greater than zero.",
		api.CodeItemInvalidPackageAmount:    "Package amount must be greater than zero.",
		api.CodeItemNoteTooLong:             "Notes can be at most 280 characters.",
		api.CodeItemInvalidSortOrder:        "The list order is invalid. Reload and try again.",
		api.CodeValidation:                  "Some items are invalid. Check names and quantities.",
	},
	ScreenSession: {
		api.CodeForbidden: "This account is not allowed to use the app.",
	},
}

// Message maps err to a user-facing message for screen. Lookup order is the
// screen table, the global table, the backend's own message, then a generic
// message. UNAUTHORIZED has no entry of its own; Feedback replaces it with
// SessionExpiredMessage when a session is required.
func Message(screen Screen, err error) string {
	if err == nil {
		return ""
	}

	var fieldErrs FieldErrors
	if errors.As(err, &fieldErrs) {
		return fieldErrs.Error()
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		if msg, ok := screenMessages[screen][apiErr.Code]; ok {
			return msg
		}
		if msg, ok := globalMessages[apiErr.Code]; ok {
			return msg
		}
		if raw := strings.TrimSpace(apiErr.Message); raw != "" {
			return raw
		}
		return GenericMessage
	}

	var transportErr *api.TransportError
	if errors.As(err, &transportErr) {
		return UnreachableMessage
	}

	if raw := strings.TrimSpace(err.Error()); raw != "" {
		return raw
	}
	return GenericMessage
}
