package api

import (
	"fmt"
	"time"
)

// MealType tags a recipe and a plan slot.
type MealType string

const (
	Breakfast MealType = "BREAKFAST"
	Lunch     MealType = "LUNCH"
	Dinner    MealType = "DINNER"
)

// MealTypes lists meal types in display order.
var MealTypes = []MealType{Breakfast, Lunch, Dinner}

// Valid reports whether m is one of the known meal types.
func (m MealType) Valid() bool {
	return m == Breakfast || m == Lunch || m == Dinner
}

// Rank orders meal types within a day.
func (m MealType) Rank() int {
	for i, t := range MealTypes {
		if t == m {
			return i
		}
	}
	return len(MealTypes)
}

// Period is the length of a meal plan.
type Period string

const (
	Week      Period = "WEEK"
	Fortnight Period = "FORTNIGHT"
)

// Days returns how many days the period spans, or 0 for an unknown period.
func (p Period) Days() int {
	switch p {
	case Week:
		return 7
	case Fortnight:
		return 14
	default:
		return 0
	}
}

// Valid reports whether p is a known period.
func (p Period) Valid() bool {
	return p.Days() > 0
}

// Unit is a measurement unit accepted by the backend.
type Unit string

const (
	Gram       Unit = "GRAM"
	Kilogram   Unit = "KILOGRAM"
	Milliliter Unit = "MILLILITER"
	Liter      Unit = "LITER"
	Cup        Unit = "CUP"
	Tablespoon Unit = "TABLESPOON"
	Teaspoon   Unit = "TEASPOON"
	Piece      Unit = "PIECE"
	Pinch      Unit = "PINCH"
	ToTaste    Unit = "TO_TASTE"
)

// Units lists every unit in display order.
var Units = []Unit{Gram, Kilogram, Milliliter, Liter, Cup, Tablespoon, Teaspoon, Piece, Pinch, ToTaste}

// Valid reports whether u is a known unit.
func (u Unit) Valid() bool {
	for _, known := range Units {
		if u == known {
			return true
		}
	}
	return false
}

// MeasurementType classifies a custom ingredient.
type MeasurementType string

const (
	Weight MeasurementType = "WEIGHT"
	Volume MeasurementType = "VOLUME"
	Count  MeasurementType = "UNIT"
)

// Date is a calendar day in YYYY-MM-DD form.
type Date string

const dateLayout = "2006-01-02"

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	return Date(t.Format(dateLayout))
}

// ParseDate validates s as a calendar day.
func ParseDate(s string) (Date, error) {
	if _, err := time.Parse(dateLayout, s); err != nil {
		return "", fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date(s), nil
}

// Time returns the day at midnight UTC.
func (d Date) Time() (time.Time, error) {
	return time.Parse(dateLayout, string(d))
}

// AddDays shifts the date by n days. An unparsable date is returned unchanged.
func (d Date) AddDays(n int) Date {
	t, err := d.Time()
	if err != nil {
		return d
	}
	return DateOf(t.AddDate(0, 0, n))
}

// RecipeIngredient is one ingredient line of a recipe.
type RecipeIngredient struct {
	IngredientID string  `json:"ingredientId" validate:"required"`
	Quantity     float64 `json:"quantity"`
	Unit         Unit    `json:"unit"`
}

// Recipe is the backend's recipe representation.
type Recipe struct {
	ID          string             `json:"id" validate:"required"`
	Name        string             `json:"name"`
	Type        MealType           `json:"type"`
	Ingredients []RecipeIngredient `json:"ingredients" validate:"dive"`
	Preparation *string            `json:"preparation"`
	Notes       *string            `json:"notes"`
	Tags        []string           `json:"tags"`
	UsageCount  int                `json:"usageCount"`
	LastUsedAt  *time.Time         `json:"lastUsedAt,omitempty"`
	CreatedAt   *time.Time         `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time         `json:"updatedAt,omitempty"`
}

// RecipeRequest is the body for creating or replacing a recipe.
type RecipeRequest struct {
	Name        string             `json:"name"`
	Type        MealType           `json:"type"`
	Ingredients []RecipeIngredient `json:"ingredients"`
	Preparation *string            `json:"preparation"`
	Notes       *string            `json:"notes"`
	Tags        []string           `json:"tags"`
}

// Ingredient is a catalog entry.
type Ingredient struct {
	ID              string          `json:"id" validate:"required"`
	Name            string          `json:"name"`
	PreferredLabel  string          `json:"preferredLabel,omitempty"`
	Aliases         []string        `json:"aliases,omitempty"`
	MeasurementType MeasurementType `json:"measurementType,omitempty"`
	AllowedUnits    []Unit          `json:"allowedUnits,omitempty"`
	Custom          bool            `json:"custom"`
}

// AllowsUnit reports whether u may be used with the ingredient.
// An empty allowed set permits every known unit.
func (i Ingredient) AllowsUnit(u Unit) bool {
	if !u.Valid() {
		return false
	}
	if len(i.AllowedUnits) == 0 {
		return true
	}
	for _, allowed := range i.AllowedUnits {
		if allowed == u {
			return true
		}
	}
	return false
}

// CustomIngredientRequest is the body for creating a custom ingredient.
type CustomIngredientRequest struct {
	Name            string          `json:"name"`
	MeasurementType MeasurementType `json:"measurementType"`
}

// PlanSlot assigns a recipe to a (date, meal type) pair.
type PlanSlot struct {
	Date     Date     `json:"date" validate:"required"`
	MealType MealType `json:"mealType" validate:"required"`
	RecipeID string   `json:"recipeId"`
}

// MealPlan is the backend's plan representation.
type MealPlan struct {
	ID        string     `json:"id" validate:"required"`
	StartDate Date       `json:"startDate" validate:"required"`
	EndDate   Date       `json:"endDate,omitempty"`
	Period    Period     `json:"period" validate:"required"`
	Slots     []PlanSlot `json:"slots" validate:"dive"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// PlanRequest is the body for creating or replacing a plan.
type PlanRequest struct {
	StartDate Date       `json:"startDate"`
	Period    Period     `json:"period"`
	Slots     []PlanSlot `json:"slots"`
}

// ShoppingItem is one line of a shopping-list draft.
type ShoppingItem struct {
	ID                string   `json:"id"`
	IngredientID      *string  `json:"ingredientId"`
	Name              string   `json:"name"`
	Quantity          float64  `json:"quantity"`
	Unit              Unit     `json:"unit"`
	SuggestedPackages *int     `json:"suggestedPackages"`
	PackageAmount     *float64 `json:"packageAmount"`
	PackageUnit       *Unit    `json:"packageUnit"`
	Manual            bool     `json:"manual"`
	Bought            bool     `json:"bought"`
	Note              *string  `json:"note"`
	SortOrder         int      `json:"sortOrder"`
}

// ShoppingListDraft is an editable shopping list, optionally derived from a plan.
type ShoppingListDraft struct {
	ID        string         `json:"id" validate:"required"`
	PlanID    *string        `json:"planId"`
	Items     []ShoppingItem `json:"items"`
	CreatedAt *time.Time     `json:"createdAt,omitempty"`
	UpdatedAt *time.Time     `json:"updatedAt,omitempty"`
}

// OriginPlanID returns the originating plan id, or "" for a list without one.
func (d ShoppingListDraft) OriginPlanID() string {
	if d.PlanID == nil {
		return ""
	}
	return *d.PlanID
}

// ShoppingItemInput is one item of a shopping-list replacement. A nil ID asks
// the backend to assign one.
type ShoppingItemInput struct {
	ID                *string  `json:"id"`
	IngredientID      *string  `json:"ingredientId"`
	Name              string   `json:"name"`
	Quantity          float64  `json:"quantity"`
	Unit              Unit     `json:"unit"`
	SuggestedPackages *int     `json:"suggestedPackages"`
	PackageAmount     *float64 `json:"packageAmount"`
	PackageUnit       *Unit    `json:"packageUnit"`
	Manual            bool     `json:"manual"`
	Bought            bool     `json:"bought"`
	Note              *string  `json:"note"`
	SortOrder         int      `json:"sortOrder"`
}

// UpdateShoppingListRequest replaces every item of a draft.
type UpdateShoppingListRequest struct {
	Items []ShoppingItemInput `json:"items"`
}
