package screens

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"meal-shell/internal/api"

	"github.com/go-playground/validator/v10"
)

const (
	// MinIngredientQuery is the shortest trimmed query sent to the ingredient search.
	MinIngredientQuery = 2
	// MaxSuggestions caps the ingredient options shown per line.
	MaxSuggestions = 6
)

// RecipeFormGateway is what the recipe form needs from the backend.
type RecipeFormGateway interface {
	SearchIngredients(ctx context.Context, q string) ([]api.Ingredient, error)
	CreateRecipe(ctx context.Context, payload api.RecipeRequest) (*api.Recipe, error)
	UpdateRecipe(ctx context.Context, id string, payload api.RecipeRequest) (*api.Recipe, error)
}

// IngredientLine is one editable ingredient row.
type IngredientLine struct {
	IngredientID string
	// Ingredient is the catalog entry picked from the search, when known.
	Ingredient *api.Ingredient
	Query      string
	Options    []api.Ingredient
	Quantity   float64
	Unit       api.Unit
}

func (l IngredientLine) blank() bool {
	return l.IngredientID == "" && l.Quantity == 0
}

// RecipeForm creates or edits one recipe.
type RecipeForm struct {
	gw       RecipeFormGateway
	fb       *Feedback
	validate *validator.Validate
	id       string

	Name        string
	Type        api.MealType
	Preparation string
	Notes       string
	// Tags is comma-separated free text.
	Tags  string
	Lines []IngredientLine
}

type recipeHeader struct {
	Name string       `json:"name" validate:"required"`
	Type api.MealType `json:"type" validate:"required,oneof=BREAKFAST LUNCH DINNER"`
}

type lineInput struct {
	IngredientID string   `json:"ingredientId" validate:"required"`
	Quantity     float64  `json:"quantity" validate:"gt=0"`
	Unit         api.Unit `json:"unit" validate:"required,oneof=GRAM KILOGRAM MILLILITER LITER CUP TABLESPOON TEASPOON PIECE PINCH TO_TASTE"`
}

// NewRecipeForm creates a form. A nil initial starts a new recipe.
func NewRecipeForm(gw RecipeFormGateway, fb *Feedback, initial *api.Recipe) *RecipeForm {
	f := &RecipeForm{gw: gw, fb: fb, validate: newValidator(), Type: api.Lunch}
	if initial == nil {
		f.AddLine()
		return f
	}

	f.id = initial.ID
	f.Name = initial.Name
	f.Type = initial.Type
	if initial.Preparation != nil {
		f.Preparation = *initial.Preparation
	}
	if initial.Notes != nil {
		f.Notes = *initial.Notes
	}
	f.Tags = strings.Join(initial.Tags, ", ")
	for _, in := range initial.Ingredients {
		f.Lines = append(f.Lines, IngredientLine{IngredientID: in.IngredientID, Quantity: in.Quantity, Unit: in.Unit})
	}
	if len(f.Lines) == 0 {
		f.AddLine()
	}
	return f
}

// Editing reports whether the form edits an existing recipe.
func (f *RecipeForm) Editing() bool {
	return f.id != ""
}

// AddLine appends an empty ingredient row.
func (f *RecipeForm) AddLine() {
	f.Lines = append(f.Lines, IngredientLine{Unit: api.Gram})
}

// RemoveLine drops row i.
func (f *RecipeForm) RemoveLine(i int) {
	if i < 0 || i >= len(f.Lines) {
		return
	}
	f.Lines = append(f.Lines[:i], f.Lines[i+1:]...)
}

// SearchIngredient updates row i's query and its options. Queries shorter than
// MinIngredientQuery clear the options without a request. A failed search
// leaves the options empty.
func (f *RecipeForm) SearchIngredient(ctx context.Context, i int, q string) error {
	if i < 0 || i >= len(f.Lines) {
		return fmt.Errorf("no ingredient line %d", i)
	}
	line := &f.Lines[i]
	line.Query = q
	line.Options = nil

	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < MinIngredientQuery {
		return nil
	}

	options, err := f.gw.SearchIngredients(ctx, q)
	if err != nil {
		return f.fb.Fail(ctx, ScreenRecipeForm, err)
	}
	if len(options) > MaxSuggestions {
		options = options[:MaxSuggestions]
	}
	line.Options = options
	return nil
}

// SelectIngredient binds row i to ing. A unit the ingredient does not allow is
// replaced by its first allowed unit.
func (f *RecipeForm) SelectIngredient(i int, ing api.Ingredient) {
	if i < 0 || i >= len(f.Lines) {
		return
	}
	line := &f.Lines[i]
	line.IngredientID = ing.ID
	line.Ingredient = &ing
	line.Query = ing.Name
	line.Options = nil
	if !ing.AllowsUnit(line.Unit) && len(ing.AllowedUnits) > 0 {
		line.Unit = ing.AllowedUnits[0]
	}
}

// UnitsFor returns the units row i may use.
func (f *RecipeForm) UnitsFor(i int) []api.Unit {
	if i < 0 || i >= len(f.Lines) || f.Lines[i].Ingredient == nil || len(f.Lines[i].Ingredient.AllowedUnits) == 0 {
		return api.Units
	}
	return f.Lines[i].Ingredient.AllowedUnits
}

// Request validates the form locally and builds the request body. Blank rows
// are ignored.
func (f *RecipeForm) Request() (api.RecipeRequest, FieldErrors) {
	header := recipeHeader{Name: strings.TrimSpace(f.Name), Type: f.Type}
	errs := fieldErrors(f.validate.Struct(header), "")

	var lines []api.RecipeIngredient
	for i, line := range f.Lines {
		if line.blank() {
			continue
		}
		prefix := fmt.Sprintf("ingredients[%d].", i)
		in := lineInput{IngredientID: line.IngredientID, Quantity: line.Quantity, Unit: line.Unit}
		if lineErrs := fieldErrors(f.validate.Struct(in), prefix); len(lineErrs) > 0 {
			errs = append(errs, lineErrs...)
			continue
		}
		if line.Ingredient != nil && !line.Ingredient.AllowsUnit(line.Unit) {
			errs = append(errs, FieldError{Field: prefix + "unit", Message: fmt.Sprintf("%s is not allowed for %s", line.Unit, line.Ingredient.Name)})
			continue
		}
		lines = append(lines, api.RecipeIngredient{IngredientID: in.IngredientID, Quantity: in.Quantity, Unit: in.Unit})
	}
	if len(lines) == 0 && !hasLineErrors(errs) {
		errs = append(errs, FieldError{Field: "ingredients", Message: "needs at least one ingredient"})
	}

	return api.RecipeRequest{
		Name:        header.Name,
		Type:        header.Type,
		Ingredients: lines,
		Preparation: optionalText(f.Preparation),
		Notes:       optionalText(f.Notes),
		Tags:        ParseTags(f.Tags),
	}, errs
}

// Save validates and submits the form.
func (f *RecipeForm) Save(ctx context.Context) (*api.Recipe, error) {
	req, errs := f.Request()
	if err := errs.Err(); err != nil {
		return nil, f.fb.Fail(ctx, ScreenRecipeForm, err)
	}

	var (
		saved *api.Recipe
		err   error
	)
	if f.Editing() {
		saved, err = f.gw.UpdateRecipe(ctx, f.id, req)
	} else {
		saved, err = f.gw.CreateRecipe(ctx, req)
	}
	if err != nil {
		return nil, f.fb.Fail(ctx, ScreenRecipeForm, err)
	}

	if f.Editing() {
		f.fb.Succeed("Recipe updated")
	} else {
		f.fb.Succeed("Recipe created")
	}
	f.id = saved.ID
	return saved, nil
}

// ParseTags splits comma-separated text into trimmed, non-blank, unique tags.
func ParseTags(s string) []string {
	tags := []string{}
	seen := make(map[string]struct{})
	for _, part := range strings.Split(s, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

func hasLineErrors(errs FieldErrors) bool {
	for _, fe := range errs {
		if strings.HasPrefix(fe.Field, "ingredients[") {
			return true
		}
	}
	return false
}

func optionalText(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
