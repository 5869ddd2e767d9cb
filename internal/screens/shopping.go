package screens

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"meal-shell/internal/api"
	"meal-shell/internal/reconcile"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	// TempIDPrefix marks client-generated ids of manual items.
	TempIDPrefix = "tmp-"
	// MaxNoteLength bounds a shopping item note, in characters.
	MaxNoteLength = 280
)

var (
	errNoPlanSelected = errors.New("select a plan to generate a list")
	errNoDraft        = errors.New("generate a list from a plan first")
)

// ShoppingGateway is what the shopping list needs from the backend.
type ShoppingGateway interface {
	reconcile.Backend
	ListRecipes(ctx context.Context) ([]api.Recipe, error)
	ListPlans(ctx context.Context) ([]api.MealPlan, error)
	ListShoppingLists(ctx context.Context) ([]api.ShoppingListDraft, error)
	UpdateShoppingList(ctx context.Context, id string, items []api.ShoppingItemInput) (*api.ShoppingListDraft, error)
	GetShoppingList(ctx context.Context, id string) (*api.ShoppingListDraft, error)
	DeleteShoppingList(ctx context.Context, id string) error
}

// ShoppingList is the shopping-list screen: plan selector, latest draft and item editing.
type ShoppingList struct {
	gw       ShoppingGateway
	fb       *Feedback
	engine   *reconcile.Engine
	validate *validator.Validate
	newKey   func() string

	recipes        reconcile.RecipeSet
	plans          []api.MealPlan
	draft          *api.ShoppingListDraft
	selectedPlanID string
}

type itemInput struct {
	Name     string   `json:"name" validate:"required"`
	Quantity float64  `json:"quantity" validate:"gt=0"`
	Unit     api.Unit `json:"unit" validate:"required,oneof=GRAM KILOGRAM MILLILITER LITER CUP TABLESPOON TEASPOON PIECE PINCH TO_TASTE"`
	Note     *string  `json:"note" validate:"omitempty,max=280"`
}

// NewShoppingList creates a new ShoppingList.
func NewShoppingList(gw ShoppingGateway, engine *reconcile.Engine, fb *Feedback) *ShoppingList {
	return &ShoppingList{
		gw:       gw,
		fb:       fb,
		engine:   engine,
		validate: newValidator(),
		newKey:   uuid.NewString,
		recipes:  reconcile.RecipeSet{},
	}
}

// Load fetches recipes, plans and drafts in parallel, picks the latest draft
// that may still be offered and defaults the plan selector.
func (s *ShoppingList) Load(ctx context.Context) error {
	var (
		recipes []api.Recipe
		plans   []api.MealPlan
		drafts  []api.ShoppingListDraft
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		recipes, err = s.gw.ListRecipes(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		plans, err = s.gw.ListPlans(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		drafts, err = s.gw.ListShoppingLists(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return s.fb.Fail(ctx, ScreenShopping, err)
	}

	s.recipes = reconcile.NewRecipeSet(recipes)
	s.plans = plans
	s.draft = nil
	if latest := reconcile.LatestDraft(drafts, plans, s.recipes); latest != nil {
		s.draft = cloneDraft(*latest)
	}

	s.selectedPlanID = ""
	if s.draft != nil && s.isCandidate(s.draft.OriginPlanID()) {
		s.selectedPlanID = s.draft.OriginPlanID()
	} else if candidates := s.Candidates(); len(candidates) > 0 {
		s.selectedPlanID = candidates[0].ID
	}
	return nil
}

// Open replaces the offered draft with list id, fetched fresh. The plan
// selector follows the list's origin when that plan is a candidate.
func (s *ShoppingList) Open(ctx context.Context, id string) error {
	draft, err := s.gw.GetShoppingList(ctx, id)
	if err != nil {
		return s.fb.Fail(ctx, ScreenShopping, err)
	}
	s.draft = cloneDraft(*draft)
	if s.isCandidate(draft.OriginPlanID()) {
		s.selectedPlanID = draft.OriginPlanID()
	}
	return nil
}

// Discard deletes the draft being edited and reloads.
func (s *ShoppingList) Discard(ctx context.Context) error {
	if s.draft == nil || s.draft.ID == "" {
		return s.fb.Fail(ctx, ScreenShopping, errNoDraft)
	}
	if err := s.gw.DeleteShoppingList(ctx, s.draft.ID); err != nil {
		return s.fb.Fail(ctx, ScreenShopping, err)
	}
	s.fb.Succeed("List deleted")
	return s.Load(ctx)
}

// Candidates returns the plans a list can be generated from.
func (s *ShoppingList) Candidates() []api.MealPlan {
	return reconcile.ValidPlans(s.plans, s.recipes)
}

// NeedsRepair returns the plans excluded from generation because of deleted recipes.
func (s *ShoppingList) NeedsRepair() []api.MealPlan {
	var out []api.MealPlan
	for _, p := range s.plans {
		if !reconcile.IsPlanValid(p, s.recipes) {
			out = append(out, p)
		}
	}
	return out
}

func (s *ShoppingList) isCandidate(planID string) bool {
	return planID != "" && slices.ContainsFunc(s.Candidates(), func(p api.MealPlan) bool { return p.ID == planID })
}

// SelectedPlanID returns the plan the next generation will use.
func (s *ShoppingList) SelectedPlanID() string { return s.selectedPlanID }

// SelectPlan picks the plan to generate from. Only candidates are accepted.
func (s *ShoppingList) SelectPlan(planID string) error {
	if !s.isCandidate(planID) {
		return FieldError{Field: "planId", Message: fmt.Sprintf("plan %q cannot be used to generate a list", planID)}
	}
	s.selectedPlanID = planID
	return nil
}

// Draft returns the draft being edited, or nil.
func (s *ShoppingList) Draft() *api.ShoppingListDraft {
	if s.draft == nil {
		return nil
	}
	return cloneDraft(*s.draft)
}

// Items returns the draft's items partitioned for display.
func (s *ShoppingList) Items() (unbought, bought []api.ShoppingItem) {
	if s.draft == nil {
		return nil, nil
	}
	return reconcile.Partition(s.draft.Items)
}

// Generate derives a new draft from the selected plan. Retries with the same
// idempotencyKey return the same draft; an empty key gets a fresh one.
func (s *ShoppingList) Generate(ctx context.Context, idempotencyKey string) error {
	if s.selectedPlanID == "" {
		return s.fb.Fail(ctx, ScreenShopping, errNoPlanSelected)
	}
	if idempotencyKey == "" {
		idempotencyKey = s.newKey()
	}

	draft, err := s.gw.GenerateShoppingList(ctx, s.selectedPlanID, idempotencyKey)
	if err != nil {
		return s.fb.Fail(ctx, ScreenShopping, err)
	}
	s.draft = cloneDraft(*draft)
	s.fb.Succeed("List generated")
	return nil
}

// Repair drops the deleted recipes from a plan, saves it and regenerates its list.
func (s *ShoppingList) Repair(ctx context.Context, planID string) (reconcile.RepairResult, error) {
	i := slices.IndexFunc(s.plans, func(p api.MealPlan) bool { return p.ID == planID })
	if i < 0 {
		return reconcile.RepairResult{}, s.fb.Fail(ctx, ScreenShopping, FieldError{Field: "planId", Message: fmt.Sprintf("unknown plan %q", planID)})
	}

	res, err := s.engine.Repair(ctx, s.plans[i], s.recipes, s.newKey())
	s.plans[i] = res.Plan
	if err != nil {
		return res, s.fb.Fail(ctx, ScreenShopping, err)
	}

	if res.Removed == 0 {
		s.fb.Succeed("Plan has nothing to repair")
		return res, nil
	}
	if res.Draft != nil {
		s.draft = cloneDraft(*res.Draft)
	}
	s.selectedPlanID = res.Plan.ID
	s.fb.Succeed(fmt.Sprintf("Plan repaired: %d slot(s) removed and list regenerated", res.Removed))
	return res, nil
}

// UpdateItem applies edit to the item with id.
func (s *ShoppingList) UpdateItem(id string, edit func(*api.ShoppingItem)) bool {
	if s.draft == nil {
		return false
	}
	i := slices.IndexFunc(s.draft.Items, func(it api.ShoppingItem) bool { return it.ID == id })
	if i < 0 {
		return false
	}
	edit(&s.draft.Items[i])
	return true
}

// SetBought flips one item's bought flag.
func (s *ShoppingList) SetBought(id string, bought bool) bool {
	return s.UpdateItem(id, func(it *api.ShoppingItem) { it.Bought = bought })
}

// RemoveItem drops the item with id.
func (s *ShoppingList) RemoveItem(id string) bool {
	if s.draft == nil {
		return false
	}
	n := len(s.draft.Items)
	s.draft.Items = slices.DeleteFunc(s.draft.Items, func(it api.ShoppingItem) bool { return it.ID == id })
	return len(s.draft.Items) != n
}

// AddManual appends a hand-written item with a temporary id and returns that id.
func (s *ShoppingList) AddManual() string {
	if s.draft == nil {
		var planID *string
		if s.selectedPlanID != "" {
			id := s.selectedPlanID
			planID = &id
		}
		s.draft = &api.ShoppingListDraft{PlanID: planID}
	}

	next := len(s.draft.Items)
	for _, it := range s.draft.Items {
		next = max(next, it.SortOrder+1)
	}
	id := TempIDPrefix + uuid.NewString()
	s.draft.Items = append(s.draft.Items, api.ShoppingItem{
		ID:        id,
		Name:      "New item",
		Quantity:  1,
		Unit:      api.Piece,
		Manual:    true,
		SortOrder: next,
	})
	return id
}

// Move swaps an item with its neighbor in sorted order.
func (s *ShoppingList) Move(id string, dir reconcile.Direction) bool {
	if s.draft == nil {
		return false
	}
	moved, ok := reconcile.MoveItem(s.draft.Items, id, dir)
	s.draft.Items = moved
	return ok
}

// MarkAll sets every item's bought flag.
func (s *ShoppingList) MarkAll(bought bool) {
	if s.draft == nil {
		return
	}
	s.draft.Items = reconcile.SetAllBought(s.draft.Items, bought)
}

// ItemInputs validates the draft locally and normalizes it into the update
// body: temporary ids become null, positions become dense and empty notes null.
func (s *ShoppingList) ItemInputs() ([]api.ShoppingItemInput, FieldErrors) {
	if s.draft == nil {
		return nil, nil
	}

	var errs FieldErrors
	items := reconcile.SortItems(s.draft.Items)
	inputs := make([]api.ShoppingItemInput, 0, len(items))
	for idx, it := range items {
		prefix := fmt.Sprintf("items[%d].", idx)

		var note *string
		if it.Note != nil && strings.TrimSpace(*it.Note) != "" {
			n := *it.Note
			note = &n
		}
		in := itemInput{Name: strings.TrimSpace(it.Name), Quantity: it.Quantity, Unit: it.Unit, Note: note}
		errs = append(errs, fieldErrors(s.validate.Struct(in), prefix)...)
		errs = append(errs, checkItemRefs(it, prefix)...)

		var id *string
		if it.ID != "" && !strings.HasPrefix(it.ID, TempIDPrefix) {
			v := it.ID
			id = &v
		}
		inputs = append(inputs, api.ShoppingItemInput{
			ID:                id,
			IngredientID:      it.IngredientID,
			Name:              in.Name,
			Quantity:          it.Quantity,
			Unit:              it.Unit,
			SuggestedPackages: it.SuggestedPackages,
			PackageAmount:     it.PackageAmount,
			PackageUnit:       it.PackageUnit,
			Manual:            it.Manual,
			Bought:            it.Bought,
			Note:              note,
			SortOrder:         idx,
		})
	}
	return inputs, errs
}

// checkItemRefs covers the cross-field rules the backend enforces on items.
func checkItemRefs(it api.ShoppingItem, prefix string) FieldErrors {
	var errs FieldErrors
	if !it.Manual && (it.IngredientID == nil || *it.IngredientID == "") {
		errs = append(errs, FieldError{Field: prefix + "ingredientId", Message: "is required for items not added by hand"})
	}

	present := 0
	for _, set := range []bool{it.SuggestedPackages != nil, it.PackageAmount != nil, it.PackageUnit != nil} {
		if set {
			present++
		}
	}
	switch {
	case present == 0:
	case present < 3:
		errs = append(errs, FieldError{Field: prefix + "packages", Message: "suggested packages, amount and unit must be set together"})
	default:
		if *it.SuggestedPackages <= 0 {
			errs = append(errs, FieldError{Field: prefix + "suggestedPackages", Message: "must be greater than 0"})
		}
		if *it.PackageAmount <= 0 {
			errs = append(errs, FieldError{Field: prefix + "packageAmount", Message: "must be greater than 0"})
		}
		if !it.PackageUnit.Valid() {
			errs = append(errs, FieldError{Field: prefix + "packageUnit", Message: "is not a known unit"})
		}
	}
	return errs
}

// Save validates and submits the draft's items.
func (s *ShoppingList) Save(ctx context.Context) error {
	if s.draft == nil || s.draft.ID == "" {
		return s.fb.Fail(ctx, ScreenShopping, errNoDraft)
	}
	inputs, errs := s.ItemInputs()
	if err := errs.Err(); err != nil {
		return s.fb.Fail(ctx, ScreenShopping, err)
	}

	updated, err := s.gw.UpdateShoppingList(ctx, s.draft.ID, inputs)
	if err != nil {
		return s.fb.Fail(ctx, ScreenShopping, err)
	}
	s.draft = cloneDraft(*updated)
	s.fb.Succeed("Changes saved")
	return nil
}

func cloneDraft(d api.ShoppingListDraft) *api.ShoppingListDraft {
	d.Items = slices.Clone(d.Items)
	return &d
}
