package screens

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"meal-shell/internal/api"
)

type recordingNotifier struct {
	errors    []string
	successes []string
}

func (n *recordingNotifier) Error(msg string)   { n.errors = append(n.errors, msg) }
func (n *recordingNotifier) Success(msg string) { n.successes = append(n.successes, msg) }

// fakeGateway is an in-memory backend. Loads may run in parallel, so state is locked.
type fakeGateway struct {
	mu sync.Mutex

	recipes []api.Recipe
	plans   []api.MealPlan
	drafts  []api.ShoppingListDraft

	ingredients []api.Ingredient
	searches    []string

	byKey       map[string]string
	planWrites  []api.PlanRequest
	listUpdates [][]api.ShoppingItemInput
	nextID      int

	failWith error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{byKey: map[string]string{}}
}

func (f *fakeGateway) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s%d", prefix, f.nextID)
}

func (f *fakeGateway) ListRecipes(context.Context) ([]api.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	return slices.Clone(f.recipes), nil
}

func (f *fakeGateway) DeleteRecipe(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	n := len(f.recipes)
	f.recipes = slices.DeleteFunc(f.recipes, func(r api.Recipe) bool { return r.ID == id })
	if len(f.recipes) == n {
		return &api.APIError{Code: api.CodeNotFound, Message: "Recipe not found", Status: 404}
	}
	return nil
}

func (f *fakeGateway) SearchIngredients(_ context.Context, q string) ([]api.Ingredient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, q)
	return slices.Clone(f.ingredients), nil
}

func (f *fakeGateway) CreateRecipe(_ context.Context, payload api.RecipeRequest) (*api.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	r := api.Recipe{ID: f.id("R"), Name: payload.Name, Type: payload.Type, Ingredients: payload.Ingredients, Tags: payload.Tags}
	f.recipes = append(f.recipes, r)
	return &r, nil
}

func (f *fakeGateway) UpdateRecipe(_ context.Context, id string, payload api.RecipeRequest) (*api.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := api.Recipe{ID: id, Name: payload.Name, Type: payload.Type, Ingredients: payload.Ingredients, Tags: payload.Tags}
	return &r, nil
}

func (f *fakeGateway) ListPlans(context.Context) ([]api.MealPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	return slices.Clone(f.plans), nil
}

func (f *fakeGateway) CreatePlan(_ context.Context, payload api.PlanRequest) (*api.MealPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.planWrites = append(f.planWrites, payload)
	p := api.MealPlan{ID: f.id("P"), StartDate: payload.StartDate, Period: payload.Period, Slots: payload.Slots}
	f.plans = append(f.plans, p)
	return &p, nil
}

func (f *fakeGateway) UpdatePlan(_ context.Context, id string, payload api.PlanRequest) (*api.MealPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.planWrites = append(f.planWrites, payload)
	for i := range f.plans {
		if f.plans[i].ID == id {
			f.plans[i].Slots = payload.Slots
			p := f.plans[i]
			return &p, nil
		}
	}
	return nil, &api.APIError{Code: api.CodeNotFound, Message: "Plan not found", Status: 404}
}

func (f *fakeGateway) ListShoppingLists(context.Context) ([]api.ShoppingListDraft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	return slices.Clone(f.drafts), nil
}

// GenerateShoppingList deduplicates on the idempotency key like the backend does.
func (f *fakeGateway) GenerateShoppingList(_ context.Context, planID, key string) (*api.ShoppingListDraft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.byKey[key]; ok {
		for _, d := range f.drafts {
			if d.ID == id {
				return &d, nil
			}
		}
	}
	ingredientID := "ING-1"
	d := api.ShoppingListDraft{
		ID:     f.id("D"),
		PlanID: &planID,
		Items: []api.ShoppingItem{
			{ID: "I1", IngredientID: &ingredientID, Name: "Rice", Quantity: 500, Unit: api.Gram, SortOrder: 0},
		},
	}
	f.byKey[key] = d.ID
	f.drafts = append([]api.ShoppingListDraft{d}, f.drafts...)
	return &d, nil
}

func (f *fakeGateway) UpdateShoppingList(_ context.Context, id string, items []api.ShoppingItemInput) (*api.ShoppingListDraft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listUpdates = append(f.listUpdates, items)
	d := api.ShoppingListDraft{ID: id}
	for _, in := range items {
		itemID := f.id("NEW-")
		if in.ID != nil {
			itemID = *in.ID
		}
		d.Items = append(d.Items, api.ShoppingItem{
			ID: itemID, IngredientID: in.IngredientID, Name: in.Name, Quantity: in.Quantity, Unit: in.Unit,
			Manual: in.Manual, Bought: in.Bought, Note: in.Note, SortOrder: in.SortOrder,
		})
	}
	return &d, nil
}

func (f *fakeGateway) GetRecipe(_ context.Context, id string) (*api.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.recipes {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, &api.APIError{Code: api.CodeNotFound, Message: "Recipe not found", Status: 404}
}

func (f *fakeGateway) GetPlan(_ context.Context, id string) (*api.MealPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.plans {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, &api.APIError{Code: api.CodeNotFound, Message: "Plan not found", Status: 404}
}

func (f *fakeGateway) DeletePlan(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.plans)
	f.plans = slices.DeleteFunc(f.plans, func(p api.MealPlan) bool { return p.ID == id })
	if len(f.plans) == n {
		return &api.APIError{Code: api.CodeNotFound, Message: "Plan not found", Status: 404}
	}
	return nil
}

func (f *fakeGateway) GetShoppingList(_ context.Context, id string) (*api.ShoppingListDraft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.drafts {
		if d.ID == id {
			d.Items = slices.Clone(d.Items)
			return &d, nil
		}
	}
	return nil, &api.APIError{Code: api.CodeNotFound, Message: "Shopping list not found", Status: 404}
}

func (f *fakeGateway) DeleteShoppingList(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.drafts)
	f.drafts = slices.DeleteFunc(f.drafts, func(d api.ShoppingListDraft) bool { return d.ID == id })
	if len(f.drafts) == n {
		return &api.APIError{Code: api.CodeNotFound, Message: "Shopping list not found", Status: 404}
	}
	return nil
}
