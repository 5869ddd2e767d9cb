package screens

import (
	"context"
	"slices"
	"strings"

	"meal-shell/internal/api"
)

// RecipeGateway is what the recipe catalog needs from the backend.
type RecipeGateway interface {
	ListRecipes(ctx context.Context) ([]api.Recipe, error)
	GetRecipe(ctx context.Context, id string) (*api.Recipe, error)
	DeleteRecipe(ctx context.Context, id string) error
}

// RecipeCatalog is the recipe list screen.
type RecipeCatalog struct {
	gw      RecipeGateway
	fb      *Feedback
	recipes []api.Recipe
	search  string
}

// NewRecipeCatalog creates a new RecipeCatalog.
func NewRecipeCatalog(gw RecipeGateway, fb *Feedback) *RecipeCatalog {
	return &RecipeCatalog{gw: gw, fb: fb}
}

// Load fetches the recipe collection.
func (c *RecipeCatalog) Load(ctx context.Context) error {
	recipes, err := c.gw.ListRecipes(ctx)
	if err != nil {
		return c.fb.Fail(ctx, ScreenRecipes, err)
	}
	c.recipes = recipes
	return nil
}

// SetSearch sets the local name filter.
func (c *RecipeCatalog) SetSearch(q string) {
	c.search = q
}

// Visible returns the recipes whose name contains the search text, ignoring case.
func (c *RecipeCatalog) Visible() []api.Recipe {
	q := strings.ToLower(strings.TrimSpace(c.search))
	if q == "" {
		return slices.Clone(c.recipes)
	}
	var out []api.Recipe
	for _, r := range c.recipes {
		if strings.Contains(strings.ToLower(r.Name), q) {
			out = append(out, r)
		}
	}
	return out
}

// Recipe returns the loaded recipe with id.
func (c *RecipeCatalog) Recipe(id string) (api.Recipe, bool) {
	i := slices.IndexFunc(c.recipes, func(r api.Recipe) bool { return r.ID == id })
	if i < 0 {
		return api.Recipe{}, false
	}
	return c.recipes[i], true
}

// Open fetches one recipe fresh from the backend, bypassing the list cache.
func (c *RecipeCatalog) Open(ctx context.Context, id string) (*api.Recipe, error) {
	r, err := c.gw.GetRecipe(ctx, id)
	if err != nil {
		return nil, c.fb.Fail(ctx, ScreenRecipes, err)
	}
	return r, nil
}

// Delete removes a recipe and reloads the catalog. Plans that used it keep a
// dangling slot until they are repaired or saved.
func (c *RecipeCatalog) Delete(ctx context.Context, id string) error {
	if err := c.gw.DeleteRecipe(ctx, id); err != nil {
		return c.fb.Fail(ctx, ScreenRecipes, err)
	}
	c.fb.Succeed("Recipe deleted")
	return c.Load(ctx)
}
