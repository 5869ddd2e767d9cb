package api

import (
	"context"
	"net/http"
)

const recipesPath = "/api/recipes"

// ListRecipes returns every recipe, served from the read cache within its TTL.
func (c *Client) ListRecipes(ctx context.Context) ([]Recipe, error) {
	return cachedList[Recipe](ctx, c, ResourceRecipes, recipesPath)
}

// GetRecipe fetches a single recipe. It bypasses the cache.
func (c *Client) GetRecipe(ctx context.Context, id string) (*Recipe, error) {
	path := resourcePath(recipesPath, id)
	resp, err := c.do(ctx, request{method: http.MethodGet, path: path})
	if err != nil {
		return nil, err
	}
	return decodeOne[Recipe](c, "GET "+path, resp)
}

// CreateRecipe creates a recipe.
func (c *Client) CreateRecipe(ctx context.Context, payload RecipeRequest) (*Recipe, error) {
	resp, err := c.mutate(ctx, ResourceRecipes, request{method: http.MethodPost, path: recipesPath, body: payload})
	if err != nil {
		return nil, err
	}
	return decodeOne[Recipe](c, "POST "+recipesPath, resp)
}

// UpdateRecipe replaces a recipe.
func (c *Client) UpdateRecipe(ctx context.Context, id string, payload RecipeRequest) (*Recipe, error) {
	path := resourcePath(recipesPath, id)
	resp, err := c.mutate(ctx, ResourceRecipes, request{method: http.MethodPut, path: path, body: payload})
	if err != nil {
		return nil, err
	}
	return decodeOne[Recipe](c, "PUT "+path, resp)
}

// DeleteRecipe deletes a recipe. Plans referencing it keep a dangling slot
// until they are repaired.
func (c *Client) DeleteRecipe(ctx context.Context, id string) error {
	_, err := c.mutate(ctx, ResourceRecipes, request{method: http.MethodDelete, path: resourcePath(recipesPath, id)})
	return err
}
