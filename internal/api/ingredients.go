package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

const ingredientsPath = "/api/ingredients"

// SearchIngredients queries the catalog by id, name or alias. An empty query lists the catalog.
func (c *Client) SearchIngredients(ctx context.Context, q string) ([]Ingredient, error) {
	req := request{method: http.MethodGet, path: ingredientsPath}
	if q = strings.TrimSpace(q); q != "" {
		req.query = url.Values{"q": {q}}
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	return decodeList[Ingredient](c, "GET "+ingredientsPath, resp)
}

// CreateCustomIngredient adds a user-defined ingredient to the catalog.
func (c *Client) CreateCustomIngredient(ctx context.Context, payload CustomIngredientRequest) (*Ingredient, error) {
	path := ingredientsPath + "/custom"
	resp, err := c.mutate(ctx, ResourceIngredients, request{method: http.MethodPost, path: path, body: payload})
	if err != nil {
		return nil, err
	}
	return decodeOne[Ingredient](c, "POST "+path, resp)
}
