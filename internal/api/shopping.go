package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

const shoppingListsPath = "/api/shopping-lists"

// GenerateShoppingList derives a new draft from a plan. The backend deduplicates
// retries that carry the same idempotency key, so a retried call returns the
// draft created by the first one.
func (c *Client) GenerateShoppingList(ctx context.Context, planID, idempotencyKey string) (*ShoppingListDraft, error) {
	path := shoppingListsPath + "/generate"
	req := request{
		method: http.MethodPost,
		path:   path,
		query:  url.Values{"planId": {planID}},
	}
	if key := strings.TrimSpace(idempotencyKey); key != "" {
		req.headers = map[string]string{headerIdempotencyKey: key}
	}

	resp, err := c.mutate(ctx, ResourceShoppingLists, req)
	if err != nil {
		return nil, err
	}
	return decodeOne[ShoppingListDraft](c, "POST "+path, resp)
}

// ListShoppingLists returns every draft, newest first as ordered by the backend.
func (c *Client) ListShoppingLists(ctx context.Context) ([]ShoppingListDraft, error) {
	return cachedList[ShoppingListDraft](ctx, c, ResourceShoppingLists, shoppingListsPath)
}

// GetShoppingList fetches a single draft. It bypasses the cache.
func (c *Client) GetShoppingList(ctx context.Context, id string) (*ShoppingListDraft, error) {
	path := resourcePath(shoppingListsPath, id)
	resp, err := c.do(ctx, request{method: http.MethodGet, path: path})
	if err != nil {
		return nil, err
	}
	return decodeOne[ShoppingListDraft](c, "GET "+path, resp)
}

// UpdateShoppingList replaces every item of a draft.
func (c *Client) UpdateShoppingList(ctx context.Context, id string, items []ShoppingItemInput) (*ShoppingListDraft, error) {
	path := resourcePath(shoppingListsPath, id)
	if items == nil {
		items = []ShoppingItemInput{}
	}
	resp, err := c.mutate(ctx, ResourceShoppingLists, request{
		method: http.MethodPut,
		path:   path,
		body:   UpdateShoppingListRequest{Items: items},
	})
	if err != nil {
		return nil, err
	}
	return decodeOne[ShoppingListDraft](c, "PUT "+path, resp)
}

// DeleteShoppingList deletes a draft.
func (c *Client) DeleteShoppingList(ctx context.Context, id string) error {
	_, err := c.mutate(ctx, ResourceShoppingLists, request{method: http.MethodDelete, path: resourcePath(shoppingListsPath, id)})
	return err
}
