package api

import (
	"context"
	"net/http"
)

const plansPath = "/api/plans"

// ListPlans returns every meal plan, served from the read cache within its TTL.
func (c *Client) ListPlans(ctx context.Context) ([]MealPlan, error) {
	return cachedList[MealPlan](ctx, c, ResourcePlans, plansPath)
}

// GetPlan fetches a single plan. It bypasses the cache.
func (c *Client) GetPlan(ctx context.Context, id string) (*MealPlan, error) {
	path := resourcePath(plansPath, id)
	resp, err := c.do(ctx, request{method: http.MethodGet, path: path})
	if err != nil {
		return nil, err
	}
	return decodeOne[MealPlan](c, "GET "+path, resp)
}

// CreatePlan creates the plan for a (startDate, period) pair.
func (c *Client) CreatePlan(ctx context.Context, payload PlanRequest) (*MealPlan, error) {
	resp, err := c.mutate(ctx, ResourcePlans, request{method: http.MethodPost, path: plansPath, body: payload})
	if err != nil {
		return nil, err
	}
	return decodeOne[MealPlan](c, "POST "+plansPath, resp)
}

// UpdatePlan replaces a plan's slots in place.
func (c *Client) UpdatePlan(ctx context.Context, id string, payload PlanRequest) (*MealPlan, error) {
	path := resourcePath(plansPath, id)
	resp, err := c.mutate(ctx, ResourcePlans, request{method: http.MethodPut, path: path, body: payload})
	if err != nil {
		return nil, err
	}
	return decodeOne[MealPlan](c, "PUT "+path, resp)
}

// DeletePlan deletes a plan. Drafts generated from it keep a dangling origin.
func (c *Client) DeletePlan(ctx context.Context, id string) error {
	_, err := c.mutate(ctx, ResourcePlans, request{method: http.MethodDelete, path: resourcePath(plansPath, id)})
	return err
}
