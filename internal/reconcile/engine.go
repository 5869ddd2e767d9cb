package reconcile

import (
	"context"
	"fmt"

	"meal-shell/internal/api"
	"meal-shell/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Backend is the part of the gateway plan repair writes through.
type Backend interface {
	UpdatePlan(ctx context.Context, id string, payload api.PlanRequest) (*api.MealPlan, error)
	GenerateShoppingList(ctx context.Context, planID, idempotencyKey string) (*api.ShoppingListDraft, error)
}

// RepairResult describes the outcome of Engine.Repair.
type RepairResult struct {
	Plan    api.MealPlan
	Removed int
	// Draft is the list regenerated from the corrected plan; nil when nothing was removed.
	Draft *api.ShoppingListDraft
}

// Engine runs reconciliation actions that write to the backend.
type Engine struct {
	backend Backend
	newKey  func() string
	log     *zap.Logger
}

// NewEngine creates a new Engine.
func NewEngine(backend Backend, log *zap.Logger) *Engine {
	return &Engine{
		backend: backend,
		newKey:  uuid.NewString,
		log:     logger.OrNop(log),
	}
}

// Repair drops the dangling slots of plan, persists the corrected plan and
// regenerates a shopping list from it. When no slot dangles nothing is written,
// so repeating a repair is a no-op. An empty idempotencyKey gets a fresh one.
func (e *Engine) Repair(ctx context.Context, plan api.MealPlan, recipes RecipeSet, idempotencyKey string) (RepairResult, error) {
	slots, removed := RepairedSlots(plan, recipes)
	if removed == 0 {
		return RepairResult{Plan: plan}, nil
	}

	updated, err := e.backend.UpdatePlan(ctx, plan.ID, api.PlanRequest{
		StartDate: plan.StartDate,
		Period:    plan.Period,
		Slots:     slots,
	})
	if err != nil {
		return RepairResult{Plan: plan}, fmt.Errorf("failed to persist repaired plan %s: %w", plan.ID, err)
	}
	e.log.Info("repaired plan",
		zap.String("plan_id", plan.ID),
		zap.Int("removed_slots", removed))

	if idempotencyKey == "" {
		idempotencyKey = e.newKey()
	}
	draft, err := e.backend.GenerateShoppingList(ctx, updated.ID, idempotencyKey)
	if err != nil {
		return RepairResult{Plan: *updated, Removed: removed}, fmt.Errorf("failed to regenerate shopping list for plan %s: %w", plan.ID, err)
	}

	return RepairResult{Plan: *updated, Removed: removed, Draft: draft}, nil
}
