// Package reconcile keeps recipes, meal plans and shopping-list drafts
// consistent with one another on the client. Plans and drafts hold weak
// references (plain ids) that may dangle after a recipe or plan is deleted;
// the functions here detect those references and compute the repaired state.
package reconcile

import (
	"slices"

	"meal-shell/internal/api"
)

// RecipeSet is the set of recipe ids that currently exist.
type RecipeSet map[string]struct{}

// NewRecipeSet indexes recipes by id.
func NewRecipeSet(recipes []api.Recipe) RecipeSet {
	set := make(RecipeSet, len(recipes))
	for _, r := range recipes {
		set[r.ID] = struct{}{}
	}
	return set
}

// Has reports whether id resolves to an existing recipe.
func (s RecipeSet) Has(id string) bool {
	if id == "" {
		return false
	}
	_, ok := s[id]
	return ok
}

// SelectPlan returns the plan whose (startDate, period) pair matches exactly, or nil.
func SelectPlan(plans []api.MealPlan, start api.Date, period api.Period) *api.MealPlan {
	for i := range plans {
		if plans[i].StartDate == start && plans[i].Period == period {
			return &plans[i]
		}
	}
	return nil
}

// DanglingSlots returns the slots of plan whose recipe no longer exists.
func DanglingSlots(plan api.MealPlan, recipes RecipeSet) []api.PlanSlot {
	var dangling []api.PlanSlot
	for _, slot := range plan.Slots {
		if !recipes.Has(slot.RecipeID) {
			dangling = append(dangling, slot)
		}
	}
	return dangling
}

// IsPlanValid reports whether every slot of plan references an existing recipe.
// Only valid plans may be used to generate a shopping list.
func IsPlanValid(plan api.MealPlan, recipes RecipeSet) bool {
	return len(DanglingSlots(plan, recipes)) == 0
}

// ValidPlans filters plans down to the ones valid for list generation, keeping order.
func ValidPlans(plans []api.MealPlan, recipes RecipeSet) []api.MealPlan {
	valid := make([]api.MealPlan, 0, len(plans))
	for _, p := range plans {
		if IsPlanValid(p, recipes) {
			valid = append(valid, p)
		}
	}
	return valid
}

// LatestDraft returns the first draft, in listed order, that may still be
// offered as the default: one without an origin plan, or whose origin plan
// exists and is valid. Drafts pointing at a deleted or invalid plan are skipped.
func LatestDraft(drafts []api.ShoppingListDraft, plans []api.MealPlan, recipes RecipeSet) *api.ShoppingListDraft {
	byID := make(map[string]api.MealPlan, len(plans))
	for _, p := range plans {
		byID[p.ID] = p
	}

	for i := range drafts {
		origin := drafts[i].OriginPlanID()
		if origin == "" {
			return &drafts[i]
		}
		if plan, ok := byID[origin]; ok && IsPlanValid(plan, recipes) {
			return &drafts[i]
		}
	}
	return nil
}

// RepairedSlots returns plan's slots without the dangling ones and how many were removed.
func RepairedSlots(plan api.MealPlan, recipes RecipeSet) ([]api.PlanSlot, int) {
	kept := make([]api.PlanSlot, 0, len(plan.Slots))
	for _, slot := range plan.Slots {
		if recipes.Has(slot.RecipeID) {
			kept = append(kept, slot)
		}
	}
	return kept, len(plan.Slots) - len(kept)
}

// DaysOf lists the calendar days covered by a plan starting at start.
func DaysOf(start api.Date, period api.Period) []api.Date {
	days := make([]api.Date, 0, period.Days())
	for i := range period.Days() {
		days = append(days, start.AddDays(i))
	}
	return days
}

// InRange reports whether d falls within [start, start+period-1].
func InRange(d api.Date, start api.Date, period api.Period) bool {
	if period.Days() == 0 {
		return false
	}
	return slices.Contains(DaysOf(start, period), d)
}
