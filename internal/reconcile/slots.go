package reconcile

import (
	"cmp"
	"slices"

	"meal-shell/internal/api"
)

// SlotKey identifies a plan slot. A plan holds at most one slot per key.
type SlotKey struct {
	Date     api.Date
	MealType api.MealType
}

// SlotMap is the editable form of a plan's slots: key to recipe id.
type SlotMap map[SlotKey]string

// LoadSlots builds the editable slot map of plan. Slots whose recipe no longer
// exists are left out and counted in dropped. A nil plan yields an empty map.
func LoadSlots(plan *api.MealPlan, recipes RecipeSet) (slots SlotMap, dropped int) {
	slots = make(SlotMap)
	if plan == nil {
		return slots, 0
	}
	for _, slot := range plan.Slots {
		if !recipes.Has(slot.RecipeID) {
			dropped++
			continue
		}
		slots[SlotKey{Date: slot.Date, MealType: slot.MealType}] = slot.RecipeID
	}
	return slots, dropped
}

// Set assigns recipeID to the slot at (date, meal). An empty recipeID clears it.
func (m SlotMap) Set(date api.Date, meal api.MealType, recipeID string) {
	key := SlotKey{Date: date, MealType: meal}
	if recipeID == "" {
		delete(m, key)
		return
	}
	m[key] = recipeID
}

// Get returns the recipe assigned to (date, meal), or "".
func (m SlotMap) Get(date api.Date, meal api.MealType) string {
	return m[SlotKey{Date: date, MealType: meal}]
}

// Slots serializes the map for saving, ordered by date then meal type. Entries
// whose recipe no longer exists or whose date falls outside the plan are left out.
func (m SlotMap) Slots(start api.Date, period api.Period, recipes RecipeSet) []api.PlanSlot {
	days := make(map[api.Date]struct{}, period.Days())
	for _, d := range DaysOf(start, period) {
		days[d] = struct{}{}
	}

	slots := make([]api.PlanSlot, 0, len(m))
	for key, recipeID := range m {
		if _, ok := days[key.Date]; !ok {
			continue
		}
		if !key.MealType.Valid() || !recipes.Has(recipeID) {
			continue
		}
		slots = append(slots, api.PlanSlot{Date: key.Date, MealType: key.MealType, RecipeID: recipeID})
	}

	slices.SortFunc(slots, func(a, b api.PlanSlot) int {
		return cmp.Or(
			cmp.Compare(a.Date, b.Date),
			cmp.Compare(a.MealType.Rank(), b.MealType.Rank()),
		)
	})
	return slots
}
