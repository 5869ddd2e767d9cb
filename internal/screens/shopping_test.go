package screens

import (
	"context"
	"strings"
	"testing"

	"meal-shell/internal/api"
	"meal-shell/internal/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func newTestShoppingList(gw *fakeGateway, notifier Notifier) *ShoppingList {
	fb := NewFeedback(notifier, nil, nil)
	return NewShoppingList(gw, reconcile.NewEngine(gw, nil), fb)
}

func shoppingFixture() *fakeGateway {
	gw := newFakeGateway()
	gw.recipes = []api.Recipe{{ID: "R2", Name: "Stew"}}
	gw.plans = []api.MealPlan{
		{ID: "BROKEN", StartDate: "2024-01-01", Period: api.Week, Slots: []api.PlanSlot{
			{Date: "2024-01-01", MealType: api.Lunch, RecipeID: "R1"},
			{Date: "2024-01-02", MealType: api.Lunch, RecipeID: "R2"},
		}},
		{ID: "GOOD", StartDate: "2024-01-08", Period: api.Week, Slots: []api.PlanSlot{
			{Date: "2024-01-08", MealType: api.Dinner, RecipeID: "R2"},
		}},
	}
	gw.drafts = []api.ShoppingListDraft{
		{ID: "D2", PlanID: ptr("BROKEN"), Items: []api.ShoppingItem{{ID: "X", Name: "x", Quantity: 1, Unit: api.Piece}}},
		{ID: "D1", PlanID: ptr("GOOD"), Items: []api.ShoppingItem{
			{ID: "I2", IngredientID: ptr("ING-2"), Name: "Onion", Quantity: 2, Unit: api.Piece, SortOrder: 1},
			{ID: "I1", IngredientID: ptr("ING-1"), Name: "Beef", Quantity: 500, Unit: api.Gram, SortOrder: 0, Bought: true},
		}},
	}
	return gw
}

func TestShoppingLoad(t *testing.T) {
	gw := shoppingFixture()
	list := newTestShoppingList(gw, nil)
	require.NoError(t, list.Load(context.Background()))

	candidates := list.Candidates()
	require.Len(t, candidates, 1)
	assert.Equal(t, "GOOD", candidates[0].ID)
	require.Len(t, list.NeedsRepair(), 1)
	assert.Equal(t, "BROKEN", list.NeedsRepair()[0].ID)

	require.NotNil(t, list.Draft())
	assert.Equal(t, "D1", list.Draft().ID, "drafts of invalid plans are not offered")
	assert.Equal(t, "GOOD", list.SelectedPlanID())

	unbought, bought := list.Items()
	require.Len(t, unbought, 1)
	require.Len(t, bought, 1)
	assert.Equal(t, "I2", unbought[0].ID)
	assert.Equal(t, "I1", bought[0].ID)

	assert.Error(t, list.SelectPlan("BROKEN"))
	assert.NoError(t, list.SelectPlan("GOOD"))
}

func TestShoppingGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("SameKeyYieldsOneDraft", func(t *testing.T) {
		gw := shoppingFixture()
		list := newTestShoppingList(gw, nil)
		require.NoError(t, list.Load(ctx))

		require.NoError(t, list.Generate(ctx, "K"))
		first := list.Draft().ID
		require.NoError(t, list.Generate(ctx, "K"))
		assert.Equal(t, first, list.Draft().ID)
		assert.Len(t, gw.drafts, 3)
	})

	t.Run("FreshKeyPerCall", func(t *testing.T) {
		gw := shoppingFixture()
		list := newTestShoppingList(gw, nil)
		require.NoError(t, list.Load(ctx))

		require.NoError(t, list.Generate(ctx, ""))
		require.NoError(t, list.Generate(ctx, ""))
		assert.Len(t, gw.drafts, 4)
	})

	t.Run("NoPlan", func(t *testing.T) {
		gw := newFakeGateway()
		notifier := &recordingNotifier{}
		list := newTestShoppingList(gw, notifier)
		require.NoError(t, list.Load(ctx))

		require.ErrorIs(t, list.Generate(ctx, "K"), errNoPlanSelected)
		assert.Empty(t, gw.drafts)
		assert.Len(t, notifier.errors, 1)
	})
}

func TestShoppingRepair(t *testing.T) {
	ctx := context.Background()
	gw := shoppingFixture()
	list := newTestShoppingList(gw, nil)
	require.NoError(t, list.Load(ctx))

	res, err := list.Repair(ctx, "BROKEN")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Removed)
	require.NotNil(t, res.Draft)
	assert.Equal(t, "BROKEN", list.Draft().OriginPlanID())
	assert.Equal(t, "BROKEN", list.SelectedPlanID())
	assert.Len(t, list.Candidates(), 2)

	again, err := list.Repair(ctx, "BROKEN")
	require.NoError(t, err)
	assert.Zero(t, again.Removed)
	assert.Len(t, gw.planWrites, 1, "a second repair performs no write")

	_, err = list.Repair(ctx, "MISSING")
	assert.Error(t, err)
}

func TestShoppingEditing(t *testing.T) {
	ctx := context.Background()
	gw := shoppingFixture()
	notifier := &recordingNotifier{}
	list := newTestShoppingList(gw, notifier)
	require.NoError(t, list.Load(ctx))

	tmpID := list.AddManual()
	assert.True(t, strings.HasPrefix(tmpID, TempIDPrefix))
	assert.True(t, list.UpdateItem(tmpID, func(it *api.ShoppingItem) {
		it.Name = "Napkins"
		it.Note = ptr("  ")
	}))

	require.True(t, list.Move(tmpID, reconcile.Up))
	assert.True(t, list.SetBought("I2", true))
	list.MarkAll(false)

	inputs, errs := list.ItemInputs()
	require.Empty(t, errs)
	require.Len(t, inputs, 3)

	assert.Equal(t, "I1", *inputs[0].ID)
	assert.Nil(t, inputs[1].ID, "temporary ids are sent as null")
	assert.Equal(t, "Napkins", inputs[1].Name)
	assert.Nil(t, inputs[1].Note)
	assert.True(t, inputs[1].Manual)
	assert.Equal(t, "I2", *inputs[2].ID)
	for i, in := range inputs {
		assert.Equal(t, i, in.SortOrder)
		assert.False(t, in.Bought)
	}

	require.NoError(t, list.Save(ctx))
	require.Len(t, gw.listUpdates, 1)
	for _, it := range list.Draft().Items {
		assert.False(t, strings.HasPrefix(it.ID, TempIDPrefix))
	}
	assert.Contains(t, notifier.successes, "Changes saved")

	assert.True(t, list.RemoveItem("I1"))
	assert.False(t, list.RemoveItem("I1"))
}

func TestShoppingLocalValidation(t *testing.T) {
	ctx := context.Background()
	gw := shoppingFixture()
	list := newTestShoppingList(gw, nil)
	require.NoError(t, list.Load(ctx))

	list.UpdateItem("I1", func(it *api.ShoppingItem) {
		it.Quantity = 0
		it.IngredientID = nil
		it.SuggestedPackages = ptr(2)
		it.Note = ptr(strings.Repeat("é", MaxNoteLength+1))
	})
	list.UpdateItem("I2", func(it *api.ShoppingItem) {
		it.Name = " "
		it.SuggestedPackages = ptr(0)
		it.PackageAmount = ptr(1.5)
		it.PackageUnit = ptr(api.Kilogram)
	})

	_, errs := list.ItemInputs()
	assert.NotEmpty(t, errs.For("items[0].quantity"))
	assert.NotEmpty(t, errs.For("items[0].ingredientId"))
	assert.NotEmpty(t, errs.For("items[0].packages"))
	assert.NotEmpty(t, errs.For("items[0].note"))
	assert.NotEmpty(t, errs.For("items[1].name"))
	assert.NotEmpty(t, errs.For("items[1].suggestedPackages"))

	require.Error(t, list.Save(ctx))
	assert.Empty(t, gw.listUpdates, "invalid drafts never reach the backend")
}

func TestShoppingSaveWithoutDraft(t *testing.T) {
	ctx := context.Background()
	list := newTestShoppingList(newFakeGateway(), nil)
	require.NoError(t, list.Load(ctx))

	list.AddManual()
	require.ErrorIs(t, list.Save(ctx), errNoDraft)
}

func TestShoppingOpenAndDiscard(t *testing.T) {
	ctx := context.Background()
	gw := shoppingFixture()
	notifier := &recordingNotifier{}
	list := newTestShoppingList(gw, notifier)
	require.NoError(t, list.Load(ctx))

	// A list from a plan that needs repair can still be opened explicitly.
	require.NoError(t, list.Open(ctx, "D2"))
	assert.Equal(t, "D2", list.Draft().ID)
	assert.Equal(t, "GOOD", list.SelectedPlanID())

	require.NoError(t, list.Discard(ctx))
	assert.Contains(t, notifier.successes, "List deleted")
	require.Len(t, gw.drafts, 1)
	require.NotNil(t, list.Draft())
	assert.Equal(t, "D1", list.Draft().ID)

	assert.Error(t, list.Open(ctx, "D2"))
}
