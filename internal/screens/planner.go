package screens

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"meal-shell/internal/api"
	"meal-shell/internal/reconcile"

	"golang.org/x/sync/errgroup"
)

// PlannerGateway is what the planner needs from the backend.
type PlannerGateway interface {
	ListRecipes(ctx context.Context) ([]api.Recipe, error)
	ListPlans(ctx context.Context) ([]api.MealPlan, error)
	CreatePlan(ctx context.Context, payload api.PlanRequest) (*api.MealPlan, error)
	UpdatePlan(ctx context.Context, id string, payload api.PlanRequest) (*api.MealPlan, error)
	GetPlan(ctx context.Context, id string) (*api.MealPlan, error)
	DeletePlan(ctx context.Context, id string) error
}

var errNoPlan = errors.New("there is no saved plan for this period")

// Planner is the plan grid screen for one (start date, period) window.
type Planner struct {
	gw  PlannerGateway
	fb  *Feedback
	now func() time.Time

	period api.Period
	start  api.Date

	recipes   []api.Recipe
	recipeSet reconcile.RecipeSet
	plans     []api.MealPlan

	planID  string
	slots   reconcile.SlotMap
	dropped int
}

// NewPlanner creates a planner showing the current week.
func NewPlanner(gw PlannerGateway, fb *Feedback) *Planner {
	p := &Planner{
		gw:        gw,
		fb:        fb,
		now:       time.Now,
		period:    api.Week,
		recipeSet: reconcile.RecipeSet{},
		slots:     reconcile.SlotMap{},
	}
	p.start = MondayOf(p.now())
	return p
}

// SetClock replaces the time source and moves the window to its current week.
func (p *Planner) SetClock(now func() time.Time) {
	p.now = now
	p.start = MondayOf(now())
	p.reselect()
}

// MondayOf returns the Monday of t's week.
func MondayOf(t time.Time) api.Date {
	offset := (int(t.Weekday()) + 6) % 7
	return api.DateOf(t.AddDate(0, 0, -offset))
}

// Load fetches recipes and plans in parallel and reconciles the window.
func (p *Planner) Load(ctx context.Context) error {
	var (
		recipes []api.Recipe
		plans   []api.MealPlan
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		recipes, err = p.gw.ListRecipes(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		plans, err = p.gw.ListPlans(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return p.fb.Fail(ctx, ScreenPlanner, err)
	}

	p.recipes = recipes
	p.recipeSet = reconcile.NewRecipeSet(recipes)
	p.plans = plans
	p.reselect()
	p.reportDropped()
	return nil
}

// reselect derives the editable slot map for the current window.
func (p *Planner) reselect() {
	plan := reconcile.SelectPlan(p.plans, p.start, p.period)
	p.planID = ""
	if plan != nil {
		p.planID = plan.ID
	}
	p.slots, p.dropped = reconcile.LoadSlots(plan, p.recipeSet)
}

// reportDropped warns about slots removed from the plan in the window.
// Only loads and opens report; navigation does not.
func (p *Planner) reportDropped() {
	if p.dropped > 0 {
		p.fb.Warn(fmt.Sprintf("%d planned meal(s) used deleted recipes and were removed. Save the plan to keep the cleanup.", p.dropped))
	}
}

// Period returns the current period.
func (p *Planner) Period() api.Period { return p.period }

// Start returns the first day of the window.
func (p *Planner) Start() api.Date { return p.start }

// PlanID returns the id of the plan being edited, or "" for a new plan.
func (p *Planner) PlanID() string { return p.planID }

// Dropped returns how many slots the last reconciliation removed.
func (p *Planner) Dropped() int { return p.dropped }

// Recipes returns the recipes a slot can be assigned.
func (p *Planner) Recipes() []api.Recipe { return slices.Clone(p.recipes) }

// Days lists the days of the window.
func (p *Planner) Days() []api.Date {
	return reconcile.DaysOf(p.start, p.period)
}

// SetPeriod switches between week and fortnight, keeping the start date.
func (p *Planner) SetPeriod(period api.Period) error {
	if !period.Valid() {
		return FieldError{Field: "period", Message: fmt.Sprintf("unknown period %q", period)}
	}
	p.period = period
	p.reselect()
	return nil
}

// GoTo moves the window to start.
func (p *Planner) GoTo(start api.Date) {
	p.start = start
	p.reselect()
}

// Previous moves the window back by one period.
func (p *Planner) Previous() { p.GoTo(p.start.AddDays(-p.period.Days())) }

// Next moves the window forward by one period.
func (p *Planner) Next() { p.GoTo(p.start.AddDays(p.period.Days())) }

// Today moves the window to the Monday of the current week.
func (p *Planner) Today() { p.GoTo(MondayOf(p.now())) }

// Slot returns the recipe assigned to (date, meal), or ok=false.
func (p *Planner) Slot(date api.Date, meal api.MealType) (api.Recipe, bool) {
	id := p.slots.Get(date, meal)
	if id == "" {
		return api.Recipe{}, false
	}
	i := slices.IndexFunc(p.recipes, func(r api.Recipe) bool { return r.ID == id })
	if i < 0 {
		return api.Recipe{ID: id}, true
	}
	return p.recipes[i], true
}

// SetSlot assigns recipeID to (date, meal). An empty recipeID clears the slot.
func (p *Planner) SetSlot(date api.Date, meal api.MealType, recipeID string) error {
	if !reconcile.InRange(date, p.start, p.period) {
		return FieldError{Field: "date", Message: fmt.Sprintf("%s is outside %s..%s", date, p.start, p.start.AddDays(p.period.Days()-1))}
	}
	if !meal.Valid() {
		return FieldError{Field: "mealType", Message: fmt.Sprintf("unknown meal type %q", meal)}
	}
	if recipeID != "" && !p.recipeSet.Has(recipeID) {
		return FieldError{Field: "recipeId", Message: fmt.Sprintf("unknown recipe %q", recipeID)}
	}
	p.slots.Set(date, meal, recipeID)
	return nil
}

// Request serializes the window into a plan body.
func (p *Planner) Request() api.PlanRequest {
	return api.PlanRequest{
		StartDate: p.start,
		Period:    p.period,
		Slots:     p.slots.Slots(p.start, p.period, p.recipeSet),
	}
}

// Save creates or updates the plan for the window, then reloads.
func (p *Planner) Save(ctx context.Context) error {
	req := p.Request()

	var err error
	if p.planID != "" {
		_, err = p.gw.UpdatePlan(ctx, p.planID, req)
	} else {
		_, err = p.gw.CreatePlan(ctx, req)
	}
	if err != nil {
		return p.fb.Fail(ctx, ScreenPlanner, err)
	}

	p.fb.Succeed("Plan saved")
	return p.Load(ctx)
}

// Open fetches plan id together with recipes and plans, then moves the
// window to the plan's start date and period. It does not need a prior Load.
func (p *Planner) Open(ctx context.Context, id string) error {
	var (
		recipes []api.Recipe
		plans   []api.MealPlan
		plan    *api.MealPlan
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		recipes, err = p.gw.ListRecipes(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		plans, err = p.gw.ListPlans(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		plan, err = p.gw.GetPlan(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return p.fb.Fail(ctx, ScreenPlanner, err)
	}

	p.recipes = recipes
	p.recipeSet = reconcile.NewRecipeSet(recipes)
	if i := slices.IndexFunc(plans, func(mp api.MealPlan) bool { return mp.ID == plan.ID }); i >= 0 {
		plans[i] = *plan
	} else {
		plans = append(plans, *plan)
	}
	p.plans = plans
	if plan.Period.Valid() {
		p.period = plan.Period
	}
	p.GoTo(plan.StartDate)
	p.reportDropped()
	return nil
}

// Delete removes the plan shown in the window, then reloads.
func (p *Planner) Delete(ctx context.Context) error {
	if p.planID == "" {
		return p.fb.Fail(ctx, ScreenPlanner, errNoPlan)
	}
	if err := p.gw.DeletePlan(ctx, p.planID); err != nil {
		return p.fb.Fail(ctx, ScreenPlanner, err)
	}
	p.fb.Succeed("Plan deleted")
	return p.Load(ctx)
}
