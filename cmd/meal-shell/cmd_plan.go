package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"meal-shell/internal/api"
	"meal-shell/internal/screens"

	"github.com/spf13/cobra"
)

// windowFlags selects the planner window shared by the plan subcommands.
type windowFlags struct {
	start  string
	period string
}

func (f *windowFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "first day of the window, YYYY-MM-DD (default: Monday of this week)")
	cmd.Flags().StringVar(&f.period, "period", string(api.Week), "WEEK or FORTNIGHT")
}

// apply moves p to the window named by the flags. fallback is used when
// --start is not given; an empty fallback keeps the planner's current week.
func (f *windowFlags) apply(p *screens.Planner, fallback api.Date) error {
	if err := p.SetPeriod(api.Period(strings.ToUpper(f.period))); err != nil {
		return err
	}
	start := fallback
	if f.start != "" {
		d, err := api.ParseDate(f.start)
		if err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
		start = d
	}
	if start != "" {
		p.GoTo(start)
	}
	return nil
}

func newPlanCmd(sh *shell) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show and edit meal plans",
	}
	cmd.AddCommand(newPlanShowCmd(sh), newPlanSetCmd(sh), newPlanDeleteCmd(sh), newPlanRepairCmd(sh))
	return cmd
}

// openPlanner opens the plan id, or loads the window named by the flags
// when id is empty. The window is set before loading so load-time notices
// describe the plan that is shown.
func (sh *shell) openPlanner(ctx context.Context, window *windowFlags, id string) (*screens.Planner, error) {
	if err := sh.requireSession(); err != nil {
		return nil, err
	}
	planner, err := sh.app.Planner()
	if err != nil {
		return nil, err
	}
	if id != "" {
		if err := planner.Open(ctx, id); err != nil {
			return nil, reported(err)
		}
		return planner, nil
	}
	if err := window.apply(planner, ""); err != nil {
		return nil, err
	}
	if err := planner.Load(ctx); err != nil {
		return nil, reported(err)
	}
	return planner, nil
}

func newPlanShowCmd(sh *shell) *cobra.Command {
	var (
		window windowFlags
		id     string
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the meal plan for a week or fortnight",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			planner, err := sh.openPlanner(cmd.Context(), &window, id)
			if err != nil {
				return err
			}
			printPlan(sh, planner)
			return nil
		},
	}
	window.register(cmd)
	cmd.Flags().StringVar(&id, "id", "", "show this plan instead of a window")
	return cmd
}

func newPlanDeleteCmd(sh *shell) *cobra.Command {
	var window windowFlags
	cmd := &cobra.Command{
		Use:   "delete [PLAN_ID]",
		Short: "Delete a plan, by id or by the window it covers",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			planner, err := sh.openPlanner(cmd.Context(), &window, id)
			if err != nil {
				return err
			}
			return reported(planner.Delete(cmd.Context()))
		},
	}
	window.register(cmd)
	return cmd
}

func newPlanSetCmd(sh *shell) *cobra.Command {
	var window windowFlags
	cmd := &cobra.Command{
		Use:   "set DATE MEAL [RECIPE_ID]",
		Short: "Assign a recipe to a meal, or clear it when RECIPE_ID is omitted",
		Example: `  meal-shell plan set 2024-01-03 DINNER R42
  meal-shell plan set 2024-01-03 DINNER`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sh.requireSession(); err != nil {
				return err
			}
			date, err := api.ParseDate(args[0])
			if err != nil {
				return fmt.Errorf("invalid date: %w", err)
			}
			meal := api.MealType(strings.ToUpper(args[1]))
			recipeID := ""
			if len(args) == 3 {
				recipeID = strings.TrimSpace(args[2])
			}

			planner, err := sh.app.Planner()
			if err != nil {
				return err
			}
			t, err := date.Time()
			if err != nil {
				return err
			}
			if err := window.apply(planner, screens.MondayOf(t)); err != nil {
				return err
			}
			if err := planner.Load(cmd.Context()); err != nil {
				return reported(err)
			}
			if err := planner.SetSlot(date, meal, recipeID); err != nil {
				return err
			}
			if err := planner.Save(cmd.Context()); err != nil {
				return reported(err)
			}
			printPlan(sh, planner)
			return nil
		},
	}
	window.register(cmd)
	return cmd
}

func newPlanRepairCmd(sh *shell) *cobra.Command {
	return &cobra.Command{
		Use:   "repair PLAN_ID",
		Short: "Drop deleted recipes from a plan and regenerate its shopping list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sh.requireSession(); err != nil {
				return err
			}
			list, err := sh.app.ShoppingList()
			if err != nil {
				return err
			}
			if err := list.Load(cmd.Context()); err != nil {
				return reported(err)
			}
			res, err := list.Repair(cmd.Context(), args[0])
			if err != nil {
				return reported(err)
			}
			if res.Draft != nil {
				fmt.Fprintf(sh.out, "Shopping list %s now has %d item(s).\n", res.Draft.ID, len(res.Draft.Items))
			}
			return nil
		},
	}
}

func printPlan(sh *shell, p *screens.Planner) {
	days := p.Days()
	last := days[len(days)-1]
	label := "new plan"
	if p.PlanID() != "" {
		label = "plan " + p.PlanID()
	}
	fmt.Fprintf(sh.out, "%s %s..%s (%s)\n", p.Period(), p.Start(), last, label)

	w := tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', 0)
	header := []string{"DAY"}
	for _, m := range api.MealTypes {
		header = append(header, string(m))
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, d := range days {
		row := []string{dayLabel(d)}
		for _, m := range api.MealTypes {
			cell := "-"
			if r, ok := p.Slot(d, m); ok {
				cell = r.Name
				if cell == "" {
					cell = r.ID
				}
			}
			row = append(row, cell)
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()

	if n := p.Dropped(); n > 0 {
		fmt.Fprintf(sh.out, "%d slot(s) referenced deleted recipes and are not shown.\n", n)
	}
}

func dayLabel(d api.Date) string {
	t, err := d.Time()
	if err != nil {
		return string(d)
	}
	return fmt.Sprintf("%s %s", t.Weekday().String()[:3], t.Format(time.DateOnly))
}
