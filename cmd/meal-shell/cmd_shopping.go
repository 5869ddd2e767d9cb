package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"meal-shell/internal/api"
	"meal-shell/internal/reconcile"
	"meal-shell/internal/screens"

	"github.com/spf13/cobra"
)

func newShoppingCmd(sh *shell) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shopping",
		Short: "Generate and edit shopping lists",
	}

	cmd.AddCommand(
		newShoppingShowCmd(sh),
		newShoppingGenerateCmd(sh),
		newShoppingDeleteCmd(sh),
		newShoppingCheckCmd(sh, "check", "Mark items as bought", true),
		newShoppingCheckCmd(sh, "uncheck", "Mark items as not bought", false),
		newShoppingCheckAllCmd(sh),
		newShoppingAddCmd(sh),
		newShoppingRemoveCmd(sh),
		newShoppingMoveCmd(sh),
	)
	return cmd
}

func (sh *shell) loadShoppingList(ctx context.Context) (*screens.ShoppingList, error) {
	if err := sh.requireSession(); err != nil {
		return nil, err
	}
	list, err := sh.app.ShoppingList()
	if err != nil {
		return nil, err
	}
	if err := list.Load(ctx); err != nil {
		return nil, reported(err)
	}
	return list, nil
}

// editShoppingList loads the list, applies edit and saves the draft.
func (sh *shell) editShoppingList(ctx context.Context, edit func(*screens.ShoppingList) error) error {
	list, err := sh.loadShoppingList(ctx)
	if err != nil {
		return err
	}
	if err := edit(list); err != nil {
		return err
	}
	if err := list.Save(ctx); err != nil {
		return reported(err)
	}
	printShoppingList(sh, list)
	return nil
}

func newShoppingShowCmd(sh *shell) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the latest shopping list, or the one with --id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := sh.loadShoppingList(cmd.Context())
			if err != nil {
				return err
			}
			if id != "" {
				if err := list.Open(cmd.Context(), id); err != nil {
					return reported(err)
				}
			}
			printShoppingList(sh, list)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "shopping list to show")
	return cmd
}

func newShoppingDeleteCmd(sh *shell) *cobra.Command {
	return &cobra.Command{
		Use:   "delete LIST_ID",
		Short: "Delete a shopping list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := sh.loadShoppingList(cmd.Context())
			if err != nil {
				return err
			}
			if err := list.Open(cmd.Context(), args[0]); err != nil {
				return reported(err)
			}
			return reported(list.Discard(cmd.Context()))
		},
	}
}

func newShoppingGenerateCmd(sh *shell) *cobra.Command {
	var planID, key string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a shopping list from a plan",
		Long: `Generates a new shopping list from --plan, or from the default plan.
Re-running with the same --key returns the list created by the first run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := sh.loadShoppingList(cmd.Context())
			if err != nil {
				return err
			}
			if planID != "" {
				if err := list.SelectPlan(planID); err != nil {
					return err
				}
			}
			if err := list.Generate(cmd.Context(), key); err != nil {
				return reported(err)
			}
			printShoppingList(sh, list)
			return nil
		},
	}
	cmd.Flags().StringVar(&planID, "plan", "", "plan to generate from")
	cmd.Flags().StringVar(&key, "key", "", "idempotency key for safe retries")
	return cmd
}

func newShoppingCheckCmd(sh *shell, use, short string, bought bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ITEM_ID...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sh.editShoppingList(cmd.Context(), func(list *screens.ShoppingList) error {
				for _, id := range args {
					if !list.SetBought(id, bought) {
						return fmt.Errorf("unknown item %q", id)
					}
				}
				return nil
			})
		},
	}
}

func newShoppingCheckAllCmd(sh *shell) *cobra.Command {
	var unbought bool
	cmd := &cobra.Command{
		Use:   "check-all",
		Short: "Mark every item as bought, or as not bought with --unbought",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return sh.editShoppingList(cmd.Context(), func(list *screens.ShoppingList) error {
				list.MarkAll(!unbought)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&unbought, "unbought", false, "clear every bought flag instead")
	return cmd
}

func newShoppingAddCmd(sh *shell) *cobra.Command {
	var (
		quantity float64
		unit     string
		note     string
	)
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add an item by hand",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sh.editShoppingList(cmd.Context(), func(list *screens.ShoppingList) error {
				id := list.AddManual()
				list.UpdateItem(id, func(it *api.ShoppingItem) {
					it.Name = args[0]
					it.Quantity = quantity
					it.Unit = api.Unit(strings.ToUpper(unit))
					if note != "" {
						n := note
						it.Note = &n
					}
				})
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&quantity, "quantity", 1, "amount to buy")
	cmd.Flags().StringVar(&unit, "unit", string(api.Piece), "unit of the amount")
	cmd.Flags().StringVar(&note, "note", "", "free-form note, up to "+strconv.Itoa(screens.MaxNoteLength)+" characters")
	return cmd
}

func newShoppingRemoveCmd(sh *shell) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ITEM_ID...",
		Short: "Remove items from the list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sh.editShoppingList(cmd.Context(), func(list *screens.ShoppingList) error {
				for _, id := range args {
					if !list.RemoveItem(id) {
						return fmt.Errorf("unknown item %q", id)
					}
				}
				return nil
			})
		},
	}
}

func newShoppingMoveCmd(sh *shell) *cobra.Command {
	return &cobra.Command{
		Use:   "move ITEM_ID up|down",
		Short: "Move an item one position up or down",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var dir reconcile.Direction
			switch strings.ToLower(args[1]) {
			case "up":
				dir = reconcile.Up
			case "down":
				dir = reconcile.Down
			default:
				return fmt.Errorf("direction must be up or down, got %q", args[1])
			}
			return sh.editShoppingList(cmd.Context(), func(list *screens.ShoppingList) error {
				if !list.Move(args[0], dir) {
					return fmt.Errorf("item %q cannot move %s", args[0], args[1])
				}
				return nil
			})
		},
	}
}

func printShoppingList(sh *shell, list *screens.ShoppingList) {
	if candidates := list.Candidates(); len(candidates) > 0 {
		fmt.Fprintln(sh.out, "Plans:")
		for _, p := range candidates {
			marker := " "
			if p.ID == list.SelectedPlanID() {
				marker = "*"
			}
			fmt.Fprintf(sh.out, " %s %s  %s %s\n", marker, p.ID, p.Period, p.StartDate)
		}
	}
	for _, p := range list.NeedsRepair() {
		fmt.Fprintf(sh.out, "Plan %s uses deleted recipes; run `meal-shell plan repair %s`.\n", p.ID, p.ID)
	}

	draft := list.Draft()
	if draft == nil {
		fmt.Fprintln(sh.out, "No shopping list yet. Run `meal-shell shopping generate`.")
		return
	}
	fmt.Fprintf(sh.out, "Shopping list %s\n", draft.ID)

	unbought, bought := list.Items()
	w := tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\tID\tITEM\tQUANTITY\tPACKAGES\tNOTE")
	for _, it := range unbought {
		printItem(w, "[ ]", it)
	}
	for _, it := range bought {
		printItem(w, "[x]", it)
	}
	w.Flush()
}

func printItem(w *tabwriter.Writer, box string, it api.ShoppingItem) {
	packages := ""
	if it.SuggestedPackages != nil && it.PackageAmount != nil && it.PackageUnit != nil {
		packages = fmt.Sprintf("%d x %s %s", *it.SuggestedPackages, formatAmount(*it.PackageAmount), *it.PackageUnit)
	}
	note := ""
	if it.Note != nil {
		note = *it.Note
	}
	fmt.Fprintf(w, "%s\t%s\t%s\t%s %s\t%s\t%s\n", box, it.ID, it.Name, formatAmount(it.Quantity), it.Unit, packages, note)
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
