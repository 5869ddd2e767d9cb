package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"meal-shell/internal/api"
	"meal-shell/internal/screens"

	"github.com/spf13/cobra"
)

func newRecipesCmd(sh *shell) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "recipes",
		Short: "List recipes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := sh.requireSession(); err != nil {
				return err
			}
			catalog, err := sh.app.RecipeCatalog()
			if err != nil {
				return err
			}
			if err := catalog.Load(cmd.Context()); err != nil {
				return reported(err)
			}
			catalog.SetSearch(search)
			printRecipes(sh, catalog.Visible())
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "only show recipes whose name contains this text")

	cmd.AddCommand(newRecipeDeleteCmd(sh), newRecipeSaveCmd(sh))
	return cmd
}

func newRecipeDeleteCmd(sh *shell) *cobra.Command {
	return &cobra.Command{
		Use:   "delete RECIPE_ID",
		Short: "Delete a recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sh.requireSession(); err != nil {
				return err
			}
			catalog, err := sh.app.RecipeCatalog()
			if err != nil {
				return err
			}
			return reported(catalog.Delete(cmd.Context(), args[0]))
		},
	}
}

// newRecipeSaveCmd creates a recipe, or replaces one with --id.
func newRecipeSaveCmd(sh *shell) *cobra.Command {
	var (
		id          string
		name        string
		mealType    string
		ingredients []string
		tags        string
		preparation string
		notes       string
	)
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Create or update a recipe",
		Example: `  meal-shell recipes save --name "Lentil soup" --type DINNER \
    --ingredient LENTILS:250:GRAM --ingredient ONION:1:PIECE --tags "soup, vegan"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := sh.requireSession(); err != nil {
				return err
			}

			var initial *api.Recipe
			if id != "" {
				catalog, err := sh.app.RecipeCatalog()
				if err != nil {
					return err
				}
				if initial, err = catalog.Open(cmd.Context(), id); err != nil {
					return reported(err)
				}
			}

			form, err := sh.app.RecipeForm(initial)
			if err != nil {
				return err
			}
			applyRecipeFlags(cmd, form, name, mealType, tags, preparation, notes)
			if cmd.Flags().Changed("ingredient") {
				form.Lines = nil
				for _, spec := range ingredients {
					line, err := parseIngredientLine(spec)
					if err != nil {
						return err
					}
					form.Lines = append(form.Lines, line)
				}
			}

			saved, err := form.Save(cmd.Context())
			if err != nil {
				return reported(err)
			}
			fmt.Fprintf(sh.out, "%s\t%s\n", saved.ID, saved.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "recipe to update")
	cmd.Flags().StringVar(&name, "name", "", "recipe name")
	cmd.Flags().StringVar(&mealType, "type", string(api.Lunch), "BREAKFAST, LUNCH or DINNER")
	cmd.Flags().StringArrayVar(&ingredients, "ingredient", nil, "INGREDIENT_ID:QUANTITY:UNIT, repeatable")
	cmd.Flags().StringVar(&tags, "tags", "", "comma-separated tags")
	cmd.Flags().StringVar(&preparation, "preparation", "", "preparation steps")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	return cmd
}

func applyRecipeFlags(cmd *cobra.Command, form *screens.RecipeForm, name, mealType, tags, preparation, notes string) {
	flags := cmd.Flags()
	if flags.Changed("name") || !form.Editing() {
		form.Name = name
	}
	if flags.Changed("type") || !form.Editing() {
		form.Type = api.MealType(strings.ToUpper(mealType))
	}
	if flags.Changed("tags") {
		form.Tags = tags
	}
	if flags.Changed("preparation") {
		form.Preparation = preparation
	}
	if flags.Changed("notes") {
		form.Notes = notes
	}
}

func parseIngredientLine(spec string) (screens.IngredientLine, error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 3 {
		return screens.IngredientLine{}, fmt.Errorf("invalid --ingredient %q: expected INGREDIENT_ID:QUANTITY:UNIT", spec)
	}
	qty, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return screens.IngredientLine{}, fmt.Errorf("invalid quantity in --ingredient %q: %w", spec, err)
	}
	return screens.IngredientLine{
		IngredientID: strings.TrimSpace(parts[0]),
		Quantity:     qty,
		Unit:         api.Unit(strings.ToUpper(strings.TrimSpace(parts[2]))),
	}, nil
}

func printRecipes(sh *shell, recipes []api.Recipe) {
	if len(recipes) == 0 {
		fmt.Fprintln(sh.out, "No recipes yet.")
		return
	}
	w := tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tINGREDIENTS\tUSES\tTAGS")
	for _, r := range recipes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n", r.ID, r.Name, r.Type, len(r.Ingredients), r.UsageCount, strings.Join(r.Tags, ", "))
	}
	w.Flush()
}

func newIngredientsCmd(sh *shell) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingredients",
		Short: "Search and extend the ingredient catalog",
	}

	search := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search ingredients by id, name or alias",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sh.requireSession(); err != nil {
				return err
			}
			form, err := sh.app.RecipeForm(nil)
			if err != nil {
				return err
			}
			if err := form.SearchIngredient(cmd.Context(), 0, args[0]); err != nil {
				return reported(err)
			}
			options := form.Lines[0].Options
			if len(options) == 0 {
				fmt.Fprintf(sh.out, "No ingredients match %q (queries need at least %d characters).\n", args[0], screens.MinIngredientQuery)
				return nil
			}
			w := tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tUNITS")
			for _, ing := range options {
				units := "any"
				if len(ing.AllowedUnits) > 0 {
					names := make([]string, 0, len(ing.AllowedUnits))
					for _, u := range ing.AllowedUnits {
						names = append(names, string(u))
					}
					units = strings.Join(names, ",")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", ing.ID, ing.Name, units)
			}
			return w.Flush()
		},
	}

	var measurement string
	create := &cobra.Command{
		Use:   "create NAME",
		Short: "Add a custom ingredient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sh.requireSession(); err != nil {
				return err
			}
			ing, err := sh.app.CreateCustomIngredient(cmd.Context(), args[0], api.MeasurementType(strings.ToUpper(measurement)))
			if err != nil {
				return reported(err)
			}
			fmt.Fprintf(sh.out, "%s\t%s\n", ing.ID, ing.Name)
			return nil
		},
	}
	create.Flags().StringVar(&measurement, "measurement", string(api.Weight), "WEIGHT, VOLUME or UNIT")

	cmd.AddCommand(search, create)
	return cmd
}
