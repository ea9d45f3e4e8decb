package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/squidly/internal/app"
	"github.com/Ramsey-B/squidly/pkg/models"
)

func newBranchCommand(opts *rootOptions) *cobra.Command {
	branch := &cobra.Command{
		Use:   "branch",
		Short: "Manage what a store branch sells and when it is open",
	}

	// changed wraps a branch operation reporting whether the branch changed.
	changed := func(use, short string, names []string, run func(ctx context.Context, a *app.App, ids []int64, rest []string) (bool, error), extra int) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.ExactArgs(len(names) + extra),
			RunE: func(cmd *cobra.Command, args []string) error {
				ids, err := parseIDs(names, args)
				if err != nil {
					return err
				}
				return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
					ok, err := run(ctx, a, ids, args[len(names):])
					if err != nil {
						return err
					}
					return printJSON(cmd, map[string]any{"changed": ok})
				})
			},
		}
	}

	var inactive bool
	addProduct := changed("add-product <branch-id> <product-id>", "Sell a product and everything nested in its groups",
		[]string{"branch-id", "product-id"},
		func(ctx context.Context, a *app.App, ids []int64, _ []string) (bool, error) {
			return a.Availability.AddProduct(ctx, ids[0], ids[1], !inactive)
		}, 0)
	addProduct.Flags().BoolVar(&inactive, "inactive", false, "list the items as unavailable")

	var inactiveIngredient bool
	addIngredient := changed("add-ingredient <branch-id> <ingredient-id>", "Sell an ingredient",
		[]string{"branch-id", "ingredient-id"},
		func(ctx context.Context, a *app.App, ids []int64, _ []string) (bool, error) {
			return a.Availability.AddIngredient(ctx, ids[0], ids[1], !inactiveIngredient)
		}, 0)
	addIngredient.Flags().BoolVar(&inactiveIngredient, "inactive", false, "list the ingredient as unavailable")

	removeProduct := changed("remove-product <branch-id> <product-id>", "Stop selling a product. Nested items stay listed",
		[]string{"branch-id", "product-id"},
		func(ctx context.Context, a *app.App, ids []int64, _ []string) (bool, error) {
			return a.Availability.RemoveProduct(ctx, ids[0], ids[1])
		}, 0)

	removeIngredient := changed("remove-ingredient <branch-id> <ingredient-id>", "Stop selling an ingredient",
		[]string{"branch-id", "ingredient-id"},
		func(ctx context.Context, a *app.App, ids []int64, _ []string) (bool, error) {
			return a.Availability.RemoveIngredient(ctx, ids[0], ids[1])
		}, 0)

	setAvailability := changed("set-availability <branch-id> <product|ingredient> <id> <true|false>", "Flag an item available or not",
		[]string{"branch-id"},
		func(ctx context.Context, a *app.App, ids []int64, rest []string) (bool, error) {
			kind, err := models.ParseItemKind(rest[0])
			if err != nil {
				return false, err
			}
			itemID, err := parseID("id", rest[1])
			if err != nil {
				return false, err
			}
			available, err := strconv.ParseBool(rest[2])
			if err != nil {
				return false, fmt.Errorf("availability must be true or false, got %q", rest[2])
			}
			if kind == models.ItemKindProduct {
				return a.Availability.SetProductAvailability(ctx, ids[0], itemID, available)
			}
			return a.Availability.SetIngredientAvailability(ctx, ids[0], itemID, available)
		}, 3)

	addHours := changed("add-hours <branch-id> <weekday> <HH:MM-HH:MM>", "Add an opening slot",
		[]string{"branch-id"},
		func(ctx context.Context, a *app.App, ids []int64, rest []string) (bool, error) {
			return a.Availability.AddActivityTime(ctx, ids[0], rest[0], rest[1])
		}, 2)

	removeHours := changed("remove-hours <branch-id> <weekday> <HH:MM-HH:MM>", "Remove an opening slot",
		[]string{"branch-id"},
		func(ctx context.Context, a *app.App, ids []int64, rest []string) (bool, error) {
			return a.Availability.RemoveActivityTime(ctx, ids[0], rest[0], rest[1])
		}, 2)

	var at string
	isOpen := &cobra.Command{
		Use:   "is-open <branch-id>",
		Short: "Report whether the branch is open now or at --at",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("branch-id", args[0])
			if err != nil {
				return err
			}
			when := time.Now()
			if at != "" {
				if when, err = time.Parse(time.RFC3339, at); err != nil {
					return fmt.Errorf("--at must be RFC3339: %w", err)
				}
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				open, err := a.Availability.IsOpenAt(ctx, id, when)
				if err != nil {
					return err
				}
				return printJSON(cmd, map[string]any{"open": open, "at": when})
			})
		},
	}
	isOpen.Flags().StringVar(&at, "at", "", "time to check, RFC3339 in the branch's local offset")

	branch.AddCommand(addProduct, removeProduct, addIngredient, removeIngredient, setAvailability, addHours, removeHours, isOpen)
	return branch
}
