package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/squidly/internal/app"
	"github.com/Ramsey-B/squidly/pkg/models"
	"github.com/Ramsey-B/squidly/pkg/seed"
)

func newMenuCommand(opts *rootOptions) *cobra.Command {
	menu := &cobra.Command{
		Use:   "menu",
		Short: "Resolve and maintain menu records",
	}

	build := &cobra.Command{
		Use:   "build <product-id>",
		Short: "Print a product with its groups and nested products expanded",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("product-id", args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				composed, err := a.Resolver.BuildProductByID(ctx, id)
				if err != nil {
					return err
				}
				if composed == nil {
					return fmt.Errorf("product %d not found", id)
				}
				return printJSON(cmd, composed)
			})
		},
	}

	resolve := &cobra.Command{
		Use:   "resolve <product-group-id>",
		Short: "Print the items of a product group with override prices applied",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("product-group-id", args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				items, err := a.Resolver.ResolveItemsByID(ctx, id)
				if err != nil {
					return err
				}
				if items == nil {
					return fmt.Errorf("product group %d not found", id)
				}
				return printJSON(cmd, items)
			})
		},
	}

	var force bool
	del := &cobra.Command{
		Use:   "delete <ingredient|product|group_item|product_group|store_branch> <id>",
		Short: "Delete a record unless something still references it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("id", args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				deleted, err := deleteRecord(ctx, a, models.RecordType(args[0]), id, force)
				if err != nil {
					return err
				}
				return printJSON(cmd, map[string]any{"deleted": deleted})
			})
		},
	}
	del.Flags().BoolVar(&force, "force", false, "delete even when referenced, and remove the record for good")

	menu.AddCommand(build, resolve, del)
	return menu
}

func deleteRecord(ctx context.Context, a *app.App, recordType models.RecordType, id int64, force bool) (bool, error) {
	switch recordType {
	case models.RecordTypeIngredient:
		return a.Ingredients.Delete(ctx, id, force)
	case models.RecordTypeProduct:
		return a.Products.Delete(ctx, id, force)
	case models.RecordTypeGroupItem:
		return a.GroupItems.Delete(ctx, id, force)
	case models.RecordTypeProductGroup:
		return a.ProductGroups.Delete(ctx, id, force)
	case models.RecordTypeStoreBranch:
		return a.Branches.Delete(ctx, id, force)
	default:
		return false, fmt.Errorf("unknown record type %q", recordType)
	}
}

func newSeedCommand(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a YAML menu fixture",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fixture, err := seed.ReadFile(file)
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				result, err := a.Seeder.Load(ctx, fixture)
				if err != nil {
					return err
				}
				return printJSON(cmd, result)
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "menu.yaml", "fixture to load")
	return cmd
}

func newGraphCommand(opts *rootOptions) *cobra.Command {
	graph := &cobra.Command{
		Use:   "graph",
		Short: "Maintain the graph database projection",
	}

	graph.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Rebuild the menu projection and reference edges in the graph database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				if a.Projection == nil {
					return fmt.Errorf("graph sync needs GRAPH_DB_HOST")
				}
				result, err := a.Projection.Sync(ctx, a.Store)
				if err != nil {
					return err
				}
				return printJSON(cmd, result)
			})
		},
	})
	return graph
}
