package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakif/ledger/internal/apperror"
	"github.com/sakif/ledger/internal/model"
	"github.com/sakif/ledger/internal/service"
)

func (a *app) initCommand() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the owner, its clocks and the default categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.owner()
			if err != nil {
				return err
			}
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			created, err := a.ledger.InitOwner(cmd.Context(), owner, name)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(a.out, "initialized ledger for %s\n", owner)
			} else {
				fmt.Fprintf(a.out, "ledger for %s already exists\n", owner)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name (defaults to the owner)")
	return cmd
}

func (a *app) categoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage the categories of a section",
	}

	add := &cobra.Command{
		Use:   "add SECTION NAME",
		Short: "Add a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, section, err := a.sectionScope(cmd, args[0])
			if err != nil {
				return err
			}
			res, err := a.ledger.CreateCategory(cmd.Context(), owner, section, args[1])
			if err != nil {
				return err
			}
			switch {
			case res.Status == service.CategoryAlreadyExists && res.OriginalName:
				fmt.Fprintf(a.out, "category %q already exists in %s: %q is its original name\n",
					res.Category.Name, section, strings.TrimSpace(args[1]))
			case res.Status == service.CategoryAlreadyExists:
				fmt.Fprintf(a.out, "category %q already exists in %s\n", res.Category.Name, section)
			default:
				fmt.Fprintf(a.out, "added category %q to %s\n", res.Category.Name, section)
			}
			return nil
		},
	}

	rename := &cobra.Command{
		Use:   "rename SECTION CATEGORY NEW_NAME",
		Short: "Rename a category; items keep the name they were saved with",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, section, err := a.sectionScope(cmd, args[0])
			if err != nil {
				return err
			}
			c, err := a.ledger.RenameCategory(cmd.Context(), owner, section, args[1], args[2])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "renamed category %s to %q\n", c.NameKey, c.Name)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list SECTION",
		Short: "List a section's categories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, section, err := a.sectionScope(cmd, args[0])
			if err != nil {
				return err
			}
			categories, err := a.ledger.ListCategories(cmd.Context(), owner, section)
			if err != nil {
				return err
			}
			return a.print(a.render.Categories(section, categories))
		},
	}

	cmd.AddCommand(add, rename, list)
	return cmd
}

func (a *app) itemCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Add, change and remove items",
	}

	var addCategory string
	add := &cobra.Command{
		Use:   "add SECTION NAME AMOUNT",
		Short: "Add an item",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, section, err := a.sectionScope(cmd, args[0])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			it, err := a.ledger.CreateItem(cmd.Context(), owner, section, args[1], amount, addCategory)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "added %s (%s) at tick %d\n", it.Name, a.render.Format(it.Amount), it.CreatedAt)
			return nil
		},
	}
	add.Flags().StringVarP(&addCategory, "category", "c", "", "category name or key (default Uncategorized)")

	var newName, newAmount, newCategory string
	update := &cobra.Command{
		Use:   "update SECTION NAME",
		Short: "Replace an item with a new version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, section, err := a.sectionScope(cmd, args[0])
			if err != nil {
				return err
			}
			var changes service.ItemChanges
			if cmd.Flags().Changed("name") {
				changes.Name = &newName
			}
			if cmd.Flags().Changed("amount") {
				amount, err := parseAmount(newAmount)
				if err != nil {
					return err
				}
				changes.Amount = &amount
			}
			if cmd.Flags().Changed("category") {
				changes.CategoryKey = &newCategory
			}
			if changes.Name == nil && changes.Amount == nil && changes.CategoryKey == nil {
				return apperror.ValidationFailed("update", "nothing to change: pass --name, --amount or --category")
			}

			current, err := a.ledger.OpenItem(cmd.Context(), owner, section, args[1])
			if err != nil {
				return err
			}
			next, err := a.ledger.UpdateItem(cmd.Context(), *current, changes)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "updated %s (%s) at tick %d\n", next.Name, a.render.Format(next.Amount), next.CreatedAt)
			return nil
		},
	}
	update.Flags().StringVar(&newName, "name", "", "new name")
	update.Flags().StringVar(&newAmount, "amount", "", "new amount")
	update.Flags().StringVarP(&newCategory, "category", "c", "", "new category name or key")

	del := &cobra.Command{
		Use:   "delete SECTION NAME",
		Short: "Remove an item from now on; its history is kept",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, section, err := a.sectionScope(cmd, args[0])
			if err != nil {
				return err
			}
			current, err := a.ledger.OpenItem(cmd.Context(), owner, section, args[1])
			if err != nil {
				return err
			}
			if err := a.ledger.DeleteItem(cmd.Context(), *current); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "deleted %s\n", current.Name)
			return nil
		},
	}

	var listAt int64
	list := &cobra.Command{
		Use:   "list SECTION",
		Short: "List a section now, or as it was at --at",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, section, err := a.sectionScope(cmd, args[0])
			if err != nil {
				return err
			}
			var listing *model.Listing
			if cmd.Flags().Changed("at") {
				listing, err = a.ledger.Reconstruct(cmd.Context(), owner, section, model.Tick(listAt))
			} else {
				listing, err = a.ledger.ListOpen(cmd.Context(), owner, section)
			}
			if err != nil {
				return err
			}
			return a.print(a.render.Listing(*listing))
		},
	}
	list.Flags().Int64Var(&listAt, "at", 0, "tick to rebuild the section at")

	var origin int64
	history := &cobra.Command{
		Use:   "history SECTION",
		Short: "Show every version of the section's items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, section, err := a.sectionScope(cmd, args[0])
			if err != nil {
				return err
			}
			var versions []model.Item
			if cmd.Flags().Changed("origin") {
				versions, err = a.ledger.ItemHistory(cmd.Context(), owner, section, model.Tick(origin))
			} else {
				versions, err = a.ledger.History(cmd.Context(), owner, section)
			}
			if err != nil {
				return err
			}
			return a.print(a.render.History(section, versions))
		},
	}
	history.Flags().Int64Var(&origin, "origin", 0, "only the item first created at this tick")

	cmd.AddCommand(add, update, del, list, history)
	return cmd
}

func (a *app) viewCommand() *cobra.Command {
	var at int64
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Show a whole book now, or as it was at --at",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := a.bookView(cmd, at)
			if err != nil {
				return err
			}
			return a.print(a.render.BookView(*view))
		},
	}
	cmd.Flags().Int64Var(&at, "at", 0, "tick to rebuild the book at")
	return cmd
}

// bookView rebuilds the configured book at the --at flag, or now.
func (a *app) bookView(cmd *cobra.Command, at int64) (*model.BookView, error) {
	owner, err := a.owner()
	if err != nil {
		return nil, err
	}
	if err := a.open(cmd.Context()); err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("at") {
		return a.ledger.View(cmd.Context(), owner, a.book(), model.Tick(at))
	}
	return a.ledger.ViewCurrent(cmd.Context(), owner, a.book())
}

// sectionScope resolves the owner and a section argument and opens the
// database.
func (a *app) sectionScope(cmd *cobra.Command, arg string) (string, model.Section, error) {
	owner, err := a.owner()
	if err != nil {
		return "", "", err
	}
	section, err := model.ParseSection(arg)
	if err != nil {
		return "", "", apperror.ValidationFailed("section", err.Error())
	}
	if err := a.open(cmd.Context()); err != nil {
		return "", "", err
	}
	return owner, section, nil
}

func parseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, apperror.ValidationFailed("amount", fmt.Sprintf("%q is not a number", s))
	}
	return v, nil
}
