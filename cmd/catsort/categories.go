package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"catsort/pkg/types"

	"github.com/spf13/cobra"
)

// categoryCmd groups the per-category edits. Every subcommand takes the
// managed directory first.
func (a *app) categoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"cat"},
		Short:   "Edit the categories of a directory",
	}

	cmd.AddCommand(a.categoryAddCmd())
	cmd.AddCommand(a.regroupingCmd(a.categoryEditCmd("rename <dir> <name> <new-name>", "Rename a category", 3,
		func(dir string, args []string) (*types.Config, error) {
			return a.store.RenameCategory(dir, args[0], args[1])
		})))
	cmd.AddCommand(a.regroupingCmd(a.categoryEditCmd("remove <dir> <name>", "Remove a category", 2,
		func(dir string, args []string) (*types.Config, error) {
			return a.store.RemoveCategory(dir, args[0])
		})))
	cmd.AddCommand(a.categoryEditCmd("ext-add <dir> <name> <ext>...", "Add extensions to a category", -3,
		func(dir string, args []string) (*types.Config, error) {
			return a.store.AddExtensions(dir, args[0], args[1:]...)
		}))
	cmd.AddCommand(a.categoryEditCmd("ext-remove <dir> <name> <ext>...", "Remove extensions from a category", -3,
		func(dir string, args []string) (*types.Config, error) {
			return a.store.RemoveExtensions(dir, args[0], args[1:]...)
		}))
	cmd.AddCommand(a.categoryEditCmd("toggle <dir> <name>", "Toggle sorting a category into per-extension folders", 2,
		func(dir string, args []string) (*types.Config, error) {
			return a.store.ToggleCategorizeByExtension(dir, args[0])
		}))

	return cmd
}

func (a *app) categoryAddCmd() *cobra.Command {
	var byExtension bool

	cmd := &cobra.Command{
		Use:   "add <dir> <name> [ext...]",
		Short: "Add a category",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := dirArg(args[0])
			if err != nil {
				return err
			}
			cat, err := types.NewCategory(args[1], byExtension, args[2:]...)
			if err != nil {
				return err
			}
			cfg, err := a.store.AddCategory(dir, cat)
			if err != nil {
				return err
			}
			printCategories(cmd, cfg)
			return nil
		},
	}

	cmd.Flags().BoolVar(&byExtension, "by-extension", false, "sort files into one folder per extension")
	return cmd
}

// categoryEditCmd builds a subcommand that applies edit to the directory
// named by the first argument. nargs is exact when positive and a minimum
// when negative.
func (a *app) categoryEditCmd(use, short string, nargs int, edit func(dir string, args []string) (*types.Config, error)) *cobra.Command {
	argsCheck := cobra.ExactArgs(nargs)
	if nargs < 0 {
		argsCheck = cobra.MinimumNArgs(-nargs)
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  argsCheck,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := dirArg(args[0])
			if err != nil {
				return err
			}
			cfg, err := edit(dir, args[1:])
			if err != nil {
				return err
			}
			printCategories(cmd, cfg)
			return nil
		},
	}
}

// regroupingCmd wraps a rename or remove. The old category folder is no
// longer known to the config, so organize and reset would never revisit it.
// With --reorganize the directory is reset under the previous config and
// organized again under the new one; otherwise a warning names the folder.
func (a *app) regroupingCmd(cmd *cobra.Command) *cobra.Command {
	var reorganize bool
	edit := cmd.RunE
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		before, err := a.lookup(args[0])
		if err != nil {
			return err
		}
		if err := edit(cmd, args); err != nil {
			return err
		}
		after, err := a.store.Get(before.Directory)
		if err != nil {
			return err
		}
		return a.regroup(cmd, before, after, args[1], reorganize)
	}
	cmd.Flags().BoolVar(&reorganize, "reorganize", false, "move files out of the old category folder and organize again")
	return cmd
}

func (a *app) regroup(cmd *cobra.Command, before, after *types.Config, name string, reorganize bool) error {
	if _, live := after.Category(name); live {
		return nil
	}
	root, err := after.Path()
	if err != nil {
		return err
	}
	stale := filepath.Join(root, name)
	if info, err := os.Lstat(stale); err != nil || !info.IsDir() {
		return nil
	}
	if entries, err := os.ReadDir(stale); err == nil && len(entries) == 0 {
		return os.Remove(stale)
	}

	out := cmd.OutOrStdout()
	if !reorganize {
		fmt.Fprintln(out, warningText(fmt.Sprintf("%s still holds files; rerun with --reorganize to move them", stale)))
		return nil
	}

	for _, step := range []func() types.OrganizeResult{
		func() types.OrganizeResult { return a.engine.Reset(before) },
		func() types.OrganizeResult { return a.engine.Process(after) },
	} {
		res := step()
		fmt.Fprintln(out, renderResult(res))
		if !res.OK() {
			return res.Error
		}
	}
	// empty once reset; cleanup keeps category roots
	_ = os.Remove(stale)
	return nil
}

func printCategories(cmd *cobra.Command, cfg *types.Config) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, successText("Updated "+cfg.Directory))
	for _, cat := range cfg.Categories {
		flag := ""
		if cat.CategorizeByExtension {
			flag = mutedText(" (by extension)")
		}
		fmt.Fprintf(out, "  %s%s: %s\n", cat.Name, flag, strings.Join(cat.Extensions, " "))
	}
}
