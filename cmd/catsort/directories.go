package main

import (
	"fmt"
	"sort"
	"time"

	"catsort/internal/errors"
	"catsort/internal/schedule"

	"github.com/spf13/cobra"
)

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List managed directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			configs := a.store.List()
			if len(configs) == 0 {
				fmt.Fprintln(out, mutedText("No directories configured. Add one with 'catsort create <dir>'."))
				return nil
			}
			for _, cfg := range configs {
				fmt.Fprintf(out, "%s  %s  %s  %s\n",
					titleText(cfg.Directory),
					activeText(cfg.Active),
					plural(len(cfg.Categories), "category"),
					mutedText(scheduleSummary(cfg.Schedule)))
			}
			return nil
		},
	}
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <dir>",
		Short: "Show the categories and schedule of a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.lookup(args[0])
			if err != nil {
				return err
			}

			var next time.Time
			if cfg.Schedule.Active {
				if next, err = schedule.First(cfg.Schedule, time.Now()); err != nil {
					return err
				}
			}
			pending := -1
			if cfg.Active {
				if names, err := a.engine.Pending(cfg); err == nil {
					pending = len(names)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderConfig(cfg, next, pending))
			return nil
		},
	}
}

func (a *app) createCmd() *cobra.Command {
	var (
		template string
		inactive bool
	)

	cmd := &cobra.Command{
		Use:   "create <dir>",
		Short: "Start managing a directory",
		Long: `Create a config for a directory from a template. The directory must exist,
be readable and writable, and must not be a system directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := dirArg(args[0])
			if err != nil {
				return err
			}
			tpl, ok := a.settings.Template(template)
			if !ok {
				return errors.InvalidConfigf("template", "unknown template %q, see 'catsort templates'", template)
			}
			if err := a.engine.ValidateDirectory(dir); err != nil {
				return err
			}

			cfg, err := tpl.NewDirectoryConfig(dir)
			if err != nil {
				return err
			}
			cfg.Active = !inactive
			if err := a.store.Create(cfg); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, successText(fmt.Sprintf("Managing %s with the %s template", dir, tpl.Name)))
			fmt.Fprintln(out, renderConfig(cfg, time.Time{}, -1))
			return nil
		},
	}

	cmd.Flags().StringVarP(&template, "template", "t", "default", "template to copy categories from")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "create the config disabled")
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <dir>",
		Aliases: []string{"rm"},
		Short:   "Stop managing a directory (files are left where they are)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := dirArg(args[0])
			if err != nil {
				return err
			}
			if err := a.store.Delete(dir); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successText("Deleted config for "+dir))
			return nil
		},
	}
}

func (a *app) activeCmd(use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <dir>",
		Short: fmt.Sprintf("%s organizing a directory", map[bool]string{true: "Enable", false: "Disable"}[active]),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := dirArg(args[0])
			if err != nil {
				return err
			}
			cfg, err := a.store.SetActive(dir, active)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", cfg.Directory, activeText(cfg.Active))
			return nil
		},
	}
}

func (a *app) moveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <dir> <new-dir>",
		Short: "Point a config at another directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := dirArg(args[0])
			if err != nil {
				return err
			}
			to, err := dirArg(args[1])
			if err != nil {
				return err
			}
			if err := a.engine.ValidateDirectory(to); err != nil {
				return err
			}
			if _, err := a.store.Move(from, to); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successText(fmt.Sprintf("Moved %s to %s", from, to)))
			return nil
		},
	}
}

func (a *app) ignoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ignore <dir> [pattern...]",
		Short: "Set the globs of root entries left in place (no patterns clears them)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := dirArg(args[0])
			if err != nil {
				return err
			}
			cfg, err := a.store.SetIgnore(dir, args[1:])
			if err != nil {
				return err
			}
			if len(cfg.Ignore) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), successText("Cleared ignore patterns for "+dir))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), successText(fmt.Sprintf("Ignoring %v in %s", cfg.Ignore, dir)))
			return nil
		},
	}
}

func (a *app) templatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the templates available to create",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			templates := append(a.settings.Templates[:0:0], a.settings.Templates...)
			sort.Slice(templates, func(i, j int) bool { return templates[i].Name < templates[j].Name })
			for _, tpl := range templates {
				fmt.Fprintf(out, "%s  %s\n", titleText(tpl.Name), mutedText(tpl.Description))
				for _, cat := range tpl.Categories {
					fmt.Fprintf(out, "  %-12s %v\n", cat.Name, cat.Extensions)
				}
			}
			return nil
		},
	}
}
