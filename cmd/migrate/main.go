package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/cvaize/ralaver-sub001/config"
	"github.com/cvaize/ralaver-sub001/internal/cli"
	"github.com/cvaize/ralaver-sub001/internal/database"
	"github.com/cvaize/ralaver-sub001/migrations"
	"github.com/logrusorgru/aurora/v3"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const timeout = 120 * time.Second

type flags struct {
	configPath  string
	databaseURL string
	printSQL    bool
	debug       bool
	noColor     bool
	steps       int
	all         bool
}

func main() {
	f := &flags{}
	au := aurora.NewAurora(true)

	root := newRootCmd(f)
	if err := root.Execute(); err != nil {
		if f.noColor {
			au = aurora.NewAurora(false)
		}

		if errors.Is(err, database.ErrNoChangesRequired) {
			fmt.Println(au.Green("ralaver: "), err.Error())
			os.Exit(0)
		}

		fmt.Println(au.Red("ralaver: "), err.Error())
		os.Exit(1)
	}
}

func newRootCmd(f *flags) *cobra.Command {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Applies and reverts the database schema of the application",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&f.configPath, "config", config.DefaultConfigFile, "path to the yaml config file")
	root.PersistentFlags().StringVar(&f.databaseURL, "db", "", "database url, overrides config and MYSQL_URL")
	root.PersistentFlags().BoolVar(&f.printSQL, "sql", false, "print executed sql")
	root.PersistentFlags().BoolVar(&f.debug, "debug", false, "print debug output")
	root.PersistentFlags().BoolVar(&f.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newUpCmd(f),
		newDownCmd(f),
		newRefreshCmd(f),
		newApplyCmd(f),
		newStatusCmd(f),
		newListCmd(f),
		newInitCmd(),
	)

	return root
}

func newUpCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "up [NAME...]",
		Short: "Migrate every pending unit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(f, func(ctx context.Context, app *cli.App) error {
				_, err := app.Migrate(ctx, cli.ActionConfig{Steps: f.steps, Names: args})
				return err
			})
		},
	}

	cmd.Flags().IntVar(&f.steps, "steps", 0, "number of units to migrate, 0 means all")

	return cmd
}

func newDownCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down [NAME...]",
		Short: "Roll back the last applied unit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(f, func(ctx context.Context, app *cli.App) error {
				_, err := app.Rollback(ctx, cli.ActionConfig{Steps: f.steps, All: f.all, Names: args})
				return err
			})
		},
	}

	cmd.Flags().IntVar(&f.steps, "steps", 0, "number of units to roll back, the last one by default")
	cmd.Flags().BoolVar(&f.all, "all", false, "roll back every applied unit")

	return cmd
}

func newRefreshCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Roll back and migrate again the applied units",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(f, func(ctx context.Context, app *cli.App) error {
				_, _, err := app.Refresh(ctx, cli.ActionConfig{Steps: f.steps})
				return err
			})
		},
	}

	cmd.Flags().IntVar(&f.steps, "steps", 0, "number of units to refresh, 0 means all")

	return cmd
}

func newApplyCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "apply NAME up|down",
		Short: "Run one operation of a single unit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(f, func(ctx context.Context, app *cli.App) error {
				return app.Apply(ctx, args[0], args[1])
			})
		},
	}
}

func newStatusCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which units are applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(f, func(ctx context.Context, app *cli.App) error {
				statuses, err := app.Status(ctx)
				if err != nil {
					return err
				}

				au := aurora.NewAurora(!f.noColor)
				for _, s := range statuses {
					switch {
					case !s.Registered:
						fmt.Println(au.Red("missing "), s.Name, s.MigratedAt.Format(time.RFC3339))
					case s.Applied:
						fmt.Println(au.Green("applied "), s.Name, s.MigratedAt.Format(time.RFC3339))
					default:
						fmt.Println(au.Yellow("pending "), s.Name)
					}
				}

				return nil
			})
		},
	}
}

func newListCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the compiled-in units in migration order",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			au := aurora.NewAurora(!f.noColor)
			for i, u := range cli.Units(migrations.Registry()) {
				fmt.Println(au.Cyan(fmt.Sprintf("%2d.", i+1)), u.Name)

				if f.printSQL && u.Migrate != "" {
					fmt.Println(au.Gray(12, "-- up"))
					fmt.Println(u.Migrate)
					fmt.Println(au.Gray(12, "-- down"))
					fmt.Println(u.Rollback)
				}
			}
		},
	}
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [PATH]",
		Short: "Write a config file stub",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultConfigFile
			if len(args) == 1 {
				path = args[0]
			}

			if err := cli.InitCfg(path); err != nil {
				return err
			}

			fmt.Println("config file created at", path)

			return nil
		},
	}
}

func withApp(f *flags, fn func(ctx context.Context, app *cli.App) error) (err error) {
	cfg, err := config.LoadWith(f.configPath, func(c *config.Config) {
		if url := strings.TrimSpace(f.databaseURL); url != "" {
			c.Database.URL = url
		}

		c.Log.SQL = c.Log.SQL || f.printSQL
		c.Log.Debug = c.Log.Debug || f.debug
		c.Log.Color = c.Log.Color && !f.noColor
	})
	if err != nil {
		return err
	}

	app, closer, err := cli.New(cfg, migrations.Registry(), log.New(os.Stdout, "", 0))
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := closer(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return fn(ctx, app)
}
