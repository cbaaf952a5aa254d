package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bunchhieng/sticky/internal/app"
	"github.com/bunchhieng/sticky/internal/cli"
	"github.com/bunchhieng/sticky/internal/collection"
	"github.com/bunchhieng/sticky/internal/config"
	"github.com/bunchhieng/sticky/internal/tui"
	urfave "github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type action func(ctx context.Context, cmds *cli.Commands, c *urfave.Context) error

// loadConfig reads the config file and applies global flag overrides.
func loadConfig(c *urfave.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if v := c.String("db-path"); v != "" {
		cfg.DBPath = v
	}
	if v := c.String("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v := c.String("category"); v != "" {
		cfg.DefaultCategory = v
	}
	return cfg, cfg.Validate()
}

func open(c *urfave.Context, cfg *config.Config, selectCategory bool) (*app.App, error) {
	a, err := app.New(cfg)
	if err != nil {
		return nil, err
	}
	if selectCategory && cfg.DefaultCategory != "" {
		if err := a.SelectCategory(c.Context, cfg.DefaultCategory); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

// run builds the application for one command and hands it to fn.
func run(selectCategory bool, fn action) urfave.ActionFunc {
	return func(c *urfave.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		a, err := open(c, cfg, selectCategory)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(c.Context, cli.NewCommands(a, os.Stdout, os.Stdin), c)
	}
}

func runTUI(c *urfave.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	// Log lines would corrupt the alternate screen.
	if cfg.LogFile == "" {
		dir, err := config.Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		cfg.LogFile = filepath.Join(dir, "sticky.log")
	}
	a, err := open(c, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()
	return tui.Run(c.Context, a)
}

func newApp() *urfave.App {
	return &urfave.App{
		Name:    "sticky",
		Usage:   "keep bookmarks in categories",
		Version: version,
		Flags: []urfave.Flag{
			&urfave.StringFlag{Name: "config", Usage: "path to config.yaml (default: platform config directory)"},
			&urfave.StringFlag{Name: "db-path", Usage: "database file path"},
			&urfave.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&urfave.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "category to work in"},
		},
		Action: runTUI,
		Commands: []*urfave.Command{
			{
				Name:   "tui",
				Usage:  "Browse the selected category interactively",
				Action: runTUI,
			},
			{
				Name:      "add",
				Usage:     "Add a link to the selected category",
				ArgsUsage: "<url>",
				Flags: []urfave.Flag{
					&urfave.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "title for the link", Required: true},
				},
				Action: run(true, func(ctx context.Context, cmds *cli.Commands, c *urfave.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("usage: sticky add --title \"...\" <url>")
					}
					return cmds.Add(ctx, c.Args().First(), c.String("title"))
				}),
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List links in the selected category",
				Flags: []urfave.Flag{
					&urfave.StringFlag{Name: "sort", Aliases: []string{"s"}, Usage: "name or date"},
					&urfave.BoolFlag{Name: "desc", Usage: "reverse the sort order (needs --sort)"},
					&urfave.StringFlag{Name: "search", Aliases: []string{"q"}, Usage: "case-insensitive title filter"},
				},
				Action: run(true, func(ctx context.Context, cmds *cli.Commands, c *urfave.Context) error {
					order, err := collection.ParseSortOrder(c.String("sort"))
					if err != nil {
						return err
					}
					return cmds.List(ctx, cli.ListOptions{
						Sort:       order,
						Descending: c.Bool("desc"),
						Search:     c.String("search"),
					})
				}),
			},
			{
				Name:      "open",
				Usage:     "Open a link in the browser",
				ArgsUsage: "<id>",
				Action: run(false, func(ctx context.Context, cmds *cli.Commands, c *urfave.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("usage: sticky open <id>")
					}
					return cmds.Open(ctx, c.Args().First())
				}),
			},
			{
				Name:      "rm",
				Usage:     "Delete links from the selected category",
				ArgsUsage: "<id> [id...]",
				Flags: []urfave.Flag{
					&urfave.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "skip confirmation"},
				},
				Action: run(true, func(ctx context.Context, cmds *cli.Commands, c *urfave.Context) error {
					return cmds.Remove(ctx, c.Bool("yes"), c.Args().Slice()...)
				}),
			},
			{
				Name:  "category",
				Usage: "Manage categories",
				Subcommands: []*urfave.Command{
					{
						Name:      "add",
						ArgsUsage: "<name>",
						Action: run(false, func(ctx context.Context, cmds *cli.Commands, c *urfave.Context) error {
							if c.NArg() != 1 {
								return fmt.Errorf("usage: sticky category add <name>")
							}
							return cmds.CategoryAdd(ctx, c.Args().First())
						}),
					},
					{
						Name:    "list",
						Aliases: []string{"ls"},
						Action: run(false, func(ctx context.Context, cmds *cli.Commands, c *urfave.Context) error {
							return cmds.CategoryList(ctx)
						}),
					},
					{
						Name:      "rm",
						ArgsUsage: "<name>",
						Action: run(false, func(ctx context.Context, cmds *cli.Commands, c *urfave.Context) error {
							if c.NArg() != 1 {
								return fmt.Errorf("usage: sticky category rm <name>")
							}
							return cmds.CategoryRemove(ctx, c.Args().First())
						}),
					},
				},
			},
			{
				Name:  "export",
				Usage: "Export all links as JSON to stdout",
				Action: run(false, func(ctx context.Context, cmds *cli.Commands, c *urfave.Context) error {
					return cmds.Export(ctx, os.Stdout)
				}),
			},
			{
				Name:      "import",
				Usage:     "Import links from a JSON file",
				ArgsUsage: "<file.json>",
				Action: run(true, func(ctx context.Context, cmds *cli.Commands, c *urfave.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("usage: sticky import <file.json>")
					}
					return cmds.Import(ctx, c.Args().First())
				}),
			},
			{
				Name:  "config",
				Usage: "Manage the config file",
				Subcommands: []*urfave.Command{
					{
						Name:  "init",
						Usage: "Write the default config to --config or the platform config directory",
						Action: func(c *urfave.Context) error {
							path, _, err := config.Init(c.String("config"))
							if err != nil {
								return err
							}
							fmt.Fprintf(os.Stdout, "Wrote %s\n", path)
							return nil
						},
					},
				},
			},
			{
				Name:  "version",
				Usage: "Print the version",
				Action: func(c *urfave.Context) error {
					cli.NewCommands(nil, os.Stdout, os.Stdin).Version(version)
					return nil
				},
			},
		},
	}
}
