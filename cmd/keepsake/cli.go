package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hliu/keepsake/internal/config"
	"github.com/hliu/keepsake/internal/errors"
	"github.com/hliu/keepsake/internal/ops"
	"github.com/hliu/keepsake/internal/record"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "keepsake",
		Usage:   "Local memory record store with time seals",
		Version: Version,
		Commands: []*cli.Command{
			createCmd(db),
			showCmd(db),
			updateCmd(db),
			sealCmd(db),
			deleteCmd(db),
			listCmd(db),
			sweepCmd(db),
			exportCmd(db, cfg),
			importCmd(db, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// createCmd creates the create command.
func createCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create a new record (content may be piped via stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Required: true, Usage: "Record title"},
			&cli.StringFlag{Name: "content", Aliases: []string{"c"}, Usage: "Record body (stdin wins if piped)"},
			&cli.StringSliceFlag{Name: "image", Aliases: []string{"i"}, Usage: "Image URI (repeatable, order preserved)"},
			&cli.StringFlag{Name: "music-url", Usage: "Music attachment URL"},
			&cli.StringFlag{Name: "music-title", Usage: "Music attachment title"},
		},
		Action: func(c *cli.Context) error {
			content := c.String("content")
			if stdinHasData() {
				piped, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				content = piped
			}

			input := ops.CreateInput{
				Title:   c.String("title"),
				Content: content,
				Images:  c.StringSlice("image"),
			}
			if url := c.String("music-url"); url != "" {
				input.MusicURL = &url
			}
			if title := c.String("music-title"); title != "" {
				input.MusicTitle = &title
			}

			output, err := ops.Create(db, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// showCmd creates the show command.
func showCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a record by ID",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Get(db, ops.GetInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// updateCmd creates the update command.
func updateCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Update an open record (content may be piped via stdin)",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "New title"},
			&cli.StringFlag{Name: "content", Aliases: []string{"c"}, Usage: "New body (stdin wins if piped)"},
			&cli.StringSliceFlag{Name: "image", Aliases: []string{"i"}, Usage: "Replacement image URI (repeatable)"},
			&cli.BoolFlag{Name: "clear-images", Usage: "Remove all images"},
			&cli.StringFlag{Name: "music-url", Usage: "New music URL (empty string clears the attachment)"},
			&cli.StringFlag{Name: "music-title", Usage: "New music title"},
		},
		Action: func(c *cli.Context) error {
			input := ops.UpdateInput{ID: c.Args().First()}

			if c.IsSet("title") {
				title := c.String("title")
				input.Title = &title
			}
			if stdinHasData() {
				piped, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				input.Content = &piped
			} else if c.IsSet("content") {
				content := c.String("content")
				input.Content = &content
			}
			if c.Bool("clear-images") {
				empty := []string{}
				input.Images = &empty
			} else if c.IsSet("image") {
				images := c.StringSlice("image")
				input.Images = &images
			}
			if c.IsSet("music-url") {
				url := c.String("music-url")
				input.MusicURL = &url
			}
			if c.IsSet("music-title") {
				title := c.String("music-title")
				input.MusicTitle = &title
			}

			output, err := ops.Update(db, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// sealCmd creates the seal command.
func sealCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "seal",
		Usage:     "Seal a record until a time, optionally scheduling destruction",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "until", Aliases: []string{"u"}, Usage: "Unseal time (RFC 3339, e.g. 2027-01-01T00:00:00Z)"},
			&cli.StringFlag{Name: "destroy-at", Aliases: []string{"d"}, Usage: "Destruction time (RFC 3339)"},
		},
		Action: func(c *cli.Context) error {
			input := ops.SealInput{ID: c.Args().First()}

			if until := c.String("until"); until != "" {
				ts, err := record.ParseTime(until)
				if err != nil {
					return outputError(errors.NewValidation(fmt.Sprintf("invalid --until: %s (expected RFC 3339)", until)))
				}
				input.Config.SealUntil = &ts
			}
			if destroyAt := c.String("destroy-at"); destroyAt != "" {
				ts, err := record.ParseTime(destroyAt)
				if err != nil {
					return outputError(errors.NewValidation(fmt.Sprintf("invalid --destroy-at: %s (expected RFC 3339)", destroyAt)))
				}
				input.Config.AutoDestroyAt = &ts
			}

			output, err := ops.Seal(db, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a record immediately, sealed or not",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Delete(db, ops.DeleteInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// listCmd creates the list command.
func listCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List records, newest first",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "include-sealed", Usage: "Include sealed records"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Page size (max 100)"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Usage: "Page offset"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(db, ops.ListInput{
				IncludeSealed: c.Bool("include-sealed"),
				Limit:         c.Int("limit"),
				Offset:        c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// sweepCmd creates the sweep command.
func sweepCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "Destroy all records past their destruction time",
		Action: func(c *cli.Context) error {
			output, err := ops.Sweep(db)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export all live records to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.keepsake/exports)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(db, cfg, ops.ExportInput{
				Path: c.String("path"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// importCmd creates the import command.
func importCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import records from a JSONL export file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Collision mode: error|replace|skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Import(db, cfg, ops.ImportInput{
				Path: c.String("path"),
				Mode: ops.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if kErr, ok := err.(*errors.KeepsakeError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", kErr.Code, kErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
