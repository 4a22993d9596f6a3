package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/glancehq/glance/internal/capture"
	"github.com/glancehq/glance/internal/errors"
	"github.com/glancehq/glance/internal/session"
	"github.com/glancehq/glance/internal/store"
	"github.com/glancehq/glance/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(st *store.Store, svc *session.Service) *cli.App {
	app := &cli.App{
		Name:    "glance",
		Usage:   "Screenshot capture, model answers, local history",
		Version: Version,
		Commands: []*cli.Command{
			askCmd(svc),
			showCmd(st),
			listCmd(st),
			updateCmd(st),
			deleteCmd(st),
			attachCmd(svc),
			purgeCmd(st),
			clearCmd(st),
			serveCmd(st),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// askCmd creates the ask command.
func askCmd(svc *session.Service) *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Ask the model about a screenshot (image from --image or stdin)",
		ArgsUsage: "<prompt>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "image", Aliases: []string{"i"}, Usage: "Screenshot file (PNG or JPEG)"},
			&cli.StringFlag{Name: "selection", Usage: "Viewport selection as JSON: {\"x\":..,\"y\":..,\"width\":..,\"height\":..,\"viewportWidth\":..,\"viewportHeight\":..}"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Usage: "Capture mode: region|tab"},
			&cli.StringFlag{Name: "id", Usage: "Existing draft capture id to continue"},
			&cli.StringFlag{Name: "thread", Usage: "Thread id grouping follow-up questions"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("prompt argument is required"))
			}

			input := session.SubmitInput{
				CaptureID: c.String("id"),
				Prompt:    c.Args().First(),
				Mode:      c.String("mode"),
				ThreadID:  c.String("thread"),
			}

			if path := c.String("image"); path != "" {
				data, err := os.ReadFile(path)
				if err != nil {
					return outputError(errors.NewInvalidRequest(fmt.Sprintf("read image: %v", err)))
				}
				input.Screenshot = data
			} else if stdinHasData() {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				input.Screenshot = data
			}

			if selJSON := c.String("selection"); selJSON != "" {
				var sel capture.Selection
				if err := json.Unmarshal([]byte(selJSON), &sel); err != nil {
					return outputError(errors.NewInvalidRequest(fmt.Sprintf("parse selection: %v", err)))
				}
				input.Selection = &sel
			}

			result, err := svc.Submit(c.Context, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(result)
		},
	}
}

// showCmd creates the show command.
func showCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one capture by id",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if st == nil {
				return outputError(errors.NewStorageUnavailable(nil))
			}
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("id argument is required"))
			}
			id := c.Args().First()

			record, err := st.GetCapture(c.Context, id)
			if err != nil {
				return outputError(err)
			}
			if record == nil {
				return outputError(errors.NewNotFound(id))
			}
			return outputJSON(record)
		},
	}
}

// listCmd creates the list command.
func listCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List captures, most recently updated first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum number of captures (0 = all)"},
		},
		Action: func(c *cli.Context) error {
			if st == nil {
				return outputError(errors.NewStorageUnavailable(nil))
			}
			records, err := st.ListRecentCaptures(c.Context, c.Int("limit"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{
				"captures": records,
				"count":    len(records),
			})
		},
	}
}

// updateCmd creates the update command.
func updateCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Merge fields into an existing capture",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "prompt", Usage: "New prompt text"},
			&cli.StringFlag{Name: "response", Usage: "New response text"},
			&cli.StringFlag{Name: "status", Usage: "New status: draft|pending|completed|error"},
			&cli.StringFlag{Name: "error", Usage: "Error text"},
			&cli.StringFlag{Name: "metadata", Usage: "Metadata to merge, as a JSON object"},
		},
		Action: func(c *cli.Context) error {
			if st == nil {
				return outputError(errors.NewStorageUnavailable(nil))
			}
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("id argument is required"))
			}

			changes := store.Changes{}
			if c.IsSet("prompt") {
				changes.Prompt = store.String(c.String("prompt"))
			}
			if c.IsSet("response") {
				changes.Response = store.String(c.String("response"))
			}
			if c.IsSet("status") {
				changes.Status = store.StatusOf(capture.Status(c.String("status")))
			}
			if c.IsSet("error") {
				changes.Error = store.String(c.String("error"))
			}
			if metaJSON := c.String("metadata"); metaJSON != "" {
				var meta map[string]any
				if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
					return outputError(errors.NewInvalidRequest(fmt.Sprintf("parse metadata: %v", err)))
				}
				changes.Metadata = meta
			}

			record, err := st.UpdateCapture(c.Context, c.Args().First(), changes)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(record)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a capture, its thumbnail, and its blobs",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if st == nil {
				return outputError(errors.NewStorageUnavailable(nil))
			}
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("id argument is required"))
			}
			id := c.Args().First()

			if err := st.DeleteCapture(c.Context, id); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"deleted": id})
		},
	}
}

// attachCmd creates the attach command.
func attachCmd(svc *session.Service) *cli.Command {
	return &cli.Command{
		Name:      "attach",
		Usage:     "Attach a recording to a capture",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Required: true, Usage: "Recording file"},
			&cli.StringFlag{Name: "mime", Usage: "MIME type (default video/webm)"},
			&cli.Int64Flag{Name: "duration-ms", Usage: "Recording duration in milliseconds"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("id argument is required"))
			}

			data, err := os.ReadFile(c.String("file"))
			if err != nil {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("read file: %v", err)))
			}

			record, err := svc.AttachVideo(c.Context, c.Args().First(), data, c.String("mime"), c.Int64("duration-ms"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(record)
		},
	}
}

// purgeCmd creates the purge command.
func purgeCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:  "purge",
		Usage: "Run a retention sweep (configured policy, or an override)",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "max-entries", Usage: "Keep at most this many captures"},
			&cli.Float64Flag{Name: "max-age-days", Usage: "Remove captures not updated within this many days"},
		},
		Action: func(c *cli.Context) error {
			if st == nil {
				return outputError(errors.NewStorageUnavailable(nil))
			}

			var override *capture.RetentionPolicy
			if c.IsSet("max-entries") || c.IsSet("max-age-days") {
				override = &capture.RetentionPolicy{}
				if c.IsSet("max-entries") {
					n := c.Int("max-entries")
					override.MaxEntries = &n
				}
				if c.IsSet("max-age-days") {
					d := c.Float64("max-age-days")
					override.MaxAgeDays = &d
				}
			}

			removed, err := st.EnforceRetention(c.Context, override)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"removed": removed})
		},
	}
}

// clearCmd creates the clear command.
func clearCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Delete every capture, thumbnail, and blob",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Usage: "Confirm deletion"},
		},
		Action: func(c *cli.Context) error {
			if st == nil {
				return outputError(errors.NewStorageUnavailable(nil))
			}
			if !c.Bool("yes") {
				return outputError(errors.NewInvalidRequest("pass --yes to confirm clearing all captures"))
			}

			if err := st.ClearAll(c.Context); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"cleared": true})
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the capture history web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 7333, Usage: "Port"},
		},
		Action: func(c *cli.Context) error {
			if st == nil {
				return outputError(errors.NewStorageUnavailable(nil))
			}
			srv := web.NewServer(st, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
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
	if gErr, ok := err.(*errors.GlanceError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", gErr.Code, gErr.Message), 1)
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
