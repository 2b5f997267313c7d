package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/ldspec/internal/errors"
	"github.com/hpungsan/ldspec/internal/ops"
	"github.com/hpungsan/ldspec/internal/web"
)

// jsonFlag switches a lookup command from markdown to JSON output.
func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "Print JSON instead of markdown"}
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(rt *runtime) *cli.App {
	app := &cli.App{
		Name:    "ldspec",
		Usage:   "Browse W3C specifications and RDF vocabularies",
		Version: Version,
		Commands: []*cli.Command{
			familiesCmd(rt),
			sectionsCmd(rt),
			sectionCmd(rt),
			resourcesCmd(rt),
			resourceCmd(rt),
			cacheCmd(rt),
			serveCmd(rt),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// familiesCmd creates the families command.
func familiesCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "families",
		Usage:     "List specification families, or the specs and namespaces of one family",
		ArgsUsage: "[family]",
		Flags:     []cli.Flag{jsonFlag()},
		Action: func(c *cli.Context) error {
			output, err := rt.svc.ListSpecifications(ops.ListSpecificationsInput{Family: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return printResult(c, output)
		},
	}
}

// sectionsCmd creates the sections command.
func sectionsCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "sections",
		Usage:     "Print the table of contents of a specification",
		ArgsUsage: "<spec>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "depth", Aliases: []string{"d"}, Value: ops.DefaultSectionDepth, Usage: "TOC depth (1 = top level)"},
			jsonFlag(),
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("spec key is required"))
			}
			depth := c.Int("depth")
			if depth < 1 {
				return outputError(errors.NewInvalidRequest("depth must be >= 1"))
			}
			output, err := rt.svc.ListSections(c.Context, ops.ListSectionsInput{
				SpecKey: c.Args().First(),
				Depth:   depth,
			})
			if err != nil {
				return outputError(err)
			}
			return printResult(c, output)
		},
	}
}

// sectionCmd creates the section command.
func sectionCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "section",
		Usage:     "Print one section of a specification as markdown",
		ArgsUsage: "<spec> <section-id>",
		Flags:     []cli.Flag{jsonFlag()},
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return outputError(errors.NewInvalidRequest("spec key and section id are required"))
			}
			output, err := rt.svc.GetSection(c.Context, ops.GetSectionInput{
				SpecKey:   c.Args().Get(0),
				SectionID: c.Args().Get(1),
			})
			if err != nil {
				return outputError(err)
			}
			return printResult(c, output)
		},
	}
}

// resourcesCmd creates the resources command.
func resourcesCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "resources",
		Usage:     "List the resources of a namespace grouped by type",
		ArgsUsage: "<ns>",
		Flags:     []cli.Flag{jsonFlag()},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("namespace key is required"))
			}
			output, err := rt.svc.ListResources(c.Context, ops.ListResourcesInput{NsKey: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return printResult(c, output)
		},
	}
}

// resourceCmd creates the resource command.
func resourceCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "resource",
		Usage:     "Print the Turtle definition of a resource",
		ArgsUsage: "<ns> <name>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "refs", Aliases: []string{"r"}, Usage: "Include triples using the resource as predicate or object"},
			jsonFlag(),
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return outputError(errors.NewInvalidRequest("namespace key and resource name are required"))
			}
			output, err := rt.svc.GetResource(c.Context, ops.GetResourceInput{
				NsKey:             c.Args().Get(0),
				Resource:          c.Args().Get(1),
				IncludeReferences: c.Bool("refs"),
			})
			if err != nil {
				return outputError(err)
			}
			return printResult(c, output)
		},
	}
}

// cacheCmd creates the cache command group.
func cacheCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage cached documents",
		Subcommands: []*cli.Command{
			{
				Name:  "clear",
				Usage: "Drop cached artifacts and stored documents",
				Flags: []cli.Flag{jsonFlag()},
				Action: func(c *cli.Context) error {
					output, err := rt.svc.ClearCache()
					if err != nil {
						return outputError(err)
					}
					return printResult(c, output)
				},
			},
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the web browser and metrics endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8080, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			srv, err := web.NewServer(rt.svc, web.Options{
				Version:  Version,
				Bind:     c.String("bind"),
				Port:     c.Int("port"),
				Gatherer: rt.registry,
				Logger:   rt.logger,
			})
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return web.Run(srv, rt.logger)
		},
	}
}

// Helper functions

// texter is implemented by every ops output.
type texter interface {
	Text() string
}

// printResult prints v as markdown, or as JSON when --json is set.
func printResult(c *cli.Context, v texter) error {
	if c.Bool("json") {
		return outputJSON(c.App.Writer, v)
	}
	return outputText(c.App.Writer, v.Text())
}

// outputJSON marshals result to w as JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputText writes s followed by a single newline.
func outputText(w io.Writer, s string) error {
	_, err := fmt.Fprintln(w, strings.TrimRight(s, "\n"))
	return err
}

// outputError formats error for CLI.
func outputError(err error) error {
	if ldErr, ok := errors.As(err); ok {
		msg := fmt.Sprintf("[%s] %s", ldErr.Code, ldErr.Message)
		if available, ok := ldErr.Details["available"].([]string); ok && len(available) > 0 {
			msg += "\navailable: " + strings.Join(available, ", ")
		}
		return cli.Exit(msg, 1)
	}
	return cli.Exit(err.Error(), 1)
}
