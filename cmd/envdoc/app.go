package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/Azhovan/fromenv"
	"github.com/Azhovan/fromenv/sourceenv"
	"github.com/Azhovan/fromenv/telemetry"
)

func newApp(stdout, stderr io.Writer) *cli.Command {
	app := &cli.Command{
		Name:      "envdoc",
		Usage:     "Document and check telemetry environment variables",
		Writer:    stdout,
		ErrWriter: stderr,
		// Exit codes are mapped by run; never call os.Exit from inside.
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "prefix",
				Usage: "prefix prepended to every variable name",
			},
			&cli.StringSliceFlag{
				Name:  "set",
				Usage: "override a variable, as KEY=VALUE (repeatable)",
			},
		},
	}

	app.Commands = append(app.Commands,
		inventoryCommand(),
		checkCommand(),
		showCommand(),
	)

	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}

	return app
}

// sourceFor builds the lookup chain from the root flags: the process
// environment under --prefix, overridden by --set values. --set takes
// unprefixed names.
func sourceFor(cmd *cli.Command) (fromenv.Source, error) {
	opts := sourceenv.Options{Prefix: cmd.String("prefix")}
	loader := fromenv.NewLoader[telemetry.Config]().WithSource(sourceenv.New(opts))

	if sets := cmd.StringSlice("set"); len(sets) > 0 {
		overrides, err := sourceenv.FromList(sets, sourceenv.Options{})
		if err != nil {
			return nil, cli.Exit(fmt.Sprintf("invalid --set: %v", err), 2)
		}
		loader = loader.WithSource(overrides)
	}

	return loader.Source(), nil
}

func formatFlag(value string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "output format",
		Value:   value,
	}
}

func inventoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "inventory",
		Usage: "list every variable telemetry may read",
		Flags: []cli.Flag{
			formatFlag("text"),
			&cli.BoolFlag{
				Name:  "presence",
				Usage: "annotate each variable as set or unset",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := fromenv.ParseFormat(cmd.String("format"))
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}

			opts := []fromenv.DumpOption{fromenv.WithFormat(format)}
			if cmd.Bool("presence") {
				src, err := sourceFor(cmd)
				if err != nil {
					return err
				}
				opts = append(opts, fromenv.WithPresence(src))
			}

			return fromenv.DumpInventory(cmd.Root().Writer, telemetry.Inventory(), opts...)
		},
	}
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "fail when a required variable is not set",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "treat optional variables as required",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			src, err := sourceFor(cmd)
			if err != nil {
				return err
			}

			items := telemetry.Inventory()
			if cmd.Bool("strict") {
				for i := range items {
					items[i].Optional = false
				}
			}

			if err := fromenv.CheckPresence(src, items); err != nil {
				return cli.Exit(err.Error(), 1)
			}

			fmt.Fprintf(cmd.Root().Writer, "ok: %d variables checked\n", len(items))
			return nil
		},
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "load the configuration and print the effective values",
		Flags: []cli.Flag{
			formatFlag("text"),
			&cli.BoolFlag{
				Name:  "sources",
				Usage: "include the source of each value",
			},
			&cli.StringFlag{
				Name:  "snapshot",
				Usage: "also write a snapshot to this path ({{timestamp}} is expanded)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := fromenv.ParseFormat(cmd.String("format"))
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}

			src, err := sourceFor(cmd)
			if err != nil {
				return err
			}

			cfg, err := fromenv.NewLoader[telemetry.Config]().WithSource(src).Load(ctx)
			if err != nil {
				return cli.Exit(strings.TrimSpace(err.Error()), 1)
			}
			defer fromenv.ForgetProvenance(cfg)

			opts := []fromenv.DumpOption{fromenv.WithFormat(format)}
			if cmd.Bool("sources") {
				opts = append(opts, fromenv.WithSources())
			}
			if err := fromenv.DumpEffective(cmd.Root().Writer, cfg, opts...); err != nil {
				return cli.Exit(err.Error(), 2)
			}

			if path := cmd.String("snapshot"); path != "" {
				snap, err := fromenv.CreateSnapshot(cfg)
				if err != nil {
					return err
				}
				written, err := fromenv.WriteSnapshot(snap, path)
				if err != nil {
					return err
				}
				size := "unknown size"
				if info, err := os.Stat(written); err == nil {
					size = humanize.Bytes(uint64(info.Size()))
				}
				fmt.Fprintf(cmd.Root().ErrWriter, "snapshot %s written to %s (%s, %s)\n",
					snap.ID, written, size, humanize.Time(snap.Timestamp))
			}

			return nil
		},
	}
}
