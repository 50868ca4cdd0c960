// Command envdoc documents and checks the environment variables read by the
// telemetry bootstrap.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

var ctx = context.Background()

func main() {
	os.Exit(realMain())
}

func realMain() int {
	return run(ctx, os.Args, os.Stdout, os.Stderr)
}

// run executes the app and returns the process exit code: 0 on success, the
// code carried by a cli.ExitCoder, or 2 for any other failure.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) <= 1 {
		args = append(args, "--help")
	}

	app := newApp(stdout, stderr)
	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(stderr, err)

		var ec exitCoder
		if errors.As(err, &ec) {
			return ec.ExitCode()
		}
		return 2
	}

	return 0
}

type exitCoder interface {
	ExitCode() int
}
