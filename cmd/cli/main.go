package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/calcgrid/internal/app"
	"github.com/vk/calcgrid/internal/cli"
)

// main is the entrypoint for the calcgrid application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// The real main function handles errors and exit codes.
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run wires the CLI configuration into an App and executes one evaluation.
func run(outW io.Writer, args []string) error {
	config, exitCleanly, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if exitCleanly {
		return nil
	}

	calcgridApp, err := app.NewApp(outW, config)
	if err != nil {
		return err
	}

	return calcgridApp.Run(context.Background())
}
