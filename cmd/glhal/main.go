// SPDX-License-Identifier: Unlicense OR MIT

//go:build !js && !android && !ios
// +build !js,!android,!ios

// Command glhal preprocesses, lints and renders GLSL shaders with the
// glhal.org graphics layer.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
)

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "project file with include directories and defines",
		Value: "glhal.toml",
	}
	verbosityFlag = &cli.IntFlag{
		Name:  "verbosity",
		Usage: "log level: 0=error, 1=warn, 2=info, 3=debug",
		Value: 1,
	}
	includeFlag = &cli.StringSliceFlag{
		Name:    "include",
		Aliases: []string{"I"},
		Usage:   "add a directory to the include search path",
	}
	defineFlag = &cli.StringSliceFlag{
		Name:    "define",
		Aliases: []string{"D"},
		Usage:   "define a macro, as NAME or NAME=VALUE",
	}
	backendFlag = &cli.StringFlag{
		Name:  "backend",
		Usage: "GL implementation: software or headless",
		Value: "software",
	}
	noColorFlag = &cli.BoolFlag{
		Name:  "nocolor",
		Usage: "disable colored output",
	}
)

var app = &cli.App{
	Name:  "glhal",
	Usage: "GLSL tooling for the glhal.org graphics layer",
	Flags: []cli.Flag{
		configFlag,
		verbosityFlag,
		noColorFlag,
	},
	Commands: []*cli.Command{
		preprocessCommand,
		lintCommand,
		screenshotCommand,
		capsCommand,
	},
	Before: func(ctx *cli.Context) error {
		if ctx.Bool(noColorFlag.Name) || !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			color.NoColor = true
		}
		return nil
	},
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "glhal: %v\n", err)
		os.Exit(1)
	}
}

// newLogger returns a stderr logger at the level selected by
// --verbosity.
func newLogger(ctx *cli.Context) *slog.Logger {
	level := slog.LevelError
	switch v := ctx.Int(verbosityFlag.Name); {
	case v >= 3:
		level = slog.LevelDebug
	case v == 2:
		level = slog.LevelInfo
	case v == 1:
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
