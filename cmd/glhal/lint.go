// SPDX-License-Identifier: Unlicense OR MIT

//go:build !js && !android && !ios
// +build !js,!android,!ios

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v2"

	"glhal.org/internal/gl"
	"glhal.org/shader"
)

var watchFlag = &cli.BoolFlag{
	Name:  "watch",
	Usage: "lint again whenever a shader or include directory changes",
}

var lintCommand = &cli.Command{
	Name:      "lint",
	Usage:     "Compile shader files and report diagnostics against their sources",
	ArgsUsage: "<file> [<file> ...]",
	Flags:     []cli.Flag{includeFlag, defineFlag, backendFlag, watchFlag},
	Action:    lint,
}

var (
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed, color.Bold)
	diagColor = color.New(color.FgYellow)
)

func lint(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return errors.New("specify shader files")
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	paths := ctx.Args().Slice()
	sctx, err := newContext(ctx.String(backendFlag.Name), 1, 1)
	if err != nil {
		return err
	}
	defer sctx.Release()
	failed := lintFiles(os.Stdout, sctx.Functions(), cfg, paths)
	if !ctx.Bool(watchFlag.Name) {
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, len(paths))
		}
		return nil
	}
	return watch(cfg, paths, func() {
		lintFiles(os.Stdout, sctx.Functions(), cfg, paths)
	})
}

// lintFiles compiles every file and returns the number of failures.
func lintFiles(w io.Writer, f gl.Functions, cfg config, paths []string) int {
	failed := 0
	pps, err := preprocessFiles(cfg, paths)
	if err != nil {
		failColor.Fprintf(w, "FAIL ")
		fmt.Fprintln(w, err)
		return len(paths)
	}
	for _, pp := range pps {
		if err := compileStage(f, pp); err != nil {
			failed++
			failColor.Fprintf(w, "FAIL ")
			fmt.Fprintln(w, pp.Name)
			for _, line := range strings.Split(strings.TrimSpace(err.Error()), "\n") {
				diagColor.Fprintf(w, "    %s\n", line)
			}
			continue
		}
		okColor.Fprintf(w, "ok   ")
		fmt.Fprintf(w, "%s (%s)\n", pp.Name, pp.Stage)
	}
	return failed
}

func compileStage(f gl.Functions, pp *shader.Preprocessed) error {
	var typ gl.Enum
	switch pp.Stage {
	case shader.StageVertex:
		typ = gl.VERTEX_SHADER
	case shader.StageFragment:
		typ = gl.FRAGMENT_SHADER
	default:
		return errors.New("unknown stage; use a .vert or .frag extension or #pragma stage")
	}
	sh, log, err := gl.CreateShader(f, typ, pp.Text)
	if err != nil {
		if log == "" {
			return err
		}
		return errors.New(pp.MapDiagnostics(log))
	}
	f.DeleteShader(sh)
	return nil
}

// watch calls fn after changes to the directories of paths or the
// include directories, until the watcher fails.
func watch(cfg config, paths []string, fn func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	dirs := make(map[string]bool)
	for _, p := range paths {
		dirs[filepath.Dir(p)] = true
	}
	for _, d := range cfg.Include {
		dirs[d] = true
	}
	for d := range dirs {
		if err := w.Add(d); err != nil {
			return err
		}
	}
	// Editors write files in bursts; lint once per burst.
	const settle = 100 * time.Millisecond
	var timer <-chan time.Time
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				timer = time.After(settle)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return err
		case <-timer:
			timer = nil
			fmt.Fprintf(os.Stdout, "\n%s\n", time.Now().Format("15:04:05"))
			fn()
		}
	}
}
