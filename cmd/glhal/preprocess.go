// SPDX-License-Identifier: Unlicense OR MIT

//go:build !js && !android && !ios
// +build !js,!android,!ios

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"glhal.org/shader"
)

var (
	outFlag = &cli.StringFlag{
		Name:    "out",
		Aliases: []string{"o"},
		Usage:   "write expanded files to this directory instead of stdout",
	}
	linesFlag = &cli.BoolFlag{
		Name:  "lines",
		Usage: "annotate every output line with its origin",
	}
)

var preprocessCommand = &cli.Command{
	Name:      "preprocess",
	Usage:     "Expand includes and conditionals of shader files",
	ArgsUsage: "<file> [<file> ...]",
	Flags:     []cli.Flag{includeFlag, defineFlag, outFlag, linesFlag},
	Action:    preprocess,
}

// preprocessFiles expands files in parallel. The results are in the
// order of paths.
func preprocessFiles(cfg config, paths []string) ([]*shader.Preprocessed, error) {
	out := make([]*shader.Preprocessed, len(paths))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			src, err := readSource(path, cfg)
			if err != nil {
				return err
			}
			r, err := cfg.resolver(filepath.Dir(path))
			if err != nil {
				return err
			}
			pp, err := shader.Preprocess(src, r)
			if err != nil {
				return err
			}
			out[i] = pp
			return nil
		})
	}
	return out, g.Wait()
}

func preprocess(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return errors.New("specify shader files")
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	pps, err := preprocessFiles(cfg, ctx.Args().Slice())
	if err != nil {
		return err
	}
	dir := ctx.String(outFlag.Name)
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	for _, pp := range pps {
		text := pp.Text
		if ctx.Bool(linesFlag.Name) {
			text = annotate(pp)
		}
		if dir == "" {
			fmt.Print(text)
			continue
		}
		dst := filepath.Join(dir, filepath.Base(pp.Name))
		if err := os.WriteFile(dst, []byte(text), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// annotate appends the origin of each line as a trailing comment.
func annotate(pp *shader.Preprocessed) string {
	var b []byte
	line := 0
	start := 0
	for i := 0; i < len(pp.Text); i++ {
		if pp.Text[i] != '\n' {
			continue
		}
		b = append(b, pp.Text[start:i]...)
		if line < len(pp.Lines) {
			b = append(b, " // "+pp.Lines[line].String()...)
		}
		b = append(b, '\n')
		line++
		start = i + 1
	}
	b = append(b, pp.Text[start:]...)
	return string(b)
}
