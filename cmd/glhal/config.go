// SPDX-License-Identifier: Unlicense OR MIT

//go:build !js && !android && !ios
// +build !js,!android,!ios

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/urfave/cli/v2"

	"glhal.org/shader"
)

// config is the glhal.toml project file.
type config struct {
	// Include lists include directories, relative to the project file.
	Include []string
	Defines map[string]string
	// CacheSize bounds the number of cached include files.
	CacheSize  int
	Screenshot screenshotConfig
}

type screenshotConfig struct {
	Width, Height int
	// Scale resizes the rendered image before encoding.
	Scale float64
}

func defaultConfig() config {
	return config{
		Defines:    make(map[string]string),
		CacheSize:  256,
		Screenshot: screenshotConfig{Width: 256, Height: 256, Scale: 1},
	}
}

// loadConfig reads the project file named by --config, if it exists,
// and merges the command line includes and defines into it.
func loadConfig(ctx *cli.Context) (config, error) {
	cfg := defaultConfig()
	path := ctx.String(configFlag.Name)
	md, err := toml.DecodeFile(path, &cfg)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !ctx.IsSet(configFlag.Name):
	case err != nil:
		return config{}, fmt.Errorf("%s: %w", path, err)
	default:
		if undec := md.Undecoded(); len(undec) > 0 {
			return config{}, fmt.Errorf("%s: unknown keys %v", path, undec)
		}
		dir := filepath.Dir(path)
		for i, inc := range cfg.Include {
			if !filepath.IsAbs(inc) {
				cfg.Include[i] = filepath.Join(dir, inc)
			}
		}
	}
	if cfg.Defines == nil {
		cfg.Defines = make(map[string]string)
	}
	cfg.Include = append(cfg.Include, ctx.StringSlice(includeFlag.Name)...)
	for _, d := range ctx.StringSlice(defineFlag.Name) {
		name, val, _ := strings.Cut(d, "=")
		if val == "" {
			val = "1"
		}
		cfg.Defines[name] = val
	}
	return cfg, nil
}

// resolver searches the directory of the including file first, then
// the include directories in order.
func (c config) resolver(dir string) (shader.Resolver, error) {
	dirs := append([]string{dir}, c.Include...)
	r := shader.ResolverFunc(func(name string) (string, error) {
		for _, d := range dirs {
			src, err := shader.FSResolver(os.DirFS(d)).Resolve(name)
			if errors.Is(err, shader.ErrNotFound) {
				continue
			}
			return src, err
		}
		return "", fmt.Errorf("%w: %s", shader.ErrNotFound, name)
	})
	return shader.CachedResolver(r, c.CacheSize)
}

// stageOf guesses the stage of a shader file from its extension. A zero
// stage leaves the choice to a #pragma stage directive.
func stageOf(path string) shader.Stage {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	st, err := shader.ParseStage(ext)
	if err != nil {
		return 0
	}
	return st
}

func readSource(path string, cfg config) (shader.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return shader.Source{}, err
	}
	return shader.Source{
		Name:    path,
		Stage:   stageOf(path),
		Text:    string(data),
		Defines: cfg.Defines,
	}, nil
}
