// SPDX-License-Identifier: Unlicense OR MIT

//go:build !js && !android && !ios
// +build !js,!android,!ios

package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"glhal.org/gpu"
	"glhal.org/surface"
)

const testFrag = `#version 300 es
precision mediump float;
#include "tint.glsl"
in vec2 uv;
out vec4 fragColor;
void main() {
	fragColor = TINT;
}
`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	color.NoColor = true
	return app.Run(append([]string{"glhal", "--nocolor"}, args...))
}

func TestConfig(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"glhal.toml": "Include = [\"lib\"]\nCacheSize = 8\n[Defines]\nQUALITY = \"2\"\n[Screenshot]\nWidth = 32\nHeight = 16\nScale = 0.5\n",
		"bad.toml":   "Unknown = 1\n",
	})
	var got config
	app := *app
	app.Commands = nil
	app.Flags = append(app.Flags, includeFlag, defineFlag)
	app.Action = func(ctx *cli.Context) (err error) {
		got, err = loadConfig(ctx)
		return err
	}
	require.NoError(t, app.Run([]string{"glhal", "--config", filepath.Join(dir, "glhal.toml"), "-D", "DEBUG", "-I", "extra"}))
	assert.Equal(t, []string{filepath.Join(dir, "lib"), "extra"}, got.Include)
	assert.Equal(t, map[string]string{"QUALITY": "2", "DEBUG": "1"}, got.Defines)
	assert.Equal(t, screenshotConfig{Width: 32, Height: 16, Scale: 0.5}, got.Screenshot)
	assert.Equal(t, 8, got.CacheSize)

	err := app.Run([]string{"glhal", "--config", filepath.Join(dir, "bad.toml")})
	assert.ErrorContains(t, err, "Unknown")
	err = app.Run([]string{"glhal", "--config", filepath.Join(dir, "missing.toml")})
	assert.Error(t, err)
}

func TestAnnotate(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.frag": "#version 300 es\n#include \"tint.glsl\"\nvoid main() {}\n",
		"tint.glsl": "#define TINT vec4(1.0)\n",
	})
	cfg := defaultConfig()
	pps, err := preprocessFiles(cfg, []string{filepath.Join(dir, "main.frag")})
	require.NoError(t, err)
	out := annotate(pps[0])
	assert.Contains(t, out, "#version 300 es // "+filepath.Join(dir, "main.frag")+":1\n")
	assert.Contains(t, out, "void main() {} // "+filepath.Join(dir, "main.frag")+":3\n")
}

func TestPreprocessCommand(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.frag":        testFrag,
		"b.vert":        "#version 300 es\n#ifdef WIDE\nfloat w;\n#endif\nvoid main() {}\n",
		"inc/tint.glsl": "#define TINT vec4(1.0, 0.0, 0.0, 1.0)\n",
	})
	out := filepath.Join(dir, "out")
	err := run(t, "preprocess", "-I", filepath.Join(dir, "inc"), "-D", "WIDE", "-o", out,
		filepath.Join(dir, "a.frag"), filepath.Join(dir, "b.vert"))
	require.NoError(t, err)
	a, err := os.ReadFile(filepath.Join(out, "a.frag"))
	require.NoError(t, err)
	assert.Contains(t, string(a), "#define TINT vec4(1.0, 0.0, 0.0, 1.0)")
	assert.NotContains(t, string(a), "#include")
	b, err := os.ReadFile(filepath.Join(out, "b.vert"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "float w;")
}

func TestLintFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"good.frag": testFrag,
		"bad.frag":  strings.Replace(testFrag, "fragColor = TINT;", "fragColor = TINT * shade;", 1),
		"tint.glsl": "#define TINT vec4(1.0)\n",
	})
	ctx, err := surface.NewContext(surface.Software{Width: 1, Height: 1})
	require.NoError(t, err)
	defer ctx.Release()
	color.NoColor = true
	var buf bytes.Buffer
	failed := lintFiles(&buf, ctx.Functions(), defaultConfig(), []string{
		filepath.Join(dir, "good.frag"),
		filepath.Join(dir, "bad.frag"),
	})
	assert.Equal(t, 1, failed)
	out := buf.String()
	assert.Contains(t, out, "ok   "+filepath.Join(dir, "good.frag")+" (fragment)")
	assert.Contains(t, out, "FAIL "+filepath.Join(dir, "bad.frag"))
	assert.Contains(t, out, filepath.Join(dir, "bad.frag")+":7: 'shade' : undeclared identifier")

	err = run(t, "lint", filepath.Join(dir, "bad.frag"))
	assert.ErrorContains(t, err, "1 of 1 files failed")
}

func TestScreenshot(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"red.frag":  testFrag,
		"tint.glsl": "#define TINT vec4(1.0, 0.0, 0.0, 1.0)\n",
	})
	out := filepath.Join(dir, "shot.png")
	err := run(t, "screenshot", "--width", "16", "--height", "8", "--scale", "2", "--rotate", "0", "-o", out,
		filepath.Join(dir, "red.frag"))
	require.NoError(t, err)
	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 16, img.Bounds().Dy())
	r, g, b, _ := img.At(16, 8).RGBA()
	assert.Greater(t, r, uint32(0xf000))
	assert.Less(t, g, uint32(0x1000))
	assert.Less(t, b, uint32(0x1000))
}

func TestPrintTables(t *testing.T) {
	var buf bytes.Buffer
	printCaps(&buf, gpu.Caps{Version: "OpenGL ES 3.0 softgl", Extensions: []string{"GL_b", "GL_a"}}, true)
	out := buf.String()
	assert.Contains(t, out, "OpenGL ES 3.0 softgl")
	assert.Less(t, strings.Index(out, "GL_a"), strings.Index(out, "GL_b"))

	buf.Reset()
	printStats(&buf, gpu.Stats{DrawCalls: 3, Live: map[gpu.Kind]int{gpu.KindTexture: 2, gpu.KindBuffer: 1}})
	out = buf.String()
	assert.Contains(t, out, "Draw calls")
	assert.Less(t, strings.Index(out, "Live buffer"), strings.Index(out, "Live texture"))
}
