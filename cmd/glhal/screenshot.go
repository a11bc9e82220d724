// SPDX-License-Identifier: Unlicense OR MIT

//go:build !js && !android && !ios
// +build !js,!android,!ios

package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/urfave/cli/v2"
	"golang.org/x/image/draw"

	"glhal.org/gpu"
	"glhal.org/shader"
)

var (
	widthFlag = &cli.IntFlag{
		Name:  "width",
		Usage: "render width in pixels (default from the project file)",
	}
	heightFlag = &cli.IntFlag{
		Name:  "height",
		Usage: "render height in pixels (default from the project file)",
	}
	scaleFlag = &cli.Float64Flag{
		Name:  "scale",
		Usage: "resize the rendered image by this factor before saving",
	}
	rotateFlag = &cli.Float64Flag{
		Name:  "rotate",
		Usage: "rotate the quad by this many degrees through the transform uniform",
	}
	timeFlag = &cli.Float64Flag{
		Name:  "time",
		Usage: "value of the time uniform",
	}
	pngFlag = &cli.StringFlag{
		Name:    "out",
		Aliases: []string{"o"},
		Usage:   "output PNG file",
		Value:   "screenshot.png",
	}
	statsFlag = &cli.BoolFlag{
		Name:  "stats",
		Usage: "print GL call statistics of the frame",
	}
)

var screenshotCommand = &cli.Command{
	Name:      "screenshot",
	Usage:     "Render a fragment shader over a full screen quad to a PNG file",
	ArgsUsage: "<fragment> [<vertex>]",
	Flags: []cli.Flag{
		includeFlag, defineFlag, backendFlag,
		widthFlag, heightFlag, scaleFlag, rotateFlag, timeFlag, pngFlag, statsFlag,
	},
	Action: screenshot,
}

// quadVertex draws the quad of the screenshot. The header is replaced
// for desktop contexts.
const quadVertex = `#version 300 es
layout(location = 0) in vec2 pos;
uniform mat4 transform;
out vec2 uv;
void main() {
	uv = pos * 0.5 + 0.5;
	gl_Position = transform * vec4(pos, 0.0, 1.0);
}
`

func screenshot(ctx *cli.Context) error {
	if n := ctx.NArg(); n < 1 || n > 2 {
		return errors.New("specify a fragment shader and an optional vertex shader")
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	sc := cfg.Screenshot
	if ctx.IsSet(widthFlag.Name) {
		sc.Width = ctx.Int(widthFlag.Name)
	}
	if ctx.IsSet(heightFlag.Name) {
		sc.Height = ctx.Int(heightFlag.Name)
	}
	if ctx.IsSet(scaleFlag.Name) {
		sc.Scale = ctx.Float64(scaleFlag.Name)
	}
	if sc.Width <= 0 || sc.Height <= 0 || sc.Scale <= 0 {
		return fmt.Errorf("invalid size %dx%d at scale %g", sc.Width, sc.Height, sc.Scale)
	}

	sctx, err := newContext(ctx.String(backendFlag.Name), sc.Width, sc.Height)
	if err != nil {
		return err
	}
	defer sctx.Release()
	srv, err := gpu.New(sctx, gpu.WithLogger(newLogger(ctx)))
	if err != nil {
		return err
	}
	defer srv.Release()

	prog, err := loadProgram(srv, cfg, ctx.Args().Slice())
	if err != nil {
		return err
	}
	if err := setUniforms(srv, prog, sc, ctx.Float64(rotateFlag.Name), ctx.Float64(timeFlag.Name)); err != nil {
		return err
	}
	img, err := render(srv, prog, image.Pt(sc.Width, sc.Height))
	if err != nil {
		return err
	}
	if sc.Scale != 1 {
		sz := image.Pt(int(math.Round(float64(sc.Width)*sc.Scale)), int(math.Round(float64(sc.Height)*sc.Scale)))
		dst := image.NewRGBA(image.Rectangle{Max: sz})
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
		img = dst
	}
	if err := writePNG(ctx.String(pngFlag.Name), img); err != nil {
		return err
	}
	if ctx.Bool(statsFlag.Name) {
		printStats(os.Stdout, srv.Stats())
	}
	return nil
}

func loadProgram(srv *gpu.Server, cfg config, args []string) (gpu.Program, error) {
	frag, err := readSource(args[0], cfg)
	if err != nil {
		return gpu.Program{}, err
	}
	vert := shader.Source{Name: "quad.vert", Text: quadVertex}
	if !srv.Caps().ES {
		vert.Text = strings.Replace(vert.Text, "#version 300 es", "#version 330 core", 1)
	}
	if len(args) > 1 {
		if vert, err = readSource(args[1], cfg); err != nil {
			return gpu.Program{}, err
		}
	}
	r, err := cfg.resolver(".")
	if err != nil {
		return gpu.Program{}, err
	}
	return srv.NewProgram(gpu.ProgramSource{
		Name:     frag.Name,
		Vertex:   vert,
		Fragment: frag,
		Resolver: r,
		Defines:  cfg.Defines,
	})
}

// setUniforms sets the uniforms the screenshot knows about, skipping
// those the program doesn't declare.
func setUniforms(srv *gpu.Server, prog gpu.Program, sc screenshotConfig, rotate, t float64) error {
	aspect := float32(sc.Width) / float32(sc.Height)
	// Rotate in a square space so the quad keeps its shape.
	transform := mgl32.Ortho2D(-aspect, aspect, -1, 1).
		Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(float32(rotate)))).
		Mul4(mgl32.Scale3D(aspect, 1, 1))
	values := map[string]gpu.Value{
		"transform":  gpu.Mat4(transform),
		"resolution": gpu.Vec2{float32(sc.Width), float32(sc.Height)},
		"time":       gpu.Float(t),
	}
	for name, v := range values {
		u, err := srv.UniformLocation(prog, name)
		if err != nil || u.Type != v.Type() {
			continue
		}
		if err := srv.SetUniform(prog, name, v); err != nil {
			return err
		}
	}
	return nil
}

func render(srv *gpu.Server, prog gpu.Program, size image.Point) (image.Image, error) {
	quad := make([]byte, 0, 12*4)
	for _, v := range []float32{-1, -1, 1, -1, -1, 1, -1, 1, 1, -1, 1, 1} {
		quad = binary.LittleEndian.AppendUint32(quad, math.Float32bits(v))
	}
	vb, err := srv.NewBuffer(gpu.BufferDesc{Usage: gpu.BufferUsageVertex, Data: quad})
	if err != nil {
		return nil, err
	}
	defer srv.DestroyBuffer(vb)
	geom, err := srv.NewGeometry(gpu.GeometryDesc{Attributes: []gpu.VertexAttribute{
		{Name: "pos", Location: 0, Buffer: vb, Components: 2, Type: gpu.AttribFloat},
	}})
	if err != nil {
		return nil, err
	}
	defer srv.DestroyGeometry(geom)

	if err := srv.BeginFrame(); err != nil {
		return nil, err
	}
	fb := srv.SurfaceFramebuffer()
	black := color.NRGBA{A: 255}
	if err := srv.Clear(fb, gpu.ClearValues{Color: &black}); err != nil {
		return nil, err
	}
	if err := srv.Draw(fb, prog, geom, gpu.DrawParams{Count: 6}); err != nil {
		return nil, err
	}
	img, err := srv.ReadImage(fb, image.Rectangle{Max: size})
	if err != nil {
		return nil, err
	}
	return img, srv.EndFrame()
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
