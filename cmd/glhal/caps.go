// SPDX-License-Identifier: Unlicense OR MIT

//go:build !js && !android && !ios
// +build !js,!android,!ios

package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"glhal.org/gpu"
)

var extensionsFlag = &cli.BoolFlag{
	Name:  "extensions",
	Usage: "list the extensions of the context",
}

var capsCommand = &cli.Command{
	Name:   "caps",
	Usage:  "Print the capabilities of a GL context",
	Flags:  []cli.Flag{backendFlag, extensionsFlag},
	Action: caps,
}

func caps(ctx *cli.Context) error {
	sctx, err := newContext(ctx.String(backendFlag.Name), 1, 1)
	if err != nil {
		return err
	}
	defer sctx.Release()
	srv, err := gpu.New(sctx, gpu.WithLogger(newLogger(ctx)))
	if err != nil {
		return err
	}
	defer srv.Release()
	printCaps(os.Stdout, srv.Caps(), ctx.Bool(extensionsFlag.Name))
	return nil
}

func printCaps(w io.Writer, c gpu.Caps, extensions bool) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Capability", "Value"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk([][]string{
		{"Version", c.Version},
		{"Renderer", c.Renderer},
		{"ES", strconv.FormatBool(c.ES)},
		{"Max texture size", strconv.Itoa(c.MaxTextureSize)},
		{"Texture units", strconv.Itoa(c.MaxTextureUnits)},
		{"Vertex attributes", strconv.Itoa(c.MaxVertexAttribs)},
		{"Uniform buffer bindings", strconv.Itoa(c.MaxUniformBufferBindings)},
		{"Color attachments", strconv.Itoa(c.MaxColorAttachments)},
		{"Samples", strconv.Itoa(c.MaxSamples)},
		{"Anisotropy", strconv.FormatFloat(float64(c.MaxAnisotropy), 'g', -1, 32)},
		{"Fences", strconv.FormatBool(c.Fences)},
		{"Float render targets", strconv.FormatBool(c.FloatRenderTargets)},
		{"Extensions", strconv.Itoa(len(c.Extensions))},
	})
	table.Render()
	if !extensions {
		return
	}
	exts := slices.Clone(c.Extensions)
	slices.Sort(exts)
	for _, e := range exts {
		fmt.Fprintln(w, e)
	}
}

func printStats(w io.Writer, s gpu.Stats) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Counter", "Value"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.Append([]string{"State changes issued", strconv.Itoa(s.Issued)})
	table.Append([]string{"State changes skipped", strconv.Itoa(s.Skipped)})
	table.Append([]string{"Draw calls", strconv.Itoa(s.DrawCalls)})
	table.Append([]string{"Frames", strconv.FormatUint(s.Frames, 10)})
	table.Append([]string{"Pending releases", strconv.Itoa(s.PendingReleases)})
	kinds := maps.Keys(s.Live)
	slices.Sort(kinds)
	for _, k := range kinds {
		table.Append([]string{"Live " + k.String(), strconv.Itoa(s.Live[k])})
	}
	table.Render()
}
