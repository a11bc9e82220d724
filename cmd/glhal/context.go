// SPDX-License-Identifier: Unlicense OR MIT

//go:build !js && !android && !ios
// +build !js,!android,!ios

package main

import (
	"fmt"

	"glhal.org/surface"
)

// newContext creates a context without a visible window.
func newContext(backend string, width, height int) (surface.Context, error) {
	switch backend {
	case "software":
		return surface.NewContext(surface.Software{Width: width, Height: height})
	case "headless":
		return surface.NewContext(surface.Headless{Width: width, Height: height})
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}
