// SPDX-License-Identifier: Unlicense OR MIT

package gpu

import (
	"errors"
	"fmt"

	"glhal.org/shader"
)

var (
	// ErrInvalidHandle is returned for handles that were never issued by
	// the server or whose resource has been destroyed.
	ErrInvalidHandle = errors.New("gpu: invalid handle")
	// ErrOutOfBounds is returned when a region or range exceeds the
	// extent of a resource.
	ErrOutOfBounds = errors.New("gpu: region out of bounds")
	// ErrContextLost is returned by every call after the GL context has
	// been lost. The server must be released and recreated from a new
	// context.
	ErrContextLost = errors.New("gpu: context lost")
	// ErrInvalidState is returned for pipeline state or topology values
	// outside their enumerations.
	ErrInvalidState = errors.New("gpu: invalid pipeline state")
	// ErrReleased is returned by every call after Release.
	ErrReleased = errors.New("gpu: server released")
	// ErrFrameOrder is returned by a BeginFrame inside a frame and by an
	// EndFrame outside one.
	ErrFrameOrder = errors.New("gpu: BeginFrame and EndFrame out of order")
)

// ResourceCreationError describes a failure to create a resource,
// either from an invalid descriptor or from the GL.
type ResourceCreationError struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *ResourceCreationError) Error() string {
	msg := fmt.Sprintf("gpu: creating %v: %s", e.Kind, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResourceCreationError) Unwrap() error {
	return e.Err
}

// ShaderCompileError is returned when a shader stage fails to compile.
// Diagnostic line references are mapped to the original files.
type ShaderCompileError struct {
	Name       string
	Stage      shader.Stage
	Diagnostic string
}

func (e *ShaderCompileError) Error() string {
	return fmt.Sprintf("gpu: compiling %s shader %q:\n%s", e.Stage, e.Name, e.Diagnostic)
}

// ShaderLinkError is returned when compiled stages fail to link.
type ShaderLinkError struct {
	Name       string
	Diagnostic string
}

func (e *ShaderLinkError) Error() string {
	return fmt.Sprintf("gpu: linking program %q:\n%s", e.Name, e.Diagnostic)
}

func createErr(k Kind, reason string) error {
	return &ResourceCreationError{Kind: k, Reason: reason}
}
