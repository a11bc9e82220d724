// SPDX-License-Identifier: Unlicense OR MIT

// Package shader expands include directives and conditional blocks in
// GLSL source, keeping a map from every output line back to the file and
// line it came from.
package shader

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	lru "github.com/hashicorp/golang-lru"
)

// Stage is a programmable pipeline stage.
type Stage uint8

const (
	StageVertex Stage = iota + 1
	StageFragment
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return fmt.Sprintf("Stage(%d)", uint8(s))
	}
}

// ParseStage parses a stage name as used in #pragma stage.
func ParseStage(name string) (Stage, error) {
	switch strings.ToLower(name) {
	case "vertex", "vert", "vs":
		return StageVertex, nil
	case "fragment", "frag", "fs", "pixel":
		return StageFragment, nil
	}
	return 0, fmt.Errorf("shader: unknown stage %q", name)
}

// Source is the input to Preprocess.
type Source struct {
	// Name identifies the source in diagnostics and include chains.
	Name string
	// Stage is the target stage. A #pragma stage directive in the source
	// overrides a zero Stage.
	Stage Stage
	Text  string
	// Defines are injected after the #version line, sorted by name.
	Defines map[string]string
}

// Preprocessed is expanded source ready for compilation.
type Preprocessed struct {
	Name  string
	Stage Stage
	Text  string
	// Lines[i] is the origin of output line i+1.
	Lines []Origin
}

// Origin is a location in an input file.
type Origin struct {
	File string
	Line int
}

func (o Origin) String() string {
	return fmt.Sprintf("%s:%d", o.File, o.Line)
}

// Resolver maps an include name to source text.
type Resolver interface {
	Resolve(name string) (string, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(name string) (string, error)

func (f ResolverFunc) Resolve(name string) (string, error) {
	return f(name)
}

// ErrNotFound is returned by resolvers for unknown include names.
var ErrNotFound = errors.New("shader: include not found")

// MapResolver resolves includes from a fixed set of sources.
type MapResolver map[string]string

func (m MapResolver) Resolve(name string) (string, error) {
	if src, ok := m[name]; ok {
		return src, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

// FSResolver resolves includes from a file system.
func FSResolver(fsys fs.FS) Resolver {
	return ResolverFunc(func(name string) (string, error) {
		p := path.Clean(strings.TrimPrefix(name, "/"))
		data, err := fs.ReadFile(fsys, p)
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		if err != nil {
			return "", err
		}
		return string(data), nil
	})
}

type cachedResolver struct {
	r     Resolver
	cache *lru.Cache
}

// CachedResolver memoizes up to size resolved includes of r. The result
// is safe for concurrent use if r is.
func CachedResolver(r Resolver, size int) (Resolver, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &cachedResolver{r: r, cache: c}, nil
}

func (c *cachedResolver) Resolve(name string) (string, error) {
	if v, ok := c.cache.Get(name); ok {
		return v.(string), nil
	}
	src, err := c.r.Resolve(name)
	if err != nil {
		return "", err
	}
	c.cache.Add(name, src)
	return src, nil
}

// CyclicIncludeError reports an include chain that leads back to one of
// its own files.
type CyclicIncludeError struct {
	// Chain lists the include names from the root to the repeated file.
	Chain []string
}

func (e *CyclicIncludeError) Error() string {
	return "shader: cyclic include: " + strings.Join(e.Chain, " -> ")
}

// Error is a preprocessing failure at a source location.
type Error struct {
	Origin Origin
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Err != nil {
		if msg != "" {
			msg += ": "
		}
		msg += e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Origin, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}
