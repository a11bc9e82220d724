// SPDX-License-Identifier: Unlicense OR MIT

package shader

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInclude(t *testing.T) {
	r := MapResolver{
		"common.glsl": "float square(float x) {\n\treturn x * x;\n}\n",
	}
	src := Source{
		Name:  "main.frag",
		Stage: StageFragment,
		Text:  "#version 300 es\n#include \"common.glsl\"\nvoid main() {}\n",
	}
	out, err := Preprocess(src, r)
	require.NoError(t, err)
	assert.Equal(t, "#version 300 es\nfloat square(float x) {\n\treturn x * x;\n}\nvoid main() {}\n", out.Text)
	assert.Equal(t, StageFragment, out.Stage)
	assert.Equal(t, []Origin{
		{"main.frag", 1},
		{"common.glsl", 1},
		{"common.glsl", 2},
		{"common.glsl", 3},
		{"main.frag", 3},
	}, out.Lines)
}

func TestAngleInclude(t *testing.T) {
	r := MapResolver{"lib/light.glsl": "vec3 light;\n"}
	out, err := Preprocess(Source{Name: "a", Text: "#include <lib/light.glsl>\n"}, r)
	require.NoError(t, err)
	assert.Equal(t, "vec3 light;\n", out.Text)
}

func TestCyclicInclude(t *testing.T) {
	r := MapResolver{
		"a.glsl": "#include \"b.glsl\"\n",
		"b.glsl": "#include \"a.glsl\"\n",
	}
	out, err := Preprocess(Source{Name: "main", Text: "#include \"a.glsl\"\n"}, r)
	assert.Nil(t, out)
	var cerr *CyclicIncludeError
	require.True(t, errors.As(err, &cerr), "got %v", err)
	assert.Equal(t, []string{"main", "a.glsl", "b.glsl", "a.glsl"}, cerr.Chain)
}

func TestSelfInclude(t *testing.T) {
	r := MapResolver{"self.glsl": "#include \"self.glsl\"\n"}
	_, err := Preprocess(Source{Name: "main", Text: "#include \"self.glsl\"\n"}, r)
	var cerr *CyclicIncludeError
	assert.True(t, errors.As(err, &cerr))
}

func TestPragmaOnce(t *testing.T) {
	r := MapResolver{
		"util.glsl": "#pragma once\nfloat util;\n",
		"a.glsl":    "#include \"util.glsl\"\nfloat a;\n",
	}
	src := Source{Name: "main", Text: "#include \"util.glsl\"\n#include \"a.glsl\"\n"}
	out, err := Preprocess(src, r)
	require.NoError(t, err)
	assert.Equal(t, "float util;\nfloat a;\n", out.Text)
}

func TestMissingInclude(t *testing.T) {
	_, err := Preprocess(Source{Name: "main", Text: "\n#include \"nope.glsl\"\n"}, MapResolver{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, Origin{"main", 2}, perr.Origin)
}

func TestConditionals(t *testing.T) {
	text := `#define QUALITY 2
#ifdef MISSING
missing
#elif QUALITY > 1 && !defined(LOW)
high
#else
low
#endif
#ifndef LOW
#if 0
#include "never.glsl"
#else
notlow
#endif
#endif
`
	out, err := Preprocess(Source{Name: "s", Text: text}, nil)
	require.NoError(t, err)
	assert.Equal(t, "#define QUALITY 2\nhigh\nnotlow\n", out.Text)
	assert.Equal(t, []Origin{{"s", 1}, {"s", 5}, {"s", 13}}, out.Lines)
}

func TestBlockCommentedDirectives(t *testing.T) {
	r := MapResolver{"a.glsl": "float a;\n"}
	text := "/*\n#include \"missing.glsl\"\n*/\nvoid main() {} /* #include \"x\" */\n#include \"a.glsl\" /* trailing */\n/* #if 0 */ float b;\n"
	out, err := Preprocess(Source{Name: "s", Text: text}, r)
	require.NoError(t, err)
	assert.Equal(t, "/*\n#include \"missing.glsl\"\n*/\nvoid main() {} /* #include \"x\" */\nfloat a;\n/* #if 0 */ float b;\n", out.Text)
	assert.Equal(t, []Origin{{"s", 1}, {"s", 2}, {"s", 3}, {"s", 4}, {"a.glsl", 1}, {"s", 6}}, out.Lines)
}

func TestSelfReferentialMacro(t *testing.T) {
	text := "#define A A\n#if A\nyes\n#else\nno\n#endif\n"
	out, err := Preprocess(Source{Name: "s", Text: text}, nil)
	require.NoError(t, err)
	assert.Equal(t, "#define A A\nno\n", out.Text)

	defs := map[string]string{"A": "A + 1", "X": "Y + 1", "Y": "X + 1"}
	got, err := evalExpr("A", defs)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
	got, err = evalExpr("X", defs)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)
}

func TestConditionalErrors(t *testing.T) {
	for _, text := range []string{
		"#if 1\n",
		"#endif\n",
		"#else\n",
		"#if 1\n#else\n#else\n#endif\n",
		"#if (1\n#endif\n",
		"#if 1 / 0\n#endif\n",
	} {
		_, err := Preprocess(Source{Name: "s", Text: text}, nil)
		assert.Error(t, err, "%q", text)
	}
}

func TestDefinesInjected(t *testing.T) {
	src := Source{
		Name:    "s",
		Text:    "#version 330\n#ifdef SHADOWS\nshadows\n#endif\n",
		Defines: map[string]string{"SHADOWS": "", "SAMPLES": "4"},
	}
	out, err := Preprocess(src, nil)
	require.NoError(t, err)
	assert.Equal(t, "#version 330\n#define SAMPLES 4\n#define SHADOWS\nshadows\n", out.Text)
	assert.Equal(t, Origin{"<defines>", 1}, out.Lines[1])
}

func TestIdempotent(t *testing.T) {
	r := MapResolver{
		"a.glsl": "#pragma once\n#define A 1\nfloat a;\n",
		"b.glsl": "#include \"a.glsl\"\n#if A\nfloat b;\n#endif\n",
	}
	src := Source{
		Name:    "main.vert",
		Text:    "#version 300 es\n#pragma stage vertex\n#include \"b.glsl\"\n#include \"a.glsl\"\nvoid main() {}\n",
		Defines: map[string]string{"N": "3"},
	}
	first, err := Preprocess(src, r)
	require.NoError(t, err)
	second, err := Preprocess(Source{Name: first.Name, Stage: first.Stage, Text: first.Text, Defines: src.Defines}, r)
	require.NoError(t, err)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, StageVertex, second.Stage)
}

func TestPragmaStage(t *testing.T) {
	out, err := Preprocess(Source{Name: "s", Text: "#pragma stage fragment\nvoid main() {}\n"}, nil)
	require.NoError(t, err)
	assert.Equal(t, StageFragment, out.Stage)
	assert.Equal(t, "void main() {}\n", out.Text)

	_, err = Preprocess(Source{Name: "s", Stage: StageVertex, Text: "#pragma stage fragment\n"}, nil)
	assert.Error(t, err)
}

func TestMapDiagnostics(t *testing.T) {
	r := MapResolver{"inc.glsl": "float x;\nfloat y = z;\n"}
	out, err := Preprocess(Source{Name: "main.frag", Text: "#version 300 es\n#include \"inc.glsl\"\n"}, r)
	require.NoError(t, err)
	log := "ERROR: 0:3: 'z' : undeclared identifier\n0(2) : warning: unused"
	got := out.MapDiagnostics(log)
	assert.Equal(t, "ERROR: inc.glsl:2: 'z' : undeclared identifier\ninc.glsl:1 : warning: unused", got)
}

func TestLineContinuation(t *testing.T) {
	out, err := Preprocess(Source{Name: "s", Text: "#if 1 && \\\n    1\nyes\n#endif\n"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "yes\n", out.Text)
	assert.Equal(t, []Origin{{"s", 3}}, out.Lines)
}

func TestFSResolver(t *testing.T) {
	fsys := fstest.MapFS{
		"shaders/common.glsl": {Data: []byte("float common;\n")},
	}
	r, err := CachedResolver(FSResolver(fsys), 8)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		out, err := Preprocess(Source{Name: "m", Text: "#include \"shaders/common.glsl\"\n"}, r)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out.Text, "float common;"))
	}
	_, err = r.Resolve("shaders/missing.glsl")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEvalExpr(t *testing.T) {
	defs := map[string]string{"A": "3", "B": "A * 2", "EMPTY": ""}
	for _, tc := range []struct {
		expr string
		want int64
	}{
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"B == 6", 1},
		{"defined A && defined(EMPTY)", 1},
		{"UNKNOWN", 0},
		{"!0", 1},
		{"~0 & 0xff", 255},
		{"1 << 4 >> 2", 4},
		{"7 % 4 - -1", 4},
	} {
		got, err := evalExpr(tc.expr, defs)
		if assert.NoError(t, err, tc.expr) {
			assert.Equal(t, tc.want, got, tc.expr)
		}
	}
}

func TestEvalExprErrors(t *testing.T) {
	for _, expr := range []string{"", "1 +", "(1", "1 / 0", "defined(1)", "$"} {
		_, err := evalExpr(expr, nil)
		assert.Error(t, err, "%q", expr)
	}
}
