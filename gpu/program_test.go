// SPDX-License-Identifier: Unlicense OR MIT

//go:build !js
// +build !js

package gpu

import (
	"errors"
	"strings"
	"testing"

	gioshader "gioui.org/shader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glhal.org/shader"
	"glhal.org/surface"
)

const vertSrc = `#version 300 es
layout(location = 0) in vec2 pos;
void main() {
	gl_Position = vec4(pos, 0.0, 1.0);
}
`

const fragColorSrc = `#version 300 es
precision mediump float;
uniform vec4 color;
out vec4 fragColor;
void main() {
	fragColor = color;
}
`

const fragTextureSrc = `#version 300 es
precision mediump float;
uniform sampler2D tex;
out vec4 fragColor;
void main() {
	fragColor = texture(tex, vec2(0.5));
}
`

func newProgram(t *testing.T, s *Server, frag string) Program {
	t.Helper()
	p, err := s.NewProgram(ProgramSource{
		Name:     "test",
		Vertex:   shader.Source{Text: vertSrc},
		Fragment: shader.Source{Text: frag},
	})
	require.NoError(t, err)
	return p
}

func TestCompileErrorMapsLines(t *testing.T) {
	s, ctx := newServer(t, surface.Software{})
	r := shader.MapResolver{
		"shade.glsl": "vec4 shade() {\n\treturn colour;\n}\n",
	}
	frag := "#version 300 es\nprecision mediump float;\n#include \"shade.glsl\"\nout vec4 fragColor;\nvoid main() {\n\tfragColor = shade();\n}\n"
	_, err := s.NewProgram(ProgramSource{
		Name:     "broken",
		Vertex:   shader.Source{Name: "broken.vert", Text: vertSrc},
		Fragment: shader.Source{Name: "broken.frag", Text: frag},
		Resolver: r,
	})
	var cerr *ShaderCompileError
	require.True(t, errors.As(err, &cerr), "got %v", err)
	assert.Equal(t, shader.StageFragment, cerr.Stage)
	assert.Equal(t, "broken.frag", cerr.Name)
	assert.Contains(t, cerr.Diagnostic, "shade.glsl:2: 'colour' : undeclared identifier")
	assert.Equal(t, 0, ctx.GL().Live("shader"))
	assert.Equal(t, 0, ctx.GL().Live("program"))
}

func TestDefinesReachBothStages(t *testing.T) {
	s, _ := newServer(t, surface.Software{})
	frag := strings.Replace(fragColorSrc, "fragColor = color;", "fragColor = color * SCALE;", 1)
	_, err := s.NewProgram(ProgramSource{
		Name:     "scaled",
		Vertex:   shader.Source{Text: vertSrc},
		Fragment: shader.Source{Text: frag},
		Defines:  map[string]string{"SCALE": "2.0"},
	})
	assert.NoError(t, err)
}

func TestLinkError(t *testing.T) {
	s, _ := newServer(t, surface.Software{})
	frag := strings.Replace(fragColorSrc, "uniform vec4 color;", "in vec4 color;", 1)
	_, err := s.NewProgram(ProgramSource{
		Name:     "unlinked",
		Vertex:   shader.Source{Text: vertSrc},
		Fragment: shader.Source{Text: frag},
	})
	var lerr *ShaderLinkError
	require.True(t, errors.As(err, &lerr), "got %v", err)
	assert.Equal(t, "unlinked", lerr.Name)
	assert.Contains(t, lerr.Diagnostic, "'color'")
}

func TestMissingStage(t *testing.T) {
	s, _ := newServer(t, surface.Software{})
	pp, err := shader.Preprocess(shader.Source{Name: "v", Stage: shader.StageVertex, Text: vertSrc}, nil)
	require.NoError(t, err)
	_, err = s.BuildProgram(map[shader.Stage]*shader.Preprocessed{shader.StageVertex: pp})
	var rerr *ResourceCreationError
	assert.True(t, errors.As(err, &rerr), "got %v", err)
}

func TestReflection(t *testing.T) {
	s, _ := newServer(t, surface.Software{})
	frag := `#version 300 es
precision mediump float;
uniform sampler2D normals;
uniform sampler2D albedo;
uniform samplerCube env;
uniform float exposure;
uniform mat4 model;
layout(std140) uniform Lights {
	vec4 sun;
};
layout(std140) uniform Camera {
	vec4 eye;
};
out vec4 fragColor;
void main() {
	fragColor = texture(albedo, vec2(0.0)) + texture(normals, vec2(0.0)) + texture(env, vec3(0.0)) + sun + eye;
}
`
	p := newProgram(t, s, frag)
	info, err := s.ProgramInfo(p)
	require.NoError(t, err)

	assert.Equal(t, []gioshader.InputLocation{
		{Name: "pos", Location: 0, Type: gioshader.DataTypeFloat, Size: 2},
	}, info.Attributes)
	assert.Equal(t, []gioshader.TextureBinding{
		{Name: "albedo", Binding: 0},
		{Name: "env", Binding: 1},
		{Name: "normals", Binding: 2},
	}, info.Samplers)
	assert.Equal(t, []UniformBlock{
		{Name: "Camera", Binding: 0},
		{Name: "Lights", Binding: 1},
	}, info.Blocks)

	var names []string
	for _, u := range info.Uniforms {
		names = append(names, u.Name)
	}
	assert.Equal(t, []string{"albedo", "env", "exposure", "model", "normals"}, names)

	u, err := s.UniformLocation(p, "env")
	require.NoError(t, err)
	assert.Equal(t, UniformSamplerCube, u.Type)
	assert.Equal(t, 1, u.Unit)
	u, err = s.UniformLocation(p, "model")
	require.NoError(t, err)
	assert.Equal(t, UniformMat4, u.Type)
	assert.Equal(t, -1, u.Unit)
	_, err = s.UniformLocation(p, "missing")
	assert.Error(t, err)

	loc, err := s.AttribLocation(p, "pos")
	require.NoError(t, err)
	assert.Equal(t, 0, loc)
	_, err = s.AttribLocation(p, "normal")
	assert.Error(t, err)
}

func TestSetUniform(t *testing.T) {
	s, ctx := newServer(t, surface.Software{})
	p := newProgram(t, s, fragColorSrc)
	assert.Error(t, s.SetUniform(p, "color", Float(1)))
	assert.Error(t, s.SetUniform(p, "colour", Vec4{1, 0, 0, 1}))
	require.NoError(t, s.SetUniform(p, "color", Vec4{1, 0, 0, 1}))
	// Staged values are applied by the next draw only.
	assert.Equal(t, 0, ctx.GL().Count("Uniform4f"))

	tp := newProgram(t, s, fragTextureSrc)
	assert.Error(t, s.SetUniform(tp, "tex", Int(0)))

	s.DestroyProgram(p)
	assert.ErrorIs(t, s.SetUniform(p, "color", Vec4{}), ErrInvalidHandle)
	_, err := s.ProgramInfo(p)
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestMatrixUniform(t *testing.T) {
	s, ctx := newServer(t, surface.Software{})
	frag := strings.Replace(fragColorSrc, "uniform vec4 color;", "uniform vec4 color;\nuniform mat4 xform;", 1)
	p := newProgram(t, s, frag)
	m := mgl32.Translate3D(1, 2, 3)
	require.NoError(t, s.SetUniform(p, "xform", Mat4(m)))
	require.NoError(t, s.SetUniform(p, "color", Vec4{0, 0, 1, 1}))
	drawQuad(t, s, p, DrawParams{})
	obj := s.programs.Get(p.h).obj
	assert.Equal(t, m[:], ctx.GL().UniformValue(obj, "xform"))
}

func TestProgramFromSources(t *testing.T) {
	s, _ := newServer(t, surface.Software{})
	vert := gioshader.Sources{
		Name:      "blit.vert",
		GLSL100ES: vertSrc,
		GLSL150:   strings.Replace(vertSrc, "300 es", "150", 1),
		Inputs: []gioshader.InputLocation{
			{Name: "pos", Location: 0, Type: gioshader.DataTypeFloat, Size: 2},
		},
	}
	frag := gioshader.Sources{
		Name:      "blit.frag",
		GLSL100ES: fragTextureSrc,
		GLSL150:   strings.Replace(fragTextureSrc, "300 es", "150", 1),
		Textures:  []gioshader.TextureBinding{{Name: "tex", Binding: 0}},
	}
	p, err := s.NewProgramFromSources(vert, frag)
	require.NoError(t, err)
	info, err := s.ProgramInfo(p)
	require.NoError(t, err)
	assert.Equal(t, "blit", info.Name)
	assert.Equal(t, frag.Textures, info.Samplers)
}
