// SPDX-License-Identifier: Unlicense OR MIT

package gl

import (
	"errors"
	"fmt"
	"strings"
)

// Version is a parsed GL_VERSION string.
type Version struct {
	Major, Minor int
	// ES is set for OpenGL ES and WebGL contexts.
	ES bool
}

// AtLeast reports whether v is major.minor or newer.
func (v Version) AtLeast(major, minor int) bool {
	return v.Major > major || (v.Major == major && v.Minor >= minor)
}

func (v Version) String() string {
	if v.ES {
		return fmt.Sprintf("OpenGL ES %d.%d", v.Major, v.Minor)
	}
	return fmt.Sprintf("OpenGL %d.%d", v.Major, v.Minor)
}

// ParseGLVersion parses the GL_VERSION string returned by desktop GL,
// GL ES and WebGL.
func ParseGLVersion(glVer string) (Version, error) {
	var ver Version
	if _, err := fmt.Sscanf(glVer, "OpenGL ES %d.%d", &ver.Major, &ver.Minor); err == nil {
		ver.ES = true
		return ver, nil
	} else if _, err := fmt.Sscanf(glVer, "WebGL %d.%d", &ver.Major, &ver.Minor); err == nil {
		// WebGL major version v corresponds to OpenGL ES version v + 1
		ver.Major++
		ver.ES = true
		return ver, nil
	} else if _, err := fmt.Sscanf(glVer, "%d.%d", &ver.Major, &ver.Minor); err == nil {
		return ver, nil
	}
	return ver, fmt.Errorf("failed to parse OpenGL version (%s)", glVer)
}

// Extensions returns the extension list of the current context.
func Extensions(f Functions) []string {
	return strings.Fields(f.GetString(EXTENSIONS))
}

func HasExtension(exts []string, ext string) bool {
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// CreateShader compiles src as a shader of type typ. On failure the shader
// is deleted and the trimmed info log is returned along with the error.
func CreateShader(f Functions, typ Enum, src string) (Shader, string, error) {
	sh := f.CreateShader(typ)
	if !sh.Valid() {
		return Shader{}, "", errors.New("glCreateShader failed")
	}
	f.ShaderSource(sh, src)
	f.CompileShader(sh)
	if f.GetShaderi(sh, COMPILE_STATUS) == 0 {
		log := strings.TrimSpace(f.GetShaderInfoLog(sh))
		f.DeleteShader(sh)
		return Shader{}, log, errors.New("shader compilation failed")
	}
	return sh, "", nil
}

// LinkProgram links the shaders into a new program object. Attribute
// locations in attribs are bound before linking. On failure the program
// is deleted and the trimmed info log is returned along with the error.
func LinkProgram(f Functions, shaders []Shader, attribs map[string]int) (Program, string, error) {
	prog := f.CreateProgram()
	if !prog.Valid() {
		return Program{}, "", errors.New("glCreateProgram failed")
	}
	for _, s := range shaders {
		f.AttachShader(prog, s)
	}
	for name, loc := range attribs {
		f.BindAttribLocation(prog, Attrib(loc), name)
	}
	f.LinkProgram(prog)
	if f.GetProgrami(prog, LINK_STATUS) == 0 {
		log := strings.TrimSpace(f.GetProgramInfoLog(prog))
		f.DeleteProgram(prog)
		return Program{}, log, errors.New("program link failed")
	}
	return prog, "", nil
}

// ErrorString names a glGetError code.
func ErrorString(code Enum) string {
	switch code {
	case NO_ERROR:
		return "GL_NO_ERROR"
	case INVALID_ENUM:
		return "GL_INVALID_ENUM"
	case INVALID_VALUE:
		return "GL_INVALID_VALUE"
	case INVALID_OPERATION:
		return "GL_INVALID_OPERATION"
	case OUT_OF_MEMORY:
		return "GL_OUT_OF_MEMORY"
	case CONTEXT_LOST:
		return "GL_CONTEXT_LOST"
	default:
		return fmt.Sprintf("0x%x", uint(code))
	}
}
