// SPDX-License-Identifier: Unlicense OR MIT

package shader

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var (
	directiveRe  = regexp.MustCompile(`^\s*#\s*([A-Za-z_]+)\b\s*(.*?)\s*$`)
	includeArgRe = regexp.MustCompile(`^(?:"([^"]+)"|<([^>]+)>)$`)
	defineArgRe  = regexp.MustCompile(`^([A-Za-z_]\w*)(\([^)]*\))?\s*(.*)$`)
	diagRe       = regexp.MustCompile(`\b0[:(](\d+)\)?`)
)

const maxIncludeDepth = 64

type preprocessor struct {
	r       Resolver
	out     []string
	lines   []Origin
	stage   Stage
	once    map[string]bool
	stack   []string
	defines map[string]string
}

// cond is an open conditional block.
type cond struct {
	// active is set when lines in the current branch are emitted.
	active bool
	// taken is set once any branch of the block was active.
	taken bool
	// parent reports whether the enclosing block is active.
	parent  bool
	sawElse bool
	origin  Origin
}

// Preprocess expands src. Includes are resolved through r, which may be
// nil if src has no includes. Conditional blocks are evaluated and
// removed; #define and #undef lines are kept for the GLSL compiler.
//
// Preprocess is safe for concurrent use if r is.
func Preprocess(src Source, r Resolver) (*Preprocessed, error) {
	p := &preprocessor{
		r:       r,
		stage:   src.Stage,
		once:    make(map[string]bool),
		defines: make(map[string]string),
	}
	name := src.Name
	if name == "" {
		name = "<source>"
	}
	if err := p.file(name, src.Text, src.Defines); err != nil {
		return nil, err
	}
	text := strings.Join(p.out, "\n")
	if len(p.out) > 0 {
		text += "\n"
	}
	return &Preprocessed{Name: name, Stage: p.stage, Text: text, Lines: p.lines}, nil
}

func (p *preprocessor) emit(line string, o Origin) {
	p.out = append(p.out, line)
	p.lines = append(p.lines, o)
}

// splitLines splits text into logical lines, joining lines ending in a
// backslash. Each logical line carries the number of its first physical
// line.
func splitLines(text string) ([]string, []int) {
	phys := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if n := len(phys); n > 0 && phys[n-1] == "" {
		phys = phys[:n-1]
	}
	var lines []string
	var nums []int
	for i := 0; i < len(phys); i++ {
		start := i
		l := phys[i]
		for strings.HasSuffix(l, "\\") && i+1 < len(phys) {
			i++
			l = strings.TrimSuffix(l, "\\") + phys[i]
		}
		lines = append(lines, l)
		nums = append(nums, start+1)
	}
	return lines, nums
}

// file expands one file. injected is non-nil only for the root file.
func (p *preprocessor) file(name, text string, injected map[string]string) error {
	if slices.Contains(p.stack, name) {
		chain := append(append([]string(nil), p.stack...), name)
		return &CyclicIncludeError{Chain: chain}
	}
	if len(p.stack) >= maxIncludeDepth {
		return &Error{Origin: Origin{File: name, Line: 1}, Msg: "include nesting too deep"}
	}
	p.stack = append(p.stack, name)
	defer func() { p.stack = p.stack[:len(p.stack)-1] }()

	lines, nums := splitLines(text)
	views := stripBlockComments(lines)
	var conds []*cond
	active := func() bool {
		return len(conds) == 0 || conds[len(conds)-1].active
	}
	injectAt := -1
	if injected != nil {
		injectAt = 0
		for i, l := range views {
			if m := directiveRe.FindStringSubmatch(l); m != nil && m[1] == "version" {
				injectAt = i + 1
				break
			}
		}
	}
	for i, line := range lines {
		if i == injectAt {
			p.inject(injected, views)
		}
		o := Origin{File: name, Line: nums[i]}
		m := directiveRe.FindStringSubmatch(views[i])
		if m == nil {
			if active() {
				p.emit(line, o)
			}
			continue
		}
		dir, arg := m[1], stripComment(m[2])
		switch dir {
		case "if", "ifdef", "ifndef":
			c := &cond{parent: active(), origin: o}
			if c.parent {
				v, err := p.condition(dir, arg, o)
				if err != nil {
					return err
				}
				c.active, c.taken = v, v
			}
			conds = append(conds, c)
			continue
		case "elif":
			if len(conds) == 0 {
				return &Error{Origin: o, Msg: "#elif without #if"}
			}
			c := conds[len(conds)-1]
			if c.sawElse {
				return &Error{Origin: o, Msg: "#elif after #else"}
			}
			c.active = false
			if c.parent && !c.taken {
				v, err := p.condition("if", arg, o)
				if err != nil {
					return err
				}
				c.active, c.taken = v, v
			}
			continue
		case "else":
			if len(conds) == 0 {
				return &Error{Origin: o, Msg: "#else without #if"}
			}
			c := conds[len(conds)-1]
			if c.sawElse {
				return &Error{Origin: o, Msg: "duplicate #else"}
			}
			c.sawElse = true
			c.active = c.parent && !c.taken
			c.taken = true
			continue
		case "endif":
			if len(conds) == 0 {
				return &Error{Origin: o, Msg: "#endif without #if"}
			}
			conds = conds[:len(conds)-1]
			continue
		}
		if !active() {
			continue
		}
		switch dir {
		case "include":
			im := includeArgRe.FindStringSubmatch(arg)
			if im == nil {
				return &Error{Origin: o, Msg: fmt.Sprintf("malformed #include %s", arg)}
			}
			inc := im[1] + im[2]
			if p.once[inc] {
				continue
			}
			if p.r == nil {
				return &Error{Origin: o, Msg: "#include " + inc, Err: ErrNotFound}
			}
			if slices.Contains(p.stack, inc) {
				return &CyclicIncludeError{Chain: append(append([]string(nil), p.stack...), inc)}
			}
			src, err := p.r.Resolve(inc)
			if err != nil {
				return &Error{Origin: o, Msg: "#include " + inc, Err: err}
			}
			if err := p.file(inc, src, nil); err != nil {
				return err
			}
		case "pragma":
			fields := strings.Fields(arg)
			switch {
			case len(fields) == 1 && fields[0] == "once":
				p.once[name] = true
			case len(fields) == 2 && fields[0] == "stage":
				s, err := ParseStage(fields[1])
				if err != nil {
					return &Error{Origin: o, Err: err}
				}
				if p.stage != 0 && p.stage != s {
					return &Error{Origin: o, Msg: fmt.Sprintf("#pragma stage %s conflicts with stage %s", s, p.stage)}
				}
				p.stage = s
			default:
				p.emit(line, o)
			}
		case "version":
			// Only the root file keeps its #version.
			if len(p.stack) == 1 {
				p.emit(line, o)
			}
		case "define":
			dm := defineArgRe.FindStringSubmatch(arg)
			if dm == nil {
				return &Error{Origin: o, Msg: "malformed #define"}
			}
			p.defines[dm[1]] = dm[3]
			p.emit(line, o)
		case "undef":
			delete(p.defines, strings.TrimSpace(arg))
			p.emit(line, o)
		default:
			p.emit(line, o)
		}
	}
	if injectAt == len(lines) {
		p.inject(injected, views)
	}
	if len(conds) > 0 {
		return &Error{Origin: conds[len(conds)-1].origin, Msg: "unterminated conditional"}
	}
	return nil
}

// inject emits #define lines for defs, skipping names that lines
// already define to the same value. This keeps a second pass over the
// output from injecting the defines twice.
func (p *preprocessor) inject(defs map[string]string, lines []string) {
	existing := make(map[string]string)
	for _, l := range lines {
		m := directiveRe.FindStringSubmatch(l)
		if m == nil || m[1] != "define" {
			continue
		}
		if dm := defineArgRe.FindStringSubmatch(stripComment(m[2])); dm != nil {
			existing[dm[1]] = dm[3]
		}
	}
	names := maps.Keys(defs)
	slices.Sort(names)
	n := 0
	for _, name := range names {
		v := defs[name]
		if cur, ok := existing[name]; ok && cur == v {
			continue
		}
		line := "#define " + name
		if v != "" {
			line += " " + v
		}
		p.defines[name] = v
		n++
		p.emit(line, Origin{File: "<defines>", Line: n})
	}
}

// stripBlockComments returns lines with the contents of /* */ comments
// replaced by a space. Comments may span lines; the line count is
// unchanged.
func stripBlockComments(lines []string) []string {
	out := make([]string, len(lines))
	inBlock := false
	for i, l := range lines {
		var b strings.Builder
		for len(l) > 0 {
			if inBlock {
				end := strings.Index(l, "*/")
				if end < 0 {
					l = ""
					break
				}
				l = l[end+2:]
				inBlock = false
				b.WriteByte(' ')
				continue
			}
			start := strings.Index(l, "/*")
			if lc := strings.Index(l, "//"); lc >= 0 && (start < 0 || lc < start) {
				b.WriteString(l)
				break
			}
			if start < 0 {
				b.WriteString(l)
				break
			}
			b.WriteString(l[:start])
			l = l[start+2:]
			inBlock = true
		}
		out[i] = b.String()
	}
	return out
}

func stripComment(s string) string {
	if i := strings.Index(s, "//"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func (p *preprocessor) condition(dir, arg string, o Origin) (bool, error) {
	switch dir {
	case "ifdef", "ifndef":
		name := strings.TrimSpace(arg)
		if !identRe.MatchString(name) {
			return false, &Error{Origin: o, Msg: fmt.Sprintf("#%s expects an identifier", dir)}
		}
		_, ok := p.defines[name]
		return ok == (dir == "ifdef"), nil
	}
	v, err := evalExpr(arg, p.defines)
	if err != nil {
		return false, &Error{Origin: o, Msg: "#if " + arg, Err: err}
	}
	return v != 0, nil
}

// MapDiagnostics rewrites references to output lines in a compiler log,
// such as "0:12" or "0(12)", to the file and line they came from.
func (p *Preprocessed) MapDiagnostics(log string) string {
	return diagRe.ReplaceAllStringFunc(log, func(ref string) string {
		m := diagRe.FindStringSubmatch(ref)
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > len(p.Lines) {
			return ref
		}
		return p.Lines[n-1].String()
	})
}
