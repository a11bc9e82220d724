// SPDX-License-Identifier: Unlicense OR MIT

package shader

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
)

var (
	identRe    = regexp.MustCompile(`^[A-Za-z_]\w*$`)
	exprTokRe  = regexp.MustCompile(`\s*(?:([A-Za-z_]\w*)|(0[xX][0-9a-fA-F]+|\d+)[uUlL]*|(&&|\|\||==|!=|<=|>=|<<|>>|[-+*/%()!~<>&|^]))`)
	errSyntax  = errors.New("syntax error")
	errDivZero = errors.New("division by zero")
)

// exprParser evaluates #if expressions with C preprocessor semantics:
// defined(NAME), integer literals, and the unary, arithmetic, shift,
// relational, bitwise and logical operators. Macros expand to their
// integer value; unknown identifiers evaluate to 0. A macro is not
// expanded again inside its own expansion, so it evaluates to 0 there.
type exprParser struct {
	toks    []string
	pos     int
	defines map[string]string
	// expanding lists the macros being expanded, outermost first.
	expanding []string
}

func tokenizeExpr(s string) ([]string, error) {
	var toks []string
	for len(s) > 0 {
		m := exprTokRe.FindStringSubmatchIndex(s)
		if m == nil || m[0] != 0 {
			if isSpace(s) {
				break
			}
			return nil, fmt.Errorf("unexpected %q", s)
		}
		var tok string
		switch {
		case m[2] >= 0:
			tok = s[m[2]:m[3]]
		case m[4] >= 0:
			tok = s[m[4]:m[5]]
		default:
			tok = s[m[6]:m[7]]
		}
		toks = append(toks, tok)
		s = s[m[1]:]
	}
	return toks, nil
}

func isSpace(s string) bool {
	for _, c := range s {
		if c != ' ' && c != '\t' {
			return false
		}
	}
	return true
}

func evalExpr(s string, defines map[string]string) (int64, error) {
	return evalExpanding(s, defines, nil)
}

func evalExpanding(s string, defines map[string]string, expanding []string) (int64, error) {
	if len(expanding) > 32 {
		return 0, errors.New("macro expansion too deep")
	}
	toks, err := tokenizeExpr(s)
	if err != nil {
		return 0, err
	}
	if len(toks) == 0 {
		return 0, errors.New("empty expression")
	}
	p := &exprParser{toks: toks, defines: defines, expanding: expanding}
	v, err := p.binary(0)
	if err != nil {
		return 0, err
	}
	if p.pos != len(p.toks) {
		return 0, fmt.Errorf("unexpected %q", p.toks[p.pos])
	}
	return v, nil
}

func (p *exprParser) peek() string {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return ""
}

func (p *exprParser) next() string {
	t := p.peek()
	if t != "" {
		p.pos++
	}
	return t
}

var precedence = map[string]int{
	"||": 1,
	"&&": 2,
	"|":  3,
	"^":  4,
	"&":  5,
	"==": 6, "!=": 6,
	"<": 7, ">": 7, "<=": 7, ">=": 7,
	"<<": 8, ">>": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "%": 10,
}

func (p *exprParser) binary(minPrec int) (int64, error) {
	lhs, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		op := p.peek()
		prec, ok := precedence[op]
		if !ok || prec <= minPrec {
			return lhs, nil
		}
		p.next()
		rhs, err := p.binary(prec)
		if err != nil {
			return 0, err
		}
		lhs, err = apply(op, lhs, rhs)
		if err != nil {
			return 0, err
		}
	}
}

func apply(op string, a, b int64) (int64, error) {
	bool2int := func(v bool) int64 {
		if v {
			return 1
		}
		return 0
	}
	switch op {
	case "||":
		return bool2int(a != 0 || b != 0), nil
	case "&&":
		return bool2int(a != 0 && b != 0), nil
	case "|":
		return a | b, nil
	case "^":
		return a ^ b, nil
	case "&":
		return a & b, nil
	case "==":
		return bool2int(a == b), nil
	case "!=":
		return bool2int(a != b), nil
	case "<":
		return bool2int(a < b), nil
	case ">":
		return bool2int(a > b), nil
	case "<=":
		return bool2int(a <= b), nil
	case ">=":
		return bool2int(a >= b), nil
	case "<<":
		return a << uint64(b&63), nil
	case ">>":
		return a >> uint64(b&63), nil
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/", "%":
		if b == 0 {
			return 0, errDivZero
		}
		if op == "/" {
			return a / b, nil
		}
		return a % b, nil
	}
	return 0, errSyntax
}

func (p *exprParser) unary() (int64, error) {
	switch t := p.next(); t {
	case "":
		return 0, errors.New("unexpected end of expression")
	case "!":
		v, err := p.unary()
		if v == 0 {
			return 1, err
		}
		return 0, err
	case "~":
		v, err := p.unary()
		return ^v, err
	case "-":
		v, err := p.unary()
		return -v, err
	case "+":
		return p.unary()
	case "(":
		v, err := p.binary(0)
		if err != nil {
			return 0, err
		}
		if p.next() != ")" {
			return 0, errors.New("missing )")
		}
		return v, nil
	case "defined":
		paren := p.peek() == "("
		if paren {
			p.next()
		}
		name := p.next()
		if !identRe.MatchString(name) {
			return 0, errors.New("defined expects an identifier")
		}
		if paren && p.next() != ")" {
			return 0, errors.New("missing ) after defined")
		}
		if _, ok := p.defines[name]; ok {
			return 1, nil
		}
		return 0, nil
	default:
		if identRe.MatchString(t) {
			val, ok := p.defines[t]
			if !ok || val == "" || slices.Contains(p.expanding, t) {
				return 0, nil
			}
			return evalExpanding(val, p.defines, append(p.expanding[:len(p.expanding):len(p.expanding)], t))
		}
		v, err := strconv.ParseInt(t, 0, 64)
		if err != nil {
			return 0, fmt.Errorf("bad number %q", t)
		}
		return v, nil
	}
}
