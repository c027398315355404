package router

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// TokenKind is the kind of a compiled pattern token
type TokenKind int

const (
	// LiteralToken matches its text case-insensitively
	LiteralToken TokenKind = iota
	// ParamToken captures one or more characters other than '/'
	ParamToken
	// WildcardToken captures the rest of the path, possibly empty
	WildcardToken
)

// Token is one piece of a compiled path pattern
type Token struct {
	Kind     TokenKind
	Text     string // literal text
	Name     string // parameter name, or the positional index of a wildcard
	Prefix   string // "/" that precedes a parameter, if any
	Optional bool   // the parameter and its prefix may be absent
}

// Pattern is a compiled path template.
//
// Templates are made of literal text, named parameters (":id"), optional
// parameters (":id?", whose leading '/' is optional too) and wildcards ("*")
// that capture under the keys "0", "1", ... in order.
type Pattern struct {
	raw    string
	tokens []Token
	keys   []string
}

// CompilePattern compiles a path template
func CompilePattern(pattern string) (*Pattern, error) {
	p := &Pattern{raw: pattern}
	var literal strings.Builder
	wildcards := 0

	flush := func() {
		if literal.Len() > 0 {
			p.tokens = append(p.tokens, Token{Kind: LiteralToken, Text: literal.String()})
			literal.Reset()
		}
	}

	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '\\' && i+1 < len(pattern):
			i++
			literal.WriteByte(pattern[i])

		case c == ':' && i+1 < len(pattern) && isNameChar(pattern[i+1]):
			j := i + 1
			for j < len(pattern) && isNameChar(pattern[j]) {
				j++
			}
			tok := Token{Kind: ParamToken, Name: pattern[i+1 : j]}
			if s := literal.String(); strings.HasSuffix(s, "/") {
				literal.Reset()
				literal.WriteString(s[:len(s)-1])
				tok.Prefix = "/"
			}
			if j < len(pattern) && pattern[j] == '?' {
				tok.Optional = true
				j++
			}
			for _, key := range p.keys {
				if key == tok.Name {
					return nil, fmt.Errorf("pattern %q: duplicate parameter %q", pattern, tok.Name)
				}
			}
			flush()
			p.tokens = append(p.tokens, tok)
			p.keys = append(p.keys, tok.Name)
			i = j - 1

		case c == '*':
			flush()
			name := strconv.Itoa(wildcards)
			wildcards++
			p.tokens = append(p.tokens, Token{Kind: WildcardToken, Name: name})
			p.keys = append(p.keys, name)

		default:
			literal.WriteByte(c)
		}
	}
	flush()

	// a trailing slash on the template is optional, like one on the path
	if n := len(p.tokens); n > 0 && p.tokens[n-1].Kind == LiteralToken {
		last := &p.tokens[n-1]
		if len(last.Text) > 1 || n > 1 {
			last.Text = strings.TrimSuffix(last.Text, "/")
			if last.Text == "" {
				p.tokens = p.tokens[:n-1]
			}
		}
	}

	return p, nil
}

// MustCompilePattern is like CompilePattern but panics on error
func MustCompilePattern(pattern string) *Pattern {
	p, err := CompilePattern(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the template the pattern was compiled from
func (p *Pattern) String() string {
	return p.raw
}

// Tokens returns the compiled tokens in template order
func (p *Pattern) Tokens() []Token {
	return p.tokens
}

// Keys returns the capture names in template order
func (p *Pattern) Keys() []string {
	return p.keys
}

// Match tests path against the pattern. The returned values are raw (still
// percent-encoded) and only hold captures that matched; the second result
// is the matched path.
func (p *Pattern) Match(path string) (map[string]string, string, bool) {
	m := &matcher{pattern: p, path: path, values: make([]string, len(p.keys)), set: make([]bool, len(p.keys))}
	end, ok := m.match(0, 0, 0)
	if !ok {
		return nil, "", false
	}

	captures := make(map[string]string, len(p.keys))
	for i, key := range p.keys {
		if m.set[i] {
			captures[key] = m.values[i]
		}
	}
	return captures, path[:end], true
}

type matcher struct {
	pattern *Pattern
	path    string
	values  []string
	set     []bool
}

// match tries token ti at path offset pi; ki is the index of the next capture key.
// It returns the end of the matched path.
func (m *matcher) match(ti, pi, ki int) (int, bool) {
	tokens := m.pattern.tokens
	path := m.path

	if ti == len(tokens) {
		rest := path[pi:]
		if rest == "" {
			return pi, true
		}
		if rest == "/" {
			return len(path), true
		}
		return 0, false
	}

	tok := tokens[ti]
	switch tok.Kind {
	case LiteralToken:
		end := pi + len(tok.Text)
		if end > len(path) || !strings.EqualFold(path[pi:end], tok.Text) {
			return 0, false
		}
		return m.match(ti+1, end, ki)

	case ParamToken:
		if end, ok := m.matchParam(tok, ti, pi, ki); ok {
			return end, true
		}
		if tok.Optional {
			m.set[ki] = false
			return m.match(ti+1, pi, ki+1)
		}
		return 0, false

	case WildcardToken:
		for end := len(path); end >= pi; end-- {
			m.values[ki], m.set[ki] = path[pi:end], true
			if e, ok := m.match(ti+1, end, ki+1); ok {
				return e, true
			}
		}
		m.set[ki] = false
		return 0, false
	}

	return 0, false
}

// matchParam captures the shortest run of non-'/' characters that lets the
// rest of the pattern match
func (m *matcher) matchParam(tok Token, ti, pi, ki int) (int, bool) {
	path := m.path
	start := pi
	if tok.Prefix != "" {
		if !strings.HasPrefix(path[pi:], tok.Prefix) {
			return 0, false
		}
		start += len(tok.Prefix)
	}

	for end := start + 1; end <= len(path) && path[end-1] != '/'; end++ {
		m.values[ki], m.set[ki] = path[start:end], true
		if e, ok := m.match(ti+1, end, ki+1); ok {
			return e, true
		}
	}
	m.set[ki] = false
	return 0, false
}

// Render builds a path from parameter values. Values are path-escaped;
// wildcard values keep their '/' separators.
func (p *Pattern) Render(values map[string]string) (string, error) {
	var b strings.Builder
	for _, tok := range p.tokens {
		switch tok.Kind {
		case LiteralToken:
			b.WriteString(tok.Text)
		case ParamToken:
			v, ok := values[tok.Name]
			if !ok || v == "" {
				if tok.Optional {
					continue
				}
				return "", fmt.Errorf("%w %q for %s", ErrMissingParam, tok.Name, p.raw)
			}
			b.WriteString(tok.Prefix)
			b.WriteString(url.PathEscape(v))
		case WildcardToken:
			segments := strings.Split(values[tok.Name], "/")
			for i, s := range segments {
				segments[i] = url.PathEscape(s)
			}
			b.WriteString(strings.Join(segments, "/"))
		}
	}
	if b.Len() == 0 {
		return "/", nil
	}
	return b.String(), nil
}

func isNameChar(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}
