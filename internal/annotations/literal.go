package annotations

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// literalValue is the root of the parameter value grammar. Only literals and
// nested annotation calls are accepted, so evaluation never runs code.
type literalValue struct {
	Call    *literalCall   `parser:"  @@"`
	Object  *literalObject `parser:"| @@"`
	Array   *literalArray  `parser:"| @@"`
	String  *string        `parser:"| @String"`
	Number  *string        `parser:"| @Number"`
	Keyword *string        `parser:"| @Keyword"`
}

type literalArray struct {
	Items []*literalValue `parser:"'[' ( @@ ( ',' @@? )* )? ']'"`
}

type literalObject struct {
	Entries []*literalEntry `parser:"'{' ( @@ ( ',' @@? )* )? '}'"`
}

type literalEntry struct {
	Key   string        `parser:"@( Ident | String | Number | Keyword )"`
	Value *literalValue `parser:"':' @@"`
}

type literalCall struct {
	Name string        `parser:"'@' @Ident"`
	Args []*literalArg `parser:"( '(' ( @@ ( ',' @@? )* )? ')' )?"`
}

type literalArg struct {
	Key   *string       `parser:"( @Ident '=' )?"`
	Value *literalValue `parser:"@@"`
}

var literalLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(\\.|[^"\\])*"|'(\\.|[^'\\])*'`},
	{Name: "Number", Pattern: `[-+]?(\d+\.\d*|\.\d+|\d+)([eE][-+]?\d+)?`},
	{Name: "Keyword", Pattern: `\b(true|false|null)\b`},
	{Name: "Ident", Pattern: `[a-zA-Z_$][a-zA-Z0-9_$]*`},
	{Name: "Punct", Pattern: `[@{}\[\](),:=]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var literalParser = participle.MustBuild[literalValue](
	participle.Lexer(literalLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// EvaluateLiteral evaluates a single parameter value.
//
// Results are string, int, float64, bool, nil, []any, map[string]any or Call.
func EvaluateLiteral(expr string) (any, error) {
	ast, err := literalParser.ParseString("", expr)
	if err != nil {
		return nil, err
	}
	return ast.eval()
}

func (v *literalValue) eval() (any, error) {
	switch {
	case v.Call != nil:
		return v.Call.eval()
	case v.Object != nil:
		return v.Object.eval()
	case v.Array != nil:
		return v.Array.eval()
	case v.String != nil:
		return unquote(*v.String)
	case v.Number != nil:
		return parseNumber(*v.Number)
	case v.Keyword != nil:
		switch *v.Keyword {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, nil
	}
	return nil, fmt.Errorf("empty value")
}

func (a *literalArray) eval() (any, error) {
	items := make([]any, 0, len(a.Items))
	for _, item := range a.Items {
		v, err := item.eval()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, nil
}

func (o *literalObject) eval() (any, error) {
	m := make(map[string]any, len(o.Entries))
	for _, entry := range o.Entries {
		key := entry.Key
		if strings.HasPrefix(key, `"`) || strings.HasPrefix(key, `'`) {
			k, err := unquote(key)
			if err != nil {
				return nil, err
			}
			key = k
		}
		v, err := entry.Value.eval()
		if err != nil {
			return nil, err
		}
		m[key] = v
	}
	return m, nil
}

func (c *literalCall) eval() (any, error) {
	params := Params{}
	for i, arg := range c.Args {
		key := ValueKey
		if arg.Key != nil {
			key = *arg.Key
		} else if i != 0 {
			return nil, fmt.Errorf("@%s: %w", c.Name, ErrExpectedAssignment)
		}
		v, err := arg.Value.eval()
		if err != nil {
			return nil, err
		}
		params[key] = v
	}
	return Call{Name: c.Name, Params: params}, nil
}

func parseNumber(text string) (any, error) {
	if !strings.ContainsAny(text, ".eE") {
		if n, err := strconv.Atoi(text); err == nil {
			return n, nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", text, err)
	}
	return f, nil
}

// unquote decodes a single or double quoted string. Unknown escapes keep the
// escaped character.
func unquote(text string) (string, error) {
	if len(text) < 2 {
		return "", fmt.Errorf("invalid string %s", text)
	}
	quote := text[0]
	s := text[1 : len(text)-1]

	var out strings.Builder
	out.Grow(len(s))
	for len(s) > 0 {
		r, _, tail, err := strconv.UnquoteChar(s, quote)
		if err != nil {
			if s[0] == '\\' && len(s) > 1 {
				out.WriteByte(s[1])
				s = s[2:]
				continue
			}
			return "", fmt.Errorf("invalid string %s: %w", text, err)
		}
		out.WriteRune(r)
		s = tail
	}
	return out.String(), nil
}
