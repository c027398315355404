package annotations

import (
	"fmt"
	"strings"
)

// ParseParams evaluates the text between an annotation's parentheses.
//
// The text is split on top-level commas. A leading segment without '=' is the
// positional value; every other segment must be name=value. Values are
// evaluated with the literal grammar, never as code.
func ParseParams(raw string, loc SourceLocation) (Params, error) {
	text := flatten(raw)
	params := Params{}
	if text == "" {
		return params, nil
	}

	segments, err := splitTopLevel(text, loc)
	if err != nil {
		return nil, err
	}

	for i, segment := range segments {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			if i == len(segments)-1 && i > 0 {
				break
			}
			return nil, newSyntaxError(ErrInvalidLiteral, text, 0, loc).
				WithSuggestion("remove the empty parameter")
		}

		name, expr, named := splitAssignment(segment)
		if !named {
			if i != 0 {
				return nil, newSyntaxError(ErrExpectedAssignment, segment, 0, loc).
					WithSuggestion("only the first parameter may be positional")
			}
			name, expr = ValueKey, segment
		}

		name = strings.Trim(strings.TrimSpace(name), `"'`)
		if name == "" {
			return nil, newSyntaxError(ErrExpectedAssignment, segment, 0, loc)
		}

		value, err := EvaluateLiteral(strings.TrimSpace(expr))
		if err != nil {
			return nil, newSyntaxError(fmt.Errorf("%w: %v", ErrInvalidLiteral, err), strings.TrimSpace(expr), 0, loc)
		}
		params[name] = value
	}

	return params, nil
}

// flatten joins a multi-line parameter list into one line, dropping the
// comment markers that prefix continuation lines
func flatten(raw string) string {
	if !strings.Contains(raw, "\n") {
		return strings.TrimSpace(raw)
	}

	var kept []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		switch {
		case strings.HasPrefix(line, "//"):
			line = strings.TrimSpace(line[2:])
		case strings.HasPrefix(line, "*") && !strings.HasPrefix(line, "*/"):
			line = strings.TrimSpace(line[1:])
		}
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, " ")
}

// splitTopLevel splits on commas outside of brackets and quotes
func splitTopLevel(text string, loc SourceLocation) ([]string, error) {
	var (
		segments []string
		closers  []byte
		quote    byte
		quoteAt  int
		start    int
	)

	for i := 0; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}

		switch c {
		case '\'', '"':
			quote, quoteAt = c, i
		case '(':
			closers = append(closers, ')')
		case '[':
			closers = append(closers, ']')
		case '{':
			closers = append(closers, '}')
		case ')', ']', '}':
			if len(closers) == 0 || closers[len(closers)-1] != c {
				return nil, newSyntaxError(ErrUnmatchedBracket, string(c), i, loc)
			}
			closers = closers[:len(closers)-1]
		case ',':
			if len(closers) == 0 {
				segments = append(segments, text[start:i])
				start = i + 1
			}
		}
	}

	if quote != 0 {
		return nil, newSyntaxError(ErrUnterminatedString, excerpt(text[quoteAt:]), quoteAt, loc)
	}
	if len(closers) > 0 {
		return nil, newSyntaxError(ErrUnclosedBracket, string(closers[len(closers)-1]), len(text), loc).
			WithSuggestion("add the missing '" + string(closers[len(closers)-1]) + "'")
	}

	return append(segments, text[start:]), nil
}

// splitAssignment splits a segment at its first '=' outside quotes and brackets
func splitAssignment(segment string) (string, string, bool) {
	depth := 0
	var quote byte
	for i := 0; i < len(segment); i++ {
		c := segment[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '=':
			if depth == 0 {
				return segment[:i], segment[i+1:], true
			}
		}
	}
	return "", segment, false
}
