package annotations

import (
	"strings"
)

// ParseComment extracts every annotation from a comment block.
//
// An annotation starts at '@'. When '(' follows on the same line, the name is
// the text before it and the parameters run up to the matching ')'.
// Otherwise the name is the remainder of the line and there are no parameters.
// loc is the location of the first line of comment; each annotation gets the
// line it starts on.
func ParseComment(comment string, loc SourceLocation) ([]Annotation, error) {
	scanner := NewScanner(comment)
	var found []Annotation

	for !scanner.EOS() {
		if _, ok := scanner.ScanUntil("@"); !ok {
			break
		}

		at := scanner.Pos() - 1
		annLoc := loc
		if annLoc.Line > 0 {
			annLoc.Line += strings.Count(comment[:at], "\n")
		}

		ann := Annotation{Location: annLoc}

		head, ok := scanner.CheckUntil("(")
		if !ok || strings.Contains(head, "\n") {
			ann.Name = cleanName(scanner.ScanLine())
			ann.Params = Params{}
		} else {
			scanner.ScanUntil("(")
			ann.Name = strings.TrimSpace(head[:len(head)-1])
			ann.HasParams = true

			raw, err := scanParams(scanner, annLoc)
			if err != nil {
				return nil, err
			}
			ann.Raw = raw

			params, err := ParseParams(raw, annLoc)
			if err != nil {
				return nil, err
			}
			ann.Params = params
		}

		if ann.Name == "" {
			continue
		}
		ann.Position = len(found)
		found = append(found, ann)
	}

	return found, nil
}

// scanParams consumes text up to the ')' that balances the '(' already read
// and returns it without that final ')'
func scanParams(scanner *Scanner, loc SourceLocation) (string, error) {
	start := scanner.Pos()
	var text strings.Builder

	for {
		chunk, ok := scanner.ScanUntil(")")
		if !ok {
			return "", newSyntaxError(ErrUnbalancedParens, excerpt(text.String()+scanner.Rest()), start, loc).
				WithSuggestion("close the parameter list with ')'")
		}
		text.WriteString(chunk)

		s := text.String()
		if strings.Count(s, "(")+1 == strings.Count(s, ")") {
			return s[:len(s)-1], nil
		}
	}
}

func cleanName(line string) string {
	name := strings.TrimSpace(line)
	name = strings.TrimSuffix(name, "*/")
	return strings.TrimSpace(name)
}

func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	if len(s) > 40 {
		s = s[:40] + "..."
	}
	return s
}
