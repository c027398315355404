package metadata

import (
	"regexp"
	"sort"
	"strings"

	"github.com/toyz/annoroute/internal/annotations"
)

var (
	classPattern       = regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+([\w$]+)(?:\s+extends\s+([\w$.]+))?`)
	goTypePattern      = regexp.MustCompile(`^type\s+(\w+)(?:\[[^\]]*\])?\s+(.*)$`)
	constructorPattern = regexp.MustCompile(`^constructor\s*\((.*)$`)
	goMethodPattern    = regexp.MustCompile(`^func\s*\(\s*(?:\w+\s+)?\*?\s*(\w+)(?:\[[^\]]*\])?\s*\)\s*(\w+)\s*\((.*)$`)
	goFuncPattern      = regexp.MustCompile(`^func\s+(\w+)\s*\((.*)$`)
	methodPattern      = regexp.MustCompile(`^(?:async\s+)?(?:static\s+)?(?:get\s+|set\s+)?([\w$]+)\s*\((.*)$`)
	goVarPattern       = regexp.MustCompile(`^(?:var|const)\s+(\w+)(?:\s+[^=]+?)?\s*=\s*(.+)$`)
	propertyPattern    = regexp.MustCompile(`^(?:this\.)?([\w$]+)(?:\s*:\s*[^=]+?)?\s*=\s*(.+)$`)
)

// span is a comment block together with the line that follows it
type span struct {
	line    int    // 1-based line where the comment begins
	text    string // comment text, markers included
	next    string // the line immediately after the comment
	hasNext bool
}

// Extract scans source text and returns one record per annotated definition,
// in source order.
//
// Comments are /** ... */ blocks, runs of // lines containing '@', and runs
// of // lines documenting a type. Only the line immediately after a comment
// is classified, so a blank line detaches the comment from the code below it.
//
// Go methods join the record of their receiver type wherever it is declared
// in the file. A receiver type declared without any comment still gets a
// record, positioned at its declaration.
func Extract(filename, source string) ([]Metadata, error) {
	source = strings.ReplaceAll(source, "\r\n", "\n")
	source = strings.ReplaceAll(source, "\r", "")

	e := newExtractor(filename, source)
	for _, s := range commentSpans(source) {
		if !s.hasNext || strings.TrimSpace(s.next) == "" {
			continue
		}
		if err := e.classify(s); err != nil {
			return nil, err
		}
	}
	return e.finish(), nil
}

// commentSpans is the first pass: locate every comment block
func commentSpans(source string) []span {
	lines := strings.Split(source, "\n")
	var spans []span

	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])

		switch {
		case strings.HasPrefix(trimmed, "/**"):
			end := i
			for end < len(lines) && !strings.Contains(closingSearch(lines, i, end), "*/") {
				end++
			}
			if end == len(lines) {
				return spans
			}
			spans = append(spans, newSpan(lines, i, end))
			i = end

		case strings.HasPrefix(trimmed, "//"):
			end := i
			for end+1 < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[end+1]), "//") {
				end++
			}
			s := newSpan(lines, i, end)
			if strings.Contains(s.text, "@") || documentsDefinition(s) {
				spans = append(spans, s)
			}
			i = end
		}
	}

	return spans
}

// closingSearch returns the part of line end that may hold the closing marker;
// on the opening line the "/**" itself is skipped so "/**/" is not misread
func closingSearch(lines []string, start, end int) string {
	if end != start {
		return lines[end]
	}
	line := lines[end]
	idx := strings.Index(line, "/**")
	return line[idx+3:]
}

func newSpan(lines []string, start, end int) span {
	s := span{
		line: start + 1,
		text: strings.Join(lines[start:end+1], "\n"),
	}
	if end+1 < len(lines) {
		s.next = lines[end+1]
		s.hasNext = true
	}
	return s
}

// documentsDefinition reports whether an unannotated comment sits on a type
func documentsDefinition(s span) bool {
	if !s.hasNext {
		return false
	}
	_, _, ok := matchDefinition(strings.TrimSpace(s.next))
	return ok
}

type extractor struct {
	file    string
	lines   []string
	current *Metadata
	records []*Metadata
	byName  map[string]*Metadata

	// Go methods whose receiver type has not been declared yet
	pending  map[string][]Method
	receiver []string
}

func newExtractor(file, source string) *extractor {
	return &extractor{
		file:    file,
		lines:   strings.Split(source, "\n"),
		current: &Metadata{File: file},
		byName:  make(map[string]*Metadata),
		pending: make(map[string][]Method),
	}
}

func (e *extractor) flush() {
	if e.current.Valid() {
		e.records = append(e.records, e.current)
	}
	e.current = &Metadata{File: e.file}
}

// begin flushes the current record and starts one for def
func (e *extractor) begin(def *Definition) {
	e.flush()
	e.current.Definition = def
	if methods, ok := e.pending[def.Name]; ok {
		e.current.Methods = methods
		delete(e.pending, def.Name)
	}
	if _, seen := e.byName[def.Name]; !seen {
		e.byName[def.Name] = e.current
	}
}

// addMethod files m under its receiver's record. Functions and methods
// without a receiver belong to the current record.
func (e *extractor) addMethod(m Method) {
	if m.Receiver == "" || m.Receiver == e.owner() {
		m.Owner = e.owner()
		e.current.Methods = append(e.current.Methods, m)
		return
	}

	m.Owner = m.Receiver
	if md, ok := e.byName[m.Receiver]; ok {
		md.Methods = append(md.Methods, m)
		return
	}
	if _, ok := e.pending[m.Receiver]; !ok {
		e.receiver = append(e.receiver, m.Receiver)
	}
	e.pending[m.Receiver] = append(e.pending[m.Receiver], m)
}

// finish flushes the last record, gives still-unclaimed receivers a record
// of their own and returns the records in source order. Records for types
// that carry no annotations and gathered nothing are dropped.
func (e *extractor) finish() []Metadata {
	e.flush()

	for _, name := range e.receiver {
		methods, ok := e.pending[name]
		if !ok {
			continue
		}
		e.records = append(e.records, &Metadata{
			File:       e.file,
			Definition: &Definition{Line: e.declarationLine(name, methods[0].Line), Name: name},
			Methods:    methods,
		})
	}

	sort.SliceStable(e.records, func(i, j int) bool {
		return firstLine(e.records[i]) < firstLine(e.records[j])
	})

	out := make([]Metadata, 0, len(e.records))
	for _, md := range e.records {
		if md.Definition != nil && len(md.Definition.Annotations) == 0 &&
			md.Constructor == nil && len(md.Methods) == 0 && len(md.Properties) == 0 {
			continue
		}
		out = append(out, *md)
	}
	return out
}

// declarationLine finds "type name ..." in the source, falling back to def
func (e *extractor) declarationLine(name string, def int) int {
	for i, line := range e.lines {
		if m := goTypePattern.FindStringSubmatch(strings.TrimSpace(line)); m != nil && m[1] == name {
			return i + 1
		}
	}
	return def
}

func firstLine(md *Metadata) int {
	if md.Definition != nil {
		return md.Definition.Line
	}
	line := 0
	consider := func(l int) {
		if line == 0 || l < line {
			line = l
		}
	}
	if md.Constructor != nil {
		consider(md.Constructor.Line)
	}
	for _, m := range md.Methods {
		consider(m.Line)
	}
	for _, p := range md.Properties {
		consider(p.Line)
	}
	return line
}

func (e *extractor) owner() string {
	return e.current.Name()
}

// classify is the second pass: decide what the comment documents
func (e *extractor) classify(s span) error {
	next := strings.TrimSpace(s.next)

	if name, parent, ok := matchDefinition(next); ok {
		anns, err := e.parse(s)
		if err != nil {
			return err
		}
		e.begin(&Definition{
			Line:        s.line,
			Name:        name,
			Parent:      parent,
			Comment:     s.text,
			Annotations: anns,
		})
		return nil
	}

	if args, ok := e.matchConstructor(next); ok {
		if e.current.Constructor != nil {
			return nil
		}
		anns, err := e.parse(s)
		if err != nil {
			return err
		}
		e.current.Constructor = &Constructor{
			Line:        s.line,
			Owner:       e.owner(),
			Args:        args,
			Comment:     s.text,
			Annotations: anns,
		}
		return nil
	}

	if receiver, name, args, ok := matchMethod(next); ok {
		anns, err := e.parse(s)
		if err != nil {
			return err
		}
		e.addMethod(Method{
			Line:        s.line,
			Receiver:    receiver,
			Name:        name,
			Args:        args,
			Comment:     s.text,
			Annotations: anns,
		})
		return nil
	}

	if name, body, ok := matchProperty(next); ok {
		anns, err := e.parse(s)
		if err != nil {
			return err
		}
		e.current.Properties = append(e.current.Properties, Property{
			Line:        s.line,
			Owner:       e.owner(),
			Name:        name,
			Body:        body,
			Comment:     s.text,
			Annotations: anns,
		})
	}

	return nil
}

func (e *extractor) parse(s span) ([]annotations.Annotation, error) {
	return annotations.ParseComment(s.text, annotations.SourceLocation{File: e.file, Line: s.line})
}

func matchDefinition(line string) (string, string, bool) {
	if m := classPattern.FindStringSubmatch(line); m != nil {
		return m[1], m[2], true
	}
	if m := goTypePattern.FindStringSubmatch(line); m != nil {
		parent := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(m[2]), "{"))
		if strings.HasPrefix(parent, "struct") || strings.HasPrefix(parent, "interface") || strings.HasPrefix(parent, "=") {
			parent = ""
		}
		return m[1], parent, true
	}
	return "", "", false
}

// matchConstructor accepts constructor(...) and a Go func New<Definition>(...)
func (e *extractor) matchConstructor(line string) ([]string, bool) {
	if m := constructorPattern.FindStringSubmatch(line); m != nil {
		return splitArgs(m[1]), true
	}
	if owner := e.owner(); owner != "" {
		if m := goFuncPattern.FindStringSubmatch(line); m != nil && m[1] == "New"+owner {
			return splitArgs(m[2]), true
		}
	}
	return nil, false
}

func matchMethod(line string) (string, string, []string, bool) {
	if m := goMethodPattern.FindStringSubmatch(line); m != nil {
		return m[1], m[2], splitArgs(m[3]), true
	}
	if m := goFuncPattern.FindStringSubmatch(line); m != nil {
		return "", m[1], splitArgs(m[2]), true
	}
	if strings.HasPrefix(line, "func") {
		return "", "", nil, false
	}
	if m := methodPattern.FindStringSubmatch(line); m != nil && !isKeyword(m[1]) {
		return "", m[1], splitArgs(m[2]), true
	}
	return "", "", nil, false
}

func matchProperty(line string) (string, string, bool) {
	if m := goVarPattern.FindStringSubmatch(line); m != nil {
		return m[1], strings.TrimSpace(m[2]), true
	}
	if m := propertyPattern.FindStringSubmatch(line); m != nil && !isKeyword(m[1]) {
		return m[1], strings.TrimSuffix(strings.TrimSpace(m[2]), ";"), true
	}
	return "", "", false
}

// splitArgs takes the text after an opening '(' and returns the arguments up
// to its matching ')'. Arguments continuing on later lines are not followed.
func splitArgs(rest string) []string {
	depth := 1
	end := len(rest)
	for i, c := range rest {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 0 {
			end = i
			break
		}
	}

	text := strings.TrimSpace(rest[:end])
	if text == "" {
		return nil
	}
	parts := strings.Split(text, ",")
	args := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			args = append(args, p)
		}
	}
	return args
}

func isKeyword(word string) bool {
	switch word {
	case "if", "for", "while", "switch", "return", "function", "catch", "var", "let", "const", "type", "import", "package":
		return true
	}
	return false
}
