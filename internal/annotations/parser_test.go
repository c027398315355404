package annotations

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseComment(t *testing.T) {
	tests := []struct {
		name     string
		comment  string
		expected []Annotation
	}{
		{
			name:    "verb with path and name",
			comment: "@get('/a/:id', name='x')",
			expected: []Annotation{
				{Name: "get", Raw: "'/a/:id', name='x'", HasParams: true, Params: Params{"value": "/a/:id", "name": "x"}},
			},
		},
		{
			name:    "route with methods array",
			comment: "@route('/x', methods=['GET','POST'])",
			expected: []Annotation{
				{Name: "route", Raw: "'/x', methods=['GET','POST']", HasParams: true, Params: Params{"value": "/x", "methods": []any{"GET", "POST"}}},
			},
		},
		{
			name:    "bare annotation takes the rest of the line",
			comment: "/**\n * @deprecated */",
			expected: []Annotation{
				{Name: "deprecated", Params: Params{}},
			},
		},
		{
			name:    "empty parentheses",
			comment: "@middleware()",
			expected: []Annotation{
				{Name: "middleware", HasParams: true, Params: Params{}},
			},
		},
		{
			name:    "parenthesis on a later line is not a parameter list",
			comment: "@internal\n@get('/x')",
			expected: []Annotation{
				{Name: "internal", Params: Params{}},
				{Name: "get", Raw: "'/x'", HasParams: true, Params: Params{"value": "/x"}, Position: 1},
			},
		},
		{
			name:    "nested parentheses are balanced",
			comment: "@get('/x', guard=@auth(role='admin'))",
			expected: []Annotation{
				{
					Name:      "get",
					Raw:       "'/x', guard=@auth(role='admin')",
					HasParams: true,
					Params: Params{
						"value": "/x",
						"guard": Call{Name: "auth", Params: Params{"role": "admin"}},
					},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseComment(tt.comment, SourceLocation{})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseComment_MultiLineBlock(t *testing.T) {
	comment := `/**
 * Lists widgets.
 * @mount('/widgets')
 * @get('/:id',
 *      name='widget',
 *      requirements={id: '\\d+'})
 */`

	got, err := ParseComment(comment, SourceLocation{File: "widgets.go", Line: 10})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "mount", got[0].Name)
	assert.Equal(t, 12, got[0].Location.Line)
	assert.Equal(t, "widgets.go", got[0].Location.File)
	assert.Equal(t, 0, got[0].Position)

	assert.Equal(t, "get", got[1].Name)
	assert.Equal(t, 13, got[1].Location.Line)
	assert.Equal(t, 1, got[1].Position)
	assert.Equal(t, "/:id", got[1].Params.GetString("value", ""))
	assert.Equal(t, "widget", got[1].Params.GetString("name", ""))

	reqs, ok := got[1].Params.Map("requirements")
	require.True(t, ok)
	assert.Equal(t, `\d+`, reqs["id"])
}

func TestParseComment_Unbalanced(t *testing.T) {
	_, err := ParseComment("@get('/x', name='y'", SourceLocation{File: "a.go", Line: 3})
	require.Error(t, err)

	var syntaxErr *SyntaxError
	require.True(t, errors.As(err, &syntaxErr))
	assert.True(t, errors.Is(err, ErrUnbalancedParens))
	assert.Equal(t, 3, syntaxErr.Location().Line)
	assert.Contains(t, err.Error(), "a.go:3")
}

func TestParseComment_NoAnnotations(t *testing.T) {
	got, err := ParseComment("// just a comment", SourceLocation{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScanner(t *testing.T) {
	s := NewScanner("ab@cd\nef")

	text, ok := s.CheckUntil("@")
	require.True(t, ok)
	assert.Equal(t, "ab@", text)
	assert.Equal(t, 0, s.Pos())

	text, ok = s.ScanUntil("@")
	require.True(t, ok)
	assert.Equal(t, "ab@", text)
	assert.Equal(t, 3, s.Pos())

	_, ok = s.ScanUntil("@")
	assert.False(t, ok)
	assert.Equal(t, 3, s.Pos())

	assert.Equal(t, "cd", s.ScanLine())
	assert.Equal(t, "ef", s.ScanLine())
	assert.True(t, s.EOS())
}
