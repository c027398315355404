package annotations

import "strings"

// Scanner is a forward-only cursor over comment text
type Scanner struct {
	src string
	pos int
}

// NewScanner creates a scanner positioned at the start of src
func NewScanner(src string) *Scanner {
	return &Scanner{src: src}
}

// EOS reports whether the cursor reached the end of the input
func (s *Scanner) EOS() bool {
	return s.pos >= len(s.src)
}

// Pos returns the current byte offset
func (s *Scanner) Pos() int {
	return s.pos
}

// Rest returns the unconsumed input
func (s *Scanner) Rest() string {
	return s.src[s.pos:]
}

// CheckUntil returns the text from the cursor through the next occurrence of
// substr without advancing. The second result is false when substr is absent.
func (s *Scanner) CheckUntil(substr string) (string, bool) {
	idx := strings.Index(s.src[s.pos:], substr)
	if idx < 0 {
		return "", false
	}
	return s.src[s.pos : s.pos+idx+len(substr)], true
}

// ScanUntil is CheckUntil that advances past the match
func (s *Scanner) ScanUntil(substr string) (string, bool) {
	text, ok := s.CheckUntil(substr)
	if ok {
		s.pos += len(text)
	}
	return text, ok
}

// ScanLine consumes through the next line break, or the rest of the input
// when there is none. The returned text never contains the line break.
func (s *Scanner) ScanLine() string {
	if text, ok := s.ScanUntil("\n"); ok {
		return text[:len(text)-1]
	}
	text := s.src[s.pos:]
	s.pos = len(s.src)
	return text
}
