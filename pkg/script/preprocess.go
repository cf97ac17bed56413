package script

import "strings"

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// preprocessSource rewrites scene source into something zygomys accepts:
//
//   - :keyword becomes the string literal "__kw_keyword", so keywords need
//     no global symbols and cannot clash with user variables;
//   - a hyphen between identifier characters becomes an underscore
//     (zygomys reads a bare hyphen as subtraction);
//   - ; and ;; line comments become // comments.
//
// String literals (double-quoted and backtick) pass through untouched.
func preprocessSource(source string) string {
	sc := &scanner{src: source}
	sc.out.Grow(len(source) + len(source)/4)
	for !sc.done() {
		switch c := sc.peek(); {
		case c == '"':
			sc.copyQuoted('"', true)
		case c == '`':
			sc.copyQuoted('`', false)
		case c == ';':
			sc.comment()
		case c == ':' && sc.keyword():
		case c == '-' && sc.kebab():
		default:
			sc.out.WriteByte(c)
			sc.pos++
		}
	}
	return sc.out.String()
}

type scanner struct {
	src string
	pos int
	out strings.Builder
}

func (s *scanner) done() bool { return s.pos >= len(s.src) }

func (s *scanner) peek() byte { return s.src[s.pos] }

// copyQuoted copies a literal delimited by q, honoring backslash escapes
// when escapes is set.
func (s *scanner) copyQuoted(q byte, escapes bool) {
	start := s.pos
	s.pos++
	for s.pos < len(s.src) && s.src[s.pos] != q {
		if escapes && s.src[s.pos] == '\\' && s.pos+1 < len(s.src) {
			s.pos++
		}
		s.pos++
	}
	if s.pos < len(s.src) {
		s.pos++
	}
	s.out.WriteString(s.src[start:s.pos])
}

func (s *scanner) comment() {
	for s.pos < len(s.src) && s.src[s.pos] == ';' {
		s.pos++
	}
	s.out.WriteString("//")
	end := strings.IndexByte(s.src[s.pos:], '\n')
	if end < 0 {
		end = len(s.src) - s.pos
	}
	s.out.WriteString(s.src[s.pos : s.pos+end])
	s.pos += end
}

// keyword rewrites :name and reports whether it consumed input. The :=
// operator is copied as is.
func (s *scanner) keyword() bool {
	if s.pos+1 >= len(s.src) {
		return false
	}
	next := s.src[s.pos+1]
	if next == '=' {
		s.out.WriteString(":=")
		s.pos += 2
		return true
	}
	if !isLetter(next) {
		return false
	}
	end := s.pos + 1
	for end < len(s.src) && isKWChar(s.src[end]) {
		end++
	}
	s.out.WriteByte('"')
	s.out.WriteString(kwPrefix)
	s.out.WriteString(s.src[s.pos+1 : end])
	s.out.WriteByte('"')
	s.pos = end
	return true
}

// kebab turns an identifier-internal hyphen into an underscore.
func (s *scanner) kebab() bool {
	if s.pos == 0 || s.pos+1 >= len(s.src) {
		return false
	}
	if !isIdentChar(s.src[s.pos-1]) || !isLetter(s.src[s.pos+1]) {
		return false
	}
	s.out.WriteByte('_')
	s.pos++
	return true
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isKWChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_'
}
