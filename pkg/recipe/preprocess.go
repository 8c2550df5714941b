package recipe

import "strings"

// kwPrefix marks a keyword after preprocessing. Keywords travel as string
// literals so they never collide with user symbols.
const kwPrefix = "__kw_"

// preprocess rewrites recipe source into something zygomys reads:
//
//	:seed        -> "__kw_seed"
//	plane-cut    -> plane_cut
//	; comment    -> // comment
//
// String literals are copied untouched. A hyphen only becomes an
// underscore when it joins two identifier characters, so (- 4 2) stays
// subtraction.
func preprocess(src string) string {
	var out strings.Builder
	out.Grow(len(src) + len(src)/4)
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '"' || c == '`':
			j := skipString(src, i)
			out.WriteString(src[i:j])
			i = j
		case c == ';':
			for i < len(src) && src[i] == ';' {
				i++
			}
			j := strings.IndexByte(src[i:], '\n')
			if j < 0 {
				j = len(src) - i
			}
			out.WriteString("//")
			out.WriteString(src[i : i+j])
			i += j
		case c == ':' && i+1 < len(src) && src[i+1] == '=':
			out.WriteString(":=")
			i += 2
		case c == ':' && i+1 < len(src) && isLetter(src[i+1]):
			j := i + 1
			for j < len(src) && isKeywordChar(src[j]) {
				j++
			}
			out.WriteByte('"')
			out.WriteString(kwPrefix)
			out.WriteString(src[i+1 : j])
			out.WriteByte('"')
			i = j
		case c == '-' && i > 0 && i+1 < len(src) && isIdentChar(src[i-1]) && isLetter(src[i+1]):
			out.WriteByte('_')
			i++
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String()
}

// skipString returns the index just past the literal opening at i.
// Backslash escapes apply to double-quoted strings only.
func skipString(src string, i int) int {
	q := src[i]
	j := i + 1
	for j < len(src) && src[j] != q {
		if q == '"' && src[j] == '\\' {
			j++
		}
		j++
	}
	return min(j+1, len(src))
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isKeywordChar(c byte) bool { return isIdentChar(c) || c == '-' }
