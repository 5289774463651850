package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Path addresses a value inside a Document as a sequence of key segments.
// The empty Path is the document root.
type Path []string

// Child returns a new Path with key appended. The receiver is never modified.
func (p Path) Child(key string) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = key
	return out
}

// Parent returns the path without its last segment
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1]
}

// IsRoot reports whether p addresses the document root
func (p Path) IsRoot() bool {
	return len(p) == 0
}

// Equal reports whether p and other address the same value
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is p itself or one of its ancestors
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	return p[:len(prefix)].Equal(prefix)
}

// IsAncestorOf reports whether p is a strict ancestor of other
func (p Path) IsAncestorOf(other Path) bool {
	return len(p) < len(other) && other.HasPrefix(p)
}

// String renders the path in dotted form. Segments that would make the
// dotted form ambiguous are rendered in bracket form: a["x.y"].c
func (p Path) String() string {
	var b strings.Builder
	for i, seg := range p {
		if needsBrackets(seg) {
			b.WriteString("[")
			b.WriteString(strconv.Quote(seg))
			b.WriteString("]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}

// MarshalText implements encoding.TextMarshaler
func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *Path) UnmarshalText(text []byte) error {
	parsed, err := ParsePath(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func needsBrackets(seg string) bool {
	return seg == "" || strings.ContainsAny(seg, ".[]\"")
}

// ParsePath parses the dotted form produced by Path.String
func ParsePath(s string) (Path, error) {
	var path Path
	i := 0
	for i < len(s) {
		switch s[i] {
		case '.':
			if i == 0 || i == len(s)-1 {
				return nil, fmt.Errorf("invalid path %q: misplaced '.' at %d", s, i)
			}
			i++
			if s[i] == '.' || s[i] == '[' {
				return nil, fmt.Errorf("invalid path %q: empty segment at %d", s, i)
			}
		case '[':
			end := strings.Index(s[i:], "\"]")
			if end < 0 {
				return nil, fmt.Errorf("invalid path %q: unterminated bracket at %d", s, i)
			}
			// Quoted segments may contain "] so scan for a closing quote that unquotes cleanly.
			var seg string
			var err error
			for {
				seg, err = strconv.Unquote(s[i+1 : i+end+1])
				if err == nil {
					break
				}
				next := strings.Index(s[i+end+2:], "\"]")
				if next < 0 {
					return nil, fmt.Errorf("invalid path %q: bad quoted segment at %d", s, i)
				}
				end += next + 2
			}
			path = append(path, seg)
			i += end + 2
		default:
			j := i
			for j < len(s) && s[j] != '.' && s[j] != '[' {
				j++
			}
			path = append(path, s[i:j])
			i = j
		}
	}
	return path, nil
}

// MustParsePath is like ParsePath but panics on error. Intended for tests and constants.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}
