// Package qname builds the qualified names that identify every declared
// Java entity. Names are derived purely from the nesting path, so the same
// source always yields the same names.
package qname

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNoOwner is the panic value (wrapped) raised when a member name is built
// before its owner exists. It indicates a bug in the caller, not bad input.
var ErrNoOwner = errors.New("qname: name built without owner")

func mustOwner(op, owner, name string) {
	if owner == "" {
		panic(fmt.Errorf("%w: %s %q", ErrNoOwner, op, name))
	}
}

// Type returns the name of a top-level or nested type. An empty package is
// the default package.
func Type(pkg string, path ...string) string {
	parts := make([]string, 0, len(path)+1)
	if pkg != "" {
		parts = append(parts, pkg)
	}
	parts = append(parts, path...)
	return strings.Join(parts, ".")
}

// Nested returns the name of a type nested in owner.
func Nested(owner, name string) string {
	mustOwner("nested type", owner, name)
	return owner + "." + name
}

// Member names a field, local, parameter or enum constant inside owner.
func Member(owner, name string) string {
	mustOwner("member", owner, name)
	return owner + "." + name
}

// Method names a method or constructor. Parameter types are erased so that
// overloads yield distinct names.
func Method(owner, name string, params []string) string {
	mustOwner("method", owner, name)
	erased := make([]string, len(params))
	for i, p := range params {
		erased[i] = Erase(p)
	}
	return owner + "." + name + "(" + strings.Join(erased, ",") + ")"
}

// Lambda names the n-th lambda (1-based) declared directly in owner.
func Lambda(owner string, n int) string {
	mustOwner("lambda", owner, "lambda$"+strconv.Itoa(n))
	return owner + ".lambda$" + strconv.Itoa(n)
}

// Anonymous names the n-th anonymous class declared directly in owner.
func Anonymous(owner string, n int) string {
	mustOwner("anonymous class", owner, "$"+strconv.Itoa(n))
	return owner + ".$" + strconv.Itoa(n)
}

// Block names the n-th nested block of owner.
func Block(owner string, n int) string {
	mustOwner("block", owner, "block$"+strconv.Itoa(n))
	return owner + ".block$" + strconv.Itoa(n)
}

// Redeclared names the k-th declaration of name at one block level.
func Redeclared(owner, name string, k int) string {
	mustOwner("local", owner, name)
	return owner + "." + name + "$" + strconv.Itoa(k)
}

// Initializer names the n-th static or instance initializer block of a type.
func Initializer(owner string, static bool, n int) string {
	label := "init$"
	if static {
		label = "static$"
	}
	mustOwner("initializer", owner, label+strconv.Itoa(n))
	return owner + "." + label + strconv.Itoa(n)
}

// Erase normalizes a written type: annotations, modifiers, type arguments
// and whitespace are dropped, varargs become an array suffix.
//
//	Erase("final Map<String, List<Integer>>") == "Map"
//	Erase("String...")                        == "String[]"
//	Erase("@NonNull int [] []")               == "int[][]"
func Erase(text string) string {
	text = strings.TrimSpace(text)
	for strings.HasPrefix(text, "final ") {
		text = strings.TrimSpace(strings.TrimPrefix(text, "final "))
	}
	var b strings.Builder
	depth := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '<':
			depth++
		case c == '>':
			if depth > 0 {
				depth--
			}
		case depth > 0:
		case c == '@':
			i = skipAnnotation(text, i)
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
		case c == '.' && strings.HasPrefix(text[i:], "..."):
			b.WriteString("[]")
			i += 2
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// skipAnnotation returns the index of the last byte of the annotation that
// starts at text[i], including a parenthesized argument list.
func skipAnnotation(text string, i int) int {
	j := i + 1
	for j < len(text) && (isIdent(text[j]) || text[j] == '.') {
		j++
	}
	for j < len(text) && text[j] == ' ' {
		j++
	}
	if j < len(text) && text[j] == '(' {
		depth := 0
		for ; j < len(text); j++ {
			if text[j] == '(' {
				depth++
			} else if text[j] == ')' {
				depth--
				if depth == 0 {
					return j
				}
			}
		}
	}
	return j - 1
}

func isIdent(c byte) bool {
	return c == '_' || c == '$' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// Simple returns the last segment of a qualified name, keeping a method's
// parameter list: Simple("a.B.m(java.util.List)") == "m(java.util.List)".
func Simple(qn string) string {
	p := Parent(qn)
	if p == "" {
		return qn
	}
	return qn[len(p)+1:]
}

// Parent returns everything before the last segment, or "" for a single
// segment name.
func Parent(qn string) string {
	depth := 0
	for i := len(qn) - 1; i >= 0; i-- {
		switch qn[i] {
		case ')':
			depth++
		case '(':
			depth--
		case '.':
			if depth == 0 {
				return qn[:i]
			}
		}
	}
	return ""
}

// Name strips a method's parameter list and any package or owner prefix:
// Name("a.B.m(int)") == "m".
func Name(qn string) string {
	s := Simple(qn)
	if i := strings.IndexByte(s, '('); i >= 0 {
		return s[:i]
	}
	return s
}
