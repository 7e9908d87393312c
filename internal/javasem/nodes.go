package javasem

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/internal/relation"
	"github.com/jward/understory/internal/scope"
)

// nodeKey identifies a syntax node across the two passes.
type nodeKey struct {
	start, end uint32
	typ        string
}

func keyOf(n *sitter.Node) nodeKey {
	return nodeKey{start: n.StartByte(), end: n.EndByte(), typ: n.Type()}
}

func text(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return n.Content(src)
}

// compact collapses whitespace runs so raw_text attributes stay on one line.
func compact(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func spanOf(n *sitter.Node) scope.Span {
	sp, ep := n.StartPoint(), n.EndPoint()
	return scope.Span{
		StartLine: int(sp.Row),
		StartCol:  int(sp.Column),
		EndLine:   int(ep.Row),
		EndCol:    int(ep.Column),
		StartByte: n.StartByte(),
		EndByte:   n.EndByte(),
	}
}

func relSpan(n *sitter.Node) relation.Span {
	p := n.StartPoint()
	return relation.Span{Line: int(p.Row), Col: int(p.Column)}
}

func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		if c := n.NamedChild(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// childrenByField returns every child attached to field, in order.
func childrenByField(n *sitter.Node, field string) []*sitter.Node {
	var out []*sitter.Node
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		if n.FieldNameForChild(i) == field {
			if c := n.Child(i); c != nil {
				out = append(out, c)
			}
		}
	}
	return out
}

func childOfType(n *sitter.Node, types ...string) *sitter.Node {
	for _, c := range namedChildren(n) {
		for _, t := range types {
			if c.Type() == t {
				return c
			}
		}
	}
	return nil
}

func childrenOfType(n *sitter.Node, typ string) []*sitter.Node {
	var out []*sitter.Node
	for _, c := range namedChildren(n) {
		if c.Type() == typ {
			out = append(out, c)
		}
	}
	return out
}

// hasToken reports whether n has a direct anonymous child with the given
// text, such as "static" in an import declaration.
func hasToken(n *sitter.Node, tok string) bool {
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		c := n.Child(i)
		if c != nil && !c.IsNamed() && c.Type() == tok {
			return true
		}
	}
	return false
}

func isBroken(n *sitter.Node) bool {
	return n.Type() == "ERROR" || n.IsMissing()
}

// modifiers returns the keyword modifiers and the annotation nodes of a
// declaration.
func modifiers(n *sitter.Node, src []byte) ([]string, []*sitter.Node) {
	mods := childOfType(n, "modifiers")
	if mods == nil {
		return nil, nil
	}
	var words []string
	var annotations []*sitter.Node
	count := int(mods.ChildCount())
	for i := 0; i < count; i++ {
		c := mods.Child(i)
		if c == nil {
			continue
		}
		switch c.Type() {
		case "annotation", "marker_annotation":
			annotations = append(annotations, c)
		default:
			if w := strings.TrimSpace(c.Content(src)); w != "" {
				words = append(words, w)
			}
		}
	}
	return words, annotations
}

// dimensions counts "[]" pairs in n's text.
func dimensions(n *sitter.Node, src []byte) int {
	if n == nil {
		return 0
	}
	return strings.Count(text(n, src), "[")
}

// unwrapParens strips parenthesized_expression wrappers.
func unwrapParens(n *sitter.Node) *sitter.Node {
	for n != nil && n.Type() == "parenthesized_expression" {
		inner := namedChildren(n)
		if len(inner) == 0 {
			return n
		}
		n = inner[0]
	}
	return n
}

func isTypeDecl(typ string) bool {
	switch typ {
	case "class_declaration", "interface_declaration", "enum_declaration",
		"record_declaration", "annotation_type_declaration":
		return true
	}
	return false
}

func typeDeclKind(typ string) scope.SymbolKind {
	switch typ {
	case "interface_declaration":
		return scope.SymInterface
	case "enum_declaration":
		return scope.SymEnum
	case "record_declaration":
		return scope.SymRecord
	case "annotation_type_declaration":
		return scope.SymAnnotationType
	}
	return scope.SymClass
}

// typeNodeOf returns the declared type node of a parameter-like node. Spread
// parameters carry the type as an unnamed child.
func typeNodeOf(n *sitter.Node) *sitter.Node {
	if t := n.ChildByFieldName("type"); t != nil {
		return t
	}
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "modifiers", "variable_declarator", "identifier", "dimensions":
			continue
		}
		return c
	}
	return nil
}

// declaredName returns the identifier node naming a parameter-like node.
func declaredName(n *sitter.Node) *sitter.Node {
	if name := n.ChildByFieldName("name"); name != nil {
		return name
	}
	if decl := childOfType(n, "variable_declarator"); decl != nil {
		return decl.ChildByFieldName("name")
	}
	return childOfType(n, "identifier")
}

// paramType returns the written type of a parameter, including C-style
// dimensions after the name and varargs.
func paramType(n *sitter.Node, src []byte) string {
	t := text(typeNodeOf(n), src)
	if dims := n.ChildByFieldName("dimensions"); dims != nil {
		t += text(dims, src)
	}
	if n.Type() == "spread_parameter" {
		t += "..."
	}
	return t
}

// exprChildren returns the named children of n without comments, as found in
// argument lists.
func exprChildren(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "line_comment", "block_comment":
			continue
		}
		out = append(out, c)
	}
	return out
}
