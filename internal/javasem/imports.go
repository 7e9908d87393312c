package javasem

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/internal/index"
)

// readImports collects the package and import declarations of a unit.
func readImports(root *sitter.Node, src []byte) *index.Imports {
	pkg := ""
	if decl := childOfType(root, "package_declaration"); decl != nil {
		if name := childOfType(decl, "scoped_identifier", "identifier"); name != nil {
			pkg = text(name, src)
		}
	}
	imps := index.NewImports(pkg)
	for _, decl := range childrenOfType(root, "import_declaration") {
		name := childOfType(decl, "scoped_identifier", "identifier")
		if name == nil {
			continue
		}
		path := strings.Join(strings.Fields(text(name, src)), "")
		static := hasToken(decl, "static")
		wildcard := childOfType(decl, "asterisk") != nil || strings.HasSuffix(strings.TrimSpace(text(decl, src)), "*;")

		switch {
		case static && wildcard:
			imps.StaticOnDemand = append(imps.StaticOnDemand, path)
		case static:
			i := strings.LastIndexByte(path, '.')
			if i < 0 {
				continue
			}
			imps.StaticSingle[path[i+1:]] = path[:i]
		case wildcard:
			imps.OnDemand = append(imps.OnDemand, path)
		default:
			imps.Single[path[strings.LastIndexByte(path, '.')+1:]] = path
		}
	}
	return imps
}
