package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/jward/understory/internal/relation"
)

var idReplacer = strings.NewReplacer(
	".", "_", "(", "_", ")", "_", "[", "_", "]", "_", ",", "_",
	" ", "_", "<", "_", ">", "_", "?", "_", "@", "at", "$", "_",
)

// NodeID turns a qualified name into a Mermaid-safe node identifier.
func NodeID(qn string) string {
	return "n_" + idReplacer.Replace(qn)
}

// WriteMermaid writes a left-to-right flowchart with one labelled node per
// endpoint and one edge per relation. Self edges are skipped and duplicate
// edges collapse.
func WriteMermaid(w io.Writer, rels []relation.Relation) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "graph LR")

	declared := make(map[string]bool)
	node := func(ep relation.Endpoint) string {
		id := NodeID(ep.QualifiedName)
		if !declared[id] {
			declared[id] = true
			fmt.Fprintf(bw, "  %s[\"%s\"]\n", id, label(ep.QualifiedName))
		}
		return id
	}

	seen := make(map[string]bool)
	for _, rel := range rels {
		src, tgt := NodeID(rel.Source.QualifiedName), NodeID(rel.Target.QualifiedName)
		if src == tgt {
			continue
		}
		edge := src + "|" + rel.Kind.String() + "|" + tgt
		if seen[edge] {
			continue
		}
		seen[edge] = true
		node(rel.Source)
		node(rel.Target)
		fmt.Fprintf(bw, "  %s -- %s --> %s\n", src, rel.Kind, tgt)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("export: writing mermaid: %w", err)
	}
	return nil
}

func label(qn string) string {
	return strings.ReplaceAll(qn, `"`, "#quot;")
}
