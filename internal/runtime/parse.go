package runtime

import (
	"context"
	"fmt"
	"os"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

// Parse parses Java source. The returned tree is never nil on success and
// may contain ERROR nodes; callers own it and must Close it.
func Parse(ctx context.Context, src []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(java.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("runtime: tree-sitter parse failed: %w", err)
	}
	return tree, nil
}

// ParseFile reads and parses a Java file, returning the tree and the bytes it
// was parsed from.
func ParseFile(ctx context.Context, path string) (*sitter.Tree, []byte, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("runtime: reading %s: %w", path, err)
	}
	tree, err := Parse(ctx, src)
	if err != nil {
		return nil, nil, fmt.Errorf("runtime: parsing %s: %w", path, err)
	}
	return tree, src, nil
}
