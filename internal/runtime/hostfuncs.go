package runtime

import (
	"context"
	"log/slog"
	"sync"
	"unsafe"

	"github.com/risor-io/risor/object"
	sitter "github.com/smacker/go-tree-sitter"
)

// sourceStore remembers the source of every tree a rule parses, keyed by
// root node pointer, and the compiled form of every query pattern.
// smacker/go-tree-sitter doesn't expose Node.Tree(), so node_text walks a
// node up to its root to find the bytes.
type sourceStore struct {
	mu      sync.RWMutex
	sources map[uintptr][]byte
	queries map[string]*sitter.Query
}

func newSourceStore() *sourceStore {
	return &sourceStore{
		sources: make(map[uintptr][]byte),
		queries: make(map[string]*sitter.Query),
	}
}

func (s *sourceStore) store(tree *sitter.Tree, src []byte) {
	key := uintptr(unsafe.Pointer(tree.RootNode()))
	s.mu.Lock()
	s.sources[key] = src
	s.mu.Unlock()
}

// rootOf walks a node up to its root via Parent().
func rootOf(node *sitter.Node) *sitter.Node {
	for node.Parent() != nil {
		node = node.Parent()
	}
	return node
}

func (s *sourceStore) sourceForNode(node *sitter.Node) ([]byte, bool) {
	key := uintptr(unsafe.Pointer(rootOf(node)))
	s.mu.RLock()
	src, ok := s.sources[key]
	s.mu.RUnlock()
	return src, ok
}

// query returns the compiled Java query for pattern. Rules run once per
// relation, so patterns are compiled once per Runtime.
func (s *sourceStore) query(pattern string) (*sitter.Query, error) {
	s.mu.RLock()
	q, ok := s.queries[pattern]
	s.mu.RUnlock()
	if ok {
		return q, nil
	}
	lang, _ := ParserForLanguage(Java)
	q, err := sitter.NewQuery([]byte(pattern), lang)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.queries[pattern]; ok {
		q.Close()
		return prev, nil
	}
	s.queries[pattern] = q
	return q, nil
}

// close releases the compiled queries.
func (s *sourceStore) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.queries {
		q.Close()
	}
	s.queries = make(map[string]*sitter.Query)
}

// nodeArg unwraps a proxied *sitter.Node argument.
func nodeArg(fn string, arg object.Object) (*sitter.Node, *object.Error) {
	proxy, ok := arg.(*object.Proxy)
	if !ok {
		return nil, object.Errorf("%s: expected proxy (Node), got %s", fn, arg.Type())
	}
	node, ok := proxy.Interface().(*sitter.Node)
	if !ok {
		return nil, object.Errorf("%s: expected *sitter.Node, got %T", fn, proxy.Interface())
	}
	return node, nil
}

// stringArg unwraps a string argument.
func stringArg(fn, name string, arg object.Object) (string, *object.Error) {
	s, ok := arg.(*object.String)
	if !ok {
		return "", object.Errorf("%s: %s must be a string, got %s", fn, name, arg.Type())
	}
	return s.Value(), nil
}

// makeParseFn creates "parse", which parses a Java file from disk.
//
// parse(path) → *sitter.Tree
func makeParseFn(ss *sourceStore) *object.Builtin {
	return object.NewBuiltin("parse", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("parse", 1, len(args))
		}
		path, errObj := stringArg("parse", "path", args[0])
		if errObj != nil {
			return errObj
		}
		tree, src, err := ParseFile(ctx, path)
		if err != nil {
			return object.Errorf("parse: %v", err)
		}
		return proxyTree(ss, tree, src)
	})
}

// makeParseSrcFn creates "parse_src", which parses a Java snippet such as a
// relation's raw text.
//
// parse_src(source) → *sitter.Tree
func makeParseSrcFn(ss *sourceStore) *object.Builtin {
	return object.NewBuiltin("parse_src", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("parse_src", 1, len(args))
		}
		src, errObj := stringArg("parse_src", "source", args[0])
		if errObj != nil {
			return errObj
		}
		return parseSource(ctx, ss, []byte(src))
	})
}

func parseSource(ctx context.Context, ss *sourceStore, src []byte) object.Object {
	tree, err := Parse(ctx, src)
	if err != nil {
		return object.Errorf("parse: %v", err)
	}
	return proxyTree(ss, tree, src)
}

func proxyTree(ss *sourceStore, tree *sitter.Tree, src []byte) object.Object {
	ss.store(tree, src)
	proxy, err := object.NewProxy(tree)
	if err != nil {
		return object.Errorf("parse: proxy error: %v", err)
	}
	return proxy
}

// makeNodeTextFn creates "node_text". Risor's proxy system cannot pass a
// string as the []byte that Node.Content wants.
//
// node_text(node) → string
func makeNodeTextFn(ss *sourceStore) *object.Builtin {
	return object.NewBuiltin("node_text", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("node_text", 1, len(args))
		}
		node, errObj := nodeArg("node_text", args[0])
		if errObj != nil {
			return errObj
		}
		src, found := ss.sourceForNode(node)
		if !found {
			return object.Errorf("node_text: no source found for node's tree")
		}
		return object.NewString(node.Content(src))
	})
}

// makeQueryFn creates "query", which runs a tree-sitter Java query under a
// node.
//
// query(pattern, node) → []map[string]Node
func makeQueryFn(ss *sourceStore) *object.Builtin {
	return object.NewBuiltin("query", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("query", 2, len(args))
		}
		pattern, errObj := stringArg("query", "pattern", args[0])
		if errObj != nil {
			return errObj
		}
		node, errObj := nodeArg("query", args[1])
		if errObj != nil {
			return errObj
		}
		src, found := ss.sourceForNode(node)
		if !found {
			return object.Errorf("query: no source found for node's tree")
		}
		q, err := ss.query(pattern)
		if err != nil {
			return object.Errorf("query: invalid pattern: %v", err)
		}

		cursor := sitter.NewQueryCursor()
		defer cursor.Close()
		cursor.Exec(q, node)

		results := []object.Object{}
		for {
			match, ok := cursor.NextMatch()
			if !ok {
				break
			}
			match = cursor.FilterPredicates(match, src)
			captures := make(map[string]object.Object, len(match.Captures))
			for _, c := range match.Captures {
				name := q.CaptureNameForId(c.Index)
				p, err := object.NewProxy(c.Node)
				if err != nil {
					return object.Errorf("query: proxy error for capture %q: %v", name, err)
				}
				captures[name] = p
			}
			results = append(results, object.NewMap(captures))
		}
		return object.NewList(results)
	})
}

// makeNodeChildFn creates "node_child", a ChildByFieldName that returns
// Risor nil rather than a proxied Go nil pointer.
//
// node_child(node, field) → Node or nil
func makeNodeChildFn() *object.Builtin {
	return object.NewBuiltin("node_child", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("node_child", 2, len(args))
		}
		node, errObj := nodeArg("node_child", args[0])
		if errObj != nil {
			return errObj
		}
		field, errObj := stringArg("node_child", "field", args[1])
		if errObj != nil {
			return errObj
		}
		child := node.ChildByFieldName(field)
		if child == nil {
			return object.Nil
		}
		p, err := object.NewProxy(child)
		if err != nil {
			return object.Errorf("node_child: proxy error: %v", err)
		}
		return p
	})
}

// logObject is the rules' log global.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Info(msg string)  { l.logger.Info(msg) }
func (l *logObject) Warn(msg string)  { l.logger.Warn(msg) }
func (l *logObject) Error(msg string) { l.logger.Error(msg) }
