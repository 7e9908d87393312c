package runtime

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/risor-io/risor/object"

	"github.com/jward/understory/internal/relation"
)

// Rule is a Risor program evaluated once per relation. A truthy result
// keeps the relation.
type Rule struct {
	Name   string
	Source string
}

// LoadRule reads a rule file through the Runtime's filesystem. The rule is
// named after the file without its extension.
func (r *Runtime) LoadRule(path string) (Rule, error) {
	src, err := r.LoadScript(path)
	if err != nil {
		return Rule{}, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Rule{Name: name, Source: src}, nil
}

// Keep evaluates rule against rel.
func (r *Runtime) Keep(ctx context.Context, rule Rule, rel relation.Relation) (bool, error) {
	res, err := r.eval(ctx, rule.Source, rule.Name, relationGlobals(rel))
	if err != nil {
		return false, err
	}
	if res == nil {
		return false, fmt.Errorf("runtime: rule %s returned no value", rule.Name)
	}
	return res.IsTruthy(), nil
}

// relationGlobals exposes rel to a rule as the rel map plus the attr and
// has_attr builtins. Attribute names may be given with or without the
// "java.rel." prefix.
func relationGlobals(rel relation.Relation) map[string]any {
	attrs := make(map[string]object.Object, len(rel.Attrs))
	for k, v := range rel.Attrs {
		attrs[k] = toObject(v)
	}
	relMap := object.NewMap(map[string]object.Object{
		"source":      object.NewString(rel.Source.QualifiedName),
		"source_kind": object.NewString(rel.Source.Kind),
		"target":      object.NewString(rel.Target.QualifiedName),
		"target_kind": object.NewString(rel.Target.Kind),
		"kind":        object.NewString(rel.Kind.String()),
		"line":        object.NewInt(int64(rel.Span.Line)),
		"attrs":       object.NewMap(attrs),
	})

	lookup := func(name string) (any, bool) {
		if v, ok := rel.Attrs[name]; ok {
			return v, true
		}
		v, ok := rel.Attrs["java.rel."+name]
		return v, ok
	}

	attrFn := object.NewBuiltin("attr", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("attr", 1, len(args))
		}
		name, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("attr: name must be a string, got %s", args[0].Type())
		}
		v, found := lookup(name.Value())
		if !found {
			return object.Nil
		}
		return toObject(v)
	})
	hasAttrFn := object.NewBuiltin("has_attr", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("has_attr", 1, len(args))
		}
		name, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("has_attr: name must be a string, got %s", args[0].Type())
		}
		_, found := lookup(name.Value())
		return object.NewBool(found)
	})

	return map[string]any{
		"rel":      relMap,
		"attr":     attrFn,
		"has_attr": hasAttrFn,
	}
}

func toObject(v any) object.Object {
	switch x := v.(type) {
	case string:
		return object.NewString(x)
	case bool:
		return object.NewBool(x)
	case int:
		return object.NewInt(int64(x))
	case int64:
		return object.NewInt(x)
	case float64:
		return object.NewFloat(x)
	case nil:
		return object.Nil
	}
	return object.NewString(fmt.Sprint(v))
}
