package javasem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/understory/internal/relation"
)

func TestChainedCall(t *testing.T) {
	t.Parallel()

	res := analyzeOne(t, `import java.util.List;
class A {
    List<String> getList() { return null; }
    void m(String x) { getList().add(x); }
}
`)
	requireOne(t, res.Relations, relation.Call, "A.m(String)", "A.getList()")
	add := requireOne(t, res.Relations, relation.Call, "A.m(String)", "java.util.List.add")
	assert.Equal(t, true, add.Attrs[relation.CallIsChained])
	assert.Equal(t, true, add.Attrs[relation.External])
	assert.Equal(t, "java.util.List", add.Attrs[relation.CallReceiverType])
	assert.Equal(t, 1, add.Attrs[relation.CallArgsCount])

	arg := requireOne(t, res.Relations, relation.Use, "A.m(String)", "A.m(String).x")
	assert.Equal(t, "argument", arg.Attrs[relation.UseRole])
}

func TestChainedAssignmentSharesValue(t *testing.T) {
	t.Parallel()

	res := analyzeOne(t, `class A {
    void m() {
        int a, b, c;
        a = b = c = 5;
    }
}
`)
	assigns := selectRels(res.Relations, relation.Assign, "A.m()", "")
	require.Len(t, assigns, 3)
	for i, target := range []string{"A.m().a", "A.m().b", "A.m().c"} {
		assert.Equal(t, target, assigns[i].Target.QualifiedName)
		assert.Equal(t, "5", assigns[i].Attrs[relation.AssignValue])
		assert.Equal(t, true, assigns[i].Attrs[relation.AssignIsChained])
	}
}

func TestCompoundAssignment(t *testing.T) {
	t.Parallel()

	res := analyzeOne(t, `class A { int total; void add(int n) { total += n; } }`)
	a := requireOne(t, res.Relations, relation.Assign, "A.add(int)", "A.total")
	assert.Equal(t, "+=", a.Attrs[relation.AssignOperator])
	assert.Equal(t, true, a.Attrs[relation.AssignIsCompound])
	assert.Equal(t, "n", a.Attrs[relation.AssignValue])
}

func TestTypeArguments(t *testing.T) {
	t.Parallel()

	res := analyzeOne(t, `import java.util.List;
import java.util.Map;
class A {
    Map<String, List<Integer>> index;
    List<? extends Number> nums;
    List<?> any;
}
`)
	str := requireOne(t, res.Relations, relation.TypeArg, "A.index", "java.lang.String")
	assert.Equal(t, 0, str.Attrs[relation.TypeArgIndex])
	assert.Equal(t, 1, str.Attrs[relation.TypeArgDepth])
	assert.Equal(t, "java.util.Map", str.Attrs[relation.TypeArgParent])

	list := requireOne(t, res.Relations, relation.TypeArg, "A.index", "java.util.List")
	assert.Equal(t, 1, list.Attrs[relation.TypeArgIndex])
	assert.Equal(t, 1, list.Attrs[relation.TypeArgDepth])

	integer := requireOne(t, res.Relations, relation.TypeArg, "A.index", "java.lang.Integer")
	assert.Equal(t, 0, integer.Attrs[relation.TypeArgIndex])
	assert.Equal(t, 2, integer.Attrs[relation.TypeArgDepth])
	assert.Equal(t, "java.util.List", integer.Attrs[relation.TypeArgParent])

	num := requireOne(t, res.Relations, relation.TypeArg, "A.nums", "java.lang.Number")
	assert.Equal(t, true, num.Attrs[relation.TypeArgIsWildcard])
	assert.Equal(t, "extends", num.Attrs[relation.TypeArgWildcardKind])

	unbounded := requireOne(t, res.Relations, relation.TypeArg, "A.any", "java.lang.Object")
	assert.Equal(t, "unbounded", unbounded.Attrs[relation.TypeArgWildcardKind])
}

func TestSupertypes(t *testing.T) {
	t.Parallel()

	res := analyzeOne(t, `interface Shape {}
interface Named {}
class Base {}
class Circle extends Base implements Shape, Named {}
interface Solid extends Shape, Named {}
class Task implements Runnable { public void run() {} }
`)
	ext := requireOne(t, res.Relations, relation.Extend, "Circle", "Base")
	assert.Equal(t, 0, ext.Attrs[relation.ExtendIndex])

	shape := requireOne(t, res.Relations, relation.Implement, "Circle", "Shape")
	assert.Equal(t, 0, shape.Attrs[relation.ImplementIndex])
	assert.Equal(t, "INTERFACE", shape.Target.Kind)
	named := requireOne(t, res.Relations, relation.Implement, "Circle", "Named")
	assert.Equal(t, 1, named.Attrs[relation.ImplementIndex])

	requireOne(t, res.Relations, relation.Extend, "Solid", "Shape")
	solidNamed := requireOne(t, res.Relations, relation.Extend, "Solid", "Named")
	assert.Equal(t, 1, solidNamed.Attrs[relation.ExtendIndex])
	assert.Empty(t, selectRels(res.Relations, relation.Implement, "Solid", ""))

	runnable := requireOne(t, res.Relations, relation.Implement, "Task", "java.lang.Runnable")
	assert.Equal(t, "INTERFACE", runnable.Target.Kind)
	assert.Equal(t, true, runnable.Attrs[relation.External])
}

func TestAnonymousClassCreation(t *testing.T) {
	t.Parallel()

	res := analyzeOne(t, `class A {
    void m() {
        Runnable r = new Runnable() {
            public void run() {}
        };
    }
}
`)
	create := requireOne(t, res.Relations, relation.Create, "A.m()", "java.lang.Runnable")
	assert.Equal(t, true, create.Attrs[relation.CreateIsAnonymous])
	assert.Equal(t, "r", create.Attrs[relation.CreateVariableName])

	impl := requireOne(t, res.Relations, relation.Implement, "A.m().$1", "java.lang.Runnable")
	assert.Equal(t, true, impl.Attrs[relation.ImplementAnonymous])
	assert.Equal(t, "ANONYMOUS_CLASS", impl.Source.Kind)
}

func TestCreateArray(t *testing.T) {
	t.Parallel()

	res := analyzeOne(t, `class A { void m() { String[][] grid = new String[2][3]; } }`)
	c := requireOne(t, res.Relations, relation.Create, "A.m()", "java.lang.String")
	assert.Equal(t, true, c.Attrs[relation.CreateIsArray])
	assert.Equal(t, 2, c.Attrs[relation.CreateDimensions])
	assert.Equal(t, "grid", c.Attrs[relation.CreateVariableName])
}

func TestConstructorCalls(t *testing.T) {
	t.Parallel()

	res := analyzeOne(t, `class Base { Base(int x) {} }
class A extends Base {
    A() { this(1); }
    A(int x) { super(x); }
}
`)
	this := requireOne(t, res.Relations, relation.Call, "A.A()", "A.A(int)")
	assert.Equal(t, true, this.Attrs[relation.CallIsConstructor])

	super := requireOne(t, res.Relations, relation.Call, "A.A(int)", "Base.Base(int)")
	assert.Equal(t, true, super.Attrs[relation.CallIsConstructor])
	assert.Equal(t, true, super.Attrs[relation.CallIsInherited])
}

func TestMethodReference(t *testing.T) {
	t.Parallel()

	res := analyzeOne(t, `import java.util.function.Function;
class A {
    static int len(String s) { return s.length(); }
    void m() { Function<String, Integer> f = A::len; }
}
`)
	ref := requireOne(t, res.Relations, relation.Call, "A.m()", "A.len(String)")
	assert.Equal(t, true, ref.Attrs[relation.CallIsFunctional])
	assert.Equal(t, true, ref.Attrs[relation.CallIsStatic])
}

func TestSignatureEdges(t *testing.T) {
	t.Parallel()

	res := analyzeOne(t, `class A {
    int[] sizes(final int count, String... rest) { return null; }
}
`)
	ret := requireOne(t, res.Relations, relation.Return, "A.sizes(int,String[])", "int")
	assert.Equal(t, true, ret.Attrs[relation.ReturnIsPrimitive])
	assert.Equal(t, true, ret.Attrs[relation.ReturnIsArray])
	assert.Equal(t, 1, ret.Attrs[relation.ReturnDimensions])

	count := requireOne(t, res.Relations, relation.Parameter, "A.sizes(int,String[])", "int")
	assert.Equal(t, "count", count.Attrs[relation.ParameterName])
	assert.Equal(t, 0, count.Attrs[relation.ParameterIndex])
	assert.Equal(t, true, count.Attrs[relation.ParameterIsFinal])

	rest := requireOne(t, res.Relations, relation.Parameter, "A.sizes(int,String[])", "java.lang.String")
	assert.Equal(t, 1, rest.Attrs[relation.ParameterIndex])
	assert.Equal(t, true, rest.Attrs[relation.ParameterIsVarargs])
	assert.Equal(t, true, rest.Attrs[relation.ParameterIsArray])
}

func TestThrows(t *testing.T) {
	t.Parallel()

	res := analyzeOne(t, `import java.io.IOException;
class A {
    void m() throws IOException, IllegalStateException {
        throw new IllegalArgumentException("x");
    }
    void n(Exception e) throws Exception { throw e; }
}
`)
	io := requireOne(t, res.Relations, relation.Throw, "A.m()", "java.io.IOException")
	assert.Equal(t, true, io.Attrs[relation.ThrowIsSignature])
	assert.Equal(t, 0, io.Attrs[relation.ThrowIndex])
	assert.Nil(t, io.Attrs[relation.ThrowIsRuntime])

	ise := requireOne(t, res.Relations, relation.Throw, "A.m()", "java.lang.IllegalStateException")
	assert.Equal(t, 1, ise.Attrs[relation.ThrowIndex])
	assert.Equal(t, true, ise.Attrs[relation.ThrowIsRuntime])

	iae := requireOne(t, res.Relations, relation.Throw, "A.m()", "java.lang.IllegalArgumentException")
	assert.Equal(t, false, iae.Attrs[relation.ThrowIsSignature])
	assert.Equal(t, true, iae.Attrs[relation.ThrowIsRuntime])

	rethrows := relation.Filter(selectRels(res.Relations, relation.Throw, "A.n(Exception)", "java.lang.Exception"),
		func(r relation.Relation) bool { return r.Attrs.Bool(relation.ThrowIsRethrow) })
	require.Len(t, rethrows, 1)
}

func TestAnnotations(t *testing.T) {
	t.Parallel()

	res := analyzeOne(t, `@interface Marker {}
@Marker
class A {
    @Deprecated int old;
    @SuppressWarnings(value = "unchecked")
    void m(@Marker int p) {
        @Marker int local = 1;
    }
}
`)
	typ := requireOne(t, res.Relations, relation.Annotation, "A", "Marker")
	assert.Equal(t, "TYPE", typ.Attrs[relation.AnnotationTarget])
	assert.Equal(t, "ANNOTATION", typ.Target.Kind)

	field := requireOne(t, res.Relations, relation.Annotation, "A.old", "java.lang.Deprecated")
	assert.Equal(t, "FIELD", field.Attrs[relation.AnnotationTarget])

	method := requireOne(t, res.Relations, relation.Annotation, "A.m(int)", "java.lang.SuppressWarnings")
	assert.Equal(t, "METHOD", method.Attrs[relation.AnnotationTarget])
	assert.Equal(t, `value = "unchecked"`, method.Attrs[relation.AnnotationValue])
	assert.Equal(t, `value="unchecked"`, method.Attrs[relation.AnnotationParams])

	param := requireOne(t, res.Relations, relation.Annotation, "A.m(int).p", "Marker")
	assert.Equal(t, "PARAMETER", param.Attrs[relation.AnnotationTarget])

	local := requireOne(t, res.Relations, relation.Annotation, "A.m(int).local", "Marker")
	assert.Equal(t, "LOCAL_VARIABLE", local.Attrs[relation.AnnotationTarget])
}

func TestPatternMatchingCast(t *testing.T) {
	t.Parallel()

	res := analyzeOne(t, `class A {
    void m(Object o) {
        if (o instanceof String s) {
            System.out.println(s);
        }
        boolean plain = o instanceof Integer;
    }
}
`)
	c := requireOne(t, res.Relations, relation.Cast, "A.m(Object)", "java.lang.String")
	assert.Equal(t, true, c.Attrs[relation.CastIsPattern])
	assert.Equal(t, "s", c.Attrs[relation.CastPatternVariable])
	assert.Empty(t, selectRels(res.Relations, relation.Cast, "", "java.lang.Integer"))
}

func TestRelationsAreSourcedFromInnermostExecutable(t *testing.T) {
	t.Parallel()

	res := analyzeOne(t, `class A {
    void helper() {}
    void m() {
        Runnable r = () -> helper();
    }
}
`)
	requireOne(t, res.Relations, relation.Call, "A.m().lambda$1", "A.helper()")
	assert.Empty(t, selectRels(res.Relations, relation.Call, "A.m()", "A.helper()"))
}

func TestMissingTreeFails(t *testing.T) {
	t.Parallel()

	results, _ := Analyze([]Unit{{Path: "Broken.java"}})
	require.Len(t, results, 1)
	assert.Equal(t, StatusFailed, results[0].Status)
	assert.True(t, hasDiag(results[0], DiagParseError))
	assert.Empty(t, results[0].Relations)
}

func TestSyntaxErrorsDegradeToPartial(t *testing.T) {
	t.Parallel()

	res := analyze(t, `class A { void m() { int x = 1 } void n() { m(); } }`)[0]
	assert.Equal(t, StatusPartial, res.Status)
	assert.True(t, hasDiag(res, DiagParseError))
}

func TestAmbiguousDefaultMethod(t *testing.T) {
	t.Parallel()

	res := analyzeOne(t, `interface Left { default void hello() {} }
interface Right { default void hello() {} }
class Both implements Left, Right {
    void m() { hello(); }
}
`)
	call := requireOne(t, res.Relations, relation.Call, "Both.m()", "Left.hello()")
	assert.Equal(t, true, call.Attrs[relation.CallIsInherited])
	assert.True(t, hasDiag(res, DiagAmbiguousMember))
}
