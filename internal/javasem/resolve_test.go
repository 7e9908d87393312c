package javasem

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/understory/internal/relation"
)

func TestDeclaredNamesAreDistinct(t *testing.T) {
	t.Parallel()

	src := `package p;
class A {
    int x;
    A() {}
    A(int x) { this.x = x; }
    void m(int a) {}
    void m(String a) {}
    void sib() {
        { int y = 1; }
        { int y = 2; }
        Runnable r1 = () -> {};
        Runnable r2 = () -> { Runnable inner = () -> {}; };
        Object o = new Object() { public String toString() { return "o"; } };
    }
    static { int z = 0; }
}
`
	d := Declare(parseUnit(t, "A.java", src))
	require.False(t, d.Failed())

	seen := make(map[string]bool)
	for _, id := range d.Arena().AllSymbols() {
		qn := d.Arena().Symbol(id).QualifiedName
		assert.False(t, seen[qn], "duplicate qualified name %s", qn)
		seen[qn] = true
	}

	syms := d.Symbols()
	for _, qn := range []string{
		"p.A",
		"p.A.x",
		"p.A.A()",
		"p.A.A(int)",
		"p.A.A(int).x",
		"p.A.m(int)",
		"p.A.m(String)",
		"p.A.sib().block$1.y$1",
		"p.A.sib().block$2.y$1",
		"p.A.sib().lambda$1",
		"p.A.sib().lambda$2",
		"p.A.sib().lambda$2.lambda$1",
		"p.A.sib().$1",
		"p.A.sib().$1.toString()",
		"p.A.static$1",
	} {
		assert.Contains(t, syms, qn)
	}
}

func TestInnermostBlockLocalWins(t *testing.T) {
	t.Parallel()

	res := analyzeOne(t, `class A {
    int x = 0;
    void m(int x) {
        {
            int x = 2;
            System.out.println(x);
        }
    }
}
`)
	use := requireOne(t, res.Relations, relation.Use, "A.m(int)", "A.m(int).block$1.x$1")
	assert.Equal(t, "argument", use.Attrs[relation.UseRole])
	assert.Equal(t, 0, use.Attrs[relation.ArgumentIndex])
	assert.Empty(t, selectRels(res.Relations, relation.Use, "", "A.m(int).x"))
	assert.Empty(t, selectRels(res.Relations, relation.Use, "", "A.x"))
}

func TestStaticContextDeniesInstanceMembers(t *testing.T) {
	t.Parallel()

	res := analyzeOne(t, `class A {
    int count;
    void run() {}
    static void s() {
        System.out.println(count);
        run();
    }
}
`)
	use := requireOne(t, res.Relations, relation.Use, "A.s()", "A.count")
	assert.Equal(t, true, use.Attrs[relation.VisibilityDenied])
	assert.Equal(t, relation.BindDenied, use.Attrs[relation.Binding])

	call := requireOne(t, res.Relations, relation.Call, "A.s()", "A.run()")
	assert.Equal(t, true, call.Attrs[relation.VisibilityDenied])
}

func TestNestedLambdaCaptureDepths(t *testing.T) {
	t.Parallel()

	for n := 1; n <= 4; n++ {
		t.Run(fmt.Sprintf("depth%d", n), func(t *testing.T) {
			t.Parallel()

			body := "System.out.println(x);"
			for i := n; i >= 1; i-- {
				body = fmt.Sprintf("Runnable r%d = () -> { %s };", i, body)
			}
			res := analyzeOne(t, "class A { void m() { int x = 1; "+body+" } }")

			captures := selectRels(res.Relations, relation.Capture, "", "A.m().x")
			require.Len(t, captures, n)
			depths := make(map[int]string)
			for _, c := range captures {
				d, ok := c.Attrs.Int(relation.CaptureDepth)
				require.True(t, ok)
				depths[d] = c.Source.QualifiedName
				assert.Equal(t, relation.CaptureLocal, c.Attrs[relation.CaptureKind])
				assert.Equal(t, "LAMBDA", c.Source.Kind)
			}
			for d := 1; d <= n; d++ {
				assert.Equal(t, "A.m()"+strings.Repeat(".lambda$1", d), depths[d], "depth %d", d)
			}
		})
	}
}

func TestSimpleAssignmentYieldsOneAssign(t *testing.T) {
	t.Parallel()

	res := analyzeOne(t, `class A {
    int f;
    int[] arr = new int[2];
    void m(int b) {
        int a;
        a = b;
        this.f = b;
        arr[0] = b;
        int c = b;
    }
}
`)
	var fromB []relation.Relation
	for _, r := range selectRels(res.Relations, relation.Assign, "A.m(int)", "") {
		if r.Attrs[relation.AssignValue] == "b" {
			fromB = append(fromB, r)
		}
	}
	require.Len(t, fromB, 4)

	for _, target := range []string{"A.m(int).a", "A.f", "A.arr", "A.m(int).c"} {
		got := selectRels(fromB, relation.Assign, "", target)
		require.Len(t, got, 1, target)
		assert.Equal(t, "=", got[0].Attrs[relation.AssignOperator], target)
	}
	arr := selectRels(fromB, relation.Assign, "", "A.arr")[0]
	assert.Equal(t, "0", arr.Attrs[relation.AssignIndexExpression])
	field := selectRels(fromB, relation.Assign, "", "A.f")[0]
	assert.Equal(t, "this", field.Attrs[relation.AssignReceiver])
	decl := selectRels(fromB, relation.Assign, "", "A.m(int).c")[0]
	assert.Equal(t, true, decl.Attrs[relation.AssignIsInitializer])
}

func TestShadowedBlockLocalDoesNotLeak(t *testing.T) {
	t.Parallel()

	res := analyzeOne(t, `class A { int f=1; void m(){ { int f=2; } System.out.println(f); } }`)

	use := requireOne(t, res.Relations, relation.Use, "A.m()", "A.f")
	assert.Equal(t, "FIELD", use.Target.Kind)
	assert.Empty(t, selectRels(res.Relations, relation.Use, "", "A.m().block$1.f$1"))

	println := requireOne(t, res.Relations, relation.Call, "A.m()", "java.io.PrintStream.println")
	assert.Equal(t, true, println.Attrs[relation.External])
	assert.Equal(t, "System.out", println.Attrs[relation.CallReceiver])
}

func TestCapturedThenIncremented(t *testing.T) {
	t.Parallel()

	res := analyzeOne(t, `class A {
    void m() {
        int count = 0;
        Runnable r = () -> System.out.println(count);
        count++;
    }
}
`)
	captures := selectRels(res.Relations, relation.Capture, "", "")
	require.Len(t, captures, 1)
	c := captures[0]
	assert.Equal(t, "A.m().lambda$1", c.Source.QualifiedName)
	assert.Equal(t, "A.m().count", c.Target.QualifiedName)
	assert.Equal(t, relation.CaptureLocal, c.Attrs[relation.CaptureKind])
	assert.Equal(t, 1, c.Attrs[relation.CaptureDepth])
	assert.Equal(t, false, c.Attrs[relation.CaptureIsEffectivelyFinal])
	assert.True(t, hasDiag(res, DiagCapturedReassigned))

	incs := relation.Filter(selectRels(res.Relations, relation.Assign, "A.m()", "A.m().count"),
		func(r relation.Relation) bool { return r.Attrs.Bool(relation.AssignIsUnaryUpdate) })
	require.Len(t, incs, 1)
	inc := incs[0]
	assert.Equal(t, "++", inc.Attrs[relation.AssignOperator])
	assert.Equal(t, true, inc.Attrs[relation.AssignIsPostfix])
}

func TestCastReceiverCall(t *testing.T) {
	t.Parallel()

	res := analyzeOne(t, `class Base {}
class SubClass extends Base { void specificMethod() {} }
class A {
    void m(Base input) {
        ((SubClass) input).specificMethod();
    }
}
`)
	cast := requireOne(t, res.Relations, relation.Cast, "", "")
	assert.Equal(t, "A.m(Base)", cast.Source.QualifiedName)
	assert.Equal(t, "SubClass", cast.Target.QualifiedName)
	assert.Equal(t, "input", cast.Attrs[relation.CastOperand])

	call := requireOne(t, res.Relations, relation.Call, "", "SubClass.specificMethod()")
	assert.Equal(t, "A.m(Base)", call.Source.QualifiedName)
	assert.Equal(t, "SubClass", call.Attrs[relation.CallReceiverCastType])

	requireOne(t, res.Relations, relation.Use, "A.m(Base)", "A.m(Base).input")
}

func TestCrossUnitReferencesResolveRegardlessOfOrder(t *testing.T) {
	t.Parallel()

	caller := `package p;
class B {
    int run() { return A.twice(3); }
}
`
	callee := `package p;
public class A {
    public static int twice(int x) { return x * 2; }
}
`
	results := analyze(t, caller, callee)
	call := requireOne(t, results[0].Relations, relation.Call, "p.B.run()", "p.A.twice(int)")
	assert.Equal(t, true, call.Attrs[relation.CallIsStatic])
	assert.Nil(t, call.Attrs[relation.External])
	assert.Nil(t, call.Attrs[relation.Unresolved])
}

func TestUnresolvedNamesAreStillEmitted(t *testing.T) {
	t.Parallel()

	res := analyzeOne(t, `class A { void m() { System.out.println(missing); } }`)
	use := requireOne(t, res.Relations, relation.Use, "A.m()", "missing")
	assert.Equal(t, true, use.Attrs[relation.Unresolved])
	assert.Equal(t, "UNKNOWN", use.Target.Kind)
}

func TestFieldCaptureThroughAnonymousClass(t *testing.T) {
	t.Parallel()

	res := analyzeOne(t, `class A {
    int total;
    static int shared;
    void m() {
        Runnable r = new Runnable() {
            public void run() { total = shared; }
        };
    }
}
`)
	field := requireOne(t, res.Relations, relation.Capture, "A.m().$1", "A.total")
	assert.Equal(t, relation.CaptureField, field.Attrs[relation.CaptureKind])
	assert.Equal(t, true, field.Attrs[relation.CaptureIsImplicitThis])

	static := requireOne(t, res.Relations, relation.Capture, "A.m().$1", "A.shared")
	assert.Equal(t, relation.CaptureStaticField, static.Attrs[relation.CaptureKind])
	assert.Equal(t, true, static.Attrs[relation.CaptureIsStatic])

	requireOne(t, res.Relations, relation.Assign, "A.m().$1.run()", "A.total")
}

func TestExactArityBeatsEarlierVarargsOverload(t *testing.T) {
	t.Parallel()

	res := analyzeOne(t, `class A {
    void v(String... xs) {}
    void v(int a) {}
    void t() {
        v(1);
        v("a", "b");
        v();
    }
}
`)
	exact := requireOne(t, res.Relations, relation.Call, "A.t()", "A.v(int)")
	assert.Nil(t, exact.Attrs[relation.CallIsVarargs])

	spread := selectRels(res.Relations, relation.Call, "A.t()", "A.v(String[])")
	require.Len(t, spread, 2)
	for _, c := range spread {
		assert.Equal(t, true, c.Attrs[relation.CallIsVarargs])
	}
}

func TestSwitchLabelsAndPatterns(t *testing.T) {
	t.Parallel()

	res := analyzeOne(t, `package p;
class A {
    static final int LIMIT = 10;
    String t(Object o, int n) {
        switch (n) {
            case LIMIT:
                break;
            default:
                break;
        }
        return switch (o) {
            case String s when s.isEmpty() -> "empty";
            case String s -> s.trim();
            default -> "other";
        };
    }
}
`)
	const src = "p.A.t(Object,int)"
	limit := requireOne(t, res.Relations, relation.Use, src, "p.A.LIMIT")
	assert.Equal(t, true, limit.Attrs[relation.UseIsStatic])

	casts := selectRels(res.Relations, relation.Cast, src, "java.lang.String")
	require.Len(t, casts, 2)
	for _, c := range casts {
		assert.Equal(t, true, c.Attrs[relation.CastIsPattern])
		assert.Equal(t, "s", c.Attrs[relation.CastPatternVariable])
		assert.Equal(t, "o", c.Attrs[relation.CastOperand])
	}

	requireOne(t, res.Relations, relation.Call, src, "java.lang.String.isEmpty")
	requireOne(t, res.Relations, relation.Call, src, "java.lang.String.trim")

	uses := relation.Filter(res.Relations, func(r relation.Relation) bool {
		return r.Kind == relation.Use && r.Attrs[relation.RawText] == "s"
	})
	require.Len(t, uses, 2)
	assert.NotEqual(t, uses[0].Target.QualifiedName, uses[1].Target.QualifiedName)
	for _, u := range uses {
		assert.Equal(t, "VARIABLE", u.Target.Kind)
		assert.Equal(t, relation.BindLocal, u.Attrs[relation.Binding])
		assert.True(t, strings.HasPrefix(u.Target.QualifiedName, src+"."), u.Target.QualifiedName)
	}
}

func TestEnumSwitchLabelsBindToConstants(t *testing.T) {
	t.Parallel()

	res := analyzeOne(t, `enum Color { RED, GREEN }
class A {
    int code(Color c) {
        switch (c) {
            case RED:
                return 1;
            default:
                return 0;
        }
    }
    int arrow(Color c) {
        return switch (c) {
            case GREEN -> 2;
            default -> 0;
        };
    }
}
`)
	red := requireOne(t, res.Relations, relation.Use, "A.code(Color)", "Color.RED")
	assert.Equal(t, "ENUM_CONSTANT", red.Target.Kind)
	assert.Nil(t, red.Attrs[relation.Unresolved])

	requireOne(t, res.Relations, relation.Use, "A.arrow(Color)", "Color.GREEN")
}

func TestRecordPatternBindsComponents(t *testing.T) {
	t.Parallel()

	res := analyzeOne(t, `record P(int x, int y) {}
class A {
    int sum(Object o) {
        if (o instanceof P(int x, int y)) {
            return x + y;
        }
        return 0;
    }
}
`)
	for _, name := range []string{"x", "y"} {
		use := requireOne(t, res.Relations, relation.Use, "A.sum(Object)", "A.sum(Object)."+name)
		assert.Equal(t, relation.BindLocal, use.Attrs[relation.Binding])
	}
	assert.Empty(t, selectRels(res.Relations, relation.Use, "", "x"))

	cast := requireOne(t, res.Relations, relation.Cast, "A.sum(Object)", "P")
	assert.Equal(t, true, cast.Attrs[relation.CastIsPattern])
	assert.Nil(t, cast.Attrs[relation.CastPatternVariable])
}

func TestExplicitThisInStaticContextIsDenied(t *testing.T) {
	t.Parallel()

	res := analyzeOne(t, `class A {
    int count;
    void inst() {}
    static void s() {
        this.inst();
        System.out.println(this.count);
    }
    void ok() {
        this.inst();
    }
}
`)
	call := requireOne(t, res.Relations, relation.Call, "A.s()", "A.inst()")
	assert.Equal(t, true, call.Attrs[relation.VisibilityDenied])
	assert.Equal(t, relation.BindDenied, call.Attrs[relation.Binding])

	use := requireOne(t, res.Relations, relation.Use, "A.s()", "A.count")
	assert.Equal(t, true, use.Attrs[relation.VisibilityDenied])

	ok := requireOne(t, res.Relations, relation.Call, "A.ok()", "A.inst()")
	assert.Nil(t, ok.Attrs[relation.VisibilityDenied])
	assert.Equal(t, relation.BindField, ok.Attrs[relation.Binding])
}

func TestSuperFieldBindsAsInherited(t *testing.T) {
	t.Parallel()

	res := analyzeOne(t, `class Base { protected int f; }
class A extends Base {
    int f;
    int m() { return super.f; }
}
`)
	use := requireOne(t, res.Relations, relation.Use, "A.m()", "Base.f")
	assert.Equal(t, relation.BindInherited, use.Attrs[relation.Binding])
}

func TestLocalClassCapturesEnclosingLocal(t *testing.T) {
	t.Parallel()

	res := analyzeOne(t, `class A {
    void m() {
        int base = 1;
        class Local {
            int get() { return base; }
        }
    }
}
`)
	c := requireOne(t, res.Relations, relation.Capture, "A.m().Local", "A.m().base")
	assert.Equal(t, relation.CaptureLocal, c.Attrs[relation.CaptureKind])
	assert.Equal(t, 1, c.Attrs[relation.CaptureDepth])

	use := requireOne(t, res.Relations, relation.Use, "A.m().Local.get()", "A.m().base")
	assert.Equal(t, relation.BindCapture, use.Attrs[relation.Binding])
}
