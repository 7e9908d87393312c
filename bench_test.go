package understory

import (
	"context"
	"path/filepath"
	"testing"
)

// benchJavaSource is a realistic Java file with fields, overloads, nested
// lambdas, an anonymous class and generic calls for exercising the full
// analysis pipeline.
const benchJavaSource = `package bench;

import java.util.ArrayList;
import java.util.List;
import java.util.function.Function;

public class Inventory implements Comparable<Inventory> {
    private final List<String> items = new ArrayList<>();
    private static int instances;
    private String name;

    public Inventory(String name) {
        this.name = name;
        instances++;
    }

    public void add(String item) {
        items.add(item);
    }

    public void add(String item, int count) {
        for (int i = 0; i < count; i++) {
            add(item);
        }
    }

    public int size() {
        return items.size();
    }

    public List<String> map(Function<String, String> f) {
        List<String> out = new ArrayList<>();
        for (String s : items) {
            out.add(f.apply(s));
        }
        return out;
    }

    public Runnable reporter(String prefix) {
        int total = size();
        return () -> {
            Runnable inner = () -> System.out.println(prefix + name + total);
            inner.run();
        };
    }

    public Comparable<String> comparator() {
        return new Comparable<String>() {
            @Override
            public int compareTo(String other) {
                return name.compareTo(other);
            }
        };
    }

    @Override
    public int compareTo(Inventory other) {
        return Integer.compare(size(), other.size());
    }

    public static Inventory of(String name, String... items) {
        Inventory inv = new Inventory(name);
        for (String item : items) {
            inv.add(item);
        }
        if (inv.size() == 0) {
            throw new IllegalArgumentException("empty");
        }
        return inv;
    }

    public Object describe(Object o) {
        if (o instanceof Inventory other) {
            return other.name;
        }
        return (String) o;
    }
}
`

func benchSources() []Source {
	return []Source{
		{Path: "bench/Inventory.java", Content: []byte(benchJavaSource)},
		{Path: "p/A.java", Content: []byte(calleeSrc)},
		{Path: "p/B.java", Content: []byte(callerSrc)},
	}
}

// BenchmarkAnalyze_Java measures the in-memory pipeline: parse, declare,
// resolve and filter.
func BenchmarkAnalyze_Java(b *testing.B) {
	e, err := New()
	if err != nil {
		b.Fatal(err)
	}
	defer e.Close()
	ctx := context.Background()
	srcs := benchSources()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Analyze(ctx, srcs); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkAnalyze_JavaStore adds the commit phase to each iteration.
func BenchmarkAnalyze_JavaStore(b *testing.B) {
	e, err := New(WithStore(filepath.Join(b.TempDir(), "bench.db")), WithKeepRuns(1))
	if err != nil {
		b.Fatal(err)
	}
	defer e.Close()
	ctx := context.Background()
	srcs := benchSources()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Analyze(ctx, srcs); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkQueryTransitiveCallers measures the query path only, after a
// single stored run.
func BenchmarkQueryTransitiveCallers(b *testing.B) {
	e, err := New(WithStore(filepath.Join(b.TempDir(), "bench.db")))
	if err != nil {
		b.Fatal(err)
	}
	defer e.Close()
	if _, err := e.Analyze(context.Background(), benchSources()); err != nil {
		b.Fatal(err)
	}
	q := e.Query()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := q.TransitiveCallers("bench.Inventory.size()", 10); err != nil {
			b.Fatal(err)
		}
	}
}
