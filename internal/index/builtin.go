package index

import "strings"

// jdkTypes lists well-known JDK types per package. java.lang is implicitly
// imported; the rest resolve through on-demand imports (`import java.util.*`)
// or as a last resort when a simple name is unambiguous.
var jdkTypes = map[string][]string{
	"java.lang": {
		"Object", "String", "System", "Math", "StrictMath", "Class", "ClassLoader",
		"Integer", "Long", "Double", "Float", "Boolean", "Byte", "Character", "Short",
		"Void", "Number", "Enum", "Record", "Thread", "ThreadLocal", "Runtime",
		"StringBuilder", "StringBuffer", "CharSequence", "Iterable", "Comparable",
		"Runnable", "AutoCloseable", "Cloneable", "Process", "ProcessBuilder",
		"StackTraceElement", "Throwable", "Exception", "Error", "RuntimeException",
		"NullPointerException", "IllegalArgumentException", "IllegalStateException",
		"IndexOutOfBoundsException", "ArrayIndexOutOfBoundsException",
		"UnsupportedOperationException", "ClassCastException", "ArithmeticException",
		"NumberFormatException", "InterruptedException", "CloneNotSupportedException",
		"ReflectiveOperationException", "ClassNotFoundException", "SecurityException",
		"AssertionError", "OutOfMemoryError", "StackOverflowError",
		"Override", "Deprecated", "SuppressWarnings", "SafeVarargs", "FunctionalInterface",
	},
	"java.lang.annotation": {
		"Retention", "RetentionPolicy", "Target", "ElementType", "Documented",
		"Inherited", "Repeatable", "Native", "Annotation",
	},
	"java.util": {
		"List", "ArrayList", "LinkedList", "Map", "HashMap", "LinkedHashMap", "TreeMap",
		"Set", "HashSet", "LinkedHashSet", "TreeSet", "Collection", "Collections",
		"Arrays", "Iterator", "Optional", "Objects", "Queue", "Deque", "ArrayDeque",
		"PriorityQueue", "Stack", "Vector", "Properties", "UUID", "Random", "Scanner",
		"Date", "Calendar", "Locale", "Comparator", "StringJoiner", "EnumMap", "EnumSet",
		"NoSuchElementException", "ConcurrentModificationException",
	},
	"java.util.function": {
		"Function", "BiFunction", "Consumer", "BiConsumer", "Supplier", "Predicate",
		"BiPredicate", "UnaryOperator", "BinaryOperator", "IntFunction", "ToIntFunction",
	},
	"java.util.stream": {"Stream", "Collectors", "IntStream", "LongStream"},
	"java.util.concurrent": {
		"Callable", "Future", "CompletableFuture", "Executor", "ExecutorService",
		"Executors", "TimeUnit", "ConcurrentHashMap", "CountDownLatch",
		"ExecutionException", "TimeoutException",
	},
	"java.io": {
		"Serializable", "Closeable", "File", "InputStream", "OutputStream", "Reader",
		"Writer", "PrintStream", "BufferedReader", "FileReader", "InputStreamReader",
		"IOException", "FileNotFoundException", "UncheckedIOException",
	},
	"java.nio.file": {"Path", "Paths", "Files"},
	"java.sql":      {"Connection", "ResultSet", "SQLException", "Statement", "PreparedStatement"},
}

// jdkRuntime lists unchecked exception types.
var jdkRuntime = map[string]bool{
	"java.lang.RuntimeException":                true,
	"java.lang.NullPointerException":            true,
	"java.lang.IllegalArgumentException":        true,
	"java.lang.IllegalStateException":           true,
	"java.lang.IndexOutOfBoundsException":       true,
	"java.lang.ArrayIndexOutOfBoundsException":  true,
	"java.lang.UnsupportedOperationException":   true,
	"java.lang.ClassCastException":              true,
	"java.lang.ArithmeticException":             true,
	"java.lang.NumberFormatException":           true,
	"java.lang.SecurityException":               true,
	"java.io.UncheckedIOException":              true,
	"java.util.NoSuchElementException":          true,
	"java.util.ConcurrentModificationException": true,
}

// jdkFields gives the declared type of a few static JDK fields so that calls
// through them (System.out.println) get a receiver type.
var jdkFields = map[string]string{
	"java.lang.System.out": "java.io.PrintStream",
	"java.lang.System.err": "java.io.PrintStream",
	"java.lang.System.in":  "java.io.InputStream",
}

var primitives = map[string]bool{
	"byte": true, "short": true, "int": true, "long": true, "float": true,
	"double": true, "boolean": true, "char": true, "void": true,
}

var (
	jdkBySimple  = make(map[string]string)
	jdkQualified = make(map[string]bool)
)

func init() {
	// Earlier packages win for duplicated simple names.
	order := []string{"java.lang", "java.util", "java.util.function", "java.util.stream",
		"java.util.concurrent", "java.io", "java.nio.file", "java.sql", "java.lang.annotation"}
	for _, pkg := range order {
		for _, name := range jdkTypes[pkg] {
			qn := pkg + "." + name
			jdkQualified[qn] = true
			if _, ok := jdkBySimple[name]; !ok {
				jdkBySimple[name] = qn
			}
		}
	}
}

// IsPrimitive reports whether name is a Java primitive type or void.
func IsPrimitive(name string) bool {
	return primitives[name]
}

// JavaLang returns the java.lang type for a simple name.
func JavaLang(simple string) (string, bool) {
	qn := "java.lang." + simple
	return qn, jdkQualified[qn]
}

// JDKType returns the qualified name of a well-known JDK type by simple name.
func JDKType(simple string) (string, bool) {
	qn, ok := jdkBySimple[simple]
	return qn, ok
}

// IsJDKType reports whether qn names a well-known JDK type.
func IsJDKType(qn string) bool {
	return jdkQualified[qn]
}

// IsJDK reports whether qn lives in a java.* or javax.* package.
func IsJDK(qn string) bool {
	return strings.HasPrefix(qn, "java.") || strings.HasPrefix(qn, "javax.")
}

// IsRuntimeException reports whether qn is a known unchecked exception.
func IsRuntimeException(qn string) bool {
	return jdkRuntime[qn]
}

// JDKFieldType returns the declared type of a well-known static JDK field.
func JDKFieldType(fieldQN string) (string, bool) {
	t, ok := jdkFields[fieldQN]
	return t, ok
}
