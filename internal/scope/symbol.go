package scope

import "slices"

// SymbolKind is the kind of a declared entity. The string form is what
// appears as sourceKind / targetKind in emitted relations.
type SymbolKind string

const (
	SymPackage        SymbolKind = "PACKAGE"
	SymClass          SymbolKind = "CLASS"
	SymInterface      SymbolKind = "INTERFACE"
	SymEnum           SymbolKind = "ENUM"
	SymRecord         SymbolKind = "RECORD"
	SymAnnotationType SymbolKind = "ANNOTATION"
	SymEnumConstant   SymbolKind = "ENUM_CONSTANT"
	SymField          SymbolKind = "FIELD"
	SymMethod         SymbolKind = "METHOD"
	SymConstructor    SymbolKind = "CONSTRUCTOR"
	SymParameter      SymbolKind = "PARAMETER"
	SymVariable       SymbolKind = "VARIABLE"
	SymLambda         SymbolKind = "LAMBDA"
	SymAnonymous      SymbolKind = "ANONYMOUS_CLASS"
	SymInitializer    SymbolKind = "INITIALIZER"

	// Kinds used only for relation endpoints that are not declared in the
	// analyzed sources.
	SymPrimitive SymbolKind = "PRIMITIVE"
	SymTypeParam SymbolKind = "TYPE_PARAMETER"
	SymUnknown   SymbolKind = "UNKNOWN"
)

// IsType reports whether the kind declares a named type.
func (k SymbolKind) IsType() bool {
	switch k {
	case SymClass, SymInterface, SymEnum, SymRecord, SymAnnotationType:
		return true
	}
	return false
}

// Callable reports whether symbols of the kind form overload sets.
func (k SymbolKind) Callable() bool {
	return k == SymMethod || k == SymConstructor
}

// Unnamed reports whether symbols of the kind are never looked up by name
// (lambdas, anonymous classes, initializer blocks).
func (k SymbolKind) Unnamed() bool {
	return k == SymLambda || k == SymAnonymous || k == SymInitializer
}

// Ordered reports whether the symbol is only visible after its declaration
// point within its scope.
func (k SymbolKind) Ordered() bool {
	return k == SymVariable || k == SymParameter
}

// Variable reports whether the kind names a storage location that can be
// read, written or captured.
func (k SymbolKind) Variable() bool {
	switch k {
	case SymField, SymEnumConstant, SymParameter, SymVariable:
		return true
	}
	return false
}

// Symbol is a declared entity.
type Symbol struct {
	ID            SymbolID
	QualifiedName string
	Name          string
	Kind          SymbolKind
	// Type is the declared type as written: a field/local/parameter type or
	// a method's return type. Empty for constructors and types.
	Type      string
	Modifiers []string
	// Scope is the scope the symbol is declared in.
	Scope ScopeID
	// Body is the scope the symbol introduces, if any.
	Body ScopeID
	Span Span
	// Offset is the byte offset from which the symbol is visible.
	Offset uint32

	// Params are the declared parameter types of a method or constructor.
	Params  []string
	Varargs bool
	// TypeParams are the names of declared type parameters.
	TypeParams []string
	// Supertypes lists a type's superclass first, then its interfaces in
	// declaration order, as written.
	Supertypes []string
	// HasSuperclass is set when Supertypes[0] came from an extends clause
	// of a class.
	HasSuperclass bool
	// Implicit marks symbols synthesized from language rules (default
	// constructors, enum values/valueOf, record accessors).
	Implicit bool

	// Writes counts assignments to a local or parameter after its
	// declaration. Filled in by the declaration pass.
	Writes int
}

// HasModifier reports whether the symbol was declared with mod.
func (s *Symbol) HasModifier(mod string) bool {
	return slices.Contains(s.Modifiers, mod)
}

// Static reports whether the symbol is a static member. The declaration
// pass adds the modifier where Java implies it (interface fields, enum
// constants, nested enums, records and interfaces).
func (s *Symbol) Static() bool {
	return s.HasModifier("static")
}

// Visibility returns public, protected, private or package.
func (s *Symbol) Visibility() string {
	for _, m := range []string{"public", "protected", "private"} {
		if s.HasModifier(m) {
			return m
		}
	}
	return "package"
}
