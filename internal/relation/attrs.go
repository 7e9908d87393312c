package relation

// Attribute keys. Values are documented next to each key.
const (
	// Shared.
	AstKind          = "java.rel.ast_kind"          // string: syntax node type
	RawText          = "java.rel.raw_text"          // string: source text of the node
	External         = "java.rel.external"          // bool: target resolved by name only
	Unresolved       = "java.rel.unresolved"        // bool: no lookup tier matched
	VisibilityDenied = "java.rel.visibility_denied" // bool: target exists but is inaccessible
	Binding          = "java.rel.binding"           // string: how the target was found
	ArgumentIndex    = "java.rel.argument_index"    // int: position in an argument list

	CallReceiver         = "java.rel.call.receiver"
	CallReceiverType     = "java.rel.call.receiver_type"
	CallReceiverCastType = "java.rel.call.receiver_cast_type"
	CallIsStatic         = "java.rel.call.is_static"
	CallIsConstructor    = "java.rel.call.is_constructor"
	CallIsChained        = "java.rel.call.is_chained"
	CallIsVarargs        = "java.rel.call.is_varargs"
	CallIsInherited      = "java.rel.call.is_inherited"
	CallIsFunctional     = "java.rel.call.is_functional"
	CallIsImplicit       = "java.rel.call.is_implicit"
	CallTypeArguments    = "java.rel.call.type_arguments"
	CallArgsCount        = "java.rel.call.args_count"

	UseReceiver  = "java.rel.use.receiver"
	UseRole      = "java.rel.use.role" // read, argument, receiver, operand
	UseIsStatic  = "java.rel.use.is_static"
	UseIsCapture = "java.rel.use.is_capture"

	AssignOperator        = "java.rel.assign.operator"
	AssignValue           = "java.rel.assign.value_expression"
	AssignIsCompound      = "java.rel.assign.is_compound"
	AssignIsChained       = "java.rel.assign.is_chained"
	AssignIsUnaryUpdate   = "java.rel.assign.is_unary_update"
	AssignIsPostfix       = "java.rel.assign.is_postfix"
	AssignIsInitializer   = "java.rel.assign.is_initializer"
	AssignIndexExpression = "java.rel.assign.index_expression"
	AssignReceiver        = "java.rel.assign.receiver"

	CastOperand         = "java.rel.cast.operand_expression"
	CastIsPrimitive     = "java.rel.cast.is_primitive"
	CastIsPattern       = "java.rel.cast.is_pattern_matching"
	CastPatternVariable = "java.rel.cast.pattern_variable"

	ThrowIsSignature = "java.rel.throw.is_signature"
	ThrowIndex       = "java.rel.throw.index"
	ThrowIsRethrow   = "java.rel.throw.is_rethrow"
	ThrowIsRuntime   = "java.rel.throw.is_runtime"

	ReturnIsPrimitive    = "java.rel.return.is_primitive"
	ReturnIsArray        = "java.rel.return.is_array"
	ReturnDimensions     = "java.rel.return.dimensions"
	ReturnHasTypeArgs    = "java.rel.return.has_type_arguments"
	ReturnIsTypeVariable = "java.rel.return.is_type_variable"

	ParameterName          = "java.rel.parameter.name"
	ParameterIndex         = "java.rel.parameter.index"
	ParameterIsVarargs     = "java.rel.parameter.is_varargs"
	ParameterIsFinal       = "java.rel.parameter.is_final"
	ParameterHasAnnotation = "java.rel.parameter.has_annotation"
	ParameterIsArray       = "java.rel.parameter.is_array"

	TypeArgIndex        = "java.rel.type_arg.index"
	TypeArgDepth        = "java.rel.type_arg.depth"
	TypeArgParent       = "java.rel.type_arg.parent_type"
	TypeArgIsWildcard   = "java.rel.type_arg.is_wildcard"
	TypeArgWildcardKind = "java.rel.type_arg.wildcard_kind" // unbounded, extends, super
	TypeArgIsArray      = "java.rel.type_arg.is_array"

	CaptureKind               = "java.rel.capture.kind" // local_variable, parameter, field, static_field
	CaptureDepth              = "java.rel.capture.depth"
	CaptureIsImplicitThis     = "java.rel.capture.is_implicit_this"
	CaptureIsStatic           = "java.rel.capture.is_static"
	CaptureIsEffectivelyFinal = "java.rel.capture.is_effectively_final"

	CreateIsAnonymous   = "java.rel.create.is_anonymous"
	CreateIsArray       = "java.rel.create.is_array"
	CreateDimensions    = "java.rel.create.dimensions"
	CreateArguments     = "java.rel.create.arguments"
	CreateVariableName  = "java.rel.create.variable_name"
	CreateTypeArguments = "java.rel.create.type_arguments"

	ExtendIndex          = "java.rel.extend.index"
	ExtendHasTypeArgs    = "java.rel.extend.has_type_arguments"
	ImplementIndex       = "java.rel.implement.index"
	ImplementAnonymous   = "java.rel.implement.is_anonymous"
	ImplementHasTypeArgs = "java.rel.implement.has_type_arguments"

	AnnotationTarget = "java.rel.annotation.target" // TYPE, FIELD, METHOD, PARAMETER, LOCAL_VARIABLE
	AnnotationValue  = "java.rel.annotation.value"  // literal argument list text
	AnnotationParams = "java.rel.annotation.params" // name=value pairs, comma separated
)

// Binding classifications stored under the Binding key.
const (
	BindLocal        = "local"
	BindParameter    = "parameter"
	BindField        = "field"
	BindInherited    = "inherited"
	BindStatic       = "static"
	BindStaticImport = "static_import"
	BindCapture      = "capture"
	BindExternal     = "external"
	BindUnresolved   = "unresolved"
	BindDenied       = "visibility_denied"
	BindType         = "type"
)

// Capture kinds stored under CaptureKind.
const (
	CaptureLocal       = "local_variable"
	CaptureParameter   = "parameter"
	CaptureField       = "field"
	CaptureStaticField = "static_field"
)
