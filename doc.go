// Package understory extracts scope-aware semantic relations from Java
// source code. It parses compilation units with tree-sitter, builds a scope
// tree and a project-wide type index, and resolves every name it can to a
// stable qualified name. The output is a flat list of typed relations
// (CALL, USE, ASSIGN, CAST, THROW, RETURN, PARAMETER, TYPE_ARG, CAPTURE,
// CREATE, EXTEND, IMPLEMENT, ANNOTATION) that can be filtered, exported and
// persisted to SQLite for querying.
//
// # Pipeline
//
// [Engine.Analyze] runs four phases over a set of sources:
//
//  1. Parse: every unit is parsed with tree-sitter, concurrently.
//  2. Declare: the declaration pass builds each unit's scope tree and
//     exports its type shapes. Exports are merged into one project index in
//     path order, and the index is frozen.
//  3. Resolve: the expression pass walks executable code against the frozen
//     index and emits relations, concurrently.
//  4. Commit: relations go through the noise filter and Risor rules, and
//     the run is written to the store when one is configured.
//
// # Usage
//
//	e, err := understory.New(understory.WithStore("understory.db"))
//	if err != nil { ... }
//	defer e.Close()
//
//	report, err := e.AnalyzeDirectory(ctx, "path/to/project")
//	for _, rel := range report.Relations() {
//		fmt.Println(rel)
//	}
//
//	callers, err := e.Query().Callers("com.example.Service.run()")
//
// # Query API
//
// The [QueryBuilder] returned by [Engine.Query] reads the latest finished
// run (or one selected with [QueryBuilder.AtRun]):
//
//   - [QueryBuilder.RelationsFrom] and [QueryBuilder.RelationsTo]: relations
//     by source or target qualified name.
//   - [QueryBuilder.Callers], [QueryBuilder.Callees], [QueryBuilder.Captures].
//   - [QueryBuilder.TransitiveCallers] and [QueryBuilder.TransitiveCallees]:
//     BFS over CALL relations with a depth limit.
//   - [QueryBuilder.Symbols], [QueryBuilder.Units], [QueryBuilder.Diagnostics].
//   - [QueryBuilder.TypeHierarchy], [QueryBuilder.PackageDependencyGraph],
//     [QueryBuilder.Hotspots], [QueryBuilder.SymbolDetail],
//     [QueryBuilder.Impact].
//
// # Rules
//
// Rules are Risor programs evaluated once per relation after the noise
// level has been applied. A rule sees the relation as the rel map and keeps
// it by evaluating to a truthy value:
//
//	rel["kind"] != "USE" && !rel["target"].has_prefix("java.")
//
// See the internal/runtime package for the globals exposed to rules.
package understory
