// Package catalog discovers compliance rule modules on disk and resolves
// them into evaluation bundles.
//
// A catalog is built from a directory tree of Rego rule files laid out as
//
//	<root>/<category>/[<subcategory>/]<version>/[<area>/]<name>.rego
//
// Only file headers are parsed during discovery (package declaration,
// import list and the leading metadata comment block); rule bodies are
// opaque to this package and are executed later by the external decision
// engine. Catalogs are immutable snapshots: a reload builds a fresh
// catalog and swaps it atomically through a Store, so in-flight
// evaluations always observe one consistent policy set.
package catalog
