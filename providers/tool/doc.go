// Package tool provides the typed tool abstraction and the immutable
// catalog the orchestration loop dispatches through. A [Tool] binds a name
// and description to a strongly-typed Go function with reflection-derived
// parameter schemas; a [Catalog] is the fixed name→tool lookup table built
// once at startup and advertised to the model as its available actions.
package tool
