// Package errcode provides centralized error code definitions shared by
// every compiler phase, following the error taxonomy from the pipeline's
// error-handling design (parse, module, loader, resolution, class,
// conformance, flow, type, LSP, and fork-level errors).
package errcode

// Error code constants organized by phase. Each constant represents a
// specific error condition surfaced by the diagnostics bus.
const (
	// ============================================================================
	// Parser / scan errors (PAR###) — surfaced by the external producer,
	// forwarded unchanged through the diagnostics bus.
	// ============================================================================

	PAR001 = "PAR001" // unexpected token
	PAR002 = "PAR002" // missing closing delimiter

	// ============================================================================
	// Module declaration errors (MOD###)
	// ============================================================================

	MOD001 = "MOD001" // show/export clash with a declaration
	MOD002 = "MOD002" // show clash with another show from a different module
	MOD003 = "MOD003" // show/prefix clash
	MOD004 = "MOD004" // duplicate export
	MOD005 = "MOD005" // export cycle detected

	// ============================================================================
	// Unit loader / importer errors (LDR###)
	// ============================================================================

	LDR001 = "LDR001" // import file not found
	LDR002 = "LDR002" // folder exists but missing expected file
	LDR003 = "LDR003" // dotted out of the owning package
	LDR004 = "LDR004" // relative import from a virtual file
	LDR005 = "LDR005" // filesystem error reading the import target

	// ============================================================================
	// Package / package-lock errors (PKG###)
	// ============================================================================

	PKG001 = "PKG001" // unknown package prefix
	PKG002 = "PKG002" // package lock manifest malformed
	PKG003 = "PKG003" // SDK version constraint not satisfied

	// ============================================================================
	// Class skeleton / inheritance errors (CLS###)
	// ============================================================================

	CLS001 = "CLS001" // inheritance cycle
	CLS002 = "CLS002" // monitor with explicit super
	CLS003 = "CLS003" // unresolved super/interface reference

	// ============================================================================
	// Method resolution errors (RES###)
	// ============================================================================

	RES001 = "RES001" // unresolved identifier
	RES002 = "RES002" // ambiguous reference
	RES003 = "RES003" // no matching overload for call shape
	RES004 = "RES004" // instance access before super call
	RES005 = "RES005" // assignment to final field

	// ============================================================================
	// Abstract / interface conformance errors (ABS###)
	// ============================================================================

	ABS001 = "ABS001" // abstract method not implemented
	ABS002 = "ABS002" // abstract method partially shadowed

	// ============================================================================
	// Definite-assignment / control-flow errors (DEF###)
	// ============================================================================

	DEF001 = "DEF001" // read of a possibly-undefined local
	DEF002 = "DEF002" // field not initialized on all paths
	DEF003 = "DEF003" // field not initialized before super call
	DEF004 = "DEF004" // method does not return on all paths

	// ============================================================================
	// Type & deprecation errors (TYP###)
	// ============================================================================

	TYP001 = "TYP001" // type mismatch
	TYP002 = "TYP002" // null assigned to non-nullable type
	TYP003 = "TYP003" // use of deprecated declaration (warning)

	// ============================================================================
	// LSP protocol errors (LSP###)
	// ============================================================================

	LSP001 = "LSP001" // malformed FS protocol frame
	LSP002 = "LSP002" // malformed transport frame

	// ============================================================================
	// Pipeline / fork errors (PIPE###)
	// ============================================================================

	PIPE001 = "PIPE001" // child process exited non-zero
	PIPE002 = "PIPE002" // child process terminated by signal
	PIPE003 = "PIPE003" // short read on IPC pipe
)

// Info describes one error code: the phase that raises it and a short
// human description, used for registry introspection and tests.
type Info struct {
	Code        string
	Phase       string
	Description string
}

// Registry maps every code above to its descriptive Info.
var Registry = map[string]Info{
	PAR001: {PAR001, "parser", "unexpected token"},
	PAR002: {PAR002, "parser", "missing closing delimiter"},

	MOD001: {MOD001, "module", "show/export clash with a declaration"},
	MOD002: {MOD002, "module", "show clash with another show"},
	MOD003: {MOD003, "module", "show/prefix clash"},
	MOD004: {MOD004, "module", "duplicate export"},
	MOD005: {MOD005, "module", "export cycle"},

	LDR001: {LDR001, "loader", "import file not found"},
	LDR002: {LDR002, "loader", "folder exists but missing expected file"},
	LDR003: {LDR003, "loader", "dotted out of owning package"},
	LDR004: {LDR004, "loader", "relative import from a virtual file"},
	LDR005: {LDR005, "loader", "filesystem error"},

	PKG001: {PKG001, "package", "unknown package prefix"},
	PKG002: {PKG002, "package", "malformed package lock manifest"},
	PKG003: {PKG003, "package", "SDK version constraint not satisfied"},

	CLS001: {CLS001, "classir", "inheritance cycle"},
	CLS002: {CLS002, "classir", "monitor with explicit super"},
	CLS003: {CLS003, "classir", "unresolved super/interface reference"},

	RES001: {RES001, "methodres", "unresolved identifier"},
	RES002: {RES002, "methodres", "ambiguous reference"},
	RES003: {RES003, "methodres", "no matching overload"},
	RES004: {RES004, "methodres", "instance access before super call"},
	RES005: {RES005, "methodres", "assignment to final field"},

	ABS001: {ABS001, "conform", "abstract method not implemented"},
	ABS002: {ABS002, "conform", "abstract method partially shadowed"},

	DEF001: {DEF001, "flowcheck", "read of possibly-undefined local"},
	DEF002: {DEF002, "flowcheck", "field not initialized on all paths"},
	DEF003: {DEF003, "flowcheck", "field not initialized before super call"},
	DEF004: {DEF004, "flowcheck", "method does not return on all paths"},

	TYP001: {TYP001, "typecheck", "type mismatch"},
	TYP002: {TYP002, "typecheck", "null assigned to non-nullable type"},
	TYP003: {TYP003, "typecheck", "use of deprecated declaration"},

	LSP001: {LSP001, "lspfs", "malformed FS protocol frame"},
	LSP002: {LSP002, "lsptransport", "malformed transport frame"},

	PIPE001: {PIPE001, "pipeline", "child process exited non-zero"},
	PIPE002: {PIPE002, "pipeline", "child process terminated by signal"},
	PIPE003: {PIPE003, "pipeline", "short read on IPC pipe"},
}

// Phase returns the owning phase name for a code, or "" if unknown.
func Phase(code string) string {
	return Registry[code].Phase
}
