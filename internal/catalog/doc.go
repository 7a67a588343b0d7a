// Package catalog holds the static Solscan Pro v2 endpoint catalog.
//
// The catalog ships as an embedded TOML file parsed once at init: endpoint
// groups with their required/optional parameters, the alias table, the
// fuzzy variant rewrites, and the allowed path prefixes. Everything is
// read-only after startup, so lookups need no locking.
//
// Description renders the catalog into the single tool's description text,
// so clients learn the full upstream surface from tools/list alone, and
// Normalize maps client-supplied endpoint names to their canonical forms.
package catalog
