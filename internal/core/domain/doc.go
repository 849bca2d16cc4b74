// Package domain defines the core business entities for notewatch.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A note in the watched tree, identified by its path
//   - FieldMap: The tracked frontmatter fields of one document
//   - SnapshotRecord: The last-known hashed value of one field
//   - Change: A field transition detected between two poll cycles
//   - Rule: A (field, predicate, workflow) triple
//   - Run: One dispatch attempt and its outcome
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
