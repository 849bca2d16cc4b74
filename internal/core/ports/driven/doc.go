// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentSource: Enumerates and reads notes
//   - MetadataExtractor: Turns note bytes into a field map
//   - SnapshotStore: Last-known hashed field state
//   - EventLog: Append-only record of detected changes
//   - RunLog: Append-only record of dispatch attempts
//   - WorkflowHandler: Executes one workflow for a change
//   - WorkflowRegistry: Resolves workflow names to handlers
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - ArtifactStore: Side-effect references. Without it, references are only logged.
//   - ChangeTrigger: Wake-up hints. Without it, the loop relies on its ticker.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or extractor package
package driven
