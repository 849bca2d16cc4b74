// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The pipeline is: Poller → DocumentSource → MetadataExtractor → Diff →
// RuleRegistry.Matches → Dispatcher, with the snapshot, event and run
// stores consulted along the way.
//
// Services are pure Go with no CGO.
package services
