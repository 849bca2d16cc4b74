// Package connectors holds the adapters that read the watched notes tree.
// The filesystem connector is the only one; it lists and reads notes and
// can translate filesystem notifications into poll-loop wake-ups.
package connectors
