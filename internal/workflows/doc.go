// Package workflows wires the built-in workflow handlers into the
// workflow registry used by the dispatcher.
//
// Two handlers ship with notewatch: "log" writes each change to the
// diagnostic log, and "command" runs an external program with the change
// payload as JSON on stdin. Anything else is expected to be registered by
// an embedding program.
package workflows
