package domain

// Payload is the input handed to a workflow handler.
type Payload struct {
	Path     string
	Field    string
	OldValue any
	NewValue any

	// Fields is the full tracked field map of the document.
	Fields FieldMap
}

// WorkflowResult is the outcome reported by a workflow handler.
type WorkflowResult struct {
	Success bool
	Message string
	Data    map[string]any
}

// Well-known keys in WorkflowResult.Data.
const (
	// DataReference holds a side-effect reference (e.g. a ticket id).
	DataReference = "reference"

	// DataKind optionally classifies the reference.
	DataKind = "kind"
)
