package domain

// Predicate decides whether a field transition is interesting.
// It receives the raw old and new values; either may be nil.
type Predicate func(old, new any) bool

// Rule describes when to run a workflow.
type Rule struct {
	// Name uniquely identifies the rule.
	Name string

	// Field is the tracked field the rule watches.
	Field string

	// Predicate is evaluated against the old and new values.
	Predicate Predicate

	// WorkflowName selects the handler to dispatch.
	WorkflowName string

	// Description is a human-readable summary.
	Description string

	// Stop ends evaluation for the change once this rule matches.
	Stop bool
}

// Condition names a built-in predicate kind in rule definitions.
type Condition string

// Available conditions.
const (
	// ConditionChanged matches any transition.
	ConditionChanged Condition = "changed"

	// ConditionSet matches transitions to a non-empty value.
	ConditionSet Condition = "set"

	// ConditionCleared matches transitions to an empty value.
	ConditionCleared Condition = "cleared"

	// ConditionChangedTo matches transitions whose new value equals Value.
	ConditionChangedTo Condition = "changed_to"

	// ConditionChangedFrom matches transitions whose old value equals Value.
	ConditionChangedFrom Condition = "changed_from"

	// ConditionTransition matches transitions from From to Value.
	ConditionTransition Condition = "transition"

	// ConditionMatches matches new values whose text matches Pattern.
	ConditionMatches Condition = "matches"
)

// IsValid returns true if the condition is recognised.
func (c Condition) IsValid() bool {
	switch c {
	case ConditionChanged, ConditionSet, ConditionCleared, ConditionChangedTo,
		ConditionChangedFrom, ConditionTransition, ConditionMatches:
		return true
	default:
		return false
	}
}

// RuleDefinition is the declarative form of a rule as loaded from configuration.
type RuleDefinition struct {
	Name        string
	Field       string
	When        Condition
	Value       any
	From        any
	Pattern     string
	Workflow    string
	Description string
	Stop        bool
}
