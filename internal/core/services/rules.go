package services

import (
	"fmt"

	"github.com/custodia-labs/notewatch/internal/core/domain"
	"github.com/custodia-labs/notewatch/internal/core/ports/driven"
	"github.com/custodia-labs/notewatch/internal/core/ports/driving"
	"github.com/custodia-labs/notewatch/internal/logger"
)

// Ensure RuleRegistry implements the interface.
var _ driving.RuleCatalog = (*RuleRegistry)(nil)

// RuleRegistry is an immutable, ordered collection of rules.
// It is built once at startup and only read during poll cycles, so it
// needs no locking. Reloading means building a new registry.
type RuleRegistry struct {
	rules   []domain.Rule
	byField map[string][]int
}

// NewRuleRegistry validates rules and freezes them in the given order.
func NewRuleRegistry(rules []domain.Rule) (*RuleRegistry, error) {
	r := &RuleRegistry{
		rules:   make([]domain.Rule, 0, len(rules)),
		byField: make(map[string][]int),
	}

	names := make(map[string]bool, len(rules))
	for _, rule := range rules {
		if rule.Name == "" {
			return nil, fmt.Errorf("%w: rule name is required", domain.ErrInvalidRule)
		}
		if names[rule.Name] {
			return nil, fmt.Errorf("%w: %q", domain.ErrDuplicateRule, rule.Name)
		}
		if rule.Field == "" {
			return nil, fmt.Errorf("%w: rule %q: field is required", domain.ErrInvalidRule, rule.Name)
		}
		if rule.WorkflowName == "" {
			return nil, fmt.Errorf("%w: rule %q: workflow is required", domain.ErrInvalidRule, rule.Name)
		}
		if rule.Predicate == nil {
			return nil, fmt.Errorf("%w: rule %q: predicate is required", domain.ErrInvalidRule, rule.Name)
		}
		names[rule.Name] = true
		r.byField[rule.Field] = append(r.byField[rule.Field], len(r.rules))
		r.rules = append(r.rules, rule)
	}

	return r, nil
}

// BuildRuleRegistry compiles declarative definitions. Every definition must
// name a workflow known to workflows, so misconfiguration fails at startup
// instead of producing error runs later.
func BuildRuleRegistry(defs []domain.RuleDefinition, workflows driven.WorkflowRegistry) (*RuleRegistry, error) {
	rules := make([]domain.Rule, 0, len(defs))
	for _, def := range defs {
		pred, err := CompilePredicate(def)
		if err != nil {
			return nil, err
		}
		if workflows != nil {
			if _, ok := workflows.Lookup(def.Workflow); !ok {
				return nil, fmt.Errorf("%w: rule %q references %q", domain.ErrUnknownWorkflow, def.Name, def.Workflow)
			}
		}
		rules = append(rules, domain.Rule{
			Name:         def.Name,
			Field:        def.Field,
			Predicate:    pred,
			WorkflowName: def.Workflow,
			Description:  def.Description,
			Stop:         def.Stop,
		})
	}
	return NewRuleRegistry(rules)
}

// Rules returns a copy of the rules in registration order.
func (r *RuleRegistry) Rules() []domain.Rule {
	out := make([]domain.Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Len returns the number of rules.
func (r *RuleRegistry) Len() int {
	return len(r.rules)
}

// Fields returns the distinct fields referenced by rules, in first-use order.
func (r *RuleRegistry) Fields() []string {
	var out []string
	seen := make(map[string]bool)
	for _, rule := range r.rules {
		if !seen[rule.Field] {
			seen[rule.Field] = true
			out = append(out, rule.Field)
		}
	}
	return out
}

// Matches returns the rules on the change's field whose predicate accepts
// the transition, in registration order. Every matching rule fires unless
// a matching rule has Stop set. A panicking predicate is a non-match.
func (r *RuleRegistry) Matches(change domain.Change) []domain.Rule {
	var matched []domain.Rule
	for _, idx := range r.byField[change.Field] {
		rule := r.rules[idx]
		ok, err := evaluate(rule, change)
		if err != nil {
			logger.Error(logger.KindPredicate, "rule %s on %s#%s: %v", rule.Name, change.Path, change.Field, err)
			continue
		}
		if !ok {
			continue
		}
		matched = append(matched, rule)
		if rule.Stop {
			break
		}
	}
	return matched
}

// evaluate runs a predicate, converting a panic into an error.
func evaluate(rule domain.Rule, change domain.Change) (ok bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			ok = false
			err = fmt.Errorf("predicate panicked: %v", rec)
		}
	}()
	return rule.Predicate(change.OldValue, change.NewValue), nil
}
