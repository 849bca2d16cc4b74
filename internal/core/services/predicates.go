package services

import (
	"fmt"
	"regexp"

	"github.com/custodia-labs/notewatch/internal/core/domain"
)

// Changed matches every transition.
func Changed() domain.Predicate {
	return func(_, _ any) bool { return true }
}

// Set matches transitions to a non-empty value.
func Set() domain.Predicate {
	return func(_, newValue any) bool { return !IsEmpty(newValue) }
}

// Cleared matches transitions to an empty value.
func Cleared() domain.Predicate {
	return func(_, newValue any) bool { return IsEmpty(newValue) }
}

// ChangedTo matches transitions whose new value equals want.
func ChangedTo(want any) domain.Predicate {
	h := HashValue(want)
	return func(_, newValue any) bool { return HashValue(newValue) == h }
}

// ChangedFrom matches transitions whose old value equals want.
func ChangedFrom(want any) domain.Predicate {
	h := HashValue(want)
	return func(oldValue, _ any) bool { return HashValue(oldValue) == h }
}

// Transition matches transitions from one value to another.
func Transition(from, to any) domain.Predicate {
	fromP, toP := ChangedFrom(from), ChangedTo(to)
	return func(oldValue, newValue any) bool {
		return fromP(oldValue, newValue) && toP(oldValue, newValue)
	}
}

// Matches matches new values whose text form matches re.
// Non-string values are matched against their canonical form.
func Matches(re *regexp.Regexp) domain.Predicate {
	return func(_, newValue any) bool {
		if s, ok := newValue.(string); ok {
			return re.MatchString(s)
		}
		return re.MatchString(Canonical(newValue))
	}
}

// CompilePredicate builds the predicate described by a rule definition.
func CompilePredicate(def domain.RuleDefinition) (domain.Predicate, error) {
	switch def.When {
	case domain.ConditionChanged, "":
		return Changed(), nil
	case domain.ConditionSet:
		return Set(), nil
	case domain.ConditionCleared:
		return Cleared(), nil
	case domain.ConditionChangedTo:
		return ChangedTo(def.Value), nil
	case domain.ConditionChangedFrom:
		return ChangedFrom(def.Value), nil
	case domain.ConditionTransition:
		return Transition(def.From, def.Value), nil
	case domain.ConditionMatches:
		if def.Pattern == "" {
			return nil, fmt.Errorf("%w: rule %q: matches requires a pattern", domain.ErrInvalidRule, def.Name)
		}
		re, err := regexp.Compile(def.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %q: compiling pattern: %v", domain.ErrInvalidRule, def.Name, err)
		}
		return Matches(re), nil
	default:
		return nil, fmt.Errorf("%w: rule %q: unknown condition %q", domain.ErrInvalidRule, def.Name, def.When)
	}
}
