package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCondition_IsValid(t *testing.T) {
	valid := []Condition{
		ConditionChanged, ConditionSet, ConditionCleared, ConditionChangedTo,
		ConditionChangedFrom, ConditionTransition, ConditionMatches,
	}
	for _, c := range valid {
		assert.True(t, c.IsValid(), "expected %q to be valid", c)
	}

	assert.False(t, Condition("").IsValid())
	assert.False(t, Condition("became").IsValid())
}

func TestSnapshot_Hash(t *testing.T) {
	s := Snapshot{"status": {Field: "status", ValueHash: "abc"}}

	h, ok := s.Hash("status")
	assert.True(t, ok)
	assert.Equal(t, "abc", h)

	_, ok = s.Hash("assignee")
	assert.False(t, ok)
}
