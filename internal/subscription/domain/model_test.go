package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	terminal := []Status{StatusCancelled, StatusAnnulled, StatusRefunded, StatusExpired}

	for _, target := range terminal {
		assert.True(t, StatusActive.CanTransitionTo(target), "ACTIVE -> %s", target)
	}

	// Terminal states are dead ends, including moves between them.
	for _, from := range terminal {
		assert.True(t, from.IsTerminal())
		for _, target := range terminal {
			assert.False(t, from.CanTransitionTo(target), "%s -> %s", from, target)
		}
		assert.False(t, from.CanTransitionTo(StatusActive))
	}

	assert.False(t, StatusActive.IsTerminal())
	assert.False(t, StatusActive.CanTransitionTo(StatusActive))
}
