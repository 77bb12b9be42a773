package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsConfirmation(t *testing.T) {
	for _, s := range []string{"confirm", "Yes", "y", "OK", "okay", "sure", "do it", "save it", "go ahead", "please do", "yes!", " confirm "} {
		assert.True(t, isConfirmation(s), s)
	}
	for _, s := range []string{"yes, and also save my tasks", "confirmation", "maybe"} {
		assert.False(t, isConfirmation(s), s)
	}
}

func TestIsCancellation(t *testing.T) {
	for _, s := range []string{"cancel", "No", "discard", "never mind", "no."} {
		assert.True(t, isCancellation(s), s)
	}
	assert.False(t, isCancellation("do not cancel"))
}

func TestIsEdit(t *testing.T) {
	text, ok := isEdit("edit: save a task instead")
	assert.True(t, ok)
	assert.Equal(t, "save a task instead", text)

	text, ok = isEdit("EDIT:   trimmed")
	assert.True(t, ok)
	assert.Equal(t, "trimmed", text)

	_, ok = isEdit("please edit my note")
	assert.False(t, ok)
}
