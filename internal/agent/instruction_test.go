package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildInstruction(t *testing.T) {
	emails := []string{"a@b.com", "c@d.com"}

	got := BuildInstruction("engineering", emails, "We ship on Fridays", true)
	assert.Contains(t, got, "#engineering")
	assert.Contains(t, got, "a@b.com, c@d.com")
	assert.Contains(t, got, "We ship on Fridays")
	assert.Contains(t, got, "Include the channel description")
	assert.NotContains(t, got, "Do not include")
}

func TestBuildInstructionWithoutDescription(t *testing.T) {
	got := BuildInstruction("general", []string{"a@b.com"}, "hi.", false)
	assert.Contains(t, got, "Do not include the channel description")
}

func TestBuildInstructionDefaultContext(t *testing.T) {
	for _, context := range []string{"", "   ", "\n\t"} {
		got := BuildInstruction("general", []string{"a@b.com"}, context, false)
		assert.Contains(t, got, DefaultContext)
	}

	// A provided context replaces the default.
	got := BuildInstruction("general", []string{"a@b.com"}, "custom note", false)
	assert.Contains(t, got, "custom note")
	assert.NotContains(t, got, DefaultContext)
}
