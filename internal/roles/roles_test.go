package roles

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionsAreKeyedPerMember(t *testing.T) {
	s := NewSelections(10, time.Minute)
	s.Select("g1", "u1", "support")
	s.Select("g1", "u2", "moderator")
	s.Select("g2", "u1", "creative")

	role, ok := s.Take("g1", "u1")
	require.True(t, ok)
	assert.Equal(t, "support", role)

	role, ok = s.Peek("g1", "u2")
	require.True(t, ok)
	assert.Equal(t, "moderator", role)

	role, ok = s.Take("g2", "u1")
	require.True(t, ok)
	assert.Equal(t, "creative", role)
}

func TestTakeConsumes(t *testing.T) {
	s := NewSelections(10, time.Minute)
	s.Select("g1", "u1", "support")

	_, ok := s.Take("g1", "u1")
	require.True(t, ok)
	_, ok = s.Take("g1", "u1")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestSelectReplacesEarlierChoice(t *testing.T) {
	s := NewSelections(10, time.Minute)
	s.Select("g1", "u1", "support")
	s.Select("g1", "u1", "presenter")

	role, _ := s.Take("g1", "u1")
	assert.Equal(t, "presenter", role)
}

func TestSelectionsExpire(t *testing.T) {
	s := NewSelections(10, 20*time.Millisecond)
	s.Select("g1", "u1", "support")

	assert.Eventually(t, func() bool {
		_, ok := s.Peek("g1", "u1")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestQuestions(t *testing.T) {
	assert.Len(t, Questions("support"), 4)

	presenter := Questions("presenter")
	require.Len(t, presenter, 5)
	assert.Equal(t, "identity", presenter[0].ID)
	assert.Equal(t, "microphone", presenter[1].ID)
}

func TestLookup(t *testing.T) {
	r, ok := Lookup("moderator")
	require.True(t, ok)
	assert.Equal(t, "Moderator", r.Label)

	_, ok = Lookup("owner")
	assert.False(t, ok)
}

func TestFormat(t *testing.T) {
	role, _ := Lookup("support")
	out := Format(role, "42", map[string]string{
		"identity":   "Jane, 21",
		"experience": "  ",
		"time":       "GMT+3",
		"motivation": "fun",
	})

	assert.Contains(t, out, "**New application:** Support")
	assert.Contains(t, out, "<@42>")
	assert.Contains(t, out, "**Your name and age** Jane, 21")
	assert.Contains(t, out, "**Have you been staff on other servers?** not provided")
	assert.NotContains(t, out, "microphone")
}
