package model

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollapseEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want string
		ok   bool
	}{
		{"list", []any{"a@x.com", "b@x.com"}, "a@x.com", true},
		{"string list", []string{"a@x.com"}, "a@x.com", true},
		{"object list", []any{map[string]any{"email": "o@x.com"}}, "o@x.com", true},
		{"string", "  c@x.com ", "c@x.com", true},
		{"nil", nil, "", false},
		{"nan", math.NaN(), "", false},
		{"empty list", []any{}, "", false},
		{"blank", "   ", "", false},
		{"number", float64(4), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := CollapseEmail(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFallbackEmail(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Jane@yopmail.com", FallbackEmail("Jane", "yopmail.com"))
}

func TestFlattenSequence(t *testing.T) {
	t.Parallel()

	items := []EmailSequenceItem{
		{Sequence: "1", Subject: "s1", Body: "b1"},
		{Sequence: "2", Subject: "s2", Body: ""},
		{Sequence: "4", Subject: "s4", Body: "b4"},
		{Sequence: "2", Subject: "dup", Body: "dup"},
		{Sequence: "9", Subject: "out", Body: "out"},
	}
	got := FlattenSequence(items)
	assert.Equal(t, [SequenceLength]string{"s1", "s2", "", "s4", ""}, got.Subjects)
	assert.Equal(t, [SequenceLength]string{"b1", "", "", "b4", ""}, got.Bodies)
	assert.False(t, got.Empty())
	assert.True(t, FlattenSequence(nil).Empty())
}

func TestFlattenSequence_MissingNumberUsesOrdinal(t *testing.T) {
	t.Parallel()

	got := FlattenSequence([]EmailSequenceItem{{Subject: "a"}, {Subject: "b"}})
	assert.Equal(t, "a", got.Subjects[0])
	assert.Equal(t, "b", got.Subjects[1])
}

func TestEmailDataJSON(t *testing.T) {
	t.Parallel()

	var e EmailData
	e.Subjects[0] = "Hello"
	e.Bodies[0] = "Body"
	raw, err := json.Marshal(e)
	require.NoError(t, err)

	var m map[string]string
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "Hello", m["Subject 1"])
	assert.Equal(t, "Body", m["Email Body 1"])
	assert.Contains(t, m, "Email Body 5")

	var back EmailData
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, e, back)
}

func TestStripClosing(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Hi Jane,<br>Quick note.", StripClosing("Hi Jane,<br>Quick note.<br>Best regards,<br>Ahmed"))
	assert.Equal(t, "Hi<br>Let me know.", StripClosing("Hi<br>Let me know.<br>Cheers,<br>A"))
	assert.Equal(t, "No closing here", StripClosing("No closing here"))
}

func TestRemoveLineBreaks(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "line oneline two", RemoveLineBreaks("line one\nline two\n"))
	assert.Equal(t, "ab", RemoveLineBreaks(`a\nb`))
	assert.Equal(t, "x", RemoveLineBreaks("\r\n x \n"))
}
