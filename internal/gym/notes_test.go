package gym_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traintrack/internal/gym"
)

func TestNormalizeNote(t *testing.T) {
	testCases := []struct {
		name     string
		note     string
		expected *string
	}{
		{name: "empty", note: "", expected: nil},
		{name: "spaces only", note: "   ", expected: nil},
		{name: "tabs and newlines", note: " \t \n ", expected: nil},
		{name: "plain text", note: "felt strong", expected: strPtr("felt strong")},
		{name: "text gets trimmed", note: "  new PR!  ", expected: strPtr("new PR!")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := gym.NormalizeNote(tc.note)
			if tc.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tc.expected, *got)
		})
	}
}

func strPtr(s string) *string {
	return &s
}
