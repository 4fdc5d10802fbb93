package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJoinPolicy(t *testing.T) {
	tests := []struct {
		name string
		want JoinPolicy
	}{
		{"", CarryForward},
		{"carry-forward", CarryForward},
		{"Carry-Forward", CarryForward},
		{" clear-on-match ", ClearOnMatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJoinPolicy(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseJoinPolicy("greedy")
	assert.ErrorIs(t, err, ErrUnknownJoinPolicy)
}

func TestJoinPolicy_String(t *testing.T) {
	assert.Equal(t, "carry-forward", CarryForward.String())
	assert.Equal(t, "clear-on-match", ClearOnMatch.String())
	assert.Equal(t, "JoinPolicy(9)", JoinPolicy(9).String())

	for _, p := range []JoinPolicy{CarryForward, ClearOnMatch} {
		parsed, err := ParseJoinPolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}
}
