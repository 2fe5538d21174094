package logging

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecret_AlwaysRedacted(t *testing.T) {
	t.Parallel()

	s := Secret("hunter2-super-secret")
	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%s", s))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%#v", s))
}

func TestRedact(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		secrets []string
		want    string
	}{
		{
			name:    "single occurrence",
			input:   "token=abcd1234 sent",
			secrets: []string{"abcd1234"},
			want:    "token=[REDACTED] sent",
		},
		{
			name:    "multiple occurrences",
			input:   "abcd1234 and again abcd1234",
			secrets: []string{"abcd1234"},
			want:    "[REDACTED] and again [REDACTED]",
		},
		{
			name:    "short values untouched",
			input:   "id=ab code=ab",
			secrets: []string{"ab"},
			want:    "id=ab code=ab",
		},
		{
			name:    "empty secret list",
			input:   "nothing to do",
			secrets: nil,
			want:    "nothing to do",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Redact(tt.input, tt.secrets))
		})
	}
}

func TestNamed_Prefix(t *testing.T) {
	t.Parallel()

	root := New(true, true)
	child := root.Named("keyvault")
	assert.Equal(t, "keyvault", child.component)
	assert.Equal(t, "", root.component, "child must not mutate the parent")
}
