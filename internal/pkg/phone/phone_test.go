//go:build unit

package phone_test

import (
	"testing"

	"voicedesk/internal/pkg/phone"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"+1 (555) 010-4477", "15550104477"},
		{"555.010.4477", "5550104477"},
		{"  555 010 4477  ", "5550104477"},
		{"no digits", ""},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, phone.Normalize(tc.in), "input %q", tc.in)
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, phone.Equal("+1 (555) 010-4477", "1-555-010-4477"))
	assert.False(t, phone.Equal("5550104477", "5550104478"))
	assert.False(t, phone.Equal("", ""))
}
