package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"BEARER   xyz ", "xyz", true},
		{"raw-token", "raw-token", true},
		{"Bearer    ", "", false},
		{"bearer", "", false},
		{"  BEARER\t", "", false},
		{"Bearertoken", "Bearertoken", true},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := BearerToken(tc.header)
		assert.Equal(t, tc.ok, ok, tc.header)
		assert.Equal(t, tc.want, got, tc.header)
	}
}
