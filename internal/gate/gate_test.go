package gate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskdeck/taskdeck/internal/domain"
)

func TestAdmitSanitizes(t *testing.T) {
	g := New(100, 1000)

	got, err := g.Admit("u1", "  hello\x00\x01   world  ")
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
}

func TestAdmitRejectsEmpty(t *testing.T) {
	g := New(100, 1000)

	for _, raw := range []string{"", "   ", "\x00\x01\x02", "\n\n\n"} {
		_, err := g.Admit("u1", raw)
		require.Error(t, err, "raw %q", raw)
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	}
}

func TestAdmitRejectsOversized(t *testing.T) {
	g := New(10, 1000)

	_, err := g.Admit("u1", strings.Repeat("a", 11))
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	// Exactly at the bound passes.
	got, err := g.Admit("u1", strings.Repeat("a", 10))
	require.NoError(t, err)
	assert.Len(t, got, 10)
}

func TestAdmitRateLimitBoundary(t *testing.T) {
	perMinute := 5
	g := New(100, perMinute)

	for i := 0; i < perMinute; i++ {
		_, err := g.Admit("u1", "hello")
		require.NoError(t, err, "request %d", i)
	}

	_, err := g.Admit("u1", "hello")
	require.Error(t, err)
	assert.Equal(t, domain.KindRateLimit, domain.KindOf(err))

	// Other users are unaffected.
	_, err = g.Admit("u2", "hello")
	assert.NoError(t, err)
}

func TestSanitize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"a  b", "a b"},
		{"a\t\tb", "a b"},
		{"a\tb", "a\tb"},
		{"line1\n\n\n\nline2", "line1\n\nline2"},
		{"bell\x07and\x1bescape", "bellandescape"},
		{"del\x7fchar", "delchar"},
		{"c1\u0085controls\u009chere", "c1controlshere"},
		{"  trimmed  ", "trimmed"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Sanitize(tc.in), "input %q", tc.in)
	}
}
