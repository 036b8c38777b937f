package crawler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases scheme and host", "HTTPS://Example.COM/Jobs", "https://example.com/Jobs"},
		{"strips default https port", "https://example.com:443/jobs", "https://example.com/jobs"},
		{"strips default http port", "http://example.com:80/jobs", "http://example.com/jobs"},
		{"keeps explicit ports", "https://example.com:8443/jobs", "https://example.com:8443/jobs"},
		{"drops fragments", "https://example.com/jobs#apply", "https://example.com/jobs"},
		{"sorts query parameters", "https://example.com/jobs?b=2&a=1", "https://example.com/jobs?a=1&b=2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeURL(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}

	t.Run("rejects malformed input", func(t *testing.T) {
		_, err := NormalizeURL("://bad")
		require.Error(t, err)
	})
}

func TestHostOf(t *testing.T) {
	require.Equal(t, "example.com", HostOf("https://Example.com:8080/jobs"))
	require.Equal(t, "", HostOf("://bad"))
}

func TestHostPolicy_Admits(t *testing.T) {
	t.Run("same origin and subdomains always pass", func(t *testing.T) {
		p := NewHostPolicy(nil)
		require.True(t, p.Admits("example.com", "example.com"))
		require.True(t, p.Admits("example.com", "jobs.example.com"))
		require.False(t, p.Admits("example.com", "other.test"))
	})

	t.Run("exact patterns match one host", func(t *testing.T) {
		p := NewHostPolicy([]string{"weworkremotely.com"})
		require.True(t, p.Admits("example.com", "weworkremotely.com"))
		require.False(t, p.Admits("example.com", "sub.weworkremotely.com.evil.test"))
	})

	t.Run("wildcard patterns match the suffix and its subdomains", func(t *testing.T) {
		p := NewHostPolicy([]string{"*.greenhouse.io", ".lever.co"})
		require.True(t, p.Admits("example.com", "boards.greenhouse.io"))
		require.True(t, p.Admits("example.com", "greenhouse.io"))
		require.True(t, p.Admits("example.com", "jobs.lever.co"))
		require.False(t, p.Admits("example.com", "greenhouse.io.evil.test"))
	})

	t.Run("empty host never passes", func(t *testing.T) {
		p := NewHostPolicy([]string{"example.com"})
		require.False(t, p.Admits("example.com", ""))
	})
}
