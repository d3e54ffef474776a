package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkByName(t *testing.T, checks []Check, name string) Check {
	t.Helper()
	for _, c := range checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no check named %q", name)
	return Check{}
}

func TestDoctorRunChecks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden) // unauthenticated, but reachable
	}))
	defer server.Close()

	t.Run("flags missing credentials", func(t *testing.T) {
		t.Setenv("ALPACA_API_KEY", "")
		t.Setenv("ALPACA_SECRET_KEY", "")

		checks := NewDoctor(server.URL).RunChecks(context.Background())

		assert.False(t, checkByName(t, checks, "ALPACA_API_KEY").OK)
		assert.False(t, checkByName(t, checks, "ALPACA_SECRET_KEY").OK)
	})

	t.Run("passes with credentials and a reachable API", func(t *testing.T) {
		t.Setenv("ALPACA_API_KEY", "key")
		t.Setenv("ALPACA_SECRET_KEY", "secret")
		t.Setenv("QUOTE_CACHE_TTL", "")

		checks := NewDoctor(server.URL).RunChecks(context.Background())

		for _, c := range checks {
			assert.True(t, c.OK, c.Name)
		}
	})

	t.Run("flags a malformed cache TTL", func(t *testing.T) {
		t.Setenv("ALPACA_API_KEY", "key")
		t.Setenv("ALPACA_SECRET_KEY", "secret")
		t.Setenv("QUOTE_CACHE_TTL", "five minutes")

		checks := NewDoctor(server.URL).RunChecks(context.Background())

		assert.False(t, checkByName(t, checks, "quote cache TTL").OK)
	})

	t.Run("reports an unreachable API", func(t *testing.T) {
		t.Setenv("ALPACA_API_KEY", "key")
		t.Setenv("ALPACA_SECRET_KEY", "secret")

		// A closed server is guaranteed to refuse the connection.
		dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		dead.Close()

		checks := NewDoctor(dead.URL).RunChecks(context.Background())

		api := checkByName(t, checks, "market data API")
		require.False(t, api.OK)
		assert.Contains(t, api.Detail, "unreachable")
	})
}
