package auth_test

import (
	"testing"

	"github.com/alfa1-group/testcontainers-firebase/auth"
	"github.com/stretchr/testify/require"
)

func TestEmulatorTokenSource(t *testing.T) {
	token, err := auth.EmulatorTokenSource().Token()
	require.NoError(t, err)
	require.Equal(t, "owner", token.AccessToken)
	require.True(t, token.Valid())
}

func TestClientOptions(t *testing.T) {
	require.NotEmpty(t, auth.ClientOptions())
}

func TestCheckProjectIDPrefersEnv(t *testing.T) {
	t.Setenv("FIREBASE_PROJECT_ID", "env-project")
	require.Equal(t, "env-project", auth.CheckProjectID(t, "fallback-project"))
}

func TestCheckProjectIDFallback(t *testing.T) {
	t.Setenv("FIREBASE_PROJECT_ID", "")
	require.Equal(t, "fallback-project", auth.CheckProjectID(t, "fallback-project"))
}
