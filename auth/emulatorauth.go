// Package auth provides credentials for talking to the Firebase emulators.
// The emulators accept a well-known owner token instead of real Google
// credentials, so clients can exercise security rules as the project owner.
package auth

import (
	"os"
	"testing"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

// ownerToken is the static bearer token the Firebase emulators treat as the
// project owner. It bypasses security rules, which is what admin-style test
// clients want.
const ownerToken = "owner"

// EmulatorTokenSource returns a token source yielding the emulator owner
// token. It never needs refreshing and performs no network calls.
func EmulatorTokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: ownerToken})
}

// ClientOptions returns client options which authenticate against the
// emulators as the project owner.
func ClientOptions() []option.ClientOption {
	return []option.ClientOption{
		option.WithTokenSource(EmulatorTokenSource()),
	}
}

// CheckProjectID is a helper that resolves the project id for emulator
// integration tests. It prefers the FIREBASE_PROJECT_ID environment variable
// and falls back to the given default, so CI can pin a project id without
// code changes.
func CheckProjectID(t *testing.T, fallback string) string {
	t.Helper()
	if projectID := os.Getenv("FIREBASE_PROJECT_ID"); projectID != "" {
		return projectID
	}
	if fallback == "" {
		t.Skip("Skipping emulator test: FIREBASE_PROJECT_ID is not set and no fallback project id was given")
	}
	return fallback
}
