package firebase_test

import (
	"testing"

	"github.com/alfa1-group/testcontainers-firebase/firebase"
	"github.com/stretchr/testify/require"
)

func TestEmulatorInternalPortsAreUnique(t *testing.T) {
	seen := map[int]firebase.Emulator{}
	for _, emulator := range firebase.AllEmulators() {
		port := emulator.InternalPort()
		require.NotZero(t, port)
		previous, dup := seen[port]
		require.False(t, dup, "port %d claimed by both %s and %s", port, previous, emulator)
		seen[port] = emulator
	}
}

func TestEmulatorDownloadableSet(t *testing.T) {
	downloadable := map[firebase.Emulator]bool{}
	for _, emulator := range firebase.AllEmulators() {
		if emulator.Downloadable() {
			downloadable[emulator] = true
		}
	}

	// Only the services the CLI fetches as separate artifacts.
	require.Equal(t, map[firebase.Emulator]bool{
		firebase.RealtimeDatabase: true,
		firebase.CloudFirestore:   true,
		firebase.PubSub:           true,
		firebase.CloudStorage:     true,
		firebase.EmulatorSuiteUI:  true,
	}, downloadable)
}

func TestEmulatorWellKnownPorts(t *testing.T) {
	require.Equal(t, 9099, firebase.Authentication.InternalPort())
	require.Equal(t, 8080, firebase.CloudFirestore.InternalPort())
	require.Equal(t, 9150, firebase.CloudFirestoreWS.InternalPort())
	require.Equal(t, 4400, firebase.EmulatorHub.InternalPort())
	require.Equal(t, 8085, firebase.PubSub.InternalPort())
}
