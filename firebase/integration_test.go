package firebase_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/alfa1-group/testcontainers-firebase/auth"
	"github.com/alfa1-group/testcontainers-firebase/firebase"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// These tests build the emulator image and run it; they need a working Docker
// daemon and network access for the emulator downloads.

func TestStartFirestoreAndPubsub(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping emulator container test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	t.Cleanup(cancel)

	projectID := auth.CheckProjectID(t, "demo-test-project")

	cfg, err := firebase.NewBuilder().
		WithProjectID(projectID).
		WithFirebaseConfig().
		WithEmulators(
			firebase.Authentication,
			firebase.CloudFirestore,
			firebase.EmulatorHub,
			firebase.PubSub,
		).
		Done().
		Build()
	require.NoError(t, err)

	container, err := firebase.Start(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate emulator container: %v", err)
		}
	})

	endpoint, err := container.EmulatorEndpoint(ctx, firebase.CloudFirestore)
	require.NoError(t, err)
	t.Logf("Firestore emulator listening on: %s", endpoint)

	firestoreClient := firebase.NewFirestoreClient(t, ctx, container, projectID)
	docID := fmt.Sprintf("doc-%s", uuid.NewString())
	_, err = firestoreClient.Collection("smoke").Doc(docID).Set(ctx, map[string]any{"ok": true})
	require.NoError(t, err)

	snapshot, err := firestoreClient.Collection("smoke").Doc(docID).Get(ctx)
	require.NoError(t, err)
	require.Equal(t, true, snapshot.Data()["ok"])

	pubsubClient := firebase.NewPubsubClient(t, ctx, container, projectID)
	topic, err := pubsubClient.CreateTopic(ctx, fmt.Sprintf("topic-%s", uuid.NewString()))
	require.NoError(t, err)
	topic.Stop()
}

func TestGracefulStopExportsEmulatorData(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping emulator container test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	t.Cleanup(cancel)

	projectID := auth.CheckProjectID(t, "demo-test-project")
	dataDir := t.TempDir()

	cfg, err := firebase.NewBuilder().
		WithProjectID(projectID).
		WithEmulatorData(dataDir).
		WithDockerConfig().
		WithUserIDFromEnv("CURRENT_USER").
		WithGroupIDFromEnv("CURRENT_GROUP").
		Done().
		WithFirebaseConfig().
		WithEmulators(firebase.CloudFirestore, firebase.EmulatorHub).
		Done().
		Build()
	require.NoError(t, err)

	container, err := firebase.Start(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	firestoreClient := firebase.NewFirestoreClient(t, ctx, container, projectID)
	_, err = firestoreClient.Collection("exported").Doc("keep").Set(ctx, map[string]any{"kept": true})
	require.NoError(t, err)

	// A graceful stop gives the suite its export-on-exit window; the export
	// lands in a subdirectory of the mounted data directory.
	require.NoError(t, container.Stop(ctx))

	entries, err := os.ReadDir(dataDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries, "expected export-on-exit data under %s", dataDir)
}
