package firebase

import (
	"context"
	"testing"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// EmulatorClientOptions returns the standard client options for connecting a
// Google Cloud client to an emulator endpoint: no authentication, no TLS.
func EmulatorClientOptions(endpoint string) []option.ClientOption {
	return []option.ClientOption{
		option.WithEndpoint(endpoint),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	}
}

// NewFirestoreClient creates a Firestore client connected to the suite's
// Firestore emulator. The client is closed via t.Cleanup.
func NewFirestoreClient(t *testing.T, ctx context.Context, c *Container, projectID string) *firestore.Client {
	t.Helper()

	endpoint, err := c.EmulatorEndpoint(ctx, CloudFirestore)
	require.NoError(t, err)

	client, err := firestore.NewClient(ctx, projectID, EmulatorClientOptions(endpoint)...)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, client.Close())
	})
	return client
}

// NewPubsubClient creates a Pub/Sub client connected to the suite's Pub/Sub
// emulator. The client is closed via t.Cleanup.
func NewPubsubClient(t *testing.T, ctx context.Context, c *Container, projectID string) *pubsub.Client {
	t.Helper()

	endpoint, err := c.EmulatorEndpoint(ctx, PubSub)
	require.NoError(t, err)

	client, err := pubsub.NewClient(ctx, projectID, EmulatorClientOptions(endpoint)...)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, client.Close())
	})
	return client
}

// NewStorageClient creates a Cloud Storage client connected to the suite's
// storage emulator. The GCS client library picks the emulator up from the
// STORAGE_EMULATOR_HOST environment variable, which is set for the duration
// of the test; the returned options are deliberately endpoint-free.
func NewStorageClient(t *testing.T, ctx context.Context, c *Container) *storage.Client {
	t.Helper()

	endpoint, err := c.EmulatorEndpoint(ctx, CloudStorage)
	require.NoError(t, err)
	t.Setenv("STORAGE_EMULATOR_HOST", endpoint)

	client, err := storage.NewClient(ctx, option.WithoutAuthentication())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, client.Close())
	})
	return client
}
