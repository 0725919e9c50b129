package firebase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/docker/go-connections/nat"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

// fakeContainer stubs the two runtime queries the façade needs. Everything
// else panics via the embedded nil interface, which is what we want: fixed
// port lookups must not touch the runtime at all.
type fakeContainer struct {
	testcontainers.Container
	host            string
	mapped          map[nat.Port]nat.Port
	mappedPortCalls int
}

func (f *fakeContainer) Host(_ context.Context) (string, error) {
	return f.host, nil
}

func (f *fakeContainer) MappedPort(_ context.Context, port nat.Port) (nat.Port, error) {
	f.mappedPortCalls++
	return f.mapped[port], nil
}

func TestEmulatorPortFixedDoesNotQueryRuntime(t *testing.T) {
	fake := &fakeContainer{host: "localhost"}
	c := newContainer(fake, map[Emulator]ExposedPort{
		Authentication: FixedPort(7099),
	}, zerolog.Nop())

	port, err := c.EmulatorPort(context.Background(), Authentication)
	require.NoError(t, err)
	require.Equal(t, 7099, port)
	require.Zero(t, fake.mappedPortCalls)
}

func TestEmulatorPortDynamicQueriesMappedInternalPort(t *testing.T) {
	fake := &fakeContainer{
		host: "localhost",
		mapped: map[nat.Port]nat.Port{
			"8080/tcp": "32768/tcp",
		},
	}
	c := newContainer(fake, map[Emulator]ExposedPort{
		CloudFirestore: DynamicPort,
	}, zerolog.Nop())

	port, err := c.EmulatorPort(context.Background(), CloudFirestore)
	require.NoError(t, err)
	require.Equal(t, 32768, port)
	require.Equal(t, 1, fake.mappedPortCalls)
}

func TestEmulatorPortUnregistered(t *testing.T) {
	c := newContainer(&fakeContainer{}, map[Emulator]ExposedPort{}, zerolog.Nop())

	_, err := c.EmulatorPort(context.Background(), PubSub)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestEmulatorEndpoints(t *testing.T) {
	fake := &fakeContainer{
		host: "localhost",
		mapped: map[nat.Port]nat.Port{
			"8080/tcp": "41234/tcp",
		},
	}
	c := newContainer(fake, map[Emulator]ExposedPort{
		Authentication: FixedPort(7099),
		CloudFirestore: DynamicPort,
	}, zerolog.Nop())

	endpoints, err := c.EmulatorEndpoints(context.Background())
	require.NoError(t, err)
	require.Equal(t, map[Emulator]string{
		Authentication: "localhost:7099",
		CloudFirestore: "localhost:41234",
	}, endpoints)

	ports, err := c.EmulatorPorts(context.Background())
	require.NoError(t, err)
	require.Equal(t, map[Emulator]int{
		Authentication: 7099,
		CloudFirestore: 41234,
	}, ports)
}

func TestStageBuildContext(t *testing.T) {
	rules := filepath.Join(t.TempDir(), "firestore.rules")
	require.NoError(t, os.WriteFile(rules, []byte("service cloud.firestore {}"), 0o644))

	spec := &ImageSpec{
		instructions: []string{"FROM node:23-alpine"},
		files: []ContextFile{
			{Name: "firebase.json", Content: []byte(`{"emulators":{}}`)},
			{Name: "firestore.rules", HostPath: rules},
		},
	}

	dir, err := stageBuildContext(spec)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, os.RemoveAll(dir))
	})

	dockerfile, err := os.ReadFile(filepath.Join(dir, "Dockerfile"))
	require.NoError(t, err)
	require.Equal(t, "FROM node:23-alpine\n", string(dockerfile))

	staged, err := os.ReadFile(filepath.Join(dir, "firestore.rules"))
	require.NoError(t, err)
	require.Equal(t, "service cloud.firestore {}", string(staged))

	generated, err := os.ReadFile(filepath.Join(dir, "firebase.json"))
	require.NoError(t, err)
	require.JSONEq(t, `{"emulators":{}}`, string(generated))
}

func TestStageBuildContextUnreadableFile(t *testing.T) {
	spec := &ImageSpec{
		instructions: []string{"FROM node:23-alpine"},
		files: []ContextFile{
			{Name: "firestore.rules", HostPath: filepath.Join(t.TempDir(), "missing.rules")},
		},
	}

	_, err := stageBuildContext(spec)
	require.ErrorIs(t, err, ErrIO)
}
