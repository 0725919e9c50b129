package firebase

import (
	"errors"
)

const (
	// DefaultImageName is the base image used when none is configured.
	DefaultImageName = "node:23-alpine"
	// DefaultFirebaseVersion is the firebase-tools version installed when none
	// is configured.
	DefaultFirebaseVersion = "latest"

	// defaultUserID and defaultGroupID are the uid:gid the image runs as when
	// no identity is configured. 1000 is the first regular user on alpine.
	defaultUserID  = 1000
	defaultGroupID = 1000
)

// ErrConfiguration marks fatal configuration errors: invalid cross-field
// combinations, malformed builder arguments, or a missing firebase.json when
// the auto-load fallback was the last resort. Test with errors.Is.
var ErrConfiguration = errors.New("invalid emulator configuration")

// ErrIO marks failures reading or generating the declarative firebase.json
// document or one of the referenced content files. Test with errors.Is.
var ErrIO = errors.New("firebase configuration io")

// ExposedPort describes how a registered emulator is reachable from the host:
// either on a caller-fixed port, or on a port allocated by the container
// runtime at start.
type ExposedPort struct {
	fixedPort int
	fixed     bool
}

// DynamicPort requests an arbitrary host port allocated at container start.
var DynamicPort = ExposedPort{}

// FixedPort requests that host port p be mapped to the same container port.
func FixedPort(p int) ExposedPort {
	return ExposedPort{fixedPort: p, fixed: true}
}

// IsFixed reports whether the port was fixed by the caller.
func (p ExposedPort) IsFixed() bool { return p.fixed }

// Port returns the fixed port value. It is only meaningful when IsFixed.
func (p ExposedPort) Port() int { return p.fixedPort }

// DockerConfig holds the base image and the run-as identity of the
// synthesized image. UserID and GroupID are optional; when only one side is
// set the other falls back to a default so identity setup always produces a
// consistent user:group pair.
type DockerConfig struct {
	ImageName string
	UserID    *int
	GroupID   *int
}

// DefaultDockerConfig returns the default image with no custom identity.
func DefaultDockerConfig() DockerConfig {
	return DockerConfig{ImageName: DefaultImageName}
}

// HostingConfig locates static hosting content on the host.
type HostingConfig struct {
	// ContentDir is the directory served by the hosting emulator, mounted
	// read-only into the image. Empty means hosting content is not provided.
	ContentDir string
}

// StorageConfig locates the Cloud Storage rules file on the host.
type StorageConfig struct {
	RulesFile string
}

// FirestoreConfig locates the Firestore rules and indexes files on the host.
// Both are independently optional.
type FirestoreConfig struct {
	RulesFile   string
	IndexesFile string
}

// FunctionsConfig locates the Cloud Functions source on the host.
type FunctionsConfig struct {
	// SourceDir is copied into the image under the suite working directory.
	SourceDir string
	// IgnorePatterns are recorded in the generated firebase.json.
	IgnorePatterns []string
}

// FirebaseConfig mirrors the items configurable through firebase.json: the
// four file bundles plus the emulator exposure map. A service is either
// present in Services with exactly one exposure policy, or disabled.
type FirebaseConfig struct {
	Hosting   HostingConfig
	Storage   StorageConfig
	Firestore FirestoreConfig
	Functions FunctionsConfig
	Services  map[Emulator]ExposedPort
}

// EmulatorConfig is the fully resolved, immutable configuration consumed by
// the image synthesis engine and the runtime façade. Construct it through
// NewBuilder; never mutate it afterwards.
type EmulatorConfig struct {
	Docker          DockerConfig
	FirebaseVersion string
	// ProjectID is required when the Authentication emulator is enabled.
	ProjectID string
	// Token is a firebase CLI token for non-interactive authentication,
	// needed for hosting.
	Token string
	// CustomFirebaseJSON is the path of an externally supplied firebase.json.
	// When set, that exact file is injected into the image instead of a
	// generated document.
	CustomFirebaseJSON string
	// JavaToolOptions is passed to the JVM based emulator processes.
	JavaToolOptions string
	// EmulatorData is a host directory mounted for import/export of persisted
	// emulator state.
	EmulatorData string
	Firebase     FirebaseConfig
}

func (c EmulatorConfig) enabled(e Emulator) bool {
	_, ok := c.Firebase.Services[e]
	return ok
}

func (c DockerConfig) user() int {
	if c.UserID != nil {
		return *c.UserID
	}
	return defaultUserID
}

func (c DockerConfig) group() int {
	if c.GroupID != nil {
		return *c.GroupID
	}
	return defaultGroupID
}
