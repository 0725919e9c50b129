package firebase

import (
	"fmt"
	"os"
	"strconv"
)

// defaultConfigPath is where Build looks for a firebase.json when no firebase
// configuration was supplied in code.
const defaultConfigPath = "firebase.json"

// Builder accumulates emulator configuration across fluent calls and produces
// an immutable EmulatorConfig. A Builder is a short-lived, single-owner
// accumulator: it is not safe for concurrent use and should be discarded
// after Build.
type Builder struct {
	docker          DockerConfig
	firebaseVersion string
	projectID       string
	token           string
	javaToolOptions string
	emulatorData    string

	customFirebaseJSON string
	firebase           *FirebaseConfig

	configPath string
	err        error
}

// NewBuilder returns a Builder preloaded with defaults: the default base
// image, the latest firebase-tools version, and no emulators registered.
func NewBuilder() *Builder {
	return &Builder{
		docker:          DefaultDockerConfig(),
		firebaseVersion: DefaultFirebaseVersion,
		configPath:      defaultConfigPath,
	}
}

// WithFirebaseVersion pins the firebase-tools version installed in the image.
func (b *Builder) WithFirebaseVersion(version string) *Builder {
	b.firebaseVersion = version
	return b
}

// WithProjectID sets the Google project id. Required when the Authentication
// emulator is enabled.
func (b *Builder) WithProjectID(projectID string) *Builder {
	b.projectID = projectID
	return b
}

// WithToken sets the firebase CLI token used for non-interactive
// authentication.
func (b *Builder) WithToken(token string) *Builder {
	b.token = token
	return b
}

// WithJavaToolOptions sets the options passed to the JVM based emulators.
func (b *Builder) WithJavaToolOptions(options string) *Builder {
	b.javaToolOptions = options
	return b
}

// WithEmulatorData sets the host directory where emulator state is imported
// from and exported to on graceful shutdown.
func (b *Builder) WithEmulatorData(dir string) *Builder {
	b.emulatorData = dir
	return b
}

// WithDefaultConfigPath overrides the firebase.json location tried by the
// auto-load fallback in Build.
func (b *Builder) WithDefaultConfigPath(path string) *Builder {
	b.configPath = path
	return b
}

// ReadFromFirebaseJSON reads the firebase configuration from an existing
// firebase.json file. The file itself is later injected into the image
// unchanged, so its port sections must bind to 0.0.0.0 to be reachable.
func (b *Builder) ReadFromFirebaseJSON(path string) *Builder {
	cfg, err := ReadFirebaseJSON(path)
	if err != nil {
		if b.err == nil {
			b.err = err
		}
		return b
	}
	b.firebase = &cfg
	b.customFirebaseJSON = path
	return b
}

// WithDockerConfig opens the docker sub-builder. Only fields the sub-builder
// actually sets overwrite prior values; Done returns to this builder.
func (b *Builder) WithDockerConfig() *DockerConfigBuilder {
	return &DockerConfigBuilder{parent: b}
}

// WithFirebaseConfig opens the firebase sub-builder for registering emulators
// and content files. Done returns to this builder.
func (b *Builder) WithFirebaseConfig() *FirebaseConfigBuilder {
	return &FirebaseConfigBuilder{
		parent:   b,
		services: map[Emulator]ExposedPort{},
	}
}

// Build resolves the accumulated calls into an immutable EmulatorConfig.
//
// If no firebase configuration was supplied, neither via WithFirebaseConfig
// nor ReadFromFirebaseJSON, Build falls back to auto-loading the default
// firebase.json path; absence of both is a configuration error.
func (b *Builder) Build() (EmulatorConfig, error) {
	if b.err != nil {
		return EmulatorConfig{}, b.err
	}

	if b.firebase == nil {
		b.ReadFromFirebaseJSON(b.configPath)
		if b.err != nil {
			return EmulatorConfig{}, fmt.Errorf(
				"%w: firebase was not configured and could not auto-read from %s: %s",
				ErrConfiguration, b.configPath, b.err)
		}
	}

	return EmulatorConfig{
		Docker:             b.docker,
		FirebaseVersion:    b.firebaseVersion,
		ProjectID:          b.projectID,
		Token:              b.token,
		CustomFirebaseJSON: b.customFirebaseJSON,
		JavaToolOptions:    b.javaToolOptions,
		EmulatorData:       b.emulatorData,
		Firebase:           *b.firebase,
	}, nil
}

// DockerConfigBuilder configures the base image and run-as identity. Unset
// fields keep their previous values when Done merges back into the parent.
type DockerConfigBuilder struct {
	parent *Builder

	image   string
	userID  *int
	groupID *int
}

// WithImage sets the base image of the synthesized Dockerfile.
func (d *DockerConfigBuilder) WithImage(imageName string) *DockerConfigBuilder {
	d.image = imageName
	return d
}

// WithUserID sets the numeric uid the container runs as.
func (d *DockerConfigBuilder) WithUserID(userID int) *DockerConfigBuilder {
	d.userID = &userID
	return d
}

// WithGroupID sets the numeric gid the container runs as.
func (d *DockerConfigBuilder) WithGroupID(groupID int) *DockerConfigBuilder {
	d.groupID = &groupID
	return d
}

// WithUserIDFromEnv sets the uid from an environment variable, typically
// exported by a CI runner so exported emulator data is readable by the build.
// An unset variable leaves the uid unchanged; a non-numeric value is a
// configuration error reported at Build.
func (d *DockerConfigBuilder) WithUserIDFromEnv(key string) *DockerConfigBuilder {
	if id, ok := d.parent.intFromEnv(key); ok {
		d.userID = &id
	}
	return d
}

// WithGroupIDFromEnv sets the gid from an environment variable.
func (d *DockerConfigBuilder) WithGroupIDFromEnv(key string) *DockerConfigBuilder {
	if id, ok := d.parent.intFromEnv(key); ok {
		d.groupID = &id
	}
	return d
}

func (b *Builder) intFromEnv(key string) (int, bool) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return 0, false
	}
	id, err := strconv.Atoi(value)
	if err != nil {
		if b.err == nil {
			b.err = fmt.Errorf("%w: environment variable %s is not numeric: %q", ErrConfiguration, key, value)
		}
		return 0, false
	}
	return id, true
}

// Done merges the fields set on this sub-builder into the parent and returns
// it. Fields never set here retain the parent's prior values.
func (d *DockerConfigBuilder) Done() *Builder {
	if d.image != "" {
		d.parent.docker.ImageName = d.image
	}
	if d.userID != nil {
		d.parent.docker.UserID = d.userID
	}
	if d.groupID != nil {
		d.parent.docker.GroupID = d.groupID
	}
	return d.parent
}

// FirebaseConfigBuilder registers emulators and locates hosting, storage,
// firestore and functions content.
type FirebaseConfigBuilder struct {
	parent *Builder

	hosting   HostingConfig
	storage   StorageConfig
	firestore FirestoreConfig
	functions FunctionsConfig
	services  map[Emulator]ExposedPort
}

// WithHostingPath sets the directory containing the hosting content.
func (f *FirebaseConfigBuilder) WithHostingPath(contentDir string) *FirebaseConfigBuilder {
	f.hosting.ContentDir = contentDir
	return f
}

// WithStorageRules sets the Cloud Storage rules file.
func (f *FirebaseConfigBuilder) WithStorageRules(rulesFile string) *FirebaseConfigBuilder {
	f.storage.RulesFile = rulesFile
	return f
}

// WithFirestoreRules sets the Firestore rules file.
func (f *FirebaseConfigBuilder) WithFirestoreRules(rulesFile string) *FirebaseConfigBuilder {
	f.firestore.RulesFile = rulesFile
	return f
}

// WithFirestoreIndexes sets the Firestore indexes file.
func (f *FirebaseConfigBuilder) WithFirestoreIndexes(indexesFile string) *FirebaseConfigBuilder {
	f.firestore.IndexesFile = indexesFile
	return f
}

// WithFunctionsSource sets the Cloud Functions source directory and the
// patterns the CLI should ignore when deploying it.
func (f *FirebaseConfigBuilder) WithFunctionsSource(sourceDir string, ignorePatterns ...string) *FirebaseConfigBuilder {
	f.functions.SourceDir = sourceDir
	f.functions.IgnorePatterns = ignorePatterns
	return f
}

// WithEmulator registers an emulator on a dynamically allocated host port.
// Registering the same emulator again overwrites its prior exposure policy.
func (f *FirebaseConfigBuilder) WithEmulator(emulator Emulator) *FirebaseConfigBuilder {
	f.services[emulator] = DynamicPort
	return f
}

// WithEmulators registers emulators on dynamically allocated host ports.
func (f *FirebaseConfigBuilder) WithEmulators(emulators ...Emulator) *FirebaseConfigBuilder {
	for _, e := range emulators {
		f.WithEmulator(e)
	}
	return f
}

// WithEmulatorOnFixedPort registers an emulator with host port == container
// port == port.
func (f *FirebaseConfigBuilder) WithEmulatorOnFixedPort(emulator Emulator, port int) *FirebaseConfigBuilder {
	f.services[emulator] = FixedPort(port)
	return f
}

// WithEmulatorsOnPorts registers emulators on fixed ports from an alternating
// Emulator, port list. A malformed list is a configuration error reported at
// Build.
func (f *FirebaseConfigBuilder) WithEmulatorsOnPorts(emulatorsAndPorts ...any) *FirebaseConfigBuilder {
	fail := func() {
		if f.parent.err == nil {
			f.parent.err = fmt.Errorf("%w: emulators and ports must be specified alternating", ErrConfiguration)
		}
	}

	if len(emulatorsAndPorts)%2 != 0 {
		fail()
		return f
	}
	for i := 0; i < len(emulatorsAndPorts); i += 2 {
		emulator, ok := emulatorsAndPorts[i].(Emulator)
		if !ok {
			fail()
			return f
		}
		port, ok := emulatorsAndPorts[i+1].(int)
		if !ok {
			fail()
			return f
		}
		f.WithEmulatorOnFixedPort(emulator, port)
	}
	return f
}

// Done stores the assembled FirebaseConfig on the parent and returns it. An
// in-code firebase configuration supersedes any previously read firebase.json
// file (and vice versa: a later ReadFromFirebaseJSON supersedes this one).
func (f *FirebaseConfigBuilder) Done() *Builder {
	f.parent.firebase = &FirebaseConfig{
		Hosting:   f.hosting,
		Storage:   f.storage,
		Firestore: f.firestore,
		Functions: f.functions,
		Services:  f.services,
	}
	f.parent.customFirebaseJSON = ""
	return f.parent
}
