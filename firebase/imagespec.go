package firebase

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// downloadableEmulators lists the services the CLI distributes as separately
// fetched artifacts, in download order. Auth, functions and hosting ship with
// the firebase-tools package and are never independently downloaded.
var downloadableEmulators = []Emulator{
	RealtimeDatabase,
	CloudFirestore,
	PubSub,
	CloudStorage,
	EmulatorSuiteUI,
}

// ContextFile is one file or directory injected into the image build context.
// Exactly one of HostPath and Content is set.
type ContextFile struct {
	// Name is the context-relative name referenced by the Dockerfile.
	Name string
	// HostPath is the file or directory to copy from the host.
	HostPath string
	// Content is inline file content (the generated firebase.json).
	Content []byte
	// Dir marks HostPath as a directory tree.
	Dir bool
}

// ImageSpec is the synthesized build specification: an ordered Dockerfile
// instruction list plus the build-context files it references. It is produced
// by SynthesizeImage before any container-runtime side effect.
type ImageSpec struct {
	instructions []string
	files        []ContextFile
	entrypoint   []string
	arguments    []string
}

// Instructions returns the ordered Dockerfile instructions, including the
// final ENTRYPOINT and CMD lines.
func (s *ImageSpec) Instructions() []string {
	return s.instructions
}

// Dockerfile renders the instruction list as a Dockerfile.
func (s *ImageSpec) Dockerfile() string {
	return strings.Join(s.instructions, "\n") + "\n"
}

// ContextFiles returns the files to place in the build context.
func (s *ImageSpec) ContextFiles() []ContextFile {
	return s.files
}

// Entrypoint returns the image entrypoint vector.
func (s *ImageSpec) Entrypoint() []string {
	return s.entrypoint
}

// Arguments returns the runtime argument vector passed to the entrypoint.
func (s *ImageSpec) Arguments() []string {
	return s.arguments
}

// SynthesizeImage validates cfg and produces the image build specification.
//
// Fatal validation failures return before a single instruction is emitted.
// Advisory findings (UI without hub or logging, firestore UI without a
// websocket port) are logged and never block synthesis.
func SynthesizeImage(cfg EmulatorConfig, logger zerolog.Logger) (*ImageSpec, error) {
	if err := validateConfiguration(cfg, logger); err != nil {
		return nil, err
	}

	s := &ImageSpec{}
	s.configureBaseImage(cfg)
	s.initialSetup(cfg)
	s.authenticateToFirebase(cfg)
	s.setupJavaToolOptions(cfg)
	s.setupUserAndGroup(cfg)
	s.downloadEmulators(cfg)
	if err := s.addFirebaseJSON(cfg); err != nil {
		return nil, err
	}
	s.includeFirestoreFiles(cfg)
	s.includeStorageFiles(cfg)
	s.includeFunctionsFiles(cfg)
	s.setupDataImportExport(cfg)
	s.setupHosting(cfg)
	s.runExecutable(cfg)

	return s, nil
}

func validateConfiguration(cfg EmulatorConfig, logger zerolog.Logger) error {
	if cfg.enabled(Authentication) && cfg.ProjectID == "" {
		return fmt.Errorf("%w: can't create the auth emulator, a project id is required", ErrConfiguration)
	}

	if cfg.enabled(EmulatorSuiteUI) {
		if !cfg.enabled(EmulatorHub) {
			logger.Info().Msg("Emulator UI is enabled, but no hub port is specified. You will not be able to use the Hub API")
		}
		if !cfg.enabled(Logging) {
			logger.Info().Msg("Emulator UI is enabled, but no logging port is specified. You will not be able to see the logging")
		}
		if cfg.enabled(CloudFirestore) && !cfg.enabled(CloudFirestoreWS) {
			logger.Warn().Msg("Firestore emulator and emulator UI are enabled but no firestore websocket port is specified. You will not be able to use the Firestore UI")
		}
	}

	return nil
}

func (s *ImageSpec) run(command string) {
	s.instructions = append(s.instructions, "RUN "+command)
}

func (s *ImageSpec) env(key, value string) {
	s.instructions = append(s.instructions, fmt.Sprintf("ENV %s=%q", key, value))
}

// add records a context file plus the ADD/COPY instruction referencing it.
func (s *ImageSpec) add(file ContextFile, target string) {
	s.files = append(s.files, file)
	verb := "ADD"
	if file.Dir {
		verb = "COPY"
	}
	s.instructions = append(s.instructions, fmt.Sprintf("%s %s %s", verb, file.Name, target))
}

func (s *ImageSpec) configureBaseImage(cfg EmulatorConfig) {
	s.instructions = append(s.instructions, "FROM "+cfg.Docker.ImageName)
}

// initialSetup is the single combined installation layer: CLI package, OS
// utilities, removal of the base image's default unprivileged accounts, and
// the working directory tree with permissions any later runtime user can
// write.
func (s *ImageSpec) initialSetup(cfg EmulatorConfig) {
	s.run("apk --no-cache add openjdk11-jre bash curl openssl gettext nano nginx sudo && " +
		"npm cache clean --force && " +
		"npm i -g firebase-tools@" + cfg.FirebaseVersion + " && " +
		"deluser nginx && delgroup abuild && delgroup ping && " +
		"mkdir -p " + FirebaseRoot + " && " +
		"mkdir -p " + HostingPath + " && " +
		"mkdir -p " + EmulatorDataPath + " && " +
		"mkdir -p " + EmulatorExportPath + " && " +
		"chmod 777 -R /srv/*")
}

func (s *ImageSpec) authenticateToFirebase(cfg EmulatorConfig) {
	if cfg.Token != "" {
		s.env("FIREBASE_TOKEN", cfg.Token)
	}
}

func (s *ImageSpec) setupJavaToolOptions(cfg EmulatorConfig) {
	if cfg.JavaToolOptions != "" {
		s.env("JAVA_TOOL_OPTIONS", cfg.JavaToolOptions)
	}
}

// setupUserAndGroup creates the requested identity, hands the working tree to
// it and switches the image's run-as user for all subsequent steps and the
// runtime. When only one of uid/gid is customized the other side falls back
// to a default so the chown target is always a consistent pair.
func (s *ImageSpec) setupUserAndGroup(cfg EmulatorConfig) {
	var commands []string

	if cfg.Docker.GroupID != nil {
		commands = append(commands, fmt.Sprintf("addgroup -g %d runner", *cfg.Docker.GroupID))
	}
	if cfg.Docker.UserID != nil {
		groupName := "node"
		if cfg.Docker.GroupID != nil {
			groupName = "runner"
		}
		commands = append(commands, fmt.Sprintf("adduser -u %d -G %s -D -h %s runner", *cfg.Docker.UserID, groupName, FirebaseRoot))
	}

	user := cfg.Docker.user()
	group := cfg.Docker.group()
	commands = append(commands, fmt.Sprintf("chown %d:%d -R /srv/*", user, group))

	s.run(strings.Join(commands, " && "))
	s.instructions = append(s.instructions, fmt.Sprintf("USER %d:%d", user, group))
}

// downloadEmulators appends one combined download instruction covering every
// enabled downloadable service, keeping the layer count down.
func (s *ImageSpec) downloadEmulators(cfg EmulatorConfig) {
	var commands []string
	for _, emulator := range downloadableEmulators {
		if cfg.enabled(emulator) {
			commands = append(commands, "firebase setup:emulators:"+emulator.downloadID())
		}
	}
	if len(commands) > 0 {
		s.run(strings.Join(commands, " && "))
	}
}

// addFirebaseJSON injects the externally supplied firebase.json unchanged, or
// generates one from the resolved configuration. The generated document must
// stay parseable by ReadFirebaseJSON.
func (s *ImageSpec) addFirebaseJSON(cfg EmulatorConfig) error {
	s.instructions = append(s.instructions, "WORKDIR "+FirebaseRoot)

	file := ContextFile{Name: firebaseJSONFile}
	if cfg.CustomFirebaseJSON != "" {
		file.HostPath = cfg.CustomFirebaseJSON
	} else {
		content, err := GenerateFirebaseJSON(cfg.Firebase)
		if err != nil {
			return err
		}
		file.Content = content
	}

	s.add(file, FirebaseRoot+"/"+firebaseJSONFile)
	return nil
}

func (s *ImageSpec) includeFirestoreFiles(cfg EmulatorConfig) {
	if rules := cfg.Firebase.Firestore.RulesFile; rules != "" {
		s.add(ContextFile{Name: firestoreRulesFile, HostPath: rules}, FirebaseRoot+"/"+firestoreRulesFile)
	}
	if indexes := cfg.Firebase.Firestore.IndexesFile; indexes != "" {
		s.add(ContextFile{Name: firestoreIndexFile, HostPath: indexes}, FirebaseRoot+"/"+firestoreIndexFile)
	}
}

func (s *ImageSpec) includeStorageFiles(cfg EmulatorConfig) {
	if rules := cfg.Firebase.Storage.RulesFile; rules != "" {
		s.add(ContextFile{Name: storageRulesFile, HostPath: rules}, FirebaseRoot+"/"+storageRulesFile)
	}
}

func (s *ImageSpec) includeFunctionsFiles(cfg EmulatorConfig) {
	if source := cfg.Firebase.Functions.SourceDir; source != "" {
		s.add(ContextFile{Name: functionsDirName, HostPath: source, Dir: true}, FirebaseRoot+"/"+functionsDirName)
	}
}

func (s *ImageSpec) setupDataImportExport(cfg EmulatorConfig) {
	if cfg.EmulatorData != "" {
		s.instructions = append(s.instructions, "VOLUME "+EmulatorDataPath)
	}
}

func (s *ImageSpec) setupHosting(cfg EmulatorConfig) {
	if cfg.Firebase.Hosting.ContentDir != "" {
		s.instructions = append(s.instructions, "VOLUME "+HostingPath)
	}
}

// runExecutable sets the entrypoint and computes the runtime argument vector.
// Import/export arguments point at the export subdirectory below the data
// mount, never at the mount point itself.
func (s *ImageSpec) runExecutable(cfg EmulatorConfig) {
	s.entrypoint = []string{"/usr/local/bin/firebase"}

	arguments := []string{"emulators:start"}
	if cfg.ProjectID != "" {
		arguments = append(arguments, "--project", cfg.ProjectID)
	}
	if cfg.EmulatorData != "" {
		arguments = append(arguments, "--import", EmulatorExportPath, "--export-on-exit", EmulatorExportPath)
	}
	s.arguments = arguments

	s.instructions = append(s.instructions, "ENTRYPOINT "+jsonArray(s.entrypoint))
	s.instructions = append(s.instructions, "CMD "+jsonArray(s.arguments))
}

func jsonArray(values []string) string {
	raw, _ := json.Marshal(values)
	return string(raw)
}
