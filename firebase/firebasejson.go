package firebase

import (
	"encoding/json"
	"fmt"
	"os"
)

// Canonical names of the injected content files, relative to FirebaseRoot.
// The generated firebase.json references these names, so they must agree with
// the copy targets emitted by the image synthesis engine.
const (
	firebaseJSONFile   = "firebase.json"
	firestoreRulesFile = "firestore.rules"
	firestoreIndexFile = "firestore.indexes.json"
	storageRulesFile   = "storage.rules"
	hostingDirName     = "public"
	functionsDirName   = "functions"
)

// hostAllInterfaces is written into every generated emulator section: the
// emulators must bind to all interfaces to be reachable through the container
// port mapping.
const hostAllInterfaces = "0.0.0.0"

// firebaseJSONDoc mirrors the firebase.json sections this package consumes
// and produces. All sections are independently optional.
type firebaseJSONDoc struct {
	Hosting   *hostingSection             `json:"hosting,omitempty"`
	Storage   *storageSection             `json:"storage,omitempty"`
	Firestore *firestoreSection           `json:"firestore,omitempty"`
	Functions *functionsSection           `json:"functions,omitempty"`
	Emulators map[string]*emulatorSection `json:"emulators,omitempty"`
}

type hostingSection struct {
	Public string `json:"public,omitempty"`
}

type storageSection struct {
	Rules string `json:"rules,omitempty"`
}

type firestoreSection struct {
	Rules   string `json:"rules,omitempty"`
	Indexes string `json:"indexes,omitempty"`
}

type functionsSection struct {
	Source  string   `json:"source,omitempty"`
	Ignores []string `json:"ignores,omitempty"`
}

type emulatorSection struct {
	Port int    `json:"port"`
	Host string `json:"host,omitempty"`
	// Enabled is only emitted for the ui section.
	Enabled *bool `json:"enabled,omitempty"`
	// WebsocketPort only appears on the firestore section; it configures the
	// CloudFirestoreWS pseudo-service, which has no section of its own.
	WebsocketPort *int `json:"websocketPort,omitempty"`
}

// ReadFirebaseJSON reads a firebase.json file into a FirebaseConfig.
//
// Every emulator section present registers its service on a fixed port;
// absent sections leave the service disabled. A firestore section carrying a
// websocketPort additionally registers CloudFirestoreWS. Relative file paths
// are kept as written and resolve against the process working directory.
func ReadFirebaseJSON(path string) (FirebaseConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return FirebaseConfig{}, fmt.Errorf("%w: reading %s: %s", ErrIO, path, err)
	}

	var doc firebaseJSONDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return FirebaseConfig{}, fmt.Errorf("%w: decoding %s: %s", ErrIO, path, err)
	}

	cfg := FirebaseConfig{
		Services: map[Emulator]ExposedPort{},
	}

	if doc.Hosting != nil {
		cfg.Hosting.ContentDir = doc.Hosting.Public
	}
	if doc.Storage != nil {
		cfg.Storage.RulesFile = doc.Storage.Rules
	}
	if doc.Firestore != nil {
		cfg.Firestore.RulesFile = doc.Firestore.Rules
		cfg.Firestore.IndexesFile = doc.Firestore.Indexes
	}
	if doc.Functions != nil {
		cfg.Functions.SourceDir = doc.Functions.Source
		cfg.Functions.IgnorePatterns = doc.Functions.Ignores
	}

	for _, emulator := range AllEmulators() {
		property := emulator.configProperty()
		if property == "" {
			continue
		}
		section, ok := doc.Emulators[property]
		if !ok || section == nil {
			continue
		}
		cfg.Services[emulator] = FixedPort(section.Port)

		if emulator == CloudFirestore && section.WebsocketPort != nil {
			cfg.Services[CloudFirestoreWS] = FixedPort(*section.WebsocketPort)
		}
	}

	return cfg, nil
}

// GenerateFirebaseJSON renders a FirebaseConfig as a firebase.json document
// equivalent to what ReadFirebaseJSON parses. Content files are referenced by
// their canonical in-image names since the document is consumed inside the
// container, next to the injected files.
//
// Fixed services are written with their fixed port so the emulator listens on
// the same port the host mapping targets; dynamic services are written with
// their internal port. Every section binds to 0.0.0.0.
func GenerateFirebaseJSON(cfg FirebaseConfig) ([]byte, error) {
	doc := firebaseJSONDoc{}

	if cfg.Hosting.ContentDir != "" {
		doc.Hosting = &hostingSection{Public: hostingDirName}
	}
	if cfg.Storage.RulesFile != "" {
		doc.Storage = &storageSection{Rules: storageRulesFile}
	}
	if cfg.Firestore.RulesFile != "" || cfg.Firestore.IndexesFile != "" {
		doc.Firestore = &firestoreSection{}
		if cfg.Firestore.RulesFile != "" {
			doc.Firestore.Rules = firestoreRulesFile
		}
		if cfg.Firestore.IndexesFile != "" {
			doc.Firestore.Indexes = firestoreIndexFile
		}
	}
	if cfg.Functions.SourceDir != "" {
		doc.Functions = &functionsSection{
			Source:  functionsDirName,
			Ignores: cfg.Functions.IgnorePatterns,
		}
	}

	doc.Emulators = map[string]*emulatorSection{}
	for emulator, exposed := range cfg.Services {
		property := emulator.configProperty()
		if property == "" {
			// CloudFirestoreWS is folded into the firestore section below.
			continue
		}

		section := &emulatorSection{
			Port: containerPort(emulator, exposed),
			Host: hostAllInterfaces,
		}
		if emulator == EmulatorSuiteUI {
			enabled := true
			section.Enabled = &enabled
		}
		doc.Emulators[property] = section
	}

	if ws, ok := cfg.Services[CloudFirestoreWS]; ok {
		firestore, present := doc.Emulators[CloudFirestore.configProperty()]
		if present {
			port := containerPort(CloudFirestoreWS, ws)
			firestore.WebsocketPort = &port
		}
	}
	if len(doc.Emulators) == 0 {
		doc.Emulators = nil
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: generating firebase.json: %s", ErrIO, err)
	}
	return raw, nil
}

// containerPort is the port the service listens on inside the container:
// the fixed port when one was chosen (host and container port are identical
// for fixed exposures), the variant's internal port otherwise.
func containerPort(emulator Emulator, exposed ExposedPort) int {
	if exposed.IsFixed() {
		return exposed.Port()
	}
	return emulator.InternalPort()
}
