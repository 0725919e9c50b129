// Package firebase configures and runs the Firebase Emulator Suite inside a
// single container via testcontainers-go. The package turns a builder-assembled
// (or firebase.json derived) configuration into a synthesized Docker image and
// wraps the running container with per-emulator port and endpoint lookups.
package firebase

// In-image paths the firebase-tools binary expects. Generated firebase.json
// documents and copy targets must agree with these locations.
const (
	// FirebaseRoot is the working directory of the emulator suite inside the image.
	FirebaseRoot = "/srv/firebase"
	// HostingPath is where static hosting content is served from.
	HostingPath = FirebaseRoot + "/public"
	// EmulatorDataPath is the mount point for imported/exported emulator data.
	EmulatorDataPath = FirebaseRoot + "/data"
	// EmulatorExportPath is the subdirectory the emulators import from and
	// export to. It must be below EmulatorDataPath rather than the mount point
	// itself: the emulator removes and recreates its export target, which
	// fails against a mount point.
	EmulatorExportPath = EmulatorDataPath + "/emulator-data"
)

// Emulator identifies one service of the Firebase Emulator Suite. The set of
// variants is closed; each carries a fixed container-internal port, an
// optional firebase.json property key and an optional CLI download identifier.
type Emulator int

const (
	// Authentication is the Firebase Auth emulator.
	Authentication Emulator = iota
	// EmulatorSuiteUI is not a real emulator, but allows exposing the UI on a
	// predefined port.
	EmulatorSuiteUI
	// EmulatorHub is the Emulator Hub API port.
	EmulatorHub
	// Logging is the Emulator UI logging endpoint.
	Logging
	// CloudFunctions is the Cloud Functions emulator.
	CloudFunctions
	// EventArc is the Eventarc emulator.
	EventArc
	// RealtimeDatabase is the Realtime Database emulator.
	RealtimeDatabase
	// CloudFirestore is the Firestore emulator.
	CloudFirestore
	// CloudFirestoreWS is the Firestore websocket port. It is only meaningful
	// in conjunction with CloudFirestore and has no firebase.json section of
	// its own.
	CloudFirestoreWS
	// CloudStorage is the Cloud Storage emulator.
	CloudStorage
	// FirebaseHosting is the Firebase Hosting emulator.
	FirebaseHosting
	// PubSub is the Pub/Sub emulator.
	PubSub

	numEmulators int = iota
)

// emulatorInfo is the per-variant constant table. configProperty is the key
// of the service's section under "emulators" in firebase.json (empty when the
// service is not independently configurable). downloadID is the argument to
// "firebase setup:emulators:<id>" for services the CLI distributes as
// separately fetched artifacts (empty for services that ship with the
// firebase-tools package or are provisioned implicitly).
type emulatorInfo struct {
	name           string
	internalPort   int
	configProperty string
	downloadID     string
}

var emulatorTable = [numEmulators]emulatorInfo{
	Authentication:   {"authentication", 9099, "auth", ""},
	EmulatorSuiteUI:  {"emulator-suite-ui", 4000, "ui", "ui"},
	EmulatorHub:      {"emulator-hub", 4400, "hub", ""},
	Logging:          {"logging", 4500, "logging", ""},
	CloudFunctions:   {"cloud-functions", 5001, "functions", ""},
	EventArc:         {"event-arc", 9299, "eventarc", ""},
	RealtimeDatabase: {"realtime-database", 9000, "database", "database"},
	CloudFirestore:   {"cloud-firestore", 8080, "firestore", "firestore"},
	CloudFirestoreWS: {"cloud-firestore-ws", 9150, "", ""},
	CloudStorage:     {"cloud-storage", 9199, "storage", "storage"},
	FirebaseHosting:  {"firebase-hosting", 5000, "hosting", ""},
	PubSub:           {"pub-sub", 8085, "pubsub", "pubsub"},
}

// AllEmulators returns every variant in declaration order.
func AllEmulators() []Emulator {
	all := make([]Emulator, numEmulators)
	for i := range all {
		all[i] = Emulator(i)
	}
	return all
}

func (e Emulator) valid() bool {
	return e >= 0 && int(e) < numEmulators
}

// String returns a stable lowercase name for the variant.
func (e Emulator) String() string {
	if !e.valid() {
		return "unknown"
	}
	return emulatorTable[e].name
}

// InternalPort returns the fixed container-internal port of the service.
func (e Emulator) InternalPort() int {
	return emulatorTable[e].internalPort
}

// configProperty returns the firebase.json section key, or "" when the
// service is not independently configurable.
func (e Emulator) configProperty() string {
	return emulatorTable[e].configProperty
}

// downloadID returns the setup:emulators download identifier, or "" when the
// service is never independently downloaded.
func (e Emulator) downloadID() string {
	return emulatorTable[e].downloadID
}

// Downloadable reports whether the CLI distributes this service as a
// separately fetched artifact.
func (e Emulator) Downloadable() bool {
	return e.valid() && emulatorTable[e].downloadID != ""
}
