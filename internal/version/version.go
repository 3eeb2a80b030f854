package version

// Version is the current version of the riskgate binary.
// This value is set at build time using ldflags:
// -ldflags "-X github.com/rxtech-lab/argo-riskgate/internal/version.Version=1.2.3"
// The default value "main" indicates a development build.
var Version = "main"

// SchemaVersion is the ledger layout this binary reads and writes.
// Bump the minor version whenever a column or table changes.
const SchemaVersion = "1.0.0"

// GetVersion returns the current version of the binary.
func GetVersion() string {
	return Version
}
