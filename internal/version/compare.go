package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-riskgate/pkg/errors"
)

// CheckSchemaCompatibility checks whether a ledger written with storedVersion
// can be opened by a binary expecting binaryVersion.
//
// Compatibility Rules:
//   - If either version is "main" (development build), compatibility check is skipped
//   - Major versions must match exactly
//   - Minor versions must match exactly
//   - Patch versions can differ (e.g., 1.2.0 is compatible with 1.2.5)
//
// Examples:
//   - Binary 1.0.0, Ledger 1.0.0 -> OK (exact match)
//   - Binary 1.0.1, Ledger 1.0.0 -> OK (patch differs)
//   - Binary 1.1.0, Ledger 1.0.0 -> ERROR (minor differs)
//   - Binary 2.0.0, Ledger 1.0.0 -> ERROR (major differs)
func CheckSchemaCompatibility(binaryVersion, storedVersion string) error {
	binaryVersion = strings.TrimPrefix(binaryVersion, "v")
	storedVersion = strings.TrimPrefix(storedVersion, "v")

	if binaryVersion == "main" || storedVersion == "main" {
		return nil
	}

	binarySemver, err := semver.NewVersion(binaryVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeVersionMismatch, err, "invalid binary schema version '%s'", binaryVersion)
	}

	storedSemver, err := semver.NewVersion(storedVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeVersionMismatch, err, "invalid ledger schema version '%s'", storedVersion)
	}

	if binarySemver.Major() != storedSemver.Major() {
		return errors.Newf(errors.ErrCodeVersionMismatch,
			"major version mismatch: binary expects schema %d.x.x but ledger is %d.x.x",
			binarySemver.Major(), storedSemver.Major())
	}

	if binarySemver.Minor() != storedSemver.Minor() {
		return errors.Newf(errors.ErrCodeVersionMismatch,
			"minor version mismatch: binary expects schema %d.%d.x but ledger is %d.%d.x",
			binarySemver.Major(), binarySemver.Minor(),
			storedSemver.Major(), storedSemver.Minor())
	}

	return nil
}
