package version

import (
	"testing"

	"github.com/rxtech-lab/argo-riskgate/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckSchemaCompatibility(t *testing.T) {
	tests := []struct {
		name          string
		binaryVersion string
		storedVersion string
		expectError   bool
		errorContains string
	}{
		{
			name:          "exact match",
			binaryVersion: "1.0.0",
			storedVersion: "1.0.0",
		},
		{
			name:          "binary patch higher",
			binaryVersion: "1.0.3",
			storedVersion: "1.0.0",
		},
		{
			name:          "ledger patch higher",
			binaryVersion: "1.0.0",
			storedVersion: "1.0.7",
		},
		{
			name:          "binary minor higher",
			binaryVersion: "1.1.0",
			storedVersion: "1.0.0",
			expectError:   true,
			errorContains: "minor version mismatch",
		},
		{
			name:          "major version differs",
			binaryVersion: "2.0.0",
			storedVersion: "1.0.0",
			expectError:   true,
			errorContains: "major version mismatch",
		},
		{
			name:          "development build",
			binaryVersion: "main",
			storedVersion: "1.4.0",
		},
		{
			name:          "v prefix",
			binaryVersion: "v1.0.0",
			storedVersion: "1.0.0",
		},
		{
			name:          "invalid stored version",
			binaryVersion: "1.0.0",
			storedVersion: "garbage",
			expectError:   true,
			errorContains: "invalid ledger schema version",
		},
		{
			name:          "empty binary version",
			binaryVersion: "",
			storedVersion: "1.0.0",
			expectError:   true,
			errorContains: "invalid binary schema version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckSchemaCompatibility(tt.binaryVersion, tt.storedVersion)

			if tt.expectError {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, errors.ErrCodeVersionMismatch))
				assert.Contains(t, err.Error(), tt.errorContains)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestGetVersion(t *testing.T) {
	assert.Equal(t, Version, GetVersion())
}

func TestSchemaVersionIsValid(t *testing.T) {
	require.NoError(t, CheckSchemaCompatibility(SchemaVersion, SchemaVersion))
}
