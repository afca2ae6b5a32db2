package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckConfigCompatibility(t *testing.T) {
	tests := []struct {
		name          string
		binaryVersion string
		configVersion string
		expectError   bool
		errorContains string
	}{
		{
			name:          "exact match",
			binaryVersion: "0.3.0",
			configVersion: "0.3.0",
		},
		{
			name:          "v prefix is ignored",
			binaryVersion: "v0.3.1",
			configVersion: "v0.3.0",
		},
		{
			name:          "older config minor",
			binaryVersion: "0.3.2",
			configVersion: "0.2.0",
		},
		{
			name:          "config patch higher",
			binaryVersion: "0.3.0",
			configVersion: "0.3.9",
		},
		{
			name:          "empty config version skips the check",
			binaryVersion: "0.3.0",
			configVersion: "",
		},
		{
			name:          "development build skips the check",
			binaryVersion: "main",
			configVersion: "9.9.9",
		},
		{
			name:          "newer config minor",
			binaryVersion: "0.3.0",
			configVersion: "0.4.0",
			expectError:   true,
			errorContains: "config requires 0.4.x",
		},
		{
			name:          "major version differs",
			binaryVersion: "1.0.0",
			configVersion: "0.3.0",
			expectError:   true,
			errorContains: "major version mismatch",
		},
		{
			name:          "invalid binary version",
			binaryVersion: "not-a-version",
			configVersion: "0.3.0",
			expectError:   true,
			errorContains: "invalid binary version",
		},
		{
			name:          "invalid config version",
			binaryVersion: "0.3.0",
			configVersion: "latest",
			expectError:   true,
			errorContains: "invalid config version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckConfigCompatibility(tt.binaryVersion, tt.configVersion)

			if tt.expectError {
				require.Error(t, err)
				if tt.errorContains != "" {
					assert.Contains(t, err.Error(), tt.errorContains)
				}
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestGetVersion(t *testing.T) {
	assert.Equal(t, Version, GetVersion())
}

func TestUserAgent(t *testing.T) {
	assert.Equal(t, "argo-quotes/"+Version, UserAgent())
}
