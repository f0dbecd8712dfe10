package process

import (
	"testing"

	"github.com/core-tools/hsu-buttons/pkg/errors"

	"github.com/stretchr/testify/assert"
)

func TestValidateBinaryName(t *testing.T) {
	tests := []struct {
		name      string
		binary    string
		shouldErr bool
	}{
		{name: "datalogger", binary: "datalogger"},
		{name: "dashed name", binary: "rtsp-simple-server"},
		{name: "empty", binary: "", shouldErr: true},
		{name: "absolute path", binary: "/usr/bin/bombuscv", shouldErr: true},
		{name: "relative path", binary: "bin/bombuscv", shouldErr: true},
		{name: "whitespace", binary: " bombuscv", shouldErr: true},
		{name: "dot", binary: ".", shouldErr: true},
		{name: "dot dot", binary: "..", shouldErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBinaryName(tt.binary)
			if tt.shouldErr {
				assert.Error(t, err)
				assert.True(t, errors.IsValidationError(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePID(t *testing.T) {
	assert.NoError(t, ValidatePID(1))
	assert.NoError(t, ValidatePID(31337))
	assert.Error(t, ValidatePID(0))
	assert.Error(t, ValidatePID(-1))
}
