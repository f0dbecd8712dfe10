package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	opts, usage, err := parseFlags([]string{"--config", "/etc/hsu-buttons.yaml", "--log-level", "debug", "--log-format", "json"})

	require.NoError(t, err)
	assert.Empty(t, usage)
	assert.Equal(t, flagOptions{Config: "/etc/hsu-buttons.yaml", LogLevel: "debug", LogFormat: "json"}, opts)
}

func TestParseFlags_Help(t *testing.T) {
	for _, arg := range []string{"--help", "-h"} {
		_, usage, err := parseFlags([]string{arg})

		require.NoError(t, err, arg)
		assert.Contains(t, usage, "--config", arg)
		assert.Contains(t, usage, "--log-level", arg)
	}
}

func TestParseFlags_UnknownFlag(t *testing.T) {
	_, usage, err := parseFlags([]string{"--port", "8080"})

	assert.Error(t, err)
	assert.Empty(t, usage)
}
