package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadPayload(t *testing.T) {
	payload, err := readPayload("-", strings.NewReader(`{"stenosis": 55, "afib": "on"}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("55"), payload["stenosis"])
	assert.Equal(t, "on", payload["afib"])

	path := filepath.Join(t.TempDir(), "case.json")
	require.NoError(t, os.WriteFile(path, []byte(`null`), 0o600))
	payload, err = readPayload(path, nil)
	require.NoError(t, err)
	assert.Empty(t, payload)

	_, err = readPayload("-", strings.NewReader(`[1]`))
	assert.Error(t, err)

	_, err = readPayload(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.Error(t, err)
}

func TestEncodeCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GEMINI_API_KEY", "")

	cmd := encodeCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(`{"thrombus": true}`))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "Cardiopatia (C): Trombo intracardíaco.\n", out.String())
}

func TestMCPConfigCommands(t *testing.T) {
	dir := t.TempDir()
	clientConfig := filepath.Join(dir, "client.json")
	binary := filepath.Join(dir, "ascod-mcp-server")
	require.NoError(t, os.WriteFile(binary, []byte("#!/bin/sh\n"), 0o755))

	run := func(args ...string) string {
		t.Helper()
		cmd := mcpConfigCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs(args)
		require.NoError(t, cmd.Execute())
		return out.String()
	}

	assert.Contains(t, run("register", "--client-config", clientConfig, "--binary", binary, "--env", "GEMINI_API_KEY=k"), "Registered")

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(run("status", "--client-config", clientConfig)), &status))
	assert.Equal(t, true, status["registered"])
	assert.Equal(t, binary, status["command"])

	assert.Contains(t, run("unregister", "--client-config", clientConfig), "Removed")
	assert.Contains(t, run("unregister", "--client-config", clientConfig), "was not registered")
}
