package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"secretword-api/api"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestWordCommand_At(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"word", "--at", "1000", "--env-file", t.TempDir() + "/none.env"})

	require.NoError(t, root.Execute())

	var resp api.SuccessResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, "hoşgeldin", resp.SecretWord)
	require.Equal(t, int64(1000), resp.Timestamp)
	require.Equal(t, int64(80), resp.IntervalInfo.NextChangeInSeconds)
	require.Contains(t, resp.ServerInfo.Implementation, "(cli;")
}

func TestWordCommand_InvalidConfig(t *testing.T) {
	t.Setenv("TIMEZONE", "Nowhere/Invalid")
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"word", "--env-file", t.TempDir() + "/none.env"})

	require.Error(t, root.Execute())
}

func TestSetupLogging(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	require.NoError(t, setupLogging("warn", "json", &buf))
	require.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	require.NoError(t, setupLogging("", "console", &buf))
	require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	require.Error(t, setupLogging("loud", "json", &buf))
}
