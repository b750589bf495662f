package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestIntArg(t *testing.T) {
	n, err := intArg([]string{"-2"}, "step <n>")
	require.NoError(t, err)
	assert.Equal(t, -2, n)

	_, err = intArg(nil, "step <n>")
	assert.ErrorContains(t, err, "usage: migrate step <n>")

	_, err = intArg([]string{"two"}, "step <n>")
	assert.Error(t, err)
}

func TestHasConfirm(t *testing.T) {
	assert.True(t, hasConfirm([]string{"-confirm"}))
	assert.True(t, hasConfirm([]string{"x", "--confirm"}))
	assert.False(t, hasConfirm(nil))
}

func TestRun_FileCommands(t *testing.T) {
	dir := t.TempDir()
	log := zap.NewNop()

	require.NoError(t, run(log, dir, "", "create", []string{"add return reason", "reason codes"}))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.FileExists(t, filepath.Join(dir, "000001_add_return_reason.up.sql"))

	require.NoError(t, run(log, dir, "", "list", nil))
	assert.Error(t, run(log, dir, "", "create", nil))
}

func TestRun_UnknownCommand(t *testing.T) {
	err := run(zap.NewNop(), t.TempDir(), "", "sideways", nil)
	assert.ErrorContains(t, err, "unknown command")
}
