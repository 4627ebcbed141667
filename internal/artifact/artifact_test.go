package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

func TestWriteReadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact.json")
	in := payload{Name: "cluster0", Values: []float64{1.5, 2.25}}

	require.NoError(t, WriteJSON(path, in))

	var out payload
	require.NoError(t, ReadJSON(path, &out))
	assert.Equal(t, in, out)
}

func TestWriteReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact.json")
	require.NoError(t, WriteJSON(path, payload{Name: "first"}))
	require.NoError(t, WriteJSON(path, payload{Name: "second"}))

	var out payload
	require.NoError(t, ReadJSON(path, &out))
	assert.Equal(t, "second", out.Name)
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteJSON(filepath.Join(dir, "artifact.json"), payload{}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "artifact.json", entries[0].Name())
}

func TestWriteUnmarshalableValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "artifact.json")
	assert.Error(t, WriteJSON(path, func() {}))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "a failed marshal must not touch the target")
}

func TestReadErrors(t *testing.T) {
	var out payload
	assert.Error(t, ReadJSON(filepath.Join(t.TempDir(), "missing.json"), &out))

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	assert.Error(t, ReadJSON(path, &out))
}
