package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissing(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	require.Empty(t, m.Artifacts)
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gen", "manifest.yaml")

	m := &Manifest{Generator: "metareflect"}
	m.Record(Artifact{Path: "b.c", SHA256: Sum([]byte("b"))})
	m.Record(Artifact{Path: "a.h", SHA256: Sum([]byte("a"))})
	m.Record(Artifact{Path: "./b.c", SHA256: Sum([]byte("b2"))})
	require.NoError(t, m.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "metareflect", got.Generator)
	require.Len(t, got.Artifacts, 2)
	require.Equal(t, "a.h", got.Artifacts[0].Path)
	require.Equal(t, Sum([]byte("b2")), got.Hash("b.c"))
	require.Empty(t, got.Hash("c.c"))
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("artifacts: [\n"), 0o644))
	_, err := Load(path)
	require.ErrorContains(t, err, "unmarshal manifest")
}

func TestUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.h")
	data := []byte("#pragma once\n")

	m := &Manifest{}
	require.False(t, m.Unchanged(path, data))

	m.Record(Artifact{Path: path, SHA256: Sum(data)})
	require.False(t, m.Unchanged(path, data), "file missing on disk")

	require.NoError(t, os.WriteFile(path, data, 0o644))
	require.True(t, m.Unchanged(path, data))

	require.NoError(t, os.WriteFile(path, []byte("edited\n"), 0o644))
	require.False(t, m.Unchanged(path, data))
}
