package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Artifact represents one generated file recorded in the manifest.
type Artifact struct {
	Path   string `yaml:"path" json:"path"`
	SHA256 string `yaml:"sha256" json:"sha256"`
}

// Manifest tracks the content hashes of generated artifacts so unchanged
// output is not rewritten.
type Manifest struct {
	Generator string     `yaml:"generator" json:"generator"`
	Artifacts []Artifact `yaml:"artifacts" json:"artifacts"`
}

// Load reads a manifest from the provided path. If the file does not exist,
// an empty manifest is returned.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}

	return &m, nil
}

// Save writes the manifest to the provided path, creating parent directories as needed.
// Artifacts are stored sorted by path.
func (m *Manifest) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}

	slices.SortFunc(m.Artifacts, func(a, b Artifact) int { return strings.Compare(a.Path, b.Path) })
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}

// Record stores the hash of an artifact, replacing an existing entry for the same path.
func (m *Manifest) Record(a Artifact) {
	a.Path = filepath.Clean(a.Path)
	for i := range m.Artifacts {
		if m.Artifacts[i].Path == a.Path {
			m.Artifacts[i] = a
			return
		}
	}

	m.Artifacts = append(m.Artifacts, a)
}

// Hash returns the recorded hash for path, if present.
func (m *Manifest) Hash(path string) string {
	path = filepath.Clean(path)
	for _, a := range m.Artifacts {
		if a.Path == path {
			return a.SHA256
		}
	}
	return ""
}

// Sum returns the hex sha256 of data as stored in the manifest.
func Sum(data []byte) string {
	s := sha256.Sum256(data)
	return hex.EncodeToString(s[:])
}

// Unchanged reports whether data matches both the manifest entry for path
// and the file currently on disk.
func (m *Manifest) Unchanged(path string, data []byte) bool {
	sum := Sum(data)
	if m.Hash(path) != sum {
		return false
	}
	onDisk, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return Sum(onDisk) == sum
}
