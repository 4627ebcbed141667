// Package corpus reads the benchmark corpus: pristine source documents
// with known-correct transcripts, and pre-generated degraded variants at
// labeled degradation levels. The corpus is consumed read-only.
package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ocr-tuner/internal/artifact"
)

// Variant is one degraded rendition of a document.
type Variant struct {
	Level string `json:"level"`
	Path  string `json:"path"`
}

// Document is one source document with its ground truth and degraded set.
type Document struct {
	ID         string    `json:"id"`
	Pristine   string    `json:"pristine"`
	Transcript string    `json:"transcript"`
	Degraded   []Variant `json:"degraded"`
}

// Manifest lists the corpus contents. All paths are relative to the
// manifest file's directory.
type Manifest struct {
	Version   int        `json:"version"`
	Documents []Document `json:"documents"`

	// baseDir is the manifest's directory, set on load.
	baseDir string
}

// LoadManifest reads and validates a corpus manifest.
func LoadManifest(path string) (*Manifest, error) {
	var m Manifest
	if err := artifact.ReadJSON(path, &m); err != nil {
		return nil, err
	}
	m.baseDir = filepath.Dir(path)

	if len(m.Documents) == 0 {
		return nil, fmt.Errorf("corpus %s: no documents", path)
	}

	var levels []string
	for i, doc := range m.Documents {
		if doc.ID == "" {
			return nil, fmt.Errorf("corpus %s: document %d has no id", path, i)
		}
		if doc.Transcript == "" {
			return nil, fmt.Errorf("corpus %s: document %s has no transcript", path, doc.ID)
		}
		if len(doc.Degraded) == 0 {
			return nil, fmt.Errorf("corpus %s: document %s has no degraded variants", path, doc.ID)
		}

		docLevels := make([]string, len(doc.Degraded))
		for j, v := range doc.Degraded {
			if v.Level == "" || v.Path == "" {
				return nil, fmt.Errorf("corpus %s: document %s variant %d is incomplete", path, doc.ID, j)
			}
			docLevels[j] = v.Level
		}
		if i == 0 {
			levels = docLevels
		} else if strings.Join(levels, ",") != strings.Join(docLevels, ",") {
			return nil, fmt.Errorf("corpus %s: document %s levels %v differ from %v",
				path, doc.ID, docLevels, levels)
		}
	}
	return &m, nil
}

// Levels returns the degradation level labels, identical for every
// document by validation.
func (m *Manifest) Levels() []string {
	levels := make([]string, len(m.Documents[0].Degraded))
	for i, v := range m.Documents[0].Degraded {
		levels[i] = v.Level
	}
	return levels
}

// NumObjectives is the objective vector length: one entry per
// (document, degradation-level) pair.
func (m *Manifest) NumObjectives() int {
	return len(m.Documents) * len(m.Documents[0].Degraded)
}

// ObjectiveLabels names each objective "docID/level" in evaluation order.
func (m *Manifest) ObjectiveLabels() []string {
	var labels []string
	for _, doc := range m.Documents {
		for _, v := range doc.Degraded {
			labels = append(labels, doc.ID+"/"+v.Level)
		}
	}
	return labels
}

// Resolve maps a manifest-relative path to a filesystem path.
func (m *Manifest) Resolve(rel string) string {
	return filepath.Join(m.baseDir, rel)
}

// Transcript reads a document's ground-truth transcript with normalized
// line endings.
func (m *Manifest) Transcript(doc Document) (string, error) {
	data, err := os.ReadFile(m.Resolve(doc.Transcript))
	if err != nil {
		return "", fmt.Errorf("corpus: transcript for %s: %w", doc.ID, err)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return strings.TrimSpace(text), nil
}
