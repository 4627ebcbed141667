package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"ocr-tuner/internal/artifact"
	"ocr-tuner/internal/imageio"
)

// writeTestCorpus lays out a two-document corpus with two degradation
// levels in a temp directory and returns the manifest path.
func writeTestCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	img := gocv.NewMatWithSize(20, 20, gocv.MatTypeCV8UC1)
	defer img.Close()

	m := Manifest{Version: 1}
	for _, id := range []string{"invoice", "report"} {
		doc := Document{
			ID:         id,
			Pristine:   id + "_clean.png",
			Transcript: id + ".txt",
		}
		for _, level := range []string{"light", "heavy"} {
			rel := id + "_" + level + ".png"
			require.NoError(t, imageio.SavePNG(img, filepath.Join(dir, rel)))
			doc.Degraded = append(doc.Degraded, Variant{Level: level, Path: rel})
		}
		m.Documents = append(m.Documents, doc)
	}

	// One transcript with Windows line endings and trailing whitespace.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "invoice.txt"),
		[]byte("Total due: 42.00\r\nThank you\r\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report.txt"),
		[]byte("Quarterly report\n"), 0o644))

	path := filepath.Join(dir, "manifest.json")
	require.NoError(t, artifact.WriteJSON(path, m))
	return path
}

func TestLoadManifest(t *testing.T) {
	m, err := LoadManifest(writeTestCorpus(t))
	require.NoError(t, err)

	assert.Len(t, m.Documents, 2)
	assert.Equal(t, []string{"light", "heavy"}, m.Levels())
	assert.Equal(t, 4, m.NumObjectives())
	assert.Equal(t, []string{
		"invoice/light", "invoice/heavy",
		"report/light", "report/heavy",
	}, m.ObjectiveLabels())
}

func TestLoadManifestValidation(t *testing.T) {
	dir := t.TempDir()
	write := func(m Manifest) string {
		path := filepath.Join(dir, "manifest.json")
		require.NoError(t, artifact.WriteJSON(path, m))
		return path
	}

	_, err := LoadManifest(write(Manifest{Version: 1}))
	assert.Error(t, err, "empty corpus")

	_, err = LoadManifest(write(Manifest{Version: 1, Documents: []Document{
		{ID: "doc", Transcript: "doc.txt"},
	}}))
	assert.Error(t, err, "document without degraded variants")

	_, err = LoadManifest(write(Manifest{Version: 1, Documents: []Document{
		{ID: "doc", Degraded: []Variant{{Level: "light", Path: "a.png"}}},
	}}))
	assert.Error(t, err, "document without transcript")

	// Mismatched level sequences across documents break the shared
	// objective vector layout.
	_, err = LoadManifest(write(Manifest{Version: 1, Documents: []Document{
		{ID: "a", Transcript: "a.txt", Degraded: []Variant{{Level: "light", Path: "a1.png"}}},
		{ID: "b", Transcript: "b.txt", Degraded: []Variant{{Level: "heavy", Path: "b1.png"}}},
	}}))
	assert.Error(t, err, "level sequences must agree across documents")
}

func TestTranscriptNormalization(t *testing.T) {
	m, err := LoadManifest(writeTestCorpus(t))
	require.NoError(t, err)

	text, err := m.Transcript(m.Documents[0])
	require.NoError(t, err)
	assert.Equal(t, "Total due: 42.00\nThank you", text)
}

func TestLoadFixtures(t *testing.T) {
	m, err := LoadManifest(writeTestCorpus(t))
	require.NoError(t, err)

	fixtures, skipped, err := m.LoadFixtures()
	require.NoError(t, err)
	defer CloseFixtures(fixtures)

	assert.Zero(t, skipped)
	require.Len(t, fixtures, 4)

	assert.Equal(t, "invoice", fixtures[0].DocID)
	assert.Equal(t, "light", fixtures[0].Level)
	assert.Equal(t, "Total due: 42.00\nThank you", fixtures[0].Truth)
	assert.Equal(t, "report", fixtures[2].DocID)
	for _, f := range fixtures {
		assert.False(t, f.Image.Empty())
	}
}

func TestLoadFixturesSkipsCorruptImages(t *testing.T) {
	path := writeTestCorpus(t)
	dir := filepath.Dir(path)

	// Overwrite one variant with garbage.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report_heavy.png"),
		[]byte("not a png"), 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)

	fixtures, skipped, err := m.LoadFixtures()
	require.NoError(t, err)
	defer CloseFixtures(fixtures)

	assert.Equal(t, 1, skipped)
	assert.Len(t, fixtures, 3)
}
