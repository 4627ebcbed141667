package corpus

import (
	"errors"
	"fmt"
	"log"

	"ocr-tuner/internal/fitness"
	"ocr-tuner/internal/imageio"
	"ocr-tuner/internal/quality"
)

// LoadFixtures loads every degraded variant as a fitness fixture, in
// (document, level) order. Unreadable images are skipped and counted, not
// fatal; the skip count feeds the run summary. Callers own the fixture
// mats and should release them with CloseFixtures.
func (m *Manifest) LoadFixtures() (fixtures []fitness.Fixture, skipped int, err error) {
	for _, doc := range m.Documents {
		truth, err := m.Transcript(doc)
		if err != nil {
			CloseFixtures(fixtures)
			return nil, 0, err
		}

		for _, v := range doc.Degraded {
			img, err := imageio.LoadGray(m.Resolve(v.Path))
			if err != nil {
				if errors.Is(err, quality.ErrInvalidImage) {
					log.Printf("corpus: skipping %s/%s: %v", doc.ID, v.Level, err)
					skipped++
					continue
				}
				CloseFixtures(fixtures)
				return nil, 0, fmt.Errorf("corpus: %s/%s: %w", doc.ID, v.Level, err)
			}
			fixtures = append(fixtures, fitness.Fixture{
				DocID: doc.ID,
				Level: v.Level,
				Image: img,
				Truth: truth,
			})
		}
	}
	return fixtures, skipped, nil
}

// CloseFixtures releases the image mats held by fixtures.
func CloseFixtures(fixtures []fitness.Fixture) {
	for i := range fixtures {
		fixtures[i].Image.Close()
	}
}
