package cluster

import (
	"fmt"

	"ocr-tuner/internal/artifact"
	"ocr-tuner/internal/quality"
)

// Assignments is the persisted image-to-cluster mapping artifact.
type Assignments map[string]int

// AssignAll assigns every profile and returns the mapping.
func (m *Model) AssignAll(profiles []quality.Profile) Assignments {
	out := make(Assignments, len(profiles))
	for _, p := range profiles {
		out[p.ImageID] = m.Assign(p)
	}
	return out
}

// Members returns the image ids assigned to one cluster.
func (a Assignments) Members(clusterID int) []string {
	var ids []string
	for id, c := range a {
		if c == clusterID {
			ids = append(ids, id)
		}
	}
	return ids
}

// Save writes the assignments artifact to a JSON file.
func (a Assignments) Save(path string) error {
	return artifact.WriteJSON(path, a)
}

// LoadAssignments reads an assignments artifact from a JSON file.
func LoadAssignments(path string) (Assignments, error) {
	var a Assignments
	if err := artifact.ReadJSON(path, &a); err != nil {
		return nil, err
	}
	if len(a) == 0 {
		return nil, fmt.Errorf("assignments %s: empty", path)
	}
	return a, nil
}
