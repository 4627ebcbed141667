package genetic

import (
	"fmt"

	"ocr-tuner/internal/artifact"
	"ocr-tuner/internal/filter"
	"ocr-tuner/internal/pareto"
)

// checkpointVersion guards against loading state written by an
// incompatible optimizer.
const checkpointVersion = 1

// Checkpoint is the persisted optimizer state at a generation boundary.
// Evaluated objectives are stored with each individual so a resumed run
// never re-invokes the oracle for already-scored genomes.
type Checkpoint struct {
	Version    int               `json:"version"`
	RunID      string            `json:"run_id"`
	Family     filter.Family     `json:"family"`
	Seed       int64             `json:"seed"`
	PopSize    int               `json:"pop_size"`
	Generation int               `json:"generation"`
	NextID     int               `json:"next_id"`
	Population []Individual      `json:"population"`
	Archive    []pareto.Solution `json:"archive"`
	History    []GenStats        `json:"history"`
}

func (o *Optimizer) saveCheckpoint(path string) error {
	cp := Checkpoint{
		Version:    checkpointVersion,
		RunID:      o.runID,
		Family:     o.cfg.Family,
		Seed:       o.cfg.Seed,
		PopSize:    o.cfg.PopSize,
		Generation: o.generation,
		NextID:     o.nextID,
		Population: o.pop,
		Archive:    o.archive,
		History:    o.history,
	}
	if err := artifact.WriteJSON(path, &cp); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}

func (o *Optimizer) loadCheckpoint(path string) error {
	var cp Checkpoint
	if err := artifact.ReadJSON(path, &cp); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	if cp.Version != checkpointVersion {
		return fmt.Errorf("checkpoint %s: version %d, want %d", path, cp.Version, checkpointVersion)
	}
	if cp.Family != o.cfg.Family {
		return fmt.Errorf("checkpoint %s: family %q, run configured for %q", path, cp.Family, o.cfg.Family)
	}
	if cp.Seed != o.cfg.Seed {
		return fmt.Errorf("checkpoint %s: seed %d, run configured with %d", path, cp.Seed, o.cfg.Seed)
	}
	if cp.PopSize != o.cfg.PopSize {
		return fmt.Errorf("checkpoint %s: population %d, run configured with %d", path, cp.PopSize, o.cfg.PopSize)
	}

	o.runID = cp.RunID
	o.generation = cp.Generation
	o.nextID = cp.NextID
	o.pop = cp.Population
	o.archive = cp.Archive
	o.history = cp.History
	return nil
}
