package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/coulomb/internal/dynamo"
)

type ExportData struct {
	Scenario   string             `json:"scenario"`
	Integrator string             `json:"integrator"`
	Dt         float64            `json:"dt"`
	Steps      int                `json:"steps"`
	Masses     []float64          `json:"masses"`
	Charges    []float64          `json:"charges"`
	Times      []float64          `json:"times"`
	States     [][]float64        `json:"states"`
	Metrics    map[string]float64 `json:"metrics"`
}

// ExportJSON writes a stored run as a single JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	cfg, err := s.LoadConfig(runID)
	if err != nil {
		return err
	}
	tr, err := s.LoadStates(runID)
	if err != nil {
		return err
	}

	return WriteJSON(w, ExportData{
		Scenario:   meta.Scenario,
		Integrator: meta.Integrator,
		Dt:         meta.Dt,
		Steps:      meta.Steps,
		Masses:     cfg.Particles.Masses(),
		Charges:    cfg.Particles.Charges(),
		Times:      tr.Times,
		States:     statesOf(tr),
		Metrics:    meta.Metrics,
	})
}

func WriteJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func statesOf(tr *dynamo.Trajectory) [][]float64 {
	out := make([][]float64, len(tr.States))
	for i, x := range tr.States {
		out[i] = x
	}
	return out
}
