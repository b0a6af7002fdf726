// Package storage persists finished runs. Each run is a directory holding
// metadata.json, the scenario as scenario.yaml and the recorded states as
// zstd-compressed CSV.
package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/DataDog/zstd"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/coulomb/internal/config"
	"github.com/san-kum/coulomb/internal/dynamo"
)

const (
	metadataFile = "metadata.json"
	scenarioFile = "scenario.yaml"
	statesFile   = "states.csv.zst"

	compressionLevel = 3
)

type Store struct {
	baseDir string
	log     logrus.FieldLogger
}

func New(baseDir string, log logrus.FieldLogger) *Store {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		log = l
	}
	return &Store{baseDir: baseDir, log: log}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Scenario   string             `json:"scenario"`
	Timestamp  time.Time          `json:"timestamp"`
	Integrator string             `json:"integrator"`
	Dt         float64            `json:"dt"`
	Steps      int                `json:"steps"`
	Particles  int                `json:"particles"`
	SubSteps   int                `json:"substeps"`
	Rejected   int                `json:"rejected"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes the run and returns its ID.
func (s *Store) Save(cfg *config.Config, result *dynamo.Result) (string, error) {
	now := time.Now()
	runID, runDir, err := s.newRunDir(cfg.Name, now)
	if err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Scenario:   cfg.Name,
		Timestamp:  now,
		Integrator: cfg.Integrator,
		Dt:         cfg.Dt,
		Steps:      result.StepsTaken,
		Particles:  len(cfg.Particles),
		SubSteps:   result.SubSteps,
		Rejected:   result.Rejected,
		Metrics:    result.Metrics,
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(runDir, metadataFile), data, 0644); err != nil {
		return "", err
	}

	if err := config.Save(filepath.Join(runDir, scenarioFile), cfg); err != nil {
		return "", err
	}

	raw, err := encodeStates(result.Trajectory)
	if err != nil {
		return "", err
	}
	packed, err := zstd.CompressLevel(nil, raw, compressionLevel)
	if err != nil {
		return "", fmt.Errorf("compress states: %w", err)
	}
	if err := os.WriteFile(filepath.Join(runDir, statesFile), packed, 0644); err != nil {
		return "", err
	}

	s.log.WithFields(logrus.Fields{
		"run_id": runID,
		"raw":    len(raw),
		"stored": len(packed),
	}).Debug("run saved")

	return runID, nil
}

func (s *Store) newRunDir(name string, now time.Time) (string, string, error) {
	if err := s.Init(); err != nil {
		return "", "", err
	}
	base := fmt.Sprintf("%s_%d", name, now.Unix())
	for i := 0; ; i++ {
		runID := base
		if i > 0 {
			runID = fmt.Sprintf("%s-%d", base, i)
		}
		runDir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			return runID, runDir, nil
		}
		if !os.IsExist(err) {
			return "", "", err
		}
	}
}

// encodeStates renders the trajectory as CSV with a time column followed by
// x, y, vx, vy for each particle. Values keep full precision.
func encodeStates(tr *dynamo.Trajectory) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if tr == nil || tr.Len() == 0 {
		w.Flush()
		return buf.Bytes(), w.Error()
	}

	header := []string{"time"}
	for p := 0; p < len(tr.States[0])/4; p++ {
		header = append(header,
			fmt.Sprintf("x%d", p), fmt.Sprintf("y%d", p),
			fmt.Sprintf("vx%d", p), fmt.Sprintf("vy%d", p))
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for i, x := range tr.States {
		row := make([]string, 0, len(x)+1)
		row = append(row, strconv.FormatFloat(tr.Times[i], 'g', -1, 64))
		for _, val := range x {
			row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			s.log.WithError(err).WithField("run_id", entry.Name()).Debug("skipping unreadable run")
			continue
		}

		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].Timestamp.Equal(runs[j].Timestamp) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	return &meta, nil
}

// LoadConfig returns the scenario the run was started from.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, scenarioFile))
}

func (s *Store) LoadStates(runID string) (*dynamo.Trajectory, error) {
	packed, err := os.ReadFile(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return nil, err
	}
	raw, err := zstd.Decompress(nil, packed)
	if err != nil {
		return nil, fmt.Errorf("run %s: decompress states: %w", runID, err)
	}

	r := csv.NewReader(bytes.NewReader(raw))
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	if len(records) < 2 {
		return dynamo.NewTrajectory(0, 0), nil
	}

	tr := dynamo.NewTrajectory(len(records)-1, 0)
	for i, record := range records[1:] {
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("run %s row %d: %w", runID, i+1, err)
		}

		x := make(dynamo.State, len(record)-1)
		for j := range x {
			if x[j], err = strconv.ParseFloat(record[j+1], 64); err != nil {
				return nil, fmt.Errorf("run %s row %d: %w", runID, i+1, err)
			}
		}
		tr.States = append(tr.States, x)
		tr.Times = append(tr.Times, t)
	}
	if tr.Len() > 1 {
		tr.Step = tr.Times[1] - tr.Times[0]
	}

	return tr, nil
}
