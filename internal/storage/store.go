// Package storage persists finished runs. Each run gets its own directory
// under the data dir holding the metadata, the config it ran with, the
// sampled series, the final snapshot and the identified molecules.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/chemsim/internal/analysis"
	"github.com/san-kum/chemsim/internal/config"
	"github.com/san-kum/chemsim/internal/physics"
	"github.com/san-kum/chemsim/internal/sim"
)

const (
	metadataFile  = "metadata.json"
	configFile    = "config.yaml"
	seriesFile    = "series.csv"
	snapshotFile  = "snapshot.json"
	moleculesFile = "molecules.json"
)

// ErrRunNotFound is returned for ids that do not name a stored run.
var ErrRunNotFound = errors.New("storage: run not found")

var seriesHeader = []string{"step", "time", "kinetic_energy", "temperature", "atoms", "bonds", "molecules"}

type Store struct {
	baseDir string
	now     func() time.Time
	newID   func() string
}

func New(baseDir string) *Store {
	return &Store{
		baseDir: baseDir,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Steps      int                `json:"steps"`
	Atoms      int                `json:"atoms"`
	Bonds      int                `json:"bonds"`
	Species    int                `json:"species"`
	Discovered int                `json:"discovered"`
	Stats      physics.Stats      `json:"stats"`
	Metrics    map[string]float64 `json:"metrics"`
}

// MoleculeReport is the stored identification result of a run.
type MoleculeReport struct {
	Molecules   []analysis.Molecule  `json:"molecules"`
	Species     []analysis.Species   `json:"species"`
	Discoveries []analysis.Discovery `json:"discoveries"`
}

// Save writes a finished run and returns its id, "<name>_<utc stamp>_<uuid
// prefix>".
func (s *Store) Save(cfg *config.Config, result *sim.Result, snap physics.Snapshot) (string, error) {
	if cfg == nil || result == nil {
		return "", fmt.Errorf("storage: nothing to save")
	}
	now := s.now().UTC()
	name := sanitize(cfg.Name)
	runID := fmt.Sprintf("%s_%s_%s", name, now.Format("20060102T150405"), strings.SplitN(s.newID(), "-", 2)[0])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", fmt.Errorf("storage: create run dir: %w", err)
	}

	species := analysis.Tally(result.Molecules)
	meta := RunMetadata{
		ID:         runID,
		Name:       cfg.Name,
		Timestamp:  now,
		Seed:       cfg.Seed,
		Dt:         cfg.Params.Dt,
		Steps:      result.StepsTaken,
		Atoms:      len(snap.Atoms),
		Bonds:      len(snap.Bonds),
		Species:    len(species),
		Discovered: len(result.Discoveries),
		Stats:      result.Stats,
		Metrics:    result.Metrics,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
		return "", err
	}
	if err := writeSeries(filepath.Join(runDir, seriesFile), result.Samples); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, snapshotFile), snap); err != nil {
		return "", err
	}
	report := MoleculeReport{Molecules: result.Molecules, Species: species, Discoveries: result.Discoveries}
	if err := writeJSON(filepath.Join(runDir, moleculesFile), report); err != nil {
		return "", err
	}
	return runID, nil
}

// List returns stored runs, newest first. Directories without readable
// metadata are skipped.
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
		var meta RunMetadata
		if err := readJSON(filepath.Join(s.baseDir, entry.Name(), metadataFile), &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	var meta RunMetadata
	if err := s.read(runID, metadataFile, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadConfig returns the configuration the run was made with.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	path, err := s.path(runID, configFile)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, notFound(runID, err)
	}
	return cfg, nil
}

func (s *Store) LoadSnapshot(runID string) (physics.Snapshot, error) {
	var snap physics.Snapshot
	err := s.read(runID, snapshotFile, &snap)
	return snap, err
}

func (s *Store) LoadMolecules(runID string) (*MoleculeReport, error) {
	var rep MoleculeReport
	if err := s.read(runID, moleculesFile, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

// LoadSeries reads the sampled time series back. Malformed rows are skipped.
func (s *Store) LoadSeries(runID string) ([]sim.Sample, error) {
	path, err := s.path(runID, seriesFile)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, notFound(runID, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", seriesFile, err)
	}
	if len(records) < 2 {
		return []sim.Sample{}, nil
	}

	samples := make([]sim.Sample, 0, len(records)-1)
	for _, record := range records[1:] {
		sm, ok := parseSample(record)
		if !ok {
			continue
		}
		samples = append(samples, sm)
	}
	return samples, nil
}

// RunExport bundles everything stored for a run into one document.
type RunExport struct {
	Metadata    RunMetadata          `json:"metadata"`
	Samples     []sim.Sample         `json:"samples"`
	Molecules   []analysis.Molecule  `json:"molecules"`
	Species     []analysis.Species   `json:"species"`
	Discoveries []analysis.Discovery `json:"discoveries"`
	Snapshot    physics.Snapshot     `json:"snapshot"`
}

// ExportJSON writes the whole run as a single indented JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	samples, err := s.LoadSeries(runID)
	if err != nil {
		return err
	}
	rep, err := s.LoadMolecules(runID)
	if err != nil {
		return err
	}
	snap, err := s.LoadSnapshot(runID)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(RunExport{
		Metadata:    *meta,
		Samples:     samples,
		Molecules:   rep.Molecules,
		Species:     rep.Species,
		Discoveries: rep.Discoveries,
		Snapshot:    snap,
	})
}

// path resolves a file of a run, rejecting ids that would leave the data dir.
func (s *Store) path(runID, file string) (string, error) {
	if runID == "" || runID != filepath.Base(runID) || runID == "." || runID == ".." {
		return "", fmt.Errorf("%w: %q", ErrRunNotFound, runID)
	}
	return filepath.Join(s.baseDir, runID, file), nil
}

func (s *Store) read(runID, file string, v any) error {
	path, err := s.path(runID, file)
	if err != nil {
		return err
	}
	if err := readJSON(path, v); err != nil {
		return notFound(runID, err)
	}
	return nil
}

func notFound(runID string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %q", ErrRunNotFound, runID)
	}
	return err
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("storage: encode %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("storage: decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeSeries(path string, samples []sim.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(seriesHeader); err != nil {
		return err
	}
	for _, sm := range samples {
		row := []string{
			strconv.Itoa(sm.Step),
			strconv.FormatFloat(sm.Time, 'f', 6, 64),
			strconv.FormatFloat(sm.KineticEnergy, 'g', 10, 64),
			strconv.FormatFloat(sm.Temperature, 'g', 10, 64),
			strconv.Itoa(sm.Atoms),
			strconv.Itoa(sm.Bonds),
			strconv.Itoa(sm.Molecules),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func parseSample(record []string) (sim.Sample, bool) {
	if len(record) < len(seriesHeader) {
		return sim.Sample{}, false
	}
	var (
		sm   sim.Sample
		errs [7]error
	)
	sm.Step, errs[0] = strconv.Atoi(record[0])
	sm.Time, errs[1] = strconv.ParseFloat(record[1], 64)
	sm.KineticEnergy, errs[2] = strconv.ParseFloat(record[2], 64)
	sm.Temperature, errs[3] = strconv.ParseFloat(record[3], 64)
	sm.Atoms, errs[4] = strconv.Atoi(record[4])
	sm.Bonds, errs[5] = strconv.Atoi(record[5])
	sm.Molecules, errs[6] = strconv.Atoi(record[6])
	return sm, errors.Join(errs[:]...) == nil
}

func sanitize(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(name))
	if name == "" {
		return "run"
	}
	return name
}
