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

	"github.com/rs/xid"

	"github.com/san-kum/pidctrl/internal/dynamo"
	"github.com/san-kum/pidctrl/internal/loop"
	"github.com/san-kum/pidctrl/pkg/pid"
)

const (
	metadataFile = "metadata.json"
	samplesFile  = "samples.csv"
)

var (
	ErrRunNotFound = errors.New("storage: run not found")
	ErrBadSamples  = errors.New("storage: malformed samples file")
	ErrInvalidID   = errors.New("storage: invalid run id")
)

var samplesHeader = []string{"time", "setpoint", "measurement", "output", "raw", "applied", "error"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Plant      string             `json:"plant"`
	Strategy   string             `json:"strategy"`
	Integrator string             `json:"integrator"`
	Timestamp  time.Time          `json:"timestamp"`
	Gains      pid.Gains          `json:"gains"`
	Limits     pid.Limits         `json:"limits"`
	SampleTime float64            `json:"sample_time"`
	Setpoint   float64            `json:"setpoint"`
	Steps      int                `json:"steps"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save assigns meta an ID and timestamp and writes it together with the
// samples of result.
func (s *Store) Save(meta RunMetadata, result *loop.Result) (string, error) {
	meta.ID = fmt.Sprintf("%s_%s", meta.Plant, xid.New().String())
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if meta.Metrics == nil {
		meta.Metrics = result.Metrics
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeMetadata(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", fmt.Errorf("write metadata: %w", err)
	}
	if err := writeSamples(filepath.Join(runDir, samplesFile), result.Samples()); err != nil {
		return "", fmt.Errorf("write samples: %w", err)
	}

	return meta.ID, nil
}

func writeMetadata(path string, meta RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func writeSamples(path string, samples []dynamo.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(samplesHeader); err != nil {
		return err
	}
	for _, smp := range samples {
		row := []string{
			formatFloat(smp.Time),
			formatFloat(smp.Setpoint),
			formatFloat(smp.Measurement),
			formatFloat(smp.Output),
			formatFloat(smp.Raw),
			formatFloat(smp.Applied),
			formatFloat(smp.Error()),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// List returns every readable run, oldest first. Unreadable run
// directories are skipped.
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
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

// runFile resolves name inside the run directory. IDs must name a direct
// child of the base directory.
func (s *Store) runFile(runID, name string) (string, error) {
	if runID == "" || runID == "." || runID == ".." || strings.ContainsAny(runID, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, runID)
	}
	return filepath.Join(s.baseDir, runID, name), nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	path, err := s.runFile(runID, metadataFile)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadSamples(runID string) ([]dynamo.Sample, error) {
	path, err := s.runFile(runID, samplesFile)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(samplesHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSamples, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing header", ErrBadSamples)
	}

	samples := make([]dynamo.Sample, 0, len(records)-1)
	for i, record := range records[1:] {
		var vals [6]float64
		for j := range vals {
			v, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d: %v", ErrBadSamples, i+1, err)
			}
			vals[j] = v
		}
		samples = append(samples, dynamo.Sample{
			Step:        i,
			Time:        vals[0],
			Setpoint:    vals[1],
			Measurement: vals[2],
			Output:      vals[3],
			Raw:         vals[4],
			Applied:     vals[5],
		})
	}
	return samples, nil
}

type exportData struct {
	RunMetadata
	Samples []exportSample `json:"samples"`
}

type exportSample struct {
	Time        float64 `json:"time"`
	Setpoint    float64 `json:"setpoint"`
	Measurement float64 `json:"measurement"`
	Output      float64 `json:"output"`
	Raw         float64 `json:"raw"`
	Applied     float64 `json:"applied"`
	Error       float64 `json:"error"`
}

// ExportJSON writes the run metadata and its samples as one document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	samples, err := s.LoadSamples(runID)
	if err != nil {
		return err
	}

	data := exportData{RunMetadata: *meta, Samples: make([]exportSample, len(samples))}
	for i, smp := range samples {
		data.Samples[i] = exportSample{
			Time:        smp.Time,
			Setpoint:    smp.Setpoint,
			Measurement: smp.Measurement,
			Output:      smp.Output,
			Raw:         smp.Raw,
			Applied:     smp.Applied,
			Error:       smp.Error(),
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// ExportCSV copies the stored samples file to w.
func (s *Store) ExportCSV(w io.Writer, runID string) error {
	path, err := s.runFile(runID, samplesFile)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}
