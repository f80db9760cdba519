package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/gravsim/internal/bench"
)

var ErrReportNotFound = errors.New("storage: report not found")

const (
	metadataFile = "metadata.json"
	timingsFile  = "timings.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type ReportMetadata struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Seed      uint64    `json:"seed"`
	Steps     int       `json:"steps"`
	Warmup    int       `json:"warmup"`
	Dt        float64   `json:"dt"`
	Softening float64   `json:"softening"`
	Backend   string    `json:"backend"`
	Workers   int       `json:"workers"`
	Sizes     []int     `json:"sizes"`
	// MaxDivergence is the worst seq/par disagreement over all sizes.
	MaxDivergence float64 `json:"max_divergence"`
}

// Save writes metadata.json and timings.csv under a fresh run directory and
// returns its ID. ID and Timestamp in meta are filled in.
func (s *Store) Save(meta ReportMetadata, result *bench.Result) (string, error) {
	now := time.Now()
	meta.ID = fmt.Sprintf("bench_%d", now.UnixNano())
	meta.Timestamp = now
	meta.Backend = result.Backend
	meta.Workers = result.Workers
	meta.Sizes = make([]int, 0, len(result.Points))
	for _, p := range result.Points {
		meta.Sizes = append(meta.Sizes, p.Particles)
		meta.MaxDivergence = max(meta.MaxDivergence, p.Divergence)
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, timingsFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write([]string{"particles", "mode", "steps", "elapsed_ns", "steps_per_sec", "pairs_per_sec"}); err != nil {
		return "", err
	}
	for _, p := range result.Points {
		for _, t := range []bench.Timing{p.Sequential, p.Parallel} {
			row := []string{
				strconv.Itoa(t.Particles),
				t.Mode,
				strconv.Itoa(t.Steps),
				strconv.FormatInt(t.Elapsed.Nanoseconds(), 10),
				strconv.FormatFloat(t.StepsPerSec, 'f', 6, 64),
				strconv.FormatFloat(t.PairsPerSec, 'f', 0, 64),
			}
			if err := w.Write(row); err != nil {
				return "", err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return meta.ID, nil
}

// List returns saved reports, oldest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]ReportMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []ReportMetadata{}, nil
		}
		return nil, err
	}

	reports := make([]ReportMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		reports = append(reports, *meta)
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Timestamp.Before(reports[j].Timestamp)
	})
	return reports, nil
}

func (s *Store) Load(id string) (*ReportMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, metadataFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrReportNotFound, id)
		}
		return nil, err
	}

	var meta ReportMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode %s metadata: %w", id, err)
	}
	return &meta, nil
}

// LoadTimings reads the timing rows of a report in file order.
func (s *Store) LoadTimings(id string) ([]bench.Timing, error) {
	file, err := os.Open(filepath.Join(s.baseDir, id, timingsFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrReportNotFound, id)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []bench.Timing{}, nil
	}

	timings := make([]bench.Timing, 0, len(records)-1)
	for _, rec := range records[1:] {
		n, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("particles %q: %w", rec[0], err)
		}
		steps, err := strconv.Atoi(rec[2])
		if err != nil {
			return nil, fmt.Errorf("steps %q: %w", rec[2], err)
		}
		ns, err := strconv.ParseInt(rec[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("elapsed %q: %w", rec[3], err)
		}
		sps, err := strconv.ParseFloat(rec[4], 64)
		if err != nil {
			return nil, fmt.Errorf("steps/sec %q: %w", rec[4], err)
		}
		pps, err := strconv.ParseFloat(rec[5], 64)
		if err != nil {
			return nil, fmt.Errorf("pairs/sec %q: %w", rec[5], err)
		}

		timings = append(timings, bench.Timing{
			Particles:   n,
			Mode:        rec[1],
			Steps:       steps,
			Elapsed:     time.Duration(ns),
			StepsPerSec: sps,
			PairsPerSec: pps,
		})
	}
	return timings, nil
}

// Series splits timings by mode, keeping file order.
func Series(timings []bench.Timing) (sizes []int, seq, par []float64) {
	for _, t := range timings {
		switch t.Mode {
		case bench.ModeSequential:
			sizes = append(sizes, t.Particles)
			seq = append(seq, t.StepsPerSec)
		case bench.ModeParallel:
			par = append(par, t.StepsPerSec)
		}
	}
	return sizes, seq, par
}
