// Package storage keeps a record of every session under a data directory:
// <base>/<id>/metadata.json and a per-tick samples.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
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

func (s *Store) Dir() string { return s.baseDir }

type SessionMetadata struct {
	ID        string    `json:"id"`
	Started   time.Time `json:"started"`
	Ended     time.Time `json:"ended"`
	Transport string    `json:"transport"`
	Rows      int       `json:"rows"`
	Cols      int       `json:"cols"`
	Palette   string    `json:"palette"`
	FPS       int       `json:"fps"`
	Output    string    `json:"output,omitempty"`
	Capture   string    `json:"capture,omitempty"`
	Lines     uint64    `json:"lines"`
	Published uint64    `json:"published"`
	Malformed uint64    `json:"malformed"`
	Frames    int       `json:"frames"`
	Reason    string    `json:"reason"`
	Errors    []string  `json:"errors,omitempty"`
}

func (m SessionMetadata) Duration() time.Duration {
	return m.Ended.Sub(m.Started)
}

// Sample is the source state at one display tick.
type Sample struct {
	Elapsed   time.Duration
	Lines     uint64
	Published uint64
	Malformed uint64
	Rate      float64
}

var sampleHeader = []string{"elapsed_s", "lines", "published", "malformed", "rate"}

func (s *Store) Save(meta SessionMetadata, samples []Sample) error {
	if meta.ID == "" {
		return fmt.Errorf("storage: session has no id")
	}
	dir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	metaFile, err := os.Create(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return err
	}

	csvFile, err := os.Create(filepath.Join(dir, "samples.csv"))
	if err != nil {
		return err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(sampleHeader); err != nil {
		return err
	}
	for _, sm := range samples {
		row := []string{
			strconv.FormatFloat(sm.Elapsed.Seconds(), 'f', 3, 64),
			strconv.FormatUint(sm.Lines, 10),
			strconv.FormatUint(sm.Published, 10),
			strconv.FormatUint(sm.Malformed, 10),
			strconv.FormatFloat(sm.Rate, 'f', 3, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable session, newest first.
func (s *Store) List() ([]SessionMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SessionMetadata{}, nil
		}
		return nil, err
	}

	sessions := make([]SessionMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		sessions = append(sessions, *meta)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Started.After(sessions[j].Started)
	})
	return sessions, nil
}

func (s *Store) Load(id string) (*SessionMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta SessionMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadSamples(id string) ([]Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, id, "samples.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(sampleHeader)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []Sample{}, nil
	}

	samples := make([]Sample, 0, len(records)-1)
	for _, rec := range records[1:] {
		secs, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			continue
		}
		var sm Sample
		sm.Elapsed = time.Duration(secs * float64(time.Second))
		sm.Lines, _ = strconv.ParseUint(rec[1], 10, 64)
		sm.Published, _ = strconv.ParseUint(rec[2], 10, 64)
		sm.Malformed, _ = strconv.ParseUint(rec[3], 10, 64)
		sm.Rate, _ = strconv.ParseFloat(rec[4], 64)
		samples = append(samples, sm)
	}
	return samples, nil
}
