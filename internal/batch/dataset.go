// Package batch appraises many master/practice pairs in one run and
// summarizes the scores.
package batch

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// Pair is one master/practice comparison to run
type Pair struct {
	ID         string `json:"id" parquet:"id"`
	MasterPath string `json:"master_path" parquet:"master_path"`
	UserPath   string `json:"user_path" parquet:"user_path"`
}

// LoadPairs loads pairs from a JSONL or Parquet file. Relative image paths are
// resolved against the directory holding the dataset.
func LoadPairs(datasetPath string) ([]Pair, error) {
	var (
		pairs []Pair
		err   error
	)

	ext := strings.ToLower(filepath.Ext(datasetPath))
	switch ext {
	case ".parquet":
		pairs, err = loadParquet(datasetPath)
	case ".jsonl", ".json":
		pairs, err = loadJSONL(datasetPath)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .parquet, .jsonl)", ext)
	}
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(datasetPath)
	for i := range pairs {
		p := &pairs[i]
		if p.ID == "" {
			p.ID = fmt.Sprintf("pair-%d", i+1)
		}
		if p.MasterPath == "" || p.UserPath == "" {
			return nil, fmt.Errorf("pair %s: master_path and user_path are required", p.ID)
		}
		p.MasterPath = resolve(base, p.MasterPath)
		p.UserPath = resolve(base, p.UserPath)
	}

	slog.Debug("Loaded pairs", "path", datasetPath, "count", len(pairs))
	return pairs, nil
}

func resolve(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

func loadJSONL(path string) ([]Pair, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	var pairs []Pair
	scanner := bufio.NewScanner(file)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var pair Pair
		if err := json.Unmarshal([]byte(line), &pair); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		pairs = append(pairs, pair)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading dataset: %w", err)
	}
	return pairs, nil
}

func loadParquet(path string) ([]Pair, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[Pair](pf)
	defer reader.Close()

	pairs := make([]Pair, 0, pf.NumRows())
	rows := make([]Pair, 128)
	for {
		n, err := reader.Read(rows)
		pairs = append(pairs, rows[:n]...)
		if err != nil {
			break
		}
	}

	if int64(len(pairs)) != pf.NumRows() {
		return nil, fmt.Errorf("read %d of %d parquet rows", len(pairs), pf.NumRows())
	}
	return pairs, nil
}
