package batch

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/lehigh-university-libraries/inkrhythm/internal/gateway/gatewaytest"
	"github.com/lehigh-university-libraries/inkrhythm/internal/intake"
	"github.com/lehigh-university-libraries/inkrhythm/internal/models"
	"github.com/parquet-go/parquet-go"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPairsJSONL(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "pairs.jsonl", []byte(`{"id":"a","master_path":"m1.png","user_path":"/abs/u1.png"}

{"master_path":"m2.png","user_path":"u2.png"}
`))

	pairs, err := LoadPairs(path)
	if err != nil {
		t.Fatalf("LoadPairs returned error: %v", err)
	}

	want := []Pair{
		{ID: "a", MasterPath: filepath.Join(dir, "m1.png"), UserPath: "/abs/u1.png"},
		{ID: "pair-2", MasterPath: filepath.Join(dir, "m2.png"), UserPath: filepath.Join(dir, "u2.png")},
	}
	if diff := cmp.Diff(want, pairs); diff != "" {
		t.Errorf("LoadPairs mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadPairsParquet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pairs.parquet")
	rows := []Pair{
		{ID: "p1", MasterPath: "m.png", UserPath: "u.png"},
		{ID: "p2", MasterPath: "m.png", UserPath: "u2.png"},
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		t.Fatalf("failed to write parquet: %v", err)
	}

	pairs, err := LoadPairs(path)
	if err != nil {
		t.Fatalf("LoadPairs returned error: %v", err)
	}
	if len(pairs) != 2 || pairs[1].UserPath != filepath.Join(dir, "u2.png") {
		t.Errorf("Unexpected pairs %+v", pairs)
	}
}

func TestLoadPairsErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "unsupported extension", file: "pairs.csv", content: "id,master,user"},
		{name: "malformed line", file: "bad.jsonl", content: "{not json"},
		{name: "missing path", file: "missing.jsonl", content: `{"id":"x","master_path":"m.png"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, []byte(tt.content))
			if _, err := LoadPairs(path); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	png := []byte("\x89PNG\r\n\x1a\n0000")
	master := writeFile(t, dir, "m.png", png)
	user := writeFile(t, dir, "u.png", png)

	var inflight, peak atomic.Int32
	fake := &gatewaytest.Fake{
		CompareFunc: func(ctx context.Context, m, u *intake.Image) (*models.AppraisalResult, error) {
			n := inflight.Add(1)
			defer inflight.Add(-1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			if u.Filename == "bad.png" {
				return nil, errors.New("provider unavailable")
			}
			return gatewaytest.SampleResult(), nil
		},
	}
	bad := writeFile(t, dir, "bad.png", png)

	pairs := []Pair{
		{ID: "1", MasterPath: master, UserPath: user},
		{ID: "2", MasterPath: master, UserPath: bad},
		{ID: "3", MasterPath: filepath.Join(dir, "nope.png"), UserPath: user},
		{ID: "4", MasterPath: master, UserPath: user},
		{ID: "5", MasterPath: master, UserPath: user},
	}

	results, err := Run(context.Background(), fake, pairs, 2, 0)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(results) != len(pairs) {
		t.Fatalf("Expected %d results, got %d", len(pairs), len(results))
	}
	for i, r := range results {
		if r.ID != pairs[i].ID {
			t.Errorf("Result %d out of order: %s", i, r.ID)
		}
	}
	if results[1].Error == "" || results[2].Error == "" {
		t.Error("Expected failures for the bad pairs")
	}
	if !strings.Contains(results[2].Error, "master") {
		t.Errorf("Expected missing master to be reported, got %q", results[2].Error)
	}
	if results[0].Appraisal == nil || results[0].Duration <= 0 {
		t.Errorf("Expected successful appraisal with duration, got %+v", results[0])
	}
	if peak.Load() > 2 {
		t.Errorf("Expected at most 2 concurrent calls, saw %d", peak.Load())
	}
	if fake.CompareCalls() != 4 {
		t.Errorf("Expected 4 comparison calls, got %d", fake.CompareCalls())
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, &gatewaytest.Fake{}, []Pair{{ID: "1"}}, 1, 0)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func sampleResults() []Result {
	low := gatewaytest.SampleResult()
	low.Scores.SSIM = 60
	low.Scores.Structure = 70
	high := gatewaytest.SampleResult()
	high.Scores.SSIM = 90
	high.Scores.Structure = 120

	return []Result{
		{ID: "a", Appraisal: gatewaytest.SampleResult()},
		{ID: "b", Appraisal: low},
		{ID: "c", Appraisal: high},
		{ID: "d", Error: "failed to appraise: boom"},
	}
}

func TestSummarize(t *testing.T) {
	summary := Summarize(sampleResults())

	if summary.Total != 4 || summary.Succeeded != 3 || summary.Failed != 1 {
		t.Errorf("Unexpected counts %+v", summary)
	}
	if summary.AverageSSIM != 76 {
		t.Errorf("Expected average 76, got %v", summary.AverageSSIM)
	}
	if summary.MedianSSIM != 78 || summary.MinSSIM != 60 || summary.MaxSSIM != 90 {
		t.Errorf("Unexpected SSIM stats %+v", summary)
	}
	// structure is clamped to 100 on the radar scale
	if got := summary.AxisAverages["structure"]; got != (82+70+100)/3.0 {
		t.Errorf("Unexpected structure average %v", got)
	}

	empty := Summarize(nil)
	if empty.Total != 0 || empty.AverageSSIM != 0 {
		t.Errorf("Expected zero summary, got %+v", empty)
	}
}

func TestSaveLoadYAML(t *testing.T) {
	results := &Results{
		Config:  Config{Provider: "gemini", Model: "gemini-3-pro-preview", Timestamp: "2026-10-19_10-00-00"},
		Results: sampleResults(),
	}
	results.Summary = Summarize(results.Results)

	path, err := SaveYAML(results, t.TempDir())
	if err != nil {
		t.Fatalf("SaveYAML returned error: %v", err)
	}
	if filepath.Base(path) != "batch_2026-10-19_10-00-00.yaml" {
		t.Errorf("Unexpected file name %s", path)
	}

	loaded, err := LoadYAML(path)
	if err != nil {
		t.Fatalf("LoadYAML returned error: %v", err)
	}
	if diff := cmp.Diff(results, loaded); diff != "" {
		t.Errorf("Results changed on disk (-want +got):\n%s", diff)
	}
}

func TestWriteReport(t *testing.T) {
	results := &Results{Config: Config{Provider: "ollama"}, Results: sampleResults()}
	results.Summary = Summarize(results.Results)

	var text bytes.Buffer
	if err := WriteReport(&text, results, "text"); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Batch Appraisal Summary", "Succeeded:          3", "❌ Error: failed to appraise: boom", "INK-20261019-001"} {
		if !strings.Contains(text.String(), want) {
			t.Errorf("Text report missing %q", want)
		}
	}

	var out bytes.Buffer
	if err := WriteReport(&out, results, "csv"); err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(&out).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("Expected header plus 4 rows, got %d", len(records))
	}
	if records[1][2] != "78" || records[4][len(records[4])-1] != "failed to appraise: boom" {
		t.Errorf("Unexpected CSV rows %v", records)
	}
	for _, r := range records {
		if len(r) != len(records[0]) {
			t.Errorf("Row width %d does not match header %d", len(r), len(records[0]))
		}
	}

	if err := WriteReport(&out, results, "xml"); err == nil {
		t.Error("Expected error for unsupported format")
	}
}
