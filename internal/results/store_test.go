package results

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/qpuctl/internal/testutil/testlog"
)

func TestWriteRecord(t *testing.T) {
	testlog.Start(t)
	store := Store{Dir: filepath.Join(t.TempDir(), "results")}

	rec := Record{
		JobID:         "cx9f2d81",
		Backend:       "ibm_brisbane",
		Counts:        map[string]int{"11": 820, "00": 60, "01": 70, "10": 50},
		Fidelity:      0.82,
		TotalShots:    1000,
		ExpectedState: "11",
	}
	path, err := store.Write(rec)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if filepath.Base(path) != "grover_result_cx9f2d81.json" {
		t.Fatalf("unexpected file name: %s", path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var got Record
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.JobID != rec.JobID || got.Fidelity != rec.Fidelity || got.TotalShots != rec.TotalShots {
		t.Fatalf("record mismatch: %+v", got)
	}
}

func TestWriteDistinctJobsDistinctFiles(t *testing.T) {
	testlog.Start(t)
	store := Store{Dir: t.TempDir()}

	pathA, err := store.Write(Record{JobID: "job-a", Counts: map[string]int{"11": 1}, TotalShots: 1, ExpectedState: "11"})
	if err != nil {
		t.Fatalf("write a: %v", err)
	}
	pathB, err := store.Write(Record{JobID: "job-b", Counts: map[string]int{"00": 1}, TotalShots: 1, ExpectedState: "11"})
	if err != nil {
		t.Fatalf("write b: %v", err)
	}
	if pathA == pathB {
		t.Fatalf("distinct job ids must not share a file")
	}
}

func TestWriteSameJobIsIdempotent(t *testing.T) {
	testlog.Start(t)
	store := Store{Dir: t.TempDir()}
	rec := Record{JobID: "job-x", Counts: map[string]int{"11": 5}, Fidelity: 1, TotalShots: 5, ExpectedState: "11"}

	first, err := store.Write(rec)
	if err != nil {
		t.Fatalf("first write: %v", err)
	}
	second, err := store.Write(rec)
	if err != nil {
		t.Fatalf("second write: %v", err)
	}
	if first != second {
		t.Fatalf("same job id must map to the same file")
	}
}

func TestWriteRejectsMissingJobID(t *testing.T) {
	testlog.Start(t)
	store := Store{Dir: t.TempDir()}
	if _, err := store.Write(Record{}); err == nil {
		t.Fatalf("expected error for missing job id")
	}
}
