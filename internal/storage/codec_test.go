package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ipdevo/internal/model"
)

func TestDecodeRunFixture(t *testing.T) {
	run, err := DecodeRun(readFixture(t, "run_v1.json"))
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if run.ID != "run-fixture-1" || run.Status != model.RunStatusCompleted {
		t.Fatalf("unexpected run: %+v", run)
	}
	if run.PopulationSize != 1000 || run.Memory != 3 || run.Inject != "replace" {
		t.Fatalf("unexpected run config: %+v", run)
	}
	want := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if !run.CreatedAt.Equal(want) {
		t.Fatalf("unexpected created_at: %s", run.CreatedAt)
	}
	if run.FailedGeneration != nil {
		t.Fatalf("expected no failed generation, got %d", *run.FailedGeneration)
	}
}

func TestDecodeGenerationFixture(t *testing.T) {
	record, err := DecodeGeneration(readFixture(t, "generation_v1.json"))
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if record.RunID != "run-fixture-1" || record.Generation != 0 || record.Max != 412 {
		t.Fatalf("unexpected generation: %+v", record)
	}
}

func TestDecodeRunRejectsVersionMismatch(t *testing.T) {
	_, err := DecodeRun(readFixture(t, "run_v0.json"))
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func TestRunCodecRoundTrip(t *testing.T) {
	failed := 17
	in := model.RunRecord{
		VersionedRecord:  CurrentVersion(),
		ID:               "run-2",
		PopulationSize:   10,
		Memory:           2,
		Status:           model.RunStatusFailed,
		FailedGeneration: &failed,
		Error:            "total fitness is 0",
		CreatedAt:        time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	data, err := EncodeRun(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeRun(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.FailedGeneration == nil || *out.FailedGeneration != failed || out.Error != in.Error {
		t.Fatalf("unexpected round trip: %+v", out)
	}
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "fixtures", name))
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return data
}
