package core

import (
	"errors"
	"testing"
)

func TestGradeFor(t *testing.T) {
	tests := []struct {
		score float64
		want  Grade
	}{
		{100, GradeExcellent},
		{90, GradeExcellent},
		{89.9, GradeGood},
		{75, GradeGood},
		{74, GradeFair},
		{60, GradeFair},
		{59.99, GradePoor},
		{0, GradePoor},
	}

	for _, tt := range tests {
		if got := GradeFor(tt.score); got != tt.want {
			t.Errorf("GradeFor(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestExtractionResult_Failed(t *testing.T) {
	var nilResult *ExtractionResult
	if !nilResult.Failed() {
		t.Error("nil result should be failed")
	}
	if (&ExtractionResult{}).Failed() {
		t.Error("empty result should not be failed")
	}
	if !(&ExtractionResult{Error: "boom"}).Failed() {
		t.Error("result with error should be failed")
	}
}

func TestExtractionResult_Content(t *testing.T) {
	t.Run("prefers raw text", func(t *testing.T) {
		r := &ExtractionResult{Text: "raw", Records: []Record{{Values: map[string]string{"a": "1"}}}}
		if got := r.Content(); got != "raw" {
			t.Errorf("Content() = %q, want %q", got, "raw")
		}
	})

	t.Run("renders records in header order", func(t *testing.T) {
		r := &ExtractionResult{
			Headers: []string{"date", "amount"},
			Records: []Record{
				{Values: map[string]string{"date": "2024-01-02", "amount": "12.50"}},
			},
		}
		want := "date | amount\n2024-01-02 | 12.50\n"
		if got := r.Content(); got != want {
			t.Errorf("Content() = %q, want %q", got, want)
		}
	})

	t.Run("sorts columns without headers", func(t *testing.T) {
		r := &ExtractionResult{
			Records: []Record{{Values: map[string]string{"b": "2", "a": "1"}}},
		}
		if got := r.Content(); got != "1 | 2\n" {
			t.Errorf("Content() = %q", got)
		}
	})
}

func TestIngestBatchResult_AddError(t *testing.T) {
	r := &IngestBatchResult{}
	err := errors.New("boom")
	r.AddError("file2.pdf", err)

	if r.FailedCount() != 1 {
		t.Fatalf("FailedCount() = %d, want 1", r.FailedCount())
	}
	if r.Errors[0].ItemName != "file2.pdf" || r.Errors[0].Message != "boom" {
		t.Errorf("unexpected error entry: %+v", r.Errors[0])
	}
	if !errors.Is(r.Errors[0].Err, err) {
		t.Error("original error should be retained")
	}
}
