package core

import (
	"slices"
	"strings"
	"time"
)

// ContentRecord is the dedup history entry for one distinct piece of content.
// Two files with identical bytes always map to the same record, whatever
// their names or locations.
type ContentRecord struct {
	ContentHash   string         `json:"content_hash"`
	OriginalName  string         `json:"filename"`
	AbsolutePath  string         `json:"path"`
	SizeBytes     int64          `json:"size_bytes"`
	ProcessedAt   time.Time      `json:"processed_at"`
	ExtraMetadata map[string]any `json:"metadata,omitempty"`
}

// Record is a single structured record produced by an extraction engine,
// keyed by column name.
type Record struct {
	Values map[string]string `json:"values"`
}

// Cells returns the record's values in no particular order.
func (r Record) Cells() []string {
	cells := make([]string, 0, len(r.Values))
	for _, v := range r.Values {
		cells = append(cells, v)
	}
	return cells
}

// ExtractionResult is what an engine returns for one document.
type ExtractionResult struct {
	Engine         string        `json:"engine"`
	EngineVersion  string        `json:"engine_version,omitempty"`
	Headers        []string      `json:"headers,omitempty"`
	Records        []Record      `json:"records"`
	Text           string        `json:"text,omitempty"`            // raw text the records were parsed from
	Error          string        `json:"error,omitempty"`           // engine-reported failure
	ConfidenceHint float64       `json:"confidence_hint,omitempty"` // 0-1, optional
	Duration       time.Duration `json:"duration"`
	Quality        *QualityScore `json:"quality,omitempty"`
}

// Failed reports whether the engine flagged the extraction as failed.
func (r *ExtractionResult) Failed() bool {
	return r == nil || r.Error != ""
}

// Content returns a flat text rendering of the result, used as embedding input.
// Falls back to rendering records when no raw text is present.
func (r *ExtractionResult) Content() string {
	if r == nil {
		return ""
	}
	if r.Text != "" {
		return r.Text
	}
	var sb strings.Builder
	if len(r.Headers) > 0 {
		sb.WriteString(strings.Join(r.Headers, " | "))
		sb.WriteByte('\n')
	}
	for _, rec := range r.Records {
		first := true
		for _, h := range r.columns(rec) {
			if !first {
				sb.WriteString(" | ")
			}
			sb.WriteString(rec.Values[h])
			first = false
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (r *ExtractionResult) columns(rec Record) []string {
	if len(r.Headers) > 0 {
		return r.Headers
	}
	cols := make([]string, 0, len(rec.Values))
	for k := range rec.Values {
		cols = append(cols, k)
	}
	slices.Sort(cols)
	return cols
}

// Grade is an advisory label for a quality score.
type Grade string

const (
	GradeExcellent Grade = "Excellent"
	GradeGood      Grade = "Good"
	GradeFair      Grade = "Fair"
	GradePoor      Grade = "Poor"
)

// GradeFor maps a 0-100 score to its grade.
func GradeFor(score float64) Grade {
	switch {
	case score >= 90:
		return GradeExcellent
	case score >= 75:
		return GradeGood
	case score >= 60:
		return GradeFair
	default:
		return GradePoor
	}
}

// QualityScore is a 0-100 assessment of an extraction result together with
// the sub-scores it was built from. Each sub-score is on its own point scale.
type QualityScore struct {
	Total             float64 `json:"total"`
	RecordCount       float64 `json:"record_count"`       // 0-20
	Completeness      float64 `json:"completeness"`       // 0-30
	Structure         float64 `json:"structure"`          // 0-25
	TextQuality       float64 `json:"text_quality"`       // 0-15
	BackendConfidence float64 `json:"backend_confidence"` // 0-10
	Grade             Grade   `json:"grade"`
}

// EngineDescriptor is a snapshot of an extraction engine's static descriptors.
type EngineDescriptor struct {
	Name      string
	Priority  int // 1 is highest
	Available bool
	Version   string
}

// IngestedDocument is one processed file handed to the downstream stage.
type IngestedDocument struct {
	ContentHash        string
	Name               string
	Path               string
	Result             *ExtractionResult
	Vector             []float32
	ExtractionCacheHit bool
	EmbeddingCacheHit  bool
}

// ItemError records a per-file failure inside a batch.
type ItemError struct {
	ItemName string `json:"item"`
	Message  string `json:"message"`
	Err      error  `json:"-"`
}

// IngestBatchResult accumulates the outcome of one ingest call.
type IngestBatchResult struct {
	BatchID               string
	ProcessedCount        int
	SkippedDuplicateCount int
	ExtractionCacheHits   int
	EmbeddingCacheHits    int
	TotalRecordsProduced  int
	ElapsedSeconds        float64
	Errors                []ItemError
	Documents             []*IngestedDocument
}

// FailedCount returns the number of files that could not be processed.
func (r *IngestBatchResult) FailedCount() int {
	return len(r.Errors)
}

// AddError appends a per-file failure.
func (r *IngestBatchResult) AddError(item string, err error) {
	r.Errors = append(r.Errors, ItemError{ItemName: item, Message: err.Error(), Err: err})
}

// SearchHit is a single cached query result.
type SearchHit struct {
	Source  string  `json:"source"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet,omitempty"`
}
