// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package quality scores extraction results on a 0-100 scale.
//
// The score is the sum of five sub-scores, each on its own point scale:
//
//	record count        0-20
//	completeness        0-30
//	structure           0-25
//	text quality        0-15
//	engine confidence   0-10
//
// The point scales encode the weights (0.20, 0.30, 0.25, 0.15, 0.10), so no
// further weighting is applied. A failed extraction scores 0.
package quality

import (
	"maps"
	"regexp"
	"strings"
	"unicode"

	"github.com/poiesic/docingest/core"
)

// Sub-score ceilings.
const (
	MaxRecordCount  = 20.0
	MaxCompleteness = 30.0
	MaxStructure    = 25.0
	MaxTextQuality  = 15.0
	MaxConfidence   = 10.0
)

// Scorer assesses an extraction result.
type Scorer interface {
	Assess(result *core.ExtractionResult) core.QualityScore
}

// DefaultConfidence is the per-engine prior used for the confidence
// sub-score.
var DefaultConfidence = map[string]float64{
	"html":   9,
	"pdf":    8,
	"text":   7,
	"office": 6,
	"llm":    5,
}

// Assessor is the standard Scorer.
type Assessor struct {
	confidence map[string]float64
}

var _ Scorer = (*Assessor)(nil)

// Option configures an Assessor.
type Option func(*Assessor)

// WithConfidence sets the confidence prior for an engine name.
func WithConfidence(engine string, points float64) Option {
	return func(a *Assessor) {
		a.confidence[engine] = clamp(points, 0, MaxConfidence)
	}
}

// NewAssessor creates an Assessor with the default confidence table.
func NewAssessor(opts ...Option) *Assessor {
	a := &Assessor{confidence: maps.Clone(DefaultConfidence)}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assess scores result. Failed results score 0.
func (a *Assessor) Assess(result *core.ExtractionResult) core.QualityScore {
	if result.Failed() {
		return core.QualityScore{Grade: core.GradePoor}
	}

	s := core.QualityScore{
		RecordCount:       recordCountScore(len(result.Records)),
		Completeness:      completenessScore(result.Records),
		Structure:         structureScore(result),
		TextQuality:       textQualityScore(result),
		BackendConfidence: a.confidenceScore(result),
	}
	s.Total = s.RecordCount + s.Completeness + s.Structure + s.TextQuality + s.BackendConfidence
	s.Grade = core.GradeFor(s.Total)
	return s
}

func recordCountScore(n int) float64 {
	switch {
	case n <= 0:
		return 0
	case n <= 2:
		return 10
	case n <= 5:
		return 15
	default:
		return MaxRecordCount
	}
}

var placeholders = map[string]struct{}{
	"": {}, "-": {}, "--": {}, "—": {}, "n/a": {}, "na": {},
	"null": {}, "none": {}, "nil": {}, "?": {},
}

// IsPlaceholder reports whether a cell carries no real value.
func IsPlaceholder(cell string) bool {
	_, ok := placeholders[strings.ToLower(strings.TrimSpace(cell))]
	return ok
}

func completenessScore(records []core.Record) float64 {
	total, filled := 0, 0
	for _, rec := range records {
		for _, v := range rec.Values {
			total++
			if !IsPlaceholder(v) {
				filled++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(filled) / float64(total) * MaxCompleteness
}

// separatorLine matches markdown and ASCII table rules such as
// "|---|:--:|", "+-----+----+", or "=====".
var separatorLine = regexp.MustCompile(`(?m)^[ \t|+:=-]*[-=]{3,}[ \t|+:=-]*$`)

func structureScore(result *core.ExtractionResult) float64 {
	score := 0.0
	if len(result.Headers) > 0 || separatorLine.MatchString(result.Text) {
		score += 15
	}
	if consistentColumns(result.Records) {
		score += 10
	}
	return score
}

func consistentColumns(records []core.Record) bool {
	if len(records) == 0 {
		return false
	}
	width := len(records[0].Values)
	if width == 0 {
		return false
	}
	for _, rec := range records[1:] {
		if len(rec.Values) != width {
			return false
		}
	}
	return true
}

var numericToken = regexp.MustCompile(`[$€£¥]\s?\d|\b\d{1,3}(?:,\d{3})+(?:\.\d+)?\b|\b\d+(?:\.\d+)?%?`)

func textQualityScore(result *core.ExtractionResult) float64 {
	content := result.Content()
	if IsGarbled(content) {
		return 5
	}
	if numericToken.MatchString(content) {
		return MaxTextQuality
	}
	return 10
}

// IsGarbled reports whether text shows signs of a broken decode: three or
// more replacement characters, or a run of four or more non-printable
// runes.
func IsGarbled(text string) bool {
	if strings.Count(text, "�") >= 3 {
		return true
	}
	run := 0
	for _, r := range text {
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			run = 0
			continue
		}
		run++
		if run >= 4 {
			return true
		}
	}
	return false
}

func (a *Assessor) confidenceScore(result *core.ExtractionResult) float64 {
	if points, ok := a.confidence[result.Engine]; ok {
		return points
	}
	if result.ConfidenceHint > 0 {
		return clamp(result.ConfidenceHint*MaxConfidence, 0, MaxConfidence)
	}
	return 5
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
