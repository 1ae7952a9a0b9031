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

package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/docingest/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// TableExtractor implements ai.TableExtractor using OpenAI-compatible chat APIs.
type TableExtractor struct {
	client        llms.Model
	maxInputChars int
	logger        *slog.Logger
}

// table is an internal type used for JSON unmarshaling.
// It matches the structure expected by the LLM.
type table struct {
	Headers    []string   `json:"headers"`
	Rows       [][]string `json:"rows"`
	Confidence float64    `json:"confidence"`
}

// newTableExtractor is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newTableExtractor(config *ai.Config) (*TableExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.ExtractorHost),
		openai.WithToken(config.Token),
		openai.WithModel(config.ExtractorModel),
	)
	if err != nil {
		return nil, err
	}

	return &TableExtractor{
		client:        client,
		maxInputChars: config.MaxInputChars,
		logger:        slog.Default().With("component", "openai-extractor"),
	}, nil
}

// NewTableExtractor creates a new table extractor using the provided configuration.
//
// Returns ai.TableExtractor interface to enforce abstraction.
func NewTableExtractor(config *ai.Config) (ai.TableExtractor, error) {
	return newTableExtractor(config)
}

// ExtractTable asks the model for the table contained in text.
func (e *TableExtractor) ExtractTable(ctx context.Context, text string) (*ai.ExtractedTable, error) {
	text = truncateRunes(normalizeSpace(text), e.maxInputChars)
	if text == "" {
		return &ai.ExtractedTable{}, nil
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(buildSystemPrompt())},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(text)},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := e.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			e.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			e.logger.Debug("no choices returned from model")
			return &ai.ExtractedTable{}, nil
		}

		result, err := parseTableResponse(response.Choices[0].Content)
		if err != nil {
			lastErr = err
			e.logger.Warn("error parsing extractor response", "attempt", attempt+1, "err", err)
			continue
		}

		e.logger.Debug("extracted table", "columns", len(result.Headers), "rows", len(result.Rows))
		return result, nil
	}

	e.logger.Error("failed to parse extractor response after retries", "err", lastErr)
	return nil, lastErr
}

// parseTableResponse turns a raw model reply into a table.
// Code fences are stripped, common JSON slips repaired, and ragged rows
// padded or trimmed to the header width.
func parseTableResponse(raw string) (*ai.ExtractedTable, error) {
	responseText := strings.TrimSpace(raw)
	responseText = strings.TrimPrefix(responseText, "```json")
	responseText = strings.TrimPrefix(responseText, "```")
	responseText = strings.TrimSuffix(responseText, "```")
	responseText = repairJSON(strings.TrimSpace(responseText))

	var t table
	if err := json.Unmarshal([]byte(responseText), &t); err != nil {
		return nil, fmt.Errorf("malformed table JSON: %w", err)
	}

	headers := make([]string, 0, len(t.Headers))
	for _, h := range t.Headers {
		headers = append(headers, strings.TrimSpace(h))
	}

	rows := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if len(row) == 0 {
			continue
		}
		if width := len(headers); width > 0 {
			fitted := make([]string, width)
			copy(fitted, row)
			row = fitted
		}
		rows = append(rows, row)
	}

	return &ai.ExtractedTable{
		Headers:    headers,
		Rows:       rows,
		Confidence: max(0, min(t.Confidence, 1)),
	}, nil
}
