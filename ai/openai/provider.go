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
	"fmt"
	"log/slog"

	"github.com/poiesic/docingest/ai"
)

// Provider serves the embedder and the table extractor from the same
// configuration. Both share the token; hosts and models may differ.
type Provider struct {
	embedder  *Embedder
	extractor *TableExtractor
	logger    *slog.Logger
}

// NewProvider validates config and builds both services.
//
// Returns ai.AIProvider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, fmt.Errorf("embedding service: %w", err)
	}
	extractor, err := newTableExtractor(config)
	if err != nil {
		return nil, fmt.Errorf("extraction service: %w", err)
	}

	logger := slog.Default().With("component", "openai-provider")
	logger.Debug("provider ready",
		"embedding_host", config.EmbeddingHost, "embedding_model", config.EmbeddingModel,
		"extractor_host", config.ExtractorHost, "extractor_model", config.ExtractorModel)
	return &Provider{
		embedder:  embedder,
		extractor: extractor,
		logger:    logger,
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// TableExtractor returns the table extraction service.
func (p *Provider) TableExtractor() ai.TableExtractor {
	return p.extractor
}

// EmbeddingModel returns the model vectors are keyed by.
func (p *Provider) EmbeddingModel() string {
	return p.embedder.Model()
}

// Close is a no-op; the HTTP clients hold no resources that need release.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
