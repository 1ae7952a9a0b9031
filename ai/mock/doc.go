// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder,
// ai.TableExtractor, and ai.AIProvider for use in unit tests. The mocks run
// without external services and behave deterministically.
//
// # Usage in Tests
//
//	mockProvider := mock.NewMockProvider()
//	vector, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{0.1, 0.2, 0.3}, nil
//	}
//
//	// Check call counts
//	count := embedder.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: unit vectors derived from a hash of the text
//   - MockTableExtractor: first line as headers, later lines as rows
//   - MockProvider: aggregates the two
package mock
