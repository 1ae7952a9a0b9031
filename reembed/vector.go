package reembed

import (
	"math"
	"strings"
)

// NormalizeVector normalizes a vector to unit length.
// Returns a new vector. If the input is a zero vector, returns a zero vector.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	result := make([]float32, len(v))
	if sum == 0 {
		return result
	}

	magnitude := math.Sqrt(sum)
	for i, val := range v {
		result[i] = float32(float64(val) / magnitude)
	}
	return result
}

// EmbeddingInput trims text and cuts it to at most maxChars runes.
// maxChars <= 0 means no limit.
func EmbeddingInput(text string, maxChars int) string {
	text = strings.TrimSpace(text)
	if maxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars])
}
