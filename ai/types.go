package ai

// ExtractedTable is a table recovered from free text.
type ExtractedTable struct {
	// Headers names the columns. May be empty when the model found none.
	Headers []string

	// Rows holds the cells in column order.
	Rows [][]string

	// Confidence is the model's own 0-1 estimate, when it gives one.
	Confidence float64
}

// Empty reports whether no rows were found.
func (t *ExtractedTable) Empty() bool {
	return t == nil || len(t.Rows) == 0
}
