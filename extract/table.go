package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/poiesic/docingest/core"
)

// Table is a parsed table: optional headers plus rows of cells.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Records converts rows into keyed records. Missing headers are named
// col1, col2, ...; a short row carries only the cells it has, so record
// widths match the source rows.
func (t Table) Records() []core.Record {
	width := len(t.Headers)
	for _, row := range t.Rows {
		width = max(width, len(row))
	}
	headers := ColumnNames(t.Headers, width)

	records := make([]core.Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		values := make(map[string]string, len(row))
		for i, cell := range row {
			values[headers[i]] = cell
		}
		records = append(records, core.Record{Values: values})
	}
	return records
}

// ColumnNames returns width unique column names, reusing headers where
// present and non-empty.
func ColumnNames(headers []string, width int) []string {
	names := make([]string, width)
	seen := make(map[string]int, width)
	for i := range names {
		name := ""
		if i < len(headers) {
			name = strings.TrimSpace(headers[i])
		}
		if name == "" {
			name = "col" + strconv.Itoa(i+1)
		}
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name = name + "_" + strconv.Itoa(n+1)
		} else {
			seen[name] = 1
		}
		names[i] = name
	}
	return names
}

var (
	mdSeparator = regexp.MustCompile(`^\s*\|?\s*:?-{3,}:?\s*(\|\s*:?-{3,}:?\s*)*\|?\s*$`)
	wideGap     = regexp.MustCompile(`\t+|\s{2,}`)
)

// ParseTable finds the first table in text. Markdown pipe tables are
// preferred, then tab- or space-aligned columns. Reports false when no
// table is found.
func ParseTable(text string) (Table, bool) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if t, ok := parseMarkdown(lines); ok {
		return t, true
	}
	return parseAligned(lines)
}

func parseMarkdown(lines []string) (Table, bool) {
	for i := 1; i < len(lines); i++ {
		if !mdSeparator.MatchString(lines[i]) || !strings.Contains(lines[i-1], "|") {
			continue
		}
		t := Table{Headers: splitPipes(lines[i-1])}
		for _, line := range lines[i+1:] {
			if !strings.Contains(line, "|") {
				break
			}
			t.Rows = append(t.Rows, splitPipes(line))
		}
		return t, true
	}
	return Table{}, false
}

func splitPipes(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	cells := strings.Split(line, "|")
	for i, c := range cells {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}

// parseAligned takes the longest run of consecutive lines that split into
// the same number (at least two) of fields on tabs or wide gaps. The first
// line of the run is the header row.
func parseAligned(lines []string) (Table, bool) {
	var best, cur [][]string
	for _, line := range lines {
		fields := splitAligned(line)
		if len(fields) >= 2 && (len(cur) == 0 || len(fields) == len(cur[0])) {
			cur = append(cur, fields)
		} else {
			if len(cur) > len(best) {
				best = cur
			}
			cur = nil
			if len(fields) >= 2 {
				cur = [][]string{fields}
			}
		}
	}
	if len(cur) > len(best) {
		best = cur
	}
	if len(best) < 2 {
		return Table{}, false
	}
	return Table{Headers: best[0], Rows: best[1:]}, true
}

func splitAligned(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	parts := wideGap.Split(line, -1)
	fields := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			fields = append(fields, p)
		}
	}
	return fields
}

// Result builds an ExtractionResult from raw text, parsing the first
// table it contains.
func Result(engine, version, text string) *core.ExtractionResult {
	result := &core.ExtractionResult{
		Engine:        engine,
		EngineVersion: version,
		Text:          text,
		Records:       []core.Record{},
	}
	if t, ok := ParseTable(text); ok {
		result.Headers = ColumnNames(t.Headers, len(t.Headers))
		result.Records = t.Records()
	}
	return result
}
