package pdf

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// columnGap separates text runs that were placed apart on the same line.
const columnGap = "   "

// kerningGap is the TJ adjustment (thousandths of an em) treated as a gap
// between cells rather than letter spacing.
const kerningGap = -200

var (
	pdfString = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)
	tjElement = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)|-?\d+(?:\.\d+)?`)
)

// streamText interprets the text operators of a content stream.
func streamText(data []byte) string {
	var lines []string
	var cur strings.Builder

	newline := func() {
		if s := strings.TrimRightFunc(cur.String(), unicode.IsSpace); s != "" {
			lines = append(lines, s)
		}
		cur.Reset()
	}
	gap := func() {
		if cur.Len() > 0 && !strings.HasSuffix(cur.String(), columnGap) {
			cur.WriteString(columnGap)
		}
	}

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		fields := bytes.Fields(line)
		op := string(fields[len(fields)-1])

		switch op {
		case "Tj":
			for _, m := range pdfString.FindAllSubmatch(line, -1) {
				cur.WriteString(decodeString(m[1]))
			}
		case "TJ":
			writeTJ(&cur, line, gap)
		case "'", "\"":
			newline()
			for _, m := range pdfString.FindAllSubmatch(line, -1) {
				cur.WriteString(decodeString(m[1]))
			}
		case "Td", "TD":
			if len(fields) >= 3 && isZero(fields[len(fields)-2]) {
				gap()
			} else {
				newline()
			}
		case "T*", "ET", "Tm":
			newline()
		}
	}
	newline()
	return strings.Join(lines, "\n")
}

func writeTJ(cur *strings.Builder, line []byte, gap func()) {
	for _, m := range tjElement.FindAllSubmatch(line, -1) {
		if m[0][0] == '(' {
			cur.WriteString(decodeString(m[1]))
			continue
		}
		if n, err := strconv.ParseFloat(string(m[0]), 64); err == nil && n <= kerningGap {
			gap()
		}
	}
}

func isZero(b []byte) bool {
	n, err := strconv.ParseFloat(string(b), 64)
	return err == nil && n == 0
}

// decodeString resolves the escape sequences of a PDF literal string.
func decodeString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' || i+1 >= len(raw) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			val := 0
			j := 0
			for ; j < 3 && i+j < len(raw) && raw[i+j] >= '0' && raw[i+j] <= '7'; j++ {
				val = val*8 + int(raw[i+j]-'0')
			}
			i += j - 1
			sb.WriteByte(byte(val))
		default:
			sb.WriteByte(raw[i])
		}
	}
	return sb.String()
}
