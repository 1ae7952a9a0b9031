// Package extract defines the extraction engine contract and the pieces
// shared by concrete engines.
//
// Engines are registered explicitly at startup:
//
//	reg, err := extract.NewRegistry(
//	    html.New(),
//	    pdf.New(),
//	    text.New(),
//	)
//
// Concrete engines live in sub-packages: text (plain and delimited text),
// pdf (pdfcpu), html (bluemonday + html-to-markdown), office (docconv), llm
// (an ai.TableExtractor), and mock (a test double).
//
// ParseTable recovers the first table from plain or markdown text, which is
// how most engines turn text into records.
package extract
