package openai

import "fmt"

const tableResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "headers": {
      "type": "array",
      "items": {"type": "string"}
    },
    "rows": {
      "type": "array",
      "items": {
        "type": "array",
        "items": {"type": "string"}
      }
    },
    "confidence": {
      "type": "number",
      "minimum": 0,
      "maximum": 1
    }
  },
  "required": ["headers", "rows", "confidence"],
  "additionalProperties": false
}`

const tablePromptTemplate = `Extract the main table from the given document text and return it as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Headers are the column names in their original order. Use [] if the table has no header row.
- Every row has one cell per header, in header order. Use "" for an empty cell.
- Copy cell values verbatim, including currency symbols, units, and thousands separators.
- Do not invent rows or values that are not in the text.
- confidence is your estimate from 0 to 1 that the rows are complete and correct.
- If the text contains no table, return {"headers": [], "rows": [], "confidence": 0}.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input: "Item Qty Price / Widget 2 $4.00 / Gadget 1 $9.50"
Output:
{
  "headers": ["Item", "Qty", "Price"],
  "rows": [["Widget", "2", "$4.00"], ["Gadget", "1", "$9.50"]],
  "confidence": 0.8
}`

// buildSystemPrompt creates the system prompt with the response schema embedded.
func buildSystemPrompt() string {
	return fmt.Sprintf(tablePromptTemplate, tableResponseSchema)
}
