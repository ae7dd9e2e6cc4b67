package catalog

import "strings"

// Style selects the system prompt layout.
type Style string

const (
	// StyleStrict asks for a bare JSON array with confidence_level.
	StyleStrict Style = "strict"

	// StyleFields asks for a result array in the field_code schema.
	StyleFields Style = "fields"
)

// ParseStyle returns the style named s, defaulting to StyleStrict.
func ParseStyle(s string) (Style, bool) {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case "", StyleStrict:
		return StyleStrict, true
	case StyleFields:
		return StyleFields, true
	default:
		return "", false
	}
}

const strictRequirements = `

=== CRITICAL OUTPUT REQUIREMENTS ===
1. RETURN ONLY A VALID JSON ARRAY - No explanations, comments, or additional text
2. ALL FIELD VALUES MUST BE PROPERLY QUOTED STRINGS
3. NEVER use unquoted words like 'Product', 'Production', 'Process', etc.
4. ALL strings containing words starting with 'Prod' MUST be quoted: "Production Item"
5. Include a confidence_level field (0-100) for each mapped record
6. Example correct format: [{"field1":"Production Ready","field2":"Product Code","confidence_level":85}]
7. VALIDATE your JSON before returning - ensure all brackets, braces, and quotes are balanced
8. If you're unsure about a mapping, use null: {"field1":null,"confidence_level":30}

REMEMBER: Any unquoted text will cause parsing errors. Everything must be valid JSON!`

const fieldsSteps = `
STEPS (follow strictly and in order):
1. Review every TargetField (code + name).
2. Examine ALL keys and values of the InputDictionary.
3. For each TargetField, choose ONE InputDictionary key whose value best represents the semantic meaning of the TargetField.
4. Assign a confidence score from 0-100 for that pairing.
   - 100 = exact semantic & lexical match
   - 90-99 = strong match
   - 70-89 = reasonable / partial match
   - below 70 = weak match (use only if nothing better)
5. If no reasonable match exists, output an empty string ("") for input_key and value, and set confidence to 0.
6. No InputDictionary key may be mapped to more than one TargetField.
7. Do not invent, transform, or split values. Use what is present.
8. Produce the final answer strictly in the Output Format shown below.

Output Format (JSON ONLY, no extra keys, comments, or text):
{"result": [
  {
    "field_code": "<TargetField code>",
    "field_name": "<TargetField name>",
    "input_key": "<matched InputDictionary key or empty string>",
    "value": "<matched value or empty string>",
    "confidence": <integer 0-100>
  },
  ...
]}`

// DefaultFieldsPreamble introduces the fields template when no user
// instruction is given.
const DefaultFieldsPreamble = "You are an agent that maps raw record data (passed as an InputDictionary) to " +
	"a standardized schema of target fields. Your goal is to output, for every target field, " +
	"the best-matching value found in the input dictionary together with a confidence score.\n\n"

func writeTargets(b *strings.Builder, c *Catalog) {
	b.WriteString("TargetFields:\n")
	for _, f := range c.fields {
		b.WriteString(f.String())
		b.WriteByte('\n')
	}
}

// BuildSystemPrompt returns the user instruction, the target field list and
// the strict output requirements.
func BuildSystemPrompt(userPrompt string, c *Catalog) string {
	var b strings.Builder
	b.WriteString(userPrompt)
	writeTargets(&b, c)
	b.WriteString(strictRequirements)
	return b.String()
}

// FieldsTemplate returns a prompt asking for one result entry per target
// field with field_code, field_name, input_key, value and confidence.
func FieldsTemplate(userPrompt string, c *Catalog) string {
	var b strings.Builder
	if strings.TrimSpace(userPrompt) == "" {
		b.WriteString(DefaultFieldsPreamble)
	} else {
		b.WriteString(userPrompt)
		if !strings.HasSuffix(userPrompt, "\n") {
			b.WriteString("\n\n")
		}
	}
	writeTargets(&b, c)
	b.WriteString(fieldsSteps)
	return b.String()
}

// Build dispatches on style.
func Build(style Style, userPrompt string, c *Catalog) string {
	if style == StyleFields {
		return FieldsTemplate(userPrompt, c)
	}
	return BuildSystemPrompt(userPrompt, c)
}
