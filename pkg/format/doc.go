// Package format detects the shape of raw record text and decodes it into
// records.Record values.
//
// # Formats
//
//   - JSONObject / JSONArray: strict JSON, objects become records
//   - DelimitedDictionary: [*Field:value,*Other:value] with optional
//     multi-record separators (]; [, ] [ and ],[)
//   - KeyValueLines: one key=value pair per line
//
// # Detection
//
// Detection is an ordered chain of rules; the first rule that matches wins.
// JSON is chosen only when the text is structurally balanced, free of bare
// blacklisted words (see package jsonscan) and actually valid JSON. Bracketed
// text with record separators or unquoted "identifier:" pairs is a delimited
// dictionary, text with "=" on some line is key/value lines, and anything
// else falls back to the delimited decoder.
//
// # Usage
//
//	parser := format.NewParser()
//	res, err := parser.Parse("[*F1:a] ; [*F1:b]")
//	if errors.Is(err, format.ErrNoFieldsFound) {
//	    // skip this input
//	}
//	for _, rec := range res.Records {
//	    fmt.Println(rec.JSON())
//	}
//
// Decoders are pluggable per format through WithDecoder.
package format
