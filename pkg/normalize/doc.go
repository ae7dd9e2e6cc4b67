// Package normalize turns a raw chat completion body into mapped fields and a
// confidence score.
//
// The content at choices[0].message.content is read with gjson. Missing or
// empty content is a ContentError of kind NoContent and fails the record.
// Anything else always produces a Result, walking a recovery chain until a
// step yields JSON:
//
//	direct     the content (code fences removed) decodes as-is
//	extracted  a [...] or {...} span cut out of surrounding prose decodes
//	repaired   jsonscan.Repair fixed bare words or trailing commas
//	fallback   nothing worked; the result is empty with a low confidence
//
// An array is adopted as the field list, an object with a "result" array
// adopts that array, and any other object becomes a single field.
//
// Confidence is the mean of each object's "confidence_level" or
// "confidence" (numbers or numeric strings). When no object carries one,
// each object counts as DefaultPerObject.
package normalize
