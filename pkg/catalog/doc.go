// Package catalog parses target field lists and builds the system prompts
// sent with each mapping request.
//
// Entries look like "F20:External Material Group" or "F20 - External
// Material Group". An entry without a separator is given the code F<n>,
// where n is the catalog size plus one.
package catalog
