// Package records defines the flattened field-to-value records that flow
// through the mapping pipeline, the raw input union they are decoded from, and
// the chunking of oversized records into bounded submission units.
//
// A Record preserves insertion order and resolves duplicate keys last-write-wins:
// the newer value replaces the older one and the key keeps its first position.
package records
