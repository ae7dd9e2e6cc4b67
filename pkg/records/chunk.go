package records

import "fmt"

// Chunk is a contiguous slice of one record's fields submitted on its own.
type Chunk struct {
	// Index is the 0-based position of this chunk.
	Index int

	// Total is the number of chunks that will be submitted.
	Total int

	// Record holds the chunk's fields in original order.
	Record *Record
}

// ChunkPlan is the outcome of splitting a record.
type ChunkPlan struct {
	Chunks []Chunk

	// Dropped counts chunks discarded by the chunk ceiling.
	Dropped int
}

// Partition splits keys into contiguous groups of at most size keys.
// Concatenating the groups reproduces keys exactly.
func Partition(keys []string, size int) ([][]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}

	groups := make([][]string, 0, (len(keys)+size-1)/size)
	for start := 0; start < len(keys); start += size {
		end := start + size
		if end > len(keys) {
			end = len(keys)
		}
		groups = append(groups, keys[start:end:end])
	}
	return groups, nil
}

// Split partitions r into chunks of at most maxKeys fields and keeps the first
// maxChunks of them. Chunks beyond the ceiling are dropped and counted.
// maxChunks <= 0 keeps every chunk.
func Split(r *Record, maxKeys, maxChunks int) (ChunkPlan, error) {
	groups, err := Partition(r.Keys(), maxKeys)
	if err != nil {
		return ChunkPlan{}, err
	}

	var plan ChunkPlan
	if maxChunks > 0 && len(groups) > maxChunks {
		plan.Dropped = len(groups) - maxChunks
		groups = groups[:maxChunks]
	}

	plan.Chunks = make([]Chunk, len(groups))
	for i, g := range groups {
		plan.Chunks[i] = Chunk{
			Index:  i,
			Total:  len(groups),
			Record: r.Subset(g),
		}
	}
	return plan, nil
}
