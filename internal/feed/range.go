package feed

import "fmt"

// BlockRange represents an inclusive block range.
type BlockRange struct {
	From uint64
	To   uint64
}

// SplitRange splits a block range into windows of batchSize blocks.
// A zero batchSize keeps the whole range in a single window.
func SplitRange(from, to, batchSize uint64) ([]BlockRange, error) {
	if to < from {
		return nil, fmt.Errorf("to block must be >= from block")
	}
	if batchSize == 0 {
		return []BlockRange{{From: from, To: to}}, nil
	}

	ranges := make([]BlockRange, 0, (to-from)/batchSize+1)
	for start := from; ; {
		end := to
		if to-start >= batchSize {
			end = start + batchSize - 1
		}
		ranges = append(ranges, BlockRange{From: start, To: end})
		if end == to {
			return ranges, nil
		}
		start = end + 1
	}
}
