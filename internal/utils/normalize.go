package utils

import "math"

// CreateRankList creates a slice of ranks based on position.
// The rank starts at first for the first item and increments for subsequent items,
// saturating at math.MaxUint16.
// Useful for ranking items that are already sorted.
func CreateRankList(first, count int) []uint16 {
	if count <= 0 {
		return []uint16{}
	}
	ranks := make([]uint16, count)
	for i := range count {
		ranks[i] = uint16(min(max(first+i, 1), math.MaxUint16))
	}
	return ranks
}
