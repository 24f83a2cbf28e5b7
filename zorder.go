package rowan

import (
	"errors"
	"math/bits"
)

// ErrItemNotFound is returned by changeZ when the item is not present in the
// bucket for its claimed old z-index.
var ErrItemNotFound = errors.New("rowan: item not found in z-order bucket")

// zBucketCount is the number of depth slots. Z-indices outside the effective
// range [-128, 127] are clamped at placement time.
const zBucketCount = 256

// zItem identifies one render item inside a z-order bucket.
type zItem struct {
	ID   EntityID
	Kind VisualKind
}

// zBucketIndex converts a signed z-index into a bucket slot.
func zBucketIndex(z int) int {
	z += 128
	if z < 0 {
		return 0
	}
	if z >= zBucketCount {
		return zBucketCount - 1
	}
	return z
}

// zOrderIndex keeps render items ordered by depth without sorting: one bucket
// per effective z-index, appended in insertion order. An occupancy bitset lets
// iteration skip empty buckets, so a full walk costs O(items + occupied
// buckets) rather than O(items + 256).
type zOrderIndex struct {
	buckets  [zBucketCount][]zItem
	occupied [zBucketCount / 64]uint64
	count    int
}

// Len returns the total number of items across all buckets.
func (z *zOrderIndex) Len() int {
	return z.count
}

// insert appends item to the bucket for zIndex.
func (z *zOrderIndex) insert(item zItem, zIndex int) {
	b := zBucketIndex(zIndex)
	z.buckets[b] = append(z.buckets[b], item)
	z.occupied[b>>6] |= 1 << uint(b&63)
	z.count++
}

// remove deletes item from the bucket for zIndex, preserving the insertion
// order of the remaining items. Reports whether the item was present.
// Cost is O(bucket size).
func (z *zOrderIndex) remove(item zItem, zIndex int) bool {
	b := zBucketIndex(zIndex)
	bucket := z.buckets[b]
	for i := range bucket {
		if bucket[i] == item {
			z.buckets[b] = append(bucket[:i], bucket[i+1:]...)
			if len(z.buckets[b]) == 0 {
				z.occupied[b>>6] &^= 1 << uint(b&63)
			}
			z.count--
			return true
		}
	}
	return false
}

// changeZ relocates item from oldZ's bucket to newZ's bucket. The insert into
// the new bucket happens first; if the item then turns out not to exist at
// oldZ, the insert is rolled back and ErrItemNotFound is returned, leaving
// the index exactly as it was. The item is never lost mid-move.
func (z *zOrderIndex) changeZ(item zItem, oldZ, newZ int) error {
	if zBucketIndex(oldZ) == zBucketIndex(newZ) {
		return nil
	}
	z.insert(item, newZ)
	if !z.remove(item, oldZ) {
		z.remove(item, newZ)
		return ErrItemNotFound
	}
	return nil
}

// each calls fn for every item in ascending z order; items sharing a z-index
// are visited in insertion order. Iteration stops early if fn returns false.
// Empty buckets are skipped via the occupancy bitset.
func (z *zOrderIndex) each(fn func(item zItem) bool) {
	for w := 0; w < len(z.occupied); w++ {
		word := z.occupied[w]
		for word != 0 {
			b := w<<6 + bits.TrailingZeros64(word)
			word &= word - 1
			for _, item := range z.buckets[b] {
				if !fn(item) {
					return
				}
			}
		}
	}
}

// occupiedBuckets returns the number of non-empty buckets.
func (z *zOrderIndex) occupiedBuckets() int {
	n := 0
	for _, word := range z.occupied {
		n += bits.OnesCount64(word)
	}
	return n
}
