package validate

import "github.com/cespare/xxhash/v2"

// DuplicateDetector buckets row content by a 64-bit xxhash digest to
// find exact duplicates. Pure data structure, no I/O.
//
// The digest only groups candidates; members of a bucket are confirmed
// byte-identical before being reported, so a hash collision can never
// manufacture a false duplicate.
type DuplicateDetector struct {
	buckets map[uint64][]bucketEntry
	order   []uint64 // digests in first-seen order
}

type bucketEntry struct {
	row     int
	content string
}

// DuplicateGroup is a set of two or more rows with identical content.
type DuplicateGroup struct {
	Rows    []int
	Content string
}

// NewDuplicateDetector returns an empty detector.
func NewDuplicateDetector() *DuplicateDetector {
	return &DuplicateDetector{
		buckets: make(map[uint64][]bucketEntry),
	}
}

// Add records one row's trimmed content.
func (d *DuplicateDetector) Add(row int, content string) {
	digest := xxhash.Sum64String(content)
	if _, ok := d.buckets[digest]; !ok {
		d.order = append(d.order, digest)
	}
	d.buckets[digest] = append(d.buckets[digest], bucketEntry{row: row, content: content})
}

// Groups returns all confirmed duplicate groups in first-seen order.
// Rows within a group keep their scan order.
func (d *DuplicateDetector) Groups() []DuplicateGroup {
	var groups []DuplicateGroup

	for _, digest := range d.order {
		entries := d.buckets[digest]
		if len(entries) < 2 {
			continue
		}

		// Split the bucket by exact content. Buckets are tiny, so the
		// quadratic comparison is fine.
		var subs []DuplicateGroup
		for _, e := range entries {
			placed := false
			for i := range subs {
				if subs[i].Content == e.content {
					subs[i].Rows = append(subs[i].Rows, e.row)
					placed = true
					break
				}
			}
			if !placed {
				subs = append(subs, DuplicateGroup{Rows: []int{e.row}, Content: e.content})
			}
		}

		for _, g := range subs {
			if len(g.Rows) >= 2 {
				groups = append(groups, g)
			}
		}
	}

	return groups
}
